package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/remember-me/care-monitor/internal/api"
	"github.com/remember-me/care-monitor/internal/logstore"
	"github.com/remember-me/care-monitor/internal/monitoring"
	"github.com/remember-me/care-monitor/internal/services"
	"github.com/remember-me/care-monitor/internal/websocket"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	servePort    int
	serveLogFile string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the ingestion service",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Flags().Changed("port") {
			cfg.ServerPort = servePort
		}
		if cmd.Flags().Changed("log-file") {
			cfg.LogFilePath = serveLogFile
		}
		return serve()
	},
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 5001, "HTTP port (default: $PORT or 5001)")
	serveCmd.Flags().StringVar(&serveLogFile, "log-file", "", "Care log path (default: $LOG_FILE or ./patient_log.txt)")
	RootCmd.AddCommand(serveCmd)
}

func serve() error {
	store, err := logstore.Open(cfg.LogFilePath)
	if err != nil {
		return fmt.Errorf("open care log: %w", err)
	}

	// Set up WebSocket Hub
	hub := websocket.NewHub()
	hub.Route(services.CareEventTopic, services.CareEventChannels...)
	go hub.Run()
	defer hub.Stop()

	eventService := services.NewCareEventService(store, hub)
	health := monitoring.NewHealthChecker(store, hub)

	scheduler, err := newSummaryScheduler(eventService, hub)
	if err != nil {
		return err
	}
	if scheduler != nil {
		go scheduler.Run()
		defer scheduler.Stop()
	}

	router := api.NewRouter(hub, eventService, health, api.Options{
		AllowedOrigins:    cfg.CORSAllowedOrigins,
		DeviceTokenSecret: cfg.DeviceTokenSecret,
		WebsocketURL:      fmt.Sprintf("ws://localhost:%d/ws", cfg.ServerPort),
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 1)
	go func() {
		log.Info().
			Int("port", cfg.ServerPort).
			Str("log_file", store.Path()).
			Bool("device_auth", cfg.DeviceTokenSecret != "").
			Msg("Server starting")
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
	case <-ctx.Done():
	}
	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Info().Msg("Server exiting")
	return nil
}

// newSummaryScheduler returns nil when no schedule is configured.
func newSummaryScheduler(eventService services.CareEventServiceProvider, publisher services.Publisher) (*monitoring.Scheduler, error) {
	if cfg.SummarySchedule == "" {
		return nil, nil
	}
	if cfg.SummaryTodosFile == "" {
		return nil, errors.New("SUMMARY_SCHEDULE is set but SUMMARY_TODOS_FILE is not")
	}

	todos, err := services.LoadTodos(cfg.SummaryTodosFile)
	if err != nil {
		return nil, fmt.Errorf("load summary todos: %w", err)
	}
	return monitoring.NewScheduler(cfg.SummarySchedule, todos, eventService, publisher)
}
