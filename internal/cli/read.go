package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/remember-me/care-monitor/internal/reader"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	readPorts   []string
	readBaud    int
	readBackend string
)

var readCmd = &cobra.Command{
	Use:   "read",
	Short: "Forward events from a serial device to the ingestion service",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Flags().Changed("ports") {
			cfg.SerialPorts = readPorts
		}
		if cmd.Flags().Changed("baud") {
			cfg.BaudRate = readBaud
		}
		if cmd.Flags().Changed("backend") {
			cfg.BackendURL = readBackend
		}

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		r := reader.New(reader.Options{
			Candidates:   cfg.SerialPorts,
			BaudRate:     cfg.BaudRate,
			RetryDelay:   cfg.ConnectRetryDelay,
			PollInterval: cfg.PollInterval,
		}, newForwarder())

		log.Info().Str("backend", cfg.BackendURL).Strs("ports", cfg.SerialPorts).Msg("Starting device reader")
		if err := r.Run(ctx); err != nil && ctx.Err() == nil {
			return err
		}
		log.Info().Msg("Device reader stopped")
		return nil
	},
}

func init() {
	readCmd.Flags().StringSliceVar(&readPorts, "ports", nil, "Serial ports to try in order (default: $SERIAL_PORTS)")
	readCmd.Flags().IntVarP(&readBaud, "baud", "b", 9600, "Baud rate (default: $BAUD_RATE or 9600)")
	readCmd.Flags().StringVar(&readBackend, "backend", "", "Ingestion service URL (default: $BACKEND_URL)")
	RootCmd.AddCommand(readCmd)
}

// newForwarder signs requests when a device secret is configured, naming the
// device after this host.
func newForwarder() *reader.Forwarder {
	f := reader.NewForwarder(cfg.BackendURL, cfg.ForwardTimeout)
	if cfg.DeviceTokenSecret == "" {
		return f
	}
	host, err := os.Hostname()
	if err != nil {
		host = "unknown-host"
	}
	return f.WithDeviceToken(cfg.DeviceTokenSecret, fmt.Sprintf("reader@%s", host))
}
