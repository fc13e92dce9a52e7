package cli

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/remember-me/care-monitor/internal/models"
	"github.com/remember-me/care-monitor/internal/reader"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// demoScenarios is the sequence a bedside device produces over a morning.
var demoScenarios = []models.CareEvent{
	{SubjectID: 1, RoutineType: "MEDICATION", Status: "COMPLETED"},
	{SubjectID: 2, RoutineType: "EXERCISE", Status: "COMPLETED"},
	{SubjectID: 3, RoutineType: "COGNITIVE", Status: "COMPLETED"},
	{SubjectID: 1, RoutineType: "MEAL", Status: "COMPLETED"},
	{SubjectID: 2, RoutineType: "MEDICATION", Status: "MISSED"},
	{SubjectID: 3, RoutineType: "SOCIAL", Status: "COMPLETED"},
	{SubjectID: 1, RoutineType: "EXERCISE", Status: "COMPLETED"},
	{SubjectID: 2, RoutineType: "COGNITIVE", Status: "COMPLETED"},
	{SubjectID: 3, RoutineType: "MEDICATION", Status: "COMPLETED"},
	{SubjectID: 1, RoutineType: "SOCIAL", Status: "MISSED"},
}

var (
	simulateInterval time.Duration
	simulateBackend  string
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Send a scripted series of device events to the ingestion service",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Flags().Changed("backend") {
			cfg.BackendURL = simulateBackend
		}

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		log.Info().Str("backend", cfg.BackendURL).Msg("Sending simulated device data")
		sent := simulate(ctx, newForwarder(), demoScenarios, simulateInterval, time.Now)
		log.Info().Int("sent", sent).Int("total", len(demoScenarios)).Msg("Simulation completed")
		return nil
	},
}

func init() {
	simulateCmd.Flags().DurationVarP(&simulateInterval, "interval", "i", 2*time.Second, "Pause between events")
	simulateCmd.Flags().StringVar(&simulateBackend, "backend", "", "Ingestion service URL (default: $BACKEND_URL)")
	RootCmd.AddCommand(simulateCmd)
}

// simulate posts each scenario stamped with the current time and returns how
// many the service acknowledged. Failures are logged and skipped.
func simulate(ctx context.Context, sender reader.EventSender, scenarios []models.CareEvent, interval time.Duration, now func() time.Time) int {
	sent := 0
	for i, event := range scenarios {
		if i > 0 {
			select {
			case <-ctx.Done():
				return sent
			case <-time.After(interval):
			}
		}

		event.Timestamp = now().Format(time.RFC3339)
		if _, err := sender.Forward(ctx, event); err != nil {
			log.Error().Err(err).Int("test", i+1).Msg("Failed to send simulated event")
			continue
		}
		sent++
		log.Info().
			Int("test", i+1).
			Int("subject_id", event.SubjectID).
			Str("routine_type", event.RoutineType).
			Str("status", event.Status).
			Msg("Sent")
	}
	return sent
}
