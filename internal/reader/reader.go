// Package reader bridges a serial device that prints care events as
// "subjectId,routineType,status" lines to the ingestion service.
package reader

import (
	"context"
	"fmt"
	"time"

	"github.com/remember-me/care-monitor/internal/models"
	"github.com/rs/zerolog/log"
)

// EventSender delivers a parsed event to the ingestion service.
type EventSender interface {
	Forward(ctx context.Context, event models.CareEvent) (*Ack, error)
}

// Options configures a Reader.
type Options struct {
	Candidates   []string      // Port names tried in order; globs are expanded
	BaudRate     int
	RetryDelay   time.Duration // Wait between rounds of failed connection attempts
	PollInterval time.Duration
}

// Reader polls a serial device and forwards every parsed line.
type Reader struct {
	opts   Options
	sender EventSender
	open   Opener
	now    func() time.Time
}

// New creates a Reader that opens real serial ports.
func New(opts Options, sender EventSender) *Reader {
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = 5 * time.Second
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = 100 * time.Millisecond
	}
	return &Reader{
		opts:   opts,
		sender: sender,
		open:   OpenSerial,
		now:    time.Now,
	}
}

// Run connects and forwards events until ctx is cancelled. A port that fails
// mid-read is closed and the connection loop starts over.
func (r *Reader) Run(ctx context.Context) error {
	for {
		port, name, err := r.Connect(ctx)
		if err != nil {
			return err
		}

		log.Info().Str("port", name).Msg("Reading care events... (Ctrl+C to stop)")
		err = r.poll(ctx, port)
		if cerr := port.Close(); cerr != nil {
			log.Warn().Err(cerr).Str("port", name).Msg("Error closing serial connection")
		} else {
			log.Info().Str("port", name).Msg("Serial connection closed")
		}

		if ctx.Err() != nil {
			return nil
		}
		log.Warn().Err(err).Str("port", name).Msg("Serial read failed, reconnecting")
	}
}

// Connect tries every candidate port in order, sleeping RetryDelay between
// rounds, until one opens or ctx is cancelled.
func (r *Reader) Connect(ctx context.Context) (Port, string, error) {
	for attempt := 1; ; attempt++ {
		candidates := expandCandidates(r.opts.Candidates)
		for _, name := range candidates {
			port, err := r.open(name, r.opts.BaudRate)
			if err != nil {
				log.Debug().Err(err).Str("port", name).Msg("Failed to open serial port")
				continue
			}
			log.Info().Str("port", name).Int("baud_rate", r.opts.BaudRate).Msg("Connected to device")
			return port, name, nil
		}

		log.Warn().
			Strs("candidates", r.opts.Candidates).
			Int("attempt", attempt).
			Dur("retry_in", r.opts.RetryDelay).
			Msg("Could not connect to the device on any port, retrying")

		select {
		case <-ctx.Done():
			return nil, "", fmt.Errorf("connect cancelled: %w", ctx.Err())
		case <-time.After(r.opts.RetryDelay):
		}
	}
}

func (r *Reader) poll(ctx context.Context, port Port) error {
	lines := NewLineReader(port)
	ticker := time.NewTicker(r.opts.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		for {
			line, ok, err := lines.ReadLine()
			if err != nil {
				return err
			}
			if !ok {
				break
			}
			r.handleLine(ctx, line)
		}
	}
}

func (r *Reader) handleLine(ctx context.Context, line string) {
	event, err := ParseLine(line, r.now())
	if err != nil {
		log.Warn().Err(err).Msg("Dropping unparseable device line")
		return
	}

	log.Info().Int("subject_id", event.SubjectID).Str("routine_type", event.RoutineType).Str("status", event.Status).Msg("Device event")
	if _, err := r.sender.Forward(ctx, event); err != nil {
		log.Error().Err(err).Int("subject_id", event.SubjectID).Msg("Failed to forward event, dropping it")
		return
	}
	log.Debug().Int("subject_id", event.SubjectID).Msg("Event forwarded")
}
