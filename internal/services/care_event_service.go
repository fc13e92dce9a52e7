package services

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/remember-me/care-monitor/internal/models"
	"github.com/rs/zerolog/log"
)

// CareEventTopic is the hub topic every ingested event is published on.
const CareEventTopic = "care_event"

// CareEventChannels are the wire names listeners receive CareEventTopic under.
// Existing dashboards subscribe to either one.
var CareEventChannels = []string{"arduino_data", "data_update"}

// LogStore is the append-only persistence the service writes through.
type LogStore interface {
	Append(receiver, timestamp, status string) error
	ReadAll() ([]models.LogRecord, error)
}

// Publisher fans messages out to real-time listeners.
type Publisher interface {
	Publish(topic string, payload interface{}) error
}

// CareEventServiceProvider defines the interface for care event services.
type CareEventServiceProvider interface {
	RecordEvent(event models.CareEvent) (models.CareEvent, error)
	GetAllRecords() ([]models.LogRecord, error)
	Summarize(todos Todos) ([]string, error)
}

// ArduinoData is the payload broadcast for each ingested event.
type ArduinoData struct {
	Type        string `json:"type"`
	SubjectID   int    `json:"subjectId"`
	RoutineType string `json:"routineType"`
	Status      string `json:"status"`
	Timestamp   string `json:"timestamp"`
}

// CareEventService provides business logic for care event ingestion.
type CareEventService struct {
	store     LogStore
	publisher Publisher
	now       func() time.Time
}

// NewCareEventService creates a new CareEventService.
func NewCareEventService(store LogStore, publisher Publisher) *CareEventService {
	return &CareEventService{
		store:     store,
		publisher: publisher,
		now:       time.Now,
	}
}

// RecordEvent validates an event, appends it to the log and broadcasts it.
// A missing timestamp is filled with the current server time.
func (s *CareEventService) RecordEvent(event models.CareEvent) (models.CareEvent, error) {
	if err := event.Validate(); err != nil {
		return models.CareEvent{}, fmt.Errorf("invalid care event: %w", err)
	}

	event.RoutineType = strings.TrimSpace(event.RoutineType)
	event.Status = strings.TrimSpace(event.Status)
	event.Timestamp = strings.TrimSpace(event.Timestamp)
	if event.Timestamp == "" {
		event.Timestamp = s.now().Format(time.RFC3339)
	}

	status := event.RoutineType + ": " + event.Status
	if err := s.store.Append(strconv.Itoa(event.SubjectID), event.Timestamp, status); err != nil {
		return models.CareEvent{}, fmt.Errorf("failed to log care event: %w", err)
	}

	// The event is already persisted, so a broadcast failure is not reported to the producer.
	payload := ArduinoData{
		Type:        "arduino_data",
		SubjectID:   event.SubjectID,
		RoutineType: event.RoutineType,
		Status:      event.Status,
		Timestamp:   event.Timestamp,
	}
	if err := s.publisher.Publish(CareEventTopic, payload); err != nil {
		log.Warn().Err(err).Int("subject_id", event.SubjectID).Msg("Failed to broadcast care event")
	}

	log.Info().
		Int("subject_id", event.SubjectID).
		Str("routine_type", event.RoutineType).
		Str("status", event.Status).
		Msg("Care event received")
	return event, nil
}

// GetAllRecords returns the whole log, oldest first.
func (s *CareEventService) GetAllRecords() ([]models.LogRecord, error) {
	return s.store.ReadAll()
}

// Summarize compares how often each requested receiver appears in the log
// against its required count.
func (s *CareEventService) Summarize(todos Todos) ([]string, error) {
	records, err := s.store.ReadAll()
	if err != nil {
		return nil, err
	}
	return BuildSummary(records, todos), nil
}
