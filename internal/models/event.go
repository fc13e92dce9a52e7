package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// CareEvent is a single occurrence of a subject completing or missing a routine.
type CareEvent struct {
	SubjectID   int    `json:"subjectId"`
	RoutineType string `json:"routineType"` // e.g. "medication", "exercise", "meal"
	Status      string `json:"status"`      // e.g. "completed", "missed"
	Timestamp   string `json:"timestamp,omitempty"`
}

// Validate reports whether the event can be written to the care log.
func (e CareEvent) Validate() error {
	if strings.TrimSpace(e.RoutineType) == "" {
		return fmt.Errorf("routineType must not be empty")
	}
	if strings.TrimSpace(e.Status) == "" {
		return fmt.Errorf("status must not be empty")
	}
	return nil
}

// UnmarshalJSON accepts the subject id as a number or a numeric string, and
// falls back to the snake_case keys older producers still send.
func (e *CareEvent) UnmarshalJSON(data []byte) error {
	var raw struct {
		SubjectID       json.RawMessage `json:"subjectId"`
		LegacySubjectID json.RawMessage `json:"patient_id"`
		RoutineType     *string         `json:"routineType"`
		LegacyRoutine   *string         `json:"routine_type"`
		Status          string          `json:"status"`
		Timestamp       string          `json:"timestamp"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	idField := raw.SubjectID
	if len(idField) == 0 {
		idField = raw.LegacySubjectID
	}
	id, err := parseSubjectID(idField)
	if err != nil {
		return err
	}

	e.SubjectID = id
	switch {
	case raw.RoutineType != nil:
		e.RoutineType = *raw.RoutineType
	case raw.LegacyRoutine != nil:
		e.RoutineType = *raw.LegacyRoutine
	}
	e.Status = raw.Status
	e.Timestamp = raw.Timestamp
	return nil
}

func parseSubjectID(field json.RawMessage) (int, error) {
	field = bytes.TrimSpace(field)
	if len(field) == 0 || bytes.Equal(field, []byte("null")) {
		return 0, fmt.Errorf("subjectId is required")
	}

	var text string
	if field[0] == '"' {
		if err := json.Unmarshal(field, &text); err != nil {
			return 0, fmt.Errorf("subjectId: %w", err)
		}
	} else {
		text = string(field)
	}

	id, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil {
		return 0, fmt.Errorf("subjectId must be an integer, got %s", field)
	}
	return id, nil
}

// LogRecord is one entry read back from the care log.
type LogRecord struct {
	Receiver string `json:"receiver"`
	Time     string `json:"time"`
	Status   string `json:"status"`
}
