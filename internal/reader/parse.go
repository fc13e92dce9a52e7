package reader

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/remember-me/care-monitor/internal/models"
)

var (
	ErrTooFewFields   = errors.New("expected subjectId,routineType,status")
	ErrInvalidSubject = errors.New("subjectId is not an integer")
	ErrEmptyField     = errors.New("routineType and status must not be empty")
)

// ParseLine turns "subjectId,routineType,status" into an event stamped with at.
// Fields beyond the third are ignored.
func ParseLine(line string, at time.Time) (models.CareEvent, error) {
	parts := strings.Split(line, ",")
	if len(parts) < 3 {
		return models.CareEvent{}, fmt.Errorf("%w: %q", ErrTooFewFields, line)
	}

	id, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return models.CareEvent{}, fmt.Errorf("%w: %q", ErrInvalidSubject, parts[0])
	}

	routine, status := strings.TrimSpace(parts[1]), strings.TrimSpace(parts[2])
	if routine == "" || status == "" {
		return models.CareEvent{}, fmt.Errorf("%w: %q", ErrEmptyField, line)
	}

	return models.CareEvent{
		SubjectID:   id,
		RoutineType: routine,
		Status:      status,
		Timestamp:   at.Format(time.RFC3339),
	}, nil
}
