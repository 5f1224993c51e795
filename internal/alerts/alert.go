// Package alerts implements the emergency response pipeline: threshold
// evaluation on sensor readings, publication of critical alerts to the
// broker, and the consumer that decides automated remediation and records
// every processed alert in the flight log.
package alerts

import (
	"time"

	"github.com/google/uuid"

	"github.com/lifeline-dev/lifeline/internal/types"
)

// SystemAlert is the event published on the critical-alert channel. It is
// ephemeral; only its resolved form (AlertHistory) is persisted. EventID
// survives redelivery, so duplicate flight-log rows from the at-least-once
// channel can be traced back to one publication.
type SystemAlert struct {
	EventID      string    `json:"event_id"`
	SystemSource string    `json:"system_source"`
	Severity     string    `json:"severity"`
	Message      string    `json:"message"`
	Timestamp    time.Time `json:"timestamp"`
}

// NewCriticalOxygenAlert builds the alert for a hypoxic oxygen reading.
func NewCriticalOxygenAlert(message string) SystemAlert {
	return SystemAlert{
		EventID:      uuid.NewString(),
		SystemSource: types.SourceLifeSupport,
		Severity:     types.SeverityCritical,
		Message:      message,
		Timestamp:    time.Now(),
	}
}
