package alerts

import (
	"fmt"
	"log"

	"github.com/lifeline-dev/lifeline/internal/apperrors"
	"github.com/lifeline-dev/lifeline/internal/types"
)

// Monitor classifies life-support sensor readings. Publication is
// fire-and-forget relative to the caller: EvaluateOxygen returns its status
// string as soon as the alert is handed to the sender, it never waits for a
// delivery acknowledgment.
type Monitor struct {
	sender     Sender
	guaranteed bool
}

// NewMonitor builds a Monitor. With guaranteed set, a failed hand-off is
// returned to the caller as a DeliveryError; otherwise it degrades to a
// logged warning and the reading still gets its status.
func NewMonitor(sender Sender, guaranteed bool) *Monitor {
	return &Monitor{sender: sender, guaranteed: guaranteed}
}

// EvaluateOxygen classifies an oxygen reading into one of three bands.
// Readings below the critical threshold publish exactly one alert; the
// boundary values belong to the band above them (19.5 is WARNING, 20.5 is
// NORMAL).
func (m *Monitor) EvaluateOxygen(oxygenPct, co2Pct float64) (string, error) {
	switch {
	case oxygenPct < types.CriticalOxygenLevel:
		alert := NewCriticalOxygenAlert(fmt.Sprintf("Oxygen level hypoxic: %.1f%%", oxygenPct))

		if err := m.sender.SendCriticalAlert(alert); err != nil {
			if m.guaranteed {
				return "", &apperrors.DeliveryError{Err: err}
			}
			log.Printf("[alerts] WARNING: alert %s lost, channel unavailable: %v", alert.EventID, err)
		}

		return "CRITICAL: Oxygen level too low! Activating emergency protocols.", nil
	case oxygenPct < types.IdealOxygenLevel:
		return "WARNING: Oxygen level below ideal. Adjusting atmosphere generator.", nil
	default:
		return "NORMAL: Oxygen level stable.", nil
	}
}

// CheckAtmosphereGenerator reports on generator health.
func (m *Monitor) CheckAtmosphereGenerator(active bool, efficiency float64) string {
	if !active {
		return "ERROR: Atmosphere generator is inactive!"
	}
	if efficiency < 80 {
		return "WARNING: Atmosphere generator efficiency low."
	}
	return "OK: Atmosphere generator operating normally."
}
