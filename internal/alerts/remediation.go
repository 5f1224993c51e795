package alerts

import "strings"

// RemediationFunc decides the automated action for one failure category
// given the droids currently available.
type RemediationFunc func(availableDroids int) string

// Remediator maps failure categories to remediation strategies. New
// categories register a strategy; the dispatcher never changes.
type Remediator struct {
	strategies map[string]RemediationFunc
}

// NewRemediator returns a Remediator with the stock strategies wired.
func NewRemediator() *Remediator {
	r := &Remediator{strategies: make(map[string]RemediationFunc)}

	r.Register("oxygen", func(droids int) string {
		return "DISPATCH: Droid sent to atmosphere generator."
	})
	r.Register("energy", func(droids int) string {
		return "DISPATCH: Droid sent to energy grid."
	})
	r.Register("hull", func(droids int) string {
		return "DISPATCH: Droid sent to hull breach."
	})

	return r
}

// Register adds or replaces the strategy for a category.
func (r *Remediator) Register(category string, fn RemediationFunc) {
	r.strategies[strings.ToLower(category)] = fn
}

// CoordinateDroidRepair resolves the action for a failure category. No
// droids or an unknown category falls back to manual intervention.
func (r *Remediator) CoordinateDroidRepair(category string, availableDroids int) string {
	if availableDroids == 0 {
		return "ERROR: No droids available for repair."
	}

	fn, ok := r.strategies[strings.ToLower(category)]
	if !ok {
		return "UNKNOWN: Manual intervention required."
	}

	return fn(availableDroids)
}

// DetectFailures builds a combined failure report from the principal system
// readings, or a nominal report when everything is within limits.
func DetectFailures(oxygenLevel, energyLevel float64, hullIntegrity bool) string {
	var report strings.Builder

	if oxygenLevel < 19.5 {
		report.WriteString("FAILURE: Oxygen level critical. ")
	}
	if energyLevel < 10 {
		report.WriteString("FAILURE: Energy level critical. ")
	}
	if !hullIntegrity {
		report.WriteString("FAILURE: Hull integrity compromised. ")
	}

	if report.Len() == 0 {
		return "SYSTEM_NORMAL: All systems nominal."
	}
	return strings.TrimSpace(report.String())
}
