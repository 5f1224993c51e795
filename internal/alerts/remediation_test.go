package alerts

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCoordinateDroidRepair(t *testing.T) {
	r := NewRemediator()

	tests := []struct {
		category string
		droids   int
		want     string
	}{
		{"oxygen", 2, "DISPATCH: Droid sent to atmosphere generator."},
		{"OXYGEN", 2, "DISPATCH: Droid sent to atmosphere generator."},
		{"energy", 1, "DISPATCH: Droid sent to energy grid."},
		{"hull", 3, "DISPATCH: Droid sent to hull breach."},
		{"gravity", 2, "UNKNOWN: Manual intervention required."},
		{"oxygen", 0, "ERROR: No droids available for repair."},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, r.CoordinateDroidRepair(tt.category, tt.droids))
	}
}

func TestRegisterExtendsWithoutTouchingDispatcher(t *testing.T) {
	r := NewRemediator()
	r.Register("reactor", func(droids int) string {
		return "DISPATCH: Droid sent to reactor core."
	})

	assert.Equal(t, "DISPATCH: Droid sent to reactor core.", r.CoordinateDroidRepair("Reactor", 1))
	// stock strategies are untouched
	assert.Equal(t, "DISPATCH: Droid sent to energy grid.", r.CoordinateDroidRepair("energy", 1))
}

func TestDetectFailures(t *testing.T) {
	assert.Equal(t, "SYSTEM_NORMAL: All systems nominal.", DetectFailures(20.5, 50, true))
	assert.Equal(t, "FAILURE: Oxygen level critical.", DetectFailures(18.0, 50, true))
	assert.Equal(t,
		"FAILURE: Oxygen level critical. FAILURE: Energy level critical. FAILURE: Hull integrity compromised.",
		DetectFailures(18.0, 5, false))
}
