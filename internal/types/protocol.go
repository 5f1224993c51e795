package types

// EmergencyProtocol identifies one of the five fixed lockdown tiers. Each
// tier carries a lockdown duration and a human description; the tier set is
// closed and protocol semantics never change at runtime.
type EmergencyProtocol string

const (
	Protocol1 EmergencyProtocol = "PROTOCOL_1"
	Protocol2 EmergencyProtocol = "PROTOCOL_2"
	Protocol3 EmergencyProtocol = "PROTOCOL_3"
	Protocol4 EmergencyProtocol = "PROTOCOL_4"
	Protocol5 EmergencyProtocol = "PROTOCOL_5"
)

type protocolSpec struct {
	LockdownHours int
	Description   string
}

var protocolSpecs = map[EmergencyProtocol]protocolSpec{
	Protocol1: {48, "48 hour lockdown - light contamination"},
	Protocol2: {72, "72 hour lockdown - moderate contamination"},
	Protocol3: {168, "7 day lockdown - severe contamination"},
	Protocol4: {336, "14 day lockdown - critical contamination"},
	Protocol5: {720, "30 day lockdown - full quarantine"},
}

// LockdownHours returns the mandated lockdown duration for the tier, or 0
// for an unknown protocol.
func (p EmergencyProtocol) LockdownHours() int {
	return protocolSpecs[p].LockdownHours
}

// Description returns the human description of the tier.
func (p EmergencyProtocol) Description() string {
	return protocolSpecs[p].Description
}

// Valid reports whether p is one of the five known tiers.
func (p EmergencyProtocol) Valid() bool {
	_, ok := protocolSpecs[p]
	return ok
}

// ContaminationStatus tracks a crew member's health state. QUARANTINED is
// owned by the quarantine registry: a member holds it if and only if at
// least one active quarantine lists them.
type ContaminationStatus string

const (
	StatusHealthy     ContaminationStatus = "HEALTHY"
	StatusInfected    ContaminationStatus = "INFECTED"
	StatusQuarantined ContaminationStatus = "QUARANTINED"
	StatusRecovered   ContaminationStatus = "RECOVERED"
)

// Oxygen thresholds in percent. Readings below CriticalOxygenLevel publish a
// critical alert; readings in [CriticalOxygenLevel, IdealOxygenLevel) only
// warn.
const (
	IdealOxygenLevel    = 20.5
	CriticalOxygenLevel = 19.5
)

// Alert severities and sources as they appear on the wire and in the flight
// log.
const (
	SeverityCritical = "CRITICAL"
	SeverityWarning  = "WARNING"
	SeverityNormal   = "NORMAL"

	SourceLifeSupport = "LIFE_SUPPORT"
)

// Flight-log action sentinels. automated_action_taken is never left empty:
// a critical alert with no applicable automation records PendingManualReview,
// a non-critical alert that reaches the consumer records NoAutomatedAction.
const (
	PendingManualReview = "PENDING_MANUAL_REVIEW"
	NoAutomatedAction   = "NO_AUTOMATED_ACTION"
)
