package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/lifeline-dev/lifeline/internal/types"
)

// Quarantine is a lockdown record. Records are never physically deleted;
// closed quarantines remain as the audit trail. The code is immutable after
// creation and the version column drives optimistic locking on every write.
type Quarantine struct {
	gorm.Model

	Code             string                  `gorm:"uniqueIndex;not null;size:50" json:"code"`
	LabID            string                  `gorm:"not null;size:50;index" json:"lab_id"`
	Protocol         types.EmergencyProtocol `gorm:"not null;size:20" json:"protocol"`
	Reason           string                  `gorm:"not null;size:500" json:"reason"`
	Active           bool                    `gorm:"not null;default:true;index" json:"active"`
	NonInterruptible bool                    `gorm:"not null;default:true" json:"non_interruptible"`
	EstimatedEndTime time.Time               `json:"estimated_end_time"`
	Version          int64                   `gorm:"not null;default:0" json:"version"`
	Details          datatypes.JSON          `gorm:"type:jsonb" json:"details,omitempty"`

	// Relationships
	Members []CrewMember `gorm:"many2many:quarantine_members;" json:"-"`
}

// ComputeEstimatedEnd recomputes the estimated end time from the creation
// time and the protocol tier. Called on every create and update so the
// derived value never drifts from its inputs.
func (q *Quarantine) ComputeEstimatedEnd() {
	if q.Protocol.Valid() && !q.CreatedAt.IsZero() {
		q.EstimatedEndTime = q.CreatedAt.Add(time.Duration(q.Protocol.LockdownHours()) * time.Hour)
	}
}

// BeforeSave keeps EstimatedEndTime in sync on both create and update paths.
func (q *Quarantine) BeforeSave(tx *gorm.DB) error {
	if q.CreatedAt.IsZero() {
		q.CreatedAt = time.Now()
	}
	q.ComputeEstimatedEnd()
	return nil
}

// CanEnd reports whether the quarantine may be terminated by request.
func (q *Quarantine) CanEnd() bool {
	return !q.NonInterruptible
}

// HasExpired reports whether the estimated end time has passed. Expiry is
// advisory: the registry surfaces it but never closes a record because of it.
func (q *Quarantine) HasExpired() bool {
	if q.EstimatedEndTime.IsZero() {
		return false
	}
	return time.Now().After(q.EstimatedEndTime)
}

// RemainingHours returns the whole hours left until the estimated end, or 0
// if the quarantine has already expired.
func (q *Quarantine) RemainingHours() int64 {
	if q.EstimatedEndTime.IsZero() || q.HasExpired() {
		return 0
	}
	return int64(time.Until(q.EstimatedEndTime).Hours())
}
