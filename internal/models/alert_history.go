package models

import (
	"time"

	"gorm.io/gorm"
)

// AlertHistory is the flight log: one append-only row per alert processed by
// the consumer. Rows are write-once; there is no update path.
type AlertHistory struct {
	gorm.Model

	EventID              string    `gorm:"size:36;index" json:"event_id"`
	SystemSource         string    `gorm:"not null" json:"system_source"` // e.g. LIFE_SUPPORT
	Severity             string    `gorm:"not null;index" json:"severity"`
	Message              string    `gorm:"not null" json:"message"`
	Timestamp            time.Time `gorm:"not null" json:"timestamp"`
	AutomatedActionTaken string    `gorm:"not null" json:"automated_action_taken"`
}
