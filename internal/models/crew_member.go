package models

import (
	"gorm.io/gorm"

	"github.com/lifeline-dev/lifeline/internal/types"
)

type CrewMember struct {
	gorm.Model

	Name                string                    `gorm:"not null" json:"name"`
	Crew                string                    `gorm:"index" json:"crew"`
	Role                string                    `json:"role"` // "CAPTAIN", "OFFICER", "CREW"
	Active              bool                      `gorm:"default:true" json:"active"`
	ContaminationStatus types.ContaminationStatus `gorm:"not null;default:HEALTHY" json:"contamination_status"`

	// Relationships
	Quarantines []Quarantine `gorm:"many2many:quarantine_members;" json:"-"`
}
