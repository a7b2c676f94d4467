package models

import (
	"time"
)

// Journal is a global entity shared across universities, keyed by title.
type Journal struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Title       string `json:"title" gorm:"uniqueIndex;not null"`
	ISSN        string `json:"issn,omitempty"`
	Publisher   string `json:"publisher" gorm:"default:'Unknown'"`
	SubjectArea string `json:"subject_area" gorm:"index;default:'General'"`

	// Comma-joined keyword list derived from title and subject area.
	Keywords    string `json:"keywords,omitempty" gorm:"type:text"`
	Description string `json:"description,omitempty" gorm:"type:text"`
}

// TableName sets the explicit table name for GORM.
func (Journal) TableName() string {
	return "journals"
}
