package models

import (
	"time"
)

// University represents an institution whose spreadsheet export has been ingested.
// The display name is the natural key; country and type are filled with
// defaults when the export does not provide them.
type University struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Name    string `json:"name" gorm:"uniqueIndex;not null"`
	Country string `json:"country" gorm:"default:'Unknown'"`
	Type    string `json:"type" gorm:"default:'Public'"` // e.g. "Public", "Private"
}

// TableName sets the explicit table name for GORM.
func (University) TableName() string {
	return "universities"
}
