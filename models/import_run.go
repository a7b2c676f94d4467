package models

import (
	"time"

	"gorm.io/datatypes"
)

// Import run outcomes.
const (
	ImportStatusCompleted = "completed"
	ImportStatusSkipped   = "skipped"
	ImportStatusFailed    = "failed"
)

// ImportRun records the outcome of processing one spreadsheet file, including
// the resolved header mapping so unexpected column layouts can be debugged
// after the fact.
type ImportRun struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`

	FileName       string `json:"file_name" gorm:"index"`
	UniversityName string `json:"university_name" gorm:"index"`

	RowsProcessed        int `json:"rows_processed"`
	RowsSkipped          int `json:"rows_skipped"`
	SubscriptionsCreated int `json:"subscriptions_created"`
	EventsCreated        int `json:"events_created"`

	Status string `json:"status" gorm:"index"`
	Error  string `json:"error,omitempty" gorm:"type:text"`

	// Resolved semantic-field -> column-header mapping for this file.
	Details datatypes.JSON `json:"details,omitempty" gorm:"type:jsonb"`
}

// TableName sets the explicit table name for GORM.
func (ImportRun) TableName() string {
	return "import_runs"
}
