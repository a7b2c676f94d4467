package models

import (
	"time"
)

// BrowsingEvent is one engagement telemetry record for a (university, journal)
// pair. Events are synthesized at ingestion time and always carry the
// Synthesized provenance flag so downstream reports never mistake them for
// measured data.
type BrowsingEvent struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`

	UniversityID uint `json:"university_id" gorm:"index"`
	JournalID    uint `json:"journal_id" gorm:"index"`

	ViewDate          time.Time `json:"view_date" gorm:"index"`
	ViewCount         int       `json:"view_count"`
	SessionDuration   int       `json:"session_duration"` // seconds
	PagesViewed       int       `json:"pages_viewed"`
	DownloadedSamples int       `json:"downloaded_samples"`
	RequestedTrial    bool      `json:"requested_trial"`

	Synthesized bool `json:"synthesized" gorm:"default:true"`
}

// TableName sets the explicit table name for GORM.
func (BrowsingEvent) TableName() string {
	return "browsing_events"
}
