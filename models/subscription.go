package models

import (
	"time"
)

// SubscriptionStatusActive is the only status the importer writes; archived
// rows keep their previous status untouched.
const SubscriptionStatusActive = "active"

// Subscription links a university to a journal it currently subscribes to.
// One row per (university, journal, status); the unique index makes
// re-ingestion idempotent regardless of interleaving.
type Subscription struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	UniversityID uint `json:"university_id" gorm:"index:idx_subscriptions_pair,unique;not null"`
	JournalID    uint `json:"journal_id" gorm:"index:idx_subscriptions_pair,unique;not null"`

	Type      string    `json:"type" gorm:"default:'institutional'"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`

	AnnualCost float64 `json:"annual_cost"`
	// Provenance flag: true when the cost was drawn from the fallback range
	// because the source cell was missing or unparseable.
	CostSynthesized bool `json:"cost_synthesized" gorm:"default:false"`

	Status string `json:"status" gorm:"index:idx_subscriptions_pair,unique;default:'active'"`
}

// TableName sets the explicit table name for GORM.
func (Subscription) TableName() string {
	return "subscriptions"
}
