package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"journal-pulse/models"
)

// seedReportData loads a small known dataset: two universities, two
// journals, one subscription, and browsing events on both a subscribed and
// an unsubscribed pair.
func seedReportData(t *testing.T, db *gorm.DB) (models.University, models.University, models.Journal, models.Journal) {
	t.Helper()

	aalborg := models.University{Name: "Aalborg University", Country: "Denmark"}
	lund := models.University{Name: "Lund University", Country: "Sweden"}
	require.NoError(t, db.Create(&aalborg).Error)
	require.NoError(t, db.Create(&lund).Error)

	nature := models.Journal{Title: "Nature", Publisher: "Springer", SubjectArea: "Science"}
	weekly := models.Journal{Title: "Unknown Weekly", Publisher: "Unknown", SubjectArea: "General"}
	require.NoError(t, db.Create(&nature).Error)
	require.NoError(t, db.Create(&weekly).Error)

	sub := NewSubscription(aalborg.ID, nature.ID, 5000, false, time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, db.Create(&sub).Error)

	events := []models.BrowsingEvent{
		{UniversityID: aalborg.ID, JournalID: nature.ID, ViewDate: time.Now(), ViewCount: 2, SessionDuration: 900, PagesViewed: 6, Synthesized: true},
		{UniversityID: aalborg.ID, JournalID: weekly.ID, ViewDate: time.Now(), ViewCount: 1, SessionDuration: 300, PagesViewed: 2, RequestedTrial: true, Synthesized: true},
		{UniversityID: lund.ID, JournalID: weekly.ID, ViewDate: time.Now(), ViewCount: 1, SessionDuration: 200, PagesViewed: 1, RequestedTrial: true, Synthesized: true},
	}
	require.NoError(t, db.Create(&events).Error)

	return aalborg, lund, nature, weekly
}

func TestReportsOnEmptyDatabase(t *testing.T) {
	reports := NewReportService(newTestDB(t), zap.NewNop())

	generators := map[string]func() (string, error){
		"overview":         reports.Overview,
		"top_journals":     func() (string, error) { return reports.TopJournals(10) },
		"spending":         reports.SpendingByUniversity,
		"subjects":         reports.SubjectBreakdown,
		"publishers":       reports.PublisherBreakdown,
		"engagement":       reports.EngagementSummary,
		"trial_candidates": func() (string, error) { return reports.TrialCandidates(10) },
		"comparison":       reports.UniversityComparison,
	}

	for name, generate := range generators {
		t.Run(name, func(t *testing.T) {
			got, err := generate()
			require.NoError(t, err)
			assert.Equal(t, NoDataMessage, got)
		})
	}
}

func TestOverview(t *testing.T) {
	db := newTestDB(t)
	seedReportData(t, db)
	reports := NewReportService(db, zap.NewNop())

	got, err := reports.Overview()
	require.NoError(t, err)
	assert.Contains(t, got, "2 universities, 2 journals")
	assert.Contains(t, got, "1 active subscriptions")
	assert.Contains(t, got, "5000.00 DKK")
	assert.Contains(t, got, "3 browsing history events")
}

func TestTopJournals(t *testing.T) {
	db := newTestDB(t)
	seedReportData(t, db)
	reports := NewReportService(db, zap.NewNop())

	got, err := reports.TopJournals(5)
	require.NoError(t, err)
	assert.Contains(t, got, "Nature")
	assert.Contains(t, got, "1 subscribing universities")
	assert.NotContains(t, got, "Unknown Weekly")
}

func TestSpendingByUniversity(t *testing.T) {
	db := newTestDB(t)
	seedReportData(t, db)
	reports := NewReportService(db, zap.NewNop())

	got, err := reports.SpendingByUniversity()
	require.NoError(t, err)
	assert.Contains(t, got, "Aalborg University (Denmark)")
	assert.Contains(t, got, "5000.00 DKK/year")
	assert.Contains(t, got, "synthesized")
	assert.NotContains(t, got, "Lund University",
		"universities without subscriptions have no spend to report")
}

func TestEngagementSummary(t *testing.T) {
	db := newTestDB(t)
	seedReportData(t, db)
	reports := NewReportService(db, zap.NewNop())

	got, err := reports.EngagementSummary()
	require.NoError(t, err)
	assert.Contains(t, got, "Subscribed pairs: 1 events")
	assert.Contains(t, got, "Browsed-only pairs: 2 events")
}

func TestTrialCandidates(t *testing.T) {
	db := newTestDB(t)
	seedReportData(t, db)
	reports := NewReportService(db, zap.NewNop())

	got, err := reports.TrialCandidates(10)
	require.NoError(t, err)
	assert.Contains(t, got, "Unknown Weekly")
	assert.Contains(t, got, "1 trial requests")
	assert.NotContains(t, got, "Nature",
		"subscribed pairs are never trial candidates")
}

func TestUniversityComparison(t *testing.T) {
	db := newTestDB(t)
	seedReportData(t, db)
	reports := NewReportService(db, zap.NewNop())

	got, err := reports.UniversityComparison()
	require.NoError(t, err)
	assert.Contains(t, got, "Aalborg University (Denmark): 1 active subscriptions")
	assert.Contains(t, got, "Lund University (Sweden): 0 active subscriptions")
}

func TestSubjectAndPublisherBreakdowns(t *testing.T) {
	db := newTestDB(t)
	seedReportData(t, db)
	reports := NewReportService(db, zap.NewNop())

	subjects, err := reports.SubjectBreakdown()
	require.NoError(t, err)
	assert.Contains(t, subjects, "Science: 1 journals, 1 active subscriptions")
	assert.Contains(t, subjects, "General: 1 journals, 0 active subscriptions")

	publishers, err := reports.PublisherBreakdown()
	require.NoError(t, err)
	assert.Contains(t, publishers, "Springer: 1 journals, 5000.00 DKK/year")
	assert.Contains(t, publishers, "Unknown: 1 journals, 0.00 DKK/year")
}
