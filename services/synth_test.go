package services

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRandomSynthesizerEventCounts(t *testing.T) {
	synth := NewRandomSynthesizer(rand.New(rand.NewSource(1)))

	for i := 0; i < 50; i++ {
		subscribed := synth.Events(1, 2, true)
		assert.GreaterOrEqual(t, len(subscribed), 5)
		assert.LessOrEqual(t, len(subscribed), 12)

		unsubscribed := synth.Events(1, 2, false)
		assert.GreaterOrEqual(t, len(unsubscribed), 8)
		assert.LessOrEqual(t, len(unsubscribed), 25)
	}
}

func TestRandomSynthesizerEventShape(t *testing.T) {
	synth := NewRandomSynthesizer(rand.New(rand.NewSource(7)))
	fixed := time.Date(2024, time.June, 1, 12, 0, 0, 0, time.UTC)
	synth.now = func() time.Time { return fixed }

	events := synth.Events(3, 9, false)
	require.NotEmpty(t, events)

	yearAgo := fixed.AddDate(0, 0, -365)
	for _, e := range events {
		assert.Equal(t, uint(3), e.UniversityID)
		assert.Equal(t, uint(9), e.JournalID)
		assert.True(t, e.Synthesized, "every generated event must carry the provenance flag")
		assert.False(t, e.ViewDate.After(fixed))
		assert.False(t, e.ViewDate.Before(yearAgo))
		assert.GreaterOrEqual(t, e.ViewCount, 1)
		assert.GreaterOrEqual(t, e.SessionDuration, 120)
		assert.GreaterOrEqual(t, e.PagesViewed, 1)
		assert.GreaterOrEqual(t, e.DownloadedSamples, 0)
		assert.LessOrEqual(t, e.DownloadedSamples, 3)
	}
}

// Unsubscribed pairs request trials far more often than subscribed ones; with
// enough draws the two rates separate reliably.
func TestRandomSynthesizerTrialRates(t *testing.T) {
	synth := NewRandomSynthesizer(rand.New(rand.NewSource(99)))

	count := func(subscribed bool) (trials, total int) {
		for i := 0; i < 200; i++ {
			for _, e := range synth.Events(1, 1, subscribed) {
				total++
				if e.RequestedTrial {
					trials++
				}
			}
		}
		return trials, total
	}

	subTrials, subTotal := count(true)
	unsubTrials, unsubTotal := count(false)

	subRate := float64(subTrials) / float64(subTotal)
	unsubRate := float64(unsubTrials) / float64(unsubTotal)
	assert.Less(t, subRate, 0.15)
	assert.Greater(t, unsubRate, 0.2)
}

func TestNewSubscription(t *testing.T) {
	now := time.Date(2024, time.July, 15, 10, 30, 0, 0, time.UTC)
	sub := NewSubscription(4, 11, 5000, true, now)

	assert.Equal(t, uint(4), sub.UniversityID)
	assert.Equal(t, uint(11), sub.JournalID)
	assert.Equal(t, "institutional", sub.Type)
	assert.Equal(t, "active", sub.Status)
	assert.Equal(t, 5000.0, sub.AnnualCost)
	assert.True(t, sub.CostSynthesized)
	assert.Equal(t, time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC), sub.StartDate)
	assert.Equal(t, time.Date(2024, time.December, 31, 0, 0, 0, 0, time.UTC), sub.EndDate)
}
