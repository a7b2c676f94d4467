package services

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeriveKeywords(t *testing.T) {
	tests := []struct {
		name        string
		title       string
		subjectArea string
		contains    []string
		excludes    []string
	}{
		{
			name:        "management cluster",
			title:       "Journal of Strategic Management",
			subjectArea: "Business",
			contains:    []string{"journal of strategic management", "business", "leadership", "organizational development"},
		},
		{
			name:        "ai cluster",
			title:       "Machine Learning Review",
			subjectArea: "Computer Science",
			contains:    []string{"machine learning review", "artificial intelligence", "data science"},
		},
		{
			name:        "no cluster trigger",
			title:       "Acta Botanica",
			subjectArea: "Biology",
			contains:    []string{"acta botanica", "biology"},
			excludes:    []string{"marketing", "finance"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DeriveKeywords(tt.title, tt.subjectArea)
			for _, kw := range tt.contains {
				assert.Contains(t, got, kw)
			}
			for _, kw := range tt.excludes {
				assert.NotContains(t, got, kw)
			}
		})
	}
}

func TestDeriveKeywordsDeduplicates(t *testing.T) {
	got := DeriveKeywords("Marketing", "Marketing")
	assert.Equal(t, 1, strings.Count(got, "marketing,"),
		"duplicate keywords should be collapsed: %q", got)
}

func TestDeriveDescription(t *testing.T) {
	got := DeriveDescription("Nature", "Springer", "Science")
	assert.Equal(t, "Nature is a peer-reviewed journal published by Springer covering science.", got)
}
