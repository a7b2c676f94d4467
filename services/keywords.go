package services

import (
	"fmt"
	"strings"
)

// keywordClusters appends fixed keyword sets when the journal title contains
// a trigger substring. This is a static lookup, not inference.
var keywordClusters = []struct {
	Triggers []string
	Keywords []string
}{
	{[]string{"business", "strategy", "management"}, []string{"management", "leadership", "strategy", "organizational development"}},
	{[]string{"ai", "artificial intelligence", "machine learning"}, []string{"artificial intelligence", "machine learning", "automation", "data science"}},
	{[]string{"technology", "digital", "innovation"}, []string{"digital transformation", "innovation", "technology adoption"}},
	{[]string{"marketing", "consumer"}, []string{"marketing", "consumer behavior", "branding"}},
	{[]string{"finance", "economic", "accounting"}, []string{"finance", "economics", "markets"}},
}

// DeriveKeywords builds the comma-joined keyword string for a journal. The
// lower-cased title and subject area are always included.
func DeriveKeywords(title, subjectArea string) string {
	lcTitle := strings.ToLower(strings.TrimSpace(title))
	keywords := []string{lcTitle, strings.ToLower(strings.TrimSpace(subjectArea))}

	for _, cluster := range keywordClusters {
		for _, trigger := range cluster.Triggers {
			if strings.Contains(lcTitle, trigger) {
				keywords = append(keywords, cluster.Keywords...)
				break
			}
		}
	}

	return strings.Join(dedupe(keywords), ", ")
}

// DeriveDescription generates the free-text description stored with a new
// journal record.
func DeriveDescription(title, publisher, subjectArea string) string {
	return fmt.Sprintf("%s is a peer-reviewed journal published by %s covering %s.",
		title, publisher, strings.ToLower(subjectArea))
}

func dedupe(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}
