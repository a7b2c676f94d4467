package services

import (
	"strings"

	"journal-pulse/workbook"
)

// Semantic fields the importer resolves per row. Candidate lists are
// substrings matched case-insensitively against the actual column headers;
// the files are not guaranteed to share a schema, so matching is fuzzy by
// design and kept in one table so the policy is testable in isolation.
var fieldCandidates = []struct {
	Field      string
	Candidates []string
}{
	{"title", []string{"journal", "title", "publication"}},
	{"subscribed", []string{"current_year", "subscribed", "subscription", "active"}},
	{"publisher", []string{"publisher"}},
	{"subject", []string{"subject", "category", "discipline"}},
	{"cost", []string{"cost", "price", "fee"}},
	{"issn", []string{"issn"}},
}

// Resolve finds the value of the first column (in the row's natural header
// order) whose lower-cased name contains any of the candidate substrings.
// The second return value is false when no column matches. Candidate order
// only decides whether a match counts, never which column wins.
func Resolve(row workbook.Row, candidates []string) (string, bool) {
	for _, column := range row.Columns {
		lc := strings.ToLower(column)
		for _, cand := range candidates {
			if strings.Contains(lc, strings.ToLower(cand)) {
				return row.Values[column], true
			}
		}
	}
	return "", false
}

// ResolveField resolves one of the named semantic fields from fieldCandidates.
func ResolveField(row workbook.Row, field string) (string, bool) {
	for _, fc := range fieldCandidates {
		if fc.Field == field {
			return Resolve(row, fc.Candidates)
		}
	}
	return "", false
}

// ResolvedColumns maps every semantic field to the header it resolved to in
// the given row, for the import run audit record.
func ResolvedColumns(row workbook.Row) map[string]string {
	out := make(map[string]string, len(fieldCandidates))
	for _, fc := range fieldCandidates {
		for _, column := range row.Columns {
			lc := strings.ToLower(column)
			matched := false
			for _, cand := range fc.Candidates {
				if strings.Contains(lc, strings.ToLower(cand)) {
					out[fc.Field] = column
					matched = true
					break
				}
			}
			if matched {
				break
			}
		}
	}
	return out
}
