package services

import (
	"path/filepath"
	"regexp"
	"strings"
)

// Export files arrive as e.g. "Export_Aalborg_University_20240101_000000.xlsx":
// a fixed prefix, the display name with underscores, and a date_time stamp.
var exportTimestampPattern = regexp.MustCompile(`_\d{8}_\d{6}$`)

// knownCountries maps university display names to their country. Exports from
// institutions not listed here are still ingested, with country "Unknown";
// the name derivation itself is deterministic, so data can never end up
// attributed to a different university.
var knownCountries = map[string]string{
	"Aalborg University":               "Denmark",
	"Aarhus University":                "Denmark",
	"University of Copenhagen":         "Denmark",
	"Copenhagen Business School":       "Denmark",
	"Technical University of Denmark":  "Denmark",
	"Roskilde University":              "Denmark",
	"University of Southern Denmark":   "Denmark",
	"IT University of Copenhagen":      "Denmark",
	"Lund University":                  "Sweden",
	"University of Oslo":               "Norway",
	"University of Hamburg":            "Germany",
	"Delft University of Technology":   "Netherlands",
}

// UniversityFromFilename derives the university display name from an export
// file name. Returns "" when no name remains after stripping, which the
// pipeline treats as an unidentifiable file.
func UniversityFromFilename(path string) string {
	name := filepath.Base(path)
	name = strings.TrimSuffix(name, filepath.Ext(name))
	name = strings.TrimPrefix(name, "Export_")
	name = exportTimestampPattern.ReplaceAllString(name, "")
	name = strings.ReplaceAll(name, "_", " ")
	return strings.TrimSpace(name)
}

// CountryForUniversity looks up the country for a known institution.
func CountryForUniversity(name string) string {
	if country, ok := knownCountries[name]; ok {
		return country
	}
	return "Unknown"
}
