package services

import (
	"math/rand"
	"strconv"
	"strings"
)

// truthyTokens are the only cell values interpreted as a positive
// subscription flag. Anything else, including blank cells, means false.
var truthyTokens = map[string]bool{
	"1":          true,
	"yes":        true,
	"true":       true,
	"y":          true,
	"subscribed": true,
}

// ParseBool interprets a raw spreadsheet cell as a boolean. Absent or
// unrecognized input always yields false; the function never errors.
func ParseBool(raw string) bool {
	return truthyTokens[strings.ToLower(strings.TrimSpace(raw))]
}

// CostRange bounds the fallback draw for missing subscription costs.
type CostRange struct {
	Min float64
	Max float64
}

// DefaultCostRange matches the plausible annual cost window for an
// institutional journal subscription.
var DefaultCostRange = CostRange{Min: 15000, Max: 65000}

// ParseCurrency parses a raw cell as a positive currency amount. Source
// spreadsheets frequently omit cost data, and downstream reporting needs a
// non-zero cost, so an unparseable or zero value is replaced by a uniform
// draw from r. The second return value flags the synthesized case so the
// caller can record provenance.
func ParseCurrency(raw string, r CostRange, rng *rand.Rand) (float64, bool) {
	s := strings.TrimSpace(raw)
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimPrefix(s, "$")
	s = strings.TrimPrefix(s, "€")

	if v, err := strconv.ParseFloat(s, 64); err == nil && v > 0 {
		return v, false
	}
	return r.Min + rng.Float64()*(r.Max-r.Min), true
}
