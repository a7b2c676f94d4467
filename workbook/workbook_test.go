package workbook

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDataSheet(t *testing.T) {
	tests := []struct {
		name     string
		sheets   []Sheet
		expected string
	}{
		{
			name:     "marker sheet wins over first position",
			sheets:   []Sheet{{Name: "Summary"}, {Name: "Journal Subscriptions"}},
			expected: "Journal Subscriptions",
		},
		{
			name:     "marker match is case insensitive",
			sheets:   []Sheet{{Name: "Notes"}, {Name: "EXPORT 2024"}},
			expected: "EXPORT 2024",
		},
		{
			name:     "no marker falls back to first sheet",
			sheets:   []Sheet{{Name: "Tabelle1"}, {Name: "Tabelle2"}},
			expected: "Tabelle1",
		},
		{
			name:     "single sheet",
			sheets:   []Sheet{{Name: "Sheet1"}},
			expected: "Sheet1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wb := &Workbook{Sheets: tt.sheets}
			got := wb.DataSheet()
			require.NotNil(t, got)
			assert.Equal(t, tt.expected, got.Name)
		})
	}
}

func TestDataSheetEmptyWorkbook(t *testing.T) {
	wb := &Workbook{}
	assert.Nil(t, wb.DataSheet())
}
