package xlsx

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

// writeFixture builds a real .xlsx file so the test exercises the same code
// path as production files.
func writeFixture(t *testing.T, sheet string, rows [][]interface{}) string {
	t.Helper()

	f := excelize.NewFile()
	require.NoError(t, f.SetSheetName("Sheet1", sheet))
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}

	path := filepath.Join(t.TempDir(), "fixture.xlsx")
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())
	return path
}

func TestReaderRead(t *testing.T) {
	path := writeFixture(t, "Subscriptions", [][]interface{}{
		{"Journal Title", "Publisher", "Annual Cost", "Subscribed"},
		{"Nature", "Springer", 5000, "yes"},
		{"Unknown Weekly", "", "", "no"},
	})

	wb, err := NewReader(zap.NewNop()).Read(path)
	require.NoError(t, err)
	require.Len(t, wb.Sheets, 1)

	sheet := wb.DataSheet()
	require.NotNil(t, sheet)
	assert.Equal(t, "Subscriptions", sheet.Name)
	require.Len(t, sheet.Rows, 2)

	first := sheet.Rows[0]
	assert.Equal(t, []string{"Journal Title", "Publisher", "Annual Cost", "Subscribed"}, first.Columns)
	assert.Equal(t, "Nature", first.Values["Journal Title"])
	assert.Equal(t, "5000", first.Values["Annual Cost"])
	assert.Equal(t, "yes", first.Values["Subscribed"])

	second := sheet.Rows[1]
	assert.Equal(t, "Unknown Weekly", second.Values["Journal Title"])
	assert.Equal(t, "", second.Values["Publisher"])
}

func TestReaderSkipsBlankLeadingRows(t *testing.T) {
	path := writeFixture(t, "Export", [][]interface{}{
		{"", "", ""},
		{"Journal", "Subscribed"},
		{"Nature", "yes"},
		{"", ""},
		{"Science", "no"},
	})

	wb, err := NewReader(zap.NewNop()).Read(path)
	require.NoError(t, err)

	sheet := wb.DataSheet()
	require.NotNil(t, sheet)
	require.Len(t, sheet.Rows, 2, "blank rows above the header and between data rows are dropped")
	assert.Equal(t, "Nature", sheet.Rows[0].Values["Journal"])
	assert.Equal(t, "Science", sheet.Rows[1].Values["Journal"])
}

func TestReaderPadsShortRows(t *testing.T) {
	path := writeFixture(t, "Export", [][]interface{}{
		{"Journal", "Publisher", "Cost"},
		{"Nature"},
	})

	wb, err := NewReader(zap.NewNop()).Read(path)
	require.NoError(t, err)

	row := wb.DataSheet().Rows[0]
	assert.Equal(t, "Nature", row.Values["Journal"])
	assert.Equal(t, "", row.Values["Publisher"])
	assert.Equal(t, "", row.Values["Cost"])
}

func TestReaderMissingFile(t *testing.T) {
	_, err := NewReader(zap.NewNop()).Read(filepath.Join(t.TempDir(), "nope.xlsx"))
	assert.Error(t, err)
}
