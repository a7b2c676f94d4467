package xlsx

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"journal-pulse/workbook"
)

// Reader parses .xlsx files via excelize into the generic workbook shape.
type Reader struct {
	logger *zap.Logger
}

func NewReader(logger *zap.Logger) *Reader {
	return &Reader{logger: logger}
}

// Read opens the workbook and converts every sheet into header-keyed rows.
// The first non-empty row of a sheet is treated as the header row.
func (r *Reader) Read(path string) (*workbook.Workbook, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			r.logger.Warn("Failed to close workbook", zap.String("path", path), zap.Error(cerr))
		}
	}()

	wb := &workbook.Workbook{}
	for _, sheetName := range f.GetSheetList() {
		rows, err := f.GetRows(sheetName)
		if err != nil {
			r.logger.Warn("Failed to read sheet, skipping",
				zap.String("path", path), zap.String("sheet", sheetName), zap.Error(err))
			continue
		}
		wb.Sheets = append(wb.Sheets, convertSheet(sheetName, rows))
	}

	if len(wb.Sheets) == 0 {
		return nil, fmt.Errorf("workbook %s contains no readable sheets", path)
	}
	return wb, nil
}

func convertSheet(name string, raw [][]string) workbook.Sheet {
	sheet := workbook.Sheet{Name: name}

	// Find the header row: first row with at least one non-blank cell.
	headerIdx := -1
	var headers []string
	for i, row := range raw {
		if hasContent(row) {
			headerIdx = i
			headers = trimAll(row)
			break
		}
	}
	if headerIdx < 0 {
		return sheet
	}

	for _, row := range raw[headerIdx+1:] {
		if !hasContent(row) {
			continue
		}
		r := workbook.Row{Values: make(map[string]string, len(headers))}
		for col, header := range headers {
			if header == "" {
				continue
			}
			r.Columns = append(r.Columns, header)
			if col < len(row) {
				r.Values[header] = strings.TrimSpace(row[col])
			} else {
				r.Values[header] = ""
			}
		}
		sheet.Rows = append(sheet.Rows, r)
	}
	return sheet
}

func hasContent(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return true
		}
	}
	return false
}

func trimAll(row []string) []string {
	out := make([]string, len(row))
	for i, cell := range row {
		out[i] = strings.TrimSpace(cell)
	}
	return out
}
