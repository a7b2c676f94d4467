package workbook

import "strings"

// Row is one data row of a sheet. Columns preserves the header order of the
// source file; Values maps each header to its raw cell value. Cell values are
// whatever the source format delivers (string, number, blank).
type Row struct {
	Columns []string
	Values  map[string]string
}

// Sheet is an ordered list of rows under a named worksheet.
type Sheet struct {
	Name string
	Rows []Row
}

// Workbook is the parsed content of one spreadsheet file.
type Workbook struct {
	Sheets []Sheet
}

// Reader is the interface every spreadsheet backend must implement.
type Reader interface {
	// Read parses the file at path into sheets of header-keyed rows.
	Read(path string) (*Workbook, error)
}

// DataSheet picks the sheet holding subscription data: the first sheet whose
// name contains one of the known markers, else the first sheet. Returns nil
// when the workbook has no sheets.
func (w *Workbook) DataSheet() *Sheet {
	if len(w.Sheets) == 0 {
		return nil
	}
	markers := []string{"subscription", "journal", "export"}
	for i := range w.Sheets {
		name := strings.ToLower(w.Sheets[i].Name)
		for _, m := range markers {
			if strings.Contains(name, m) {
				return &w.Sheets[i]
			}
		}
	}
	return &w.Sheets[0]
}
