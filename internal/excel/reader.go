// Package excel reads the shared timesheet workbook: one sheet with a Days
// date column and one column per person, each cell holding that person's
// task list for the day.
package excel

import (
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/xuri/excelize/v2"
)

const daysColumn = "Days"

// dateLayouts covers the input formats accepted for the date parameter.
var dateLayouts = []string{"02/01/2006", "02-01-2006"}

// cellDateLayouts covers the renderings excelize produces for date cells
// depending on the cell's number format.
var cellDateLayouts = []string{
	"02/01/2006", "2/1/2006", "01-02-06", "1-2-06", "02-01-2006",
	"2006-01-02", "2006-01-02 15:04:05", "01/02/2006 00:00:00",
}

// Reader resolves timesheet cells by date and person name.
type Reader struct {
	defaultPath  string
	defaultSheet string
}

// NewReader creates a Reader with fallback workbook path and sheet name.
func NewReader(defaultPath, defaultSheet string) *Reader {
	if defaultSheet == "" {
		defaultSheet = "Daily"
	}
	return &Reader{defaultPath: defaultPath, defaultSheet: defaultSheet}
}

// Entry returns the cell text for name on the given date. An empty string
// means the person logged nothing that day.
func (r *Reader) Entry(dateStr, name, path, sheet string) (string, error) {
	path, sheet = r.resolve(path, sheet)

	date, err := parseDate(dateStr)
	if err != nil {
		return "", err
	}
	if err := validatePath(path); err != nil {
		return "", err
	}

	log.Info().Str("path", path).Str("sheet", sheet).Msg("Reading Excel timesheet")
	f, err := excelize.OpenFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to open Excel file %s: %w", path, err)
	}
	defer f.Close()

	rows, err := f.GetRows(sheet)
	if err != nil {
		return "", fmt.Errorf("failed to read sheet %q: %w", sheet, err)
	}
	if len(rows) == 0 {
		return "", fmt.Errorf("sheet %q is empty", sheet)
	}

	header := rows[0]
	daysIdx, nameIdx := -1, -1
	for i, col := range header {
		switch {
		case col == daysColumn:
			daysIdx = i
		case col == name:
			nameIdx = i
		}
	}
	if daysIdx == -1 {
		return "", fmt.Errorf("Excel sheet must have a %q column", daysColumn)
	}
	if nameIdx == -1 {
		available := make([]string, 0, len(header))
		for _, col := range header {
			if col != daysColumn && col != "" {
				available = append(available, col)
			}
		}
		return "", fmt.Errorf("no column named %q in sheet %q. Available columns: %s",
			name, sheet, strings.Join(available, ", "))
	}

	for _, row := range rows[1:] {
		if daysIdx >= len(row) {
			continue
		}
		rowDate, ok := parseCellDate(row[daysIdx])
		if !ok || !sameDay(rowDate, date) {
			continue
		}
		if nameIdx >= len(row) {
			return "", nil
		}
		log.Info().Str("name", name).Str("date", dateStr).Msg("Retrieved timesheet entry")
		return row[nameIdx], nil
	}

	return "", fmt.Errorf("no entry found for date %s", dateStr)
}

// Columns returns the person column names of the sheet, excluding Days.
func (r *Reader) Columns(path, sheet string) ([]string, error) {
	path, sheet = r.resolve(path, sheet)
	if err := validatePath(path); err != nil {
		return nil, err
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file %s: %w", path, err)
	}
	defer f.Close()

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheet, err)
	}
	if len(rows) == 0 {
		return []string{}, nil
	}

	columns := []string{}
	for _, col := range rows[0] {
		if col != daysColumn && col != "" {
			columns = append(columns, col)
		}
	}
	return columns, nil
}

func (r *Reader) resolve(path, sheet string) (string, string) {
	if path == "" {
		path = r.defaultPath
	}
	if sheet == "" {
		sheet = r.defaultSheet
	}
	return path, sheet
}

func parseDate(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date format %q: use DD/MM/YYYY or DD-MM-YYYY", s)
}

func parseCellDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range cellDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func sameDay(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day()
}

func validatePath(path string) error {
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("file path cannot be empty")
	}
	if strings.Contains(path, "..") {
		return fmt.Errorf("invalid file path: path traversal not allowed")
	}
	if !strings.HasSuffix(strings.ToLower(path), ".xlsx") {
		return fmt.Errorf("file must be an Excel file (.xlsx)")
	}
	return nil
}
