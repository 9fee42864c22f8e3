// Package sheet reads the list of repository URLs from an Excel workbook.
package sheet

import (
	"errors"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ErrColumnNotFound is returned when the header row has no cell matching the column name.
var ErrColumnNotFound = errors.New("column not found")

// LoadURLs returns the values of column in sheetName, in row order.
// The first row is the header and the column is matched by name, ignoring
// case and surrounding spaces. Blank cells come back as empty strings so the
// caller can still account for every row.
func LoadURLs(path, sheetName, column string) ([]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook %s: %w", path, err)
	}
	defer f.Close()

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheetName, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("sheet %q has no header row: %w", sheetName, ErrColumnNotFound)
	}

	idx := -1
	for i, header := range rows[0] {
		if strings.EqualFold(strings.TrimSpace(header), column) {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, fmt.Errorf("%q in sheet %q: %w", column, sheetName, ErrColumnNotFound)
	}

	urls := make([]string, 0, len(rows)-1)
	for _, row := range rows[1:] {
		var value string
		if idx < len(row) {
			value = strings.TrimSpace(row[idx])
		}
		urls = append(urls, value)
	}
	return urls, nil
}
