package sheet

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

// writeWorkbook saves a workbook with one sheet holding rows, starting at A1.
func writeWorkbook(t *testing.T, sheetName string, rows [][]string) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	_, err := f.NewSheet(sheetName)
	require.NoError(t, err)
	for r, row := range rows {
		for c, value := range row {
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			require.NoError(t, err)
			require.NoError(t, f.SetCellValue(sheetName, cell, value))
		}
	}

	path := filepath.Join(t.TempDir(), "urls.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func TestLoadURLs(t *testing.T) {
	path := writeWorkbook(t, "urls", [][]string{
		{"team", " URL "},
		{"core", "https://github.com/octo/alpha"},
		{"web", ""},
		{"ops", "  https://github.com/octo/beta  "},
	})

	urls, err := LoadURLs(path, "urls", "url")

	require.NoError(t, err)
	assert.Equal(t, []string{
		"https://github.com/octo/alpha",
		"",
		"https://github.com/octo/beta",
	}, urls)
}

func TestLoadURLs_Errors(t *testing.T) {
	path := writeWorkbook(t, "urls", [][]string{{"repository"}, {"https://github.com/octo/alpha"}})

	testCases := []struct {
		name     string
		path     string
		sheet    string
		column   string
		isColumn bool
	}{
		{name: "missing file", path: filepath.Join(t.TempDir(), "absent.xlsx"), sheet: "urls", column: "url"},
		{name: "missing sheet", path: path, sheet: "repos", column: "url"},
		{name: "missing column", path: path, sheet: "urls", column: "url", isColumn: true},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			urls, err := LoadURLs(tc.path, tc.sheet, tc.column)
			assert.Error(t, err)
			assert.Nil(t, urls)
			if tc.isColumn {
				assert.ErrorIs(t, err, ErrColumnNotFound)
			}
		})
	}
}
