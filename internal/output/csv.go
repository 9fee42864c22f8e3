// Package output writes reports to the CSV file and renders the console table.
package output

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/naka-gawa/github-report/internal/domain"
)

// bom marks the file as UTF-8 for spreadsheet applications.
const bom = "\ufeff"

// CSVWriter appends reports to a CSV file, one open/close per row, so an
// interrupted run leaves a valid prefix.
type CSVWriter struct {
	path string
}

// NewCSVWriter returns a writer for path. Nothing is touched on disk until
// EnsureHeader or Append is called.
func NewCSVWriter(path string) *CSVWriter {
	return &CSVWriter{path: path}
}

// Path returns the file the writer appends to.
func (w *CSVWriter) Path() string { return w.path }

// EnsureHeader creates the file with a BOM and the header row if it does not
// exist yet. An existing file is left untouched.
func (w *CSVWriter) EnsureHeader() error {
	if err := os.MkdirAll(filepath.Dir(w.path), 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	f, err := os.OpenFile(w.path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if errors.Is(err, fs.ErrExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("create %s: %w", w.path, err)
	}
	defer f.Close()

	if _, err := f.WriteString(bom); err != nil {
		return fmt.Errorf("write BOM: %w", err)
	}
	cw := csv.NewWriter(f)
	if err := cw.Write(domain.Header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	return f.Close()
}

// Append writes r as one row at the end of the file.
func (w *CSVWriter) Append(r *domain.Report) error {
	f, err := os.OpenFile(w.path, os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open %s: %w", w.path, err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	if err := cw.Write(r.Record()); err != nil {
		return fmt.Errorf("write row: %w", err)
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("write row: %w", err)
	}
	return f.Close()
}
