// SPDX-License-Identifier: Apache-2.0

package csv

import (
	stdcsv "encoding/csv"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cast"

	"github.com/xataio/tabprep/internal/progress"
	"github.com/xataio/tabprep/pkg/dataset"
)

// Writer writes a table as CSV with a header row. Missing values are written
// as empty cells.
type Writer struct {
	progressBarBuilder func(totalRows int, description string) progress.Bar
}

type WriterOption func(w *Writer)

func NewWriter(opts ...WriterOption) *Writer {
	w := &Writer{}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// WithProgressTracking renders a progress bar on stdout while rows are
// written.
func WithProgressTracking() WriterOption {
	return func(w *Writer) {
		w.progressBarBuilder = func(totalRows int, description string) progress.Bar {
			return progress.NewRowsBar(totalRows, description)
		}
	}
}

func (w *Writer) WriteFile(path string, t *dataset.Table) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	if err := w.Write(f, t, path); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

func (w *Writer) Write(out io.Writer, t *dataset.Table, description string) error {
	var bar progress.Bar
	if w.progressBarBuilder != nil {
		bar = w.progressBarBuilder(t.NumRows(), description)
		defer bar.Close()
	}

	cw := stdcsv.NewWriter(out)
	if err := cw.Write(t.ColumnNames()); err != nil {
		return err
	}

	record := make([]string, t.NumColumns())
	for i := 0; i < t.NumRows(); i++ {
		for j, cell := range t.Row(i) {
			s, err := formatCell(cell)
			if err != nil {
				return fmt.Errorf("row %d column %q: %w", i, t.ColumnNames()[j], err)
			}
			record[j] = s
		}
		if err := cw.Write(record); err != nil {
			return err
		}
		if bar != nil {
			if err := bar.Add(1); err != nil {
				return err
			}
		}
	}

	cw.Flush()
	return cw.Error()
}

func formatCell(v any) (string, error) {
	if dataset.IsMissing(v) {
		return "", nil
	}
	return cast.ToStringE(v)
}
