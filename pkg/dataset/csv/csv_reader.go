// SPDX-License-Identifier: Apache-2.0

package csv

import (
	stdcsv "encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/xataio/tabprep/pkg/dataset"
)

// Reader loads a CSV file with a header row into a table. Cells are kept as
// strings, except the configured NA markers which are loaded as missing
// values.
type Reader struct {
	naValues  map[string]struct{}
	delimiter rune
}

type ReaderOption func(r *Reader)

var ErrMissingHeader = errors.New("csv input has no header row")

var DefaultNAValues = []string{"", "NA", "NaN", "null"}

func NewReader(opts ...ReaderOption) *Reader {
	r := &Reader{
		delimiter: ',',
	}
	WithNAValues(DefaultNAValues...)(r)
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func WithNAValues(values ...string) ReaderOption {
	return func(r *Reader) {
		r.naValues = make(map[string]struct{}, len(values))
		for _, v := range values {
			r.naValues[v] = struct{}{}
		}
	}
}

func WithDelimiter(d rune) ReaderOption {
	return func(r *Reader) {
		r.delimiter = d
	}
}

func (r *Reader) ReadFile(path string) (*dataset.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	t, err := r.Read(f)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return t, nil
}

func (r *Reader) Read(in io.Reader) (*dataset.Table, error) {
	cr := stdcsv.NewReader(in)
	cr.Comma = r.delimiter

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrMissingHeader
		}
		return nil, err
	}

	columns := make([]dataset.Column, len(header))
	for i, name := range header {
		columns[i] = dataset.Column{Name: name, Values: []any{}}
	}

	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		for i, cell := range record {
			columns[i].Values = append(columns[i].Values, r.parseCell(cell))
		}
	}

	return dataset.New(columns...)
}

func (r *Reader) parseCell(cell string) any {
	if _, isNA := r.naValues[cell]; isNA {
		return nil
	}
	return cell
}
