// SPDX-License-Identifier: Apache-2.0

package mocks

import (
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Rows replays the configured result set one row at a time.
type Rows struct {
	FieldNames []string
	Data       [][]any
	// Error returned by Err once iteration is done.
	RowsErr error
	// Error returned by Values instead of the current row.
	ValuesErr error

	Closed bool
	pos    int
}

var errNoCurrentRow = errors.New("no current row")

func (m *Rows) Close() {
	m.Closed = true
}

func (m *Rows) Err() error {
	return m.RowsErr
}

func (m *Rows) CommandTag() pgconn.CommandTag {
	return pgconn.CommandTag{}
}

func (m *Rows) FieldDescriptions() []pgconn.FieldDescription {
	fields := make([]pgconn.FieldDescription, 0, len(m.FieldNames))
	for _, name := range m.FieldNames {
		fields = append(fields, pgconn.FieldDescription{Name: name})
	}
	return fields
}

func (m *Rows) Next() bool {
	if m.Closed || m.pos >= len(m.Data) {
		m.Closed = true
		return false
	}
	m.pos++
	return true
}

func (m *Rows) Scan(dest ...any) error {
	return errors.New("scan not supported by mock rows")
}

func (m *Rows) Values() ([]any, error) {
	if m.ValuesErr != nil {
		return nil, m.ValuesErr
	}
	if m.pos == 0 || m.pos > len(m.Data) {
		return nil, errNoCurrentRow
	}
	return m.Data[m.pos-1], nil
}

func (m *Rows) RawValues() [][]byte {
	return nil
}

func (m *Rows) Conn() *pgx.Conn {
	return nil
}
