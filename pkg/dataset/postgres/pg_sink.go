// SPDX-License-Identifier: Apache-2.0

package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cast"

	pglib "github.com/xataio/tabprep/internal/postgres"
	"github.com/xataio/tabprep/pkg/dataset"
	loglib "github.com/xataio/tabprep/pkg/log"
)

// Sink writes tables into postgres. The target table is recreated on every
// write, with column types inferred from the cells.
type Sink struct {
	querier pglib.Querier
	logger  loglib.Logger
}

const (
	bigintType = "bigint"
	doubleType = "double precision"
	textType   = "text"
)

func NewSink(ctx context.Context, url string, opts ...Option) (*Sink, error) {
	o := newOptions(opts)
	conn, err := pglib.NewConn(ctx, url, pglib.WithLogger(o.logger))
	if err != nil {
		return nil, err
	}
	return newSink(conn, o.logger), nil
}

func newSink(querier pglib.Querier, logger loglib.Logger) *Sink {
	return &Sink{
		querier: querier,
		logger: loglib.NewLogger(logger).WithFields(loglib.Fields{
			loglib.ModuleField: "postgres_sink",
		}),
	}
}

func (s *Sink) Write(ctx context.Context, tableName string, t *dataset.Table) error {
	quotedTable, err := pglib.QuoteTableName(tableName)
	if err != nil {
		return err
	}

	names := t.ColumnNames()
	columnDefs := make([]string, len(names))
	columnTypes := make([]string, len(names))
	for i, name := range names {
		values, _ := t.Column(name)
		columnTypes[i] = inferColumnType(values)
		columnDefs[i] = fmt.Sprintf("%s %s", pglib.QuoteIdentifier(name), columnTypes[i])
	}

	if _, err := s.querier.Exec(ctx, fmt.Sprintf("DROP TABLE IF EXISTS %s", quotedTable)); err != nil {
		return fmt.Errorf("dropping table %s: %w", tableName, pglib.MapError(err))
	}
	if _, err := s.querier.Exec(ctx, fmt.Sprintf("CREATE TABLE %s (%s)", quotedTable, strings.Join(columnDefs, ", "))); err != nil {
		return fmt.Errorf("creating table %s: %w", tableName, pglib.MapError(err))
	}

	rows := make([][]any, t.NumRows())
	for i := range rows {
		row := t.Row(i)
		for j, v := range row {
			cell, err := toColumnValue(v, columnTypes[j])
			if err != nil {
				return fmt.Errorf("row %d column %q: %w", i, names[j], err)
			}
			row[j] = cell
		}
		rows[i] = row
	}

	n, err := s.querier.CopyFrom(ctx, tableName, names, rows)
	if err != nil {
		return fmt.Errorf("copying rows into %s: %w", tableName, pglib.MapError(err))
	}

	s.logger.Info("table written to postgres", loglib.Fields{"table": tableName, loglib.RowsField: n})
	return nil
}

func (s *Sink) Close(ctx context.Context) error {
	return s.querier.Close(ctx)
}

// inferColumnType returns bigint for integer only columns, double precision
// for numeric columns with at least one float, and text otherwise. Missing
// values do not affect the inferred type.
func inferColumnType(values []any) string {
	columnType := ""
	for _, v := range values {
		if dataset.IsMissing(v) {
			continue
		}
		switch v.(type) {
		case int, int8, int16, int32, int64, uint8, uint16, uint32:
			if columnType == "" {
				columnType = bigintType
			}
		case float32, float64:
			if columnType != textType {
				columnType = doubleType
			}
		default:
			return textType
		}
	}
	if columnType == "" {
		return textType
	}
	return columnType
}

func toColumnValue(v any, columnType string) (any, error) {
	if dataset.IsMissing(v) {
		return nil, nil
	}
	switch columnType {
	case bigintType:
		return cast.ToInt64E(v)
	case doubleType:
		return cast.ToFloat64E(v)
	default:
		return cast.ToStringE(v)
	}
}
