// SPDX-License-Identifier: Apache-2.0

package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgtype"

	pglib "github.com/xataio/tabprep/internal/postgres"
	"github.com/xataio/tabprep/pkg/dataset"
	loglib "github.com/xataio/tabprep/pkg/log"
)

// Source loads the result of a query into a table. Each result column
// becomes a table column.
type Source struct {
	querier pglib.Querier
	query   string
	logger  loglib.Logger
}

type Option func(s *options)

type options struct {
	logger loglib.Logger
}

var errEmptyQuery = errors.New("postgres source requires a query")

func WithLogger(l loglib.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

func NewSource(ctx context.Context, cfg *SourceConfig, opts ...Option) (*Source, error) {
	if cfg.Query == "" {
		return nil, errEmptyQuery
	}

	o := newOptions(opts)
	conn, err := pglib.NewConn(ctx, cfg.URL, pglib.WithLogger(o.logger))
	if err != nil {
		return nil, err
	}

	return newSource(conn, cfg.Query, o.logger), nil
}

func newSource(querier pglib.Querier, query string, logger loglib.Logger) *Source {
	return &Source{
		querier: querier,
		query:   query,
		logger: loglib.NewLogger(logger).WithFields(loglib.Fields{
			loglib.ModuleField: "postgres_source",
		}),
	}
}

func (s *Source) Read(ctx context.Context) (*dataset.Table, error) {
	rows, err := s.querier.Query(ctx, s.query)
	if err != nil {
		return nil, fmt.Errorf("querying postgres source: %w", err)
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	columns := make([]dataset.Column, len(fields))
	for i, f := range fields {
		columns[i] = dataset.Column{Name: f.Name, Values: []any{}}
	}

	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("reading postgres row: %w", err)
		}
		for i, v := range values {
			cell, err := toCell(v)
			if err != nil {
				return nil, fmt.Errorf("column %q: %w", columns[i].Name, err)
			}
			columns[i].Values = append(columns[i].Values, cell)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, pglib.MapError(err)
	}

	t, err := dataset.New(columns...)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("postgres source read", loglib.Fields{loglib.RowsField: t.NumRows(), loglib.ColumnsField: t.NumColumns()})
	return t, nil
}

func (s *Source) Close(ctx context.Context) error {
	return s.querier.Close(ctx)
}

// toCell converts the values decoded by pgx into the cell types understood
// by the transformers.
func toCell(v any) (any, error) {
	switch val := v.(type) {
	case nil:
		return nil, nil
	case pgtype.Numeric:
		if !val.Valid || val.NaN {
			return nil, nil
		}
		f, err := val.Float64Value()
		if err != nil {
			return nil, err
		}
		return f.Float64, nil
	case []byte:
		return string(val), nil
	case time.Time:
		return val.Format(time.RFC3339Nano), nil
	case [16]byte:
		u := pgtype.UUID{Bytes: val, Valid: true}
		uv, err := u.Value()
		if err != nil {
			return nil, err
		}
		return uv, nil
	default:
		return val, nil
	}
}

func newOptions(opts []Option) *options {
	o := &options{logger: loglib.NewNoopLogger()}
	for _, opt := range opts {
		opt(o)
	}
	return o
}
