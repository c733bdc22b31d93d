// SPDX-License-Identifier: Apache-2.0

package postgres

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	pglib "github.com/xataio/tabprep/internal/postgres"
	"github.com/xataio/tabprep/internal/postgres/mocks"
	"github.com/xataio/tabprep/pkg/dataset"
	loglib "github.com/xataio/tabprep/pkg/log"
)

func TestSink_Write(t *testing.T) {
	t.Parallel()

	errTest := errors.New("oh noes")

	newTable := func(t *testing.T) *dataset.Table {
		table, err := dataset.New(
			dataset.Column{Name: "age", Values: []any{-1.5, math.NaN(), 0.25}},
			dataset.Column{Name: "city", Values: []any{0, nil, 2}},
			dataset.Column{Name: "review", Values: []any{"good", "", "ok"}},
		)
		require.NoError(t, err)
		return table
	}

	tests := []struct {
		name      string
		tableName string
		querier   func(t *testing.T) *mocks.Querier

		wantErr error
	}{
		{
			name:      "ok",
			tableName: "ml.train",
			querier: func(t *testing.T) *mocks.Querier {
				return &mocks.Querier{
					ExecFn: func(ctx context.Context, i uint, query string, args ...any) (pglib.CommandTag, error) {
						switch i {
						case 1:
							require.Equal(t, `DROP TABLE IF EXISTS "ml"."train"`, query)
						case 2:
							require.Equal(t, `CREATE TABLE "ml"."train" ("age" double precision, "city" bigint, "review" text)`, query)
						default:
							return pglib.CommandTag{}, errors.New("unexpected call to ExecFn")
						}
						return pglib.CommandTag{}, nil
					},
					CopyFromFn: func(ctx context.Context, tableName string, columnNames []string, srcRows [][]any) (int64, error) {
						require.Equal(t, "ml.train", tableName)
						require.Equal(t, []string{"age", "city", "review"}, columnNames)
						require.Equal(t, [][]any{
							{-1.5, int64(0), "good"},
							{nil, nil, ""},
							{0.25, int64(2), "ok"},
						}, srcRows)
						return int64(len(srcRows)), nil
					},
				}
			},
		},
		{
			name:      "error - invalid table name",
			tableName: "a.b.c",
			querier: func(t *testing.T) *mocks.Querier {
				return &mocks.Querier{}
			},
			wantErr: pglib.ErrInvalidTableName,
		},
		{
			name:      "error - dropping table",
			tableName: "train",
			querier: func(t *testing.T) *mocks.Querier {
				return &mocks.Querier{
					ExecFn: func(ctx context.Context, i uint, query string, args ...any) (pglib.CommandTag, error) {
						return pglib.CommandTag{}, errTest
					},
				}
			},
			wantErr: errTest,
		},
		{
			name:      "error - copying rows",
			tableName: "train",
			querier: func(t *testing.T) *mocks.Querier {
				return &mocks.Querier{
					ExecFn: func(ctx context.Context, i uint, query string, args ...any) (pglib.CommandTag, error) {
						return pglib.CommandTag{}, nil
					},
					CopyFromFn: func(ctx context.Context, tableName string, columnNames []string, srcRows [][]any) (int64, error) {
						return 0, errTest
					},
				}
			},
			wantErr: errTest,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			s := newSink(tc.querier(t), loglib.NewNoopLogger())
			err := s.Write(context.Background(), tc.tableName, newTable(t))
			require.ErrorIs(t, err, tc.wantErr)
		})
	}
}

func TestInferColumnType(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		values []any
		want   string
	}{
		{name: "integers", values: []any{1, int64(2), nil}, want: bigintType},
		{name: "mixed numbers", values: []any{1, 2.5}, want: doubleType},
		{name: "floats with NaN", values: []any{math.NaN(), 0.5}, want: doubleType},
		{name: "strings", values: []any{"a", 1}, want: textType},
		{name: "all missing", values: []any{nil, math.NaN()}, want: textType},
		{name: "empty", values: []any{}, want: textType},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tc.want, inferColumnType(tc.values))
		})
	}
}
