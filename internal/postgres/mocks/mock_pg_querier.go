// SPDX-License-Identifier: Apache-2.0

package mocks

import (
	"context"
	"sync/atomic"

	"github.com/xataio/tabprep/internal/postgres"
)

type Querier struct {
	QueryFn    func(ctx context.Context, query string, args ...any) (postgres.Rows, error)
	ExecFn     func(context.Context, uint, string, ...any) (postgres.CommandTag, error)
	CopyFromFn func(ctx context.Context, tableName string, columnNames []string, srcRows [][]any) (int64, error)
	CloseFn    func(context.Context) error
	execCalls  uint32
}

func (m *Querier) Query(ctx context.Context, query string, args ...any) (postgres.Rows, error) {
	return m.QueryFn(ctx, query, args...)
}

func (m *Querier) Exec(ctx context.Context, query string, args ...any) (postgres.CommandTag, error) {
	atomic.AddUint32(&m.execCalls, 1)
	return m.ExecFn(ctx, uint(atomic.LoadUint32(&m.execCalls)), query, args...)
}

func (m *Querier) CopyFrom(ctx context.Context, tableName string, columnNames []string, srcRows [][]any) (int64, error) {
	return m.CopyFromFn(ctx, tableName, columnNames, srcRows)
}

func (m *Querier) Close(ctx context.Context) error {
	if m.CloseFn != nil {
		return m.CloseFn(ctx)
	}
	return nil
}
