// SPDX-License-Identifier: Apache-2.0

package mocks

import (
	"context"

	"github.com/xataio/tabprep/pkg/dataset"
	"github.com/xataio/tabprep/pkg/transformers"
)

type Transformer struct {
	TypeFn          func() transformers.ColumnType
	ColumnsFn       func() []string
	ValidateInputFn func(*dataset.Table) error
	FitFn           func(context.Context, *dataset.Table) error
	TransformFn     func(context.Context, *dataset.Table) (*dataset.Table, error)
	FittedStateFn   func() transformers.FittedState
}

func (m *Transformer) Type() transformers.ColumnType {
	return m.TypeFn()
}

func (m *Transformer) Columns() []string {
	if m.ColumnsFn == nil {
		return nil
	}
	return m.ColumnsFn()
}

func (m *Transformer) ValidateInput(t *dataset.Table) error {
	if m.ValidateInputFn == nil {
		return nil
	}
	return m.ValidateInputFn(t)
}

func (m *Transformer) Fit(ctx context.Context, t *dataset.Table) error {
	return m.FitFn(ctx, t)
}

func (m *Transformer) Transform(ctx context.Context, t *dataset.Table) (*dataset.Table, error) {
	return m.TransformFn(ctx, t)
}

func (m *Transformer) FitTransform(ctx context.Context, t *dataset.Table) (*dataset.Table, error) {
	if err := m.Fit(ctx, t); err != nil {
		return nil, err
	}
	return m.Transform(ctx, t)
}

func (m *Transformer) FittedState() transformers.FittedState {
	if m.FittedStateFn == nil {
		return nil
	}
	return m.FittedStateFn()
}
