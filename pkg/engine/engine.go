// SPDX-License-Identifier: Apache-2.0

package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"

	"github.com/xataio/tabprep/pkg/dataset"
	loglib "github.com/xataio/tabprep/pkg/log"
	"github.com/xataio/tabprep/pkg/otel"
	"github.com/xataio/tabprep/pkg/transformers"
	"github.com/xataio/tabprep/pkg/transformers/builder"
)

// Engine routes the columns of a table to one transformer per declared column
// type and recombines their outputs column-wise. Transformers are
// instantiated in a fixed order (text, numeric, categorical), which is also
// the order of the output columns. Declared types with no registered
// transformer are excluded from the output.
type Engine struct {
	logger       loglib.Logger
	builder      transformerBuilder
	concurrent   bool
	configs      []*transformers.Config
	transformers []transformers.Transformer
	excluded     []string
	// input columns of the last fit table, only kept when there are no
	// transformers and Transform passes the input through
	passthrough []string
	fitted      bool
}

type transformerBuilder interface {
	New(*transformers.Config) (transformers.Transformer, error)
}

type inverseTransformer interface {
	InverseTransform(column string, codes []int) ([]string, error)
}

type unwrapper interface {
	Unwrap() transformers.Transformer
}

type Option func(e *Engine)

var ErrNoInverseTransform = errors.New("column does not support inverse transform")

// New validates the dataset config and instantiates the transformers for the
// declared column types.
func New(cfg *Config, opts ...Option) (*Engine, error) {
	e := &Engine{
		logger:     loglib.NewNoopLogger(),
		builder:    builder.NewTransformerBuilder(),
		concurrent: cfg.Concurrent,
	}

	for _, opt := range opts {
		opt(e)
	}

	if err := cfg.Dataset.Validate(); err != nil {
		return nil, err
	}

	declared := lo.Uniq(lo.Map(cfg.Dataset.Columns, func(c transformers.ColumnSpec, _ int) transformers.ColumnType {
		return c.Type
	}))

	for _, columnType := range builder.Order {
		if !lo.Contains(declared, columnType) {
			continue
		}
		e.configs = append(e.configs, &transformers.Config{
			Type:       columnType,
			Columns:    cfg.Dataset.ColumnsOfType(columnType),
			Parameters: cfg.parameters(columnType),
		})
	}

	var err error
	if e.transformers, err = e.newTransformers(); err != nil {
		return nil, err
	}
	for _, t := range e.transformers {
		e.logger.Debug("transformer instantiated", loglib.Fields{
			loglib.ColumnTypeField: t.Type(),
			loglib.ColumnsField:    t.Columns(),
		})
	}

	for _, columnType := range declared {
		if builder.IsSupported(columnType) {
			continue
		}
		columns := cfg.Dataset.ColumnsOfType(columnType)
		e.excluded = append(e.excluded, columns...)
		e.logger.Debug("no transformer registered for column type, excluding columns from output", loglib.Fields{
			loglib.ColumnTypeField: columnType,
			loglib.ColumnsField:    columns,
		})
	}

	return e, nil
}

func WithLogger(l loglib.Logger) Option {
	return func(e *Engine) {
		e.logger = loglib.NewLogger(l).WithFields(loglib.Fields{
			loglib.ModuleField: "preprocessing_engine",
		})
	}
}

func WithTransformerBuilder(b transformerBuilder) Option {
	return func(e *Engine) {
		e.builder = b
	}
}

func WithInstrumentation(i *otel.Instrumentation) Option {
	return func(e *Engine) {
		e.builder = builder.NewTransformerBuilder(builder.WithInstrumentation(i))
	}
}

func WithConcurrency(enabled bool) Option {
	return func(e *Engine) {
		e.concurrent = enabled
	}
}

// Fit fits a fresh set of transformers, each on its own column subset of the
// table. The fitted transformers replace the previous ones only when all of
// them succeed, otherwise the engine keeps its prior state.
func (e *Engine) Fit(ctx context.Context, t *dataset.Table) error {
	if err := e.validateInput(t); err != nil {
		return err
	}

	fresh, err := e.newTransformers()
	if err != nil {
		return err
	}

	err = e.forEachTransformer(ctx, fresh, func(ctx context.Context, _ int, tr transformers.Transformer) error {
		slice, err := t.Select(tr.Columns()...)
		if err != nil {
			return err
		}
		if err := tr.Fit(ctx, slice); err != nil {
			return fmt.Errorf("fitting %s transformer: %w", tr.Type(), err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	e.transformers = fresh
	e.passthrough = nil
	if len(fresh) == 0 {
		e.passthrough = t.ColumnNames()
	}
	e.fitted = true
	e.logger.Debug("engine fitted", loglib.Fields{loglib.RowsField: t.NumRows()})
	return nil
}

// Transform applies every fitted transformer to its column subset and
// concatenates the outputs in instantiation order. All transformers validate
// the input before any of them transforms it.
func (e *Engine) Transform(ctx context.Context, t *dataset.Table) (*dataset.Table, error) {
	if err := e.validateInput(t); err != nil {
		return nil, err
	}
	if len(e.transformers) == 0 {
		return t.Clone(), nil
	}

	outputs := make([]*dataset.Table, len(e.transformers))
	err := e.forEachTransformer(ctx, e.transformers, func(ctx context.Context, i int, tr transformers.Transformer) error {
		slice, err := t.Select(tr.Columns()...)
		if err != nil {
			return err
		}
		out, err := tr.Transform(ctx, slice)
		if err != nil {
			return fmt.Errorf("transforming with %s transformer: %w", tr.Type(), err)
		}
		outputs[i] = out
		return nil
	})
	if err != nil {
		return nil, err
	}

	return dataset.Concat(outputs...)
}

func (e *Engine) FitTransform(ctx context.Context, t *dataset.Table) (*dataset.Table, error) {
	if err := e.Fit(ctx, t); err != nil {
		return nil, err
	}
	return e.Transform(ctx, t)
}

// Preprocess fits the engine on the table and returns the transformed table.
func (e *Engine) Preprocess(ctx context.Context, t *dataset.Table) (*dataset.Table, error) {
	return e.FitTransform(ctx, t)
}

// Transformer returns the transformer instantiated for the column type, if
// any.
func (e *Engine) Transformer(columnType transformers.ColumnType) (transformers.Transformer, bool) {
	return lo.Find(e.transformers, func(t transformers.Transformer) bool {
		return t.Type() == columnType
	})
}

// Types returns the column types with an instantiated transformer, in
// instantiation order.
func (e *Engine) Types() []transformers.ColumnType {
	return lo.Map(e.transformers, func(t transformers.Transformer, _ int) transformers.ColumnType {
		return t.Type()
	})
}

// ExcludedColumns returns the declared columns whose type has no registered
// transformer.
func (e *Engine) ExcludedColumns() []string {
	return append([]string{}, e.excluded...)
}

// OutputColumns returns the names of the columns produced by Transform. One
// hot encoded columns expand to their feature names, which are only known
// once the engine is fitted. With no transformers, these are the columns of
// the table the engine was fitted on.
func (e *Engine) OutputColumns() ([]string, error) {
	if !e.fitted {
		return nil, transformers.ErrNotFitted
	}
	if len(e.transformers) == 0 {
		return append([]string{}, e.passthrough...), nil
	}
	columns := []string{}
	for _, tr := range e.transformers {
		state := tr.FittedState()
		for _, col := range tr.Columns() {
			colState := state[col]
			if colState != nil && colState.Encoding != nil && colState.Encoding.Method == transformers.OneHotEncoding {
				columns = append(columns, colState.Encoding.FeatureNames...)
				continue
			}
			columns = append(columns, col)
		}
	}
	return columns, nil
}

// InverseTransform maps label codes of a categorical column back to the
// original categories.
func (e *Engine) InverseTransform(column string, codes []int) ([]string, error) {
	tr, found := e.Transformer(transformers.Categorical)
	if !found || !lo.Contains(tr.Columns(), column) {
		return nil, fmt.Errorf("column %q: %w", column, ErrNoInverseTransform)
	}
	if u, ok := tr.(unwrapper); ok {
		tr = u.Unwrap()
	}
	inverse, ok := tr.(inverseTransformer)
	if !ok {
		return nil, fmt.Errorf("column %q: %w", column, ErrNoInverseTransform)
	}
	return inverse.InverseTransform(column, codes)
}

func (e *Engine) validateInput(t *dataset.Table) error {
	if t == nil {
		return fmt.Errorf("nil table: %w", transformers.ErrSchemaMismatch)
	}
	for _, tr := range e.transformers {
		if err := tr.ValidateInput(t); err != nil {
			return fmt.Errorf("%s transformer: %w", tr.Type(), err)
		}
	}
	return nil
}

func (e *Engine) newTransformers() ([]transformers.Transformer, error) {
	trs := make([]transformers.Transformer, 0, len(e.configs))
	for _, cfg := range e.configs {
		t, err := e.builder.New(cfg)
		if err != nil {
			return nil, fmt.Errorf("building %s transformer: %w", cfg.Type, err)
		}
		trs = append(trs, t)
	}
	return trs, nil
}

func (e *Engine) forEachTransformer(ctx context.Context, trs []transformers.Transformer, fn func(ctx context.Context, i int, t transformers.Transformer) error) error {
	if !e.concurrent {
		for i, tr := range trs {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := fn(ctx, i, tr); err != nil {
				return err
			}
		}
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	for i, tr := range trs {
		g.Go(func() error {
			return fn(gctx, i, tr)
		})
	}
	return g.Wait()
}
