// SPDX-License-Identifier: Apache-2.0

package builder

import (
	"fmt"

	"github.com/xataio/tabprep/pkg/otel"
	"github.com/xataio/tabprep/pkg/transformers"
	"github.com/xataio/tabprep/pkg/transformers/instrumentation"
)

type TransformerBuilder struct {
	instrumentation *otel.Instrumentation
}

type Option func(b *TransformerBuilder)

func NewTransformerBuilder(opts ...Option) *TransformerBuilder {
	b := &TransformerBuilder{}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func WithInstrumentation(i *otel.Instrumentation) Option {
	return func(b *TransformerBuilder) {
		b.instrumentation = i
	}
}

type transformerEntry struct {
	Definition *transformers.Definition
	BuildFn    func(cfg *transformers.Config) (transformers.Transformer, error)
}

var TransformersMap = map[transformers.ColumnType]transformerEntry{
	transformers.Text: {
		Definition: transformers.TextTransformerDefinition(),
		BuildFn: func(cfg *transformers.Config) (transformers.Transformer, error) {
			return transformers.NewTextTransformer(cfg.Columns, cfg.Parameters)
		},
	},
	transformers.Numeric: {
		Definition: transformers.NumericTransformerDefinition(),
		BuildFn: func(cfg *transformers.Config) (transformers.Transformer, error) {
			return transformers.NewNumericTransformer(cfg.Columns, cfg.Parameters)
		},
	},
	transformers.Categorical: {
		Definition: transformers.CategoricalTransformerDefinition(),
		BuildFn: func(cfg *transformers.Config) (transformers.Transformer, error) {
			return transformers.NewCategoricalTransformer(cfg.Columns, cfg.Parameters)
		},
	},
}

// Order is the fixed order in which transformers are built and their outputs
// concatenated.
var Order = []transformers.ColumnType{
	transformers.Text,
	transformers.Numeric,
	transformers.Categorical,
}

// IsSupported returns true if a transformer is registered for the type.
func IsSupported(t transformers.ColumnType) bool {
	_, found := TransformersMap[t]
	return found
}

// Definitions returns the definitions of the registered transformers in
// build order.
func Definitions() []*transformers.Definition {
	definitions := make([]*transformers.Definition, 0, len(Order))
	for _, t := range Order {
		definitions = append(definitions, TransformersMap[t].Definition)
	}
	return definitions
}

func (b *TransformerBuilder) New(cfg *transformers.Config) (transformers.Transformer, error) {
	transformer, ok := TransformersMap[cfg.Type]
	if !ok {
		return nil, fmt.Errorf("%w: unexpected transformer type '%s'", transformers.ErrUnsupportedTransformer, cfg.Type)
	}

	if err := transformers.ValidateParameters(cfg.Parameters, transformer.Definition.ParameterNames()); err != nil {
		return nil, fmt.Errorf("%s transformer: %w", cfg.Type, err)
	}

	t, err := transformer.BuildFn(cfg)
	if err != nil {
		return nil, err
	}
	return instrumentation.NewTransformer(t, b.instrumentation)
}
