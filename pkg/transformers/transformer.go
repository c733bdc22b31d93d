// SPDX-License-Identifier: Apache-2.0

package transformers

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/xataio/tabprep/pkg/dataset"
)

// Transformer learns per column parameters from a fit table and applies them
// consistently to any table with the same schema. A transformer only touches
// the columns it was configured with; other columns are passed through.
type Transformer interface {
	Type() ColumnType
	Columns() []string
	// ValidateInput returns an error wrapping ErrSchemaMismatch if any of
	// the transformer columns is missing from the table.
	ValidateInput(t *dataset.Table) error
	Fit(ctx context.Context, t *dataset.Table) error
	Transform(ctx context.Context, t *dataset.Table) (*dataset.Table, error)
	FitTransform(ctx context.Context, t *dataset.Table) (*dataset.Table, error)
	// FittedState returns the parameters learned by the last call to Fit.
	// The returned state must be treated as read only.
	FittedState() FittedState
}

type Config struct {
	Type       ColumnType
	Columns    []string
	Parameters Parameters
}

type ColumnType string

const (
	Text        ColumnType = "text"
	Numeric     ColumnType = "numeric"
	Categorical ColumnType = "categorical"
)

type Parameters map[string]any

// FittedState maps each transformer column to the state learned for it. Text
// columns have no learned state and map to nil.
type FittedState map[string]*ColumnState

type ColumnState struct {
	Fill     any           `json:"fill,omitempty"`
	Scaler   *ScalerParams `json:"scaler,omitempty"`
	Encoding *EncodingMap  `json:"encoding,omitempty"`
}

var (
	ErrSchemaMismatch         = errors.New("input table does not match the expected schema")
	ErrUnknownConfiguration   = errors.New("unknown transformer configuration")
	ErrUnseenCategory         = errors.New("category not seen during fit")
	ErrNotFitted              = errors.New("transformer has not been fitted")
	ErrNoObservations         = errors.New("column has no observed values to fit on")
	ErrUnsupportedValueType   = errors.New("unsupported value type for transformer")
	ErrUnsupportedTransformer = errors.New("unsupported transformer config")
	ErrInvalidParameters      = errors.New("invalid transformer parameters")
)

func FindParameter[T any](params Parameters, name string) (T, bool, error) {
	valAny, found := params[name]
	if !found {
		return *new(T), false, nil
	}

	val, ok := valAny.(T)
	if !ok {
		return *new(T), true, fmt.Errorf("%s: expected %T, got %T: %w", name, *new(T), valAny, ErrInvalidParameters)
	}

	return val, true, nil
}

func FindParameterWithDefault[T any](params Parameters, name string, defaultVal T) (T, error) {
	val, found, err := FindParameter[T](params, name)
	if err != nil {
		return *new(T), err
	}
	if !found {
		return defaultVal, nil
	}
	return val, nil
}

// ValidateParameters returns an error if params contains any parameter not
// included in the list of supported names.
func ValidateParameters(params Parameters, supported []string) error {
	unknown := []string{}
	for name := range params {
		if !slices.Contains(supported, name) {
			unknown = append(unknown, name)
		}
	}
	if len(unknown) > 0 {
		slices.Sort(unknown)
		return fmt.Errorf("unexpected parameters %s: %w", strings.Join(unknown, ", "), ErrInvalidParameters)
	}
	return nil
}

// validateColumns checks all columns are present in the table, reporting all
// the missing ones at once.
func validateColumns(t *dataset.Table, columns []string) error {
	if t == nil {
		return fmt.Errorf("nil table: %w", ErrSchemaMismatch)
	}
	missing := []string{}
	for _, c := range columns {
		if !t.HasColumn(c) {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing columns [%s]: %w", strings.Join(missing, ", "), ErrSchemaMismatch)
	}
	return nil
}

func fitTransform(ctx context.Context, t Transformer, table *dataset.Table) (*dataset.Table, error) {
	if err := t.Fit(ctx, table); err != nil {
		return nil, err
	}
	return t.Transform(ctx, table)
}
