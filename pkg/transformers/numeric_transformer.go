// SPDX-License-Identifier: Apache-2.0

package transformers

import (
	"context"
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/montanaflynn/stats"
	"github.com/spf13/cast"

	"github.com/xataio/tabprep/pkg/dataset"
)

// NumericTransformer fills missing values and scales each of its columns
// independently, using statistics computed on the fit table only.
type NumericTransformer struct {
	columns      []string
	fillStrategy MissingValueStrategy
	fillFn       numericFillFn
	scalerFitFn  scalerFitFn
	state        FittedState
}

type MissingValueStrategy string

const (
	FillMean     MissingValueStrategy = "mean"
	FillMedian   MissingValueStrategy = "median"
	FillMode     MissingValueStrategy = "mode"
	FillSentinel MissingValueStrategy = "sentinel"
)

type numericFillFn func(observed []float64) (float64, error)

var numericFillFns = map[MissingValueStrategy]numericFillFn{
	FillMean: func(observed []float64) (float64, error) {
		return stats.Mean(observed)
	},
	FillMedian: func(observed []float64) (float64, error) {
		return stats.Median(observed)
	},
	FillMode: func(observed []float64) (float64, error) {
		mode, _ := mostFrequent(observed)
		return mode, nil
	},
}

func NewNumericTransformer(columns []string, params Parameters) (*NumericTransformer, error) {
	handleMissing, err := FindParameterWithDefault(params, "handle_missing", string(FillMean))
	if err != nil {
		return nil, fmt.Errorf("numeric: handle_missing must be a string: %w", err)
	}
	scaling, err := FindParameterWithDefault(params, "scaling", string(StandardScaling))
	if err != nil {
		return nil, fmt.Errorf("numeric: scaling must be a string: %w", err)
	}

	fillFn, found := numericFillFns[MissingValueStrategy(handleMissing)]
	if !found {
		return nil, fmt.Errorf("numeric: missing value strategy %q: %w", handleMissing, ErrUnknownConfiguration)
	}

	fitFn, err := newScalerFitFn(ScalingMethod(scaling))
	if err != nil {
		return nil, fmt.Errorf("numeric: %w", err)
	}

	return &NumericTransformer{
		columns:      slices.Clone(columns),
		fillStrategy: MissingValueStrategy(handleMissing),
		fillFn:       fillFn,
		scalerFitFn:  fitFn,
	}, nil
}

func NumericTransformerDefinition() *Definition {
	return &Definition{
		Type:        Numeric,
		Description: "Fills missing values and scales numeric columns",
		Parameters: []Parameter{
			{
				Name:          "handle_missing",
				SupportedType: "string",
				Default:       string(FillMean),
				Description:   "Statistic computed at fit time used to fill missing values",
				Values:        []string{string(FillMean), string(FillMedian), string(FillMode)},
			},
			{
				Name:          "scaling",
				SupportedType: "string",
				Default:       string(StandardScaling),
				Description:   "Scaling function fitted per column",
				Values:        []string{string(StandardScaling), string(MinMaxScaling), string(RobustScaling)},
			},
		},
	}
}

func (nt *NumericTransformer) Type() ColumnType {
	return Numeric
}

func (nt *NumericTransformer) Columns() []string {
	return slices.Clone(nt.columns)
}

func (nt *NumericTransformer) ValidateInput(t *dataset.Table) error {
	return validateColumns(t, nt.columns)
}

func (nt *NumericTransformer) Fit(_ context.Context, t *dataset.Table) error {
	if err := nt.ValidateInput(t); err != nil {
		return err
	}

	state := make(FittedState, len(nt.columns))
	for _, col := range nt.columns {
		values, _ := t.Column(col)
		colState, err := nt.fitColumn(col, values)
		if err != nil {
			return err
		}
		state[col] = colState
	}

	// only replace the previous state once every column fitted successfully
	nt.state = state
	return nil
}

func (nt *NumericTransformer) Transform(_ context.Context, t *dataset.Table) (*dataset.Table, error) {
	if err := nt.ValidateInput(t); err != nil {
		return nil, err
	}
	if nt.state == nil {
		return nil, fmt.Errorf("numeric: %w", ErrNotFitted)
	}

	out := t.Clone()
	for _, col := range nt.columns {
		values, _ := t.Column(col)
		floats, _, err := toFloats(col, values)
		if err != nil {
			return nil, err
		}

		colState := nt.state[col]
		fill := colState.Fill.(float64)
		scaled := make([]any, len(floats))
		for i, f := range floats {
			if math.IsNaN(f) {
				f = fill
			}
			scaled[i] = colState.Scaler.Apply(f)
		}
		if err := out.SetColumn(col, scaled); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (nt *NumericTransformer) FitTransform(ctx context.Context, t *dataset.Table) (*dataset.Table, error) {
	return fitTransform(ctx, nt, t)
}

func (nt *NumericTransformer) FittedState() FittedState {
	return copyState(nt.state)
}

func (nt *NumericTransformer) fitColumn(col string, values []any) (*ColumnState, error) {
	floats, observed, err := toFloats(col, values)
	if err != nil {
		return nil, err
	}
	if len(observed) == 0 {
		return nil, fmt.Errorf("numeric column %q: %w", col, ErrNoObservations)
	}

	fill, err := nt.fillFn(observed)
	if err != nil {
		return nil, fmt.Errorf("numeric column %q: computing %s: %w", col, nt.fillStrategy, err)
	}

	for i, f := range floats {
		if math.IsNaN(f) {
			floats[i] = fill
		}
	}

	scaler, err := nt.scalerFitFn(floats)
	if err != nil {
		return nil, fmt.Errorf("numeric column %q: fitting scaler: %w", col, err)
	}

	return &ColumnState{Fill: fill, Scaler: scaler}, nil
}

// toFloats converts the cells of a numeric column to float64. Missing cells,
// including empty strings, become NaN. Infinite values are rejected. The
// second slice holds only the observed (non missing) values.
func toFloats(col string, values []any) ([]float64, []float64, error) {
	floats := make([]float64, len(values))
	observed := make([]float64, 0, len(values))
	for i, v := range values {
		if isMissingNumeric(v) {
			floats[i] = math.NaN()
			continue
		}
		f, err := cast.ToFloat64E(v)
		if err != nil {
			return nil, nil, fmt.Errorf("numeric column %q row %d: %w: %w", col, i, ErrUnsupportedValueType, err)
		}
		if math.IsInf(f, 0) {
			return nil, nil, fmt.Errorf("numeric column %q row %d: non finite value %v: %w", col, i, v, ErrUnsupportedValueType)
		}
		floats[i] = f
		if math.IsNaN(f) {
			continue
		}
		observed = append(observed, f)
	}
	return floats, observed, nil
}

func isMissingNumeric(v any) bool {
	if dataset.IsMissing(v) {
		return true
	}
	s, isString := v.(string)
	return isString && strings.TrimSpace(s) == ""
}

func copyState(state FittedState) FittedState {
	if state == nil {
		return nil
	}
	cp := make(FittedState, len(state))
	for k, v := range state {
		cp[k] = v
	}
	return cp
}
