// SPDX-License-Identifier: Apache-2.0

package transformers

import (
	"context"
	"fmt"
	"slices"

	"github.com/spf13/cast"

	"github.com/xataio/tabprep/pkg/dataset"
)

// CategoricalTransformer fills missing values and encodes categorical columns
// with either integer labels or one hot indicator columns.
//
// Unseen categories are handled differently per encoding: label encoding
// fails with ErrUnseenCategory, one hot encoding produces an all zero row.
type CategoricalTransformer struct {
	columns      []string
	fillStrategy MissingValueStrategy
	sentinel     string
	encoding     EncodingMethod
	state        FittedState
}

const defaultSentinel = "MISSING"

func NewCategoricalTransformer(columns []string, params Parameters) (*CategoricalTransformer, error) {
	handleMissing, err := FindParameterWithDefault(params, "handle_missing", string(FillMode))
	if err != nil {
		return nil, fmt.Errorf("categorical: handle_missing must be a string: %w", err)
	}
	encoding, err := FindParameterWithDefault(params, "encoding", string(LabelEncoding))
	if err != nil {
		return nil, fmt.Errorf("categorical: encoding must be a string: %w", err)
	}
	sentinel, err := FindParameterWithDefault(params, "sentinel", defaultSentinel)
	if err != nil {
		return nil, fmt.Errorf("categorical: sentinel must be a string: %w", err)
	}

	switch MissingValueStrategy(handleMissing) {
	case FillMode, FillSentinel:
	default:
		return nil, fmt.Errorf("categorical: missing value strategy %q: %w", handleMissing, ErrUnknownConfiguration)
	}

	switch EncodingMethod(encoding) {
	case LabelEncoding, OneHotEncoding:
	default:
		return nil, fmt.Errorf("categorical: encoding method %q: %w", encoding, ErrUnknownConfiguration)
	}

	return &CategoricalTransformer{
		columns:      slices.Clone(columns),
		fillStrategy: MissingValueStrategy(handleMissing),
		sentinel:     sentinel,
		encoding:     EncodingMethod(encoding),
	}, nil
}

func CategoricalTransformerDefinition() *Definition {
	return &Definition{
		Type:        Categorical,
		Description: "Fills missing values and encodes categorical columns",
		Parameters: []Parameter{
			{
				Name:          "handle_missing",
				SupportedType: "string",
				Default:       string(FillMode),
				Description:   "Fill missing values with the fit time mode or a fixed sentinel",
				Values:        []string{string(FillMode), string(FillSentinel)},
			},
			{
				Name:          "encoding",
				SupportedType: "string",
				Default:       string(LabelEncoding),
				Description:   "Integer label codes or one binary column per category",
				Values:        []string{string(LabelEncoding), string(OneHotEncoding)},
			},
			{
				Name:          "sentinel",
				SupportedType: "string",
				Default:       defaultSentinel,
				Description:   "Placeholder category used when handle_missing is sentinel",
			},
		},
	}
}

func (ct *CategoricalTransformer) Type() ColumnType {
	return Categorical
}

func (ct *CategoricalTransformer) Columns() []string {
	return slices.Clone(ct.columns)
}

func (ct *CategoricalTransformer) ValidateInput(t *dataset.Table) error {
	return validateColumns(t, ct.columns)
}

func (ct *CategoricalTransformer) Fit(_ context.Context, t *dataset.Table) error {
	if err := ct.ValidateInput(t); err != nil {
		return err
	}

	state := make(FittedState, len(ct.columns))
	for _, col := range ct.columns {
		values, _ := t.Column(col)
		colState, err := ct.fitColumn(col, values)
		if err != nil {
			return err
		}
		state[col] = colState
	}

	ct.state = state
	return nil
}

func (ct *CategoricalTransformer) Transform(_ context.Context, t *dataset.Table) (*dataset.Table, error) {
	if err := ct.ValidateInput(t); err != nil {
		return nil, err
	}
	if ct.state == nil {
		return nil, fmt.Errorf("categorical: %w", ErrNotFitted)
	}

	out := t.Clone()
	for _, col := range ct.columns {
		values, _ := t.Column(col)
		categories, err := ct.fill(col, values, ct.state[col].Fill.(string))
		if err != nil {
			return nil, err
		}

		encoding := ct.state[col].Encoding
		switch ct.encoding {
		case LabelEncoding:
			err = ct.labelEncode(out, col, categories, encoding)
		case OneHotEncoding:
			err = ct.oneHotEncode(out, col, categories, encoding)
		}
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (ct *CategoricalTransformer) FitTransform(ctx context.Context, t *dataset.Table) (*dataset.Table, error) {
	return fitTransform(ctx, ct, t)
}

func (ct *CategoricalTransformer) FittedState() FittedState {
	return copyState(ct.state)
}

// EncodingMap returns the vocabulary learned for the column during Fit.
func (ct *CategoricalTransformer) EncodingMap(column string) (*EncodingMap, bool) {
	colState, found := ct.state[column]
	if !found || colState == nil {
		return nil, false
	}
	return colState.Encoding, true
}

// InverseTransform maps label codes of a column back to their categories.
func (ct *CategoricalTransformer) InverseTransform(column string, codes []int) ([]string, error) {
	encoding, found := ct.EncodingMap(column)
	if !found {
		return nil, fmt.Errorf("categorical column %q: %w", column, ErrNotFitted)
	}
	categories := make([]string, len(codes))
	for i, code := range codes {
		category, err := encoding.Decode(code)
		if err != nil {
			return nil, fmt.Errorf("categorical column %q row %d: %w", column, i, err)
		}
		categories[i] = category
	}
	return categories, nil
}

func (ct *CategoricalTransformer) fitColumn(col string, values []any) (*ColumnState, error) {
	observed := make([]string, 0, len(values))
	for i, v := range values {
		category, missing, err := toCategory(v)
		if err != nil {
			return nil, fmt.Errorf("categorical column %q row %d: %w", col, i, err)
		}
		if !missing {
			observed = append(observed, category)
		}
	}

	fill := ct.sentinel
	if ct.fillStrategy == FillMode {
		mode, found := mostFrequent(observed)
		if !found {
			return nil, fmt.Errorf("categorical column %q: %w", col, ErrNoObservations)
		}
		fill = mode
	}

	categories, err := ct.fill(col, values, fill)
	if err != nil {
		return nil, err
	}

	return &ColumnState{
		Fill:     fill,
		Encoding: newEncodingMap(col, ct.encoding, categories),
	}, nil
}

func (ct *CategoricalTransformer) fill(col string, values []any, fill string) ([]string, error) {
	categories := make([]string, len(values))
	for i, v := range values {
		category, missing, err := toCategory(v)
		if err != nil {
			return nil, fmt.Errorf("categorical column %q row %d: %w", col, i, err)
		}
		if missing {
			category = fill
		}
		categories[i] = category
	}
	return categories, nil
}

func (ct *CategoricalTransformer) labelEncode(out *dataset.Table, col string, categories []string, encoding *EncodingMap) error {
	codes := make([]any, len(categories))
	for i, c := range categories {
		code, err := encoding.Encode(c)
		if err != nil {
			return fmt.Errorf("categorical column %q row %d: %w", col, i, err)
		}
		codes[i] = code
	}
	return out.SetColumn(col, codes)
}

func (ct *CategoricalTransformer) oneHotEncode(out *dataset.Table, col string, categories []string, encoding *EncodingMap) error {
	features := make([][]any, encoding.Len())
	for j := range features {
		features[j] = make([]any, len(categories))
		for i := range categories {
			features[j][i] = 0.0
		}
	}
	for i, c := range categories {
		// unseen categories leave the row at zero across all features
		if code, err := encoding.Encode(c); err == nil {
			features[code][i] = 1.0
		}
	}

	if err := out.DropColumn(col); err != nil {
		return err
	}
	for j, name := range encoding.FeatureNames {
		if out.HasColumn(name) {
			return fmt.Errorf("one hot feature %q of column %q: %w", name, col, dataset.ErrDuplicateColumn)
		}
		if err := out.SetColumn(name, features[j]); err != nil {
			return err
		}
	}
	return nil
}

func toCategory(v any) (category string, missing bool, err error) {
	if dataset.IsMissing(v) {
		return "", true, nil
	}
	category, err = cast.ToStringE(v)
	if err != nil {
		return "", false, fmt.Errorf("%w: %w", ErrUnsupportedValueType, err)
	}
	return category, category == "", nil
}
