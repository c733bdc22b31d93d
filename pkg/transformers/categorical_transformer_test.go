// SPDX-License-Identifier: Apache-2.0

package transformers

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xataio/tabprep/pkg/dataset"
)

func TestNewCategoricalTransformer(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		params Parameters

		wantErr error
	}{
		{
			name:   "ok - defaults",
			params: nil,
		},
		{
			name:   "ok - sentinel and onehot",
			params: Parameters{"handle_missing": "sentinel", "encoding": "onehot", "sentinel": "?"},
		},
		{
			name:    "error - unknown missing value strategy",
			params:  Parameters{"handle_missing": "drop"},
			wantErr: ErrUnknownConfiguration,
		},
		{
			name:    "error - mean is not a categorical strategy",
			params:  Parameters{"handle_missing": "mean"},
			wantErr: ErrUnknownConfiguration,
		},
		{
			name:    "error - unknown encoding",
			params:  Parameters{"encoding": "ordinal"},
			wantErr: ErrUnknownConfiguration,
		},
		{
			name:    "error - invalid sentinel type",
			params:  Parameters{"sentinel": 0},
			wantErr: ErrInvalidParameters,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			_, err := NewCategoricalTransformer([]string{"city"}, tc.params)
			require.ErrorIs(t, err, tc.wantErr)
		})
	}
}

func TestCategoricalTransformer_LabelEncoding(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		params Parameters
		values []any

		wantFill       string
		wantCategories []string
		wantCodes      []any
	}{
		{
			name:           "no missing values",
			params:         Parameters{"encoding": "label"},
			values:         []any{"A", "B", "A"},
			wantFill:       "A",
			wantCategories: []string{"A", "B"},
			wantCodes:      []any{0, 1, 0},
		},
		{
			name:           "mode fill",
			params:         Parameters{"handle_missing": "mode"},
			values:         []any{"red", nil, "blue", "red", ""},
			wantFill:       "red",
			wantCategories: []string{"blue", "red"},
			wantCodes:      []any{1, 1, 0, 1, 1},
		},
		{
			name:           "sentinel fill",
			params:         Parameters{"handle_missing": "sentinel"},
			values:         []any{"x", nil, "y", math.NaN()},
			wantFill:       "MISSING",
			wantCategories: []string{"MISSING", "x", "y"},
			wantCodes:      []any{1, 0, 2, 0},
		},
		{
			name:           "custom sentinel on all missing column",
			params:         Parameters{"handle_missing": "sentinel", "sentinel": "unknown"},
			values:         []any{nil, nil},
			wantFill:       "unknown",
			wantCategories: []string{"unknown"},
			wantCodes:      []any{0, 0},
		},
		{
			name:           "non string values",
			params:         nil,
			values:         []any{3, 1, 2, int64(1)},
			wantFill:       "1",
			wantCategories: []string{"1", "2", "3"},
			wantCodes:      []any{2, 0, 1, 0},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			ct, err := NewCategoricalTransformer([]string{"city"}, tc.params)
			require.NoError(t, err)

			in, err := dataset.New(dataset.Column{Name: "city", Values: tc.values})
			require.NoError(t, err)

			out, err := ct.FitTransform(context.Background(), in)
			require.NoError(t, err)

			state := ct.FittedState()["city"]
			require.Equal(t, tc.wantFill, state.Fill)
			require.Equal(t, LabelEncoding, state.Encoding.Method)
			require.Equal(t, tc.wantCategories, state.Encoding.Categories)
			require.Empty(t, state.Encoding.FeatureNames)

			got, _ := out.Column("city")
			require.Equal(t, tc.wantCodes, got)
		})
	}
}

func TestCategoricalTransformer_LabelEncoding_UnseenCategory(t *testing.T) {
	t.Parallel()

	ct, err := NewCategoricalTransformer([]string{"city"}, Parameters{"encoding": "label"})
	require.NoError(t, err)

	fit, err := dataset.New(dataset.Column{Name: "city", Values: []any{"A", "B"}})
	require.NoError(t, err)
	require.NoError(t, ct.Fit(context.Background(), fit))

	in, err := dataset.New(dataset.Column{Name: "city", Values: []any{"A", "C"}})
	require.NoError(t, err)

	_, err = ct.Transform(context.Background(), in)
	require.ErrorIs(t, err, ErrUnseenCategory)
	require.ErrorContains(t, err, `"C"`)
}

func TestCategoricalTransformer_OneHotEncoding(t *testing.T) {
	t.Parallel()

	ct, err := NewCategoricalTransformer([]string{"city"}, Parameters{"encoding": "onehot"})
	require.NoError(t, err)

	fit, err := dataset.New(
		dataset.Column{Name: "city", Values: []any{"B", "A", nil}},
		dataset.Column{Name: "age", Values: []any{1, 2, 3}},
	)
	require.NoError(t, err)

	out, err := ct.FitTransform(context.Background(), fit)
	require.NoError(t, err)

	// the source column is replaced by one feature per sorted category,
	// appended after the existing columns
	require.Equal(t, []string{"age", "city_A", "city_B"}, out.ColumnNames())
	require.Equal(t, []any{1, 0.0, 1.0}, out.Row(0))
	require.Equal(t, []any{2, 1.0, 0.0}, out.Row(1))
	// missing value filled with the mode, ties resolve to "A"
	require.Equal(t, []any{3, 1.0, 0.0}, out.Row(2))

	encoding, found := ct.EncodingMap("city")
	require.True(t, found)
	require.Equal(t, []string{"city_A", "city_B"}, encoding.FeatureNames)

	// unseen categories produce an all zero row
	in, err := dataset.New(dataset.Column{Name: "city", Values: []any{"C", "B"}})
	require.NoError(t, err)
	out, err = ct.Transform(context.Background(), in)
	require.NoError(t, err)
	require.Equal(t, []string{"city_A", "city_B"}, out.ColumnNames())
	require.Equal(t, []any{0.0, 0.0}, out.Row(0))
	require.Equal(t, []any{0.0, 1.0}, out.Row(1))
}

func TestCategoricalTransformer_OneHotEncoding_FeatureNameCollision(t *testing.T) {
	t.Parallel()

	ct, err := NewCategoricalTransformer([]string{"city"}, Parameters{"encoding": "onehot"})
	require.NoError(t, err)

	in, err := dataset.New(
		dataset.Column{Name: "city", Values: []any{"A"}},
		dataset.Column{Name: "city_A", Values: []any{"x"}},
	)
	require.NoError(t, err)

	_, err = ct.FitTransform(context.Background(), in)
	require.ErrorIs(t, err, dataset.ErrDuplicateColumn)
}

func TestCategoricalTransformer_Errors(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("not fitted", func(t *testing.T) {
		t.Parallel()
		ct, err := NewCategoricalTransformer([]string{"city"}, nil)
		require.NoError(t, err)
		in, err := dataset.New(dataset.Column{Name: "city", Values: []any{"A"}})
		require.NoError(t, err)
		_, err = ct.Transform(ctx, in)
		require.ErrorIs(t, err, ErrNotFitted)
	})

	t.Run("no observations for mode", func(t *testing.T) {
		t.Parallel()
		ct, err := NewCategoricalTransformer([]string{"city"}, nil)
		require.NoError(t, err)
		in, err := dataset.New(dataset.Column{Name: "city", Values: []any{nil, ""}})
		require.NoError(t, err)
		require.ErrorIs(t, ct.Fit(ctx, in), ErrNoObservations)
	})

	t.Run("unsupported value type", func(t *testing.T) {
		t.Parallel()
		ct, err := NewCategoricalTransformer([]string{"city"}, nil)
		require.NoError(t, err)
		in, err := dataset.New(dataset.Column{Name: "city", Values: []any{"A", []int{1}}})
		require.NoError(t, err)
		require.ErrorIs(t, ct.Fit(ctx, in), ErrUnsupportedValueType)
	})

	t.Run("schema mismatch", func(t *testing.T) {
		t.Parallel()
		ct, err := NewCategoricalTransformer([]string{"city", "country"}, nil)
		require.NoError(t, err)
		in, err := dataset.New(dataset.Column{Name: "city", Values: []any{"A"}})
		require.NoError(t, err)
		err = ct.Fit(ctx, in)
		require.ErrorIs(t, err, ErrSchemaMismatch)
		require.ErrorContains(t, err, "country")
	})
}

func TestCategoricalTransformer_InverseTransform(t *testing.T) {
	t.Parallel()

	ct, err := NewCategoricalTransformer([]string{"city"}, nil)
	require.NoError(t, err)

	_, err = ct.InverseTransform("city", []int{0})
	require.ErrorIs(t, err, ErrNotFitted)

	in, err := dataset.New(dataset.Column{Name: "city", Values: []any{"Paris", "Lyon", "Nice", "Lyon"}})
	require.NoError(t, err)
	out, err := ct.FitTransform(context.Background(), in)
	require.NoError(t, err)

	encoded, _ := out.Column("city")
	codes := make([]int, len(encoded))
	for i, c := range encoded {
		codes[i] = c.(int)
	}

	decoded, err := ct.InverseTransform("city", codes)
	require.NoError(t, err)
	require.Equal(t, []string{"Paris", "Lyon", "Nice", "Lyon"}, decoded)

	_, err = ct.InverseTransform("city", []int{3})
	require.ErrorIs(t, err, errUnknownCode)

	_, err = ct.InverseTransform("country", []int{0})
	require.ErrorIs(t, err, ErrNotFitted)
}
