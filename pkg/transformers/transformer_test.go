// SPDX-License-Identifier: Apache-2.0

package transformers

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func Test_FindParameter(t *testing.T) {
	t.Parallel()

	params := Parameters{
		"scaling":   "robust",
		"lowercase": true,
	}

	scaling, found, err := FindParameter[string](params, "scaling")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "robust", scaling)

	_, found, err = FindParameter[string](params, "handle_missing")
	require.NoError(t, err)
	require.False(t, found)

	_, found, err = FindParameter[string](params, "lowercase")
	require.ErrorIs(t, err, ErrInvalidParameters)
	require.True(t, found)

	_, found, err = FindParameter[bool](nil, "lowercase")
	require.NoError(t, err)
	require.False(t, found)
}

func Test_FindParameterWithDefault(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		params Parameters

		wantValue string
		wantErr   error
	}{
		{
			name:      "ok - configured",
			params:    Parameters{"encoding": "onehot"},
			wantValue: "onehot",
		},
		{
			name:      "ok - default",
			params:    Parameters{"handle_missing": "sentinel"},
			wantValue: "label",
		},
		{
			name:    "error - not a string",
			params:  Parameters{"encoding": 1},
			wantErr: ErrInvalidParameters,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got, err := FindParameterWithDefault(tc.params, "encoding", "label")
			require.ErrorIs(t, err, tc.wantErr)
			require.Equal(t, tc.wantValue, got)
		})
	}
}

func Test_ValidateParameters(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		params    Parameters
		supported []string

		wantErr error
	}{
		{
			name:      "ok - all supported",
			params:    Parameters{"scaling": "minmax"},
			supported: []string{"handle_missing", "scaling"},
		},
		{
			name:      "ok - nil parameters",
			params:    nil,
			supported: []string{"scaling"},
		},
		{
			name:      "error - unexpected parameter",
			params:    Parameters{"scaling": "minmax", "clip": true},
			supported: []string{"handle_missing", "scaling"},
			wantErr:   ErrInvalidParameters,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			err := ValidateParameters(tc.params, tc.supported)
			require.ErrorIs(t, err, tc.wantErr)
		})
	}
}

func Test_DatasetConfig(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		config DatasetConfig

		wantErr error
	}{
		{
			name: "ok",
			config: DatasetConfig{Columns: []ColumnSpec{
				{Name: "review", Type: Text},
				{Name: "age", Type: Numeric},
			}},
		},
		{
			name:   "ok - empty",
			config: DatasetConfig{},
		},
		{
			name: "error - duplicate column",
			config: DatasetConfig{Columns: []ColumnSpec{
				{Name: "age", Type: Numeric},
				{Name: "age", Type: Categorical},
			}},
			wantErr: ErrInvalidDatasetConfig,
		},
		{
			name:    "error - empty name",
			config:  DatasetConfig{Columns: []ColumnSpec{{Name: "", Type: Numeric}}},
			wantErr: ErrInvalidDatasetConfig,
		},
		{
			name:    "error - empty type",
			config:  DatasetConfig{Columns: []ColumnSpec{{Name: "age"}}},
			wantErr: ErrInvalidDatasetConfig,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			err := tc.config.Validate()
			require.ErrorIs(t, err, tc.wantErr)
		})
	}
}

func Test_DatasetConfig_ColumnsOfType(t *testing.T) {
	t.Parallel()

	cfg := DatasetConfig{Columns: []ColumnSpec{
		{Name: "b", Type: Numeric},
		{Name: "city", Type: Categorical},
		{Name: "a", Type: Numeric},
		{Name: "id", Type: "identifier"},
	}}

	require.Equal(t, []string{"b", "a"}, cfg.ColumnsOfType(Numeric))
	require.Equal(t, []string{"city"}, cfg.ColumnsOfType(Categorical))
	require.Equal(t, []string{}, cfg.ColumnsOfType(Text))
	require.Equal(t, []string{"b", "city", "a", "id"}, cfg.Names())
}
