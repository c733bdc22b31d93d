// SPDX-License-Identifier: Apache-2.0

package transformers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xataio/tabprep/pkg/dataset"
)

func TestNewTextTransformer(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		params Parameters

		wantOpts TextOptions
		wantErr  error
	}{
		{
			name:     "ok - defaults",
			params:   nil,
			wantOpts: TextOptions{},
		},
		{
			name: "ok - all enabled",
			params: Parameters{
				"lowercase":          true,
				"remove_punctuation": true,
				"remove_stopwords":   true,
				"stemming":           true,
			},
			wantOpts: TextOptions{
				Lowercase:         true,
				RemovePunctuation: true,
				RemoveStopwords:   true,
				Stemming:          true,
			},
		},
		{
			name: "ok - string booleans",
			params: Parameters{
				"lowercase": "true",
			},
			wantOpts: TextOptions{Lowercase: true},
		},
		{
			name: "error - unknown parameter",
			params: Parameters{
				"lemmatize": true,
			},
			wantErr: ErrInvalidParameters,
		},
		{
			name: "error - invalid parameter type",
			params: Parameters{
				"stemming": "sometimes",
			},
			wantErr: ErrInvalidParameters,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			tt, err := NewTextTransformer([]string{"review"}, tc.params)
			require.ErrorIs(t, err, tc.wantErr)
			if tc.wantErr != nil {
				return
			}
			require.Equal(t, tc.wantOpts, tt.opts)
			require.Equal(t, Text, tt.Type())
		})
	}
}

func TestTextTransformer_Transform(t *testing.T) {
	t.Parallel()

	allEnabled := Parameters{
		"lowercase":          true,
		"remove_punctuation": true,
		"remove_stopwords":   true,
		"stemming":           true,
	}

	tests := []struct {
		name   string
		params Parameters
		value  any

		wantValue string
	}{
		{
			name:      "all steps",
			params:    allEnabled,
			value:     "The Quick, Brown Foxes are running!",
			wantValue: "quick brown fox run",
		},
		{
			name:      "no steps tokenises and rejoins",
			params:    nil,
			value:     "Hello,  World!",
			wantValue: "Hello , World !",
		},
		{
			name:      "lowercase only",
			params:    Parameters{"lowercase": true},
			value:     "Hello WORLD",
			wantValue: "hello world",
		},
		{
			name:      "punctuation only",
			params:    Parameters{"remove_punctuation": true},
			value:     "e-mail: a@b.c",
			wantValue: "email abc",
		},
		{
			name:      "stopwords only",
			params:    Parameters{"remove_stopwords": true},
			value:     "the cat and the dog",
			wantValue: "cat dog",
		},
		{
			name:      "whitespace is collapsed",
			params:    nil,
			value:     "  a \t b\n c  ",
			wantValue: "a b c",
		},
		{
			name:      "byte slice",
			params:    Parameters{"lowercase": true},
			value:     []byte("ABC"),
			wantValue: "abc",
		},
		{
			name:      "missing value",
			params:    allEnabled,
			value:     nil,
			wantValue: "",
		},
		{
			name:      "non string value",
			params:    allEnabled,
			value:     42,
			wantValue: "",
		},
		{
			name:      "only stopwords",
			params:    allEnabled,
			value:     "It is what it is.",
			wantValue: "",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			tt, err := NewTextTransformer([]string{"review"}, tc.params)
			require.NoError(t, err)

			in, err := dataset.New(dataset.Column{Name: "review", Values: []any{tc.value}})
			require.NoError(t, err)

			out, err := tt.FitTransform(context.Background(), in)
			require.NoError(t, err)

			got, found := out.Column("review")
			require.True(t, found)
			require.Equal(t, []any{tc.wantValue}, got)
		})
	}
}

func TestTextTransformer_PassThroughAndImmutability(t *testing.T) {
	t.Parallel()

	tt, err := NewTextTransformer([]string{"review"}, Parameters{"lowercase": true})
	require.NoError(t, err)

	in, err := dataset.New(
		dataset.Column{Name: "id", Values: []any{1, 2}},
		dataset.Column{Name: "review", Values: []any{"GOOD", nil}},
	)
	require.NoError(t, err)

	out, err := tt.Transform(context.Background(), in)
	require.NoError(t, err)

	require.Equal(t, []string{"id", "review"}, out.ColumnNames())
	require.Equal(t, []any{1, "good"}, out.Row(0))
	require.Equal(t, []any{2, ""}, out.Row(1))

	original, _ := in.Column("review")
	require.Equal(t, []any{"GOOD", nil}, original)

	require.Equal(t, FittedState{"review": nil}, tt.FittedState())
}

func TestTextTransformer_SchemaMismatch(t *testing.T) {
	t.Parallel()

	tt, err := NewTextTransformer([]string{"review", "title"}, nil)
	require.NoError(t, err)

	in, err := dataset.New(dataset.Column{Name: "review", Values: []any{"a"}})
	require.NoError(t, err)

	require.ErrorIs(t, tt.ValidateInput(in), ErrSchemaMismatch)
	require.ErrorIs(t, tt.Fit(context.Background(), in), ErrSchemaMismatch)
	_, err = tt.Transform(context.Background(), in)
	require.ErrorIs(t, err, ErrSchemaMismatch)
	require.ErrorContains(t, tt.ValidateInput(in), "title")
}

func TestTokenise(t *testing.T) {
	t.Parallel()

	require.Equal(t, []string{"don", "'", "t", "stop", "!"}, tokenise("don't stop!"))
	require.Equal(t, []string{}, tokenise("   "))
	require.Equal(t, []string{"snake_case", "42"}, tokenise("snake_case 42"))
}
