// SPDX-License-Identifier: Apache-2.0

package transformers

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"unicode"

	"github.com/kljensen/snowball/english"
	"github.com/mitchellh/mapstructure"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"

	"github.com/xataio/tabprep/pkg/dataset"
)

// TextTransformer normalises free text columns. It is purely rule based, so
// fitting learns nothing.
type TextTransformer struct {
	columns []string
	opts    TextOptions
}

type TextOptions struct {
	Lowercase         bool `mapstructure:"lowercase"`
	RemovePunctuation bool `mapstructure:"remove_punctuation"`
	RemoveStopwords   bool `mapstructure:"remove_stopwords"`
	Stemming          bool `mapstructure:"stemming"`
}

const asciiPunctuation = "!\"#$%&'()*+,-./:;<=>?@[\\]^_`{|}~"

func NewTextTransformer(columns []string, params Parameters) (*TextTransformer, error) {
	opts := TextOptions{}
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &opts,
		ErrorUnused:      true,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(map[string]any(params)); err != nil {
		return nil, fmt.Errorf("text: %w: %w", ErrInvalidParameters, err)
	}

	return &TextTransformer{
		columns: slices.Clone(columns),
		opts:    opts,
	}, nil
}

func TextTransformerDefinition() *Definition {
	return &Definition{
		Type:        Text,
		Description: "Normalises free text: lowercase, strip punctuation, tokenise, remove stopwords and stem",
		Parameters: []Parameter{
			{Name: "lowercase", SupportedType: "boolean", Default: false, Description: "Lowercase the text"},
			{Name: "remove_punctuation", SupportedType: "boolean", Default: false, Description: "Remove ASCII punctuation characters"},
			{Name: "remove_stopwords", SupportedType: "boolean", Default: false, Description: "Remove English stopwords"},
			{Name: "stemming", SupportedType: "boolean", Default: false, Description: "Apply the Porter2 stemmer to each token"},
		},
	}
}

func (tt *TextTransformer) Type() ColumnType {
	return Text
}

func (tt *TextTransformer) Columns() []string {
	return slices.Clone(tt.columns)
}

func (tt *TextTransformer) ValidateInput(t *dataset.Table) error {
	return validateColumns(t, tt.columns)
}

func (tt *TextTransformer) Fit(_ context.Context, t *dataset.Table) error {
	return tt.ValidateInput(t)
}

func (tt *TextTransformer) Transform(_ context.Context, t *dataset.Table) (*dataset.Table, error) {
	if err := tt.ValidateInput(t); err != nil {
		return nil, err
	}

	out := t.Clone()
	for _, col := range tt.columns {
		values, _ := out.Column(col)
		for i, v := range values {
			values[i] = tt.normalise(v)
		}
	}
	return out, nil
}

func (tt *TextTransformer) FitTransform(ctx context.Context, t *dataset.Table) (*dataset.Table, error) {
	return fitTransform(ctx, tt, t)
}

func (tt *TextTransformer) FittedState() FittedState {
	state := make(FittedState, len(tt.columns))
	for _, col := range tt.columns {
		state[col] = nil
	}
	return state
}

// normalise maps any cell to a string. Missing and non string values, as well
// as any failure while processing, produce an empty string.
func (tt *TextTransformer) normalise(cell any) string {
	var text string
	switch v := cell.(type) {
	case string:
		text = v
	case []byte:
		text = string(v)
	default:
		return ""
	}

	if tt.opts.Lowercase {
		text = cases.Lower(language.Und).String(text)
	}

	if tt.opts.RemovePunctuation {
		var err error
		text, _, err = transform.String(runes.Remove(runes.Predicate(isASCIIPunctuation)), text)
		if err != nil {
			return ""
		}
	}

	tokens := tokenise(text)

	if tt.opts.RemoveStopwords {
		tokens = slices.DeleteFunc(tokens, func(token string) bool {
			_, isStopword := englishStopwords[token]
			return isStopword
		})
	}

	if tt.opts.Stemming {
		for i, token := range tokens {
			tokens[i] = english.Stem(token, true)
		}
	}

	return strings.Join(tokens, " ")
}

// tokenise splits on whitespace, then separates word runs from the
// punctuation around them, each punctuation rune being its own token.
func tokenise(text string) []string {
	tokens := []string{}
	for _, field := range strings.Fields(text) {
		word := strings.Builder{}
		for _, r := range field {
			if isWordRune(r) {
				word.WriteRune(r)
				continue
			}
			if word.Len() > 0 {
				tokens = append(tokens, word.String())
				word.Reset()
			}
			tokens = append(tokens, string(r))
		}
		if word.Len() > 0 {
			tokens = append(tokens, word.String())
		}
	}
	return tokens
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_'
}

func isASCIIPunctuation(r rune) bool {
	return r < unicode.MaxASCII && strings.ContainsRune(asciiPunctuation, r)
}
