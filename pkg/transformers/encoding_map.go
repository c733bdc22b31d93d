// SPDX-License-Identifier: Apache-2.0

package transformers

import (
	"errors"
	"fmt"
	"slices"
)

type EncodingMethod string

const (
	LabelEncoding  EncodingMethod = "label"
	OneHotEncoding EncodingMethod = "onehot"
)

var errUnknownCode = errors.New("unknown category code")

// EncodingMap is the vocabulary learned for a categorical column. Categories
// are sorted and the code of a category is its position. For one hot
// encoding, FeatureNames holds the generated column name of each category.
type EncodingMap struct {
	Method       EncodingMethod `json:"method"`
	Categories   []string       `json:"categories"`
	FeatureNames []string       `json:"feature_names,omitempty"`

	codes map[string]int
}

func newEncodingMap(column string, method EncodingMethod, categories []string) *EncodingMap {
	sorted := slices.Clone(categories)
	slices.Sort(sorted)
	sorted = slices.Compact(sorted)

	m := &EncodingMap{
		Method:     method,
		Categories: sorted,
		codes:      make(map[string]int, len(sorted)),
	}
	for i, c := range sorted {
		m.codes[c] = i
	}
	if method == OneHotEncoding {
		m.FeatureNames = make([]string, len(sorted))
		for i, c := range sorted {
			m.FeatureNames[i] = oneHotFeatureName(column, c)
		}
	}
	return m
}

// Encode returns the code of the category, or an error wrapping
// ErrUnseenCategory if the category was not part of the fit vocabulary.
func (m *EncodingMap) Encode(category string) (int, error) {
	code, found := m.codes[category]
	if !found {
		return -1, fmt.Errorf("%q: %w", category, ErrUnseenCategory)
	}
	return code, nil
}

func (m *EncodingMap) Decode(code int) (string, error) {
	if code < 0 || code >= len(m.Categories) {
		return "", fmt.Errorf("%d: %w", code, errUnknownCode)
	}
	return m.Categories[code], nil
}

func (m *EncodingMap) Len() int {
	return len(m.Categories)
}

func oneHotFeatureName(column, category string) string {
	return column + "_" + category
}
