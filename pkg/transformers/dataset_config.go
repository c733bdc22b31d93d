// SPDX-License-Identifier: Apache-2.0

package transformers

import (
	"errors"
	"fmt"
)

// ColumnSpec declares the semantic type of one input column.
type ColumnSpec struct {
	Name string
	Type ColumnType
}

// DatasetConfig lists the input columns in declaration order.
type DatasetConfig struct {
	Columns []ColumnSpec
}

var ErrInvalidDatasetConfig = errors.New("invalid dataset config")

func (c *DatasetConfig) Validate() error {
	seen := make(map[string]struct{}, len(c.Columns))
	for i, col := range c.Columns {
		if col.Name == "" {
			return fmt.Errorf("column %d has an empty name: %w", i, ErrInvalidDatasetConfig)
		}
		if col.Type == "" {
			return fmt.Errorf("column %q has an empty type: %w", col.Name, ErrInvalidDatasetConfig)
		}
		if _, found := seen[col.Name]; found {
			return fmt.Errorf("column %q declared more than once: %w", col.Name, ErrInvalidDatasetConfig)
		}
		seen[col.Name] = struct{}{}
	}
	return nil
}

// ColumnsOfType returns the names of the columns declared with the given
// type, preserving declaration order.
func (c *DatasetConfig) ColumnsOfType(t ColumnType) []string {
	columns := []string{}
	for _, col := range c.Columns {
		if col.Type == t {
			columns = append(columns, col.Name)
		}
	}
	return columns
}

// Names returns all declared column names in order.
func (c *DatasetConfig) Names() []string {
	names := make([]string, 0, len(c.Columns))
	for _, col := range c.Columns {
		names = append(names, col.Name)
	}
	return names
}
