// SPDX-License-Identifier: Apache-2.0

package engine

import "github.com/xataio/tabprep/pkg/transformers"

type Config struct {
	Dataset transformers.DatasetConfig
	// Per type transformer parameters. Nil uses the transformer defaults.
	Text        transformers.Parameters
	Numeric     transformers.Parameters
	Categorical transformers.Parameters
	// Concurrent fits and transforms the per type transformers in parallel.
	Concurrent bool
}

func (c *Config) parameters(t transformers.ColumnType) transformers.Parameters {
	switch t {
	case transformers.Text:
		return c.Text
	case transformers.Numeric:
		return c.Numeric
	case transformers.Categorical:
		return c.Categorical
	default:
		return nil
	}
}
