// SPDX-License-Identifier: Apache-2.0

package transformers

// Definition describes a transformer and the parameters it accepts.
type Definition struct {
	Type        ColumnType  `json:"type"`
	Description string      `json:"description"`
	Parameters  []Parameter `json:"parameters"`
}

type Parameter struct {
	Name          string   `json:"name"`
	Description   string   `json:"description"`
	Default       any      `json:"default"`
	SupportedType string   `json:"supported_type"`
	Values        []string `json:"values,omitempty"`
}

func (d *Definition) ParameterNames() []string {
	names := make([]string, len(d.Parameters))
	for i, p := range d.Parameters {
		names[i] = p.Name
	}
	return names
}
