// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"log"
	"os"

	"github.com/xataio/tabprep/internal/json"
	"github.com/xataio/tabprep/pkg/transformers"
	"github.com/xataio/tabprep/pkg/transformers/builder"
)

type Result struct {
	Name         string        `json:"name"`
	Transformers []Transformer `json:"transformers"`
}

type Transformer struct {
	ColumnType  string      `json:"column_type"`
	Description string      `json:"description"`
	Parameters  []Parameter `json:"parameters"`
}

type Parameter struct {
	Name          string   `json:"name"`
	SupportedType string   `json:"supported_type"`
	Default       any      `json:"default"`
	Values        []string `json:"values,omitempty"`
	Description   string   `json:"description"`
}

func main() {
	log.Println("Generating transformers definition...")

	result := Result{
		Name:         "transformers",
		Transformers: extractTransformers(builder.Definitions()),
	}

	if err := writeJSONToFile("transformers-definition.json", result); err != nil {
		log.Fatalf("failed to write JSON to file: %v", err)
	}

	log.Println("Transformers definition generated successfully")
}

// extractTransformers keeps the order in which the engine instantiates the
// transformers.
func extractTransformers(definitions []*transformers.Definition) []Transformer {
	transformersList := make([]Transformer, 0, len(definitions))
	for _, def := range definitions {
		transformersList = append(transformersList, Transformer{
			ColumnType:  string(def.Type),
			Description: def.Description,
			Parameters:  extractParameters(def.Parameters),
		})
	}
	return transformersList
}

func extractParameters(params []transformers.Parameter) []Parameter {
	parameters := make([]Parameter, 0, len(params))
	for _, param := range params {
		parameters = append(parameters, Parameter{
			Name:          param.Name,
			SupportedType: param.SupportedType,
			Default:       param.Default,
			Values:        param.Values,
			Description:   param.Description,
		})
	}
	return parameters
}

func writeJSONToFile(filename string, data any) error {
	content, err := json.MarshalIndent(data)
	if err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	if err := os.WriteFile(filename, append(content, '\n'), 0o644); err != nil { //nolint:gosec
		return fmt.Errorf("failed to write file: %w", err)
	}
	return nil
}
