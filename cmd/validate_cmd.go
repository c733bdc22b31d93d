// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/xataio/tabprep/cmd/config"
	"github.com/xataio/tabprep/pkg/engine"
	"github.com/xataio/tabprep/pkg/transformers"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validates the configuration and builds the preprocessing engine without reading any data",
	RunE: func(cmd *cobra.Command, args []string) error {
		sp, _ := pterm.DefaultSpinner.WithText("validating tabprep configuration...").Start()

		status, err := validate(cmd.Flags().Lookup("file").Value.String())
		if err != nil {
			sp.Fail(err.Error())
			return err
		}

		if len(status.ExcludedColumns) == 0 {
			sp.Success("configuration is valid")
		} else {
			sp.Warning("configuration is valid, columns excluded from the output: ", strings.Join(status.ExcludedColumns, ", "))
		}

		if err := print(cmd, status); err != nil {
			return fmt.Errorf("failed to format tabprep validation status: %w", err)
		}
		return nil
	},
	Example: `
	tabprep validate -c config.yaml
	tabprep validate --file dataset.yaml
	tabprep validate -c config.env --json
	`,
}

type validationStatus struct {
	Transformers    []transformers.ColumnType `json:"transformers"`
	ExcludedColumns []string                  `json:"excluded_columns"`
}

func (s *validationStatus) PrettyPrint() string {
	var sb strings.Builder
	types := make([]string, 0, len(s.Transformers))
	for _, t := range s.Transformers {
		types = append(types, string(t))
	}
	fmt.Fprintf(&sb, "transformers: [%s]\n", strings.Join(types, ", "))
	fmt.Fprintf(&sb, "excluded columns: [%s]", strings.Join(s.ExcludedColumns, ", "))
	return sb.String()
}

// validate checks the dataset file when one is given, or the full pipeline
// configuration otherwise.
func validate(datasetFile string) (*validationStatus, error) {
	var engineConfig *engine.Config
	if datasetFile != "" {
		dataset, err := config.ParseDatasetFile(datasetFile)
		if err != nil {
			return nil, err
		}
		engineConfig = dataset.EngineConfig()
	} else {
		pipelineConfig, err := config.ParsePipelineConfig()
		if err != nil {
			return nil, fmt.Errorf("parsing pipeline config: %w", err)
		}
		if err := pipelineConfig.IsValid(); err != nil {
			return nil, err
		}
		engineConfig = &pipelineConfig.Engine
	}

	e, err := engine.New(engineConfig)
	if err != nil {
		return nil, err
	}

	return &validationStatus{
		Transformers:    e.Types(),
		ExcludedColumns: e.ExcludedColumns(),
	}, nil
}
