// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"context"
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/xataio/tabprep/cmd/config"
	"github.com/xataio/tabprep/pkg/pipeline"
)

var runCmd = &cobra.Command{
	Use:     "run",
	Short:   "Run preprocesses the configured dataset and saves the train and test splits",
	PreRun:  runFlagBinding,
	RunE:    withProfiling(withSignalWatcher(run)),
	Example: `
	tabprep run --config config.yaml
	tabprep run --config config.yaml --data-path data/raw/input.csv --output-dir data/processed --preview 5
	tabprep run --config config.env --fit-on train --progress --log-level debug
	tabprep run --config config.yaml --profile`,
}

func run(ctx context.Context) error {
	logger := newLogger()

	pipelineConfig, err := config.ParsePipelineConfig()
	if err != nil {
		return fmt.Errorf("parsing pipeline config: %w", err)
	}

	provider, err := newInstrumentationProvider()
	if err != nil {
		return err
	}
	defer provider.Close()

	opts := []pipeline.Option{
		pipeline.WithLogger(logger),
		pipeline.WithInstrumentation(provider.NewInstrumentation("tabprep")),
	}
	if viper.GetBool("progress") {
		opts = append(opts, pipeline.WithProgressTracking())
	}

	p, err := pipeline.New(pipelineConfig, opts...)
	if err != nil {
		return err
	}

	result, err := p.Run(ctx)
	if err != nil {
		return err
	}

	pterm.Success.Printfln("train (%d rows) and test (%d rows) splits saved to %s",
		result.Train.NumRows(), result.Test.NumRows(), pipelineConfig.OutputDir)

	if n := viper.GetInt("preview"); n > 0 {
		fmt.Println(renderTable(result.Train, n)) //nolint:forbidigo
	}
	return nil
}

func runFlagBinding(cmd *cobra.Command, _ []string) {
	viper.BindPFlag("preview", cmd.Flags().Lookup("preview"))
	viper.BindPFlag("progress", cmd.Flags().Lookup("progress"))
	dataFlagBinding(cmd)

	// to be able to overwrite configuration with flags when yaml config file is
	// provided
	viper.BindPFlag("output_dir", cmd.Flags().Lookup("output-dir"))
	viper.BindPFlag("dataset.fit_on", cmd.Flags().Lookup("fit-on"))

	// to be able to overwrite configuration with flags when env config file is
	// provided or when no configuration is provided
	viper.BindPFlag("TABPREP_OUTPUT_DIR", cmd.Flags().Lookup("output-dir"))
	viper.BindPFlag("TABPREP_FIT_ON", cmd.Flags().Lookup("fit-on"))
}

func dataFlagBinding(cmd *cobra.Command) {
	viper.BindPFlag("data_path", cmd.Flags().Lookup("data-path"))
	viper.BindPFlag("TABPREP_DATA_PATH", cmd.Flags().Lookup("data-path"))
}
