// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/xataio/tabprep/cmd/config"
	"github.com/xataio/tabprep/pkg/engine"
	"github.com/xataio/tabprep/pkg/pipeline"
	"github.com/xataio/tabprep/pkg/transformers"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Fits the preprocessing engine on the configured dataset and prints the learned state",
	PreRun: func(cmd *cobra.Command, _ []string) {
		dataFlagBinding(cmd)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSignalWatcher(func(ctx context.Context) error {
			return inspect(ctx, cmd)
		})(cmd, args)
	},
	Example: `
	tabprep inspect -c config.yaml
	tabprep inspect -c config.yaml --data-path data/raw/sample.csv --json
	`,
}

type columnReport struct {
	Column string                    `json:"column"`
	Type   transformers.ColumnType   `json:"type"`
	State  *transformers.ColumnState `json:"state,omitempty"`
}

type inspectReport struct {
	Columns         []columnReport `json:"columns"`
	OutputColumns   []string       `json:"output_columns"`
	ExcludedColumns []string       `json:"excluded_columns"`
}

func inspect(ctx context.Context, cmd *cobra.Command) error {
	logger := newLogger()

	pipelineConfig, err := config.ParsePipelineConfig()
	if err != nil {
		return fmt.Errorf("parsing pipeline config: %w", err)
	}

	sp, _ := pterm.DefaultSpinner.WithText("fitting preprocessing engine...").Start()
	report, err := func() (*inspectReport, error) {
		p, err := pipeline.New(pipelineConfig, pipeline.WithLogger(logger))
		if err != nil {
			return nil, err
		}
		e, err := p.Fit(ctx)
		if err != nil {
			return nil, err
		}
		return newInspectReport(e)
	}()
	if err != nil {
		sp.Fail(err.Error())
		return err
	}
	sp.Success("preprocessing engine fitted")

	return print(cmd, report)
}

func newInspectReport(e *engine.Engine) (*inspectReport, error) {
	outputColumns, err := e.OutputColumns()
	if err != nil {
		return nil, err
	}

	report := &inspectReport{
		OutputColumns:   outputColumns,
		ExcludedColumns: e.ExcludedColumns(),
	}
	for _, columnType := range e.Types() {
		tr, _ := e.Transformer(columnType)
		state := tr.FittedState()
		for _, col := range tr.Columns() {
			report.Columns = append(report.Columns, columnReport{
				Column: col,
				Type:   columnType,
				State:  state[col],
			})
		}
	}
	return report, nil
}

func (r *inspectReport) PrettyPrint() string {
	w := newTableWriter()
	w.AppendHeader(table.Row{"column", "type", "fill", "scaler", "categories"})
	for _, c := range r.Columns {
		fill, scaler, categories := "", "", ""
		if c.State != nil {
			fill = formatCell(c.State.Fill)
			if s := c.State.Scaler; s != nil {
				scaler = fmt.Sprintf("%s (center=%.4g, scale=%.4g)", s.Method, s.Center, s.Scale)
			}
			if enc := c.State.Encoding; enc != nil {
				categories = fmt.Sprintf("%s: %s", enc.Method, strings.Join(enc.Categories, ", "))
			}
		}
		w.AppendRow(table.Row{c.Column, c.Type, fill, scaler, categories})
	}
	w.AppendFooter(table.Row{"output columns", len(r.OutputColumns)})
	return w.Render()
}
