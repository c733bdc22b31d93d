// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cast"
	"github.com/spf13/cobra"

	"github.com/xataio/tabprep/internal/json"
	"github.com/xataio/tabprep/pkg/dataset"
)

type printer interface {
	PrettyPrint() string
}

func print(cmd *cobra.Command, p printer) error {
	str := p.PrettyPrint()
	if cmd.Flags().Lookup("json").Value.String() == trueStr {
		jsonData, err := json.MarshalIndent(p)
		if err != nil {
			return err
		}
		str = string(jsonData)
	}

	fmt.Println(str) //nolint:forbidigo
	return nil
}

func newTableWriter() table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleLight)
	t.Style().Format = table.FormatOptions{
		Footer: text.FormatDefault,
		Header: text.FormatDefault,
		Row:    text.FormatDefault,
	}
	return t
}

// renderTable renders up to maxRows rows of the table. Missing cells are
// left blank.
func renderTable(t *dataset.Table, maxRows int) string {
	w := newTableWriter()

	header := table.Row{}
	for _, name := range t.ColumnNames() {
		header = append(header, name)
	}
	w.AppendHeader(header)

	rows := min(maxRows, t.NumRows())
	for i := 0; i < rows; i++ {
		row := table.Row{}
		for _, v := range t.Row(i) {
			row = append(row, formatCell(v))
		}
		w.AppendRow(row)
	}
	if rows < t.NumRows() {
		w.AppendFooter(table.Row{fmt.Sprintf("%d of %d rows", rows, t.NumRows())})
	}
	return w.Render()
}

func formatCell(v any) string {
	if dataset.IsMissing(v) {
		return ""
	}
	if f, ok := v.(float64); ok {
		return fmt.Sprintf("%.4g", f)
	}
	s, err := cast.ToStringE(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return s
}
