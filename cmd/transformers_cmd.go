// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/xataio/tabprep/pkg/transformers"
	"github.com/xataio/tabprep/pkg/transformers/builder"
)

var transformersCmd = &cobra.Command{
	Use:   "transformers",
	Short: "Lists the supported column types and their transformer parameters",
	RunE: func(cmd *cobra.Command, args []string) error {
		return print(cmd, transformerDefinitions(builder.Definitions()))
	},
	Example: `
	tabprep transformers
	tabprep transformers --json
	`,
}

type transformerDefinitions []*transformers.Definition

func (d transformerDefinitions) PrettyPrint() string {
	w := newTableWriter()
	w.AppendHeader(table.Row{"type", "parameter", "supported type", "default", "values", "description"})
	for _, def := range d {
		w.AppendRow(table.Row{def.Type, "", "", "", "", def.Description})
		for _, p := range def.Parameters {
			w.AppendRow(table.Row{"", p.Name, p.SupportedType, fmt.Sprintf("%v", p.Default), strings.Join(p.Values, ", "), p.Description})
		}
		w.AppendSeparator()
	}
	return w.Render()
}
