package cmd

import (
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"vi-tools/vegindex"
)

// indicesCmd represents the indices command
var indicesCmd = &cobra.Command{
	Use:   "indices",
	Short: "List the vegetation indices in output order",
	Run: func(cmd *cobra.Command, args []string) {
		table := tablewriter.NewWriter(cmd.OutOrStdout())
		table.SetHeader([]string{"VI", "Formula"})
		table.SetAutoFormatHeaders(false)
		for _, idx := range vegindex.Indices {
			table.Append([]string{idx.Name, idx.Expr})
		}
		table.Render()
	},
}

func init() {
	rootCmd.AddCommand(indicesCmd)
}
