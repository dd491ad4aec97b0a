package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/pseng/MyH5P-pages/pkg/registry"
)

var typesCmd = &cobra.Command{
	Use:   "types",
	Short: "List the node types authors can use",
	Long:  `Prints the node-type catalog, built-in types plus any catalog.file, grouped by category.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		asJSON, _ := cmd.Flags().GetBool("json")

		reg, err := registry.Load(cfg.Catalog.File)
		if err != nil {
			return err
		}
		groups := reg.List()

		out := cmd.OutOrStdout()
		if asJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(groups)
		}

		tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		for _, g := range groups {
			fmt.Fprintf(tw, "%s\n", g.Category)
			for _, def := range g.Types {
				limit := "-"
				if def.MaxInstances > 0 {
					limit = fmt.Sprint(def.MaxInstances)
				}
				fmt.Fprintf(tw, "  %s\t%s\tmax %s\t%d field(s)\n", def.ID, def.Label, limit, len(def.Fields))
			}
		}
		return tw.Flush()
	},
}

func init() {
	rootCmd.AddCommand(typesCmd)
	typesCmd.Flags().Bool("json", false, "Print the catalog as JSON")
}
