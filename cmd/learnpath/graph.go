package main

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pseng/MyH5P-pages/internal/cli"
)

// graphCmd represents the graph command
var graphCmd = &cobra.Command{
	Use:   "graph [path-id]",
	Short: "Export the path as a Mermaid flowchart",
	Long:  `Outputs a Mermaid diagram (graph LR) of a path read from --file or from the configured store.`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		file, _ := cmd.Flags().GetString("file")
		linear, _ := cmd.Flags().GetBool("order")
		if file == "" && len(args) == 0 {
			return errors.New("a path id or --file is required")
		}
		pathID := ""
		if len(args) > 0 {
			pathID = args[0]
		}

		rt, pathID, err := cli.OpenPath(cmd.Context(), cfg, logger, file, pathID)
		if err != nil {
			return err
		}
		defer rt.Close()

		if linear {
			order, err := rt.Service.LinearizePath(cmd.Context(), pathID)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(order)
		}

		chart, err := rt.Service.PathGraph(cmd.Context(), pathID, "")
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), chart)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
	graphCmd.Flags().StringP("file", "f", "", "Path document (JSON) to draw instead of a stored path")
	graphCmd.Flags().Bool("order", false, "Print the learner-facing node order as JSON instead")
}
