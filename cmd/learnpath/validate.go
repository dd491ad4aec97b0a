package main

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pseng/MyH5P-pages/internal/cli"
)

// errInvalid makes the command exit non-zero after the report was printed.
var errInvalid = errors.New("path is invalid")

var validateCmd = &cobra.Command{
	Use:   "validate [path-id]",
	Short: "Check a path for structural errors",
	Long: `Validates a path document, read from --file or from the configured store, against the
node-type catalog and reports errors and warnings. Exits non-zero when the path is invalid.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		file, _ := cmd.Flags().GetString("file")
		asJSON, _ := cmd.Flags().GetBool("json")
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

		res, err := rt.Service.ValidatePath(cmd.Context(), pathID)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if asJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			if err := enc.Encode(res); err != nil {
				return err
			}
		} else {
			for _, e := range res.Errors {
				fmt.Fprintf(out, "error: %s\n", e)
			}
			for _, w := range res.Warnings {
				fmt.Fprintf(out, "warning: %s\n", w)
			}
			if res.Valid {
				fmt.Fprintf(out, "Path %q is valid! ✅\n", pathID)
			}
		}
		if !res.Valid {
			return fmt.Errorf("%w: %d error(s)", errInvalid, len(res.Errors))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
	validateCmd.Flags().StringP("file", "f", "", "Path document (JSON) to check instead of a stored path")
	validateCmd.Flags().Bool("json", false, "Print the report as JSON")
}
