package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	learnpath "github.com/pseng/MyH5P-pages"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of learnpath",
	// No configuration needed.
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "learnpath version %s\n", strings.TrimSpace(learnpath.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
