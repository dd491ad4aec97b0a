package main

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/pseng/MyH5P-pages/internal/cli"
	"github.com/pseng/MyH5P-pages/pkg/domain"
)

// playCmd represents the play command
var playCmd = &cobra.Command{
	Use:   "play [path-id]",
	Short: "Walk a learning path in the terminal",
	Long: `Starts a learner session on a path and plays it interactively: content is rendered as
markdown, branch questions are answered with a or b, and scores are typed as 0-100.
Statements go to the path's record store when it has one.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := cli.PlayOptions{}
		opts.File, _ = cmd.Flags().GetString("file")
		opts.JSON, _ = cmd.Flags().GetBool("json")
		opts.Plain, _ = cmd.Flags().GetBool("plain")
		opts.Watch, _ = cmd.Flags().GetBool("watch")
		opts.Debug, _ = cmd.Flags().GetBool("debug")
		opts.Width, _ = cmd.Flags().GetInt("width")

		var learner domain.Learner
		learner.Name, _ = cmd.Flags().GetString("learner")
		learner.Email, _ = cmd.Flags().GetString("email")
		opts.Learner = learner

		if len(args) > 0 {
			opts.PathID = args[0]
		}
		if opts.File == "" && opts.PathID == "" {
			return errors.New("a path id or --file is required")
		}
		opts.In = cmd.InOrStdin()
		opts.Out = cmd.OutOrStdout()
		return cli.Play(cmd.Context(), cfg, opts)
	},
}

func init() {
	rootCmd.AddCommand(playCmd)

	playCmd.Flags().StringP("file", "f", "", "Path document (JSON) to play instead of a stored path")
	playCmd.Flags().Bool("json", false, "Run in JSON mode (NDJSON input/output)")
	playCmd.Flags().Bool("plain", false, "Disable colours and markdown styling")
	playCmd.Flags().BoolP("watch", "w", false, "Restart the session whenever --file changes")
	playCmd.Flags().Bool("debug", false, "Log node transitions to stderr")
	playCmd.Flags().Int("width", 0, "Wrap rendered content at this width")
	playCmd.Flags().String("learner", "", "Learner name reported to the record store")
	playCmd.Flags().String("email", "", "Learner email reported to the record store")
}
