/*
Package runner plays a learning path in a terminal or over a line-based pipe.

The Runner drives a traversal.Session: it renders the active node as a Step,
reads one command per line and applies it to the session until the path is
finished or the learner quits.

# Key Components

  - Runner: the play loop.
  - IOHandler: decouples how steps are shown and commands are read.
  - TextHandler: interactive terminal output, optionally rendering markdown.
  - JSONHandler: one JSON object per step for scripted clients.

# Usage

	sess := traversal.NewSession(path, reg)
	r := runner.New(
		runner.WithInputHandler(runner.NewTextHandler(os.Stdin, os.Stdout)),
	)
	if err := r.Run(ctx, sess); err != nil {
		log.Fatal(err)
	}

# Commands

An empty line continues. "a"/"b" (or "1"/"2", or the port name) answer a branch.
A number between 0 and 100 reports a score for nodes with a passing score.
"help" lists the commands; "quit" leaves the session unfinished.
*/
package runner
