package runner_test

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pseng/MyH5P-pages/pkg/domain"
	"github.com/pseng/MyH5P-pages/pkg/dsl"
	"github.com/pseng/MyH5P-pages/pkg/registry"
	"github.com/pseng/MyH5P-pages/pkg/runner"
	"github.com/pseng/MyH5P-pages/pkg/traversal"
)

func TestDescribe(t *testing.T) {
	ctx := context.Background()

	t.Run("before start", func(t *testing.T) {
		step := runner.Describe(newSession(linearPath()))
		assert.Equal(t, "sess-1", step.SessionID)
		assert.Equal(t, 2, step.Total)
		assert.Zero(t, step.Index)
		assert.Empty(t, step.NodeID)
	})

	t.Run("branch offers choices", func(t *testing.T) {
		sess := newSession(branchPath())
		require.NoError(t, sess.Start(ctx))

		step := runner.Describe(sess)
		assert.Equal(t, "q", step.NodeID)
		assert.Equal(t, 1, step.Index)
		assert.Equal(t, "Track?", step.Body)
		assert.Equal(t, []runner.Choice{
			{Key: "a", Port: domain.PortPathA, Label: "Basics"},
			{Key: "b", Port: domain.PortPathB, Label: "Option B"},
		}, step.Choices)
		assert.Equal(t, string(domain.NodeActive), step.Status)
	})

	t.Run("typed numbers decode from any numeric form", func(t *testing.T) {
		b := dsl.New("p")
		b.Add("s", domain.NodeTypeStart).Go("g")
		b.Add("g", domain.NodeTypeGate).Title("Ready?").Set("instructions", "Read it all").Set("passingScore", "80")
		sess := newSession(b.Build())
		require.NoError(t, sess.Start(ctx))

		step := runner.Describe(sess)
		require.True(t, step.Scored())
		assert.Equal(t, 80.0, *step.PassingScore)
		assert.Equal(t, "Read it all", step.Body)
		assert.Equal(t, "Press Enter to pass the gate.", step.Prompt)
	})

	t.Run("finished step has no prompt", func(t *testing.T) {
		sess := newSession(linearPath())
		require.NoError(t, sess.Start(ctx))
		require.NoError(t, sess.Advance(ctx))

		step := runner.Describe(sess)
		assert.True(t, step.Finished)
		assert.Equal(t, "e", step.NodeID)
		assert.Empty(t, step.Prompt)
		assert.Equal(t, 1.0, step.Progress)
	})

	t.Run("resource content", func(t *testing.T) {
		b := dsl.New("p")
		b.Add("s", domain.NodeTypeStart).Go("r")
		b.Add("r", domain.NodeTypeResource).Title("Docs").Set("url", " https://go.dev ").Set("optional", true)
		sess := newSession(b.Build())
		require.NoError(t, sess.Start(ctx))

		step := runner.Describe(sess)
		assert.Equal(t, "https://go.dev", step.URL)
		assert.Contains(t, step.Markdown(), "<https://go.dev>")
		assert.Contains(t, step.Body, "_Optional_")
		assert.Equal(t, "Press Enter to continue.", step.Prompt)
	})
}

func TestDescribe_CatalogBranch(t *testing.T) {
	ctx := context.Background()
	reg, err := registry.New(append(registry.Builtin(), domain.NodeTypeDefinition{
		ID: "fork", Label: "Fork", Role: domain.RoleBranch,
		Inputs:  []string{domain.PortPrev},
		Outputs: []string{"easy", "medium", "hard"},
	})...)
	require.NoError(t, err)

	b := dsl.New("p")
	b.Add("s", domain.NodeTypeStart).Go("f")
	b.Add("f", "fork").Set("question", "Pick a level").Set("labelA", "Gentle").
		Via("easy", "t1").Via("medium", "t2").Via("hard", "t3")
	b.Add("t1", domain.NodeTypeTheory).Title("T1")
	b.Add("t2", domain.NodeTypeTheory).Title("T2")
	b.Add("t3", domain.NodeTypeTheory).Title("T3")

	sess := traversal.NewSession(b.Build(), reg)
	require.NoError(t, sess.Start(ctx))

	step := runner.Describe(sess)
	assert.Equal(t, "Pick a level", step.Body)
	assert.Equal(t, []runner.Choice{
		{Key: "a", Port: "easy", Label: "Gentle"},
		{Key: "b", Port: "medium", Label: "Option B"},
		{Key: "c", Port: "hard", Label: "hard"},
	}, step.Choices)
	assert.Equal(t, "Choose a, b or c.", step.Prompt)

	cmd, err := runner.ParseCommand("c", step)
	require.NoError(t, err)
	require.NoError(t, sess.ChooseBranch(ctx, cmd.Port))
	cur, _ := sess.Current()
	assert.Equal(t, "t3", cur.ID)
}

func TestParseCommand(t *testing.T) {
	plain := runner.Step{Prompt: "Press Enter to continue."}
	score := 70.0
	scored := runner.Step{PassingScore: &score}
	branch := runner.Step{
		Prompt:  "Choose a or b.",
		Choices: []runner.Choice{{Key: "a", Port: "pathA"}, {Key: "b", Port: "pathB"}},
	}

	tests := []struct {
		name  string
		input string
		step  runner.Step
		want  runner.Command
		err   bool
	}{
		{"enter continues", "", plain, runner.Command{Kind: runner.CommandContinue}, false},
		{"next continues", " Next ", plain, runner.Command{Kind: runner.CommandContinue}, false},
		{"quit", "exit", plain, runner.Command{Kind: runner.CommandQuit}, false},
		{"help", "?", branch, runner.Command{Kind: runner.CommandHelp}, false},
		{"choice by key", "B", branch, runner.Command{Kind: runner.CommandChoose, Port: "pathB"}, false},
		{"choice by index", "1", branch, runner.Command{Kind: runner.CommandChoose, Port: "pathA"}, false},
		{"choice by port", "pathb", branch, runner.Command{Kind: runner.CommandChoose, Port: "pathB"}, false},
		{"branch needs a choice", "", branch, runner.Command{}, true},
		{"score", "85%", scored, runner.Command{Kind: runner.CommandScore, Score: 85}, false},
		{"score out of range", "120", scored, runner.Command{}, true},
		{"score on plain step", "85", plain, runner.Command{}, true},
		{"gibberish", "jump", plain, runner.Command{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := runner.ParseCommand(tt.input, tt.step)
			if tt.err {
				assert.ErrorIs(t, err, runner.ErrUnknownCommand)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTextHandler_Output(t *testing.T) {
	out := &bytes.Buffer{}
	h := runner.NewTextHandler(strings.NewReader(""), out,
		runner.WithTextHandlerRenderer(func(s string) (string, error) {
			return "Rendered: " + s, nil
		}))

	err := h.Output(context.Background(), runner.Step{Index: 1, Total: 4, Title: "Hello", Prompt: "Go on", Progress: 0.5})
	require.NoError(t, err)

	assert.Contains(t, out.String(), "[1/4] [##########..........]")
	assert.Contains(t, out.String(), "Rendered: # Hello")
	assert.Contains(t, out.String(), "Go on")
}

func TestTextHandler_InputSanitizes(t *testing.T) {
	out := &bytes.Buffer{}
	h := runner.NewTextHandler(strings.NewReader("a\x07b\n"), out)

	val, err := h.Input(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ab", val)
	assert.Contains(t, out.String(), "> ")
}

func TestJSONHandler(t *testing.T) {
	out := &bytes.Buffer{}
	h := runner.NewJSONHandler(strings.NewReader("\"b\"\nnext\n"), out)
	ctx := context.Background()

	require.NoError(t, h.Output(ctx, runner.Step{NodeID: "q", Title: "Track?"}))
	require.NoError(t, h.SystemOutput(ctx, "hi"))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 2)

	var msg runner.Message
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &msg))
	assert.Equal(t, "step", msg.Type)
	require.NotNil(t, msg.Step)
	assert.Equal(t, "q", msg.Step.NodeID)

	require.NoError(t, json.Unmarshal([]byte(lines[1]), &msg))
	assert.Equal(t, "system", msg.Type)
	assert.Equal(t, "hi", msg.Message)

	val, err := h.Input(ctx)
	require.NoError(t, err)
	assert.Equal(t, "b", val)

	val, err = h.Input(ctx)
	require.NoError(t, err)
	assert.Equal(t, "next", val)
}

func TestRunner_JSONMode(t *testing.T) {
	out := &bytes.Buffer{}
	sess := newSession(branchPath())
	r := runner.New(runner.WithInputHandler(runner.NewJSONHandler(strings.NewReader("\"a\"\n\"\"\n"), out)))

	require.NoError(t, r.Run(context.Background(), sess))
	assert.True(t, sess.Finished())
	assert.Contains(t, out.String(), `"finished":true`)
}
