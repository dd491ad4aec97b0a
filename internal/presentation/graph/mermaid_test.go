package graph_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pseng/MyH5P-pages/internal/presentation/graph"
	"github.com/pseng/MyH5P-pages/pkg/domain"
	"github.com/pseng/MyH5P-pages/pkg/dsl"
	"github.com/pseng/MyH5P-pages/pkg/registry"
	"github.com/pseng/MyH5P-pages/pkg/traversal"
)

func samplePath() *domain.LearningPath {
	b := dsl.New("p")
	b.Add("start", domain.NodeTypeStart).Go("q")
	b.Add("q", domain.NodeTypeBranch).Set("question", "Track?").Set("labelA", `The "easy" one`).
		Via(domain.PortPathA, "t-1").
		Via(domain.PortPathB, "g")
	b.Add("t-1", domain.NodeTypeTheory).Title("Basics").Go("end")
	b.Add("g", domain.NodeTypeGate).Title("Check").Go("pkg")
	b.Add("pkg", domain.NodeTypeH5P).Title("Drag & drop").Go("end")
	b.Add("end", domain.NodeTypeEnd)
	b.Connect("g", domain.PortNext, "ghost", domain.PortPrev)
	return b.Build()
}

func TestGenerateMermaid(t *testing.T) {
	got := graph.GenerateMermaid(samplePath(), registry.Default(), nil)

	tests := []struct {
		name     string
		contains []string
	}{
		{"header", []string{"graph LR\n"}},
		{"Start and End are circles", []string{`n_start(("Start"))`, `n_end(("End"))`}},
		{"Gate is a hexagon", []string{`n_g{{"Check"}}`}},
		{"Branch is a rhombus", []string{`n_q{"Branch"}`}},
		{"Package is a subroutine", []string{`n_pkg[["Drag & drop"]]`}},
		{"ID sanitization", []string{`n_t_1["Basics"]`}},
		{"Plain edges", []string{"n_start --> n_q", "n_t_1 --> n_end"}},
		{"Branch edges are labelled", []string{
			`n_q -->|"The #quot;easy#quot; one"| n_t_1`,
			`n_q -->|"pathB"| n_g`,
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, want := range tt.contains {
				assert.Contains(t, got, want)
			}
		})
	}

	assert.NotContains(t, got, "ghost")
	assert.NotContains(t, got, "classDef")
}

func TestGenerateMermaid_Overlay(t *testing.T) {
	p := samplePath()
	reg := registry.Default()
	ctx := context.Background()

	sess := traversal.NewSession(p, reg)
	require.NoError(t, sess.Start(ctx))
	require.NoError(t, sess.ChooseBranch(ctx, domain.PortPathB))
	require.NoError(t, sess.ReportResult(ctx, nil, false))
	require.NoError(t, sess.Advance(ctx))

	overlay := graph.OverlayFromSession(sess)
	assert.Equal(t, []string{"q"}, overlay.VisitedNodes)
	assert.Equal(t, []string{"g"}, overlay.FailedNodes)
	assert.Equal(t, "pkg", overlay.CurrentNode)

	got := graph.GenerateMermaid(p, reg, overlay)
	assert.Contains(t, got, "class n_q visited;")
	assert.Contains(t, got, "class n_g failed;")
	assert.Contains(t, got, "class n_pkg current;")
	assert.Equal(t, 1, strings.Count(got, "classDef current"))
}

func TestGenerateMermaid_OverlayIgnoresUnknownNodes(t *testing.T) {
	got := graph.GenerateMermaid(samplePath(), registry.Default(), &graph.GraphOverlay{
		VisitedNodes: []string{"q", "q", "missing"},
		CurrentNode:  "missing",
	})
	assert.Equal(t, 1, strings.Count(got, "class n_q visited;"))
	assert.NotContains(t, got, "n_missing")
}

func TestGenerateMermaid_CatalogRoles(t *testing.T) {
	reg, err := registry.New(append(registry.Builtin(), domain.NodeTypeDefinition{
		ID: "checkpoint", Label: "Checkpoint", Role: domain.RoleGate,
		Inputs: []string{domain.PortPrev}, Outputs: []string{domain.PortNext},
	})...)
	require.NoError(t, err)

	p := dsl.New("p").Start("s").Node("c", "checkpoint", nil).End("e").Chain("s", "c", "e").Build()
	got := graph.GenerateMermaid(p, reg, nil)
	assert.Contains(t, got, `n_c{{"Checkpoint"}}`)
}
