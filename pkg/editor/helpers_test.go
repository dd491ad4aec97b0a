package editor_test

import (
	"fmt"
	"testing"

	"github.com/pseng/MyH5P-pages/pkg/dsl"
	"github.com/pseng/MyH5P-pages/pkg/editor"
	"github.com/pseng/MyH5P-pages/pkg/graph"
	"github.com/pseng/MyH5P-pages/pkg/registry"
)

// newEditor lays out start "s" at (0,0), theory "t" at (400,0) and end "e" at (800,0).
// Every box is 180x64; s.next sits at (180,44), t.prev at (400,44), t.next at (580,44),
// e.prev at (800,44).
func newEditor(t *testing.T, wire bool, opts ...editor.Option) *editor.Session {
	t.Helper()
	b := dsl.New("p1")
	b.Add("s", "start").At(0, 0)
	b.Add("t", "theory").Title("Intro").At(400, 0)
	b.Add("e", "end").At(800, 0)
	if wire {
		b.Chain("s", "t", "e")
	}

	n := 0
	model := graph.New(b.Build(), registry.Default(), graph.WithIDGenerator(func() string {
		n++
		return fmt.Sprintf("n%d", n)
	}))
	return editor.NewSession(model, opts...)
}

func pt(x, y float64) editor.Point {
	return editor.Point{X: x, Y: y}
}
