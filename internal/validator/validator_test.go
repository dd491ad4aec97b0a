package validator

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/pseng/MyH5P-pages/pkg/domain"
	"github.com/pseng/MyH5P-pages/pkg/dsl"
	"github.com/pseng/MyH5P-pages/pkg/observability"
	"github.com/pseng/MyH5P-pages/pkg/registry"
)

func TestValidate(t *testing.T) {
	reg := registry.Default()

	tests := []struct {
		name     string
		path     *domain.LearningPath
		valid    bool
		errors   []string
		warnings []string
	}{
		{
			name:   "Empty path short-circuits",
			path:   dsl.New("p").Build(),
			errors: []string{"Path must have at least one node"},
		},
		{
			name: "Valid linear path",
			path: dsl.New("p").
				Start("s").
				Theory("t", "Intro").
				End("e").
				Chain("s", "t", "e").
				Build(),
			valid: true,
		},
		{
			name: "Missing Start and End",
			path: dsl.New("p").Theory("t", "Intro").Build(),
			errors: []string{
				"Path must have a Start node",
				"Path must have an End node",
			},
			warnings: []string{},
		},
		{
			name: "Two Start nodes",
			path: dsl.New("p").Start("s1").Start("s2").End("e").Build(),
			errors: []string{
				"Path can only have one Start node",
			},
		},
		{
			name: "Required fields prefixed with display title",
			path: dsl.New("p").
				Start("s").
				Node("v", domain.NodeTypeVideo, map[string]any{"title": "Welcome"}).
				Node("q", domain.NodeTypeQuiz, nil).
				End("e").
				Chain("s", "v", "q", "e").
				Build(),
			errors: []string{
				"Welcome: Video URL is required",
				"Quiz: Title is required",
				"Quiz: Quiz content is required",
			},
		},
		{
			name: "Dangling connection reports each end",
			path: dsl.New("p").
				Start("s").
				End("e").
				Chain("s", "e").
				Connect("ghost1", "next", "ghost2", "prev").
				Build(),
			errors: []string{
				`Connection references missing source node "ghost1"`,
				`Connection references missing target node "ghost2"`,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Validate(tt.path, reg)
			assert.Equal(t, tt.valid, res.Valid)
			if tt.errors == nil {
				assert.Empty(t, res.Errors)
				assert.NotNil(t, res.Errors)
			} else {
				assert.Equal(t, tt.errors, res.Errors)
			}
			if tt.warnings != nil {
				assert.Equal(t, tt.warnings, res.Warnings)
			}
		})
	}
}

func TestValidate_Warnings(t *testing.T) {
	reg := registry.Default()

	t.Run("Cycle", func(t *testing.T) {
		path := dsl.New("p").
			Start("s").
			Theory("a", "A").
			Theory("b", "B").
			End("e").
			Chain("s", "a", "b").
			Connect("b", "next", "a", "prev").
			Build()
		res := Validate(path, reg)
		assert.Contains(t, res.Warnings, "Path loops back to A; the learner order stops there")
		assert.Contains(t, res.Warnings, "Not reachable from Start: End")
		assert.Contains(t, res.Errors, "A: input \"prev\" has more than one incoming connection")
	})

	t.Run("Reused output port", func(t *testing.T) {
		path := dsl.New("p").
			Start("s").
			Theory("a", "A").
			End("e").
			Chain("s", "a").
			Connect("s", "next", "e", "prev").
			Build()
		res := Validate(path, reg)
		assert.True(t, res.Valid)
		assert.Equal(t, []string{`Start: output "next" has more than one connection; only the first is followed`}, res.Warnings)
	})

	t.Run("Unknown type and port", func(t *testing.T) {
		path := dsl.New("p").
			Start("s").
			Node("x", "hologram", nil).
			End("e").
			Connect("s", "pathA", "e", "prev").
			Build()
		res := Validate(path, reg)
		assert.Contains(t, res.Warnings, `x: unknown node type "hologram"`)
		assert.Contains(t, res.Errors, `Start: unknown output port "pathA"`)
	})
}

func TestValidate_DoesNotMutate(t *testing.T) {
	path := dsl.New("p").Start("s").Theory("t", "").End("e").Chain("s", "t", "e").Build()
	before := path.Clone()
	Validate(path, registry.Default())
	assert.Equal(t, before, path)
}

func TestValidator_Metrics(t *testing.T) {
	m := observability.NewMetrics(prometheus.NewRegistry())
	v := New(registry.Default(), WithMetrics(m))

	v.Validate(dsl.New("p").Build())
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Validations.WithLabelValues("invalid")))
}

func TestValidate_CatalogRoles(t *testing.T) {
	reg, err := registry.New(append(registry.Builtin(),
		domain.NodeTypeDefinition{ID: "launch", Label: "Launch", Role: domain.RoleStart, Outputs: []string{"next"}},
		domain.NodeTypeDefinition{ID: "finale", Label: "Finale", Role: domain.RoleEnd, Inputs: []string{"prev"}},
	)...)
	assert.NoError(t, err)

	path := dsl.New("p").
		Node("s", "launch", nil).
		Theory("t", "Intro").
		Node("e", "finale", nil).
		Chain("s", "t", "e").
		Build()
	res := Validate(path, reg)
	assert.True(t, res.Valid, res.Errors)
	assert.Empty(t, res.Warnings)

	twoStarts := dsl.New("p").Node("s", "launch", nil).Start("s2").Node("e", "finale", nil).Build()
	res = Validate(twoStarts, reg)
	assert.Contains(t, res.Errors, "Path can only have one Start node")
}
