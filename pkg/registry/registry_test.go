package registry_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pseng/MyH5P-pages/pkg/domain"
	"github.com/pseng/MyH5P-pages/pkg/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_Catalog(t *testing.T) {
	reg := registry.Default()

	start, ok := reg.Get(domain.NodeTypeStart)
	require.True(t, ok)
	assert.Equal(t, 1, start.MaxInstances)
	assert.Empty(t, start.Inputs)
	assert.Equal(t, []string{"next"}, start.Outputs)

	branch, ok := reg.Get(domain.NodeTypeBranch)
	require.True(t, ok)
	assert.Equal(t, []string{"pathA", "pathB"}, branch.Outputs)
	assert.Equal(t, "pathA", branch.PrimaryOutput())

	end, ok := reg.Get(domain.NodeTypeEnd)
	require.True(t, ok)
	assert.Equal(t, "", end.PrimaryOutput())

	_, ok = reg.Get("nope")
	assert.False(t, ok)

	_, err := reg.Lookup("nope")
	assert.ErrorIs(t, err, domain.ErrUnknownNodeType)
	assert.ErrorContains(t, err, "nope")

	start, err := reg.Lookup(domain.NodeTypeStart)
	require.NoError(t, err)
	assert.Equal(t, 1, start.MaxInstances)
}

func TestGet_ReturnsCopy(t *testing.T) {
	reg := registry.Default()
	def, _ := reg.Get(domain.NodeTypeTheory)
	def.Outputs[0] = "mutated"
	def.Fields[0].Name = "mutated"

	again, _ := reg.Get(domain.NodeTypeTheory)
	assert.Equal(t, "next", again.Outputs[0])
	assert.Equal(t, "title", again.Fields[0].Name)
}

func TestList_GroupsByCategory(t *testing.T) {
	groups := registry.Default().List()
	require.Len(t, groups, 3)
	assert.Equal(t, domain.CategoryControl, groups[0].Category)
	assert.Equal(t, domain.CategoryContent, groups[1].Category)
	assert.Equal(t, domain.CategoryPackage, groups[2].Category)

	var ids []string
	for _, def := range groups[0].Types {
		ids = append(ids, def.ID)
	}
	assert.Equal(t, []string{"start", "end", "gate", "branch"}, ids)
}

func TestNew_RejectsInvalidDefinitions(t *testing.T) {
	_, err := registry.New(domain.NodeTypeDefinition{})
	assert.Error(t, err)

	_, err = registry.New(domain.NodeTypeDefinition{
		ID: "x",
		Fields: []domain.FieldDefinition{
			{Name: "a", Kind: domain.FieldText},
			{Name: "a", Kind: domain.FieldText},
		},
	})
	assert.Error(t, err)

	_, err = registry.New(domain.NodeTypeDefinition{
		ID:     "x",
		Fields: []domain.FieldDefinition{{Name: "n", Kind: domain.FieldNumber, Default: "ten"}},
	})
	assert.Error(t, err)
}

func TestLoad_CatalogFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.yaml")
	content := `
node_types:
  - id: podcast
    label: Podcast
    inputs: [prev]
    outputs: [next]
    fields:
      - {name: title, type: text, required: true}
      - {name: url, type: url, required: true}
      - {name: minutes, type: number, default: 15}
  - id: theory
    label: Reading
    category: content
    inputs: [prev]
    outputs: [next]
    fields:
      - {name: title, type: text, required: true}
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	reg, err := registry.Load(path)
	require.NoError(t, err)

	podcast, ok := reg.Get("podcast")
	require.True(t, ok)
	assert.Equal(t, domain.CategoryContent, podcast.Category)
	assert.Equal(t, 15, podcast.DefaultData()["minutes"])

	theory, _ := reg.Get(domain.NodeTypeTheory)
	assert.Equal(t, "Reading", theory.Label)
	assert.Equal(t, len(registry.Builtin())+1, reg.Len())
}

func TestLoad_BadDefault(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.yaml")
	content := `
node_types:
  - id: survey
    fields:
      - {name: level, type: select, options: [low, high], default: medium}
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	_, err := registry.Load(path)
	assert.Error(t, err)
}

func TestLoad_EmptyPath(t *testing.T) {
	reg, err := registry.Load("")
	require.NoError(t, err)
	assert.Equal(t, len(registry.Builtin()), reg.Len())
}

func TestLoad_Roles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.yaml")
	content := `
node_types:
  - id: checkpoint
    label: Checkpoint
    role: gate
    inputs: [prev]
    outputs: [next]
  - id: fork
    label: Fork
    role: branch
    inputs: [prev]
    outputs: [left, middle, right]
  - id: start
    label: Begin
    inputs: []
    outputs: [next]
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	reg, err := registry.Load(path)
	require.NoError(t, err)

	assert.Equal(t, domain.RoleGate, reg.RoleOf("checkpoint"))
	assert.Equal(t, domain.RoleBranch, reg.RoleOf("fork"))
	assert.Equal(t, domain.RoleStart, reg.RoleOf(domain.NodeTypeStart), "override keeps the built-in role")
	assert.Equal(t, domain.RoleContent, reg.RoleOf(domain.NodeTypeTheory))
	assert.Equal(t, domain.RoleContent, reg.RoleOf("nope"))

	start, _ := reg.Get(domain.NodeTypeStart)
	assert.Equal(t, "Begin", start.Label)
}

func TestNew_RejectsBadRoles(t *testing.T) {
	_, err := registry.New(domain.NodeTypeDefinition{ID: "x", Role: "teleport"})
	assert.ErrorContains(t, err, "unknown role")

	_, err = registry.New(domain.NodeTypeDefinition{ID: "x", Role: domain.RoleBranch, Outputs: []string{"next"}})
	assert.ErrorContains(t, err, "at least two outputs")
}
