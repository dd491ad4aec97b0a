package memory_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pseng/MyH5P-pages/pkg/adapters/memory"
	"github.com/pseng/MyH5P-pages/pkg/dsl"
	"github.com/pseng/MyH5P-pages/pkg/ports"
)

func TestMemoryStore_Contract(t *testing.T) {
	store := memory.NewStore()
	ports.RunPathStoreContract(t, store)
}

func TestMemoryStore_Seed(t *testing.T) {
	seed := dsl.New("intro").Title("Intro").Start("s").End("e").Chain("s", "e").Build()
	store := memory.NewStore(memory.WithPaths(seed))

	got, err := store.Get(context.Background(), "intro")
	require.NoError(t, err)
	assert.Equal(t, "Intro", got.Title)

	got.Title = "Mutated"
	again, _ := store.Get(context.Background(), "intro")
	assert.Equal(t, "Intro", again.Title)
}

func TestMemoryStore_GetDoesNotAliasListData(t *testing.T) {
	b := dsl.New("p").Start("s")
	b.Add("r", "resource").Set("links", []any{"https://go.dev"})
	store := memory.NewStore(memory.WithPaths(b.Build()))
	ctx := context.Background()

	got, err := store.Get(ctx, "p")
	require.NoError(t, err)
	got.Node("r").Data["links"].([]any)[0] = "https://evil.example"

	again, err := store.Get(ctx, "p")
	require.NoError(t, err)
	assert.Equal(t, []any{"https://go.dev"}, again.Node("r").Data["links"])
}
