package ports

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pseng/MyH5P-pages/pkg/domain"
)

func strPtr(s string) *string { return &s }

func contractPatch() domain.PathPatch {
	status := domain.StatusDraft
	nodes := []domain.PathNode{
		{ID: "s", Type: "start", X: 100, Y: 200, Data: map[string]any{"title": ""}},
		{ID: "t", Type: "theory", X: 320, Y: 200, Data: map[string]any{"title": "Intro", "weight": 1.5}},
		{ID: "e", Type: "end", X: 540, Y: 200, Data: map[string]any{"message": "Done"}},
	}
	conns := []domain.Connection{
		{From: "s", FromPort: "next", To: "t", ToPort: "prev"},
		{From: "t", FromPort: "next", To: "e", ToPort: "prev"},
	}
	return domain.PathPatch{
		Title:       strPtr("Contract path"),
		Description: strPtr("Round trip"),
		Status:      &status,
		Nodes:       &nodes,
		Connections: &conns,
		LRSConfig:   &domain.LRSConfig{Endpoint: "https://lrs.example.com/xapi", Key: "key", Secret: "secret"},
	}
}

var ignoreServerFields = cmpopts.IgnoreFields(domain.LearningPath{}, "ID", "CreatedAt", "UpdatedAt")

// RunPathStoreContract runs a suite of tests to verify that a PathStore implementation
// adheres to the defined interface contract.
func RunPathStoreContract(t *testing.T, store PathStore) {
	ctx := context.Background()

	t.Run("Create and Get", func(t *testing.T) {
		created, err := store.Create(ctx, contractPatch())
		require.NoError(t, err, "Create should not return error")
		require.NotEmpty(t, created.ID, "Create must assign an id")
		assert.False(t, created.CreatedAt.IsZero())
		assert.False(t, created.UpdatedAt.IsZero())

		loaded, err := store.Get(ctx, created.ID)
		require.NoError(t, err, "Get should not return error")
		if diff := cmp.Diff(created, loaded, ignoreServerFields, cmpopts.EquateEmpty()); diff != "" {
			t.Errorf("round trip mismatch (-created +loaded):\n%s", diff)
		}
		assert.Equal(t, created.ID, loaded.ID)
		assert.True(t, created.CreatedAt.Equal(loaded.CreatedAt))
	})

	t.Run("Create Empty", func(t *testing.T) {
		created, err := store.Create(ctx, domain.PathPatch{})
		require.NoError(t, err)
		assert.Equal(t, "Untitled Path", created.Title)
		assert.Equal(t, domain.StatusDraft, created.Status)
		assert.NotNil(t, created.Nodes)
		assert.NotNil(t, created.Connections)
		assert.Nil(t, created.LRSConfig)
	})

	t.Run("Get Non-Existent", func(t *testing.T) {
		_, err := store.Get(ctx, "non-existent-path")
		assert.ErrorIs(t, err, domain.ErrPathNotFound)
	})

	t.Run("Update applies only present fields", func(t *testing.T) {
		created, err := store.Create(ctx, contractPatch())
		require.NoError(t, err)

		published := domain.StatusPublished
		updated, err := store.Update(ctx, created.ID, domain.PathPatch{
			Title:  strPtr("Renamed"),
			Status: &published,
		})
		require.NoError(t, err)
		assert.Equal(t, "Renamed", updated.Title)
		assert.Equal(t, domain.StatusPublished, updated.Status)
		assert.False(t, updated.UpdatedAt.Before(created.UpdatedAt))

		loaded, err := store.Get(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, "Renamed", loaded.Title)
		assert.Equal(t, "Round trip", loaded.Description)
		assert.Len(t, loaded.Nodes, 3)
		require.NotNil(t, loaded.LRSConfig)
		assert.Equal(t, "secret", loaded.LRSConfig.Secret)
		assert.True(t, created.CreatedAt.Equal(loaded.CreatedAt), "CreatedAt must be preserved")

		cleared, err := store.Update(ctx, created.ID, domain.PathPatch{ClearLRSConfig: true})
		require.NoError(t, err)
		assert.Nil(t, cleared.LRSConfig)
	})

	t.Run("Update Non-Existent", func(t *testing.T) {
		_, err := store.Update(ctx, "non-existent-path", domain.PathPatch{Title: strPtr("x")})
		assert.ErrorIs(t, err, domain.ErrPathNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		created, err := store.Create(ctx, contractPatch())
		require.NoError(t, err)

		require.NoError(t, store.Delete(ctx, created.ID), "Delete should not return error")

		_, err = store.Get(ctx, created.ID)
		assert.ErrorIs(t, err, domain.ErrPathNotFound, "Get after Delete should return ErrPathNotFound")

		err = store.Delete(ctx, created.ID)
		assert.ErrorIs(t, err, domain.ErrPathNotFound, "second Delete should return ErrPathNotFound")
	})

	t.Run("Duplicate", func(t *testing.T) {
		created, err := store.Create(ctx, contractPatch())
		require.NoError(t, err)

		dup, err := store.Duplicate(ctx, created.ID)
		require.NoError(t, err)
		assert.NotEqual(t, created.ID, dup.ID)
		assert.Equal(t, "Contract path (Copy)", dup.Title)
		if diff := cmp.Diff(created.Nodes, dup.Nodes, cmpopts.EquateEmpty()); diff != "" {
			t.Errorf("duplicate nodes mismatch:\n%s", diff)
		}
		assert.Equal(t, created.Connections, dup.Connections)

		loaded, err := store.Get(ctx, dup.ID)
		require.NoError(t, err)
		assert.Equal(t, dup.Title, loaded.Title)

		_, err = store.Duplicate(ctx, "non-existent-path")
		assert.ErrorIs(t, err, domain.ErrPathNotFound)
	})

	t.Run("List", func(t *testing.T) {
		a, err := store.Create(ctx, domain.PathPatch{Title: strPtr("List A")})
		require.NoError(t, err)
		b, err := store.Create(ctx, contractPatch())
		require.NoError(t, err)

		summaries, err := store.List(ctx)
		require.NoError(t, err)

		byID := make(map[string]domain.PathSummary, len(summaries))
		for _, s := range summaries {
			byID[s.ID] = s
		}
		require.Contains(t, byID, a.ID)
		require.Contains(t, byID, b.ID)
		assert.Equal(t, "List A", byID[a.ID].Title)
		assert.Equal(t, 0, byID[a.ID].NodeCount)
		assert.Equal(t, 3, byID[b.ID].NodeCount)

		for i := 1; i < len(summaries); i++ {
			assert.False(t, summaries[i].UpdatedAt.After(summaries[i-1].UpdatedAt), "List must be ordered by UpdatedAt desc")
		}
	})
}
