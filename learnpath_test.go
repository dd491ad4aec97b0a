package learnpath_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	learnpath "github.com/pseng/MyH5P-pages"
	"github.com/pseng/MyH5P-pages/pkg/adapters/memory"
	"github.com/pseng/MyH5P-pages/pkg/domain"
	"github.com/pseng/MyH5P-pages/pkg/dsl"
	"github.com/pseng/MyH5P-pages/pkg/editor"
)

type recordingSender struct {
	mu    sync.Mutex
	verbs []string
}

func (r *recordingSender) Send(_ context.Context, stmt domain.Statement, cfg *domain.LRSConfig) domain.SendResult {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.verbs = append(r.verbs, stmt.Verb.Name())
	if !cfg.Configured() {
		return domain.SendResult{Reason: "No LRS configured"}
	}
	return domain.SendResult{Stored: true, StatusCode: 200}
}

func (r *recordingSender) SendBatch(ctx context.Context, stmts []domain.Statement, cfg *domain.LRSConfig) domain.SendResult {
	for _, s := range stmts {
		r.Send(ctx, s, cfg)
	}
	return domain.SendResult{Stored: true}
}

func (r *recordingSender) Verbs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.verbs...)
}

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("sess-%d", n)
	}
}

func tracked() *domain.LearningPath {
	return dsl.New("p1").
		Title("Go basics").
		LRS("https://lrs.example.com/xapi", "key", "secret").
		Start("s").
		Theory("t", "Intro").
		End("e").
		Chain("s", "t", "e").
		Build()
}

func newService(t *testing.T, paths ...*domain.LearningPath) (*learnpath.Service, *recordingSender) {
	t.Helper()
	sender := &recordingSender{}
	svc := learnpath.New(
		learnpath.WithStore(memory.NewStore(memory.WithPaths(paths...))),
		learnpath.WithSender(sender),
		learnpath.WithIDGenerator(sequentialIDs()),
		learnpath.WithDefaultActorName("guest"),
	)
	t.Cleanup(func() { _ = svc.Close() })
	return svc, sender
}

func TestService_CreatePath(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	t.Run("Default layout", func(t *testing.T) {
		title := "Empty"
		p, err := svc.CreatePath(ctx, domain.PathPatch{Title: &title})
		require.NoError(t, err)

		require.Len(t, p.Nodes, 2)
		assert.Equal(t, domain.NodeTypeStart, p.Nodes[0].Type)
		assert.Equal(t, domain.NodeTypeEnd, p.Nodes[1].Type)
		require.Len(t, p.Connections, 1)
		assert.Equal(t, p.Nodes[0].ID, p.Connections[0].From)
		assert.Equal(t, p.Nodes[1].ID, p.Connections[0].To)

		res := svc.Validate(p)
		assert.True(t, res.Valid, res.Errors)
	})

	t.Run("Explicit nodes are kept", func(t *testing.T) {
		nodes := []domain.PathNode{}
		p, err := svc.CreatePath(ctx, domain.PathPatch{Nodes: &nodes})
		require.NoError(t, err)
		assert.Empty(t, p.Nodes)
	})
}

func TestService_ListPaths(t *testing.T) {
	ctx := context.Background()
	draft := dsl.New("d").Title("Draft").Start("s").End("e").Chain("s", "e").Build()
	published := dsl.New("pub").Title("Live").Published().Start("s").End("e").Chain("s", "e").Build()
	svc, _ := newService(t, draft, published)

	all, err := svc.ListPaths(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	live, err := svc.ListPaths(ctx, domain.StatusPublished)
	require.NoError(t, err)
	require.Len(t, live, 1)
	assert.Equal(t, "pub", live[0].ID)
}

func TestService_PathOperations(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t, tracked())

	res, err := svc.ValidatePath(ctx, "p1")
	require.NoError(t, err)
	assert.True(t, res.Valid)

	order, err := svc.LinearizePath(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, []string{"t", "e"}, order.IDs)

	dup, err := svc.DuplicatePath(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, "Go basics (Copy)", dup.Title)

	chart, err := svc.PathGraph(ctx, "p1", "")
	require.NoError(t, err)
	assert.Contains(t, chart, "graph LR")

	require.NoError(t, svc.DeletePath(ctx, "p1"))
	_, err = svc.ValidatePath(ctx, "p1")
	assert.ErrorIs(t, err, domain.ErrPathNotFound)
}

func TestService_LearnerSession(t *testing.T) {
	ctx := context.Background()
	svc, sender := newService(t, tracked())

	ls, err := svc.StartSession(ctx, "p1", domain.Learner{Name: "Ada"})
	require.NoError(t, err)
	assert.Equal(t, "sess-1", ls.ID())
	assert.Equal(t, []string{"sess-1"}, svc.LearnerSessions())

	cur, ok := ls.Current()
	require.True(t, ok)
	assert.Equal(t, "t", cur.ID)

	err = svc.DoSession(ctx, ls.ID(), func(ctx context.Context, ls *learnpath.LearnerSession) error {
		return ls.Advance(ctx)
	})
	require.NoError(t, err)
	assert.True(t, ls.Finished())
	assert.Equal(t, 1.0, ls.Progress())

	chart, err := svc.PathGraph(ctx, "p1", ls.ID())
	require.NoError(t, err)
	assert.Contains(t, chart, "classDef visited")

	require.NoError(t, svc.EndSession(ctx, ls.ID()))
	// Deliveries run concurrently, so only the multiset of verbs is stable.
	assert.ElementsMatch(t, []string{"initialized", "launched", "completed", "launched", "completed", "completed"}, sender.Verbs())

	_, err = svc.Session(ls.ID())
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	assert.ErrorIs(t, svc.EndSession(ctx, ls.ID()), domain.ErrSessionNotFound)
}

func TestService_LearnerSession_NoRecordStore(t *testing.T) {
	ctx := context.Background()
	p := dsl.New("p2").Start("s").Theory("t", "Intro").End("e").Chain("s", "t", "e").Build()
	svc, sender := newService(t, p)

	ls, err := svc.StartSession(ctx, "p2", domain.Learner{})
	require.NoError(t, err)
	require.NoError(t, ls.Advance(ctx))
	require.NoError(t, svc.EndSession(ctx, ls.ID()))

	assert.Empty(t, sender.Verbs())
}

func TestService_PathGraph_SessionOnOtherPath(t *testing.T) {
	ctx := context.Background()
	other := dsl.New("p2").Start("s").Theory("x", "Other").End("e").Chain("s", "x", "e").Build()
	svc, _ := newService(t, tracked(), other)

	ls, err := svc.StartSession(ctx, "p1", domain.Learner{})
	require.NoError(t, err)

	_, err = svc.PathGraph(ctx, "p2", ls.ID())
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)

	chart, err := svc.PathGraph(ctx, "p2", "")
	require.NoError(t, err)
	assert.NotContains(t, chart, "classDef visited")
}

func TestService_StartSession_UnknownPath(t *testing.T) {
	svc, _ := newService(t)
	_, err := svc.StartSession(context.Background(), "missing", domain.Learner{})
	assert.ErrorIs(t, err, domain.ErrPathNotFound)
}

func TestService_RecordStatement(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t, tracked())

	t.Run("Node statement", func(t *testing.T) {
		resp, err := svc.RecordStatement(ctx, "p1", learnpath.StatementRequest{Verb: "completed", NodeID: "t"})
		require.NoError(t, err)
		assert.Equal(t, "completed", resp.Statement.Verb.Name())
		assert.Contains(t, resp.Statement.Object.ID, "/paths/p1/nodes/t")
		assert.Equal(t, "guest", resp.Statement.Actor.Name)
		assert.True(t, resp.LRSResult.Stored)
	})

	t.Run("Unknown verb", func(t *testing.T) {
		_, err := svc.RecordStatement(ctx, "p1", learnpath.StatementRequest{Verb: "teleported"})
		assert.ErrorIs(t, err, learnpath.ErrUnknownVerb)
	})

	t.Run("Unknown node", func(t *testing.T) {
		_, err := svc.RecordStatement(ctx, "p1", learnpath.StatementRequest{Verb: "completed", NodeID: "zz"})
		assert.ErrorIs(t, err, domain.ErrNodeNotFound)
	})

	t.Run("Unknown path", func(t *testing.T) {
		_, err := svc.RecordStatement(ctx, "nope", learnpath.StatementRequest{Verb: "completed"})
		assert.ErrorIs(t, err, domain.ErrPathNotFound)
	})
}

func TestService_Editor(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t, tracked())

	id, _, err := svc.OpenEditor(ctx, "p1", editor.WithViewport(800, 600))
	require.NoError(t, err)

	var added domain.PathNode
	err = svc.DoEditor(ctx, id, func(_ context.Context, es *editor.Session) error {
		n, ok := es.Drop(domain.NodeTypeGate, editor.Point{X: 300, Y: 400})
		require.True(t, ok)
		added = n
		return nil
	})
	require.NoError(t, err)

	saved, err := svc.SaveEditor(ctx, id)
	require.NoError(t, err)
	assert.NotNil(t, saved.Node(added.ID))

	stored, err := svc.GetPath(ctx, "p1")
	require.NoError(t, err)
	assert.Len(t, stored.Nodes, 4)

	require.NoError(t, svc.CloseEditor(ctx, id))
	_, err = svc.SaveEditor(ctx, id)
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}
