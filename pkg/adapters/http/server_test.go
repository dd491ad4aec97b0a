package http

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	learnpath "github.com/pseng/MyH5P-pages"
	"github.com/pseng/MyH5P-pages/pkg/adapters/memory"
	"github.com/pseng/MyH5P-pages/pkg/domain"
	"github.com/pseng/MyH5P-pages/pkg/dsl"
	"github.com/pseng/MyH5P-pages/pkg/observability"
	"github.com/pseng/MyH5P-pages/pkg/runner"
)

type stubSender struct{}

func (stubSender) Send(_ context.Context, _ domain.Statement, cfg *domain.LRSConfig) domain.SendResult {
	if !cfg.Configured() {
		return domain.SendResult{Reason: "No LRS configured"}
	}
	return domain.SendResult{Stored: true, StatusCode: http.StatusOK}
}

func (s stubSender) SendBatch(ctx context.Context, _ []domain.Statement, cfg *domain.LRSConfig) domain.SendResult {
	return s.Send(ctx, domain.Statement{}, cfg)
}

func samplePaths() []*domain.LearningPath {
	linear := dsl.New("p1").
		Title("Go basics").
		LRS("https://lrs.example.com/xapi", "key", "secret").
		Start("s").
		Theory("t", "Intro").
		Gate("g", "Checkpoint").
		End("e").
		Chain("s", "t", "g", "e").
		Build()
	branching := dsl.New("p2").
		Title("Pick a track").
		Published().
		Start("s").
		Branch("b", "Which track?").
		Theory("x", "Basics").
		Theory("y", "Advanced").
		End("e").
		Connect("s", domain.PortNext, "b", domain.PortPrev).
		Connect("b", domain.PortPathA, "x", domain.PortPrev).
		Connect("b", domain.PortPathB, "y", domain.PortPrev).
		Chain("x", "e").
		Build()
	return []*domain.LearningPath{linear, branching}
}

func newTestServer(t *testing.T, opts ...Option) *httptest.Server {
	t.Helper()
	svc := learnpath.New(
		learnpath.WithStore(memory.NewStore(memory.WithPaths(samplePaths()...))),
		learnpath.WithSender(stubSender{}),
	)
	srv := httptest.NewServer(NewHandler(svc, opts...))
	t.Cleanup(func() {
		srv.Close()
		_ = svc.Close()
	})
	return srv
}

func do(t *testing.T, srv *httptest.Server, method, path, body string) (*http.Response, []byte) {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, srv.URL+path, rd)
	require.NoError(t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, data
}

func decode[T any](t *testing.T, data []byte) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(data, &v), string(data))
	return v
}

func TestHealthAndInfo(t *testing.T) {
	srv := newTestServer(t)

	resp, body := do(t, srv, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"status":"ok"}`, string(body))

	resp, body = do(t, srv, http.MethodGet, "/info", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	info := decode[map[string]string](t, body)
	assert.Equal(t, "learnpath-http", info["app"])
	assert.Equal(t, learnpath.Version, info["version"])
	assert.Equal(t, "1.2.0", info["api_version"])

	resp, body = do(t, srv, http.MethodGet, "/openapi.yaml", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "openapi: 3.0.3")
}

func TestGetSwagger(t *testing.T) {
	doc, err := GetSwagger()
	require.NoError(t, err)
	assert.NotNil(t, doc.Paths.Find("/paths/{id}/xapi"))
}

func TestNodeTypes(t *testing.T) {
	srv := newTestServer(t)
	resp, body := do(t, srv, http.MethodGet, "/node-types", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `"start"`)
	assert.Contains(t, string(body), `"branch"`)
}

func TestPathsCRUD(t *testing.T) {
	srv := newTestServer(t)

	t.Run("List and filter", func(t *testing.T) {
		resp, body := do(t, srv, http.MethodGet, "/paths", "")
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Len(t, decode[[]domain.PathSummary](t, body), 2)

		_, body = do(t, srv, http.MethodGet, "/paths?status=published", "")
		published := decode[[]domain.PathSummary](t, body)
		require.Len(t, published, 1)
		assert.Equal(t, "p2", published[0].ID)

		resp, _ = do(t, srv, http.MethodGet, "/paths?status=archived", "")
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	var created domain.LearningPath
	t.Run("Create with default layout", func(t *testing.T) {
		resp, body := do(t, srv, http.MethodPost, "/paths", `{"title":"New path"}`)
		require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
		created = decode[domain.LearningPath](t, body)
		assert.Equal(t, "New path", created.Title)
		assert.Len(t, created.Nodes, 2)
		assert.Len(t, created.Connections, 1)
	})

	t.Run("Update keeps absent fields", func(t *testing.T) {
		resp, body := do(t, srv, http.MethodPut, "/paths/"+created.ID, `{"status":"published"}`)
		require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
		updated := decode[domain.LearningPath](t, body)
		assert.Equal(t, domain.StatusPublished, updated.Status)
		assert.Equal(t, "New path", updated.Title)
		assert.Len(t, updated.Nodes, 2)
	})

	t.Run("Bad bodies", func(t *testing.T) {
		resp, body := do(t, srv, http.MethodPut, "/paths/"+created.ID, `{"status":"archived"}`)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Contains(t, decode[ErrorResponse](t, body).Error, "archived")

		resp, _ = do(t, srv, http.MethodPost, "/paths", `{"title":`)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

		resp, _ = do(t, srv, http.MethodPost, "/paths", `{"lrsConfig":{"endpoint":"not a url"}}`)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("Duplicate", func(t *testing.T) {
		resp, body := do(t, srv, http.MethodPost, "/paths/p1/duplicate", "")
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		assert.Equal(t, "Go basics (Copy)", decode[domain.LearningPath](t, body).Title)
	})

	t.Run("Delete", func(t *testing.T) {
		resp, _ := do(t, srv, http.MethodDelete, "/paths/"+created.ID, "")
		assert.Equal(t, http.StatusNoContent, resp.StatusCode)

		resp, body := do(t, srv, http.MethodGet, "/paths/"+created.ID, "")
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		assert.Contains(t, decode[ErrorResponse](t, body).Error, "path not found")
	})
}

func TestValidateLinearizeGraph(t *testing.T) {
	srv := newTestServer(t)

	resp, body := do(t, srv, http.MethodPost, "/paths/p1/validate", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `"valid":true`)

	resp, body = do(t, srv, http.MethodGet, "/paths/p1/linearize", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `["t","g","e"]`)

	resp, body = do(t, srv, http.MethodGet, "/paths/p1/graph", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, strings.HasPrefix(string(body), "graph LR"))

	resp, _ = do(t, srv, http.MethodGet, "/paths/p1/graph?session=nope", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = do(t, srv, http.MethodPost, "/paths/missing/validate", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestRecordStatement(t *testing.T) {
	srv := newTestServer(t)

	resp, body := do(t, srv, http.MethodPost, "/paths/p1/xapi", `{"verb":"completed","nodeId":"t","result":{"completion":true}}`)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	out := decode[learnpath.StatementResponse](t, body)
	assert.Equal(t, "completed", out.Statement.Verb.Name())
	assert.True(t, out.LRSResult.Stored)

	resp, body = do(t, srv, http.MethodPost, "/paths/p2/xapi", `{"verb":"launched"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	out = decode[learnpath.StatementResponse](t, body)
	assert.False(t, out.LRSResult.Stored)
	assert.Equal(t, "No LRS configured", out.LRSResult.Reason)

	resp, _ = do(t, srv, http.MethodPost, "/paths/p1/xapi", `{"nodeId":"t"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = do(t, srv, http.MethodPost, "/paths/p1/xapi", `{"verb":"teleported"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = do(t, srv, http.MethodPost, "/paths/p1/xapi", `{"verb":"completed","nodeId":"zz"}`)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestLearnerSessionFlow(t *testing.T) {
	srv := newTestServer(t)

	resp, body := do(t, srv, http.MethodPost, "/paths/p1/sessions", `{"learner":{"name":"Ada"}}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	step := decode[runner.Step](t, body)
	assert.Equal(t, "t", step.NodeID)
	assert.Equal(t, 1, step.Index)
	assert.Equal(t, 3, step.Total)
	sid := step.SessionID

	resp, body = do(t, srv, http.MethodGet, "/sessions/"+sid, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "t", decode[runner.Step](t, body).NodeID)

	_, body = do(t, srv, http.MethodPost, "/sessions/"+sid+"/advance", "")
	step = decode[runner.Step](t, body)
	assert.Equal(t, "g", step.NodeID)

	_, body = do(t, srv, http.MethodPost, "/sessions/"+sid+"/gate", "")
	step = decode[runner.Step](t, body)
	assert.True(t, step.Finished)
	assert.Equal(t, 1.0, step.Progress)

	resp, _ = do(t, srv, http.MethodPost, "/sessions/"+sid+"/advance", "")
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp, _ = do(t, srv, http.MethodDelete, "/sessions/"+sid, "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, _ = do(t, srv, http.MethodGet, "/sessions/"+sid, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestLearnerSessionBranchAndResult(t *testing.T) {
	srv := newTestServer(t)

	_, body := do(t, srv, http.MethodPost, "/paths/p2/sessions", "")
	step := decode[runner.Step](t, body)
	require.Equal(t, "b", step.NodeID)
	require.Len(t, step.Choices, 2)
	sid := step.SessionID

	resp, _ := do(t, srv, http.MethodPost, "/sessions/"+sid+"/branch", `{}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = do(t, srv, http.MethodPost, "/sessions/"+sid+"/result", `{"score":1.5,"success":true}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, body = do(t, srv, http.MethodPost, "/sessions/"+sid+"/branch", `{"port":"pathB"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	step = decode[runner.Step](t, body)
	assert.Equal(t, "y", step.NodeID)

	resp, body = do(t, srv, http.MethodPost, "/sessions/"+sid+"/result", `{"score":0.4,"success":false}`)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	assert.Equal(t, string(domain.NodeFailed), decode[runner.Step](t, body).Status)

	resp, body = do(t, srv, http.MethodGet, "/paths/p2/graph?session="+sid, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "class n_y failed")

	resp, _ = do(t, srv, http.MethodGet, "/paths/p1/graph?session="+sid, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestSubscribeSession(t *testing.T) {
	srv := newTestServer(t)

	_, body := do(t, srv, http.MethodPost, "/paths/p1/sessions", "")
	sid := decode[runner.Step](t, body).SessionID

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/sessions/"+sid+"/events", nil)
	require.NoError(t, err)
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	lines := bufio.NewScanner(resp.Body)
	require.True(t, lines.Scan())
	assert.Equal(t, "event: ping", lines.Text())

	// The subscription is registered before the ping is written.
	do(t, srv, http.MethodPost, "/sessions/"+sid+"/advance", "")

	var data string
	for lines.Scan() {
		if strings.HasPrefix(lines.Text(), "data: {") {
			data = strings.TrimPrefix(lines.Text(), "data: ")
			break
		}
	}
	require.NotEmpty(t, data)
	assert.Equal(t, "g", decode[runner.Step](t, []byte(data)).NodeID)
}

func TestSubscribeSession_EndedSessionClosesStream(t *testing.T) {
	srv := newTestServer(t)

	_, body := do(t, srv, http.MethodPost, "/paths/p1/sessions", "")
	sid := decode[runner.Step](t, body).SessionID

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/sessions/"+sid+"/events", nil)
	require.NoError(t, err)
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	lines := bufio.NewScanner(resp.Body)
	require.True(t, lines.Scan())
	require.Equal(t, "event: ping", lines.Text())

	del, _ := do(t, srv, http.MethodDelete, "/sessions/"+sid, "")
	require.Equal(t, http.StatusNoContent, del.StatusCode)

	var rest []string
	for lines.Scan() {
		if lines.Text() != "" {
			rest = append(rest, lines.Text())
		}
	}
	require.NoError(t, lines.Err(), "stream must end on its own, before the client deadline")
	assert.Equal(t, []string{"data: connected", "event: end", "data: " + sid}, rest)
}

func TestEditorFlow(t *testing.T) {
	srv := newTestServer(t)

	resp, body := do(t, srv, http.MethodPost, "/paths/p1/editor", `{"width":800,"height":600}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	opened := decode[EditorResponse](t, body)
	assert.Len(t, opened.View.Nodes, 4)
	sid := opened.SessionID

	resp, body = do(t, srv, http.MethodPost, "/editor/"+sid+"/events", `[{"type":"drop","nodeType":"theory","x":400,"y":450}]`)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	assert.Len(t, decode[EditorResponse](t, body).View.Nodes, 5)

	resp, body = do(t, srv, http.MethodPost, "/editor/"+sid+"/events", `{"type":"drop","nodeType":"start","x":10,"y":10}`)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	view := decode[EditorResponse](t, body).View
	assert.Len(t, view.Nodes, 5)
	require.NotEmpty(t, view.Notices)

	resp, _ = do(t, srv, http.MethodPost, "/editor/"+sid+"/events", `{"type":"teleport"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = do(t, srv, http.MethodPost, "/editor/"+sid+"/events", `{"x":1}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, body = do(t, srv, http.MethodGet, "/editor/"+sid+"/preview.svg", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/svg+xml", resp.Header.Get("Content-Type"))
	assert.Contains(t, string(body), "<svg")

	resp, body = do(t, srv, http.MethodPost, "/editor/"+sid+"/save", "")
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	assert.Len(t, decode[domain.LearningPath](t, body).Nodes, 5)

	_, body = do(t, srv, http.MethodGet, "/paths/p1", "")
	assert.Len(t, decode[domain.LearningPath](t, body).Nodes, 5)

	resp, _ = do(t, srv, http.MethodDelete, "/editor/"+sid, "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp, _ = do(t, srv, http.MethodGet, "/editor/"+sid, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestMetricsAndCORS(t *testing.T) {
	reg := prometheus.NewRegistry()
	_ = observability.NewMetrics(reg)
	srv := newTestServer(t, WithGatherer(reg), WithCORSOrigins("https://app.example.com"))

	resp, _ := do(t, srv, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	req, err := http.NewRequest(http.MethodOptions, srv.URL+"/paths", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "https://app.example.com")
	resp, err = srv.Client().Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "https://app.example.com", resp.Header.Get("Access-Control-Allow-Origin"))

	req.Header.Set("Origin", "https://evil.example.com")
	resp, err = srv.Client().Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Empty(t, resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestStreamManager(t *testing.T) {
	sm := NewStreamManager()
	ch, cancel := sm.Subscribe("s1")
	assert.Equal(t, 1, sm.Subscribers("s1"))

	sm.Broadcast("s1", "hello")
	sm.Broadcast("other", "ignored")
	assert.Equal(t, "hello", <-ch)

	cancel()
	cancel()
	assert.Equal(t, 0, sm.Subscribers("s1"))
	_, ok := <-ch
	assert.False(t, ok)
}

func TestStreamManager_Close(t *testing.T) {
	sm := NewStreamManager()
	a, cancelA := sm.Subscribe("s1")
	b, cancelB := sm.Subscribe("s1")
	other, cancelOther := sm.Subscribe("s2")
	defer cancelOther()

	sm.Close("s1")
	assert.Equal(t, 0, sm.Subscribers("s1"))
	assert.Equal(t, 1, sm.Subscribers("s2"))

	_, ok := <-a
	assert.False(t, ok)
	_, ok = <-b
	assert.False(t, ok)

	assert.NotPanics(t, cancelA)
	assert.NotPanics(t, cancelB)
	sm.Close("s1")

	sm.Broadcast("s2", "still here")
	assert.Equal(t, "still here", <-other)
}
