package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	learnpath "github.com/pseng/MyH5P-pages"
	"github.com/pseng/MyH5P-pages/pkg/domain"
	"github.com/pseng/MyH5P-pages/pkg/runner"
)

// StartSessionRequest is the optional body of POST /paths/{id}/sessions.
type StartSessionRequest struct {
	Learner domain.Learner `json:"learner"`
}

// BranchRequest is the body of POST /sessions/{sid}/branch.
type BranchRequest struct {
	Port string `json:"port" validate:"required"`
}

// ResultRequest is the body of POST /sessions/{sid}/result. Score is scaled to [0,1].
type ResultRequest struct {
	Score   *float64 `json:"score" validate:"omitempty,gte=0,lte=1"`
	Success bool     `json:"success"`
}

// StartSession handles POST /paths/{id}/sessions.
func (s *Server) StartSession(w http.ResponseWriter, r *http.Request) {
	id, err := pathParam(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req StartSessionRequest
	if err := s.decodeBody(r, &req, false); err != nil {
		s.writeError(w, r, err)
		return
	}
	ls, err := s.Service.StartSession(r.Context(), id, req.Learner)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, runner.Describe(ls.Session))
}

// GetSession handles GET /sessions/{sid}.
func (s *Server) GetSession(w http.ResponseWriter, r *http.Request) {
	s.stepSession(w, r, nil)
}

// AdvanceSession handles POST /sessions/{sid}/advance.
func (s *Server) AdvanceSession(w http.ResponseWriter, r *http.Request) {
	s.stepSession(w, r, func(ctx context.Context, ls *learnpath.LearnerSession) error {
		return ls.Advance(ctx)
	})
}

// PassGate handles POST /sessions/{sid}/gate.
func (s *Server) PassGate(w http.ResponseWriter, r *http.Request) {
	s.stepSession(w, r, func(ctx context.Context, ls *learnpath.LearnerSession) error {
		return ls.PassGate(ctx)
	})
}

// ChooseBranch handles POST /sessions/{sid}/branch.
func (s *Server) ChooseBranch(w http.ResponseWriter, r *http.Request) {
	var req BranchRequest
	if err := s.decodeBody(r, &req, true); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.stepSession(w, r, func(ctx context.Context, ls *learnpath.LearnerSession) error {
		return ls.ChooseBranch(ctx, req.Port)
	})
}

// ReportResult handles POST /sessions/{sid}/result.
func (s *Server) ReportResult(w http.ResponseWriter, r *http.Request) {
	var req ResultRequest
	if err := s.decodeBody(r, &req, true); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.stepSession(w, r, func(ctx context.Context, ls *learnpath.LearnerSession) error {
		return ls.ReportResult(ctx, req.Score, req.Success)
	})
}

// EndSession handles DELETE /sessions/{sid}.
func (s *Server) EndSession(w http.ResponseWriter, r *http.Request) {
	sid, err := pathParam(r, "sid")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.Service.EndSession(r.Context(), sid); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.Streams.Close(sid)
	w.WriteHeader(http.StatusNoContent)
}

// stepSession applies fn under the session lock, then answers and broadcasts the resulting step.
// A nil fn only reads.
func (s *Server) stepSession(w http.ResponseWriter, r *http.Request, fn func(context.Context, *learnpath.LearnerSession) error) {
	sid, err := pathParam(r, "sid")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var step runner.Step
	err = s.Service.DoSession(r.Context(), sid, func(ctx context.Context, ls *learnpath.LearnerSession) error {
		if fn != nil {
			if err := fn(ctx, ls); err != nil {
				return err
			}
		}
		step = runner.Describe(ls.Session)
		return nil
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if fn != nil {
		if data, err := json.Marshal(step); err == nil {
			s.Streams.Broadcast(sid, string(data))
		}
	}
	s.writeJSON(w, http.StatusOK, step)
}

// SubscribeSession handles GET /sessions/{sid}/events (SSE).
// Every step produced by a mutation of the session is pushed as one data frame.
func (s *Server) SubscribeSession(w http.ResponseWriter, r *http.Request) {
	sid, err := pathParam(r, "sid")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if _, err := s.Service.Session(sid); err != nil {
		s.writeError(w, r, err)
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		s.logger.Error("SubscribeSession: streaming not supported")
		return
	}

	// Streams outlive the server write timeout.
	_ = http.NewResponseController(w).SetWriteDeadline(time.Time{})

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch, cancel := s.Streams.Subscribe(sid)
	defer cancel()
	s.logger.Info("SSE: subscribed to session", "session_id", sid)

	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			s.logger.Info("SSE: client disconnected", "session_id", sid)
			return
		case msg, ok := <-ch:
			if !ok {
				s.logger.Info("SSE: session ended", "session_id", sid)
				fmt.Fprintf(w, "event: end\ndata: %s\n\n", sid)
				flusher.Flush()
				return
			}
			fmt.Fprintf(w, "data: %s\n\n", msg)
			flusher.Flush()
		}
	}
}
