package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"

	"github.com/pseng/MyH5P-pages/pkg/editor"
)

// EditorResponse carries an editor session id and its snapshot.
type EditorResponse struct {
	SessionID string      `json:"sessionId"`
	View      editor.View `json:"view"`
}

// OpenEditorRequest is the optional body of POST /paths/{id}/editor.
type OpenEditorRequest struct {
	Width  float64 `json:"width" validate:"gte=0"`
	Height float64 `json:"height" validate:"gte=0"`
}

// OpenEditor handles POST /paths/{id}/editor.
func (s *Server) OpenEditor(w http.ResponseWriter, r *http.Request) {
	id, err := pathParam(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req OpenEditorRequest
	if err := s.decodeBody(r, &req, false); err != nil {
		s.writeError(w, r, err)
		return
	}
	var opts []editor.Option
	if req.Width > 0 && req.Height > 0 {
		opts = append(opts, editor.WithViewport(req.Width, req.Height))
	}
	sid, _, err := s.Service.OpenEditor(r.Context(), id, opts...)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var view editor.View
	err = s.Service.DoEditor(r.Context(), sid, func(_ context.Context, es *editor.Session) error {
		view = es.Snapshot()
		return nil
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, EditorResponse{SessionID: sid, View: view})
}

// GetEditor handles GET /editor/{sid}.
func (s *Server) GetEditor(w http.ResponseWriter, r *http.Request) {
	s.withEditor(w, r, func(es *editor.Session) error { return nil })
}

// DispatchEditorEvents handles POST /editor/{sid}/events. The body is one event or an array of them,
// applied in order; the first failing event stops the batch.
func (s *Server) DispatchEditorEvents(w http.ResponseWriter, r *http.Request) {
	var events eventBatch
	if err := s.decodeBody(r, &events, true); err != nil {
		s.writeError(w, r, err)
		return
	}
	for _, ev := range events {
		if err := s.validate.Struct(ev); err != nil {
			s.writeError(w, r, badRequest("%v", err))
			return
		}
	}
	s.withEditor(w, r, func(es *editor.Session) error {
		for _, ev := range events {
			if err := es.Dispatch(ev); err != nil {
				if statusOf(err) == http.StatusInternalServerError {
					return badRequest("%v", err)
				}
				return err
			}
		}
		return nil
	})
}

// SaveEditor handles POST /editor/{sid}/save.
func (s *Server) SaveEditor(w http.ResponseWriter, r *http.Request) {
	sid, err := pathParam(r, "sid")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	p, err := s.Service.SaveEditor(r.Context(), sid)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, p)
}

// PreviewEditor handles GET /editor/{sid}/preview.svg.
func (s *Server) PreviewEditor(w http.ResponseWriter, r *http.Request) {
	sid, err := pathParam(r, "sid")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var svg string
	err = s.Service.DoEditor(r.Context(), sid, func(_ context.Context, es *editor.Session) error {
		svg = es.SVG()
		return nil
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	_, _ = w.Write([]byte(svg))
}

// CloseEditor handles DELETE /editor/{sid}.
func (s *Server) CloseEditor(w http.ResponseWriter, r *http.Request) {
	sid, err := pathParam(r, "sid")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.Service.CloseEditor(r.Context(), sid); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) withEditor(w http.ResponseWriter, r *http.Request, fn func(*editor.Session) error) {
	sid, err := pathParam(r, "sid")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var view editor.View
	err = s.Service.DoEditor(r.Context(), sid, func(_ context.Context, es *editor.Session) error {
		if err := fn(es); err != nil {
			return err
		}
		view = es.Snapshot()
		return nil
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, EditorResponse{SessionID: sid, View: view})
}

// eventBatch accepts a single event object or an array of events.
type eventBatch []editor.Event

func (b *eventBatch) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '{' {
		var ev editor.Event
		if err := json.Unmarshal(data, &ev); err != nil {
			return err
		}
		*b = eventBatch{ev}
		return nil
	}
	var evs []editor.Event
	if err := json.Unmarshal(data, &evs); err != nil {
		return err
	}
	*b = evs
	return nil
}
