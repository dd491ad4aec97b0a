package http

import (
	"net/http"

	learnpath "github.com/pseng/MyH5P-pages"
	"github.com/pseng/MyH5P-pages/pkg/domain"
)

// ListPaths handles GET /paths, optionally filtered by ?status=.
func (s *Server) ListPaths(w http.ResponseWriter, r *http.Request) {
	status, err := queryParam(r, "status")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	switch domain.PathStatus(status) {
	case "", domain.StatusDraft, domain.StatusPublished:
	default:
		s.writeError(w, r, badRequest("unknown status %q", status))
		return
	}
	paths, err := s.Service.ListPaths(r.Context(), domain.PathStatus(status))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, paths)
}

// CreatePath handles POST /paths.
func (s *Server) CreatePath(w http.ResponseWriter, r *http.Request) {
	var patch domain.PathPatch
	if err := s.decodePatch(r, &patch); err != nil {
		s.writeError(w, r, err)
		return
	}
	p, err := s.Service.CreatePath(r.Context(), patch)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, p)
}

// GetPath handles GET /paths/{id}.
func (s *Server) GetPath(w http.ResponseWriter, r *http.Request) {
	id, err := pathParam(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	p, err := s.Service.GetPath(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, p)
}

// UpdatePath handles PUT /paths/{id}.
func (s *Server) UpdatePath(w http.ResponseWriter, r *http.Request) {
	id, err := pathParam(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var patch domain.PathPatch
	if err := s.decodePatch(r, &patch); err != nil {
		s.writeError(w, r, err)
		return
	}
	p, err := s.Service.UpdatePath(r.Context(), id, patch)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, p)
}

// DeletePath handles DELETE /paths/{id}.
func (s *Server) DeletePath(w http.ResponseWriter, r *http.Request) {
	id, err := pathParam(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.Service.DeletePath(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DuplicatePath handles POST /paths/{id}/duplicate.
func (s *Server) DuplicatePath(w http.ResponseWriter, r *http.Request) {
	id, err := pathParam(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	p, err := s.Service.DuplicatePath(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, p)
}

// ValidatePath handles POST /paths/{id}/validate.
func (s *Server) ValidatePath(w http.ResponseWriter, r *http.Request) {
	id, err := pathParam(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	res, err := s.Service.ValidatePath(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, res)
}

// LinearizePath handles GET /paths/{id}/linearize.
func (s *Server) LinearizePath(w http.ResponseWriter, r *http.Request) {
	id, err := pathParam(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	order, err := s.Service.LinearizePath(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, order)
}

// GetPathGraph handles GET /paths/{id}/graph.
func (s *Server) GetPathGraph(w http.ResponseWriter, r *http.Request) {
	id, err := pathParam(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	sessionID, err := queryParam(r, "session")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	chart, err := s.Service.PathGraph(r.Context(), id, sessionID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(chart))
}

// RecordStatement handles POST /paths/{id}/xapi.
func (s *Server) RecordStatement(w http.ResponseWriter, r *http.Request) {
	id, err := pathParam(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req learnpath.StatementRequest
	if err := s.decodeBody(r, &req, true); err != nil {
		s.writeError(w, r, err)
		return
	}
	resp, err := s.Service.RecordStatement(r.Context(), id, req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, resp)
}

// decodePatch decodes a path patch and checks the fields it carries.
func (s *Server) decodePatch(r *http.Request, patch *domain.PathPatch) error {
	if err := s.decodeBody(r, patch, false); err != nil {
		return err
	}
	if patch.Status != nil && *patch.Status != domain.StatusDraft && *patch.Status != domain.StatusPublished {
		return badRequest("unknown status %q", *patch.Status)
	}
	if patch.LRSConfig != nil {
		if err := s.validate.Struct(patch.LRSConfig); err != nil {
			return badRequest("%v", err)
		}
	}
	return nil
}
