package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/oapi-codegen/runtime"

	learnpath "github.com/pseng/MyH5P-pages"
	"github.com/pseng/MyH5P-pages/pkg/domain"
	"github.com/pseng/MyH5P-pages/pkg/editor"
	"github.com/pseng/MyH5P-pages/pkg/traversal"
)

// errBadRequest marks client mistakes that are not domain errors.
var errBadRequest = errors.New("bad request")

func badRequest(format string, args ...any) error {
	return fmt.Errorf("%w: %s", errBadRequest, fmt.Sprintf(format, args...))
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, domain.ErrPathNotFound),
		errors.Is(err, domain.ErrSessionNotFound),
		errors.Is(err, domain.ErrNodeNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrCapacityExceeded),
		errors.Is(err, traversal.ErrFinished),
		errors.Is(err, traversal.ErrNotStarted),
		errors.Is(err, traversal.ErrEmptyPath):
		return http.StatusConflict
	case errors.Is(err, errBadRequest),
		errors.Is(err, domain.ErrUnknownNodeType),
		errors.Is(err, traversal.ErrNotBranch),
		errors.Is(err, learnpath.ErrUnknownVerb),
		errors.Is(err, editor.ErrUnknownEvent):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusOf(err)
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "err", err)
	} else {
		s.logger.Debug("request rejected", "method", r.Method, "path", r.URL.Path, "status", status, "err", err)
	}
	s.writeJSON(w, status, ErrorResponse{Error: err.Error()})
}

// decodeBody decodes a JSON body and checks its validate tags. An empty body leaves v untouched
// unless required is set.
func (s *Server) decodeBody(r *http.Request, v any, required bool) error {
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) && !required {
			return nil
		}
		return badRequest("invalid request body: %v", err)
	}
	if err := s.validate.Struct(v); err != nil {
		var invalid *validator.InvalidValidationError
		if errors.As(err, &invalid) {
			return nil
		}
		return badRequest("%v", err)
	}
	return nil
}

// pathParam binds a simple-style path parameter.
func pathParam(r *http.Request, name string) (string, error) {
	var v string
	err := runtime.BindStyledParameterWithOptions("simple", name, chi.URLParam(r, name), &v,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		return "", badRequest("invalid format for parameter %s: %v", name, err)
	}
	return v, nil
}

// queryParam binds an optional form-style query parameter.
func queryParam(r *http.Request, name string) (string, error) {
	var v *string
	if err := runtime.BindQueryParameter("form", true, false, name, r.URL.Query(), &v); err != nil {
		return "", badRequest("invalid format for parameter %s: %v", name, err)
	}
	if v == nil {
		return "", nil
	}
	return *v, nil
}
