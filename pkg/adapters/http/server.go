package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	learnpath "github.com/pseng/MyH5P-pages"
	"github.com/pseng/MyH5P-pages/internal/logging"
)

// Server exposes a learnpath.Service over HTTP.
type Server struct {
	Service *learnpath.Service
	Streams *StreamManager

	logger      *slog.Logger
	gatherer    prometheus.Gatherer
	corsOrigins []string
	validate    *validator.Validate
}

// Option configures the HTTP handler.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithGatherer serves the given registry at /metrics. Without it /metrics is not mounted.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.gatherer = g
	}
}

// WithCORSOrigins restricts the allowed origins. Default: "*".
func WithCORSOrigins(origins ...string) Option {
	return func(s *Server) {
		s.corsOrigins = origins
	}
}

// NewHandler creates a new HTTP handler for the service.
func NewHandler(svc *learnpath.Service, opts ...Option) http.Handler {
	server := &Server{
		Service:     svc,
		Streams:     NewStreamManager(),
		logger:      logging.NewNop(),
		corsOrigins: []string{"*"},
		validate:    validator.New(),
	}
	for _, opt := range opts {
		opt(server)
	}
	server.Streams.logger = server.logger

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(server.cors)

	r.Get("/health", server.GetHealth)
	r.Get("/info", server.GetInfo)
	r.Get("/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		spec, err := rawSpec()
		if err != nil {
			http.Error(w, "Failed to load spec", http.StatusInternalServerError)
			server.logger.Error("Failed to load OpenAPI spec", "err", err)
			return
		}
		w.Header().Set("Content-Type", "text/yaml")
		_, _ = w.Write(spec)
	})
	r.Get("/swagger", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(swaggerHTML))
	})
	if server.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(server.gatherer, promhttp.HandlerOpts{}))
	}

	r.Get("/node-types", server.ListNodeTypes)

	r.Route("/paths", func(r chi.Router) {
		r.Get("/", server.ListPaths)
		r.Post("/", server.CreatePath)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", server.GetPath)
			r.Put("/", server.UpdatePath)
			r.Delete("/", server.DeletePath)
			r.Post("/duplicate", server.DuplicatePath)
			r.Post("/validate", server.ValidatePath)
			r.Get("/linearize", server.LinearizePath)
			r.Get("/graph", server.GetPathGraph)
			r.Post("/xapi", server.RecordStatement)
			r.Post("/sessions", server.StartSession)
			r.Post("/editor", server.OpenEditor)
		})
	})

	r.Route("/sessions/{sid}", func(r chi.Router) {
		r.Get("/", server.GetSession)
		r.Delete("/", server.EndSession)
		r.Post("/advance", server.AdvanceSession)
		r.Post("/gate", server.PassGate)
		r.Post("/branch", server.ChooseBranch)
		r.Post("/result", server.ReportResult)
		r.Get("/events", server.SubscribeSession)
	})

	r.Route("/editor/{sid}", func(r chi.Router) {
		r.Get("/", server.GetEditor)
		r.Delete("/", server.CloseEditor)
		r.Post("/events", server.DispatchEditorEvents)
		r.Post("/save", server.SaveEditor)
		r.Get("/preview.svg", server.PreviewEditor)
	})

	return r
}

func (s *Server) cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if origin := s.allowedOrigin(r.Header.Get("Origin")); origin != "" {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			if origin != "*" {
				w.Header().Add("Vary", "Origin")
			}
		}
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) allowedOrigin(origin string) string {
	for _, o := range s.corsOrigins {
		if o == "*" {
			return "*"
		}
		if origin != "" && strings.EqualFold(o, origin) {
			return origin
		}
	}
	return ""
}

const swaggerHTML = `
<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="utf-8" />
    <meta name="viewport" content="width=device-width, initial-scale=1" />
    <title>learnPath API Documentation</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5.11.0/swagger-ui.css" />
</head>
<body>
<div id="swagger-ui"></div>
<script src="https://unpkg.com/swagger-ui-dist@5.11.0/swagger-ui-bundle.js" crossorigin></script>
<script>
    window.onload = () => {
    window.ui = SwaggerUIBundle({
        url: '/openapi.yaml',
        dom_id: '#swagger-ui',
    });
    };
</script>
</body>
</html>
`

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	apiVersion := "unknown"
	if swagger, err := GetSwagger(); err == nil && swagger.Info != nil {
		apiVersion = swagger.Info.Version
	} else if err != nil {
		s.logger.Warn("OpenAPI document unavailable", "err", err)
	}

	s.writeJSON(w, http.StatusOK, map[string]string{
		"app":         "learnpath-http",
		"version":     strings.TrimSpace(learnpath.Version),
		"api_version": apiVersion,
	})
}

// ListNodeTypes handles the GET /node-types request.
func (s *Server) ListNodeTypes(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.Service.NodeTypes())
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("response encode failed", "err", err)
	}
}
