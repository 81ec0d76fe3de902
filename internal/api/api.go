// Package api exposes the cleave engine over HTTP.
//
// The surface is small: one endpoint computes (and optionally commits) a
// cleave, one serves per-body cleave history, one invalidates cached graphs
// after out-of-band mutations, plus health and version probes. Structured
// error codes from the engine map onto HTTP statuses so interactive clients
// can distinguish "fix your seeds" from "retry later".
package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"github.com/janelia-flyem/cleave/pkg/audit"
	"github.com/janelia-flyem/cleave/pkg/buildinfo"
	"github.com/janelia-flyem/cleave/pkg/cleave"
	cerrors "github.com/janelia-flyem/cleave/pkg/errors"
)

// DefaultMaxInFlight bounds concurrent cleave computations per process.
const DefaultMaxInFlight = 16

// Server routes HTTP requests to the cleave engine.
type Server struct {
	engine   *cleave.Engine
	recorder audit.Recorder
	logger   *log.Logger
	solves   *semaphore.Weighted
}

// NewServer creates a server. A nil recorder disables audit history; a nil
// logger uses the default logger; maxInFlight <= 0 uses DefaultMaxInFlight.
func NewServer(engine *cleave.Engine, recorder audit.Recorder, logger *log.Logger, maxInFlight int64) *Server {
	if recorder == nil {
		recorder = audit.NewMemoryRecorder()
	}
	if logger == nil {
		logger = log.Default()
	}
	if maxInFlight <= 0 {
		maxInFlight = DefaultMaxInFlight
	}
	return &Server{
		engine:   engine,
		recorder: recorder,
		logger:   logger,
		solves:   semaphore.NewWeighted(maxInFlight),
	}
}

// Router builds the chi router with all routes and middleware attached.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(s.requestID)
	r.Use(s.logRequests)
	r.Use(chimiddleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Get("/version", s.handleVersion)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/bodies/{body}/cleave", s.handleCleave)
		r.Get("/bodies/{body}/cleaves", s.handleHistory)
		r.Delete("/cache/{body}", s.handleInvalidate)
	})

	return r
}

// requestID assigns every request a UUID, reused as the cleave request ID so
// logs, audit entries and HTTP traces correlate.
func (s *Server) requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r.WithContext(withRequestID(r.Context(), id)))
	})
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			"method", r.Method, "path", r.URL.Path,
			"status", ww.Status(), "bytes", ww.BytesWritten(),
			"elapsed", time.Since(start).Round(time.Millisecond),
			"request", requestIDFrom(r.Context()))
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"version": buildinfo.Version,
		"commit":  buildinfo.Commit,
		"built":   buildinfo.Date,
	})
}

// errorBody is the wire shape of every error response.
type errorBody struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// statusFor maps structured error codes onto HTTP statuses.
func statusFor(err error) int {
	switch cerrors.GetCode(err) {
	case cerrors.ErrCodeInvalidInput, cerrors.ErrCodeInvalidStrategy,
		cerrors.ErrCodeInsufficientSeeds, cerrors.ErrCodeAmbiguousSeed:
		return http.StatusBadRequest
	case cerrors.ErrCodeBodyNotFound:
		return http.StatusNotFound
	case cerrors.ErrCodeLockTimeout:
		return http.StatusConflict
	case cerrors.ErrCodeGraphTooLarge:
		return http.StatusRequestEntityTooLarge
	case cerrors.ErrCodeStoreUnavailable:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	var body errorBody
	body.Error.Code = string(cerrors.GetCode(err))
	if body.Error.Code == "" {
		body.Error.Code = string(cerrors.ErrCodeInternal)
	}
	body.Error.Message = err.Error()
	writeJSON(w, statusFor(err), body)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
