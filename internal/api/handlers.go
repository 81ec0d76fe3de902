package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/janelia-flyem/cleave/pkg/audit"
	"github.com/janelia-flyem/cleave/pkg/cleave"
	cerrors "github.com/janelia-flyem/cleave/pkg/errors"
	"github.com/janelia-flyem/cleave/pkg/graph"
)

// ctxKey is the type for context keys used in this package.
type ctxKey int

const requestIDKey ctxKey = 0

func withRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

func requestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// cleaveRequest is the wire shape of a cleave request. Seed group labels are
// JSON object keys and therefore arrive as strings.
type cleaveRequest struct {
	Seeds    map[cleave.GroupLabel][]graph.SupervoxelID `json:"seeds,omitempty"`
	Points   map[cleave.GroupLabel][]graph.Point        `json:"points,omitempty"`
	Strategy string                                     `json:"strategy,omitempty"`
	User     string                                     `json:"user,omitempty"`
	Commit   bool                                       `json:"commit,omitempty"`
}

// cleaveResponse wraps the result with the bodies created by a commit.
type cleaveResponse struct {
	*cleave.Result
	NewBodies map[cleave.GroupLabel]graph.BodyID `json:"new_bodies,omitempty"`
}

func (s *Server) handleCleave(w http.ResponseWriter, r *http.Request) {
	body, err := bodyParam(r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	var req cleaveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, cerrors.Wrap(cerrors.ErrCodeInvalidInput, err, "decode request body"))
		return
	}
	if r.URL.Query().Get("commit") == "true" {
		req.Commit = true
	}

	ctx := r.Context()
	if err := s.solves.Acquire(ctx, 1); err != nil {
		s.writeError(w, cerrors.Wrap(cerrors.ErrCodeInternal, err, "acquire solve slot"))
		return
	}
	defer s.solves.Release(1)

	res, err := s.engine.ComputeCleave(ctx, cleave.Request{
		Body:      body,
		Seeds:     req.Seeds,
		Points:    req.Points,
		Strategy:  req.Strategy,
		RequestID: requestIDFrom(ctx),
	})
	if err != nil {
		s.writeError(w, err)
		return
	}

	entry := audit.FromResult(res)
	entry.User = req.User

	resp := cleaveResponse{Result: res}
	if req.Commit {
		bodies, err := s.engine.Commit(ctx, res)
		if err != nil {
			s.record(ctx, entry)
			s.writeError(w, err)
			return
		}
		entry.MarkCommitted(bodies)
		resp.NewBodies = bodies
	}
	s.record(ctx, entry)

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	body, err := bodyParam(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	entries, err := s.recorder.List(r.Context(), uint64(body), limit)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if entries == nil {
		entries = []audit.Entry{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"body": body, "cleaves": entries})
}

func (s *Server) handleInvalidate(w http.ResponseWriter, r *http.Request) {
	body, err := bodyParam(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if err := s.engine.InvalidateBody(r.Context(), body); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"body": body, "invalidated": true})
}

// record stores an audit entry best-effort. A broken audit store must never
// turn a computed cleave into an error response.
func (s *Server) record(ctx context.Context, e audit.Entry) {
	if err := s.recorder.Record(ctx, e); err != nil {
		s.logger.Warn("audit record failed", "body", e.Body, "request", e.RequestID, "err", err)
	}
}

func bodyParam(r *http.Request) (graph.BodyID, error) {
	raw := chi.URLParam(r, "body")
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, cerrors.New(cerrors.ErrCodeInvalidInput, "invalid body ID %q", raw)
	}
	return graph.BodyID(id), nil
}
