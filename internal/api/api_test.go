package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/janelia-flyem/cleave/pkg/audit"
	"github.com/janelia-flyem/cleave/pkg/cache"
	"github.com/janelia-flyem/cleave/pkg/cleave"
	cerrors "github.com/janelia-flyem/cleave/pkg/errors"
	"github.com/janelia-flyem/cleave/pkg/graph"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// stubStore is a minimal dvid.Client with a single path-shaped body.
type stubStore struct {
	members   map[graph.BodyID][]graph.SupervoxelID
	edges     map[graph.BodyID][]graph.Edge
	mutations map[graph.BodyID]uint64
	nextBody  graph.BodyID
}

func newStubStore() *stubStore {
	s := &stubStore{
		members:   make(map[graph.BodyID][]graph.SupervoxelID),
		edges:     make(map[graph.BodyID][]graph.Edge),
		mutations: make(map[graph.BodyID]uint64),
		nextBody:  9000,
	}
	s.members[7] = []graph.SupervoxelID{1, 2, 3, 4}
	s.edges[7] = []graph.Edge{
		{A: 1, B: 2, Weight: 1}, {A: 2, B: 3, Weight: 0.2}, {A: 3, B: 4, Weight: 1},
	}
	s.mutations[7] = 1
	return s
}

func (s *stubStore) FetchBodyMembers(ctx context.Context, body graph.BodyID) ([]graph.SupervoxelID, error) {
	m, ok := s.members[body]
	if !ok {
		return nil, cerrors.New(cerrors.ErrCodeBodyNotFound, "body %d not found", body)
	}
	return m, nil
}

func (s *stubStore) FetchBodyEdges(ctx context.Context, body graph.BodyID) ([]graph.Edge, error) {
	return s.edges[body], nil
}

func (s *stubStore) FetchBodyMutationID(ctx context.Context, body graph.BodyID) (uint64, error) {
	mut, ok := s.mutations[body]
	if !ok {
		return 0, cerrors.New(cerrors.ErrCodeBodyNotFound, "body %d not found", body)
	}
	return mut, nil
}

func (s *stubStore) FetchSupervoxelAt(ctx context.Context, p graph.Point) (graph.SupervoxelID, error) {
	return 0, cerrors.New(cerrors.ErrCodeStoreUnavailable, "no supervoxel at %s", p)
}

func (s *stubStore) WriteCleave(ctx context.Context, body graph.BodyID, supervoxels []graph.SupervoxelID) (graph.BodyID, error) {
	s.nextBody++
	s.mutations[body]++
	return s.nextBody, nil
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	engine := cleave.NewEngine(newStubStore(), cache.NewMemoryCache(10), cleave.Config{}, log.New(io.Discard))
	srv := NewServer(engine, audit.NewMemoryRecorder(), log.New(io.Discard), 4)
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	return ts
}

func postCleave(t *testing.T, ts *httptest.Server, path string, body any) (*http.Response, map[string]json.RawMessage) {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)

	resp, err := ts.Client().Post(ts.URL+path, "application/json", bytes.NewReader(payload))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })

	var decoded map[string]json.RawMessage
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	return resp, decoded
}

func TestCleaveEndpoint(t *testing.T) {
	ts := newTestServer(t)

	resp, body := postCleave(t, ts, "/api/v1/bodies/7/cleave", map[string]any{
		"seeds": map[string][]uint64{"1": {1}, "2": {4}},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))

	var valid bool
	require.NoError(t, json.Unmarshal(body["valid"], &valid))
	assert.True(t, valid)

	var groups map[string][]uint64
	require.NoError(t, json.Unmarshal(body["groups"], &groups))
	assert.Equal(t, []uint64{1, 2}, groups["1"], "weak 2-3 edge is the natural boundary")
	assert.Equal(t, []uint64{3, 4}, groups["2"])
}

func TestCleaveEndpointCommit(t *testing.T) {
	ts := newTestServer(t)

	resp, body := postCleave(t, ts, "/api/v1/bodies/7/cleave?commit=true", map[string]any{
		"seeds": map[string][]uint64{"1": {1}, "2": {4}},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var newBodies map[string]uint64
	require.NoError(t, json.Unmarshal(body["new_bodies"], &newBodies))
	assert.Equal(t, uint64(7), newBodies["1"], "lowest label keeps the original body")
	assert.NotZero(t, newBodies["2"])
	assert.NotEqual(t, uint64(7), newBodies["2"])
}

func TestCleaveEndpointErrors(t *testing.T) {
	ts := newTestServer(t)

	tests := []struct {
		name   string
		path   string
		body   any
		status int
		code   string
	}{
		{
			"insufficient seeds", "/api/v1/bodies/7/cleave",
			map[string]any{"seeds": map[string][]uint64{"1": {1}}},
			http.StatusBadRequest, "INSUFFICIENT_SEEDS",
		},
		{
			"unknown body", "/api/v1/bodies/404/cleave",
			map[string]any{"seeds": map[string][]uint64{"1": {1}, "2": {4}}},
			http.StatusNotFound, "BODY_NOT_FOUND",
		},
		{
			"bad strategy", "/api/v1/bodies/7/cleave",
			map[string]any{"seeds": map[string][]uint64{"1": {1}, "2": {4}}, "strategy": "magic"},
			http.StatusBadRequest, "INVALID_STRATEGY",
		},
		{
			"seed outside body", "/api/v1/bodies/7/cleave",
			map[string]any{"seeds": map[string][]uint64{"1": {1}, "2": {999}}},
			http.StatusBadRequest, "AMBIGUOUS_SEED",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := postCleave(t, ts, tt.path, tt.body)
			assert.Equal(t, tt.status, resp.StatusCode)

			var e errorBody
			require.NoError(t, json.Unmarshal(mustMarshal(t, body), &e))
			assert.Equal(t, tt.code, e.Error.Code)
		})
	}
}

func mustMarshal(t *testing.T, v any) []byte {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return data
}

func TestHistoryEndpoint(t *testing.T) {
	ts := newTestServer(t)

	for range 2 {
		resp, _ := postCleave(t, ts, "/api/v1/bodies/7/cleave", map[string]any{
			"seeds": map[string][]uint64{"1": {1}, "2": {4}},
			"user":  "alice",
		})
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}

	resp, err := ts.Client().Get(ts.URL + "/api/v1/bodies/7/cleaves")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var decoded struct {
		Body    uint64        `json:"body"`
		Cleaves []audit.Entry `json:"cleaves"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	assert.Equal(t, uint64(7), decoded.Body)
	require.Len(t, decoded.Cleaves, 2)
	assert.Equal(t, "alice", decoded.Cleaves[0].User)
	assert.False(t, decoded.Cleaves[0].Committed)
}

func TestInvalidateEndpoint(t *testing.T) {
	ts := newTestServer(t)

	req, err := http.NewRequest(http.MethodDelete, ts.URL+"/api/v1/cache/7", nil)
	require.NoError(t, err)
	resp, err := ts.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestHealthAndVersion(t *testing.T) {
	ts := newTestServer(t)

	for _, path := range []string{"/healthz", "/version"} {
		resp, err := ts.Client().Get(ts.URL + path)
		require.NoError(t, err, path)
		resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode, path)
	}
}

func TestBadBodyParam(t *testing.T) {
	ts := newTestServer(t)

	resp, err := ts.Client().Post(ts.URL+"/api/v1/bodies/banana/cleave", "application/json",
		bytes.NewReader([]byte(`{}`)))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
