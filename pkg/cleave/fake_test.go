package cleave

import (
	"context"
	"sync"

	cerrors "github.com/janelia-flyem/cleave/pkg/errors"
	"github.com/janelia-flyem/cleave/pkg/graph"
)

// fakeStore is an in-memory dvid.Client for tests.
type fakeStore struct {
	mu        sync.Mutex
	members   map[graph.BodyID][]graph.SupervoxelID
	edges     map[graph.BodyID][]graph.Edge
	mutations map[graph.BodyID]uint64
	points    map[graph.Point]graph.SupervoxelID
	nextBody  graph.BodyID

	memberCalls int
	edgeCalls   int

	// failWith, when set, is returned by every fetch.
	failWith error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		members:   make(map[graph.BodyID][]graph.SupervoxelID),
		edges:     make(map[graph.BodyID][]graph.Edge),
		mutations: make(map[graph.BodyID]uint64),
		points:    make(map[graph.Point]graph.SupervoxelID),
		nextBody:  100000,
	}
}

// setBody installs a body with the given members and edges at mutation 1.
func (f *fakeStore) setBody(body graph.BodyID, members []graph.SupervoxelID, edges []graph.Edge) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.members[body] = members
	f.edges[body] = edges
	if f.mutations[body] == 0 {
		f.mutations[body] = 1
	}
}

func (f *fakeStore) mutate(body graph.BodyID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.mutations[body]++
}

func (f *fakeStore) FetchBodyMembers(ctx context.Context, body graph.BodyID) ([]graph.SupervoxelID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.memberCalls++
	if f.failWith != nil {
		return nil, f.failWith
	}
	m, ok := f.members[body]
	if !ok {
		return nil, cerrors.New(cerrors.ErrCodeBodyNotFound, "body %d not found", body)
	}
	return m, nil
}

func (f *fakeStore) FetchBodyEdges(ctx context.Context, body graph.BodyID) ([]graph.Edge, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.edgeCalls++
	if f.failWith != nil {
		return nil, f.failWith
	}
	return f.edges[body], nil
}

func (f *fakeStore) FetchBodyMutationID(ctx context.Context, body graph.BodyID) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return 0, f.failWith
	}
	mut, ok := f.mutations[body]
	if !ok {
		return 0, cerrors.New(cerrors.ErrCodeBodyNotFound, "body %d not found", body)
	}
	return mut, nil
}

func (f *fakeStore) FetchSupervoxelAt(ctx context.Context, p graph.Point) (graph.SupervoxelID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return 0, f.failWith
	}
	sv, ok := f.points[p]
	if !ok {
		return 0, cerrors.New(cerrors.ErrCodeStoreUnavailable, "no supervoxel at %s", p)
	}
	return sv, nil
}

func (f *fakeStore) WriteCleave(ctx context.Context, body graph.BodyID, supervoxels []graph.SupervoxelID) (graph.BodyID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return 0, f.failWith
	}
	f.nextBody++
	f.mutations[body]++

	cleaved := make(map[graph.SupervoxelID]bool, len(supervoxels))
	for _, sv := range supervoxels {
		cleaved[sv] = true
	}
	var remaining []graph.SupervoxelID
	for _, sv := range f.members[body] {
		if !cleaved[sv] {
			remaining = append(remaining, sv)
		}
	}
	f.members[body] = remaining
	f.members[f.nextBody] = supervoxels
	f.mutations[f.nextBody] = 1
	return f.nextBody, nil
}
