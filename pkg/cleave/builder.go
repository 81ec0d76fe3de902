package cleave

import (
	"context"
	"encoding/json"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/janelia-flyem/cleave/pkg/cache"
	"github.com/janelia-flyem/cleave/pkg/dvid"
	cerrors "github.com/janelia-flyem/cleave/pkg/errors"
	"github.com/janelia-flyem/cleave/pkg/graph"
	"github.com/janelia-flyem/cleave/pkg/observability"
)

// Builder assembles a body's adjacency graph from the store, with a
// read-through cache keyed by (body, mutation ID). A body that mutates on
// the store side gets a new mutation ID and therefore a cache miss, so
// callers never see a graph for a superseded agglomeration.
type Builder struct {
	store    dvid.Client
	cache    cache.Cache
	ttl      time.Duration
	maxNodes int
	group    singleflight.Group
}

// NewBuilder creates a graph builder. maxNodes is the supervoxel ceiling
// above which builds are rejected with GRAPH_TOO_LARGE.
func NewBuilder(store dvid.Client, c cache.Cache, ttl time.Duration, maxNodes int) *Builder {
	if c == nil {
		c = cache.NewNullCache()
	}
	if maxNodes <= 0 {
		maxNodes = DefaultMaxGraphNodes
	}
	return &Builder{store: store, cache: c, ttl: ttl, maxNodes: maxNodes}
}

// snapshot is the cached wire form of one body graph.
type snapshot struct {
	Members    []graph.SupervoxelID `json:"members"`
	Edges      []graph.Edge         `json:"edges"`
	MutationID uint64               `json:"mutation_id"`
}

// Build returns the adjacency graph for body. The mutation ID is always
// fetched fresh; the expensive member and edge fetches are served from
// cache when a snapshot for that exact mutation exists. Concurrent misses
// for the same snapshot collapse into a single store fetch.
func (b *Builder) Build(ctx context.Context, body graph.BodyID) (*BodyGraph, error) {
	mutID, err := b.store.FetchBodyMutationID(ctx, body)
	if err != nil {
		return nil, err
	}

	key := cache.BodyKey(uint64(body), mutID)
	if data, hit, err := b.cache.Get(ctx, key); err == nil && hit {
		observability.CacheEvents().OnCacheHit(ctx, uint64(body))
		var snap snapshot
		if err := json.Unmarshal(data, &snap); err == nil {
			return b.assemble(body, snap)
		}
		// Corrupt entry: fall through to a fresh fetch.
		_ = b.cache.Delete(ctx, key)
	}
	observability.CacheEvents().OnCacheMiss(ctx, uint64(body))

	v, err, _ := b.group.Do(key, func() (any, error) {
		return b.fetch(ctx, body, mutID, key)
	})
	if err != nil {
		return nil, err
	}
	return b.assemble(body, v.(snapshot))
}

// Invalidate drops every cached snapshot of body. Called when the store
// reports a mutation, so callers never need to flush the cache manually.
func (b *Builder) Invalidate(ctx context.Context, body graph.BodyID) error {
	return b.cache.DeletePrefix(ctx, cache.BodyPrefix(uint64(body)))
}

func (b *Builder) fetch(ctx context.Context, body graph.BodyID, mutID uint64, key string) (snapshot, error) {
	var (
		members []graph.SupervoxelID
		edges   []graph.Edge
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		members, err = b.store.FetchBodyMembers(gctx, body)
		return err
	})
	g.Go(func() error {
		var err error
		edges, err = b.store.FetchBodyEdges(gctx, body)
		return err
	})
	if err := g.Wait(); err != nil {
		return snapshot{}, err
	}

	if len(members) > b.maxNodes {
		return snapshot{}, cerrors.New(cerrors.ErrCodeGraphTooLarge,
			"body %d has %d supervoxels, ceiling is %d", body, len(members), b.maxNodes)
	}
	if len(members) == 0 {
		return snapshot{}, cerrors.New(cerrors.ErrCodeBodyNotFound, "body %d has no supervoxels", body)
	}

	snap := snapshot{Members: members, Edges: edges, MutationID: mutID}
	if data, err := json.Marshal(snap); err == nil {
		if err := b.cache.Set(ctx, key, data, b.ttl); err == nil {
			observability.CacheEvents().OnCacheSet(ctx, uint64(body), len(data))
		}
	}
	return snap, nil
}

// assemble builds the in-memory graph from a snapshot: self-edges are
// dropped, duplicate edges keep their maximum weight, and edges touching a
// supervoxel that is no longer a member are discarded (the store's edge
// list may lag membership changes). Members without surviving edges are
// kept as isolated nodes so the assignment still covers the whole body.
func (b *Builder) assemble(body graph.BodyID, snap snapshot) (*BodyGraph, error) {
	if len(snap.Members) > b.maxNodes {
		return nil, cerrors.New(cerrors.ErrCodeGraphTooLarge,
			"body %d has %d supervoxels, ceiling is %d", body, len(snap.Members), b.maxNodes)
	}

	memberSet := make(map[graph.SupervoxelID]bool, len(snap.Members))
	for _, sv := range snap.Members {
		memberSet[sv] = true
	}

	g := graph.New()
	stale := 0
	for _, e := range snap.Edges {
		if !memberSet[e.A] || !memberSet[e.B] {
			stale++
			continue
		}
		g.AddEdge(e.A, e.B, e.Weight)
	}
	for _, sv := range snap.Members {
		g.AddNode(sv)
	}

	return &BodyGraph{Body: body, MutationID: snap.MutationID, Graph: g, StaleEdges: stale}, nil
}
