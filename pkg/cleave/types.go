// Package cleave implements the cleave engine: it builds a weighted
// adjacency graph over the supervoxels of one agglomerated body, partitions
// the graph into label groups consistent with user-supplied seeds, and
// produces an assignment suitable for writing the split back to DVID.
//
// The single entry point is [Engine.ComputeCleave]. Each request moves
// through the stages Received → GraphBuilt → SeedsResolved → Solved →
// Reconciled, with early exits to a failed state during the first three.
// Solving and reconciling never fail fatally: unsolvable conditions
// (unseeded components, broken group connectivity) degrade the result to
// Valid=false with per-node diagnostics, because a partial answer is still
// useful to the interactive operator.
package cleave

import (
	"time"

	"github.com/janelia-flyem/cleave/pkg/graph"
)

// GroupLabel tags one output group of a cleave. Labels are small positive
// integers chosen by the caller; 0 is reserved for unassigned nodes.
type GroupLabel uint32

// Unassigned marks nodes in components that contain no seed. The solver
// never guesses a group for them.
const Unassigned GroupLabel = 0

// Strategy names accepted in requests and configuration.
const (
	StrategyRegionGrowing = "region-growing"
	StrategyMinCut        = "min-cut"
)

// SeedGroup is a resolved, non-empty set of supervoxels anchoring one output
// group. Supervoxels are sorted ascending; groups are pairwise disjoint.
type SeedGroup struct {
	Label       GroupLabel           `json:"label"`
	Supervoxels []graph.SupervoxelID `json:"supervoxels"`
}

// Assignment maps every supervoxel in the graph to a group label
// (or Unassigned).
type Assignment map[graph.SupervoxelID]GroupLabel

// Request describes one cleave computation.
type Request struct {
	// Body is the agglomerated body to cleave.
	Body graph.BodyID `json:"body"`

	// Seeds lists seed supervoxels per group label.
	Seeds map[GroupLabel][]graph.SupervoxelID `json:"seeds,omitempty"`

	// Points lists seed coordinates per group label. Each point is resolved
	// to the supervoxel under it and merged into that group's seeds.
	Points map[GroupLabel][]graph.Point `json:"points,omitempty"`

	// Strategy selects the solver; empty means the configured default.
	Strategy string `json:"strategy,omitempty"`

	// RequestID correlates logs and results; generated when empty.
	RequestID string `json:"request_id,omitempty"`
}

// Result is the outcome of a cleave computation.
//
// Valid=false does not mean the computation failed: it means the partition
// carries diagnostics (unassigned nodes or stranded group members) the
// operator should inspect before committing.
type Result struct {
	Body       graph.BodyID `json:"body" bson:"body"`
	MutationID uint64       `json:"mutation_id" bson:"mutation_id"`
	RequestID  string       `json:"request_id" bson:"request_id"`
	Strategy   string       `json:"strategy" bson:"strategy"`

	// Assignment covers every node of the graph, including Unassigned ones.
	Assignment Assignment `json:"assignment" bson:"assignment"`

	// Groups holds the per-label supervoxel sets in store write-back shape.
	// Unassigned nodes are not listed here.
	Groups map[GroupLabel][]graph.SupervoxelID `json:"groups" bson:"groups"`

	// Unassigned lists nodes in components containing no seed, ascending.
	Unassigned []graph.SupervoxelID `json:"unassigned,omitempty" bson:"unassigned,omitempty"`

	// Stranded lists labeled nodes that cannot reach their group's seeds
	// inside the group's induced subgraph, per label.
	Stranded map[GroupLabel][]graph.SupervoxelID `json:"stranded,omitempty" bson:"stranded,omitempty"`

	Valid    bool     `json:"valid" bson:"valid"`
	Warnings []string `json:"warnings,omitempty" bson:"warnings,omitempty"`

	NumNodes int           `json:"num_nodes" bson:"num_nodes"`
	NumEdges int           `json:"num_edges" bson:"num_edges"`
	Elapsed  time.Duration `json:"elapsed_ns" bson:"elapsed_ns"`
}

// Config carries the engine options recognized by the service.
type Config struct {
	// MaxGraphNodes rejects bodies with more supervoxels than this before
	// any graph is built. Zero means DefaultMaxGraphNodes.
	MaxGraphNodes int

	// Strategy is the default solver when a request names none.
	Strategy string

	// CacheTTL bounds how long a body graph snapshot may be served from
	// cache without revalidation. Zero means DefaultCacheTTL.
	CacheTTL time.Duration

	// LockTimeout bounds how long a request waits for another cleave on the
	// same body. Zero means DefaultLockTimeout.
	LockTimeout time.Duration
}

// Engine defaults.
const (
	DefaultMaxGraphNodes = 100000
	DefaultCacheTTL      = 5 * time.Minute
	DefaultLockTimeout   = 30 * time.Second
)

func (c Config) withDefaults() Config {
	if c.MaxGraphNodes <= 0 {
		c.MaxGraphNodes = DefaultMaxGraphNodes
	}
	if c.Strategy == "" {
		c.Strategy = StrategyRegionGrowing
	}
	if c.CacheTTL <= 0 {
		c.CacheTTL = DefaultCacheTTL
	}
	if c.LockTimeout <= 0 {
		c.LockTimeout = DefaultLockTimeout
	}
	return c
}

// BodyGraph is one body's adjacency graph snapshot, stamped with the
// mutation ID it was built against. StaleEdges counts edge-list rows that
// referenced a supervoxel no longer in the body and were dropped.
type BodyGraph struct {
	Body       graph.BodyID
	MutationID uint64
	Graph      *graph.Adjacency
	StaleEdges int
}
