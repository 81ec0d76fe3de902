package audit

import (
	"context"
	"time"

	"github.com/janelia-flyem/cleave/pkg/cleave"
	"github.com/janelia-flyem/cleave/pkg/graph"
)

// Entry is one recorded cleave decision.
type Entry struct {
	RequestID  string            `json:"request_id" bson:"request_id"`
	Body       uint64            `json:"body" bson:"body"`
	MutationID uint64            `json:"mutation_id" bson:"mutation_id"`
	Strategy   string            `json:"strategy" bson:"strategy"`
	User       string            `json:"user,omitempty" bson:"user,omitempty"`
	Valid      bool              `json:"valid" bson:"valid"`
	Committed  bool              `json:"committed" bson:"committed"`
	NumNodes   int               `json:"num_nodes" bson:"num_nodes"`
	NumEdges   int               `json:"num_edges" bson:"num_edges"`
	GroupSizes map[uint32]int    `json:"group_sizes" bson:"group_sizes"`
	Unassigned int               `json:"unassigned,omitempty" bson:"unassigned,omitempty"`
	NewBodies  map[uint32]uint64 `json:"new_bodies,omitempty" bson:"new_bodies,omitempty"`
	Warnings   []string          `json:"warnings,omitempty" bson:"warnings,omitempty"`
	Elapsed    time.Duration     `json:"elapsed" bson:"elapsed"`
	RecordedAt time.Time         `json:"recorded_at" bson:"recorded_at"`
}

// FromResult builds an Entry from a computed result. The caller fills in
// User and, after a successful write-back, Committed and NewBodies.
func FromResult(res *cleave.Result) Entry {
	sizes := make(map[uint32]int, len(res.Groups))
	for label, svs := range res.Groups {
		sizes[uint32(label)] = len(svs)
	}
	return Entry{
		RequestID:  res.RequestID,
		Body:       uint64(res.Body),
		MutationID: res.MutationID,
		Strategy:   res.Strategy,
		Valid:      res.Valid,
		NumNodes:   res.NumNodes,
		NumEdges:   res.NumEdges,
		GroupSizes: sizes,
		Unassigned: len(res.Unassigned),
		Warnings:   res.Warnings,
		Elapsed:    res.Elapsed,
		RecordedAt: time.Now().UTC(),
	}
}

// MarkCommitted records the write-back outcome on the entry.
func (e *Entry) MarkCommitted(bodies map[cleave.GroupLabel]graph.BodyID) {
	e.Committed = true
	e.NewBodies = make(map[uint32]uint64, len(bodies))
	for label, body := range bodies {
		e.NewBodies[uint32(label)] = uint64(body)
	}
}

// Recorder persists audit entries.
type Recorder interface {
	// Record stores one entry.
	Record(ctx context.Context, e Entry) error

	// List returns the most recent entries for a body, newest first,
	// capped at limit (0 means a backend-chosen default).
	List(ctx context.Context, body uint64, limit int) ([]Entry, error)

	// Close releases backend resources.
	Close(ctx context.Context) error
}
