// Package dvid provides the client for the DVID segmentation store.
//
// The cleave engine consumes four store operations: the member supervoxels
// of a body, the weighted edge list among them, the supervoxel under a voxel
// coordinate, and the cleave write-back. All calls are synchronous and
// fallible; transient failures (network errors, 5xx responses) surface as
// STORE_UNAVAILABLE after bounded retries, while a missing body surfaces as
// BODY_NOT_FOUND. The engine treats this package as a black box behind the
// Client interface, so tests substitute an in-memory fake.
package dvid

import (
	"context"

	"github.com/janelia-flyem/cleave/pkg/graph"
)

// Client is the store interface consumed by the cleave engine.
type Client interface {
	// FetchBodyMembers returns the supervoxel IDs currently composing body.
	FetchBodyMembers(ctx context.Context, body graph.BodyID) ([]graph.SupervoxelID, error)

	// FetchBodyEdges returns the weighted edge list for body's supervoxels.
	// The list may lag membership changes; callers must filter edges whose
	// endpoints are no longer members.
	FetchBodyEdges(ctx context.Context, body graph.BodyID) ([]graph.Edge, error)

	// FetchBodyMutationID returns the body's current mutation ID, which
	// increases whenever the body is changed on the store side.
	FetchBodyMutationID(ctx context.Context, body graph.BodyID) (uint64, error)

	// FetchSupervoxelAt returns the supervoxel under the given voxel
	// coordinate.
	FetchSupervoxelAt(ctx context.Context, p graph.Point) (graph.SupervoxelID, error)

	// WriteCleave splits the listed supervoxels out of body into a new body
	// and returns the new body's ID. One call per cleaved-off group.
	WriteCleave(ctx context.Context, body graph.BodyID, supervoxels []graph.SupervoxelID) (graph.BodyID, error)
}
