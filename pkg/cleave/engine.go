package cleave

import (
	"context"
	"slices"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/janelia-flyem/cleave/pkg/cache"
	"github.com/janelia-flyem/cleave/pkg/dvid"
	cerrors "github.com/janelia-flyem/cleave/pkg/errors"
	"github.com/janelia-flyem/cleave/pkg/graph"
	"github.com/janelia-flyem/cleave/pkg/observability"
)

// Engine computes cleaves. It owns no durable state: the only process-wide
// state is the read-through graph cache and the per-body lock table.
// Requests for different bodies run fully in parallel; requests for the
// same body are serialized by an advisory lock held from before the graph
// fetch until the result is reconciled, so a cleave is never computed
// against a graph that a concurrent mutation is invalidating.
type Engine struct {
	store   dvid.Client
	builder *Builder
	locks   *bodyLocker
	cfg     Config
	logger  *log.Logger
}

// NewEngine creates an engine. A nil cache disables caching; a nil logger
// uses the default logger.
func NewEngine(store dvid.Client, c cache.Cache, cfg Config, logger *log.Logger) *Engine {
	cfg = cfg.withDefaults()
	if logger == nil {
		logger = log.Default()
	}
	return &Engine{
		store:   store,
		builder: NewBuilder(store, c, cfg.CacheTTL, cfg.MaxGraphNodes),
		locks:   newBodyLocker(),
		cfg:     cfg,
		logger:  logger,
	}
}

// Config returns the engine's effective configuration (defaults applied).
func (e *Engine) Config() Config { return e.cfg }

// ComputeCleave runs one cleave request through the state machine and
// returns either a populated Result or a structured error. Cancellation is
// honored cooperatively between stages, never mid-expansion, so the
// per-body lock cannot be abandoned in an inconsistent state.
func (e *Engine) ComputeCleave(ctx context.Context, req Request) (*Result, error) {
	start := time.Now()

	if req.Body == 0 {
		return nil, cerrors.New(cerrors.ErrCodeInvalidInput, "body ID is required")
	}
	strategyName := req.Strategy
	if strategyName == "" {
		strategyName = e.cfg.Strategy
	}
	strategy, err := StrategyFor(strategyName)
	if err != nil {
		return nil, err
	}
	if req.RequestID == "" {
		req.RequestID = uuid.NewString()
	}

	logger := e.logger.With("body", req.Body, "request", req.RequestID)
	logger.Debug("cleave request received", "strategy", strategyName)

	release, err := e.locks.acquire(ctx, req.Body, e.cfg.LockTimeout)
	if err != nil {
		e.fail(ctx, req.Body, "Received", start, err)
		return nil, err
	}
	defer release()

	// Stage: GraphBuilt
	if err := ctx.Err(); err != nil {
		e.fail(ctx, req.Body, "GraphBuilt", start, err)
		return nil, err
	}
	stageStart := time.Now()
	bg, err := e.builder.Build(ctx, req.Body)
	observability.Engine().OnStage(ctx, uint64(req.Body), "GraphBuilt", time.Since(stageStart), err)
	if err != nil {
		e.complete(ctx, req.Body, false, start, err)
		return nil, err
	}
	logger.Debug("graph built",
		"nodes", bg.Graph.NumNodes(), "edges", bg.Graph.NumEdges(),
		"stale_edges", bg.StaleEdges, "mutation", bg.MutationID)

	// Stage: SeedsResolved
	if err := ctx.Err(); err != nil {
		e.fail(ctx, req.Body, "SeedsResolved", start, err)
		return nil, err
	}
	stageStart = time.Now()
	seeds, err := resolveSeeds(ctx, e.store, bg.Graph, req)
	observability.Engine().OnStage(ctx, uint64(req.Body), "SeedsResolved", time.Since(stageStart), err)
	if err != nil {
		e.complete(ctx, req.Body, false, start, err)
		return nil, err
	}

	// Stage: Solved. The expansion itself is bounded by the node and edge
	// counts and is not interruptible.
	if err := ctx.Err(); err != nil {
		e.fail(ctx, req.Body, "Solved", start, err)
		return nil, err
	}
	stageStart = time.Now()
	assignment, err := strategy.Partition(bg.Graph, seeds)
	observability.Engine().OnStage(ctx, uint64(req.Body), "Solved", time.Since(stageStart), err)
	if err != nil {
		e.complete(ctx, req.Body, false, start, err)
		return nil, err
	}

	// Stage: Reconciled. Never fails fatally; degrades to Valid=false.
	stageStart = time.Now()
	res := reconcile(bg, seeds, assignment)
	observability.Engine().OnStage(ctx, uint64(req.Body), "Reconciled", time.Since(stageStart), nil)

	res.RequestID = req.RequestID
	res.Strategy = strategyName
	res.Elapsed = time.Since(start)

	logger.Info("cleave computed",
		"strategy", strategyName, "groups", len(res.Groups),
		"unassigned", len(res.Unassigned), "valid", res.Valid,
		"elapsed", res.Elapsed.Round(time.Millisecond))
	e.complete(ctx, req.Body, res.Valid, start, nil)
	return res, nil
}

// Commit writes a computed cleave back to the store. The group with the
// lowest label (plus any unassigned supervoxels) keeps the original body
// ID; every other group is cleaved off into a new body, in ascending label
// order. Returns the body ID per group label.
//
// Commit re-acquires the body lock and verifies the body has not mutated
// since the result was computed; if it has, the caller must recompute.
func (e *Engine) Commit(ctx context.Context, res *Result) (map[GroupLabel]graph.BodyID, error) {
	if res == nil || len(res.Groups) < 2 {
		return nil, cerrors.New(cerrors.ErrCodeInvalidInput, "commit requires a result with at least 2 groups")
	}

	release, err := e.locks.acquire(ctx, res.Body, e.cfg.LockTimeout)
	if err != nil {
		return nil, err
	}
	defer release()

	mutID, err := e.store.FetchBodyMutationID(ctx, res.Body)
	if err != nil {
		return nil, err
	}
	if mutID != res.MutationID {
		return nil, cerrors.New(cerrors.ErrCodeInvalidInput,
			"body %d mutated since the cleave was computed (mutation %d, result built at %d); recompute",
			res.Body, mutID, res.MutationID)
	}

	labels := make([]GroupLabel, 0, len(res.Groups))
	for label := range res.Groups {
		labels = append(labels, label)
	}
	slices.Sort(labels)

	bodies := map[GroupLabel]graph.BodyID{labels[0]: res.Body}
	for _, label := range labels[1:] {
		newBody, err := e.store.WriteCleave(ctx, res.Body, res.Groups[label])
		if err != nil {
			return bodies, err
		}
		bodies[label] = newBody
		e.logger.Info("cleaved group", "body", res.Body, "group", label, "new_body", newBody)
	}

	// The body changed; drop every cached snapshot of it.
	if err := e.builder.Invalidate(ctx, res.Body); err != nil {
		e.logger.Warn("cache invalidation failed", "body", res.Body, "err", err)
	}
	return bodies, nil
}

// InvalidateBody drops every cached graph snapshot of body. Wired to store
// mutation notifications so external callers never flush the cache by hand.
func (e *Engine) InvalidateBody(ctx context.Context, body graph.BodyID) error {
	return e.builder.Invalidate(ctx, body)
}

func (e *Engine) fail(ctx context.Context, body graph.BodyID, stage string, start time.Time, err error) {
	observability.Engine().OnStage(ctx, uint64(body), stage, time.Since(start), err)
	e.complete(ctx, body, false, start, err)
}

func (e *Engine) complete(ctx context.Context, body graph.BodyID, valid bool, start time.Time, err error) {
	observability.Engine().OnComplete(ctx, uint64(body), valid, time.Since(start), err)
}
