package observability

import (
	"context"
	"testing"
	"time"
)

type countingEngineHooks struct {
	stages    int
	completes int
}

func (h *countingEngineHooks) OnStage(context.Context, uint64, string, time.Duration, error) {
	h.stages++
}

func (h *countingEngineHooks) OnComplete(context.Context, uint64, bool, time.Duration, error) {
	h.completes++
}

func TestSetEngineHooks(t *testing.T) {
	defer SetEngineHooks(nil)

	h := &countingEngineHooks{}
	SetEngineHooks(h)

	ctx := context.Background()
	Engine().OnStage(ctx, 1, "GraphBuilt", time.Millisecond, nil)
	Engine().OnComplete(ctx, 1, true, time.Millisecond, nil)

	if h.stages != 1 || h.completes != 1 {
		t.Errorf("hooks not invoked: stages=%d completes=%d", h.stages, h.completes)
	}
}

func TestNilRestoresNoop(t *testing.T) {
	SetEngineHooks(&countingEngineHooks{})
	SetEngineHooks(nil)
	SetCacheHooks(nil)
	SetStoreHooks(nil)

	// Must not panic.
	ctx := context.Background()
	Engine().OnComplete(ctx, 1, false, 0, nil)
	CacheEvents().OnCacheHit(ctx, 1)
	CacheEvents().OnCacheMiss(ctx, 1)
	CacheEvents().OnCacheSet(ctx, 1, 10)
	Store().OnRequest(ctx, "edges", 0, nil)
}
