// Package observability provides hooks for metrics, tracing, and logging.
//
// This package enables optional instrumentation without adding hard
// dependencies on specific observability backends. Consumers register hooks
// at startup to receive events about engine stages, cache operations, and
// store requests; libraries call the accessor functions, which always return
// a valid (possibly no-op) implementation.
//
// Register hooks at application startup:
//
//	func main() {
//	    observability.SetEngineHooks(&myEngineHooks{})
//	    observability.SetCacheHooks(&myCacheHooks{})
//	    // ... run application
//	}
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Engine Hooks
// =============================================================================

// EngineHooks receives events from the cleave engine's request state machine.
type EngineHooks interface {
	// OnStage fires when a request completes a stage (GraphBuilt,
	// SeedsResolved, Solved, Reconciled) or enters Failed.
	OnStage(ctx context.Context, body uint64, stage string, duration time.Duration, err error)

	// OnComplete fires once per request with the terminal outcome.
	OnComplete(ctx context.Context, body uint64, valid bool, duration time.Duration, err error)
}

// =============================================================================
// Cache Hooks
// =============================================================================

// CacheHooks receives events from graph cache operations.
type CacheHooks interface {
	// OnCacheHit records a cache hit.
	OnCacheHit(ctx context.Context, body uint64)

	// OnCacheMiss records a cache miss.
	OnCacheMiss(ctx context.Context, body uint64)

	// OnCacheSet records a cache write.
	OnCacheSet(ctx context.Context, body uint64, size int)
}

// =============================================================================
// Store Hooks
// =============================================================================

// StoreHooks receives events from DVID store requests.
type StoreHooks interface {
	// OnRequest records a completed store request.
	OnRequest(ctx context.Context, endpoint string, duration time.Duration, err error)
}

// =============================================================================
// No-op Defaults
// =============================================================================

type noopEngineHooks struct{}

func (noopEngineHooks) OnStage(context.Context, uint64, string, time.Duration, error) {}
func (noopEngineHooks) OnComplete(context.Context, uint64, bool, time.Duration, error) {}

type noopCacheHooks struct{}

func (noopCacheHooks) OnCacheHit(context.Context, uint64)      {}
func (noopCacheHooks) OnCacheMiss(context.Context, uint64)     {}
func (noopCacheHooks) OnCacheSet(context.Context, uint64, int) {}

type noopStoreHooks struct{}

func (noopStoreHooks) OnRequest(context.Context, string, time.Duration, error) {}

// =============================================================================
// Registry
// =============================================================================

var (
	mu          sync.RWMutex
	engineHooks EngineHooks = noopEngineHooks{}
	cacheHooks  CacheHooks  = noopCacheHooks{}
	storeHooks  StoreHooks  = noopStoreHooks{}
)

// SetEngineHooks registers engine hooks. Pass nil to restore the no-op default.
func SetEngineHooks(h EngineHooks) {
	mu.Lock()
	defer mu.Unlock()
	if h == nil {
		engineHooks = noopEngineHooks{}
		return
	}
	engineHooks = h
}

// SetCacheHooks registers cache hooks. Pass nil to restore the no-op default.
func SetCacheHooks(h CacheHooks) {
	mu.Lock()
	defer mu.Unlock()
	if h == nil {
		cacheHooks = noopCacheHooks{}
		return
	}
	cacheHooks = h
}

// SetStoreHooks registers store hooks. Pass nil to restore the no-op default.
func SetStoreHooks(h StoreHooks) {
	mu.Lock()
	defer mu.Unlock()
	if h == nil {
		storeHooks = noopStoreHooks{}
		return
	}
	storeHooks = h
}

// Engine returns the registered engine hooks, never nil.
func Engine() EngineHooks {
	mu.RLock()
	defer mu.RUnlock()
	return engineHooks
}

// CacheEvents returns the registered cache hooks, never nil.
func CacheEvents() CacheHooks {
	mu.RLock()
	defer mu.RUnlock()
	return cacheHooks
}

// Store returns the registered store hooks, never nil.
func Store() StoreHooks {
	mu.RLock()
	defer mu.RUnlock()
	return storeHooks
}
