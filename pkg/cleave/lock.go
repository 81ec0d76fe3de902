package cleave

import (
	"context"
	"sync"
	"time"

	cerrors "github.com/janelia-flyem/cleave/pkg/errors"
	"github.com/janelia-flyem/cleave/pkg/graph"
)

// bodyLocker serializes cleaves per body. Requests for different bodies
// proceed in parallel; a second cleave on the same body waits up to the
// configured timeout and then fails with LOCK_TIMEOUT. Lock entries are
// reference-counted so the map does not grow with the number of bodies
// ever touched.
type bodyLocker struct {
	mu    sync.Mutex
	locks map[graph.BodyID]*bodyLock
}

type bodyLock struct {
	ch   chan struct{} // capacity 1; holding the token means holding the lock
	refs int
}

func newBodyLocker() *bodyLocker {
	return &bodyLocker{locks: make(map[graph.BodyID]*bodyLock)}
}

// acquire takes the lock for body, waiting up to timeout. The returned
// release function must be called exactly once on every exit path.
func (l *bodyLocker) acquire(ctx context.Context, body graph.BodyID, timeout time.Duration) (release func(), err error) {
	l.mu.Lock()
	bl, ok := l.locks[body]
	if !ok {
		bl = &bodyLock{ch: make(chan struct{}, 1)}
		l.locks[body] = bl
	}
	bl.refs++
	l.mu.Unlock()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case bl.ch <- struct{}{}:
		return func() {
			<-bl.ch
			l.put(body, bl)
		}, nil
	case <-timer.C:
		l.put(body, bl)
		return nil, cerrors.New(cerrors.ErrCodeLockTimeout,
			"another cleave of body %d is in progress (waited %s)", body, timeout)
	case <-ctx.Done():
		l.put(body, bl)
		return nil, ctx.Err()
	}
}

func (l *bodyLocker) put(body graph.BodyID, bl *bodyLock) {
	l.mu.Lock()
	defer l.mu.Unlock()
	bl.refs--
	if bl.refs == 0 {
		delete(l.locks, body)
	}
}
