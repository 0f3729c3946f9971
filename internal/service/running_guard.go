package service

import (
	"context"
	"sync"
)

// runningLoadsGuard allows one load per key (target + table) at a time, so a
// file-watch reload and a scheduled reload of the same table never interleave.
// idle is open while any load runs and closed when the last one finishes.
type runningLoadsGuard struct {
	mu      sync.Mutex
	running map[string]struct{}
	idle    chan struct{}
}

// TryLock marks key as running. Returns false if it already is.
func (g *runningLoadsGuard) TryLock(key string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, busy := g.running[key]; busy {
		return false
	}
	if len(g.running) == 0 {
		g.running = make(map[string]struct{})
		g.idle = make(chan struct{})
	}
	g.running[key] = struct{}{}
	return true
}

// Unlock releases key. Must follow a successful TryLock.
func (g *runningLoadsGuard) Unlock(key string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.running[key]; !ok {
		return
	}
	delete(g.running, key)
	if len(g.running) == 0 {
		close(g.idle)
		g.idle = nil
	}
}

// WaitAll blocks until no load is running or ctx is done.
func (g *runningLoadsGuard) WaitAll(ctx context.Context) {
	g.mu.Lock()
	idle := g.idle
	g.mu.Unlock()
	if idle == nil {
		return
	}
	select {
	case <-idle:
	case <-ctx.Done():
	}
}
