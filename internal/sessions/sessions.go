// Package sessions bounds the number of live collection engines held in
// memory. One engine is cached per owning user; capacity pressure evicts
// the least-recently-accessed entry and a periodic sweep drops entries
// untouched past their time-to-live.
package sessions

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"cratedex/internal/collection"
	"cratedex/internal/shared"
)

// Clock abstracts wall time so eviction is testable without sleeping.
type Clock interface {
	Now() time.Time
}

// SystemClock is the real clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// Builder constructs and loads an engine for a key. Called at most once
// per in-flight miss; concurrent callers for the same key share the one
// build.
type Builder func(ctx context.Context, key string) (*collection.Engine, error)

// Options configures a Manager.
type Options struct {
	MaxInstances int
	TTL          time.Duration
	Clock        Clock
	Logger       *log.Logger
}

type entry struct {
	engine   *collection.Engine
	ready    chan struct{} // closed when construction finishes
	err      error
	lastUsed time.Time
}

// Manager caches one engine per owner key. Per-entry states are
// absent → constructing → ready; a failed construction caches nothing,
// so a retry on the same key starts fresh.
type Manager struct {
	mu      sync.Mutex
	entries map[string]*entry

	max    int
	ttl    time.Duration
	clock  Clock
	logger *log.Logger
}

// NewManager creates a Manager. Zero MaxInstances defaults to 16, zero
// TTL to 30 minutes, nil Clock to the system clock.
func NewManager(opts Options) *Manager {
	if opts.MaxInstances <= 0 {
		opts.MaxInstances = 16
	}
	if opts.TTL <= 0 {
		opts.TTL = 30 * time.Minute
	}
	if opts.Clock == nil {
		opts.Clock = SystemClock{}
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	return &Manager{
		entries: make(map[string]*entry),
		max:     opts.MaxInstances,
		ttl:     opts.TTL,
		clock:   opts.Clock,
		logger:  opts.Logger,
	}
}

// Get returns the cached engine for key, building one via build on a
// miss. Concurrent callers for the same key await the same in-flight
// build rather than starting a second one; build failures propagate to
// every waiter and leave no entry behind.
func (m *Manager) Get(ctx context.Context, key string, build Builder) (*collection.Engine, error) {
	m.mu.Lock()
	if ent, ok := m.entries[key]; ok {
		ent.lastUsed = m.clock.Now()
		m.mu.Unlock()

		select {
		case <-ent.ready:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		if ent.err != nil {
			return nil, ent.err
		}
		return ent.engine, nil
	}

	ent := &entry{ready: make(chan struct{}), lastUsed: m.clock.Now()}
	m.entries[key] = ent
	m.evictOverCapacityLocked(key)
	m.mu.Unlock()

	engine, err := build(ctx, key)

	m.mu.Lock()
	if err != nil {
		ent.err = err
		// Only drop our own entry: Invalidate plus a fresh Get may have
		// replaced it under this key while the build was in flight.
		if m.entries[key] == ent {
			delete(m.entries, key)
		}
	} else {
		ent.engine = engine
	}
	m.mu.Unlock()
	close(ent.ready)

	return engine, err
}

// Invalidate forcibly drops the entry for key, e.g. when the caller knows
// the backing document changed out-of-band.
func (m *Manager) Invalidate(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.entries[key]; ok {
		delete(m.entries, key)
		m.logger.Debug("session invalidated", "key", key)
	}
}

// Len reports the number of cached entries, in-flight builds included.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// Sweep drops every entry untouched for longer than the TTL and returns
// how many were removed. Entries still constructing are never swept.
func (m *Manager) Sweep() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := m.clock.Now().Add(-m.ttl)
	removed := 0
	for key, ent := range m.entries {
		if ent.engine == nil && ent.err == nil {
			continue // still constructing
		}
		if ent.lastUsed.Before(cutoff) {
			delete(m.entries, key)
			removed++
		}
	}
	if removed > 0 {
		m.logger.Debug("session sweep", "removed", removed, "remaining", len(m.entries))
	}
	return removed
}

// Run sweeps on the given interval until ctx is cancelled.
func (m *Manager) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Sweep()
		}
	}
}

// evictOverCapacityLocked evicts the single least-recently-used entry
// while the cache exceeds capacity. An O(n) scan is fine, the bound is
// small. The entry being inserted (skip) is exempt.
func (m *Manager) evictOverCapacityLocked(skip string) {
	for len(m.entries) > m.max {
		var oldestKey string
		var oldest time.Time
		for key, ent := range m.entries {
			if key == skip {
				continue
			}
			if oldestKey == "" || ent.lastUsed.Before(oldest) {
				oldestKey = key
				oldest = ent.lastUsed
			}
		}
		if oldestKey == "" {
			return
		}
		delete(m.entries, oldestKey)
		m.logger.Debug("session evicted", "key", oldestKey)
	}
}
