// Package cache holds the process-wide snapshot of spaces and design objects.
//
// A TypedCache moves through empty, building, ready or partial, and
// invalidated. Builds are serialized; a build that finishes after an
// invalidation discards its result instead of repopulating the cache.
package cache

import (
	"context"
	"sync"
	"time"

	"github.com/dbsmedya/dsplineage/internal/lock"
	"github.com/dbsmedya/dsplineage/internal/logger"
	"github.com/dbsmedya/dsplineage/internal/types"
)

// State is the cache lifecycle state.
type State int

const (
	StateEmpty State = iota
	StateBuilding
	StateReady
	StatePartial
	StateInvalidated
)

func (s State) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StateBuilding:
		return "building"
	case StateReady:
		return "ready"
	case StatePartial:
		return "partial"
	case StateInvalidated:
		return "invalidated"
	default:
		return "unknown"
	}
}

// Source lists spaces and their objects. Both the REST gateway and the SQL
// catalog satisfy it.
type Source interface {
	ListSpaces(ctx context.Context) ([]types.Space, error)
	ListObjects(ctx context.Context, spaceID string) ([]types.DesignObject, error)
}

// Options tunes the build.
type Options struct {
	// BuildRetries is how many extra attempts a failing space gets.
	BuildRetries int
	// RetryBackoff is the pause before the first retry; it doubles after each.
	RetryBackoff time.Duration
	// Concurrency is the number of spaces fetched in parallel.
	Concurrency int
}

// SpaceStat describes the outcome of loading one space.
type SpaceStat struct {
	ObjectCount int    `json:"objectCount"`
	Status      string `json:"status"`
	Error       string `json:"error,omitempty"`
}

// Stats summarizes the committed snapshot.
type Stats struct {
	State      State                `json:"-"`
	Loaded     bool                 `json:"loaded"`
	Spaces     int                  `json:"spaces"`
	Objects    int                  `json:"objects"`
	Names      int                  `json:"names"`
	BuiltAt    time.Time            `json:"builtAt"`
	Duration   time.Duration        `json:"duration"`
	SpaceStats map[string]SpaceStat `json:"spaceStats"`
}

// snapshot is the immutable result of one build.
type snapshot struct {
	spaces       map[string]types.Space
	spaceOrder   []string
	objects      map[string]types.DesignObject
	bySpace      map[string][]string
	byName       map[string][]string
	byFoldedName map[string][]string
	spaceStats   map[string]SpaceStat
	builtAt      time.Time
	duration     time.Duration
}

// TypedCache is safe for concurrent use.
type TypedCache struct {
	source Source
	opts   Options
	log    *logger.Logger
	guard  *lock.BuildLock

	mu          sync.RWMutex
	state       State
	generation  uint64
	cancelBuild context.CancelFunc
	snap        *snapshot
}

// New creates an empty cache reading from source.
func New(source Source, opts Options, log *logger.Logger) *TypedCache {
	if log == nil {
		log = logger.NewNop()
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}
	if opts.BuildRetries < 0 {
		opts.BuildRetries = 0
	}
	return &TypedCache{
		source: source,
		opts:   opts,
		log:    log,
		guard:  lock.NewBuildLock("cache-build"),
		state:  StateEmpty,
	}
}

// State returns the current lifecycle state.
func (c *TypedCache) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// IsReady reports whether a committed snapshot, complete or partial, can
// serve lookups. A rebuild in progress keeps the previous snapshot readable.
func (c *TypedCache) IsReady() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snap != nil
}

// Invalidate drops the snapshot and cancels any in-flight build.
func (c *TypedCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.snap = nil
	c.generation++
	c.state = StateInvalidated
	if c.cancelBuild != nil {
		c.cancelBuild()
		c.cancelBuild = nil
	}
	c.log.Infow("Cache invalidated", "generation", c.generation)
}

// BuiltAt returns when the current snapshot was committed, or the zero time.
func (c *TypedCache) BuiltAt() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.snap == nil {
		return time.Time{}
	}
	return c.snap.builtAt
}

// Age returns how long ago the snapshot was committed, or zero when empty.
func (c *TypedCache) Age() time.Duration {
	built := c.BuiltAt()
	if built.IsZero() {
		return 0
	}
	return time.Since(built)
}

// IsStale reports whether the snapshot is missing or older than maxAge.
// A non-positive maxAge never expires.
func (c *TypedCache) IsStale(maxAge time.Duration) bool {
	if !c.IsReady() {
		return true
	}
	return maxAge > 0 && c.Age() > maxAge
}

// Stats returns a copy of the snapshot statistics.
func (c *TypedCache) Stats() *Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.statsLocked()
}

func (c *TypedCache) statsLocked() *Stats {
	st := &Stats{State: c.state, SpaceStats: map[string]SpaceStat{}}
	if c.snap == nil {
		return st
	}
	st.Loaded = true
	st.Spaces = len(c.snap.spaces)
	st.Objects = len(c.snap.objects)
	st.Names = len(c.snap.byName)
	st.BuiltAt = c.snap.builtAt
	st.Duration = c.snap.duration
	for id, s := range c.snap.spaceStats {
		st.SpaceStats[id] = s
	}
	return st
}
