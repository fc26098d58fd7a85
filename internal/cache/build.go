package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/text/cases"

	"github.com/dbsmedya/dsplineage/internal/gateway"
	"github.com/dbsmedya/dsplineage/internal/lock"
	"github.com/dbsmedya/dsplineage/internal/types"
)

// Progress is reported after each space has been processed.
type Progress struct {
	SpacesProcessed int
	TotalSpaces     int
	ObjectsLoaded   int
	SpaceID         string
	Err             error
}

// ProgressFunc receives build progress. Calls are serialized.
type ProgressFunc func(Progress)

type spaceResult struct {
	objects []types.DesignObject
	err     error
}

// Build populates the cache. It fails fast with ErrBuildInProgress when
// another build is running. When some spaces fail the loaded ones are still
// committed and a *PartialBuildError is returned alongside the stats.
func (c *TypedCache) Build(ctx context.Context, progress ProgressFunc) (*Stats, error) {
	if err := c.guard.TryAcquire(); err != nil {
		if errors.Is(err, lock.ErrLockHeld) {
			return nil, ErrBuildInProgress
		}
		return nil, err
	}
	defer c.guard.Release()

	return c.build(ctx, progress)
}

// BuildWait is Build, but waits for an in-flight build to finish first.
func (c *TypedCache) BuildWait(ctx context.Context, progress ProgressFunc) (*Stats, error) {
	if err := c.guard.Acquire(ctx); err != nil {
		return nil, err
	}
	defer c.guard.Release()

	return c.build(ctx, progress)
}

func (c *TypedCache) build(ctx context.Context, progress ProgressFunc) (*Stats, error) {
	bctx, cancel := context.WithCancel(ctx)
	defer cancel()

	c.mu.Lock()
	gen := c.generation
	prev := c.state
	c.state = StateBuilding
	c.cancelBuild = cancel
	c.mu.Unlock()

	start := time.Now()
	c.log.Infow("Building object cache", "generation", gen)

	snap, failed, err := c.load(bctx, progress)

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.generation != gen {
		c.log.Warnw("Discarding cache build after invalidation", "generation", gen)
		return nil, ErrInvalidated
	}
	c.cancelBuild = nil

	if err != nil {
		c.state = prev
		return nil, fmt.Errorf("cache build: %w", err)
	}

	snap.builtAt = time.Now()
	snap.duration = time.Since(start)
	c.snap = snap
	c.state = StateReady
	if len(failed) > 0 {
		c.state = StatePartial
	}

	stats := c.statsLocked()
	c.log.Infow("Object cache built",
		"state", c.state.String(),
		"spaces", stats.Spaces,
		"objects", stats.Objects,
		"failed_spaces", len(failed),
		"duration", stats.Duration)

	if len(failed) > 0 {
		return stats, &PartialBuildError{
			Failed: failed,
			Total:  len(snap.spaceStats),
			Cache:  c,
		}
	}
	return stats, nil
}

// load fetches everything into a fresh snapshot without touching the
// committed one. Per-space failures are collected, not returned.
func (c *TypedCache) load(ctx context.Context, progress ProgressFunc) (*snapshot, map[string]error, error) {
	spaces, err := c.source.ListSpaces(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("list spaces: %w", err)
	}

	if namer, ok := c.source.(gateway.BusinessNamer); ok {
		names, err := namer.SpaceBusinessNames(ctx)
		if err != nil {
			c.log.Warnw("Could not load space business names", "error", err)
		}
		for i := range spaces {
			if bn, ok := names[spaces[i].ID]; ok && spaces[i].BusinessName == "" {
				spaces[i].BusinessName = bn
			}
		}
	}

	results := make([]spaceResult, len(spaces))
	var (
		mu        sync.Mutex
		processed int
		loaded    int
	)

	g := new(errgroup.Group)
	g.SetLimit(c.opts.Concurrency)

	for i, space := range spaces {
		if err := ctx.Err(); err != nil {
			break
		}
		i, space := i, space
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			objects, err := c.fetchObjects(ctx, space.ID)
			results[i] = spaceResult{objects: objects, err: err}

			mu.Lock()
			processed++
			if err == nil {
				loaded += len(objects)
			}
			if progress != nil {
				progress(Progress{
					SpacesProcessed: processed,
					TotalSpaces:     len(spaces),
					ObjectsLoaded:   loaded,
					SpaceID:         space.ID,
					Err:             err,
				})
			}
			mu.Unlock()

			return ctx.Err()
		})
	}

	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	snap, failed := c.assemble(spaces, results)
	return snap, failed, nil
}

// retryable reports whether a failed space load is worth another attempt.
// Gateway errors that already exhausted the client's own retries are final.
func retryable(err error) bool {
	return gateway.IsTransient(err) && !errors.Is(err, gateway.ErrUnreachable)
}

// fetchObjects loads one space, retrying transient failures.
func (c *TypedCache) fetchObjects(ctx context.Context, spaceID string) ([]types.DesignObject, error) {
	log := c.log.WithSpace(spaceID)
	backoff := c.opts.RetryBackoff

	for attempt := 0; ; attempt++ {
		objects, err := c.source.ListObjects(ctx, spaceID)
		if err == nil {
			return objects, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if !retryable(err) || attempt >= c.opts.BuildRetries {
			log.Warnw("Failed to load space", "attempts", attempt+1, "error", err)
			return nil, err
		}

		log.Debugw("Retrying space", "attempt", attempt+1, "error", err)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
			backoff *= 2
		}
	}
}

// assemble merges per-space results in space order.
func (c *TypedCache) assemble(spaces []types.Space, results []spaceResult) (*snapshot, map[string]error) {
	snap := &snapshot{
		spaces:       make(map[string]types.Space, len(spaces)),
		objects:      make(map[string]types.DesignObject),
		bySpace:      make(map[string][]string, len(spaces)),
		byName:       make(map[string][]string),
		byFoldedName: make(map[string][]string),
		spaceStats:   make(map[string]SpaceStat, len(spaces)),
	}
	failed := make(map[string]error)
	fold := cases.Fold()

	for i, space := range spaces {
		res := results[i]
		if res.err != nil {
			failed[space.ID] = res.err
			snap.spaceStats[space.ID] = SpaceStat{Status: "failed", Error: res.err.Error()}
			continue
		}

		snap.spaces[space.ID] = space
		snap.spaceOrder = append(snap.spaceOrder, space.ID)

		count := 0
		for _, obj := range res.objects {
			if obj.SpaceID == "" {
				obj.SpaceID = space.ID
			}
			if _, dup := snap.objects[obj.ID]; dup {
				c.log.Debugw("Duplicate object id across spaces", "object", obj.ID, "space", space.ID)
				continue
			}
			snap.objects[obj.ID] = obj
			snap.bySpace[space.ID] = append(snap.bySpace[space.ID], obj.ID)
			count++

			for _, name := range objectNames(obj) {
				snap.byName[name] = appendUnique(snap.byName[name], obj.ID)
				folded := fold.String(name)
				snap.byFoldedName[folded] = appendUnique(snap.byFoldedName[folded], obj.ID)
			}
		}
		snap.spaceStats[space.ID] = SpaceStat{ObjectCount: count, Status: "ok"}
	}

	return snap, failed
}

func objectNames(o types.DesignObject) []string {
	names := make([]string, 0, 3)
	for _, n := range []string{o.QualifiedName, o.TechnicalName, o.BusinessName} {
		if n == "" {
			continue
		}
		dup := false
		for _, existing := range names {
			if existing == n {
				dup = true
				break
			}
		}
		if !dup {
			names = append(names, n)
		}
	}
	return names
}

func appendUnique(ids []string, id string) []string {
	for _, existing := range ids {
		if existing == id {
			return ids
		}
	}
	return append(ids, id)
}
