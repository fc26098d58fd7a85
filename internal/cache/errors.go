package cache

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrCacheNotReady is returned by lookups before a build has completed.
	// Callers are expected to fall back to the gateway.
	ErrCacheNotReady = errors.New("cache not ready")

	// ErrBuildInProgress is returned by Build when another build is running.
	ErrBuildInProgress = errors.New("cache build in progress")

	// ErrInvalidated is returned by a build whose result was discarded
	// because the cache was invalidated while it ran.
	ErrInvalidated = errors.New("cache invalidated during build")
)

// PartialBuildError reports spaces that could not be loaded. The cache is
// still committed with every space that succeeded and IsReady reports true.
type PartialBuildError struct {
	Failed map[string]error
	Total  int
	Cache  *TypedCache
}

func (e *PartialBuildError) Error() string {
	ids := e.FailedSpaces()
	return fmt.Sprintf("cache build partial: %d of %d spaces failed: %s",
		len(ids), e.Total, strings.Join(ids, ", "))
}

// Unwrap exposes the per-space causes in space id order.
func (e *PartialBuildError) Unwrap() []error {
	ids := e.FailedSpaces()
	errs := make([]error, 0, len(ids))
	for _, id := range ids {
		errs = append(errs, e.Failed[id])
	}
	return errs
}

// FailedSpaces returns the failed space ids, sorted.
func (e *PartialBuildError) FailedSpaces() []string {
	ids := make([]string, 0, len(e.Failed))
	for id := range e.Failed {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
