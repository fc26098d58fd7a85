// Package lineage fetches dependency payloads from the repository and turns
// them into lineage graphs.
package lineage

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"golang.org/x/text/cases"

	"github.com/dbsmedya/dsplineage/internal/cache"
	"github.com/dbsmedya/dsplineage/internal/config"
	"github.com/dbsmedya/dsplineage/internal/gateway"
	"github.com/dbsmedya/dsplineage/internal/graph"
	"github.com/dbsmedya/dsplineage/internal/logger"
	"github.com/dbsmedya/dsplineage/internal/types"
)

// Options controls what the dependency endpoint is asked for.
type Options struct {
	Recursive          bool
	IncludeImpact      bool
	IncludeLineageFlag bool
	DependencyTypes    []string
}

// OptionsFromConfig builds Options from the lineage section of the configuration.
func OptionsFromConfig(cfg config.LineageConfig) Options {
	return Options{
		Recursive:          cfg.Recursive,
		IncludeImpact:      cfg.IncludeImpact,
		IncludeLineageFlag: cfg.IncludeLineage,
		DependencyTypes:    append([]string(nil), cfg.DependencyTypes...),
	}
}

// DependencySource is the part of the gateway the service needs.
type DependencySource interface {
	GetDependencies(ctx context.Context, objectID string, opts gateway.DependencyOptions) (json.RawMessage, error)
	ListSpaces(ctx context.Context) ([]types.Space, error)
	ListObjects(ctx context.Context, spaceID string) ([]types.DesignObject, error)
}

// Service builds lineage graphs. Every call returns an independently owned
// graph, so a Service is safe for concurrent use.
type Service struct {
	source     DependencySource
	cache      *cache.TypedCache
	normalizer *graph.Normalizer
	shape      Shape
	log        *logger.Logger
}

// NewService creates a Service. The cache is optional and only used to fill
// in metadata the dependency payload lacks and to resolve names.
func NewService(source DependencySource, c *cache.TypedCache, maxDepth int, shape Shape, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewNop()
	}
	return &Service{
		source:     source,
		cache:      c,
		normalizer: graph.NewNormalizer(maxDepth, log),
		shape:      shape,
		log:        log,
	}
}

// FetchAndBuild retrieves the dependencies of objectID and normalizes them
// into a graph rooted at that object.
func (s *Service) FetchAndBuild(ctx context.Context, objectID string, opts Options) (*graph.LineageGraph, error) {
	const op = "fetch lineage of"
	log := s.log.WithOperation("lineage", uuid.NewString()).WithObject(objectID)

	raw, err := s.source.GetDependencies(ctx, objectID, gateway.DependencyOptions{
		Recursive:       opts.Recursive,
		Impact:          opts.IncludeImpact,
		Lineage:         opts.IncludeLineageFlag,
		DependencyTypes: opts.DependencyTypes,
	})
	if err != nil {
		log.Errorw("Dependency request failed", "error", err)
		return nil, classify(op, objectID, err)
	}

	resp, err := Parse(raw, s.shape)
	if err != nil {
		log.Errorw("Dependency response could not be decoded", "error", err)
		return nil, &Error{Op: op, ObjectID: objectID, Kind: ErrMalformedResponse, Err: err}
	}
	if len(resp.Records) == 0 {
		return nil, &Error{Op: op, ObjectID: objectID, Kind: ErrObjectNotFound}
	}

	g, report, err := s.normalizer.Build(ctx, objectID, resp.Records)
	if err != nil {
		if errors.Is(err, graph.ErrNoRecords) {
			return nil, &Error{Op: op, ObjectID: objectID, Kind: ErrMalformedResponse, Err: err}
		}
		return nil, err
	}

	if report.RootSubstituted {
		log.Warnw("Requested object missing from dependency response",
			"requested", report.RequestedRoot, "root", g.Root)
	}

	enriched := s.enrich(g)

	log.Infow("Lineage graph built",
		"shape", resp.Shape.String(),
		"nodes", g.NodeCount(),
		"edges", g.EdgeCount(),
		"skipped", report.Skipped,
		"enriched", enriched,
		"truncated", report.Truncated)

	return g, nil
}

// enrich fills missing node metadata from the cache and returns how many
// nodes changed.
func (s *Service) enrich(g *graph.LineageGraph) int {
	if s.cache == nil || !s.cache.IsReady() {
		return 0
	}
	count := 0
	for _, n := range g.Nodes() {
		cached, ok := s.cache.Object(n.ID())
		if !ok {
			continue
		}
		merged := n.Object.Merge(cached)
		if merged != n.Object {
			g.AddNode(merged, n.Depth, false)
			count++
		}
	}
	return count
}

// Resolve finds an object by id or name. The cache is consulted first; when
// it has not been built the spaces are scanned through the gateway.
func (s *Service) Resolve(ctx context.Context, nameOrID, spaceID string) (types.DesignObject, error) {
	const op = "resolve"

	if s.cache != nil && s.cache.IsReady() {
		if obj, ok := s.cache.Object(nameOrID); ok && (spaceID == "" || obj.SpaceID == spaceID) {
			return obj, nil
		}
		if obj, ok := s.cache.LookupObjectByName(nameOrID, spaceID); ok {
			return obj, nil
		}
		return types.DesignObject{}, &Error{Op: op, ObjectID: nameOrID, Kind: ErrObjectNotFound}
	}

	s.log.Debugw("Cache not ready, resolving through gateway", "name", nameOrID)

	var spaceIDs []string
	if spaceID != "" {
		spaceIDs = []string{spaceID}
	} else {
		spaces, err := s.source.ListSpaces(ctx)
		if err != nil {
			return types.DesignObject{}, classify(op, nameOrID, err)
		}
		for _, sp := range spaces {
			spaceIDs = append(spaceIDs, sp.ID)
		}
	}

	folded := cases.Fold().String(nameOrID)
	var fallback *types.DesignObject
	for _, id := range spaceIDs {
		if err := ctx.Err(); err != nil {
			return types.DesignObject{}, err
		}
		objects, err := s.source.ListObjects(ctx, id)
		if err != nil {
			return types.DesignObject{}, classify(op, nameOrID, err)
		}
		for i := range objects {
			o := objects[i]
			if o.ID == nameOrID || o.QualifiedName == nameOrID || o.TechnicalName == nameOrID || o.BusinessName == nameOrID {
				return o, nil
			}
			if fallback == nil && foldMatches(o, folded) {
				fallback = &o
			}
		}
	}
	if fallback != nil {
		return *fallback, nil
	}
	return types.DesignObject{}, &Error{Op: op, ObjectID: nameOrID, Kind: ErrObjectNotFound}
}

func foldMatches(o types.DesignObject, folded string) bool {
	c := cases.Fold()
	for _, name := range []string{o.QualifiedName, o.TechnicalName, o.BusinessName} {
		if name != "" && c.String(name) == folded {
			return true
		}
	}
	return false
}

// classify maps a gateway failure to the lineage error taxonomy.
func classify(op, objectID string, err error) error {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	case errors.Is(err, gateway.ErrNotFound):
		return &Error{Op: op, ObjectID: objectID, Kind: ErrObjectNotFound, Err: err}
	case errors.Is(err, gateway.ErrMalformedPayload):
		return &Error{Op: op, ObjectID: objectID, Kind: ErrMalformedResponse, Err: err}
	default:
		return &Error{Op: op, ObjectID: objectID, Kind: ErrGatewayUnreachable, Err: err}
	}
}
