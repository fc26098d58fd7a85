// Package gateway talks to the tenant's object repository API.
package gateway

import (
	"context"
	"encoding/json"

	"github.com/dbsmedya/dsplineage/internal/types"
)

// DependencyOptions controls what the dependency endpoint returns.
type DependencyOptions struct {
	Recursive       bool
	Impact          bool
	Lineage         bool
	DependencyTypes []string
}

// Gateway is the remote object repository.
type Gateway interface {
	ListSpaces(ctx context.Context) ([]types.Space, error)
	ListObjects(ctx context.Context, spaceID string) ([]types.DesignObject, error)
	GetDependencies(ctx context.Context, objectID string, opts DependencyOptions) (json.RawMessage, error)
}

// BusinessNamer is implemented by sources that can resolve space business names.
type BusinessNamer interface {
	SpaceBusinessNames(ctx context.Context) (map[string]string, error)
}
