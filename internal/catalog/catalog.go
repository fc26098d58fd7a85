// Package catalog reads spaces and design objects from a SQL replica of the
// object repository. It is an alternative cache source to the REST gateway.
package catalog

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dbsmedya/dsplineage/internal/config"
	"github.com/dbsmedya/dsplineage/internal/gateway"
	"github.com/dbsmedya/dsplineage/internal/logger"
	"github.com/dbsmedya/dsplineage/internal/sqlutil"
	"github.com/dbsmedya/dsplineage/internal/types"
)

var _ gateway.BusinessNamer = (*Catalog)(nil)

// Catalog serves space and object listings from SQL.
type Catalog struct {
	db           *sql.DB
	spacesTable  string
	objectsTable string
	log          *logger.Logger
}

// Open connects to the configured replica and returns a Catalog.
func Open(ctx context.Context, cfg *config.CatalogConfig, log *logger.Logger) (*Catalog, error) {
	db, err := dial(ctx, &cfg.DatabaseConfig, connectAttempts, connectBackoff, log)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to catalog database: %w", err)
	}

	c, err := New(db, cfg, log)
	if err != nil {
		db.Close()
		return nil, err
	}
	return c, nil
}

// New wraps an open database handle. Table names are validated before use.
func New(db *sql.DB, cfg *config.CatalogConfig, log *logger.Logger) (*Catalog, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection cannot be nil")
	}
	if log == nil {
		log = logger.NewNop()
	}

	spaces, err := sqlutil.QuoteTable(cfg.SpacesTable)
	if err != nil {
		return nil, fmt.Errorf("catalog.spaces_table: %w", err)
	}
	objects, err := sqlutil.QuoteTable(cfg.ObjectsTable)
	if err != nil {
		return nil, fmt.Errorf("catalog.objects_table: %w", err)
	}

	return &Catalog{
		db:           db,
		spacesTable:  spaces,
		objectsTable: objects,
		log:          log,
	}, nil
}

// ListSpaces returns all spaces ordered by id.
func (c *Catalog) ListSpaces(ctx context.Context) ([]types.Space, error) {
	query := fmt.Sprintf("SELECT space_id, label, business_name FROM %s ORDER BY space_id", c.spacesTable)

	rows, err := c.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query spaces: %w", err)
	}
	defer rows.Close()

	var spaces []types.Space
	for rows.Next() {
		var id string
		var label, business sql.NullString
		if err := rows.Scan(&id, &label, &business); err != nil {
			return nil, fmt.Errorf("failed to scan space: %w", err)
		}
		spaces = append(spaces, types.Space{
			ID:           id,
			Label:        label.String,
			BusinessName: business.String,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read spaces: %w", err)
	}

	c.log.Debugw("Loaded spaces from catalog", "count", len(spaces))
	return spaces, nil
}

// ListObjects returns the design objects of one space.
func (c *Catalog) ListObjects(ctx context.Context, spaceID string) ([]types.DesignObject, error) {
	query := fmt.Sprintf(
		"SELECT id, qualified_name, technical_name, business_name, kind FROM %s WHERE space_id = ? ORDER BY technical_name",
		c.objectsTable)

	rows, err := c.db.QueryContext(ctx, query, spaceID)
	if err != nil {
		return nil, fmt.Errorf("failed to query objects of space %s: %w", spaceID, err)
	}
	defer rows.Close()

	var objects []types.DesignObject
	for rows.Next() {
		var id string
		var qualified, technical, business, kind sql.NullString
		if err := rows.Scan(&id, &qualified, &technical, &business, &kind); err != nil {
			return nil, fmt.Errorf("failed to scan object: %w", err)
		}
		objects = append(objects, types.DesignObject{
			ID:            id,
			QualifiedName: qualified.String,
			TechnicalName: technical.String,
			BusinessName:  business.String,
			Kind:          kind.String,
			SpaceID:       spaceID,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read objects of space %s: %w", spaceID, err)
	}

	return objects, nil
}

// SpaceBusinessNames maps space ids to business names stored in the spaces table.
func (c *Catalog) SpaceBusinessNames(ctx context.Context) (map[string]string, error) {
	spaces, err := c.ListSpaces(ctx)
	if err != nil {
		return nil, err
	}
	names := make(map[string]string, len(spaces))
	for _, s := range spaces {
		if s.BusinessName != "" {
			names[s.ID] = s.BusinessName
		}
	}
	return names, nil
}

// Ping verifies the connection is alive.
func (c *Catalog) Ping(ctx context.Context) error {
	if err := c.db.PingContext(ctx); err != nil {
		return fmt.Errorf("catalog ping failed: %w", err)
	}
	return nil
}

// Close closes the underlying connection pool.
func (c *Catalog) Close() error {
	return c.db.Close()
}
