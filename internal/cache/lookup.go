package cache

import (
	"golang.org/x/text/cases"

	"github.com/dbsmedya/dsplineage/internal/types"
)

// LookupObjectByName finds an object by qualified, technical or business
// name. An exact match wins over a case-insensitive one. A non-empty spaceID
// restricts both passes to that space. When several objects share a name
// the one from the earliest space in listing order is returned.
func (c *TypedCache) LookupObjectByName(name, spaceID string) (types.DesignObject, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.snap == nil || name == "" {
		return types.DesignObject{}, false
	}

	if obj, ok := c.pickLocked(c.snap.byName[name], spaceID); ok {
		return obj, true
	}
	return c.pickLocked(c.snap.byFoldedName[cases.Fold().String(name)], spaceID)
}

func (c *TypedCache) pickLocked(ids []string, spaceID string) (types.DesignObject, bool) {
	for _, id := range ids {
		obj := c.snap.objects[id]
		if spaceID == "" || obj.SpaceID == spaceID {
			return obj, true
		}
	}
	return types.DesignObject{}, false
}

// Object returns the cached object with the given id.
func (c *TypedCache) Object(id string) (types.DesignObject, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.snap == nil {
		return types.DesignObject{}, false
	}
	obj, ok := c.snap.objects[id]
	return obj, ok
}

// Space returns the cached space with the given id.
func (c *TypedCache) Space(id string) (types.Space, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.snap == nil {
		return types.Space{}, false
	}
	s, ok := c.snap.spaces[id]
	return s, ok
}

// Spaces returns the loaded spaces in listing order.
func (c *TypedCache) Spaces() ([]types.Space, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.snap == nil {
		return nil, ErrCacheNotReady
	}
	spaces := make([]types.Space, 0, len(c.snap.spaceOrder))
	for _, id := range c.snap.spaceOrder {
		spaces = append(spaces, c.snap.spaces[id])
	}
	return spaces, nil
}

// ObjectsInSpace returns the objects of one space in listing order.
func (c *TypedCache) ObjectsInSpace(spaceID string) ([]types.DesignObject, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.snap == nil {
		return nil, ErrCacheNotReady
	}
	ids := c.snap.bySpace[spaceID]
	objects := make([]types.DesignObject, 0, len(ids))
	for _, id := range ids {
		objects = append(objects, c.snap.objects[id])
	}
	return objects, nil
}
