package cache

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func builtCache(t *testing.T) *TypedCache {
	t.Helper()
	c := New(newFakeSource(), testOptions(), nil)
	_, err := c.Build(context.Background(), nil)
	require.NoError(t, err)
	return c
}

func TestLookupObjectByName(t *testing.T) {
	c := builtCache(t)

	tests := []struct {
		name    string
		query   string
		space   string
		wantID  string
		wantHit bool
	}{
		{"exact technical", "ORDERS", "", "o1", true},
		{"exact qualified", "S1.ORDERS", "", "o1", true},
		{"exact beats fold", "Orders", "", "o4", true},
		{"case-insensitive fallback", "customers", "", "o3", true},
		{"business name", "order archive", "", "o4", true},
		{"space restriction exact", "ORDERS", "S3", "o4", true},
		{"space restriction miss", "CUSTOMERS", "S1", "", false},
		{"unknown", "NOPE", "", "", false},
		{"empty", "", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			obj, ok := c.LookupObjectByName(tt.query, tt.space)
			assert.Equal(t, tt.wantHit, ok)
			if tt.wantHit {
				assert.Equal(t, tt.wantID, obj.ID)
			}
		})
	}
}

func TestLookupBeforeBuild(t *testing.T) {
	c := New(newFakeSource(), testOptions(), nil)

	_, ok := c.LookupObjectByName("ORDERS", "")
	assert.False(t, ok)

	_, err := c.Spaces()
	assert.ErrorIs(t, err, ErrCacheNotReady)

	_, err = c.ObjectsInSpace("S1")
	assert.ErrorIs(t, err, ErrCacheNotReady)
}

func TestObjectsInSpace(t *testing.T) {
	c := builtCache(t)

	objects, err := c.ObjectsInSpace("S1")
	require.NoError(t, err)
	require.Len(t, objects, 2)
	assert.Equal(t, "o1", objects[0].ID)
	assert.Equal(t, "o2", objects[1].ID)

	objects, err = c.ObjectsInSpace("UNKNOWN")
	require.NoError(t, err)
	assert.Empty(t, objects)
}
