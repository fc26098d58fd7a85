package lineage

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dbsmedya/dsplineage/internal/cache"
	"github.com/dbsmedya/dsplineage/internal/config"
	"github.com/dbsmedya/dsplineage/internal/gateway"
	"github.com/dbsmedya/dsplineage/internal/graph"
	"github.com/dbsmedya/dsplineage/internal/types"
)

type fakeGateway struct {
	payload  string
	err      error
	lastOpts gateway.DependencyOptions
	spaces   []types.Space
	objects  map[string][]types.DesignObject
	listed   []string
}

func (f *fakeGateway) GetDependencies(ctx context.Context, objectID string, opts gateway.DependencyOptions) (json.RawMessage, error) {
	f.lastOpts = opts
	if f.err != nil {
		return nil, f.err
	}
	return json.RawMessage(f.payload), nil
}

func (f *fakeGateway) ListSpaces(ctx context.Context) ([]types.Space, error) {
	return f.spaces, nil
}

func (f *fakeGateway) ListObjects(ctx context.Context, spaceID string) ([]types.DesignObject, error) {
	f.listed = append(f.listed, spaceID)
	return f.objects[spaceID], nil
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		spaces: []types.Space{{ID: "SALES"}, {ID: "HR"}},
		objects: map[string][]types.DesignObject{
			"SALES": {
				{ID: "A", TechnicalName: "V_ORDERS", Kind: "sap.dwc.view", SpaceID: "SALES"},
				{ID: "B", TechnicalName: "ORDERS", BusinessName: "Orders", Kind: "sap.dwc.localtable", SpaceID: "SALES"},
			},
			"HR": {
				{ID: "E", TechnicalName: "EMPLOYEES", Kind: "sap.dwc.localtable", SpaceID: "HR"},
			},
		},
	}
}

func TestFetchAndBuild_ShapeInvariance(t *testing.T) {
	flat := `[
		{"id":"A","kind":"view","dependencies":[{"id":"B","kind":"table","dependencyType":"query-from"}]},
		{"id":"B","kind":"table","dependencies":[{"id":"C","kind":"table","dependencyType":"write-association"}]},
		{"id":"C","kind":"table"}
	]`
	nested := `[
		{"id":"A","kind":"view","dependencies":[
			{"id":"B","kind":"table","dependencyType":"query-from","dependencies":[
				{"id":"C","kind":"table","dependencyType":"write-association"}
			]}
		]}
	]`

	build := func(payload string) *graph.LineageGraph {
		gw := &fakeGateway{payload: payload}
		g, err := NewService(gw, nil, 0, ShapeAuto, nil).FetchAndBuild(context.Background(), "A", Options{})
		require.NoError(t, err)
		return g
	}

	gFlat := build(flat)
	gNested := build(nested)

	assert.Equal(t, gFlat.Edges(), gNested.Edges())
	assert.Equal(t, gFlat.NodeIDs(), gNested.NodeIDs())
	for _, id := range gFlat.NodeIDs() {
		a, _ := gFlat.Node(id)
		b, _ := gNested.Node(id)
		assert.Equal(t, a.Depth, b.Depth, id)
		assert.Equal(t, a.Object, b.Object, id)
	}
}

func TestFetchAndBuild_PassesOptions(t *testing.T) {
	gw := &fakeGateway{payload: `[{"id":"A"}]`}
	svc := NewService(gw, nil, 0, ShapeAuto, nil)

	cfg := config.DefaultConfig().Lineage
	_, err := svc.FetchAndBuild(context.Background(), "A", OptionsFromConfig(cfg))
	require.NoError(t, err)

	assert.True(t, gw.lastOpts.Recursive)
	assert.True(t, gw.lastOpts.Lineage)
	assert.False(t, gw.lastOpts.Impact)
	assert.Equal(t, cfg.DependencyTypes, gw.lastOpts.DependencyTypes)
}

func TestFetchAndBuild_Errors(t *testing.T) {
	notFound := &gateway.StatusError{Path: "/x", StatusCode: http.StatusNotFound}
	unreachable := &gateway.UnreachableError{Path: "/x", Attempts: 3, Err: errors.New("dial tcp: connection refused")}

	tests := []struct {
		name    string
		gw      *fakeGateway
		kind    error
		noCause bool
	}{
		{"404", &fakeGateway{err: notFound}, ErrObjectNotFound, false},
		{"unreachable", &fakeGateway{err: unreachable}, ErrGatewayUnreachable, false},
		{"empty payload", &fakeGateway{payload: `[]`}, ErrObjectNotFound, true},
		{"garbage", &fakeGateway{payload: `<html>`}, ErrMalformedResponse, false},
		{"only id-less records", &fakeGateway{payload: `[{"name":"x"}]`}, ErrMalformedResponse, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewService(tt.gw, nil, 0, ShapeAuto, nil).FetchAndBuild(context.Background(), "ROOT", Options{})
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.kind)

			var lerr *Error
			require.True(t, errors.As(err, &lerr))
			assert.Equal(t, "ROOT", lerr.ObjectID)
			assert.Contains(t, err.Error(), "ROOT")
			assert.NotContains(t, err.Error(), "HTTP")
			assert.NotContains(t, err.Error(), "dial tcp")
			if !tt.noCause {
				assert.NotNil(t, lerr.Err)
			}
		})
	}

	t.Run("unreachable keeps last cause", func(t *testing.T) {
		_, err := NewService(&fakeGateway{err: unreachable}, nil, 0, ShapeAuto, nil).
			FetchAndBuild(context.Background(), "ROOT", Options{})
		var ue *gateway.UnreachableError
		require.True(t, errors.As(err, &ue))
		assert.Contains(t, ue.Err.Error(), "connection refused")
	})
}

func TestFetchAndBuild_Cancelled(t *testing.T) {
	gw := &fakeGateway{err: context.Canceled}
	_, err := NewService(gw, nil, 0, ShapeAuto, nil).FetchAndBuild(context.Background(), "A", Options{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFetchAndBuild_EnrichesFromCache(t *testing.T) {
	gw := newFakeGateway()
	gw.payload = `[{"id":"A","dependencies":[{"id":"B","dependencyType":"query-from"}]}]`

	c := cache.New(gw, cache.Options{}, nil)
	_, err := c.BuildWait(context.Background(), nil)
	require.NoError(t, err)

	g, err := NewService(gw, c, 0, ShapeAuto, nil).FetchAndBuild(context.Background(), "A", Options{})
	require.NoError(t, err)

	b, ok := g.Node("B")
	require.True(t, ok)
	assert.False(t, b.Stub)
	assert.Equal(t, "ORDERS", b.Object.TechnicalName)
	assert.Equal(t, "SALES", b.Object.SpaceID)
	assert.Equal(t, 1, b.Depth)
}

func TestResolve_FromCache(t *testing.T) {
	gw := newFakeGateway()
	c := cache.New(gw, cache.Options{}, nil)
	_, err := c.BuildWait(context.Background(), nil)
	require.NoError(t, err)
	gw.listed = nil

	svc := NewService(gw, c, 0, ShapeAuto, nil)

	obj, err := svc.Resolve(context.Background(), "orders", "")
	require.NoError(t, err)
	assert.Equal(t, "B", obj.ID)

	obj, err = svc.Resolve(context.Background(), "E", "")
	require.NoError(t, err)
	assert.Equal(t, "EMPLOYEES", obj.TechnicalName)

	_, err = svc.Resolve(context.Background(), "E", "SALES")
	assert.ErrorIs(t, err, ErrObjectNotFound)

	assert.Empty(t, gw.listed, "ready cache should not hit the gateway")
}

func TestResolve_FallsBackToGateway(t *testing.T) {
	gw := newFakeGateway()
	c := cache.New(gw, cache.Options{}, nil)
	svc := NewService(gw, c, 0, ShapeAuto, nil)

	obj, err := svc.Resolve(context.Background(), "EMPLOYEES", "")
	require.NoError(t, err)
	assert.Equal(t, "E", obj.ID)
	assert.Equal(t, []string{"SALES", "HR"}, gw.listed)

	gw.listed = nil
	obj, err = svc.Resolve(context.Background(), "v_orders", "SALES")
	require.NoError(t, err)
	assert.Equal(t, "A", obj.ID)
	assert.Equal(t, []string{"SALES"}, gw.listed)

	_, err = svc.Resolve(context.Background(), "NOPE", "")
	assert.ErrorIs(t, err, ErrObjectNotFound)
}
