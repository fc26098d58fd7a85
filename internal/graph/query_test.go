package graph

import (
	"reflect"
	"sort"
	"testing"

	"github.com/dbsmedya/dsplineage/internal/types"
)

func edge(src, tgt, typ string) DependencyEdge {
	return DependencyEdge{Source: src, Target: tgt, Type: typ}
}

// buildGraph grows a graph from root over edges, assigning BFS depths.
func buildGraph(root string, edges ...DependencyEdge) *LineageGraph {
	g := New(root)
	g.AddNode(types.DesignObject{ID: root, Kind: "view"}, 0, false)
	for _, e := range edges {
		g.AddEdge(e)
	}
	return g
}

func TestFilterTransactional_DeeperTransactionalEdge(t *testing.T) {
	g := buildGraph("R",
		edge("R", "S", "query-from"),
		edge("S", "T", "write-association"),
		edge("T", "U", "query-from"),
		edge("R", "X", "query-from"),
	)

	filtered := FilterTransactional(g, NewClassifier([]string{"write-association"}))

	want := []string{"R", "S", "T", "U"}
	if got := filtered.NodeIDs(); !reflect.DeepEqual(got, want) {
		t.Errorf("Expected %v, got %v", want, got)
	}
	if filtered.HasEdge("R", "X", "query-from") {
		t.Error("Expected edge to X to be dropped")
	}
	for _, id := range want {
		orig, _ := g.Node(id)
		kept, _ := filtered.Node(id)
		if orig.Depth != kept.Depth {
			t.Errorf("Node %s: depth changed from %d to %d", id, orig.Depth, kept.Depth)
		}
	}
}

func TestFilterTransactional_NoTransactionalEdges(t *testing.T) {
	g := buildGraph("R", edge("R", "S", "query-from"))

	filtered := FilterTransactional(g, NewClassifier([]string{"write-association"}))

	if got := filtered.NodeIDs(); !reflect.DeepEqual(got, []string{"R"}) {
		t.Errorf("Expected only the root, got %v", got)
	}
	if filtered.EdgeCount() != 0 {
		t.Errorf("Expected no edges, got %d", filtered.EdgeCount())
	}
}

func TestFilterTransactional_Property(t *testing.T) {
	c := NewClassifier([]string{"w"})
	g := buildGraph("A",
		edge("A", "B", "s"),
		edge("B", "C", "w"),
		edge("C", "D", "s"),
		edge("A", "E", "s"),
		edge("E", "F", "s"),
		edge("F", "B", "s"),
		edge("G", "A", "w"), // G is not reachable from A
	)

	filtered := FilterTransactional(g, c)
	reachable := reach(g, "A", alongEdges)

	for _, id := range filtered.NodeIDs() {
		if !reachable[id] {
			t.Errorf("Node %s is not reachable from the root", id)
		}
	}
	// A->E->F->B->C is a transactional path, so E and F must stay.
	for _, id := range []string{"A", "B", "C", "D", "E", "F"} {
		if !filtered.HasNode(id) {
			t.Errorf("Expected %s on a transactional path", id)
		}
	}
	if filtered.HasNode("G") {
		t.Error("Expected G to be excluded")
	}
}

func TestFilterTransactional_Pure(t *testing.T) {
	g := buildGraph("A", edge("A", "B", "w"))
	c := NewClassifier([]string{"w"})

	first := FilterTransactional(g, c)
	second := FilterTransactional(g, c)

	if !reflect.DeepEqual(first.Edges(), second.Edges()) {
		t.Error("Expected repeated calls to agree")
	}
	if g.EdgeCount() != 1 || g.NodeCount() != 2 {
		t.Error("Expected input graph to be unchanged")
	}
}

func TestFilterTransactionalToward(t *testing.T) {
	c := NewClassifier([]string{"write-association"})
	g := buildGraph("A",
		edge("F", "A", "write-association"),
		edge("V", "A", "query-from"),
		edge("A", "T", "write-association"),
		edge("A", "Q", "query-from"),
	)

	tests := []struct {
		dir  Direction
		want []string
	}{
		{Upstream, []string{"A", "T"}},
		{Downstream, []string{"A", "F"}},
		{Both, []string{"A", "F", "T"}},
	}

	for _, tt := range tests {
		t.Run(tt.dir.String(), func(t *testing.T) {
			got := FilterTransactionalToward(g, c, tt.dir).NodeIDs()
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestFilterTransactionalToward_DownstreamChain(t *testing.T) {
	c := NewClassifier([]string{"w"})
	// P reads V, V is written by a flow into A: the whole chain stays.
	g := buildGraph("A",
		edge("V", "A", "s"),
		edge("P", "V", "w"),
		edge("Z", "P", "s"),
		edge("O", "A", "s"),
	)

	filtered := FilterTransactionalToward(g, c, Downstream)
	want := []string{"A", "P", "V", "Z"}
	if got := filtered.NodeIDs(); !reflect.DeepEqual(got, want) {
		t.Errorf("Expected %v, got %v", want, got)
	}
	if !filtered.HasEdge("P", "V", "w") {
		t.Error("Expected transactional edge P->V to be kept")
	}

	sub := Subgraph(filtered, "A", Downstream, 0)
	if got := sub.NodeIDs(); !reflect.DeepEqual(got, want) {
		t.Errorf("Expected downstream subgraph %v, got %v", want, got)
	}
}

func TestFindPath_NoRelation(t *testing.T) {
	g := buildGraph("A", edge("A", "B", "t"))
	g.AddNode(types.DesignObject{ID: "C"}, 0, true)

	if _, ok := FindPath(g, "A", "C"); ok {
		t.Error("Expected no path from A to C")
	}
	if _, ok := FindPath(g, "B", "A"); ok {
		t.Error("Expected no path against edge direction")
	}
	if _, ok := FindPath(g, "A", "missing"); ok {
		t.Error("Expected no path to unknown node")
	}
}

func TestFindPath_ShortestWithTieBreak(t *testing.T) {
	g := buildGraph("A",
		edge("A", "C", "t"),
		edge("A", "B", "t"),
		edge("B", "D", "t"),
		edge("C", "D", "t"),
		edge("D", "E", "t"),
		edge("A", "X", "t"),
		edge("X", "Y", "t"),
		edge("Y", "Z", "t"),
		edge("Z", "E", "t"),
	)

	path, ok := FindPath(g, "A", "E")
	if !ok {
		t.Fatal("Expected a path")
	}

	var hops []string
	for _, e := range path {
		hops = append(hops, e.Source+"->"+e.Target)
	}
	want := []string{"A->B", "B->D", "D->E"}
	if !reflect.DeepEqual(hops, want) {
		t.Errorf("Expected %v, got %v", want, hops)
	}
}

func TestFindPath_Self(t *testing.T) {
	g := buildGraph("A", edge("A", "B", "t"))

	path, ok := FindPath(g, "A", "A")
	if !ok || len(path) != 0 {
		t.Errorf("Expected empty path, got %v %v", path, ok)
	}
}

func TestSubgraph(t *testing.T) {
	g := buildGraph("A",
		edge("A", "B", "t"),
		edge("B", "C", "t"),
		edge("C", "D", "t"),
	)

	tests := []struct {
		name     string
		dir      Direction
		maxDepth int
		want     []string
	}{
		{"upstream", Upstream, 0, []string{"B", "C", "D"}},
		{"upstream limited", Upstream, 1, []string{"B", "C"}},
		{"downstream", Downstream, 0, []string{"A", "B"}},
		{"both limited", Both, 1, []string{"A", "B", "C"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sub := Subgraph(g, "B", tt.dir, tt.maxDepth)
			got := sub.NodeIDs()
			sort.Strings(got)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Expected %v, got %v", tt.want, got)
			}
			if sub.Root != "B" {
				t.Errorf("Expected root B, got %s", sub.Root)
			}
			if n, _ := sub.Node("B"); n.Depth != 0 {
				t.Errorf("Expected new root at depth 0, got %d", n.Depth)
			}
		})
	}

	sub := Subgraph(g, "B", Upstream, 0)
	if d, _ := sub.Node("D"); d.Depth != 2 {
		t.Errorf("Expected D at distance 2, got %d", d.Depth)
	}
}

func TestParseDirection(t *testing.T) {
	for in, want := range map[string]Direction{"up": Upstream, "downstream": Downstream, "": Both} {
		got, err := ParseDirection(in)
		if err != nil || got != want {
			t.Errorf("ParseDirection(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParseDirection("sideways"); err == nil {
		t.Error("Expected error for unknown direction")
	}
}

func TestClassifier(t *testing.T) {
	c := NewClassifier([]string{"write-association", " ", "sap.dis.dataflow.target"})

	if !c.IsTransactional(edge("a", "b", "write-association")) {
		t.Error("Expected write-association to be transactional")
	}
	if c.Classify(edge("a", "b", "query-from")) != Structural {
		t.Error("Expected query-from to be structural")
	}
	if got := c.Types(); len(got) != 2 {
		t.Errorf("Expected blank entries to be ignored, got %v", got)
	}
	if Transactional.String() != "transactional" || Structural.String() != "structural" {
		t.Error("Unexpected class names")
	}
}

func TestAddEdge_MergesFlags(t *testing.T) {
	g := New("A")
	if !g.AddEdge(DependencyEdge{Source: "A", Target: "B", Type: "t", IsImpact: true}) {
		t.Error("Expected first edge to be new")
	}
	if g.AddEdge(DependencyEdge{Source: "A", Target: "B", Type: "t", IsLineage: true}) {
		t.Error("Expected duplicate edge to be merged")
	}
	e := g.Edges()[0]
	if !e.IsImpact || !e.IsLineage {
		t.Errorf("Expected flags to be unioned, got %+v", e)
	}
	if b, _ := g.Node("B"); !b.Stub || b.Depth != 1 {
		t.Errorf("Expected stub target at depth 1, got %+v", b)
	}
}
