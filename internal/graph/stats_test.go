package graph

import (
	"reflect"
	"strings"
	"testing"

	"github.com/dbsmedya/dsplineage/internal/types"
)

func TestStatistics(t *testing.T) {
	g := New("V")
	g.AddNode(types.DesignObject{ID: "V", Kind: "sap.dwc.view"}, 0, false)
	g.AddNode(types.DesignObject{ID: "T1", Kind: "sap.dwc.localtable"}, 1, false)
	g.AddNode(types.DesignObject{ID: "T2", Kind: "sap.dwc.localtable"}, 1, false)
	g.AddEdge(edge("V", "T1", "query-from"))
	g.AddEdge(edge("V", "T2", "query-from"))
	g.AddEdge(edge("T1", "F", "write-association"))

	st := Statistics(g, NewClassifier([]string{"write-association"}))

	if st.NodeCount != 4 || st.EdgeCount != 3 {
		t.Errorf("Expected 4 nodes and 3 edges, got %d and %d", st.NodeCount, st.EdgeCount)
	}
	if st.MaxDepth != 2 {
		t.Errorf("Expected max depth 2, got %d", st.MaxDepth)
	}
	wantKinds := map[string]int{"sap.dwc.view": 1, "sap.dwc.localtable": 2, UnknownKind: 1}
	if !reflect.DeepEqual(st.CountByKind, wantKinds) {
		t.Errorf("Expected %v, got %v", wantKinds, st.CountByKind)
	}
	if st.TransactionalEdges != 1 || st.StructuralEdges != 2 {
		t.Errorf("Expected 1 transactional and 2 structural edges, got %d and %d",
			st.TransactionalEdges, st.StructuralEdges)
	}
	if !reflect.DeepEqual(st.Sources, []string{"F", "T2"}) {
		t.Errorf("Unexpected sources %v", st.Sources)
	}
	if st.Stubs != 1 {
		t.Errorf("Expected 1 stub, got %d", st.Stubs)
	}
	if st.Cyclic {
		t.Error("Expected acyclic graph")
	}
	if !reflect.DeepEqual(st.FlowPath, []string{"F"}) {
		t.Errorf("Unexpected flow path %v", st.FlowPath)
	}
}

func TestFlowPath(t *testing.T) {
	g := New("V")
	for id, kind := range map[string]string{
		"V":   "sap.dwc.view",
		"A":   "sap.dwc.localtable",
		"T":   "sap.dis.dataflow",
		"RF":  "sap.dis.replicationflow",
		"SRC": "sap.dwc.remotetable",
		"Z":   "sap.dwc.view",
	} {
		g.AddNode(types.DesignObject{ID: id, Kind: kind}, 0, false)
	}
	g.AddEdge(edge("V", "A", "w"))
	g.AddEdge(edge("V", "T", "s"))
	g.AddEdge(edge("T", "RF", "w"))
	g.AddEdge(edge("RF", "SRC", "w"))
	g.AddEdge(edge("V", "Z", "s"))

	got := FlowPath(g, NewClassifier([]string{"w"}))

	want := []string{"A", "T", "RF", "SRC"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Expected %v, got %v", want, got)
	}
}

func TestFlowPath_NoTransactionalEdges(t *testing.T) {
	g := buildGraph("A", edge("A", "B", "s"))

	if got := FlowPath(g, NewClassifier([]string{"w"})); len(got) != 0 {
		t.Errorf("Expected empty flow path, got %v", got)
	}
}

func TestDetectCycles(t *testing.T) {
	g := buildGraph("A",
		edge("A", "B", "t"),
		edge("B", "C", "t"),
		edge("C", "B", "t"),
		edge("C", "D", "t"),
	)

	info := DetectCycles(g)
	if info == nil {
		t.Fatal("Expected a cycle")
	}
	if !reflect.DeepEqual(info.CycleParticipants, []string{"B", "C"}) {
		t.Errorf("Unexpected participants %v", info.CycleParticipants)
	}
	if !reflect.DeepEqual(info.CyclePath, []string{"B", "C", "B"}) {
		t.Errorf("Unexpected path %v", info.CyclePath)
	}
	if !reflect.DeepEqual(info.UnprocessedNodes, []string{"B", "C", "D"}) {
		t.Errorf("Unexpected unprocessed nodes %v", info.UnprocessedNodes)
	}
	if info.ProcessedNodes != 1 || info.TotalNodes != 4 {
		t.Errorf("Unexpected counts %d/%d", info.ProcessedNodes, info.TotalNodes)
	}
	if !strings.Contains(info.String(), "B -> C -> B") {
		t.Errorf("Unexpected report %q", info.String())
	}
	if !g.HasCycle() {
		t.Error("Expected HasCycle to be true")
	}

	acyclic := buildGraph("A", edge("A", "B", "t"))
	if DetectCycles(acyclic) != nil {
		t.Error("Expected no cycle")
	}
}

func TestCategorize(t *testing.T) {
	g := New("R")
	g.AddNode(types.DesignObject{ID: "R", Kind: "sap.dis.replicationflow"}, 0, false)
	g.AddNode(types.DesignObject{ID: "D", Kind: "sap.dis.dataflow"}, 1, false)
	g.AddNode(types.DesignObject{ID: "X", Kind: "sap.dwc.transformationflow"}, 1, false)
	g.AddNode(types.DesignObject{ID: "V", Kind: "sap.dwc.view"}, 1, false)
	g.AddNode(types.DesignObject{ID: "T", Kind: "sap.dwc.remotetable"}, 1, false)
	g.AddNode(types.DesignObject{ID: "O"}, 1, true)

	groups := Categorize(g)

	want := map[Category][]string{
		CategoryReplicationFlow:    {"R"},
		CategoryTransformationFlow: {"D", "X"},
		CategoryView:               {"V"},
		CategoryTable:              {"T"},
		CategoryOther:              {"O"},
	}
	if !reflect.DeepEqual(groups, want) {
		t.Errorf("Expected %v, got %v", want, groups)
	}
	if !IsFlowKind("sap.dis.dataflow") || IsFlowKind("sap.dwc.view") {
		t.Error("Unexpected IsFlowKind result")
	}
}

func TestFIFO(t *testing.T) {
	q := newFIFO("a")
	q.push("b")
	if q.len() != 2 {
		t.Errorf("Expected length 2, got %d", q.len())
	}
	for _, want := range []string{"a", "b"} {
		if v, ok := q.pop(); !ok || v != want {
			t.Errorf("Expected %q, got %q", want, v)
		}
	}
	if _, ok := q.pop(); ok {
		t.Error("Expected drained queue")
	}
	q.push("c")
	if v, _ := q.pop(); v != "c" {
		t.Errorf("Expected c after reuse, got %q", v)
	}
}
