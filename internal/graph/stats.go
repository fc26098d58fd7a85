package graph

import (
	"sort"
	"strings"
)

// UnknownKind is reported for nodes without a kind.
const UnknownKind = "unknown"

// Stats summarizes a graph.
type Stats struct {
	NodeCount          int            `json:"nodeCount"`
	EdgeCount          int            `json:"edgeCount"`
	MaxDepth           int            `json:"maxDepth"`
	CountByKind        map[string]int `json:"countByKind"`
	CountByType        map[string]int `json:"countByType"`
	TransactionalEdges int            `json:"transactionalEdges"`
	StructuralEdges    int            `json:"structuralEdges"`
	// Sources are nodes without outgoing edges, the origin of the data.
	Sources   []string `json:"sources"`
	Stubs     int      `json:"stubs"`
	Truncated bool     `json:"truncated"`
	Cyclic    bool     `json:"cyclic"`
	CyclePath []string `json:"cyclePath,omitempty"`
	// FlowPath lists the data-moving objects in walk order, see FlowPath.
	FlowPath  []string `json:"flowPath,omitempty"`
}

// Statistics computes Stats for g.
func Statistics(g *LineageGraph, c *Classifier) Stats {
	st := Stats{
		NodeCount:   g.NodeCount(),
		EdgeCount:   g.EdgeCount(),
		CountByKind: make(map[string]int),
		CountByType: make(map[string]int),
		Truncated:   g.Truncated,
	}

	for _, n := range g.nodes {
		if n.Depth > st.MaxDepth {
			st.MaxDepth = n.Depth
		}
		kind := n.Object.Kind
		if kind == "" {
			kind = UnknownKind
		}
		st.CountByKind[kind]++
		if n.Stub {
			st.Stubs++
		}
		if len(n.out) == 0 {
			st.Sources = append(st.Sources, n.ID())
		}
	}
	sort.Strings(st.Sources)

	for _, e := range g.edges {
		st.CountByType[e.Type]++
		if c != nil && c.IsTransactional(*e) {
			st.TransactionalEdges++
		} else {
			st.StructuralEdges++
		}
	}

	if info := DetectCycles(g); info != nil {
		st.Cyclic = true
		st.CyclePath = info.CyclePath
	}
	if c != nil {
		st.FlowPath = FlowPath(g, c)
	}

	return st
}

// FlowPath traces how data moves through the lineage of the root. It walks
// the transactional part of g depth-first from the root, children in
// ascending id order, and lists every object that is the target of a
// transactional edge or is itself a flow (replication, transformation or
// data flow). Each object appears once, at its first visit.
func FlowPath(g *LineageGraph, c *Classifier) []string {
	tx := FilterTransactional(g, c)
	if !tx.HasNode(tx.Root) {
		return nil
	}

	onFlow := make(map[string]bool)
	for _, e := range tx.edges {
		if c.IsTransactional(*e) {
			onFlow[e.Target] = true
		}
	}
	for id, n := range tx.nodes {
		if IsFlowKind(n.Object.Kind) {
			onFlow[id] = true
		}
	}

	var path []string
	visited := make(map[string]bool, len(tx.nodes))
	var walk func(id string)
	walk = func(id string) {
		if visited[id] {
			return
		}
		visited[id] = true
		if onFlow[id] {
			path = append(path, id)
		}
		for _, child := range tx.Children(id) {
			walk(child)
		}
	}
	walk(tx.Root)
	return path
}

// Category groups objects by what they are.
type Category string

const (
	CategoryReplicationFlow    Category = "replication_flows"
	CategoryTransformationFlow Category = "transformation_flows"
	CategoryView               Category = "views"
	CategoryTable              Category = "tables"
	CategoryOther              Category = "other"
)

// Categories lists every category in display order.
var Categories = []Category{
	CategoryReplicationFlow,
	CategoryTransformationFlow,
	CategoryView,
	CategoryTable,
	CategoryOther,
}

// CategoryOf maps an object kind to its category.
func CategoryOf(kind string) Category {
	k := strings.ToLower(kind)
	switch {
	case strings.Contains(k, "replicationflow"):
		return CategoryReplicationFlow
	case strings.Contains(k, "transformationflow"), strings.Contains(k, "dataflow"):
		return CategoryTransformationFlow
	case strings.Contains(k, "view"):
		return CategoryView
	case strings.Contains(k, "table"):
		return CategoryTable
	default:
		return CategoryOther
	}
}

// IsFlowKind reports whether kind is a data-moving object such as a
// replication, transformation or data flow.
func IsFlowKind(kind string) bool {
	c := CategoryOf(kind)
	return c == CategoryReplicationFlow || c == CategoryTransformationFlow
}

// Categorize groups node ids by category; ids are sorted within a group.
func Categorize(g *LineageGraph) map[Category][]string {
	groups := make(map[Category][]string)
	for _, id := range g.NodeIDs() {
		n := g.nodes[id]
		cat := CategoryOf(n.Object.Kind)
		groups[cat] = append(groups[cat], id)
	}
	return groups
}
