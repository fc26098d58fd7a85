// Package graph holds the normalized lineage graph and the pure queries over
// it. Nodes live in an arena keyed by object id; edges are unique by
// (source, target, dependency type).
package graph

import (
	"sort"

	"github.com/dbsmedya/dsplineage/internal/types"
)

// DependencyEdge is a directed relation from an object to something it depends on.
type DependencyEdge struct {
	Source    string `json:"source"`
	Target    string `json:"target"`
	Type      string `json:"type"`
	IsImpact  bool   `json:"isImpact"`
	IsLineage bool   `json:"isLineage"`
}

// EdgeKey identifies an edge.
type EdgeKey struct {
	Source string
	Target string
	Type   string
}

// Key returns the identity of e.
func (e DependencyEdge) Key() EdgeKey {
	return EdgeKey{Source: e.Source, Target: e.Target, Type: e.Type}
}

// Node is one object in the graph.
type Node struct {
	Object types.DesignObject
	// Depth is the minimum number of edges from the root at which the node
	// was reached.
	Depth int
	// Stub marks nodes known only by id.
	Stub bool

	out []*DependencyEdge
	in  []*DependencyEdge
}

// ID returns the object id.
func (n *Node) ID() string {
	return n.Object.ID
}

// Out returns the outgoing edges ordered by target then type.
func (n *Node) Out() []DependencyEdge {
	return copyEdges(sortedEdges(n.out, func(e *DependencyEdge) string { return e.Target }))
}

// In returns the incoming edges ordered by source then type.
func (n *Node) In() []DependencyEdge {
	return copyEdges(sortedEdges(n.in, func(e *DependencyEdge) string { return e.Source }))
}

// LineageGraph is owned by the caller that requested it and is not safe
// for concurrent mutation. Read-only queries may run concurrently.
type LineageGraph struct {
	Root string
	// Truncated is set when traversal stopped at the depth cap.
	Truncated bool

	nodes map[string]*Node
	edges map[EdgeKey]*DependencyEdge
}

// New creates an empty graph for root.
func New(root string) *LineageGraph {
	return &LineageGraph{
		Root:  root,
		nodes: make(map[string]*Node),
		edges: make(map[EdgeKey]*DependencyEdge),
	}
}

// AddNode inserts obj or merges it into an existing node. The smaller depth
// wins, empty metadata fields are filled, and a real record clears the stub flag.
func (g *LineageGraph) AddNode(obj types.DesignObject, depth int, stub bool) *Node {
	if n, ok := g.nodes[obj.ID]; ok {
		if depth < n.Depth {
			n.Depth = depth
		}
		n.Object = n.Object.Merge(obj)
		n.Stub = n.Stub && stub
		return n
	}
	n := &Node{Object: obj, Depth: depth, Stub: stub}
	g.nodes[obj.ID] = n
	return n
}

// AddEdge records e and reports whether it was new. A missing source is
// materialized as a stub at depth 0 and a missing target as a stub one level
// below the source. Adding an existing edge only unions its flags.
func (g *LineageGraph) AddEdge(e DependencyEdge) bool {
	if existing, ok := g.edges[e.Key()]; ok {
		existing.IsImpact = existing.IsImpact || e.IsImpact
		existing.IsLineage = existing.IsLineage || e.IsLineage
		return false
	}

	src, ok := g.nodes[e.Source]
	if !ok {
		src = g.AddNode(types.DesignObject{ID: e.Source}, 0, true)
	}
	tgt, ok := g.nodes[e.Target]
	if !ok {
		tgt = g.AddNode(types.DesignObject{ID: e.Target}, src.Depth+1, true)
	}

	edge := e
	g.edges[e.Key()] = &edge
	src.out = append(src.out, &edge)
	tgt.in = append(tgt.in, &edge)
	return true
}

// Node returns the node with the given id.
func (g *LineageGraph) Node(id string) (*Node, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// HasNode reports whether id is in the graph.
func (g *LineageGraph) HasNode(id string) bool {
	_, ok := g.nodes[id]
	return ok
}

// HasEdge reports whether the edge exists.
func (g *LineageGraph) HasEdge(source, target, depType string) bool {
	_, ok := g.edges[EdgeKey{Source: source, Target: target, Type: depType}]
	return ok
}

// NodeCount returns the number of nodes.
func (g *LineageGraph) NodeCount() int {
	return len(g.nodes)
}

// EdgeCount returns the number of edges.
func (g *LineageGraph) EdgeCount() int {
	return len(g.edges)
}

// NodeIDs returns all node ids sorted.
func (g *LineageGraph) NodeIDs() []string {
	ids := make([]string, 0, len(g.nodes))
	for id := range g.nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Nodes returns all nodes ordered by depth, then id.
func (g *LineageGraph) Nodes() []*Node {
	nodes := make([]*Node, 0, len(g.nodes))
	for _, n := range g.nodes {
		nodes = append(nodes, n)
	}
	sort.Slice(nodes, func(i, j int) bool {
		if nodes[i].Depth != nodes[j].Depth {
			return nodes[i].Depth < nodes[j].Depth
		}
		return nodes[i].ID() < nodes[j].ID()
	})
	return nodes
}

// Edges returns all edges ordered by source, target and type.
func (g *LineageGraph) Edges() []DependencyEdge {
	edges := make([]DependencyEdge, 0, len(g.edges))
	for _, e := range g.edges {
		edges = append(edges, *e)
	}
	sort.Slice(edges, func(i, j int) bool {
		return edgeLess(edges[i], edges[j])
	})
	return edges
}

// Children returns the distinct targets of id's outgoing edges, sorted.
func (g *LineageGraph) Children(id string) []string {
	n, ok := g.nodes[id]
	if !ok {
		return nil
	}
	return distinct(n.out, func(e *DependencyEdge) string { return e.Target })
}

// Parents returns the distinct sources of id's incoming edges, sorted.
func (g *LineageGraph) Parents(id string) []string {
	n, ok := g.nodes[id]
	if !ok {
		return nil
	}
	return distinct(n.in, func(e *DependencyEdge) string { return e.Source })
}

// outgoing returns id's outgoing edges sorted by target then type.
func (g *LineageGraph) outgoing(id string) []*DependencyEdge {
	n, ok := g.nodes[id]
	if !ok {
		return nil
	}
	return sortedEdges(n.out, func(e *DependencyEdge) string { return e.Target })
}

// incoming returns id's incoming edges sorted by source then type.
func (g *LineageGraph) incoming(id string) []*DependencyEdge {
	n, ok := g.nodes[id]
	if !ok {
		return nil
	}
	return sortedEdges(n.in, func(e *DependencyEdge) string { return e.Source })
}

// induced builds a graph over keep with every edge whose endpoints are both
// kept. Node depths are taken from depthOf.
func (g *LineageGraph) induced(root string, keep map[string]bool, depthOf func(*Node) int) *LineageGraph {
	out := New(root)
	for id := range keep {
		n, ok := g.nodes[id]
		if !ok {
			continue
		}
		out.nodes[id] = &Node{Object: n.Object, Depth: depthOf(n), Stub: n.Stub}
	}
	for _, e := range g.edges {
		if keep[e.Source] && keep[e.Target] {
			out.AddEdge(*e)
		}
	}
	out.Truncated = g.Truncated
	return out
}

func edgeLess(a, b DependencyEdge) bool {
	if a.Source != b.Source {
		return a.Source < b.Source
	}
	if a.Target != b.Target {
		return a.Target < b.Target
	}
	return a.Type < b.Type
}

func sortedEdges(edges []*DependencyEdge, key func(*DependencyEdge) string) []*DependencyEdge {
	sorted := append([]*DependencyEdge(nil), edges...)
	sort.Slice(sorted, func(i, j int) bool {
		ki, kj := key(sorted[i]), key(sorted[j])
		if ki != kj {
			return ki < kj
		}
		return sorted[i].Type < sorted[j].Type
	})
	return sorted
}

func copyEdges(edges []*DependencyEdge) []DependencyEdge {
	out := make([]DependencyEdge, len(edges))
	for i, e := range edges {
		out[i] = *e
	}
	return out
}

func distinct(edges []*DependencyEdge, key func(*DependencyEdge) string) []string {
	seen := make(map[string]bool, len(edges))
	var ids []string
	for _, e := range edges {
		k := key(e)
		if !seen[k] {
			seen[k] = true
			ids = append(ids, k)
		}
	}
	sort.Strings(ids)
	return ids
}
