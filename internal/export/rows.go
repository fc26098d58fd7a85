package export

import (
	"sort"
	"strconv"

	"github.com/dbsmedya/dsplineage/internal/graph"
)

// EdgeRow is one edge flattened for tabular output.
type EdgeRow struct {
	SourceID      string
	SourceName    string
	TargetID      string
	TargetName    string
	Type          string
	Transactional bool
	// Depth is the depth of the source node.
	Depth int
}

// EdgeHeader names the EdgeRow columns.
var EdgeHeader = []string{"source_id", "source_name", "target_id", "target_name", "dependency_type", "transactional", "depth"}

// Strings returns the row in EdgeHeader order.
func (r EdgeRow) Strings() []string {
	return []string{
		r.SourceID,
		r.SourceName,
		r.TargetID,
		r.TargetName,
		r.Type,
		strconv.FormatBool(r.Transactional),
		strconv.Itoa(r.Depth),
	}
}

// EdgeRows flattens g into one row per edge, ordered by source depth and
// then by source, target and type.
func EdgeRows(g *graph.LineageGraph, c *graph.Classifier) []EdgeRow {
	edges := g.Edges()
	rows := make([]EdgeRow, 0, len(edges))
	for _, e := range edges {
		src, _ := g.Node(e.Source)
		tgt, _ := g.Node(e.Target)
		rows = append(rows, EdgeRow{
			SourceID:      e.Source,
			SourceName:    src.Object.Name(),
			TargetID:      e.Target,
			TargetName:    tgt.Object.Name(),
			Type:          e.Type,
			Transactional: c.IsTransactional(e),
			Depth:         src.Depth,
		})
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Depth < rows[j].Depth
	})
	return rows
}

// NodeRow is one object of the graph at its shallowest depth.
type NodeRow struct {
	ID       string
	Name     string
	Business string
	Kind     string
	Space    string
	Depth    int
	Category graph.Category
}

// NodeHeader names the NodeRow columns.
var NodeHeader = []string{"id", "technical_name", "business_name", "kind", "space", "depth", "category"}

// Strings returns the row in NodeHeader order.
func (r NodeRow) Strings() []string {
	return []string{r.ID, r.Name, r.Business, r.Kind, r.Space, strconv.Itoa(r.Depth), string(r.Category)}
}

// NodeRows lists every node once, ordered by depth then id.
func NodeRows(g *graph.LineageGraph) []NodeRow {
	nodes := g.Nodes()
	rows := make([]NodeRow, 0, len(nodes))
	for _, n := range nodes {
		rows = append(rows, NodeRow{
			ID:       n.ID(),
			Name:     n.Object.Name(),
			Business: n.Object.BusinessName,
			Kind:     n.Object.Kind,
			Space:    n.Object.SpaceID,
			Depth:    n.Depth,
			Category: graph.CategoryOf(n.Object.Kind),
		})
	}
	return rows
}
