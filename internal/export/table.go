package export

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/dbsmedya/dsplineage/internal/graph"
)

func newTable(w io.Writer, header []string) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)

	row := make(table.Row, len(header))
	for i, h := range header {
		row[i] = h
	}
	t.AppendHeader(row)
	return t
}

func toRow(values []string) table.Row {
	row := make(table.Row, len(values))
	for i, v := range values {
		row[i] = v
	}
	return row
}

// RenderEdgeTable prints the edge rows as a table.
func RenderEdgeTable(w io.Writer, rows []EdgeRow) {
	if len(rows) == 0 {
		_, _ = fmt.Fprintln(w, "(no dependencies)")
		return
	}
	t := newTable(w, EdgeHeader)
	for _, r := range rows {
		t.AppendRow(toRow(r.Strings()))
	}
	t.Render()
	_, _ = fmt.Fprintf(w, "(%d edges)\n", len(rows))
}

// RenderNodeTable prints the node rows as a table.
func RenderNodeTable(w io.Writer, rows []NodeRow) {
	t := newTable(w, NodeHeader)
	for _, r := range rows {
		t.AppendRow(toRow(r.Strings()))
	}
	t.Render()
	_, _ = fmt.Fprintf(w, "(%d objects)\n", len(rows))
}

// RenderStatsTable prints graph statistics as two-column tables.
func RenderStatsTable(w io.Writer, st graph.Stats) {
	t := newTable(w, []string{"metric", "value"})
	t.AppendRow(table.Row{"objects", st.NodeCount})
	t.AppendRow(table.Row{"dependencies", st.EdgeCount})
	t.AppendRow(table.Row{"max depth", st.MaxDepth})
	t.AppendRow(table.Row{"transactional", st.TransactionalEdges})
	t.AppendRow(table.Row{"structural", st.StructuralEdges})
	t.AppendRow(table.Row{"stubs", st.Stubs})
	t.AppendRow(table.Row{"truncated", st.Truncated})
	t.AppendRow(table.Row{"cyclic", st.Cyclic})
	if len(st.CyclePath) > 0 {
		t.AppendRow(table.Row{"cycle", strings.Join(st.CyclePath, " -> ")})
	}
	if len(st.Sources) > 0 {
		t.AppendRow(table.Row{"sources", strings.Join(st.Sources, ", ")})
	}
	t.Render()

	renderCounts(w, "kind", st.CountByKind)
	renderCounts(w, "dependency_type", st.CountByType)
}

// RenderFlowPath prints the flow path of g by object name, one line.
func RenderFlowPath(w io.Writer, g *graph.LineageGraph, path []string) {
	if len(path) == 0 {
		fmt.Fprintln(w, "Data flow: (no transactional objects)")
		return
	}
	names := make([]string, len(path))
	for i, id := range path {
		names[i] = id
		if n, ok := g.Node(id); ok && n.Object.Name() != "" {
			names[i] = n.Object.Name()
		}
	}
	fmt.Fprintf(w, "Data flow: %s\n", strings.Join(names, " -> "))
}

func renderCounts(w io.Writer, label string, counts map[string]int) {
	if len(counts) == 0 {
		return
	}
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	t := newTable(w, []string{label, "count"})
	for _, k := range keys {
		t.AppendRow(table.Row{k, counts[k]})
	}
	t.Render()
}

// RenderCategories prints the objects of g grouped by category.
func RenderCategories(w io.Writer, g *graph.LineageGraph) {
	groups := graph.Categorize(g)
	t := newTable(w, []string{"category", "count", "objects"})
	for _, cat := range graph.Categories {
		ids := groups[cat]
		if len(ids) == 0 {
			continue
		}
		names := make([]string, 0, len(ids))
		for _, id := range ids {
			n, _ := g.Node(id)
			names = append(names, n.Object.Name())
		}
		t.AppendRow(table.Row{string(cat), len(ids), strings.Join(names, ", ")})
	}
	t.Render()
}
