package export

import (
	"fmt"
	"io"

	"github.com/dbsmedya/dsplineage/internal/graph"
)

// Format selects how Write renders a graph.
type Format string

const (
	FormatTable   Format = "table"
	FormatJSON    Format = "json"
	FormatCSV     Format = "csv"
	FormatTree    Format = "tree"
	FormatMermaid Format = "mermaid"
)

// ParseFormat validates a format name. An empty name means table.
func ParseFormat(s string) (Format, error) {
	switch f := Format(s); f {
	case "":
		return FormatTable, nil
	case FormatTable, FormatJSON, FormatCSV, FormatTree, FormatMermaid:
		return f, nil
	}
	return "", fmt.Errorf("unknown output format %q", s)
}

// Write renders g to w in the given format.
func Write(w io.Writer, g *graph.LineageGraph, c *graph.Classifier, f Format, tree TreeOptions) error {
	switch f {
	case FormatJSON:
		return WriteJSON(w, g, c)
	case FormatCSV:
		return WriteEdgesCSV(w, EdgeRows(g, c))
	case FormatTree:
		RenderTree(w, g, c, tree)
		return nil
	case FormatMermaid:
		return WriteMermaid(w, g, c)
	case FormatTable, "":
		RenderEdgeTable(w, EdgeRows(g, c))
		return nil
	}
	return fmt.Errorf("unknown output format %q", f)
}
