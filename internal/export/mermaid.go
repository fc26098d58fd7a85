package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/dbsmedya/dsplineage/internal/graph"
)

// Mermaid returns a flowchart of g in mermaid syntax. Transactional edges
// are drawn thick, structural ones with a plain arrow; both carry the
// dependency type as label.
func Mermaid(g *graph.LineageGraph, c *graph.Classifier) string {
	var sb strings.Builder

	sb.WriteString("graph LR\n")

	for _, n := range g.Nodes() {
		sb.WriteString(fmt.Sprintf("    %s[\"%s\"]\n", sanitizeNodeID(n.ID()), escapeLabel(n.Object.Name())))
	}

	for _, e := range g.Edges() {
		arrow := "-->"
		if c.IsTransactional(e) {
			arrow = "==>"
		}
		sb.WriteString(fmt.Sprintf("    %s %s|%s| %s\n",
			sanitizeNodeID(e.Source), arrow, escapeLabel(e.Type), sanitizeNodeID(e.Target)))
	}

	return sb.String()
}

// WriteMermaid writes the flowchart to w.
func WriteMermaid(w io.Writer, g *graph.LineageGraph, c *graph.Classifier) error {
	_, err := io.WriteString(w, Mermaid(g, c))
	return err
}

// sanitizeNodeID ensures object ids are valid mermaid node IDs
func sanitizeNodeID(id string) string {
	return strings.NewReplacer(
		".", "_",
		"-", "_",
		" ", "_",
		":", "_",
		"/", "_",
		"(", "_",
		")", "_",
	).Replace(id)
}

func escapeLabel(s string) string {
	return strings.NewReplacer(`"`, "#quot;", "|", "#124;").Replace(s)
}
