package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/gookit/color"
	"github.com/mattn/go-runewidth"

	"github.com/dbsmedya/dsplineage/internal/graph"
)

// TreeOptions controls RenderTree.
type TreeOptions struct {
	// Color highlights transactional edges and kinds.
	Color bool
	// Downstream walks incoming edges instead of outgoing ones.
	Downstream bool
}

type treePrinter struct {
	w        io.Writer
	g        *graph.LineageGraph
	c        *graph.Classifier
	opts     TreeOptions
	expanded map[string]bool
}

// RenderTree prints g as an indented tree from its root. An object shown
// before is printed again with a "(see above)" marker instead of being
// expanded twice, which also stops cycles.
func RenderTree(w io.Writer, g *graph.LineageGraph, c *graph.Classifier, opts TreeOptions) {
	root, ok := g.Node(g.Root)
	if !ok {
		_, _ = fmt.Fprintln(w, "(empty graph)")
		return
	}
	p := &treePrinter{w: w, g: g, c: c, opts: opts, expanded: map[string]bool{g.Root: true}}
	_, _ = fmt.Fprintln(w, p.label(root))
	p.children(g.Root, "")
}

func (p *treePrinter) children(id string, prefix string) {
	n, _ := p.g.Node(id)
	edges := n.Out()
	if p.opts.Downstream {
		edges = n.In()
	}
	if len(edges) == 0 {
		return
	}

	// Pad dependency types so the object names line up.
	width := 0
	for _, e := range edges {
		if tw := runewidth.StringWidth(e.Type); tw > width {
			width = tw
		}
	}

	for i, e := range edges {
		last := i == len(edges)-1
		branch, indent := "├── ", "│   "
		if last {
			branch, indent = "└── ", "    "
		}

		next := e.Target
		if p.opts.Downstream {
			next = e.Source
		}
		child, _ := p.g.Node(next)

		depType := runewidth.FillRight(e.Type, width)
		if p.c.IsTransactional(e) {
			depType = p.paint(color.Yellow, depType)
		}

		line := fmt.Sprintf("%s%s%s %s %s", prefix, branch, depType, "→", p.label(child))
		if p.expanded[next] {
			_, _ = fmt.Fprintln(p.w, line+p.paint(color.Gray, " (see above)"))
			continue
		}
		_, _ = fmt.Fprintln(p.w, line)

		p.expanded[next] = true
		p.children(next, prefix+indent)
	}
}

func (p *treePrinter) label(n *graph.Node) string {
	var sb strings.Builder
	sb.WriteString(p.paint(color.Bold, n.Object.Name()))
	if n.Object.Kind != "" {
		sb.WriteString(" ")
		sb.WriteString(p.paint(color.Cyan, "["+n.Object.Kind+"]"))
	}
	if n.Object.BusinessName != "" && n.Object.BusinessName != n.Object.Name() {
		fmt.Fprintf(&sb, " %q", n.Object.BusinessName)
	}
	return sb.String()
}

func (p *treePrinter) paint(c color.Color, s string) string {
	if !p.opts.Color {
		return s
	}
	return c.Sprint(s)
}
