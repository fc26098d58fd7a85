package cmd

import (
	"context"
	"fmt"

	"github.com/gookit/color"
	"github.com/spf13/cobra"

	"github.com/dbsmedya/dsplineage/internal/export"
	"github.com/dbsmedya/dsplineage/internal/graph"
	"github.com/dbsmedya/dsplineage/internal/lineage"
	"github.com/dbsmedya/dsplineage/internal/shutdown"
)

// Flags shared by the commands that build a graph.
var (
	lineageSpace         string
	lineageByName        bool
	lineageTransactional bool
	lineageDirection     string
	lineageDepth         int
	lineageOutput        string
)

var lineageCmd = &cobra.Command{
	Use:   "lineage OBJECT",
	Short: "Show the lineage graph of a design object",
	Long: `Lineage fetches the dependencies of an object and prints its lineage graph.

The graph can be narrowed to what the object depends on (upstream), what
depends on it (downstream), or both, and to the objects that take part in
data-moving (transactional) relations.

Examples:
  dsplineage lineage 4f1c9e2a-...
  dsplineage lineage --name V_SALES --space SALES -o tree
  dsplineage lineage V_SALES --name --transactional -o json`,
	Args: cobra.ExactArgs(1),
	RunE: runLineage,
}

func init() {
	addGraphFlags(lineageCmd)
	lineageCmd.Flags().BoolVar(&lineageTransactional, "transactional", false,
		"Keep only objects on a transactional path from the root")
	lineageCmd.Flags().StringVar(&lineageDirection, "direction", "",
		"Restrict to upstream, downstream or both")
	lineageCmd.Flags().IntVar(&lineageDepth, "depth", 0,
		"Restrict to objects at most this many edges away (0 = unlimited)")
	lineageCmd.Flags().StringVarP(&lineageOutput, "output", "o", "",
		"Output format (table, json, csv, tree, mermaid); defaults to export.format")

	rootCmd.AddCommand(lineageCmd)
}

// addGraphFlags registers the flags used to pick the root object.
func addGraphFlags(c *cobra.Command) {
	c.Flags().StringVar(&lineageSpace, "space", "",
		"Space used to resolve names")
	c.Flags().BoolVar(&lineageByName, "name", false,
		"Treat OBJECT as a name and resolve it to an id")
}

func runLineage(cmd *cobra.Command, args []string) error {
	ctx, stop := shutdown.SetupSignalHandler(commandContext(cmd))
	defer stop()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	format, err := export.ParseFormat(firstNonEmpty(lineageOutput, a.cfg.Export.Format))
	if err != nil {
		return err
	}

	g, err := buildGraph(ctx, a, args[0])
	if err != nil {
		return err
	}

	opts := export.TreeOptions{Color: useColor()}
	restrict := lineageDirection != "" || lineageDepth > 0
	dir := graph.Upstream
	if restrict {
		if dir, err = graph.ParseDirection(lineageDirection); err != nil {
			return err
		}
	}
	// Filter before Subgraph: the walk follows dir over the full graph.
	if lineageTransactional {
		g = graph.FilterTransactionalToward(g, a.classifier, dir)
	}
	if restrict {
		g = graph.Subgraph(g, g.Root, dir, lineageDepth)
		opts.Downstream = dir == graph.Downstream
	}

	if g.Truncated {
		a.log.Warnw("Lineage truncated at maximum depth", "max_depth", a.cfg.Lineage.MaxDepth)
	}

	return export.Write(outputWriter, g, a.classifier, format, opts)
}

// buildGraph resolves ref when --name is set and fetches its lineage.
func buildGraph(ctx context.Context, a *app, ref string) (*graph.LineageGraph, error) {
	objectID := ref
	if lineageByName {
		obj, err := a.service.Resolve(ctx, ref, lineageSpace)
		if err != nil {
			return nil, err
		}
		a.log.Debugw("Resolved object", "name", ref, "id", obj.ID)
		objectID = obj.ID
	}

	g, err := a.service.FetchAndBuild(ctx, objectID, lineage.OptionsFromConfig(a.cfg.Lineage))
	if err != nil {
		return nil, err
	}
	if g.Root != objectID {
		fmt.Fprintf(noticeWriter, "%s %s is missing from its dependency response, showing %s instead\n",
			color.Yellow.Sprint("warning:"), objectID, g.Root)
	}
	return g, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// errNoPath is returned when two objects are not connected.
func errNoPath(from, to string) error {
	return fmt.Errorf("no dependency path from %s to %s", from, to)
}
