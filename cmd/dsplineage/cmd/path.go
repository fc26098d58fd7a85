package cmd

import (
	"fmt"

	"github.com/gookit/color"
	"github.com/spf13/cobra"

	"github.com/dbsmedya/dsplineage/internal/graph"
	"github.com/dbsmedya/dsplineage/internal/shutdown"
)

var pathCmd = &cobra.Command{
	Use:   "path FROM TO",
	Short: "Show the shortest dependency path between two objects",
	Long: `Path builds the lineage graph of FROM and prints the shortest chain of
dependencies leading to TO. When FROM does not depend on TO, the reverse
direction is tried within the same graph.

Example:
  dsplineage path V_SALES RF_ORDERS --name --space SALES`,
	Args: cobra.ExactArgs(2),
	RunE: runPath,
}

func init() {
	addGraphFlags(pathCmd)
	rootCmd.AddCommand(pathCmd)
}

func runPath(cmd *cobra.Command, args []string) error {
	ctx, stop := shutdown.SetupSignalHandler(commandContext(cmd))
	defer stop()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	g, err := buildGraph(ctx, a, args[0])
	if err != nil {
		return err
	}

	to := args[1]
	if lineageByName {
		obj, err := a.service.Resolve(ctx, to, lineageSpace)
		if err != nil {
			return err
		}
		to = obj.ID
	}

	path, ok := graph.FindPath(g, g.Root, to)
	reversed := false
	if !ok {
		path, ok = graph.FindPath(g, to, g.Root)
		reversed = ok
	}
	if !ok {
		return errNoPath(args[0], args[1])
	}

	if reversed {
		fmt.Fprintf(outputWriter, "%s depends on %s:\n", args[1], args[0])
	}
	printPath(g, a.classifier, path)
	return nil
}

func printPath(g *graph.LineageGraph, c *graph.Classifier, path []graph.DependencyEdge) {
	if len(path) == 0 {
		n, _ := g.Node(g.Root)
		fmt.Fprintf(outputWriter, "%s (same object)\n", n.Object.Name())
		return
	}

	name := func(id string) string {
		n, _ := g.Node(id)
		return n.Object.Name()
	}

	fmt.Fprintln(outputWriter, name(path[0].Source))
	for _, e := range path {
		label := e.Type
		if c.IsTransactional(e) && useColor() {
			label = color.Yellow.Sprint(label)
		}
		fmt.Fprintf(outputWriter, "  --%s--> %s\n", label, name(e.Target))
	}
	fmt.Fprintf(outputWriter, "(%d hops)\n", len(path))
}
