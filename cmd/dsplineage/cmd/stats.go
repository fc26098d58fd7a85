package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dbsmedya/dsplineage/internal/export"
	"github.com/dbsmedya/dsplineage/internal/graph"
	"github.com/dbsmedya/dsplineage/internal/shutdown"
)

var (
	statsJSON       bool
	statsCategories bool
)

var statsCmd = &cobra.Command{
	Use:   "stats OBJECT",
	Short: "Analyze the lineage graph of a design object",
	Long: `Stats builds the lineage graph of an object and reports its size, depth,
object kinds, dependency types, source objects, the data flow path and
cycles.

Example:
  dsplineage stats V_SALES --name --categories`,
	Args: cobra.ExactArgs(1),
	RunE: runStats,
}

func init() {
	addGraphFlags(statsCmd)
	statsCmd.Flags().BoolVar(&statsJSON, "json", false,
		"Print statistics as JSON")
	statsCmd.Flags().BoolVar(&statsCategories, "categories", false,
		"Also group objects into flows, views and tables")

	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, args []string) error {
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

	st := graph.Statistics(g, a.classifier)
	if statsJSON {
		return export.WriteStatsJSON(outputWriter, st)
	}

	fmt.Fprintf(outputWriter, "Lineage of %s\n", g.Root)
	export.RenderStatsTable(outputWriter, st)
	export.RenderFlowPath(outputWriter, g, st.FlowPath)
	if statsCategories {
		export.RenderCategories(outputWriter, g)
	}
	if info := graph.DetectCycles(g); info != nil {
		fmt.Fprintln(outputWriter, info.String())
	}
	return nil
}
