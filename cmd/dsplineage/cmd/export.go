package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/dbsmedya/dsplineage/internal/export"
	"github.com/dbsmedya/dsplineage/internal/graph"
	"github.com/dbsmedya/dsplineage/internal/shutdown"
)

var (
	exportDir           string
	exportTransactional bool
)

var exportCmd = &cobra.Command{
	Use:   "export OBJECT",
	Short: "Write a zip bundle with every export of a lineage graph",
	Long: `Export builds the lineage graph of an object and writes a zip archive
containing the JSON document, the edge and object tables as CSV, a mermaid
flowchart and the graph statistics.

Example:
  dsplineage export V_SALES --name --dir ./exports`,
	Args: cobra.ExactArgs(1),
	RunE: runExport,
}

func init() {
	addGraphFlags(exportCmd)
	exportCmd.Flags().StringVarP(&exportDir, "dir", "d", "",
		"Output directory (defaults to export.output_dir)")
	exportCmd.Flags().BoolVar(&exportTransactional, "transactional", false,
		"Export only the transactional part of the graph")

	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
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
	if exportTransactional {
		g = graph.FilterTransactional(g, a.classifier)
	}

	dir := firstNonEmpty(exportDir, a.cfg.Export.OutputDir)
	path, err := export.WriteBundleFile(dir, g, a.classifier, time.Now())
	if err != nil {
		return fmt.Errorf("failed to write export: %w", err)
	}

	a.log.Infow("Export written", "path", path, "objects", g.NodeCount(), "edges", g.EdgeCount())
	fmt.Fprintln(outputWriter, path)
	return nil
}
