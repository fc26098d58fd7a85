package cmd

import (
	"fmt"
	"sort"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/dbsmedya/dsplineage/internal/cache"
	"github.com/dbsmedya/dsplineage/internal/export"
	"github.com/dbsmedya/dsplineage/internal/shutdown"
	"github.com/dbsmedya/dsplineage/internal/types"
)

var (
	objectsSearch string
	objectsQuiet  bool
)

var objectsCmd = &cobra.Command{
	Use:   "objects [SPACE]",
	Short: "List design objects of a space, or load all spaces into the cache",
	Long: `Objects lists the design objects of one space. Without a space it loads
every space into the object cache and prints per-space statistics.

With --search the cache is loaded and an object is looked up by qualified,
technical or business name (exact match first, then case-insensitive).

Examples:
  dsplineage objects SALES
  dsplineage objects
  dsplineage objects --search v_orders`,
	Args: cobra.MaximumNArgs(1),
	RunE: runObjects,
}

func init() {
	objectsCmd.Flags().StringVarP(&objectsSearch, "search", "s", "",
		"Look up an object by name")
	objectsCmd.Flags().BoolVarP(&objectsQuiet, "quiet", "q", false,
		"Do not print cache build progress")

	rootCmd.AddCommand(objectsCmd)
}

func runObjects(cmd *cobra.Command, args []string) error {
	ctx, stop := shutdown.SetupSignalHandler(commandContext(cmd))
	defer stop()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	spaceID := ""
	if len(args) == 1 {
		spaceID = args[0]
	}

	if spaceID != "" && objectsSearch == "" {
		objects, err := a.source().ListObjects(ctx, spaceID)
		if err != nil {
			return fmt.Errorf("failed to list objects of %s: %w", spaceID, err)
		}
		export.RenderObjectTable(outputWriter, objects)
		return nil
	}

	stats, err := a.ensureCache(ctx, progressPrinter(objectsQuiet))
	if err != nil {
		return fmt.Errorf("failed to load object cache: %w", err)
	}

	if objectsSearch != "" {
		obj, ok := a.cache.LookupObjectByName(objectsSearch, spaceID)
		if !ok {
			return fmt.Errorf("no object named %q", objectsSearch)
		}
		export.RenderObjectTable(outputWriter, []types.DesignObject{obj})
		return nil
	}

	renderCacheStats(stats)
	return nil
}

// renderCacheStats prints the cache summary and one row per space.
func renderCacheStats(stats *cache.Stats) {
	fmt.Fprintf(outputWriter, "Cache %s: %d spaces, %d objects, built in %s\n",
		stats.State, stats.Spaces, stats.Objects, stats.Duration.Round(time.Millisecond))

	ids := make([]string, 0, len(stats.SpaceStats))
	for id := range stats.SpaceStats {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	t := table.NewWriter()
	t.SetOutputMirror(outputWriter)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"space", "status", "objects", "error"})
	for _, id := range ids {
		s := stats.SpaceStats[id]
		t.AppendRow(table.Row{id, s.Status, s.ObjectCount, s.Error})
	}
	t.Render()
}
