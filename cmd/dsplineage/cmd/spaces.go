package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dbsmedya/dsplineage/internal/export"
	"github.com/dbsmedya/dsplineage/internal/gateway"
	"github.com/dbsmedya/dsplineage/internal/shutdown"
)

var spacesCmd = &cobra.Command{
	Use:   "spaces",
	Short: "List the spaces of the tenant",
	Long: `Spaces lists every space visible with the configured credentials,
including business names when the repository provides them.

Example:
  dsplineage spaces --config dsplineage.yaml`,
	RunE: runSpaces,
}

func init() {
	rootCmd.AddCommand(spacesCmd)
}

func runSpaces(cmd *cobra.Command, args []string) error {
	ctx, stop := shutdown.SetupSignalHandler(commandContext(cmd))
	defer stop()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	return listSpaces(ctx, a)
}

func listSpaces(ctx context.Context, a *app) error {
	spaces, err := a.source().ListSpaces(ctx)
	if err != nil {
		return fmt.Errorf("failed to list spaces: %w", err)
	}

	if namer, ok := a.source().(gateway.BusinessNamer); ok {
		names, err := namer.SpaceBusinessNames(ctx)
		if err != nil {
			a.log.Warnw("Could not load space business names", "error", err)
		}
		for i := range spaces {
			if bn, ok := names[spaces[i].ID]; ok && spaces[i].BusinessName == "" {
				spaces[i].BusinessName = bn
			}
		}
	}

	export.RenderSpaceTable(outputWriter, spaces)
	return nil
}
