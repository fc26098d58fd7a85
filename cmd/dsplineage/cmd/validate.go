package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dbsmedya/dsplineage/internal/shutdown"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration and check connectivity",
	Long: `Validate checks the configuration file and the connections it describes.

Checks performed:
  - Configuration syntax and required fields
  - Repository API reachability (listing spaces)
  - SQL catalog connectivity, when enabled

Example:
  dsplineage validate --config dsplineage.yaml`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	ctx, stop := shutdown.SetupSignalHandler(commandContext(cmd))
	defer stop()

	fmt.Fprintf(outputWriter, "\n=== Configuration Validation ===\n")
	fmt.Fprintf(outputWriter, "Config file: %s\n\n", GetConfigFile())

	a, err := newApp(ctx)
	if err != nil {
		fmt.Fprintf(outputWriter, "❌ %v\n", err)
		return err
	}
	defer a.Close()

	fmt.Fprintf(outputWriter, "✅ Configuration is valid\n")
	fmt.Fprintf(outputWriter, "   Host:            %s\n", a.cfg.API.Host)
	fmt.Fprintf(outputWriter, "   Cache source:    %s\n", a.cfg.Cache.Source)
	fmt.Fprintf(outputWriter, "   Max depth:       %d\n", a.cfg.Lineage.MaxDepth)
	fmt.Fprintf(outputWriter, "   Transactional:   %d dependency types\n", len(a.classifier.Types()))

	hasErrors := false

	spaces, err := a.gateway.ListSpaces(ctx)
	if err != nil {
		fmt.Fprintf(outputWriter, "❌ Repository API: %v\n", err)
		hasErrors = true
	} else {
		fmt.Fprintf(outputWriter, "✅ Repository API reachable (%d spaces)\n", len(spaces))
	}

	if a.catalog != nil {
		if err := a.catalog.Ping(ctx); err != nil {
			fmt.Fprintf(outputWriter, "❌ SQL catalog: %v\n", err)
			hasErrors = true
		} else {
			fmt.Fprintf(outputWriter, "✅ SQL catalog reachable\n")
		}
	}

	if hasErrors {
		return fmt.Errorf("validation failed")
	}

	fmt.Fprintln(outputWriter, "\n=== Validation Complete ===")
	return nil
}
