package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/dbsmedya/dsplineage/internal/config"
)

// Version information (set via ldflags at build time)
var (
	Version = "0.0.1-dev"
	Commit  = "unknown"
)

// CLI flags that override config file values
var (
	cfgFile       string
	logLevel      string
	logFormat     string
	host          string
	maxDepth      int
	responseShape string
	cacheSource   string
	noColor       bool
)

var rootCmd = &cobra.Command{
	Use:   "dsplineage",
	Short: "Data lineage explorer for Datasphere repositories",
	Long: `dsplineage reads design objects and their dependencies from a Datasphere
tenant and builds lineage graphs from them.

Features:
  - Space and design object listing with a typed in-memory cache
  - Lineage graphs from flat or nested dependency responses
  - Transactional (data-moving) lineage filtering
  - Shortest dependency path between two objects
  - Table, tree, JSON, CSV and mermaid output plus zip export bundles`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: false,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	// Config file flag
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "dsplineage.yaml",
		"Path to configuration file")

	// Logging overrides
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "",
		"Override log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "",
		"Override log format (json, text)")

	// Repository overrides
	rootCmd.PersistentFlags().StringVar(&host, "host", "",
		"Override the tenant base URL")
	rootCmd.PersistentFlags().StringVar(&cacheSource, "source", "",
		"Override where spaces and objects are listed from (api, catalog)")

	// Lineage overrides
	rootCmd.PersistentFlags().IntVar(&maxDepth, "max-depth", 0,
		"Override the maximum traversal depth")
	rootCmd.PersistentFlags().StringVar(&responseShape, "shape", "",
		"Override dependency response shape detection (auto, flat, nested)")

	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false,
		"Disable colored output")
}

// GetConfigFile returns the config file path
func GetConfigFile() string {
	return cfgFile
}

// GetCLIOverrides returns the CLI flag override values
func GetCLIOverrides() config.Overrides {
	return config.Overrides{
		LogLevel:      logLevel,
		LogFormat:     logFormat,
		Host:          host,
		MaxDepth:      maxDepth,
		ResponseShape: responseShape,
		CacheSource:   cacheSource,
	}
}
