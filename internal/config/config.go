// Package config provides configuration structures and loading for dsplineage.
package config

import "time"

// Config represents the complete application configuration.
type Config struct {
	API     APIConfig     `yaml:"api" mapstructure:"api"`
	Catalog CatalogConfig `yaml:"catalog" mapstructure:"catalog"`
	Cache   CacheConfig   `yaml:"cache" mapstructure:"cache"`
	Lineage LineageConfig `yaml:"lineage" mapstructure:"lineage"`
	Export  ExportConfig  `yaml:"export" mapstructure:"export"`
	Logging LoggingConfig `yaml:"logging" mapstructure:"logging"`
}

// APIConfig describes the tenant's repository API.
type APIConfig struct {
	Host                  string `yaml:"host" mapstructure:"host"`
	Token                 string `yaml:"token" mapstructure:"token"`
	TimeoutSeconds        int    `yaml:"timeout_seconds" mapstructure:"timeout_seconds"`
	LineageTimeoutSeconds int    `yaml:"lineage_timeout_seconds" mapstructure:"lineage_timeout_seconds"`
	MaxRetries            int    `yaml:"max_retries" mapstructure:"max_retries"`
	BackoffMS             int    `yaml:"backoff_ms" mapstructure:"backoff_ms"`
}

// Timeout returns the per-request timeout for listing calls.
func (a APIConfig) Timeout() time.Duration {
	return time.Duration(a.TimeoutSeconds) * time.Second
}

// LineageTimeout returns the per-request timeout for dependency calls.
func (a APIConfig) LineageTimeout() time.Duration {
	return time.Duration(a.LineageTimeoutSeconds) * time.Second
}

// Backoff returns the initial retry backoff.
func (a APIConfig) Backoff() time.Duration {
	return time.Duration(a.BackoffMS) * time.Millisecond
}

// DatabaseConfig represents a MySQL database connection configuration.
type DatabaseConfig struct {
	Host               string `yaml:"host" mapstructure:"host"`
	Port               int    `yaml:"port" mapstructure:"port"`
	User               string `yaml:"user" mapstructure:"user"`
	Password           string `yaml:"password" mapstructure:"password"`
	Database           string `yaml:"database" mapstructure:"database"`
	TLS                string `yaml:"tls" mapstructure:"tls"` // disable, preferred, required
	MaxConnections     int    `yaml:"max_connections" mapstructure:"max_connections"`
	MaxIdleConnections int    `yaml:"max_idle_connections" mapstructure:"max_idle_connections"`
}

// CatalogConfig points at a read-only SQL replica of the object repository.
type CatalogConfig struct {
	DatabaseConfig `yaml:",inline" mapstructure:",squash"`
	Enabled        bool   `yaml:"enabled" mapstructure:"enabled"`
	SpacesTable    string `yaml:"spaces_table" mapstructure:"spaces_table"`
	ObjectsTable   string `yaml:"objects_table" mapstructure:"objects_table"`
}

// CacheConfig controls how the typed cache is built.
type CacheConfig struct {
	Source        string `yaml:"source" mapstructure:"source"` // api or catalog
	MaxAgeMinutes int    `yaml:"max_age_minutes" mapstructure:"max_age_minutes"`
	// BuildRetries re-attempts a failed space load. Failures the API client
	// already retried max_retries times are not retried again.
	BuildRetries  int    `yaml:"build_retries" mapstructure:"build_retries"`
	Concurrency   int    `yaml:"concurrency" mapstructure:"concurrency"`
}

// MaxAge returns the age after which callers should rebuild the cache.
func (c CacheConfig) MaxAge() time.Duration {
	return time.Duration(c.MaxAgeMinutes) * time.Minute
}

// LineageConfig controls dependency retrieval and classification.
type LineageConfig struct {
	MaxDepth           int      `yaml:"max_depth" mapstructure:"max_depth"`
	Recursive          bool     `yaml:"recursive" mapstructure:"recursive"`
	IncludeImpact      bool     `yaml:"include_impact" mapstructure:"include_impact"`
	IncludeLineage     bool     `yaml:"include_lineage" mapstructure:"include_lineage"`
	ResponseShape      string   `yaml:"response_shape" mapstructure:"response_shape"` // auto, flat, nested
	DependencyTypes    []string `yaml:"dependency_types" mapstructure:"dependency_types"`
	TransactionalTypes []string `yaml:"transactional_types" mapstructure:"transactional_types"`
}

// ExportConfig represents output settings.
type ExportConfig struct {
	OutputDir string `yaml:"output_dir" mapstructure:"output_dir"`
	Format    string `yaml:"format" mapstructure:"format"` // table, json, csv, tree, mermaid
}

// LoggingConfig represents logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`   // debug, info, warn, error
	Format string `yaml:"format" mapstructure:"format"` // json or text
	Output string `yaml:"output" mapstructure:"output"` // stdout, stderr, or file path
}

// DefaultTransactionalTypes are the dependency types that move or transform data.
var DefaultTransactionalTypes = []string{
	"csn.query.from",
	"sap.dis.replicationflow.source",
	"sap.dis.replicationflow.targetOf",
	"sap.dwc.transformationflow.source",
	"sap.dwc.transformationflow.targetOf",
	"sap.dis.target",
	"sap.dis.source",
	"sap.dis.targetOf",
}

// DefaultDependencyTypes is the set requested from the dependency endpoint
// when none is configured: the transactional types plus the dimensional ones.
var DefaultDependencyTypes = append(append([]string{}, DefaultTransactionalTypes...),
	"csn.entity.association",
	"csn.valueHelp.entity",
	"csn.derivation.lookupEntity",
	"sap.dwc.idtEntity",
)

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() *Config {
	return &Config{
		API: APIConfig{
			TimeoutSeconds:        30,
			LineageTimeoutSeconds: 60,
			MaxRetries:            3,
			BackoffMS:             1000,
		},
		Catalog: CatalogConfig{
			DatabaseConfig: DatabaseConfig{
				Port:               3306,
				TLS:                "preferred",
				MaxConnections:     5,
				MaxIdleConnections: 2,
			},
			SpacesTable:  "spaces",
			ObjectsTable: "design_objects",
		},
		Cache: CacheConfig{
			Source:        "api",
			MaxAgeMinutes: 60,
			BuildRetries:  2,
			Concurrency:   1,
		},
		Lineage: LineageConfig{
			MaxDepth:           50,
			Recursive:          true,
			IncludeImpact:      false,
			IncludeLineage:     true,
			ResponseShape:      "auto",
			DependencyTypes:    append([]string{}, DefaultDependencyTypes...),
			TransactionalTypes: append([]string{}, DefaultTransactionalTypes...),
		},
		Export: ExportConfig{
			OutputDir: "./lineage_exports",
			Format:    "table",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "stderr",
		},
	}
}
