package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix namespaces environment overrides, e.g. DSPLINEAGE_API_TOKEN.
const EnvPrefix = "DSPLINEAGE"

// Load reads the YAML file at path over the defaults. Keys present in the
// file can be overridden from the environment, and ${VAR} references in
// connection fields are expanded.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	return LoadFromViper(v)
}

// LoadFromViper decodes an already populated viper instance.
func LoadFromViper(v *viper.Viper) (*Config, error) {
	cfg := DefaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	for _, field := range []*string{
		&cfg.API.Host,
		&cfg.API.Token,
		&cfg.Catalog.Host,
		&cfg.Catalog.User,
		&cfg.Catalog.Password,
		&cfg.Catalog.Database,
		&cfg.Export.OutputDir,
		&cfg.Logging.Output,
	} {
		*field = expandEnvVar(*field)
	}
	return cfg, nil
}

var envRef = regexp.MustCompile(`\$(?:\{([^}]+)\}|([A-Za-z_][A-Za-z0-9_]*))`)

// expandEnvVar substitutes $VAR and ${VAR}. Unset variables are left as written.
func expandEnvVar(s string) string {
	return envRef.ReplaceAllStringFunc(s, func(ref string) string {
		m := envRef.FindStringSubmatch(ref)
		name := m[1]
		if name == "" {
			name = m[2]
		}
		if val, ok := os.LookupEnv(name); ok {
			return val
		}
		return ref
	})
}

// Overrides carries CLI flag values that take precedence over the file.
type Overrides struct {
	LogLevel      string
	LogFormat     string
	Host          string
	MaxDepth      int
	ResponseShape string
	CacheSource   string
}

// ApplyOverrides applies CLI flag overrides to the configuration.
// Only non-zero/non-empty values are applied.
func (c *Config) ApplyOverrides(o Overrides) {
	if o.LogLevel != "" {
		c.Logging.Level = o.LogLevel
	}
	if o.LogFormat != "" {
		c.Logging.Format = o.LogFormat
	}
	if o.Host != "" {
		c.API.Host = o.Host
	}
	if o.MaxDepth > 0 {
		c.Lineage.MaxDepth = o.MaxDepth
	}
	if o.ResponseShape != "" {
		c.Lineage.ResponseShape = o.ResponseShape
	}
	if o.CacheSource != "" {
		c.Cache.Source = o.CacheSource
	}
}
