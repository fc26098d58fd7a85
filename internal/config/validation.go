package config

import (
	"fmt"
	"strings"
)

// ValidationError is one rejected configuration field.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

// ValidationErrors collects every problem found by Validate.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("validation failed:")
	for _, v := range e {
		b.WriteString("\n  - ")
		b.WriteString(v.Error())
	}
	return b.String()
}

type checker struct {
	errs ValidationErrors
}

// require records msg against field unless ok holds.
func (c *checker) require(ok bool, field, msg string) {
	if !ok {
		c.errs = append(c.errs, ValidationError{Field: field, Message: msg})
	}
}

// oneOf accepts the empty string (meaning "use the default") or one of allowed.
func (c *checker) oneOf(value, field string, allowed ...string) {
	if value == "" {
		return
	}
	for _, a := range allowed {
		if value == a {
			return
		}
	}
	c.require(false, field, fmt.Sprintf("must be one of %s", quoteList(allowed)))
}

func quoteList(values []string) string {
	q := make([]string, len(values))
	for i, v := range values {
		q[i] = "'" + v + "'"
	}
	return strings.Join(q, ", ")
}

// Validate checks the configuration for required fields and valid values.
// The catalog section is only checked when something will connect to it.
func (c *Config) Validate() error {
	var ch checker

	c.checkAPI(&ch)
	if c.Catalog.Enabled || c.Cache.Source == "catalog" {
		c.checkCatalog(&ch)
	}

	ch.oneOf(c.Cache.Source, "cache.source", "api", "catalog")
	ch.require(c.Cache.BuildRetries >= 0, "cache.build_retries", "cannot be negative")
	ch.require(c.Cache.Concurrency >= 0, "cache.concurrency", "cannot be negative")
	ch.require(c.Cache.MaxAgeMinutes >= 0, "cache.max_age_minutes", "cannot be negative")

	ch.require(c.Lineage.MaxDepth > 0, "lineage.max_depth", "must be positive")
	ch.oneOf(c.Lineage.ResponseShape, "lineage.response_shape", "auto", "flat", "nested")
	for i, t := range c.Lineage.TransactionalTypes {
		ch.require(strings.TrimSpace(t) != "",
			fmt.Sprintf("lineage.transactional_types[%d]", i), "dependency type cannot be empty")
	}

	ch.oneOf(c.Export.Format, "export.format", "table", "json", "csv", "tree", "mermaid")
	ch.oneOf(c.Logging.Level, "logging.level", "debug", "info", "warn", "error")
	ch.oneOf(c.Logging.Format, "logging.format", "json", "text")

	if len(ch.errs) > 0 {
		return ch.errs
	}
	return nil
}

func (c *Config) checkAPI(ch *checker) {
	host := c.API.Host
	switch {
	case host == "":
		ch.require(false, "api.host", "host is required")
	case !strings.HasPrefix(host, "http://") && !strings.HasPrefix(host, "https://"):
		ch.require(false, "api.host", "host must start with http:// or https://")
	}
	ch.require(c.API.TimeoutSeconds > 0, "api.timeout_seconds", "must be positive")
	ch.require(c.API.LineageTimeoutSeconds > 0, "api.lineage_timeout_seconds", "must be positive")
	ch.require(c.API.MaxRetries >= 0, "api.max_retries", "cannot be negative")
	ch.require(c.API.BackoffMS >= 0, "api.backoff_ms", "cannot be negative")
}

func (c *Config) checkCatalog(ch *checker) {
	db := c.Catalog.DatabaseConfig
	ch.require(db.Host != "", "catalog.host", "host is required when the catalog is used")
	ch.require(db.Port > 0 && db.Port <= 65535, "catalog.port", "port must be between 1 and 65535")
	ch.require(db.User != "", "catalog.user", "user is required")
	ch.require(db.Database != "", "catalog.database", "database name is required")
	ch.oneOf(db.TLS, "catalog.tls", "disable", "preferred", "required")
	ch.require(db.MaxConnections >= 0, "catalog.max_connections", "cannot be negative")
}
