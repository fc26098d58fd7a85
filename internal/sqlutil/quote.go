// Package sqlutil validates and quotes the table names the catalog reader
// interpolates into its queries.
package sqlutil

import (
	"regexp"
	"strings"
)

// identifierPattern restricts names to alphanumerics and underscores.
var identifierPattern = regexp.MustCompile("^[a-zA-Z0-9_]+$")

// InvalidIdentifierError is returned when a table name cannot be used safely.
type InvalidIdentifierError struct {
	Name string
}

func (e *InvalidIdentifierError) Error() string {
	return "invalid table name: " + e.Name + " (use letters, digits and underscores, optionally schema.table)"
}

// quote wraps one identifier in backticks, doubling embedded backticks.
func quote(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

// QuoteTable validates a table name, optionally qualified with its schema,
// and returns it quoted: "design_objects" -> "`design_objects`",
// "repo.spaces" -> "`repo`.`spaces`".
func QuoteTable(name string) (string, error) {
	parts := strings.Split(name, ".")
	if len(parts) > 2 {
		return "", &InvalidIdentifierError{Name: name}
	}
	for i, p := range parts {
		if !identifierPattern.MatchString(p) {
			return "", &InvalidIdentifierError{Name: name}
		}
		parts[i] = quote(p)
	}
	return strings.Join(parts, "."), nil
}
