package graph

import (
	"sort"
	"strings"
)

// EdgeClass separates data-moving relations from structural ones.
type EdgeClass int

const (
	Structural EdgeClass = iota
	Transactional
)

func (c EdgeClass) String() string {
	if c == Transactional {
		return "transactional"
	}
	return "structural"
}

// Classifier decides edge classes from an allow-list of dependency types.
// It is immutable after construction.
type Classifier struct {
	allowed map[string]struct{}
}

// NewClassifier creates a Classifier treating the given dependency types as
// transactional. Blank entries are ignored.
func NewClassifier(transactionalTypes []string) *Classifier {
	allowed := make(map[string]struct{}, len(transactionalTypes))
	for _, t := range transactionalTypes {
		t = strings.TrimSpace(t)
		if t != "" {
			allowed[t] = struct{}{}
		}
	}
	return &Classifier{allowed: allowed}
}

// Classify returns the class of e.
func (c *Classifier) Classify(e DependencyEdge) EdgeClass {
	if c.IsTransactionalType(e.Type) {
		return Transactional
	}
	return Structural
}

// IsTransactional reports whether e moves or transforms data.
func (c *Classifier) IsTransactional(e DependencyEdge) bool {
	return c.Classify(e) == Transactional
}

// IsTransactionalType reports whether a dependency type is on the allow-list.
func (c *Classifier) IsTransactionalType(depType string) bool {
	_, ok := c.allowed[depType]
	return ok
}

// Types returns the allow-list, sorted.
func (c *Classifier) Types() []string {
	types := make([]string, 0, len(c.allowed))
	for t := range c.allowed {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}
