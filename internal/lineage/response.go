package lineage

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/dbsmedya/dsplineage/internal/graph"
	"github.com/dbsmedya/dsplineage/internal/types"
)

// Shape is the layout of a dependency response.
type Shape int

const (
	// ShapeAuto detects the layout from the payload.
	ShapeAuto Shape = iota
	// ShapeFlat is a list of records whose dependencies are id references.
	ShapeFlat
	// ShapeNested is a tree where dependencies carry their own dependencies.
	ShapeNested
)

func (s Shape) String() string {
	switch s {
	case ShapeFlat:
		return "flat"
	case ShapeNested:
		return "nested"
	default:
		return "auto"
	}
}

// ParseShape parses "auto", "flat" or "nested".
func ParseShape(s string) (Shape, error) {
	switch s {
	case "", "auto":
		return ShapeAuto, nil
	case "flat":
		return ShapeFlat, nil
	case "nested":
		return ShapeNested, nil
	}
	return ShapeAuto, fmt.Errorf("unknown response shape %q", s)
}

// Response is a decoded dependency payload. Shape is never ShapeAuto.
type Response struct {
	Shape   Shape
	Records []graph.Record
}

// Parse decodes a dependency payload. It accepts a bare array, an object
// wrapping one under "results", "dependencies" or "data", or a single record.
// With ShapeAuto the payload is nested when any dependency carries
// dependencies of its own. Forcing ShapeFlat drops such grandchildren.
func Parse(raw []byte, shape Shape) (*Response, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var v interface{}
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	items, err := recordList(v)
	if err != nil {
		return nil, err
	}

	records := make([]graph.Record, 0, len(items))
	nested := false
	for _, item := range items {
		m, ok := item.(map[string]interface{})
		if !ok {
			// Not a record at all; normalization counts it as skipped.
			records = append(records, graph.Record{})
			continue
		}
		rec := parseRecord(m)
		for _, dep := range rec.Dependencies {
			if len(dep.Dependencies) > 0 {
				nested = true
			}
		}
		records = append(records, rec)
	}

	resolved := shape
	if resolved == ShapeAuto {
		resolved = ShapeFlat
		if nested {
			resolved = ShapeNested
		}
	}
	if resolved == ShapeFlat && nested {
		for i := range records {
			records[i].Dependencies = flatten(records[i].Dependencies)
		}
	}

	return &Response{Shape: resolved, Records: records}, nil
}

func recordList(v interface{}) ([]interface{}, error) {
	switch t := v.(type) {
	case []interface{}:
		return t, nil
	case map[string]interface{}:
		for _, k := range []string{"results", "dependencies", "data"} {
			if list, ok := t[k].([]interface{}); ok {
				if k == "dependencies" && types.FirstString(t, "id") != "" {
					// A single record whose own dependencies happen to be listed.
					break
				}
				return list, nil
			}
		}
		return []interface{}{t}, nil
	case nil:
		return nil, nil
	}
	return nil, fmt.Errorf("%w: unexpected payload of type %T", ErrMalformedResponse, v)
}

func parseRecord(m map[string]interface{}) graph.Record {
	rec := graph.Record{
		ID:             types.FirstString(m, "id"),
		QualifiedName:  types.FirstString(m, "qualifiedName", "qualified_name", "technicalName"),
		Name:           types.FirstString(m, "name", "businessName"),
		Kind:           types.FirstString(m, "kind"),
		SpaceID:        types.FirstString(m, "spaceName", "spaceId", "space"),
		FolderID:       types.FirstString(m, "folderId"),
		Hash:           types.FirstString(m, "hash"),
		DependencyType: types.FirstString(m, "dependencyType", "type"),
		Impact:         types.ToBool(m["impact"]),
		Lineage:        types.ToBool(m["lineage"]),
	}

	deps, ok := m["dependencies"].([]interface{})
	if !ok {
		deps, _ = m["deps"].([]interface{})
	}
	for _, d := range deps {
		dm, ok := d.(map[string]interface{})
		if !ok {
			// Bare id references.
			if id := types.ToString(d); id != "" {
				rec.Dependencies = append(rec.Dependencies, graph.Record{ID: id})
			}
			continue
		}
		rec.Dependencies = append(rec.Dependencies, parseRecord(dm))
	}
	return rec
}

func flatten(deps []graph.Record) []graph.Record {
	out := make([]graph.Record, len(deps))
	for i, d := range deps {
		d.Dependencies = nil
		out[i] = d
	}
	return out
}
