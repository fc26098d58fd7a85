// Package export renders lineage graphs for people and spreadsheets.
package export

import (
	"bytes"
	"encoding/json"
	"io"

	"github.com/elliotchance/orderedmap/v2"

	"github.com/dbsmedya/dsplineage/internal/graph"
)

// object is a JSON object that keeps its keys in insertion order.
type object struct {
	m *orderedmap.OrderedMap[string, any]
}

func newObject() *object {
	return &object{m: orderedmap.NewOrderedMap[string, any]()}
}

func (o *object) set(key string, value any) *object {
	o.m.Set(key, value)
	return o
}

// MarshalJSON writes the keys in insertion order.
func (o *object) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for el := o.m.Front(); el != nil; el = el.Next() {
		if buf.Len() > 1 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(el.Key)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		value, err := json.Marshal(el.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Document mirrors g as a JSON document:
//
//	{"root": ..., "truncated": ..., "objects": {id: {technicalName, kind, ..., edges: [...]}}}
//
// Objects are ordered by depth then id, edges by target then type.
func Document(g *graph.LineageGraph, c *graph.Classifier) json.Marshaler {
	objects := newObject()
	for _, n := range g.Nodes() {
		edges := make([]*object, 0)
		for _, e := range n.Out() {
			edges = append(edges, newObject().
				set("target", e.Target).
				set("type", e.Type).
				set("transactional", c.IsTransactional(e)).
				set("impact", e.IsImpact).
				set("lineage", e.IsLineage))
		}

		obj := newObject().
			set("technicalName", n.Object.Name()).
			set("kind", n.Object.Kind)
		if n.Object.BusinessName != "" {
			obj.set("businessName", n.Object.BusinessName)
		}
		if n.Object.SpaceID != "" {
			obj.set("spaceId", n.Object.SpaceID)
		}
		obj.set("depth", n.Depth)
		if n.Stub {
			obj.set("stub", true)
		}
		obj.set("edges", edges)
		objects.set(n.ID(), obj)
	}

	return newObject().
		set("root", g.Root).
		set("truncated", g.Truncated).
		set("objects", objects)
}

// WriteJSON writes the graph document with two-space indentation.
func WriteJSON(w io.Writer, g *graph.LineageGraph, c *graph.Classifier) error {
	return writeIndented(w, Document(g, c))
}

// WriteStatsJSON writes graph statistics as indented JSON.
func WriteStatsJSON(w io.Writer, st graph.Stats) error {
	return writeIndented(w, st)
}

func writeIndented(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
