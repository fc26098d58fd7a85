package gateway

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/dbsmedya/dsplineage/internal/types"
)

func decodeLoose(raw []byte) (interface{}, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v interface{}
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	return v, nil
}

// unwrapList accepts either a bare array or an object wrapping one under
// any of keys.
func unwrapList(v interface{}, keys ...string) ([]interface{}, bool) {
	switch t := v.(type) {
	case []interface{}:
		return t, true
	case map[string]interface{}:
		for _, k := range keys {
			if list, ok := t[k].([]interface{}); ok {
				return list, true
			}
		}
	}
	return nil, false
}

// parseSpaces accepts a list of ids, a list of space records, or a
// {"spaces": [...]} wrapper.
func parseSpaces(raw []byte) ([]types.Space, error) {
	v, err := decodeLoose(raw)
	if err != nil {
		return nil, err
	}
	list, ok := unwrapList(v, "spaces", "results")
	if !ok {
		return nil, fmt.Errorf("%w: expected a list of spaces", ErrMalformedPayload)
	}

	spaces := make([]types.Space, 0, len(list))
	seen := make(map[string]bool, len(list))
	for _, item := range list {
		var s types.Space
		switch it := item.(type) {
		case string:
			s.ID = it
		case map[string]interface{}:
			s.ID = types.FirstString(it, "spaceId", "id", "name")
			s.Label = types.FirstString(it, "label", "name")
			s.BusinessName = types.FirstString(it, "businessName", "business_name")
		}
		if s.ID == "" || seen[s.ID] {
			continue
		}
		seen[s.ID] = true
		spaces = append(spaces, s)
	}
	return spaces, nil
}

func parseBusinessNames(raw []byte) (map[string]string, error) {
	v, err := decodeLoose(raw)
	if err != nil {
		return nil, err
	}
	list, ok := unwrapList(v, "results")
	if !ok {
		return nil, fmt.Errorf("%w: expected results list", ErrMalformedPayload)
	}

	names := make(map[string]string, len(list))
	for _, item := range list {
		m, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		id := types.FirstString(m, "name", "qualifiedName", "id")
		bn := types.FirstString(m, "businessName", "business_name")
		if id != "" && bn != "" {
			names[id] = bn
		}
	}
	return names, nil
}

// parseObjects reads a designObjects listing. Records without any usable
// identifier are dropped.
func parseObjects(raw []byte, spaceID string) ([]types.DesignObject, error) {
	v, err := decodeLoose(raw)
	if err != nil {
		return nil, err
	}
	list, ok := unwrapList(v, "results", "objects")
	if !ok {
		return nil, fmt.Errorf("%w: expected a list of design objects", ErrMalformedPayload)
	}

	objects := make([]types.DesignObject, 0, len(list))
	for _, item := range list {
		m, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		o := types.DesignObject{
			TechnicalName: types.FirstString(m, "technicalName", "qualified_name", "qualifiedName", "name"),
			QualifiedName: types.FirstString(m, "qualifiedName", "qualified_name", "technicalName"),
			BusinessName:  types.FirstString(m, "businessName", "label"),
			Kind:          types.FirstString(m, "kind", "type"),
			SpaceID:       spaceID,
		}
		o.ID = types.FirstString(m, "id")
		if o.ID == "" {
			o.ID = o.TechnicalName
		}
		if o.ID == "" {
			continue
		}
		objects = append(objects, o)
	}
	return objects, nil
}
