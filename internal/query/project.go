package query

import (
	"encoding/json"
	"fmt"
)

// Project serializes v and keeps only the fields the projection selects.
// v may be a single entity or a slice of entities. "id" always survives an
// inclusion projection.
func Project(v any, p Projection) (any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("project: %w", err)
	}
	var decoded any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, fmt.Errorf("project: %w", err)
	}
	switch d := decoded.(type) {
	case []any:
		for i, item := range d {
			if m, ok := item.(map[string]any); ok {
				d[i] = p.apply(m)
			}
		}
		return d, nil
	case map[string]any:
		return p.apply(d), nil
	default:
		return decoded, nil
	}
}

func (p Projection) apply(m map[string]any) map[string]any {
	delete(m, VersionField)
	if len(p.Include) > 0 {
		out := make(map[string]any, len(p.Include)+1)
		if id, ok := m["id"]; ok {
			out["id"] = id
		}
		for _, f := range p.Include {
			if v, ok := m[f]; ok {
				out[f] = v
			}
		}
		return out
	}
	for _, f := range p.Exclude {
		delete(m, f)
	}
	return m
}
