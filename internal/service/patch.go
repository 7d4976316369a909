package service

import (
	"encoding/json"

	"github.com/aryan0dhankhar/natours/internal/domain"
)

// dropKeys removes top-level keys from a JSON object patch.
func dropKeys(patch []byte, keys ...string) ([]byte, error) {
	if len(patch) == 0 {
		return patch, nil
	}
	var m map[string]json.RawMessage
	if err := json.Unmarshal(patch, &m); err != nil {
		return nil, domain.Validation("Invalid input data. Request body must be a JSON object").Wrap(err)
	}
	for _, k := range keys {
		delete(m, k)
	}
	return json.Marshal(m)
}

// hasAnyKey reports whether the JSON object patch sets any of keys.
func hasAnyKey(patch []byte, keys ...string) (bool, error) {
	if len(patch) == 0 {
		return false, nil
	}
	var m map[string]json.RawMessage
	if err := json.Unmarshal(patch, &m); err != nil {
		return false, domain.Validation("Invalid input data. Request body must be a JSON object").Wrap(err)
	}
	for _, k := range keys {
		if _, ok := m[k]; ok {
			return true, nil
		}
	}
	return false, nil
}
