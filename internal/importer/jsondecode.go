package importer

import (
	"encoding/json"
	"fmt"
)

// DecodeJSON accepts an array of objects that already match the target
// schema. No coercion is applied.
func DecodeJSON(data []byte, opts DecodeOptions) ([]Record, error) {
	var root any
	if err := json.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}

	items, ok := root.([]any)
	if !ok {
		return nil, ErrNotAnArray
	}
	if len(items) == 0 {
		return nil, ErrNoDataRows
	}
	if limit := opts.maxRows(); len(items) > limit {
		return nil, fmt.Errorf("%w (limit %d)", ErrTooManyRows, limit)
	}

	records := make([]Record, 0, len(items))
	for i, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w at index %d", ErrNotAnObject, i)
		}
		records = append(records, Record(obj))
	}
	return records, nil
}
