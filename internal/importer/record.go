package importer

import (
	"sort"
	"strings"
)

// Field is one cell of a flat row.
type Field struct {
	Key   string
	Value any
}

// FlatRow is one input record before nesting. Field order follows the source
// header order so that colliding paths resolve the same way on every run.
type FlatRow []Field

// RowFromMap builds a FlatRow with keys in lexical order.
func RowFromMap(m map[string]any) FlatRow {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	row := make(FlatRow, 0, len(keys))
	for _, k := range keys {
		row = append(row, Field{Key: k, Value: m[k]})
	}
	return row
}

// Record is a normalized, nested entity ready for submission.
type Record map[string]any

// Set writes v at the dot-separated path, creating intermediate maps. An
// intermediate segment holding a non-map value is replaced by a fresh map;
// replaced reports whether that happened.
func (r Record) Set(path string, v any) (replaced bool) {
	segments := strings.Split(path, ".")
	node := map[string]any(r)
	for _, seg := range segments[:len(segments)-1] {
		switch next := node[seg].(type) {
		case map[string]any:
			node = next
		case Record:
			node = next
		default:
			if next != nil {
				replaced = true
			}
			child := map[string]any{}
			node[seg] = child
			node = child
		}
	}
	node[segments[len(segments)-1]] = v
	return replaced
}

// Get returns the value at path and whether it exists.
func (r Record) Get(path string) (any, bool) {
	var cur any = map[string]any(r)
	for _, seg := range strings.Split(path, ".") {
		m, ok := asMap(cur)
		if !ok {
			return nil, false
		}
		cur, ok = m[seg]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// Flatten is the inverse of nesting: every non-map leaf keyed by its dot-path.
func (r Record) Flatten() map[string]any {
	out := make(map[string]any)
	flattenInto(out, "", map[string]any(r))
	return out
}

func flattenInto(out map[string]any, prefix string, m map[string]any) {
	for k, v := range m {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		if child, ok := asMap(v); ok && len(child) > 0 {
			flattenInto(out, key, child)
			continue
		}
		out[key] = v
	}
}

func asMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case Record:
		return m, true
	}
	return nil, false
}
