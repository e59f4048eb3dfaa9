package importer

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
)

// Normalizer turns flat rows into nested, typed records. It never fails:
// values that cannot be coerced are passed through as their original text
// and validation is left to the backend. Each such fallback is logged at
// debug level and counted so the policy can be audited.
type Normalizer struct {
	policy CoercionPolicy
	logger logrus.FieldLogger
}

func NewNormalizer(policy CoercionPolicy, logger logrus.FieldLogger) *Normalizer {
	if policy == "" {
		policy = PolicyLenient
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Normalizer{policy: policy, logger: logger}
}

// Normalize converts one row. Calling it twice with the same row yields
// structurally identical records.
func (n *Normalizer) Normalize(kind EntityKind, row FlatRow) Record {
	c := ClassifierFor(kind)
	rec := Record{}

	for _, f := range row {
		if isEmpty(f.Value) {
			continue
		}

		switch c.Classify(f.Key) {
		case ClassJSON:
			if parsed, ok := n.parseJSON(kind, f.Key, f.Value, c.DeclaresJSON(f.Key)); ok {
				n.set(kind, rec, f.Key, parsed)
				continue
			}
		case ClassArray:
			n.set(kind, rec, f.Key, splitList(scalarString(f.Value)))
			continue
		}

		n.set(kind, rec, f.Key, n.coercePlain(kind, f.Key, f.Value))
	}

	n.postProcess(kind, rec)
	return rec
}

// NormalizeAll normalizes rows in order.
func (n *Normalizer) NormalizeAll(kind EntityKind, rows []FlatRow) []Record {
	out := make([]Record, 0, len(rows))
	for _, row := range rows {
		out = append(out, n.Normalize(kind, row))
	}
	return out
}

func (n *Normalizer) parseJSON(kind EntityKind, key string, v any, declared bool) (any, bool) {
	s, ok := v.(string)
	if !ok {
		// already a typed scalar; parsing its text form would give it back
		return v, true
	}
	var parsed any
	if err := json.Unmarshal([]byte(s), &parsed); err != nil {
		// children of a JSON field are routinely plain text
		if declared {
			n.fallback(kind, key, "invalid_json", s)
		}
		return nil, false
	}
	return parsed, true
}

func (n *Normalizer) coercePlain(kind EntityKind, key string, v any) any {
	s, isString := v.(string)
	if !isString {
		return v
	}

	if strings.Contains(key, ".") || IsNumericField(key) {
		if f, ok := n.parseNumber(kind, key, s); ok {
			return f
		}
		return s
	}

	switch strings.ToLower(s) {
	case "true":
		return true
	case "false":
		return false
	}
	return s
}

func (n *Normalizer) parseNumber(kind EntityKind, key, s string) (float64, bool) {
	if n.policy == PolicyStrict {
		f, ok := parseFloatStrict(s)
		if !ok && IsNumericField(lastSegment(key)) {
			n.fallback(kind, key, "not_a_number", s)
		}
		return f, ok
	}

	f, ok, truncated := parseFloatPrefix(s)
	if !ok {
		if IsNumericField(lastSegment(key)) {
			n.fallback(kind, key, "not_a_number", s)
		}
		return 0, false
	}
	if truncated {
		n.fallback(kind, key, "numeric_prefix", s)
	}
	return f, true
}

func (n *Normalizer) set(kind EntityKind, rec Record, key string, v any) {
	if rec.Set(key, v) {
		n.logger.WithFields(logrus.Fields{
			"entity_kind": kind,
			"key":         key,
		}).Warn("Replaced non-object value while nesting field path")
	}
}

func (n *Normalizer) fallback(kind EntityKind, key, reason, value string) {
	getMetrics().coercionFallbacks.WithLabelValues(string(kind), reason).Inc()
	n.logger.WithFields(logrus.Fields{
		"entity_kind": kind,
		"key":         key,
		"reason":      reason,
		"value":       value,
	}).Debug("Coercion fell back to original text")
}

var specificationNumbers = []string{"bedrooms", "bathrooms", "area", "floors", "parking"}

func (n *Normalizer) postProcess(kind EntityKind, rec Record) {
	if kind == KindProperties {
		if spec, ok := asMap(rec["specifications"]); ok {
			for _, k := range specificationNumbers {
				if s, ok := spec[k].(string); ok {
					if f, ok := n.parseNumber(kind, "specifications."+k, s); ok {
						spec[k] = f
					}
				}
			}
		}
	}

	if kind == KindProperties || kind == KindLaunches {
		n.nestCoordinates(kind, rec)
	}
}

// nestCoordinates moves "coordinates.latitude"/"coordinates.longitude" keys
// that arrived flattened inside a location object into location.coordinates.
func (n *Normalizer) nestCoordinates(kind EntityKind, rec Record) {
	loc, ok := asMap(rec["location"])
	if !ok {
		return
	}
	for _, axis := range []string{"latitude", "longitude"} {
		flat := "coordinates." + axis
		if v, ok := loc[flat]; ok {
			delete(loc, flat)
			Record(loc).Set(flat, v)
		}
	}
	coords, ok := asMap(loc["coordinates"])
	if !ok {
		return
	}
	for _, axis := range []string{"latitude", "longitude"} {
		if s, ok := coords[axis].(string); ok {
			if f, ok := n.parseNumber(kind, "location.coordinates."+axis, s); ok {
				coords[axis] = f
			}
		}
	}
}

func isEmpty(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return t == ""
	}
	return false
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func scalarString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprint(t)
	}
}

func lastSegment(key string) string {
	if i := strings.LastIndexByte(key, '.'); i >= 0 {
		return key[i+1:]
	}
	return key
}
