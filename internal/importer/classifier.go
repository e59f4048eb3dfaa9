package importer

import "strings"

// FieldClass is the coercion class a field path falls into.
type FieldClass int

const (
	ClassPlain FieldClass = iota
	ClassArray
	ClassJSON
	ClassNumeric
)

func (c FieldClass) String() string {
	switch c {
	case ClassArray:
		return "array"
	case ClassJSON:
		return "json"
	case ClassNumeric:
		return "numeric"
	default:
		return "plain"
	}
}

// numericFields are path segments coerced to numbers when the key has no dots.
var numericFields = map[string]struct{}{
	"price":                  {},
	"bedrooms":               {},
	"bathrooms":              {},
	"area":                   {},
	"floors":                 {},
	"parking":                {},
	"startingPrice":          {},
	"annualAppreciationRate": {},
}

type fieldTable struct {
	arrays []string
	json   []string
}

// fieldTables must stay in sync with the schemas the backend's bulk-import
// endpoints validate against. There is no runtime negotiation.
var fieldTables = map[EntityKind]fieldTable{
	KindProperties: {
		arrays: []string{"features", "amenities", "tags", "nearbyPlaces"},
		json:   []string{"images", "floorPlans", "specifications", "location.coordinates", "paymentPlan"},
	},
	KindUsers: {
		arrays: []string{"permissions", "favoriteProperties"},
		json:   []string{"address", "notificationSettings"},
	},
	KindLeads: {
		arrays: []string{"preferences.propertyTypes", "preferences.locations", "tags"},
		json:   []string{"budget", "contactHistory"},
	},
	KindDevelopers: {
		arrays: []string{"specializations", "serviceAreas"},
		json:   []string{"logo", "contact", "socialLinks"},
	},
	KindCities: {
		arrays: []string{"highlights", "tags"},
		json:   []string{"coordinates", "images"},
	},
	KindLaunches: {
		arrays: []string{"features", "amenities", "unitTypes"},
		json:   []string{"images", "location.coordinates", "paymentPlans"},
	},
	KindGovernorates: {
		arrays: []string{"tags"},
		json:   []string{"coordinates"},
	},
	KindAreas: {
		arrays: []string{"tags", "nearbyLandmarks"},
		json:   []string{"coordinates"},
	},
}

// Classifier answers which coercion class a field path belongs to for one
// entity kind. The zero value is not usable; see ClassifierFor.
type Classifier struct {
	kind   EntityKind
	arrays map[string]struct{}
	json   map[string]struct{}
}

// ClassifierFor builds the lookup sets for kind. Unknown kinds get an empty
// table, so every field is plain or numeric.
func ClassifierFor(kind EntityKind) Classifier {
	t := fieldTables[kind]
	c := Classifier{
		kind:   kind,
		arrays: make(map[string]struct{}, len(t.arrays)),
		json:   make(map[string]struct{}, len(t.json)),
	}
	for _, p := range t.arrays {
		c.arrays[p] = struct{}{}
	}
	for _, p := range t.json {
		c.json[p] = struct{}{}
	}
	return c
}

// Classify returns the class of path. JSON matching covers the declared path
// and anything nested below it, so "budget.min" is a child of "budget".
func (c Classifier) Classify(path string) FieldClass {
	if _, ok := c.arrays[path]; ok {
		return ClassArray
	}
	if c.isJSON(path) {
		return ClassJSON
	}
	if !strings.Contains(path, ".") && IsNumericField(path) {
		return ClassNumeric
	}
	return ClassPlain
}

// DeclaresJSON reports whether path itself is a declared JSON field.
func (c Classifier) DeclaresJSON(path string) bool {
	_, ok := c.json[path]
	return ok
}

func (c Classifier) isJSON(path string) bool {
	if _, ok := c.json[path]; ok {
		return true
	}
	for i := strings.LastIndexByte(path, '.'); i > 0; i = strings.LastIndexByte(path[:i], '.') {
		if _, ok := c.json[path[:i]]; ok {
			return true
		}
	}
	return false
}

// IsNumericField reports whether segment is in the fixed numeric list.
func IsNumericField(segment string) bool {
	_, ok := numericFields[segment]
	return ok
}

// Classify is a convenience wrapper for one-off lookups.
func Classify(kind EntityKind, path string) FieldClass {
	return ClassifierFor(kind).Classify(path)
}
