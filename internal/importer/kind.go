package importer

import (
	"fmt"
	"strings"
)

// EntityKind identifies the domain type being imported. It selects both the
// classifier table and the remote batch-import endpoint.
type EntityKind string

const (
	KindProperties   EntityKind = "properties"
	KindUsers        EntityKind = "users"
	KindLeads        EntityKind = "leads"
	KindDevelopers   EntityKind = "developers"
	KindCities       EntityKind = "cities"
	KindLaunches     EntityKind = "launches"
	KindGovernorates EntityKind = "governorates"
	KindAreas        EntityKind = "areas"
)

// EntityKinds lists every supported kind in display order.
var EntityKinds = []EntityKind{
	KindProperties,
	KindUsers,
	KindLeads,
	KindDevelopers,
	KindCities,
	KindLaunches,
	KindGovernorates,
	KindAreas,
}

// ParseEntityKind accepts the kind names used in URLs and CLI flags.
func ParseEntityKind(s string) (EntityKind, error) {
	k := EntityKind(strings.ToLower(strings.TrimSpace(s)))
	if k.Valid() {
		return k, nil
	}
	return "", fmt.Errorf("unknown entity kind %q", s)
}

func (k EntityKind) Valid() bool {
	_, ok := fieldTables[k]
	return ok
}

func (k EntityKind) String() string {
	return string(k)
}
