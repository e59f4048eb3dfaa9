package importer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEveryKindHasATable(t *testing.T) {
	for _, kind := range EntityKinds {
		_, ok := fieldTables[kind]
		assert.True(t, ok, "missing field table for %s", kind)
	}
	assert.Len(t, fieldTables, len(EntityKinds))
}

func TestFieldTablesAreDisjoint(t *testing.T) {
	for kind, table := range fieldTables {
		seen := map[string]string{}
		for _, p := range table.arrays {
			seen[p] = "array"
			assert.False(t, IsNumericField(p), "%s: %s is both array and numeric", kind, p)
		}
		for _, p := range table.json {
			prev, dup := seen[p]
			assert.False(t, dup, "%s: %s is both json and %s", kind, p, prev)
			assert.False(t, IsNumericField(p), "%s: %s is both json and numeric", kind, p)
		}
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		kind EntityKind
		path string
		want FieldClass
	}{
		{KindProperties, "features", ClassArray},
		{KindProperties, "images", ClassJSON},
		{KindProperties, "location.coordinates", ClassJSON},
		{KindProperties, "location.coordinates.latitude", ClassJSON},
		{KindProperties, "location.city", ClassPlain},
		{KindProperties, "price", ClassNumeric},
		{KindProperties, "title", ClassPlain},
		{KindLeads, "preferences.propertyTypes", ClassArray},
		{KindLeads, "budget", ClassJSON},
		{KindLeads, "budget.min", ClassJSON},
		{KindLeads, "budgetNote", ClassPlain},
		{KindCities, "coordinates", ClassJSON},
		{KindLaunches, "startingPrice", ClassNumeric},
		{KindUsers, "features", ClassPlain},
	}
	for _, tt := range tests {
		t.Run(string(tt.kind)+"/"+tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.kind, tt.path))
		})
	}
}

func TestParseEntityKind(t *testing.T) {
	k, err := ParseEntityKind(" Properties ")
	require.NoError(t, err)
	assert.Equal(t, KindProperties, k)

	_, err = ParseEntityKind("villas")
	assert.Error(t, err)
}
