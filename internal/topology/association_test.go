package topology

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildAssociationIndex(t *testing.T) {
	idx := BuildAssociationIndex([]RouteTable{
		{ID: "rtb-public", SubnetAssociations: []string{"subnet-a", "subnet-b"}},
		{ID: "rtb-private", SubnetAssociations: []string{"subnet-c"}},
		{ID: "rtb-main", IsMain: true},
	})

	assert.Equal(t, map[string]string{
		"subnet-a": "rtb-public",
		"subnet-b": "rtb-public",
		"subnet-c": "rtb-private",
	}, idx.SubnetToRouteTable)
	assert.Equal(t, []string{"subnet-a", "subnet-b"}, idx.RouteTableToSubnets["rtb-public"].Sorted())
	assert.Equal(t, []string{"subnet-c"}, idx.RouteTableToSubnets["rtb-private"].Sorted())

	main, ok := idx.RouteTableToSubnets["rtb-main"]
	require.True(t, ok, "tables without associations still get an entry")
	assert.Empty(t, main)

	assert.Empty(t, idx.Conflicts)
	assert.True(t, idx.Consistent())
}

func TestBuildAssociationIndex_LastWriterWins(t *testing.T) {
	idx := BuildAssociationIndex([]RouteTable{
		{ID: "rtb-1", SubnetAssociations: []string{"subnet-x"}},
		{ID: "rtb-2", SubnetAssociations: []string{"subnet-x"}},
	})

	assert.Equal(t, "rtb-2", idx.SubnetToRouteTable["subnet-x"])
	assert.True(t, idx.RouteTableToSubnets["rtb-1"].Has("subnet-x"))
	assert.True(t, idx.RouteTableToSubnets["rtb-2"].Has("subnet-x"))
	assert.Equal(t, []AssociationConflict{{SubnetID: "subnet-x", Previous: "rtb-1", Current: "rtb-2"}}, idx.Conflicts)
	assert.False(t, idx.Consistent())
}

func TestBuildAssociationIndex_ConsistentWithoutDuplicates(t *testing.T) {
	tables := []RouteTable{
		{ID: "rtb-1", SubnetAssociations: []string{"s1", "s2", "s3"}},
		{ID: "rtb-2", SubnetAssociations: []string{"s4"}},
		{ID: "rtb-3", SubnetAssociations: []string{"s5", "s6"}},
	}
	idx := BuildAssociationIndex(tables)
	for rt, subnets := range idx.RouteTableToSubnets {
		for id := range subnets {
			assert.Equal(t, rt, idx.SubnetToRouteTable[id], "subnet %s", id)
		}
	}
}

func TestBuildAssociationIndex_Empty(t *testing.T) {
	idx := BuildAssociationIndex(nil)
	assert.NotNil(t, idx.SubnetToRouteTable)
	assert.NotNil(t, idx.RouteTableToSubnets)
	assert.True(t, idx.Consistent())
}

func TestAssociations_DecodeBothShapes(t *testing.T) {
	var rts []RawRouteTable
	data := []byte(`[
		{"id": "rtb-legacy", "subnetAssociations": ["subnet-1", "subnet-2"]},
		{"RouteTableId": "rtb-new", "Associations": [
			{"Main": true},
			{"SubnetId": "subnet-3", "Main": false},
			{"id": "subnet-4"},
			42,
			{"unrelated": "x"}
		]}
	]`)
	require.NoError(t, json.Unmarshal(data, &rts))

	tables := normalizeRouteTables(rts)
	require.Len(t, tables, 2)

	assert.Equal(t, "rtb-legacy", tables[0].ID)
	assert.False(t, tables[0].IsMain)
	assert.Equal(t, []string{"subnet-1", "subnet-2"}, tables[0].SubnetAssociations)

	assert.Equal(t, "rtb-new", tables[1].ID)
	assert.True(t, tables[1].IsMain, "a main association marks the table as main")
	assert.Equal(t, []string{"subnet-3", "subnet-4"}, tables[1].SubnetAssociations)
}
