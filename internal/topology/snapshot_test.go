package topology

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleDiscovery = `{
	"network": {
		"vpcId": "vpc-0abc",
		"cidr": "10.0.0.0/16",
		"availabilityZones": ["us-east-1a", "us-east-1b"],
		"subnetsByAz": {
			"us-east-1a": [
				{"id": "subnet-pub-a", "type": "public"},
				{"id": "subnet-priv-a", "type": "private"},
				{"id": "subnet-db-a", "type": "database"}
			],
			"us-east-1b": [
				{"id": "subnet-pub-b", "type": "public"},
				{"id": "subnet-app-b"},
				{"id": "subnet-loose-b"}
			]
		}
	},
	"routing": {
		"routeTables": [
			{"id": "rtb-public", "subnetAssociations": ["subnet-pub-a", "subnet-pub-b"], "routes": [
				{"destination": "10.0.0.0/16", "gatewayId": "local"},
				{"destination": "0.0.0.0/0", "gatewayId": "igw-1"}
			]},
			{"id": "rtb-private", "subnetAssociations": ["subnet-priv-a", "subnet-app-b"], "routes": [
				{"destination": "10.0.0.0/16", "gatewayId": "local"},
				{"destination": "0.0.0.0/0", "natGatewayId": "nat-1"},
				{"destination": "192.168.0.0/16"}
			]},
			{"id": "rtb-main", "isMain": true, "routes": [
				{"destination": "10.0.0.0/16", "gatewayId": "local"}
			]}
		],
		"internetGateway": {"id": "igw-1", "state": "available"},
		"natGateways": [{"id": "nat-1", "subnetId": "subnet-pub-a"}]
	},
	"networkInterfaces": [
		{"id": "eni-alb", "attachmentType": "load-balancer", "description": "ELB app/web/abc123"},
		{"id": "eni-host", "attachmentType": "ec2-instance", "description": "Primary network interface"}
	]
}`

func buildSample(t *testing.T, opts ...Option) *Snapshot {
	t.Helper()
	snap, err := Build(decodeResponse(t, sampleDiscovery), opts...)
	require.NoError(t, err)
	return snap
}

func TestBuild_TopologyUnavailable(t *testing.T) {
	tests := []struct {
		name string
		resp *Response
	}{
		{"nil response", nil},
		{"empty response", &Response{}},
		{"missing routing", &Response{Network: &RawNetwork{VPCID: "vpc-1"}}},
		{"missing network", &Response{Routing: &RawRouting{}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap, err := Build(tt.resp)
			assert.Nil(t, snap)
			assert.True(t, errors.Is(err, ErrTopologyUnavailable))
		})
	}
}

func TestBuild_EmptySectionsAreNotErrors(t *testing.T) {
	snap, err := Build(&Response{Network: &RawNetwork{}, Routing: &RawRouting{}})
	require.NoError(t, err)

	out := snap.Output()
	b, err := json.Marshal(out)
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(b, &doc))
	for _, key := range []string{"availabilityZones", "subnets", "routeTables", "routeArrows", "natGateways", "vpcEndpoints", "vpcPeerings", "vpnConnections", "transitGatewayAttachments", "networkInterfaces", "securityGroups", "associationConflicts", "unplacedSubnets"} {
		assert.Equal(t, []any{}, doc[key], key)
	}
	for _, key := range []string{"classifiedRoutes", "layoutPositions", "eniResources"} {
		assert.Equal(t, map[string]any{}, doc[key], key)
	}
	assert.NotContains(t, doc, "internetGateway")
}

func TestBuild_InfersSubnetTypes(t *testing.T) {
	snap := buildSample(t)

	app, ok := snap.Subnet("subnet-app-b")
	require.True(t, ok)
	assert.Equal(t, SubnetPrivate, app.Type)
	assert.True(t, app.TypeInferred)

	// falls back to the main table, which has no default route
	loose, ok := snap.Subnet("subnet-loose-b")
	require.True(t, ok)
	assert.Equal(t, SubnetUnknown, loose.Type)

	pub, _ := snap.Subnet("subnet-pub-a")
	assert.False(t, pub.TypeInferred)

	assert.Equal(t, []UnplacedSubnet{{SubnetID: "subnet-loose-b", AZ: "us-east-1b", Reason: UnplacedUnknownType}}, snap.Layout.Unplaced)
	assert.Contains(t, snap.Layout.Positions, "subnet-app-b")
}

func TestBuild_WithoutTypeInference(t *testing.T) {
	snap := buildSample(t, WithoutTypeInference())

	app, _ := snap.Subnet("subnet-app-b")
	assert.Equal(t, SubnetUnknown, app.Type)
	assert.NotContains(t, snap.Layout.Positions, "subnet-app-b")
	assert.Len(t, snap.Layout.Unplaced, 2)
}

func TestBuild_LayoutUsesNATAZ(t *testing.T) {
	snap := buildSample(t)

	// nat-1 has no AZ of its own and inherits us-east-1a from its subnet
	require.NotNil(t, snap.Layout.Anchors.NAT)
	assert.Equal(t, Point{X: 380, Y: 210}, *snap.Layout.Anchors.NAT)
	assert.Equal(t, 260.0, snap.Layout.Positions["subnet-priv-a"].Y)
	assert.Equal(t, 200.0, snap.Layout.Positions["subnet-app-b"].Y)
}

func TestBuild_CustomLayoutConfig(t *testing.T) {
	cfg := DefaultLayoutConfig()
	cfg.HeaderOffset = 0
	snap := buildSample(t, WithLayoutConfig(cfg))
	assert.Equal(t, 0.0, snap.Layout.Positions["subnet-pub-b"].Y)
}

func TestSnapshot_EffectiveRouteTable(t *testing.T) {
	snap := buildSample(t)

	assert.Equal(t, "rtb-main", snap.MainRouteTable())
	assert.Equal(t, "rtb-public", snap.EffectiveRouteTable("subnet-pub-b"))
	assert.Equal(t, "rtb-main", snap.EffectiveRouteTable("subnet-loose-b"))

	rt, ok := snap.RouteTable("rtb-private")
	require.True(t, ok)
	assert.Len(t, rt.Routes, 3)

	_, ok = snap.RouteTable("rtb-missing")
	assert.False(t, ok)
}

func TestSnapshot_RouteArrows(t *testing.T) {
	snap := buildSample(t)

	arrows := snap.RouteArrows()
	require.Len(t, arrows, 2, "local and unknown routes are not drawn")

	assert.Equal(t, "rtb-public", arrows[0].RouteTableID)
	assert.Equal(t, TargetInternetGateway, arrows[0].TargetType)
	require.NotNil(t, arrows[0].Anchor)
	assert.Equal(t, snap.Layout.Anchors.IGW, *arrows[0].Anchor)

	assert.Equal(t, "rtb-private", arrows[1].RouteTableID)
	assert.Equal(t, TargetNATGateway, arrows[1].TargetType)
	require.NotNil(t, arrows[1].Anchor)
	assert.Equal(t, *snap.Layout.Anchors.NAT, *arrows[1].Anchor)
}

func TestSnapshot_Highlight(t *testing.T) {
	snap := buildSample(t)

	h := snap.Highlight("subnet-pub-a", "")
	assert.Equal(t, []string{"subnet-pub-a"}, h.Subnets.Sorted())
	assert.Equal(t, []string{"rtb-public"}, h.RouteTables.Sorted())

	h = snap.Highlight("", "rtb-private")
	assert.Equal(t, []string{"subnet-app-b", "subnet-priv-a"}, h.Subnets.Sorted())
}

func TestSnapshot_StatsAndENIs(t *testing.T) {
	snap := buildSample(t)

	assert.Equal(t, Stats{
		Subnets:             6,
		RouteTables:         3,
		UnknownRouteTargets: 1,
		UnclassifiedENIs:    1,
		UnplacedSubnets:     1,
	}, snap.Stats())

	out := snap.Output()
	assert.Equal(t, &ENIResource{ResourceType: "ALB", ResourceName: "web", ResourceID: "abc123"}, out.ENIResources["eni-alb"])
	assert.Nil(t, out.ENIResources["eni-host"])
	assert.Contains(t, out.ENIResources, "eni-host")
	assert.Len(t, out.ClassifiedRoutes["rtb-private"], 3)
}

func TestBuild_LogsAssociationConflicts(t *testing.T) {
	var buf bytes.Buffer
	log := zerolog.New(&buf)

	resp := decodeResponse(t, `{
		"network": {"vpcId": "vpc-1"},
		"routing": {"routeTables": [
			{"id": "rtb-a", "subnetAssociations": ["subnet-1"]},
			{"id": "rtb-b", "subnetAssociations": ["subnet-1"]}
		]}
	}`)
	snap, err := Build(resp, WithLogger(log))
	require.NoError(t, err)

	assert.Equal(t, "rtb-b", snap.EffectiveRouteTable("subnet-1"))
	assert.Equal(t, 1, snap.Stats().AssociationConflicts)
	assert.Contains(t, buf.String(), `"subnet_id":"subnet-1"`)
	assert.Contains(t, buf.String(), `"level":"warn"`)
}
