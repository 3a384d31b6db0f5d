package topology

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeResponse(t *testing.T, doc string) *Response {
	t.Helper()
	var resp Response
	require.NoError(t, json.Unmarshal([]byte(doc), &resp))
	return &resp
}

func TestNormalize_NetworkVariants(t *testing.T) {
	resp := decodeResponse(t, `{
		"network": {
			"VpcId": "vpc-1",
			"CidrBlock": "10.0.0.0/16",
			"Tags": [{"Key": "Name", "Value": "prod"}],
			"availabilityZones": ["us-east-1b", "us-east-1a", "us-east-1b"],
			"subnetsByAz": {
				"us-east-1a": [
					{"id": "subnet-a1", "cidr": "10.0.1.0/24", "type": "public"},
					{"SubnetId": "subnet-a2", "CidrBlock": "10.0.2.0/24", "type": "App", "tags": {"Name": "app-a"}}
				],
				"us-east-1c": [
					{"id": "subnet-c1", "type": "db", "availabilityZone": "us-east-1a"}
				]
			},
			"subnets": [
				{"SubnetId": "subnet-b1", "AvailabilityZone": "us-east-1b", "type": "isolated"},
				{"SubnetId": "subnet-a1", "AvailabilityZone": "us-east-1a"},
				{"SubnetId": "subnet-orphan"},
				{"cidr": "10.0.9.0/24", "az": "us-east-1a"}
			]
		}
	}`)

	n := Normalize(resp)

	assert.Equal(t, VPC{ID: "vpc-1", CIDR: "10.0.0.0/16", Name: "prod"}, n.Network.VPC)
	assert.Equal(t, []string{"us-east-1b", "us-east-1a", "us-east-1c"}, n.Network.AvailabilityZones)

	assert.Equal(t, []Subnet{
		{ID: "subnet-a1", CIDR: "10.0.1.0/24", AvailabilityZone: "us-east-1a", Type: SubnetPublic},
		{ID: "subnet-a2", Name: "app-a", CIDR: "10.0.2.0/24", AvailabilityZone: "us-east-1a", Type: SubnetPrivate},
	}, n.Network.SubnetsByAZ["us-east-1a"])
	assert.Equal(t, []Subnet{
		{ID: "subnet-b1", AvailabilityZone: "us-east-1b", Type: SubnetDatabase},
	}, n.Network.SubnetsByAZ["us-east-1b"])

	// the map key decides the AZ
	require.Len(t, n.Network.SubnetsByAZ["us-east-1c"], 1)
	assert.Equal(t, "us-east-1c", n.Network.SubnetsByAZ["us-east-1c"][0].AvailabilityZone)

	ids := []string{}
	for _, s := range n.Network.Subnets() {
		ids = append(ids, s.ID)
	}
	assert.Equal(t, []string{"subnet-b1", "subnet-a1", "subnet-a2", "subnet-c1"}, ids)

	assert.Empty(t, n.RouteTables)
	assert.Nil(t, n.InternetGateway)
	assert.Empty(t, n.NetworkInterfaces)
}

func TestNormalize_MissingSections(t *testing.T) {
	n := Normalize(&Response{})
	assert.Equal(t, []string{}, n.Network.AvailabilityZones)
	assert.NotNil(t, n.Network.SubnetsByAZ)
	assert.Empty(t, n.RouteTables)
	assert.Empty(t, n.NATGateways)

	n = Normalize(nil)
	assert.NotNil(t, n.Network.SubnetsByAZ)
}

func TestNormalize_RoutingAndConnectivity(t *testing.T) {
	resp := decodeResponse(t, `{
		"network": {"vpcId": "vpc-1", "subnetsByAz": {"az1": [{"id": "subnet-pub", "type": "public"}]}},
		"routing": {
			"routeTables": [
				{"RouteTableId": "rtb-main", "Main": true, "Routes": [{"DestinationCidrBlock": "10.0.0.0/16", "GatewayId": "local"}]},
				{"id": "rtb-pub", "isMain": false, "subnetAssociations": ["subnet-pub", "subnet-pub"]},
				{"name": "no id"}
			],
			"internetGateway": {"InternetGatewayId": "igw-1", "State": {"Code": "available"}},
			"natGateways": [
				{"NatGatewayId": "nat-1", "State": "available", "SubnetId": "subnet-pub"},
				{"id": "nat-2", "az": "az2"},
				{"state": "pending"}
			],
			"vpcEndpoints": [
				{"VpcEndpointId": "vpce-s3", "VpcEndpointType": "Gateway", "ServiceName": "com.amazonaws.us-east-1.s3"},
				{"id": "vpce-ssm", "type": "interface"}
			]
		},
		"connectivity": {
			"vpcPeerings": [{"VpcPeeringConnectionId": "pcx-1", "Status": {"Code": "active"}, "peerVpcId": "vpc-2"}],
			"vpnConnections": [{"VpnConnectionId": "vpn-1", "State": "available"}],
			"transitGatewayAttachments": [{"TransitGatewayAttachmentId": "tgw-attach-1", "TransitGatewayId": "tgw-1", "Tags": [{"Key": "Name", "Value": "core"}]}]
		},
		"networkInterfaces": [
			{"NetworkInterfaceId": "eni-1", "attachmentType": "rds", "PrivateIpAddress": "10.0.1.5",
			 "Groups": [{"GroupId": "sg-2", "GroupName": "b"}, {"GroupId": "sg-1", "GroupName": "a"}], "securityGroups": ["sg-2"]},
			{"description": "no id"}
		]
	}`)

	n := Normalize(resp)

	require.Len(t, n.RouteTables, 2)
	assert.Equal(t, "rtb-main", n.RouteTables[0].ID)
	assert.True(t, n.RouteTables[0].IsMain)
	assert.Equal(t, []string{}, n.RouteTables[0].SubnetAssociations)
	require.Len(t, n.RouteTables[0].Routes, 1)
	assert.Equal(t, TargetLocal, n.RouteTables[0].Routes[0].TargetType)
	assert.Equal(t, []string{"subnet-pub"}, n.RouteTables[1].SubnetAssociations)

	assert.Equal(t, &Gateway{ID: "igw-1", State: "available"}, n.InternetGateway)

	assert.Equal(t, []NATGateway{
		{ID: "nat-1", State: "available", AZ: "az1", SubnetID: "subnet-pub"},
		{ID: "nat-2", AZ: "az2"},
	}, n.NATGateways)

	assert.Equal(t, []VPCEndpoint{
		{ID: "vpce-s3", Type: EndpointGateway, ServiceName: "com.amazonaws.us-east-1.s3"},
		{ID: "vpce-ssm", Type: EndpointInterface},
	}, n.VPCEndpoints)

	assert.Equal(t, []VPCPeering{{ID: "pcx-1", State: "active", PeerVPCID: "vpc-2"}}, n.VPCPeerings)
	assert.Equal(t, []Gateway{{ID: "vpn-1", State: "available"}}, n.VPNConnections)
	assert.Equal(t, []TransitGatewayAttachment{{ID: "tgw-attach-1", Name: "core", TransitGatewayID: "tgw-1"}}, n.TransitGatewayAttachments)

	require.Len(t, n.NetworkInterfaces, 1)
	eni := n.NetworkInterfaces[0]
	assert.Equal(t, "eni-1", eni.ID)
	assert.Equal(t, "10.0.1.5", eni.PrivateIP)
	assert.Equal(t, []string{"sg-1", "sg-2"}, eni.SecurityGroups)
	assert.Nil(t, eni.Resource, "classification happens at build time")
}

func TestParseSubnetType(t *testing.T) {
	tests := map[string]SubnetType{
		"public":      SubnetPublic,
		" Public ":    SubnetPublic,
		"private":     SubnetPrivate,
		"application": SubnetPrivate,
		"DB":          SubnetDatabase,
		"data":        SubnetDatabase,
		"isolated":    SubnetDatabase,
		"":            SubnetUnknown,
		"dmz":         SubnetUnknown,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseSubnetType(in), "input %q", in)
	}
}

func TestTags_DecodeForms(t *testing.T) {
	var list, plain, junk Tags
	require.NoError(t, json.Unmarshal([]byte(`[{"Key":"Name","Value":"a"},{"key":"env","value":"prod"},{"Value":"orphan"}]`), &list))
	require.NoError(t, json.Unmarshal([]byte(`{"Name":"b","count":3}`), &plain))
	require.NoError(t, json.Unmarshal([]byte(`"nope"`), &junk))

	assert.Equal(t, Tags{"Name": "a", "env": "prod"}, list)
	assert.Equal(t, Tags{"Name": "b", "count": "3"}, plain)
	assert.Equal(t, Tags{}, junk)
}

func TestFlexString_Shapes(t *testing.T) {
	tests := map[string]string{
		`"x"`:              "x",
		`12`:               "12",
		`1.5`:              "1.5",
		`true`:             "true",
		`null`:             "",
		`[]`:               "",
		`{"code":"ok"}`:    "ok",
		`{"Value":"v"}`:    "v",
		`{"other":"skip"}`: "",
	}
	for in, want := range tests {
		var f FlexString
		require.NoError(t, json.Unmarshal([]byte(in), &f))
		assert.Equal(t, want, f.String(), "input %s", in)
	}
}

func TestFlexBool_Shapes(t *testing.T) {
	tests := map[string]bool{
		`true`:           true,
		`false`:          false,
		`"true"`:         true,
		`"False"`:        false,
		`"yes"`:          true,
		`1`:              true,
		`0`:              false,
		`"1"`:            true,
		`{"value":true}`: true,
		`[]`:             false,
		`"maybe"`:        false,
	}
	for in, want := range tests {
		var b FlexBool
		require.NoError(t, json.Unmarshal([]byte(in), &b))
		assert.Equal(t, want, bool(b), "input %s", in)
	}
}

func TestNormalize_MainFlagShapes(t *testing.T) {
	resp := decodeResponse(t, `{
		"network": {"vpcId": "vpc-1"},
		"routing": {"routeTables": [
			{"id": "rtb-str", "isMain": "true"},
			{"id": "rtb-num", "main": 1},
			{"id": "rtb-null", "isMain": null, "main": "true"},
			{"id": "rtb-zero", "isMain": "0", "main": true},
			{"id": "rtb-assoc", "associations": [{"main": "true"}]}
		]}
	}`)

	n := Normalize(resp)

	main := map[string]bool{}
	for _, rt := range n.RouteTables {
		main[rt.ID] = rt.IsMain
	}
	assert.Equal(t, map[string]bool{
		"rtb-str":   true,
		"rtb-num":   true,
		"rtb-null":  true,
		"rtb-zero":  false,
		"rtb-assoc": true,
	}, main, "isMain wins over main when both are present")
}

func TestNormalize_SkipsMalformedListItems(t *testing.T) {
	resp := decodeResponse(t, `{
		"network": {
			"vpcId": "vpc-1",
			"subnetsByAz": {
				"az1": [{"id": "subnet-1"}, "subnet-bogus", 42, null, {"id": "subnet-2"}],
				"az2": "not a list",
				"az3": {"id": "subnet-3"}
			},
			"subnets": [7, {"id": "subnet-4", "az": "az1"}]
		},
		"routing": {
			"routeTables": [
				"rtb-bogus",
				{"id": "rtb-1", "routes": [
					{"destination": "10.0.0.0/16", "gatewayId": "local"},
					"0.0.0.0/0",
					{"destination": "0.0.0.0/0", "natGatewayId": "nat-1"}
				]},
				{"id": "rtb-2", "routes": {"destination": "0.0.0.0/0", "gatewayId": "igw-1"}},
				{"id": "rtb-3", "routes": {
					"b": {"destination": "10.1.0.0/16", "transitGatewayId": "tgw-1"},
					"a": {"destination": "10.0.0.0/16", "gatewayId": "local"}
				}}
			],
			"internetGateway": "igw-1",
			"natGateways": [{"id": "nat-1", "subnetId": "subnet-1"}, "nat-bogus", true],
			"vpcEndpoints": {"id": "vpce-1", "type": "gateway"}
		},
		"connectivity": {
			"vpcPeerings": [null, {"id": "pcx-1"}],
			"vpnConnections": "none",
			"transitGatewayAttachments": [[], {"id": "tgw-attach-1"}]
		},
		"networkInterfaces": [{"id": "eni-1"}, "eni-bogus"]
	}`)

	n := Normalize(resp)

	ids := []string{}
	for _, s := range n.Network.Subnets() {
		ids = append(ids, s.ID)
	}
	assert.ElementsMatch(t, []string{"subnet-1", "subnet-2", "subnet-3", "subnet-4"}, ids)
	assert.Empty(t, n.Network.SubnetsByAZ["az2"])

	require.Len(t, n.RouteTables, 3)
	require.Len(t, n.RouteTables[0].Routes, 2)
	assert.Equal(t, TargetLocal, n.RouteTables[0].Routes[0].TargetType)
	assert.Equal(t, TargetNATGateway, n.RouteTables[0].Routes[1].TargetType)
	require.Len(t, n.RouteTables[1].Routes, 1, "a single route object is one route")
	assert.Equal(t, TargetInternetGateway, n.RouteTables[1].Routes[0].TargetType)
	require.Len(t, n.RouteTables[2].Routes, 2, "a keyed route object is read in key order")
	assert.Equal(t, TargetLocal, n.RouteTables[2].Routes[0].TargetType)
	assert.Equal(t, TargetTransitGateway, n.RouteTables[2].Routes[1].TargetType)

	assert.Equal(t, &Gateway{ID: "igw-1"}, n.InternetGateway)
	require.Len(t, n.NATGateways, 1)
	assert.Equal(t, "nat-1", n.NATGateways[0].ID)
	require.Len(t, n.VPCEndpoints, 1)
	assert.Equal(t, "vpce-1", n.VPCEndpoints[0].ID)

	require.Len(t, n.VPCPeerings, 1)
	assert.Equal(t, "pcx-1", n.VPCPeerings[0].ID)
	assert.Empty(t, n.VPNConnections)
	require.Len(t, n.TransitGatewayAttachments, 1)

	require.Len(t, n.NetworkInterfaces, 1)
	assert.Equal(t, "eni-1", n.NetworkInterfaces[0].ID)
}

func TestResponse_SectionShapes(t *testing.T) {
	resp := decodeResponse(t, `{"network": "vpc-1", "routing": [], "connectivity": 3, "networkInterfaces": {}}`)
	assert.Nil(t, resp.Network)
	assert.Nil(t, resp.Routing)
	assert.Nil(t, resp.Connectivity)
	assert.Empty(t, resp.NetworkInterfaces)

	_, err := Build(resp)
	assert.ErrorIs(t, err, ErrTopologyUnavailable)

	var top Response
	assert.Error(t, json.Unmarshal([]byte(`["not", "a", "document"]`), &top))
}

func TestNormalize_SecurityGroups(t *testing.T) {
	resp := decodeResponse(t, `{
		"securityGroups": [
			{"GroupId": "sg-b", "GroupName": "db", "IpPermissions": [{"IpProtocol": "tcp"}], "IpPermissionsEgress": [{"IpProtocol": "-1"}, {"IpProtocol": "tcp"}]},
			{"id": "sg-a", "tags": {"Name": "web"}, "inboundRules": "3", "outboundRules": 1, "ipPermissions": [{}]},
			{"GroupId": "sg-b", "GroupName": "duplicate"},
			{"GroupName": "no id"},
			"sg-bogus"
		]
	}`)

	n := Normalize(resp)

	assert.Equal(t, []SecurityGroup{
		{ID: "sg-a", Name: "web", InboundRules: 3, OutboundRules: 1},
		{ID: "sg-b", Name: "db", InboundRules: 1, OutboundRules: 2},
	}, n.SecurityGroups)
}
