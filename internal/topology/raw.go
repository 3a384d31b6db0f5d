package topology

import (
	"bytes"
	"encoding/json"
	"sort"
	"strconv"
	"strings"
)

// Response is the discovery document as produced by the upstream discovery
// service. Field names follow whichever convention the producer used; the
// normalizer reconciles them.
type Response struct {
	Network           *RawNetwork                `json:"network,omitempty"`
	Routing           *RawRouting                `json:"routing,omitempty"`
	Connectivity      *RawConnectivity           `json:"connectivity,omitempty"`
	NetworkInterfaces FlexList[RawInterface]     `json:"networkInterfaces,omitempty"`
	SecurityGroups    FlexList[RawSecurityGroup] `json:"securityGroups,omitempty"`
}

// UnmarshalJSON rejects a document that is not an object, but a section of
// the wrong shape only leaves that section unset.
func (r *Response) UnmarshalJSON(data []byte) error {
	var doc struct {
		Network           json.RawMessage            `json:"network"`
		Routing           json.RawMessage            `json:"routing"`
		Connectivity      json.RawMessage            `json:"connectivity"`
		NetworkInterfaces FlexList[RawInterface]     `json:"networkInterfaces"`
		SecurityGroups    FlexList[RawSecurityGroup] `json:"securityGroups"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}
	*r = Response{
		Network:           decodeObject[RawNetwork](doc.Network),
		Routing:           decodeObject[RawRouting](doc.Routing),
		Connectivity:      decodeObject[RawConnectivity](doc.Connectivity),
		NetworkInterfaces: doc.NetworkInterfaces,
		SecurityGroups:    doc.SecurityGroups,
	}
	return nil
}

type RawNetwork struct {
	VPCID             FlexString          `json:"vpcId,omitempty"`
	ID                FlexString          `json:"id,omitempty"`
	CIDR              FlexString          `json:"cidr,omitempty"`
	CIDRBlock         FlexString          `json:"cidrBlock,omitempty"`
	Name              FlexString          `json:"name,omitempty"`
	Tags              Tags                `json:"tags,omitempty"`
	AvailabilityZones FlexStrings         `json:"availabilityZones,omitempty"`
	SubnetsByAZ       RawSubnetsByAZ      `json:"subnetsByAz,omitempty"`
	Subnets           FlexList[RawSubnet] `json:"subnets,omitempty"`
}

type RawSubnet struct {
	ID               FlexString `json:"id,omitempty"`
	SubnetID         FlexString `json:"subnetId,omitempty"`
	CIDR             FlexString `json:"cidr,omitempty"`
	CIDRBlock        FlexString `json:"cidrBlock,omitempty"`
	AZ               FlexString `json:"az,omitempty"`
	AvailabilityZone FlexString `json:"availabilityZone,omitempty"`
	Type             FlexString `json:"type,omitempty"`
	RouteTableID     FlexString `json:"routeTableId,omitempty"`
	Name             FlexString `json:"name,omitempty"`
	Tags             Tags       `json:"tags,omitempty"`
}

// RawSubnetsByAZ maps an AZ key to its subnets. A key whose value is not a
// list of subnet objects contributes only the entries that decode.
type RawSubnetsByAZ map[string]FlexList[RawSubnet]

func (m *RawSubnetsByAZ) UnmarshalJSON(data []byte) error {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(data, &obj); err != nil {
		*m = nil
		return nil
	}
	out := make(RawSubnetsByAZ, len(obj))
	for az, v := range obj {
		var subnets FlexList[RawSubnet]
		_ = subnets.UnmarshalJSON(v)
		out[az] = subnets
	}
	*m = out
	return nil
}

type RawRouting struct {
	RouteTables     FlexList[RawRouteTable] `json:"routeTables,omitempty"`
	InternetGateway *RawGateway             `json:"internetGateway,omitempty"`
	NATGateways     FlexList[RawGateway]    `json:"natGateways,omitempty"`
	VPCEndpoints    FlexList[RawGateway]    `json:"vpcEndpoints,omitempty"`
}

// UnmarshalJSON accepts the internet gateway as an object, a bare id or a
// one-element list. Any other shape leaves it unset.
func (r *RawRouting) UnmarshalJSON(data []byte) error {
	var doc struct {
		RouteTables     FlexList[RawRouteTable] `json:"routeTables"`
		InternetGateway json.RawMessage         `json:"internetGateway"`
		NATGateways     FlexList[RawGateway]    `json:"natGateways"`
		VPCEndpoints    FlexList[RawGateway]    `json:"vpcEndpoints"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}
	*r = RawRouting{
		RouteTables:     doc.RouteTables,
		InternetGateway: decodeGateway(doc.InternetGateway),
		NATGateways:     doc.NATGateways,
		VPCEndpoints:    doc.VPCEndpoints,
	}
	return nil
}

func decodeGateway(data json.RawMessage) *RawGateway {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil
	}
	switch data[0] {
	case '{':
		return decodeObject[RawGateway](data)
	case '[':
		var gws FlexList[RawGateway]
		_ = gws.UnmarshalJSON(data)
		if len(gws) == 0 {
			return nil
		}
		return &gws[0]
	case '"':
		if id := scalarString(data, nil); id != "" {
			return &RawGateway{ID: FlexString(id)}
		}
	}
	return nil
}

type RawConnectivity struct {
	VPCPeerings               FlexList[RawGateway] `json:"vpcPeerings,omitempty"`
	VPNConnections            FlexList[RawGateway] `json:"vpnConnections,omitempty"`
	TransitGatewayAttachments FlexList[RawGateway] `json:"transitGatewayAttachments,omitempty"`
}

type RawRouteTable struct {
	ID                 FlexString         `json:"id,omitempty"`
	RouteTableID       FlexString         `json:"routeTableId,omitempty"`
	IsMain             *FlexBool          `json:"isMain,omitempty"`
	Main               *FlexBool          `json:"main,omitempty"`
	Name               FlexString         `json:"name,omitempty"`
	Tags               Tags               `json:"tags,omitempty"`
	SubnetAssociations Associations       `json:"subnetAssociations,omitempty"`
	Associations       Associations       `json:"associations,omitempty"`
	Routes             FlexList[RawRoute] `json:"routes,omitempty"`
}

// RawRoute carries every target field any producer has been seen to emit.
type RawRoute struct {
	TargetType               FlexString `json:"targetType,omitempty"`
	TargetID                 FlexString `json:"targetId,omitempty"`
	GatewayID                FlexString `json:"gatewayId,omitempty"`
	NATGatewayID             FlexString `json:"natGatewayId,omitempty"`
	TransitGatewayID         FlexString `json:"transitGatewayId,omitempty"`
	VPCPeeringConnectionID   FlexString `json:"vpcPeeringConnectionId,omitempty"`
	NetworkInterfaceID       FlexString `json:"networkInterfaceId,omitempty"`
	InstanceID               FlexString `json:"instanceId,omitempty"`
	Target                   FlexString `json:"target,omitempty"`
	Destination              FlexString `json:"destination,omitempty"`
	DestinationCIDRBlock     FlexString `json:"destinationCidrBlock,omitempty"`
	DestinationIPv6CIDRBlock FlexString `json:"destinationIpv6CidrBlock,omitempty"`
	DestinationPrefixListID  FlexString `json:"destinationPrefixListId,omitempty"`
	State                    FlexString `json:"state,omitempty"`
}

// RawGateway is the shared shape of every gateway-like record: internet and
// NAT gateways, endpoints, peerings, VPN connections and TGW attachments.
type RawGateway struct {
	ID                     FlexString `json:"id,omitempty"`
	InternetGatewayID      FlexString `json:"internetGatewayId,omitempty"`
	NATGatewayID           FlexString `json:"natGatewayId,omitempty"`
	VPCEndpointID          FlexString `json:"vpcEndpointId,omitempty"`
	VPCPeeringConnectionID FlexString `json:"vpcPeeringConnectionId,omitempty"`
	VPNConnectionID        FlexString `json:"vpnConnectionId,omitempty"`
	TransitGatewayAttachID FlexString `json:"transitGatewayAttachmentId,omitempty"`
	TransitGatewayID       FlexString `json:"transitGatewayId,omitempty"`
	GatewayID              FlexString `json:"gatewayId,omitempty"`
	State                  FlexString `json:"state,omitempty"`
	Status                 FlexString `json:"status,omitempty"`
	Name                   FlexString `json:"name,omitempty"`
	Tags                   Tags       `json:"tags,omitempty"`
	AZ                     FlexString `json:"az,omitempty"`
	AvailabilityZone       FlexString `json:"availabilityZone,omitempty"`
	SubnetID               FlexString `json:"subnetId,omitempty"`
	Type                   FlexString `json:"type,omitempty"`
	VPCEndpointType        FlexString `json:"vpcEndpointType,omitempty"`
	ServiceName            FlexString `json:"serviceName,omitempty"`
	PeerVPCID              FlexString `json:"peerVpcId,omitempty"`
	PeerCIDR               FlexString `json:"peerCidr,omitempty"`
}

type RawInterface struct {
	ID                 FlexString  `json:"id,omitempty"`
	NetworkInterfaceID FlexString  `json:"networkInterfaceId,omitempty"`
	AttachmentType     FlexString  `json:"attachmentType,omitempty"`
	Description        FlexString  `json:"description,omitempty"`
	PrivateIP          FlexString  `json:"privateIp,omitempty"`
	PrivateIPAddress   FlexString  `json:"privateIpAddress,omitempty"`
	PublicIP           FlexString  `json:"publicIp,omitempty"`
	AZ                 FlexString  `json:"az,omitempty"`
	AvailabilityZone   FlexString  `json:"availabilityZone,omitempty"`
	SubnetID           FlexString  `json:"subnetId,omitempty"`
	SecurityGroups     FlexStrings `json:"securityGroups,omitempty"`
	Groups             FlexStrings `json:"groups,omitempty"`
}

// RawSecurityGroup takes rule counts either as numbers or as the EC2 permission
// lists themselves.
type RawSecurityGroup struct {
	ID                  FlexString                `json:"id,omitempty"`
	GroupID             FlexString                `json:"groupId,omitempty"`
	Name                FlexString                `json:"name,omitempty"`
	GroupName           FlexString                `json:"groupName,omitempty"`
	Description         FlexString                `json:"description,omitempty"`
	Tags                Tags                      `json:"tags,omitempty"`
	InboundRules        FlexString                `json:"inboundRules,omitempty"`
	OutboundRules       FlexString                `json:"outboundRules,omitempty"`
	IPPermissions       FlexList[json.RawMessage] `json:"ipPermissions,omitempty"`
	IPPermissionsEgress FlexList[json.RawMessage] `json:"ipPermissionsEgress,omitempty"`
}

// FlexString decodes any JSON scalar, and objects carrying a code/state/value
// key, into a string. Unrecognized shapes decode to "" instead of failing.
type FlexString string

var flexObjectKeys = []string{"code", "Code", "state", "State", "value", "Value", "id", "Id"}

func (f *FlexString) UnmarshalJSON(data []byte) error {
	*f = FlexString(scalarString(data, flexObjectKeys))
	return nil
}

func (f FlexString) String() string { return string(f) }

// FlexStrings decodes a list whose elements are strings or reference objects
// (for example security groups as {GroupId, GroupName}).
type FlexStrings []string

var refObjectKeys = []string{"groupId", "GroupId", "subnetId", "SubnetId", "id", "Id", "zoneName", "ZoneName"}

func (f *FlexStrings) UnmarshalJSON(data []byte) error {
	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		*f = nil
		return nil
	}
	out := make(FlexStrings, 0, len(items))
	for _, item := range items {
		if s := scalarString(item, refObjectKeys); s != "" {
			out = append(out, s)
		}
	}
	*f = out
	return nil
}

// FlexBool decodes true/false in any scalar form: JSON booleans, "true",
// "false", "yes", "no", 1 and 0. Anything else decodes to false.
type FlexBool bool

func (b *FlexBool) UnmarshalJSON(data []byte) error {
	*b = FlexBool(parseBool(scalarString(data, flexObjectKeys)))
	return nil
}

func parseBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "yes", "1":
		return true
	default:
		return false
	}
}

// FlexList decodes a list of records element by element, dropping elements
// that are null or not records. An object whose values are all objects is read
// as a keyed collection of records in key order; any other object is read as
// a single record. Non-list shapes decode to an empty list.
type FlexList[T any] []T

func (l *FlexList[T]) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	var items []json.RawMessage
	if len(data) > 0 && data[0] == '{' {
		items = objectItems(data)
	} else if err := json.Unmarshal(data, &items); err != nil {
		*l = nil
		return nil
	}
	out := make(FlexList[T], 0, len(items))
	for _, item := range items {
		item = bytes.TrimSpace(item)
		if len(item) == 0 || bytes.Equal(item, []byte("null")) {
			continue
		}
		var v T
		if err := json.Unmarshal(item, &v); err != nil {
			continue
		}
		out = append(out, v)
	}
	*l = out
	return nil
}

func objectItems(data []byte) []json.RawMessage {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(data, &obj); err != nil {
		return nil
	}
	if len(obj) == 0 {
		return nil
	}
	for _, v := range obj {
		v = bytes.TrimSpace(v)
		if len(v) == 0 || v[0] != '{' {
			return []json.RawMessage{data}
		}
	}
	items := make([]json.RawMessage, 0, len(obj))
	for _, k := range sortedKeys(obj) {
		items = append(items, obj[k])
	}
	return items
}

// decodeObject returns nil unless data is an object that decodes into T.
func decodeObject[T any](data json.RawMessage) *T {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '{' {
		return nil
	}
	v := new(T)
	if err := json.Unmarshal(data, v); err != nil {
		return nil
	}
	return v
}

// Association is one subnet association after decoding. Legacy producers send
// bare subnet ids; newer ones send {subnetId|id, main} objects.
type Association struct {
	SubnetID string `json:"subnetId,omitempty"`
	Main     bool   `json:"main,omitempty"`
}

type Associations []Association

func (a *Associations) UnmarshalJSON(data []byte) error {
	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		*a = nil
		return nil
	}
	out := make(Associations, 0, len(items))
	for _, item := range items {
		item = bytes.TrimSpace(item)
		if len(item) > 0 && item[0] == '{' {
			var obj map[string]json.RawMessage
			if err := json.Unmarshal(item, &obj); err != nil {
				continue
			}
			out = append(out, Association{
				SubnetID: firstKey(obj, "subnetId", "SubnetId", "id", "Id"),
				Main:     boolKey(obj, "main", "Main", "isMain"),
			})
			continue
		}
		if len(item) > 0 && item[0] == '"' {
			if s := scalarString(item, nil); s != "" {
				out = append(out, Association{SubnetID: s})
			}
		}
	}
	*a = out
	return nil
}

// Tags accepts both the EC2 list form [{Key, Value}] and a plain map.
type Tags map[string]string

func (t *Tags) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	out := Tags{}
	if len(data) > 0 && data[0] == '{' {
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(data, &obj); err == nil {
			for k, v := range obj {
				out[k] = scalarString(v, nil)
			}
		}
		*t = out
		return nil
	}
	var items []map[string]json.RawMessage
	if err := json.Unmarshal(data, &items); err == nil {
		for _, item := range items {
			k := firstKey(item, "Key", "key")
			if k != "" {
				out[k] = firstKey(item, "Value", "value")
			}
		}
	}
	*t = out
	return nil
}

func scalarString(data []byte, objectKeys []string) string {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return ""
	}
	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return ""
		}
		return s
	case '{':
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(data, &obj); err != nil {
			return ""
		}
		return firstKey(obj, objectKeys...)
	case 't', 'f':
		var b bool
		if err := json.Unmarshal(data, &b); err != nil {
			return ""
		}
		return strconv.FormatBool(b)
	case 'n', '[':
		return ""
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return ""
		}
		return n.String()
	}
}

func firstKey(obj map[string]json.RawMessage, keys ...string) string {
	for _, k := range keys {
		if v, ok := obj[k]; ok {
			if s := scalarString(v, nil); s != "" {
				return s
			}
		}
	}
	return ""
}

func boolKey(obj map[string]json.RawMessage, keys ...string) bool {
	for _, k := range keys {
		if v, ok := obj[k]; ok {
			return parseBool(scalarString(v, flexObjectKeys))
		}
	}
	return false
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
