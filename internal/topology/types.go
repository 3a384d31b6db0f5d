package topology

import (
	"encoding/json"
	"sort"
)

// SubnetType is the tier a subnet is drawn in.
type SubnetType string

const (
	SubnetPublic   SubnetType = "public"
	SubnetPrivate  SubnetType = "private"
	SubnetDatabase SubnetType = "database"
	SubnetUnknown  SubnetType = "unknown"
)

// stackOrder is the top-to-bottom row order inside an AZ column.
var stackOrder = []SubnetType{SubnetPublic, SubnetPrivate, SubnetDatabase}

type VPC struct {
	ID   string `json:"id" yaml:"id"`
	CIDR string `json:"cidr" yaml:"cidr"`
	Name string `json:"name,omitempty" yaml:"name,omitempty"`
}

type Subnet struct {
	ID               string     `json:"id" yaml:"id"`
	Name             string     `json:"name,omitempty" yaml:"name,omitempty"`
	CIDR             string     `json:"cidr" yaml:"cidr"`
	AvailabilityZone string     `json:"availabilityZone" yaml:"availabilityZone"`
	Type             SubnetType `json:"type" yaml:"type"`
	RouteTableID     string     `json:"routeTableId,omitempty" yaml:"routeTableId,omitempty"`
	// TypeInferred is set when Type was derived from routes rather than given.
	TypeInferred bool `json:"typeInferred,omitempty" yaml:"typeInferred,omitempty"`
}

// Network is the normalized network section: AZ order plus subnets per AZ.
type Network struct {
	VPC               VPC                 `json:"vpc" yaml:"vpc"`
	AvailabilityZones []string            `json:"availabilityZones" yaml:"availabilityZones"`
	SubnetsByAZ       map[string][]Subnet `json:"subnetsByAz" yaml:"subnetsByAz"`
}

// Subnets returns every subnet in AZ order, keeping per-AZ input order.
func (n Network) Subnets() []Subnet {
	var out []Subnet
	for _, az := range n.AvailabilityZones {
		out = append(out, n.SubnetsByAZ[az]...)
	}
	return out
}

type RouteTable struct {
	ID                 string   `json:"id" yaml:"id"`
	Name               string   `json:"name,omitempty" yaml:"name,omitempty"`
	IsMain             bool     `json:"isMain" yaml:"isMain"`
	SubnetAssociations []string `json:"subnetAssociations" yaml:"subnetAssociations"`
	Routes             []Route  `json:"routes" yaml:"routes"`
}

// Gateway is the flat record shared by internet gateways, TGW attachments
// and VPN connections.
type Gateway struct {
	ID    string `json:"id" yaml:"id"`
	State string `json:"state,omitempty" yaml:"state,omitempty"`
	Name  string `json:"name,omitempty" yaml:"name,omitempty"`
}

type NATGateway struct {
	ID       string `json:"id" yaml:"id"`
	State    string `json:"state,omitempty" yaml:"state,omitempty"`
	Name     string `json:"name,omitempty" yaml:"name,omitempty"`
	AZ       string `json:"az,omitempty" yaml:"az,omitempty"`
	SubnetID string `json:"subnetId,omitempty" yaml:"subnetId,omitempty"`
}

type EndpointType string

const (
	EndpointGateway   EndpointType = "Gateway"
	EndpointInterface EndpointType = "Interface"
)

type VPCEndpoint struct {
	ID          string       `json:"id" yaml:"id"`
	State       string       `json:"state,omitempty" yaml:"state,omitempty"`
	Name        string       `json:"name,omitempty" yaml:"name,omitempty"`
	Type        EndpointType `json:"type,omitempty" yaml:"type,omitempty"`
	ServiceName string       `json:"serviceName,omitempty" yaml:"serviceName,omitempty"`
}

type VPCPeering struct {
	ID        string `json:"id" yaml:"id"`
	State     string `json:"state,omitempty" yaml:"state,omitempty"`
	Name      string `json:"name,omitempty" yaml:"name,omitempty"`
	PeerVPCID string `json:"peerVpcId,omitempty" yaml:"peerVpcId,omitempty"`
	PeerCIDR  string `json:"peerCidr,omitempty" yaml:"peerCidr,omitempty"`
}

type TransitGatewayAttachment struct {
	ID               string `json:"id" yaml:"id"`
	State            string `json:"state,omitempty" yaml:"state,omitempty"`
	Name             string `json:"name,omitempty" yaml:"name,omitempty"`
	TransitGatewayID string `json:"transitGatewayId,omitempty" yaml:"transitGatewayId,omitempty"`
}

type NetworkInterface struct {
	ID               string       `json:"id" yaml:"id"`
	AttachmentType   string       `json:"attachmentType,omitempty" yaml:"attachmentType,omitempty"`
	Description      string       `json:"description,omitempty" yaml:"description,omitempty"`
	PrivateIP        string       `json:"privateIp,omitempty" yaml:"privateIp,omitempty"`
	PublicIP         string       `json:"publicIp,omitempty" yaml:"publicIp,omitempty"`
	AvailabilityZone string       `json:"availabilityZone,omitempty" yaml:"availabilityZone,omitempty"`
	SubnetID         string       `json:"subnetId,omitempty" yaml:"subnetId,omitempty"`
	SecurityGroups   []string     `json:"securityGroups" yaml:"securityGroups"`
	Resource         *ENIResource `json:"resource,omitempty" yaml:"resource,omitempty"`
}

// SecurityGroup summarizes one security group. The rules themselves are
// fetched on demand.
type SecurityGroup struct {
	ID            string `json:"id" yaml:"id"`
	Name          string `json:"name,omitempty" yaml:"name,omitempty"`
	Description   string `json:"description,omitempty" yaml:"description,omitempty"`
	InboundRules  int    `json:"inboundRules" yaml:"inboundRules"`
	OutboundRules int    `json:"outboundRules" yaml:"outboundRules"`
}

// Point is a 2D coordinate in layout space.
type Point struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// Set is an unordered set of ids. It marshals as a sorted list so output is
// stable.
type Set map[string]struct{}

func NewSet(ids ...string) Set {
	s := make(Set, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

func (s Set) Has(id string) bool {
	_, ok := s[id]
	return ok
}

func (s Set) Sorted() []string {
	out := make([]string, 0, len(s))
	for id := range s {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

func (s Set) clone() Set {
	out := make(Set, len(s))
	for id := range s {
		out[id] = struct{}{}
	}
	return out
}

func (s Set) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Sorted())
}

func (s *Set) UnmarshalJSON(data []byte) error {
	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		return err
	}
	*s = NewSet(ids...)
	return nil
}

func (s Set) MarshalYAML() (any, error) {
	return s.Sorted(), nil
}
