package vpc

type VPCInfo struct {
	VPCID     string
	Name      string
	CIDR      string
	IsDefault bool
	State     string
}

type SubnetInfo struct {
	SubnetID     string
	Name         string
	CIDR         string
	AZ           string
	AvailableIPs int
	Tier         string // public, private, database or "" when tags and name say nothing
	Tags         map[string]string
}

type SecurityGroupInfo struct {
	GroupID       string
	Name          string
	Description   string
	InboundRules  int
	OutboundRules int
}

type InternetGatewayInfo struct {
	GatewayID string
	Name      string
	State     string
}

type RouteTableInfo struct {
	RouteTableID string
	Name         string
	IsMain       bool
	Routes       []RouteEntry
	Associations []RouteTableAssociation
}

// Route target fields, named after the EC2 attribute the target id was read from.
const (
	TargetFieldGateway          = "gateway"
	TargetFieldNATGateway       = "nat-gateway"
	TargetFieldTransitGateway   = "transit-gateway"
	TargetFieldVPCPeering       = "vpc-peering"
	TargetFieldNetworkInterface = "network-interface"
	TargetFieldInstance         = "instance"
	TargetFieldOther            = "other"
)

type RouteEntry struct {
	Destination string // CIDR or prefix list
	Target      string // igw-xxx, nat-xxx, local, etc.
	TargetField string // one of the TargetField constants, "" when the route has no target
	Status      string // active, blackhole
	Origin      string // CreateRouteTable, CreateRoute, EnableVgwRoutePropagation
}

type RouteTableAssociation struct {
	SubnetID string
	IsMain   bool
}

type NATGatewayInfo struct {
	GatewayID string
	Name      string
	State     string // available, pending, failed, deleting, deleted
	Type      string // public, private
	SubnetID  string
	ElasticIP string
	PrivateIP string
}

type SecurityGroupRule struct {
	RuleID      string `json:"ruleId,omitempty"`
	Direction   string `json:"direction"` // "inbound" or "outbound"
	Protocol    string `json:"protocol"`  // TCP, UDP, ICMP, All, or number
	PortRange   string `json:"portRange"` // "80", "80-443", "All"
	Source      string `json:"source"`    // CIDR, security group ID, or prefix list
	Description string `json:"description,omitempty"`
}

type VPCEndpointInfo struct {
	EndpointID    string
	Name          string
	ServiceName   string
	Type          string // Interface, Gateway, GatewayLoadBalancer
	State         string
	SubnetIDs     []string
	RouteTableIDs []string
}

type VPCPeeringInfo struct {
	PeeringID     string
	Name          string
	Status        string
	RequesterVPC  string
	RequesterCIDR string
	AccepterVPC   string
	AccepterCIDR  string
}

type VPNConnectionInfo struct {
	ConnectionID string
	Name         string
	State        string
	GatewayID    string
}

type TransitGatewayAttachmentInfo struct {
	AttachmentID     string
	Name             string
	State            string
	TransitGatewayID string
}

type NetworkInterfaceInfo struct {
	InterfaceID    string
	Description    string
	InterfaceType  string
	AttachmentType string // resource kind the interface serves, see attachmentType
	PrivateIP      string
	PublicIP       string
	AZ             string
	SubnetID       string
	SecurityGroups []string
}
