package topology

// Output is the document consumed by the rendering and selection layer.
type Output struct {
	VPC                  VPC                        `json:"vpc" yaml:"vpc"`
	AvailabilityZones    []string                   `json:"availabilityZones" yaml:"availabilityZones"`
	Subnets              []Subnet                   `json:"subnets" yaml:"subnets"`
	RouteTables          []RouteTableSummary        `json:"routeTables" yaml:"routeTables"`
	AssociationIndex     AssociationIndex           `json:"associationIndex" yaml:"associationIndex"`
	ClassifiedRoutes     map[string][]Route         `json:"classifiedRoutes" yaml:"classifiedRoutes"`
	LayoutPositions      map[string]Position        `json:"layoutPositions" yaml:"layoutPositions"`
	TargetAnchors        Anchors                    `json:"targetAnchors" yaml:"targetAnchors"`
	RouteArrows          []RouteArrow               `json:"routeArrows" yaml:"routeArrows"`
	ENIResources         map[string]*ENIResource    `json:"eniResources" yaml:"eniResources"`
	InternetGateway      *Gateway                   `json:"internetGateway,omitempty" yaml:"internetGateway,omitempty"`
	NATGateways          []NATGateway               `json:"natGateways" yaml:"natGateways"`
	VPCEndpoints         []VPCEndpoint              `json:"vpcEndpoints" yaml:"vpcEndpoints"`
	VPCPeerings          []VPCPeering               `json:"vpcPeerings" yaml:"vpcPeerings"`
	VPNConnections       []Gateway                  `json:"vpnConnections" yaml:"vpnConnections"`
	TransitGateways      []TransitGatewayAttachment `json:"transitGatewayAttachments" yaml:"transitGatewayAttachments"`
	NetworkInterfaces    []NetworkInterface         `json:"networkInterfaces" yaml:"networkInterfaces"`
	SecurityGroups       []SecurityGroup            `json:"securityGroups" yaml:"securityGroups"`
	AssociationConflicts []AssociationConflict      `json:"associationConflicts" yaml:"associationConflicts"`
	UnplacedSubnets      []UnplacedSubnet           `json:"unplacedSubnets" yaml:"unplacedSubnets"`
}

// RouteTableSummary is a route table without its routes, which live in
// ClassifiedRoutes.
type RouteTableSummary struct {
	ID                 string   `json:"id" yaml:"id"`
	Name               string   `json:"name,omitempty" yaml:"name,omitempty"`
	IsMain             bool     `json:"isMain" yaml:"isMain"`
	SubnetAssociations []string `json:"subnetAssociations" yaml:"subnetAssociations"`
}

// Output assembles the output document. Collections are never nil so that
// consumers always see arrays and objects.
func (s *Snapshot) Output() Output {
	out := Output{
		VPC:                  s.Network.VPC,
		AvailabilityZones:    nonNil(s.Network.AvailabilityZones),
		Subnets:              nonNil(s.Network.Subnets()),
		RouteTables:          make([]RouteTableSummary, 0, len(s.RouteTables)),
		AssociationIndex:     s.Index,
		ClassifiedRoutes:     make(map[string][]Route, len(s.RouteTables)),
		LayoutPositions:      s.Layout.Positions,
		TargetAnchors:        s.Layout.Anchors,
		RouteArrows:          nonNil(s.RouteArrows()),
		ENIResources:         make(map[string]*ENIResource, len(s.NetworkInterfaces)),
		InternetGateway:      s.InternetGateway,
		NATGateways:          nonNil(s.NATGateways),
		VPCEndpoints:         nonNil(s.VPCEndpoints),
		VPCPeerings:          nonNil(s.VPCPeerings),
		VPNConnections:       nonNil(s.VPNConnections),
		TransitGateways:      nonNil(s.TransitGatewayAttachments),
		NetworkInterfaces:    nonNil(s.NetworkInterfaces),
		SecurityGroups:       nonNil(s.SecurityGroups),
		AssociationConflicts: nonNil(s.Index.Conflicts),
		UnplacedSubnets:      nonNil(s.Layout.Unplaced),
	}
	for _, rt := range s.RouteTables {
		out.RouteTables = append(out.RouteTables, RouteTableSummary{
			ID:                 rt.ID,
			Name:               rt.Name,
			IsMain:             rt.IsMain,
			SubnetAssociations: rt.SubnetAssociations,
		})
		out.ClassifiedRoutes[rt.ID] = nonNil(rt.Routes)
	}
	for _, eni := range s.NetworkInterfaces {
		out.ENIResources[eni.ID] = eni.Resource
	}
	return out
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
