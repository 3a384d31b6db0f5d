package topology

import "strings"

// TargetType names what a route forwards to. The zero value means the target
// could not be determined.
type TargetType string

const (
	TargetUnknown          TargetType = ""
	TargetInternetGateway  TargetType = "internet-gateway"
	TargetLocal            TargetType = "local"
	TargetNATGateway       TargetType = "nat-gateway"
	TargetTransitGateway   TargetType = "transit-gateway"
	TargetVPCPeering       TargetType = "vpc-peering"
	TargetNetworkInterface TargetType = "network-interface"
	TargetInstance         TargetType = "instance"
	TargetGateway          TargetType = "gateway"
)

// DefaultRouteCIDR is the IPv4 default route destination.
const DefaultRouteCIDR = "0.0.0.0/0"

// Route is a classified route entry.
type Route struct {
	Destination    string     `json:"destination" yaml:"destination"`
	TargetType     TargetType `json:"targetType,omitempty" yaml:"targetType,omitempty"`
	TargetID       string     `json:"targetId,omitempty" yaml:"targetId,omitempty"`
	State          string     `json:"state,omitempty" yaml:"state,omitempty"`
	IsDefaultRoute bool       `json:"isDefaultRoute" yaml:"isDefaultRoute"`
}

// Visualized reports whether the route gets an arrow in the map. Local routes
// are implied by the VPC itself and unknown targets have nowhere to point.
func (r Route) Visualized() bool {
	return r.TargetType != TargetLocal && r.TargetType != TargetUnknown
}

// ClassifyRoute resolves the destination and target of a raw route. An
// explicit targetType is trusted as given; otherwise it is inferred from the
// id fields in fixed priority order.
func ClassifyRoute(raw RawRoute) Route {
	dest := firstNonEmpty(
		raw.Destination.String(),
		raw.DestinationCIDRBlock.String(),
		raw.DestinationIPv6CIDRBlock.String(),
		raw.DestinationPrefixListID.String(),
	)
	r := Route{
		Destination:    dest,
		State:          raw.State.String(),
		IsDefaultRoute: dest == DefaultRouteCIDR,
	}

	if tt := raw.TargetType.String(); tt != "" {
		r.TargetType = TargetType(tt)
		r.TargetID = firstNonEmpty(
			raw.TargetID.String(),
			raw.GatewayID.String(),
			raw.NATGatewayID.String(),
			raw.TransitGatewayID.String(),
			raw.VPCPeeringConnectionID.String(),
			raw.NetworkInterfaceID.String(),
			raw.InstanceID.String(),
			raw.Target.String(),
		)
		return r
	}

	r.TargetType, r.TargetID = inferTarget(raw)
	return r
}

func inferTarget(raw RawRoute) (TargetType, string) {
	gw := raw.GatewayID.String()
	switch {
	case strings.HasPrefix(gw, "igw-"):
		return TargetInternetGateway, gw
	case gw == "local":
		return TargetLocal, gw
	case raw.NATGatewayID != "":
		return TargetNATGateway, raw.NATGatewayID.String()
	case raw.TransitGatewayID != "":
		return TargetTransitGateway, raw.TransitGatewayID.String()
	case raw.VPCPeeringConnectionID != "":
		return TargetVPCPeering, raw.VPCPeeringConnectionID.String()
	case raw.NetworkInterfaceID != "":
		return TargetNetworkInterface, raw.NetworkInterfaceID.String()
	case raw.InstanceID != "":
		return TargetInstance, raw.InstanceID.String()
	case gw != "":
		// VPC endpoint gateway routes (vpce-) and virtual private gateways.
		return TargetGateway, gw
	}
	return TargetUnknown, firstNonEmpty(raw.TargetID.String(), raw.Target.String())
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
