package vpc

import (
	"context"
	"errors"
	"sort"
	"strconv"

	"github.com/aws/smithy-go"

	"tasnim.dev/vpc-topology/internal/topology"
)

// accessErrorCodes are the API error codes that mark a section as not
// readable by the caller rather than broken.
var accessErrorCodes = map[string]bool{
	"UnauthorizedOperation": true,
	"AccessDenied":          true,
	"AccessDeniedException": true,
}

func isAccessDenied(err error) bool {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return accessErrorCodes[apiErr.ErrorCode()]
	}
	return false
}

// optional runs fetch and turns an access error into an empty section.
func optional[T any](c *Client, section string, fetch func() ([]T, error)) ([]T, error) {
	items, err := fetch()
	if err == nil {
		return items, nil
	}
	if isAccessDenied(err) {
		c.log.Warn().Err(err).Str("section", section).Msg("not authorized, section left empty")
		return nil, nil
	}
	return nil, err
}

// Discover reads the VPC's network, routing and connectivity into a discovery
// response. The VPC, its subnets and route tables are required; every other
// section is skipped with a warning when the caller lacks permission for it.
func (c *Client) Discover(ctx context.Context, vpcID string) (*topology.Response, error) {
	vpc, err := c.GetVPC(ctx, vpcID)
	if err != nil {
		return nil, err
	}
	subnets, err := c.ListSubnets(ctx, vpcID)
	if err != nil {
		return nil, err
	}
	rts, err := c.ListRouteTables(ctx, vpcID)
	if err != nil {
		return nil, err
	}

	igws, err := optional(c, "internet-gateways", func() ([]InternetGatewayInfo, error) { return c.ListInternetGateways(ctx, vpcID) })
	if err != nil {
		return nil, err
	}
	nats, err := optional(c, "nat-gateways", func() ([]NATGatewayInfo, error) { return c.ListNATGateways(ctx, vpcID) })
	if err != nil {
		return nil, err
	}
	endpoints, err := optional(c, "vpc-endpoints", func() ([]VPCEndpointInfo, error) { return c.ListVPCEndpoints(ctx, vpcID) })
	if err != nil {
		return nil, err
	}
	peerings, err := optional(c, "vpc-peerings", func() ([]VPCPeeringInfo, error) { return c.ListVPCPeering(ctx, vpcID) })
	if err != nil {
		return nil, err
	}
	vpns, err := optional(c, "vpn-connections", func() ([]VPNConnectionInfo, error) { return c.ListVPNConnections(ctx, vpcID) })
	if err != nil {
		return nil, err
	}
	tgws, err := optional(c, "transit-gateway-attachments", func() ([]TransitGatewayAttachmentInfo, error) {
		return c.ListTransitGatewayAttachments(ctx, vpcID)
	})
	if err != nil {
		return nil, err
	}
	enis, err := optional(c, "network-interfaces", func() ([]NetworkInterfaceInfo, error) { return c.ListNetworkInterfaces(ctx, vpcID) })
	if err != nil {
		return nil, err
	}
	sgs, err := optional(c, "security-groups", func() ([]SecurityGroupInfo, error) { return c.ListSecurityGroups(ctx, vpcID) })
	if err != nil {
		return nil, err
	}

	resp := &topology.Response{
		Network: buildNetwork(vpc, subnets),
		Routing: &topology.RawRouting{
			RouteTables: buildRouteTables(rts),
			NATGateways: make([]topology.RawGateway, 0, len(nats)),
		},
		Connectivity: &topology.RawConnectivity{},
	}
	for _, igw := range igws {
		if igw.State == "detached" {
			continue
		}
		resp.Routing.InternetGateway = &topology.RawGateway{
			InternetGatewayID: topology.FlexString(igw.GatewayID),
			State:             topology.FlexString(igw.State),
			Name:              topology.FlexString(igw.Name),
		}
		break
	}
	for _, n := range nats {
		resp.Routing.NATGateways = append(resp.Routing.NATGateways, topology.RawGateway{
			NATGatewayID: topology.FlexString(n.GatewayID),
			State:        topology.FlexString(n.State),
			Name:         topology.FlexString(n.Name),
			SubnetID:     topology.FlexString(n.SubnetID),
		})
	}
	for _, ep := range endpoints {
		resp.Routing.VPCEndpoints = append(resp.Routing.VPCEndpoints, topology.RawGateway{
			VPCEndpointID:   topology.FlexString(ep.EndpointID),
			State:           topology.FlexString(ep.State),
			Name:            topology.FlexString(ep.Name),
			VPCEndpointType: topology.FlexString(ep.Type),
			ServiceName:     topology.FlexString(ep.ServiceName),
		})
	}
	for _, p := range peerings {
		peerVPC, peerCIDR := p.AccepterVPC, p.AccepterCIDR
		if peerVPC == vpcID {
			peerVPC, peerCIDR = p.RequesterVPC, p.RequesterCIDR
		}
		resp.Connectivity.VPCPeerings = append(resp.Connectivity.VPCPeerings, topology.RawGateway{
			VPCPeeringConnectionID: topology.FlexString(p.PeeringID),
			Status:                 topology.FlexString(p.Status),
			Name:                   topology.FlexString(p.Name),
			PeerVPCID:              topology.FlexString(peerVPC),
			PeerCIDR:               topology.FlexString(peerCIDR),
		})
	}
	for _, v := range vpns {
		resp.Connectivity.VPNConnections = append(resp.Connectivity.VPNConnections, topology.RawGateway{
			VPNConnectionID: topology.FlexString(v.ConnectionID),
			State:           topology.FlexString(v.State),
			Name:            topology.FlexString(v.Name),
		})
	}
	for _, a := range tgws {
		resp.Connectivity.TransitGatewayAttachments = append(resp.Connectivity.TransitGatewayAttachments, topology.RawGateway{
			TransitGatewayAttachID: topology.FlexString(a.AttachmentID),
			TransitGatewayID:       topology.FlexString(a.TransitGatewayID),
			State:                  topology.FlexString(a.State),
			Name:                   topology.FlexString(a.Name),
		})
	}
	for _, ni := range enis {
		resp.NetworkInterfaces = append(resp.NetworkInterfaces, topology.RawInterface{
			NetworkInterfaceID: topology.FlexString(ni.InterfaceID),
			AttachmentType:     topology.FlexString(ni.AttachmentType),
			Description:        topology.FlexString(ni.Description),
			PrivateIP:          topology.FlexString(ni.PrivateIP),
			PublicIP:           topology.FlexString(ni.PublicIP),
			AvailabilityZone:   topology.FlexString(ni.AZ),
			SubnetID:           topology.FlexString(ni.SubnetID),
			SecurityGroups:     topology.FlexStrings(ni.SecurityGroups),
		})
	}
	for _, sg := range sgs {
		resp.SecurityGroups = append(resp.SecurityGroups, topology.RawSecurityGroup{
			GroupID:       topology.FlexString(sg.GroupID),
			GroupName:     topology.FlexString(sg.Name),
			Description:   topology.FlexString(sg.Description),
			InboundRules:  topology.FlexString(strconv.Itoa(sg.InboundRules)),
			OutboundRules: topology.FlexString(strconv.Itoa(sg.OutboundRules)),
		})
	}
	return resp, nil
}

func buildNetwork(vpc VPCInfo, subnets []SubnetInfo) *topology.RawNetwork {
	net := &topology.RawNetwork{
		VPCID:       topology.FlexString(vpc.VPCID),
		CIDR:        topology.FlexString(vpc.CIDR),
		Name:        topology.FlexString(vpc.Name),
		SubnetsByAZ: make(topology.RawSubnetsByAZ),
	}
	for _, s := range subnets {
		net.SubnetsByAZ[s.AZ] = append(net.SubnetsByAZ[s.AZ], topology.RawSubnet{
			SubnetID: topology.FlexString(s.SubnetID),
			CIDR:     topology.FlexString(s.CIDR),
			Type:     topology.FlexString(s.Tier),
			Name:     topology.FlexString(s.Name),
			Tags:     topology.Tags(s.Tags),
		})
	}
	azs := make([]string, 0, len(net.SubnetsByAZ))
	for az := range net.SubnetsByAZ {
		azs = append(azs, az)
	}
	sort.Strings(azs)
	net.AvailabilityZones = azs
	return net
}

func buildRouteTables(rts []RouteTableInfo) []topology.RawRouteTable {
	out := make([]topology.RawRouteTable, 0, len(rts))
	for _, rt := range rts {
		isMain := topology.FlexBool(rt.IsMain)
		raw := topology.RawRouteTable{
			RouteTableID: topology.FlexString(rt.RouteTableID),
			IsMain:       &isMain,
			Name:         topology.FlexString(rt.Name),
		}
		for _, a := range rt.Associations {
			raw.SubnetAssociations = append(raw.SubnetAssociations, topology.Association{SubnetID: a.SubnetID})
		}
		for _, r := range rt.Routes {
			raw.Routes = append(raw.Routes, rawRoute(r))
		}
		out = append(out, raw)
	}
	return out
}

func rawRoute(e RouteEntry) topology.RawRoute {
	r := topology.RawRoute{
		Destination: topology.FlexString(e.Destination),
		State:       topology.FlexString(e.Status),
	}
	id := topology.FlexString(e.Target)
	switch e.TargetField {
	case TargetFieldGateway:
		r.GatewayID = id
	case TargetFieldNATGateway:
		r.NATGatewayID = id
	case TargetFieldTransitGateway:
		r.TransitGatewayID = id
	case TargetFieldVPCPeering:
		r.VPCPeeringConnectionID = id
	case TargetFieldNetworkInterface:
		r.NetworkInterfaceID = id
	case TargetFieldInstance:
		r.InstanceID = id
	default:
		r.Target = id
	}
	return r
}
