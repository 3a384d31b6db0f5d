package topology

import (
	"sort"
	"strconv"
	"strings"
)

// Normalized is the canonical form of one discovery response.
type Normalized struct {
	Network                   Network
	RouteTables               []RouteTable
	InternetGateway           *Gateway
	NATGateways               []NATGateway
	VPCEndpoints              []VPCEndpoint
	VPCPeerings               []VPCPeering
	VPNConnections            []Gateway
	TransitGatewayAttachments []TransitGatewayAttachment
	NetworkInterfaces         []NetworkInterface
	SecurityGroups            []SecurityGroup
}

// Normalize reconciles field-name variants into canonical records. Sections
// that are absent yield empty collections. Records without an id, and subnets
// without an AZ, are dropped.
func Normalize(resp *Response) Normalized {
	var n Normalized
	if resp == nil {
		n.Network = normalizeNetwork(nil)
		return n
	}

	n.Network = normalizeNetwork(resp.Network)
	if r := resp.Routing; r != nil {
		n.RouteTables = normalizeRouteTables(r.RouteTables)
		if r.InternetGateway != nil {
			if igw := normalizeGateway(*r.InternetGateway, r.InternetGateway.InternetGatewayID); igw.ID != "" {
				n.InternetGateway = &igw
			}
		}
		n.NATGateways = normalizeNATGateways(r.NATGateways, n.Network)
		n.VPCEndpoints = normalizeEndpoints(r.VPCEndpoints)
	}
	if c := resp.Connectivity; c != nil {
		n.VPCPeerings = normalizePeerings(c.VPCPeerings)
		for _, raw := range c.VPNConnections {
			if gw := normalizeGateway(raw, raw.VPNConnectionID); gw.ID != "" {
				n.VPNConnections = append(n.VPNConnections, gw)
			}
		}
		for _, raw := range c.TransitGatewayAttachments {
			gw := normalizeGateway(raw, raw.TransitGatewayAttachID)
			if gw.ID == "" {
				continue
			}
			n.TransitGatewayAttachments = append(n.TransitGatewayAttachments, TransitGatewayAttachment{
				ID:               gw.ID,
				State:            gw.State,
				Name:             gw.Name,
				TransitGatewayID: raw.TransitGatewayID.String(),
			})
		}
	}
	n.NetworkInterfaces = normalizeInterfaces(resp.NetworkInterfaces)
	n.SecurityGroups = normalizeSecurityGroups(resp.SecurityGroups)
	return n
}

func normalizeNetwork(raw *RawNetwork) Network {
	net := Network{SubnetsByAZ: map[string][]Subnet{}}
	if raw == nil {
		net.AvailabilityZones = []string{}
		return net
	}

	net.VPC = VPC{
		ID:   firstNonEmpty(raw.VPCID.String(), raw.ID.String()),
		CIDR: firstNonEmpty(raw.CIDR.String(), raw.CIDRBlock.String()),
		Name: nameOf(raw.Name, raw.Tags),
	}

	seen := map[string]bool{}
	add := func(keyAZ string, rs RawSubnet) {
		s, ok := normalizeSubnet(rs, keyAZ)
		if !ok || s.AvailabilityZone == "" || seen[s.ID] {
			return
		}
		seen[s.ID] = true
		net.SubnetsByAZ[s.AvailabilityZone] = append(net.SubnetsByAZ[s.AvailabilityZone], s)
	}
	for _, az := range sortedKeys(raw.SubnetsByAZ) {
		if az == "" {
			continue
		}
		for _, rs := range raw.SubnetsByAZ[az] {
			add(az, rs)
		}
	}
	for _, rs := range raw.Subnets {
		add("", rs)
	}

	net.AvailabilityZones = orderAZs(raw.AvailabilityZones, net.SubnetsByAZ)
	return net
}

// orderAZs keeps the declared order, dropping duplicates, then appends any AZ
// that only appears as a subnet key, sorted.
func orderAZs(declared []string, byAZ map[string][]Subnet) []string {
	out := make([]string, 0, len(declared)+len(byAZ))
	seen := map[string]bool{}
	for _, az := range declared {
		if az == "" || seen[az] {
			continue
		}
		seen[az] = true
		out = append(out, az)
	}
	for _, az := range sortedKeys(byAZ) {
		if !seen[az] {
			seen[az] = true
			out = append(out, az)
		}
	}
	return out
}

func normalizeSubnet(raw RawSubnet, keyAZ string) (Subnet, bool) {
	id := firstNonEmpty(raw.ID.String(), raw.SubnetID.String())
	if id == "" {
		return Subnet{}, false
	}
	return Subnet{
		ID:               id,
		Name:             nameOf(raw.Name, raw.Tags),
		CIDR:             firstNonEmpty(raw.CIDR.String(), raw.CIDRBlock.String()),
		AvailabilityZone: firstNonEmpty(keyAZ, raw.AvailabilityZone.String(), raw.AZ.String()),
		Type:             ParseSubnetType(raw.Type.String()),
		RouteTableID:     raw.RouteTableID.String(),
	}, true
}

// ParseSubnetType maps a free-form tier label onto a SubnetType.
func ParseSubnetType(s string) SubnetType {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "public":
		return SubnetPublic
	case "private", "app", "application":
		return SubnetPrivate
	case "database", "db", "data", "isolated":
		return SubnetDatabase
	default:
		return SubnetUnknown
	}
}

func normalizeRouteTables(raws []RawRouteTable) []RouteTable {
	tables := make([]RouteTable, 0, len(raws))
	for _, raw := range raws {
		id := firstNonEmpty(raw.ID.String(), raw.RouteTableID.String())
		if id == "" {
			continue
		}
		rt := RouteTable{
			ID:                 id,
			Name:               nameOf(raw.Name, raw.Tags),
			SubnetAssociations: []string{},
			Routes:             make([]Route, 0, len(raw.Routes)),
		}
		if raw.IsMain != nil {
			rt.IsMain = bool(*raw.IsMain)
		} else if raw.Main != nil {
			rt.IsMain = bool(*raw.Main)
		}

		seen := map[string]bool{}
		for _, assoc := range append(append(Associations{}, raw.SubnetAssociations...), raw.Associations...) {
			if assoc.Main && assoc.SubnetID == "" {
				rt.IsMain = true
			}
			if assoc.SubnetID == "" || seen[assoc.SubnetID] {
				continue
			}
			seen[assoc.SubnetID] = true
			rt.SubnetAssociations = append(rt.SubnetAssociations, assoc.SubnetID)
		}

		for _, r := range raw.Routes {
			rt.Routes = append(rt.Routes, ClassifyRoute(r))
		}
		tables = append(tables, rt)
	}
	return tables
}

func normalizeGateway(raw RawGateway, specificID FlexString) Gateway {
	return Gateway{
		ID:    firstNonEmpty(raw.ID.String(), specificID.String(), raw.GatewayID.String()),
		State: firstNonEmpty(raw.State.String(), raw.Status.String()),
		Name:  nameOf(raw.Name, raw.Tags),
	}
}

func normalizeNATGateways(raws []RawGateway, net Network) []NATGateway {
	subnetAZ := map[string]string{}
	for az, subnets := range net.SubnetsByAZ {
		for _, s := range subnets {
			subnetAZ[s.ID] = az
		}
	}

	nats := make([]NATGateway, 0, len(raws))
	for _, raw := range raws {
		gw := normalizeGateway(raw, raw.NATGatewayID)
		if gw.ID == "" {
			continue
		}
		subnetID := raw.SubnetID.String()
		nats = append(nats, NATGateway{
			ID:       gw.ID,
			State:    gw.State,
			Name:     gw.Name,
			AZ:       firstNonEmpty(raw.AZ.String(), raw.AvailabilityZone.String(), subnetAZ[subnetID]),
			SubnetID: subnetID,
		})
	}
	return nats
}

func normalizeEndpoints(raws []RawGateway) []VPCEndpoint {
	out := make([]VPCEndpoint, 0, len(raws))
	for _, raw := range raws {
		gw := normalizeGateway(raw, raw.VPCEndpointID)
		if gw.ID == "" {
			continue
		}
		out = append(out, VPCEndpoint{
			ID:          gw.ID,
			State:       gw.State,
			Name:        gw.Name,
			Type:        parseEndpointType(firstNonEmpty(raw.Type.String(), raw.VPCEndpointType.String())),
			ServiceName: raw.ServiceName.String(),
		})
	}
	return out
}

func parseEndpointType(s string) EndpointType {
	switch strings.ToLower(s) {
	case "gateway":
		return EndpointGateway
	case "interface":
		return EndpointInterface
	default:
		return EndpointType(s)
	}
}

func normalizePeerings(raws []RawGateway) []VPCPeering {
	out := make([]VPCPeering, 0, len(raws))
	for _, raw := range raws {
		gw := normalizeGateway(raw, raw.VPCPeeringConnectionID)
		if gw.ID == "" {
			continue
		}
		out = append(out, VPCPeering{
			ID:        gw.ID,
			State:     gw.State,
			Name:      gw.Name,
			PeerVPCID: raw.PeerVPCID.String(),
			PeerCIDR:  raw.PeerCIDR.String(),
		})
	}
	return out
}

func normalizeInterfaces(raws []RawInterface) []NetworkInterface {
	out := make([]NetworkInterface, 0, len(raws))
	for _, raw := range raws {
		id := firstNonEmpty(raw.ID.String(), raw.NetworkInterfaceID.String())
		if id == "" {
			continue
		}
		groups := append(append([]string{}, raw.SecurityGroups...), raw.Groups...)
		sort.Strings(groups)
		out = append(out, NetworkInterface{
			ID:               id,
			AttachmentType:   raw.AttachmentType.String(),
			Description:      raw.Description.String(),
			PrivateIP:        firstNonEmpty(raw.PrivateIP.String(), raw.PrivateIPAddress.String()),
			PublicIP:         raw.PublicIP.String(),
			AvailabilityZone: firstNonEmpty(raw.AvailabilityZone.String(), raw.AZ.String()),
			SubnetID:         raw.SubnetID.String(),
			SecurityGroups:   dedupeSorted(groups),
		})
	}
	return out
}

func normalizeSecurityGroups(raws []RawSecurityGroup) []SecurityGroup {
	out := make([]SecurityGroup, 0, len(raws))
	seen := map[string]bool{}
	for _, raw := range raws {
		id := firstNonEmpty(raw.GroupID.String(), raw.ID.String())
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, SecurityGroup{
			ID:            id,
			Name:          firstNonEmpty(raw.GroupName.String(), nameOf(raw.Name, raw.Tags)),
			Description:   raw.Description.String(),
			InboundRules:  ruleCount(raw.InboundRules, len(raw.IPPermissions)),
			OutboundRules: ruleCount(raw.OutboundRules, len(raw.IPPermissionsEgress)),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// ruleCount prefers an explicit count over the length of a permission list.
func ruleCount(declared FlexString, listed int) int {
	if n, err := strconv.Atoi(declared.String()); err == nil && n >= 0 {
		return n
	}
	return listed
}

func dedupeSorted(ids []string) []string {
	out := ids[:0]
	for i, id := range ids {
		if i > 0 && id == ids[i-1] {
			continue
		}
		out = append(out, id)
	}
	return out
}

func nameOf(name FlexString, tags Tags) string {
	if name != "" {
		return name.String()
	}
	return tags["Name"]
}
