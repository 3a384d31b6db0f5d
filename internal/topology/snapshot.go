package topology

import (
	"errors"

	"github.com/rs/zerolog"
)

// ErrTopologyUnavailable is returned when the network or routing section of a
// discovery response is missing entirely.
var ErrTopologyUnavailable = errors.New("topology data unavailable")

// Snapshot is the fully resolved topology for one discovery response. It is
// immutable once built and is rebuilt from scratch on every refresh.
type Snapshot struct {
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
	Index                     AssociationIndex
	Layout                    Layout

	routeTables    map[string]int
	securityGroups map[string]int
	mainTable      string
}

type buildOptions struct {
	layout LayoutConfig
	log    zerolog.Logger
	infer  bool
}

// Option customizes Build.
type Option func(*buildOptions)

// WithLayoutConfig overrides the default map geometry.
func WithLayoutConfig(cfg LayoutConfig) Option {
	return func(o *buildOptions) { o.layout = cfg }
}

// WithLogger sets the logger used for data-quality warnings.
func WithLogger(log zerolog.Logger) Option {
	return func(o *buildOptions) { o.log = log }
}

// WithoutTypeInference keeps subnets of unknown type as unknown instead of
// deriving public/private from their default route.
func WithoutTypeInference() Option {
	return func(o *buildOptions) { o.infer = false }
}

// Build validates, normalizes and resolves a discovery response.
func Build(resp *Response, opts ...Option) (*Snapshot, error) {
	if resp == nil || resp.Network == nil || resp.Routing == nil {
		return nil, ErrTopologyUnavailable
	}

	o := buildOptions{layout: DefaultLayoutConfig(), log: zerolog.Nop(), infer: true}
	for _, opt := range opts {
		opt(&o)
	}

	n := Normalize(resp)
	s := &Snapshot{
		Network:                   n.Network,
		RouteTables:               n.RouteTables,
		InternetGateway:           n.InternetGateway,
		NATGateways:               n.NATGateways,
		VPCEndpoints:              n.VPCEndpoints,
		VPCPeerings:               n.VPCPeerings,
		VPNConnections:            n.VPNConnections,
		TransitGatewayAttachments: n.TransitGatewayAttachments,
		NetworkInterfaces:         n.NetworkInterfaces,
		SecurityGroups:            n.SecurityGroups,
		routeTables:               make(map[string]int, len(n.RouteTables)),
		securityGroups:            make(map[string]int, len(n.SecurityGroups)),
	}
	for i, sg := range s.SecurityGroups {
		s.securityGroups[sg.ID] = i
	}
	for i, rt := range s.RouteTables {
		if _, dup := s.routeTables[rt.ID]; !dup {
			s.routeTables[rt.ID] = i
		}
		if rt.IsMain && s.mainTable == "" {
			s.mainTable = rt.ID
		}
	}

	s.Index = BuildAssociationIndex(s.RouteTables)
	for _, c := range s.Index.Conflicts {
		o.log.Warn().
			Str("subnet_id", c.SubnetID).
			Str("previous_route_table", c.Previous).
			Str("route_table", c.Current).
			Msg("subnet associated with multiple route tables, keeping the last")
	}

	if o.infer {
		s.inferSubnetTypes()
	}

	s.Layout = ComputeLayout(s.Network, s.NATGateways, o.layout)
	for _, u := range s.Layout.Unplaced {
		o.log.Debug().Str("subnet_id", u.SubnetID).Str("az", u.AZ).Str("reason", u.Reason).Msg("subnet not placed on map")
	}

	for i := range s.NetworkInterfaces {
		eni := &s.NetworkInterfaces[i]
		eni.Resource = ClassifyENI(eni.AttachmentType, eni.Description)
		if eni.Resource == nil {
			o.log.Debug().Str("eni_id", eni.ID).Str("attachment_type", eni.AttachmentType).Msg("interface not classified")
		}
	}
	return s, nil
}

// inferSubnetTypes fills in unknown subnet types from the default route of the
// subnet's effective route table.
func (s *Snapshot) inferSubnetTypes() {
	for az, subnets := range s.Network.SubnetsByAZ {
		out := make([]Subnet, len(subnets))
		for i, sub := range subnets {
			if sub.Type == SubnetUnknown {
				if t := s.defaultRouteTier(sub.ID, sub.RouteTableID); t != SubnetUnknown {
					sub.Type = t
					sub.TypeInferred = true
				}
			}
			out[i] = sub
		}
		s.Network.SubnetsByAZ[az] = out
	}
}

func (s *Snapshot) defaultRouteTier(subnetID, explicitRT string) SubnetType {
	rt, ok := s.routeTable(s.effectiveRouteTableID(subnetID, explicitRT))
	if !ok {
		return SubnetUnknown
	}
	for _, r := range rt.Routes {
		if !r.IsDefaultRoute {
			continue
		}
		switch r.TargetType {
		case TargetInternetGateway:
			return SubnetPublic
		case TargetNATGateway, TargetInstance:
			return SubnetPrivate
		}
	}
	return SubnetUnknown
}

func (s *Snapshot) routeTable(id string) (RouteTable, bool) {
	i, ok := s.routeTables[id]
	if !ok {
		return RouteTable{}, false
	}
	return s.RouteTables[i], true
}

// RouteTable looks up a route table by id.
func (s *Snapshot) RouteTable(id string) (RouteTable, bool) {
	return s.routeTable(id)
}

// SecurityGroup looks up a security group summary by id.
func (s *Snapshot) SecurityGroup(id string) (SecurityGroup, bool) {
	i, ok := s.securityGroups[id]
	if !ok {
		return SecurityGroup{}, false
	}
	return s.SecurityGroups[i], true
}

// Subnet looks up a subnet by id.
func (s *Snapshot) Subnet(id string) (Subnet, bool) {
	for _, sub := range s.Network.Subnets() {
		if sub.ID == id {
			return sub, true
		}
	}
	return Subnet{}, false
}

// EffectiveRouteTable returns the table that actually routes a subnet: its
// explicit association, then the routeTableId it was discovered with, then
// the VPC's main table. It returns "" when none applies.
func (s *Snapshot) EffectiveRouteTable(subnetID string) string {
	explicit := ""
	if sub, ok := s.Subnet(subnetID); ok {
		explicit = sub.RouteTableID
	}
	return s.effectiveRouteTableID(subnetID, explicit)
}

func (s *Snapshot) effectiveRouteTableID(subnetID, explicit string) string {
	if rt, ok := s.Index.SubnetToRouteTable[subnetID]; ok {
		return rt
	}
	if explicit != "" {
		return explicit
	}
	return s.mainTable
}

// MainRouteTable returns the id of the VPC's main route table, if known.
func (s *Snapshot) MainRouteTable() string { return s.mainTable }

// Highlight resolves hover state against this snapshot's association index.
func (s *Snapshot) Highlight(hoveredSubnetID, hoveredRouteTableID string) Highlight {
	return ResolveHighlight(hoveredSubnetID, hoveredRouteTableID, s.Index)
}

// RouteArrow is a visualized route, with the anchor it points to when the
// target is the internet gateway or a NAT gateway.
type RouteArrow struct {
	RouteTableID string     `json:"routeTableId" yaml:"routeTableId"`
	Destination  string     `json:"destination" yaml:"destination"`
	TargetType   TargetType `json:"targetType" yaml:"targetType"`
	TargetID     string     `json:"targetId,omitempty" yaml:"targetId,omitempty"`
	Anchor       *Point     `json:"anchor,omitempty" yaml:"anchor,omitempty"`
}

// RouteArrows lists every route that gets drawn, in route-table order.
func (s *Snapshot) RouteArrows() []RouteArrow {
	var arrows []RouteArrow
	for _, rt := range s.RouteTables {
		for _, r := range rt.Routes {
			if !r.Visualized() {
				continue
			}
			a := RouteArrow{
				RouteTableID: rt.ID,
				Destination:  r.Destination,
				TargetType:   r.TargetType,
				TargetID:     r.TargetID,
			}
			switch r.TargetType {
			case TargetInternetGateway:
				igw := s.Layout.Anchors.IGW
				a.Anchor = &igw
			case TargetNATGateway:
				if nat := s.Layout.Anchors.NAT; nat != nil {
					p := *nat
					a.Anchor = &p
				}
			}
			arrows = append(arrows, a)
		}
	}
	return arrows
}

// Stats summarizes data-quality counters for one snapshot.
type Stats struct {
	Subnets              int
	RouteTables          int
	UnknownRouteTargets  int
	UnclassifiedENIs     int
	AssociationConflicts int
	UnplacedSubnets      int
}

func (s *Snapshot) Stats() Stats {
	st := Stats{
		Subnets:              len(s.Network.Subnets()),
		RouteTables:          len(s.RouteTables),
		AssociationConflicts: len(s.Index.Conflicts),
		UnplacedSubnets:      len(s.Layout.Unplaced),
	}
	for _, rt := range s.RouteTables {
		for _, r := range rt.Routes {
			if r.TargetType == TargetUnknown {
				st.UnknownRouteTargets++
			}
		}
	}
	for _, eni := range s.NetworkInterfaces {
		if eni.Resource == nil {
			st.UnclassifiedENIs++
		}
	}
	return st
}
