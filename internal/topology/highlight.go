package topology

// Highlight is the set of entities to emphasise for the current hover.
type Highlight struct {
	Subnets     Set `json:"highlightedSubnets" yaml:"highlightedSubnets"`
	RouteTables Set `json:"highlightedRouteTables" yaml:"highlightedRouteTables"`
}

// ResolveHighlight maps hover state onto the entities to highlight. An empty
// id means nothing of that kind is hovered. Callers hover at most one thing at
// a time; if both ids are set the subnet wins.
func ResolveHighlight(hoveredSubnetID, hoveredRouteTableID string, idx AssociationIndex) Highlight {
	h := Highlight{Subnets: Set{}, RouteTables: Set{}}
	switch {
	case hoveredSubnetID != "":
		h.Subnets[hoveredSubnetID] = struct{}{}
		if rt, ok := idx.SubnetToRouteTable[hoveredSubnetID]; ok {
			h.RouteTables[rt] = struct{}{}
		}
	case hoveredRouteTableID != "":
		h.Subnets = idx.RouteTableToSubnets[hoveredRouteTableID].clone()
		h.RouteTables[hoveredRouteTableID] = struct{}{}
	}
	return h
}
