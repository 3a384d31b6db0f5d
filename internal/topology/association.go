package topology

// AssociationIndex maps subnets to route tables in both directions.
//
// A subnet listed by more than one table resolves to the last table in input
// order. Every such overwrite is kept in Conflicts so callers can report it.
type AssociationIndex struct {
	SubnetToRouteTable  map[string]string     `json:"subnetToRouteTable" yaml:"subnetToRouteTable"`
	RouteTableToSubnets map[string]Set        `json:"routeTableToSubnets" yaml:"routeTableToSubnets"`
	Conflicts           []AssociationConflict `json:"conflicts,omitempty" yaml:"conflicts,omitempty"`
}

// AssociationConflict records a subnet claimed by two route tables.
type AssociationConflict struct {
	SubnetID string `json:"subnetId" yaml:"subnetId"`
	Previous string `json:"previous" yaml:"previous"`
	Current  string `json:"current" yaml:"current"`
}

// BuildAssociationIndex builds the subnet/route-table index from normalized
// route tables, iterating in input order.
func BuildAssociationIndex(tables []RouteTable) AssociationIndex {
	idx := AssociationIndex{
		SubnetToRouteTable:  make(map[string]string),
		RouteTableToSubnets: make(map[string]Set, len(tables)),
	}
	for _, rt := range tables {
		subnets, ok := idx.RouteTableToSubnets[rt.ID]
		if !ok {
			subnets = Set{}
			idx.RouteTableToSubnets[rt.ID] = subnets
		}
		for _, subnetID := range rt.SubnetAssociations {
			if prev, seen := idx.SubnetToRouteTable[subnetID]; seen && prev != rt.ID {
				idx.Conflicts = append(idx.Conflicts, AssociationConflict{
					SubnetID: subnetID,
					Previous: prev,
					Current:  rt.ID,
				})
			}
			idx.SubnetToRouteTable[subnetID] = rt.ID
			subnets[subnetID] = struct{}{}
		}
	}
	return idx
}

// Consistent reports whether every subnet listed under a route table maps back
// to that table. It is false only when Conflicts is non-empty.
func (idx AssociationIndex) Consistent() bool {
	for rt, subnets := range idx.RouteTableToSubnets {
		for subnetID := range subnets {
			if idx.SubnetToRouteTable[subnetID] != rt {
				return false
			}
		}
	}
	return true
}
