package topology

// LayoutConfig holds the fixed geometry of the topology map. All values are
// in layout units; renderers scale them as they see fit.
type LayoutConfig struct {
	ColumnWidth         float64 `json:"columnWidth" yaml:"column_width"`
	ColumnGap           float64 `json:"columnGap" yaml:"column_gap"`
	LeftPanelWidth      float64 `json:"leftPanelWidth" yaml:"left_panel_width"`
	Margin              float64 `json:"margin" yaml:"margin"`
	HeaderOffset        float64 `json:"headerOffset" yaml:"header_offset"`
	PublicHeight        float64 `json:"publicHeight" yaml:"public_height"`
	PublicHeightWithNAT float64 `json:"publicHeightWithNat" yaml:"public_height_with_nat"`
	PrivateHeight       float64 `json:"privateHeight" yaml:"private_height"`
	DatabaseHeight      float64 `json:"databaseHeight" yaml:"database_height"`
	IGWOffsetY          float64 `json:"igwOffsetY" yaml:"igw_offset_y"`
	NATOffsetY          float64 `json:"natOffsetY" yaml:"nat_offset_y"`
}

// DefaultLayoutConfig returns the geometry used by the map views.
func DefaultLayoutConfig() LayoutConfig {
	return LayoutConfig{
		ColumnWidth:         280,
		ColumnGap:           40,
		LeftPanelWidth:      220,
		Margin:              20,
		HeaderOffset:        80,
		PublicHeight:        120,
		PublicHeightWithNAT: 180,
		PrivateHeight:       120,
		DatabaseHeight:      100,
		IGWOffsetY:          20,
		NATOffsetY:          130,
	}
}

// Position places one subnet on the map.
type Position struct {
	X    float64    `json:"x" yaml:"x"`
	Y    float64    `json:"y" yaml:"y"`
	Type SubnetType `json:"type" yaml:"type"`
}

// Anchors are the fixed points route arrows are drawn to. NAT is nil when the
// VPC has no NAT gateway in a laid-out AZ.
type Anchors struct {
	IGW Point  `json:"igw" yaml:"igw"`
	NAT *Point `json:"nat" yaml:"nat"`
}

// UnplacedSubnet is a subnet the layout could not give a slot to.
type UnplacedSubnet struct {
	SubnetID string `json:"subnetId" yaml:"subnetId"`
	AZ       string `json:"az" yaml:"az"`
	Reason   string `json:"reason" yaml:"reason"`
}

const (
	UnplacedUnknownType   = "unknown subnet type"
	UnplacedDuplicateType = "duplicate subnet type in AZ"
)

// Layout is the computed geometry for one snapshot.
type Layout struct {
	Positions map[string]Position `json:"positions" yaml:"positions"`
	Anchors   Anchors             `json:"anchors" yaml:"anchors"`
	Unplaced  []UnplacedSubnet    `json:"unplaced,omitempty" yaml:"unplaced,omitempty"`
}

// ColumnX returns the left edge of the AZ column at index i.
func (c LayoutConfig) ColumnX(i int) float64 {
	return c.LeftPanelWidth + c.Margin + float64(i)*(c.ColumnWidth+c.ColumnGap)
}

func (c LayoutConfig) extent(t SubnetType, hasNAT bool) float64 {
	switch t {
	case SubnetPublic:
		if hasNAT {
			return c.PublicHeightWithNAT
		}
		return c.PublicHeight
	case SubnetPrivate:
		return c.PrivateHeight
	case SubnetDatabase:
		return c.DatabaseHeight
	}
	return 0
}

// ComputeLayout places subnets in AZ columns, stacking public, private and
// database rows top to bottom. A row type missing from an AZ takes no space.
// When an AZ lists two subnets of the same type the first one encountered is
// placed and the rest are reported as unplaced.
//
// Only AZ membership matters for NAT gateways, so the result does not depend
// on the order of nats.
func ComputeLayout(net Network, nats []NATGateway, cfg LayoutConfig) Layout {
	natAZ := make(map[string]bool, len(nats))
	for _, nat := range nats {
		if nat.AZ != "" {
			natAZ[nat.AZ] = true
		}
	}

	layout := Layout{
		Positions: make(map[string]Position),
		Anchors: Anchors{
			IGW: Point{X: cfg.ColumnX(0) + cfg.ColumnWidth/2, Y: cfg.IGWOffsetY},
		},
	}

	for i, az := range net.AvailabilityZones {
		x := cfg.ColumnX(i)
		hasNAT := natAZ[az]
		if hasNAT && layout.Anchors.NAT == nil {
			layout.Anchors.NAT = &Point{X: x + cfg.ColumnWidth/2, Y: cfg.HeaderOffset + cfg.NATOffsetY}
		}

		byType := make(map[SubnetType]Subnet, len(stackOrder))
		for _, s := range net.SubnetsByAZ[az] {
			if s.Type == SubnetUnknown || s.Type == "" {
				layout.Unplaced = append(layout.Unplaced, UnplacedSubnet{SubnetID: s.ID, AZ: az, Reason: UnplacedUnknownType})
				continue
			}
			if _, taken := byType[s.Type]; taken {
				layout.Unplaced = append(layout.Unplaced, UnplacedSubnet{SubnetID: s.ID, AZ: az, Reason: UnplacedDuplicateType})
				continue
			}
			byType[s.Type] = s
		}

		y := cfg.HeaderOffset
		for _, t := range stackOrder {
			s, ok := byType[t]
			if !ok {
				continue
			}
			layout.Positions[s.ID] = Position{X: x, Y: y, Type: t}
			y += cfg.extent(t, hasNAT)
		}
	}
	return layout
}
