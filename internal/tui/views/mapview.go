package views

import (
	"fmt"
	"math"
	"sort"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"tasnim.dev/vpc-topology/internal/topology"
	"tasnim.dev/vpc-topology/internal/tui/theme"
	"tasnim.dev/vpc-topology/internal/utils"
)

// Layout units per terminal cell.
const (
	unitsPerColumn = 10.0
	unitsPerLine   = 20.0
)

// MapView draws the VPC as AZ columns with subnets stacked at their layout
// positions and route tables in a left-hand panel. The cursor picks the
// hovered entity and the rest of the map highlights around it.
type MapView struct {
	snap *topology.Snapshot
	cfg  topology.LayoutConfig

	columns [][]string // placed subnet ids per AZ, top to bottom
	tables  []string

	col, row    int
	tableRow    int
	focusTables bool

	width, height int
}

// NewMapView builds the map for snap using cfg for scaling.
func NewMapView(snap *topology.Snapshot, cfg topology.LayoutConfig) *MapView {
	v := &MapView{snap: snap, cfg: cfg}
	for _, az := range snap.Network.AvailabilityZones {
		var ids []string
		for _, s := range snap.Network.SubnetsByAZ[az] {
			if _, ok := snap.Layout.Positions[s.ID]; ok {
				ids = append(ids, s.ID)
			}
		}
		sort.SliceStable(ids, func(i, j int) bool {
			return snap.Layout.Positions[ids[i]].Y < snap.Layout.Positions[ids[j]].Y
		})
		v.columns = append(v.columns, ids)
	}
	for _, rt := range snap.RouteTables {
		v.tables = append(v.tables, rt.ID)
	}
	for v.col < len(v.columns) && v.columnEmpty(v.col) {
		v.col++
	}
	if v.columnEmpty(v.col) {
		v.col = 0
		v.focusTables = len(v.tables) > 0
	}
	return v
}

func (v *MapView) Title() string { return "Map" }

func (v *MapView) Init() tea.Cmd { return nil }

func (v *MapView) HelpContext() HelpContext { return HelpContextMap }

func (v *MapView) SetSize(width, height int) {
	v.width, v.height = width, height
}

func (v *MapView) Update(msg tea.Msg) (View, tea.Cmd) {
	key, ok := msg.(tea.KeyPressMsg)
	if !ok {
		return v, nil
	}
	switch key.String() {
	case "t":
		if v.focusTables {
			v.focusTables = false
		} else if len(v.tables) > 0 {
			v.focusTables = true
		}
	case "left", "h":
		if !v.focusTables {
			v.moveColumn(-1)
		}
	case "right", "l":
		if v.focusTables {
			v.focusTables = false
		} else {
			v.moveColumn(1)
		}
	case "up", "k":
		if v.focusTables {
			v.tableRow = max(v.tableRow-1, 0)
		} else {
			v.row = max(v.row-1, 0)
		}
	case "down", "j":
		if v.focusTables {
			v.tableRow = min(v.tableRow+1, max(len(v.tables)-1, 0))
		} else if v.col < len(v.columns) {
			v.row = min(v.row+1, max(len(v.columns[v.col])-1, 0))
		}
	}
	return v, nil
}

// moveColumn steps to the next AZ column that has a placed subnet.
func (v *MapView) moveColumn(delta int) {
	for c := v.col + delta; c >= 0 && c < len(v.columns); c += delta {
		if !v.columnEmpty(c) {
			v.col = c
			v.row = min(v.row, len(v.columns[c])-1)
			return
		}
	}
}

func (v *MapView) columnEmpty(c int) bool {
	return c >= len(v.columns) || len(v.columns[c]) == 0
}

// Hovered returns the subnet or route table under the cursor. At most one of
// the two is set.
func (v *MapView) Hovered() (subnetID, routeTableID string) {
	if v.focusTables {
		if v.tableRow < len(v.tables) {
			return "", v.tables[v.tableRow]
		}
		return "", ""
	}
	if v.columnEmpty(v.col) {
		return "", ""
	}
	return v.columns[v.col][v.row], ""
}

func (v *MapView) CopyID() string {
	sub, rt := v.Hovered()
	if sub != "" {
		return sub
	}
	return rt
}

// subnetRecord is the JSON shape of a hovered subnet: the subnet plus where
// the map placed it and which table routes it.
type subnetRecord struct {
	topology.Subnet
	Position              *topology.Position `json:"position,omitempty"`
	EffectiveRouteTableID string             `json:"effectiveRouteTableId,omitempty"`
}

// Inspect returns the hovered subnet or route table.
func (v *MapView) Inspect() (string, any, bool) {
	sub, rt := v.Hovered()
	if sub != "" {
		s, ok := v.snap.Subnet(sub)
		if !ok {
			return "", nil, false
		}
		rec := subnetRecord{Subnet: s, EffectiveRouteTableID: v.snap.EffectiveRouteTable(sub)}
		if pos, ok := v.snap.Layout.Positions[sub]; ok {
			rec.Position = &pos
		}
		return sub, rec, true
	}
	if rt != "" {
		table, ok := v.snap.RouteTable(rt)
		return rt, table, ok
	}
	return "", nil, false
}

// Highlight resolves the current hover against the snapshot.
func (v *MapView) Highlight() topology.Highlight {
	return v.snap.Highlight(v.Hovered())
}

func (v *MapView) View() string {
	hl := v.Highlight()
	hoverSubnet, hoverTable := v.Hovered()

	panel := v.renderTablePanel(hl, hoverTable)
	cols := make([]string, 0, len(v.columns))
	for i := range v.columns {
		cols = append(cols, v.renderColumn(i, hl, hoverSubnet))
	}
	gap := strings.Repeat(" ", v.cells(v.cfg.ColumnGap))

	parts := []string{panel, gap}
	for i, c := range cols {
		if i > 0 {
			parts = append(parts, gap)
		}
		parts = append(parts, c)
	}

	sections := []string{
		v.renderAnchors(),
		lipgloss.JoinHorizontal(lipgloss.Top, parts...),
		v.renderDetail(hoverSubnet, hoverTable),
	}
	if diag := v.renderDiagnostics(); diag != "" {
		sections = append(sections, diag)
	}
	return strings.Join(sections, "\n\n")
}

func (v *MapView) cells(units float64) int {
	return max(int(math.Round(units/unitsPerColumn)), 1)
}

func (v *MapView) renderAnchors() string {
	var parts []string
	if igw := v.snap.InternetGateway; igw != nil {
		parts = append(parts, theme.AnchorStyle.Render("▲ IGW "+igw.ID))
	}
	for _, nat := range v.snap.NATGateways {
		parts = append(parts, theme.AnchorStyle.Render("◆ NAT "+nat.ID)+theme.MutedStyle.Render(" ("+utils.OrDash(nat.AZ)+")"))
	}
	if len(parts) == 0 {
		return theme.MutedStyle.Render("no internet or NAT gateway")
	}
	return strings.Join(parts, "   ")
}

func (v *MapView) renderTablePanel(hl topology.Highlight, hovered string) string {
	width := v.cells(v.cfg.LeftPanelWidth) - 4
	lines := []string{theme.SectionTitleStyle.Render("Route Tables")}
	for _, id := range v.tables {
		rt, _ := v.snap.RouteTable(id)
		title := utils.Truncate(id, width)
		if id == hovered {
			title = "› " + utils.Truncate(id, width-2)
		}
		body := title + "\n" + theme.MutedStyle.Render(utils.Truncate(routeTableCaption(rt), width))
		style := theme.NodeStyle
		if hl.RouteTables.Has(id) {
			style = theme.HighlightNodeStyle
		}
		lines = append(lines, style.Width(width+4).Render(body))
	}
	if len(v.tables) == 0 {
		lines = append(lines, theme.MutedStyle.Render("none"))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func routeTableCaption(rt topology.RouteTable) string {
	caption := fmt.Sprintf("%d subnets", len(rt.SubnetAssociations))
	if rt.IsMain {
		caption = "main · " + caption
	}
	if rt.Name != "" {
		caption = rt.Name + " · " + caption
	}
	return caption
}

func (v *MapView) renderColumn(i int, hl topology.Highlight, hovered string) string {
	az := v.snap.Network.AvailabilityZones[i]
	width := v.cells(v.cfg.ColumnWidth) - 4
	var b strings.Builder
	b.WriteString(theme.SectionTitleStyle.Render(utils.Truncate(az, width+4)))

	// lines are counted from the top of the AZ body, which starts at HeaderOffset
	used := 0
	for _, id := range v.columns[i] {
		pos := v.snap.Layout.Positions[id]
		top := int(math.Round((pos.Y - v.cfg.HeaderOffset) / unitsPerLine))
		for ; used < top; used++ {
			b.WriteString("\n")
		}
		box := v.renderSubnet(id, pos.Type, width, hl.Subnets.Has(id), id == hovered)
		b.WriteString("\n" + box)
		used += lipgloss.Height(box)
	}
	if len(v.columns[i]) == 0 {
		b.WriteString("\n" + theme.MutedStyle.Render("no placed subnets"))
	}
	return lipgloss.NewStyle().Width(width + 4).Render(b.String())
}

func (v *MapView) renderSubnet(id string, t topology.SubnetType, width int, highlighted, hovered bool) string {
	sub, _ := v.snap.Subnet(id)
	title := utils.Truncate(id, width)
	if hovered {
		title = "› " + utils.Truncate(id, width-2)
	}
	kind := lipgloss.NewStyle().Foreground(theme.SubnetTypeColor(t)).Render(string(t))
	lines := []string{title, utils.Truncate(sub.CIDR, width-len(t)-1) + " " + kind}
	for _, nat := range v.snap.NATGateways {
		if nat.SubnetID == id {
			lines = append(lines, theme.AnchorStyle.Render(utils.Truncate("◆ "+nat.ID, width)))
		}
	}

	style := theme.NodeStyle.BorderForeground(theme.SubnetTypeColor(t))
	if highlighted {
		style = theme.HighlightNodeStyle
	}
	return style.Width(width + 4).Render(strings.Join(lines, "\n"))
}

func (v *MapView) renderDetail(subnetID, routeTableID string) string {
	d := utils.NewDetailBuilder(14, max(v.width-4, 40), theme.MutedStyle)
	switch {
	case subnetID != "":
		sub, _ := v.snap.Subnet(subnetID)
		kind := string(sub.Type)
		if sub.TypeInferred {
			kind += " (inferred)"
		}
		d.Section("Subnet " + sub.ID)
		d.OptionalRow("Name", sub.Name)
		d.Row("CIDR", sub.CIDR)
		d.Row("AZ", sub.AvailabilityZone)
		d.Row("Type", kind)

		rtID := v.snap.EffectiveRouteTable(subnetID)
		assoc := "explicit"
		if _, ok := v.snap.Index.SubnetToRouteTable[subnetID]; !ok {
			assoc = "main"
		}
		if rtID == "" {
			d.Row("Route Table", "")
		} else {
			d.Row("Route Table", rtID+" ("+assoc+")")
			rt, _ := v.snap.RouteTable(rtID)
			writeRoutes(d, rt.Routes)
		}
	case routeTableID != "":
		rt, _ := v.snap.RouteTable(routeTableID)
		d.Section("Route Table " + rt.ID)
		d.OptionalRow("Name", rt.Name)
		d.Row("Main", yesNo(rt.IsMain))
		d.Row("Subnets", utils.JoinOrDash(v.snap.Index.RouteTableToSubnets[rt.ID].Sorted()))
		writeRoutes(d, rt.Routes)
	default:
		d.Line(theme.MutedStyle.Render("nothing selected"))
	}
	return d.String()
}

func writeRoutes(d *utils.DetailBuilder, routes []topology.Route) {
	d.Section("Routes")
	if len(routes) == 0 {
		d.Line(theme.MutedStyle.Render("no routes"))
		return
	}
	for _, r := range routes {
		d.Line(routeLine(r))
	}
}

func routeLine(r topology.Route) string {
	target := "unknown"
	if r.TargetType != topology.TargetUnknown {
		target = string(r.TargetType)
	}
	if r.TargetID != "" && r.TargetID != string(r.TargetType) {
		target += " " + r.TargetID
	}
	line := fmt.Sprintf("%-18s → %s", utils.OrDash(r.Destination), target)
	if r.State != "" && r.State != "active" {
		line += "  " + theme.RenderStatus(r.State)
	}
	if r.TargetType == topology.TargetUnknown {
		return theme.WarningStyle.Render(line)
	}
	return line
}

func (v *MapView) renderDiagnostics() string {
	var lines []string
	for _, u := range v.snap.Layout.Unplaced {
		lines = append(lines, fmt.Sprintf("unplaced %s in %s: %s", u.SubnetID, u.AZ, u.Reason))
	}
	for _, c := range v.snap.Index.Conflicts {
		lines = append(lines, fmt.Sprintf("%s associated with %s and %s; using %s", c.SubnetID, c.Previous, c.Current, c.Current))
	}
	if len(lines) == 0 {
		return ""
	}
	title := theme.SectionTitleStyle.Render(fmt.Sprintf("Diagnostics (%d)", len(lines)))
	return theme.DiagnosticsBoxStyle.Render(title + "\n" + strings.Join(lines, "\n"))
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}
