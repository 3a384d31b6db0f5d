package views

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"charm.land/bubbles/v2/table"
	tea "charm.land/bubbletea/v2"

	"tasnim.dev/vpc-topology/internal/aws/vpc"
	"tasnim.dev/vpc-topology/internal/topology"
	"tasnim.dev/vpc-topology/internal/tui/theme"
	"tasnim.dev/vpc-topology/internal/utils"
)

// ErrNoRuleSource is shown when security group rules are requested for a
// topology loaded from a file.
var ErrNoRuleSource = errors.New("security group rules need a live AWS session")

// RuleSource returns the rules of one security group. *rulecache.Cache
// satisfies it.
type RuleSource interface {
	Get(ctx context.Context, groupID string) ([]vpc.SecurityGroupRule, error)
}

// ---------------------------------------------------------------------------
// Route Tables
// ---------------------------------------------------------------------------

type routeRow struct {
	table topology.RouteTable
	route topology.Route
}

// NewRouteTablesView lists every classified route, one row per route.
func NewRouteTablesView(snap *topology.Snapshot) *TableView[routeRow] {
	var rows []routeRow
	for _, rt := range snap.RouteTables {
		if len(rt.Routes) == 0 {
			rows = append(rows, routeRow{table: rt})
			continue
		}
		for _, r := range rt.Routes {
			rows = append(rows, routeRow{table: rt, route: r})
		}
	}

	return NewTableView(TableViewConfig[routeRow]{
		Title:       "Route Tables",
		LoadingText: "Loading routes...",
		EmptyText:   "No route tables.",
		Columns: []table.Column{
			{Title: "Route Table", Width: 24},
			{Title: "Main", Width: 5},
			{Title: "Subnets", Width: 8},
			{Title: "Destination", Width: 20},
			{Title: "Target", Width: 18},
			{Title: "Target ID", Width: 24},
			{Title: "State", Width: 10},
		},
		FetchFunc: StaticFetch(rows),
		RowMapper: func(r routeRow) table.Row {
			target := string(r.route.TargetType)
			if r.route.TargetType == topology.TargetUnknown && r.route.Destination != "" {
				target = "unknown"
			}
			return table.Row{
				routeTableLabel(r.table),
				yesNo(r.table.IsMain),
				fmt.Sprintf("%d", len(snap.Index.RouteTableToSubnets[r.table.ID])),
				utils.OrDash(r.route.Destination),
				utils.OrDash(target),
				utils.OrDash(r.route.TargetID),
				utils.OrDash(r.route.State),
			}
		},
		SummaryFunc: func(items []routeRow) string {
			unknown := 0
			for _, r := range items {
				if r.route.Destination != "" && r.route.TargetType == topology.TargetUnknown {
					unknown++
				}
			}
			s := fmt.Sprintf("%d route tables · main: %s", len(snap.RouteTables), utils.OrDash(snap.MainRouteTable()))
			if unknown > 0 {
				s += theme.WarningStyle.Render(fmt.Sprintf(" · %d unclassified targets", unknown))
			}
			return theme.MutedStyle.Render(s)
		},
		CopyID:       func(r routeRow) string { return r.table.ID },
		Inspect:      func(r routeRow) any { return r.table },
		HeightOffset: 2,
	})
}

func routeTableLabel(rt topology.RouteTable) string {
	if rt.Name != "" {
		return rt.ID + " (" + rt.Name + ")"
	}
	return rt.ID
}

// ---------------------------------------------------------------------------
// Interfaces
// ---------------------------------------------------------------------------

// InterfacesView lists ENIs with their classified owning resource. Enter
// opens the rules of the interface's security groups.
type InterfacesView struct {
	*TableView[topology.NetworkInterface]
}

func NewInterfacesView(snap *topology.Snapshot, rules RuleSource) *InterfacesView {
	tv := NewTableView(TableViewConfig[topology.NetworkInterface]{
		Title:       "Interfaces",
		LoadingText: "Loading network interfaces...",
		EmptyText:   "No network interfaces.",
		Columns: []table.Column{
			{Title: "Interface", Width: 22},
			{Title: "Subnet", Width: 24},
			{Title: "Private IP", Width: 15},
			{Title: "Attachment", Width: 16},
			{Title: "Resource", Width: 30},
			{Title: "Security Groups", Width: 30},
		},
		FetchFunc: StaticFetch(snap.NetworkInterfaces),
		RowMapper: func(eni topology.NetworkInterface) table.Row {
			return table.Row{
				eni.ID,
				utils.OrDash(eni.SubnetID),
				utils.OrDash(eni.PrivateIP),
				utils.OrDash(eni.AttachmentType),
				resourceLabel(eni.Resource),
				utils.JoinOrDash(groupLabels(snap, eni.SecurityGroups)),
			}
		},
		SummaryFunc: func(items []topology.NetworkInterface) string {
			classified := 0
			for _, eni := range items {
				if eni.Resource != nil {
					classified++
				}
			}
			return theme.MutedStyle.Render(fmt.Sprintf("%d interfaces · %d classified", len(items), classified))
		},
		OnEnter: func(eni topology.NetworkInterface) tea.Cmd {
			if len(eni.SecurityGroups) == 0 {
				return nil
			}
			return func() tea.Msg {
				return PushViewMsg{View: NewRulesView(eni.ID, eni.SecurityGroups, rules)}
			}
		},
		CopyID:       func(eni topology.NetworkInterface) string { return eni.ID },
		Inspect:      func(eni topology.NetworkInterface) any { return eni },
		HeightOffset: 2,
	})
	return &InterfacesView{TableView: tv}
}

func (v *InterfacesView) Update(msg tea.Msg) (View, tea.Cmd) {
	_, cmd := v.TableView.Update(msg)
	return v, cmd
}

func (v *InterfacesView) HelpContext() HelpContext { return HelpContextInterfaces }

// groupLabels names each group when discovery saw it, with its rule counts.
func groupLabels(snap *topology.Snapshot, ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		sg, ok := snap.SecurityGroup(id)
		if !ok || sg.Name == "" {
			out = append(out, id)
			continue
		}
		out = append(out, fmt.Sprintf("%s (%s, %d/%d)", sg.Name, id, sg.InboundRules, sg.OutboundRules))
	}
	return out
}

func resourceLabel(r *topology.ENIResource) string {
	if r == nil {
		return "—"
	}
	label := r.ResourceType + ": " + r.ResourceName
	if r.ResourceID != "" && r.ResourceID != r.ResourceName {
		label += " (" + r.ResourceID + ")"
	}
	return label
}

// ---------------------------------------------------------------------------
// Security group rules
// ---------------------------------------------------------------------------

type groupRule struct {
	groupID string
	rule    vpc.SecurityGroupRule
}

// RulesView shows the rules of a set of security groups, loaded through the
// rule cache.
type RulesView struct {
	*TableView[groupRule]
	owner string
}

func NewRulesView(owner string, groupIDs []string, rules RuleSource) *RulesView {
	ids := append([]string(nil), groupIDs...)
	tv := NewTableView(TableViewConfig[groupRule]{
		Title:       strings.Join(ids, ", "),
		LoadingText: "Loading security group rules...",
		EmptyText:   "No rules.",
		Columns: []table.Column{
			{Title: "Group", Width: 22},
			{Title: "Direction", Width: 9},
			{Title: "Protocol", Width: 8},
			{Title: "Ports", Width: 11},
			{Title: "Source/Dest", Width: 24},
			{Title: "Description", Width: 30},
		},
		FetchFunc: func(ctx context.Context) ([]groupRule, error) {
			if rules == nil {
				return nil, ErrNoRuleSource
			}
			var out []groupRule
			for _, id := range ids {
				rs, err := rules.Get(ctx, id)
				if err != nil {
					return nil, fmt.Errorf("loading rules for %s: %w", id, err)
				}
				for _, r := range rs {
					out = append(out, groupRule{groupID: id, rule: r})
				}
			}
			return out, nil
		},
		RowMapper: func(r groupRule) table.Row {
			return table.Row{
				r.groupID,
				r.rule.Direction,
				r.rule.Protocol,
				r.rule.PortRange,
				r.rule.Source,
				utils.OrDash(r.rule.Description),
			}
		},
		CopyID: func(r groupRule) string {
			if r.rule.RuleID != "" {
				return r.rule.RuleID
			}
			return r.groupID
		},
		Inspect: func(r groupRule) any { return r.rule },
	})
	return &RulesView{TableView: tv, owner: owner}
}

func (v *RulesView) Title() string { return v.owner + " rules" }

func (v *RulesView) Update(msg tea.Msg) (View, tea.Cmd) {
	_, cmd := v.TableView.Update(msg)
	return v, cmd
}

func (v *RulesView) HelpContext() HelpContext { return HelpContextRules }

// ---------------------------------------------------------------------------
// Connectivity
// ---------------------------------------------------------------------------

type connection struct {
	kind, id, name, state, detail string
	record                        any
}

// NewConnectivityView lists the VPC's gateways, endpoints, peerings, VPN
// connections and transit gateway attachments.
func NewConnectivityView(snap *topology.Snapshot) *TableView[connection] {
	var rows []connection
	if igw := snap.InternetGateway; igw != nil {
		rows = append(rows, connection{"Internet Gateway", igw.ID, igw.Name, igw.State, "", igw})
	}
	for _, nat := range snap.NATGateways {
		rows = append(rows, connection{"NAT Gateway", nat.ID, nat.Name, nat.State, strings.TrimSpace(nat.SubnetID + " " + nat.AZ), nat})
	}
	for _, ep := range snap.VPCEndpoints {
		rows = append(rows, connection{"Endpoint (" + string(ep.Type) + ")", ep.ID, ep.Name, ep.State, ep.ServiceName, ep})
	}
	for _, p := range snap.VPCPeerings {
		rows = append(rows, connection{"Peering", p.ID, p.Name, p.State, strings.TrimSpace(p.PeerVPCID + " " + p.PeerCIDR), p})
	}
	for _, vpn := range snap.VPNConnections {
		rows = append(rows, connection{"VPN", vpn.ID, vpn.Name, vpn.State, "", vpn})
	}
	for _, tgw := range snap.TransitGatewayAttachments {
		rows = append(rows, connection{"TGW Attachment", tgw.ID, tgw.Name, tgw.State, tgw.TransitGatewayID, tgw})
	}

	return NewTableView(TableViewConfig[connection]{
		Title:       "Connectivity",
		LoadingText: "Loading connectivity...",
		EmptyText:   "No gateways, endpoints or peerings.",
		Columns: []table.Column{
			{Title: "Kind", Width: 20},
			{Title: "ID", Width: 28},
			{Title: "Name", Width: 20},
			{Title: "State", Width: 20},
			{Title: "Detail", Width: 40},
		},
		FetchFunc: StaticFetch(rows),
		RowMapper: func(c connection) table.Row {
			return table.Row{c.kind, c.id, utils.OrDash(c.name), theme.RenderStatus(c.state), utils.OrDash(c.detail)}
		},
		CopyID:  func(c connection) string { return c.id },
		Inspect: func(c connection) any { return c.record },
	})
}
