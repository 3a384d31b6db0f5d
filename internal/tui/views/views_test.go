package views

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"charm.land/bubbles/v2/table"
	tea "charm.land/bubbletea/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tasnim.dev/vpc-topology/internal/aws/vpc"
	"tasnim.dev/vpc-topology/internal/topology"
)

const discovery = `{
	"network": {
		"vpcId": "vpc-0abc",
		"availabilityZones": ["us-east-1a", "us-east-1b", "us-east-1c"],
		"subnetsByAz": {
			"us-east-1a": [
				{"id": "subnet-priv-a", "type": "private"},
				{"id": "subnet-pub-a", "type": "public"}
			],
			"us-east-1c": [
				{"id": "subnet-pub-c", "type": "public"}
			]
		}
	},
	"routing": {
		"routeTables": [
			{"id": "rtb-public", "subnetAssociations": ["subnet-pub-a", "subnet-pub-c"], "routes": [
				{"destination": "0.0.0.0/0", "gatewayId": "igw-1"}
			]},
			{"id": "rtb-private", "subnetAssociations": ["subnet-priv-a"], "routes": [
				{"destination": "0.0.0.0/0", "natGatewayId": "nat-1"}
			]}
		],
		"internetGateway": {"id": "igw-1"},
		"natGateways": [{"id": "nat-1", "subnetId": "subnet-pub-a"}]
	}
}`

func testSnapshot(t *testing.T) *topology.Snapshot {
	t.Helper()
	var resp topology.Response
	require.NoError(t, json.Unmarshal([]byte(discovery), &resp))
	snap, err := topology.Build(&resp)
	require.NoError(t, err)
	return snap
}

func key(k string) tea.KeyPressMsg {
	switch k {
	case "left":
		return tea.KeyPressMsg{Code: tea.KeyLeft}
	case "right":
		return tea.KeyPressMsg{Code: tea.KeyRight}
	case "down":
		return tea.KeyPressMsg{Code: tea.KeyDown}
	case "up":
		return tea.KeyPressMsg{Code: tea.KeyUp}
	case "enter":
		return tea.KeyPressMsg{Code: tea.KeyEnter}
	}
	return tea.KeyPressMsg{Code: rune(k[0]), Text: k}
}

type stubView struct{ name string }

func (s *stubView) Title() string                  { return s.name }
func (s *stubView) View() string                   { return s.name }
func (s *stubView) Update(tea.Msg) (View, tea.Cmd) { return s, nil }
func (s *stubView) Init() tea.Cmd                  { return func() tea.Msg { return s.name } }

func TestTabController_LazyInit(t *testing.T) {
	created := map[int]int{}
	tc := NewTabController([]string{"A", "B", "C"}, func(i int) View {
		created[i]++
		return &stubView{name: string(rune('A' + i))}
	})

	cmd := tc.SwitchTab(1)
	require.NotNil(t, cmd)
	assert.Equal(t, "B", cmd())
	assert.Nil(t, tc.SwitchTab(1), "an existing tab is not re-initialized")
	assert.Equal(t, 1, created[1])

	tc.Reset(tc.InitTab)
	assert.Equal(t, 2, created[1], "reset re-creates the active tab")
	assert.Nil(t, tc.TabViews[0])
}

func TestTabController_HandleKey(t *testing.T) {
	tc := NewTabController([]string{"A", "B", "C"}, func(i int) View { return &stubView{} })

	tests := []struct {
		key     string
		handled bool
		active  int
	}{
		{"tab", true, 1},
		{"tab", true, 2},
		{"tab", true, 0},
		{"shift+tab", true, 2},
		{"1", true, 0},
		{"3", true, 2},
		{"9", false, 2},
		{"x", false, 2},
	}
	for _, tt := range tests {
		handled, _ := tc.HandleKey(tt.key)
		assert.Equal(t, tt.handled, handled, "key %q", tt.key)
		assert.Equal(t, tt.active, tc.ActiveTab, "key %q", tt.key)
	}
	assert.Contains(t, tc.RenderTabBar(), "3:C")
}

func TestFilterRows(t *testing.T) {
	rows := []table.Row{{"rtb-public", "igw-1"}, {"rtb-private", "nat-1"}}

	assert.Equal(t, rows, FilterRows(rows, ""))
	assert.Equal(t, []table.Row{{"rtb-private", "nat-1"}}, FilterRows(rows, "NAT"))
	assert.Empty(t, FilterRows(rows, "tgw"))
}

func newStringTable(onEnter func(string) tea.Cmd) *TableView[string] {
	return NewTableView(TableViewConfig[string]{
		Title:     "Items",
		Columns:   []table.Column{{Title: "Name", Width: 10}},
		FetchFunc: StaticFetch([]string{"alpha", "beta", "gamma"}),
		RowMapper: func(s string) table.Row { return table.Row{s} },
		OnEnter:   onEnter,
	})
}

func TestTableView_FilterKeepsSelectionMapping(t *testing.T) {
	var entered string
	v := newStringTable(func(s string) tea.Cmd {
		entered = s
		return nil
	})
	v.Update(tableDataMsg{viewID: v.viewID(), items: []string{"alpha", "beta", "gamma"}})
	require.Len(t, v.AllRows(), 3)

	v.SetRows(FilterRows(v.AllRows(), "gam"))
	got, ok := v.Selected()
	require.True(t, ok)
	assert.Equal(t, "gamma", got)

	v.Update(key("enter"))
	assert.Equal(t, "gamma", entered)

	v.SetRows(FilterRows(v.AllRows(), "zzz"))
	_, ok = v.Selected()
	assert.False(t, ok)

	v.SetRows(v.AllRows())
	got, _ = v.Selected()
	assert.Equal(t, "alpha", got)
}

func TestTableView_IgnoresOtherViewsData(t *testing.T) {
	v := newStringTable(nil)
	other := newStringTable(nil)

	v.Update(tableDataMsg{viewID: other.viewID(), items: []string{"x"}})
	assert.True(t, v.loading)

	v.Update(errViewMsg{viewID: v.viewID(), err: errors.New("boom")})
	assert.False(t, v.loading)
	assert.Contains(t, v.View(), "Error: boom")
}

func TestMapView_Navigation(t *testing.T) {
	v := NewMapView(testSnapshot(t), topology.DefaultLayoutConfig())

	sub, rt := v.Hovered()
	assert.Equal(t, "subnet-pub-a", sub, "columns are ordered top to bottom")
	assert.Empty(t, rt)

	v.Update(key("down"))
	sub, _ = v.Hovered()
	assert.Equal(t, "subnet-priv-a", sub)
	assert.True(t, v.Highlight().RouteTables.Has("rtb-private"))

	v.Update(key("right"))
	sub, _ = v.Hovered()
	assert.Equal(t, "subnet-pub-c", sub, "the empty AZ column is skipped")

	v.Update(key("right"))
	sub, _ = v.Hovered()
	assert.Equal(t, "subnet-pub-c", sub)

	v.Update(key("t"))
	sub, rt = v.Hovered()
	assert.Empty(t, sub)
	assert.Equal(t, "rtb-public", rt)

	hl := v.Highlight()
	assert.Equal(t, []string{"subnet-pub-a", "subnet-pub-c"}, hl.Subnets.Sorted())

	v.Update(key("down"))
	v.Update(key("down"))
	_, rt = v.Hovered()
	assert.Equal(t, "rtb-private", rt)

	v.Update(key("t"))
	sub, _ = v.Hovered()
	assert.Equal(t, "subnet-pub-c", sub)
}

func TestMapView_Render(t *testing.T) {
	v := NewMapView(testSnapshot(t), topology.DefaultLayoutConfig())
	v.SetSize(160, 50)

	out := v.View()
	for _, want := range []string{"us-east-1a", "us-east-1c", "subnet-pub-a", "rtb-private", "IGW igw-1"} {
		assert.Contains(t, out, want)
	}
}

func TestMapView_NoPlacedSubnets(t *testing.T) {
	var resp topology.Response
	require.NoError(t, json.Unmarshal([]byte(`{
		"network": {"vpcId": "vpc-1", "subnets": [{"id": "subnet-x", "availabilityZone": "us-east-1a"}]},
		"routing": {"routeTables": [{"id": "rtb-main", "isMain": true}]}
	}`), &resp))
	snap, err := topology.Build(&resp)
	require.NoError(t, err)

	v := NewMapView(snap, topology.DefaultLayoutConfig())
	_, rt := v.Hovered()
	assert.Equal(t, "rtb-main", rt, "focus falls back to the route table panel")
	assert.NotPanics(t, func() { _ = v.View() })
}

func TestMapView_DiagnosticsBox(t *testing.T) {
	var resp topology.Response
	require.NoError(t, json.Unmarshal([]byte(`{
		"network": {"vpcId": "vpc-1", "subnetsByAz": {"us-east-1a": [{"id": "subnet-a", "type": "private"}]}},
		"routing": {"routeTables": [
			{"id": "rtb-1", "subnetAssociations": ["subnet-a"]},
			{"id": "rtb-2", "subnetAssociations": ["subnet-a"]}
		]}
	}`), &resp))
	snap, err := topology.Build(&resp)
	require.NoError(t, err)
	require.Len(t, snap.Index.Conflicts, 1)

	v := NewMapView(snap, topology.DefaultLayoutConfig())
	v.SetSize(160, 50)
	out := v.View()
	assert.Contains(t, out, "Diagnostics (1)")
	assert.Contains(t, out, "subnet-a associated with rtb-1 and rtb-2; using rtb-2")
	assert.Contains(t, out, "╭")

	clean := NewMapView(testSnapshot(t), topology.DefaultLayoutConfig())
	clean.SetSize(160, 50)
	assert.NotContains(t, clean.View(), "Diagnostics")
}

type fakeRules map[string][]vpc.SecurityGroupRule

func (f fakeRules) Get(_ context.Context, id string) ([]vpc.SecurityGroupRule, error) {
	rules, ok := f[id]
	if !ok {
		return nil, errors.New("not found")
	}
	return rules, nil
}

func load(t *testing.T, v *RulesView) {
	t.Helper()
	msg := v.fetchData()()
	v.Update(msg)
}

func TestRulesView(t *testing.T) {
	rules := fakeRules{
		"sg-web": {{Direction: "inbound", Protocol: "TCP", PortRange: "443", Source: "0.0.0.0/0"}},
		"sg-ops": {{Direction: "outbound", Protocol: "All", PortRange: "All", Source: "10.0.0.0/8"}},
	}

	v := NewRulesView("eni-1", []string{"sg-web", "sg-ops"}, rules)
	assert.Equal(t, "eni-1 rules", v.Title())
	load(t, v)
	require.Len(t, v.AllRows(), 2)
	assert.Equal(t, "sg-web", v.AllRows()[0][0])
	assert.Equal(t, "—", v.AllRows()[0][5])

	missing := NewRulesView("eni-2", []string{"sg-gone"}, rules)
	load(t, missing)
	assert.Contains(t, missing.View(), "loading rules for sg-gone")

	offline := NewRulesView("eni-3", []string{"sg-web"}, nil)
	load(t, offline)
	assert.Contains(t, offline.View(), ErrNoRuleSource.Error())
}

func TestInterfacesView_GroupNames(t *testing.T) {
	var resp topology.Response
	require.NoError(t, json.Unmarshal([]byte(`{
		"network": {"vpcId": "vpc-1"},
		"routing": {"routeTables": []},
		"networkInterfaces": [{"id": "eni-1", "securityGroups": ["sg-web", "sg-unknown"]}],
		"securityGroups": [{"groupId": "sg-web", "groupName": "web", "inboundRules": 2, "outboundRules": "1"}]
	}`), &resp))
	snap, err := topology.Build(&resp)
	require.NoError(t, err)

	v := NewInterfacesView(snap, nil)
	v.Update(v.fetchData()())
	require.Len(t, v.AllRows(), 1)
	assert.Equal(t, "web (sg-web, 2/1), sg-unknown", v.AllRows()[0][5])

	require.Len(t, FilterRows(v.AllRows(), "web"), 1, "group names are searchable")
}

func TestDetectHelpContext(t *testing.T) {
	snap := testSnapshot(t)

	assert.Equal(t, HelpContextMap, DetectHelpContext(NewMapView(snap, topology.DefaultLayoutConfig())))
	assert.Equal(t, HelpContextTable, DetectHelpContext(NewRouteTablesView(snap)))
	assert.Equal(t, HelpContextInterfaces, DetectHelpContext(NewInterfacesView(snap, nil)))
	assert.Equal(t, HelpContextRules, DetectHelpContext(NewRulesView("x", nil, nil)))
	assert.Equal(t, HelpContextMap, DetectHelpContext(&stubView{}))
}
