package tui

import (
	"context"
	"fmt"
	"time"

	"charm.land/bubbles/v2/spinner"
	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"github.com/atotto/clipboard"
	"github.com/rs/zerolog"

	"tasnim.dev/vpc-topology/internal/topology"
	"tasnim.dev/vpc-topology/internal/tui/theme"
	"tasnim.dev/vpc-topology/internal/tui/views"
	"tasnim.dev/vpc-topology/internal/utils"
)

// Loader produces a fresh snapshot. It is called on start and on every
// refresh; each call rebuilds the topology from scratch.
type Loader func(ctx context.Context) (*topology.Snapshot, error)

// RuleCache is the security group rule cache shared by the Interfaces tab.
type RuleCache interface {
	views.RuleSource
	Invalidate()
}

// Options configures the viewer.
type Options struct {
	// Source describes where the topology comes from, shown in the header.
	Source string
	Layout topology.LayoutConfig
	// Rules is nil when there is no AWS session (file input).
	Rules RuleCache
	// RefreshInterval is used when auto-refresh is toggled on.
	RefreshInterval time.Duration
	AutoRefresh     bool
	Log             zerolog.Logger
}

var tabNames = []string{"Map", "Route Tables", "Interfaces", "Connectivity"}

// Messages
type snapshotMsg struct {
	snap *topology.Snapshot
	err  error
	at   time.Time
}

type autoRefreshMsg struct{ gen int }

type clearNoticeMsg struct{ gen int }

// copyToClipboard is swapped out in tests.
var copyToClipboard = clipboard.WriteAll

// Model is the root Bubble Tea model of the topology viewer.
type Model struct {
	load Loader
	opts Options

	snap     *topology.Snapshot
	loadedAt time.Time
	loading  bool
	err      error
	spinner  spinner.Model

	tabs  *views.TabController
	stack []views.View

	autoRefresh bool
	refreshGen  int

	filtering   bool
	filterInput textinput.Model
	filterQuery string

	notice    string
	noticeGen int

	showHelp bool
	width    int
	height   int
}

// NewModel creates the viewer. load must not be nil.
func NewModel(load Loader, opts Options) Model {
	if opts.RefreshInterval <= 0 {
		opts.RefreshInterval = 15 * time.Second
	}
	if opts.Layout == (topology.LayoutConfig{}) {
		opts.Layout = topology.DefaultLayoutConfig()
	}

	ti := textinput.New()
	ti.Placeholder = "filter..."
	ti.CharLimit = 64

	return Model{
		load:        load,
		opts:        opts,
		loading:     true,
		spinner:     theme.NewSpinner(),
		tabs:        views.NewTabController(tabNames, nil),
		autoRefresh: opts.AutoRefresh,
		filterInput: ti,
		width:       120,
		height:      40,
	}
}

func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.spinner.Tick, m.fetch()}
	if m.autoRefresh {
		cmds = append(cmds, m.scheduleRefresh())
	}
	return tea.Batch(cmds...)
}

func (m Model) fetch() tea.Cmd {
	load := m.load
	return func() tea.Msg {
		snap, err := load(context.Background())
		return snapshotMsg{snap: snap, err: err, at: time.Now()}
	}
}

func (m Model) scheduleRefresh() tea.Cmd {
	gen := m.refreshGen
	return tea.Tick(m.opts.RefreshInterval, func(time.Time) tea.Msg {
		return autoRefreshMsg{gen: gen}
	})
}

// refresh reloads the topology and drops cached security group rules.
func (m Model) refresh() (Model, tea.Cmd) {
	if m.opts.Rules != nil {
		m.opts.Rules.Invalidate()
	}
	if m.loading {
		return m, nil
	}
	m.loading = true
	return m, tea.Batch(m.spinner.Tick, m.fetch())
}

func (m Model) initTab(snap *topology.Snapshot) func(int) views.View {
	var rules views.RuleSource
	if m.opts.Rules != nil {
		rules = m.opts.Rules
	}
	return func(idx int) views.View {
		switch idx {
		case 0:
			return views.NewMapView(snap, m.opts.Layout)
		case 1:
			return views.NewRouteTablesView(snap)
		case 2:
			return views.NewInterfacesView(snap, rules)
		case 3:
			return views.NewConnectivityView(snap)
		}
		return nil
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case snapshotMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			m.opts.Log.Error().Err(msg.err).Msg("topology refresh failed")
			return m, nil
		}
		m.err = nil
		m.snap = msg.snap
		m.loadedAt = msg.at
		m.stack = nil
		m.clearFilter()
		return m, m.tabs.Reset(m.initTab(msg.snap))

	case autoRefreshMsg:
		if !m.autoRefresh || msg.gen != m.refreshGen {
			return m, nil
		}
		var cmd tea.Cmd
		m, cmd = m.refresh()
		return m, tea.Batch(cmd, m.scheduleRefresh())

	case clearNoticeMsg:
		if msg.gen == m.noticeGen {
			m.notice = ""
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		return m, nil

	case tea.KeyPressMsg:
		if m.showHelp {
			switch msg.String() {
			case "?", "esc", "q":
				m.showHelp = false
			}
			return m, nil
		}
		if m.filtering {
			return m.updateFilterMode(msg)
		}
		return m.updateNormalKey(msg)

	case views.PushViewMsg:
		m.stack = append(m.stack, msg.View)
		m.clearFilter()
		m.resize()
		return m, msg.View.Init()

	case views.PopViewMsg:
		m.pop()
		return m, nil

	case spinner.TickMsg:
		var cmds []tea.Cmd
		if m.loading {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			cmds = append(cmds, cmd)
		}
		cmds = append(cmds, m.broadcast(msg))
		return m, tea.Batch(cmds...)
	}

	return m, m.broadcast(msg)
}

// broadcast hands async results to every live view; each view ignores
// messages addressed to another instance.
func (m *Model) broadcast(msg tea.Msg) tea.Cmd {
	cmds := []tea.Cmd{m.tabs.Broadcast(msg)}
	for i, v := range m.stack {
		updated, cmd := v.Update(msg)
		m.stack[i] = updated
		cmds = append(cmds, cmd)
	}
	return tea.Batch(cmds...)
}

func (m Model) updateNormalKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "esc", "backspace":
		if len(m.stack) > 0 {
			m.pop()
			return m, nil
		}
		if m.filterQuery != "" {
			m.clearFilter()
			return m, nil
		}
		return m, nil
	case "r":
		var cmd tea.Cmd
		m, cmd = m.refresh()
		return m, cmd
	case "a":
		m.autoRefresh = !m.autoRefresh
		m.refreshGen++
		if m.autoRefresh {
			return m, m.scheduleRefresh()
		}
		return m, nil
	case "?":
		m.showHelp = true
		return m, nil
	case "/":
		if _, ok := m.currentFilterable(); ok {
			m.filtering = true
			m.filterInput.SetValue("")
			return m, m.filterInput.Focus()
		}
		return m, nil
	case "c":
		if cv, ok := m.current().(views.CopyableView); ok {
			if id := cv.CopyID(); id != "" {
				return m.copyID(id)
			}
		}
	case "o":
		if iv, ok := m.current().(views.InspectableView); ok {
			if title, record, ok := iv.Inspect(); ok {
				jv := views.NewJSONView(title, record)
				return m, func() tea.Msg { return views.PushViewMsg{View: jv} }
			}
		}
	}

	if len(m.stack) > 0 {
		top := len(m.stack) - 1
		updated, cmd := m.stack[top].Update(msg)
		m.stack[top] = updated
		return m, cmd
	}
	if m.snap == nil {
		return m, nil
	}
	if handled, cmd := m.tabs.HandleKey(msg.String()); handled {
		m.clearFilter()
		return m, cmd
	}
	return m, m.tabs.DelegateUpdate(msg)
}

func (m Model) copyID(id string) (tea.Model, tea.Cmd) {
	if err := copyToClipboard(id); err != nil {
		m.opts.Log.Warn().Err(err).Msg("clipboard unavailable")
		m.notice = fmt.Sprintf("copy %s failed: %v", id, err)
	} else {
		m.notice = "copied " + id
	}
	m.noticeGen++
	gen := m.noticeGen
	return m, tea.Tick(2*time.Second, func(time.Time) tea.Msg { return clearNoticeMsg{gen: gen} })
}

func (m Model) updateFilterMode(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.clearFilter()
		return m, nil
	case "enter":
		m.filtering = false
		m.filterInput.Blur()
		return m, nil
	}
	var cmd tea.Cmd
	m.filterInput, cmd = m.filterInput.Update(msg)
	m.filterQuery = m.filterInput.Value()
	if fv, ok := m.currentFilterable(); ok {
		fv.SetRows(views.FilterRows(fv.AllRows(), m.filterQuery))
	}
	return m, cmd
}

func (m *Model) clearFilter() {
	if m.filterQuery != "" {
		if fv, ok := m.currentFilterable(); ok {
			fv.SetRows(fv.AllRows())
		}
	}
	m.filtering = false
	m.filterQuery = ""
	m.filterInput.SetValue("")
	m.filterInput.Blur()
}

func (m *Model) pop() {
	if len(m.stack) == 0 {
		return
	}
	m.clearFilter()
	m.stack = m.stack[:len(m.stack)-1]
}

func (m Model) current() views.View {
	if len(m.stack) > 0 {
		return m.stack[len(m.stack)-1]
	}
	return m.tabs.ActiveView()
}

func (m Model) currentFilterable() (views.FilterableView, bool) {
	v := m.current()
	if v == nil {
		return nil, false
	}
	fv, ok := v.(views.FilterableView)
	return fv, ok
}

// Chrome takes ~10 lines: header(2) + tab bar(2) + filter(1) + padding(2) + footer(3)
func (m *Model) contentSize() (int, int) {
	return max(m.width-6, 20), max(m.height-10, 3)
}

func (m *Model) resize() {
	w, h := m.contentSize()
	m.tabs.SetSize(w, h)
	for _, v := range m.stack {
		if rv, ok := v.(views.ResizableView); ok {
			rv.SetSize(w, h)
		}
	}
}

func (m Model) renderHeader() string {
	parts := []string{theme.BreadcrumbStyle.Render("VPC Topology")}
	if m.snap != nil {
		vpc := m.snap.Network.VPC
		label := vpc.ID
		if vpc.Name != "" {
			label += " (" + vpc.Name + ")"
		}
		parts = append(parts, "   ", label+"  "+theme.MutedStyle.Render(vpc.CIDR))
	}
	if m.opts.Source != "" {
		parts = append(parts, "   ", theme.ProfileStyle.Render(m.opts.Source))
	}
	status := "refreshed " + utils.TimeOrDash(m.loadedAt, utils.TimeOnly)
	if m.autoRefresh {
		status += fmt.Sprintf(" · auto %s", m.opts.RefreshInterval)
	}
	if m.loading {
		status = m.spinner.View() + " " + status
	}
	parts = append(parts, "   ", theme.MutedStyle.Render(status))
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func (m Model) View() tea.View {
	var content string
	if m.showHelp {
		content = views.RenderHelp(views.DetectHelpContext(m.current()), m.width, m.height)
		v := tea.NewView(content)
		v.AltScreen = true
		return v
	}

	header := theme.HeaderStyle.Render(m.renderHeader())
	switch {
	case m.snap == nil && m.err != nil:
		content = header + "\n\n" + theme.ErrorStyle.Render(fmt.Sprintf("Error: %v", m.err)) +
			"\n" + theme.HelpStyle.Render("Press r to retry • q to quit")
	case m.snap == nil:
		content = header + "\n\n" + m.spinner.View() + " Resolving VPC topology...\n"
	default:
		nav := m.tabs.RenderTabBar()
		if len(m.stack) > 0 {
			titles := []string{m.tabs.TabNames[m.tabs.ActiveTab]}
			for _, v := range m.stack {
				titles = append(titles, v.Title())
			}
			nav = theme.TabBarStyle.Render(views.RenderBreadcrumb(titles))
		}

		filterBar := ""
		if m.filtering {
			filterBar = theme.FilterStyle.Render("/ ") + m.filterInput.View() + "\n"
		} else if m.filterQuery != "" {
			filterBar = theme.FilterStyle.Render("filter: "+m.filterQuery) + "\n"
		}

		body := ""
		if v := m.current(); v != nil {
			body = v.View()
		}

		footer := views.RenderKeyHints(views.DetectHelpContext(m.current()), m.width-4)
		if m.notice != "" {
			footer = theme.SuccessStyle.Render(m.notice) + "\n" + footer
		}
		if m.err != nil {
			footer = theme.ErrorStyle.Render(fmt.Sprintf("refresh failed: %v", m.err)) + "\n" + footer
		}

		content = header + "\n" + nav + "\n" + filterBar + body + "\n" + theme.HelpStyle.Render(footer)
	}

	v := tea.NewView(theme.DashboardStyle.Render(content))
	v.AltScreen = true
	return v
}
