package views

import (
	"strconv"
	"strings"

	tea "charm.land/bubbletea/v2"

	"tasnim.dev/vpc-topology/internal/tui/theme"
)

// TabController owns the viewer's tab bar. Tab views are created lazily on
// first selection and dropped by Reset when a new snapshot arrives.
type TabController struct {
	ActiveTab int
	TabNames  []string
	TabViews  []View
	InitTab   func(idx int) View

	width, height int
}

// NewTabController creates a TabController. initTab is called lazily the first
// time a tab is selected.
func NewTabController(names []string, initTab func(int) View) *TabController {
	return &TabController{
		TabNames: names,
		TabViews: make([]View, len(names)),
		InitTab:  initTab,
	}
}

// SwitchTab switches to the given tab index, lazily initializing if needed.
// Returns the tab's Init command when it was just created.
func (tc *TabController) SwitchTab(idx int) tea.Cmd {
	if idx < 0 || idx >= len(tc.TabNames) {
		return nil
	}
	tc.ActiveTab = idx
	if tc.TabViews[idx] != nil {
		return nil
	}
	if tc.InitTab == nil {
		return nil
	}
	tc.TabViews[idx] = tc.InitTab(idx)
	if tc.TabViews[idx] == nil {
		return nil
	}
	tc.resize(tc.TabViews[idx])
	return tc.TabViews[idx].Init()
}

// Reset discards every tab view and re-creates the active one with initTab.
func (tc *TabController) Reset(initTab func(int) View) tea.Cmd {
	tc.InitTab = initTab
	tc.TabViews = make([]View, len(tc.TabNames))
	return tc.SwitchTab(tc.ActiveTab)
}

// HandleKey handles tab/shift+tab/number key navigation. Returns handled=true
// if the key was consumed by the tab controller.
func (tc *TabController) HandleKey(key string) (handled bool, cmd tea.Cmd) {
	n := len(tc.TabNames)
	if n == 0 {
		return false, nil
	}
	switch key {
	case "tab":
		return true, tc.SwitchTab((tc.ActiveTab + 1) % n)
	case "shift+tab":
		return true, tc.SwitchTab((tc.ActiveTab - 1 + n) % n)
	}

	if len(key) == 1 && key[0] >= '1' && key[0] <= '9' {
		idx := int(key[0]-'0') - 1
		if idx < n {
			return true, tc.SwitchTab(idx)
		}
	}
	return false, nil
}

// RenderTabBar renders the horizontal tab bar with numbered labels.
func (tc *TabController) RenderTabBar() string {
	tabs := make([]string, 0, len(tc.TabNames))
	for i, name := range tc.TabNames {
		label := strconv.Itoa(i+1) + ":" + name
		if i == tc.ActiveTab {
			tabs = append(tabs, theme.TabActiveStyle.Render(label))
		} else {
			tabs = append(tabs, theme.TabInactiveStyle.Render(label))
		}
	}
	return theme.TabBarStyle.Render(strings.Join(tabs, ""))
}

// ActiveView returns the current tab's view, or nil if not initialized.
func (tc *TabController) ActiveView() View {
	if tc.ActiveTab >= len(tc.TabViews) {
		return nil
	}
	return tc.TabViews[tc.ActiveTab]
}

// SetSize records the content area and resizes every created tab.
func (tc *TabController) SetSize(width, height int) {
	tc.width, tc.height = width, height
	for _, v := range tc.TabViews {
		if v != nil {
			tc.resize(v)
		}
	}
}

func (tc *TabController) resize(v View) {
	if tc.width == 0 && tc.height == 0 {
		return
	}
	if rv, ok := v.(ResizableView); ok {
		rv.SetSize(tc.width, tc.height)
	}
}

// DelegateUpdate forwards a message to the active tab view.
func (tc *TabController) DelegateUpdate(msg tea.Msg) tea.Cmd {
	v := tc.ActiveView()
	if v == nil {
		return nil
	}
	updated, cmd := v.Update(msg)
	tc.TabViews[tc.ActiveTab] = updated
	return cmd
}

// Broadcast forwards a message to every created tab, for async results that
// may belong to a tab that is not active.
func (tc *TabController) Broadcast(msg tea.Msg) tea.Cmd {
	var cmds []tea.Cmd
	for i, v := range tc.TabViews {
		if v == nil {
			continue
		}
		updated, cmd := v.Update(msg)
		tc.TabViews[i] = updated
		cmds = append(cmds, cmd)
	}
	return tea.Batch(cmds...)
}
