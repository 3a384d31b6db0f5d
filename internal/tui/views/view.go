package views

import (
	"strings"

	"charm.land/bubbles/v2/table"
	tea "charm.land/bubbletea/v2"

	"tasnim.dev/vpc-topology/internal/tui/theme"
)

// View is one screen of the topology viewer: a tab or a pushed detail view.
type View interface {
	Title() string
	View() string
	Update(msg tea.Msg) (View, tea.Cmd)
	Init() tea.Cmd
}

// PushViewMsg asks the root model to show a view on top of the tabs.
type PushViewMsg struct{ View View }

// PopViewMsg asks the root model to drop the top pushed view.
type PopViewMsg struct{}

// FilterableView is implemented by views that support text filtering.
type FilterableView interface {
	View
	AllRows() []table.Row
	SetRows(rows []table.Row)
}

// CopyableView is implemented by views that can copy the id under the cursor.
type CopyableView interface {
	View
	CopyID() string
}

// InspectableView is implemented by views that can show the record under the
// cursor as JSON.
type InspectableView interface {
	View
	Inspect() (title string, record any, ok bool)
}

// ResizableView is implemented by views that adapt to window size.
type ResizableView interface {
	View
	SetSize(width, height int)
}

// errViewMsg is a shared message for async error reporting.
type errViewMsg struct {
	viewID uintptr
	err    error
}

// RenderBreadcrumb joins view titles into a "Map › sg-123" trail.
func RenderBreadcrumb(titles []string) string {
	parts := make([]string, len(titles))
	for i, t := range titles {
		parts[i] = theme.BreadcrumbStyle.Render(t)
	}
	return strings.Join(parts, theme.BreadcrumbSepStyle.Render(" › "))
}

// FilterRows keeps rows with any cell containing query, case-insensitively.
func FilterRows(rows []table.Row, query string) []table.Row {
	if query == "" {
		return rows
	}
	query = strings.ToLower(query)
	var out []table.Row
	for _, row := range rows {
		for _, cell := range row {
			if strings.Contains(strings.ToLower(cell), query) {
				out = append(out, row)
				break
			}
		}
	}
	return out
}
