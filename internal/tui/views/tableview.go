package views

import (
	"context"
	"fmt"
	"unsafe"

	"charm.land/bubbles/v2/spinner"
	"charm.land/bubbles/v2/table"
	tea "charm.land/bubbletea/v2"

	"tasnim.dev/vpc-topology/internal/tui/theme"
)

// tableDataMsg carries async-fetched data back to the correct TableView instance.
type tableDataMsg struct {
	viewID uintptr
	items  any
}

// TableViewConfig defines all the customizable parts of a table-based view.
type TableViewConfig[T any] struct {
	Title        string
	LoadingText  string
	EmptyText    string
	Columns      []table.Column
	FetchFunc    func(ctx context.Context) ([]T, error)
	RowMapper    func(item T) table.Row
	SummaryFunc  func(items []T) string // optional, rendered above table
	OnEnter      func(item T) tea.Cmd   // optional, nil = no drill-down
	CopyID       func(item T) string    // optional, enables copy
	Inspect      func(item T) any       // optional, enables the JSON view
	HeightOffset int                    // lines consumed by summary
}

// TableView is a generic, reusable table-based view.
type TableView[T any] struct {
	config  TableViewConfig[T]
	items   []T
	shown   []int // indexes into items for the rows currently displayed
	table   table.Model
	spinner spinner.Model
	loading bool
	err     error
	allRows []table.Row
}

// NewTableView creates a new TableView from the given config.
func NewTableView[T any](cfg TableViewConfig[T]) *TableView[T] {
	width := 0
	for _, c := range cfg.Columns {
		width += c.Width + 2
	}
	t := table.New(
		table.WithColumns(cfg.Columns),
		table.WithRows([]table.Row{}),
		table.WithFocused(true),
		table.WithHeight(12),
		table.WithWidth(width),
	)
	t.SetStyles(theme.DefaultTableStyles())

	return &TableView[T]{
		config:  cfg,
		table:   t,
		spinner: theme.NewSpinner(),
		loading: true,
	}
}

// StaticFetch wraps an in-memory slice as a FetchFunc.
func StaticFetch[T any](items []T) func(context.Context) ([]T, error) {
	return func(context.Context) ([]T, error) { return items, nil }
}

func (v *TableView[T]) viewID() uintptr {
	return uintptr(unsafe.Pointer(v))
}

func (v *TableView[T]) Title() string { return v.config.Title }

func (v *TableView[T]) Init() tea.Cmd {
	return tea.Batch(v.spinner.Tick, v.fetchData())
}

func (v *TableView[T]) fetchData() tea.Cmd {
	id := v.viewID()
	fetch := v.config.FetchFunc
	return func() tea.Msg {
		items, err := fetch(context.Background())
		if err != nil {
			return errViewMsg{viewID: id, err: err}
		}
		return tableDataMsg{viewID: id, items: items}
	}
}

func (v *TableView[T]) Update(msg tea.Msg) (View, tea.Cmd) {
	switch msg := msg.(type) {
	case tableDataMsg:
		if msg.viewID != v.viewID() {
			return v, nil
		}
		items, ok := msg.items.([]T)
		if !ok {
			return v, nil
		}
		v.setItems(items)
		return v, nil

	case errViewMsg:
		if msg.viewID != v.viewID() {
			return v, nil
		}
		v.err = msg.err
		v.loading = false
		return v, nil

	case tea.KeyPressMsg:
		if msg.String() == "enter" && v.config.OnEnter != nil {
			if item, ok := v.Selected(); ok {
				return v, v.config.OnEnter(item)
			}
			return v, nil
		}

	case spinner.TickMsg:
		if !v.loading {
			return v, nil
		}
		var cmd tea.Cmd
		v.spinner, cmd = v.spinner.Update(msg)
		return v, cmd
	}

	var cmd tea.Cmd
	v.table, cmd = v.table.Update(msg)
	return v, cmd
}

func (v *TableView[T]) setItems(items []T) {
	v.items = items
	v.loading = false
	v.err = nil
	rows := make([]table.Row, len(items))
	for i, item := range items {
		rows[i] = v.config.RowMapper(item)
	}
	v.allRows = rows
	v.SetRows(rows)
}

// Selected returns the item under the cursor, honoring any active filter.
func (v *TableView[T]) Selected() (T, bool) {
	var zero T
	idx := v.table.Cursor()
	if idx < 0 || idx >= len(v.shown) {
		return zero, false
	}
	return v.items[v.shown[idx]], true
}

// CopyID returns the id of the selected item, or "" when copy is unsupported.
func (v *TableView[T]) CopyID() string {
	if v.config.CopyID == nil {
		return ""
	}
	item, ok := v.Selected()
	if !ok {
		return ""
	}
	return v.config.CopyID(item)
}

// Inspect returns the selected item's record for the JSON view.
func (v *TableView[T]) Inspect() (string, any, bool) {
	if v.config.Inspect == nil {
		return "", nil, false
	}
	item, ok := v.Selected()
	if !ok {
		return "", nil, false
	}
	title := v.config.Title
	if id := v.CopyID(); id != "" {
		title = id
	}
	return title, v.config.Inspect(item), true
}

func (v *TableView[T]) View() string {
	if v.loading {
		return v.spinner.View() + " " + v.config.LoadingText
	}
	if v.err != nil {
		return theme.ErrorStyle.Render(fmt.Sprintf("Error: %v", v.err))
	}
	if len(v.items) == 0 && v.config.EmptyText != "" {
		return theme.MutedStyle.Render(v.config.EmptyText)
	}
	if v.config.SummaryFunc != nil {
		return v.config.SummaryFunc(v.items) + "\n\n" + v.table.View()
	}
	return v.table.View()
}

// FilterableView implementation
func (v *TableView[T]) AllRows() []table.Row { return v.allRows }

// SetRows displays a subset of AllRows and keeps the item mapping in step so
// Selected and OnEnter act on the visible row.
func (v *TableView[T]) SetRows(rows []table.Row) {
	v.shown = v.shown[:0]
	next := 0
	for _, row := range rows {
		for i := next; i < len(v.allRows); i++ {
			if sameRow(v.allRows[i], row) {
				v.shown = append(v.shown, i)
				next = i + 1
				break
			}
		}
	}
	v.table.SetRows(rows)
	if v.table.Cursor() >= len(rows) {
		v.table.SetCursor(max(len(rows)-1, 0))
	}
}

func sameRow(a, b table.Row) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// ResizableView implementation
func (v *TableView[T]) SetSize(width, height int) {
	v.table.SetWidth(width)
	v.table.SetHeight(max(height-v.config.HeightOffset, 3))
}
