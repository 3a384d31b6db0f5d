package views

import (
	"bytes"
	"encoding/json"
	"fmt"

	"charm.land/bubbles/v2/viewport"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"

	"tasnim.dev/vpc-topology/internal/tui/theme"
)

// JSONView shows one topology record as highlighted, scrollable JSON.
type JSONView struct {
	title    string
	text     string
	viewport viewport.Model
	softWrap bool
	err      error

	width, height int
}

// NewJSONView renders v as indented JSON.
func NewJSONView(title string, v any) *JSONView {
	jv := &JSONView{title: title, softWrap: true, width: 80, height: 24}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		jv.err = err
		return jv
	}
	jv.text = highlightJSON(string(data))
	return jv
}

func highlightJSON(text string) string {
	lexer := lexers.Get("json")
	if lexer == nil {
		return text
	}
	lexer = chroma.Coalesce(lexer)

	style := styles.Get("github")
	if style == nil {
		style = styles.Fallback
	}
	formatter := formatters.Get("terminal256")
	if formatter == nil {
		formatter = formatters.Fallback
	}

	iterator, err := lexer.Tokenise(nil, text)
	if err != nil {
		return text
	}
	var buf bytes.Buffer
	if err := formatter.Format(&buf, style, iterator); err != nil {
		return text
	}
	return buf.String()
}

func (v *JSONView) Title() string { return v.title }

func (v *JSONView) HelpContext() HelpContext { return HelpContextJSON }

func (v *JSONView) Init() tea.Cmd {
	v.viewport = viewport.New(
		viewport.WithWidth(v.width),
		viewport.WithHeight(max(v.height-2, 1)),
	)
	v.viewport.SoftWrap = v.softWrap
	v.viewport.Style = lipgloss.NewStyle().Padding(0, 1)
	v.viewport.SetContent(v.text)
	return nil
}

func (v *JSONView) Update(msg tea.Msg) (View, tea.Cmd) {
	if key, ok := msg.(tea.KeyPressMsg); ok && key.String() == "w" {
		v.softWrap = !v.softWrap
		v.viewport.SoftWrap = v.softWrap
		return v, nil
	}
	var cmd tea.Cmd
	v.viewport, cmd = v.viewport.Update(msg)
	return v, cmd
}

func (v *JSONView) View() string {
	if v.err != nil {
		return theme.ErrorStyle.Render(fmt.Sprintf("Error: %v", v.err))
	}
	status := fmt.Sprintf(" %.0f%%", v.viewport.ScrollPercent()*100)
	if v.softWrap {
		status += "  wrap"
	}
	status += "  w wrap  Esc back"
	return v.viewport.View() + "\n" + theme.MutedStyle.Render(status)
}

func (v *JSONView) SetSize(width, height int) {
	v.width, v.height = width, height
	v.viewport.SetWidth(width)
	v.viewport.SetHeight(max(height-2, 1))
}
