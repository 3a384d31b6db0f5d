package views

import (
	"strings"

	"charm.land/lipgloss/v2"

	"tasnim.dev/vpc-topology/internal/tui/theme"
)

// HelpContext determines which keybinding set to show.
type HelpContext int

const (
	HelpContextMap HelpContext = iota
	HelpContextTable
	HelpContextInterfaces
	HelpContextRules
	HelpContextJSON
)

type keyHint struct {
	key  string
	desc string
}

// RenderKeyHints renders a compact one-line footer with key hints appropriate
// for the given help context. Hints are truncated to fit the given width.
func RenderKeyHints(ctx HelpContext, width int) string {
	keyStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.Primary)
	descStyle := lipgloss.NewStyle().Foreground(theme.Muted)
	sep := descStyle.Render(" · ")

	var b strings.Builder
	used := 0
	for i, h := range hintsForContext(ctx) {
		n := lipgloss.Width(h.key) + 1 + lipgloss.Width(h.desc)
		if i > 0 {
			n += 3
		}
		if i > 0 && width > 0 && used+n > width {
			break
		}
		if i > 0 {
			b.WriteString(sep)
		}
		b.WriteString(keyStyle.Render(h.key) + " " + descStyle.Render(h.desc))
		used += n
	}
	return b.String()
}

func hintsForContext(ctx HelpContext) []keyHint {
	switch ctx {
	case HelpContextMap:
		return []keyHint{
			{"←↑↓→", "move"},
			{"t", "subnets/tables"},
			{"o", "json"},
			{"c", "copy id"},
			{"Tab", "switch"},
			{"r", "refresh"},
			{"?", "help"},
			{"q", "quit"},
		}
	case HelpContextTable:
		return []keyHint{
			{"/", "filter"},
			{"o", "json"},
			{"c", "copy id"},
			{"Tab", "switch"},
			{"r", "refresh"},
			{"?", "help"},
			{"q", "quit"},
		}
	case HelpContextInterfaces:
		return []keyHint{
			{"Enter", "SG rules"},
			{"/", "filter"},
			{"o", "json"},
			{"Tab", "switch"},
			{"r", "refresh"},
			{"?", "help"},
		}
	case HelpContextRules:
		return []keyHint{
			{"/", "filter"},
			{"Esc", "back"},
			{"r", "refresh"},
			{"?", "help"},
		}
	case HelpContextJSON:
		return []keyHint{
			{"↑↓", "scroll"},
			{"w", "wrap"},
			{"Esc", "back"},
			{"q", "quit"},
		}
	default:
		return []keyHint{
			{"Esc", "back"},
			{"?", "help"},
			{"q", "quit"},
		}
	}
}

// RenderHelp renders the full keybinding overlay centered in the window.
func RenderHelp(ctx HelpContext, width, height int) string {
	title := "Keybindings"
	bindings := []keyHint{
		{"Tab/1-4", "Switch tabs"},
		{"r", "Refresh topology"},
		{"a", "Toggle auto-refresh"},
		{"?", "Toggle this help"},
		{"q", "Quit"},
	}
	switch ctx {
	case HelpContextMap:
		title = "Keybindings: Map"
		bindings = append([]keyHint{
			{"←/→ h/l", "Previous/next AZ"},
			{"↑/↓ k/j", "Move within AZ"},
			{"t", "Toggle subnet/route table focus"},
			{"o", "Show hovered record as JSON"},
			{"c", "Copy hovered id"},
		}, bindings...)
	case HelpContextInterfaces:
		title = "Keybindings: Interfaces"
		bindings = append([]keyHint{
			{"Enter", "Show security group rules"},
			{"/", "Filter rows"},
			{"j/k", "Navigate up/down"},
			{"o", "Show interface as JSON"},
			{"c", "Copy interface id"},
		}, bindings...)
	case HelpContextRules:
		title = "Keybindings: Rules"
		bindings = append([]keyHint{
			{"/", "Filter rows"},
			{"Esc", "Back to interfaces"},
		}, bindings...)
	case HelpContextJSON:
		title = "Keybindings: JSON"
		bindings = append([]keyHint{
			{"↑/↓ j/k", "Scroll"},
			{"w", "Toggle soft wrap"},
			{"Esc", "Back"},
		}, bindings...)
	default:
		title = "Keybindings: Table"
		bindings = append([]keyHint{
			{"/", "Filter rows"},
			{"j/k", "Navigate up/down"},
			{"o", "Show row as JSON"},
			{"c", "Copy row id"},
		}, bindings...)
	}

	var b strings.Builder
	b.WriteString(theme.HelpTitleStyle.Render(title) + "\n")
	for _, binding := range bindings {
		b.WriteString(theme.HelpKeyStyle.Render(binding.key) + theme.HelpDescStyle.Render(binding.desc) + "\n")
	}

	box := theme.HelpBoxStyle.Render(b.String())
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, box)
}

// HelpContextProvider lets a view choose its help context.
type HelpContextProvider interface {
	HelpContext() HelpContext
}

// DetectHelpContext determines the help context from the current view.
func DetectHelpContext(v View) HelpContext {
	if p, ok := v.(HelpContextProvider); ok {
		return p.HelpContext()
	}
	if _, ok := v.(FilterableView); ok {
		return HelpContextTable
	}
	return HelpContextMap
}
