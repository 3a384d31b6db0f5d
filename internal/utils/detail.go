package utils

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"
)

// DetailBuilder accumulates a key/value panel for the map's selection details.
type DetailBuilder struct {
	b       strings.Builder
	label   lipgloss.Style
	section lipgloss.Style
	width   int
}

// NewDetailBuilder creates a builder with a fixed-width label column. width
// bounds section rules; zero means 40 columns.
func NewDetailBuilder(labelWidth, width int, sectionStyle lipgloss.Style) *DetailBuilder {
	if width <= 0 {
		width = 40
	}
	return &DetailBuilder{
		label:   sectionStyle.Width(labelWidth),
		section: sectionStyle,
		width:   width,
	}
}

// Row writes a labeled value. Empty values render as a dash.
func (d *DetailBuilder) Row(label, value string) {
	fmt.Fprintf(&d.b, " %s %s\n", d.label.Render(label), OrDash(value))
}

// OptionalRow writes the row only when value is set.
func (d *DetailBuilder) OptionalRow(label, value string) {
	if value != "" {
		d.Row(label, value)
	}
}

// Section writes a heading like "── Routes ─────".
func (d *DetailBuilder) Section(title string) {
	pad := max(d.width-len(title)-4, 4)
	d.b.WriteString(d.section.Render(fmt.Sprintf(" ── %s %s", title, strings.Repeat("─", pad))) + "\n")
}

// Line writes free text on its own line.
func (d *DetailBuilder) Line(s string) {
	d.b.WriteString(" " + s + "\n")
}

func (d *DetailBuilder) String() string {
	return strings.TrimRight(d.b.String(), "\n")
}
