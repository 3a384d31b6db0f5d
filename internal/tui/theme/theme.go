package theme

import (
	"image/color"
	"strings"

	"charm.land/bubbles/v2/spinner"
	"charm.land/bubbles/v2/table"
	"charm.land/lipgloss/v2"

	"tasnim.dev/vpc-topology/internal/topology"
)

// Colors
var (
	Primary   = lipgloss.Color("#33A8FF")
	Secondary = lipgloss.Color("#163047")
	Muted     = lipgloss.Color("#6B7280")
	Success   = lipgloss.Color("#10B981")
	Warning   = lipgloss.Color("#F59E0B")
	Error     = lipgloss.Color("#EF4444")

	Public   = lipgloss.Color("#22C55E")
	Private  = lipgloss.Color("#3B82F6")
	Database = lipgloss.Color("#A855F7")
)

// Shared styles
var (
	HeaderStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderBottom(true).
			BorderForeground(Muted).
			Padding(0, 1)

	DashboardStyle = lipgloss.NewStyle().
			Padding(1, 2)

	HelpStyle = lipgloss.NewStyle().
			Foreground(Muted).
			Padding(1, 0, 0, 0)

	ProfileStyle = lipgloss.NewStyle().
			Foreground(Secondary)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(Error).
			Bold(true)

	WarningStyle = lipgloss.NewStyle().
			Foreground(Warning)

	SuccessStyle = lipgloss.NewStyle().
			Foreground(Success)

	MutedStyle = lipgloss.NewStyle().
			Foreground(Muted)

	FilterStyle = lipgloss.NewStyle().
			Foreground(Primary)

	BreadcrumbStyle = lipgloss.NewStyle().
			Foreground(Primary).
			Bold(true)

	BreadcrumbSepStyle = lipgloss.NewStyle().
				Foreground(Muted)

	TabActiveStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(Primary).
			Padding(0, 1)

	TabInactiveStyle = lipgloss.NewStyle().
				Foreground(Muted).
				Padding(0, 1)

	TabBarStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderBottom(true).
			BorderForeground(Muted)

	HelpBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Primary).
			Padding(1, 3)

	HelpTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(Primary).
			MarginBottom(1)

	HelpKeyStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(Secondary).
			Width(12)

	HelpDescStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#D1D5DB"))

	// DiagnosticsBoxStyle frames data-quality notes under the map.
	DiagnosticsBoxStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(Warning).
				Foreground(Warning).
				Padding(0, 1)

	SectionTitleStyle = lipgloss.NewStyle().
				Bold(true)

	// NodeStyle frames a subnet or route table on the map.
	NodeStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Muted).
			Padding(0, 1)

	// HighlightNodeStyle frames nodes tied to the current selection.
	HighlightNodeStyle = lipgloss.NewStyle().
				Border(lipgloss.ThickBorder()).
				BorderForeground(Primary).
				Padding(0, 1)

	AnchorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(Warning)
)

// StatusColor maps AWS networking resource states to theme colors.
func StatusColor(status string) color.Color {
	switch strings.ToLower(status) {
	case "available", "active", "attached", "running", "accepted":
		return Success
	case "failed", "rejected", "blackhole", "deleted", "detached", "expired":
		return Error
	case "pending", "pending-acceptance", "provisioning", "initiating-request",
		"deleting", "detaching", "attaching", "modifying", "deleting-request":
		return Warning
	default:
		return Muted
	}
}

// RenderStatus renders a status string with a colored bullet.
func RenderStatus(status string) string {
	if status == "" {
		return MutedStyle.Render("—")
	}
	c := StatusColor(status)
	bullet := lipgloss.NewStyle().Foreground(c).Render("●")
	return bullet + " " + status
}

// SubnetTypeColor is the accent used for a subnet tier on the map.
func SubnetTypeColor(t topology.SubnetType) color.Color {
	switch t {
	case topology.SubnetPublic:
		return Public
	case topology.SubnetPrivate:
		return Private
	case topology.SubnetDatabase:
		return Database
	default:
		return Muted
	}
}

// DefaultTableStyles returns styled table styles using theme colors.
func DefaultTableStyles() table.Styles {
	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(Muted).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)
	return s
}

// SpinnerStyle returns a spinner configured with the primary color.
func SpinnerStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(Primary)
}

// NewSpinner returns a new spinner with the theme style.
func NewSpinner() spinner.Model {
	return spinner.New(
		spinner.WithSpinner(spinner.MiniDot),
		spinner.WithStyle(SpinnerStyle()),
	)
}
