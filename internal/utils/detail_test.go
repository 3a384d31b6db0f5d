package utils

import (
	"strings"
	"testing"

	"charm.land/lipgloss/v2"
)

func TestDetailBuilder_Row(t *testing.T) {
	db := NewDetailBuilder(12, 0, lipgloss.NewStyle())
	db.Row("CIDR", "10.0.1.0/24")
	db.Row("Name", "")

	got := db.String()
	if !strings.Contains(got, "CIDR") || !strings.Contains(got, "10.0.1.0/24") {
		t.Errorf("Row output missing label or value: %q", got)
	}
	if !strings.Contains(got, "—") {
		t.Errorf("empty value should render as a dash: %q", got)
	}
}

func TestDetailBuilder_OptionalRow(t *testing.T) {
	db := NewDetailBuilder(12, 0, lipgloss.NewStyle())
	db.OptionalRow("Name", "")
	db.OptionalRow("Route Table", "rtb-1")

	got := db.String()
	if strings.Contains(got, "Name") {
		t.Error("empty optional row should be skipped")
	}
	if !strings.Contains(got, "rtb-1") {
		t.Error("set optional row should be written")
	}
}

func TestDetailBuilder_Section(t *testing.T) {
	db := NewDetailBuilder(12, 30, lipgloss.NewStyle())
	db.Section("Routes")
	db.Line("0.0.0.0/0 → igw-1")

	got := db.String()
	if !strings.Contains(got, "── Routes") {
		t.Errorf("Section should contain heading: %q", got)
	}
	if !strings.Contains(got, "───") {
		t.Error("Section should contain padding dashes")
	}
	if strings.HasSuffix(got, "\n") {
		t.Error("String should not end with a newline")
	}
}
