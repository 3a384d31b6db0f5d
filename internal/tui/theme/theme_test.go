package theme

import (
	"image/color"
	"strings"
	"testing"

	"tasnim.dev/vpc-topology/internal/topology"
)

func TestDiagnosticsBoxStyle_FramesEveryLine(t *testing.T) {
	rendered := DiagnosticsBoxStyle.Render("unplaced subnet-a\nsubnet-b associated twice")
	lines := strings.Split(rendered, "\n")
	if len(lines) != 4 {
		t.Fatalf("expected 2 content lines inside a border, got %d lines", len(lines))
	}
	if !strings.ContainsRune(lines[0], '╭') || !strings.ContainsRune(lines[3], '╰') {
		t.Errorf("expected a rounded frame, got %q", rendered)
	}
	if !strings.Contains(lines[2], "associated twice") {
		t.Errorf("second line lost: %q", lines[2])
	}
}

func TestHighlightNodeStyle_DiffersFromNode(t *testing.T) {
	if NodeStyle.Render("x") == HighlightNodeStyle.Render("x") {
		t.Error("highlighted nodes must render differently")
	}
}

func TestStatusColor(t *testing.T) {
	tests := []struct {
		status string
		want   color.Color
	}{
		{"available", Success},
		{"Active", Success},
		{"pending-acceptance", Warning},
		{"deleting", Warning},
		{"blackhole", Error},
		{"failed", Error},
		{"something-random", Muted},
	}
	for _, tt := range tests {
		t.Run(tt.status, func(t *testing.T) {
			if got := StatusColor(tt.status); got != tt.want {
				t.Errorf("StatusColor(%q) = %v, want %v", tt.status, got, tt.want)
			}
		})
	}
}

func TestRenderStatus(t *testing.T) {
	if r := RenderStatus("available"); !strings.ContainsRune(r, '●') || !strings.Contains(r, "available") {
		t.Errorf("RenderStatus = %q", r)
	}
	if r := RenderStatus(""); strings.ContainsRune(r, '●') {
		t.Errorf("empty status should not get a bullet: %q", r)
	}
}

func TestSubnetTypeColor(t *testing.T) {
	if SubnetTypeColor(topology.SubnetPublic) != Public {
		t.Error("public subnets should use the public color")
	}
	if SubnetTypeColor(topology.SubnetDatabase) != Database {
		t.Error("database subnets should use the database color")
	}
	if SubnetTypeColor(topology.SubnetUnknown) != Muted {
		t.Error("unknown subnets should be muted")
	}
}
