package utils

import (
	"testing"
	"time"
)

func TestTimeOrDash(t *testing.T) {
	tests := []struct {
		name   string
		t      time.Time
		layout string
		want   string
	}{
		{"zero time", time.Time{}, DateTime, "—"},
		{"valid date", time.Date(2026, 2, 25, 14, 30, 0, 0, time.UTC), DateTime, "2026-02-25 14:30"},
		{"with seconds", time.Date(2026, 3, 15, 8, 45, 30, 0, time.UTC), DateTimeSec, "2026-03-15 08:45:30"},
		{"time only", time.Date(2026, 1, 1, 9, 5, 12, 0, time.UTC), TimeOnly, "09:05:12"},
	}

	for _, tt := range tests {
		got := TimeOrDash(tt.t, tt.layout)
		if got != tt.want {
			t.Errorf("TimeOrDash(%v, %q) = %q, want %q", tt.t, tt.layout, got, tt.want)
		}
	}
}

func TestOrDash(t *testing.T) {
	if got := OrDash(""); got != "—" {
		t.Errorf("OrDash(\"\") = %q", got)
	}
	if got := OrDash("igw-1"); got != "igw-1" {
		t.Errorf("OrDash(igw-1) = %q", got)
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		s    string
		n    int
		want string
	}{
		{"subnet-0abc", 20, "subnet-0abc"},
		{"subnet-0abc", 11, "subnet-0abc"},
		{"subnet-0abc", 8, "subnet-…"},
		{"subnet-0abc", 1, "…"},
		{"subnet-0abc", 0, ""},
		{"αβγδ", 3, "αβ…"},
	}
	for _, tt := range tests {
		if got := Truncate(tt.s, tt.n); got != tt.want {
			t.Errorf("Truncate(%q, %d) = %q, want %q", tt.s, tt.n, got, tt.want)
		}
	}
}

func TestJoinOrDash(t *testing.T) {
	if got := JoinOrDash(nil); got != "—" {
		t.Errorf("JoinOrDash(nil) = %q", got)
	}
	if got := JoinOrDash([]string{"sg-1", "sg-2"}); got != "sg-1, sg-2" {
		t.Errorf("JoinOrDash = %q", got)
	}
}
