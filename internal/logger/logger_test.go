package logger

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	cases := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"bogus", slog.LevelInfo},
		{"", slog.LevelInfo},
	}
	for _, c := range cases {
		if got := parseLevel(c.in); got != c.want {
			t.Errorf("parseLevel(%q) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestNamedTagsComponent(t *testing.T) {
	var buf bytes.Buffer
	prev := Log
	Log = slog.New(slog.NewTextHandler(&buf, nil))
	defer func() { Log = prev }()

	ws := Named("ws")
	ws.Warn("dropped", "reason", "test")

	out := buf.String()
	if !strings.Contains(out, "component=ws") {
		t.Errorf("missing component attribute: %q", out)
	}
	if !strings.Contains(out, "reason=test") {
		t.Errorf("missing caller attribute: %q", out)
	}
}

func TestNamedFollowsInit(t *testing.T) {
	// A package-level Named logger must pick up the handler installed by a
	// later Init, not the one captured at package init.
	ws := Named("ws")

	var buf bytes.Buffer
	prev := Log
	Log = slog.New(slog.NewTextHandler(&buf, nil))
	defer func() { Log = prev }()

	ws.Info("hello")
	if !strings.Contains(buf.String(), "component=ws") {
		t.Errorf("Named logger did not follow the swapped global: %q", buf.String())
	}
}
