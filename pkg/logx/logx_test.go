package logx

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var m map[string]any
		if err := json.Unmarshal([]byte(line), &m); err != nil {
			t.Fatalf("invalid json line %q: %v", line, err)
		}
		out = append(out, m)
	}
	return out
}

func TestWriterLoggerFields(t *testing.T) {
	var buf bytes.Buffer
	log := NewWriter(&buf, "debug").With(String("comp", "execqueue"))

	log.Debug("dispatch saturated", String("id", "ship/LCD"), Int("depth", 3), Err(errors.New("busy")))

	lines := decodeLines(t, &buf)
	if len(lines) != 1 {
		t.Fatalf("got %d lines, want 1", len(lines))
	}
	l := lines[0]
	if l["message"] != "dispatch saturated" || l["comp"] != "execqueue" || l["id"] != "ship/LCD" {
		t.Errorf("unexpected entry: %v", l)
	}
	if l["depth"] != float64(3) {
		t.Errorf("depth = %v", l["depth"])
	}
	if _, ok := l["caller"]; !ok {
		t.Error("caller field missing")
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := NewWriter(&buf, "warn")

	log.Debug("hidden")
	log.Info("hidden")
	log.Warn("shown")

	lines := decodeLines(t, &buf)
	if len(lines) != 1 || lines[0]["message"] != "shown" {
		t.Fatalf("unexpected lines: %v", lines)
	}
	if log.Enabled(LevelDebug) {
		t.Error("debug should be disabled at warn level")
	}
	if !log.Enabled(LevelError) {
		t.Error("error should be enabled at warn level")
	}
}

func TestZeroLoggerIsSilent(t *testing.T) {
	var log Logger
	if !log.IsZero() {
		t.Fatal("zero logger should report IsZero")
	}
	log.Error("nothing happens")
	if Nop().IsZero() {
		t.Error("Nop logger is not the zero value")
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]Level{
		"trace":   LevelTrace,
		"DEBUG":   LevelDebug,
		" info ":  LevelInfo,
		"warning": LevelWarn,
		"error":   LevelError,
		"bogus":   LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLevel(in, LevelInfo); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestServiceApplySwapsLevel(t *testing.T) {
	svc, log := New(Config{Level: "error", Format: "json"})
	defer svc.Close()

	if log.Enabled(LevelInfo) {
		t.Fatal("info should be disabled")
	}
	svc.Apply(Config{Level: "debug", Format: "json"})
	if !log.Enabled(LevelDebug) {
		t.Fatal("derived logger should follow Apply")
	}
	if svc.Config().Level != "debug" {
		t.Errorf("Config() = %+v", svc.Config())
	}
}

func TestThrottle(t *testing.T) {
	th := NewThrottle(time.Hour)

	ok, dropped := th.Allow()
	if !ok || dropped != 0 {
		t.Fatalf("first Allow = %v, %d", ok, dropped)
	}
	for i := 0; i < 3; i++ {
		if ok, _ := th.Allow(); ok {
			t.Fatal("throttled Allow returned true")
		}
	}
	if th.suppressed.Load() != 3 {
		t.Errorf("suppressed = %d, want 3", th.suppressed.Load())
	}

	unlimited := NewThrottle(0)
	for i := 0; i < 5; i++ {
		if ok, _ := unlimited.Allow(); !ok {
			t.Fatal("unthrottled Allow returned false")
		}
	}

	var nilThrottle *Throttle
	if ok, _ := nilThrottle.Allow(); !ok {
		t.Error("nil throttle should allow")
	}
}
