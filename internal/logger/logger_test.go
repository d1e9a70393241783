package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"INFO", zerolog.InfoLevel},
		{"warning", zerolog.WarnLevel},
		{" error ", zerolog.ErrorLevel},
		{"off", zerolog.Disabled},
		{"", zerolog.WarnLevel},
		{"bogus", zerolog.WarnLevel},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
	if ValidLevel("bogus") || !ValidLevel("Debug") {
		t.Fatalf("ValidLevel mismatch")
	}
}

func TestJSONOutputWithFields(t *testing.T) {
	var buf bytes.Buffer
	log := New(Options{Level: "debug", Format: "json", Out: &buf})
	log.WithField("file", "a.csv").WithError(errors.New("boom")).Debug("loaded")

	var entry map[string]interface{}
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry); err != nil {
		t.Fatalf("invalid json %q: %v", buf.String(), err)
	}
	if entry["message"] != "loaded" || entry["file"] != "a.csv" || entry["error"] != "boom" {
		t.Fatalf("unexpected entry: %v", entry)
	}
	if entry["level"] != "debug" {
		t.Fatalf("level = %v", entry["level"])
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := New(Options{Level: "warn", Format: "console", Out: &buf})
	log.Debug("hidden debug")
	log.Info("hidden info")
	log.Warnf("shown %d", 1)
	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("filtered messages leaked: %q", out)
	}
	if !strings.Contains(out, "shown 1") {
		t.Fatalf("warn message missing: %q", out)
	}
}

func TestNopDiscards(t *testing.T) {
	log := Nop().WithFields(map[string]interface{}{"k": 1})
	log.Error("nothing")
	if log.Zerolog().GetLevel() != zerolog.Disabled {
		t.Fatalf("expected disabled logger")
	}
}
