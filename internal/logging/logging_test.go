package logging

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestNew_JSONRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	log, err := New(&buf, "warn", "json")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	log.Info().Msg("hidden")
	log.Error().Str("path", "/x").Msg("cannot create relative path")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info line should be filtered at warn level: %s", out)
	}
	for _, want := range []string{`"level":"error"`, `"service":"matthumb"`, `"path":"/x"`} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %s: %s", want, out)
		}
	}
}

func TestNew_Console(t *testing.T) {
	var buf bytes.Buffer
	log, err := New(&buf, "debug", "console")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	log.Debug().Msg("hello")
	if !strings.Contains(buf.String(), "hello") {
		t.Errorf("console output missing message: %q", buf.String())
	}
	if log.GetLevel() != zerolog.DebugLevel {
		t.Errorf("level = %s, want debug", log.GetLevel())
	}
}

func TestNew_Invalid(t *testing.T) {
	if _, err := New(nil, "loud", "json"); err == nil {
		t.Error("unknown level should error")
	}
	if _, err := New(nil, "info", "xml"); err == nil {
		t.Error("unknown format should error")
	}
}

func TestNew_ConsoleNoColorOffTerminal(t *testing.T) {
	var buf bytes.Buffer
	log, err := New(&buf, "info", "console")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	log.Warn().Msg("plain")
	if strings.Contains(buf.String(), "\x1b[") {
		t.Errorf("console output to a buffer should not be colored: %q", buf.String())
	}
}

func TestIsTerminal(t *testing.T) {
	if IsTerminal(&bytes.Buffer{}) {
		t.Error("a buffer is not a terminal")
	}
}
