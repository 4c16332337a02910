package logging

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestNewLevels(t *testing.T) {
	if got := New(false).GetLevel(); got != zerolog.InfoLevel {
		t.Errorf("New(false) level = %s, want info", got)
	}
	if got := New(true).GetLevel(); got != zerolog.DebugLevel {
		t.Errorf("New(true) level = %s, want debug", got)
	}
}

func TestNewWithWriter(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf)
	log.Info().Str("key", "value").Msg("hello")

	out := buf.String()
	if !strings.Contains(out, `"key":"value"`) || !strings.Contains(out, "hello") {
		t.Errorf("unexpected log output: %q", out)
	}
	if !strings.Contains(out, `"time"`) {
		t.Errorf("log output missing timestamp: %q", out)
	}
}

func TestNop(t *testing.T) {
	log := Nop()
	log.Error().Msg("should go nowhere")
	if got := log.GetLevel(); got != zerolog.Disabled {
		t.Errorf("Nop() level = %s, want disabled", got)
	}
}
