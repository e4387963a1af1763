package logging

import (
	"bytes"
	"strings"
	"testing"
)

// TestNilLogger tests that a nil logger can be used without panicking.
func TestNilLogger(t *testing.T) {
	var logger *Logger
	logger.Sublogger("engine").Info("ignored")
	logger.Errorf("ignored %d", 1)
	if logger.Enabled(LevelError) {
		t.Error("nil logger reports enabled level")
	}
	if logger.Level() != LevelDisabled {
		t.Error("nil logger has non-disabled level")
	}
}

// TestLoggerLevelFiltering tests that messages above the configured level are
// suppressed.
func TestLoggerLevelFiltering(t *testing.T) {
	buffer := &bytes.Buffer{}
	logger := NewLogger(LevelInfo, buffer)
	logger.Info("visible")
	logger.Debug("hidden")
	logger.Tracef("hidden %d", 2)

	output := buffer.String()
	if !strings.Contains(output, "visible") {
		t.Error("info message missing from output")
	}
	if strings.Contains(output, "hidden") {
		t.Error("debug or trace message present in output")
	}
}

// TestSubloggerPrefix tests that sublogger prefixes are nested.
func TestSubloggerPrefix(t *testing.T) {
	buffer := &bytes.Buffer{}
	logger := NewLogger(LevelDebug, buffer).Sublogger("rsync").Sublogger("patch")
	logger.Debugf("applied %d operations", 3)
	if !strings.Contains(buffer.String(), "[rsync.patch] applied 3 operations") {
		t.Error("unexpected output:", buffer.String())
	}
}

// TestLevelText tests round-tripping of level names.
func TestLevelText(t *testing.T) {
	for _, name := range []string{"disabled", "error", "warn", "info", "debug", "trace"} {
		var level Level
		if err := level.UnmarshalText([]byte(name)); err != nil {
			t.Fatalf("unable to unmarshal level %s: %v", name, err)
		} else if level.String() != name {
			t.Errorf("level name mismatch: %s != %s", level, name)
		}
	}
	var level Level
	if level.UnmarshalText([]byte("verbose")) == nil {
		t.Error("unknown level unmarshaled successfully")
	}
}
