package logger

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestZerologLoggerWritesComponent(t *testing.T) {
	t.Setenv("APP_ENV", "")
	var buf bytes.Buffer
	l := NewWithWriter("dispatch", &buf)
	l.Infof("home %s done", "H001")
	l.Debugf("hidden at info level")

	out := buf.String()
	assert.Contains(t, out, `"component":"dispatch"`)
	assert.Contains(t, out, "home H001 done")
	assert.NotContains(t, out, "hidden")
}

func TestZerologLoggerDevConsole(t *testing.T) {
	t.Setenv("APP_ENV", "dev")
	var buf bytes.Buffer
	l := NewWithWriter("test", &buf)
	l.Warnf("warn %d", 1)
	l.Errorf("error")
	l.Debugw("debug", map[string]any{"k": 1})
	assert.Contains(t, buf.String(), "warn 1")
}

func TestNopLogger(t *testing.T) {
	var l Logger = NopLogger{}
	l.Infof("x")
	l.Debugw("x", nil)
}
