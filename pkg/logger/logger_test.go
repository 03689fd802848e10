package logger

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, DEBUG, ParseLevel("debug"))
	assert.Equal(t, ERROR, ParseLevel(" ERROR "))
	assert.Equal(t, INFO, ParseLevel("info"))
	assert.Equal(t, INFO, ParseLevel("verbose"))
}

func TestLoggerFiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, "ERROR")

	l.Printf("session authenticated: username=%s", "bob")
	l.Debugf("raw response: %v", "ignored")
	assert.Empty(t, buf.String())

	l.Errorf("token request failed: error=%v", "boom")
	assert.Contains(t, buf.String(), "token request failed: error=boom")
	assert.Contains(t, buf.String(), "logger_test.go")
}

func TestLoggerDebugIncludesEverything(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, "DEBUG")

	l.Debug("debug line")
	l.Println("info line")
	l.Error("error line")

	out := buf.String()
	assert.Contains(t, out, "debug line")
	assert.Contains(t, out, "info line")
	assert.Contains(t, out, "error line")
}
