package logging

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestErr(t *testing.T) {
	// nil error must not emit an error attribute
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	logger.Info("test message", Err(nil))
	if strings.Contains(buf.String(), KeyError) {
		t.Errorf("Err(nil) emitted an error attribute: %s", buf.String())
	}

	buf.Reset()
	logger.Info("test message", Err(errTest))
	if !strings.Contains(buf.String(), "boom") {
		t.Errorf("Err() did not emit the error message: %s", buf.String())
	}
}

var errTest = &testError{}

type testError struct{}

func (*testError) Error() string { return "boom" }

func TestSanitizeToken(t *testing.T) {
	tests := []struct {
		name     string
		token    string
		expected string
	}{
		{
			name:     "empty token",
			token:    "",
			expected: "<empty>",
		},
		{
			name:     "non-empty token shows only length",
			token:    "ya29.secret-token",
			expected: "[token:17 chars]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := SanitizeToken(tt.token)
			if result != tt.expected {
				t.Errorf("SanitizeToken() = %q, expected %q", result, tt.expected)
			}
			if tt.token != "" && strings.Contains(result, tt.token) {
				t.Error("SanitizeToken() leaked token content")
			}
		})
	}
}

func TestWithOperation(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	WithOperation(logger, "create").Info("test")
	if !strings.Contains(buf.String(), "operation=create") {
		t.Errorf("expected operation attribute, got: %s", buf.String())
	}
}

func TestSlogAdapter_NilLogger(t *testing.T) {
	adapter := NewSlogAdapter(nil)
	if adapter.Logger() == nil {
		t.Error("expected adapter to fall back to slog.Default()")
	}
	// Must not panic
	adapter.Debug("debug", "k", "v")
	adapter.Info("info")
	adapter.Warn("warn")
	adapter.Error("error")
}
