package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func newTestLogger(buf *bytes.Buffer, sanitize bool) *slog.Logger {
	h := slog.NewJSONHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	return slog.New(NewSanitizingHandler(h, sanitize))
}

func TestSanitizingHandler_RedactsSensitiveKeys(t *testing.T) {
	var buf bytes.Buffer
	log := newTestLogger(&buf, true)

	log.Info("connecting",
		slog.String("api_token", "abc123"),
		slog.String("host", "example.com"),
	)

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("log line is not JSON: %v", err)
	}
	if rec["api_token"] != "[REDACTED]" {
		t.Errorf("api_token = %v, want [REDACTED]", rec["api_token"])
	}
	if rec["host"] != "example.com" {
		t.Errorf("host = %v, want example.com", rec["host"])
	}
}

func TestSanitizingHandler_PassthroughWhenDisabled(t *testing.T) {
	var buf bytes.Buffer
	log := newTestLogger(&buf, false)

	log.Info("msg", slog.String("password", "hunter2"))

	if !strings.Contains(buf.String(), "hunter2") {
		t.Error("sanitize=false should leave values intact")
	}
}

func TestSanitizingHandler_RedactsGroupAttrs(t *testing.T) {
	var buf bytes.Buffer
	log := newTestLogger(&buf, true)

	log.Info("msg", slog.Group("conn", slog.String("auth_secret", "x")))

	if strings.Contains(buf.String(), `"x"`) {
		t.Error("group attribute value should be redacted")
	}
}

func TestSanitizingHandler_Enabled(t *testing.T) {
	h := NewSanitizingHandler(
		slog.NewJSONHandler(&bytes.Buffer{}, &slog.HandlerOptions{Level: slog.LevelWarn}),
		true,
	)
	if h.Enabled(context.Background(), slog.LevelDebug) {
		t.Error("debug should be disabled at warn level")
	}
	if !h.Enabled(context.Background(), slog.LevelError) {
		t.Error("error should be enabled at warn level")
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug": slog.LevelDebug,
		"info":  slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
		"ERROR": slog.LevelError,
		"bogus": slog.LevelInfo,
		"":      slog.LevelInfo,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}
