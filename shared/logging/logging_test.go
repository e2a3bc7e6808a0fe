package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewWithWriter_JSONCarriesServiceAttributes(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(Config{Service: "account-service", Version: "v1", Env: "test", Level: "info"}, &buf)

	logger.Info("user registered", "user_id", 1)

	out := buf.String()
	for _, want := range []string{`"service":"account-service"`, `"version":"v1"`, `"env":"test"`, `"msg":"user registered"`, `"user_id":1`} {
		assert.Contains(t, out, want)
	}
}

func TestNewWithWriter_TextFormatAndLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(Config{Service: "svc", Format: "text", Level: "warn"}, &buf)

	logger.Info("hidden")
	logger.Warn("shown", "k", "v")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.True(t, strings.Contains(out, "level=WARN") && strings.Contains(out, "k=v"), out)
}

func TestFromContext(t *testing.T) {
	assert.Equal(t, slog.Default(), FromContext(context.Background()))

	var buf bytes.Buffer
	l := slog.New(slog.NewTextHandler(&buf, nil)).With("req_id", "abc")
	ctx := WithContext(context.Background(), l)

	FromContext(ctx).Info("scoped")
	assert.Contains(t, buf.String(), "req_id=abc")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, parseLevel("warning"))
	assert.Equal(t, slog.LevelError, parseLevel("error"))
	assert.Equal(t, slog.LevelInfo, parseLevel(""))
}
