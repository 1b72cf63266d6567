package utils

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func captureInternal(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	SetInternalOutput(&buf)
	t.Cleanup(func() { SetInternalOutput(nil) })
	return &buf
}

func TestLoggerBasicFunctions(t *testing.T) {
	buf := captureInternal(t)

	Info("info %d", 1)
	Warn("warn %d", 2)
	Error("error %d", 3)

	out := buf.String()
	assert.Contains(t, out, "INFO")
	assert.Contains(t, out, "info 1")
	assert.Contains(t, out, "WARN")
	assert.Contains(t, out, "warn 2")
	assert.Contains(t, out, "ERROR")
	assert.Contains(t, out, "error 3")
}

func TestUserOutput(t *testing.T) {
	var buf bytes.Buffer
	SetUserOutput(&buf)
	t.Cleanup(func() { SetUserOutput(nil) })

	User("hello %s", "user")
	assert.Equal(t, "hello user\n", buf.String())
}

func TestSetLevel(t *testing.T) {
	buf := captureInternal(t)
	original := Level()
	t.Cleanup(func() { _ = SetLevel(original) })

	require.NoError(t, SetLevel("warn"))
	Info("hidden")
	Debug("hidden too")
	Warn("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")

	require.NoError(t, SetLevel("DEBUG"))
	Debug("now visible")
	assert.Contains(t, buf.String(), "now visible")
	assert.Equal(t, "debug", Level())

	err := SetLevel("loud")
	require.Error(t, err)
	assert.Equal(t, "debug", Level(), "invalid level must not change the current one")
}

func TestErrorf(t *testing.T) {
	buf := captureInternal(t)
	cause := errors.New("boom")

	err := Errorf("wrapping: %w", cause)
	require.Error(t, err)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, buf.String(), "wrapping: boom")
}

func TestRequestIDContext(t *testing.T) {
	ctx := context.Background()
	_, ok := RequestIDFromContext(ctx)
	assert.False(t, ok)

	ctx = WithRequestID(ctx, "req-123")
	id, ok := RequestIDFromContext(ctx)
	assert.True(t, ok)
	assert.Equal(t, "req-123", id)
}

func TestCtxLoggersIncludeRequestID(t *testing.T) {
	buf := captureInternal(t)
	ctx := WithRequestID(context.Background(), "abc-42")

	InfoCtx(ctx, "handled", "path", "/health")
	WarnCtx(ctx, "slow")
	ErrorCtx(context.Background(), "no id")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "request_id")
	assert.Contains(t, lines[0], "abc-42")
	assert.Contains(t, lines[0], "/health")
	assert.Contains(t, lines[1], "abc-42")
	assert.NotContains(t, lines[2], "request_id")
}
