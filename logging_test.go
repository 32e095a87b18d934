package main

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorTeeHandler_DuplicatesOnlyErrors(t *testing.T) {
	var primaryBuf, errBuf bytes.Buffer

	primary := slog.NewTextHandler(&primaryBuf, nil)
	errHandler := slog.NewTextHandler(&errBuf, &slog.HandlerOptions{Level: slog.LevelError})

	logger := slog.New(newErrorTeeHandler(primary, errHandler))

	logger.Info("just info")
	logger.Error("something broke")

	assert.Contains(t, primaryBuf.String(), "just info")
	assert.Contains(t, primaryBuf.String(), "something broke")
	assert.NotContains(t, errBuf.String(), "just info")
	assert.Contains(t, errBuf.String(), "something broke")
}

func TestErrorTeeHandler_WithAttrsPropagatesToBoth(t *testing.T) {
	var primaryBuf, errBuf bytes.Buffer

	primary := slog.NewTextHandler(&primaryBuf, nil)
	errHandler := slog.NewTextHandler(&errBuf, &slog.HandlerOptions{Level: slog.LevelError})

	logger := slog.New(newErrorTeeHandler(primary, errHandler)).With("component", "poller")

	logger.Error("link dropped")

	assert.Contains(t, primaryBuf.String(), "component=poller")
	assert.Contains(t, errBuf.String(), "component=poller")
}

func TestErrorTeeHandler_Enabled(t *testing.T) {
	primary := slog.NewTextHandler(&bytes.Buffer{}, &slog.HandlerOptions{Level: slog.LevelWarn})
	errHandler := slog.NewTextHandler(&bytes.Buffer{}, &slog.HandlerOptions{Level: slog.LevelError})

	h := newErrorTeeHandler(primary, errHandler)

	assert.True(t, h.Enabled(context.Background(), slog.LevelWarn))
	assert.False(t, h.Enabled(context.Background(), slog.LevelInfo))
	assert.True(t, h.Enabled(context.Background(), slog.LevelError))
}
