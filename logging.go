package main

import (
	"context"
	"log/slog"
)

// errorTeeHandler duplicates Error-level records to a second handler
// (service-error.log, alongside the primary service.log), while every
// record still goes to the primary handler regardless of level.
type errorTeeHandler struct {
	primary slog.Handler
	errors  slog.Handler
}

func newErrorTeeHandler(primary, errors slog.Handler) slog.Handler {
	return &errorTeeHandler{primary: primary, errors: errors}
}

func (h *errorTeeHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.primary.Enabled(ctx, level) || (level >= slog.LevelError && h.errors.Enabled(ctx, level))
}

func (h *errorTeeHandler) Handle(ctx context.Context, r slog.Record) error {
	if err := h.primary.Handle(ctx, r); err != nil {
		return err
	}

	if r.Level >= slog.LevelError {
		return h.errors.Handle(ctx, r)
	}

	return nil
}

func (h *errorTeeHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &errorTeeHandler{primary: h.primary.WithAttrs(attrs), errors: h.errors.WithAttrs(attrs)}
}

func (h *errorTeeHandler) WithGroup(name string) slog.Handler {
	return &errorTeeHandler{primary: h.primary.WithGroup(name), errors: h.errors.WithGroup(name)}
}
