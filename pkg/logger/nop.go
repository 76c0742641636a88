package logger

import (
	"context"
	"log/slog"
)

// nopHandler drops every record. Enabled always reports false so callers
// skip attribute formatting entirely.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (n nopHandler) WithAttrs([]slog.Attr) slog.Handler      { return n }
func (n nopHandler) WithGroup(string) slog.Handler           { return n }

// Nop returns a *slog.Logger that discards everything. Useful as a default
// in constructors and in tests.
func Nop() *slog.Logger {
	return slog.New(nopHandler{})
}
