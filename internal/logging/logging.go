// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package logging builds the structured logger used across the pipeline.
// Every record passes through a handler that masks API keys, whether they
// appear under a sensitive attribute name or embedded in an error string.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strings"
)

// Mask replaces redacted values.
const Mask = "***REDACTED***"

// sensitiveKeys are attribute names whose values are always masked.
var sensitiveKeys = map[string]bool{
	"api_key":       true,
	"apikey":        true,
	"api-key":       true,
	"x-api-key":     true,
	"authorization": true,
	"token":         true,
	"secret":        true,
	"password":      true,
}

// keyPatterns match provider credentials inside larger strings: Anthropic
// and OpenAI "sk-" keys, Google "AIza" keys, bearer tokens, and key query
// parameters in URLs.
var keyPatterns = []*regexp.Regexp{
	regexp.MustCompile(`sk-(?:ant-|proj-)?[A-Za-z0-9_\-]{16,}`),
	regexp.MustCompile(`AIza[0-9A-Za-z_\-]{30,}`),
	regexp.MustCompile(`(?i)bearer\s+[A-Za-z0-9._\-]{16,}`),
	regexp.MustCompile(`([?&]key=)[^&\s"]+`),
}

// Scrub masks every credential pattern found in s.
func Scrub(s string) string {
	for i, p := range keyPatterns {
		if i == len(keyPatterns)-1 {
			s = p.ReplaceAllString(s, "${1}"+Mask)
			continue
		}
		s = p.ReplaceAllString(s, Mask)
	}
	return s
}

// RedactingHandler wraps an slog.Handler and masks credentials before the
// record reaches it.
type RedactingHandler struct {
	handler slog.Handler
}

// NewRedactingHandler wraps h.
func NewRedactingHandler(h slog.Handler) *RedactingHandler {
	if h == nil {
		h = slog.Default().Handler()
	}
	return &RedactingHandler{handler: h}
}

// Enabled implements slog.Handler.
func (h *RedactingHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

// Handle implements slog.Handler.
func (h *RedactingHandler) Handle(ctx context.Context, r slog.Record) error {
	clean := slog.NewRecord(r.Time, r.Level, Scrub(r.Message), r.PC)
	r.Attrs(func(a slog.Attr) bool {
		clean.AddAttrs(redact(a))
		return true
	})
	return h.handler.Handle(ctx, clean)
}

// WithAttrs implements slog.Handler.
func (h *RedactingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clean := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		clean[i] = redact(a)
	}
	return &RedactingHandler{handler: h.handler.WithAttrs(clean)}
}

// WithGroup implements slog.Handler.
func (h *RedactingHandler) WithGroup(name string) slog.Handler {
	return &RedactingHandler{handler: h.handler.WithGroup(name)}
}

func redact(a slog.Attr) slog.Attr {
	a.Value = a.Value.Resolve()
	if a.Value.Kind() == slog.KindGroup {
		attrs := a.Value.Group()
		clean := make([]slog.Attr, len(attrs))
		for i, ga := range attrs {
			clean[i] = redact(ga)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(clean...)}
	}

	if sensitiveKeys[strings.ToLower(a.Key)] {
		return slog.String(a.Key, Mask)
	}

	switch a.Value.Kind() {
	case slog.KindString:
		return slog.String(a.Key, Scrub(a.Value.String()))
	case slog.KindAny:
		if err, ok := a.Value.Any().(error); ok {
			return slog.String(a.Key, Scrub(err.Error()))
		}
		if s, ok := a.Value.Any().(fmt.Stringer); ok {
			return slog.String(a.Key, Scrub(s.String()))
		}
	}
	return a
}

// ParseLevel maps a level name to slog.Level. Unknown names are an error.
func ParseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo, fmt.Errorf("unknown log level %q: use debug, info, warn, or error", s)
	}
	return l, nil
}

// New returns a redacting logger writing to w in format "text" or "json".
func New(w io.Writer, level, format string) (*slog.Logger, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: lvl}

	var h slog.Handler
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "text":
		h = slog.NewTextHandler(w, opts)
	case "json":
		h = slog.NewJSONHandler(w, opts)
	default:
		return nil, fmt.Errorf("unknown log format %q: use text or json", format)
	}
	return slog.New(NewRedactingHandler(h)), nil
}
