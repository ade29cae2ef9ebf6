package server

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mikeboe/osint-investigator/pkg/progress"
)

// ProgressLogHandler is a slog.Handler that copies records into a search's
// log buffer and forwards them to the process handler.
type ProgressLogHandler struct {
	Tracker  *progress.Tracker
	SearchID string
	Next     slog.Handler

	group string
}

func NewProgressLogHandler(tracker *progress.Tracker, searchID string, next slog.Handler) *ProgressLogHandler {
	return &ProgressLogHandler{
		Tracker:  tracker,
		SearchID: searchID,
		Next:     next,
	}
}

func (h *ProgressLogHandler) Enabled(ctx context.Context, level slog.Level) bool {
	if level >= slog.LevelInfo {
		return true
	}
	return h.Next != nil && h.Next.Enabled(ctx, level)
}

func (h *ProgressLogHandler) Handle(ctx context.Context, r slog.Record) error {
	if r.Level >= slog.LevelInfo {
		h.Tracker.AppendLog(h.SearchID, progress.LogEntry{
			Time:    r.Time,
			Level:   r.Level.String(),
			Message: h.format(r),
		})
	}

	if h.Next == nil || !h.Next.Enabled(ctx, r.Level) {
		return nil
	}
	return h.Next.Handle(ctx, r)
}

func (h *ProgressLogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	if h.Next != nil {
		clone.Next = h.Next.WithAttrs(attrs)
	}
	return &clone
}

func (h *ProgressLogHandler) WithGroup(name string) slog.Handler {
	clone := *h
	clone.group = name
	if h.Next != nil {
		clone.Next = h.Next.WithGroup(name)
	}
	return &clone
}

// format renders the message with the record's own attributes. Attributes
// bound with WithAttrs (the search id) are left to the process handler.
func (h *ProgressLogHandler) format(r slog.Record) string {
	var b strings.Builder
	b.WriteString(r.Message)
	r.Attrs(func(a slog.Attr) bool {
		key := a.Key
		if h.group != "" {
			key = h.group + "." + key
		}
		fmt.Fprintf(&b, " %s=%v", key, a.Value.Any())
		return true
	})
	return b.String()
}
