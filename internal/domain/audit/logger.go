package audit

import (
	"context"
	"fmt"
	"strings"
	"time"

	"victim-aid-go/internal/domain/access"
)

// Observer is notified after an entry was appended.
type Observer interface {
	AuditEntryRecorded(action string)
}

type Logger struct {
	now      func() time.Time
	observer Observer
}

type LoggerOption func(*Logger)

func WithClock(now func() time.Time) LoggerOption {
	return func(l *Logger) {
		l.now = now
	}
}

func WithObserver(observer Observer) LoggerOption {
	return func(l *Logger) {
		l.observer = observer
	}
}

func NewLogger(opts ...LoggerOption) *Logger {
	l := &Logger{now: time.Now}
	for _, opt := range opts {
		if opt != nil {
			opt(l)
		}
	}
	return l
}

// Record appends one entry through w, which must be the same transaction
// handle the mutation ran on. A failed append is returned so the caller's
// transaction rolls back.
func (l *Logger) Record(ctx context.Context, w Writer, actor access.Actor, action, details string) (*Entry, error) {
	action = strings.TrimSpace(action)
	if action == "" {
		return nil, fmt.Errorf("audit: action is required")
	}
	if actor.UserID == 0 {
		return nil, fmt.Errorf("audit: actor is required")
	}

	entry := &Entry{
		ActorID:   actor.UserID,
		Action:    action,
		Details:   details,
		CreatedAt: l.now().UTC(),
	}
	if err := w.AppendEntry(ctx, entry); err != nil {
		return nil, fmt.Errorf("audit: append %s: %w", action, err)
	}
	if l.observer != nil {
		l.observer.AuditEntryRecorded(action)
	}
	return entry, nil
}
