package audit

import (
	"context"
	"errors"
	"sort"
	"strings"
	"testing"
	"time"

	"victim-aid-go/internal/domain/access"
	"victim-aid-go/internal/domain/apperr"
)

type fakeWriter struct {
	entries []Entry
	err     error
}

func (w *fakeWriter) AppendEntry(ctx context.Context, entry *Entry) error {
	if w.err != nil {
		return w.err
	}
	entry.ID = uint(len(w.entries) + 1)
	w.entries = append(w.entries, *entry)
	return nil
}

func (w *fakeWriter) ListEntries(ctx context.Context, filter ListFilter) ([]Entry, int64, error) {
	items := make([]Entry, 0, len(w.entries))
	for _, entry := range w.entries {
		if filter.ActorID != nil && entry.ActorID != *filter.ActorID {
			continue
		}
		if filter.Action != "" && !strings.Contains(entry.Action, filter.Action) {
			continue
		}
		items = append(items, entry)
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].ID > items[j].ID
		}
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})
	total := int64(len(items))
	if filter.Offset >= len(items) {
		return []Entry{}, total, nil
	}
	items = items[filter.Offset:]
	if filter.Limit < len(items) {
		items = items[:filter.Limit]
	}
	return items, total, nil
}

type countingObserver struct {
	actions []string
}

func (o *countingObserver) AuditEntryRecorded(action string) {
	o.actions = append(o.actions, action)
}

func TestRecordAppendsEntry(t *testing.T) {
	fixed := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	observer := &countingObserver{}
	logger := NewLogger(WithClock(func() time.Time { return fixed }), WithObserver(observer))
	writer := &fakeWriter{}

	entry, err := logger.Record(context.Background(), writer, access.Actor{UserID: 4, Role: access.RoleAgent}, ActionVictimCreated, "matricule=INCO-1")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if entry.ActorID != 4 {
		t.Fatalf("expected actor 4, got %d", entry.ActorID)
	}
	if !entry.CreatedAt.Equal(fixed) {
		t.Fatalf("expected timestamp %v, got %v", fixed, entry.CreatedAt)
	}
	if len(writer.entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(writer.entries))
	}
	if len(observer.actions) != 1 || observer.actions[0] != ActionVictimCreated {
		t.Fatalf("expected observer notified once, got %v", observer.actions)
	}
}

func TestRecordPropagatesWriterFailure(t *testing.T) {
	observer := &countingObserver{}
	logger := NewLogger(WithObserver(observer))
	writer := &fakeWriter{err: errors.New("disk full")}

	_, err := logger.Record(context.Background(), writer, access.Actor{UserID: 1, Role: access.RoleAdmin}, ActionUserCreated, "")
	if err == nil {
		t.Fatalf("expected error")
	}
	if len(observer.actions) != 0 {
		t.Fatalf("observer must not fire on failure")
	}
}

func TestRecordRequiresActorAndAction(t *testing.T) {
	logger := NewLogger()
	writer := &fakeWriter{}

	if _, err := logger.Record(context.Background(), writer, access.Actor{Role: access.RoleAdmin}, ActionUserCreated, ""); err == nil {
		t.Fatalf("expected error for missing actor")
	}
	if _, err := logger.Record(context.Background(), writer, access.Actor{UserID: 1, Role: access.RoleAdmin}, "  ", ""); err == nil {
		t.Fatalf("expected error for missing action")
	}
	if len(writer.entries) != 0 {
		t.Fatalf("expected no entries, got %d", len(writer.entries))
	}
}

func TestListNewestFirstAdminOnly(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	writer := &fakeWriter{}
	for i, action := range []string{ActionFamilyCreated, ActionVictimCreated, ActionAidValidated} {
		stamp := base.Add(time.Duration(i) * time.Hour)
		logger := NewLogger(WithClock(func() time.Time { return stamp }))
		if _, err := logger.Record(context.Background(), writer, access.Actor{UserID: 2, Role: access.RoleResponsable}, action, ""); err != nil {
			t.Fatalf("record: %v", err)
		}
	}
	svc := NewService(writer)

	_, _, err := svc.List(context.Background(), access.Actor{UserID: 2, Role: access.RoleResponsable}, ListFilter{})
	if !errors.Is(err, apperr.ErrPermission) {
		t.Fatalf("expected permission error, got %v", err)
	}

	items, total, err := svc.List(context.Background(), access.Actor{UserID: 1, Role: access.RoleAdmin}, ListFilter{})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if total != 3 || len(items) != 3 {
		t.Fatalf("expected 3 entries, got %d/%d", len(items), total)
	}
	if items[0].Action != ActionAidValidated || items[2].Action != ActionFamilyCreated {
		t.Fatalf("expected newest first, got %s .. %s", items[0].Action, items[2].Action)
	}

	items, _, err = svc.List(context.Background(), access.Actor{UserID: 1, Role: access.RoleAdmin}, ListFilter{Action: "victim"})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(items) != 1 || items[0].Action != ActionVictimCreated {
		t.Fatalf("expected filtered victim entry, got %+v", items)
	}
}
