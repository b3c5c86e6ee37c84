package storage

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/tazhate/eventbot/internal/domain"
)

func newFileStoreForTest(t *testing.T) *FileStore {
	t.Helper()
	path := filepath.Join(t.TempDir(), "events.json")
	return NewFileStore(path, zerolog.Nop())
}

func sampleEvent() *domain.Event {
	start := time.Date(2026, 9, 1, 18, 0, 0, 0, time.UTC)
	return &domain.Event{
		ID:          "e-1",
		ChatID:      42,
		Title:       "стоматолог",
		StartAt:     start,
		Recurrence:  domain.RecurrenceWeekly,
		LeadMinutes: []int{60, 15, 0},
		Ledger:      domain.Ledger{{OccurredAt: start, LeadMinutes: 60}},
		CreatedAt:   time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC),
	}
}

func TestFileStoreMissingFileIsEmptyCatalog(t *testing.T) {
	s := newFileStoreForTest(t)

	cat, err := s.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(cat.Events) != 0 {
		t.Fatalf("want empty catalog, got %d events", len(cat.Events))
	}
}

func TestFileStoreRoundTrip(t *testing.T) {
	s := newFileStoreForTest(t)
	want := sampleEvent()

	if err := s.Save(&domain.Catalog{Events: []*domain.Event{want}}); err != nil {
		t.Fatalf("save: %v", err)
	}

	cat, err := s.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(cat.Events) != 1 {
		t.Fatalf("want 1 event, got %d", len(cat.Events))
	}

	got := cat.Events[0]
	if got.ID != want.ID || got.ChatID != want.ChatID || got.Title != want.Title {
		t.Fatalf("identity fields changed: %+v", got)
	}
	if !got.StartAt.Equal(want.StartAt) {
		t.Fatalf("start_at changed: want %v, got %v", want.StartAt, got.StartAt)
	}
	if got.Recurrence != want.Recurrence {
		t.Fatalf("recurrence changed: %s", got.Recurrence)
	}
	if len(got.LeadMinutes) != 3 || got.LeadMinutes[0] != 60 {
		t.Fatalf("lead minutes changed: %v", got.LeadMinutes)
	}
	if !got.Ledger.Contains(want.StartAt, 60) {
		t.Fatalf("ledger entry lost in round trip")
	}
}

func TestFileStoreCorruptFileDegradesToEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.json")
	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatalf("write corrupt file: %v", err)
	}

	s := NewFileStore(path, zerolog.Nop())
	cat, err := s.Load()
	if err != nil {
		t.Fatalf("corrupt catalog must degrade, not error: %v", err)
	}
	if len(cat.Events) != 0 {
		t.Fatalf("want empty catalog, got %d events", len(cat.Events))
	}
}

func TestCatalogUpdatePersists(t *testing.T) {
	s := newFileStoreForTest(t)
	catalog := NewCatalog(s)

	err := catalog.Update(func(cat *domain.Catalog) error {
		cat.Events = append(cat.Events, sampleEvent())
		return nil
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}

	cat, err := catalog.Snapshot()
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if len(cat.Events) != 1 {
		t.Fatalf("update not persisted, got %d events", len(cat.Events))
	}
}

func TestCatalogUpdateErrorDoesNotPersist(t *testing.T) {
	s := newFileStoreForTest(t)
	catalog := NewCatalog(s)

	wantErr := os.ErrInvalid
	err := catalog.Update(func(cat *domain.Catalog) error {
		cat.Events = append(cat.Events, sampleEvent())
		return wantErr
	})
	if err != wantErr {
		t.Fatalf("want fn error back, got %v", err)
	}

	cat, err := catalog.Snapshot()
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if len(cat.Events) != 0 {
		t.Fatalf("failed transaction must not persist, got %d events", len(cat.Events))
	}
}
