package reminder

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/tazhate/eventbot/internal/domain"
	"github.com/tazhate/eventbot/internal/service"
	"github.com/tazhate/eventbot/internal/storage"
)

type sentMessage struct {
	chatID int64
	text   string
}

type fakeSender struct {
	failFor map[int64]bool
	sent    []sentMessage
}

func (f *fakeSender) SendMessage(chatID int64, text string) error {
	if f.failFor[chatID] {
		return errors.New("transport down")
	}
	f.sent = append(f.sent, sentMessage{chatID: chatID, text: text})
	return nil
}

func newLoopForTest(t *testing.T, now time.Time) (*Loop, *fakeSender, *storage.Catalog) {
	t.Helper()
	store := storage.NewFileStore(filepath.Join(t.TempDir(), "events.json"), zerolog.Nop())
	catalog := storage.NewCatalog(store)
	events := service.NewEventService(catalog, time.UTC, 15*time.Minute, zerolog.Nop())

	loop := New(catalog, events, Options{
		Interval:  30 * time.Second,
		Window:    45 * time.Second,
		Retention: 48 * time.Hour,
	}, zerolog.Nop())
	loop.SetNow(func() time.Time { return now })

	sender := &fakeSender{failFor: map[int64]bool{}}
	loop.SetSender(sender)
	return loop, sender, catalog
}

func seedEvent(t *testing.T, catalog *storage.Catalog, event *domain.Event) {
	t.Helper()
	err := catalog.Update(func(cat *domain.Catalog) error {
		cat.Events = append(cat.Events, event)
		return nil
	})
	if err != nil {
		t.Fatalf("seed event: %v", err)
	}
}

func TestScanDeliversOnceAndPersistsLedger(t *testing.T) {
	now := time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)
	loop, sender, catalog := newLoopForTest(t, now)

	occurrence := now.Add(60 * time.Minute)
	seedEvent(t, catalog, &domain.Event{
		ID:          "e-1",
		ChatID:      42,
		Title:       "стоматолог",
		StartAt:     occurrence,
		Recurrence:  domain.RecurrenceNone,
		LeadMinutes: []int{60, 0},
		CreatedAt:   now,
	})

	loop.Scan()
	if len(sender.sent) != 1 || sender.sent[0].chatID != 42 {
		t.Fatalf("want one delivery to chat 42, got %v", sender.sent)
	}

	// Same instant, fresh scan over the persisted catalog: no duplicate.
	loop.Scan()
	if len(sender.sent) != 1 {
		t.Fatalf("re-scan must not re-deliver, got %d messages", len(sender.sent))
	}

	cat, err := catalog.Snapshot()
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if !cat.Events[0].Ledger.Contains(occurrence, 60) {
		t.Fatalf("delivered lead not recorded in the persisted ledger")
	}

	// At the occurrence itself the 0-minute lead fires.
	loop.SetNow(func() time.Time { return occurrence })
	loop.Scan()
	if len(sender.sent) != 2 {
		t.Fatalf("0-minute lead must fire at the occurrence, got %d messages", len(sender.sent))
	}
}

func TestScanFailedDeliveryStaysDue(t *testing.T) {
	now := time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)
	loop, sender, catalog := newLoopForTest(t, now)

	seedEvent(t, catalog, &domain.Event{
		ID:          "e-1",
		ChatID:      42,
		Title:       "звонок",
		StartAt:     now.Add(15 * time.Minute),
		Recurrence:  domain.RecurrenceNone,
		LeadMinutes: []int{15},
		CreatedAt:   now,
	})

	sender.failFor[42] = true
	loop.Scan()
	if len(sender.sent) != 0 {
		t.Fatalf("failed transport must deliver nothing")
	}

	cat, _ := catalog.Snapshot()
	if len(cat.Events[0].Ledger) != 0 {
		t.Fatalf("failed delivery must not be recorded")
	}

	// Next cycle, transport recovered, still inside the window.
	sender.failFor[42] = false
	loop.SetNow(func() time.Time { return now.Add(30 * time.Second) })
	loop.Scan()
	if len(sender.sent) != 1 {
		t.Fatalf("recovered transport must retry the due lead, got %d", len(sender.sent))
	}
}

func TestScanIsolatesPerEventFailures(t *testing.T) {
	now := time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)
	loop, sender, catalog := newLoopForTest(t, now)

	seedEvent(t, catalog, &domain.Event{
		ID: "broken", ChatID: 1, Title: "a",
		StartAt: now.Add(10 * time.Minute), Recurrence: domain.RecurrenceNone,
		LeadMinutes: []int{10}, CreatedAt: now,
	})
	seedEvent(t, catalog, &domain.Event{
		ID: "healthy", ChatID: 2, Title: "b",
		StartAt: now.Add(10 * time.Minute), Recurrence: domain.RecurrenceNone,
		LeadMinutes: []int{10}, CreatedAt: now,
	})

	sender.failFor[1] = true
	loop.Scan()

	if len(sender.sent) != 1 || sender.sent[0].chatID != 2 {
		t.Fatalf("failure on one event must not block the next, got %v", sender.sent)
	}
}

func TestScanSkipsInertEvents(t *testing.T) {
	now := time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)
	loop, sender, catalog := newLoopForTest(t, now)

	seedEvent(t, catalog, &domain.Event{
		ID: "past", ChatID: 42, Title: "прошло",
		StartAt: now.Add(-24 * time.Hour), Recurrence: domain.RecurrenceNone,
		LeadMinutes: []int{0}, CreatedAt: now.Add(-48 * time.Hour),
	})

	loop.Scan()
	if len(sender.sent) != 0 {
		t.Fatalf("inert one-shot must never notify, got %v", sender.sent)
	}
}

func TestScanPrunesStaleLedger(t *testing.T) {
	now := time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)
	loop, _, catalog := newLoopForTest(t, now)

	stale := now.Add(-72 * time.Hour)
	event := &domain.Event{
		ID: "rec", ChatID: 42, Title: "ежедневное",
		StartAt: now.Add(-100 * 24 * time.Hour), Recurrence: domain.RecurrenceDaily,
		LeadMinutes: []int{15}, CreatedAt: now.Add(-100 * 24 * time.Hour),
	}
	event.Ledger.Mark(stale, 15)
	seedEvent(t, catalog, event)

	loop.Scan()

	cat, _ := catalog.Snapshot()
	if cat.Events[0].Ledger.Contains(stale, 15) {
		t.Fatalf("stale ledger entry must be pruned by the scan")
	}
}

func TestScanRecurringDelivery(t *testing.T) {
	anchor := time.Date(2026, 8, 3, 18, 0, 0, 0, time.UTC)
	// Three weeks later, exactly at the lead instant of the next occurrence.
	occurrence := anchor.Add(4 * 7 * 24 * time.Hour)
	now := occurrence.Add(-15 * time.Minute)

	loop, sender, catalog := newLoopForTest(t, now)
	seedEvent(t, catalog, &domain.Event{
		ID: "weekly", ChatID: 42, Title: "спорт",
		StartAt: anchor, Recurrence: domain.RecurrenceWeekly,
		LeadMinutes: []int{15}, CreatedAt: anchor,
	})

	loop.Scan()
	if len(sender.sent) != 1 {
		t.Fatalf("want delivery for the current cycle's occurrence, got %d", len(sender.sent))
	}

	cat, _ := catalog.Snapshot()
	if !cat.Events[0].Ledger.Contains(occurrence, 15) {
		t.Fatalf("mark must reference the computed occurrence instant")
	}
}
