package domain

import "time"

type Recurrence string

const (
	RecurrenceNone    Recurrence = "none"
	RecurrenceDaily   Recurrence = "daily"
	RecurrenceWeekly  Recurrence = "weekly"
	RecurrenceMonthly Recurrence = "monthly"
)

// Step returns the fixed advance interval for a recurring rule.
// Monthly is a flat 30 days on purpose: the step stays deterministic and
// timezone-agnostic, at the cost of drifting against calendar months.
func (r Recurrence) Step() (time.Duration, bool) {
	switch r {
	case RecurrenceDaily:
		return 24 * time.Hour, true
	case RecurrenceWeekly:
		return 7 * 24 * time.Hour, true
	case RecurrenceMonthly:
		return 30 * 24 * time.Hour, true
	default:
		return 0, false
	}
}

func (r Recurrence) Valid() bool {
	switch r {
	case RecurrenceNone, RecurrenceDaily, RecurrenceWeekly, RecurrenceMonthly:
		return true
	}
	return false
}

func (r Recurrence) Label() string {
	switch r {
	case RecurrenceDaily:
		return "каждый день"
	case RecurrenceWeekly:
		return "каждую неделю"
	case RecurrenceMonthly:
		return "каждые 30 дней"
	default:
		return "без повтора"
	}
}

// LedgerEntry records one already-delivered reminder: the occurrence it
// belonged to and the lead time that fired.
type LedgerEntry struct {
	OccurredAt  time.Time `json:"occurred_at"`
	LeadMinutes int       `json:"lead_minutes"`
}

type Ledger []LedgerEntry

func (l Ledger) Contains(occurrence time.Time, lead int) bool {
	for _, e := range l {
		if e.LeadMinutes == lead && e.OccurredAt.Equal(occurrence) {
			return true
		}
	}
	return false
}

// Mark records a delivered (occurrence, lead) pair. Idempotent.
func (l *Ledger) Mark(occurrence time.Time, lead int) {
	if l.Contains(occurrence, lead) {
		return
	}
	*l = append(*l, LedgerEntry{OccurredAt: occurrence.UTC(), LeadMinutes: lead})
}

// Prune drops entries whose occurrence is older than now-retention.
// Past occurrences of a recurring event are never re-scanned once a newer
// occurrence is in play, so retention only has to outlive the scan
// interval plus clock-skew margin.
func (l *Ledger) Prune(now time.Time, retention time.Duration) {
	cutoff := now.Add(-retention)
	kept := (*l)[:0]
	for _, e := range *l {
		if !e.OccurredAt.Before(cutoff) {
			kept = append(kept, e)
		}
	}
	*l = kept
}

// Stale reports whether Prune would remove anything.
func (l Ledger) Stale(now time.Time, retention time.Duration) bool {
	cutoff := now.Add(-retention)
	for _, e := range l {
		if e.OccurredAt.Before(cutoff) {
			return true
		}
	}
	return false
}

// Event is a user-registered event. Everything except the ledger is
// immutable after creation; the ledger is mutated only by the reminder
// loop.
type Event struct {
	ID          string     `json:"id"`
	ChatID      int64      `json:"chat_id"`
	Title       string     `json:"title"`
	StartAt     time.Time  `json:"start_at"`
	Recurrence  Recurrence `json:"recurrence"`
	LeadMinutes []int      `json:"lead_minutes"`
	Ledger      Ledger     `json:"ledger,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

type Catalog struct {
	Events []*Event `json:"events"`
}

func (c *Catalog) FindByID(id string) *Event {
	for _, e := range c.Events {
		if e.ID == id {
			return e
		}
	}
	return nil
}

func (c *Catalog) ByChat(chatID int64) []*Event {
	var out []*Event
	for _, e := range c.Events {
		if e.ChatID == chatID {
			out = append(out, e)
		}
	}
	return out
}

// Remove deletes the event with the given id and reports whether it was
// present.
func (c *Catalog) Remove(id string) bool {
	for i, e := range c.Events {
		if e.ID == id {
			c.Events = append(c.Events[:i], c.Events[i+1:]...)
			return true
		}
	}
	return false
}
