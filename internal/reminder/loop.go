package reminder

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/tazhate/eventbot/internal/domain"
	"github.com/tazhate/eventbot/internal/schedule"
	"github.com/tazhate/eventbot/internal/service"
	"github.com/tazhate/eventbot/internal/storage"
)

// MessageSender delivers one message to one chat. Any error is treated as
// retryable: the notification stays due and is picked up next cycle.
type MessageSender interface {
	SendMessage(chatID int64, text string) error
}

// Loop re-scans the whole catalog on a fixed cadence and delivers due
// reminders. One scheduled task iterating all events, not one timer per
// event.
type Loop struct {
	cron      *cron.Cron
	catalog   *storage.Catalog
	events    *service.EventService
	sender    MessageSender
	interval  time.Duration
	window    time.Duration
	retention time.Duration
	now       func() time.Time
	log       zerolog.Logger
}

type Options struct {
	Interval  time.Duration // scan period
	Window    time.Duration // symmetric due tolerance
	Retention time.Duration // ledger retention
}

func New(catalog *storage.Catalog, events *service.EventService, opts Options, log zerolog.Logger) *Loop {
	return &Loop{
		cron:      cron.New(),
		catalog:   catalog,
		events:    events,
		interval:  opts.Interval,
		window:    opts.Window,
		retention: opts.Retention,
		now:       time.Now,
		log:       log,
	}
}

func (l *Loop) SetSender(sender MessageSender) {
	l.sender = sender
}

// SetNow replaces the clock, for tests.
func (l *Loop) SetNow(now func() time.Time) {
	l.now = now
}

// Start registers the scan and session-sweep jobs and blocks until the
// context is cancelled. Cancellation is observed between cycles, never
// mid-delivery.
func (l *Loop) Start(ctx context.Context) error {
	scanSpec := fmt.Sprintf("@every %s", l.interval)
	if _, err := l.cron.AddFunc(scanSpec, l.Scan); err != nil {
		return fmt.Errorf("add scan job: %w", err)
	}
	if _, err := l.cron.AddFunc("@every 5m", l.events.SweepSessions); err != nil {
		return fmt.Errorf("add session sweep: %w", err)
	}

	l.cron.Start()
	l.log.Info().Dur("interval", l.interval).Dur("window", l.window).Msg("Reminder loop started")

	<-ctx.Done()
	return nil
}

func (l *Loop) Stop() {
	ctx := l.cron.Stop()
	<-ctx.Done()
	l.log.Info().Msg("Reminder loop stopped")
}

// Scan runs one full catalog pass. A store failure skips the cycle and is
// retried on the next one; a single event's failure never aborts the rest.
func (l *Loop) Scan() {
	if l.sender == nil {
		return
	}

	now := l.now()
	cat, err := l.catalog.Snapshot()
	if err != nil {
		l.log.Error().Err(err).Msg("Load catalog, retrying next cycle")
		return
	}

	for _, event := range cat.Events {
		l.processEvent(event, now)
	}
}

func (l *Loop) processEvent(event *domain.Event, now time.Time) {
	defer func() {
		if r := recover(); r != nil {
			l.log.Error().Str("event_id", event.ID).Interface("panic", r).Msg("Event processing panicked")
		}
	}()

	occurrence, ok := schedule.Next(event.StartAt, event.Recurrence, now)
	if !ok {
		// One-shot event already past: permanently inert, ledger untouched.
		return
	}

	due := schedule.DueLeads(occurrence, event.LeadMinutes, event.Ledger, now, l.window)

	var delivered []int
	for _, lead := range due {
		if err := l.sender.SendMessage(event.ChatID, composeMessage(event.Title, lead)); err != nil {
			l.log.Error().Err(err).Str("event_id", event.ID).Int("lead_minutes", lead).Msg("Deliver reminder")
			continue
		}
		delivered = append(delivered, lead)
	}

	if len(delivered) == 0 && !event.Ledger.Stale(now, l.retention) {
		return
	}

	// Send-before-record: a crash between the send above and this save can
	// repeat a reminder once on the next cycle. A recorded success is never
	// lost.
	err := l.catalog.Update(func(cat *domain.Catalog) error {
		current := cat.FindByID(event.ID)
		if current == nil {
			// Deleted mid-cycle.
			return nil
		}
		for _, lead := range delivered {
			current.Ledger.Mark(occurrence, lead)
		}
		current.Ledger.Prune(now, l.retention)
		return nil
	})
	if err != nil {
		l.log.Error().Err(err).Str("event_id", event.ID).Msg("Persist ledger")
	}
}

func composeMessage(title string, lead int) string {
	if lead == 0 {
		return fmt.Sprintf("⏰ Напоминание:\n%s\nпрямо сейчас", title)
	}
	return fmt.Sprintf("⏰ Напоминание:\n%s\nчерез %d мин.", title, lead)
}
