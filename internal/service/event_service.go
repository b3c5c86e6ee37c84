package service

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/tazhate/eventbot/internal/domain"
	"github.com/tazhate/eventbot/internal/schedule"
	"github.com/tazhate/eventbot/internal/storage"
)

const dateTimeLayout = "2006-01-02 15:04"

// EventService owns the event lifecycle: the multi-step creation dialog,
// commit into the catalog, list and delete. One creation session per chat.
type EventService struct {
	catalog    *storage.Catalog
	timezone   *time.Location
	sessionTTL time.Duration
	now        func() time.Time
	log        zerolog.Logger

	mu       sync.Mutex
	sessions map[int64]*domain.Session
}

func NewEventService(catalog *storage.Catalog, tz *time.Location, sessionTTL time.Duration, log zerolog.Logger) *EventService {
	return &EventService{
		catalog:    catalog,
		timezone:   tz,
		sessionTTL: sessionTTL,
		now:        time.Now,
		log:        log,
		sessions:   make(map[int64]*domain.Session),
	}
}

// SetNow replaces the clock, for tests.
func (s *EventService) SetNow(now func() time.Time) {
	s.now = now
}

// Now exposes the service clock so callers render times consistently with
// the engine.
func (s *EventService) Now() time.Time {
	return s.now()
}

// SubmitTitle moves a session from the title stage to the datetime stage.
func (s *EventService) SubmitTitle(chatID int64, text string) error {
	sess := s.sessionAt(chatID, domain.StageTitle)
	if sess == nil {
		return domain.ErrNoSession
	}

	title := strings.TrimSpace(text)
	if title == "" {
		return &domain.ParseError{Field: "title", Input: text, Reason: "empty"}
	}

	sess.Title = title
	sess.Stage = domain.StageDateTime
	sess.Touch(s.now())
	return nil
}

// SubmitDateTime parses "YYYY-MM-DD HH:MM" in the configured timezone.
// Malformed input and past instants are rejected with ParseError; the
// session stays on the datetime stage.
func (s *EventService) SubmitDateTime(chatID int64, text string) error {
	sess := s.sessionAt(chatID, domain.StageDateTime)
	if sess == nil {
		return domain.ErrNoSession
	}

	t, err := time.ParseInLocation(dateTimeLayout, strings.TrimSpace(text), s.timezone)
	if err != nil {
		return &domain.ParseError{Field: "datetime", Input: text, Reason: "want YYYY-MM-DD HH:MM"}
	}
	if !t.After(s.now()) {
		return &domain.ParseError{Field: "datetime", Input: text, Reason: "instant is in the past"}
	}

	sess.StartAt = t.UTC()
	sess.Stage = domain.StageRecurrence
	sess.Touch(s.now())
	return nil
}

func (s *EventService) SubmitRecurrence(chatID int64, r domain.Recurrence) error {
	sess := s.sessionAt(chatID, domain.StageRecurrence)
	if sess == nil {
		return domain.ErrNoSession
	}
	if !r.Valid() {
		return &domain.ParseError{Field: "recurrence", Input: string(r), Reason: "unknown rule"}
	}

	sess.Recurrence = r
	sess.Stage = domain.StageLeadTimes
	sess.Touch(s.now())
	return nil
}

// SubmitLeadTimes commits the event. On a store failure the session stays
// on the lead-times stage so the user can retry.
func (s *EventService) SubmitLeadTimes(chatID int64, text string) (*domain.Event, error) {
	sess := s.sessionAt(chatID, domain.StageLeadTimes)
	if sess == nil {
		return nil, domain.ErrNoSession
	}

	leads, err := ParseLeadTimes(text)
	if err != nil {
		return nil, err
	}

	event := &domain.Event{
		ID:          uuid.NewString(),
		ChatID:      chatID,
		Title:       sess.Title,
		StartAt:     sess.StartAt,
		Recurrence:  sess.Recurrence,
		LeadMinutes: leads,
		Ledger:      domain.Ledger{},
		CreatedAt:   s.now().UTC(),
	}

	err = s.catalog.Update(func(cat *domain.Catalog) error {
		cat.Events = append(cat.Events, event)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("commit event: %w", err)
	}

	s.Cancel(chatID)
	s.log.Info().Str("event_id", event.ID).Int64("chat_id", chatID).
		Str("recurrence", string(event.Recurrence)).Msg("Event created")
	return event, nil
}

// List returns the chat's events ordered by next occurrence ascending.
// Events with no future occurrence sort last, in creation order among
// themselves.
func (s *EventService) List(chatID int64) ([]*domain.Event, error) {
	cat, err := s.catalog.Snapshot()
	if err != nil {
		return nil, err
	}

	events := cat.ByChat(chatID)
	now := s.now()
	sort.SliceStable(events, func(i, j int) bool {
		ni, iok := schedule.Next(events[i].StartAt, events[i].Recurrence, now)
		nj, jok := schedule.Next(events[j].StartAt, events[j].Recurrence, now)
		if iok != jok {
			return iok
		}
		if !iok {
			return false
		}
		return ni.Before(nj)
	})
	return events, nil
}

// Delete removes the event only if it belongs to the requesting chat.
// Unknown and foreign ids both report ErrNotFound.
func (s *EventService) Delete(id string, chatID int64) error {
	return s.catalog.Update(func(cat *domain.Catalog) error {
		event := cat.FindByID(id)
		if event == nil || event.ChatID != chatID {
			return domain.ErrNotFound
		}
		cat.Remove(id)
		s.log.Info().Str("event_id", id).Int64("chat_id", chatID).Msg("Event deleted")
		return nil
	})
}

// Get returns the chat's event by id, or ErrNotFound.
func (s *EventService) Get(id string, chatID int64) (*domain.Event, error) {
	cat, err := s.catalog.Snapshot()
	if err != nil {
		return nil, err
	}
	event := cat.FindByID(id)
	if event == nil || event.ChatID != chatID {
		return nil, domain.ErrNotFound
	}
	return event, nil
}

// ParseLeadTimes parses a comma-separated set of non-negative minute
// values. The result is deduplicated and sorted descending, so reminders
// read naturally (furthest lead first).
func ParseLeadTimes(text string) ([]int, error) {
	parts := strings.Split(text, ",")
	seen := make(map[int]bool)
	var leads []int
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		n, err := strconv.Atoi(p)
		if err != nil {
			return nil, &domain.ParseError{Field: "lead_times", Input: text, Reason: "want comma-separated minutes"}
		}
		if n < 0 {
			return nil, &domain.ParseError{Field: "lead_times", Input: text, Reason: "minutes must be >= 0"}
		}
		if !seen[n] {
			seen[n] = true
			leads = append(leads, n)
		}
	}
	if len(leads) == 0 {
		return nil, &domain.ParseError{Field: "lead_times", Input: text, Reason: "at least one value required"}
	}
	sort.Sort(sort.Reverse(sort.IntSlice(leads)))
	return leads, nil
}
