package service

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/emersion/go-ical"
	"github.com/rs/zerolog"

	caldavclient "github.com/tazhate/eventbot/internal/clients/caldav"
	"github.com/tazhate/eventbot/internal/domain"
	"github.com/tazhate/eventbot/internal/storage"
)

// ExportService renders a chat's events as an iCalendar document and
// optionally uploads it to a CalDAV collection.
type ExportService struct {
	catalog *storage.Catalog
	caldav  *caldavclient.Client
	now     func() time.Time
	log     zerolog.Logger
}

func NewExportService(catalog *storage.Catalog, caldav *caldavclient.Client, log zerolog.Logger) *ExportService {
	return &ExportService{
		catalog: catalog,
		caldav:  caldav,
		now:     time.Now,
		log:     log,
	}
}

// CanUpload reports whether a CalDAV endpoint is configured.
func (s *ExportService) CanUpload() bool {
	return s.caldav != nil && s.caldav.IsConfigured()
}

// BuildICS renders all of the chat's events into one VCALENDAR.
func (s *ExportService) BuildICS(chatID int64) ([]byte, error) {
	cal, err := s.buildCalendar(chatID)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := ical.NewEncoder(&buf).Encode(cal); err != nil {
		return nil, fmt.Errorf("encode calendar: %w", err)
	}
	return buf.Bytes(), nil
}

// Upload pushes the chat's calendar to the configured CalDAV collection.
func (s *ExportService) Upload(ctx context.Context, chatID int64) error {
	if !s.CanUpload() {
		return fmt.Errorf("CalDAV is not configured")
	}

	cal, err := s.buildCalendar(chatID)
	if err != nil {
		return err
	}

	if err := s.caldav.PutCalendar(ctx, chatID, cal); err != nil {
		return fmt.Errorf("upload calendar: %w", err)
	}
	s.log.Info().Int64("chat_id", chatID).Msg("Calendar uploaded to CalDAV")
	return nil
}

func (s *ExportService) buildCalendar(chatID int64) (*ical.Calendar, error) {
	cat, err := s.catalog.Snapshot()
	if err != nil {
		return nil, err
	}

	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, "-//eventbot//RU")

	now := s.now().UTC()
	for _, event := range cat.ByChat(chatID) {
		vevent := ical.NewEvent()
		vevent.Props.SetText(ical.PropUID, event.ID+"@eventbot")
		vevent.Props.SetText(ical.PropSummary, event.Title)
		vevent.Props.SetDateTime(ical.PropDateTimeStart, event.StartAt.UTC())
		vevent.Props.SetDateTime(ical.PropDateTimeStamp, now)
		if rrule := recurrenceRule(event.Recurrence); rrule != "" {
			vevent.Props.SetText(ical.PropRecurrenceRule, rrule)
		}
		cal.Children = append(cal.Children, vevent.Component)
	}

	return cal, nil
}

// recurrenceRule maps the fixed-step rules onto RRULE. The 30-day
// "monthly" step is expressed as a daily interval so the exported dates
// match what the reminder engine actually fires on.
func recurrenceRule(r domain.Recurrence) string {
	switch r {
	case domain.RecurrenceDaily:
		return "FREQ=DAILY"
	case domain.RecurrenceWeekly:
		return "FREQ=WEEKLY"
	case domain.RecurrenceMonthly:
		return "FREQ=DAILY;INTERVAL=30"
	default:
		return ""
	}
}
