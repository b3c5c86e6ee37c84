package domain

import "time"

// SessionStage is the current step of the event-creation dialog.
type SessionStage string

const (
	StageTitle      SessionStage = "title"
	StageDateTime   SessionStage = "datetime"
	StageRecurrence SessionStage = "recurrence"
	StageLeadTimes  SessionStage = "lead_times"
)

// Session accumulates event fields while a recipient walks through the
// creation dialog. One session per chat; never persisted.
type Session struct {
	ChatID     int64
	Stage      SessionStage
	Title      string
	StartAt    time.Time
	Recurrence Recurrence
	UpdatedAt  time.Time
}

func NewSession(chatID int64, now time.Time) *Session {
	return &Session{ChatID: chatID, Stage: StageTitle, UpdatedAt: now}
}

func (s *Session) Touch(now time.Time) {
	s.UpdatedAt = now
}

func (s *Session) Expired(now time.Time, ttl time.Duration) bool {
	return now.Sub(s.UpdatedAt) > ttl
}
