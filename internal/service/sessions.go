package service

import (
	"github.com/tazhate/eventbot/internal/domain"
)

// StartCreation opens a fresh creation session for the chat, discarding
// any session already in progress.
func (s *EventService) StartCreation(chatID int64) *domain.Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := domain.NewSession(chatID, s.now())
	s.sessions[chatID] = sess
	return sess
}

// Session returns the chat's in-progress session, or nil. Expired sessions
// are evicted on access.
func (s *EventService) Session(chatID int64) *domain.Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[chatID]
	if !ok {
		return nil
	}
	if sess.Expired(s.now(), s.sessionTTL) {
		delete(s.sessions, chatID)
		return nil
	}
	return sess
}

// Cancel discards the chat's session and reports whether one existed.
func (s *EventService) Cancel(chatID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.sessions[chatID]
	delete(s.sessions, chatID)
	return ok
}

// SweepSessions evicts sessions idle past the TTL. Run periodically so
// abandoned dialogs do not pile up between accesses.
func (s *EventService) SweepSessions() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for chatID, sess := range s.sessions {
		if sess.Expired(now, s.sessionTTL) {
			delete(s.sessions, chatID)
		}
	}
}

// sessionAt returns the live session for the chat if it is on the given
// stage.
func (s *EventService) sessionAt(chatID int64, stage domain.SessionStage) *domain.Session {
	sess := s.Session(chatID)
	if sess == nil || sess.Stage != stage {
		return nil
	}
	return sess
}
