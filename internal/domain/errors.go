package domain

import (
	"errors"
	"fmt"
)

// ErrNotFound covers deletes and lookups of unknown ids, including events
// owned by another chat: callers learn "not found", nothing more.
var ErrNotFound = errors.New("event not found")

// ErrNoSession is returned when dialog input arrives for a chat with no
// in-progress creation session, or for the wrong stage.
var ErrNoSession = errors.New("no active creation session")

// ParseError is a recoverable rejection of dialog input. The session stays
// on its current stage; the caller re-prompts.
type ParseError struct {
	Field  string
	Input  string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s %q: %s", e.Field, e.Input, e.Reason)
}
