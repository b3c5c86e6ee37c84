package schedule

import (
	"time"

	"github.com/tazhate/eventbot/internal/domain"
)

// Next returns the earliest occurrence of the rule strictly after now,
// or false when the event is one-shot and already past.
//
// For recurring rules the step count is computed by integer division, so
// the cost does not depend on how far in the past the anchor lies.
func Next(anchor time.Time, r domain.Recurrence, now time.Time) (time.Time, bool) {
	if anchor.After(now) {
		return anchor, true
	}
	step, ok := r.Step()
	if !ok {
		return time.Time{}, false
	}
	n := now.Sub(anchor)/step + 1
	return anchor.Add(n * step), true
}
