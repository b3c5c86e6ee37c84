package schedule

import (
	"time"

	"github.com/tazhate/eventbot/internal/domain"
)

// DueLeads reports which lead times of the occurrence currently fall
// inside the delivery window and are not yet recorded in the ledger.
//
// The window is symmetric around each notify instant: wide enough to
// absorb scan jitter, narrow enough that adjacent scan cycles cannot both
// see the same instant after it has been marked.
func DueLeads(occurrence time.Time, leads []int, ledger domain.Ledger, now time.Time, window time.Duration) []int {
	var due []int
	for _, lead := range leads {
		notifyAt := occurrence.Add(-time.Duration(lead) * time.Minute)
		diff := notifyAt.Sub(now)
		if diff < 0 {
			diff = -diff
		}
		if diff < window && !ledger.Contains(occurrence, lead) {
			due = append(due, lead)
		}
	}
	return due
}
