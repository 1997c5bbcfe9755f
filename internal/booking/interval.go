// internal/booking/interval.go
package booking

import (
	"fmt"
	"time"
)

// TimeWindow is a half-open interval [Start, End) on absolute instants.
// Windows that merely touch at a boundary do not overlap, which is what
// allows back-to-back bookings with zero gap between them.
type TimeWindow struct {
	Start time.Time
	End   time.Time
}

// NewTimeWindow validates start < end and returns the window.
func NewTimeWindow(start, end time.Time) (TimeWindow, error) {
	if !start.Before(end) {
		return TimeWindow{}, ValidationError{Field: "end_time", Reason: "must be after start_time"}
	}
	return TimeWindow{Start: start, End: end}, nil
}

// Overlaps reports whether w and other share any instant. Comparisons are
// done on absolute instants, never on wall-clock strings.
func (w TimeWindow) Overlaps(other TimeWindow) bool {
	return w.Start.Before(other.End) && other.Start.Before(w.End)
}

// Contains reports whether t falls inside the window.
func (w TimeWindow) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

// Duration returns End - Start.
func (w TimeWindow) Duration() time.Duration {
	return w.End.Sub(w.Start)
}

func (w TimeWindow) String() string {
	return fmt.Sprintf("[%s, %s)", w.Start.Format(time.RFC3339), w.End.Format(time.RFC3339))
}
