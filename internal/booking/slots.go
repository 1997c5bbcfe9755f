// internal/booking/slots.go
package booking

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	dateLayout      = "2006-01-02"
	localTimeLayout = "15:04"
)

// GenerateSlots produces the ordered candidate start times for a court on
// one calendar date, within the venue's operating hours for that day of
// week. Slots sit on hour boundaries; a slot is offered only when
// start+duration fits before closing. When the date is "today" in the
// court's timezone, slots that have already passed are suppressed, with a
// grace window on the current hour.
//
// The generator knows nothing about existing occupancies; filtering
// candidate slots against committed bookings is the conflict detector's
// job, one probe per slot.
func (e *Engine) GenerateSlots(ctx context.Context, courtID int64, date string, duration time.Duration) (DaySchedule, error) {
	if duration <= 0 {
		return DaySchedule{}, ValidationError{Field: "duration", Reason: "must be positive"}
	}

	court, err := e.getActiveCourt(ctx, e.store, courtID)
	if err != nil {
		return DaySchedule{}, err
	}

	loc, zoneName := e.resolveLocation(ctx, court)

	day, err := time.ParseInLocation(dateLayout, date, loc)
	if err != nil {
		return DaySchedule{}, ValidationError{Field: "date", Reason: "must be a YYYY-MM-DD date"}
	}

	schedule := DaySchedule{
		CourtID:  court.ID,
		Date:     date,
		Timezone: zoneName,
		Slots:    []Slot{},
	}

	hours, err := e.store.OperatingHours(ctx, court.VenueID, day.Weekday())
	if err != nil {
		return DaySchedule{}, fmt.Errorf("load operating hours: %w", err)
	}
	if !hours.Open {
		return schedule, nil
	}

	openMinutes, err := parseLocalMinutes(hours.OpensAt)
	if err != nil {
		return DaySchedule{}, fmt.Errorf("invalid opening time %q: %w", hours.OpensAt, err)
	}
	closeMinutes, err := parseLocalMinutes(hours.ClosesAt)
	if err != nil {
		return DaySchedule{}, fmt.Errorf("invalid closing time %q: %w", hours.ClosesAt, err)
	}

	now := e.clock.Now().In(loc)
	isToday := now.Year() == day.Year() && now.YearDay() == day.YearDay()
	durationMinutes := int(duration / time.Minute)

	firstHour := openMinutes / 60
	if openMinutes%60 != 0 {
		firstHour++
	}

	for hour := firstHour; hour < 24; hour++ {
		startMinutes := hour * 60
		if startMinutes+durationMinutes > closeMinutes {
			break
		}
		if isToday && slotHasPassed(hour, now, e.grace) {
			continue
		}

		start := time.Date(day.Year(), day.Month(), day.Day(), hour, 0, 0, 0, loc)
		schedule.Slots = append(schedule.Slots, Slot{
			Start:      start,
			StartLocal: start.Format(localTimeLayout),
			EndLocal:   start.Add(duration).Format(localTimeLayout),
		})
	}

	return schedule, nil
}

// slotHasPassed suppresses slots earlier than the current hour, and the
// current hour's slot once more than graceMinutes of it have elapsed.
// The grace window still allows booking a slot that began minutes ago.
func slotHasPassed(hour int, now time.Time, graceMinutes int) bool {
	if hour < now.Hour() {
		return true
	}
	return hour == now.Hour() && now.Minute() > graceMinutes
}

// resolveLocation walks the court -> venue timezone chain. An unknown
// zone id degrades to the server's local clock with a logged warning;
// slot generation never fails outright on timezone resolution.
func (e *Engine) resolveLocation(ctx context.Context, court Court) (*time.Location, string) {
	for _, name := range []string{court.Timezone, court.VenueTimezone} {
		if name == "" {
			continue
		}
		loc, err := time.LoadLocation(name)
		if err != nil {
			log.Ctx(ctx).Warn().
				Err(err).
				Int64("court_id", court.ID).
				Str("timezone", name).
				Msg("Failed to resolve timezone, trying fallback")
			continue
		}
		return loc, name
	}
	loc := time.Local
	return loc, loc.String()
}

func parseLocalMinutes(value string) (int, error) {
	parsed, err := time.Parse(localTimeLayout, value)
	if err != nil {
		return 0, err
	}
	return parsed.Hour()*60 + parsed.Minute(), nil
}
