package schedule

import "time"

var weekdayOf = map[string]time.Weekday{
	"mon": time.Monday,
	"tue": time.Tuesday,
	"wed": time.Wednesday,
	"thu": time.Thursday,
	"fri": time.Friday,
	"sat": time.Saturday,
	"sun": time.Sunday,
}

// NextAirDate returns the next time at or after now that show airs, in now's
// location. Shows without a day, and completed or dropped shows, have none.
// A missing air time means midnight.
func NextAirDate(show Show, now time.Time) (time.Time, bool) {
	weekday, ok := weekdayOf[show.Day]
	if !ok || show.Status == StatusCompleted || show.Status == StatusDropped {
		return time.Time{}, false
	}

	hour, minute := 0, 0
	if show.AirTime != "" {
		t, err := time.Parse("15:04", show.AirTime)
		if err != nil {
			return time.Time{}, false
		}
		hour, minute = t.Hour(), t.Minute()
	}

	days := (int(weekday) - int(now.Weekday()) + 7) % 7
	next := time.Date(now.Year(), now.Month(), now.Day()+days, hour, minute, 0, 0, now.Location())
	if next.Before(now) {
		next = next.AddDate(0, 0, 7)
	}
	return next, true
}
