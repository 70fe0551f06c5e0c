package habits

import (
	"time"

	"github.com/julianstephens/habitstore/internal/constants"
	"github.com/julianstephens/habitstore/internal/models"
)

// civilDay truncates t to its calendar date in t's own location and
// returns it as UTC midnight so that day arithmetic ignores DST shifts.
func civilDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func daysBetween(from, to time.Time) int {
	return int(to.Sub(from).Hours() / 24)
}

// mondayOf returns the Monday on or before day.
func mondayOf(day time.Time) time.Time {
	offset := (int(day.Weekday()) + 6) % 7
	return day.AddDate(0, 0, -offset)
}

func formatDay(day time.Time) string {
	return day.Format(constants.DateFormat)
}

// parseDates returns the valid members of dates as civil days.
// Members that are not YYYY-MM-DD are skipped.
func parseDates(dates models.DateSet) map[time.Time]struct{} {
	days := make(map[time.Time]struct{}, len(dates))
	for s := range dates {
		day, err := time.Parse(constants.DateFormat, s)
		if err != nil {
			continue
		}
		days[day] = struct{}{}
	}
	return days
}

func createdDay(h models.Habit, loc *time.Location) time.Time {
	return civilDay(h.CreatedTime(loc))
}
