package habits

import (
	"time"

	"github.com/julianstephens/habitstore/internal/constants"
	"github.com/julianstephens/habitstore/internal/models"
)

// Stats aggregates completion history across all habits.
type Stats struct {
	CurrentStreak        int
	LongestStreak        int
	WeeklyCompletionRate float64
	// WeeklyDailyRates holds Monday (index 0) through Sunday (index 6)
	// of the current week.
	WeeklyDailyRates [7]float64
	TotalHabits      int
	CompletedToday   int
	TotalCompleted   int
}

// ComputeStats derives Stats from habits as seen at now. Calendar days are
// taken in now's location.
func ComputeStats(habits []models.Habit, now time.Time) Stats {
	today := civilDay(now)
	loc := now.Location()

	parsed := make([]map[time.Time]struct{}, len(habits))
	all := make(map[time.Time]struct{})
	stats := Stats{TotalHabits: len(habits)}

	for i, h := range habits {
		parsed[i] = parseDates(h.CompletedDates)
		for d := range parsed[i] {
			all[d] = struct{}{}
		}
		stats.TotalCompleted += len(parsed[i])
		if _, ok := parsed[i][today]; ok {
			stats.CompletedToday++
		}
	}

	stats.CurrentStreak = currentStreak(all, today)
	stats.LongestStreak = longestStreak(all)
	stats.WeeklyCompletionRate = weeklyCompletionRate(habits, parsed, today, loc)
	stats.WeeklyDailyRates = weeklyDailyRates(habits, parsed, today, loc)
	return stats
}

// weeklyCompletionRate divides completions in the trailing window by the
// number of days each habit could have been completed in it. A habit
// created inside the window only counts the days since its creation.
func weeklyCompletionRate(habits []models.Habit, parsed []map[time.Time]struct{}, today time.Time, loc *time.Location) float64 {
	if len(habits) == 0 {
		return 0
	}

	windowStart := today.AddDate(0, 0, -constants.WeeklyWindowDays)
	possible, actual := 0, 0

	for i, h := range habits {
		start := windowStart
		if created := createdDay(h, loc); created.After(start) {
			start = created
		}

		possible += max(daysBetween(start, today)+1, 1)
		for d := range parsed[i] {
			if !d.Before(start) && !d.After(today) {
				actual++
			}
		}
	}

	return clampRate(float64(actual) / float64(possible))
}

func weeklyDailyRates(habits []models.Habit, parsed []map[time.Time]struct{}, today time.Time, loc *time.Location) [7]float64 {
	var rates [7]float64
	if len(habits) == 0 {
		return rates
	}

	monday := mondayOf(today)

	for i := range rates {
		day := monday.AddDate(0, 0, i)
		if day.After(today) {
			continue
		}

		eligible, completed := 0, 0
		for j, h := range habits {
			if createdDay(h, loc).After(day) {
				continue
			}
			eligible++
			if _, ok := parsed[j][day]; ok {
				completed++
			}
		}
		if eligible > 0 {
			rates[i] = clampRate(float64(completed) / float64(eligible))
		}
	}
	return rates
}

func clampRate(r float64) float64 {
	return min(max(r, 0), 1)
}
