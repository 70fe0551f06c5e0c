package habits

import (
	"sort"
	"time"

	"github.com/julianstephens/habitstore/internal/models"
)

// CurrentStreak counts consecutive completed days ending today. When today
// is not done yet, a streak ending yesterday still counts.
func CurrentStreak(dates models.DateSet, today time.Time) int {
	return currentStreak(parseDates(dates), civilDay(today))
}

func currentStreak(days map[time.Time]struct{}, today time.Time) int {
	day := today
	if _, ok := days[day]; !ok {
		day = day.AddDate(0, 0, -1)
	}

	streak := 0
	for {
		if _, ok := days[day]; !ok {
			return streak
		}
		streak++
		day = day.AddDate(0, 0, -1)
	}
}

// LongestStreak returns the longest run of consecutive completed days.
func LongestStreak(dates models.DateSet) int {
	return longestStreak(parseDates(dates))
}

func longestStreak(days map[time.Time]struct{}) int {
	if len(days) == 0 {
		return 0
	}

	sorted := make([]time.Time, 0, len(days))
	for d := range days {
		sorted = append(sorted, d)
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Before(sorted[j]) })

	longest, run := 1, 1
	for i := 1; i < len(sorted); i++ {
		if daysBetween(sorted[i-1], sorted[i]) == 1 {
			run++
			longest = max(longest, run)
		} else {
			run = 1
		}
	}
	return longest
}
