package habits

import (
	"fmt"
	"time"

	"github.com/julianstephens/habitstore/internal/constants"
	"github.com/julianstephens/habitstore/internal/models"
)

// BuildNudge writes the coaching message for the day of now.
func BuildNudge(habits []models.Habit, stats Stats, now time.Time) models.DailyNudge {
	var message string
	switch {
	case len(habits) == 0:
		message = "Start your first habit today. Small steps lead to big changes."
	case stats.CurrentStreak >= constants.NudgeHotStreak:
		message = fmt.Sprintf("%d-day streak! You're on fire. Keep it going today.", stats.CurrentStreak)
	case stats.CurrentStreak >= constants.NudgeStreak:
		message = fmt.Sprintf("%d days in a row! Don't break the chain today.", stats.CurrentStreak)
	case stats.CompletedToday == stats.TotalHabits:
		message = "All habits done today! Amazing consistency."
	case stats.CompletedToday == 0:
		message = "Your habits are waiting. Completing even one today keeps the momentum alive."
	default:
		message = fmt.Sprintf("You've completed %d/%d habits today. Finish strong!", stats.CompletedToday, stats.TotalHabits)
	}

	return models.DailyNudge{
		Date:        formatDay(civilDay(now)),
		Message:     message,
		GeneratedAt: models.MillisOf(now),
		Source:      models.SourceRules,
	}
}

// BuildInsight summarises the week containing now. The top performer is
// the habit with the longest current streak; the most at-risk habit is the
// first one flagged by AssessRisk, else the first not done today.
func BuildInsight(habits []models.Habit, stats Stats, now time.Time) models.WeeklyInsight {
	today := civilDay(now)
	score := int(stats.WeeklyCompletionRate * 100)

	var recommendation string
	switch {
	case score >= constants.InsightStrongScore:
		recommendation = "Great work! Keep this pace."
	case score >= constants.InsightHalfwayScore:
		recommendation = "More than halfway there. Push a little further."
	case len(habits) == 0:
		recommendation = "No habits yet. Add your first one."
	default:
		recommendation = "Starting is half the battle. Try again with one small habit."
	}

	return models.WeeklyInsight{
		WeekOf:             formatDay(mondayOf(today)),
		Summary:            fmt.Sprintf("Habit completion this week: %d%%", score),
		TopPerformingHabit: topPerformer(habits, today),
		MostAtRiskHabit:    mostAtRisk(habits, now),
		Recommendation:     recommendation,
		OverallScore:       score,
		GeneratedAt:        models.MillisOf(now),
		Source:             models.SourceRules,
	}
}

func topPerformer(habits []models.Habit, today time.Time) *string {
	var top *string
	best := 0
	for _, h := range habits {
		if streak := CurrentStreak(h.CompletedDates, today); streak > best {
			best = streak
			top = h.Title
		}
	}
	return top
}

func mostAtRisk(habits []models.Habit, now time.Time) *string {
	if atRisk := DetectAtRisk(habits, now); len(atRisk) > 0 {
		return atRisk[0].Habit.Title
	}
	today := formatDay(civilDay(now))
	for _, h := range habits {
		if !h.CompletedDates.Has(today) {
			return h.Title
		}
	}
	return nil
}
