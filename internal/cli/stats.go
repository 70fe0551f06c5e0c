package cli

import (
	"context"
	"strings"
)

var weekdayLabels = [7]string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}

const barWidth = 20

type StatsCmd struct{}

func (c *StatsCmd) Run(ctx *Context) error {
	stats, err := ctx.Habits.Stats(context.Background())
	if err != nil {
		return err
	}

	ctx.Printf("Habits:          %d\n", stats.TotalHabits)
	ctx.Printf("Done today:      %d\n", stats.CompletedToday)
	ctx.Printf("Completions:     %d\n", stats.TotalCompleted)
	ctx.Printf("Current streak:  %d\n", stats.CurrentStreak)
	ctx.Printf("Longest streak:  %d\n", stats.LongestStreak)
	ctx.Printf("Last 7 days:     %.0f%%\n", stats.WeeklyCompletionRate*100)
	ctx.Println()
	ctx.Println("This week:")
	for i, rate := range stats.WeeklyDailyRates {
		ctx.Printf("  %s %s %3.0f%%\n", weekdayLabels[i], bar(rate), rate*100)
	}
	return nil
}

func bar(rate float64) string {
	filled := int(rate*barWidth + 0.5)
	return strings.Repeat("█", filled) + strings.Repeat("░", barWidth-filled)
}

type RiskCmd struct{}

func (c *RiskCmd) Run(ctx *Context) error {
	atRisk, err := ctx.Habits.AtRisk(context.Background())
	if err != nil {
		return err
	}

	if len(atRisk) == 0 {
		ctx.Println("No habits at risk.")
		return nil
	}

	weekday := ctx.Habits.Now().Weekday()
	ctx.Printf("At risk on %ss:\n", weekday)
	for _, a := range atRisk {
		ctx.Printf("  %s  %s  missed %.0f%% of recent %ss\n",
			ShortID(a.Habit.ID), a.Habit.TitleOrEmpty(), a.MissRate*100, weekday)
	}
	return nil
}
