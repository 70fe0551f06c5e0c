package cli

import "context"

type NudgeCmd struct {
	Refresh bool `help:"Rebuild today's nudge instead of using the cached one."`
}

func (c *NudgeCmd) Run(ctx *Context) error {
	nudge, err := ctx.Habits.Nudge(context.Background(), c.Refresh)
	if err != nil {
		return err
	}
	ctx.Println(nudge.Message)
	return nil
}

type InsightCmd struct {
	Refresh bool `help:"Rebuild this week's insight instead of using the cached one."`
}

func (c *InsightCmd) Run(ctx *Context) error {
	insight, err := ctx.Habits.Insight(context.Background(), c.Refresh)
	if err != nil {
		return err
	}

	ctx.Printf("Week of %s\n", insight.WeekOf)
	ctx.Println(insight.Summary)
	if insight.TopPerformingHabit != nil {
		ctx.Printf("Top habit:       %s\n", *insight.TopPerformingHabit)
	}
	if insight.MostAtRiskHabit != nil {
		ctx.Printf("Needs attention: %s\n", *insight.MostAtRiskHabit)
	}
	ctx.Printf("Score:           %d/100\n", insight.OverallScore)
	ctx.Println(insight.Recommendation)
	return nil
}
