package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/julianstephens/habitstore/internal/constants"
	"github.com/julianstephens/habitstore/internal/habits"
	"github.com/julianstephens/habitstore/internal/models"
)

type HabitCmd struct {
	Add    HabitAddCmd    `cmd:"" help:"Add a new habit."`
	List   HabitListCmd   `cmd:"" help:"List habits, newest first."`
	Show   HabitShowCmd   `cmd:"" help:"Show one habit."`
	Edit   HabitEditCmd   `cmd:"" help:"Edit a habit's title or description."`
	Done   HabitDoneCmd   `cmd:"" help:"Mark a habit as done today."`
	Undo   HabitUndoCmd   `cmd:"" help:"Clear today's completion of a habit."`
	Delete HabitDeleteCmd `cmd:"" help:"Delete a habit."`
}

type HabitAddCmd struct {
	Title       string `arg:"" help:"Habit title."`
	Description string `short:"d" help:"Optional description."`
}

func (c *HabitAddCmd) Run(ctx *Context) error {
	habit, err := ctx.Habits.Create(context.Background(), c.Title, c.Description)
	if err != nil {
		return err
	}

	ctx.Printf("Added habit: %s (%s)\n", habit.TitleOrEmpty(), ShortID(habit.ID))
	return nil
}

type HabitListCmd struct{}

func (c *HabitListCmd) Run(ctx *Context) error {
	list, err := ctx.Habits.List(context.Background())
	if err != nil {
		return err
	}

	if len(list) == 0 {
		ctx.Println("No habits found.")
		return nil
	}

	printHabits(ctx, list, ctx.Habits.Now())
	return nil
}

func printHabits(ctx *Context, list []models.Habit, now time.Time) {
	today := now.Format(constants.DateFormat)
	for _, h := range list {
		mark := " "
		if h.CompletedDates.Has(today) {
			mark = "x"
		}
		ctx.Printf("[%s] %s  %s  (streak %d)\n", mark, ShortID(h.ID), h.TitleOrEmpty(), habits.CurrentStreak(h.CompletedDates, now))
	}
}

type HabitShowCmd struct {
	ID string `arg:"" help:"Habit id or unique id prefix."`
}

func (c *HabitShowCmd) Run(ctx *Context) error {
	habit, err := ctx.ResolveHabit(context.Background(), c.ID)
	if err != nil {
		return err
	}

	now := ctx.Habits.Now()
	ctx.Printf("ID:          %s\n", habit.ID)
	ctx.Printf("Title:       %s\n", habit.TitleOrEmpty())
	if habit.Description != nil {
		ctx.Printf("Description: %s\n", *habit.Description)
	}
	ctx.Printf("Created:     %s\n", habit.CreatedTime(now.Location()).Format("2006-01-02 15:04"))
	ctx.Printf("Done today:  %t\n", habit.CompletedDates.Has(ctx.Habits.Today()))
	ctx.Printf("Streak:      %d (longest %d)\n",
		habits.CurrentStreak(habit.CompletedDates, now),
		habits.LongestStreak(habit.CompletedDates))

	if dates := habit.CompletedDates.Sorted(); len(dates) > 0 {
		ctx.Printf("Completed:   %s\n", strings.Join(dates, ", "))
	}
	return nil
}

type HabitEditCmd struct {
	ID               string `arg:"" help:"Habit id or unique id prefix."`
	Title            string `help:"New title."`
	Description      string `short:"d" help:"New description."`
	ClearDescription bool   `help:"Remove the description."`
}

func (c *HabitEditCmd) Run(ctx *Context) error {
	if c.Title == "" && c.Description == "" && !c.ClearDescription {
		return fmt.Errorf("nothing to edit: pass --title, --description or --clear-description")
	}

	bg := context.Background()
	habit, err := ctx.ResolveHabit(bg, c.ID)
	if err != nil {
		return err
	}

	title := habit.TitleOrEmpty()
	if c.Title != "" {
		title = c.Title
	}
	description := habit.DescriptionOrEmpty()
	if c.ClearDescription {
		description = ""
	} else if c.Description != "" {
		description = c.Description
	}

	edited, err := ctx.Habits.Edit(bg, habit.ID, title, description)
	if err != nil {
		return err
	}

	ctx.Printf("Updated habit: %s\n", edited.TitleOrEmpty())
	return nil
}

type HabitDoneCmd struct {
	ID string `arg:"" help:"Habit id or unique id prefix."`
}

func (c *HabitDoneCmd) Run(ctx *Context) error {
	return setCompletion(ctx, c.ID, true)
}

type HabitUndoCmd struct {
	ID string `arg:"" help:"Habit id or unique id prefix."`
}

func (c *HabitUndoCmd) Run(ctx *Context) error {
	return setCompletion(ctx, c.ID, false)
}

func setCompletion(ctx *Context, id string, completed bool) error {
	bg := context.Background()
	habit, err := ctx.ResolveHabit(bg, id)
	if err != nil {
		return err
	}

	updated, err := ctx.Habits.Complete(bg, habit.ID, completed)
	if err != nil {
		return err
	}

	if completed {
		ctx.Printf("✓ %s done for %s (streak %d)\n", updated.TitleOrEmpty(), ctx.Habits.Today(),
			habits.CurrentStreak(updated.CompletedDates, ctx.Habits.Now()))
	} else {
		ctx.Printf("Cleared %s for %s\n", updated.TitleOrEmpty(), ctx.Habits.Today())
	}
	return nil
}

type HabitDeleteCmd struct {
	ID string `arg:"" help:"Habit id or unique id prefix."`
}

func (c *HabitDeleteCmd) Run(ctx *Context) error {
	bg := context.Background()
	habit, err := ctx.ResolveHabit(bg, c.ID)
	if err != nil {
		return err
	}

	if err := ctx.Habits.Delete(bg, habit.ID); err != nil {
		return err
	}

	ctx.Printf("Deleted habit: %s\n", habit.TitleOrEmpty())
	return nil
}
