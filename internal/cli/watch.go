package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

type WatchCmd struct{}

func (c *WatchCmd) Run(ctx *Context) error {
	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return c.watch(sigCtx, ctx)
}

// watch prints every snapshot until ctx is cancelled or the subscription
// fails.
func (c *WatchCmd) watch(ctx context.Context, app *Context) error {
	sub, err := app.Habits.Watch(ctx)
	if err != nil {
		return err
	}
	defer sub.Close()

	for snapshot := range sub.Updates() {
		now := app.Habits.Now()
		app.Printf("--- %s (%d habits)\n", now.Format("15:04:05"), len(snapshot))
		if len(snapshot) == 0 {
			app.Println("No habits found.")
			continue
		}
		printHabits(app, snapshot, now)
	}

	return sub.Err()
}
