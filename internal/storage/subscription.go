package storage

import (
	"context"
	"sync"

	"github.com/julianstephens/habitstore/internal/logger"
	"github.com/julianstephens/habitstore/internal/models"
)

// LoadFunc reads one complete snapshot.
type LoadFunc func(ctx context.Context) ([]models.Habit, error)

// Subscription delivers a fresh snapshot of a table every time it changes.
type Subscription struct {
	updates chan []models.Habit
	cancel  context.CancelFunc
	done    chan struct{}

	mu  sync.Mutex
	err error
}

// Observe starts a subscription on table. The observer is registered
// before the first load so no change between the first snapshot and the
// first wait can be missed.
func Observe(ctx context.Context, tracker *Tracker, table string, load LoadFunc) *Subscription {
	ctx, cancel := context.WithCancel(ctx)
	signals, unregister := tracker.Register(table)

	sub := &Subscription{
		updates: make(chan []models.Habit),
		cancel:  cancel,
		done:    make(chan struct{}),
	}
	go sub.run(ctx, signals, unregister, load)
	return sub
}

func (s *Subscription) run(ctx context.Context, signals <-chan struct{}, unregister func(), load LoadFunc) {
	defer close(s.done)
	defer close(s.updates)
	defer unregister()

	for {
		snapshot, err := load(ctx)
		if err != nil {
			if ctx.Err() == nil {
				logger.Warn("Subscription query failed", "error", err)
				s.setErr(err)
			}
			return
		}

		select {
		case s.updates <- snapshot:
		case <-ctx.Done():
			return
		}

		select {
		case <-signals:
		case <-ctx.Done():
			return
		}
	}
}

// Updates yields snapshots until the subscription ends, then is closed.
func (s *Subscription) Updates() <-chan []models.Habit {
	return s.updates
}

// Err returns the failure that ended the subscription, or nil if it ended
// by cancellation or is still running.
func (s *Subscription) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Close cancels the subscription and waits for it to release its resources.
func (s *Subscription) Close() {
	s.cancel()
	<-s.done
}

// Done is closed once the subscription has released its resources.
func (s *Subscription) Done() <-chan struct{} {
	return s.done
}

func (s *Subscription) setErr(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}
