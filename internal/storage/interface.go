package storage

import (
	"context"

	"github.com/julianstephens/habitstore/internal/models"
)

// HabitStore persists habits in a single table.
type HabitStore interface {
	// Lifecycle
	Init() error
	Load() error
	Close() error

	// Insert writes habit, replacing any row with the same id.
	Insert(ctx context.Context, habit models.Habit) error
	// Update rewrites every column of an existing row. It returns a
	// NotFoundError when no row has habit.ID.
	Update(ctx context.Context, habit models.Habit) error
	// DeleteByID removes the row with id. A missing id is not an error.
	DeleteByID(ctx context.Context, id string) error
	// GetByID reports found=false when no row matches.
	GetByID(ctx context.Context, id string) (habit models.Habit, found bool, err error)
	// ObserveAll streams every habit ordered by created_at descending,
	// re-emitting after each committed change.
	ObserveAll(ctx context.Context) (*Subscription, error)

	// Utils
	GetConfigPath() string
}
