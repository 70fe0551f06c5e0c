package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/julianstephens/habitstore/internal/constants"
	"github.com/julianstephens/habitstore/internal/logger"
	"github.com/julianstephens/habitstore/internal/models"
	"github.com/julianstephens/habitstore/internal/storage"
)

const (
	insertHabitSQL = `
		INSERT OR REPLACE INTO habits (` + storage.HabitColumns + `)
		VALUES (?, ?, ?, ?, ?, ?)`

	// UPDATE OR ABORT only aborts on constraint violations; a missing row
	// is caught by the affected-row check in Update.
	updateHabitSQL = `
		UPDATE OR ABORT habits SET
			id = ?, title = ?, description = ?, is_completed = ?, created_at = ?, completed_dates = ?
		WHERE id = ?`

	deleteHabitSQL = `DELETE FROM habits WHERE id = ?`

	selectHabitSQL = `SELECT ` + storage.HabitColumns + ` FROM habits WHERE id = ? LIMIT 1`

	selectAllHabitsSQL = `SELECT ` + storage.HabitColumns + ` FROM habits ORDER BY created_at DESC`
)

func (s *Store) Insert(ctx context.Context, habit models.Habit) error {
	if err := habit.Validate(); err != nil {
		return err
	}
	if s.db == nil {
		return storage.ErrNotLoaded
	}

	err := s.withWriteTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, insertHabitSQL, storage.EncodeHabit(habit)...)
		return err
	})
	if err != nil {
		return storage.Wrap("insert habit", err)
	}

	logger.Debug("Inserted habit", "id", habit.ID)
	s.tracker.Notify(constants.HabitsTable)
	return nil
}

func (s *Store) Update(ctx context.Context, habit models.Habit) error {
	if err := habit.Validate(); err != nil {
		return err
	}
	if s.db == nil {
		return storage.ErrNotLoaded
	}

	args := append(storage.EncodeHabit(habit), habit.ID)
	err := s.withWriteTx(ctx, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, updateHabitSQL, args...)
		if err != nil {
			return err
		}
		rows, err := result.RowsAffected()
		if err != nil {
			return err
		}
		if rows == 0 {
			return &storage.NotFoundError{ID: habit.ID}
		}
		return nil
	})
	if err != nil {
		var notFound *storage.NotFoundError
		if errors.As(err, &notFound) {
			return err
		}
		return storage.Wrap("update habit", err)
	}

	logger.Debug("Updated habit", "id", habit.ID)
	s.tracker.Notify(constants.HabitsTable)
	return nil
}

func (s *Store) DeleteByID(ctx context.Context, id string) error {
	if s.db == nil {
		return storage.ErrNotLoaded
	}

	var removed int64
	err := s.withWriteTx(ctx, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, deleteHabitSQL, id)
		if err != nil {
			return err
		}
		removed, err = result.RowsAffected()
		return err
	})
	if err != nil {
		return storage.Wrap("delete habit", err)
	}

	if removed > 0 {
		logger.Debug("Deleted habit", "id", id)
		s.tracker.Notify(constants.HabitsTable)
	}
	return nil
}

func (s *Store) GetByID(ctx context.Context, id string) (models.Habit, bool, error) {
	if s.db == nil {
		return models.Habit{}, false, storage.ErrNotLoaded
	}

	habit, err := storage.ScanHabit(s.db.QueryRowContext(ctx, selectHabitSQL, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Habit{}, false, nil
		}
		return models.Habit{}, false, storage.Wrap("get habit", err)
	}
	return habit, true, nil
}

func (s *Store) ObserveAll(ctx context.Context) (*storage.Subscription, error) {
	if s.db == nil {
		return nil, storage.ErrNotLoaded
	}
	if err := s.watchExternal(); err != nil {
		return nil, storage.Wrap("watch habits", err)
	}
	return storage.Observe(ctx, s.tracker, constants.HabitsTable, s.getAll), nil
}

func (s *Store) getAll(ctx context.Context) ([]models.Habit, error) {
	rows, err := s.db.QueryContext(ctx, selectAllHabitsSQL)
	if err != nil {
		return nil, storage.Wrap("list habits", err)
	}
	defer rows.Close()

	habits := []models.Habit{}
	for rows.Next() {
		h, err := storage.ScanHabit(rows)
		if err != nil {
			return nil, storage.Wrap("list habits", err)
		}
		habits = append(habits, h)
	}
	if err := rows.Err(); err != nil {
		return nil, storage.Wrap("list habits", err)
	}

	return habits, nil
}
