package habits

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/julianstephens/habitstore/internal/constants"
	"github.com/julianstephens/habitstore/internal/logger"
	"github.com/julianstephens/habitstore/internal/models"
	"github.com/julianstephens/habitstore/internal/storage"
)

var ErrEmptyTitle = errors.New("habit title must not be empty")

// Service implements the habit use cases on top of a HabitStore.
type Service struct {
	store storage.HabitStore
	cache storage.CoachingCache
	now   func() time.Time
	loc   *time.Location
}

type Option func(*Service)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithLocation sets the location used to decide which calendar day it is.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) { s.loc = loc }
}

func NewService(store storage.HabitStore, opts ...Option) *Service {
	s := &Service{
		store: store,
		now:   time.Now,
		loc:   time.Local,
	}
	if cache, ok := store.(storage.CoachingCache); ok {
		s.cache = cache
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Now returns the current time in the service location.
func (s *Service) Now() time.Time {
	return s.now().In(s.loc)
}

// Today returns today's date as stored in CompletedDates.
func (s *Service) Today() string {
	return formatDay(civilDay(s.Now()))
}

// Create stores a new habit with a random id. An empty description is
// stored as null.
func (s *Service) Create(ctx context.Context, title, description string) (models.Habit, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return models.Habit{}, ErrEmptyTitle
	}

	habit := models.Habit{
		ID:             uuid.NewString(),
		Title:          models.StringPtr(title),
		Description:    optional(description),
		CreatedAt:      models.MillisOf(s.now()),
		CompletedDates: models.NewDateSet(),
	}
	if err := s.store.Insert(ctx, habit); err != nil {
		return models.Habit{}, err
	}

	logger.Info("Habit created", "id", habit.ID, "title", title)
	return habit, nil
}

// Edit replaces the title and description of an existing habit.
func (s *Service) Edit(ctx context.Context, id, title, description string) (models.Habit, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return models.Habit{}, ErrEmptyTitle
	}

	habit, err := s.mustGet(ctx, id)
	if err != nil {
		return models.Habit{}, err
	}

	habit.Title = models.StringPtr(title)
	habit.Description = optional(description)
	if err := s.store.Update(ctx, habit); err != nil {
		return models.Habit{}, err
	}

	logger.Info("Habit edited", "id", id)
	return habit, nil
}

// Complete marks today as done (or not done) for the habit.
func (s *Service) Complete(ctx context.Context, id string, completed bool) (models.Habit, error) {
	habit, err := s.mustGet(ctx, id)
	if err != nil {
		return models.Habit{}, err
	}

	today := s.Today()
	if completed {
		habit.CompletedDates = habit.CompletedDates.Add(today)
	} else {
		habit.CompletedDates = habit.CompletedDates.Remove(today)
	}
	habit.IsCompleted = completed

	if err := s.store.Update(ctx, habit); err != nil {
		return models.Habit{}, err
	}

	logger.Info("Habit completion changed", "id", id, "date", today, "completed", completed)
	return habit, nil
}

// Toggle flips today's completion of the habit.
func (s *Service) Toggle(ctx context.Context, id string) (models.Habit, error) {
	habit, err := s.mustGet(ctx, id)
	if err != nil {
		return models.Habit{}, err
	}
	return s.Complete(ctx, id, !habit.CompletedDates.Has(s.Today()))
}

func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.store.DeleteByID(ctx, id); err != nil {
		return err
	}
	logger.Info("Habit deleted", "id", id)
	return nil
}

func (s *Service) Get(ctx context.Context, id string) (models.Habit, bool, error) {
	return s.store.GetByID(ctx, id)
}

// Watch subscribes to every change of the habit list.
func (s *Service) Watch(ctx context.Context) (*storage.Subscription, error) {
	return s.store.ObserveAll(ctx)
}

// List returns the current habits, newest first.
func (s *Service) List(ctx context.Context) ([]models.Habit, error) {
	sub, err := s.store.ObserveAll(ctx)
	if err != nil {
		return nil, err
	}
	defer sub.Close()

	select {
	case snapshot, ok := <-sub.Updates():
		if !ok {
			if err := sub.Err(); err != nil {
				return nil, err
			}
			return nil, ctx.Err()
		}
		return snapshot, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (s *Service) Stats(ctx context.Context) (Stats, error) {
	habits, err := s.List(ctx)
	if err != nil {
		return Stats{}, err
	}
	return ComputeStats(habits, s.Now()), nil
}

func (s *Service) AtRisk(ctx context.Context) ([]RiskAssessment, error) {
	habits, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	return DetectAtRisk(habits, s.Now()), nil
}

// Nudge returns today's coaching message. It is built once per day and
// cached; refresh rebuilds it from the current habits.
func (s *Service) Nudge(ctx context.Context, refresh bool) (models.DailyNudge, error) {
	now := s.Now()
	date := formatDay(civilDay(now))

	if s.cache != nil && !refresh {
		if err := s.evictCoaching(ctx, now); err != nil {
			return models.DailyNudge{}, err
		}
		nudge, found, err := s.cache.GetNudge(ctx, date)
		if err != nil {
			return models.DailyNudge{}, err
		}
		if found {
			return nudge, nil
		}
	}

	habits, err := s.List(ctx)
	if err != nil {
		return models.DailyNudge{}, err
	}
	nudge := BuildNudge(habits, ComputeStats(habits, now), now)

	if s.cache != nil {
		if err := s.cache.SaveNudge(ctx, nudge); err != nil {
			return models.DailyNudge{}, err
		}
	}
	logger.Debug("Built daily nudge", "date", date)
	return nudge, nil
}

// Insight returns the summary of the current week, cached per week the
// same way as Nudge.
func (s *Service) Insight(ctx context.Context, refresh bool) (models.WeeklyInsight, error) {
	now := s.Now()
	weekOf := formatDay(mondayOf(civilDay(now)))

	if s.cache != nil && !refresh {
		if err := s.evictCoaching(ctx, now); err != nil {
			return models.WeeklyInsight{}, err
		}
		insight, found, err := s.cache.GetInsight(ctx, weekOf)
		if err != nil {
			return models.WeeklyInsight{}, err
		}
		if found {
			return insight, nil
		}
	}

	habits, err := s.List(ctx)
	if err != nil {
		return models.WeeklyInsight{}, err
	}
	insight := BuildInsight(habits, ComputeStats(habits, now), now)

	if s.cache != nil {
		if err := s.cache.SaveInsight(ctx, insight); err != nil {
			return models.WeeklyInsight{}, err
		}
	}
	logger.Debug("Built weekly insight", "week_of", weekOf)
	return insight, nil
}

func (s *Service) evictCoaching(ctx context.Context, now time.Time) error {
	cutoff := civilDay(now).AddDate(0, 0, -constants.CoachingRetentionDays)
	return s.cache.EvictCoaching(ctx, formatDay(cutoff))
}

func (s *Service) mustGet(ctx context.Context, id string) (models.Habit, error) {
	habit, found, err := s.store.GetByID(ctx, id)
	if err != nil {
		return models.Habit{}, err
	}
	if !found {
		return models.Habit{}, &storage.NotFoundError{ID: id}
	}
	return habit, nil
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
