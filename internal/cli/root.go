package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/julianstephens/habitstore/internal/habits"
	"github.com/julianstephens/habitstore/internal/keyring"
	"github.com/julianstephens/habitstore/internal/logger"
	"github.com/julianstephens/habitstore/internal/models"
	"github.com/julianstephens/habitstore/internal/storage"
	"github.com/julianstephens/habitstore/internal/storage/postgres"
	"github.com/julianstephens/habitstore/internal/storage/sqlite"
)

type Context struct {
	Store  storage.HabitStore
	Habits *habits.Service
	Out    io.Writer
}

func NewContext(store storage.HabitStore, opts ...habits.Option) *Context {
	return &Context{
		Store:  store,
		Habits: habits.NewService(store, opts...),
		Out:    os.Stdout,
	}
}

func (c *Context) Printf(format string, args ...any) {
	fmt.Fprintf(c.Out, format, args...)
}

func (c *Context) Println(args ...any) {
	fmt.Fprintln(c.Out, args...)
}

// ExpandPath replaces a leading ~ with the user's home directory.
func ExpandPath(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}

// OpenStore picks the backend for target. A postgres:// or postgresql://
// URL selects PostgreSQL; anything else is a SQLite file path. PostgreSQL
// URLs must not carry a password; when the OS keyring holds a connection
// string, that string is used instead.
func OpenStore(target string) (storage.HabitStore, error) {
	if !postgres.IsConnString(target) {
		return sqlite.NewStore(ExpandPath(target)), nil
	}

	if err := postgres.ValidateConnString(target); err != nil {
		if errors.Is(err, postgres.ErrEmbeddedCredentials) {
			return nil, fmt.Errorf("%w; store the full string with 'habitstore config set-connection' or use .pgpass", err)
		}
		return nil, err
	}

	connStr := target
	stored, err := keyring.GetConnectionString()
	switch {
	case err == nil:
		logger.Debug("Using connection string from keyring", "conn", keyring.MaskPassword(stored))
		connStr = stored
	case errors.Is(err, keyring.ErrNotFound):
	default:
		logger.Warn("Keyring lookup failed", "error", err)
	}

	return postgres.New(connStr), nil
}

// ResolveHabit finds a habit by full id or by a unique id prefix.
func (c *Context) ResolveHabit(ctx context.Context, idOrPrefix string) (models.Habit, error) {
	if idOrPrefix == "" {
		return models.Habit{}, models.ErrEmptyHabitID
	}

	habit, found, err := c.Habits.Get(ctx, idOrPrefix)
	if err != nil {
		return models.Habit{}, err
	}
	if found {
		return habit, nil
	}

	all, err := c.Habits.List(ctx)
	if err != nil {
		return models.Habit{}, err
	}

	var matches []models.Habit
	for _, h := range all {
		if strings.HasPrefix(h.ID, idOrPrefix) {
			matches = append(matches, h)
		}
	}

	switch len(matches) {
	case 0:
		return models.Habit{}, &storage.NotFoundError{ID: idOrPrefix}
	case 1:
		return matches[0], nil
	default:
		return models.Habit{}, fmt.Errorf("id prefix %q matches %d habits", idOrPrefix, len(matches))
	}
}

// ShortID is the id prefix shown in listings.
func ShortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
