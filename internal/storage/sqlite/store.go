package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite"

	"github.com/julianstephens/habitstore/internal/constants"
	"github.com/julianstephens/habitstore/internal/logger"
	"github.com/julianstephens/habitstore/internal/migration"
	"github.com/julianstephens/habitstore/internal/storage"
	"github.com/julianstephens/habitstore/migrations"
)

type Store struct {
	path    string
	db      *sql.DB
	tracker *storage.Tracker

	pollMu sync.Mutex
	poller *poller
}

func NewStore(path string) *Store {
	return &Store{
		path:    path,
		tracker: storage.NewTracker(),
	}
}

// dsn adds the pragmas every connection in the pool needs. Write
// transactions take the write lock on BEGIN so concurrent writers wait on
// busy_timeout instead of failing mid-transaction.
func (s *Store) dsn() string {
	q := url.Values{}
	q.Add("_pragma", fmt.Sprintf("busy_timeout(%d)", constants.SQLiteBusyTimeoutMs))
	q.Add("_pragma", "journal_mode(WAL)")
	q.Set("_txlock", "immediate")
	return "file:" + s.path + "?" + q.Encode()
}

func (s *Store) open() error {
	if s.db != nil {
		return nil
	}
	db, err := sql.Open("sqlite", s.dsn())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return fmt.Errorf("failed to open database: %w", err)
	}
	s.db = db
	return nil
}

func (s *Store) Init() error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := s.open(); err != nil {
		return err
	}

	if _, err := s.Migrate(func(msg string) { logger.Info(msg) }); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

func (s *Store) Load() error {
	if s.db != nil {
		return nil
	}

	if _, err := os.Stat(s.path); os.IsNotExist(err) {
		return storage.ErrNotLoaded
	}

	if err := s.open(); err != nil {
		return err
	}

	runner, err := s.runner()
	if err != nil {
		return err
	}
	return runner.ValidateVersion()
}

// Migrate applies pending migrations, opening the database if needed.
func (s *Store) Migrate(logFn func(string)) (int, error) {
	if err := s.open(); err != nil {
		return 0, err
	}
	runner, err := s.runner()
	if err != nil {
		return 0, err
	}
	return runner.ApplyMigrations(logFn)
}

func (s *Store) runner() (*migration.Runner, error) {
	subFS, err := fs.Sub(migrations.FS, "sqlite")
	if err != nil {
		return nil, fmt.Errorf("failed to access sqlite migrations: %w", err)
	}
	return migration.NewRunner(s.db, subFS, migration.DriverSQLite), nil
}

// watchExternal starts polling for commits from other connections. It is
// started by the first subscription and runs until Close.
func (s *Store) watchExternal() error {
	s.pollMu.Lock()
	defer s.pollMu.Unlock()

	if s.poller != nil {
		return nil
	}
	p, err := startPoller(s.db, constants.SQLitePollInterval, func() {
		s.tracker.Notify(constants.HabitsTable)
	})
	if err != nil {
		return err
	}
	s.poller = p
	return nil
}

func (s *Store) currentPoller() *poller {
	s.pollMu.Lock()
	defer s.pollMu.Unlock()
	return s.poller
}

// withWriteTx runs fn in a write transaction that the poller will not
// report as an external change.
func (s *Store) withWriteTx(ctx context.Context, fn func(*sql.Tx) error) error {
	p := s.currentPoller()
	if p == nil {
		return storage.WithTx(ctx, s.db, fn)
	}
	return p.write(func() error {
		return storage.WithTx(ctx, s.db, fn)
	})
}

func (s *Store) Close() error {
	s.pollMu.Lock()
	p := s.poller
	s.poller = nil
	s.pollMu.Unlock()
	if p != nil {
		p.stop()
	}

	if s.db != nil {
		err := s.db.Close()
		s.db = nil
		return err
	}
	return nil
}

func (s *Store) GetConfigPath() string {
	return s.path
}

// GetDB returns the underlying database connection, or nil before Init or
// Load.
func (s *Store) GetDB() *sql.DB {
	return s.db
}
