package sqlite

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"github.com/julianstephens/habitstore/internal/logger"
)

// poller reports commits made by other connections, including other
// processes. PRAGMA data_version only moves when a different connection
// commits, so the poller keeps a connection of its own.
type poller struct {
	mu      sync.Mutex
	conn    *sql.Conn
	version int64

	cancel context.CancelFunc
	done   chan struct{}
}

func startPoller(db *sql.DB, interval time.Duration, onChange func()) (*poller, error) {
	ctx, cancel := context.WithCancel(context.Background())
	conn, err := db.Conn(ctx)
	if err != nil {
		cancel()
		return nil, err
	}

	p := &poller{conn: conn, cancel: cancel, done: make(chan struct{})}
	if p.version, err = p.read(ctx); err != nil {
		cancel()
		conn.Close()
		return nil, err
	}

	go p.run(ctx, interval, onChange)
	return p, nil
}

func (p *poller) read(ctx context.Context) (int64, error) {
	var version int64
	err := p.conn.QueryRowContext(ctx, "PRAGMA data_version").Scan(&version)
	return version, err
}

func (p *poller) run(ctx context.Context, interval time.Duration, onChange func()) {
	defer close(p.done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
		case <-ctx.Done():
			return
		}
		if p.changed(ctx) {
			logger.Debug("Detected external habit change")
			onChange()
		}
	}
}

func (p *poller) changed(ctx context.Context) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	version, err := p.read(ctx)
	if err != nil {
		if ctx.Err() == nil {
			logger.Debug("Failed to read data_version", "error", err)
		}
		return false
	}
	if version == p.version {
		return false
	}
	p.version = version
	return true
}

// write runs fn while holding the poller, then records the resulting
// version so the poller does not report the caller's own commit.
func (p *poller) write(fn func() error) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	err := fn()
	if version, readErr := p.read(context.Background()); readErr == nil {
		p.version = version
	}
	return err
}

func (p *poller) stop() {
	p.cancel()
	<-p.done

	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.conn.Close(); err != nil {
		logger.Debug("Failed to close poller connection", "error", err)
	}
}
