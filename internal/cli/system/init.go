package system

import (
	"fmt"
	"os"

	"github.com/julianstephens/habitstore/internal/backup"
	"github.com/julianstephens/habitstore/internal/cli"
	"github.com/julianstephens/habitstore/internal/logger"
	"github.com/julianstephens/habitstore/internal/storage/postgres"
)

type InitCmd struct {
	Force bool `help:"Back up and delete the existing SQLite database before initialization."`
}

func (c *InitCmd) Run(ctx *cli.Context) error {
	if c.Force {
		if _, isPostgres := ctx.Store.(*postgres.Store); isPostgres {
			return fmt.Errorf("--force is only supported for SQLite databases")
		}

		dbPath := ctx.Store.GetConfigPath()
		if _, err := os.Stat(dbPath); err == nil {
			if saved, err := backup.NewManager(dbPath).Create(); err != nil {
				logger.Warn("Backup before reset failed", "error", err)
				ctx.Printf("Warning: could not back up existing database: %v\n", err)
			} else {
				ctx.Printf("Saved existing database as: %s\n", saved)
			}

			// Close first to release the file before deleting it
			if err := ctx.Store.Close(); err != nil {
				return fmt.Errorf("failed to close existing database: %w", err)
			}
			for _, path := range []string{dbPath, dbPath + "-wal", dbPath + "-shm"} {
				if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
					return fmt.Errorf("failed to delete existing database: %w", err)
				}
			}
			ctx.Printf("Deleted existing database at: %s\n", dbPath)
		} else if !os.IsNotExist(err) {
			return fmt.Errorf("failed to access existing database: %w", err)
		}
	}

	if err := ctx.Store.Init(); err != nil {
		return err
	}
	ctx.Printf("Initialized habitstore storage at: %s\n", ctx.Store.GetConfigPath())
	return nil
}
