package system

import (
	"errors"
	"fmt"
	"strings"

	"github.com/julianstephens/habitstore/internal/cli"
	"github.com/julianstephens/habitstore/internal/keyring"
	"github.com/julianstephens/habitstore/internal/storage/postgres"
)

type ConfigCmd struct {
	SetConnection    SetConnectionCmd    `cmd:"" help:"Store a PostgreSQL connection string in the OS keyring."`
	ShowConnection   ShowConnectionCmd   `cmd:"" help:"Show the stored connection string with the password masked."`
	DeleteConnection DeleteConnectionCmd `cmd:"" help:"Remove the stored connection string."`
}

type SetConnectionCmd struct {
	ConnectionString string `arg:"" help:"PostgreSQL connection string to store in keyring."`
}

func (cmd *SetConnectionCmd) Run(ctx *cli.Context) error {
	if !postgres.IsConnString(cmd.ConnectionString) && !strings.Contains(cmd.ConnectionString, "host=") {
		return errors.New("connection string must be a valid PostgreSQL connection string")
	}

	if err := postgres.ValidateConnString(cmd.ConnectionString); err != nil {
		if !errors.Is(err, postgres.ErrEmbeddedCredentials) {
			return fmt.Errorf("invalid connection string: %w", err)
		}
		// The keyring is encrypted, so a password is acceptable here
		ctx.Println("⚠️  Connection string contains a password; it will be kept in the encrypted OS keyring.")
	}

	if err := keyring.SetConnectionString(cmd.ConnectionString); err != nil {
		return err
	}

	ctx.Println("✓ Connection string stored in OS keyring")
	ctx.Println("  Pass --db postgres://<host>/<db> (without a password) to use it")
	return nil
}

type ShowConnectionCmd struct{}

func (cmd *ShowConnectionCmd) Run(ctx *cli.Context) error {
	connStr, err := keyring.GetConnectionString()
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return errors.New("no connection string found in keyring; use 'habitstore config set-connection' to store one")
		}
		return err
	}

	ctx.Println(keyring.MaskPassword(connStr))
	return nil
}

type DeleteConnectionCmd struct{}

func (cmd *DeleteConnectionCmd) Run(ctx *cli.Context) error {
	if err := keyring.DeleteConnectionString(); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return errors.New("no connection string found in keyring")
		}
		return err
	}

	ctx.Println("✓ Connection string deleted from OS keyring")
	return nil
}
