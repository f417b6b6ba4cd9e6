// Package cli provides the contentctl administration commands.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/kiranshivaraju/contentgen/internal/config"
	"github.com/kiranshivaraju/contentgen/internal/store"
	"github.com/spf13/cobra"
)

// Version is set at build time.
var Version = "0.1.0"

// Env supplies the side effects the commands need. Tests replace OpenStore
// with an in-memory store.
type Env struct {
	Out io.Writer

	// DatabaseURL returns the Postgres URL used by the migrate commands.
	DatabaseURL func() (string, error)

	// OpenStore returns the store and a cleanup func.
	OpenStore func(ctx context.Context) (store.Store, func(), error)
}

// DefaultEnv reads DATABASE_URL and friends from the environment.
func DefaultEnv() Env {
	return Env{
		Out: os.Stdout,
		DatabaseURL: func() (string, error) {
			db, err := config.LoadDatabase()
			return db.URL, err
		},
		OpenStore: openPostgres,
	}
}

func openPostgres(ctx context.Context) (store.Store, func(), error) {
	db, err := config.LoadDatabase()
	if err != nil {
		return nil, nil, err
	}
	pool, err := store.Connect(ctx, db)
	if err != nil {
		return nil, nil, fmt.Errorf("connect database: %w", err)
	}
	return store.NewPostgresStore(pool), pool.Close, nil
}

// NewRootCmd builds the contentctl command tree.
func NewRootCmd(env Env) *cobra.Command {
	if env.Out == nil {
		env.Out = os.Stdout
	}

	root := &cobra.Command{
		Use:   "contentctl",
		Short: "Administer a ContentGen deployment",
		Long: `contentctl manages the ContentGen database: schema migrations,
per-tenant API keys and video job inspection.

Connection settings come from DATABASE_URL (a .env file is honoured).`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(env.Out)

	root.AddCommand(
		newMigrateCmd(env),
		newKeysCmd(env),
		newJobsCmd(env),
	)
	return root
}

// withStore opens the store for the duration of fn.
func withStore(ctx context.Context, env Env, fn func(store.Store) error) error {
	st, closeFn, err := env.OpenStore(ctx)
	if err != nil {
		return err
	}
	defer closeFn()
	return fn(st)
}
