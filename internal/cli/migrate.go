package cli

import (
	"fmt"

	"github.com/kiranshivaraju/contentgen/internal/store"
	"github.com/spf13/cobra"
)

func newMigrateCmd(env Env) *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or roll back database migrations",
	}
	cmd.PersistentFlags().StringVar(&dir, "dir", "migrations", "migrations directory")

	up := &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			url, err := env.DatabaseURL()
			if err != nil {
				return err
			}
			if err := store.RunMigrations(url, dir); err != nil {
				return err
			}
			fmt.Fprintln(env.Out, "migrations applied")
			return nil
		},
	}

	var steps int
	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back applied migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if steps <= 0 {
				return fmt.Errorf("--steps must be positive, got %d", steps)
			}
			url, err := env.DatabaseURL()
			if err != nil {
				return err
			}
			if err := store.RollbackMigrations(url, dir, steps); err != nil {
				return err
			}
			fmt.Fprintf(env.Out, "rolled back %d migration(s)\n", steps)
			return nil
		},
	}
	down.Flags().IntVar(&steps, "steps", 1, "number of migrations to roll back")

	version := &cobra.Command{
		Use:   "version",
		Short: "Print the applied schema version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			url, err := env.DatabaseURL()
			if err != nil {
				return err
			}
			v, dirty, err := store.MigrationVersion(url, dir)
			if err != nil {
				return err
			}
			if dirty {
				fmt.Fprintf(env.Out, "version %d (dirty)\n", v)
				return nil
			}
			fmt.Fprintf(env.Out, "version %d\n", v)
			return nil
		},
	}

	cmd.AddCommand(up, down, version)
	return cmd
}
