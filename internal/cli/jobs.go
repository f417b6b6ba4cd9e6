package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/kiranshivaraju/contentgen/internal/store"
	"github.com/spf13/cobra"
)

func newJobsCmd(env Env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "Inspect video generation jobs",
	}

	get := &cobra.Command{
		Use:   "get <job_id>",
		Short: "Print a job record as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd.Context(), env, func(st store.Store) error {
				job, err := st.GetJob(cmd.Context(), args[0])
				if errors.Is(err, store.ErrNotFound) {
					return fmt.Errorf("job %s not found", args[0])
				}
				if err != nil {
					return fmt.Errorf("get job: %w", err)
				}
				enc := json.NewEncoder(env.Out)
				enc.SetIndent("", "  ")
				return enc.Encode(job)
			})
		},
	}

	cmd.AddCommand(get)
	return cmd
}
