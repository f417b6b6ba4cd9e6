package cli

import (
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	mw "github.com/kiranshivaraju/contentgen/internal/api/middleware"
	"github.com/kiranshivaraju/contentgen/internal/store"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
)

// hashCost is the bcrypt cost for new keys. Tests lower it.
var hashCost = bcrypt.DefaultCost

func newKeysCmd(env Env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keys",
		Short: "Manage tenant API keys",
	}
	cmd.AddCommand(newKeysCreateCmd(env), newKeysListCmd(env), newKeysRevokeCmd(env))
	return cmd
}

func newKeysCreateCmd(env Env) *cobra.Command {
	var (
		tenant string
		name   string
		scopes []string
	)
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Issue a new API key for a tenant",
		Long: `Issue a new API key for a tenant.

The raw key is printed once. Only its bcrypt hash is stored.

Examples:
  contentctl keys create --tenant acme --name ci
  contentctl keys create --tenant acme --name readonly --scopes ""`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			key, raw, err := mw.IssueAPIKey(tenant, name, scopes, hashCost)
			if err != nil {
				return err
			}
			return withStore(cmd.Context(), env, func(st store.Store) error {
				if err := st.CreateAPIKey(cmd.Context(), key); err != nil {
					return fmt.Errorf("create key: %w", err)
				}
				fmt.Fprintf(env.Out, "id:      %s\n", key.ID)
				fmt.Fprintf(env.Out, "tenant:  %s\n", key.TenantID)
				fmt.Fprintf(env.Out, "key:     %s\n", raw)
				fmt.Fprintln(env.Out, "Store this key now. It cannot be shown again.")
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&tenant, "tenant", "", "tenant that owns the key (required)")
	cmd.Flags().StringVar(&name, "name", "default", "human readable key name")
	cmd.Flags().StringSliceVar(&scopes, "scopes", []string{"generate"}, "comma separated scopes")
	_ = cmd.MarkFlagRequired("tenant")
	return cmd
}

func newKeysListCmd(env Env) *cobra.Command {
	var tenant string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List active keys for a tenant",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withStore(cmd.Context(), env, func(st store.Store) error {
				keys, err := st.ListAPIKeys(cmd.Context(), tenant)
				if err != nil {
					return fmt.Errorf("list keys: %w", err)
				}
				if len(keys) == 0 {
					fmt.Fprintf(env.Out, "No keys for tenant %s.\n", tenant)
					return nil
				}
				tw := tabwriter.NewWriter(env.Out, 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "ID\tNAME\tPREFIX\tSCOPES\tLAST USED")
				for _, k := range keys {
					lastUsed := "never"
					if k.LastUsedAt != nil {
						lastUsed = k.LastUsedAt.Format(time.RFC3339)
					}
					fmt.Fprintf(tw, "%s\t%s\t%s\t%v\t%s\n", k.ID, k.Name, k.KeyPrefix, k.Scopes, lastUsed)
				}
				return tw.Flush()
			})
		},
	}
	cmd.Flags().StringVar(&tenant, "tenant", "", "tenant to list (required)")
	_ = cmd.MarkFlagRequired("tenant")
	return cmd
}

func newKeysRevokeCmd(env Env) *cobra.Command {
	var tenant string
	cmd := &cobra.Command{
		Use:   "revoke <id>",
		Short: "Revoke a key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid key id %q: %w", args[0], err)
			}
			return withStore(cmd.Context(), env, func(st store.Store) error {
				err := st.RevokeAPIKey(cmd.Context(), id, tenant)
				if errors.Is(err, store.ErrNotFound) {
					return fmt.Errorf("key %s not found for tenant %s", id, tenant)
				}
				if err != nil {
					return fmt.Errorf("revoke key: %w", err)
				}
				fmt.Fprintf(env.Out, "revoked %s\n", id)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&tenant, "tenant", "", "tenant that owns the key (required)")
	_ = cmd.MarkFlagRequired("tenant")
	return cmd
}
