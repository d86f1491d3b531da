package cli

import (
	"fmt"
	"time"

	"github.com/JonMunkholm/csvedit/internal/admin"
	"github.com/spf13/cobra"
)

func newPurgeCmd(env *Env) *cobra.Command {
	var (
		olderThan time.Duration
		all       bool
	)
	cmd := &cobra.Command{
		Use:   "purge",
		Short: "Delete idle editor sessions from the database",
		Long: `Delete sessions stored by the web editor in PostgreSQL.

By default sessions idle longer than SESSION_TTL are removed.
--all removes every session.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !env.cfg.Database.Enabled() {
				return admin.ErrMemoryStore
			}
			if all && cmd.Flags().Changed("older-than") {
				return fmt.Errorf("--all and --older-than are mutually exclusive")
			}

			age := env.cfg.Session.TTL
			switch {
			case all:
				age = 0
			case cmd.Flags().Changed("older-than"):
				if olderThan <= 0 {
					return fmt.Errorf("invalid --older-than %s: must be positive", olderThan)
				}
				age = olderThan
			}

			ctx := cmd.Context()
			store, closeStore, err := env.OpenStore(ctx, env.cfg)
			if err != nil {
				return err
			}
			defer closeStore()

			n, err := admin.Purge(ctx, store, age, time.Now())
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(env.Stdout, "purged %d sessions\n", n)
			return err
		},
	}
	cmd.Flags().DurationVar(&olderThan, "older-than", 0, "Idle time after which a session is removed (default SESSION_TTL)")
	cmd.Flags().BoolVar(&all, "all", false, "Remove every session")
	return cmd
}
