package main

import (
	"github.com/spf13/cobra"
)

func newMigrateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the schema or indexes for the configured store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			st, err := openStores(ctx, a.cfg)
			if err != nil {
				return err
			}
			defer st.close(ctx)

			if err := st.migrate(ctx); err != nil {
				return err
			}
			a.log.Info().Str("driver", a.cfg.Store.Driver).Msg("store migrated")
			return nil
		},
	}
}
