package main

import (
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/sweetshop/inventory-api/internal/pkg/config"
	"github.com/sweetshop/inventory-api/pkg/logger"
)

const serviceName = "sweetshop"

// app carries what every subcommand needs once PersistentPreRunE has run.
type app struct {
	cfg *config.Config
	log zerolog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:          serviceName,
		Short:        "Sweet shop inventory API",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(cmd.Context())
			if err != nil {
				return err
			}
			a.cfg = cfg
			a.log = logger.Init(logger.Options{
				Level:   cfg.LogLevel,
				Pretty:  cfg.LogPretty,
				Service: serviceName,
				Env:     cfg.Env,
			})
			return nil
		},
	}

	root.AddCommand(
		newServeCmd(a),
		newMigrateCmd(a),
		newAdminCmd(a),
		newStockCmd(a),
	)
	return root
}
