package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sweetshop/inventory-api/internal/core/domain"
	"github.com/sweetshop/inventory-api/internal/core/ports"
	"github.com/sweetshop/inventory-api/internal/core/service"
	"github.com/sweetshop/inventory-api/internal/infrastructure/token"
)

func newAdminCmd(a *app) *cobra.Command {
	admin := &cobra.Command{
		Use:   "admin",
		Short: "Manage administrator identities",
	}

	var in ports.RegisterInput
	create := &cobra.Command{
		Use:   "create",
		Short: "Provision an ADMIN identity",
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

			auth := service.NewAuthService(st.users, token.NewJWTIssuer(a.cfg.Auth.JWTSecret, a.cfg.Auth.TokenTTL), a.log,
				service.WithRoleSelection(true),
				service.WithBcryptCost(a.cfg.Auth.BcryptCost),
			)
			in.Role = domain.RoleAdmin
			user, err := auth.Register(ctx, in)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created admin %s (%s) id=%s\n", user.Username, user.Email, user.ID)
			return nil
		},
	}
	create.Flags().StringVar(&in.Username, "username", "", "display name")
	create.Flags().StringVar(&in.Email, "email", "", "login email")
	create.Flags().StringVar(&in.Password, "password", "", "login password")
	for _, f := range []string{"username", "email", "password"} {
		_ = create.MarkFlagRequired(f)
	}

	admin.AddCommand(create)
	return admin
}
