package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"farmoffice/internal/domain/auth"
	"farmoffice/internal/platform/db"
)

func newCreateUserCmd(c *cli) *cobra.Command {
	var input auth.NewUser
	cmd := &cobra.Command{
		Use:   "create-user",
		Short: "Create a user account",
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			if !auth.ValidRole(input.Role) {
				return fmt.Errorf("role must be %s or %s", auth.RoleAdmin, auth.RoleOperator)
			}
			if len(input.Password) < 6 {
				return fmt.Errorf("password must have at least 6 characters")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if c.cfg.DatabaseURL == "" {
				return errNoDatabase
			}
			pool, err := db.Connect(cmd.Context(), c.cfg)
			if err != nil {
				return fmt.Errorf("db connect: %w", err)
			}
			defer pool.Close()

			if input.Name == "" {
				input.Name = input.Login
			}
			svc := auth.NewService(auth.NewStore(pool), c.cfg.JWTSecret, c.cfg.TokenTTL)
			user, err := svc.CreateUser(cmd.Context(), input)
			if err != nil {
				return err
			}
			c.logger.Info("user created", zap.String("id", user.ID), zap.String("login", user.Login), zap.String("role", user.Role))
			fmt.Fprintf(cmd.OutOrStdout(), "created %s (%s)\n", user.Login, user.Role)
			return nil
		},
	}
	cmd.Flags().StringVar(&input.Login, "login", "", "login name")
	cmd.Flags().StringVar(&input.Password, "password", "", "initial password")
	cmd.Flags().StringVar(&input.Name, "name", "", "display name (defaults to the login)")
	cmd.Flags().StringVar(&input.Role, "role", auth.RoleOperator, "Admin or Operador")
	_ = cmd.MarkFlagRequired("login")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}
