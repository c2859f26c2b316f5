package db

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"farmoffice/internal/domain/auth"
	"farmoffice/internal/platform/config"
)

// Seed creates the configured administrator when SEED_ADMIN_LOGIN is set and
// the login does not exist yet.
func Seed(ctx context.Context, pool *pgxpool.Pool, cfg config.Config, logger *zap.Logger) error {
	if cfg.SeedAdminLogin == "" {
		return nil
	}
	svc := auth.NewService(auth.NewStore(pool), cfg.JWTSecret, cfg.TokenTTL)
	created, err := svc.EnsureUser(ctx, auth.NewUser{
		Name:     cfg.SeedAdminName,
		Login:    cfg.SeedAdminLogin,
		Password: cfg.SeedAdminPassword,
		Role:     auth.RoleAdmin,
	})
	if err != nil {
		return err
	}
	if created {
		logger.Info("seeded admin user", zap.String("login", cfg.SeedAdminLogin))
	}
	return nil
}
