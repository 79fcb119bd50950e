package app

import (
	"context"
	"os"

	"github.com/bobmcallan/corebank/internal/interfaces"
	"github.com/bobmcallan/corebank/internal/models"
	"golang.org/x/crypto/bcrypt"
)

const defaultAdminUsername = "admin"

// seed installs the RBAC baseline and, on an empty install, the first
// SUPERADMIN user. Re-running is a no-op apart from refreshing
// permission descriptions.
func (a *App) seed(ctx context.Context) error {
	return a.Store.InTx(ctx, func(tx interfaces.Store) error {
		if err := tx.Users().SeedRBAC(ctx, models.AllPermissions, models.RolePermissions); err != nil {
			return err
		}

		if _, err := tx.Users().GetByUsername(ctx, defaultAdminUsername); err == nil {
			return nil
		}

		password := os.Getenv("COREBANK_ADMIN_PASSWORD")
		if password == "" {
			if a.Config.IsProduction() {
				a.Logger.Warn().Msg("COREBANK_ADMIN_PASSWORD not set, skipping admin user seed")
				return nil
			}
			password = "admin-dev-password"
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return err
		}

		now := a.Clock.Now().UTC()
		admin := &models.User{
			Username:     defaultAdminUsername,
			Email:        "admin@corebank.local",
			PasswordHash: string(hash),
			Status:       models.UserActive,
			Roles:        []string{models.RoleSuperadmin},
			CreatedAt:    now,
			ModifiedAt:   now,
		}
		if err := tx.Users().Create(ctx, admin); err != nil {
			return err
		}
		a.Logger.Info().Str("username", defaultAdminUsername).Msg("Seeded initial admin user")
		return nil
	})
}
