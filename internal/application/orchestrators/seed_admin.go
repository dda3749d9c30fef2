package orchestrators

import (
	"context"
	"log/slog"
	"time"

	domain "slate/internal/domain/account"
)

// SeedAdminInput carries input for the seed admin orchestrator.
type SeedAdminInput struct {
	Email    string
	Password string
}

// SeedAdminDeps holds dependencies for SeedAdmin.
type SeedAdminDeps struct {
	AccountStore AccountStoreForOrchestrator
	GenerateID   func() string
	Now          func() time.Time
}

// ExecuteSeedAdmin creates the initial admin account when the account table is
// empty. Re-running against a populated database is a no-op, so the call is
// safe on every startup.
// PRE: Email and Password come from deployment configuration
// POST: At least one admin account exists, or input was empty and nothing changed
func ExecuteSeedAdmin(ctx context.Context, input SeedAdminInput, deps SeedAdminDeps) error {
	if input.Email == "" || input.Password == "" {
		slog.Info("seed_event", "event", "seed_skipped", "reason", "no_credentials_configured")
		return nil
	}

	count, err := deps.AccountStore.Count(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	acct := domain.Account{
		ID:        deps.GenerateID(),
		Email:     input.Email,
		Role:      domain.RoleAdmin,
		CreatedAt: deps.Now(),
	}
	if err := acct.SetPassword(input.Password); err != nil {
		return err
	}
	if err := acct.Validate(); err != nil {
		return err
	}
	if err := deps.AccountStore.Save(ctx, acct); err != nil {
		return err
	}

	slog.Info("seed_event", "event", "admin_seeded", "account_id", acct.ID, "email", acct.Email)
	return nil
}
