package orchestrators

import (
	"context"
	"errors"
	"log/slog"

	domain "slate/internal/domain/account"
)

// AccountStoreForOrchestrator defines the store interface needed by account orchestrators.
type AccountStoreForOrchestrator interface {
	GetByEmail(ctx context.Context, email string) (domain.Account, error)
	Save(ctx context.Context, value domain.Account) error
	Count(ctx context.Context) (int, error)
}

var (
	// ErrInvalidCredentials is returned for unknown emails and wrong passwords alike.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrAccountLocked is returned while a lockout window is active.
	ErrAccountLocked = errors.New("account is temporarily locked")
)

// LoginInput carries input for the login orchestrator.
type LoginInput struct {
	Email    string
	Password string
}

// LoginDeps holds dependencies for Login.
type LoginDeps struct {
	AccountStore AccountStoreForOrchestrator
}

// ExecuteLogin verifies credentials and maintains the failed-login counter.
// Unknown emails and wrong passwords return the same error so the response
// does not reveal which accounts exist.
// PRE: Email and Password are non-empty form values
// POST: On success the account's failed-login counter is reset
func ExecuteLogin(ctx context.Context, input LoginInput, deps LoginDeps) (domain.Account, error) {
	acct, err := deps.AccountStore.GetByEmail(ctx, input.Email)
	if err != nil {
		slog.Info("auth_event", "event", "login_failed", "reason", "unknown_email", "email", input.Email)
		return domain.Account{}, ErrInvalidCredentials
	}

	if acct.IsLocked() {
		slog.Warn("auth_event", "event", "login_rejected", "reason", "locked", "account_id", acct.ID)
		return domain.Account{}, ErrAccountLocked
	}

	if err := acct.CheckPassword(input.Password); err != nil {
		acct.RecordFailedLogin()
		if saveErr := deps.AccountStore.Save(ctx, acct); saveErr != nil {
			slog.Error("auth_event", "event", "login_counter_save_failed", "account_id", acct.ID, "error", saveErr)
		}
		slog.Info("auth_event", "event", "login_failed", "reason", "wrong_password", "account_id", acct.ID, "failed_logins", acct.FailedLogins)
		return domain.Account{}, ErrInvalidCredentials
	}

	if acct.FailedLogins > 0 || !acct.LockedUntil.IsZero() {
		acct.ResetFailedLogins()
		if saveErr := deps.AccountStore.Save(ctx, acct); saveErr != nil {
			slog.Error("auth_event", "event", "login_counter_save_failed", "account_id", acct.ID, "error", saveErr)
		}
	}

	slog.Info("auth_event", "event", "login_succeeded", "account_id", acct.ID, "role", acct.Role)
	return acct, nil
}
