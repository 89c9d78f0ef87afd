package repositories

import (
	"context"
	"time"

	"github.com/SscSPs/escrow_ledger_app/internal/core/domain"
)

// AccountReader defines read operations for account data
type AccountReader interface {
	// FindAccountByID retrieves a specific account by its unique identifier.
	FindAccountByID(ctx context.Context, accountID string) (*domain.Account, error)

	// FindAccountsByIDs retrieves multiple accounts by their IDs.
	FindAccountsByIDs(ctx context.Context, accountIDs []string) (map[string]domain.Account, error)

	// FindPrimaryAccount returns the oldest active non-system account of an owner in a currency.
	FindPrimaryAccount(ctx context.Context, ownerID string, currencyCode string) (*domain.Account, error)

	// FindSystemAccount returns the system account of the given type and currency.
	FindSystemAccount(ctx context.Context, accountType domain.AccountType, currencyCode string) (*domain.Account, error)

	// ListAccountsByOwner lists every account of an owner, oldest first.
	ListAccountsByOwner(ctx context.Context, ownerID string) ([]domain.Account, error)
}

// AccountTxRepository defines account writes inside a unit of work.
type AccountTxRepository interface {
	// InsertAccount persists a new account.
	InsertAccount(ctx context.Context, account domain.Account) error

	// LockAccounts selects accounts and locks them in ascending id order.
	// Unknown ids are absent from the result.
	LockAccounts(ctx context.Context, accountIDs []string) (map[string]domain.Account, error)

	// UpdateAccountBalances applies balance and pending deltas to locked accounts.
	UpdateAccountBalances(ctx context.Context, changes map[string]domain.BalanceChange, userID string, now time.Time) error

	UpdateAccountStatus(ctx context.Context, accountID string, status domain.AccountStatus, userID string, now time.Time) error
	UpdateBlockedAmount(ctx context.Context, accountID string, blocked int64, userID string, now time.Time) error
}
