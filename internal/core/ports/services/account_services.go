package services

import (
	"context"

	"github.com/SscSPs/escrow_ledger_app/internal/core/domain"
	"github.com/SscSPs/escrow_ledger_app/internal/dto"
)

// AccountReaderSvc defines read operations for the account registry
type AccountReaderSvc interface {
	GetAccount(ctx context.Context, accountID string) (*domain.Account, error)
	GetBalance(ctx context.Context, accountID string) (*domain.BalanceSnapshot, error)
	ListOwnerAccounts(ctx context.Context, ownerID string) ([]domain.Account, error)
}

// AccountWriterSvc defines write operations for the account registry.
// Balances are not writable here; they move only through ledger entries.
type AccountWriterSvc interface {
	CreateAccount(ctx context.Context, req dto.CreateAccountRequest, userID string) (*domain.Account, error)
	SetAccountStatus(ctx context.Context, accountID string, status domain.AccountStatus, userID string) (*domain.Account, error)
	SetBlockedAmount(ctx context.Context, accountID string, req dto.SetBlockedAmountRequest, userID string) (*domain.Account, error)

	// EnsureSystemAccount returns the system account of a type and currency, creating it if missing.
	EnsureSystemAccount(ctx context.Context, accountType domain.AccountType, currencyCode string) (*domain.Account, error)
}

// AccountSvcFacade combines all account-related service interfaces
type AccountSvcFacade interface {
	AccountReaderSvc
	AccountWriterSvc
}
