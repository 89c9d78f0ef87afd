package dto

import (
	"time"

	"github.com/SscSPs/escrow_ledger_app/internal/core/domain"
	"github.com/SscSPs/escrow_ledger_app/internal/utils"
)

// CreateAccountRequest defines the data needed to create a new account.
type CreateAccountRequest struct {
	AccountType  domain.AccountType `json:"accountType" binding:"required"`
	OwnerID      string             `json:"ownerID"` // Required unless IsSystem
	CurrencyCode string             `json:"currencyCode" binding:"required,iso4217"`
	IsSystem     bool               `json:"isSystem"`
}

// UpdateAccountStatusRequest activates or deactivates an account.
type UpdateAccountStatusRequest struct {
	Status domain.AccountStatus `json:"status" binding:"required,oneof=ACTIVE INACTIVE"`
}

// SetBlockedAmountRequest replaces the administrative hold on an account.
type SetBlockedAmountRequest struct {
	Amount int64  `json:"amount" binding:"gte=0"`
	Reason string `json:"reason" binding:"required"`
}

// AccountResponse defines the data returned for an account.
type AccountResponse struct {
	AccountID        string               `json:"accountID"`
	AccountType      domain.AccountType   `json:"accountType"`
	OwnerID          string               `json:"ownerID,omitempty"`
	CurrencyCode     string               `json:"currencyCode"`
	Balance          int64                `json:"balance"`
	BalanceFormatted string               `json:"balanceFormatted"`
	Pending          int64                `json:"pending"`
	Blocked          int64                `json:"blocked"`
	Available        int64                `json:"available"`
	Status           domain.AccountStatus `json:"status"`
	IsSystem         bool                 `json:"isSystem"`
	CreatedAt        time.Time            `json:"createdAt"`
	CreatedBy        string               `json:"createdBy"`
	LastUpdatedAt    time.Time            `json:"lastUpdatedAt"`
	LastUpdatedBy    string               `json:"lastUpdatedBy"`
}

// ToAccountResponse converts a domain.Account to AccountResponse DTO
func ToAccountResponse(acc *domain.Account) AccountResponse {
	return AccountResponse{
		AccountID:        acc.AccountID,
		AccountType:      acc.AccountType,
		OwnerID:          acc.OwnerID,
		CurrencyCode:     acc.CurrencyCode,
		Balance:          acc.Balance,
		BalanceFormatted: utils.FormatMinorUnits(acc.Balance, acc.CurrencyCode),
		Pending:          acc.Pending,
		Blocked:          acc.Blocked,
		Available:        acc.Available(),
		Status:           acc.Status,
		IsSystem:         acc.IsSystem,
		CreatedAt:        acc.CreatedAt,
		CreatedBy:        acc.CreatedBy,
		LastUpdatedAt:    acc.LastUpdatedAt,
		LastUpdatedBy:    acc.LastUpdatedBy,
	}
}

// ToListAccountResponse converts a slice of domain.Account to a slice of AccountResponse DTOs
func ToListAccountResponse(accounts []domain.Account) []AccountResponse {
	res := make([]AccountResponse, len(accounts))
	for i := range accounts {
		res[i] = ToAccountResponse(&accounts[i])
	}
	return res
}

// BalanceResponse defines the data returned for an account balance query.
type BalanceResponse struct {
	AccountID          string `json:"accountID"`
	CurrencyCode       string `json:"currencyCode"`
	Balance            int64  `json:"balance"`
	Pending            int64  `json:"pending"`
	Blocked            int64  `json:"blocked"`
	Available          int64  `json:"available"`
	AvailableFormatted string `json:"availableFormatted"`
}

func ToBalanceResponse(s *domain.BalanceSnapshot) BalanceResponse {
	return BalanceResponse{
		AccountID:          s.AccountID,
		CurrencyCode:       s.CurrencyCode,
		Balance:            s.Balance,
		Pending:            s.Pending,
		Blocked:            s.Blocked,
		Available:          s.Available,
		AvailableFormatted: utils.FormatMinorUnits(s.Available, s.CurrencyCode),
	}
}
