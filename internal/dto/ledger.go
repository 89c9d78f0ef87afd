package dto

import (
	"time"

	"github.com/SscSPs/escrow_ledger_app/internal/core/domain"
	"github.com/SscSPs/escrow_ledger_app/internal/utils"
)

// CreateEntryRequest is the entry-creation contract consumed by surrounding business modules.
type CreateEntryRequest struct {
	DebitAccountID    string `json:"debitAccountId" binding:"required"`
	CreditAccountID   string `json:"creditAccountId" binding:"required"`
	Amount            uint64 `json:"amount" binding:"required,gt=0"`
	CurrencyCode      string `json:"currency" binding:"required,iso4217"`
	Description       string `json:"description" binding:"required,max=500"`
	Category          string `json:"category" binding:"required,ledger_code"`
	Subcategory       string `json:"subcategory" binding:"omitempty,ledger_code"`
	ExternalReference string `json:"externalReference" binding:"max=200"`
	CreatedBy         string `json:"-"` // Set from the authenticated caller
	RequiresApproval  bool   `json:"requiresApproval"`
}

// EntryReasonRequest carries the reason for reversing or rejecting an entry.
type EntryReasonRequest struct {
	Reason string `json:"reason" binding:"required,max=500"`
}

// ListEntriesParams defines query parameters for listing entries in chain order.
type ListEntriesParams struct {
	AccountID string `form:"accountId"`
	Limit     int    `form:"limit"`
	NextToken string `form:"nextToken"`
}

type EntryResponse struct {
	EntryID           string             `json:"id"`
	Sequence          int64              `json:"sequence"`
	DebitAccountID    string             `json:"debitAccountId"`
	CreditAccountID   string             `json:"creditAccountId"`
	Amount            int64              `json:"amount"`
	AmountFormatted   string             `json:"amountFormatted"`
	CurrencyCode      string             `json:"currency"`
	Description       string             `json:"description"`
	Category          string             `json:"category"`
	Subcategory       string             `json:"subcategory,omitempty"`
	ExternalReference string             `json:"externalReference,omitempty"`
	Status            domain.EntryStatus `json:"status"`
	StatusReason      string             `json:"statusReason,omitempty"`
	EntryHash         string             `json:"entryHash"`
	PreviousHash      string             `json:"previousHash"`
	ReversesEntryID   string             `json:"reversesEntryId,omitempty"`
	ReversedByEntryID string             `json:"reversedByEntryId,omitempty"`
	CreatedBy         string             `json:"createdBy"`
	CreatedAt         time.Time          `json:"createdAt"`
	LastUpdatedAt     time.Time          `json:"lastUpdatedAt"`
	LastUpdatedBy     string             `json:"lastUpdatedBy"`
}

func ToEntryResponse(e *domain.LedgerEntry) EntryResponse {
	return EntryResponse{
		EntryID:           e.EntryID,
		Sequence:          e.Sequence,
		DebitAccountID:    e.DebitAccountID,
		CreditAccountID:   e.CreditAccountID,
		Amount:            e.Amount,
		AmountFormatted:   utils.FormatMinorUnits(e.Amount, e.CurrencyCode),
		CurrencyCode:      e.CurrencyCode,
		Description:       e.Description,
		Category:          e.Category,
		Subcategory:       e.Subcategory,
		ExternalReference: e.ExternalReference,
		Status:            e.Status,
		StatusReason:      e.StatusReason,
		EntryHash:         e.EntryHash,
		PreviousHash:      e.PreviousHash,
		ReversesEntryID:   e.ReversesEntryID,
		ReversedByEntryID: e.ReversedByEntryID,
		CreatedBy:         e.CreatedBy,
		CreatedAt:         e.CreatedAt,
		LastUpdatedAt:     e.LastUpdatedAt,
		LastUpdatedBy:     e.LastUpdatedBy,
	}
}

// ListEntriesResponse is one page of entries plus the token for the next page.
type ListEntriesResponse struct {
	Entries   []EntryResponse `json:"entries"`
	NextToken *string         `json:"nextToken,omitempty"`
}
