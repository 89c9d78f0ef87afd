package mapping

import (
	"github.com/SscSPs/escrow_ledger_app/internal/core/domain"
	"github.com/SscSPs/escrow_ledger_app/internal/models"
)

func ToModelLedgerEntry(d domain.LedgerEntry) models.LedgerEntry {
	return models.LedgerEntry{
		EntryID:           d.EntryID,
		Sequence:          d.Sequence,
		DebitAccountID:    d.DebitAccountID,
		CreditAccountID:   d.CreditAccountID,
		Amount:            d.Amount,
		CurrencyCode:      d.CurrencyCode,
		Description:       d.Description,
		Category:          d.Category,
		Subcategory:       d.Subcategory,
		ExternalReference: d.ExternalReference,
		Status:            string(d.Status),
		StatusReason:      d.StatusReason,
		EntryHash:         d.EntryHash,
		PreviousHash:      d.PreviousHash,
		ReversesEntryID:   nullString(d.ReversesEntryID),
		ReversedByEntryID: nullString(d.ReversedByEntryID),
		AuditFields:       ToModelAuditFields(d.AuditFields),
	}
}

func ToDomainLedgerEntry(m models.LedgerEntry) domain.LedgerEntry {
	return domain.LedgerEntry{
		EntryID:           m.EntryID,
		Sequence:          m.Sequence,
		DebitAccountID:    m.DebitAccountID,
		CreditAccountID:   m.CreditAccountID,
		Amount:            m.Amount,
		CurrencyCode:      m.CurrencyCode,
		Description:       m.Description,
		Category:          m.Category,
		Subcategory:       m.Subcategory,
		ExternalReference: m.ExternalReference,
		Status:            domain.EntryStatus(m.Status),
		StatusReason:      m.StatusReason,
		EntryHash:         m.EntryHash,
		PreviousHash:      m.PreviousHash,
		ReversesEntryID:   m.ReversesEntryID.String,
		ReversedByEntryID: m.ReversedByEntryID.String,
		AuditFields:       ToDomainAuditFields(m.AuditFields),
	}
}

func ToDomainChainHead(m models.ChainHead) domain.ChainHead {
	return domain.ChainHead{
		Chain:    domain.ChainName(m.Chain),
		Sequence: m.Sequence,
		Hash:     m.Hash,
	}
}
