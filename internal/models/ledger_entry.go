package models

import "database/sql"

// LedgerEntry is a row of the ledger_entries table.
type LedgerEntry struct {
	EntryID           string         `db:"entry_id"`
	Sequence          int64          `db:"sequence"`
	DebitAccountID    string         `db:"debit_account_id"`
	CreditAccountID   string         `db:"credit_account_id"`
	Amount            int64          `db:"amount"`
	CurrencyCode      string         `db:"currency_code"`
	Description       string         `db:"description"`
	Category          string         `db:"category"`
	Subcategory       string         `db:"subcategory"`
	ExternalReference string         `db:"external_reference"`
	Status            string         `db:"status"`
	StatusReason      string         `db:"status_reason"`
	EntryHash         string         `db:"entry_hash"`
	PreviousHash      string         `db:"previous_hash"`
	ReversesEntryID   sql.NullString `db:"reverses_entry_id"`
	ReversedByEntryID sql.NullString `db:"reversed_by_entry_id"`
	AuditFields
}

// ChainHead is a row of the chain_heads table.
type ChainHead struct {
	Chain    string `db:"chain"`
	Sequence int64  `db:"sequence"`
	Hash     string `db:"hash"`
}
