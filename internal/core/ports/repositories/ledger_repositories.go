package repositories

import (
	"context"
	"time"

	"github.com/SscSPs/escrow_ledger_app/internal/core/domain"
)

// LedgerReader defines read operations for ledger entries
type LedgerReader interface {
	FindEntryByID(ctx context.Context, entryID string) (*domain.LedgerEntry, error)

	// ListEntries returns up to limit entries with sequence > afterSequence in chain order.
	// When accountID is set only entries touching that account are returned.
	ListEntries(ctx context.Context, afterSequence int64, limit int, accountID string) ([]domain.LedgerEntry, error)

	ChainHeadReader
}

// LedgerTxRepository defines ledger writes inside a unit of work.
type LedgerTxRepository interface {
	InsertEntry(ctx context.Context, entry domain.LedgerEntry) error

	// FindEntryForUpdate loads an entry and locks its row.
	FindEntryForUpdate(ctx context.Context, entryID string) (*domain.LedgerEntry, error)

	// UpdateEntryStatus changes the mutable status columns of an entry.
	UpdateEntryStatus(ctx context.Context, entryID string, status domain.EntryStatus, reason string, reversedByEntryID string, userID string, now time.Time) error
}
