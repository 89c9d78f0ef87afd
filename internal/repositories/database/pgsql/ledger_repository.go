package pgsql

import (
	"context"
	"fmt"
	"time"

	"github.com/SscSPs/escrow_ledger_app/internal/apperrors"
	"github.com/SscSPs/escrow_ledger_app/internal/core/domain"
	portsrepo "github.com/SscSPs/escrow_ledger_app/internal/core/ports/repositories"
	"github.com/SscSPs/escrow_ledger_app/internal/models"
	"github.com/SscSPs/escrow_ledger_app/internal/utils/mapping"
)

const entryColumns = `entry_id, sequence, debit_account_id, credit_account_id, amount, currency_code, description, category, subcategory, external_reference, status, status_reason, entry_hash, previous_hash, reverses_entry_id, reversed_by_entry_id, created_at, created_by, last_updated_at, last_updated_by`

type PgxLedgerRepository struct {
	db querier
	*PgxChainRepository
}

func newPgxLedgerRepository(db querier) *PgxLedgerRepository {
	return &PgxLedgerRepository{db: db, PgxChainRepository: newPgxChainRepository(db)}
}

var (
	_ portsrepo.LedgerReader       = (*PgxLedgerRepository)(nil)
	_ portsrepo.LedgerTxRepository = (*PgxLedgerRepository)(nil)
)

func scanEntry(row rowScanner) (domain.LedgerEntry, error) {
	var m models.LedgerEntry
	err := row.Scan(
		&m.EntryID,
		&m.Sequence,
		&m.DebitAccountID,
		&m.CreditAccountID,
		&m.Amount,
		&m.CurrencyCode,
		&m.Description,
		&m.Category,
		&m.Subcategory,
		&m.ExternalReference,
		&m.Status,
		&m.StatusReason,
		&m.EntryHash,
		&m.PreviousHash,
		&m.ReversesEntryID,
		&m.ReversedByEntryID,
		&m.CreatedAt,
		&m.CreatedBy,
		&m.LastUpdatedAt,
		&m.LastUpdatedBy,
	)
	if err != nil {
		return domain.LedgerEntry{}, err
	}
	return mapping.ToDomainLedgerEntry(m), nil
}

func (r *PgxLedgerRepository) FindEntryByID(ctx context.Context, entryID string) (*domain.LedgerEntry, error) {
	query := `SELECT ` + entryColumns + ` FROM ledger_entries WHERE entry_id = $1;`
	entry, err := scanEntry(r.db.QueryRow(ctx, query, entryID))
	if err != nil {
		return nil, wrapReadError(err, "ledger entry %s", entryID)
	}
	return &entry, nil
}

func (r *PgxLedgerRepository) ListEntries(ctx context.Context, afterSequence int64, limit int, accountID string) ([]domain.LedgerEntry, error) {
	query := `
		SELECT ` + entryColumns + `
		FROM ledger_entries
		WHERE sequence > $1 AND ($3 = '' OR debit_account_id = $3 OR credit_account_id = $3)
		ORDER BY sequence
		LIMIT $2;
	`
	rows, err := r.db.Query(ctx, query, afterSequence, limit, accountID)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to query ledger entries: %v", apperrors.ErrInternal, err)
	}
	defer rows.Close()

	entries := []domain.LedgerEntry{}
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to scan ledger entry row: %v", apperrors.ErrInternal, err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: error iterating ledger entry rows: %v", apperrors.ErrInternal, err)
	}
	return entries, nil
}

func (r *PgxLedgerRepository) InsertEntry(ctx context.Context, entry domain.LedgerEntry) error {
	m := mapping.ToModelLedgerEntry(entry)
	query := `
		INSERT INTO ledger_entries (` + entryColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20);
	`
	_, err := r.db.Exec(ctx, query,
		m.EntryID,
		m.Sequence,
		m.DebitAccountID,
		m.CreditAccountID,
		m.Amount,
		m.CurrencyCode,
		m.Description,
		m.Category,
		m.Subcategory,
		m.ExternalReference,
		m.Status,
		m.StatusReason,
		m.EntryHash,
		m.PreviousHash,
		m.ReversesEntryID,
		m.ReversedByEntryID,
		m.CreatedAt,
		m.CreatedBy,
		m.LastUpdatedAt,
		m.LastUpdatedBy,
	)
	if err != nil {
		return wrapWriteError(err, "ledger entry %s", m.EntryID)
	}
	return nil
}

func (r *PgxLedgerRepository) FindEntryForUpdate(ctx context.Context, entryID string) (*domain.LedgerEntry, error) {
	query := `SELECT ` + entryColumns + ` FROM ledger_entries WHERE entry_id = $1 FOR UPDATE;`
	entry, err := scanEntry(r.db.QueryRow(ctx, query, entryID))
	if err != nil {
		return nil, wrapReadError(err, "ledger entry %s", entryID)
	}
	return &entry, nil
}

func (r *PgxLedgerRepository) UpdateEntryStatus(ctx context.Context, entryID string, status domain.EntryStatus, reason string, reversedByEntryID string, userID string, now time.Time) error {
	query := `
		UPDATE ledger_entries
		SET status = $2, status_reason = $3, reversed_by_entry_id = $4, last_updated_at = $5, last_updated_by = $6
		WHERE entry_id = $1;
	`
	var reversedBy any
	if reversedByEntryID != "" {
		reversedBy = reversedByEntryID
	}
	cmdTag, err := r.db.Exec(ctx, query, entryID, string(status), reason, reversedBy, now, userID)
	if err != nil {
		return wrapWriteError(err, "ledger entry %s", entryID)
	}
	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("%w: ledger entry %s", apperrors.ErrNotFound, entryID)
	}
	return nil
}
