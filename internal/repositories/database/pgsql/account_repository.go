package pgsql

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/SscSPs/escrow_ledger_app/internal/apperrors"
	"github.com/SscSPs/escrow_ledger_app/internal/core/domain"
	portsrepo "github.com/SscSPs/escrow_ledger_app/internal/core/ports/repositories"
	"github.com/SscSPs/escrow_ledger_app/internal/models"
	"github.com/SscSPs/escrow_ledger_app/internal/utils/mapping"
	"github.com/jackc/pgx/v5"
)

const accountColumns = `account_id, account_type, owner_id, currency_code, balance, pending, blocked, status, is_system, created_at, created_by, last_updated_at, last_updated_by`

type PgxAccountRepository struct {
	db querier
}

// newPgxAccountRepository creates a new repository for account data.
func newPgxAccountRepository(db querier) *PgxAccountRepository {
	return &PgxAccountRepository{db: db}
}

var (
	_ portsrepo.AccountReader       = (*PgxAccountRepository)(nil)
	_ portsrepo.AccountTxRepository = (*PgxAccountRepository)(nil)
)

func scanAccount(row rowScanner) (domain.Account, error) {
	var m models.Account
	err := row.Scan(
		&m.AccountID,
		&m.AccountType,
		&m.OwnerID,
		&m.CurrencyCode,
		&m.Balance,
		&m.Pending,
		&m.Blocked,
		&m.Status,
		&m.IsSystem,
		&m.CreatedAt,
		&m.CreatedBy,
		&m.LastUpdatedAt,
		&m.LastUpdatedBy,
	)
	if err != nil {
		return domain.Account{}, err
	}
	return mapping.ToDomainAccount(m), nil
}

func (r *PgxAccountRepository) queryAccounts(ctx context.Context, query string, args ...any) ([]domain.Account, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to query accounts: %v", apperrors.ErrInternal, err)
	}
	defer rows.Close()

	accounts := []domain.Account{}
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to scan account row: %v", apperrors.ErrInternal, err)
		}
		accounts = append(accounts, account)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: error iterating account rows: %v", apperrors.ErrInternal, err)
	}
	return accounts, nil
}

func toAccountMap(accounts []domain.Account) map[string]domain.Account {
	out := make(map[string]domain.Account, len(accounts))
	for _, a := range accounts {
		out[a.AccountID] = a
	}
	return out
}

// FindAccountByID retrieves an account by its ID.
func (r *PgxAccountRepository) FindAccountByID(ctx context.Context, accountID string) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE account_id = $1;`
	account, err := scanAccount(r.db.QueryRow(ctx, query, accountID))
	if err != nil {
		return nil, wrapReadError(err, "account %s", accountID)
	}
	return &account, nil
}

// FindAccountsByIDs retrieves multiple accounts by their IDs.
func (r *PgxAccountRepository) FindAccountsByIDs(ctx context.Context, accountIDs []string) (map[string]domain.Account, error) {
	if len(accountIDs) == 0 {
		return map[string]domain.Account{}, nil
	}
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE account_id = ANY($1);`
	accounts, err := r.queryAccounts(ctx, query, accountIDs)
	if err != nil {
		return nil, err
	}
	// The caller checks that every id it needs is present.
	return toAccountMap(accounts), nil
}

func (r *PgxAccountRepository) FindPrimaryAccount(ctx context.Context, ownerID string, currencyCode string) (*domain.Account, error) {
	query := `
		SELECT ` + accountColumns + `
		FROM accounts
		WHERE owner_id = $1 AND currency_code = $2 AND status = 'ACTIVE' AND NOT is_system
		ORDER BY created_at, account_id
		LIMIT 1;
	`
	account, err := scanAccount(r.db.QueryRow(ctx, query, ownerID, currencyCode))
	if err != nil {
		return nil, wrapReadError(err, "primary %s account of owner %s", currencyCode, ownerID)
	}
	return &account, nil
}

func (r *PgxAccountRepository) FindSystemAccount(ctx context.Context, accountType domain.AccountType, currencyCode string) (*domain.Account, error) {
	query := `
		SELECT ` + accountColumns + `
		FROM accounts
		WHERE is_system AND account_type = $1 AND currency_code = $2;
	`
	account, err := scanAccount(r.db.QueryRow(ctx, query, string(accountType), currencyCode))
	if err != nil {
		return nil, wrapReadError(err, "system account %s for %s", accountType, currencyCode)
	}
	return &account, nil
}

func (r *PgxAccountRepository) ListAccountsByOwner(ctx context.Context, ownerID string) ([]domain.Account, error) {
	query := `
		SELECT ` + accountColumns + `
		FROM accounts
		WHERE owner_id = $1
		ORDER BY created_at, account_id;
	`
	return r.queryAccounts(ctx, query, ownerID)
}

// InsertAccount persists a new account. A second system account of the same
// type and currency violates uq_accounts_system_type_currency.
func (r *PgxAccountRepository) InsertAccount(ctx context.Context, account domain.Account) error {
	m := mapping.ToModelAccount(account)
	query := `
		INSERT INTO accounts (` + accountColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13);
	`
	_, err := r.db.Exec(ctx, query,
		m.AccountID,
		m.AccountType,
		m.OwnerID,
		m.CurrencyCode,
		m.Balance,
		m.Pending,
		m.Blocked,
		m.Status,
		m.IsSystem,
		m.CreatedAt,
		m.CreatedBy,
		m.LastUpdatedAt,
		m.LastUpdatedBy,
	)
	if err != nil {
		return wrapWriteError(err, "account %s", m.AccountID)
	}
	return nil
}

// LockAccounts selects the accounts FOR UPDATE. Rows are locked in id order
// so that concurrent units of work never wait on each other in a cycle.
func (r *PgxAccountRepository) LockAccounts(ctx context.Context, accountIDs []string) (map[string]domain.Account, error) {
	if len(accountIDs) == 0 {
		return map[string]domain.Account{}, nil
	}
	ids := append([]string(nil), accountIDs...)
	sort.Strings(ids)

	query := `
		SELECT ` + accountColumns + `
		FROM accounts
		WHERE account_id = ANY($1)
		ORDER BY account_id
		FOR UPDATE;
	`
	accounts, err := r.queryAccounts(ctx, query, ids)
	if err != nil {
		return nil, err
	}
	return toAccountMap(accounts), nil
}

// UpdateAccountBalances applies balance and pending deltas to locked accounts in one batch.
func (r *PgxAccountRepository) UpdateAccountBalances(ctx context.Context, changes map[string]domain.BalanceChange, userID string, now time.Time) error {
	if len(changes) == 0 {
		return nil
	}
	query := `
		UPDATE accounts
		SET balance = balance + $2, pending = pending + $3, last_updated_at = $4, last_updated_by = $5
		WHERE account_id = $1;
	`
	accountIDs := make([]string, 0, len(changes))
	for id := range changes {
		accountIDs = append(accountIDs, id)
	}
	sort.Strings(accountIDs)

	batch := &pgx.Batch{}
	for _, id := range accountIDs {
		change := changes[id]
		batch.Queue(query, id, change.Balance, change.Pending, now, userID)
	}

	br := r.db.SendBatch(ctx, batch)
	var batchErr error
	for _, id := range accountIDs {
		ct, err := br.Exec()
		if err != nil {
			if batchErr == nil {
				batchErr = wrapWriteError(err, "balance of account %s", id)
			}
		} else if ct.RowsAffected() == 0 && batchErr == nil {
			batchErr = fmt.Errorf("%w: account %s not found during balance update", apperrors.ErrNotFound, id)
		}
	}
	if err := br.Close(); err != nil && batchErr == nil {
		batchErr = fmt.Errorf("%w: failed to close balance update batch: %v", apperrors.ErrInternal, err)
	}
	return batchErr
}

func (r *PgxAccountRepository) UpdateAccountStatus(ctx context.Context, accountID string, status domain.AccountStatus, userID string, now time.Time) error {
	query := `
		UPDATE accounts
		SET status = $2, last_updated_at = $3, last_updated_by = $4
		WHERE account_id = $1;
	`
	return r.updateAccount(ctx, accountID, query, string(status), now, userID)
}

func (r *PgxAccountRepository) UpdateBlockedAmount(ctx context.Context, accountID string, blocked int64, userID string, now time.Time) error {
	query := `
		UPDATE accounts
		SET blocked = $2, last_updated_at = $3, last_updated_by = $4
		WHERE account_id = $1;
	`
	return r.updateAccount(ctx, accountID, query, blocked, now, userID)
}

func (r *PgxAccountRepository) updateAccount(ctx context.Context, accountID string, query string, value any, now time.Time, userID string) error {
	cmdTag, err := r.db.Exec(ctx, query, accountID, value, now, userID)
	if err != nil {
		return wrapWriteError(err, "account %s", accountID)
	}
	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("%w: account %s", apperrors.ErrNotFound, accountID)
	}
	return nil
}
