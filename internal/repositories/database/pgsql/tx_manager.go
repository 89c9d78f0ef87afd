package pgsql

import (
	"context"
	"fmt"

	"github.com/SscSPs/escrow_ledger_app/internal/apperrors"
	portsrepo "github.com/SscSPs/escrow_ledger_app/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgxTransactionManager runs units of work in READ COMMITTED transactions.
// Isolation comes from the explicit row locks the repositories take.
type PgxTransactionManager struct {
	BaseRepository
}

func newPgxTransactionManager(pool *pgxpool.Pool) *PgxTransactionManager {
	return &PgxTransactionManager{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.TransactionManager = (*PgxTransactionManager)(nil)

// pgxTxRepositories binds every repository to one pgx.Tx.
type pgxTxRepositories struct {
	owners   *PgxOwnerRepository
	accounts *PgxAccountRepository
	ledger   *PgxLedgerRepository
	chains   *PgxChainRepository
	audit    *PgxAuditRepository
	escrows  *PgxEscrowRepository
	hooks    []func()
}

func newPgxTxRepositories(tx pgx.Tx) *pgxTxRepositories {
	return &pgxTxRepositories{
		owners:   newPgxOwnerRepository(tx),
		accounts: newPgxAccountRepository(tx),
		ledger:   newPgxLedgerRepository(tx),
		chains:   newPgxChainRepository(tx),
		audit:    newPgxAuditRepository(tx),
		escrows:  newPgxEscrowRepository(tx),
	}
}

func (t *pgxTxRepositories) Owners() portsrepo.OwnerTxRepository     { return t.owners }
func (t *pgxTxRepositories) Accounts() portsrepo.AccountTxRepository { return t.accounts }
func (t *pgxTxRepositories) Ledger() portsrepo.LedgerTxRepository    { return t.ledger }
func (t *pgxTxRepositories) Chains() portsrepo.ChainTxRepository     { return t.chains }
func (t *pgxTxRepositories) Audit() portsrepo.AuditTxRepository      { return t.audit }
func (t *pgxTxRepositories) Escrows() portsrepo.EscrowTxRepository   { return t.escrows }

func (t *pgxTxRepositories) AfterCommit(fn func()) {
	t.hooks = append(t.hooks, fn)
}

func (m *PgxTransactionManager) RunInTx(ctx context.Context, fn func(ctx context.Context, tx portsrepo.TxRepositories) error) (err error) {
	tx, err := m.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if p := recover(); p != nil {
			_ = m.Rollback(context.WithoutCancel(ctx), tx)
			panic(p)
		}
		if err != nil {
			if rbErr := m.Rollback(context.WithoutCancel(ctx), tx); rbErr != nil {
				err = fmt.Errorf("%w (rollback also failed: %v)", err, rbErr)
			}
		}
	}()

	repos := newPgxTxRepositories(tx)
	if err = fn(ctx, repos); err != nil {
		return err
	}
	if err = m.Commit(ctx, tx); err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrInternal, err)
	}
	for _, hook := range repos.hooks {
		hook()
	}
	return nil
}
