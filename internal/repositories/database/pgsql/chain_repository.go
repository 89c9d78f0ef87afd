package pgsql

import (
	"context"
	"fmt"

	"github.com/SscSPs/escrow_ledger_app/internal/apperrors"
	"github.com/SscSPs/escrow_ledger_app/internal/core/domain"
	portsrepo "github.com/SscSPs/escrow_ledger_app/internal/core/ports/repositories"
	"github.com/SscSPs/escrow_ledger_app/internal/models"
	"github.com/SscSPs/escrow_ledger_app/internal/utils/mapping"
)

// PgxChainRepository reads and advances the chain_heads rows.
type PgxChainRepository struct {
	db querier
}

func newPgxChainRepository(db querier) *PgxChainRepository {
	return &PgxChainRepository{db: db}
}

var (
	_ portsrepo.ChainHeadReader   = (*PgxChainRepository)(nil)
	_ portsrepo.ChainTxRepository = (*PgxChainRepository)(nil)
)

func (r *PgxChainRepository) FindChainHead(ctx context.Context, chain domain.ChainName) (domain.ChainHead, error) {
	return r.selectHead(ctx, `SELECT chain, sequence, hash FROM chain_heads WHERE chain = $1;`, chain)
}

// LockChainHead holds the head row until the transaction ends. Every append
// to a chain goes through this row, so appends are strictly serial.
func (r *PgxChainRepository) LockChainHead(ctx context.Context, chain domain.ChainName) (domain.ChainHead, error) {
	return r.selectHead(ctx, `SELECT chain, sequence, hash FROM chain_heads WHERE chain = $1 FOR UPDATE;`, chain)
}

func (r *PgxChainRepository) selectHead(ctx context.Context, query string, chain domain.ChainName) (domain.ChainHead, error) {
	var m models.ChainHead
	if err := r.db.QueryRow(ctx, query, string(chain)).Scan(&m.Chain, &m.Sequence, &m.Hash); err != nil {
		return domain.ChainHead{}, wrapReadError(err, "chain head %s", chain)
	}
	return mapping.ToDomainChainHead(m), nil
}

// AdvanceChainHead only moves the head forward by exactly one.
func (r *PgxChainRepository) AdvanceChainHead(ctx context.Context, head domain.ChainHead) error {
	query := `
		UPDATE chain_heads
		SET sequence = $2, hash = $3
		WHERE chain = $1 AND sequence = $2 - 1;
	`
	cmdTag, err := r.db.Exec(ctx, query, string(head.Chain), head.Sequence, head.Hash)
	if err != nil {
		return wrapWriteError(err, "chain head %s", head.Chain)
	}
	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("%w: chain %s cannot advance to %d", apperrors.ErrConflict, head.Chain, head.Sequence)
	}
	return nil
}
