package pgsql

import (
	"context"
	"fmt"

	"github.com/SscSPs/escrow_ledger_app/internal/apperrors"
	portsrepo "github.com/SscSPs/escrow_ledger_app/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgxSequenceRepository maps a counter name to the Postgres sequence <name>_seq.
type PgxSequenceRepository struct {
	pool *pgxpool.Pool
}

func newPgxSequenceRepository(pool *pgxpool.Pool) *PgxSequenceRepository {
	return &PgxSequenceRepository{pool: pool}
}

var _ portsrepo.SequenceGenerator = (*PgxSequenceRepository)(nil)

func (r *PgxSequenceRepository) Next(ctx context.Context, name string) (int64, error) {
	var value int64
	if err := r.pool.QueryRow(ctx, `SELECT nextval($1::regclass);`, name+"_seq").Scan(&value); err != nil {
		return 0, fmt.Errorf("%w: failed to advance sequence %s: %v", apperrors.ErrInternal, name, err)
	}
	return value, nil
}
