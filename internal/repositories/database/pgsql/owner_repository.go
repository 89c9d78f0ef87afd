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

const ownerColumns = `owner_id, kind, name, status, created_at, created_by, last_updated_at, last_updated_by`

type PgxOwnerRepository struct {
	db querier
}

func newPgxOwnerRepository(db querier) *PgxOwnerRepository {
	return &PgxOwnerRepository{db: db}
}

var (
	_ portsrepo.OwnerReader       = (*PgxOwnerRepository)(nil)
	_ portsrepo.OwnerTxRepository = (*PgxOwnerRepository)(nil)
)

func scanOwner(row rowScanner) (domain.Owner, error) {
	var m models.Owner
	err := row.Scan(&m.OwnerID, &m.Kind, &m.Name, &m.Status, &m.CreatedAt, &m.CreatedBy, &m.LastUpdatedAt, &m.LastUpdatedBy)
	if err != nil {
		return domain.Owner{}, err
	}
	return mapping.ToDomainOwner(m), nil
}

func (r *PgxOwnerRepository) FindOwnerByID(ctx context.Context, ownerID string) (*domain.Owner, error) {
	query := `SELECT ` + ownerColumns + ` FROM owners WHERE owner_id = $1;`
	owner, err := scanOwner(r.db.QueryRow(ctx, query, ownerID))
	if err != nil {
		return nil, wrapReadError(err, "owner %s", ownerID)
	}
	return &owner, nil
}

func (r *PgxOwnerRepository) FindOwnersByIDs(ctx context.Context, ownerIDs []string) (map[string]domain.Owner, error) {
	if len(ownerIDs) == 0 {
		return map[string]domain.Owner{}, nil
	}
	query := `SELECT ` + ownerColumns + ` FROM owners WHERE owner_id = ANY($1);`
	rows, err := r.db.Query(ctx, query, ownerIDs)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to query owners by IDs: %v", apperrors.ErrInternal, err)
	}
	defer rows.Close()

	owners := make(map[string]domain.Owner, len(ownerIDs))
	for rows.Next() {
		owner, err := scanOwner(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to scan owner row: %v", apperrors.ErrInternal, err)
		}
		owners[owner.OwnerID] = owner
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: error iterating owner rows: %v", apperrors.ErrInternal, err)
	}
	return owners, nil
}

func (r *PgxOwnerRepository) InsertOwner(ctx context.Context, owner domain.Owner) error {
	m := mapping.ToModelOwner(owner)
	query := `
		INSERT INTO owners (` + ownerColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8);
	`
	_, err := r.db.Exec(ctx, query, m.OwnerID, m.Kind, m.Name, m.Status, m.CreatedAt, m.CreatedBy, m.LastUpdatedAt, m.LastUpdatedBy)
	if err != nil {
		return wrapWriteError(err, "owner %s", m.OwnerID)
	}
	return nil
}

func (r *PgxOwnerRepository) UpdateOwnerStatus(ctx context.Context, ownerID string, status domain.OwnerStatus, userID string, now time.Time) error {
	query := `
		UPDATE owners
		SET status = $2, last_updated_at = $3, last_updated_by = $4
		WHERE owner_id = $1;
	`
	cmdTag, err := r.db.Exec(ctx, query, ownerID, string(status), now, userID)
	if err != nil {
		return wrapWriteError(err, "owner %s", ownerID)
	}
	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("%w: owner %s", apperrors.ErrNotFound, ownerID)
	}
	return nil
}
