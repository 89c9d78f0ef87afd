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

const (
	escrowColumns  = `escrow_id, escrow_number, buyer_id, seller_id, initiator_id, stakeholders, total_amount, currency_code, buyer_account_id, seller_account_id, holding_account_id, holding_entry_id, settlement_entry_ids, release_conditions, auto_release_at, dispute_deadline, status, requires_approval, released_amount, release_reason, released_by, released_at, refunded_amount, refund_reason, refunded_by, refunded_at, dispute_id, created_at, created_by, last_updated_at, last_updated_by`
	disputeColumns = `dispute_id, escrow_id, raised_by, reason, details, evidence, status, assigned_resolver, resolution, resolution_notes, resolved_by, resolved_at, created_at, created_by, last_updated_at, last_updated_by`
)

type PgxEscrowRepository struct {
	db querier
}

func newPgxEscrowRepository(db querier) *PgxEscrowRepository {
	return &PgxEscrowRepository{db: db}
}

var (
	_ portsrepo.EscrowReader       = (*PgxEscrowRepository)(nil)
	_ portsrepo.EscrowTxRepository = (*PgxEscrowRepository)(nil)
)

func escrowFields(m *models.Escrow) []any {
	return []any{
		&m.EscrowID,
		&m.EscrowNumber,
		&m.BuyerID,
		&m.SellerID,
		&m.InitiatorID,
		&m.Stakeholders,
		&m.TotalAmount,
		&m.CurrencyCode,
		&m.BuyerAccountID,
		&m.SellerAccountID,
		&m.HoldingAccountID,
		&m.HoldingEntryID,
		&m.SettlementEntryIDs,
		&m.ReleaseConditions,
		&m.AutoReleaseAt,
		&m.DisputeDeadline,
		&m.Status,
		&m.RequiresApproval,
		&m.ReleasedAmount,
		&m.ReleaseReason,
		&m.ReleasedBy,
		&m.ReleasedAt,
		&m.RefundedAmount,
		&m.RefundReason,
		&m.RefundedBy,
		&m.RefundedAt,
		&m.DisputeID,
		&m.CreatedAt,
		&m.CreatedBy,
		&m.LastUpdatedAt,
		&m.LastUpdatedBy,
	}
}

func disputeFields(m *models.Dispute) []any {
	return []any{
		&m.DisputeID,
		&m.EscrowID,
		&m.RaisedBy,
		&m.Reason,
		&m.Details,
		&m.Evidence,
		&m.Status,
		&m.AssignedResolver,
		&m.Resolution,
		&m.ResolutionNotes,
		&m.ResolvedBy,
		&m.ResolvedAt,
		&m.CreatedAt,
		&m.CreatedBy,
		&m.LastUpdatedAt,
		&m.LastUpdatedBy,
	}
}

// values dereferences the scan targets so the same field list drives inserts.
func values(fields []any) []any {
	out := make([]any, len(fields))
	for i, f := range fields {
		switch p := f.(type) {
		case *string:
			out[i] = *p
		case *int64:
			out[i] = *p
		case *bool:
			out[i] = *p
		case *[]string:
			out[i] = *p
		case *[]byte:
			out[i] = *p
		case *time.Time:
			out[i] = *p
		default:
			out[i] = f
		}
	}
	return out
}

func scanEscrow(row rowScanner) (domain.Escrow, error) {
	var m models.Escrow
	if err := row.Scan(escrowFields(&m)...); err != nil {
		return domain.Escrow{}, err
	}
	return mapping.ToDomainEscrow(m), nil
}

func scanDispute(row rowScanner) (domain.Dispute, error) {
	var m models.Dispute
	if err := row.Scan(disputeFields(&m)...); err != nil {
		return domain.Dispute{}, err
	}
	return mapping.ToDomainDispute(m), nil
}

func (r *PgxEscrowRepository) FindEscrowByID(ctx context.Context, escrowID string) (*domain.Escrow, error) {
	query := `SELECT ` + escrowColumns + ` FROM escrows WHERE escrow_id = $1;`
	escrow, err := scanEscrow(r.db.QueryRow(ctx, query, escrowID))
	if err != nil {
		return nil, wrapReadError(err, "escrow %s", escrowID)
	}
	return &escrow, nil
}

func (r *PgxEscrowRepository) FindDisputeByID(ctx context.Context, disputeID string) (*domain.Dispute, error) {
	query := `SELECT ` + disputeColumns + ` FROM disputes WHERE dispute_id = $1;`
	dispute, err := scanDispute(r.db.QueryRow(ctx, query, disputeID))
	if err != nil {
		return nil, wrapReadError(err, "dispute %s", disputeID)
	}
	return &dispute, nil
}

func (r *PgxEscrowRepository) ListEscrowsDueForRelease(ctx context.Context, now time.Time, limit int) ([]domain.Escrow, error) {
	query := `
		SELECT ` + escrowColumns + `
		FROM escrows
		WHERE status = 'HELD' AND cardinality(stakeholders) = 0 AND auto_release_at <= $1
		ORDER BY auto_release_at, escrow_id
		LIMIT $2;
	`
	rows, err := r.db.Query(ctx, query, now, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to query due escrows: %v", apperrors.ErrInternal, err)
	}
	defer rows.Close()

	escrows := []domain.Escrow{}
	for rows.Next() {
		escrow, err := scanEscrow(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to scan escrow row: %v", apperrors.ErrInternal, err)
		}
		escrows = append(escrows, escrow)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: error iterating escrow rows: %v", apperrors.ErrInternal, err)
	}
	return escrows, nil
}

func (r *PgxEscrowRepository) InsertEscrow(ctx context.Context, escrow domain.Escrow) error {
	m := mapping.ToModelEscrow(escrow)
	query := `
		INSERT INTO escrows (` + escrowColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20,
			$21, $22, $23, $24, $25, $26, $27, $28, $29, $30, $31);
	`
	if _, err := r.db.Exec(ctx, query, values(escrowFields(&m))...); err != nil {
		return wrapWriteError(err, "escrow %s", m.EscrowID)
	}
	return nil
}

func (r *PgxEscrowRepository) FindEscrowForUpdate(ctx context.Context, escrowID string) (*domain.Escrow, error) {
	query := `SELECT ` + escrowColumns + ` FROM escrows WHERE escrow_id = $1 FOR UPDATE;`
	escrow, err := scanEscrow(r.db.QueryRow(ctx, query, escrowID))
	if err != nil {
		return nil, wrapReadError(err, "escrow %s", escrowID)
	}
	return &escrow, nil
}

// UpdateEscrow writes the mutable columns of a locked escrow.
func (r *PgxEscrowRepository) UpdateEscrow(ctx context.Context, escrow domain.Escrow) error {
	m := mapping.ToModelEscrow(escrow)
	query := `
		UPDATE escrows
		SET settlement_entry_ids = $2, status = $3, released_amount = $4, release_reason = $5, released_by = $6,
			released_at = $7, refunded_amount = $8, refund_reason = $9, refunded_by = $10, refunded_at = $11,
			dispute_id = $12, last_updated_at = $13, last_updated_by = $14
		WHERE escrow_id = $1;
	`
	cmdTag, err := r.db.Exec(ctx, query,
		m.EscrowID,
		m.SettlementEntryIDs,
		m.Status,
		m.ReleasedAmount,
		m.ReleaseReason,
		m.ReleasedBy,
		m.ReleasedAt,
		m.RefundedAmount,
		m.RefundReason,
		m.RefundedBy,
		m.RefundedAt,
		m.DisputeID,
		m.LastUpdatedAt,
		m.LastUpdatedBy,
	)
	if err != nil {
		return wrapWriteError(err, "escrow %s", m.EscrowID)
	}
	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("%w: escrow %s", apperrors.ErrNotFound, m.EscrowID)
	}
	return nil
}

func (r *PgxEscrowRepository) InsertDispute(ctx context.Context, dispute domain.Dispute) error {
	m := mapping.ToModelDispute(dispute)
	query := `
		INSERT INTO disputes (` + disputeColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16);
	`
	if _, err := r.db.Exec(ctx, query, values(disputeFields(&m))...); err != nil {
		return wrapWriteError(err, "dispute %s", m.DisputeID)
	}
	return nil
}

func (r *PgxEscrowRepository) FindDisputeForUpdate(ctx context.Context, disputeID string) (*domain.Dispute, error) {
	query := `SELECT ` + disputeColumns + ` FROM disputes WHERE dispute_id = $1 FOR UPDATE;`
	dispute, err := scanDispute(r.db.QueryRow(ctx, query, disputeID))
	if err != nil {
		return nil, wrapReadError(err, "dispute %s", disputeID)
	}
	return &dispute, nil
}

func (r *PgxEscrowRepository) UpdateDispute(ctx context.Context, dispute domain.Dispute) error {
	m := mapping.ToModelDispute(dispute)
	query := `
		UPDATE disputes
		SET status = $2, assigned_resolver = $3, resolution = $4, resolution_notes = $5, resolved_by = $6,
			resolved_at = $7, last_updated_at = $8, last_updated_by = $9
		WHERE dispute_id = $1;
	`
	cmdTag, err := r.db.Exec(ctx, query,
		m.DisputeID,
		m.Status,
		m.AssignedResolver,
		m.Resolution,
		m.ResolutionNotes,
		m.ResolvedBy,
		m.ResolvedAt,
		m.LastUpdatedAt,
		m.LastUpdatedBy,
	)
	if err != nil {
		return wrapWriteError(err, "dispute %s", m.DisputeID)
	}
	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("%w: dispute %s", apperrors.ErrNotFound, m.DisputeID)
	}
	return nil
}
