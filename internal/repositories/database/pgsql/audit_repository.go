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

const (
	auditColumns    = `record_id, sequence, action, resource_type, resource_id, actor_id, details, risk_score, record_hash, previous_hash, signature, created_at`
	securityColumns = `event_id, sequence, audit_record_id, severity, action, resource_type, resource_id, actor_id, risk_score, event_hash, previous_hash, signature, created_at`
)

type PgxAuditRepository struct {
	db querier
	*PgxChainRepository
}

func newPgxAuditRepository(db querier) *PgxAuditRepository {
	return &PgxAuditRepository{db: db, PgxChainRepository: newPgxChainRepository(db)}
}

var (
	_ portsrepo.AuditReader       = (*PgxAuditRepository)(nil)
	_ portsrepo.AuditTxRepository = (*PgxAuditRepository)(nil)
)

func scanAuditRecord(row rowScanner) (domain.AuditRecord, error) {
	var m models.AuditRecord
	err := row.Scan(
		&m.RecordID,
		&m.Sequence,
		&m.Action,
		&m.ResourceType,
		&m.ResourceID,
		&m.ActorID,
		&m.Details,
		&m.RiskScore,
		&m.RecordHash,
		&m.PreviousHash,
		&m.Signature,
		&m.CreatedAt,
	)
	if err != nil {
		return domain.AuditRecord{}, err
	}
	return mapping.ToDomainAuditRecord(m), nil
}

func scanSecurityEvent(row rowScanner) (domain.SecurityEvent, error) {
	var m models.SecurityEvent
	err := row.Scan(
		&m.EventID,
		&m.Sequence,
		&m.AuditRecordID,
		&m.Severity,
		&m.Action,
		&m.ResourceType,
		&m.ResourceID,
		&m.ActorID,
		&m.RiskScore,
		&m.EventHash,
		&m.PreviousHash,
		&m.Signature,
		&m.CreatedAt,
	)
	if err != nil {
		return domain.SecurityEvent{}, err
	}
	return mapping.ToDomainSecurityEvent(m), nil
}

func (r *PgxAuditRepository) queryRecords(ctx context.Context, query string, args ...any) ([]domain.AuditRecord, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to query audit records: %v", apperrors.ErrInternal, err)
	}
	defer rows.Close()

	records := []domain.AuditRecord{}
	for rows.Next() {
		record, err := scanAuditRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to scan audit record row: %v", apperrors.ErrInternal, err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: error iterating audit record rows: %v", apperrors.ErrInternal, err)
	}
	return records, nil
}

func (r *PgxAuditRepository) ListAuditRecords(ctx context.Context, afterSequence int64, limit int) ([]domain.AuditRecord, error) {
	query := `SELECT ` + auditColumns + ` FROM audit_records WHERE sequence > $1 ORDER BY sequence LIMIT $2;`
	return r.queryRecords(ctx, query, afterSequence, limit)
}

func (r *PgxAuditRepository) ListAuditRecordsByResource(ctx context.Context, resourceType domain.ResourceType, resourceID string) ([]domain.AuditRecord, error) {
	query := `
		SELECT ` + auditColumns + `
		FROM audit_records
		WHERE resource_type = $1 AND resource_id = $2
		ORDER BY sequence;
	`
	return r.queryRecords(ctx, query, string(resourceType), resourceID)
}

func (r *PgxAuditRepository) ListSecurityEvents(ctx context.Context, afterSequence int64, limit int) ([]domain.SecurityEvent, error) {
	query := `SELECT ` + securityColumns + ` FROM security_events WHERE sequence > $1 ORDER BY sequence LIMIT $2;`
	rows, err := r.db.Query(ctx, query, afterSequence, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to query security events: %v", apperrors.ErrInternal, err)
	}
	defer rows.Close()

	events := []domain.SecurityEvent{}
	for rows.Next() {
		event, err := scanSecurityEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to scan security event row: %v", apperrors.ErrInternal, err)
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: error iterating security event rows: %v", apperrors.ErrInternal, err)
	}
	return events, nil
}

func (r *PgxAuditRepository) InsertAuditRecord(ctx context.Context, record domain.AuditRecord) error {
	m := mapping.ToModelAuditRecord(record)
	query := `
		INSERT INTO audit_records (` + auditColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12);
	`
	_, err := r.db.Exec(ctx, query,
		m.RecordID, m.Sequence, m.Action, m.ResourceType, m.ResourceID, m.ActorID,
		m.Details, m.RiskScore, m.RecordHash, m.PreviousHash, m.Signature, m.CreatedAt,
	)
	if err != nil {
		return wrapWriteError(err, "audit record %s", m.RecordID)
	}
	return nil
}

func (r *PgxAuditRepository) InsertSecurityEvent(ctx context.Context, event domain.SecurityEvent) error {
	m := mapping.ToModelSecurityEvent(event)
	query := `
		INSERT INTO security_events (` + securityColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13);
	`
	_, err := r.db.Exec(ctx, query,
		m.EventID, m.Sequence, m.AuditRecordID, m.Severity, m.Action, m.ResourceType, m.ResourceID,
		m.ActorID, m.RiskScore, m.EventHash, m.PreviousHash, m.Signature, m.CreatedAt,
	)
	if err != nil {
		return wrapWriteError(err, "security event %s", m.EventID)
	}
	return nil
}
