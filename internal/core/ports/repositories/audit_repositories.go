package repositories

import (
	"context"

	"github.com/SscSPs/escrow_ledger_app/internal/core/domain"
)

type AuditReader interface {
	ChainHeadReader
	ListAuditRecords(ctx context.Context, afterSequence int64, limit int) ([]domain.AuditRecord, error)
	ListAuditRecordsByResource(ctx context.Context, resourceType domain.ResourceType, resourceID string) ([]domain.AuditRecord, error)
	ListSecurityEvents(ctx context.Context, afterSequence int64, limit int) ([]domain.SecurityEvent, error)
}

type AuditTxRepository interface {
	InsertAuditRecord(ctx context.Context, record domain.AuditRecord) error
	InsertSecurityEvent(ctx context.Context, event domain.SecurityEvent) error
}
