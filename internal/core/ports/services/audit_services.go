package services

import (
	"context"

	"github.com/SscSPs/escrow_ledger_app/internal/core/domain"
	portsrepo "github.com/SscSPs/escrow_ledger_app/internal/core/ports/repositories"
	"github.com/SscSPs/escrow_ledger_app/internal/dto"
)

// AuditLogger appends to the audit chain.
type AuditLogger interface {
	Log(ctx context.Context, in domain.AuditInput) (*domain.AuditRecord, error)

	// LogInTx appends inside the caller's unit of work so the record commits with the change it describes.
	LogInTx(ctx context.Context, tx portsrepo.TxRepositories, in domain.AuditInput) (*domain.AuditRecord, error)
}

type AuditReaderSvc interface {
	ListRecords(ctx context.Context, params dto.ListChainParams) (*dto.ListAuditRecordsResponse, error)
	ListResourceHistory(ctx context.Context, resourceType domain.ResourceType, resourceID string) ([]domain.AuditRecord, error)
	ListSecurityEvents(ctx context.Context, params dto.ListChainParams) (*dto.ListSecurityEventsResponse, error)
}

type AuditVerifierSvc interface {
	VerifyAuditIntegrity(ctx context.Context) domain.IntegrityReport
	VerifySecurityIntegrity(ctx context.Context) domain.IntegrityReport
}

type AuditSvcFacade interface {
	AuditLogger
	AuditReaderSvc
	AuditVerifierSvc
}
