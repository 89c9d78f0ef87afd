package services

import (
	"context"
	"time"

	"github.com/SscSPs/escrow_ledger_app/internal/core/domain"
	"github.com/SscSPs/escrow_ledger_app/internal/dto"
)

type EscrowReaderSvc interface {
	GetEscrow(ctx context.Context, escrowID string) (*domain.Escrow, error)
	GetDispute(ctx context.Context, disputeID string) (*domain.Dispute, error)
}

type EscrowWriterSvc interface {
	CreateEscrow(ctx context.Context, req dto.CreateEscrowRequest) (*domain.Escrow, error)
	ApproveEscrow(ctx context.Context, escrowID string, approvedBy string) (*domain.Escrow, error)
	ReleaseEscrow(ctx context.Context, req dto.ReleaseEscrowRequest) (*domain.Escrow, error)
	RefundEscrow(ctx context.Context, req dto.RefundEscrowRequest) (*domain.Escrow, error)
	RaiseDispute(ctx context.Context, req dto.RaiseDisputeRequest) (*domain.Escrow, *domain.Dispute, error)
	ResolveDispute(ctx context.Context, req dto.ResolveDisputeRequest) (*domain.Escrow, *domain.Dispute, error)
}

// EscrowSweeperSvc is called by the scheduler to apply time-based transitions.
type EscrowSweeperSvc interface {
	ReleaseDueEscrows(ctx context.Context, now time.Time, limit int) (int, error)
}

type EscrowSvcFacade interface {
	EscrowReaderSvc
	EscrowWriterSvc
	EscrowSweeperSvc
}
