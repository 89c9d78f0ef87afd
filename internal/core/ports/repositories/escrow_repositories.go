package repositories

import (
	"context"
	"time"

	"github.com/SscSPs/escrow_ledger_app/internal/core/domain"
)

// EscrowReader defines read operations for escrows and disputes
type EscrowReader interface {
	FindEscrowByID(ctx context.Context, escrowID string) (*domain.Escrow, error)
	FindDisputeByID(ctx context.Context, disputeID string) (*domain.Dispute, error)

	// ListEscrowsDueForRelease returns HELD escrows without stakeholders whose
	// auto-release date is at or before now, oldest first.
	ListEscrowsDueForRelease(ctx context.Context, now time.Time, limit int) ([]domain.Escrow, error)
}

// EscrowTxRepository defines escrow and dispute writes inside a unit of work.
type EscrowTxRepository interface {
	InsertEscrow(ctx context.Context, escrow domain.Escrow) error
	FindEscrowForUpdate(ctx context.Context, escrowID string) (*domain.Escrow, error)
	UpdateEscrow(ctx context.Context, escrow domain.Escrow) error

	InsertDispute(ctx context.Context, dispute domain.Dispute) error
	FindDisputeForUpdate(ctx context.Context, disputeID string) (*domain.Dispute, error)
	UpdateDispute(ctx context.Context, dispute domain.Dispute) error
}
