package repositories

import (
	"context"
	"time"

	"github.com/SscSPs/escrow_ledger_app/internal/core/domain"
)

// OwnerReader defines read operations for the owner directory.
type OwnerReader interface {
	FindOwnerByID(ctx context.Context, ownerID string) (*domain.Owner, error)

	// FindOwnersByIDs returns the owners that exist; missing ids are simply absent from the map.
	FindOwnersByIDs(ctx context.Context, ownerIDs []string) (map[string]domain.Owner, error)
}

// OwnerTxRepository defines owner writes inside a unit of work.
type OwnerTxRepository interface {
	InsertOwner(ctx context.Context, owner domain.Owner) error
	UpdateOwnerStatus(ctx context.Context, ownerID string, status domain.OwnerStatus, userID string, now time.Time) error
}
