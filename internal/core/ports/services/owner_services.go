package services

import (
	"context"

	"github.com/SscSPs/escrow_ledger_app/internal/core/domain"
	"github.com/SscSPs/escrow_ledger_app/internal/dto"
)

type OwnerSvcFacade interface {
	RegisterOwner(ctx context.Context, req dto.RegisterOwnerRequest, userID string) (*domain.Owner, error)
	GetOwner(ctx context.Context, ownerID string) (*domain.Owner, error)
	SetOwnerStatus(ctx context.Context, ownerID string, status domain.OwnerStatus, userID string) (*domain.Owner, error)
}
