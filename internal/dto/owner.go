package dto

import (
	"time"

	"github.com/SscSPs/escrow_ledger_app/internal/core/domain"
)

// RegisterOwnerRequest mirrors a user or store provisioned elsewhere into the owner directory.
type RegisterOwnerRequest struct {
	OwnerID string           `json:"ownerID"` // Optional, generated when empty
	Kind    domain.OwnerKind `json:"kind" binding:"required,oneof=USER STORE"`
	Name    string           `json:"name" binding:"required,max=200"`
}

// UpdateOwnerStatusRequest blocks or unblocks an owner.
type UpdateOwnerStatusRequest struct {
	Status domain.OwnerStatus `json:"status" binding:"required,oneof=ACTIVE BLOCKED"`
}

type OwnerResponse struct {
	OwnerID       string             `json:"ownerID"`
	Kind          domain.OwnerKind   `json:"kind"`
	Name          string             `json:"name"`
	Status        domain.OwnerStatus `json:"status"`
	CreatedAt     time.Time          `json:"createdAt"`
	CreatedBy     string             `json:"createdBy"`
	LastUpdatedAt time.Time          `json:"lastUpdatedAt"`
	LastUpdatedBy string             `json:"lastUpdatedBy"`
}

func ToOwnerResponse(o *domain.Owner) OwnerResponse {
	return OwnerResponse{
		OwnerID:       o.OwnerID,
		Kind:          o.Kind,
		Name:          o.Name,
		Status:        o.Status,
		CreatedAt:     o.CreatedAt,
		CreatedBy:     o.CreatedBy,
		LastUpdatedAt: o.LastUpdatedAt,
		LastUpdatedBy: o.LastUpdatedBy,
	}
}
