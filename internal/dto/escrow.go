package dto

import (
	"encoding/json"
	"time"

	"github.com/SscSPs/escrow_ledger_app/internal/core/domain"
	"github.com/SscSPs/escrow_ledger_app/internal/utils"
)

type CreateEscrowRequest struct {
	BuyerID           string          `json:"buyerId" binding:"required"`
	SellerID          string          `json:"sellerId" binding:"required"`
	InitiatorID       string          `json:"initiatorId" binding:"required"`
	TotalAmount       uint64          `json:"totalAmount" binding:"required,gt=0"`
	CurrencyCode      string          `json:"currency" binding:"required,iso4217"`
	ReleaseConditions json.RawMessage `json:"releaseConditions" swaggertype:"object"`
	Stakeholders      []string        `json:"stakeholders" binding:"omitempty,dive,required"`
	RequiresApproval  bool            `json:"requiresApproval"`
	AutoReleaseAt     *time.Time      `json:"autoReleaseAt"`
	DisputeDeadline   *time.Time      `json:"disputeDeadline"`
	CreatedBy         string          `json:"-"`
}

type ReleaseEscrowRequest struct {
	EscrowID             string                       `json:"-"`
	Amount               *uint64                      `json:"amount"` // Defaults to the unresolved remainder
	Reason               string                       `json:"reason" binding:"required,max=500"`
	ReleasedBy           string                       `json:"-"`
	StakeholderApprovals []domain.StakeholderApproval `json:"stakeholderApprovals" binding:"omitempty,dive"`
}

type RefundEscrowRequest struct {
	EscrowID   string  `json:"-"`
	Amount     *uint64 `json:"amount"`
	Reason     string  `json:"reason" binding:"required,max=500"`
	RefundedBy string  `json:"-"`
}

type RaiseDisputeRequest struct {
	EscrowID string   `json:"-"`
	RaisedBy string   `json:"raisedBy"` // Defaults to the authenticated caller
	Reason   string   `json:"reason" binding:"required,max=200"`
	Details  string   `json:"details" binding:"max=4000"`
	Evidence []string `json:"evidence"`
}

// ResolveDisputeRequest settles a dispute. Amount goes to the side named by
// Resolution, the rest of the remainder to the other side.
type ResolveDisputeRequest struct {
	DisputeID  string                   `json:"-"`
	Resolution domain.DisputeResolution `json:"resolution" binding:"required,oneof=RELEASE REFUND"`
	Amount     *uint64                  `json:"amount"`
	Notes      string                   `json:"notes" binding:"max=4000"`
	ResolvedBy string                   `json:"-"`
}

type EscrowResponse struct {
	domain.Escrow
	RemainingAmount      int64  `json:"remainingAmount"`
	TotalAmountFormatted string `json:"totalAmountFormatted"`
}

func ToEscrowResponse(e *domain.Escrow) EscrowResponse {
	return EscrowResponse{
		Escrow:               *e,
		RemainingAmount:      e.Remaining(),
		TotalAmountFormatted: utils.FormatMinorUnits(e.TotalAmount, e.CurrencyCode),
	}
}

// EscrowDisputeResponse is returned by dispute raise and resolve.
type EscrowDisputeResponse struct {
	Escrow  EscrowResponse `json:"escrow"`
	Dispute domain.Dispute `json:"dispute"`
}
