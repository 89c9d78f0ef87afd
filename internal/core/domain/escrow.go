package domain

import (
	"encoding/json"
	"slices"
	"time"
)

// EscrowStatus is the lifecycle state of an escrow.
type EscrowStatus string

const (
	EscrowPending  EscrowStatus = "PENDING"
	EscrowHeld     EscrowStatus = "HELD"
	EscrowReleased EscrowStatus = "RELEASED"
	EscrowRefunded EscrowStatus = "REFUNDED"
	EscrowDisputed EscrowStatus = "DISPUTED"
)

// IsTerminal reports whether no further transition is possible.
func (s EscrowStatus) IsTerminal() bool {
	return s == EscrowReleased || s == EscrowRefunded
}

// Escrow holds buyer funds in the system holding account until they are
// released to the seller, refunded to the buyer, or settled through a dispute.
type Escrow struct {
	EscrowID           string          `json:"escrowID"`
	EscrowNumber       string          `json:"escrowNumber"`
	BuyerID            string          `json:"buyerID"`
	SellerID           string          `json:"sellerID"`
	InitiatorID        string          `json:"initiatorID"`
	Stakeholders       []string        `json:"stakeholders"`
	TotalAmount        int64           `json:"totalAmount"`
	CurrencyCode       string          `json:"currencyCode"`
	BuyerAccountID     string          `json:"buyerAccountID"`
	SellerAccountID    string          `json:"sellerAccountID"`
	HoldingAccountID   string          `json:"holdingAccountID"`
	HoldingEntryID     string          `json:"holdingEntryID"`
	SettlementEntryIDs []string        `json:"settlementEntryIDs"`
	ReleaseConditions  json.RawMessage `json:"releaseConditions,omitempty"`
	AutoReleaseAt      time.Time       `json:"autoReleaseAt"`
	DisputeDeadline    time.Time       `json:"disputeDeadline"`
	Status             EscrowStatus    `json:"status"`
	RequiresApproval   bool            `json:"requiresApproval"`
	ReleasedAmount     int64           `json:"releasedAmount"`
	ReleaseReason      string          `json:"releaseReason,omitempty"`
	ReleasedBy         string          `json:"releasedBy,omitempty"`
	ReleasedAt         *time.Time      `json:"releasedAt,omitempty"`
	RefundedAmount     int64           `json:"refundedAmount"`
	RefundReason       string          `json:"refundReason,omitempty"`
	RefundedBy         string          `json:"refundedBy,omitempty"`
	RefundedAt         *time.Time      `json:"refundedAt,omitempty"`
	DisputeID          string          `json:"disputeID,omitempty"`
	AuditFields
}

// Remaining is the amount still sitting in the holding account for this escrow.
func (e Escrow) Remaining() int64 {
	return e.TotalAmount - e.ReleasedAmount - e.RefundedAmount
}

// IsParty reports whether ownerID is the buyer, seller, initiator or a stakeholder.
func (e Escrow) IsParty(ownerID string) bool {
	if ownerID == e.BuyerID || ownerID == e.SellerID || ownerID == e.InitiatorID {
		return true
	}
	return slices.Contains(e.Stakeholders, ownerID)
}

// StakeholderApproval is a stakeholder's sign-off on a release.
type StakeholderApproval struct {
	StakeholderID string `json:"stakeholderID" binding:"required"`
	Approved      bool   `json:"approved"`
	Comment       string `json:"comment,omitempty"`
}
