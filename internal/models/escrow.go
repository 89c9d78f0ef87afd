package models

import (
	"database/sql"
	"time"
)

// Escrow is a row of the escrows table.
type Escrow struct {
	EscrowID           string       `db:"escrow_id"`
	EscrowNumber       string       `db:"escrow_number"`
	BuyerID            string       `db:"buyer_id"`
	SellerID           string       `db:"seller_id"`
	InitiatorID        string       `db:"initiator_id"`
	Stakeholders       []string     `db:"stakeholders"`
	TotalAmount        int64        `db:"total_amount"`
	CurrencyCode       string       `db:"currency_code"`
	BuyerAccountID     string       `db:"buyer_account_id"`
	SellerAccountID    string       `db:"seller_account_id"`
	HoldingAccountID   string       `db:"holding_account_id"`
	HoldingEntryID     string       `db:"holding_entry_id"`
	SettlementEntryIDs []string     `db:"settlement_entry_ids"`
	ReleaseConditions  []byte       `db:"release_conditions"` // JSONB, nullable
	AutoReleaseAt      time.Time    `db:"auto_release_at"`
	DisputeDeadline    time.Time    `db:"dispute_deadline"`
	Status             string       `db:"status"`
	RequiresApproval   bool         `db:"requires_approval"`
	ReleasedAmount     int64        `db:"released_amount"`
	ReleaseReason      string       `db:"release_reason"`
	ReleasedBy         string       `db:"released_by"`
	ReleasedAt         sql.NullTime `db:"released_at"`
	RefundedAmount     int64        `db:"refunded_amount"`
	RefundReason       string       `db:"refund_reason"`
	RefundedBy         string       `db:"refunded_by"`
	RefundedAt         sql.NullTime `db:"refunded_at"`
	DisputeID          string       `db:"dispute_id"`
	AuditFields
}

// Dispute is a row of the disputes table.
type Dispute struct {
	DisputeID        string       `db:"dispute_id"`
	EscrowID         string       `db:"escrow_id"`
	RaisedBy         string       `db:"raised_by"`
	Reason           string       `db:"reason"`
	Details          string       `db:"details"`
	Evidence         []string     `db:"evidence"`
	Status           string       `db:"status"`
	AssignedResolver string       `db:"assigned_resolver"`
	Resolution       string       `db:"resolution"`
	ResolutionNotes  string       `db:"resolution_notes"`
	ResolvedBy       string       `db:"resolved_by"`
	ResolvedAt       sql.NullTime `db:"resolved_at"`
	AuditFields
}
