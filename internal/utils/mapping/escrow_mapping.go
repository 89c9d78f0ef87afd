package mapping

import (
	"encoding/json"

	"github.com/SscSPs/escrow_ledger_app/internal/core/domain"
	"github.com/SscSPs/escrow_ledger_app/internal/models"
)

func ToModelEscrow(d domain.Escrow) models.Escrow {
	var conditions []byte
	if len(d.ReleaseConditions) > 0 {
		conditions = []byte(d.ReleaseConditions)
	}
	return models.Escrow{
		EscrowID:           d.EscrowID,
		EscrowNumber:       d.EscrowNumber,
		BuyerID:            d.BuyerID,
		SellerID:           d.SellerID,
		InitiatorID:        d.InitiatorID,
		Stakeholders:       nonNil(d.Stakeholders),
		TotalAmount:        d.TotalAmount,
		CurrencyCode:       d.CurrencyCode,
		BuyerAccountID:     d.BuyerAccountID,
		SellerAccountID:    d.SellerAccountID,
		HoldingAccountID:   d.HoldingAccountID,
		HoldingEntryID:     d.HoldingEntryID,
		SettlementEntryIDs: nonNil(d.SettlementEntryIDs),
		ReleaseConditions:  conditions,
		AutoReleaseAt:      d.AutoReleaseAt,
		DisputeDeadline:    d.DisputeDeadline,
		Status:             string(d.Status),
		RequiresApproval:   d.RequiresApproval,
		ReleasedAmount:     d.ReleasedAmount,
		ReleaseReason:      d.ReleaseReason,
		ReleasedBy:         d.ReleasedBy,
		ReleasedAt:         nullTime(d.ReleasedAt),
		RefundedAmount:     d.RefundedAmount,
		RefundReason:       d.RefundReason,
		RefundedBy:         d.RefundedBy,
		RefundedAt:         nullTime(d.RefundedAt),
		DisputeID:          d.DisputeID,
		AuditFields:        ToModelAuditFields(d.AuditFields),
	}
}

func ToDomainEscrow(m models.Escrow) domain.Escrow {
	var conditions json.RawMessage
	if len(m.ReleaseConditions) > 0 {
		conditions = json.RawMessage(m.ReleaseConditions)
	}
	return domain.Escrow{
		EscrowID:           m.EscrowID,
		EscrowNumber:       m.EscrowNumber,
		BuyerID:            m.BuyerID,
		SellerID:           m.SellerID,
		InitiatorID:        m.InitiatorID,
		Stakeholders:       nonNil(m.Stakeholders),
		TotalAmount:        m.TotalAmount,
		CurrencyCode:       m.CurrencyCode,
		BuyerAccountID:     m.BuyerAccountID,
		SellerAccountID:    m.SellerAccountID,
		HoldingAccountID:   m.HoldingAccountID,
		HoldingEntryID:     m.HoldingEntryID,
		SettlementEntryIDs: nonNil(m.SettlementEntryIDs),
		ReleaseConditions:  conditions,
		AutoReleaseAt:      domain.NormalizeTime(m.AutoReleaseAt),
		DisputeDeadline:    domain.NormalizeTime(m.DisputeDeadline),
		Status:             domain.EscrowStatus(m.Status),
		RequiresApproval:   m.RequiresApproval,
		ReleasedAmount:     m.ReleasedAmount,
		ReleaseReason:      m.ReleaseReason,
		ReleasedBy:         m.ReleasedBy,
		ReleasedAt:         timePtr(m.ReleasedAt),
		RefundedAmount:     m.RefundedAmount,
		RefundReason:       m.RefundReason,
		RefundedBy:         m.RefundedBy,
		RefundedAt:         timePtr(m.RefundedAt),
		DisputeID:          m.DisputeID,
		AuditFields:        ToDomainAuditFields(m.AuditFields),
	}
}

func ToModelDispute(d domain.Dispute) models.Dispute {
	return models.Dispute{
		DisputeID:        d.DisputeID,
		EscrowID:         d.EscrowID,
		RaisedBy:         d.RaisedBy,
		Reason:           d.Reason,
		Details:          d.Details,
		Evidence:         nonNil(d.Evidence),
		Status:           string(d.Status),
		AssignedResolver: d.AssignedResolver,
		Resolution:       string(d.Resolution),
		ResolutionNotes:  d.ResolutionNotes,
		ResolvedBy:       d.ResolvedBy,
		ResolvedAt:       nullTime(d.ResolvedAt),
		AuditFields:      ToModelAuditFields(d.AuditFields),
	}
}

func ToDomainDispute(m models.Dispute) domain.Dispute {
	return domain.Dispute{
		DisputeID:        m.DisputeID,
		EscrowID:         m.EscrowID,
		RaisedBy:         m.RaisedBy,
		Reason:           m.Reason,
		Details:          m.Details,
		Evidence:         nonNil(m.Evidence),
		Status:           domain.DisputeStatus(m.Status),
		AssignedResolver: m.AssignedResolver,
		Resolution:       domain.DisputeResolution(m.Resolution),
		ResolutionNotes:  m.ResolutionNotes,
		ResolvedBy:       m.ResolvedBy,
		ResolvedAt:       timePtr(m.ResolvedAt),
		AuditFields:      ToDomainAuditFields(m.AuditFields),
	}
}
