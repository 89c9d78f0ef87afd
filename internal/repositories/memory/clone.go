package memory

import (
	"slices"

	"github.com/SscSPs/escrow_ledger_app/internal/core/domain"
)

// The store hands out copies so callers can never mutate committed state.

func cloneEscrow(e domain.Escrow) domain.Escrow {
	e.Stakeholders = slices.Clone(e.Stakeholders)
	e.SettlementEntryIDs = slices.Clone(e.SettlementEntryIDs)
	e.ReleaseConditions = slices.Clone(e.ReleaseConditions)
	if e.ReleasedAt != nil {
		t := *e.ReleasedAt
		e.ReleasedAt = &t
	}
	if e.RefundedAt != nil {
		t := *e.RefundedAt
		e.RefundedAt = &t
	}
	return e
}

func cloneDispute(d domain.Dispute) domain.Dispute {
	d.Evidence = slices.Clone(d.Evidence)
	if d.ResolvedAt != nil {
		t := *d.ResolvedAt
		d.ResolvedAt = &t
	}
	return d
}

func cloneAuditRecord(r domain.AuditRecord) domain.AuditRecord {
	r.Details = slices.Clone(r.Details)
	return r
}
