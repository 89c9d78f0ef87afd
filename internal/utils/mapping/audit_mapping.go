package mapping

import (
	"encoding/json"

	"github.com/SscSPs/escrow_ledger_app/internal/core/domain"
	"github.com/SscSPs/escrow_ledger_app/internal/models"
)

func ToModelAuditRecord(d domain.AuditRecord) models.AuditRecord {
	return models.AuditRecord{
		RecordID:     d.RecordID,
		Sequence:     d.Sequence,
		Action:       string(d.Action),
		ResourceType: string(d.ResourceType),
		ResourceID:   d.ResourceID,
		ActorID:      d.ActorID,
		Details:      string(d.Details),
		RiskScore:    d.RiskScore,
		RecordHash:   d.RecordHash,
		PreviousHash: d.PreviousHash,
		Signature:    d.Signature,
		CreatedAt:    d.CreatedAt,
	}
}

func ToDomainAuditRecord(m models.AuditRecord) domain.AuditRecord {
	return domain.AuditRecord{
		RecordID:     m.RecordID,
		Sequence:     m.Sequence,
		Action:       domain.AuditAction(m.Action),
		ResourceType: domain.ResourceType(m.ResourceType),
		ResourceID:   m.ResourceID,
		ActorID:      m.ActorID,
		Details:      json.RawMessage(m.Details),
		RiskScore:    m.RiskScore,
		RecordHash:   m.RecordHash,
		PreviousHash: m.PreviousHash,
		Signature:    m.Signature,
		CreatedAt:    domain.NormalizeTime(m.CreatedAt),
	}
}

func ToModelSecurityEvent(d domain.SecurityEvent) models.SecurityEvent {
	return models.SecurityEvent{
		EventID:       d.EventID,
		Sequence:      d.Sequence,
		AuditRecordID: d.AuditRecordID,
		Severity:      string(d.Severity),
		Action:        string(d.Action),
		ResourceType:  string(d.ResourceType),
		ResourceID:    d.ResourceID,
		ActorID:       d.ActorID,
		RiskScore:     d.RiskScore,
		EventHash:     d.EventHash,
		PreviousHash:  d.PreviousHash,
		Signature:     d.Signature,
		CreatedAt:     d.CreatedAt,
	}
}

func ToDomainSecurityEvent(m models.SecurityEvent) domain.SecurityEvent {
	return domain.SecurityEvent{
		EventID:       m.EventID,
		Sequence:      m.Sequence,
		AuditRecordID: m.AuditRecordID,
		Severity:      domain.Severity(m.Severity),
		Action:        domain.AuditAction(m.Action),
		ResourceType:  domain.ResourceType(m.ResourceType),
		ResourceID:    m.ResourceID,
		ActorID:       m.ActorID,
		RiskScore:     m.RiskScore,
		EventHash:     m.EventHash,
		PreviousHash:  m.PreviousHash,
		Signature:     m.Signature,
		CreatedAt:     domain.NormalizeTime(m.CreatedAt),
	}
}
