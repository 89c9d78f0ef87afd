package mapping

import (
	"github.com/SscSPs/escrow_ledger_app/internal/core/domain"
	"github.com/SscSPs/escrow_ledger_app/internal/models"
)

func ToModelOwner(d domain.Owner) models.Owner {
	return models.Owner{
		OwnerID:     d.OwnerID,
		Kind:        string(d.Kind),
		Name:        d.Name,
		Status:      string(d.Status),
		AuditFields: ToModelAuditFields(d.AuditFields),
	}
}

func ToDomainOwner(m models.Owner) domain.Owner {
	return domain.Owner{
		OwnerID:     m.OwnerID,
		Kind:        domain.OwnerKind(m.Kind),
		Name:        m.Name,
		Status:      domain.OwnerStatus(m.Status),
		AuditFields: ToDomainAuditFields(m.AuditFields),
	}
}
