package mapping

import (
	"github.com/SscSPs/escrow_ledger_app/internal/core/domain"
	"github.com/SscSPs/escrow_ledger_app/internal/models"
)

// ToModelAccount converts a domain Account to a model Account
func ToModelAccount(d domain.Account) models.Account {
	return models.Account{
		AccountID:    d.AccountID,
		AccountType:  string(d.AccountType),
		OwnerID:      nullString(d.OwnerID),
		CurrencyCode: d.CurrencyCode,
		Balance:      d.Balance,
		Pending:      d.Pending,
		Blocked:      d.Blocked,
		Status:       string(d.Status),
		IsSystem:     d.IsSystem,
		AuditFields:  ToModelAuditFields(d.AuditFields),
	}
}

// ToDomainAccount converts a model Account to a domain Account
func ToDomainAccount(m models.Account) domain.Account {
	return domain.Account{
		AccountID:    m.AccountID,
		AccountType:  domain.AccountType(m.AccountType),
		OwnerID:      m.OwnerID.String,
		CurrencyCode: m.CurrencyCode,
		Balance:      m.Balance,
		Pending:      m.Pending,
		Blocked:      m.Blocked,
		Status:       domain.AccountStatus(m.Status),
		IsSystem:     m.IsSystem,
		AuditFields:  ToDomainAuditFields(m.AuditFields),
	}
}
