package services

import (
	"fmt"

	portsrepo "github.com/SscSPs/escrow_ledger_app/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/escrow_ledger_app/internal/core/ports/services"
	"github.com/SscSPs/escrow_ledger_app/internal/platform/config"
	"github.com/SscSPs/escrow_ledger_app/internal/utils"
)

const auditSigningPurpose = "escrow-ledger/audit-signature/v1"

// NewServiceContainer creates a new service container with properly initialized dependencies
func NewServiceContainer(cfg *config.Config, repos portsrepo.RepositoryProvider, options ...ServiceOption) (*portssvc.ServiceContainer, error) {
	signer, err := utils.NewSigner(cfg.AuditSigningSecret, auditSigningPurpose)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize audit signer: %w", err)
	}

	container := &portssvc.ServiceContainer{}

	// The audit trail is a dependency of every other service
	container.Audit = NewAuditService(repos.TxManager, repos.AuditRepo, signer, cfg.AuditLocation, options...)

	container.Owner = NewOwnerService(repos.TxManager, repos.OwnerRepo, container.Audit, options...)
	container.Account = NewAccountService(repos.TxManager, repos.AccountRepo, repos.OwnerRepo, container.Audit, cfg.SupportedCurrencies, options...)
	container.Ledger = NewLedgerService(repos.TxManager, repos.LedgerRepo, container.Audit, options...)
	container.Escrow = NewEscrowService(repos, container.Ledger, container.Audit, EscrowConfig{
		DisputeWindow:    cfg.DisputeWindow,
		AutoReleaseAfter: cfg.AutoReleaseAfter,
		Resolvers:        cfg.DisputeResolvers,
	}, options...)

	return container, nil
}
