package services

import (
	"context"

	"github.com/SscSPs/escrow_ledger_app/internal/core/domain"
)

// ServiceContainer holds instances of all the application services.
// This is the main entry point for accessing service functionality and
// is used throughout the application, particularly in the handlers.
type ServiceContainer struct {
	Owner   OwnerSvcFacade
	Account AccountSvcFacade
	Ledger  LedgerSvcFacade
	Escrow  EscrowSvcFacade
	Audit   AuditSvcFacade
}

// SecurityMonitor receives fire-and-forget notifications of committed mutations.
// Notify must never block the caller and has no result to consult.
type SecurityMonitor interface {
	Notify(ctx context.Context, event domain.MonitorEvent)
}
