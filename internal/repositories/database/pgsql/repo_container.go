package pgsql

import (
	portsrepo "github.com/SscSPs/escrow_ledger_app/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5/pgxpool"
)

func NewRepositoryProvider(dbPool *pgxpool.Pool) portsrepo.RepositoryProvider {
	return portsrepo.RepositoryProvider{
		TxManager:   newPgxTransactionManager(dbPool),
		OwnerRepo:   newPgxOwnerRepository(dbPool),
		AccountRepo: newPgxAccountRepository(dbPool),
		LedgerRepo:  newPgxLedgerRepository(dbPool),
		AuditRepo:   newPgxAuditRepository(dbPool),
		EscrowRepo:  newPgxEscrowRepository(dbPool),
		Sequences:   newPgxSequenceRepository(dbPool),
	}
}
