package repositories

// RepositoryProvider holds all repository interfaces needed by services.
// This makes passing dependencies to the service container constructor cleaner.
type RepositoryProvider struct {
	TxManager   TransactionManager
	OwnerRepo   OwnerReader
	AccountRepo AccountReader
	LedgerRepo  LedgerReader
	AuditRepo   AuditReader
	EscrowRepo  EscrowReader
	Sequences   SequenceGenerator
}
