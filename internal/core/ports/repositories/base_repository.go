package repositories

import (
	"context"

	"github.com/SscSPs/escrow_ledger_app/internal/core/domain"
)

// TransactionManager runs a unit of work atomically.
type TransactionManager interface {
	// RunInTx executes fn inside a single transaction. The transaction commits when
	// fn returns nil and rolls back otherwise. Hooks registered with AfterCommit run
	// only after a successful commit.
	RunInTx(ctx context.Context, fn func(ctx context.Context, tx TxRepositories) error) error
}

// TxRepositories exposes the transactional repositories bound to one unit of work.
//
// Row locks taken through these repositories are held until the unit of work
// ends. Callers lock in this order to stay deadlock free: escrow, dispute,
// ledger entry, accounts (one sorted batch), ledger chain, audit chain,
// security chain.
type TxRepositories interface {
	Owners() OwnerTxRepository
	Accounts() AccountTxRepository
	Ledger() LedgerTxRepository
	Chains() ChainTxRepository
	Audit() AuditTxRepository
	Escrows() EscrowTxRepository

	// AfterCommit registers fn to run once the unit of work has committed.
	AfterCommit(fn func())
}

// ChainTxRepository guards the tail of each hash chain.
type ChainTxRepository interface {
	// LockChainHead returns the current head of chain and holds it exclusively.
	LockChainHead(ctx context.Context, chain domain.ChainName) (domain.ChainHead, error)

	// AdvanceChainHead moves the locked head forward.
	AdvanceChainHead(ctx context.Context, head domain.ChainHead) error
}

// ChainHeadReader reads committed chain heads without locking them.
type ChainHeadReader interface {
	FindChainHead(ctx context.Context, chain domain.ChainName) (domain.ChainHead, error)
}

// SequenceGenerator hands out monotonically increasing numbers per name.
type SequenceGenerator interface {
	Next(ctx context.Context, name string) (int64, error)
}
