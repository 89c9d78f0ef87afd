package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/SscSPs/escrow_ledger_app/internal/apperrors"
	"github.com/SscSPs/escrow_ledger_app/internal/core/domain"
	portsrepo "github.com/SscSPs/escrow_ledger_app/internal/core/ports/repositories"
)

// memTx stages writes for one unit of work. Reads inside the unit of work see
// staged values first, then committed ones.
type memTx struct {
	store *Store
	held  map[string]bool
	order []string

	owners   map[string]domain.Owner
	accounts map[string]domain.Account
	entries  map[string]domain.LedgerEntry
	audit    []domain.AuditRecord
	security []domain.SecurityEvent
	escrows  map[string]domain.Escrow
	disputes map[string]domain.Dispute
	heads    map[domain.ChainName]domain.ChainHead
	hooks    []func()
}

func newTx(store *Store) *memTx {
	return &memTx{
		store:    store,
		held:     make(map[string]bool),
		owners:   make(map[string]domain.Owner),
		accounts: make(map[string]domain.Account),
		entries:  make(map[string]domain.LedgerEntry),
		escrows:  make(map[string]domain.Escrow),
		disputes: make(map[string]domain.Dispute),
		heads:    make(map[domain.ChainName]domain.ChainHead),
	}
}

var (
	_ portsrepo.TxRepositories      = (*memTx)(nil)
	_ portsrepo.OwnerTxRepository   = (*memTx)(nil)
	_ portsrepo.AccountTxRepository = (*memTx)(nil)
	_ portsrepo.LedgerTxRepository  = (*memTx)(nil)
	_ portsrepo.ChainTxRepository   = (*memTx)(nil)
	_ portsrepo.AuditTxRepository   = (*memTx)(nil)
	_ portsrepo.EscrowTxRepository  = (*memTx)(nil)
)

func (t *memTx) Owners() portsrepo.OwnerTxRepository     { return t }
func (t *memTx) Accounts() portsrepo.AccountTxRepository { return t }
func (t *memTx) Ledger() portsrepo.LedgerTxRepository    { return t }
func (t *memTx) Chains() portsrepo.ChainTxRepository     { return t }
func (t *memTx) Audit() portsrepo.AuditTxRepository      { return t }
func (t *memTx) Escrows() portsrepo.EscrowTxRepository   { return t }

func (t *memTx) AfterCommit(fn func()) {
	t.hooks = append(t.hooks, fn)
}

// lock acquires key unless this unit of work already holds it.
func (t *memTx) lock(ctx context.Context, key string) error {
	if t.held[key] {
		return nil
	}
	if err := t.store.locks.acquire(ctx, key); err != nil {
		return fmt.Errorf("%w: waiting for lock %s: %v", apperrors.ErrInternal, key, err)
	}
	t.held[key] = true
	t.order = append(t.order, key)
	return nil
}

func (t *memTx) releaseLocks() {
	for i := len(t.order) - 1; i >= 0; i-- {
		t.store.locks.release(t.order[i])
	}
	t.order = nil
	t.held = make(map[string]bool)
}

// --- Owners ---

func (t *memTx) InsertOwner(ctx context.Context, owner domain.Owner) error {
	if err := t.lock(ctx, "owner:"+owner.OwnerID); err != nil {
		return err
	}
	if _, ok := t.owner(owner.OwnerID); ok {
		return fmt.Errorf("%w: owner %s", apperrors.ErrDuplicate, owner.OwnerID)
	}
	t.owners[owner.OwnerID] = owner
	return nil
}

func (t *memTx) UpdateOwnerStatus(ctx context.Context, ownerID string, status domain.OwnerStatus, userID string, now time.Time) error {
	if err := t.lock(ctx, "owner:"+ownerID); err != nil {
		return err
	}
	owner, ok := t.owner(ownerID)
	if !ok {
		return fmt.Errorf("%w: owner %s", apperrors.ErrNotFound, ownerID)
	}
	owner.Status = status
	owner.LastUpdatedAt = now
	owner.LastUpdatedBy = userID
	t.owners[ownerID] = owner
	return nil
}

func (t *memTx) owner(id string) (domain.Owner, bool) {
	if owner, ok := t.owners[id]; ok {
		return owner, true
	}
	t.store.mu.RLock()
	defer t.store.mu.RUnlock()
	owner, ok := t.store.owners[id]
	return owner, ok
}

// --- Accounts ---

func (t *memTx) InsertAccount(ctx context.Context, account domain.Account) error {
	if account.IsSystem {
		// Mirrors the unique index on (account_type, currency_code) for system accounts.
		if err := t.lock(ctx, fmt.Sprintf("system:%s:%s", account.AccountType, account.CurrencyCode)); err != nil {
			return err
		}
		if t.systemAccountExists(account.AccountType, account.CurrencyCode) {
			return fmt.Errorf("%w: system account %s for %s", apperrors.ErrDuplicate, account.AccountType, account.CurrencyCode)
		}
	}
	if err := t.lock(ctx, "account:"+account.AccountID); err != nil {
		return err
	}
	if _, ok := t.account(account.AccountID); ok {
		return fmt.Errorf("%w: account %s", apperrors.ErrDuplicate, account.AccountID)
	}
	t.accounts[account.AccountID] = account
	return nil
}

func (t *memTx) systemAccountExists(accountType domain.AccountType, currency string) bool {
	for _, a := range t.accounts {
		if a.IsSystem && a.AccountType == accountType && a.CurrencyCode == currency {
			return true
		}
	}
	t.store.mu.RLock()
	defer t.store.mu.RUnlock()
	for _, a := range t.store.accounts {
		if a.IsSystem && a.AccountType == accountType && a.CurrencyCode == currency {
			return true
		}
	}
	return false
}

func (t *memTx) LockAccounts(ctx context.Context, accountIDs []string) (map[string]domain.Account, error) {
	ids := append([]string(nil), accountIDs...)
	sort.Strings(ids)
	out := make(map[string]domain.Account, len(ids))
	for _, id := range ids {
		if err := t.lock(ctx, "account:"+id); err != nil {
			return nil, err
		}
		if account, ok := t.account(id); ok {
			out[id] = account
		}
	}
	return out, nil
}

func (t *memTx) UpdateAccountBalances(ctx context.Context, changes map[string]domain.BalanceChange, userID string, now time.Time) error {
	ids := make([]string, 0, len(changes))
	for id := range changes {
		ids = append(ids, id)
	}
	locked, err := t.LockAccounts(ctx, ids)
	if err != nil {
		return err
	}
	for id, change := range changes {
		account, ok := locked[id]
		if !ok {
			return fmt.Errorf("%w: account %s", apperrors.ErrNotFound, id)
		}
		account.Balance += change.Balance
		account.Pending += change.Pending
		account.LastUpdatedAt = now
		account.LastUpdatedBy = userID
		t.accounts[id] = account
	}
	return nil
}

func (t *memTx) UpdateAccountStatus(ctx context.Context, accountID string, status domain.AccountStatus, userID string, now time.Time) error {
	return t.updateAccount(ctx, accountID, func(a *domain.Account) {
		a.Status = status
		a.LastUpdatedAt = now
		a.LastUpdatedBy = userID
	})
}

func (t *memTx) UpdateBlockedAmount(ctx context.Context, accountID string, blocked int64, userID string, now time.Time) error {
	return t.updateAccount(ctx, accountID, func(a *domain.Account) {
		a.Blocked = blocked
		a.LastUpdatedAt = now
		a.LastUpdatedBy = userID
	})
}

func (t *memTx) updateAccount(ctx context.Context, accountID string, fn func(a *domain.Account)) error {
	if err := t.lock(ctx, "account:"+accountID); err != nil {
		return err
	}
	account, ok := t.account(accountID)
	if !ok {
		return fmt.Errorf("%w: account %s", apperrors.ErrNotFound, accountID)
	}
	fn(&account)
	t.accounts[accountID] = account
	return nil
}

func (t *memTx) account(id string) (domain.Account, bool) {
	if account, ok := t.accounts[id]; ok {
		return account, true
	}
	t.store.mu.RLock()
	defer t.store.mu.RUnlock()
	account, ok := t.store.accounts[id]
	return account, ok
}

// --- Ledger ---

func (t *memTx) InsertEntry(ctx context.Context, entry domain.LedgerEntry) error {
	if !t.held["chain:"+string(domain.ChainLedger)] {
		return fmt.Errorf("%w: ledger chain head must be locked before inserting entries", apperrors.ErrInternal)
	}
	if _, ok := t.entry(entry.EntryID); ok {
		return fmt.Errorf("%w: ledger entry %s", apperrors.ErrDuplicate, entry.EntryID)
	}
	t.held["entry:"+entry.EntryID] = true
	t.entries[entry.EntryID] = entry
	return nil
}

func (t *memTx) FindEntryForUpdate(ctx context.Context, entryID string) (*domain.LedgerEntry, error) {
	if err := t.lock(ctx, "entry:"+entryID); err != nil {
		return nil, err
	}
	entry, ok := t.entry(entryID)
	if !ok {
		return nil, fmt.Errorf("%w: ledger entry %s", apperrors.ErrNotFound, entryID)
	}
	return &entry, nil
}

func (t *memTx) UpdateEntryStatus(ctx context.Context, entryID string, status domain.EntryStatus, reason string, reversedByEntryID string, userID string, now time.Time) error {
	if err := t.lock(ctx, "entry:"+entryID); err != nil {
		return err
	}
	entry, ok := t.entry(entryID)
	if !ok {
		return fmt.Errorf("%w: ledger entry %s", apperrors.ErrNotFound, entryID)
	}
	entry.Status = status
	entry.StatusReason = reason
	entry.ReversedByEntryID = reversedByEntryID
	entry.LastUpdatedAt = now
	entry.LastUpdatedBy = userID
	t.entries[entryID] = entry
	return nil
}

func (t *memTx) entry(id string) (domain.LedgerEntry, bool) {
	if entry, ok := t.entries[id]; ok {
		return entry, true
	}
	t.store.mu.RLock()
	defer t.store.mu.RUnlock()
	idx, ok := t.store.entryIdx[id]
	if !ok {
		return domain.LedgerEntry{}, false
	}
	return t.store.entries[idx], true
}

// --- Chains ---

func (t *memTx) LockChainHead(ctx context.Context, chain domain.ChainName) (domain.ChainHead, error) {
	if err := t.lock(ctx, "chain:"+string(chain)); err != nil {
		return domain.ChainHead{}, err
	}
	if head, ok := t.heads[chain]; ok {
		return head, nil
	}
	return t.store.FindChainHead(ctx, chain)
}

func (t *memTx) AdvanceChainHead(ctx context.Context, head domain.ChainHead) error {
	if !t.held["chain:"+string(head.Chain)] {
		return fmt.Errorf("%w: chain %s is not locked", apperrors.ErrInternal, head.Chain)
	}
	current, err := t.LockChainHead(ctx, head.Chain)
	if err != nil {
		return err
	}
	if head.Sequence != current.Sequence+1 {
		return fmt.Errorf("%w: chain %s cannot advance from %d to %d", apperrors.ErrConflict, head.Chain, current.Sequence, head.Sequence)
	}
	t.heads[head.Chain] = head
	return nil
}

// --- Audit ---

func (t *memTx) InsertAuditRecord(ctx context.Context, record domain.AuditRecord) error {
	if !t.held["chain:"+string(domain.ChainAudit)] {
		return fmt.Errorf("%w: audit chain head must be locked before inserting records", apperrors.ErrInternal)
	}
	t.audit = append(t.audit, cloneAuditRecord(record))
	return nil
}

func (t *memTx) InsertSecurityEvent(ctx context.Context, event domain.SecurityEvent) error {
	if !t.held["chain:"+string(domain.ChainSecurity)] {
		return fmt.Errorf("%w: security chain head must be locked before inserting events", apperrors.ErrInternal)
	}
	t.security = append(t.security, event)
	return nil
}

// --- Escrows ---

func (t *memTx) InsertEscrow(ctx context.Context, escrow domain.Escrow) error {
	if err := t.lock(ctx, "escrow:"+escrow.EscrowID); err != nil {
		return err
	}
	if _, ok := t.escrow(escrow.EscrowID); ok {
		return fmt.Errorf("%w: escrow %s", apperrors.ErrDuplicate, escrow.EscrowID)
	}
	t.escrows[escrow.EscrowID] = cloneEscrow(escrow)
	return nil
}

func (t *memTx) FindEscrowForUpdate(ctx context.Context, escrowID string) (*domain.Escrow, error) {
	if err := t.lock(ctx, "escrow:"+escrowID); err != nil {
		return nil, err
	}
	escrow, ok := t.escrow(escrowID)
	if !ok {
		return nil, fmt.Errorf("%w: escrow %s", apperrors.ErrNotFound, escrowID)
	}
	return &escrow, nil
}

func (t *memTx) UpdateEscrow(ctx context.Context, escrow domain.Escrow) error {
	if !t.held["escrow:"+escrow.EscrowID] {
		return fmt.Errorf("%w: escrow %s is not locked", apperrors.ErrInternal, escrow.EscrowID)
	}
	if _, ok := t.escrow(escrow.EscrowID); !ok {
		return fmt.Errorf("%w: escrow %s", apperrors.ErrNotFound, escrow.EscrowID)
	}
	t.escrows[escrow.EscrowID] = cloneEscrow(escrow)
	return nil
}

func (t *memTx) escrow(id string) (domain.Escrow, bool) {
	if escrow, ok := t.escrows[id]; ok {
		return cloneEscrow(escrow), true
	}
	t.store.mu.RLock()
	defer t.store.mu.RUnlock()
	escrow, ok := t.store.escrows[id]
	if !ok {
		return domain.Escrow{}, false
	}
	return cloneEscrow(escrow), true
}

func (t *memTx) InsertDispute(ctx context.Context, dispute domain.Dispute) error {
	if err := t.lock(ctx, "dispute:"+dispute.DisputeID); err != nil {
		return err
	}
	if _, ok := t.dispute(dispute.DisputeID); ok {
		return fmt.Errorf("%w: dispute %s", apperrors.ErrDuplicate, dispute.DisputeID)
	}
	t.disputes[dispute.DisputeID] = cloneDispute(dispute)
	return nil
}

func (t *memTx) FindDisputeForUpdate(ctx context.Context, disputeID string) (*domain.Dispute, error) {
	if err := t.lock(ctx, "dispute:"+disputeID); err != nil {
		return nil, err
	}
	dispute, ok := t.dispute(disputeID)
	if !ok {
		return nil, fmt.Errorf("%w: dispute %s", apperrors.ErrNotFound, disputeID)
	}
	return &dispute, nil
}

func (t *memTx) UpdateDispute(ctx context.Context, dispute domain.Dispute) error {
	if !t.held["dispute:"+dispute.DisputeID] {
		return fmt.Errorf("%w: dispute %s is not locked", apperrors.ErrInternal, dispute.DisputeID)
	}
	t.disputes[dispute.DisputeID] = cloneDispute(dispute)
	return nil
}

func (t *memTx) dispute(id string) (domain.Dispute, bool) {
	if dispute, ok := t.disputes[id]; ok {
		return cloneDispute(dispute), true
	}
	t.store.mu.RLock()
	defer t.store.mu.RUnlock()
	dispute, ok := t.store.disputes[id]
	if !ok {
		return domain.Dispute{}, false
	}
	return cloneDispute(dispute), true
}
