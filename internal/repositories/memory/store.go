// Package memory is an embedded, non-durable storage engine with the same
// transactional semantics as the Postgres repositories: per-key exclusive
// locks held until the unit of work ends and writes staged until commit.
package memory

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/SscSPs/escrow_ledger_app/internal/apperrors"
	"github.com/SscSPs/escrow_ledger_app/internal/core/domain"
	portsrepo "github.com/SscSPs/escrow_ledger_app/internal/core/ports/repositories"
)

// Store holds committed state. Readers see only committed data.
type Store struct {
	mu    sync.RWMutex
	locks *lockTable

	owners   map[string]domain.Owner
	accounts map[string]domain.Account
	entries  []domain.LedgerEntry // index = sequence-1
	entryIdx map[string]int
	audit    []domain.AuditRecord
	security []domain.SecurityEvent
	escrows  map[string]domain.Escrow
	disputes map[string]domain.Dispute
	heads    map[domain.ChainName]domain.ChainHead
	counters map[string]int64
}

func NewStore() *Store {
	return &Store{
		locks:    newLockTable(),
		owners:   make(map[string]domain.Owner),
		accounts: make(map[string]domain.Account),
		entryIdx: make(map[string]int),
		escrows:  make(map[string]domain.Escrow),
		disputes: make(map[string]domain.Dispute),
		heads: map[domain.ChainName]domain.ChainHead{
			domain.ChainLedger:   domain.GenesisHead(domain.ChainLedger),
			domain.ChainAudit:    domain.GenesisHead(domain.ChainAudit),
			domain.ChainSecurity: domain.GenesisHead(domain.ChainSecurity),
		},
		counters: make(map[string]int64),
	}
}

// NewRepositoryProvider exposes the store through the repository ports.
func NewRepositoryProvider(store *Store) portsrepo.RepositoryProvider {
	return portsrepo.RepositoryProvider{
		TxManager:   store,
		OwnerRepo:   store,
		AccountRepo: store,
		LedgerRepo:  store,
		AuditRepo:   store,
		EscrowRepo:  store,
		Sequences:   store,
	}
}

var (
	_ portsrepo.TransactionManager = (*Store)(nil)
	_ portsrepo.OwnerReader        = (*Store)(nil)
	_ portsrepo.AccountReader      = (*Store)(nil)
	_ portsrepo.LedgerReader       = (*Store)(nil)
	_ portsrepo.AuditReader        = (*Store)(nil)
	_ portsrepo.EscrowReader       = (*Store)(nil)
	_ portsrepo.SequenceGenerator  = (*Store)(nil)
)

// --- Owners ---

func (s *Store) FindOwnerByID(ctx context.Context, ownerID string) (*domain.Owner, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	owner, ok := s.owners[ownerID]
	if !ok {
		return nil, fmt.Errorf("%w: owner %s", apperrors.ErrNotFound, ownerID)
	}
	return &owner, nil
}

func (s *Store) FindOwnersByIDs(ctx context.Context, ownerIDs []string) (map[string]domain.Owner, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]domain.Owner, len(ownerIDs))
	for _, id := range ownerIDs {
		if owner, ok := s.owners[id]; ok {
			out[id] = owner
		}
	}
	return out, nil
}

// --- Accounts ---

func (s *Store) FindAccountByID(ctx context.Context, accountID string) (*domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	account, ok := s.accounts[accountID]
	if !ok {
		return nil, fmt.Errorf("%w: account %s", apperrors.ErrNotFound, accountID)
	}
	return &account, nil
}

func (s *Store) FindAccountsByIDs(ctx context.Context, accountIDs []string) (map[string]domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]domain.Account, len(accountIDs))
	for _, id := range accountIDs {
		if account, ok := s.accounts[id]; ok {
			out[id] = account
		}
	}
	return out, nil
}

func (s *Store) FindPrimaryAccount(ctx context.Context, ownerID string, currencyCode string) (*domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var best *domain.Account
	for _, account := range s.accounts {
		if account.OwnerID != ownerID || account.CurrencyCode != currencyCode || account.IsSystem || !account.IsActive() {
			continue
		}
		if best == nil || olderAccount(account, *best) {
			a := account
			best = &a
		}
	}
	if best == nil {
		return nil, fmt.Errorf("%w: no active %s account for owner %s", apperrors.ErrNotFound, currencyCode, ownerID)
	}
	return best, nil
}

func (s *Store) FindSystemAccount(ctx context.Context, accountType domain.AccountType, currencyCode string) (*domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, account := range s.accounts {
		if account.IsSystem && account.AccountType == accountType && account.CurrencyCode == currencyCode {
			return &account, nil
		}
	}
	return nil, fmt.Errorf("%w: system account %s for %s", apperrors.ErrNotFound, accountType, currencyCode)
}

func (s *Store) ListAccountsByOwner(ctx context.Context, ownerID string) ([]domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.Account
	for _, account := range s.accounts {
		if account.OwnerID == ownerID {
			out = append(out, account)
		}
	}
	sort.Slice(out, func(i, j int) bool { return olderAccount(out[i], out[j]) })
	return out, nil
}

func olderAccount(a, b domain.Account) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.Before(b.CreatedAt)
	}
	return a.AccountID < b.AccountID
}

// --- Ledger ---

func (s *Store) FindEntryByID(ctx context.Context, entryID string) (*domain.LedgerEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	idx, ok := s.entryIdx[entryID]
	if !ok {
		return nil, fmt.Errorf("%w: ledger entry %s", apperrors.ErrNotFound, entryID)
	}
	entry := s.entries[idx]
	return &entry, nil
}

func (s *Store) ListEntries(ctx context.Context, afterSequence int64, limit int, accountID string) ([]domain.LedgerEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if afterSequence < 0 {
		afterSequence = 0
	}
	var out []domain.LedgerEntry
	for i := int(afterSequence); i < len(s.entries) && len(out) < limit; i++ {
		if accountID != "" && !s.entries[i].Touches(accountID) {
			continue
		}
		out = append(out, s.entries[i])
	}
	return out, nil
}

func (s *Store) FindChainHead(ctx context.Context, chain domain.ChainName) (domain.ChainHead, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	head, ok := s.heads[chain]
	if !ok {
		return domain.ChainHead{}, fmt.Errorf("%w: chain %s", apperrors.ErrNotFound, chain)
	}
	return head, nil
}

// --- Audit ---

func (s *Store) ListAuditRecords(ctx context.Context, afterSequence int64, limit int) ([]domain.AuditRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.AuditRecord
	for i := max(int(afterSequence), 0); i < len(s.audit) && len(out) < limit; i++ {
		out = append(out, cloneAuditRecord(s.audit[i]))
	}
	return out, nil
}

func (s *Store) ListAuditRecordsByResource(ctx context.Context, resourceType domain.ResourceType, resourceID string) ([]domain.AuditRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.AuditRecord
	for _, r := range s.audit {
		if r.ResourceType == resourceType && r.ResourceID == resourceID {
			out = append(out, cloneAuditRecord(r))
		}
	}
	return out, nil
}

func (s *Store) ListSecurityEvents(ctx context.Context, afterSequence int64, limit int) ([]domain.SecurityEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.SecurityEvent
	for i := max(int(afterSequence), 0); i < len(s.security) && len(out) < limit; i++ {
		out = append(out, s.security[i])
	}
	return out, nil
}

// --- Escrows ---

func (s *Store) FindEscrowByID(ctx context.Context, escrowID string) (*domain.Escrow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	escrow, ok := s.escrows[escrowID]
	if !ok {
		return nil, fmt.Errorf("%w: escrow %s", apperrors.ErrNotFound, escrowID)
	}
	escrow = cloneEscrow(escrow)
	return &escrow, nil
}

func (s *Store) FindDisputeByID(ctx context.Context, disputeID string) (*domain.Dispute, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	dispute, ok := s.disputes[disputeID]
	if !ok {
		return nil, fmt.Errorf("%w: dispute %s", apperrors.ErrNotFound, disputeID)
	}
	dispute = cloneDispute(dispute)
	return &dispute, nil
}

func (s *Store) ListEscrowsDueForRelease(ctx context.Context, now time.Time, limit int) ([]domain.Escrow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.Escrow
	for _, escrow := range s.escrows {
		if escrow.Status == domain.EscrowHeld && len(escrow.Stakeholders) == 0 && !escrow.AutoReleaseAt.After(now) {
			out = append(out, cloneEscrow(escrow))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].AutoReleaseAt.Equal(out[j].AutoReleaseAt) {
			return out[i].AutoReleaseAt.Before(out[j].AutoReleaseAt)
		}
		return out[i].EscrowID < out[j].EscrowID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Next returns the next value of a named counter, starting at 1.
func (s *Store) Next(ctx context.Context, name string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counters[name]++
	return s.counters[name], nil
}

// --- Transactions ---

// RunInTx executes fn in a unit of work. Locks are released and hooks run after fn returns.
func (s *Store) RunInTx(ctx context.Context, fn func(ctx context.Context, tx portsrepo.TxRepositories) error) (err error) {
	tx := newTx(s)
	defer func() {
		if p := recover(); p != nil {
			tx.releaseLocks()
			panic(p)
		}
	}()

	if err := fn(ctx, tx); err != nil {
		tx.releaseLocks()
		return err
	}
	s.commit(tx)
	tx.releaseLocks()
	for _, hook := range tx.hooks {
		hook()
	}
	return nil
}

func (s *Store) commit(tx *memTx) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, owner := range tx.owners {
		s.owners[id] = owner
	}
	for id, account := range tx.accounts {
		s.accounts[id] = account
	}

	var inserted []domain.LedgerEntry
	for id, entry := range tx.entries {
		if idx, ok := s.entryIdx[id]; ok {
			s.entries[idx] = entry
			continue
		}
		inserted = append(inserted, entry)
	}
	slices.SortFunc(inserted, func(a, b domain.LedgerEntry) int {
		return int(a.Sequence - b.Sequence)
	})
	for _, entry := range inserted {
		s.entryIdx[entry.EntryID] = len(s.entries)
		s.entries = append(s.entries, entry)
	}

	s.audit = append(s.audit, tx.audit...)
	s.security = append(s.security, tx.security...)
	for id, escrow := range tx.escrows {
		s.escrows[id] = escrow
	}
	for id, dispute := range tx.disputes {
		s.disputes[id] = dispute
	}
	for chain, head := range tx.heads {
		s.heads[chain] = head
	}
}
