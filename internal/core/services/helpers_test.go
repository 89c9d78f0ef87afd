package services_test

import (
	"context"
	"sync"
	"time"

	"github.com/SscSPs/escrow_ledger_app/internal/core/domain"
	portsrepo "github.com/SscSPs/escrow_ledger_app/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/escrow_ledger_app/internal/core/ports/services"
	"github.com/SscSPs/escrow_ledger_app/internal/core/services"
	"github.com/SscSPs/escrow_ledger_app/internal/dto"
	"github.com/SscSPs/escrow_ledger_app/internal/platform/config"
	"github.com/SscSPs/escrow_ledger_app/internal/repositories/memory"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

const testSigningSecret = "test-audit-signing-secret"

// recordingMonitor captures notifications for assertions.
type recordingMonitor struct {
	mu     sync.Mutex
	events []domain.MonitorEvent
}

func (m *recordingMonitor) Notify(ctx context.Context, event domain.MonitorEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
}

func (m *recordingMonitor) Events() []domain.MonitorEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.MonitorEvent(nil), m.events...)
}

func (m *recordingMonitor) Count(kind domain.MonitorEventKind, action domain.AuditAction) int {
	n := 0
	for _, e := range m.Events() {
		if e.Kind == kind && e.Action == action {
			n++
		}
	}
	return n
}

// engineSuite wires every service against the in-memory store with a controllable clock.
type engineSuite struct {
	suite.Suite
	ctx     context.Context
	store   *memory.Store
	repos   portsrepo.RepositoryProvider
	cfg     *config.Config
	svc     *portssvc.ServiceContainer
	monitor *recordingMonitor

	clockMu sync.Mutex
	now     time.Time

	settlement *domain.Account
	holding    *domain.Account
}

func (s *engineSuite) SetupTest() {
	s.ctx = context.Background()
	s.now = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	s.store = memory.NewStore()
	s.repos = memory.NewRepositoryProvider(s.store)
	s.monitor = &recordingMonitor{}
	s.cfg = &config.Config{
		AuditSigningSecret:  testSigningSecret,
		AuditLocation:       time.UTC,
		DefaultCurrency:     "USD",
		SupportedCurrencies: []string{"USD", "EUR"},
		DisputeWindow:       30 * 24 * time.Hour,
		AutoReleaseAfter:    14 * 24 * time.Hour,
		DisputeResolvers:    []string{"arbiter-1"},
	}

	var err error
	s.svc, err = services.NewServiceContainer(s.cfg, s.repos,
		services.WithClock(s.clock),
		services.WithMonitor(s.monitor))
	require.NoError(s.T(), err)

	s.settlement, err = s.svc.Account.EnsureSystemAccount(s.ctx, domain.SystemSettlement, "USD")
	require.NoError(s.T(), err)
	s.holding, err = s.svc.Account.EnsureSystemAccount(s.ctx, domain.SystemEscrowHolding, "USD")
	require.NoError(s.T(), err)
}

func (s *engineSuite) clock() time.Time {
	s.clockMu.Lock()
	defer s.clockMu.Unlock()
	return s.now
}

func (s *engineSuite) advance(d time.Duration) {
	s.clockMu.Lock()
	defer s.clockMu.Unlock()
	s.now = s.now.Add(d)
}

func (s *engineSuite) registerOwner(id string) *domain.Owner {
	owner, err := s.svc.Owner.RegisterOwner(s.ctx, dto.RegisterOwnerRequest{
		OwnerID: id,
		Kind:    domain.OwnerUser,
		Name:    "Owner " + id,
	}, "admin")
	require.NoError(s.T(), err)
	return owner
}

func (s *engineSuite) openAccount(ownerID, currency string) *domain.Account {
	account, err := s.svc.Account.CreateAccount(s.ctx, dto.CreateAccountRequest{
		AccountType:  domain.UserDeposit,
		OwnerID:      ownerID,
		CurrencyCode: currency,
	}, "admin")
	require.NoError(s.T(), err)
	return account
}

// fund deposits amount into accountID from the settlement account.
func (s *engineSuite) fund(accountID string, amount uint64) *domain.LedgerEntry {
	entry, err := s.svc.Ledger.CreateEntry(s.ctx, dto.CreateEntryRequest{
		DebitAccountID:  s.settlement.AccountID,
		CreditAccountID: accountID,
		Amount:          amount,
		CurrencyCode:    "USD",
		Description:     "deposit",
		Category:        "DEPOSIT",
		CreatedBy:       "admin",
	})
	require.NoError(s.T(), err)
	return entry
}

func (s *engineSuite) transfer(from, to string, amount uint64) (*domain.LedgerEntry, error) {
	return s.svc.Ledger.CreateEntry(s.ctx, dto.CreateEntryRequest{
		DebitAccountID:  from,
		CreditAccountID: to,
		Amount:          amount,
		CurrencyCode:    "USD",
		Description:     "transfer",
		Category:        "TRANSFER",
		CreatedBy:       "admin",
	})
}

func (s *engineSuite) balance(accountID string) domain.BalanceSnapshot {
	snapshot, err := s.svc.Account.GetBalance(s.ctx, accountID)
	require.NoError(s.T(), err)
	return *snapshot
}

// totalBalance sums the balance of every account in the currency; it must always be zero.
func (s *engineSuite) totalBalance(accountIDs ...string) int64 {
	var total int64
	for _, id := range append([]string{s.settlement.AccountID, s.holding.AccountID}, accountIDs...) {
		total += s.balance(id).Balance
	}
	return total
}

func ptr[T any](v T) *T {
	return &v
}
