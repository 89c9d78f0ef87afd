package handlers_test

import (
	"context"
	"time"

	"github.com/SscSPs/escrow_ledger_app/internal/core/domain"
	portsrepo "github.com/SscSPs/escrow_ledger_app/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/escrow_ledger_app/internal/core/ports/services"
	"github.com/SscSPs/escrow_ledger_app/internal/dto"
	"github.com/stretchr/testify/mock"
)

// --- Mock OwnerService ---
type MockOwnerService struct {
	mock.Mock
}

func (m *MockOwnerService) RegisterOwner(ctx context.Context, req dto.RegisterOwnerRequest, userID string) (*domain.Owner, error) {
	args := m.Called(ctx, req, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Owner), args.Error(1)
}
func (m *MockOwnerService) GetOwner(ctx context.Context, ownerID string) (*domain.Owner, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Owner), args.Error(1)
}
func (m *MockOwnerService) SetOwnerStatus(ctx context.Context, ownerID string, status domain.OwnerStatus, userID string) (*domain.Owner, error) {
	args := m.Called(ctx, ownerID, status, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Owner), args.Error(1)
}

var _ portssvc.OwnerSvcFacade = (*MockOwnerService)(nil)

// --- Mock AccountService ---
type MockAccountService struct {
	mock.Mock
}

func (m *MockAccountService) GetAccount(ctx context.Context, accountID string) (*domain.Account, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}
func (m *MockAccountService) GetBalance(ctx context.Context, accountID string) (*domain.BalanceSnapshot, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BalanceSnapshot), args.Error(1)
}
func (m *MockAccountService) ListOwnerAccounts(ctx context.Context, ownerID string) ([]domain.Account, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Account), args.Error(1)
}
func (m *MockAccountService) CreateAccount(ctx context.Context, req dto.CreateAccountRequest, userID string) (*domain.Account, error) {
	args := m.Called(ctx, req, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}
func (m *MockAccountService) SetAccountStatus(ctx context.Context, accountID string, status domain.AccountStatus, userID string) (*domain.Account, error) {
	args := m.Called(ctx, accountID, status, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}
func (m *MockAccountService) SetBlockedAmount(ctx context.Context, accountID string, req dto.SetBlockedAmountRequest, userID string) (*domain.Account, error) {
	args := m.Called(ctx, accountID, req, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}
func (m *MockAccountService) EnsureSystemAccount(ctx context.Context, accountType domain.AccountType, currencyCode string) (*domain.Account, error) {
	args := m.Called(ctx, accountType, currencyCode)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}

var _ portssvc.AccountSvcFacade = (*MockAccountService)(nil)

// --- Mock LedgerService ---
type MockLedgerService struct {
	mock.Mock
}

func (m *MockLedgerService) GetEntry(ctx context.Context, entryID string) (*domain.LedgerEntry, error) {
	args := m.Called(ctx, entryID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LedgerEntry), args.Error(1)
}
func (m *MockLedgerService) ListEntries(ctx context.Context, params dto.ListEntriesParams) (*dto.ListEntriesResponse, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.ListEntriesResponse), args.Error(1)
}
func (m *MockLedgerService) CreateEntry(ctx context.Context, req dto.CreateEntryRequest) (*domain.LedgerEntry, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LedgerEntry), args.Error(1)
}
func (m *MockLedgerService) ApproveEntry(ctx context.Context, entryID string, approvedBy string) (*domain.LedgerEntry, error) {
	args := m.Called(ctx, entryID, approvedBy)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LedgerEntry), args.Error(1)
}
func (m *MockLedgerService) RejectEntry(ctx context.Context, entryID string, reason string, rejectedBy string) (*domain.LedgerEntry, error) {
	args := m.Called(ctx, entryID, reason, rejectedBy)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LedgerEntry), args.Error(1)
}
func (m *MockLedgerService) ReverseEntry(ctx context.Context, entryID string, reason string, reversedBy string) (*domain.LedgerEntry, error) {
	args := m.Called(ctx, entryID, reason, reversedBy)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LedgerEntry), args.Error(1)
}
func (m *MockLedgerService) VerifyIntegrity(ctx context.Context) domain.IntegrityReport {
	args := m.Called(ctx)
	return args.Get(0).(domain.IntegrityReport)
}
func (m *MockLedgerService) PostEntryInTx(ctx context.Context, tx portsrepo.TxRepositories, req dto.CreateEntryRequest) (*domain.LedgerEntry, error) {
	args := m.Called(ctx, tx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LedgerEntry), args.Error(1)
}
func (m *MockLedgerService) ApproveEntryInTx(ctx context.Context, tx portsrepo.TxRepositories, entryID string, approvedBy string) (*domain.LedgerEntry, error) {
	args := m.Called(ctx, tx, entryID, approvedBy)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LedgerEntry), args.Error(1)
}
func (m *MockLedgerService) RejectEntryInTx(ctx context.Context, tx portsrepo.TxRepositories, entryID string, reason string, rejectedBy string) (*domain.LedgerEntry, error) {
	args := m.Called(ctx, tx, entryID, reason, rejectedBy)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LedgerEntry), args.Error(1)
}

var _ portssvc.LedgerSvcFacade = (*MockLedgerService)(nil)

// --- Mock EscrowService ---
type MockEscrowService struct {
	mock.Mock
}

func (m *MockEscrowService) GetEscrow(ctx context.Context, escrowID string) (*domain.Escrow, error) {
	args := m.Called(ctx, escrowID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Escrow), args.Error(1)
}
func (m *MockEscrowService) GetDispute(ctx context.Context, disputeID string) (*domain.Dispute, error) {
	args := m.Called(ctx, disputeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Dispute), args.Error(1)
}
func (m *MockEscrowService) CreateEscrow(ctx context.Context, req dto.CreateEscrowRequest) (*domain.Escrow, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Escrow), args.Error(1)
}
func (m *MockEscrowService) ApproveEscrow(ctx context.Context, escrowID string, approvedBy string) (*domain.Escrow, error) {
	args := m.Called(ctx, escrowID, approvedBy)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Escrow), args.Error(1)
}
func (m *MockEscrowService) ReleaseEscrow(ctx context.Context, req dto.ReleaseEscrowRequest) (*domain.Escrow, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Escrow), args.Error(1)
}
func (m *MockEscrowService) RefundEscrow(ctx context.Context, req dto.RefundEscrowRequest) (*domain.Escrow, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Escrow), args.Error(1)
}
func (m *MockEscrowService) RaiseDispute(ctx context.Context, req dto.RaiseDisputeRequest) (*domain.Escrow, *domain.Dispute, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).(*domain.Escrow), args.Get(1).(*domain.Dispute), args.Error(2)
}
func (m *MockEscrowService) ResolveDispute(ctx context.Context, req dto.ResolveDisputeRequest) (*domain.Escrow, *domain.Dispute, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).(*domain.Escrow), args.Get(1).(*domain.Dispute), args.Error(2)
}
func (m *MockEscrowService) ReleaseDueEscrows(ctx context.Context, now time.Time, limit int) (int, error) {
	args := m.Called(ctx, now, limit)
	return args.Int(0), args.Error(1)
}

var _ portssvc.EscrowSvcFacade = (*MockEscrowService)(nil)

// --- Mock AuditService ---
type MockAuditService struct {
	mock.Mock
}

func (m *MockAuditService) Log(ctx context.Context, in domain.AuditInput) (*domain.AuditRecord, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AuditRecord), args.Error(1)
}
func (m *MockAuditService) LogInTx(ctx context.Context, tx portsrepo.TxRepositories, in domain.AuditInput) (*domain.AuditRecord, error) {
	args := m.Called(ctx, tx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AuditRecord), args.Error(1)
}
func (m *MockAuditService) ListRecords(ctx context.Context, params dto.ListChainParams) (*dto.ListAuditRecordsResponse, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.ListAuditRecordsResponse), args.Error(1)
}
func (m *MockAuditService) ListResourceHistory(ctx context.Context, resourceType domain.ResourceType, resourceID string) ([]domain.AuditRecord, error) {
	args := m.Called(ctx, resourceType, resourceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.AuditRecord), args.Error(1)
}
func (m *MockAuditService) ListSecurityEvents(ctx context.Context, params dto.ListChainParams) (*dto.ListSecurityEventsResponse, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.ListSecurityEventsResponse), args.Error(1)
}
func (m *MockAuditService) VerifyAuditIntegrity(ctx context.Context) domain.IntegrityReport {
	args := m.Called(ctx)
	return args.Get(0).(domain.IntegrityReport)
}
func (m *MockAuditService) VerifySecurityIntegrity(ctx context.Context) domain.IntegrityReport {
	args := m.Called(ctx)
	return args.Get(0).(domain.IntegrityReport)
}

var _ portssvc.AuditSvcFacade = (*MockAuditService)(nil)
