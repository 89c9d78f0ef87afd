package services_test

import (
	"context"
	"errors"
	"testing"

	"github.com/SscSPs/escrow_ledger_app/internal/apperrors"
	"github.com/SscSPs/escrow_ledger_app/internal/core/domain"
	portsrepo "github.com/SscSPs/escrow_ledger_app/internal/core/ports/repositories"
	"github.com/SscSPs/escrow_ledger_app/internal/core/services"
	"github.com/SscSPs/escrow_ledger_app/internal/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

// MockAccountReader is a mock type for the AccountReader interface
type MockAccountReader struct {
	mock.Mock
}

var _ portsrepo.AccountReader = (*MockAccountReader)(nil)

func (m *MockAccountReader) FindAccountByID(ctx context.Context, accountID string) (*domain.Account, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}

func (m *MockAccountReader) FindAccountsByIDs(ctx context.Context, accountIDs []string) (map[string]domain.Account, error) {
	args := m.Called(ctx, accountIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]domain.Account), args.Error(1)
}

func (m *MockAccountReader) FindPrimaryAccount(ctx context.Context, ownerID string, currencyCode string) (*domain.Account, error) {
	args := m.Called(ctx, ownerID, currencyCode)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}

func (m *MockAccountReader) FindSystemAccount(ctx context.Context, accountType domain.AccountType, currencyCode string) (*domain.Account, error) {
	args := m.Called(ctx, accountType, currencyCode)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}

func (m *MockAccountReader) ListAccountsByOwner(ctx context.Context, ownerID string) ([]domain.Account, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Account), args.Error(1)
}

// MockOwnerReader is a mock type for the OwnerReader interface
type MockOwnerReader struct {
	mock.Mock
}

var _ portsrepo.OwnerReader = (*MockOwnerReader)(nil)

func (m *MockOwnerReader) FindOwnerByID(ctx context.Context, ownerID string) (*domain.Owner, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Owner), args.Error(1)
}

func (m *MockOwnerReader) FindOwnersByIDs(ctx context.Context, ownerIDs []string) (map[string]domain.Owner, error) {
	args := m.Called(ctx, ownerIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]domain.Owner), args.Error(1)
}

type AccountServiceTestSuite struct {
	engineSuite
}

func TestAccountServiceTestSuite(t *testing.T) {
	suite.Run(t, new(AccountServiceTestSuite))
}

func (s *AccountServiceTestSuite) TestCreateAccount_Validation() {
	s.registerOwner("alice")

	testCases := []struct {
		name    string
		req     dto.CreateAccountRequest
		wantErr error
	}{
		{"unknown type", dto.CreateAccountRequest{AccountType: "SAVINGS", OwnerID: "alice", CurrencyCode: "USD"}, apperrors.ErrValidation},
		{"unsupported currency", dto.CreateAccountRequest{AccountType: domain.UserDeposit, OwnerID: "alice", CurrencyCode: "JPY"}, apperrors.ErrValidation},
		{"system flag on user type", dto.CreateAccountRequest{AccountType: domain.UserDeposit, CurrencyCode: "USD", IsSystem: true}, apperrors.ErrValidation},
		{"system type without flag", dto.CreateAccountRequest{AccountType: domain.SystemFees, OwnerID: "alice", CurrencyCode: "USD"}, apperrors.ErrValidation},
		{"system account with owner", dto.CreateAccountRequest{AccountType: domain.SystemFees, OwnerID: "alice", CurrencyCode: "USD", IsSystem: true}, apperrors.ErrValidation},
		{"missing owner", dto.CreateAccountRequest{AccountType: domain.StoreWallet, CurrencyCode: "USD"}, apperrors.ErrValidation},
		{"unknown owner", dto.CreateAccountRequest{AccountType: domain.StoreWallet, OwnerID: "ghost", CurrencyCode: "USD"}, apperrors.ErrValidation},
		{"duplicate system account", dto.CreateAccountRequest{AccountType: domain.SystemEscrowHolding, CurrencyCode: "USD", IsSystem: true}, apperrors.ErrDuplicate},
	}

	for _, tc := range testCases {
		s.Run(tc.name, func() {
			_, err := s.svc.Account.CreateAccount(s.ctx, tc.req, "admin")
			assert.ErrorIs(s.T(), err, tc.wantErr)
		})
	}
}

func (s *AccountServiceTestSuite) TestCreateAndListAccounts() {
	s.registerOwner("alice")
	usd := s.openAccount("alice", "usd")
	eur := s.openAccount("alice", "EUR")

	assert.Equal(s.T(), "USD", usd.CurrencyCode)
	assert.Equal(s.T(), domain.AccountActive, usd.Status)
	assert.False(s.T(), usd.IsSystem)

	accounts, err := s.svc.Account.ListOwnerAccounts(s.ctx, "alice")
	require.NoError(s.T(), err)
	require.Len(s.T(), accounts, 2)
	ids := []string{accounts[0].AccountID, accounts[1].AccountID}
	assert.ElementsMatch(s.T(), []string{usd.AccountID, eur.AccountID}, ids)

	_, err = s.svc.Account.ListOwnerAccounts(s.ctx, "ghost")
	assert.ErrorIs(s.T(), err, apperrors.ErrNotFound)

	_, err = s.svc.Account.GetAccount(s.ctx, "missing")
	assert.ErrorIs(s.T(), err, apperrors.ErrNotFound)
}

func (s *AccountServiceTestSuite) TestEnsureSystemAccountIsIdempotent() {
	again, err := s.svc.Account.EnsureSystemAccount(s.ctx, domain.SystemEscrowHolding, "usd")
	require.NoError(s.T(), err)
	assert.Equal(s.T(), s.holding.AccountID, again.AccountID)
	assert.True(s.T(), again.IsSystem)
	assert.Empty(s.T(), again.OwnerID)
}

func (s *AccountServiceTestSuite) TestEnsureSystemAccount_LosesCreationRace() {
	existing := domain.Account{
		AccountID:    "fees-eur",
		AccountType:  domain.SystemFees,
		CurrencyCode: "EUR",
		Status:       domain.AccountActive,
		IsSystem:     true,
	}
	require.NoError(s.T(), s.store.RunInTx(s.ctx, func(ctx context.Context, tx portsrepo.TxRepositories) error {
		return tx.Accounts().InsertAccount(ctx, existing)
	}))

	// The reader has not seen the other instance's insert yet.
	reader := new(MockAccountReader)
	reader.On("FindSystemAccount", mock.Anything, domain.SystemFees, "EUR").Return(nil, apperrors.ErrNotFound).Twice()
	reader.On("FindSystemAccount", mock.Anything, domain.SystemFees, "EUR").Return(&existing, nil).Once()

	svc := services.NewAccountService(s.store, reader, s.store, s.svc.Audit, []string{"EUR"})
	account, err := svc.EnsureSystemAccount(s.ctx, domain.SystemFees, "EUR")
	require.NoError(s.T(), err)
	assert.Equal(s.T(), "fees-eur", account.AccountID)
	reader.AssertExpectations(s.T())
}

func (s *AccountServiceTestSuite) TestCreateAccount_OwnerLookupFailure() {
	boom := errors.New("connection reset")
	owners := new(MockOwnerReader)
	owners.On("FindOwnerByID", mock.Anything, "alice").Return(nil, boom).Once()

	svc := services.NewAccountService(s.store, s.store, owners, s.svc.Audit, []string{"USD"})
	_, err := svc.CreateAccount(s.ctx, dto.CreateAccountRequest{AccountType: domain.UserDeposit, OwnerID: "alice", CurrencyCode: "USD"}, "admin")
	assert.ErrorIs(s.T(), err, boom)
	assert.NotErrorIs(s.T(), err, apperrors.ErrValidation)
	owners.AssertExpectations(s.T())
}

func (s *AccountServiceTestSuite) TestBlockedAmountReducesAvailable() {
	s.registerOwner("alice")
	s.registerOwner("bob")
	alice := s.openAccount("alice", "USD")
	bob := s.openAccount("bob", "USD")
	s.fund(alice.AccountID, 1_000)

	updated, err := s.svc.Account.SetBlockedAmount(s.ctx, alice.AccountID, dto.SetBlockedAmountRequest{Amount: 700, Reason: "court order"}, "compliance")
	require.NoError(s.T(), err)
	assert.Equal(s.T(), int64(700), updated.Blocked)
	assert.Equal(s.T(), int64(300), s.balance(alice.AccountID).Available)

	_, err = s.transfer(alice.AccountID, bob.AccountID, 301)
	assert.ErrorIs(s.T(), err, apperrors.ErrInsufficientBalance)
	_, err = s.transfer(alice.AccountID, bob.AccountID, 300)
	assert.NoError(s.T(), err)

	_, err = s.svc.Account.SetBlockedAmount(s.ctx, alice.AccountID, dto.SetBlockedAmountRequest{Amount: -1, Reason: "x"}, "compliance")
	assert.ErrorIs(s.T(), err, apperrors.ErrValidation)
	_, err = s.svc.Account.SetBlockedAmount(s.ctx, "missing", dto.SetBlockedAmountRequest{Amount: 1, Reason: "x"}, "compliance")
	assert.ErrorIs(s.T(), err, apperrors.ErrNotFound)

	history, err := s.svc.Audit.ListResourceHistory(s.ctx, domain.ResourceAccount, alice.AccountID)
	require.NoError(s.T(), err)
	require.Len(s.T(), history, 2)
	assert.Equal(s.T(), domain.ActionAccountFundsBlocked, history[1].Action)
}

func (s *AccountServiceTestSuite) TestSetAccountStatus() {
	s.registerOwner("alice")
	alice := s.openAccount("alice", "USD")

	updated, err := s.svc.Account.SetAccountStatus(s.ctx, alice.AccountID, domain.AccountInactive, "admin")
	require.NoError(s.T(), err)
	assert.Equal(s.T(), domain.AccountInactive, updated.Status)

	// Setting the same status again is a no-op and is not audited.
	_, err = s.svc.Account.SetAccountStatus(s.ctx, alice.AccountID, domain.AccountInactive, "admin")
	require.NoError(s.T(), err)
	history, err := s.svc.Audit.ListResourceHistory(s.ctx, domain.ResourceAccount, alice.AccountID)
	require.NoError(s.T(), err)
	assert.Len(s.T(), history, 2)

	_, err = s.svc.Account.SetAccountStatus(s.ctx, alice.AccountID, "FROZEN", "admin")
	assert.ErrorIs(s.T(), err, apperrors.ErrValidation)
}
