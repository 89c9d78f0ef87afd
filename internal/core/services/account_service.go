package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/SscSPs/escrow_ledger_app/internal/apperrors"
	"github.com/SscSPs/escrow_ledger_app/internal/core/domain"
	portsrepo "github.com/SscSPs/escrow_ledger_app/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/escrow_ledger_app/internal/core/ports/services"
	"github.com/SscSPs/escrow_ledger_app/internal/dto"
	"github.com/google/uuid"
)

type accountService struct {
	BaseService
	txManager   portsrepo.TransactionManager
	accountRepo portsrepo.AccountReader
	ownerRepo   portsrepo.OwnerReader
	audit       portssvc.AuditLogger
	currencies  map[string]bool
}

// NewAccountService creates the account registry. Accounts may only be opened
// in one of the supported currencies.
func NewAccountService(txManager portsrepo.TransactionManager, accountRepo portsrepo.AccountReader, ownerRepo portsrepo.OwnerReader, audit portssvc.AuditLogger, supportedCurrencies []string, options ...ServiceOption) portssvc.AccountSvcFacade {
	currencies := make(map[string]bool, len(supportedCurrencies))
	for _, c := range supportedCurrencies {
		currencies[strings.ToUpper(c)] = true
	}
	svc := &accountService{
		txManager:   txManager,
		accountRepo: accountRepo,
		ownerRepo:   ownerRepo,
		audit:       audit,
		currencies:  currencies,
	}
	svc.apply(options)
	return svc
}

var _ portssvc.AccountSvcFacade = (*accountService)(nil)

func (s *accountService) CreateAccount(ctx context.Context, req dto.CreateAccountRequest, userID string) (*domain.Account, error) {
	currency := strings.ToUpper(strings.TrimSpace(req.CurrencyCode))
	ownerID := strings.TrimSpace(req.OwnerID)

	switch {
	case !req.AccountType.IsValid():
		return nil, fmt.Errorf("%w: unknown account type %q", apperrors.ErrValidation, req.AccountType)
	case !s.currencies[currency]:
		return nil, fmt.Errorf("%w: currency %q is not configured", apperrors.ErrValidation, req.CurrencyCode)
	case req.IsSystem != req.AccountType.IsSystemType():
		return nil, fmt.Errorf("%w: account type %s cannot have isSystem=%t", apperrors.ErrValidation, req.AccountType, req.IsSystem)
	case req.IsSystem && ownerID != "":
		return nil, fmt.Errorf("%w: system accounts cannot have an owner", apperrors.ErrValidation)
	case !req.IsSystem && ownerID == "":
		return nil, fmt.Errorf("%w: owner is required for non-system accounts", apperrors.ErrValidation)
	}

	if req.IsSystem {
		if _, err := s.accountRepo.FindSystemAccount(ctx, req.AccountType, currency); err == nil {
			return nil, fmt.Errorf("%w: system account %s already exists for %s", apperrors.ErrDuplicate, req.AccountType, currency)
		} else if !errors.Is(err, apperrors.ErrNotFound) {
			return nil, err
		}
	} else {
		if _, err := s.ownerRepo.FindOwnerByID(ctx, ownerID); err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				return nil, fmt.Errorf("%w: owner %s does not exist", apperrors.ErrValidation, ownerID)
			}
			return nil, err
		}
	}

	now := s.Now()
	account := domain.Account{
		AccountID:    uuid.NewString(),
		AccountType:  req.AccountType,
		OwnerID:      ownerID,
		CurrencyCode: currency,
		Status:       domain.AccountActive,
		IsSystem:     req.IsSystem,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     userID,
			LastUpdatedAt: now,
			LastUpdatedBy: userID,
		},
	}

	err := s.txManager.RunInTx(ctx, func(ctx context.Context, tx portsrepo.TxRepositories) error {
		if err := tx.Accounts().InsertAccount(ctx, account); err != nil {
			return err
		}
		_, err := s.audit.LogInTx(ctx, tx, domain.AuditInput{
			Action:       domain.ActionAccountCreated,
			ResourceType: domain.ResourceAccount,
			ResourceID:   account.AccountID,
			ActorID:      userID,
			Details: map[string]any{
				"accountType": account.AccountType,
				"ownerId":     account.OwnerID,
				"currency":    account.CurrencyCode,
				"isSystem":    account.IsSystem,
			},
			Risk: s.RiskInputs(ctx),
		})
		return err
	})
	if err != nil {
		s.LogError(ctx, err, "Failed to create account",
			slog.String("account_type", string(req.AccountType)),
			slog.String("owner_id", ownerID))
		return nil, err
	}

	s.LogInfo(ctx, "Account created successfully",
		slog.String("account_id", account.AccountID),
		slog.String("account_type", string(account.AccountType)))
	return &account, nil
}

func (s *accountService) EnsureSystemAccount(ctx context.Context, accountType domain.AccountType, currencyCode string) (*domain.Account, error) {
	currencyCode = strings.ToUpper(currencyCode)
	account, err := s.accountRepo.FindSystemAccount(ctx, accountType, currencyCode)
	if err == nil {
		return account, nil
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, err
	}

	account, err = s.CreateAccount(ctx, dto.CreateAccountRequest{
		AccountType:  accountType,
		CurrencyCode: currencyCode,
		IsSystem:     true,
	}, domain.SystemActorID)
	if errors.Is(err, apperrors.ErrDuplicate) {
		// Another instance created it first.
		return s.accountRepo.FindSystemAccount(ctx, accountType, currencyCode)
	}
	return account, err
}

func (s *accountService) GetAccount(ctx context.Context, accountID string) (*domain.Account, error) {
	account, err := s.accountRepo.FindAccountByID(ctx, accountID)
	if err != nil {
		s.LogDebug(ctx, "Account lookup failed", slog.String("account_id", accountID), slog.String("error", err.Error()))
		return nil, err
	}
	return account, nil
}

func (s *accountService) GetBalance(ctx context.Context, accountID string) (*domain.BalanceSnapshot, error) {
	account, err := s.GetAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}
	snapshot := account.Snapshot()
	return &snapshot, nil
}

func (s *accountService) ListOwnerAccounts(ctx context.Context, ownerID string) ([]domain.Account, error) {
	if _, err := s.ownerRepo.FindOwnerByID(ctx, ownerID); err != nil {
		return nil, err
	}
	accounts, err := s.accountRepo.ListAccountsByOwner(ctx, ownerID)
	if err != nil {
		s.LogError(ctx, err, "Failed to list owner accounts", slog.String("owner_id", ownerID))
		return nil, err
	}
	if accounts == nil {
		accounts = []domain.Account{}
	}
	return accounts, nil
}

func (s *accountService) SetAccountStatus(ctx context.Context, accountID string, status domain.AccountStatus, userID string) (*domain.Account, error) {
	if !status.IsValid() {
		return nil, fmt.Errorf("%w: unknown account status %q", apperrors.ErrValidation, status)
	}
	return s.mutateLocked(ctx, accountID, func(ctx context.Context, tx portsrepo.TxRepositories, account *domain.Account, now time.Time) error {
		if account.Status == status {
			return nil
		}
		previous := account.Status
		if err := tx.Accounts().UpdateAccountStatus(ctx, accountID, status, userID, now); err != nil {
			return err
		}
		account.Status = status
		account.LastUpdatedAt = now
		account.LastUpdatedBy = userID
		_, err := s.audit.LogInTx(ctx, tx, domain.AuditInput{
			Action:       domain.ActionAccountStatusChanged,
			ResourceType: domain.ResourceAccount,
			ResourceID:   accountID,
			ActorID:      userID,
			Details:      map[string]any{"from": previous, "to": status},
			Risk:         s.RiskInputs(ctx),
		})
		return err
	})
}

func (s *accountService) SetBlockedAmount(ctx context.Context, accountID string, req dto.SetBlockedAmountRequest, userID string) (*domain.Account, error) {
	if req.Amount < 0 {
		return nil, fmt.Errorf("%w: blocked amount cannot be negative", apperrors.ErrValidation)
	}
	if strings.TrimSpace(req.Reason) == "" {
		return nil, fmt.Errorf("%w: reason is required", apperrors.ErrValidation)
	}
	return s.mutateLocked(ctx, accountID, func(ctx context.Context, tx portsrepo.TxRepositories, account *domain.Account, now time.Time) error {
		previous := account.Blocked
		if err := tx.Accounts().UpdateBlockedAmount(ctx, accountID, req.Amount, userID, now); err != nil {
			return err
		}
		account.Blocked = req.Amount
		account.LastUpdatedAt = now
		account.LastUpdatedBy = userID
		_, err := s.audit.LogInTx(ctx, tx, domain.AuditInput{
			Action:       domain.ActionAccountFundsBlocked,
			ResourceType: domain.ResourceAccount,
			ResourceID:   accountID,
			ActorID:      userID,
			Details:      map[string]any{"from": previous, "to": req.Amount, "reason": req.Reason},
			Risk:         s.RiskInputs(ctx),
		})
		return err
	})
}

// mutateLocked runs fn against the locked account inside one unit of work.
func (s *accountService) mutateLocked(ctx context.Context, accountID string, fn func(ctx context.Context, tx portsrepo.TxRepositories, account *domain.Account, now time.Time) error) (*domain.Account, error) {
	var account domain.Account
	now := s.Now()
	err := s.txManager.RunInTx(ctx, func(ctx context.Context, tx portsrepo.TxRepositories) error {
		locked, err := tx.Accounts().LockAccounts(ctx, []string{accountID})
		if err != nil {
			return err
		}
		acc, ok := locked[accountID]
		if !ok {
			return fmt.Errorf("%w: account %s", apperrors.ErrNotFound, accountID)
		}
		account = acc
		return fn(ctx, tx, &account, now)
	})
	if err != nil {
		s.LogError(ctx, err, "Failed to update account", slog.String("account_id", accountID))
		return nil, err
	}
	return &account, nil
}
