package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/SscSPs/escrow_ledger_app/internal/apperrors"
	"github.com/SscSPs/escrow_ledger_app/internal/core/domain"
	portsrepo "github.com/SscSPs/escrow_ledger_app/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/escrow_ledger_app/internal/core/ports/services"
	"github.com/SscSPs/escrow_ledger_app/internal/dto"
	"github.com/SscSPs/escrow_ledger_app/internal/utils/accounting"
	"github.com/SscSPs/escrow_ledger_app/internal/utils/pagination"
	"github.com/google/uuid"
)

type ledgerService struct {
	BaseService
	txManager  portsrepo.TransactionManager
	ledgerRepo portsrepo.LedgerReader
	audit      portssvc.AuditLogger
}

// NewLedgerService creates the ledger engine. It is the only writer of account balances.
func NewLedgerService(txManager portsrepo.TransactionManager, ledgerRepo portsrepo.LedgerReader, audit portssvc.AuditLogger, options ...ServiceOption) portssvc.LedgerSvcFacade {
	svc := &ledgerService{
		txManager:  txManager,
		ledgerRepo: ledgerRepo,
		audit:      audit,
	}
	svc.apply(options)
	return svc
}

var _ portssvc.LedgerSvcFacade = (*ledgerService)(nil)

func (s *ledgerService) CreateEntry(ctx context.Context, req dto.CreateEntryRequest) (*domain.LedgerEntry, error) {
	var entry *domain.LedgerEntry
	err := s.txManager.RunInTx(ctx, func(ctx context.Context, tx portsrepo.TxRepositories) error {
		if err := checkManualEntry(ctx, tx, req); err != nil {
			return err
		}
		var err error
		entry, err = s.PostEntryInTx(ctx, tx, req)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.LogInfo(ctx, "Ledger entry created",
		slog.String("entry_id", entry.EntryID),
		slog.Int64("sequence", entry.Sequence),
		slog.String("status", string(entry.Status)))
	return entry, nil
}

// PostEntryInTx validates req and appends it to the ledger chain inside tx.
func (s *ledgerService) PostEntryInTx(ctx context.Context, tx portsrepo.TxRepositories, req dto.CreateEntryRequest) (*domain.LedgerEntry, error) {
	amount, err := validateEntryRequest(&req)
	if err != nil {
		return nil, err
	}
	now := s.Now()
	status := domain.EntryCompleted
	if req.RequiresApproval {
		status = domain.EntryPending
	}
	draft := domain.LedgerEntry{
		EntryID:           uuid.NewString(),
		DebitAccountID:    req.DebitAccountID,
		CreditAccountID:   req.CreditAccountID,
		Amount:            amount,
		CurrencyCode:      req.CurrencyCode,
		Description:       req.Description,
		Category:          req.Category,
		Subcategory:       req.Subcategory,
		ExternalReference: req.ExternalReference,
		Status:            status,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     req.CreatedBy,
			LastUpdatedAt: now,
			LastUpdatedBy: req.CreatedBy,
		},
	}
	return s.appendEntry(ctx, tx, draft)
}

// checkManualEntry keeps externally posted entries away from the escrow
// category and the escrow holding account. Both accounts are locked in the
// same order appendEntry uses.
func checkManualEntry(ctx context.Context, tx portsrepo.TxRepositories, req dto.CreateEntryRequest) error {
	if strings.EqualFold(strings.TrimSpace(req.Category), domain.CategoryEscrow) {
		return fmt.Errorf("%w: category %s is reserved for escrow settlement", apperrors.ErrConflict, domain.CategoryEscrow)
	}
	debitID := strings.TrimSpace(req.DebitAccountID)
	creditID := strings.TrimSpace(req.CreditAccountID)
	if debitID == "" || creditID == "" {
		return nil
	}
	accounts, err := tx.Accounts().LockAccounts(ctx, []string{debitID, creditID})
	if err != nil {
		return err
	}
	if debit, ok := accounts[debitID]; ok && debit.AccountType == domain.SystemEscrowHolding {
		return fmt.Errorf("%w: account %s holds escrowed funds and is debited only by escrow settlement", apperrors.ErrConflict, debit.AccountID)
	}
	return nil
}

// lockManualEntry locks an entry for a direct approve, reject or reverse.
// Escrow entries are settled through their escrow only.
func lockManualEntry(ctx context.Context, tx portsrepo.TxRepositories, entryID string) (*domain.LedgerEntry, error) {
	entry, err := tx.Ledger().FindEntryForUpdate(ctx, entryID)
	if err != nil {
		return nil, err
	}
	if entry.Category == domain.CategoryEscrow {
		return nil, fmt.Errorf("%w: entry %s belongs to an escrow (%s) and is settled through it", apperrors.ErrConflict, entry.EntryID, entry.Subcategory)
	}
	return entry, nil
}

func validateEntryRequest(req *dto.CreateEntryRequest) (int64, error) {
	req.DebitAccountID = strings.TrimSpace(req.DebitAccountID)
	req.CreditAccountID = strings.TrimSpace(req.CreditAccountID)
	req.CurrencyCode = strings.ToUpper(strings.TrimSpace(req.CurrencyCode))
	req.Description = strings.TrimSpace(req.Description)
	req.Category = strings.TrimSpace(req.Category)

	switch {
	case req.DebitAccountID == "" || req.CreditAccountID == "":
		return 0, fmt.Errorf("%w: debit and credit accounts are required", apperrors.ErrValidation)
	case req.DebitAccountID == req.CreditAccountID:
		return 0, fmt.Errorf("%w: debit and credit accounts must differ", apperrors.ErrValidation)
	case req.CurrencyCode == "":
		return 0, fmt.Errorf("%w: currency is required", apperrors.ErrValidation)
	case req.Description == "":
		return 0, fmt.Errorf("%w: description is required", apperrors.ErrValidation)
	case req.Category == "":
		return 0, fmt.Errorf("%w: category is required", apperrors.ErrValidation)
	case req.CreatedBy == "":
		return 0, fmt.Errorf("%w: creator is required", apperrors.ErrValidation)
	}
	return accounting.ToMinorUnits(req.Amount)
}

// appendEntry checks the entry against its locked accounts and chains it.
// Preconditions run in order and before any write: existence, status, currency, balance.
func (s *ledgerService) appendEntry(ctx context.Context, tx portsrepo.TxRepositories, entry domain.LedgerEntry) (*domain.LedgerEntry, error) {
	accounts, err := tx.Accounts().LockAccounts(ctx, []string{entry.DebitAccountID, entry.CreditAccountID})
	if err != nil {
		s.LogError(ctx, err, "Failed to lock entry accounts")
		return nil, err
	}
	debit, ok := accounts[entry.DebitAccountID]
	if !ok {
		return nil, fmt.Errorf("%w: debit account %s", apperrors.ErrNotFound, entry.DebitAccountID)
	}
	credit, ok := accounts[entry.CreditAccountID]
	if !ok {
		return nil, fmt.Errorf("%w: credit account %s", apperrors.ErrNotFound, entry.CreditAccountID)
	}
	if !debit.IsActive() {
		return nil, fmt.Errorf("%w: debit account %s is not active", apperrors.ErrValidation, debit.AccountID)
	}
	if !credit.IsActive() {
		return nil, fmt.Errorf("%w: credit account %s is not active", apperrors.ErrValidation, credit.AccountID)
	}
	if debit.CurrencyCode != credit.CurrencyCode {
		return nil, fmt.Errorf("%w: account currencies differ (%s vs %s)", apperrors.ErrValidation, debit.CurrencyCode, credit.CurrencyCode)
	}
	if debit.CurrencyCode != entry.CurrencyCode {
		return nil, fmt.Errorf("%w: entry currency %s does not match account currency %s", apperrors.ErrValidation, entry.CurrencyCode, debit.CurrencyCode)
	}
	if !debit.IsSystem && debit.Available() < entry.Amount {
		return nil, &apperrors.InsufficientBalanceError{
			AccountID: debit.AccountID,
			Available: debit.Available(),
			Requested: entry.Amount,
		}
	}

	changes, err := accounting.EntryBalanceChanges(entry, "", entry.Status)
	if err != nil {
		return nil, err
	}
	if _, err := accounting.ApplyChanges(accounts, changes); err != nil {
		return nil, err
	}

	head, err := tx.Chains().LockChainHead(ctx, domain.ChainLedger)
	if err != nil {
		s.LogError(ctx, err, "Failed to lock ledger chain head")
		return nil, err
	}
	entry.Sequence = head.Sequence + 1
	entry.PreviousHash = head.Hash
	entry.EntryHash = entry.ComputeHash()

	if err := tx.Ledger().InsertEntry(ctx, entry); err != nil {
		s.LogError(ctx, err, "Failed to insert ledger entry", slog.String("entry_id", entry.EntryID))
		return nil, err
	}
	if err := tx.Accounts().UpdateAccountBalances(ctx, changes, entry.CreatedBy, entry.CreatedAt); err != nil {
		s.LogError(ctx, err, "Failed to update account balances", slog.String("entry_id", entry.EntryID))
		return nil, err
	}
	if err := tx.Chains().AdvanceChainHead(ctx, head.Next(entry.EntryHash)); err != nil {
		return nil, err
	}

	_, err = s.audit.LogInTx(ctx, tx, domain.AuditInput{
		Action:       domain.ActionEntryCreated,
		ResourceType: domain.ResourceLedgerEntry,
		ResourceID:   entry.EntryID,
		ActorID:      entry.CreatedBy,
		Details: map[string]any{
			"sequence":          entry.Sequence,
			"debitAccountId":    entry.DebitAccountID,
			"creditAccountId":   entry.CreditAccountID,
			"amount":            entry.Amount,
			"currency":          entry.CurrencyCode,
			"category":          entry.Category,
			"status":            entry.Status,
			"externalReference": entry.ExternalReference,
			"reversesEntryId":   entry.ReversesEntryID,
		},
		Risk: s.RiskInputs(ctx),
	})
	if err != nil {
		return nil, err
	}

	tx.AfterCommit(func() {
		s.Metrics.EntryPosted(string(entry.Status), entry.Category, entry.CurrencyCode, entry.Amount)
		s.notifyEntry(ctx, domain.ActionEntryCreated, entry)
	})
	return &entry, nil
}

func (s *ledgerService) notifyEntry(ctx context.Context, action domain.AuditAction, entry domain.LedgerEntry) {
	s.Notify(ctx, domain.MonitorEvent{
		Kind:         domain.MonitorLedgerEntry,
		Action:       action,
		ResourceID:   entry.EntryID,
		ActorID:      entry.LastUpdatedBy,
		AccountIDs:   []string{entry.DebitAccountID, entry.CreditAccountID},
		Amount:       entry.Amount,
		CurrencyCode: entry.CurrencyCode,
		Attributes: map[string]string{
			"status":   string(entry.Status),
			"category": entry.Category,
		},
	})
}

func (s *ledgerService) ApproveEntry(ctx context.Context, entryID string, approvedBy string) (*domain.LedgerEntry, error) {
	var entry *domain.LedgerEntry
	err := s.txManager.RunInTx(ctx, func(ctx context.Context, tx portsrepo.TxRepositories) error {
		if _, err := lockManualEntry(ctx, tx, entryID); err != nil {
			return err
		}
		var err error
		entry, err = s.ApproveEntryInTx(ctx, tx, entryID, approvedBy)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.LogInfo(ctx, "Ledger entry approved", slog.String("entry_id", entryID))
	return entry, nil
}

// ApproveEntryInTx completes a PENDING entry, moving the reserved amount.
func (s *ledgerService) ApproveEntryInTx(ctx context.Context, tx portsrepo.TxRepositories, entryID string, approvedBy string) (*domain.LedgerEntry, error) {
	if approvedBy == "" {
		return nil, fmt.Errorf("%w: approver is required", apperrors.ErrValidation)
	}
	entry, err := s.lockPendingEntry(ctx, tx, entryID)
	if err != nil {
		return nil, err
	}

	accounts, err := tx.Accounts().LockAccounts(ctx, []string{entry.DebitAccountID, entry.CreditAccountID})
	if err != nil {
		return nil, err
	}
	debit, okDebit := accounts[entry.DebitAccountID]
	credit, okCredit := accounts[entry.CreditAccountID]
	if !okDebit || !okCredit {
		return nil, fmt.Errorf("%w: accounts of entry %s", apperrors.ErrNotFound, entry.EntryID)
	}
	if !debit.IsActive() || !credit.IsActive() {
		return nil, fmt.Errorf("%w: accounts of entry %s must be active", apperrors.ErrValidation, entry.EntryID)
	}
	if !debit.IsSystem {
		// The entry's own reservation is part of Pending and is about to be consumed.
		available, err := accounting.Add(debit.Available(), entry.Amount)
		if err != nil {
			return nil, err
		}
		if available < entry.Amount {
			return nil, &apperrors.InsufficientBalanceError{
				AccountID: debit.AccountID,
				Available: available,
				Requested: entry.Amount,
			}
		}
	}

	entry.Status = domain.EntryCompleted
	entry.LastUpdatedAt = s.Now()
	entry.LastUpdatedBy = approvedBy
	if err := s.transition(ctx, tx, accounts, entry, domain.EntryPending, domain.ActionEntryApproved); err != nil {
		return nil, err
	}
	return entry, nil
}

func (s *ledgerService) RejectEntry(ctx context.Context, entryID string, reason string, rejectedBy string) (*domain.LedgerEntry, error) {
	var entry *domain.LedgerEntry
	err := s.txManager.RunInTx(ctx, func(ctx context.Context, tx portsrepo.TxRepositories) error {
		if _, err := lockManualEntry(ctx, tx, entryID); err != nil {
			return err
		}
		var err error
		entry, err = s.RejectEntryInTx(ctx, tx, entryID, reason, rejectedBy)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.LogInfo(ctx, "Ledger entry rejected", slog.String("entry_id", entryID))
	return entry, nil
}

// RejectEntryInTx declines a PENDING entry and releases its reservation.
func (s *ledgerService) RejectEntryInTx(ctx context.Context, tx portsrepo.TxRepositories, entryID string, reason string, rejectedBy string) (*domain.LedgerEntry, error) {
	if rejectedBy == "" || strings.TrimSpace(reason) == "" {
		return nil, fmt.Errorf("%w: reason and rejecting user are required", apperrors.ErrValidation)
	}
	entry, err := s.lockPendingEntry(ctx, tx, entryID)
	if err != nil {
		return nil, err
	}
	accounts, err := tx.Accounts().LockAccounts(ctx, []string{entry.DebitAccountID})
	if err != nil {
		return nil, err
	}

	entry.Status = domain.EntryRejected
	entry.StatusReason = reason
	entry.LastUpdatedAt = s.Now()
	entry.LastUpdatedBy = rejectedBy
	if err := s.transition(ctx, tx, accounts, entry, domain.EntryPending, domain.ActionEntryRejected); err != nil {
		return nil, err
	}
	return entry, nil
}

func (s *ledgerService) lockPendingEntry(ctx context.Context, tx portsrepo.TxRepositories, entryID string) (*domain.LedgerEntry, error) {
	entry, err := tx.Ledger().FindEntryForUpdate(ctx, entryID)
	if err != nil {
		return nil, err
	}
	if entry.Status != domain.EntryPending {
		return nil, fmt.Errorf("%w: entry %s is %s, not PENDING", apperrors.ErrConflict, entry.EntryID, entry.Status)
	}
	return entry, nil
}

// transition applies the balance effect of moving entry out of from into entry.Status.
func (s *ledgerService) transition(ctx context.Context, tx portsrepo.TxRepositories, accounts map[string]domain.Account, entry *domain.LedgerEntry, from domain.EntryStatus, action domain.AuditAction) error {
	changes, err := accounting.EntryBalanceChanges(*entry, from, entry.Status)
	if err != nil {
		return err
	}
	if _, err := accounting.ApplyChanges(accounts, changes); err != nil {
		return err
	}
	if err := tx.Accounts().UpdateAccountBalances(ctx, changes, entry.LastUpdatedBy, entry.LastUpdatedAt); err != nil {
		return err
	}
	if err := tx.Ledger().UpdateEntryStatus(ctx, entry.EntryID, entry.Status, entry.StatusReason, entry.ReversedByEntryID, entry.LastUpdatedBy, entry.LastUpdatedAt); err != nil {
		return err
	}
	_, err = s.audit.LogInTx(ctx, tx, domain.AuditInput{
		Action:       action,
		ResourceType: domain.ResourceLedgerEntry,
		ResourceID:   entry.EntryID,
		ActorID:      entry.LastUpdatedBy,
		Details: map[string]any{
			"from":   from,
			"to":     entry.Status,
			"amount": entry.Amount,
			"reason": entry.StatusReason,
		},
		Risk: s.RiskInputs(ctx),
	})
	if err != nil {
		return err
	}
	snapshot := *entry
	tx.AfterCommit(func() {
		s.notifyEntry(ctx, action, snapshot)
	})
	return nil
}

// ReverseEntry appends a swapped entry through the normal posting path and
// marks the original REVERSED.
func (s *ledgerService) ReverseEntry(ctx context.Context, entryID string, reason string, reversedBy string) (*domain.LedgerEntry, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" || reversedBy == "" {
		return nil, fmt.Errorf("%w: reason and reversing user are required", apperrors.ErrValidation)
	}

	var reversal *domain.LedgerEntry
	err := s.txManager.RunInTx(ctx, func(ctx context.Context, tx portsrepo.TxRepositories) error {
		original, err := lockManualEntry(ctx, tx, entryID)
		if err != nil {
			return err
		}
		switch {
		case original.Status == domain.EntryReversed:
			return fmt.Errorf("%w: entry %s is already reversed by %s", apperrors.ErrConflict, original.EntryID, original.ReversedByEntryID)
		case original.Status != domain.EntryCompleted:
			return fmt.Errorf("%w: only COMPLETED entries can be reversed, entry %s is %s", apperrors.ErrConflict, original.EntryID, original.Status)
		case original.IsReversal():
			return fmt.Errorf("%w: entry %s is itself a reversal", apperrors.ErrConflict, original.EntryID)
		}

		now := s.Now()
		reversal, err = s.appendEntry(ctx, tx, domain.LedgerEntry{
			EntryID:           uuid.NewString(),
			DebitAccountID:    original.CreditAccountID,
			CreditAccountID:   original.DebitAccountID,
			Amount:            original.Amount,
			CurrencyCode:      original.CurrencyCode,
			Description:       fmt.Sprintf("Reversal of %s: %s", original.EntryID, reason),
			Category:          domain.CategoryReversal,
			Subcategory:       original.Category,
			ExternalReference: original.EntryID,
			Status:            domain.EntryCompleted,
			ReversesEntryID:   original.EntryID,
			AuditFields: domain.AuditFields{
				CreatedAt:     now,
				CreatedBy:     reversedBy,
				LastUpdatedAt: now,
				LastUpdatedBy: reversedBy,
			},
		})
		if err != nil {
			return err
		}

		if err := tx.Ledger().UpdateEntryStatus(ctx, original.EntryID, domain.EntryReversed, reason, reversal.EntryID, reversedBy, now); err != nil {
			return err
		}
		_, err = s.audit.LogInTx(ctx, tx, domain.AuditInput{
			Action:       domain.ActionEntryReversed,
			ResourceType: domain.ResourceLedgerEntry,
			ResourceID:   original.EntryID,
			ActorID:      reversedBy,
			Details: map[string]any{
				"reversalEntryId": reversal.EntryID,
				"amount":          original.Amount,
				"currency":        original.CurrencyCode,
				"reason":          reason,
			},
			Risk: s.RiskInputs(ctx),
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	s.LogInfo(ctx, "Ledger entry reversed",
		slog.String("entry_id", entryID),
		slog.String("reversal_entry_id", reversal.EntryID))
	return reversal, nil
}

func (s *ledgerService) GetEntry(ctx context.Context, entryID string) (*domain.LedgerEntry, error) {
	entry, err := s.ledgerRepo.FindEntryByID(ctx, entryID)
	if err != nil {
		s.LogDebug(ctx, "Ledger entry lookup failed", slog.String("entry_id", entryID), slog.String("error", err.Error()))
		return nil, err
	}
	return entry, nil
}

func (s *ledgerService) ListEntries(ctx context.Context, params dto.ListEntriesParams) (*dto.ListEntriesResponse, error) {
	after, err := pagination.DecodeSequenceToken(params.NextToken)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
	}
	limit := pagination.ClampLimit(params.Limit)

	entries, err := s.ledgerRepo.ListEntries(ctx, after, limit+1, params.AccountID)
	if err != nil {
		s.LogError(ctx, err, "Failed to list ledger entries", slog.String("account_id", params.AccountID))
		return nil, err
	}

	resp := &dto.ListEntriesResponse{Entries: []dto.EntryResponse{}}
	if len(entries) > limit {
		entries = entries[:limit]
		token := pagination.EncodeSequenceToken(entries[limit-1].Sequence)
		resp.NextToken = &token
	}
	for i := range entries {
		resp.Entries = append(resp.Entries, dto.ToEntryResponse(&entries[i]))
	}
	return resp, nil
}

func (s *ledgerService) VerifyIntegrity(ctx context.Context) domain.IntegrityReport {
	report := verifyChain(ctx, domain.ChainLedger, s.Now(), s.ledgerRepo,
		func(ctx context.Context, after int64, limit int) ([]chainLink, error) {
			entries, err := s.ledgerRepo.ListEntries(ctx, after, limit, "")
			if err != nil {
				return nil, err
			}
			links := make([]chainLink, len(entries))
			for i, e := range entries {
				links[i] = chainLink{
					ID:           e.EntryID,
					Sequence:     e.Sequence,
					Hash:         e.EntryHash,
					PreviousHash: e.PreviousHash,
					Computed:     e.ComputeHash(),
				}
			}
			return links, nil
		}, nil)

	s.Metrics.IntegrityChecked(string(report.Chain), len(report.Errors))
	if !report.IsValid {
		s.GetLogger(ctx).Warn("Ledger chain verification found issues", slog.Int("issues", len(report.Errors)))
	}
	return report
}
