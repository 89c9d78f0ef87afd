package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync/atomic"
	"time"

	"github.com/SscSPs/escrow_ledger_app/internal/apperrors"
	"github.com/SscSPs/escrow_ledger_app/internal/core/domain"
	portsrepo "github.com/SscSPs/escrow_ledger_app/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/escrow_ledger_app/internal/core/ports/services"
	"github.com/SscSPs/escrow_ledger_app/internal/dto"
	"github.com/SscSPs/escrow_ledger_app/internal/utils/accounting"
	"github.com/google/uuid"
)

const escrowNumberSequence = "escrow_number"

// EscrowConfig holds the escrow engine's time limits and arbiter pool.
type EscrowConfig struct {
	DisputeWindow    time.Duration
	AutoReleaseAfter time.Duration
	Resolvers        []string
}

type escrowService struct {
	BaseService
	txManager   portsrepo.TransactionManager
	escrowRepo  portsrepo.EscrowReader
	ownerRepo   portsrepo.OwnerReader
	accountRepo portsrepo.AccountReader
	sequences   portsrepo.SequenceGenerator
	ledger      portssvc.LedgerTxPoster
	audit       portssvc.AuditLogger
	cfg         EscrowConfig
	nextArbiter atomic.Uint64
}

// NewEscrowService creates the escrow engine on top of the ledger engine.
func NewEscrowService(repos portsrepo.RepositoryProvider, ledger portssvc.LedgerTxPoster, audit portssvc.AuditLogger, cfg EscrowConfig, options ...ServiceOption) portssvc.EscrowSvcFacade {
	if cfg.DisputeWindow <= 0 {
		cfg.DisputeWindow = 30 * 24 * time.Hour
	}
	if cfg.AutoReleaseAfter <= 0 {
		cfg.AutoReleaseAfter = 14 * 24 * time.Hour
	}
	svc := &escrowService{
		txManager:   repos.TxManager,
		escrowRepo:  repos.EscrowRepo,
		ownerRepo:   repos.OwnerRepo,
		accountRepo: repos.AccountRepo,
		sequences:   repos.Sequences,
		ledger:      ledger,
		audit:       audit,
		cfg:         cfg,
	}
	svc.apply(options)
	return svc
}

var _ portssvc.EscrowSvcFacade = (*escrowService)(nil)

func (s *escrowService) CreateEscrow(ctx context.Context, req dto.CreateEscrowRequest) (*domain.Escrow, error) {
	req.CurrencyCode = strings.ToUpper(strings.TrimSpace(req.CurrencyCode))
	if req.BuyerID == "" || req.SellerID == "" || req.InitiatorID == "" {
		return nil, fmt.Errorf("%w: buyer, seller and initiator are required", apperrors.ErrValidation)
	}
	if req.BuyerID == req.SellerID {
		return nil, fmt.Errorf("%w: buyer and seller must differ", apperrors.ErrValidation)
	}
	total, err := accounting.ToMinorUnits(req.TotalAmount)
	if err != nil {
		return nil, err
	}
	stakeholders := uniqueStrings(req.Stakeholders)
	createdBy := req.CreatedBy
	if createdBy == "" {
		createdBy = req.InitiatorID
	}

	now := s.Now()
	autoReleaseAt := now.Add(s.cfg.AutoReleaseAfter)
	if req.AutoReleaseAt != nil {
		autoReleaseAt = domain.NormalizeTime(*req.AutoReleaseAt)
	}
	disputeDeadline := now.Add(s.cfg.DisputeWindow)
	if req.DisputeDeadline != nil {
		disputeDeadline = domain.NormalizeTime(*req.DisputeDeadline)
	}
	if !autoReleaseAt.After(now) || !disputeDeadline.After(now) {
		return nil, fmt.Errorf("%w: auto-release date and dispute deadline must be in the future", apperrors.ErrValidation)
	}

	if err := s.validateParties(ctx, req.BuyerID, req.SellerID, req.InitiatorID, stakeholders); err != nil {
		return nil, err
	}
	buyerAccount, err := s.partyAccount(ctx, "buyer", req.BuyerID, req.CurrencyCode)
	if err != nil {
		return nil, err
	}
	sellerAccount, err := s.partyAccount(ctx, "seller", req.SellerID, req.CurrencyCode)
	if err != nil {
		return nil, err
	}
	holding, err := s.accountRepo.FindSystemAccount(ctx, domain.SystemEscrowHolding, req.CurrencyCode)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("%w: no escrow holding account for currency %s", apperrors.ErrValidation, req.CurrencyCode)
		}
		return nil, err
	}

	number, err := s.sequences.Next(ctx, escrowNumberSequence)
	if err != nil {
		s.LogError(ctx, err, "Failed to allocate escrow number")
		return nil, fmt.Errorf("failed to allocate escrow number: %w", err)
	}

	escrow := domain.Escrow{
		EscrowID:           uuid.NewString(),
		EscrowNumber:       fmt.Sprintf("ESC-%s-%08d", now.Format("20060102"), number),
		BuyerID:            req.BuyerID,
		SellerID:           req.SellerID,
		InitiatorID:        req.InitiatorID,
		Stakeholders:       stakeholders,
		TotalAmount:        total,
		CurrencyCode:       req.CurrencyCode,
		BuyerAccountID:     buyerAccount.AccountID,
		SellerAccountID:    sellerAccount.AccountID,
		HoldingAccountID:   holding.AccountID,
		SettlementEntryIDs: []string{},
		ReleaseConditions:  req.ReleaseConditions,
		AutoReleaseAt:      autoReleaseAt,
		DisputeDeadline:    disputeDeadline,
		RequiresApproval:   req.RequiresApproval,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     createdBy,
			LastUpdatedAt: now,
			LastUpdatedBy: createdBy,
		},
	}

	err = s.txManager.RunInTx(ctx, func(ctx context.Context, tx portsrepo.TxRepositories) error {
		entry, err := s.ledger.PostEntryInTx(ctx, tx, dto.CreateEntryRequest{
			DebitAccountID:    escrow.BuyerAccountID,
			CreditAccountID:   escrow.HoldingAccountID,
			Amount:            req.TotalAmount,
			CurrencyCode:      escrow.CurrencyCode,
			Description:       fmt.Sprintf("Escrow hold %s", escrow.EscrowNumber),
			Category:          domain.CategoryEscrow,
			Subcategory:       domain.SubcategoryEscrowHold,
			ExternalReference: escrow.EscrowID,
			CreatedBy:         createdBy,
			RequiresApproval:  req.RequiresApproval,
		})
		if err != nil {
			return err
		}
		escrow.HoldingEntryID = entry.EntryID
		escrow.Status = domain.EscrowHeld
		if entry.Status == domain.EntryPending {
			escrow.Status = domain.EscrowPending
		}
		if err := tx.Escrows().InsertEscrow(ctx, escrow); err != nil {
			return err
		}
		return s.recordTransition(ctx, tx, escrow, domain.ActionEscrowCreated, createdBy, map[string]any{
			"escrowNumber":   escrow.EscrowNumber,
			"totalAmount":    escrow.TotalAmount,
			"currency":       escrow.CurrencyCode,
			"holdingEntryId": escrow.HoldingEntryID,
			"stakeholders":   escrow.Stakeholders,
			"status":         escrow.Status,
		})
	})
	if err != nil {
		s.LogError(ctx, err, "Failed to create escrow", slog.String("buyer_id", req.BuyerID), slog.String("seller_id", req.SellerID))
		return nil, err
	}

	s.LogInfo(ctx, "Escrow created",
		slog.String("escrow_id", escrow.EscrowID),
		slog.String("escrow_number", escrow.EscrowNumber),
		slog.String("status", string(escrow.Status)))
	return &escrow, nil
}

// validateParties checks every party exists and is not blocked, naming the first offender.
func (s *escrowService) validateParties(ctx context.Context, buyerID, sellerID, initiatorID string, stakeholders []string) error {
	type party struct{ role, id string }
	parties := []party{{"buyer", buyerID}, {"seller", sellerID}, {"initiator", initiatorID}}
	for _, id := range stakeholders {
		parties = append(parties, party{"stakeholder", id})
	}
	ids := make([]string, 0, len(parties))
	for _, p := range parties {
		ids = append(ids, p.id)
	}

	owners, err := s.ownerRepo.FindOwnersByIDs(ctx, uniqueStrings(ids))
	if err != nil {
		return err
	}
	for _, p := range parties {
		owner, ok := owners[p.id]
		if !ok {
			return fmt.Errorf("%w: %s %s does not exist", apperrors.ErrValidation, p.role, p.id)
		}
		if owner.IsBlocked() {
			return fmt.Errorf("%w: %s %s is blocked", apperrors.ErrValidation, p.role, p.id)
		}
	}
	return nil
}

func (s *escrowService) partyAccount(ctx context.Context, role, ownerID, currency string) (*domain.Account, error) {
	account, err := s.accountRepo.FindPrimaryAccount(ctx, ownerID, currency)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s %s has no active %s account", apperrors.ErrValidation, role, ownerID, currency)
		}
		return nil, err
	}
	return account, nil
}

func (s *escrowService) ApproveEscrow(ctx context.Context, escrowID string, approvedBy string) (*domain.Escrow, error) {
	if approvedBy == "" {
		return nil, fmt.Errorf("%w: approver is required", apperrors.ErrValidation)
	}
	var escrow *domain.Escrow
	err := s.txManager.RunInTx(ctx, func(ctx context.Context, tx portsrepo.TxRepositories) error {
		var err error
		escrow, err = tx.Escrows().FindEscrowForUpdate(ctx, escrowID)
		if err != nil {
			return err
		}
		if escrow.Status != domain.EscrowPending {
			return fmt.Errorf("%w: escrow %s is %s, not PENDING", apperrors.ErrConflict, escrowID, escrow.Status)
		}
		if _, err := s.ledger.ApproveEntryInTx(ctx, tx, escrow.HoldingEntryID, approvedBy); err != nil {
			return err
		}
		escrow.Status = domain.EscrowHeld
		s.touch(escrow, approvedBy)
		if err := tx.Escrows().UpdateEscrow(ctx, *escrow); err != nil {
			return err
		}
		return s.recordTransition(ctx, tx, *escrow, domain.ActionEscrowApproved, approvedBy, map[string]any{
			"holdingEntryId": escrow.HoldingEntryID,
		})
	})
	if err != nil {
		s.LogError(ctx, err, "Failed to approve escrow", slog.String("escrow_id", escrowID))
		return nil, err
	}
	return escrow, nil
}

func (s *escrowService) ReleaseEscrow(ctx context.Context, req dto.ReleaseEscrowRequest) (*domain.Escrow, error) {
	if strings.TrimSpace(req.Reason) == "" || req.ReleasedBy == "" {
		return nil, fmt.Errorf("%w: reason and releasing user are required", apperrors.ErrValidation)
	}
	var escrow *domain.Escrow
	err := s.txManager.RunInTx(ctx, func(ctx context.Context, tx portsrepo.TxRepositories) error {
		var err error
		escrow, err = tx.Escrows().FindEscrowForUpdate(ctx, req.EscrowID)
		if err != nil {
			return err
		}
		if escrow.Status != domain.EscrowHeld {
			return fmt.Errorf("%w: escrow %s is %s, not HELD", apperrors.ErrConflict, escrow.EscrowID, escrow.Status)
		}
		amount, err := settlementAmount(escrow, req.Amount)
		if err != nil {
			return err
		}
		if err := checkStakeholderApprovals(escrow, req.StakeholderApprovals); err != nil {
			return err
		}

		entry, err := s.settle(ctx, tx, escrow, escrow.SellerAccountID, amount, domain.SubcategoryEscrowRelease, req.Reason, req.ReleasedBy)
		if err != nil {
			return err
		}
		now := s.Now()
		escrow.ReleasedAmount += amount
		escrow.ReleaseReason = req.Reason
		escrow.ReleasedBy = req.ReleasedBy
		escrow.ReleasedAt = &now
		if escrow.Remaining() == 0 {
			escrow.Status = domain.EscrowReleased
		}
		s.touch(escrow, req.ReleasedBy)
		if err := tx.Escrows().UpdateEscrow(ctx, *escrow); err != nil {
			return err
		}
		return s.recordTransition(ctx, tx, *escrow, domain.ActionEscrowReleased, req.ReleasedBy, map[string]any{
			"amount":    amount,
			"entryId":   entry.EntryID,
			"reason":    req.Reason,
			"remaining": escrow.Remaining(),
			"status":    escrow.Status,
		})
	})
	if err != nil {
		s.LogError(ctx, err, "Failed to release escrow", slog.String("escrow_id", req.EscrowID))
		return nil, err
	}
	s.LogInfo(ctx, "Escrow released", slog.String("escrow_id", escrow.EscrowID), slog.Int64("released", escrow.ReleasedAmount))
	return escrow, nil
}

func (s *escrowService) RefundEscrow(ctx context.Context, req dto.RefundEscrowRequest) (*domain.Escrow, error) {
	if strings.TrimSpace(req.Reason) == "" || req.RefundedBy == "" {
		return nil, fmt.Errorf("%w: reason and refunding user are required", apperrors.ErrValidation)
	}
	var escrow *domain.Escrow
	err := s.txManager.RunInTx(ctx, func(ctx context.Context, tx portsrepo.TxRepositories) error {
		var err error
		escrow, err = tx.Escrows().FindEscrowForUpdate(ctx, req.EscrowID)
		if err != nil {
			return err
		}
		if escrow.Status != domain.EscrowHeld && escrow.Status != domain.EscrowPending {
			return fmt.Errorf("%w: escrow %s is %s, only HELD or PENDING escrows can be refunded", apperrors.ErrConflict, escrow.EscrowID, escrow.Status)
		}
		amount, err := settlementAmount(escrow, req.Amount)
		if err != nil {
			return err
		}

		var entryID string
		if escrow.Status == domain.EscrowPending {
			// No funds moved yet: decline the hold instead of posting a refund.
			if amount != escrow.TotalAmount {
				return fmt.Errorf("%w: a PENDING escrow can only be refunded in full", apperrors.ErrValidation)
			}
			if _, err := s.ledger.RejectEntryInTx(ctx, tx, escrow.HoldingEntryID, req.Reason, req.RefundedBy); err != nil {
				return err
			}
			entryID = escrow.HoldingEntryID
		} else {
			entry, err := s.settle(ctx, tx, escrow, escrow.BuyerAccountID, amount, domain.SubcategoryEscrowRefund, req.Reason, req.RefundedBy)
			if err != nil {
				return err
			}
			entryID = entry.EntryID
		}

		now := s.Now()
		escrow.RefundedAmount += amount
		escrow.RefundReason = req.Reason
		escrow.RefundedBy = req.RefundedBy
		escrow.RefundedAt = &now
		if escrow.Remaining() == 0 {
			escrow.Status = domain.EscrowRefunded
		}
		s.touch(escrow, req.RefundedBy)
		if err := tx.Escrows().UpdateEscrow(ctx, *escrow); err != nil {
			return err
		}
		return s.recordTransition(ctx, tx, *escrow, domain.ActionEscrowRefunded, req.RefundedBy, map[string]any{
			"amount":    amount,
			"entryId":   entryID,
			"reason":    req.Reason,
			"remaining": escrow.Remaining(),
			"status":    escrow.Status,
		})
	})
	if err != nil {
		s.LogError(ctx, err, "Failed to refund escrow", slog.String("escrow_id", req.EscrowID))
		return nil, err
	}
	s.LogInfo(ctx, "Escrow refunded", slog.String("escrow_id", escrow.EscrowID), slog.Int64("refunded", escrow.RefundedAmount))
	return escrow, nil
}

func (s *escrowService) RaiseDispute(ctx context.Context, req dto.RaiseDisputeRequest) (*domain.Escrow, *domain.Dispute, error) {
	if strings.TrimSpace(req.Reason) == "" || req.RaisedBy == "" {
		return nil, nil, fmt.Errorf("%w: reason and raising party are required", apperrors.ErrValidation)
	}
	var (
		escrow  *domain.Escrow
		dispute domain.Dispute
	)
	err := s.txManager.RunInTx(ctx, func(ctx context.Context, tx portsrepo.TxRepositories) error {
		var err error
		escrow, err = tx.Escrows().FindEscrowForUpdate(ctx, req.EscrowID)
		if err != nil {
			return err
		}
		now := s.Now()
		if escrow.Status != domain.EscrowHeld {
			return fmt.Errorf("%w: escrow %s is %s, only HELD escrows can be disputed", apperrors.ErrConflict, escrow.EscrowID, escrow.Status)
		}
		if now.After(escrow.DisputeDeadline) {
			return fmt.Errorf("%w: dispute deadline for escrow %s passed at %s", apperrors.ErrConflict, escrow.EscrowID, escrow.DisputeDeadline.Format(time.RFC3339))
		}
		if !escrow.IsParty(req.RaisedBy) {
			return fmt.Errorf("%w: %s is not a party to escrow %s", apperrors.ErrValidation, req.RaisedBy, escrow.EscrowID)
		}

		evidence := req.Evidence
		if evidence == nil {
			evidence = []string{}
		}
		dispute = domain.Dispute{
			DisputeID:        uuid.NewString(),
			EscrowID:         escrow.EscrowID,
			RaisedBy:         req.RaisedBy,
			Reason:           req.Reason,
			Details:          req.Details,
			Evidence:         evidence,
			Status:           domain.DisputeOpen,
			AssignedResolver: s.assignResolver(),
			AuditFields: domain.AuditFields{
				CreatedAt:     now,
				CreatedBy:     req.RaisedBy,
				LastUpdatedAt: now,
				LastUpdatedBy: req.RaisedBy,
			},
		}
		if err := tx.Escrows().InsertDispute(ctx, dispute); err != nil {
			return err
		}
		escrow.Status = domain.EscrowDisputed
		escrow.DisputeID = dispute.DisputeID
		s.touch(escrow, req.RaisedBy)
		if err := tx.Escrows().UpdateEscrow(ctx, *escrow); err != nil {
			return err
		}

		_, err = s.audit.LogInTx(ctx, tx, domain.AuditInput{
			Action:       domain.ActionDisputeRaised,
			ResourceType: domain.ResourceDispute,
			ResourceID:   dispute.DisputeID,
			ActorID:      req.RaisedBy,
			Details: map[string]any{
				"escrowId":         escrow.EscrowID,
				"reason":           dispute.Reason,
				"assignedResolver": dispute.AssignedResolver,
				"evidenceCount":    len(dispute.Evidence),
			},
			Risk: s.RiskInputs(ctx),
		})
		if err != nil {
			return err
		}
		s.afterEscrowCommit(ctx, tx, *escrow, domain.ActionDisputeRaised, req.RaisedBy)
		return nil
	})
	if err != nil {
		s.LogError(ctx, err, "Failed to raise dispute", slog.String("escrow_id", req.EscrowID))
		return nil, nil, err
	}
	s.LogInfo(ctx, "Dispute raised",
		slog.String("escrow_id", escrow.EscrowID),
		slog.String("dispute_id", dispute.DisputeID),
		slog.String("assigned_resolver", dispute.AssignedResolver))
	return escrow, &dispute, nil
}

// assignResolver hands disputes to the configured arbiters in turn.
func (s *escrowService) assignResolver() string {
	if len(s.cfg.Resolvers) == 0 {
		return ""
	}
	n := s.nextArbiter.Add(1) - 1
	return s.cfg.Resolvers[n%uint64(len(s.cfg.Resolvers))]
}

// ResolveDispute settles a disputed escrow. The side named by the resolution
// receives the amount and the other side any rest. Stakeholder approvals do not apply.
func (s *escrowService) ResolveDispute(ctx context.Context, req dto.ResolveDisputeRequest) (*domain.Escrow, *domain.Dispute, error) {
	if !req.Resolution.IsValid() {
		return nil, nil, fmt.Errorf("%w: resolution must be RELEASE or REFUND", apperrors.ErrValidation)
	}
	if req.ResolvedBy == "" {
		return nil, nil, fmt.Errorf("%w: resolving user is required", apperrors.ErrValidation)
	}
	current, err := s.escrowRepo.FindDisputeByID(ctx, req.DisputeID)
	if err != nil {
		return nil, nil, err
	}

	var (
		escrow  *domain.Escrow
		dispute *domain.Dispute
	)
	err = s.txManager.RunInTx(ctx, func(ctx context.Context, tx portsrepo.TxRepositories) error {
		var err error
		escrow, err = tx.Escrows().FindEscrowForUpdate(ctx, current.EscrowID)
		if err != nil {
			return err
		}
		dispute, err = tx.Escrows().FindDisputeForUpdate(ctx, req.DisputeID)
		if err != nil {
			return err
		}
		if dispute.Status != domain.DisputeOpen {
			return fmt.Errorf("%w: dispute %s is %s", apperrors.ErrConflict, dispute.DisputeID, dispute.Status)
		}
		if escrow.Status != domain.EscrowDisputed || escrow.DisputeID != dispute.DisputeID {
			return fmt.Errorf("%w: escrow %s is not under dispute %s", apperrors.ErrConflict, escrow.EscrowID, dispute.DisputeID)
		}
		if dispute.AssignedResolver != "" && dispute.AssignedResolver != req.ResolvedBy {
			return fmt.Errorf("%w: dispute %s is assigned to %s", apperrors.ErrForbidden, dispute.DisputeID, dispute.AssignedResolver)
		}

		remaining := escrow.Remaining()
		award := remaining
		if req.Amount != nil {
			award, err = accounting.ToMinorUnits(*req.Amount)
			if err != nil {
				return err
			}
			if award > remaining {
				return fmt.Errorf("%w: amount %d exceeds the unresolved remainder %d", apperrors.ErrValidation, award, remaining)
			}
		}
		rest := remaining - award

		winner, loser := escrow.SellerAccountID, escrow.BuyerAccountID
		winnerSub, loserSub := domain.SubcategoryEscrowRelease, domain.SubcategoryEscrowRefund
		if req.Resolution == domain.ResolutionRefund {
			winner, loser = loser, winner
			winnerSub, loserSub = loserSub, winnerSub
		}

		// Both settlement entries touch the same accounts; lock them as one batch.
		if _, err := tx.Accounts().LockAccounts(ctx, []string{escrow.HoldingAccountID, escrow.BuyerAccountID, escrow.SellerAccountID}); err != nil {
			return err
		}

		reason := "dispute resolved: " + req.Notes
		var entryIDs []string
		for _, leg := range []struct {
			account     string
			amount      int64
			subcategory string
		}{{winner, award, winnerSub}, {loser, rest, loserSub}} {
			if leg.amount == 0 {
				continue
			}
			entry, err := s.settle(ctx, tx, escrow, leg.account, leg.amount, leg.subcategory, reason, req.ResolvedBy)
			if err != nil {
				return err
			}
			entryIDs = append(entryIDs, entry.EntryID)
			if leg.account == escrow.SellerAccountID {
				escrow.ReleasedAmount += leg.amount
			} else {
				escrow.RefundedAmount += leg.amount
			}
		}

		now := s.Now()
		if req.Resolution == domain.ResolutionRelease {
			escrow.Status = domain.EscrowReleased
			escrow.ReleaseReason = reason
			escrow.ReleasedBy = req.ResolvedBy
			escrow.ReleasedAt = &now
		} else {
			escrow.Status = domain.EscrowRefunded
			escrow.RefundReason = reason
			escrow.RefundedBy = req.ResolvedBy
			escrow.RefundedAt = &now
		}
		s.touch(escrow, req.ResolvedBy)

		dispute.Status = domain.DisputeResolved
		dispute.Resolution = req.Resolution
		dispute.ResolutionNotes = req.Notes
		dispute.ResolvedBy = req.ResolvedBy
		dispute.ResolvedAt = &now
		dispute.LastUpdatedAt = now
		dispute.LastUpdatedBy = req.ResolvedBy

		if err := tx.Escrows().UpdateDispute(ctx, *dispute); err != nil {
			return err
		}
		if err := tx.Escrows().UpdateEscrow(ctx, *escrow); err != nil {
			return err
		}
		_, err = s.audit.LogInTx(ctx, tx, domain.AuditInput{
			Action:       domain.ActionDisputeResolved,
			ResourceType: domain.ResourceDispute,
			ResourceID:   dispute.DisputeID,
			ActorID:      req.ResolvedBy,
			Details: map[string]any{
				"escrowId":   escrow.EscrowID,
				"resolution": dispute.Resolution,
				"award":      award,
				"rest":       rest,
				"entryIds":   entryIDs,
			},
			Risk: s.RiskInputs(ctx),
		})
		if err != nil {
			return err
		}
		s.afterEscrowCommit(ctx, tx, *escrow, domain.ActionDisputeResolved, req.ResolvedBy)
		return nil
	})
	if err != nil {
		s.LogError(ctx, err, "Failed to resolve dispute", slog.String("dispute_id", req.DisputeID))
		return nil, nil, err
	}
	s.LogInfo(ctx, "Dispute resolved",
		slog.String("dispute_id", dispute.DisputeID),
		slog.String("resolution", string(dispute.Resolution)))
	return escrow, dispute, nil
}

// ReleaseDueEscrows releases HELD escrows whose auto-release date has passed.
// Escrows with stakeholders are never released automatically.
func (s *escrowService) ReleaseDueEscrows(ctx context.Context, now time.Time, limit int) (int, error) {
	due, err := s.escrowRepo.ListEscrowsDueForRelease(ctx, domain.NormalizeTime(now), limit)
	if err != nil {
		s.LogError(ctx, err, "Failed to list escrows due for release")
		return 0, err
	}

	released := 0
	var errs []error
	for _, escrow := range due {
		if len(escrow.Stakeholders) > 0 {
			continue
		}
		_, err := s.ReleaseEscrow(ctx, dto.ReleaseEscrowRequest{
			EscrowID:   escrow.EscrowID,
			Reason:     "auto-release date reached",
			ReleasedBy: domain.SystemActorID,
		})
		switch {
		case err == nil:
			released++
		case errors.Is(err, apperrors.ErrConflict):
			// Settled or disputed since it was listed.
			s.LogDebug(ctx, "Skipping escrow changed since listing", slog.String("escrow_id", escrow.EscrowID))
		default:
			errs = append(errs, fmt.Errorf("escrow %s: %w", escrow.EscrowID, err))
		}
	}
	s.Metrics.SweepReleased(released)
	return released, errors.Join(errs...)
}

func (s *escrowService) GetEscrow(ctx context.Context, escrowID string) (*domain.Escrow, error) {
	return s.escrowRepo.FindEscrowByID(ctx, escrowID)
}

func (s *escrowService) GetDispute(ctx context.Context, disputeID string) (*domain.Dispute, error) {
	return s.escrowRepo.FindDisputeByID(ctx, disputeID)
}

// settle moves amount from the holding account to target.
func (s *escrowService) settle(ctx context.Context, tx portsrepo.TxRepositories, escrow *domain.Escrow, target string, amount int64, subcategory, reason, actor string) (*domain.LedgerEntry, error) {
	entry, err := s.ledger.PostEntryInTx(ctx, tx, dto.CreateEntryRequest{
		DebitAccountID:    escrow.HoldingAccountID,
		CreditAccountID:   target,
		Amount:            uint64(amount),
		CurrencyCode:      escrow.CurrencyCode,
		Description:       fmt.Sprintf("Escrow %s %s: %s", strings.ToLower(subcategory), escrow.EscrowNumber, reason),
		Category:          domain.CategoryEscrow,
		Subcategory:       subcategory,
		ExternalReference: escrow.EscrowID,
		CreatedBy:         actor,
	})
	if err != nil {
		return nil, err
	}
	escrow.SettlementEntryIDs = append(escrow.SettlementEntryIDs, entry.EntryID)
	return entry, nil
}

func (s *escrowService) touch(escrow *domain.Escrow, actor string) {
	escrow.LastUpdatedAt = s.Now()
	escrow.LastUpdatedBy = actor
}

// recordTransition audits an escrow change and schedules its notification.
func (s *escrowService) recordTransition(ctx context.Context, tx portsrepo.TxRepositories, escrow domain.Escrow, action domain.AuditAction, actor string, details map[string]any) error {
	_, err := s.audit.LogInTx(ctx, tx, domain.AuditInput{
		Action:       action,
		ResourceType: domain.ResourceEscrow,
		ResourceID:   escrow.EscrowID,
		ActorID:      actor,
		Details:      details,
		Risk:         s.RiskInputs(ctx),
	})
	if err != nil {
		return err
	}
	s.afterEscrowCommit(ctx, tx, escrow, action, actor)
	return nil
}

func (s *escrowService) afterEscrowCommit(ctx context.Context, tx portsrepo.TxRepositories, escrow domain.Escrow, action domain.AuditAction, actor string) {
	parties := append([]string{escrow.BuyerID, escrow.SellerID, escrow.InitiatorID}, escrow.Stakeholders...)
	tx.AfterCommit(func() {
		s.Metrics.EscrowTransition(string(action))
		s.Notify(ctx, domain.MonitorEvent{
			Kind:         domain.MonitorEscrow,
			Action:       action,
			ResourceID:   escrow.EscrowID,
			ActorID:      actor,
			AccountIDs:   []string{escrow.BuyerAccountID, escrow.SellerAccountID},
			Parties:      uniqueStrings(parties),
			Amount:       escrow.TotalAmount,
			CurrencyCode: escrow.CurrencyCode,
			Attributes: map[string]string{
				"escrow_number": escrow.EscrowNumber,
				"status":        string(escrow.Status),
			},
		})
	})
}

// settlementAmount resolves an optional request amount against the escrow bounds.
func settlementAmount(escrow *domain.Escrow, requested *uint64) (int64, error) {
	remaining := escrow.Remaining()
	if requested == nil {
		if remaining <= 0 {
			return 0, fmt.Errorf("%w: escrow %s has nothing left to settle", apperrors.ErrConflict, escrow.EscrowID)
		}
		return remaining, nil
	}
	if *requested > uint64(escrow.TotalAmount) {
		return 0, fmt.Errorf("%w: amount %d exceeds escrow total %d", apperrors.ErrValidation, *requested, escrow.TotalAmount)
	}
	amount, err := accounting.ToMinorUnits(*requested)
	if err != nil {
		return 0, err
	}
	if amount > remaining {
		return 0, fmt.Errorf("%w: amount %d exceeds the unresolved remainder %d", apperrors.ErrValidation, amount, remaining)
	}
	return amount, nil
}

// checkStakeholderApprovals requires an approved=true entry from every
// stakeholder. A stakeholder with any approved=false entry blocks the release
// even when another of its entries approves, and rejections are reported
// before missing approvals.
func checkStakeholderApprovals(escrow *domain.Escrow, approvals []domain.StakeholderApproval) error {
	for _, stakeholder := range escrow.Stakeholders {
		rejected := slices.ContainsFunc(approvals, func(a domain.StakeholderApproval) bool {
			return a.StakeholderID == stakeholder && !a.Approved
		})
		if rejected {
			return &apperrors.StakeholderApprovalError{
				EscrowID:      escrow.EscrowID,
				StakeholderID: stakeholder,
				Reason:        apperrors.StakeholderApprovalRejected,
			}
		}
	}
	for _, stakeholder := range escrow.Stakeholders {
		approved := slices.ContainsFunc(approvals, func(a domain.StakeholderApproval) bool {
			return a.StakeholderID == stakeholder && a.Approved
		})
		if !approved {
			return &apperrors.StakeholderApprovalError{
				EscrowID:      escrow.EscrowID,
				StakeholderID: stakeholder,
				Reason:        apperrors.StakeholderApprovalMissing,
			}
		}
	}
	return nil
}

func uniqueStrings(input []string) []string {
	seen := make(map[string]bool, len(input))
	out := make([]string, 0, len(input))
	for _, v := range input {
		v = strings.TrimSpace(v)
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}
