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
	"github.com/google/uuid"
)

type ownerService struct {
	BaseService
	txManager portsrepo.TransactionManager
	ownerRepo portsrepo.OwnerReader
	audit     portssvc.AuditLogger
}

func NewOwnerService(txManager portsrepo.TransactionManager, ownerRepo portsrepo.OwnerReader, audit portssvc.AuditLogger, options ...ServiceOption) portssvc.OwnerSvcFacade {
	svc := &ownerService{
		txManager: txManager,
		ownerRepo: ownerRepo,
		audit:     audit,
	}
	svc.apply(options)
	return svc
}

var _ portssvc.OwnerSvcFacade = (*ownerService)(nil)

func (s *ownerService) RegisterOwner(ctx context.Context, req dto.RegisterOwnerRequest, userID string) (*domain.Owner, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: owner name is required", apperrors.ErrValidation)
	}
	if !req.Kind.IsValid() {
		return nil, fmt.Errorf("%w: unknown owner kind %q", apperrors.ErrValidation, req.Kind)
	}
	ownerID := strings.TrimSpace(req.OwnerID)
	if ownerID == "" {
		ownerID = uuid.NewString()
	}

	now := s.Now()
	owner := domain.Owner{
		OwnerID: ownerID,
		Kind:    req.Kind,
		Name:    name,
		Status:  domain.OwnerActive,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     userID,
			LastUpdatedAt: now,
			LastUpdatedBy: userID,
		},
	}

	err := s.txManager.RunInTx(ctx, func(ctx context.Context, tx portsrepo.TxRepositories) error {
		if err := tx.Owners().InsertOwner(ctx, owner); err != nil {
			return err
		}
		_, err := s.audit.LogInTx(ctx, tx, domain.AuditInput{
			Action:       domain.ActionOwnerRegistered,
			ResourceType: domain.ResourceOwner,
			ResourceID:   owner.OwnerID,
			ActorID:      userID,
			Details:      map[string]any{"kind": owner.Kind, "name": owner.Name},
			Risk:         s.RiskInputs(ctx),
		})
		return err
	})
	if err != nil {
		s.LogError(ctx, err, "Failed to register owner", slog.String("owner_id", ownerID))
		return nil, err
	}

	s.LogInfo(ctx, "Owner registered", slog.String("owner_id", ownerID), slog.String("kind", string(owner.Kind)))
	return &owner, nil
}

func (s *ownerService) GetOwner(ctx context.Context, ownerID string) (*domain.Owner, error) {
	return s.ownerRepo.FindOwnerByID(ctx, ownerID)
}

func (s *ownerService) SetOwnerStatus(ctx context.Context, ownerID string, status domain.OwnerStatus, userID string) (*domain.Owner, error) {
	if !status.IsValid() {
		return nil, fmt.Errorf("%w: unknown owner status %q", apperrors.ErrValidation, status)
	}
	owner, err := s.ownerRepo.FindOwnerByID(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if owner.Status == status {
		return owner, nil
	}

	now := s.Now()
	previous := owner.Status
	err = s.txManager.RunInTx(ctx, func(ctx context.Context, tx portsrepo.TxRepositories) error {
		if err := tx.Owners().UpdateOwnerStatus(ctx, ownerID, status, userID, now); err != nil {
			return err
		}
		_, err := s.audit.LogInTx(ctx, tx, domain.AuditInput{
			Action:       domain.ActionOwnerStatusChanged,
			ResourceType: domain.ResourceOwner,
			ResourceID:   ownerID,
			ActorID:      userID,
			Details:      map[string]any{"from": previous, "to": status},
			Risk:         s.RiskInputs(ctx),
		})
		return err
	})
	if err != nil {
		s.LogError(ctx, err, "Failed to update owner status", slog.String("owner_id", ownerID))
		return nil, err
	}

	owner.Status = status
	owner.LastUpdatedAt = now
	owner.LastUpdatedBy = userID
	return owner, nil
}
