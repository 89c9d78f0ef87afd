package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/SscSPs/escrow_ledger_app/internal/apperrors"
	"github.com/SscSPs/escrow_ledger_app/internal/core/domain"
	portsrepo "github.com/SscSPs/escrow_ledger_app/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/escrow_ledger_app/internal/core/ports/services"
	"github.com/SscSPs/escrow_ledger_app/internal/dto"
	"github.com/SscSPs/escrow_ledger_app/internal/utils"
	"github.com/SscSPs/escrow_ledger_app/internal/utils/pagination"
	"github.com/google/uuid"
)

type auditService struct {
	BaseService
	txManager portsrepo.TransactionManager
	auditRepo portsrepo.AuditReader
	signer    *utils.Signer
	location  *time.Location
}

// NewAuditService creates the audit trail. Off-hours risk is judged in loc.
func NewAuditService(txManager portsrepo.TransactionManager, auditRepo portsrepo.AuditReader, signer *utils.Signer, loc *time.Location, options ...ServiceOption) portssvc.AuditSvcFacade {
	if loc == nil {
		loc = time.UTC
	}
	svc := &auditService{
		txManager: txManager,
		auditRepo: auditRepo,
		signer:    signer,
		location:  loc,
	}
	svc.apply(options)
	return svc
}

var _ portssvc.AuditSvcFacade = (*auditService)(nil)

func (s *auditService) Log(ctx context.Context, in domain.AuditInput) (*domain.AuditRecord, error) {
	var record *domain.AuditRecord
	err := s.txManager.RunInTx(ctx, func(ctx context.Context, tx portsrepo.TxRepositories) error {
		var err error
		record, err = s.LogInTx(ctx, tx, in)
		return err
	})
	if err != nil {
		return nil, err
	}
	return record, nil
}

func (s *auditService) LogInTx(ctx context.Context, tx portsrepo.TxRepositories, in domain.AuditInput) (*domain.AuditRecord, error) {
	if in.Action == "" || in.ResourceType == "" {
		return nil, fmt.Errorf("%w: audit action and resource type are required", apperrors.ErrValidation)
	}
	details := in.Details
	if details == nil {
		details = map[string]any{}
	}
	// encoding/json sorts map keys, which keeps the hashed bytes canonical.
	detailBytes, err := json.Marshal(details)
	if err != nil {
		return nil, fmt.Errorf("%w: audit details are not serializable: %v", apperrors.ErrValidation, err)
	}

	now := s.Now()
	risk := in.Risk
	if risk.OccurredAt.IsZero() {
		risk.OccurredAt = now
	}
	score := ScoreRisk(in.Action, in.ResourceType, risk, s.location)

	head, err := tx.Chains().LockChainHead(ctx, domain.ChainAudit)
	if err != nil {
		s.LogError(ctx, err, "Failed to lock audit chain head")
		return nil, err
	}

	record := domain.AuditRecord{
		RecordID:     uuid.NewString(),
		Sequence:     head.Sequence + 1,
		Action:       in.Action,
		ResourceType: in.ResourceType,
		ResourceID:   in.ResourceID,
		ActorID:      in.ActorID,
		Details:      detailBytes,
		RiskScore:    score,
		PreviousHash: head.Hash,
		CreatedAt:    now,
	}
	record.RecordHash = record.ComputeHash()
	record.Signature = s.signer.Sign(record.RecordHash)

	if err := tx.Audit().InsertAuditRecord(ctx, record); err != nil {
		s.LogError(ctx, err, "Failed to insert audit record", slog.String("action", string(in.Action)))
		return nil, err
	}
	if err := tx.Chains().AdvanceChainHead(ctx, head.Next(record.RecordHash)); err != nil {
		return nil, err
	}

	var event *domain.SecurityEvent
	if score > HighRiskThreshold {
		event, err = s.raiseSecurityEvent(ctx, tx, record)
		if err != nil {
			return nil, err
		}
	}

	tx.AfterCommit(func() {
		s.Metrics.AuditRecorded(string(record.Action), event != nil)
		if event == nil {
			return
		}
		s.GetLogger(ctx).Warn("High risk action recorded",
			slog.String("action", string(event.Action)),
			slog.String("resource_id", event.ResourceID),
			slog.String("actor_id", event.ActorID),
			slog.Int("risk_score", event.RiskScore))
		s.Notify(ctx, domain.MonitorEvent{
			Kind:       domain.MonitorSecurityEvent,
			Action:     event.Action,
			ResourceID: event.ResourceID,
			ActorID:    event.ActorID,
			RiskScore:  event.RiskScore,
			Severity:   event.Severity,
			Attributes: map[string]string{
				"resource_type":   string(event.ResourceType),
				"audit_record_id": event.AuditRecordID,
				"event_id":        event.EventID,
			},
			OccurredAt: event.CreatedAt,
		})
	})

	return &record, nil
}

func (s *auditService) raiseSecurityEvent(ctx context.Context, tx portsrepo.TxRepositories, record domain.AuditRecord) (*domain.SecurityEvent, error) {
	head, err := tx.Chains().LockChainHead(ctx, domain.ChainSecurity)
	if err != nil {
		s.LogError(ctx, err, "Failed to lock security chain head")
		return nil, err
	}
	event := domain.SecurityEvent{
		EventID:       uuid.NewString(),
		Sequence:      head.Sequence + 1,
		AuditRecordID: record.RecordID,
		Severity:      severityFor(record.RiskScore),
		Action:        record.Action,
		ResourceType:  record.ResourceType,
		ResourceID:    record.ResourceID,
		ActorID:       record.ActorID,
		RiskScore:     record.RiskScore,
		PreviousHash:  head.Hash,
		CreatedAt:     record.CreatedAt,
	}
	event.EventHash = event.ComputeHash()
	event.Signature = s.signer.Sign(event.EventHash)

	if err := tx.Audit().InsertSecurityEvent(ctx, event); err != nil {
		s.LogError(ctx, err, "Failed to insert security event", slog.String("audit_record_id", record.RecordID))
		return nil, err
	}
	if err := tx.Chains().AdvanceChainHead(ctx, head.Next(event.EventHash)); err != nil {
		return nil, err
	}
	return &event, nil
}

func (s *auditService) ListRecords(ctx context.Context, params dto.ListChainParams) (*dto.ListAuditRecordsResponse, error) {
	after, err := pagination.DecodeSequenceToken(params.NextToken)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
	}
	limit := pagination.ClampLimit(params.Limit)

	records, err := s.auditRepo.ListAuditRecords(ctx, after, limit+1)
	if err != nil {
		s.LogError(ctx, err, "Failed to list audit records")
		return nil, err
	}
	resp := &dto.ListAuditRecordsResponse{Records: records}
	if len(records) > limit {
		resp.Records = records[:limit]
		token := pagination.EncodeSequenceToken(resp.Records[limit-1].Sequence)
		resp.NextToken = &token
	}
	if resp.Records == nil {
		resp.Records = []domain.AuditRecord{}
	}
	return resp, nil
}

func (s *auditService) ListResourceHistory(ctx context.Context, resourceType domain.ResourceType, resourceID string) ([]domain.AuditRecord, error) {
	if resourceType == "" || resourceID == "" {
		return nil, fmt.Errorf("%w: resource type and id are required", apperrors.ErrValidation)
	}
	records, err := s.auditRepo.ListAuditRecordsByResource(ctx, resourceType, resourceID)
	if err != nil {
		s.LogError(ctx, err, "Failed to list resource history",
			slog.String("resource_type", string(resourceType)),
			slog.String("resource_id", resourceID))
		return nil, err
	}
	if records == nil {
		records = []domain.AuditRecord{}
	}
	return records, nil
}

func (s *auditService) ListSecurityEvents(ctx context.Context, params dto.ListChainParams) (*dto.ListSecurityEventsResponse, error) {
	after, err := pagination.DecodeSequenceToken(params.NextToken)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
	}
	limit := pagination.ClampLimit(params.Limit)

	events, err := s.auditRepo.ListSecurityEvents(ctx, after, limit+1)
	if err != nil {
		s.LogError(ctx, err, "Failed to list security events")
		return nil, err
	}
	resp := &dto.ListSecurityEventsResponse{Events: events}
	if len(events) > limit {
		resp.Events = events[:limit]
		token := pagination.EncodeSequenceToken(resp.Events[limit-1].Sequence)
		resp.NextToken = &token
	}
	if resp.Events == nil {
		resp.Events = []domain.SecurityEvent{}
	}
	return resp, nil
}

func (s *auditService) VerifyAuditIntegrity(ctx context.Context) domain.IntegrityReport {
	report := verifyChain(ctx, domain.ChainAudit, s.Now(), s.auditRepo,
		func(ctx context.Context, after int64, limit int) ([]chainLink, error) {
			records, err := s.auditRepo.ListAuditRecords(ctx, after, limit)
			if err != nil {
				return nil, err
			}
			links := make([]chainLink, len(records))
			for i, r := range records {
				links[i] = chainLink{
					ID:           r.RecordID,
					Sequence:     r.Sequence,
					Hash:         r.RecordHash,
					PreviousHash: r.PreviousHash,
					Computed:     r.ComputeHash(),
					Signature:    r.Signature,
				}
			}
			return links, nil
		}, s.signer.Verify)
	s.recordVerification(ctx, report)
	return report
}

func (s *auditService) VerifySecurityIntegrity(ctx context.Context) domain.IntegrityReport {
	report := verifyChain(ctx, domain.ChainSecurity, s.Now(), s.auditRepo,
		func(ctx context.Context, after int64, limit int) ([]chainLink, error) {
			events, err := s.auditRepo.ListSecurityEvents(ctx, after, limit)
			if err != nil {
				return nil, err
			}
			links := make([]chainLink, len(events))
			for i, e := range events {
				links[i] = chainLink{
					ID:           e.EventID,
					Sequence:     e.Sequence,
					Hash:         e.EventHash,
					PreviousHash: e.PreviousHash,
					Computed:     e.ComputeHash(),
					Signature:    e.Signature,
				}
			}
			return links, nil
		}, s.signer.Verify)
	s.recordVerification(ctx, report)
	return report
}

func (s *auditService) recordVerification(ctx context.Context, report domain.IntegrityReport) {
	s.Metrics.IntegrityChecked(string(report.Chain), len(report.Errors))
	if !report.IsValid {
		s.GetLogger(ctx).Warn("Chain verification found issues",
			slog.String("chain", string(report.Chain)),
			slog.Int("issues", len(report.Errors)))
	}
}
