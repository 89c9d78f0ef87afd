package services_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/SscSPs/escrow_ledger_app/internal/apperrors"
	"github.com/SscSPs/escrow_ledger_app/internal/core/domain"
	"github.com/SscSPs/escrow_ledger_app/internal/core/services"
	"github.com/SscSPs/escrow_ledger_app/internal/dto"
	"github.com/SscSPs/escrow_ledger_app/internal/middleware"
	"github.com/SscSPs/escrow_ledger_app/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type AuditServiceTestSuite struct {
	engineSuite
	alice *domain.Account
	bob   *domain.Account
}

func (s *AuditServiceTestSuite) SetupTest() {
	s.engineSuite.SetupTest()
	s.registerOwner("alice")
	s.registerOwner("bob")
	s.alice = s.openAccount("alice", "USD")
	s.bob = s.openAccount("bob", "USD")
}

func TestAuditServiceTestSuite(t *testing.T) {
	suite.Run(t, new(AuditServiceTestSuite))
}

func (s *AuditServiceTestSuite) TestEveryMutationIsChained() {
	s.fund(s.alice.AccountID, 100)

	page, err := s.svc.Audit.ListRecords(s.ctx, dto.ListChainParams{Limit: 100})
	require.NoError(s.T(), err)
	// 2 system accounts, 2 owners, 2 accounts, 1 entry.
	require.Len(s.T(), page.Records, 7)
	assert.Nil(s.T(), page.NextToken)

	prev := domain.GenesisHash
	for i, r := range page.Records {
		assert.Equal(s.T(), int64(i+1), r.Sequence)
		assert.Equal(s.T(), prev, r.PreviousHash)
		assert.Equal(s.T(), r.ComputeHash(), r.RecordHash)
		assert.NotEmpty(s.T(), r.Signature)
		prev = r.RecordHash
	}
	assert.Equal(s.T(), domain.ActionEntryCreated, page.Records[6].Action)
	assert.JSONEq(s.T(), `"DEPOSIT"`, string(mustField(s, page.Records[6].Details, "category")))

	report := s.svc.Audit.VerifyAuditIntegrity(s.ctx)
	assert.True(s.T(), report.IsValid)
	assert.Equal(s.T(), int64(7), report.RecordsChecked)

	first, err := s.svc.Audit.ListRecords(s.ctx, dto.ListChainParams{Limit: 4})
	require.NoError(s.T(), err)
	require.NotNil(s.T(), first.NextToken)
	rest, err := s.svc.Audit.ListRecords(s.ctx, dto.ListChainParams{Limit: 4, NextToken: *first.NextToken})
	require.NoError(s.T(), err)
	assert.Len(s.T(), rest.Records, 3)
	assert.Equal(s.T(), int64(5), rest.Records[0].Sequence)
}

func (s *AuditServiceTestSuite) TestFailedOperationLeavesNoRecord() {
	before, err := s.store.FindChainHead(s.ctx, domain.ChainAudit)
	require.NoError(s.T(), err)

	_, err = s.transfer(s.alice.AccountID, s.bob.AccountID, 1)
	assert.ErrorIs(s.T(), err, apperrors.ErrInsufficientBalance)

	after, err := s.store.FindChainHead(s.ctx, domain.ChainAudit)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), before, after)
}

func (s *AuditServiceTestSuite) TestHighRiskActionRaisesSecurityEvent() {
	s.fund(s.alice.AccountID, 500)
	entry, err := s.transfer(s.alice.AccountID, s.bob.AccountID, 500)
	require.NoError(s.T(), err)

	ctx := middleware.WithHighRiskGeography(s.ctx)
	_, err = s.svc.Ledger.ReverseEntry(ctx, entry.EntryID, "fraud report", "admin")
	require.NoError(s.T(), err)

	events, err := s.svc.Audit.ListSecurityEvents(s.ctx, dto.ListChainParams{})
	require.NoError(s.T(), err)
	require.Len(s.T(), events.Events, 1)
	event := events.Events[0]
	assert.Equal(s.T(), domain.ActionEntryReversed, event.Action)
	assert.Equal(s.T(), entry.EntryID, event.ResourceID)
	assert.Equal(s.T(), 75, event.RiskScore)
	assert.Equal(s.T(), domain.SeverityHigh, event.Severity)
	assert.Equal(s.T(), domain.GenesisHash, event.PreviousHash)

	history, err := s.svc.Audit.ListResourceHistory(s.ctx, domain.ResourceLedgerEntry, entry.EntryID)
	require.NoError(s.T(), err)
	require.Len(s.T(), history, 2)
	assert.Equal(s.T(), history[1].RecordID, event.AuditRecordID)
	assert.Equal(s.T(), 75, history[1].RiskScore)

	assert.Equal(s.T(), 1, s.monitor.Count(domain.MonitorSecurityEvent, domain.ActionEntryReversed))
	assert.True(s.T(), s.svc.Audit.VerifySecurityIntegrity(s.ctx).IsValid)
}

func (s *AuditServiceTestSuite) TestOrdinaryActionRaisesNoSecurityEvent() {
	ctx := middleware.WithHighRiskGeography(s.ctx)
	_, err := s.svc.Owner.RegisterOwner(ctx, dto.RegisterOwnerRequest{OwnerID: "carol", Kind: domain.OwnerStore, Name: "Carol's"}, "admin")
	require.NoError(s.T(), err)

	events, err := s.svc.Audit.ListSecurityEvents(s.ctx, dto.ListChainParams{})
	require.NoError(s.T(), err)
	assert.Empty(s.T(), events.Events)
}

func (s *AuditServiceTestSuite) TestVerifyDetectsForeignSignatures() {
	s.fund(s.alice.AccountID, 100)

	otherSigner, err := utils.NewSigner("some-other-secret", "escrow-ledger/audit-signature/v1")
	require.NoError(s.T(), err)
	verifier := services.NewAuditService(s.store, s.store, otherSigner, time.UTC)

	report := verifier.VerifyAuditIntegrity(s.ctx)
	assert.False(s.T(), report.IsValid)
	require.NotEmpty(s.T(), report.Errors)
	for _, issue := range report.Errors {
		assert.Equal(s.T(), domain.IssueSignatureMismatch, issue.Kind)
	}
	assert.Len(s.T(), report.Errors, int(report.RecordsChecked))
}

func (s *AuditServiceTestSuite) TestListResourceHistoryValidation() {
	_, err := s.svc.Audit.ListResourceHistory(s.ctx, "", "x")
	assert.ErrorIs(s.T(), err, apperrors.ErrValidation)

	records, err := s.svc.Audit.ListResourceHistory(s.ctx, domain.ResourceEscrow, "unknown")
	require.NoError(s.T(), err)
	assert.NotNil(s.T(), records)
	assert.Empty(s.T(), records)
}

func TestScoreRisk(t *testing.T) {
	noon := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	night := time.Date(2026, 3, 10, 23, 30, 0, 0, time.UTC)

	testCases := []struct {
		name     string
		action   domain.AuditAction
		resource domain.ResourceType
		in       domain.RiskInputs
		loc      *time.Location
		want     int
	}{
		{"routine owner change", domain.ActionOwnerRegistered, domain.ResourceOwner, domain.RiskInputs{OccurredAt: noon}, time.UTC, 0},
		{"financial resource", domain.ActionEntryCreated, domain.ResourceLedgerEntry, domain.RiskInputs{OccurredAt: noon}, time.UTC, 20},
		{"high risk action on financial resource", domain.ActionEscrowReleased, domain.ResourceEscrow, domain.RiskInputs{OccurredAt: noon}, time.UTC, 50},
		{"off hours", domain.ActionEscrowReleased, domain.ResourceEscrow, domain.RiskInputs{OccurredAt: night}, time.UTC, 65},
		{"geography", domain.ActionEscrowReleased, domain.ResourceEscrow, domain.RiskInputs{OccurredAt: noon, HighRiskGeography: true}, time.UTC, 75},
		{"everything", domain.ActionDisputeResolved, domain.ResourceDispute, domain.RiskInputs{OccurredAt: night, HighRiskGeography: true}, time.UTC, 90},
		{"off hours judged in audit zone", domain.ActionEntryCreated, domain.ResourceLedgerEntry, domain.RiskInputs{OccurredAt: noon}, time.FixedZone("UTC+12", 12*3600), 35},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, services.ScoreRisk(tc.action, tc.resource, tc.in, tc.loc))
		})
	}
}

func mustField(s *AuditServiceTestSuite, details []byte, key string) []byte {
	var fields map[string]json.RawMessage
	require.NoError(s.T(), json.Unmarshal(details, &fields))
	v, ok := fields[key]
	require.True(s.T(), ok, key)
	return v
}
