package handlers_test

import (
	"net/http"
	"testing"

	"github.com/SscSPs/escrow_ledger_app/internal/core/domain"
	"github.com/SscSPs/escrow_ledger_app/internal/dto"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

type AuditHandlerTestSuite struct {
	handlerSuite
}

func (s *AuditHandlerTestSuite) TestListRecords() {
	resp := &dto.ListAuditRecordsResponse{Records: []domain.AuditRecord{{RecordID: "rec-1", Sequence: 1}}}
	s.audit.On("ListRecords", mock.Anything, dto.ListChainParams{Limit: 25}).Return(resp, nil).Once()

	w := s.do(http.MethodGet, "/api/v1/audit/records?limit=25", nil)

	s.Equal(http.StatusOK, w.Code)
	var got dto.ListAuditRecordsResponse
	s.decode(w, &got)
	s.Require().Len(got.Records, 1)
	s.Nil(got.NextToken)
}

func (s *AuditHandlerTestSuite) TestListResourceHistory() {
	records := []domain.AuditRecord{
		{RecordID: "rec-1", ResourceType: domain.ResourceEscrow, ResourceID: "esc-1"},
		{RecordID: "rec-2", ResourceType: domain.ResourceEscrow, ResourceID: "esc-1"},
	}
	s.audit.On("ListResourceHistory", mock.Anything, domain.ResourceEscrow, "esc-1").Return(records, nil).Once()

	w := s.do(http.MethodGet, "/api/v1/audit/resources/ESCROW/esc-1", nil)

	s.Equal(http.StatusOK, w.Code)
	var got []domain.AuditRecord
	s.decode(w, &got)
	s.Len(got, 2)
}

func (s *AuditHandlerTestSuite) TestListResourceHistory_UnknownType() {
	w := s.do(http.MethodGet, "/api/v1/audit/resources/INVOICE/inv-1", nil)
	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *AuditHandlerTestSuite) TestListSecurityEvents() {
	next := "abc"
	resp := &dto.ListSecurityEventsResponse{Events: []domain.SecurityEvent{}, NextToken: &next}
	s.audit.On("ListSecurityEvents", mock.Anything, dto.ListChainParams{}).Return(resp, nil).Once()

	w := s.do(http.MethodGet, "/api/v1/audit/security-events", nil)

	s.Equal(http.StatusOK, w.Code)
	var got dto.ListSecurityEventsResponse
	s.decode(w, &got)
	s.Require().NotNil(got.NextToken)
	s.Equal("abc", *got.NextToken)
}

func (s *AuditHandlerTestSuite) TestVerifyIntegrity_AllValid() {
	s.ledger.On("VerifyIntegrity", mock.Anything).Return(validReport(domain.ChainLedger)).Once()
	s.audit.On("VerifyAuditIntegrity", mock.Anything).Return(validReport(domain.ChainAudit)).Once()
	s.audit.On("VerifySecurityIntegrity", mock.Anything).Return(validReport(domain.ChainSecurity)).Once()

	w := s.do(http.MethodGet, "/api/v1/audit/integrity", nil)

	s.Equal(http.StatusOK, w.Code)
	var got dto.IntegrityResponse
	s.decode(w, &got)
	s.True(got.IsValid)
	s.Len(got.Reports, 3)
}

func (s *AuditHandlerTestSuite) TestVerifyIntegrity_OneBrokenChain() {
	broken := validReport(domain.ChainAudit)
	broken.Add(domain.IntegrityIssue{Kind: domain.IssueBrokenLink, Sequence: 4, Message: "previous hash does not match"})

	s.ledger.On("VerifyIntegrity", mock.Anything).Return(validReport(domain.ChainLedger)).Once()
	s.audit.On("VerifyAuditIntegrity", mock.Anything).Return(broken).Once()
	s.audit.On("VerifySecurityIntegrity", mock.Anything).Return(validReport(domain.ChainSecurity)).Once()

	w := s.do(http.MethodGet, "/api/v1/audit/integrity", nil)

	s.Equal(http.StatusOK, w.Code)
	var got dto.IntegrityResponse
	s.decode(w, &got)
	s.False(got.IsValid)
	s.Require().Len(got.Reports, 3)
	s.Equal(domain.ChainAudit, got.Reports[1].Chain)
	s.False(got.Reports[1].IsValid)
}

func TestAuditHandler(t *testing.T) {
	suite.Run(t, new(AuditHandlerTestSuite))
}
