package handlers_test

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/SscSPs/escrow_ledger_app/internal/apperrors"
	"github.com/SscSPs/escrow_ledger_app/internal/core/domain"
	"github.com/SscSPs/escrow_ledger_app/internal/dto"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

type LedgerHandlerTestSuite struct {
	handlerSuite
}

func (s *LedgerHandlerTestSuite) entryRequest() dto.CreateEntryRequest {
	return dto.CreateEntryRequest{
		DebitAccountID:  "acc-buyer",
		CreditAccountID: "acc-seller",
		Amount:          2599,
		CurrencyCode:    "USD",
		Description:     "order 1042",
		Category:        "PURCHASE",
		Subcategory:     "DIGITAL_GOODS",
	}
}

func (s *LedgerHandlerTestSuite) TestCreateEntry_SetsCreatorFromToken() {
	req := s.entryRequest()
	expected := req
	expected.CreatedBy = s.userID

	entry := &domain.LedgerEntry{
		EntryID:         "entry-1",
		Sequence:        7,
		DebitAccountID:  req.DebitAccountID,
		CreditAccountID: req.CreditAccountID,
		Amount:          2599,
		CurrencyCode:    "USD",
		Category:        "PURCHASE",
		Status:          domain.EntryCompleted,
	}
	s.ledger.On("CreateEntry", mock.Anything, expected).Return(entry, nil).Once()

	w := s.do(http.MethodPost, "/api/v1/ledger/entries", req)

	s.Equal(http.StatusCreated, w.Code)
	var resp dto.EntryResponse
	s.decode(w, &resp)
	s.Equal("entry-1", resp.EntryID)
	s.Equal(int64(7), resp.Sequence)
	s.Equal("25.99", resp.AmountFormatted)
	s.Equal(domain.EntryCompleted, resp.Status)
}

func (s *LedgerHandlerTestSuite) TestCreateEntry_RejectsMalformedCategory() {
	req := s.entryRequest()
	req.Category = "purchase"

	w := s.do(http.MethodPost, "/api/v1/ledger/entries", req)

	s.Equal(http.StatusBadRequest, w.Code)
	s.Contains(s.errorBody(w)["error"], "ledger_code")
}

func (s *LedgerHandlerTestSuite) TestCreateEntry_RejectsZeroAmount() {
	req := s.entryRequest()
	req.Amount = 0

	w := s.do(http.MethodPost, "/api/v1/ledger/entries", req)
	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *LedgerHandlerTestSuite) TestCreateEntry_InsufficientBalance() {
	req := s.entryRequest()
	expected := req
	expected.CreatedBy = s.userID
	s.ledger.On("CreateEntry", mock.Anything, expected).
		Return(nil, &apperrors.InsufficientBalanceError{AccountID: "acc-buyer", Available: 1000, Requested: 2599}).Once()

	w := s.do(http.MethodPost, "/api/v1/ledger/entries", req)

	s.Equal(http.StatusUnprocessableEntity, w.Code)
	body := s.errorBody(w)
	s.Equal("acc-buyer", body["accountId"])
	s.Equal(float64(1000), body["available"])
	s.Equal(float64(2599), body["requested"])
}

func (s *LedgerHandlerTestSuite) TestCreateEntry_ChainConflict() {
	req := s.entryRequest()
	expected := req
	expected.CreatedBy = s.userID
	s.ledger.On("CreateEntry", mock.Anything, expected).
		Return(nil, fmt.Errorf("ledger chain head moved: %w", apperrors.ErrConflict)).Once()

	w := s.do(http.MethodPost, "/api/v1/ledger/entries", req)
	s.Equal(http.StatusConflict, w.Code)
}

func (s *LedgerHandlerTestSuite) TestListEntries_PassesQuery() {
	next := "token-2"
	resp := &dto.ListEntriesResponse{
		Entries:   []dto.EntryResponse{{EntryID: "entry-1", Sequence: 1}},
		NextToken: &next,
	}
	params := dto.ListEntriesParams{AccountID: "acc-buyer", Limit: 1, NextToken: "token-1"}
	s.ledger.On("ListEntries", mock.Anything, params).Return(resp, nil).Once()

	w := s.do(http.MethodGet, "/api/v1/ledger/entries?accountId=acc-buyer&limit=1&nextToken=token-1", nil)

	s.Equal(http.StatusOK, w.Code)
	var got dto.ListEntriesResponse
	s.decode(w, &got)
	s.Require().Len(got.Entries, 1)
	s.Require().NotNil(got.NextToken)
	s.Equal("token-2", *got.NextToken)
}

func (s *LedgerHandlerTestSuite) TestListEntries_InvalidLimit() {
	w := s.do(http.MethodGet, "/api/v1/ledger/entries?limit=abc", nil)
	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *LedgerHandlerTestSuite) TestApproveEntry_NotPending() {
	s.ledger.On("ApproveEntry", mock.Anything, "entry-1", s.userID).
		Return(nil, fmt.Errorf("%w: entry entry-1 is COMPLETED", apperrors.ErrConflict)).Once()

	w := s.do(http.MethodPost, "/api/v1/ledger/entries/entry-1/approve", nil)
	s.Equal(http.StatusConflict, w.Code)
}

func (s *LedgerHandlerTestSuite) TestRejectEntry_RequiresReason() {
	w := s.do(http.MethodPost, "/api/v1/ledger/entries/entry-1/reject", `{}`)
	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *LedgerHandlerTestSuite) TestRejectEntry() {
	entry := &domain.LedgerEntry{EntryID: "entry-1", Status: domain.EntryRejected, StatusReason: "duplicate"}
	s.ledger.On("RejectEntry", mock.Anything, "entry-1", "duplicate", s.userID).Return(entry, nil).Once()

	w := s.do(http.MethodPost, "/api/v1/ledger/entries/entry-1/reject", dto.EntryReasonRequest{Reason: "duplicate"})

	s.Equal(http.StatusOK, w.Code)
	var resp dto.EntryResponse
	s.decode(w, &resp)
	s.Equal(domain.EntryRejected, resp.Status)
}

func (s *LedgerHandlerTestSuite) TestReverseEntry_ReturnsReversal() {
	reversal := &domain.LedgerEntry{
		EntryID:         "entry-2",
		DebitAccountID:  "acc-seller",
		CreditAccountID: "acc-buyer",
		Amount:          2599,
		CurrencyCode:    "USD",
		Status:          domain.EntryCompleted,
		ReversesEntryID: "entry-1",
	}
	s.ledger.On("ReverseEntry", mock.Anything, "entry-1", "customer refund", s.userID).Return(reversal, nil).Once()

	w := s.do(http.MethodPost, "/api/v1/ledger/entries/entry-1/reverse", dto.EntryReasonRequest{Reason: "customer refund"})

	s.Equal(http.StatusCreated, w.Code)
	var resp dto.EntryResponse
	s.decode(w, &resp)
	s.Equal("entry-2", resp.EntryID)
	s.Equal("entry-1", resp.ReversesEntryID)
}

func (s *LedgerHandlerTestSuite) TestGetEntry_NotFound() {
	s.ledger.On("GetEntry", mock.Anything, "nope").Return(nil, fmt.Errorf("entry nope: %w", apperrors.ErrNotFound)).Once()

	w := s.do(http.MethodGet, "/api/v1/ledger/entries/nope", nil)
	s.Equal(http.StatusNotFound, w.Code)
}

func (s *LedgerHandlerTestSuite) TestVerifyIntegrity() {
	report := domain.IntegrityReport{Chain: domain.ChainLedger, IsValid: false}
	report.Add(domain.IntegrityIssue{Kind: domain.IssueHashMismatch, Sequence: 3, Message: "entry hash does not match content"})
	s.ledger.On("VerifyIntegrity", mock.Anything).Return(report).Once()

	w := s.do(http.MethodGet, "/api/v1/ledger/integrity", nil)

	s.Equal(http.StatusOK, w.Code)
	var got domain.IntegrityReport
	s.decode(w, &got)
	s.False(got.IsValid)
	s.Require().Len(got.Errors, 1)
	s.Equal(domain.IssueHashMismatch, got.Errors[0].Kind)
}

func TestLedgerHandler(t *testing.T) {
	suite.Run(t, new(LedgerHandlerTestSuite))
}
