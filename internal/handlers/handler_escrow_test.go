package handlers_test

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/SscSPs/escrow_ledger_app/internal/apperrors"
	"github.com/SscSPs/escrow_ledger_app/internal/core/domain"
	"github.com/SscSPs/escrow_ledger_app/internal/dto"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

type EscrowHandlerTestSuite struct {
	handlerSuite
}

func (s *EscrowHandlerTestSuite) heldEscrow() *domain.Escrow {
	return &domain.Escrow{
		EscrowID:     "esc-1",
		EscrowNumber: "ESC-20261016-00000001",
		BuyerID:      "buyer",
		SellerID:     "seller",
		TotalAmount:  10000,
		CurrencyCode: "USD",
		Status:       domain.EscrowHeld,
		AuditFields:  auditFields(s.userID),
	}
}

func (s *EscrowHandlerTestSuite) TestCreateEscrow_SetsCreator() {
	autoRelease := time.Date(2026, 11, 1, 0, 0, 0, 0, time.UTC)
	body := map[string]any{
		"buyerId":       "buyer",
		"sellerId":      "seller",
		"initiatorId":   "buyer",
		"totalAmount":   10000,
		"currency":      "USD",
		"stakeholders":  []string{"ops"},
		"autoReleaseAt": autoRelease,
	}
	s.escrow.On("CreateEscrow", mock.Anything, mock.MatchedBy(func(req dto.CreateEscrowRequest) bool {
		return req.CreatedBy == s.userID &&
			req.TotalAmount == 10000 &&
			len(req.Stakeholders) == 1 &&
			req.AutoReleaseAt != nil && req.AutoReleaseAt.Equal(autoRelease)
	})).Return(s.heldEscrow(), nil).Once()

	w := s.do(http.MethodPost, "/api/v1/escrows", body)

	s.Equal(http.StatusCreated, w.Code)
	var resp dto.EscrowResponse
	s.decode(w, &resp)
	s.Equal("ESC-20261016-00000001", resp.EscrowNumber)
	s.Equal(int64(10000), resp.RemainingAmount)
	s.Equal("100.00", resp.TotalAmountFormatted)
}

func (s *EscrowHandlerTestSuite) TestCreateEscrow_MissingSeller() {
	w := s.do(http.MethodPost, "/api/v1/escrows", `{"buyerId":"buyer","initiatorId":"buyer","totalAmount":5,"currency":"USD"}`)
	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *EscrowHandlerTestSuite) TestCreateEscrow_InsufficientBalance() {
	s.escrow.On("CreateEscrow", mock.Anything, mock.Anything).
		Return(nil, &apperrors.InsufficientBalanceError{AccountID: "acc-buyer", Available: 10, Requested: 10000}).Once()

	w := s.do(http.MethodPost, "/api/v1/escrows", `{"buyerId":"buyer","sellerId":"seller","initiatorId":"buyer","totalAmount":10000,"currency":"USD"}`)

	s.Equal(http.StatusUnprocessableEntity, w.Code)
	s.Equal("acc-buyer", s.errorBody(w)["accountId"])
}

func (s *EscrowHandlerTestSuite) TestApproveEscrow() {
	s.escrow.On("ApproveEscrow", mock.Anything, "esc-1", s.userID).Return(s.heldEscrow(), nil).Once()

	w := s.do(http.MethodPost, "/api/v1/escrows/esc-1/approve", nil)
	s.Equal(http.StatusOK, w.Code)
}

func (s *EscrowHandlerTestSuite) TestReleaseEscrow_PartialAmount() {
	amount := uint64(4000)
	released := s.heldEscrow()
	released.ReleasedAmount = 4000

	s.escrow.On("ReleaseEscrow", mock.Anything, mock.MatchedBy(func(req dto.ReleaseEscrowRequest) bool {
		return req.EscrowID == "esc-1" &&
			req.ReleasedBy == s.userID &&
			req.Amount != nil && *req.Amount == amount &&
			len(req.StakeholderApprovals) == 1 && req.StakeholderApprovals[0].Approved
	})).Return(released, nil).Once()

	w := s.do(http.MethodPost, "/api/v1/escrows/esc-1/release", dto.ReleaseEscrowRequest{
		Amount:               &amount,
		Reason:               "first milestone delivered",
		StakeholderApprovals: []domain.StakeholderApproval{{StakeholderID: "ops", Approved: true}},
	})

	s.Equal(http.StatusOK, w.Code)
	var resp dto.EscrowResponse
	s.decode(w, &resp)
	s.Equal(int64(6000), resp.RemainingAmount)
}

func (s *EscrowHandlerTestSuite) TestReleaseEscrow_MissingStakeholderApproval() {
	s.escrow.On("ReleaseEscrow", mock.Anything, mock.Anything).Return(nil, &apperrors.StakeholderApprovalError{
		EscrowID:      "esc-1",
		StakeholderID: "ops",
		Reason:        apperrors.StakeholderApprovalMissing,
	}).Once()

	w := s.do(http.MethodPost, "/api/v1/escrows/esc-1/release", dto.ReleaseEscrowRequest{Reason: "delivered"})

	s.Equal(http.StatusConflict, w.Code)
	body := s.errorBody(w)
	s.Equal("ops", body["stakeholderId"])
	s.Equal("MISSING", body["reason"])
}

func (s *EscrowHandlerTestSuite) TestRefundEscrow() {
	refunded := s.heldEscrow()
	refunded.Status = domain.EscrowRefunded
	refunded.RefundedAmount = 10000
	s.escrow.On("RefundEscrow", mock.Anything, dto.RefundEscrowRequest{
		EscrowID:   "esc-1",
		Reason:     "seller cancelled",
		RefundedBy: s.userID,
	}).Return(refunded, nil).Once()

	w := s.do(http.MethodPost, "/api/v1/escrows/esc-1/refund", `{"reason":"seller cancelled"}`)

	s.Equal(http.StatusOK, w.Code)
	var resp dto.EscrowResponse
	s.decode(w, &resp)
	s.Equal(domain.EscrowRefunded, resp.Status)
	s.Equal(int64(0), resp.RemainingAmount)
}

func (s *EscrowHandlerTestSuite) TestRaiseDispute_DefaultsRaiserToCaller() {
	disputed := s.heldEscrow()
	disputed.Status = domain.EscrowDisputed
	disputed.DisputeID = "dsp-1"
	dispute := &domain.Dispute{DisputeID: "dsp-1", EscrowID: "esc-1", RaisedBy: s.userID, Status: domain.DisputeOpen}

	s.escrow.On("RaiseDispute", mock.Anything, dto.RaiseDisputeRequest{
		EscrowID: "esc-1",
		RaisedBy: s.userID,
		Reason:   "ITEM_NOT_RECEIVED",
	}).Return(disputed, dispute, nil).Once()

	w := s.do(http.MethodPost, "/api/v1/escrows/esc-1/disputes", `{"reason":"ITEM_NOT_RECEIVED"}`)

	s.Equal(http.StatusCreated, w.Code)
	var resp dto.EscrowDisputeResponse
	s.decode(w, &resp)
	s.Equal(domain.EscrowDisputed, resp.Escrow.Status)
	s.Equal("dsp-1", resp.Dispute.DisputeID)
}

func (s *EscrowHandlerTestSuite) TestRaiseDispute_ExplicitRaiser() {
	s.escrow.On("RaiseDispute", mock.Anything, mock.MatchedBy(func(req dto.RaiseDisputeRequest) bool {
		return req.RaisedBy == "buyer"
	})).Return(nil, nil, fmt.Errorf("%w: escrow esc-1 is RELEASED", apperrors.ErrConflict)).Once()

	w := s.do(http.MethodPost, "/api/v1/escrows/esc-1/disputes", `{"raisedBy":"buyer","reason":"DAMAGED"}`)
	s.Equal(http.StatusConflict, w.Code)
}

func (s *EscrowHandlerTestSuite) TestRaiseDispute_NotAParty() {
	s.escrow.On("RaiseDispute", mock.Anything, mock.Anything).
		Return(nil, nil, fmt.Errorf("%w: outsider is not a party to escrow esc-1", apperrors.ErrValidation)).Once()

	w := s.do(http.MethodPost, "/api/v1/escrows/esc-1/disputes", `{"raisedBy":"outsider","reason":"DAMAGED"}`)
	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *EscrowHandlerTestSuite) TestResolveDispute() {
	amount := uint64(2500)
	settled := s.heldEscrow()
	settled.Status = domain.EscrowReleased
	settled.ReleasedAmount = 2500
	settled.RefundedAmount = 7500
	resolvedAt := time.Now().UTC()
	dispute := &domain.Dispute{
		DisputeID:  "dsp-1",
		EscrowID:   "esc-1",
		Status:     domain.DisputeResolved,
		Resolution: domain.ResolutionRelease,
		ResolvedBy: s.userID,
		ResolvedAt: &resolvedAt,
	}
	s.escrow.On("ResolveDispute", mock.Anything, dto.ResolveDisputeRequest{
		DisputeID:  "dsp-1",
		Resolution: domain.ResolutionRelease,
		Amount:     &amount,
		Notes:      "partial delivery",
		ResolvedBy: s.userID,
	}).Return(settled, dispute, nil).Once()

	w := s.do(http.MethodPost, "/api/v1/disputes/dsp-1/resolve", dto.ResolveDisputeRequest{
		Resolution: domain.ResolutionRelease,
		Amount:     &amount,
		Notes:      "partial delivery",
	})

	s.Equal(http.StatusOK, w.Code)
	var resp dto.EscrowDisputeResponse
	s.decode(w, &resp)
	s.Equal(domain.DisputeResolved, resp.Dispute.Status)
	s.Equal(int64(0), resp.Escrow.RemainingAmount)
}

func (s *EscrowHandlerTestSuite) TestResolveDispute_InvalidResolution() {
	w := s.do(http.MethodPost, "/api/v1/disputes/dsp-1/resolve", `{"resolution":"SPLIT"}`)
	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *EscrowHandlerTestSuite) TestResolveDispute_NotAResolver() {
	s.escrow.On("ResolveDispute", mock.Anything, mock.Anything).
		Return(nil, nil, fmt.Errorf("%w: dispute dsp-1 is assigned to arbiter-2", apperrors.ErrForbidden)).Once()

	w := s.do(http.MethodPost, "/api/v1/disputes/dsp-1/resolve", `{"resolution":"REFUND"}`)
	s.Equal(http.StatusForbidden, w.Code)
}

func (s *EscrowHandlerTestSuite) TestGetDispute() {
	dispute := &domain.Dispute{DisputeID: "dsp-1", EscrowID: "esc-1", Status: domain.DisputeOpen}
	s.escrow.On("GetDispute", mock.Anything, "dsp-1").Return(dispute, nil).Once()

	w := s.do(http.MethodGet, "/api/v1/disputes/dsp-1", nil)

	s.Equal(http.StatusOK, w.Code)
	var got domain.Dispute
	s.decode(w, &got)
	s.Equal(domain.DisputeOpen, got.Status)
}

func (s *EscrowHandlerTestSuite) TestGetEscrow_NotFound() {
	s.escrow.On("GetEscrow", mock.Anything, "esc-404").Return(nil, apperrors.ErrNotFound).Once()

	w := s.do(http.MethodGet, "/api/v1/escrows/esc-404", nil)
	s.Equal(http.StatusNotFound, w.Code)
}

func TestEscrowHandler(t *testing.T) {
	suite.Run(t, new(EscrowHandlerTestSuite))
}
