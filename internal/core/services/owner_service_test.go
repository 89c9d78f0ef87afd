package services_test

import (
	"testing"

	"github.com/SscSPs/escrow_ledger_app/internal/apperrors"
	"github.com/SscSPs/escrow_ledger_app/internal/core/domain"
	"github.com/SscSPs/escrow_ledger_app/internal/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type OwnerServiceTestSuite struct {
	engineSuite
}

func TestOwnerServiceTestSuite(t *testing.T) {
	suite.Run(t, new(OwnerServiceTestSuite))
}

func (s *OwnerServiceTestSuite) TestRegisterOwner() {
	owner, err := s.svc.Owner.RegisterOwner(s.ctx, dto.RegisterOwnerRequest{Kind: domain.OwnerStore, Name: "  Corner Shop "}, "admin")
	require.NoError(s.T(), err)
	assert.NotEmpty(s.T(), owner.OwnerID)
	assert.Equal(s.T(), "Corner Shop", owner.Name)
	assert.Equal(s.T(), domain.OwnerActive, owner.Status)

	fetched, err := s.svc.Owner.GetOwner(s.ctx, owner.OwnerID)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), owner.Name, fetched.Name)

	_, err = s.svc.Owner.RegisterOwner(s.ctx, dto.RegisterOwnerRequest{OwnerID: owner.OwnerID, Kind: domain.OwnerStore, Name: "Again"}, "admin")
	assert.ErrorIs(s.T(), err, apperrors.ErrDuplicate)

	_, err = s.svc.Owner.RegisterOwner(s.ctx, dto.RegisterOwnerRequest{Kind: "ROBOT", Name: "x"}, "admin")
	assert.ErrorIs(s.T(), err, apperrors.ErrValidation)
	_, err = s.svc.Owner.RegisterOwner(s.ctx, dto.RegisterOwnerRequest{Kind: domain.OwnerUser, Name: " "}, "admin")
	assert.ErrorIs(s.T(), err, apperrors.ErrValidation)
}

func (s *OwnerServiceTestSuite) TestSetOwnerStatus() {
	s.registerOwner("alice")

	blocked, err := s.svc.Owner.SetOwnerStatus(s.ctx, "alice", domain.OwnerBlocked, "compliance")
	require.NoError(s.T(), err)
	assert.True(s.T(), blocked.IsBlocked())

	stored, err := s.svc.Owner.GetOwner(s.ctx, "alice")
	require.NoError(s.T(), err)
	assert.Equal(s.T(), domain.OwnerBlocked, stored.Status)
	assert.Equal(s.T(), "compliance", stored.LastUpdatedBy)

	history, err := s.svc.Audit.ListResourceHistory(s.ctx, domain.ResourceOwner, "alice")
	require.NoError(s.T(), err)
	require.Len(s.T(), history, 2)
	assert.Equal(s.T(), domain.ActionOwnerStatusChanged, history[1].Action)

	_, err = s.svc.Owner.SetOwnerStatus(s.ctx, "ghost", domain.OwnerBlocked, "compliance")
	assert.ErrorIs(s.T(), err, apperrors.ErrNotFound)
	_, err = s.svc.Owner.SetOwnerStatus(s.ctx, "alice", "GONE", "compliance")
	assert.ErrorIs(s.T(), err, apperrors.ErrValidation)
}
