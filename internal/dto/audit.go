package dto

import "github.com/SscSPs/escrow_ledger_app/internal/core/domain"

type ListChainParams struct {
	Limit     int    `form:"limit"`
	NextToken string `form:"nextToken"`
}

type ListAuditRecordsResponse struct {
	Records   []domain.AuditRecord `json:"records"`
	NextToken *string              `json:"nextToken,omitempty"`
}

type ListSecurityEventsResponse struct {
	Events    []domain.SecurityEvent `json:"events"`
	NextToken *string                `json:"nextToken,omitempty"`
}

// IntegrityResponse bundles the verification of every chain.
type IntegrityResponse struct {
	IsValid bool                     `json:"isValid"`
	Reports []domain.IntegrityReport `json:"reports"`
}
