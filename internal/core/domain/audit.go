package domain

import (
	"encoding/json"
	"time"
)

// AuditAction names a mutating operation recorded in the audit trail.
type AuditAction string

const (
	ActionOwnerRegistered      AuditAction = "OWNER_REGISTERED"
	ActionOwnerStatusChanged   AuditAction = "OWNER_STATUS_CHANGED"
	ActionAccountCreated       AuditAction = "ACCOUNT_CREATED"
	ActionAccountStatusChanged AuditAction = "ACCOUNT_STATUS_CHANGED"
	ActionAccountFundsBlocked  AuditAction = "ACCOUNT_FUNDS_BLOCKED"
	ActionEntryCreated         AuditAction = "LEDGER_ENTRY_CREATED"
	ActionEntryApproved        AuditAction = "LEDGER_ENTRY_APPROVED"
	ActionEntryRejected        AuditAction = "LEDGER_ENTRY_REJECTED"
	ActionEntryReversed        AuditAction = "LEDGER_ENTRY_REVERSED"
	ActionEscrowCreated        AuditAction = "ESCROW_CREATED"
	ActionEscrowApproved       AuditAction = "ESCROW_APPROVED"
	ActionEscrowReleased       AuditAction = "ESCROW_RELEASED"
	ActionEscrowRefunded       AuditAction = "ESCROW_REFUNDED"
	ActionDisputeRaised        AuditAction = "DISPUTE_RAISED"
	ActionDisputeResolved      AuditAction = "DISPUTE_RESOLVED"
)

// ResourceType names the kind of record an audit entry refers to.
type ResourceType string

const (
	ResourceOwner       ResourceType = "OWNER"
	ResourceAccount     ResourceType = "ACCOUNT"
	ResourceLedgerEntry ResourceType = "LEDGER_ENTRY"
	ResourceEscrow      ResourceType = "ESCROW"
	ResourceDispute     ResourceType = "DISPUTE"
)

// RiskInputs are caller-supplied signals used by the risk heuristic.
type RiskInputs struct {
	HighRiskGeography bool
	OccurredAt        time.Time
}

// AuditInput is what a service hands to the audit trail.
type AuditInput struct {
	Action       AuditAction
	ResourceType ResourceType
	ResourceID   string
	ActorID      string
	Details      map[string]any
	Risk         RiskInputs
}

// AuditRecord is one link of the audit chain. Details holds the canonical
// JSON bytes that were hashed.
type AuditRecord struct {
	RecordID     string          `json:"recordID"`
	Sequence     int64           `json:"sequence"`
	Action       AuditAction     `json:"action"`
	ResourceType ResourceType    `json:"resourceType"`
	ResourceID   string          `json:"resourceID,omitempty"`
	ActorID      string          `json:"actorID,omitempty"`
	Details      json.RawMessage `json:"details"`
	RiskScore    int             `json:"riskScore"`
	RecordHash   string          `json:"recordHash"`
	PreviousHash string          `json:"previousHash"`
	Signature    string          `json:"signature"`
	CreatedAt    time.Time       `json:"createdAt"`
}

func (r AuditRecord) ComputeHash() string {
	return newChainHasher().
		int(r.Sequence).
		str(r.RecordID).
		str(string(r.Action)).
		str(string(r.ResourceType)).
		str(r.ResourceID).
		str(r.ActorID).
		bytes(r.Details).
		int(int64(r.RiskScore)).
		time(r.CreatedAt).
		sum(r.PreviousHash)
}

type Severity string

const (
	SeverityLow    Severity = "LOW"
	SeverityMedium Severity = "MEDIUM"
	SeverityHigh   Severity = "HIGH"
)

// SecurityEvent is raised from a high-risk audit record and chained separately.
type SecurityEvent struct {
	EventID       string       `json:"eventID"`
	Sequence      int64        `json:"sequence"`
	AuditRecordID string       `json:"auditRecordID"`
	Severity      Severity     `json:"severity"`
	Action        AuditAction  `json:"action"`
	ResourceType  ResourceType `json:"resourceType"`
	ResourceID    string       `json:"resourceID,omitempty"`
	ActorID       string       `json:"actorID,omitempty"`
	RiskScore     int          `json:"riskScore"`
	EventHash     string       `json:"eventHash"`
	PreviousHash  string       `json:"previousHash"`
	Signature     string       `json:"signature"`
	CreatedAt     time.Time    `json:"createdAt"`
}

func (e SecurityEvent) ComputeHash() string {
	return newChainHasher().
		int(e.Sequence).
		str(e.EventID).
		str(e.AuditRecordID).
		str(string(e.Severity)).
		str(string(e.Action)).
		str(string(e.ResourceType)).
		str(e.ResourceID).
		str(e.ActorID).
		int(int64(e.RiskScore)).
		time(e.CreatedAt).
		sum(e.PreviousHash)
}
