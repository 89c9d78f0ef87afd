package domain

import "time"

// MonitorEventKind groups notifications sent to the security monitor.
type MonitorEventKind string

const (
	MonitorLedgerEntry   MonitorEventKind = "ledger_entry"
	MonitorEscrow        MonitorEventKind = "escrow"
	MonitorSecurityEvent MonitorEventKind = "security_event"
)

// MonitorEvent is a fire-and-forget notification about a committed mutation.
type MonitorEvent struct {
	Kind         MonitorEventKind  `json:"kind"`
	Action       AuditAction       `json:"action"`
	ResourceID   string            `json:"resourceID"`
	ActorID      string            `json:"actorID,omitempty"`
	AccountIDs   []string          `json:"accountIDs,omitempty"`
	Parties      []string          `json:"parties,omitempty"`
	Amount       int64             `json:"amount,omitempty"`
	CurrencyCode string            `json:"currencyCode,omitempty"`
	RiskScore    int               `json:"riskScore,omitempty"`
	Severity     Severity          `json:"severity,omitempty"`
	Flagged      bool              `json:"flagged"`
	FlagReason   string            `json:"flagReason,omitempty"`
	Attributes   map[string]string `json:"attributes,omitempty"`
	OccurredAt   time.Time         `json:"occurredAt"`
}
