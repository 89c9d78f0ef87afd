package models

import "time"

// AuditRecord is a row of the audit_records table. Details keeps the exact hashed bytes.
type AuditRecord struct {
	RecordID     string    `db:"record_id"`
	Sequence     int64     `db:"sequence"`
	Action       string    `db:"action"`
	ResourceType string    `db:"resource_type"`
	ResourceID   string    `db:"resource_id"`
	ActorID      string    `db:"actor_id"`
	Details      string    `db:"details"`
	RiskScore    int       `db:"risk_score"`
	RecordHash   string    `db:"record_hash"`
	PreviousHash string    `db:"previous_hash"`
	Signature    string    `db:"signature"`
	CreatedAt    time.Time `db:"created_at"`
}

// SecurityEvent is a row of the security_events table.
type SecurityEvent struct {
	EventID       string    `db:"event_id"`
	Sequence      int64     `db:"sequence"`
	AuditRecordID string    `db:"audit_record_id"`
	Severity      string    `db:"severity"`
	Action        string    `db:"action"`
	ResourceType  string    `db:"resource_type"`
	ResourceID    string    `db:"resource_id"`
	ActorID       string    `db:"actor_id"`
	RiskScore     int       `db:"risk_score"`
	EventHash     string    `db:"event_hash"`
	PreviousHash  string    `db:"previous_hash"`
	Signature     string    `db:"signature"`
	CreatedAt     time.Time `db:"created_at"`
}
