package domain

import "time"

type DisputeStatus string

const (
	DisputeOpen     DisputeStatus = "OPEN"
	DisputeResolved DisputeStatus = "RESOLVED"
)

// DisputeResolution says which party the arbiter sided with.
type DisputeResolution string

const (
	ResolutionRelease DisputeResolution = "RELEASE"
	ResolutionRefund  DisputeResolution = "REFUND"
)

func (r DisputeResolution) IsValid() bool {
	return r == ResolutionRelease || r == ResolutionRefund
}

type Dispute struct {
	DisputeID        string            `json:"disputeID"`
	EscrowID         string            `json:"escrowID"`
	RaisedBy         string            `json:"raisedBy"`
	Reason           string            `json:"reason"`
	Details          string            `json:"details,omitempty"`
	Evidence         []string          `json:"evidence"`
	Status           DisputeStatus     `json:"status"`
	AssignedResolver string            `json:"assignedResolver"`
	Resolution       DisputeResolution `json:"resolution,omitempty"`
	ResolutionNotes  string            `json:"resolutionNotes,omitempty"`
	ResolvedBy       string            `json:"resolvedBy,omitempty"`
	ResolvedAt       *time.Time        `json:"resolvedAt,omitempty"`
	AuditFields
}
