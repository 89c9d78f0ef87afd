package domain

import (
	"fmt"
	"time"
)

// IntegrityIssueKind classifies a discrepancy found while walking a chain.
type IntegrityIssueKind string

const (
	IssueSequenceGap       IntegrityIssueKind = "SEQUENCE_GAP"
	IssueBrokenLink        IntegrityIssueKind = "BROKEN_LINK"
	IssueHashMismatch      IntegrityIssueKind = "HASH_MISMATCH"
	IssueSignatureMismatch IntegrityIssueKind = "SIGNATURE_MISMATCH"
	IssueHeadMismatch      IntegrityIssueKind = "HEAD_MISMATCH"
	IssueReadFailure       IntegrityIssueKind = "READ_FAILURE"
)

// IntegrityIssue describes one mismatch. It is reported, never returned as an error.
type IntegrityIssue struct {
	Kind     IntegrityIssueKind `json:"kind"`
	RecordID string             `json:"recordID,omitempty"`
	Sequence int64              `json:"sequence"`
	Expected string             `json:"expected,omitempty"`
	Actual   string             `json:"actual,omitempty"`
	Message  string             `json:"message"`
}

func (i IntegrityIssue) String() string {
	if i.RecordID == "" {
		return fmt.Sprintf("%s at sequence %d: %s", i.Kind, i.Sequence, i.Message)
	}
	return fmt.Sprintf("%s at sequence %d (record %s): %s", i.Kind, i.Sequence, i.RecordID, i.Message)
}

// IntegrityReport is the outcome of a chain verification sweep.
type IntegrityReport struct {
	Chain          ChainName        `json:"chain"`
	IsValid        bool             `json:"isValid"`
	RecordsChecked int64            `json:"recordsChecked"`
	Errors         []IntegrityIssue `json:"errors"`
	CheckedAt      time.Time        `json:"checkedAt"`
}

// Add records an issue and marks the report invalid.
func (r *IntegrityReport) Add(issue IntegrityIssue) {
	r.IsValid = false
	r.Errors = append(r.Errors, issue)
}
