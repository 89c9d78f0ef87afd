package services

import (
	"context"
	"fmt"
	"time"

	"github.com/SscSPs/escrow_ledger_app/internal/core/domain"
	portsrepo "github.com/SscSPs/escrow_ledger_app/internal/core/ports/repositories"
)

const verifyPageSize = 500

// chainLink is the chain-relevant view of an entry, audit record or security event.
type chainLink struct {
	ID           string
	Sequence     int64
	Hash         string
	PreviousHash string
	Computed     string
	Signature    string
}

type chainPageFunc func(ctx context.Context, afterSequence int64, limit int) ([]chainLink, error)

// verifyChain walks a chain in sequence order up to the head that was committed
// when the walk started. verifySig may be nil for unsigned chains.
func verifyChain(ctx context.Context, chain domain.ChainName, checkedAt time.Time, heads portsrepo.ChainHeadReader, page chainPageFunc, verifySig func(hash, signature string) bool) domain.IntegrityReport {
	report := domain.IntegrityReport{
		Chain:     chain,
		IsValid:   true,
		Errors:    []domain.IntegrityIssue{},
		CheckedAt: checkedAt,
	}

	head, err := heads.FindChainHead(ctx, chain)
	if err != nil {
		report.Add(domain.IntegrityIssue{
			Kind:    domain.IssueReadFailure,
			Message: fmt.Sprintf("failed to read chain head: %v", err),
		})
		return report
	}

	expectedSeq := int64(1)
	prevHash := domain.GenesisHash
	var after int64

walk:
	for after < head.Sequence {
		links, err := page(ctx, after, verifyPageSize)
		if err != nil {
			report.Add(domain.IntegrityIssue{
				Kind:     domain.IssueReadFailure,
				Sequence: after,
				Message:  fmt.Sprintf("failed to read records after sequence %d: %v", after, err),
			})
			return report
		}
		if len(links) == 0 {
			break
		}
		for _, link := range links {
			if link.Sequence > head.Sequence {
				break walk
			}
			report.RecordsChecked++
			if link.Sequence != expectedSeq {
				report.Add(domain.IntegrityIssue{
					Kind:     domain.IssueSequenceGap,
					RecordID: link.ID,
					Sequence: link.Sequence,
					Expected: fmt.Sprint(expectedSeq),
					Actual:   fmt.Sprint(link.Sequence),
					Message:  "sequence is not contiguous",
				})
			}
			if link.PreviousHash != prevHash {
				report.Add(domain.IntegrityIssue{
					Kind:     domain.IssueBrokenLink,
					RecordID: link.ID,
					Sequence: link.Sequence,
					Expected: prevHash,
					Actual:   link.PreviousHash,
					Message:  "previous hash does not match the preceding record",
				})
			}
			if link.Computed != link.Hash {
				report.Add(domain.IntegrityIssue{
					Kind:     domain.IssueHashMismatch,
					RecordID: link.ID,
					Sequence: link.Sequence,
					Expected: link.Computed,
					Actual:   link.Hash,
					Message:  "stored hash does not match the recomputed hash",
				})
			}
			if verifySig != nil && !verifySig(link.Hash, link.Signature) {
				report.Add(domain.IntegrityIssue{
					Kind:     domain.IssueSignatureMismatch,
					RecordID: link.ID,
					Sequence: link.Sequence,
					Message:  "signature does not verify",
				})
			}
			expectedSeq = link.Sequence + 1
			prevHash = link.Hash
			after = link.Sequence
		}
	}

	if after != head.Sequence || prevHash != head.Hash {
		report.Add(domain.IntegrityIssue{
			Kind:     domain.IssueHeadMismatch,
			Sequence: head.Sequence,
			Expected: fmt.Sprintf("%d/%s", head.Sequence, head.Hash),
			Actual:   fmt.Sprintf("%d/%s", after, prevHash),
			Message:  "chain head does not match the last record",
		})
	}
	return report
}
