package monitor

import (
	"fmt"
	"sync"
	"time"

	"github.com/SscSPs/escrow_ledger_app/internal/core/domain"
)

// VelocityRule flags an event when one account has been involved in more
// than Threshold events within Window.
type VelocityRule struct {
	threshold int
	window    time.Duration
	now       func() time.Time

	mu   sync.Mutex
	seen map[string][]time.Time
}

func NewVelocityRule(threshold int, window time.Duration) *VelocityRule {
	return &VelocityRule{
		threshold: threshold,
		window:    window,
		now:       time.Now,
		seen:      make(map[string][]time.Time),
	}
}

// WithClock replaces the rule's clock.
func (r *VelocityRule) WithClock(now func() time.Time) *VelocityRule {
	r.now = now
	return r
}

// Evaluate records the event and reports whether any of its accounts is over the threshold.
func (r *VelocityRule) Evaluate(event domain.MonitorEvent) (bool, string) {
	if r.threshold <= 0 || r.window <= 0 {
		return false, ""
	}
	now := r.now()
	cutoff := now.Add(-r.window)

	r.mu.Lock()
	defer r.mu.Unlock()

	flagged, reason := false, ""
	for _, accountID := range event.AccountIDs {
		if accountID == "" {
			continue
		}
		times := r.seen[accountID]
		kept := times[:0]
		for _, t := range times {
			if t.After(cutoff) {
				kept = append(kept, t)
			}
		}
		kept = append(kept, now)
		r.seen[accountID] = kept
		if len(kept) > r.threshold && !flagged {
			flagged = true
			reason = fmt.Sprintf("account %s involved in %d events within %s", accountID, len(kept), r.window)
		}
	}
	r.prune(cutoff)
	return flagged, reason
}

// prune forgets accounts with no activity in the window.
func (r *VelocityRule) prune(cutoff time.Time) {
	for id, times := range r.seen {
		if len(times) == 0 || !times[len(times)-1].After(cutoff) {
			delete(r.seen, id)
		}
	}
}
