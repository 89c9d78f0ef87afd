package accounting

import (
	"fmt"
	"math"

	"github.com/SscSPs/escrow_ledger_app/internal/apperrors"
	"github.com/SscSPs/escrow_ledger_app/internal/core/domain"
)

// Add returns a+b or a validation error if the result does not fit in int64.
func Add(a, b int64) (int64, error) {
	if (b > 0 && a > math.MaxInt64-b) || (b < 0 && a < math.MinInt64-b) {
		return 0, fmt.Errorf("%w: amount overflow adding %d to %d", apperrors.ErrValidation, b, a)
	}
	return a + b, nil
}

// Sub returns a-b or a validation error if the result does not fit in int64.
func Sub(a, b int64) (int64, error) {
	if (b < 0 && a > math.MaxInt64+b) || (b > 0 && a < math.MinInt64+b) {
		return 0, fmt.Errorf("%w: amount overflow subtracting %d from %d", apperrors.ErrValidation, b, a)
	}
	return a - b, nil
}

// ToMinorUnits converts an unsigned request amount into a positive int64.
func ToMinorUnits(amount uint64) (int64, error) {
	if amount == 0 {
		return 0, fmt.Errorf("%w: amount must be greater than zero", apperrors.ErrValidation)
	}
	if amount > math.MaxInt64 {
		return 0, fmt.Errorf("%w: amount %d exceeds the maximum of %d minor units", apperrors.ErrValidation, amount, int64(math.MaxInt64))
	}
	return int64(amount), nil
}

// EntryBalanceChanges returns the balance deltas that moving an entry into
// status would cause, starting from the entry's current status.
// Supported transitions: new->PENDING, new->COMPLETED, PENDING->COMPLETED, PENDING->REJECTED.
func EntryBalanceChanges(entry domain.LedgerEntry, from, to domain.EntryStatus) (map[string]domain.BalanceChange, error) {
	amount := entry.Amount
	switch {
	case from == "" && to == domain.EntryPending:
		return map[string]domain.BalanceChange{
			entry.DebitAccountID: {Pending: amount},
		}, nil
	case from == "" && to == domain.EntryCompleted:
		return map[string]domain.BalanceChange{
			entry.DebitAccountID:  {Balance: -amount},
			entry.CreditAccountID: {Balance: amount},
		}, nil
	case from == domain.EntryPending && to == domain.EntryCompleted:
		return map[string]domain.BalanceChange{
			entry.DebitAccountID:  {Balance: -amount, Pending: -amount},
			entry.CreditAccountID: {Balance: amount},
		}, nil
	case from == domain.EntryPending && to == domain.EntryRejected:
		return map[string]domain.BalanceChange{
			entry.DebitAccountID: {Pending: -amount},
		}, nil
	default:
		return nil, fmt.Errorf("%w: no balance effect defined for %q -> %q", apperrors.ErrConflict, from, to)
	}
}

// ApplyChanges computes the post-change accounts, rejecting any overflow
// and any negative pending total.
func ApplyChanges(accounts map[string]domain.Account, changes map[string]domain.BalanceChange) (map[string]domain.Account, error) {
	updated := make(map[string]domain.Account, len(changes))
	for accountID, change := range changes {
		acc, ok := accounts[accountID]
		if !ok {
			return nil, fmt.Errorf("%w: account %s is not part of this unit of work", apperrors.ErrNotFound, accountID)
		}
		balance, err := Add(acc.Balance, change.Balance)
		if err != nil {
			return nil, fmt.Errorf("account %s balance: %w", accountID, err)
		}
		pending, err := Add(acc.Pending, change.Pending)
		if err != nil {
			return nil, fmt.Errorf("account %s pending: %w", accountID, err)
		}
		if pending < 0 {
			return nil, fmt.Errorf("%w: account %s pending total would become negative", apperrors.ErrConflict, accountID)
		}
		acc.Balance = balance
		acc.Pending = pending
		updated[accountID] = acc
	}
	return updated, nil
}
