package domain

// EntryStatus is the lifecycle state of a ledger entry.
type EntryStatus string

const (
	EntryPending   EntryStatus = "PENDING"
	EntryCompleted EntryStatus = "COMPLETED"
	EntryReversed  EntryStatus = "REVERSED"
	EntryRejected  EntryStatus = "REJECTED"
)

// Well-known entry categories written by the engine itself.
const (
	CategoryReversal = "REVERSAL"
	CategoryEscrow   = "ESCROW"

	SubcategoryEscrowHold    = "HOLD"
	SubcategoryEscrowRelease = "RELEASE"
	SubcategoryEscrowRefund  = "REFUND"
)

// LedgerEntry moves Amount from DebitAccountID to CreditAccountID.
// Status, StatusReason, ReversedByEntryID and the LastUpdated fields are the only
// mutable columns and are not part of the hash.
type LedgerEntry struct {
	EntryID           string      `json:"entryID"`
	Sequence          int64       `json:"sequence"`
	DebitAccountID    string      `json:"debitAccountID"`
	CreditAccountID   string      `json:"creditAccountID"`
	Amount            int64       `json:"amount"`
	CurrencyCode      string      `json:"currencyCode"`
	Description       string      `json:"description"`
	Category          string      `json:"category"`
	Subcategory       string      `json:"subcategory,omitempty"`
	ExternalReference string      `json:"externalReference,omitempty"`
	Status            EntryStatus `json:"status"`
	StatusReason      string      `json:"statusReason,omitempty"`
	EntryHash         string      `json:"entryHash"`
	PreviousHash      string      `json:"previousHash"`
	ReversesEntryID   string      `json:"reversesEntryID,omitempty"`
	ReversedByEntryID string      `json:"reversedByEntryID,omitempty"`
	AuditFields
}

// ComputeHash hashes the immutable fields of the entry together with PreviousHash.
func (e LedgerEntry) ComputeHash() string {
	return newChainHasher().
		int(e.Sequence).
		str(e.EntryID).
		str(e.DebitAccountID).
		str(e.CreditAccountID).
		int(e.Amount).
		str(e.CurrencyCode).
		str(e.Description).
		str(e.Category).
		str(e.Subcategory).
		str(e.ExternalReference).
		str(e.ReversesEntryID).
		str(e.CreatedBy).
		time(e.CreatedAt).
		sum(e.PreviousHash)
}

// IsReversal reports whether the entry was created by reversing another entry.
func (e LedgerEntry) IsReversal() bool {
	return e.ReversesEntryID != ""
}

// Touches reports whether the entry debits or credits accountID.
func (e LedgerEntry) Touches(accountID string) bool {
	return e.DebitAccountID == accountID || e.CreditAccountID == accountID
}
