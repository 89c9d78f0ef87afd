package domain

import "math"

// AccountType defines what role an account plays on the platform.
type AccountType string

const (
	UserDeposit         AccountType = "USER_DEPOSIT"
	StoreWallet         AccountType = "STORE_WALLET"
	SystemEscrowHolding AccountType = "SYSTEM_ESCROW_HOLDING"
	ComplianceReserve   AccountType = "COMPLIANCE_RESERVE"
	SystemFees          AccountType = "SYSTEM_FEES"
	SystemSettlement    AccountType = "SYSTEM_SETTLEMENT"
)

// IsValid reports whether t is one of the known account types.
func (t AccountType) IsValid() bool {
	switch t {
	case UserDeposit, StoreWallet, SystemEscrowHolding, ComplianceReserve, SystemFees, SystemSettlement:
		return true
	}
	return false
}

// IsSystemType reports whether accounts of type t belong to the platform rather than an owner.
func (t AccountType) IsSystemType() bool {
	switch t {
	case SystemEscrowHolding, ComplianceReserve, SystemFees, SystemSettlement:
		return true
	}
	return false
}

// AccountStatus controls whether an account may take part in new entries.
type AccountStatus string

const (
	AccountActive   AccountStatus = "ACTIVE"
	AccountInactive AccountStatus = "INACTIVE"
)

func (s AccountStatus) IsValid() bool {
	return s == AccountActive || s == AccountInactive
}

// Account holds a balance in minor units of a single currency.
// Balance is the signed sum of every COMPLETED entry touching the account.
// Pending is the total of outgoing PENDING entries, Blocked an administrative hold.
type Account struct {
	AccountID    string        `json:"accountID"`
	AccountType  AccountType   `json:"accountType"`
	OwnerID      string        `json:"ownerID,omitempty"` // empty for system accounts
	CurrencyCode string        `json:"currencyCode"`
	Balance      int64         `json:"balance"`
	Pending      int64         `json:"pending"`
	Blocked      int64         `json:"blocked"`
	Status       AccountStatus `json:"status"`
	IsSystem     bool          `json:"isSystem"`
	AuditFields
}

func (a Account) IsActive() bool {
	return a.Status == AccountActive
}

// Available returns balance - pending - blocked, saturating at math.MinInt64.
func (a Account) Available() int64 {
	held := a.Pending + a.Blocked
	if held < 0 || a.Balance < math.MinInt64+held {
		return math.MinInt64
	}
	return a.Balance - held
}

// Snapshot returns the balance view of the account.
func (a Account) Snapshot() BalanceSnapshot {
	return BalanceSnapshot{
		AccountID:    a.AccountID,
		CurrencyCode: a.CurrencyCode,
		Balance:      a.Balance,
		Pending:      a.Pending,
		Blocked:      a.Blocked,
		Available:    a.Available(),
	}
}

// BalanceSnapshot is the result of a balance query.
type BalanceSnapshot struct {
	AccountID    string `json:"accountID"`
	CurrencyCode string `json:"currencyCode"`
	Balance      int64  `json:"balance"`
	Pending      int64  `json:"pending"`
	Blocked      int64  `json:"blocked"`
	Available    int64  `json:"available"`
}

// BalanceChange is a pair of deltas applied to one account inside a unit of work.
type BalanceChange struct {
	Balance int64
	Pending int64
}
