package models

import "database/sql"

// Account is a row of the accounts table. Amounts are minor units.
type Account struct {
	AccountID    string         `db:"account_id"`
	AccountType  string         `db:"account_type"`
	OwnerID      sql.NullString `db:"owner_id"` // NULL for system accounts
	CurrencyCode string         `db:"currency_code"`
	Balance      int64          `db:"balance"`
	Pending      int64          `db:"pending"`
	Blocked      int64          `db:"blocked"`
	Status       string         `db:"status"`
	IsSystem     bool           `db:"is_system"`
	AuditFields
}
