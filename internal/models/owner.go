package models

// Owner is a row of the owners table.
type Owner struct {
	OwnerID string `db:"owner_id"`
	Kind    string `db:"kind"`
	Name    string `db:"name"`
	Status  string `db:"status"`
	AuditFields
}
