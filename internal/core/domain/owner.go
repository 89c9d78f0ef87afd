package domain

// OwnerKind identifies what an account owner is in the surrounding platform.
type OwnerKind string

const (
	OwnerUser  OwnerKind = "USER"
	OwnerStore OwnerKind = "STORE"
)

func (k OwnerKind) IsValid() bool {
	return k == OwnerUser || k == OwnerStore
}

// OwnerStatus is mirrored from the provisioning system.
type OwnerStatus string

const (
	OwnerActive  OwnerStatus = "ACTIVE"
	OwnerBlocked OwnerStatus = "BLOCKED"
)

func (s OwnerStatus) IsValid() bool {
	return s == OwnerActive || s == OwnerBlocked
}

// Owner is a user or store that can own accounts and take part in escrows.
type Owner struct {
	OwnerID string      `json:"ownerID"`
	Kind    OwnerKind   `json:"kind"`
	Name    string      `json:"name"`
	Status  OwnerStatus `json:"status"`
	AuditFields
}

func (o Owner) IsBlocked() bool {
	return o.Status == OwnerBlocked
}
