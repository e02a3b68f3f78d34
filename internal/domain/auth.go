package domain

// Role is an unprefixed role name as stored and embedded in tokens.
type Role string

const (
	RoleAdmin    Role = "ADMIN"
	RoleCustomer Role = "CUSTOMER"
)

// Credential is a login submission. It is never persisted.
type Credential struct {
	Username string
	Password string
}
