package domain

import "time"

// Role is an open tag rather than a closed enum so that new roles can be
// introduced without a schema migration. All decision code treats values
// outside the known constants as deny.
type Role string

const (
	RoleCustomer Role = "CUSTOMER"
	RoleAgent    Role = "AGENT"
	RoleAdmin    Role = "ADMIN"
)

// User is the domain model for customers, agents and admins.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Role         Role
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
