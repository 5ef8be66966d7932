// Package rbac contains the pure access decisions over tickets. The same
// decision backs single-record reads (CanAccess) and bulk reads (BuildFilter)
// so both code paths stay provably consistent.
package rbac

import "github.com/spec-kit/complaint-service/internal/domain"

// Actor is the minimal caller shape the decisions need.
type Actor struct {
	ID   string
	Role domain.Role
}

// Filter is the query predicate equivalent of CanAccess for bulk reads.
// Zero value means "no rows".
type Filter struct {
	// All grants unrestricted visibility.
	All bool
	// CustomerID restricts to tickets owned by this customer.
	CustomerID *string
	// AgentID restricts to tickets assigned to this agent or unassigned.
	AgentID *string
}

// CanAccess decides whether the actor may read the ticket. Unknown roles are
// always denied.
func CanAccess(actor Actor, ticket *domain.Ticket) bool {
	if ticket == nil {
		return false
	}
	switch actor.Role {
	case domain.RoleCustomer:
		return ticket.CustomerID == actor.ID
	case domain.RoleAgent:
		return ticket.AssignedAgent == nil || *ticket.AssignedAgent == actor.ID
	case domain.RoleAdmin:
		return true
	default:
		return false
	}
}

// BuildFilter produces the bulk-read predicate matching CanAccess.
func BuildFilter(actor Actor) Filter {
	switch actor.Role {
	case domain.RoleCustomer:
		id := actor.ID
		return Filter{CustomerID: &id}
	case domain.RoleAgent:
		id := actor.ID
		return Filter{AgentID: &id}
	case domain.RoleAdmin:
		return Filter{All: true}
	default:
		return Filter{}
	}
}

// Matches applies a Filter to one ticket in memory. Repositories translate
// the same filter to SQL; this form exists so tests can prove the two reads
// agree with CanAccess.
func (f Filter) Matches(ticket *domain.Ticket) bool {
	if ticket == nil {
		return false
	}
	if f.All {
		return true
	}
	if f.CustomerID != nil {
		return ticket.CustomerID == *f.CustomerID
	}
	if f.AgentID != nil {
		return ticket.AssignedAgent == nil || *ticket.AssignedAgent == *f.AgentID
	}
	return false
}

// CanTransitionStatus decides whether the actor may move the ticket's status.
// Agents must be the assigned agent; admins bypass.
func CanTransitionStatus(actor Actor, ticket *domain.Ticket) bool {
	if ticket == nil {
		return false
	}
	switch actor.Role {
	case domain.RoleAgent:
		return ticket.AssignedAgent != nil && *ticket.AssignedAgent == actor.ID
	case domain.RoleAdmin:
		return true
	default:
		return false
	}
}

// CanAssignAgent is admin-only.
func CanAssignAgent(actor Actor) bool {
	return actor.Role == domain.RoleAdmin
}
