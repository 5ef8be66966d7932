package rbac

import (
	"testing"

	"github.com/spec-kit/complaint-service/internal/domain"
)

func strPtr(s string) *string { return &s }

func sampleTickets() []*domain.Ticket {
	return []*domain.Ticket{
		{ID: "t1", CustomerID: "cust-1", AssignedAgent: nil},
		{ID: "t2", CustomerID: "cust-1", AssignedAgent: strPtr("agent-1")},
		{ID: "t3", CustomerID: "cust-2", AssignedAgent: strPtr("agent-2")},
	}
}

func sampleActors() []Actor {
	return []Actor{
		{ID: "cust-1", Role: domain.RoleCustomer},
		{ID: "cust-2", Role: domain.RoleCustomer},
		{ID: "agent-1", Role: domain.RoleAgent},
		{ID: "agent-2", Role: domain.RoleAgent},
		{ID: "admin-1", Role: domain.RoleAdmin},
		{ID: "intern-1", Role: domain.Role("INTERN")},
		{ID: "nobody", Role: domain.Role("")},
	}
}

func TestCanAccess(t *testing.T) {
	tickets := sampleTickets()
	cases := []struct {
		actor  string
		ticket string
		want   bool
	}{
		{"cust-1", "t1", true},
		{"cust-1", "t2", true},
		{"cust-1", "t3", false},
		{"cust-2", "t1", false},
		{"agent-1", "t1", true}, // unassigned visible to any agent
		{"agent-1", "t2", true},
		{"agent-1", "t3", false}, // assigned to someone else
		{"admin-1", "t3", true},
		{"intern-1", "t1", false},
		{"nobody", "t1", false},
	}
	actors := map[string]Actor{}
	for _, actor := range sampleActors() {
		actors[actor.ID] = actor
	}
	byID := map[string]*domain.Ticket{}
	for _, ticket := range tickets {
		byID[ticket.ID] = ticket
	}
	for _, tc := range cases {
		if got := CanAccess(actors[tc.actor], byID[tc.ticket]); got != tc.want {
			t.Errorf("CanAccess(%s, %s) = %v, want %v", tc.actor, tc.ticket, got, tc.want)
		}
	}
}

// Every actor/ticket pair must produce the same answer from the single-record
// check and the bulk filter, otherwise list and get endpoints would disagree.
func TestFilterAgreesWithCanAccess(t *testing.T) {
	for _, actor := range sampleActors() {
		filter := BuildFilter(actor)
		for _, ticket := range sampleTickets() {
			direct := CanAccess(actor, ticket)
			bulk := filter.Matches(ticket)
			if direct != bulk {
				t.Errorf("actor %s ticket %s: CanAccess=%v but Filter.Matches=%v",
					actor.ID, ticket.ID, direct, bulk)
			}
		}
	}
}

func TestCanAccessNilTicket(t *testing.T) {
	if CanAccess(Actor{ID: "admin-1", Role: domain.RoleAdmin}, nil) {
		t.Error("nil ticket accessible")
	}
	if (Filter{All: true}).Matches(nil) {
		t.Error("nil ticket matched")
	}
}

func TestCanTransitionStatus(t *testing.T) {
	assigned := &domain.Ticket{ID: "t", CustomerID: "cust-1", AssignedAgent: strPtr("agent-1")}
	unassigned := &domain.Ticket{ID: "t", CustomerID: "cust-1"}

	cases := []struct {
		actor  Actor
		ticket *domain.Ticket
		want   bool
	}{
		{Actor{ID: "agent-1", Role: domain.RoleAgent}, assigned, true},
		{Actor{ID: "agent-2", Role: domain.RoleAgent}, assigned, false},
		{Actor{ID: "agent-1", Role: domain.RoleAgent}, unassigned, false},
		{Actor{ID: "admin-1", Role: domain.RoleAdmin}, unassigned, true},
		{Actor{ID: "cust-1", Role: domain.RoleCustomer}, assigned, false},
		{Actor{ID: "x", Role: domain.Role("INTERN")}, assigned, false},
	}
	for _, tc := range cases {
		if got := CanTransitionStatus(tc.actor, tc.ticket); got != tc.want {
			t.Errorf("CanTransitionStatus(%s/%s) = %v, want %v", tc.actor.ID, tc.actor.Role, got, tc.want)
		}
	}
}

func TestCanAssignAgent(t *testing.T) {
	if !CanAssignAgent(Actor{ID: "admin-1", Role: domain.RoleAdmin}) {
		t.Error("admin denied assignment")
	}
	for _, role := range []domain.Role{domain.RoleAgent, domain.RoleCustomer, domain.Role("INTERN")} {
		if CanAssignAgent(Actor{ID: "x", Role: role}) {
			t.Errorf("%s allowed to assign", role)
		}
	}
}
