package identity

import "fmt"

// Role is a backoffice staff role
type Role string

const (
	RoleAdmin Role = "admin"
	RoleFlota Role = "flota"
)

// ParseRole validates a wire value
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.IsValid() {
		return "", fmt.Errorf("unknown role %q", s)
	}
	return r, nil
}

// IsValid checks if the role is known
func (r Role) IsValid() bool {
	return r == RoleAdmin || r == RoleFlota
}

// String returns the string representation of Role
func (r Role) String() string {
	return string(r)
}

// Capability is an action gated by role
type Capability string

const (
	CapViewAllTickets Capability = "tickets:view_all"
	CapViewOwnTickets Capability = "tickets:view_own"
	CapUpdateTicket   Capability = "tickets:update"
	CapAssignCourier  Capability = "tickets:assign"
	CapDeleteTicket   Capability = "tickets:delete"
	CapArchiveTicket  Capability = "tickets:archive"
	CapViewFleet      Capability = "fleet:view"
	CapViewReports    Capability = "reports:view"
	CapManageUsers    Capability = "users:manage"
)

var capabilities = map[Role]map[Capability]bool{
	RoleAdmin: {
		CapViewAllTickets: true,
		CapViewOwnTickets: true,
		CapUpdateTicket:   true,
		CapAssignCourier:  true,
		CapDeleteTicket:   true,
		CapArchiveTicket:  true,
		CapViewFleet:      true,
		CapViewReports:    true,
		CapManageUsers:    true,
	},
	RoleFlota: {
		CapViewOwnTickets: true,
		CapUpdateTicket:   true,
	},
}

// Can reports whether the role grants the capability
func (r Role) Can(c Capability) bool {
	return capabilities[r][c]
}
