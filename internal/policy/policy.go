// Package policy decides which tickets a caller may see and change.
package policy

import (
	"errors"

	"github.com/spec-kit/support-desk/internal/domain"
)

// ErrUnknownRole is returned for roles without a registered policy.
var ErrUnknownRole = errors.New("unknown role")

// Scope selects the tickets visible to a caller. The zero value is unrestricted.
type Scope struct {
	ownerID string
}

// Unrestricted returns a scope covering every ticket.
func Unrestricted() Scope {
	return Scope{}
}

// RestrictedToOwner returns a scope covering tickets owned by ownerID.
func RestrictedToOwner(ownerID string) Scope {
	return Scope{ownerID: ownerID}
}

// IsUnrestricted reports whether the scope covers every ticket.
func (s Scope) IsUnrestricted() bool {
	return s.ownerID == ""
}

// OwnerID returns the owner a restricted scope is bound to.
func (s Scope) OwnerID() (string, bool) {
	return s.ownerID, s.ownerID != ""
}

// Includes reports whether a ticket owned by ownerID falls inside the scope.
func (s Scope) Includes(ownerID string) bool {
	return s.IsUnrestricted() || s.ownerID == ownerID
}

// Policy is the access rule set attached to a role.
type Policy interface {
	// Scope is shared by listing, single reads, comments and the dashboard.
	Scope(callerID string) Scope
	CanUpdate() bool
	CanAssign() bool
}

type clientPolicy struct{}

func (clientPolicy) Scope(callerID string) Scope { return RestrictedToOwner(callerID) }
func (clientPolicy) CanUpdate() bool             { return false }
func (clientPolicy) CanAssign() bool             { return false }

// staffPolicy covers consultants and admins; the two roles are intentionally identical.
type staffPolicy struct{}

func (staffPolicy) Scope(string) Scope { return Unrestricted() }
func (staffPolicy) CanUpdate() bool    { return true }
func (staffPolicy) CanAssign() bool    { return true }

var policies = map[domain.Role]Policy{
	domain.RoleClient:     clientPolicy{},
	domain.RoleConsultant: staffPolicy{},
	domain.RoleAdmin:      staffPolicy{},
}

// For returns the policy registered for role.
func For(role domain.Role) (Policy, error) {
	p, ok := policies[role]
	if !ok {
		return nil, ErrUnknownRole
	}
	return p, nil
}

// CanRead reports whether callerID acting under p may read a ticket owned by ownerID.
func CanRead(p Policy, callerID, ownerID string) bool {
	return p.Scope(callerID).Includes(ownerID)
}
