package loankit

import "context"

// Role is the closed set of roles a principal can hold. Authorization is
// set membership over this type; roles are never compared as free-form
// strings.
type Role string

const (
	RoleAdmin     Role = "admin"
	RoleLibrarian Role = "librarian"
	RoleMember    Role = "member"
)

// Valid reports whether the role is one of the defined values.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleLibrarian, RoleMember:
		return true
	}
	return false
}

// String returns the wire representation of the role.
func (r Role) String() string {
	return string(r)
}

// ParseRole converts a stored role value into a Role.
// Returns false for anything outside the closed set.
func ParseRole(s string) (Role, bool) {
	r := Role(s)
	return r, r.Valid()
}

// Principal is a resolved identity plus its role. It is supplied per
// request by the caller (typically extracted from a verified bearer
// credential) and is never persisted by this package.
type Principal struct {
	UserID string
	Role   Role
}

// IsZero reports whether the principal is unset.
func (p Principal) IsZero() bool {
	return p.UserID == "" && p.Role == ""
}

// Authorize reports whether the principal's role is in the allowed set.
// An empty allowed set admits nobody.
//
// Example:
//
//	if !loankit.Authorize(p, loankit.RoleAdmin, loankit.RoleLibrarian) {
//	    // reject with Forbidden
//	}
func Authorize(p Principal, allowed ...Role) bool {
	if !p.Role.Valid() {
		return false
	}
	for _, role := range allowed {
		if p.Role == role {
			return true
		}
	}
	return false
}

// CanModifyUser reports whether the principal may mutate the user record
// with the given ID: admins may modify anyone, everyone else only their
// own record.
func CanModifyUser(p Principal, targetUserID string) bool {
	if p.Role == RoleAdmin {
		return true
	}
	return p.Role.Valid() && p.UserID == targetUserID
}

// CanAssignRole reports whether the principal may set a user's role to
// the target value. Only admins change roles at all, which also covers
// the rule that only an admin may grant admin.
func CanAssignRole(p Principal, target Role) bool {
	return p.Role == RoleAdmin && target.Valid()
}

// principalFor resolves the principal from context, failing with
// ErrNoPrincipal when absent.
func principalFor(ctx context.Context) (Principal, error) {
	p := GetPrincipal(ctx)
	if p.IsZero() {
		return Principal{}, NewError(ErrNoPrincipal, "operation requires an authenticated principal")
	}
	return p, nil
}

// requireRole resolves the principal and checks it against the allowed
// role set, converting failure into ErrForbidden.
func requireRole(ctx context.Context, allowed ...Role) (Principal, error) {
	p, err := principalFor(ctx)
	if err != nil {
		return Principal{}, err
	}
	if !Authorize(p, allowed...) {
		return Principal{}, NewError(ErrForbidden, "missing required role").WithActor(p.UserID)
	}
	return p, nil
}
