// Package gate decides whether a request may see a route subtree based on
// session state. The decision itself is a pure function of a declarative
// Policy; the middleware wrappers only act on its outcome.
package gate

import (
	"github.com/glowcart-dev/glowcart/internal/session"
)

// Route destinations used by redirect decisions.
const (
	HomePath      = "/"
	StaffHomePath = "/staff"
)

// Policy is the declarative requirement a gate enforces.
type Policy struct {
	// RequireUser denies unauthenticated sessions.
	RequireUser bool
	// RequireStaff denies non-staff sessions. A staff session on a gate
	// without RequireStaff is also denied: staff accounts never see
	// non-staff routes.
	RequireStaff bool
	// NotifyOnDeny surfaces a transient notice and requests the login
	// prompt when the denial is for a missing session.
	NotifyOnDeny bool
}

// Reason explains a denial.
type Reason int

const (
	ReasonNone Reason = iota
	ReasonNotStaff
	ReasonStaffOnUserRoute
	ReasonNotLoggedIn
)

// Decision is the outcome of evaluating a Policy against a Session.
type Decision struct {
	Allow      bool
	RedirectTo string
	Reason     Reason
}

// Decide evaluates the policy. Rules apply in precedence order: staff
// requirement first, then the staff-segregation rule, then the login
// requirement.
func Decide(p Policy, s session.Session) Decision {
	isStaff := session.ClassifyRole(s) == session.TierStaff

	if p.RequireStaff && !isStaff {
		return Decision{RedirectTo: HomePath, Reason: ReasonNotStaff}
	}
	if isStaff && !p.RequireStaff {
		return Decision{RedirectTo: StaffHomePath, Reason: ReasonStaffOnUserRoute}
	}
	if p.RequireUser && !s.IsAuthenticated() {
		return Decision{RedirectTo: HomePath, Reason: ReasonNotLoggedIn}
	}
	return Decision{Allow: true}
}
