// Package session holds the client-side record of who is logged in.
//
// A Session is either the guest sentinel (zero value) or a fully-filled
// authenticated record; partially-filled sessions are never produced.
package session

// Role is the account role carried by an authenticated session.
type Role string

const (
	RoleGuest   Role = "GUEST"
	RoleUser    Role = "USER"
	RoleStaff   Role = "STAFF"
	RoleManager Role = "MANAGER"
	RoleAdmin   Role = "ADMIN"
)

// Tier is the coarse classification routing decisions are made on.
type Tier int

const (
	TierGuest Tier = iota
	TierUser
	TierStaff
)

// Session represents the authenticated identity, if any.
type Session struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Role   Role   `json:"role"`
}

// Guest returns the unauthenticated sentinel session.
func Guest() Session {
	return Session{}
}

// IsAuthenticated reports whether the session carries an identity.
func (s Session) IsAuthenticated() bool {
	return s.UserID != ""
}

// ClassifyRole maps a session to its routing tier. Role is only meaningful
// on an authenticated session, so anything unauthenticated is TierGuest.
func ClassifyRole(s Session) Tier {
	if !s.IsAuthenticated() {
		return TierGuest
	}
	switch s.Role {
	case RoleStaff, RoleManager, RoleAdmin:
		return TierStaff
	case RoleUser:
		return TierUser
	}
	return TierGuest
}
