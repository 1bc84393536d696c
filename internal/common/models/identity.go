package models

// Administrator is the reserved super-user. Both the identity and the
// role of this name bypass rule evaluation entirely.
const Administrator = "Administrator"

// GuestUser is the identity attached to unauthenticated requests.
const GuestUser = "Guest"

// Session is the resolved identity for one request: who the caller is
// and which roles they hold.
type Session struct {
	UserID string   `json:"user_id"`
	Roles  []string `json:"roles"`
}

// HasRole reports whether the session carries the given role.
func (s Session) HasRole(role string) bool {
	for _, r := range s.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// IsAdministrator reports whether the session bypasses permission rules.
func (s Session) IsAdministrator() bool {
	return s.UserID == Administrator || s.HasRole(Administrator)
}
