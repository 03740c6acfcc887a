// Package session models the actor a client acts as against the backend.
package session

import (
	"encoding/json"
	"fmt"
)

// Role is the single, mutually exclusive actor classification. It replaces
// the pair of independent admin/user flags the backend reports.
type Role string

const (
	RoleAnonymous Role = "anonymous"
	RoleUser      Role = "user"
	RoleAdmin     Role = "admin"
)

// FromProbes collapses the two probe flags into a Role. Admin wins when both
// are set.
func FromProbes(admin, user bool) Role {
	switch {
	case admin:
		return RoleAdmin
	case user:
		return RoleUser
	default:
		return RoleAnonymous
	}
}

// IsValid returns true if the role is one of the three known roles.
func (r Role) IsValid() bool {
	switch r {
	case RoleAnonymous, RoleUser, RoleAdmin:
		return true
	default:
		return false
	}
}

func (r Role) String() string {
	return string(r)
}

// IsAdmin returns true for RoleAdmin.
func (r Role) IsAdmin() bool { return r == RoleAdmin }

// IsAuthenticated returns true for users and admins.
func (r Role) IsAuthenticated() bool { return r == RoleUser || r == RoleAdmin }

// DisplayName returns the name used in the role banner.
func (r Role) DisplayName() string {
	switch r {
	case RoleAdmin:
		return "Admin"
	case RoleUser:
		return "User"
	default:
		return "Anonymous"
	}
}

// ParseRole parses a role name.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.IsValid() {
		return "", fmt.Errorf("invalid role: %s", s)
	}
	return r, nil
}

// UnmarshalJSON validates the role on decode.
func (r *Role) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseRole(s)
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// Probe is the raw outcome of the two session checks. A failed check is
// recorded as false together with its error.
type Probe struct {
	Admin    bool
	User     bool
	AdminErr error
	UserErr  error
}

// Role derives the tagged role from the probe.
func (p Probe) Role() Role {
	return FromProbes(p.Admin, p.User)
}
