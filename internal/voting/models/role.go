package models

import dErrors "evote/pkg/domain-errors"

// Role is the closed set of voter roles.
type Role string

const (
	RoleVoter Role = "voter"
	RoleAdmin Role = "admin"
)

// ParseRole constructs a Role from stored or external input.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.IsValid() {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid role: "+s)
	}
	return r, nil
}

func (r Role) IsValid() bool {
	switch r {
	case RoleVoter, RoleAdmin:
		return true
	default:
		return false
	}
}

// MayVote reports whether holders of the role can cast a vote.
func (r Role) MayVote() bool {
	switch r {
	case RoleVoter:
		return true
	case RoleAdmin:
		return false
	default:
		return false
	}
}

func (r Role) String() string {
	return string(r)
}
