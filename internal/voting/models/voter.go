package models

import (
	"strings"
	"time"

	id "evote/pkg/domain"
	dErrors "evote/pkg/domain-errors"
)

// Voter is a registered user's voting record.
//
// Invariants:
//   - Role is RoleVoter or RoleAdmin
//   - HasVoted moves false → true exactly once and is never reset
//
// Registration creates voters; only a successful cast vote mutates HasVoted.
type Voter struct {
	ID        id.VoterID `json:"id"`
	Name      string     `json:"name"`
	Role      Role       `json:"role"`
	HasVoted  bool       `json:"has_voted"`
	CreatedAt time.Time  `json:"created_at"`
}

// NewVoter builds a voter in the not-voted state.
func NewVoter(voterID id.VoterID, name string, role Role, now time.Time) (*Voter, error) {
	if voterID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "voter id is required")
	}
	if !role.IsValid() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "invalid role")
	}
	name = strings.TrimSpace(name)
	if len(name) > MaxNameLength {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "voter name too long")
	}
	return &Voter{ID: voterID, Name: name, Role: role, CreatedAt: now}, nil
}

// IsAdmin reports whether the voter administers the roster.
func (v *Voter) IsAdmin() bool {
	return v.Role == RoleAdmin
}

// CanVote checks the eligibility preconditions in order: role first, then
// the one-vote rule. Admins are refused regardless of HasVoted.
func (v *Voter) CanVote() error {
	if !v.Role.MayVote() {
		return dErrors.New(dErrors.CodeForbidden, "Admin is not allowed to vote")
	}
	if v.HasVoted {
		return dErrors.New(dErrors.CodeConflict, "You have already voted")
	}
	return nil
}

// MarkVoted applies the NotVoted → Voted transition.
func (v *Voter) MarkVoted() error {
	if v.HasVoted {
		return dErrors.New(dErrors.CodeInvariantViolation, "voter has already voted")
	}
	v.HasVoted = true
	return nil
}
