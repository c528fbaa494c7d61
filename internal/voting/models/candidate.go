package models

import (
	"strings"
	"time"

	id "evote/pkg/domain"
	dErrors "evote/pkg/domain-errors"
)

// Field limits shared by constructors and request validation.
const (
	MaxNameLength  = 128
	MaxPartyLength = 128
)

// VoteLogEntry references the voter behind one counted vote.
type VoteLogEntry struct {
	VoterID id.VoterID `json:"voter_id"`
	VotedAt time.Time  `json:"voted_at"`
}

// Candidate is a roster entry that receives votes.
//
// Invariants:
//   - Name and Party are non-empty and bounded
//   - VoteCount == len(Votes) after every completed operation
//   - Votes holds at most one entry per voter, in arrival order
//
// Seq is the creation order assigned by the store; it breaks tally ties.
type Candidate struct {
	ID        id.CandidateID `json:"id"`
	Name      string         `json:"name"`
	Party     string         `json:"party"`
	VoteCount int            `json:"vote_count"`
	Votes     []VoteLogEntry `json:"votes,omitempty"`
	Seq       int64          `json:"-"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// NewCandidate builds a candidate with an empty vote log.
func NewCandidate(candidateID id.CandidateID, name, party string, now time.Time) (*Candidate, error) {
	if candidateID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "candidate id is required")
	}
	name, party, err := normalizeProfile(name, party)
	if err != nil {
		return nil, err
	}
	return &Candidate{
		ID:        candidateID,
		Name:      name,
		Party:     party,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// UpdateProfile replaces the descriptive fields. Vote fields are untouched.
func (c *Candidate) UpdateProfile(name, party string, now time.Time) error {
	name, party, err := normalizeProfile(name, party)
	if err != nil {
		return err
	}
	c.Name = name
	c.Party = party
	c.UpdatedAt = now
	return nil
}

// HasVoter reports whether voterID already appears in the vote log.
func (c *Candidate) HasVoter(voterID id.VoterID) bool {
	for _, v := range c.Votes {
		if v.VoterID == voterID {
			return true
		}
	}
	return false
}

// RecordVote appends entry to the log and increments the count together.
func (c *Candidate) RecordVote(entry VoteLogEntry) error {
	if entry.VoterID.IsNil() {
		return dErrors.New(dErrors.CodeInvariantViolation, "vote without voter")
	}
	if c.HasVoter(entry.VoterID) {
		return dErrors.New(dErrors.CodeInvariantViolation, "voter already in vote log")
	}
	c.Votes = append(c.Votes, entry)
	c.VoteCount++
	return nil
}

// CanDelete refuses removal once votes reference the candidate.
func (c *Candidate) CanDelete() error {
	if c.VoteCount > 0 || len(c.Votes) > 0 {
		return dErrors.New(dErrors.CodeInvariantViolation, "candidate has recorded votes")
	}
	return nil
}

// CheckConsistency verifies VoteCount == len(Votes) and log uniqueness.
func (c *Candidate) CheckConsistency() error {
	if c.VoteCount != len(c.Votes) {
		return dErrors.New(dErrors.CodeInvariantViolation, "vote count does not match vote log")
	}
	seen := make(map[id.VoterID]struct{}, len(c.Votes))
	for _, v := range c.Votes {
		if _, dup := seen[v.VoterID]; dup {
			return dErrors.New(dErrors.CodeInvariantViolation, "duplicate voter in vote log")
		}
		seen[v.VoterID] = struct{}{}
	}
	return nil
}

func normalizeProfile(name, party string) (string, string, error) {
	name = strings.TrimSpace(name)
	party = strings.TrimSpace(party)
	switch {
	case name == "":
		return "", "", dErrors.New(dErrors.CodeInvariantViolation, "candidate name is required")
	case party == "":
		return "", "", dErrors.New(dErrors.CodeInvariantViolation, "candidate party is required")
	case len(name) > MaxNameLength:
		return "", "", dErrors.New(dErrors.CodeInvariantViolation, "candidate name too long")
	case len(party) > MaxPartyLength:
		return "", "", dErrors.New(dErrors.CodeInvariantViolation, "candidate party too long")
	}
	return name, party, nil
}
