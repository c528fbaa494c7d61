// Package domain holds the typed identifiers shared across voting packages.
//
// IDs are distinct named types over uuid.UUID so a voter ID can never be
// passed where a candidate ID is expected. Construct them via the Parse
// functions at trust boundaries (route params, token claims); direct
// conversion from uuid.UUID is reserved for stores and tests.
package domain

import (
	"unicode/utf8"

	"github.com/google/uuid"

	dErrors "evote/pkg/domain-errors"
)

// maxIDLength bounds the raw input before handing it to uuid.Parse.
// The longest accepted form is the urn:uuid: prefixed one.
const maxIDLength = 45

type (
	VoterID     uuid.UUID
	CandidateID uuid.UUID
)

// NewVoterID returns a fresh random voter ID.
func NewVoterID() VoterID { return VoterID(uuid.New()) }

// NewCandidateID returns a fresh random candidate ID.
func NewCandidateID() CandidateID { return CandidateID(uuid.New()) }

// ParseVoterID parses a voter identifier from external input.
//
// Errors: returns CodeInvalidInput for empty, malformed or nil UUIDs.
func ParseVoterID(s string) (VoterID, error) {
	u, err := parseID(s, "voter")
	if err != nil {
		return VoterID{}, err
	}
	return VoterID(u), nil
}

// ParseCandidateID parses a candidate identifier from external input.
// A malformed key is a BadRequest condition, distinct from a well-formed key
// that resolves to no candidate.
//
// Errors: returns CodeInvalidInput for empty, malformed or nil UUIDs.
func ParseCandidateID(s string) (CandidateID, error) {
	u, err := parseID(s, "candidate")
	if err != nil {
		return CandidateID{}, err
	}
	return CandidateID(u), nil
}

func parseID(s, kind string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, kind+" id is required")
	}
	if len(s) > maxIDLength || !utf8.ValidString(s) {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+kind+" id format")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+kind+" id format")
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+kind+" id format")
	}
	return u, nil
}

func (id VoterID) String() string     { return uuid.UUID(id).String() }
func (id VoterID) IsNil() bool        { return uuid.UUID(id) == uuid.Nil }
func (id CandidateID) String() string { return uuid.UUID(id).String() }
func (id CandidateID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }

// MarshalText lets typed IDs serialize as plain UUID strings in JSON.
func (id VoterID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

func (id *VoterID) UnmarshalText(b []byte) error {
	parsed, err := ParseVoterID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func (id CandidateID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

func (id *CandidateID) UnmarshalText(b []byte) error {
	parsed, err := ParseCandidateID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}
