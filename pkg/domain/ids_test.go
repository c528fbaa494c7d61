package domain

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "evote/pkg/domain-errors"
)

// TestParseUUID_Invariants validates the parsing invariant:
// "IDs must be valid, non-empty, non-nil UUIDs"
func TestParseUUID_Invariants(t *testing.T) {
	t.Run("rejects empty string", func(t *testing.T) {
		_, err := ParseVoterID("")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects invalid format", func(t *testing.T) {
		_, err := ParseCandidateID("64b7f1e2c3a4b5c6d7e8f901")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
		assert.Contains(t, err.Error(), "invalid candidate id format")
	})

	t.Run("rejects nil UUID", func(t *testing.T) {
		_, err := ParseVoterID(uuid.Nil.String())
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("accepts valid UUID", func(t *testing.T) {
		validUUID := uuid.New()
		id, err := ParseCandidateID(validUUID.String())
		require.NoError(t, err)
		assert.Equal(t, CandidateID(validUUID), id)
	})
}

// TestParseID_BoundaryInputs validates rejection of hostile route params.
func TestParseID_BoundaryInputs(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"SQL injection attempt", "'; DROP TABLE candidates;--", true},
		{"Path traversal", "../../../etc/passwd", true},
		{"Null byte injection", "550e8400\x00-e29b-41d4-a716-446655440000", true},
		{"Oversized input", strings.Repeat("a", 1000), true},
		{"Whitespace only", "   ", true},
		{"Uppercase valid UUID", "550E8400-E29B-41D4-A716-446655440000", false},
		{"Valid UUID lowercase", "550e8400-e29b-41d4-a716-446655440000", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseCandidateID(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
			} else {
				require.NoError(t, err)
			}
		})
	}
}

// TestTypeDistinction verifies voter and candidate IDs stay distinct values.
// var _ VoterID = CandidateID{} would not compile.
func TestTypeDistinction(t *testing.T) {
	voterID := NewVoterID()
	candidateID := NewCandidateID()
	assert.NotEqual(t, uuid.UUID(voterID), uuid.UUID(candidateID))
	assert.False(t, voterID.IsNil())
	assert.True(t, VoterID{}.IsNil())
}

func TestIDsSerializeAsStrings(t *testing.T) {
	type payload struct {
		Voter     VoterID     `json:"voter"`
		Candidate CandidateID `json:"candidate"`
	}
	in := payload{Voter: NewVoterID(), Candidate: NewCandidateID()}

	raw, err := json.Marshal(in)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"voter":"`+in.Voter.String()+`"`)

	var out payload
	require.NoError(t, json.Unmarshal(raw, &out))
	assert.Equal(t, in, out)

	err = json.Unmarshal([]byte(`{"voter":"nope"}`), &out)
	require.Error(t, err)
}
