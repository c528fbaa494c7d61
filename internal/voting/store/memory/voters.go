// Package memory holds the in-process voting stores used for local runs
// and tests. Reads return copies so callers cannot mutate stored records.
package memory

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"evote/internal/voting/models"
	id "evote/pkg/domain"
	"evote/pkg/platform/sentinel"
)

// VoterStore keeps voter records in process memory.
type VoterStore struct {
	mu     sync.RWMutex
	voters map[id.VoterID]*models.Voter
	order  []id.VoterID
}

// NewVoterStore constructs an empty in-memory voter store.
func NewVoterStore() *VoterStore {
	return &VoterStore{voters: make(map[id.VoterID]*models.Voter)}
}

// Save inserts or replaces a voter. An existing flag is never cleared.
func (s *VoterStore) Save(_ context.Context, voter *models.Voter) error {
	if voter == nil {
		return fmt.Errorf("voter is required: %w", sentinel.ErrInvalidState)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *voter
	if existing, ok := s.voters[voter.ID]; ok {
		cp.HasVoted = cp.HasVoted || existing.HasVoted
	} else {
		s.order = append(s.order, voter.ID)
	}
	s.voters[voter.ID] = &cp
	return nil
}

func (s *VoterStore) FindByID(_ context.Context, voterID id.VoterID) (*models.Voter, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.voters[voterID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *v
	return &cp, nil
}

// List returns voters in registration order.
func (s *VoterStore) List(_ context.Context) ([]*models.Voter, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Voter, 0, len(s.order))
	for _, voterID := range s.order {
		cp := *s.voters[voterID]
		out = append(out, &cp)
	}
	return out, nil
}

// MarkVoted sets the flag only if it is unset.
func (s *VoterStore) MarkVoted(_ context.Context, voterID id.VoterID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.voters[voterID]
	if !ok {
		return sentinel.ErrNotFound
	}
	return flagVoter(v)
}

// flagVoter applies the model transition and reports a set flag as a lost race.
func flagVoter(v *models.Voter) error {
	if err := v.MarkVoted(); err != nil {
		return sentinel.ErrAlreadyUsed
	}
	return nil
}

// Len returns the number of registered voters.
func (s *VoterStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.voters)
}

func cloneCandidate(c *models.Candidate, withVotes bool) *models.Candidate {
	cp := *c
	cp.Votes = nil
	if withVotes {
		cp.Votes = slices.Clone(c.Votes)
	}
	return &cp
}
