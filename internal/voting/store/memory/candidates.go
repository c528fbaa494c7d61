package memory

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"evote/internal/voting/models"
	id "evote/pkg/domain"
	"evote/pkg/platform/sentinel"
)

// CandidateStore keeps candidates and their vote logs in process memory.
type CandidateStore struct {
	mu         sync.RWMutex
	candidates map[id.CandidateID]*models.Candidate
	order      []id.CandidateID
	seq        int64
}

// NewCandidateStore constructs an empty in-memory candidate store.
func NewCandidateStore() *CandidateStore {
	return &CandidateStore{candidates: make(map[id.CandidateID]*models.Candidate)}
}

// Create stores a copy of candidate, vote log and count included, and
// assigns its creation sequence.
func (s *CandidateStore) Create(_ context.Context, candidate *models.Candidate) error {
	if candidate == nil {
		return fmt.Errorf("candidate is required: %w", sentinel.ErrInvalidState)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.candidates[candidate.ID]; exists {
		return sentinel.ErrConflict
	}
	s.seq++
	candidate.Seq = s.seq
	s.candidates[candidate.ID] = cloneCandidate(candidate, true)
	s.order = append(s.order, candidate.ID)
	return nil
}

// FindByID returns the candidate with its vote log.
func (s *CandidateStore) FindByID(_ context.Context, candidateID id.CandidateID) (*models.Candidate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.candidates[candidateID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return cloneCandidate(c, true), nil
}

// List returns candidates in creation order without vote logs.
func (s *CandidateStore) List(_ context.Context) ([]*models.Candidate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Candidate, 0, len(s.order))
	for _, candidateID := range s.order {
		out = append(out, cloneCandidate(s.candidates[candidateID], false))
	}
	return out, nil
}

func (s *CandidateStore) UpdateProfile(_ context.Context, candidateID id.CandidateID, name, party string, at time.Time) (*models.Candidate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.candidates[candidateID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if err := c.UpdateProfile(name, party, at); err != nil {
		return nil, fmt.Errorf("update candidate profile: %w", err)
	}
	return cloneCandidate(c, false), nil
}

// Delete removes a candidate without votes.
func (s *CandidateStore) Delete(_ context.Context, candidateID id.CandidateID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.candidates[candidateID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if err := c.CanDelete(); err != nil {
		return sentinel.ErrInvalidState
	}
	delete(s.candidates, candidateID)
	s.order = slices.DeleteFunc(s.order, func(x id.CandidateID) bool { return x == candidateID })
	return nil
}

// AppendVote adds entry to the log and increments the count under one lock.
func (s *CandidateStore) AppendVote(_ context.Context, candidateID id.CandidateID, entry models.VoteLogEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.candidates[candidateID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if c.HasVoter(entry.VoterID) {
		return sentinel.ErrAlreadyUsed
	}
	return c.RecordVote(entry)
}

func (s *CandidateStore) RepairVoteCount(_ context.Context, candidateID id.CandidateID) (int, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.candidates[candidateID]
	if !ok {
		return 0, 0, sentinel.ErrNotFound
	}
	stored := c.VoteCount
	c.VoteCount = len(c.Votes)
	return stored, c.VoteCount, nil
}
