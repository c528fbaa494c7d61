package memory

import (
	"context"
	"fmt"
	"sync"

	"evote/internal/voting/models"
	"evote/internal/voting/service"
	id "evote/pkg/domain"
	"evote/pkg/platform/sentinel"
)

// VoteTx commits the voter flag and the vote log append as one step. The
// flag write is held back until AppendVote, which takes the candidate and
// voter locks together so a concurrent Delete cannot land in between.
type VoteTx struct {
	voters     *VoterStore
	candidates *CandidateStore
}

// NewVoteTx constructs an in-memory VoteTx over the given stores.
func NewVoteTx(voters *VoterStore, candidates *CandidateStore) *VoteTx {
	return &VoteTx{voters: voters, candidates: candidates}
}

func (t *VoteTx) Atomic() bool { return true }

func (t *VoteTx) RunInTx(ctx context.Context, _ id.VoterID, fn func(ctx context.Context, stores service.TxStores) error) error {
	pending := &pendingFlag{}
	return fn(ctx, service.TxStores{
		Voters:     &txVoters{VoterStore: t.voters, pending: pending},
		Candidates: &txCandidates{CandidateStore: t.candidates, voters: t.voters, pending: pending},
	})
}

type pendingFlag struct {
	mu      sync.Mutex
	voterID id.VoterID
	set     bool
}

func (p *pendingFlag) take() (id.VoterID, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	voterID, ok := p.voterID, p.set
	p.set = false
	return voterID, ok
}

type txVoters struct {
	*VoterStore
	pending *pendingFlag
}

// MarkVoted checks the flag and defers the write to AppendVote.
func (v *txVoters) MarkVoted(_ context.Context, voterID id.VoterID) error {
	v.mu.RLock()
	voter, ok := v.voters[voterID]
	voted := ok && voter.HasVoted
	v.mu.RUnlock()
	if !ok {
		return sentinel.ErrNotFound
	}
	if voted {
		return sentinel.ErrAlreadyUsed
	}
	v.pending.mu.Lock()
	v.pending.voterID, v.pending.set = voterID, true
	v.pending.mu.Unlock()
	return nil
}

type txCandidates struct {
	*CandidateStore
	voters  *VoterStore
	pending *pendingFlag
}

func (c *txCandidates) AppendVote(ctx context.Context, candidateID id.CandidateID, entry models.VoteLogEntry) error {
	voterID, ok := c.pending.take()
	if !ok {
		return c.CandidateStore.AppendVote(ctx, candidateID, entry)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.voters.mu.Lock()
	defer c.voters.mu.Unlock()

	candidate, ok := c.candidates[candidateID]
	if !ok {
		return sentinel.ErrNotFound
	}
	voter, ok := c.voters.voters[voterID]
	if !ok {
		return fmt.Errorf("voter record vanished: %w", sentinel.ErrInvalidState)
	}
	if voter.HasVoted || candidate.HasVoter(entry.VoterID) {
		return sentinel.ErrAlreadyUsed
	}
	if err := candidate.RecordVote(entry); err != nil {
		return err
	}
	return flagVoter(voter)
}
