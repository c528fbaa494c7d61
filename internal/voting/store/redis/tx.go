package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"

	"evote/internal/voting/models"
	"evote/internal/voting/service"
	id "evote/pkg/domain"
	"evote/pkg/platform/sentinel"
)

// castVoteScript sets the voter flag and appends the vote in one step.
// -1 candidate missing, -2 voter missing, 0 already voted, 1 recorded.
var castVoteScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[2]) == 0 then
	return -1
end
local state = redis.call('HGET', KEYS[1], 'has_voted')
if not state then
	return -2
end
if state == '1' or redis.call('SISMEMBER', KEYS[4], ARGV[1]) == 1 then
	return 0
end
redis.call('HSET', KEYS[1], 'has_voted', '1')
redis.call('SADD', KEYS[4], ARGV[1])
redis.call('RPUSH', KEYS[3], ARGV[2])
redis.call('HINCRBY', KEYS[2], 'vote_count', 1)
return 1
`)

// VoteTx runs a cast as castVoteScript. MarkVoted inside the callback only
// checks the flag; the write happens with the append.
type VoteTx struct {
	voters     *VoterStore
	candidates *CandidateStore
}

// NewVoteTx constructs a Redis-backed VoteTx over the given stores.
func NewVoteTx(voters *VoterStore, candidates *CandidateStore) *VoteTx {
	return &VoteTx{voters: voters, candidates: candidates}
}

func (t *VoteTx) Atomic() bool { return true }

func (t *VoteTx) RunInTx(ctx context.Context, _ id.VoterID, fn func(ctx context.Context, stores service.TxStores) error) error {
	pending := &pendingFlag{}
	return fn(ctx, service.TxStores{
		Voters:     &txVoters{VoterStore: t.voters, pending: pending},
		Candidates: &txCandidates{CandidateStore: t.candidates, pending: pending},
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

func (v *txVoters) MarkVoted(ctx context.Context, voterID id.VoterID) error {
	state, err := v.client.HGet(ctx, voterKey(voterID), "has_voted").Result()
	if errors.Is(err, redis.Nil) {
		return sentinel.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("check voter flag: %w", err)
	}
	if state == "1" {
		return sentinel.ErrAlreadyUsed
	}
	v.pending.mu.Lock()
	v.pending.voterID, v.pending.set = voterID, true
	v.pending.mu.Unlock()
	return nil
}

type txCandidates struct {
	*CandidateStore
	pending *pendingFlag
}

func (c *txCandidates) AppendVote(ctx context.Context, candidateID id.CandidateID, entry models.VoteLogEntry) error {
	voterID, ok := c.pending.take()
	if !ok {
		return c.CandidateStore.AppendVote(ctx, candidateID, entry)
	}
	payload, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encode vote log entry: %w", err)
	}
	res, err := castVoteScript.Run(ctx, c.client,
		[]string{voterKey(voterID), candidateKey(candidateID), candidateVotesKey(candidateID), candidateVotersKey(candidateID)},
		entry.VoterID.String(), string(payload)).Int()
	if err != nil {
		return fmt.Errorf("cast vote: %w", err)
	}
	switch res {
	case -1:
		return sentinel.ErrNotFound
	case -2:
		return fmt.Errorf("voter record vanished: %w", sentinel.ErrInvalidState)
	case 0:
		return sentinel.ErrAlreadyUsed
	}
	return nil
}
