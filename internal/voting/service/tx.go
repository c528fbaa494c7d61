package service

import (
	"context"
	"hash/fnv"
	"sync"
	"time"

	id "evote/pkg/domain"
	dErrors "evote/pkg/domain-errors"
)

// numVoteShards spreads voters across independent locks so unrelated
// votes do not contend.
const numVoteShards = 128

const defaultVoteTxTimeout = 5 * time.Second

// shardedVoteTx serializes cast-vote attempts per voter with sharded
// mutexes. It does not roll back: the stores it wraps are not transactional.
type shardedVoteTx struct {
	shards  [numVoteShards]sync.Mutex
	stores  TxStores
	timeout time.Duration
}

// NewShardedVoteTx builds the fallback runner for stores that bring no
// VoteTx of their own.
func NewShardedVoteTx(voters VoterStore, candidates CandidateStore, timeout time.Duration) VoteTx {
	return &shardedVoteTx{
		stores:  TxStores{Voters: voters, Candidates: candidates},
		timeout: timeout,
	}
}

func (t *shardedVoteTx) Atomic() bool { return false }

func (t *shardedVoteTx) RunInTx(ctx context.Context, voterID id.VoterID, fn func(ctx context.Context, stores TxStores) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	timeout := t.timeout
	if timeout == 0 {
		timeout = defaultVoteTxTimeout
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	shard := &t.shards[shardFor(voterID)]
	shard.Lock()
	defer shard.Unlock()

	// Waiting for the shard may have used up the deadline.
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	return fn(ctx, t.stores)
}

// shardFor hashes the voter id with FNV-1a.
func shardFor(voterID id.VoterID) int {
	h := fnv.New32a()
	_, _ = h.Write(voterID[:])
	return int(h.Sum32() % numVoteShards)
}
