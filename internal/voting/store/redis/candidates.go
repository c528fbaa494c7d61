package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"evote/internal/voting/models"
	id "evote/pkg/domain"
	"evote/pkg/platform/sentinel"
)

var createCandidateScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 1 then
	return 0
end
redis.call('HSET', KEYS[1], 'name', ARGV[1], 'party', ARGV[2], 'vote_count', '0',
	'seq', ARGV[3], 'created_at', ARGV[4], 'updated_at', ARGV[5])
redis.call('ZADD', KEYS[2], ARGV[3], ARGV[6])
return 1
`)

var updateProfileScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then
	return 0
end
redis.call('HSET', KEYS[1], 'name', ARGV[1], 'party', ARGV[2], 'updated_at', ARGV[3])
return 1
`)

// deleteCandidateScript: -1 missing, 0 holds votes, 1 deleted.
var deleteCandidateScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then
	return -1
end
local count = tonumber(redis.call('HGET', KEYS[1], 'vote_count') or '0')
if count > 0 or redis.call('LLEN', KEYS[2]) > 0 then
	return 0
end
redis.call('DEL', KEYS[1], KEYS[2], KEYS[3])
redis.call('ZREM', KEYS[4], ARGV[1])
return 1
`)

// appendVoteScript: -1 missing, 0 voter already logged, 1 appended.
// The set check, log push and increment execute as one script.
var appendVoteScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then
	return -1
end
if redis.call('SADD', KEYS[3], ARGV[1]) == 0 then
	return 0
end
redis.call('RPUSH', KEYS[2], ARGV[2])
redis.call('HINCRBY', KEYS[1], 'vote_count', 1)
return 1
`)

// repairCountScript returns {stored, actual}, or -1 when missing.
var repairCountScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then
	return -1
end
local stored = tonumber(redis.call('HGET', KEYS[1], 'vote_count') or '0')
local actual = redis.call('LLEN', KEYS[2])
if stored ~= actual then
	redis.call('HSET', KEYS[1], 'vote_count', actual)
end
return {stored, actual}
`)

// CandidateStore keeps candidates, vote logs and counts in Redis.
type CandidateStore struct {
	client *redis.Client
}

// NewCandidateStore constructs a Redis-backed candidate store.
func NewCandidateStore(client *redis.Client) *CandidateStore {
	return &CandidateStore{client: client}
}

func (s *CandidateStore) Create(ctx context.Context, c *models.Candidate) error {
	seq, err := s.client.Incr(ctx, candidateSeqKey).Result()
	if err != nil {
		return fmt.Errorf("allocate candidate seq: %w", err)
	}
	created, err := createCandidateScript.Run(ctx, s.client,
		[]string{candidateKey(c.ID), candidatesIndex},
		c.Name, c.Party, seq, formatTime(c.CreatedAt), formatTime(c.UpdatedAt), c.ID.String(),
	).Int()
	if err != nil {
		return fmt.Errorf("create candidate: %w", err)
	}
	if created == 0 {
		return sentinel.ErrConflict
	}
	c.Seq = seq
	return nil
}

// FindByID reads the hash and the log inside MULTI so both reflect the
// same point in time.
func (s *CandidateStore) FindByID(ctx context.Context, candidateID id.CandidateID) (*models.Candidate, error) {
	var (
		hash *redis.MapStringStringCmd
		log  *redis.StringSliceCmd
	)
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		hash = pipe.HGetAll(ctx, candidateKey(candidateID))
		log = pipe.LRange(ctx, candidateVotesKey(candidateID), 0, -1)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("find candidate: %w", err)
	}
	if len(hash.Val()) == 0 {
		return nil, sentinel.ErrNotFound
	}

	c, err := decodeCandidate(candidateID, hash.Val())
	if err != nil {
		return nil, err
	}
	for _, raw := range log.Val() {
		var entry models.VoteLogEntry
		if err := json.Unmarshal([]byte(raw), &entry); err != nil {
			return nil, fmt.Errorf("decode vote log entry: %w", err)
		}
		c.Votes = append(c.Votes, entry)
	}
	return c, nil
}

// List returns candidates in creation order without vote logs.
func (s *CandidateStore) List(ctx context.Context) ([]*models.Candidate, error) {
	ids, err := s.client.ZRange(ctx, candidatesIndex, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("list candidates: %w", err)
	}

	parsed := make([]id.CandidateID, len(ids))
	cmds := make([]*redis.MapStringStringCmd, len(ids))
	for i, raw := range ids {
		cid, err := id.ParseCandidateID(raw)
		if err != nil {
			return nil, fmt.Errorf("stored candidate id: %w", err)
		}
		parsed[i] = cid
	}
	_, err = s.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for i, cid := range parsed {
			cmds[i] = pipe.HGetAll(ctx, candidateKey(cid))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list candidates: %w", err)
	}

	out := make([]*models.Candidate, 0, len(ids))
	for i, cid := range parsed {
		fields := cmds[i].Val()
		if len(fields) == 0 {
			continue
		}
		c, err := decodeCandidate(cid, fields)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

func (s *CandidateStore) UpdateProfile(ctx context.Context, candidateID id.CandidateID, name, party string, at time.Time) (*models.Candidate, error) {
	updated, err := updateProfileScript.Run(ctx, s.client,
		[]string{candidateKey(candidateID)}, name, party, formatTime(at)).Int()
	if err != nil {
		return nil, fmt.Errorf("update candidate: %w", err)
	}
	if updated == 0 {
		return nil, sentinel.ErrNotFound
	}
	fields, err := s.client.HGetAll(ctx, candidateKey(candidateID)).Result()
	if err != nil {
		return nil, fmt.Errorf("update candidate: %w", err)
	}
	if len(fields) == 0 {
		return nil, sentinel.ErrNotFound
	}
	return decodeCandidate(candidateID, fields)
}

func (s *CandidateStore) Delete(ctx context.Context, candidateID id.CandidateID) error {
	res, err := deleteCandidateScript.Run(ctx, s.client,
		[]string{candidateKey(candidateID), candidateVotesKey(candidateID), candidateVotersKey(candidateID), candidatesIndex},
		candidateID.String()).Int()
	if err != nil {
		return fmt.Errorf("delete candidate: %w", err)
	}
	switch res {
	case -1:
		return sentinel.ErrNotFound
	case 0:
		return sentinel.ErrInvalidState
	}
	return nil
}

func (s *CandidateStore) AppendVote(ctx context.Context, candidateID id.CandidateID, entry models.VoteLogEntry) error {
	payload, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encode vote log entry: %w", err)
	}
	res, err := appendVoteScript.Run(ctx, s.client,
		[]string{candidateKey(candidateID), candidateVotesKey(candidateID), candidateVotersKey(candidateID)},
		entry.VoterID.String(), string(payload)).Int()
	if err != nil {
		return fmt.Errorf("append vote: %w", err)
	}
	switch res {
	case -1:
		return sentinel.ErrNotFound
	case 0:
		return sentinel.ErrAlreadyUsed
	}
	return nil
}

func (s *CandidateStore) RepairVoteCount(ctx context.Context, candidateID id.CandidateID) (int, int, error) {
	res, err := repairCountScript.Run(ctx, s.client,
		[]string{candidateKey(candidateID), candidateVotesKey(candidateID)}).Result()
	if err != nil {
		return 0, 0, fmt.Errorf("repair vote count: %w", err)
	}
	pair, ok := res.([]any)
	if !ok || len(pair) != 2 {
		return 0, 0, sentinel.ErrNotFound
	}
	stored, _ := pair[0].(int64)
	actual, _ := pair[1].(int64)
	return int(stored), int(actual), nil
}

func decodeCandidate(candidateID id.CandidateID, fields map[string]string) (*models.Candidate, error) {
	count, err := strconv.Atoi(fields["vote_count"])
	if err != nil {
		return nil, fmt.Errorf("stored vote count: %w", err)
	}
	seq, err := strconv.ParseInt(fields["seq"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("stored candidate seq: %w", err)
	}
	return &models.Candidate{
		ID:        candidateID,
		Name:      fields["name"],
		Party:     fields["party"],
		VoteCount: count,
		Seq:       seq,
		CreatedAt: parseTime(fields["created_at"]),
		UpdatedAt: parseTime(fields["updated_at"]),
	}, nil
}
