package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"evote/internal/voting/models"
	id "evote/pkg/domain"
	"evote/pkg/platform/sentinel"
)

const maxMarkVotedRetries = 3

// saveVoterScript writes profile fields and never lowers has_voted.
var saveVoterScript = redis.NewScript(`
redis.call('HSET', KEYS[1], 'name', ARGV[1], 'role', ARGV[2], 'created_at', ARGV[3])
if ARGV[4] == '1' then
	redis.call('HSET', KEYS[1], 'has_voted', '1')
else
	redis.call('HSETNX', KEYS[1], 'has_voted', '0')
end
redis.call('ZADD', KEYS[2], 'NX', ARGV[5], ARGV[6])
return 1
`)

// VoterStore keeps voter records in Redis hashes.
type VoterStore struct {
	client *redis.Client
}

// NewVoterStore constructs a Redis-backed voter store.
func NewVoterStore(client *redis.Client) *VoterStore {
	return &VoterStore{client: client}
}

func (s *VoterStore) Save(ctx context.Context, voter *models.Voter) error {
	hasVoted := "0"
	if voter.HasVoted {
		hasVoted = "1"
	}
	err := saveVoterScript.Run(ctx, s.client,
		[]string{voterKey(voter.ID), votersIndexKey},
		voter.Name, string(voter.Role), formatTime(voter.CreatedAt), hasVoted,
		voter.CreatedAt.UnixNano(), voter.ID.String(),
	).Err()
	if err != nil {
		return fmt.Errorf("save voter: %w", err)
	}
	return nil
}

func (s *VoterStore) FindByID(ctx context.Context, voterID id.VoterID) (*models.Voter, error) {
	fields, err := s.client.HGetAll(ctx, voterKey(voterID)).Result()
	if err != nil {
		return nil, fmt.Errorf("find voter: %w", err)
	}
	if len(fields) == 0 {
		return nil, sentinel.ErrNotFound
	}
	return decodeVoter(voterID, fields)
}

// List returns voters in registration order.
func (s *VoterStore) List(ctx context.Context) ([]*models.Voter, error) {
	ids, err := s.client.ZRange(ctx, votersIndexKey, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("list voters: %w", err)
	}

	cmds := make([]*redis.MapStringStringCmd, len(ids))
	_, err = s.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for i, raw := range ids {
			cmds[i] = pipe.HGetAll(ctx, keyPrefix+"voter:"+raw)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list voters: %w", err)
	}

	out := make([]*models.Voter, 0, len(ids))
	for i, raw := range ids {
		fields := cmds[i].Val()
		if len(fields) == 0 {
			continue
		}
		voterID, err := id.ParseVoterID(raw)
		if err != nil {
			return nil, fmt.Errorf("stored voter id: %w", err)
		}
		v, err := decodeVoter(voterID, fields)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// MarkVoted sets has_voted under WATCH. A concurrent write to the voter
// aborts the transaction and the check is repeated.
func (s *VoterStore) MarkVoted(ctx context.Context, voterID id.VoterID) error {
	key := voterKey(voterID)
	for range maxMarkVotedRetries {
		err := s.client.Watch(ctx, func(tx *redis.Tx) error {
			state, err := tx.HGet(ctx, key, "has_voted").Result()
			if errors.Is(err, redis.Nil) {
				return sentinel.ErrNotFound
			}
			if err != nil {
				return err
			}
			if state == "1" {
				return sentinel.ErrAlreadyUsed
			}
			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.HSet(ctx, key, "has_voted", "1")
				return nil
			})
			return err
		}, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil && !errors.Is(err, sentinel.ErrNotFound) && !errors.Is(err, sentinel.ErrAlreadyUsed) {
			return fmt.Errorf("mark voted: %w", err)
		}
		return err
	}
	return fmt.Errorf("mark voted: %w", redis.TxFailedErr)
}

func decodeVoter(voterID id.VoterID, fields map[string]string) (*models.Voter, error) {
	role, err := models.ParseRole(fields["role"])
	if err != nil {
		return nil, fmt.Errorf("stored voter role: %w", err)
	}
	return &models.Voter{
		ID:        voterID,
		Name:      fields["name"],
		Role:      role,
		HasVoted:  fields["has_voted"] == "1",
		CreatedAt: parseTime(fields["created_at"]),
	}, nil
}
