//go:build integration

package redis_test

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"evote/internal/voting/models"
	"evote/internal/voting/service"
	redisstore "evote/internal/voting/store/redis"
	id "evote/pkg/domain"
	dErrors "evote/pkg/domain-errors"
	"evote/pkg/platform/sentinel"
	"evote/pkg/testutil/containers"
)

type RedisVotingStoreSuite struct {
	suite.Suite
	redis      *containers.RedisContainer
	voters     *redisstore.VoterStore
	candidates *redisstore.CandidateStore
	service    *service.Service
}

func TestRedisVotingStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisVotingStoreSuite))
}

func (s *RedisVotingStoreSuite) SetupSuite() {
	s.redis = containers.GetManager().GetRedis(s.T())
	s.voters = redisstore.NewVoterStore(s.redis.Client)
	s.candidates = redisstore.NewCandidateStore(s.redis.Client)

	var err error
	s.service, err = service.New(s.voters, s.candidates,
		service.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		service.WithVoteTx(redisstore.NewVoteTx(s.voters, s.candidates)),
	)
	s.Require().NoError(err)
}

func (s *RedisVotingStoreSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
}

func (s *RedisVotingStoreSuite) addVoter(role models.Role) id.VoterID {
	v, err := models.NewVoter(id.NewVoterID(), "voter", role, time.Now().UTC())
	s.Require().NoError(err)
	s.Require().NoError(s.voters.Save(context.Background(), v))
	return v.ID
}

func (s *RedisVotingStoreSuite) addCandidate(party string) *models.Candidate {
	c, err := models.NewCandidate(id.NewCandidateID(), "cand-"+party, party, time.Now().UTC())
	s.Require().NoError(err)
	s.Require().NoError(s.candidates.Create(context.Background(), c))
	return c
}

func (s *RedisVotingStoreSuite) TestVoterFlag() {
	ctx := context.Background()
	voterID := s.addVoter(models.RoleVoter)

	s.Require().NoError(s.voters.MarkVoted(ctx, voterID))
	s.ErrorIs(s.voters.MarkVoted(ctx, voterID), sentinel.ErrAlreadyUsed)
	s.ErrorIs(s.voters.MarkVoted(ctx, id.NewVoterID()), sentinel.ErrNotFound)

	v, err := s.voters.FindByID(ctx, voterID)
	s.Require().NoError(err)
	v.HasVoted = false
	s.Require().NoError(s.voters.Save(ctx, v))

	again, err := s.voters.FindByID(ctx, voterID)
	s.Require().NoError(err)
	s.True(again.HasVoted, "save must not clear the flag")

	all, err := s.voters.List(ctx)
	s.Require().NoError(err)
	s.Len(all, 1)
}

func (s *RedisVotingStoreSuite) TestCandidateRoster() {
	ctx := context.Background()
	a := s.addCandidate("Blue")
	b := s.addCandidate("Red")
	s.Less(a.Seq, b.Seq)

	dup := *a
	s.ErrorIs(s.candidates.Create(ctx, &dup), sentinel.ErrConflict)

	all, err := s.candidates.List(ctx)
	s.Require().NoError(err)
	s.Require().Len(all, 2)
	s.Equal(a.ID, all[0].ID)
	s.Equal(b.ID, all[1].ID)

	updated, err := s.candidates.UpdateProfile(ctx, a.ID, "Renamed", "Teal", time.Now().UTC())
	s.Require().NoError(err)
	s.Equal("Renamed", updated.Name)
	s.Equal(a.Seq, updated.Seq)

	s.Require().NoError(s.candidates.Delete(ctx, b.ID))
	s.ErrorIs(s.candidates.Delete(ctx, b.ID), sentinel.ErrNotFound)
	_, err = s.candidates.FindByID(ctx, b.ID)
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *RedisVotingStoreSuite) TestAppendVote() {
	ctx := context.Background()
	c := s.addCandidate("Blue")
	voterID := id.NewVoterID()
	entry := models.VoteLogEntry{VoterID: voterID, VotedAt: time.Now().UTC()}

	s.Require().NoError(s.candidates.AppendVote(ctx, c.ID, entry))
	s.ErrorIs(s.candidates.AppendVote(ctx, c.ID, entry), sentinel.ErrAlreadyUsed)
	s.ErrorIs(s.candidates.AppendVote(ctx, id.NewCandidateID(), entry), sentinel.ErrNotFound)

	got, err := s.candidates.FindByID(ctx, c.ID)
	s.Require().NoError(err)
	s.Equal(1, got.VoteCount)
	s.Require().Len(got.Votes, 1)
	s.Equal(voterID, got.Votes[0].VoterID)
	s.NoError(got.CheckConsistency())

	s.ErrorIs(s.candidates.Delete(ctx, c.ID), sentinel.ErrInvalidState)
}

func (s *RedisVotingStoreSuite) TestConcurrentSameVoter() {
	ctx := context.Background()
	voterID := s.addVoter(models.RoleVoter)
	c1 := s.addCandidate("Blue")
	c2 := s.addCandidate("Red")

	const goroutines = 20
	var wg sync.WaitGroup
	var successes, conflicts atomic.Int32
	for i := range goroutines {
		wg.Add(1)
		go func() {
			defer wg.Done()
			target := c1.ID
			if i%2 == 1 {
				target = c2.ID
			}
			err := s.service.CastVote(ctx, voterID, target)
			switch {
			case err == nil:
				successes.Add(1)
			case dErrors.HasCode(err, dErrors.CodeConflict):
				conflicts.Add(1)
			}
		}()
	}
	wg.Wait()

	s.Equal(int32(1), successes.Load())
	s.Equal(int32(goroutines-1), conflicts.Load())

	g1, _ := s.candidates.FindByID(ctx, c1.ID)
	g2, _ := s.candidates.FindByID(ctx, c2.ID)
	s.Equal(1, g1.VoteCount+g2.VoteCount)
}

func (s *RedisVotingStoreSuite) TestConcurrentDistinctVoters() {
	ctx := context.Background()
	c := s.addCandidate("Blue")
	const n = 50
	voters := make([]id.VoterID, n)
	for i := range voters {
		voters[i] = s.addVoter(models.RoleVoter)
	}

	var wg sync.WaitGroup
	for _, v := range voters {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.NoError(s.service.CastVote(ctx, v, c.ID))
		}()
	}
	wg.Wait()

	got, err := s.candidates.FindByID(ctx, c.ID)
	s.Require().NoError(err)
	s.Equal(n, got.VoteCount)
	s.Len(got.Votes, n)
}

func (s *RedisVotingStoreSuite) TestRepairVoteCount() {
	ctx := context.Background()
	c := s.addCandidate("Blue")
	s.Require().NoError(s.service.CastVote(ctx, s.addVoter(models.RoleVoter), c.ID))

	s.Require().NoError(s.redis.Client.HSet(ctx, "{evote}:candidate:"+c.ID.String(), "vote_count", 7).Err())

	stored, actual, err := s.candidates.RepairVoteCount(ctx, c.ID)
	s.Require().NoError(err)
	s.Equal(7, stored)
	s.Equal(1, actual)

	got, err := s.candidates.FindByID(ctx, c.ID)
	s.Require().NoError(err)
	s.NoError(got.CheckConsistency())

	_, _, err = s.candidates.RepairVoteCount(ctx, id.NewCandidateID())
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *RedisVotingStoreSuite) TestCastLeavesNoFlagWhenCandidateVanishes() {
	ctx := context.Background()
	voterID := s.addVoter(models.RoleVoter)
	doomed := s.addCandidate("Blue")
	tx := redisstore.NewVoteTx(s.voters, s.candidates)

	err := tx.RunInTx(ctx, voterID, func(ctx context.Context, stores service.TxStores) error {
		if err := stores.Voters.MarkVoted(ctx, voterID); err != nil {
			return err
		}
		s.Require().NoError(s.candidates.Delete(ctx, doomed.ID))
		return stores.Candidates.AppendVote(ctx, doomed.ID, models.VoteLogEntry{VoterID: voterID, VotedAt: time.Now().UTC()})
	})
	s.ErrorIs(err, sentinel.ErrNotFound)

	v, err := s.voters.FindByID(ctx, voterID)
	s.Require().NoError(err)
	s.False(v.HasVoted)

	live := s.addCandidate("Red")
	s.Require().NoError(s.service.CastVote(ctx, voterID, live.ID))
	found, err := s.candidates.FindByID(ctx, live.ID)
	s.Require().NoError(err)
	s.Equal(1, found.VoteCount)
	s.NoError(found.CheckConsistency())

	err = s.service.CastVote(ctx, voterID, live.ID)
	s.ErrorIs(err, dErrors.New(dErrors.CodeConflict, "You have already voted"))
}
