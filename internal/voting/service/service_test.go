package service_test

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"

	"evote/internal/audit"
	votingmetrics "evote/internal/voting/metrics"
	"evote/internal/voting/models"
	"evote/internal/voting/service"
	"evote/internal/voting/store/memory"
	id "evote/pkg/domain"
	dErrors "evote/pkg/domain-errors"
	"evote/pkg/requestcontext"
)

// VoteServiceSuite runs the voting rules against the in-memory backend.
type VoteServiceSuite struct {
	suite.Suite
	ctx        context.Context
	voters     *memory.VoterStore
	candidates *memory.CandidateStore
	auditStore *audit.InMemoryStore
	metrics    *votingmetrics.Metrics
	service    *service.Service
}

func TestVoteServiceSuite(t *testing.T) {
	suite.Run(t, new(VoteServiceSuite))
}

func (s *VoteServiceSuite) SetupTest() {
	s.ctx = requestcontext.WithRequestID(context.Background(), "test-request")
	s.voters = memory.NewVoterStore()
	s.candidates = memory.NewCandidateStore()
	s.auditStore = audit.NewInMemoryStore()
	s.metrics = votingmetrics.New(prometheus.NewRegistry())

	var err error
	s.service, err = service.New(s.voters, s.candidates,
		service.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		service.WithAuditPublisher(audit.NewPublisher(s.auditStore)),
		service.WithMetrics(s.metrics),
		service.WithStoreTimeout(time.Second),
		service.WithVoteTx(memory.NewVoteTx(s.voters, s.candidates)),
	)
	s.Require().NoError(err)
}

func (s *VoteServiceSuite) addVoter(role models.Role) id.VoterID {
	v, err := models.NewVoter(id.NewVoterID(), "voter", role, time.Now())
	s.Require().NoError(err)
	s.Require().NoError(s.voters.Save(s.ctx, v))
	return v.ID
}

func (s *VoteServiceSuite) addCandidate(name, party string) id.CandidateID {
	c, err := s.service.CreateCandidate(s.ctx, name, party)
	s.Require().NoError(err)
	return c.ID
}

func (s *VoteServiceSuite) candidate(candidateID id.CandidateID) *models.Candidate {
	c, err := s.candidates.FindByID(s.ctx, candidateID)
	s.Require().NoError(err)
	return c
}

func (s *VoteServiceSuite) voter(voterID id.VoterID) *models.Voter {
	v, err := s.voters.FindByID(s.ctx, voterID)
	s.Require().NoError(err)
	return v
}

func (s *VoteServiceSuite) TestNewRequiresStores() {
	_, err := service.New(nil, s.candidates)
	s.Error(err)
	_, err = service.New(s.voters, nil)
	s.Error(err)
}

func (s *VoteServiceSuite) TestSingleVoterVotesOnce() {
	v1 := s.addVoter(models.RoleVoter)
	c1 := s.addCandidate("Alice", "Blue")
	c2 := s.addCandidate("Bob", "Red")

	s.Require().NoError(s.service.CastVote(s.ctx, v1, c1))

	got := s.candidate(c1)
	s.Equal(1, got.VoteCount)
	s.Require().Len(got.Votes, 1)
	s.Equal(v1, got.Votes[0].VoterID)
	s.True(s.voter(v1).HasVoted)

	err := s.service.CastVote(s.ctx, v1, c2)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))

	other := s.candidate(c2)
	s.Zero(other.VoteCount)
	s.Empty(other.Votes)
	s.Equal(1, s.candidate(c1).VoteCount)

	s.Equal(1.0, testutil.ToFloat64(s.metrics.VotesCast))
	s.Equal(1.0, testutil.ToFloat64(s.metrics.VotesRejected.WithLabelValues(votingmetrics.ReasonAlreadyVoted)))
}

func (s *VoteServiceSuite) TestDistinctVotersConcurrently() {
	c1 := s.addCandidate("Alice", "Blue")
	const n = 50
	voters := make([]id.VoterID, n)
	for i := range voters {
		voters[i] = s.addVoter(models.RoleVoter)
	}

	var wg sync.WaitGroup
	var failures atomic.Int32
	for _, v := range voters {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := s.service.CastVote(s.ctx, v, c1); err != nil {
				failures.Add(1)
			}
		}()
	}
	wg.Wait()

	s.Zero(failures.Load())
	got := s.candidate(c1)
	s.Equal(n, got.VoteCount)
	s.Len(got.Votes, n)
	s.NoError(got.CheckConsistency())
	for _, v := range voters {
		s.True(s.voter(v).HasVoted)
	}
}

func (s *VoteServiceSuite) TestSameVoterRacesAcrossCandidates() {
	v1 := s.addVoter(models.RoleVoter)
	candidates := []id.CandidateID{
		s.addCandidate("A", "Blue"),
		s.addCandidate("B", "Red"),
		s.addCandidate("C", "Green"),
	}

	const attempts = 30
	var wg sync.WaitGroup
	var successes, conflicts, other atomic.Int32
	for i := range attempts {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.service.CastVote(s.ctx, v1, candidates[i%len(candidates)])
			switch {
			case err == nil:
				successes.Add(1)
			case dErrors.HasCode(err, dErrors.CodeConflict):
				conflicts.Add(1)
			default:
				other.Add(1)
			}
		}()
	}
	wg.Wait()

	s.Equal(int32(1), successes.Load())
	s.Equal(int32(attempts-1), conflicts.Load())
	s.Zero(other.Load())

	total := 0
	for _, c := range candidates {
		got := s.candidate(c)
		s.NoError(got.CheckConsistency())
		total += got.VoteCount
	}
	s.Equal(1, total)
}

func (s *VoteServiceSuite) TestUnknownCandidate() {
	v1 := s.addVoter(models.RoleVoter)
	existing := s.addCandidate("Alice", "Blue")

	err := s.service.CastVote(s.ctx, v1, id.NewCandidateID())
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	s.False(s.voter(v1).HasVoted)
	s.Zero(s.candidate(existing).VoteCount)
}

// deletingCandidates removes the candidate right after the service has
// looked it up, the way a concurrent admin Delete would.
type deletingCandidates struct {
	service.CandidateStore
	deleted atomic.Bool
}

func (d *deletingCandidates) FindByID(ctx context.Context, candidateID id.CandidateID) (*models.Candidate, error) {
	c, err := d.CandidateStore.FindByID(ctx, candidateID)
	if err == nil && d.deleted.CompareAndSwap(false, true) {
		if delErr := d.CandidateStore.Delete(ctx, candidateID); delErr != nil {
			return nil, delErr
		}
	}
	return c, err
}

func (s *VoteServiceSuite) TestCandidateDeletedDuringCast() {
	v1 := s.addVoter(models.RoleVoter)
	doomed := s.addCandidate("Alice", "Blue")
	live := s.addCandidate("Bob", "Red")

	svc, err := service.New(s.voters, &deletingCandidates{CandidateStore: s.candidates},
		service.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		service.WithVoteTx(memory.NewVoteTx(s.voters, s.candidates)),
	)
	s.Require().NoError(err)

	err = svc.CastVote(s.ctx, v1, doomed)
	s.ErrorIs(err, dErrors.New(dErrors.CodeNotFound, "Candidate not found"))
	s.False(dErrors.HasCode(err, dErrors.CodeInconsistent))
	s.False(s.voter(v1).HasVoted)

	s.Require().NoError(s.service.CastVote(s.ctx, v1, live))
	s.True(s.voter(v1).HasVoted)
	s.Equal(1, s.candidate(live).VoteCount)
}

func (s *VoteServiceSuite) TestUnknownVoter() {
	c1 := s.addCandidate("Alice", "Blue")

	err := s.service.CastVote(s.ctx, id.NewVoterID(), c1)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	s.ErrorIs(err, dErrors.New(dErrors.CodeNotFound, "User not found"))
	s.Zero(s.candidate(c1).VoteCount)
}

func (s *VoteServiceSuite) TestAdminCannotVote() {
	admin := s.addVoter(models.RoleAdmin)
	c1 := s.addCandidate("Alice", "Blue")

	err := s.service.CastVote(s.ctx, admin, c1)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	s.False(s.voter(admin).HasVoted)
	s.Zero(s.candidate(c1).VoteCount)
}

func (s *VoteServiceSuite) TestPreconditionOrder() {
	s.Run("missing candidate is reported before a missing voter", func() {
		err := s.service.CastVote(s.ctx, id.NewVoterID(), id.NewCandidateID())
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
		s.ErrorIs(err, dErrors.New(dErrors.CodeNotFound, "Candidate not found"))
	})

	s.Run("missing candidate is reported before admin role", func() {
		admin := s.addVoter(models.RoleAdmin)
		err := s.service.CastVote(s.ctx, admin, id.NewCandidateID())
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("admin role is reported before already voted", func() {
		admin := s.addVoter(models.RoleAdmin)
		s.Require().NoError(s.voters.MarkVoted(s.ctx, admin))
		c1 := s.addCandidate("Alice", "Blue")
		err := s.service.CastVote(s.ctx, admin, c1)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})
}

func (s *VoteServiceSuite) TestCastVoteValidatesIDs() {
	err := s.service.CastVote(s.ctx, id.VoterID{}, id.NewCandidateID())
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))

	err = s.service.CastVote(s.ctx, id.NewVoterID(), id.CandidateID{})
	s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
}

func (s *VoteServiceSuite) TestCastVoteEmitsAudit() {
	v1 := s.addVoter(models.RoleVoter)
	c1 := s.addCandidate("Alice", "Blue")
	s.Require().NoError(s.service.CastVote(s.ctx, v1, c1))
	_ = s.service.CastVote(s.ctx, v1, c1)

	events, err := s.auditStore.ListByVoter(s.ctx, v1)
	s.Require().NoError(err)
	s.Require().Len(events, 2)
	s.Equal(audit.ActionVoteCast, events[0].Action)
	s.Equal(c1.String(), events[0].CandidateID)
	s.Equal("test-request", events[0].RequestID)
	s.Equal(audit.ActionVoteRejected, events[1].Action)
	s.Equal(audit.CategorySecurity, events[1].Category)
}

func (s *VoteServiceSuite) TestTally() {
	s.Run("empty roster", func() {
		tally, err := s.service.Tally(s.ctx)
		s.Require().NoError(err)
		s.Empty(tally)
	})

	s.Run("sorted by count with creation order on ties", func() {
		blue := s.addCandidate("Alice", "Blue")
		red := s.addCandidate("Bob", "Red")
		s.addCandidate("Carol", "Green")

		for range 2 {
			s.Require().NoError(s.service.CastVote(s.ctx, s.addVoter(models.RoleVoter), red))
		}
		s.Require().NoError(s.service.CastVote(s.ctx, s.addVoter(models.RoleVoter), blue))

		tally, err := s.service.Tally(s.ctx)
		s.Require().NoError(err)
		s.Equal([]models.TallyEntry{
			{Party: "Red", Count: 2},
			{Party: "Blue", Count: 1},
			{Party: "Green", Count: 0},
		}, tally)
	})

	s.Run("counts per party", func() {
		s.addCandidate("Dave", "Blue")
		tally, err := s.service.TallyByParty(s.ctx)
		s.Require().NoError(err)
		s.Equal([]models.TallyEntry{
			{Party: "Red", Count: 2},
			{Party: "Blue", Count: 1},
			{Party: "Green", Count: 0},
		}, tally)
	})
}

func (s *VoteServiceSuite) TestTallyReflectsSucceededCasts() {
	candidates := []id.CandidateID{s.addCandidate("A", "Blue"), s.addCandidate("B", "Red")}
	admin := s.addVoter(models.RoleAdmin)

	succeeded := 0
	for i := range 10 {
		v := s.addVoter(models.RoleVoter)
		if s.service.CastVote(s.ctx, v, candidates[i%2]) == nil {
			succeeded++
		}
		_ = s.service.CastVote(s.ctx, v, candidates[(i+1)%2])
		_ = s.service.CastVote(s.ctx, admin, candidates[0])
	}

	tally, err := s.service.Tally(s.ctx)
	s.Require().NoError(err)
	sum := 0
	for _, e := range tally {
		sum += e.Count
	}
	s.Equal(succeeded, sum)
	s.Equal(10, sum)
}

func (s *VoteServiceSuite) TestVoterLookups() {
	v1 := s.addVoter(models.RoleVoter)
	admin := s.addVoter(models.RoleAdmin)

	got, err := s.service.GetVoter(s.ctx, v1)
	s.Require().NoError(err)
	s.Equal(models.RoleVoter, got.Role)

	_, err = s.service.GetVoter(s.ctx, id.NewVoterID())
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))

	isAdmin, err := s.service.IsAdmin(s.ctx, admin)
	s.Require().NoError(err)
	s.True(isAdmin)

	isAdmin, err = s.service.IsAdmin(s.ctx, v1)
	s.Require().NoError(err)
	s.False(isAdmin)

	isAdmin, err = s.service.IsAdmin(s.ctx, id.NewVoterID())
	s.Require().NoError(err)
	s.False(isAdmin)
}
