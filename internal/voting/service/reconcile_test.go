package service_test

import (
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"evote/internal/voting/models"
	id "evote/pkg/domain"
)

func (s *VoteServiceSuite) TestReconcileCleanState() {
	c1 := s.addCandidate("Alice", "Blue")
	for range 3 {
		s.Require().NoError(s.service.CastVote(s.ctx, s.addVoter(models.RoleVoter), c1))
	}
	s.addVoter(models.RoleVoter)

	report, err := s.service.Reconcile(s.ctx)
	s.Require().NoError(err)
	s.True(report.Clean())
	s.Equal(1, report.CandidatesChecked)
	s.Equal(4, report.VotersChecked)
	s.NotNil(report.CountsRepaired)
}

func (s *VoteServiceSuite) TestReconcileRepairsCountDrift() {
	v := s.addVoter(models.RoleVoter)
	s.Require().NoError(s.voters.MarkVoted(s.ctx, v))
	c1 := s.restoreCandidate("Alice", "Blue", 5, models.VoteLogEntry{VoterID: v, VotedAt: time.Now()})

	report, err := s.service.Reconcile(s.ctx)
	s.Require().NoError(err)
	s.Equal([]models.CountRepair{{CandidateID: c1, Stored: 5, Actual: 1}}, report.CountsRepaired)
	s.Equal(1, s.candidate(c1).VoteCount)
	s.Equal(1.0, testutil.ToFloat64(s.metrics.RepairsApplied.WithLabelValues("vote_count")))

	again, err := s.service.Reconcile(s.ctx)
	s.Require().NoError(err)
	s.True(again.Clean())
}

func (s *VoteServiceSuite) TestReconcileFlagsLoggedVoters() {
	v := s.addVoter(models.RoleVoter)
	s.restoreCandidate("Alice", "Blue", 1, models.VoteLogEntry{VoterID: v, VotedAt: time.Now()})

	report, err := s.service.Reconcile(s.ctx)
	s.Require().NoError(err)
	s.Equal([]id.VoterID{v}, report.VotersFlagged)
	s.True(s.voter(v).HasVoted)
}

func (s *VoteServiceSuite) TestReconcileReportsWithoutUnvoting() {
	c1 := s.addCandidate("Alice", "Blue")

	flaggedOnly := s.addVoter(models.RoleVoter)
	s.Require().NoError(s.voters.MarkVoted(s.ctx, flaggedOnly))

	twice := s.addVoter(models.RoleVoter)
	s.Require().NoError(s.service.CastVote(s.ctx, twice, c1))

	ghost := id.NewVoterID()
	c2 := s.restoreCandidate("Bob", "Red", 2,
		models.VoteLogEntry{VoterID: twice},
		models.VoteLogEntry{VoterID: ghost},
	)

	report, err := s.service.Reconcile(s.ctx)
	s.Require().NoError(err)
	s.False(report.Clean())
	s.Equal([]id.VoterID{flaggedOnly}, report.FlaggedNoVote)
	s.Equal([]id.VoterID{twice}, report.DuplicateVoters)
	s.Equal([]id.VoterID{ghost}, report.UnknownVoters)
	s.Empty(report.CountsRepaired)

	s.True(s.voter(flaggedOnly).HasVoted, "flags are never cleared")
	s.Equal(1, s.candidate(c1).VoteCount)
	s.Equal(2, s.candidate(c2).VoteCount)
}

// restoreCandidate stores a candidate as a snapshot restore would, with the
// given stored count and vote log taken as-is.
func (s *VoteServiceSuite) restoreCandidate(name, party string, count int, votes ...models.VoteLogEntry) id.CandidateID {
	c, err := models.NewCandidate(id.NewCandidateID(), name, party, time.Now())
	s.Require().NoError(err)
	c.Votes = votes
	c.VoteCount = count
	s.Require().NoError(s.candidates.Create(s.ctx, c))
	return c.ID
}
