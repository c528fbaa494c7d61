package service_test

import (
	"strings"

	"evote/internal/voting/models"
	id "evote/pkg/domain"
	dErrors "evote/pkg/domain-errors"
	"evote/pkg/requestcontext"
)

func (s *VoteServiceSuite) TestCandidateRoster() {
	s.Run("create trims and lists in creation order", func() {
		a, err := s.service.CreateCandidate(s.ctx, "  Alice ", "Blue")
		s.Require().NoError(err)
		s.Equal("Alice", a.Name)
		s.Zero(a.VoteCount)
		b := s.addCandidate("Bob", "Red")

		all, err := s.service.ListCandidates(s.ctx)
		s.Require().NoError(err)
		s.Require().Len(all, 2)
		s.Equal(a.ID, all[0].ID)
		s.Equal(b, all[1].ID)
	})

	s.Run("create validates fields", func() {
		_, err := s.service.CreateCandidate(s.ctx, "", "Blue")
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))

		_, err = s.service.CreateCandidate(s.ctx, "Alice", strings.Repeat("x", models.MaxPartyLength+1))
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("update keeps votes", func() {
		c := s.addCandidate("Carol", "Green")
		s.Require().NoError(s.service.CastVote(s.ctx, s.addVoter(models.RoleVoter), c))

		updated, err := s.service.UpdateCandidate(s.ctx, c, "Caroline", "Teal")
		s.Require().NoError(err)
		s.Equal("Caroline", updated.Name)
		s.Equal("Teal", updated.Party)
		s.Equal(1, s.candidate(c).VoteCount)
		s.Len(s.candidate(c).Votes, 1)
	})

	s.Run("update validates and resolves", func() {
		_, err := s.service.UpdateCandidate(s.ctx, id.NewCandidateID(), "Name", "Party")
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))

		_, err = s.service.UpdateCandidate(s.ctx, id.NewCandidateID(), " ", "Party")
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("delete without votes", func() {
		c := s.addCandidate("Dan", "Orange")
		s.Require().NoError(s.service.DeleteCandidate(s.ctx, c))
		err := s.service.CastVote(s.ctx, s.addVoter(models.RoleVoter), c)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("delete with votes conflicts", func() {
		c := s.addCandidate("Eve", "Black")
		s.Require().NoError(s.service.CastVote(s.ctx, s.addVoter(models.RoleVoter), c))
		err := s.service.DeleteCandidate(s.ctx, c)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
		s.Equal(1, s.candidate(c).VoteCount)
	})

	s.Run("delete unknown", func() {
		err := s.service.DeleteCandidate(s.ctx, id.NewCandidateID())
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func (s *VoteServiceSuite) TestRosterChangesAreAudited() {
	admin := s.addVoter(models.RoleAdmin)
	ctx := requestcontext.WithVoterID(s.ctx, admin)

	c, err := s.service.CreateCandidate(ctx, "Alice", "Blue")
	s.Require().NoError(err)
	_, err = s.service.UpdateCandidate(ctx, c.ID, "Alicia", "Blue")
	s.Require().NoError(err)
	s.Require().NoError(s.service.DeleteCandidate(ctx, c.ID))

	events, err := s.auditStore.ListByVoter(ctx, admin)
	s.Require().NoError(err)
	s.Require().Len(events, 3)
	for _, e := range events {
		s.Equal(c.ID.String(), e.CandidateID)
	}
}
