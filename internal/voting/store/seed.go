package store

import (
	"context"
	"fmt"
	"time"

	"evote/internal/voting/models"
	"evote/internal/voting/service"
	id "evote/pkg/domain"
)

// DemoRoster is the fixed candidate list created by SeedDemo.
var DemoRoster = []struct{ Name, Party string }{
	{"Alice Moreau", "Blue"},
	{"Bram Okafor", "Green"},
	{"Chen Wei", "Red"},
	{"Dana Ilves", "Green"},
}

// Demo holds the records SeedDemo created.
type Demo struct {
	Admin      *models.Voter
	Voters     []*models.Voter
	Candidates []*models.Candidate
}

// SeedDemo creates the demo roster, one admin and n voters in any backend.
func SeedDemo(ctx context.Context, voters service.VoterStore, candidates service.CandidateStore, n int, now time.Time) (*Demo, error) {
	demo := &Demo{}

	admin, err := models.NewVoter(id.NewVoterID(), "Election Admin", models.RoleAdmin, now)
	if err != nil {
		return nil, err
	}
	if err := voters.Save(ctx, admin); err != nil {
		return nil, fmt.Errorf("seed admin: %w", err)
	}
	demo.Admin = admin

	for i := range n {
		v, err := models.NewVoter(id.NewVoterID(), fmt.Sprintf("Demo Voter %d", i+1), models.RoleVoter, now)
		if err != nil {
			return nil, err
		}
		if err := voters.Save(ctx, v); err != nil {
			return nil, fmt.Errorf("seed voter: %w", err)
		}
		demo.Voters = append(demo.Voters, v)
	}

	for _, entry := range DemoRoster {
		c, err := models.NewCandidate(id.NewCandidateID(), entry.Name, entry.Party, now)
		if err != nil {
			return nil, err
		}
		if err := candidates.Create(ctx, c); err != nil {
			return nil, fmt.Errorf("seed candidate: %w", err)
		}
		demo.Candidates = append(demo.Candidates, c)
	}
	return demo, nil
}
