package handler

import (
	"time"

	"evote/internal/voting/models"
	id "evote/pkg/domain"
)

type messageResponse struct {
	Message string `json:"message"`
}

// CandidateSummary is the public roster view.
type CandidateSummary struct {
	ID    id.CandidateID `json:"id"`
	Name  string         `json:"name"`
	Party string         `json:"party"`
}

// CandidateResponse is returned to admins after roster changes.
type CandidateResponse struct {
	ID        id.CandidateID `json:"id"`
	Name      string         `json:"name"`
	Party     string         `json:"party"`
	VoteCount int            `json:"vote_count"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// VoterResponse is the caller's own record.
type VoterResponse struct {
	ID       id.VoterID  `json:"id"`
	Name     string      `json:"name"`
	Role     models.Role `json:"role"`
	HasVoted bool        `json:"has_voted"`
}

func toSummaries(candidates []*models.Candidate) []CandidateSummary {
	out := make([]CandidateSummary, 0, len(candidates))
	for _, c := range candidates {
		out = append(out, CandidateSummary{ID: c.ID, Name: c.Name, Party: c.Party})
	}
	return out
}

func toCandidateResponse(c *models.Candidate) CandidateResponse {
	return CandidateResponse{
		ID:        c.ID,
		Name:      c.Name,
		Party:     c.Party,
		VoteCount: c.VoteCount,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

func toVoterResponse(v *models.Voter) VoterResponse {
	return VoterResponse{ID: v.ID, Name: v.Name, Role: v.Role, HasVoted: v.HasVoted}
}
