package models

import (
	"slices"
	"strings"

	id "evote/pkg/domain"
)

// TallyEntry is one line of the live results.
type TallyEntry struct {
	Party string `json:"party"`
	Count int    `json:"count"`
}

// BuildTally projects candidates to {party, count} sorted by count
// descending. Equal counts keep candidate creation order (Seq), then id.
func BuildTally(candidates []*Candidate) []TallyEntry {
	ordered := slices.Clone(candidates)
	slices.SortStableFunc(ordered, compareForTally)

	out := make([]TallyEntry, 0, len(ordered))
	for _, c := range ordered {
		out = append(out, TallyEntry{Party: c.Party, Count: c.VoteCount})
	}
	return out
}

// BuildPartyTally sums counts per party. Parties are ordered by total
// descending, ties by the earliest-created candidate of each party.
func BuildPartyTally(candidates []*Candidate) []TallyEntry {
	ordered := slices.Clone(candidates)
	slices.SortStableFunc(ordered, func(a, b *Candidate) int {
		return compareSeq(a, b)
	})

	totals := make(map[string]int)
	var parties []string
	for _, c := range ordered {
		if _, ok := totals[c.Party]; !ok {
			parties = append(parties, c.Party)
		}
		totals[c.Party] += c.VoteCount
	}

	out := make([]TallyEntry, 0, len(parties))
	for _, p := range parties {
		out = append(out, TallyEntry{Party: p, Count: totals[p]})
	}
	slices.SortStableFunc(out, func(a, b TallyEntry) int {
		return b.Count - a.Count
	})
	return out
}

func compareForTally(a, b *Candidate) int {
	if a.VoteCount != b.VoteCount {
		return b.VoteCount - a.VoteCount
	}
	return compareSeq(a, b)
}

func compareSeq(a, b *Candidate) int {
	switch {
	case a.Seq < b.Seq:
		return -1
	case a.Seq > b.Seq:
		return 1
	}
	return strings.Compare(a.ID.String(), b.ID.String())
}

// CountRepair records a vote count recomputed from the log.
type CountRepair struct {
	CandidateID id.CandidateID `json:"candidate_id"`
	Stored      int            `json:"stored"`
	Actual      int            `json:"actual"`
}

// ReconcileReport summarizes one repair pass.
type ReconcileReport struct {
	CandidatesChecked int           `json:"candidates_checked"`
	VotersChecked     int           `json:"voters_checked"`
	CountsRepaired    []CountRepair `json:"counts_repaired"`
	VotersFlagged     []id.VoterID  `json:"voters_flagged"`
	FlaggedNoVote     []id.VoterID  `json:"flagged_without_vote"`
	DuplicateVoters   []id.VoterID  `json:"duplicate_voters"`
	UnknownVoters     []id.VoterID  `json:"unknown_voters"`
}

// Clean reports whether the pass found nothing to repair or review.
func (r *ReconcileReport) Clean() bool {
	return len(r.CountsRepaired) == 0 &&
		len(r.VotersFlagged) == 0 &&
		len(r.FlaggedNoVote) == 0 &&
		len(r.DuplicateVoters) == 0 &&
		len(r.UnknownVoters) == 0
}
