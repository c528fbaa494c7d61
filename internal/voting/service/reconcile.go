package service

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"evote/internal/audit"
	"evote/internal/voting/models"
	id "evote/pkg/domain"
	dErrors "evote/pkg/domain-errors"
	"evote/pkg/platform/sentinel"
	"evote/pkg/requestcontext"
)

// Reconcile recomputes every vote count from its log and cross-checks
// voter flags against the logs.
//
// Repairs applied: drifted counts are reset to the log length, and voters
// present in a log but not flagged are flagged. Findings reported only:
// flagged voters absent from every log, voters in more than one log, and
// log entries for unknown voters. A flag is never cleared.
//
// Logs are read before voters, so a vote still in flight can show up as
// flagged without a vote; that finding is for review, not repair.
func (s *Service) Reconcile(ctx context.Context) (*models.ReconcileReport, error) {
	ctx, span := s.tracer.Start(ctx, "voting.Reconcile")
	defer span.End()

	report, err := s.reconcile(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(dErrors.CodeOf(err)))
		return nil, err
	}
	span.SetAttributes(
		attribute.Int("candidates_checked", report.CandidatesChecked),
		attribute.Int("counts_repaired", len(report.CountsRepaired)),
		attribute.Int("voters_flagged", len(report.VotersFlagged)),
	)
	return report, nil
}

func (s *Service) reconcile(ctx context.Context) (*models.ReconcileReport, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	candidates, err := s.candidates.List(ctx)
	if err != nil {
		return nil, storageError(err, "failed to list candidates")
	}

	report := &models.ReconcileReport{
		CountsRepaired:  []models.CountRepair{},
		VotersFlagged:   []id.VoterID{},
		FlaggedNoVote:   []id.VoterID{},
		DuplicateVoters: []id.VoterID{},
		UnknownVoters:   []id.VoterID{},
	}
	logsContaining := make(map[id.VoterID]int)
	var logOrder []id.VoterID

	for _, c := range candidates {
		stored, actual, err := s.candidates.RepairVoteCount(ctx, c.ID)
		if errors.Is(err, sentinel.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, storageError(err, "failed to repair vote count")
		}
		if stored != actual {
			report.CountsRepaired = append(report.CountsRepaired, models.CountRepair{
				CandidateID: c.ID, Stored: stored, Actual: actual,
			})
		}

		full, err := s.candidates.FindByID(ctx, c.ID)
		if errors.Is(err, sentinel.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, storageError(err, "failed to load vote log")
		}
		report.CandidatesChecked++
		for _, entry := range full.Votes {
			if logsContaining[entry.VoterID] == 0 {
				logOrder = append(logOrder, entry.VoterID)
			}
			logsContaining[entry.VoterID]++
		}
	}

	voters, err := s.voters.List(ctx)
	if err != nil {
		return nil, storageError(err, "failed to list voters")
	}
	report.VotersChecked = len(voters)
	known := make(map[id.VoterID]*models.Voter, len(voters))
	for _, v := range voters {
		known[v.ID] = v
		if v.HasVoted && logsContaining[v.ID] == 0 {
			report.FlaggedNoVote = append(report.FlaggedNoVote, v.ID)
		}
	}

	for _, voterID := range logOrder {
		if logsContaining[voterID] > 1 {
			report.DuplicateVoters = append(report.DuplicateVoters, voterID)
		}
		v, ok := known[voterID]
		if !ok {
			report.UnknownVoters = append(report.UnknownVoters, voterID)
			continue
		}
		if v.HasVoted {
			continue
		}
		err := s.voters.MarkVoted(ctx, voterID)
		switch {
		case err == nil:
			report.VotersFlagged = append(report.VotersFlagged, voterID)
		case errors.Is(err, sentinel.ErrAlreadyUsed):
		default:
			return nil, storageError(err, "failed to flag voter")
		}
	}

	s.recordReconcile(ctx, report)
	return report, nil
}

func (s *Service) recordReconcile(ctx context.Context, report *models.ReconcileReport) {
	if s.metrics != nil {
		s.metrics.AddRepairs("vote_count", len(report.CountsRepaired))
		s.metrics.AddRepairs("voter_flag", len(report.VotersFlagged))
	}

	attrs := []any{
		"candidates_checked", report.CandidatesChecked,
		"voters_checked", report.VotersChecked,
		"counts_repaired", len(report.CountsRepaired),
		"voters_flagged", len(report.VotersFlagged),
		"flagged_without_vote", len(report.FlaggedNoVote),
		"duplicate_voters", len(report.DuplicateVoters),
		"unknown_voters", len(report.UnknownVoters),
		"request_id", requestcontext.RequestID(ctx),
	}
	if report.Clean() {
		s.logger.InfoContext(ctx, "reconcile completed", attrs...)
	} else {
		s.logger.WarnContext(ctx, "reconcile found inconsistencies", append(attrs, "alert", true)...)
	}

	actor := requestcontext.VoterID(ctx)
	s.emit(ctx, audit.Event{Action: audit.ActionReconcileRun, VoterID: actor})
	for _, v := range report.FlaggedNoVote {
		s.emit(ctx, audit.Event{Action: audit.ActionReconcileFinding, VoterID: v, Reason: "flagged_without_vote"})
	}
	for _, v := range report.DuplicateVoters {
		s.emit(ctx, audit.Event{Action: audit.ActionReconcileFinding, VoterID: v, Reason: "duplicate_vote"})
	}
	for _, v := range report.VotersFlagged {
		s.emit(ctx, audit.Event{Action: audit.ActionReconcileFinding, VoterID: v, Reason: "flag_repaired"})
	}
}
