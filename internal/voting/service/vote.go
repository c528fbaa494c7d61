package service

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"evote/internal/audit"
	votingmetrics "evote/internal/voting/metrics"
	"evote/internal/voting/models"
	id "evote/pkg/domain"
	dErrors "evote/pkg/domain-errors"
	"evote/pkg/platform/sentinel"
	"evote/pkg/requestcontext"
)

// partialWriteError marks a failure that happened after the voter flag
// was written inside RunInTx.
type partialWriteError struct {
	err error
}

func (e *partialWriteError) Error() string { return "candidate update failed after voter flag: " + e.err.Error() }
func (e *partialWriteError) Unwrap() error { return e.err }

// CastVote records voterID's single vote for candidateID.
//
// Preconditions are checked in order: candidate exists, voter exists,
// voter is not an admin, voter has not voted. The voter flag is then set
// with a compare-and-set and is the point at which a vote is taken; the
// candidate append and increment follow. On backends without rollback a
// failure between the two is reported as CodeInconsistent.
func (s *Service) CastVote(ctx context.Context, voterID id.VoterID, candidateID id.CandidateID) error {
	ctx, span := s.tracer.Start(ctx, "voting.CastVote")
	defer span.End()
	span.SetAttributes(
		attribute.String("voter_id", voterID.String()),
		attribute.String("candidate_id", candidateID.String()),
	)

	start := time.Now()
	defer s.observeCastVote(start)

	err := s.castVote(ctx, voterID, candidateID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(dErrors.CodeOf(err)))
	}
	return err
}

func (s *Service) castVote(ctx context.Context, voterID id.VoterID, candidateID id.CandidateID) error {
	if voterID.IsNil() {
		return dErrors.New(dErrors.CodeUnauthorized, "voter id required")
	}
	if candidateID.IsNil() {
		return dErrors.New(dErrors.CodeBadRequest, "candidate id required")
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	candidate, err := s.candidates.FindByID(ctx, candidateID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return s.reject(ctx, voterID, candidateID, votingmetrics.ReasonCandidateNotFound,
				dErrors.New(dErrors.CodeNotFound, "Candidate not found"))
		}
		return s.reject(ctx, voterID, candidateID, votingmetrics.ReasonUnavailable,
			storageError(err, "failed to load candidate"))
	}

	voter, err := s.voters.FindByID(ctx, voterID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return s.reject(ctx, voterID, candidateID, votingmetrics.ReasonVoterNotFound,
				dErrors.New(dErrors.CodeNotFound, "User not found"))
		}
		return s.reject(ctx, voterID, candidateID, votingmetrics.ReasonUnavailable,
			storageError(err, "failed to load voter"))
	}

	if err := voter.CanVote(); err != nil {
		reason := votingmetrics.ReasonAlreadyVoted
		if dErrors.HasCode(err, dErrors.CodeForbidden) {
			reason = votingmetrics.ReasonAdmin
		}
		return s.reject(ctx, voterID, candidateID, reason, err)
	}

	entry := models.VoteLogEntry{VoterID: voterID, VotedAt: requestcontext.Now(ctx)}
	err = s.tx.RunInTx(ctx, voterID, func(ctx context.Context, stores TxStores) error {
		if err := stores.Voters.MarkVoted(ctx, voterID); err != nil {
			return err
		}
		if err := stores.Candidates.AppendVote(ctx, candidate.ID, entry); err != nil {
			return &partialWriteError{err: err}
		}
		return nil
	})
	if err != nil {
		return s.castFailed(ctx, voterID, candidateID, err)
	}

	s.logger.InfoContext(ctx, "vote recorded",
		"voter_id", voterID.String(),
		"candidate_id", candidateID.String(),
		"request_id", requestcontext.RequestID(ctx),
	)
	s.emit(ctx, audit.Event{
		Action:      audit.ActionVoteCast,
		VoterID:     voterID,
		CandidateID: candidateID.String(),
	})
	if s.metrics != nil {
		s.metrics.IncrementVotesCast()
	}
	return nil
}

// castFailed translates a RunInTx failure.
func (s *Service) castFailed(ctx context.Context, voterID id.VoterID, candidateID id.CandidateID, err error) error {
	var partial *partialWriteError
	isPartial := errors.As(err, &partial)

	if isPartial && !s.tx.Atomic() {
		return s.inconsistent(ctx, voterID, candidateID, partial.err)
	}

	switch {
	case errors.Is(err, sentinel.ErrAlreadyUsed):
		// Lost the race against a concurrent cast by the same voter.
		return s.reject(ctx, voterID, candidateID, votingmetrics.ReasonAlreadyVoted,
			dErrors.New(dErrors.CodeConflict, "You have already voted"))
	case errors.Is(err, sentinel.ErrNotFound) && isPartial:
		return s.reject(ctx, voterID, candidateID, votingmetrics.ReasonCandidateNotFound,
			dErrors.New(dErrors.CodeNotFound, "Candidate not found"))
	case errors.Is(err, sentinel.ErrNotFound):
		return s.reject(ctx, voterID, candidateID, votingmetrics.ReasonVoterNotFound,
			dErrors.New(dErrors.CodeNotFound, "User not found"))
	default:
		return s.reject(ctx, voterID, candidateID, votingmetrics.ReasonUnavailable,
			storageError(err, "failed to record vote"))
	}
}

// inconsistent handles the flagged-but-not-counted state. It is never
// retried here; Reconcile reports the voter for review.
func (s *Service) inconsistent(ctx context.Context, voterID id.VoterID, candidateID id.CandidateID, cause error) error {
	s.logger.ErrorContext(ctx, "vote state inconsistent: voter flagged without counted vote",
		"alert", true,
		"voter_id", voterID.String(),
		"candidate_id", candidateID.String(),
		"request_id", requestcontext.RequestID(ctx),
		"error", cause,
	)
	s.emit(ctx, audit.Event{
		Action:      audit.ActionVoteInconsistent,
		VoterID:     voterID,
		CandidateID: candidateID.String(),
		Reason:      cause.Error(),
	})
	if s.metrics != nil {
		s.metrics.IncrementInconsistency()
		s.metrics.IncrementRejected(votingmetrics.ReasonInconsistent)
	}
	return dErrors.Wrap(cause, dErrors.CodeInconsistent, "vote could not be completed; voting state requires review")
}

func (s *Service) reject(ctx context.Context, voterID id.VoterID, candidateID id.CandidateID, reason string, err error) error {
	level := s.logger.InfoContext
	if reason == votingmetrics.ReasonUnavailable {
		level = s.logger.WarnContext
	}
	level(ctx, "vote rejected",
		"voter_id", voterID.String(),
		"candidate_id", candidateID.String(),
		"reason", reason,
		"request_id", requestcontext.RequestID(ctx),
		"error", err,
	)
	if reason != votingmetrics.ReasonUnavailable {
		s.emit(ctx, audit.Event{
			Action:      audit.ActionVoteRejected,
			VoterID:     voterID,
			CandidateID: candidateID.String(),
			Reason:      reason,
		})
	}
	if s.metrics != nil {
		s.metrics.IncrementRejected(reason)
	}
	return err
}

func (s *Service) observeCastVote(start time.Time) {
	if s.metrics != nil {
		s.metrics.ObserveCastVote(start)
	}
}

// Tally returns {party, count} per candidate, highest count first. Each
// entry reflects only committed votes.
func (s *Service) Tally(ctx context.Context) ([]models.TallyEntry, error) {
	candidates, err := s.tallySource(ctx, "voting.Tally")
	if err != nil {
		return nil, err
	}
	return models.BuildTally(candidates), nil
}

// TallyByParty sums the tally per party.
func (s *Service) TallyByParty(ctx context.Context) ([]models.TallyEntry, error) {
	candidates, err := s.tallySource(ctx, "voting.TallyByParty")
	if err != nil {
		return nil, err
	}
	return models.BuildPartyTally(candidates), nil
}

func (s *Service) tallySource(ctx context.Context, spanName string) ([]*models.Candidate, error) {
	ctx, span := s.tracer.Start(ctx, spanName)
	defer span.End()
	if s.metrics != nil {
		defer s.metrics.ObserveTally(time.Now())
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	candidates, err := s.candidates.List(ctx)
	if err != nil {
		err = storageError(err, "failed to load tally")
		span.RecordError(err)
		span.SetStatus(codes.Error, string(dErrors.CodeOf(err)))
		return nil, err
	}
	span.SetAttributes(attribute.Int("candidates", len(candidates)))
	return candidates, nil
}
