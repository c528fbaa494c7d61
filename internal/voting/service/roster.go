package service

import (
	"context"
	"errors"

	"evote/internal/audit"
	"evote/internal/voting/models"
	id "evote/pkg/domain"
	dErrors "evote/pkg/domain-errors"
	"evote/pkg/platform/sentinel"
	"evote/pkg/requestcontext"
)

// CreateCandidate adds a roster entry with zero votes.
func (s *Service) CreateCandidate(ctx context.Context, name, party string) (*models.Candidate, error) {
	candidate, err := models.NewCandidate(id.NewCandidateID(), name, party, requestcontext.Now(ctx))
	if err != nil {
		return nil, validationError(err)
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	if err := s.candidates.Create(ctx, candidate); err != nil {
		return nil, storageError(err, "failed to create candidate")
	}
	s.logRoster(ctx, audit.ActionCandidateCreated, candidate.ID)
	return candidate, nil
}

// UpdateCandidate changes name and party. Vote fields cannot be written.
func (s *Service) UpdateCandidate(ctx context.Context, candidateID id.CandidateID, name, party string) (*models.Candidate, error) {
	draft := &models.Candidate{}
	if err := draft.UpdateProfile(name, party, requestcontext.Now(ctx)); err != nil {
		return nil, validationError(err)
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	updated, err := s.candidates.UpdateProfile(ctx, candidateID, draft.Name, draft.Party, draft.UpdatedAt)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "Candidate not found")
		}
		return nil, storageError(err, "failed to update candidate")
	}
	s.logRoster(ctx, audit.ActionCandidateUpdated, candidateID)
	return updated, nil
}

// DeleteCandidate removes a candidate that holds no votes. Candidates with
// votes stay so every vote log entry keeps a live candidate.
func (s *Service) DeleteCandidate(ctx context.Context, candidateID id.CandidateID) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	if err := s.candidates.Delete(ctx, candidateID); err != nil {
		switch {
		case errors.Is(err, sentinel.ErrNotFound):
			return dErrors.New(dErrors.CodeNotFound, "Candidate not found")
		case errors.Is(err, sentinel.ErrInvalidState):
			return dErrors.New(dErrors.CodeConflict, "Candidate has recorded votes and cannot be deleted")
		default:
			return storageError(err, "failed to delete candidate")
		}
	}
	s.logRoster(ctx, audit.ActionCandidateDeleted, candidateID)
	return nil
}

// ListCandidates returns the roster in creation order.
func (s *Service) ListCandidates(ctx context.Context) ([]*models.Candidate, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	candidates, err := s.candidates.List(ctx)
	if err != nil {
		return nil, storageError(err, "failed to list candidates")
	}
	return candidates, nil
}

func (s *Service) logRoster(ctx context.Context, action audit.Action, candidateID id.CandidateID) {
	actor := requestcontext.VoterID(ctx)
	s.logger.InfoContext(ctx, string(action),
		"candidate_id", candidateID.String(),
		"actor_id", actor.String(),
		"request_id", requestcontext.RequestID(ctx),
		"log_type", "audit",
	)
	s.emit(ctx, audit.Event{
		Action:      action,
		VoterID:     actor,
		CandidateID: candidateID.String(),
	})
}

// validationError exposes a model invariant failure as a client error.
func validationError(err error) error {
	if de, ok := dErrors.As(err); ok && de.Code == dErrors.CodeInvariantViolation {
		return dErrors.New(dErrors.CodeValidation, de.Message)
	}
	return err
}
