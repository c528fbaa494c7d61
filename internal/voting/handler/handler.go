// Package handler exposes the voting service over HTTP.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"evote/internal/audit"
	"evote/internal/voting/models"
	id "evote/pkg/domain"
	dErrors "evote/pkg/domain-errors"
	"evote/pkg/platform/httputil"
	adminmw "evote/pkg/platform/middleware/admin"
	authmw "evote/pkg/platform/middleware/auth"
	request "evote/pkg/platform/middleware/request"
	"evote/pkg/requestcontext"
)

// Service is the voting surface the handler depends on.
type Service interface {
	CastVote(ctx context.Context, voterID id.VoterID, candidateID id.CandidateID) error
	Tally(ctx context.Context) ([]models.TallyEntry, error)
	TallyByParty(ctx context.Context) ([]models.TallyEntry, error)
	GetVoter(ctx context.Context, voterID id.VoterID) (*models.Voter, error)
	IsAdmin(ctx context.Context, voterID id.VoterID) (bool, error)
	ListCandidates(ctx context.Context) ([]*models.Candidate, error)
	CreateCandidate(ctx context.Context, name, party string) (*models.Candidate, error)
	UpdateCandidate(ctx context.Context, candidateID id.CandidateID, name, party string) (*models.Candidate, error)
	DeleteCandidate(ctx context.Context, candidateID id.CandidateID) error
	Reconcile(ctx context.Context) (*models.ReconcileReport, error)
}

// AuditLog serves the retained audit trail to admins.
type AuditLog interface {
	ListRecent(ctx context.Context, limit int) ([]audit.Event, error)
}

const (
	defaultAuditLimit = 100
	maxAuditLimit     = 1000
)

// Handler serves the voting routes.
type Handler struct {
	service      Service
	auditLog     AuditLog
	logger       *slog.Logger
	jwtValidator authmw.JWTValidator
}

// Option configures a Handler.
type Option func(*Handler)

// WithAuditLog mounts GET /admin/audit backed by log.
func WithAuditLog(log AuditLog) Option {
	return func(h *Handler) {
		h.auditLog = log
	}
}

// New constructs the voting HTTP handler. jwtValidator authenticates the
// bearer token on voter and admin routes.
func New(service Service, logger *slog.Logger, jwtValidator authmw.JWTValidator, opts ...Option) *Handler {
	h := &Handler{
		service:      service,
		logger:       logger,
		jwtValidator: jwtValidator,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Register mounts public, voter and admin routes on r.
func (h *Handler) Register(r chi.Router) {
	r.Get("/candidates", h.handleListCandidates)
	r.Get("/candidates/vote/counts", h.handleVoteCounts)

	r.Group(func(r chi.Router) {
		r.Use(authmw.RequireAuth(h.jwtValidator, h.logger))
		r.Post("/candidates/vote/{candidateID}", h.handleCastVote)
		r.Get("/me", h.handleMe)

		r.Group(func(r chi.Router) {
			r.Use(adminmw.RequireAdmin(h.service, h.logger))
			r.Post("/candidates", h.handleCreateCandidate)
			r.Put("/candidates/{candidateID}", h.handleUpdateCandidate)
			r.Delete("/candidates/{candidateID}", h.handleDeleteCandidate)
			r.Post("/admin/reconcile", h.handleReconcile)
			if h.auditLog != nil {
				r.Get("/admin/audit", h.handleAuditLog)
			}
		})
	})
}

func (h *Handler) handleCastVote(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := request.GetRequestID(ctx)

	candidateID, ok := h.candidateIDParam(w, r)
	if !ok {
		return
	}
	voterID := requestcontext.VoterID(ctx)

	if err := h.service.CastVote(ctx, voterID, candidateID); err != nil {
		h.logger.InfoContext(ctx, "vote not recorded",
			"error", err,
			"voter_id", voterID,
			"candidate_id", candidateID,
			"request_id", requestID,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, messageResponse{Message: "Vote recorded successfully"})
}

// handleVoteCounts serves the live tally; ?group=party sums per party.
func (h *Handler) handleVoteCounts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var (
		tally []models.TallyEntry
		err   error
	)
	switch group := r.URL.Query().Get("group"); group {
	case "":
		tally, err = h.service.Tally(ctx)
	case "party":
		tally, err = h.service.TallyByParty(ctx)
	default:
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "unsupported group "+group))
		return
	}
	if err != nil {
		h.writeFailure(ctx, w, "failed to build tally", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, tally)
}

func (h *Handler) handleListCandidates(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	candidates, err := h.service.ListCandidates(ctx)
	if err != nil {
		h.writeFailure(ctx, w, "failed to list candidates", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toSummaries(candidates))
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	voter, err := h.service.GetVoter(ctx, requestcontext.VoterID(ctx))
	if err != nil {
		h.writeFailure(ctx, w, "failed to load caller", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toVoterResponse(voter))
}

func (h *Handler) handleCreateCandidate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := request.GetRequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[CandidateRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	c, err := h.service.CreateCandidate(ctx, req.Name, req.Party)
	if err != nil {
		h.writeFailure(ctx, w, "failed to create candidate", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toCandidateResponse(c))
}

func (h *Handler) handleUpdateCandidate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := request.GetRequestID(ctx)

	candidateID, ok := h.candidateIDParam(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[CandidateRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	c, err := h.service.UpdateCandidate(ctx, candidateID, req.Name, req.Party)
	if err != nil {
		h.writeFailure(ctx, w, "failed to update candidate", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toCandidateResponse(c))
}

func (h *Handler) handleDeleteCandidate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	candidateID, ok := h.candidateIDParam(w, r)
	if !ok {
		return
	}
	if err := h.service.DeleteCandidate(ctx, candidateID); err != nil {
		h.writeFailure(ctx, w, "failed to delete candidate", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, messageResponse{Message: "Candidate deleted"})
}

func (h *Handler) handleReconcile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	report, err := h.service.Reconcile(ctx)
	if err != nil {
		h.writeFailure(ctx, w, "reconcile failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, report)
}

// handleAuditLog returns the most recent audit events, oldest first.
// ?limit= defaults to 100 and is capped at 1000.
func (h *Handler) handleAuditLog(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	limit := defaultAuditLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "limit must be a positive integer"))
			return
		}
		limit = min(n, maxAuditLimit)
	}
	events, err := h.auditLog.ListRecent(ctx, limit)
	if err != nil {
		h.writeFailure(ctx, w, "failed to read audit log", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, events)
}

// candidateIDParam parses the route key. A malformed key is a 400, distinct
// from a well-formed key with no candidate.
func (h *Handler) candidateIDParam(w http.ResponseWriter, r *http.Request) (id.CandidateID, bool) {
	candidateID, err := id.ParseCandidateID(chi.URLParam(r, "candidateID"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid candidate id format"))
		return id.CandidateID{}, false
	}
	return candidateID, true
}

func (h *Handler) writeFailure(ctx context.Context, w http.ResponseWriter, msg string, err error) {
	level := slog.LevelWarn
	if httputil.ToHTTPStatus(dErrors.CodeOf(err)) >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	h.logger.Log(ctx, level, msg,
		"error", err,
		"request_id", request.GetRequestID(ctx),
	)
	httputil.WriteError(w, err)
}
