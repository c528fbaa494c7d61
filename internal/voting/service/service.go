package service

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks VoterStore,CandidateStore,VoteTx,AuditPublisher

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"evote/internal/audit"
	"evote/internal/voting/metrics"
	"evote/internal/voting/models"
	id "evote/pkg/domain"
	dErrors "evote/pkg/domain-errors"
	"evote/pkg/platform/sentinel"
)

// VoterStore persists voter records. MarkVoted is the per-voter
// compare-and-set: it fails with sentinel.ErrAlreadyUsed when the flag is
// already set and sentinel.ErrNotFound when the voter does not exist.
type VoterStore interface {
	Save(ctx context.Context, voter *models.Voter) error
	FindByID(ctx context.Context, voterID id.VoterID) (*models.Voter, error)
	List(ctx context.Context) ([]*models.Voter, error)
	MarkVoted(ctx context.Context, voterID id.VoterID) error
}

// CandidateStore persists candidate records. FindByID returns the vote log;
// List returns candidates in creation order without logs.
// AppendVote must apply the log append and the count increment together,
// failing with sentinel.ErrAlreadyUsed if the voter is already in the log.
// RepairVoteCount atomically resets the count to the log length.
type CandidateStore interface {
	Create(ctx context.Context, candidate *models.Candidate) error
	FindByID(ctx context.Context, candidateID id.CandidateID) (*models.Candidate, error)
	List(ctx context.Context) ([]*models.Candidate, error)
	UpdateProfile(ctx context.Context, candidateID id.CandidateID, name, party string, at time.Time) (*models.Candidate, error)
	Delete(ctx context.Context, candidateID id.CandidateID) error
	AppendVote(ctx context.Context, candidateID id.CandidateID, entry models.VoteLogEntry) error
	RepairVoteCount(ctx context.Context, candidateID id.CandidateID) (stored, actual int, err error)
}

// TxStores are the stores valid inside a RunInTx callback.
type TxStores struct {
	Voters     VoterStore
	Candidates CandidateStore
}

// VoteTx runs the cast-vote mutations as one unit.
//
// Atomic reports whether a failure inside fn rolls back earlier writes.
// When it does not, a failure after the voter flag is set leaves the state
// inconsistent and must be surfaced as such.
type VoteTx interface {
	RunInTx(ctx context.Context, voterID id.VoterID, fn func(ctx context.Context, stores TxStores) error) error
	Atomic() bool
}

// AuditPublisher receives the vote and roster events. Emit failures are
// logged and never fail the operation.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

const tracerName = "evote/internal/voting/service"

// Service enforces the one-person-one-vote rules and serves the tally,
// the candidate roster and the repair pass.
type Service struct {
	voters         VoterStore
	candidates     CandidateStore
	tx             VoteTx
	logger         *slog.Logger
	auditPublisher AuditPublisher
	metrics        *metrics.Metrics
	storeTimeout   time.Duration
	tracer         trace.Tracer
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the service logger. slog.Default is used otherwise.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithAuditPublisher sets where audit events are sent.
func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) {
		s.auditPublisher = publisher
	}
}

// WithMetrics enables the voting counters.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithVoteTx replaces the default in-process transaction runner. Backends
// that can commit the flag and the append together provide their own.
func WithVoteTx(tx VoteTx) Option {
	return func(s *Service) {
		s.tx = tx
	}
}

// WithStoreTimeout bounds every storage round-trip made by one call.
func WithStoreTimeout(d time.Duration) Option {
	return func(s *Service) {
		s.storeTimeout = d
	}
}

// New constructs a Service over the given stores. Without WithVoteTx the
// casts go through a per-voter sharded lock that cannot roll back.
func New(voters VoterStore, candidates CandidateStore, opts ...Option) (*Service, error) {
	if voters == nil {
		return nil, errors.New("voter store is required")
	}
	if candidates == nil {
		return nil, errors.New("candidate store is required")
	}
	s := &Service{
		voters:     voters,
		candidates: candidates,
		tracer:     otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.tx == nil {
		s.tx = NewShardedVoteTx(voters, candidates, s.storeTimeout)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s, nil
}

func (s *Service) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.storeTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.storeTimeout)
}

// storageError classifies an unexpected store failure as transient.
func storageError(err error, msg string) error {
	if _, ok := dErrors.As(err); ok {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return dErrors.Wrap(err, dErrors.CodeTimeout, msg)
	}
	return dErrors.Wrap(err, dErrors.CodeUnavailable, msg)
}

func (s *Service) emit(ctx context.Context, event audit.Event) {
	if s.auditPublisher == nil {
		return
	}
	if err := s.auditPublisher.Emit(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "audit emit failed",
			"action", event.Action,
			"error", err,
		)
	}
}

// GetVoter returns the caller's voting record.
func (s *Service) GetVoter(ctx context.Context, voterID id.VoterID) (*models.Voter, error) {
	if voterID.IsNil() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "voter id required")
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	voter, err := s.voters.FindByID(ctx, voterID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "voter not found")
		}
		return nil, storageError(err, "failed to load voter")
	}
	return voter, nil
}

// IsAdmin resolves the caller's role. Unknown voters are not admins.
func (s *Service) IsAdmin(ctx context.Context, voterID id.VoterID) (bool, error) {
	voter, err := s.GetVoter(ctx, voterID)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeNotFound) {
			return false, nil
		}
		return false, err
	}
	return voter.IsAdmin(), nil
}
