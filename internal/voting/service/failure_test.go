package service_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"evote/internal/audit"
	votingmetrics "evote/internal/voting/metrics"
	"evote/internal/voting/models"
	"evote/internal/voting/service"
	"evote/internal/voting/service/mocks"
	id "evote/pkg/domain"
	dErrors "evote/pkg/domain-errors"
	"evote/pkg/platform/sentinel"
)

// CastVoteFailureSuite injects storage failures through mocked ports.
type CastVoteFailureSuite struct {
	suite.Suite
	ctrl       *gomock.Controller
	voters     *mocks.MockVoterStore
	candidates *mocks.MockCandidateStore
	tx         *mocks.MockVoteTx
	publisher  *mocks.MockAuditPublisher
	metrics    *votingmetrics.Metrics
	service    *service.Service

	voter     *models.Voter
	candidate *models.Candidate
}

func TestCastVoteFailureSuite(t *testing.T) {
	suite.Run(t, new(CastVoteFailureSuite))
}

func (s *CastVoteFailureSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.voters = mocks.NewMockVoterStore(s.ctrl)
	s.candidates = mocks.NewMockCandidateStore(s.ctrl)
	s.tx = mocks.NewMockVoteTx(s.ctrl)
	s.publisher = mocks.NewMockAuditPublisher(s.ctrl)
	s.metrics = votingmetrics.New(prometheus.NewRegistry())

	var err error
	s.service, err = service.New(s.voters, s.candidates,
		service.WithVoteTx(s.tx),
		service.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		service.WithAuditPublisher(s.publisher),
		service.WithMetrics(s.metrics),
	)
	s.Require().NoError(err)

	s.voter = &models.Voter{ID: id.NewVoterID(), Role: models.RoleVoter}
	s.candidate = &models.Candidate{ID: id.NewCandidateID(), Name: "Alice", Party: "Blue"}
	s.publisher.EXPECT().Emit(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
}

func (s *CastVoteFailureSuite) TearDownTest() {
	s.ctrl.Finish()
}

// passThrough makes RunInTx call fn with the mocked stores.
func (s *CastVoteFailureSuite) passThrough(atomic bool) {
	s.tx.EXPECT().Atomic().Return(atomic).AnyTimes()
	s.tx.EXPECT().RunInTx(gomock.Any(), s.voter.ID, gomock.Any()).DoAndReturn(
		func(ctx context.Context, _ id.VoterID, fn func(context.Context, service.TxStores) error) error {
			return fn(ctx, service.TxStores{Voters: s.voters, Candidates: s.candidates})
		})
}

func (s *CastVoteFailureSuite) expectPreconditions() {
	s.candidates.EXPECT().FindByID(gomock.Any(), s.candidate.ID).Return(s.candidate, nil)
	s.voters.EXPECT().FindByID(gomock.Any(), s.voter.ID).Return(s.voter, nil)
}

func (s *CastVoteFailureSuite) TestTransientLookupFailures() {
	s.Run("candidate lookup down", func() {
		s.candidates.EXPECT().FindByID(gomock.Any(), s.candidate.ID).Return(nil, errors.New("connection refused"))

		err := s.service.CastVote(context.Background(), s.voter.ID, s.candidate.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeUnavailable))
		s.True(dErrors.IsTransient(err))
	})

	s.Run("voter lookup timeout", func() {
		s.candidates.EXPECT().FindByID(gomock.Any(), s.candidate.ID).Return(s.candidate, nil)
		s.voters.EXPECT().FindByID(gomock.Any(), s.voter.ID).Return(nil, context.DeadlineExceeded)

		err := s.service.CastVote(context.Background(), s.voter.ID, s.candidate.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeTimeout))
		s.True(dErrors.IsTransient(err))
	})

	s.Run("sentinel unavailable stays transient", func() {
		s.candidates.EXPECT().FindByID(gomock.Any(), s.candidate.ID).Return(nil, sentinel.ErrUnavailable)

		err := s.service.CastVote(context.Background(), s.voter.ID, s.candidate.ID)
		s.True(dErrors.IsTransient(err))
	})
}

func (s *CastVoteFailureSuite) TestFlagFailures() {
	s.Run("lost compare-and-set is a conflict", func() {
		s.expectPreconditions()
		s.passThrough(false)
		s.voters.EXPECT().MarkVoted(gomock.Any(), s.voter.ID).Return(sentinel.ErrAlreadyUsed)

		err := s.service.CastVote(context.Background(), s.voter.ID, s.candidate.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("flag write failure is transient and skips the candidate", func() {
		s.expectPreconditions()
		s.passThrough(false)
		s.voters.EXPECT().MarkVoted(gomock.Any(), s.voter.ID).Return(errors.New("i/o timeout"))

		err := s.service.CastVote(context.Background(), s.voter.ID, s.candidate.ID)
		s.True(dErrors.IsTransient(err))
	})

	s.Run("runner timeout before any write is transient", func() {
		s.expectPreconditions()
		s.tx.EXPECT().Atomic().Return(false).AnyTimes()
		s.tx.EXPECT().RunInTx(gomock.Any(), s.voter.ID, gomock.Any()).
			Return(dErrors.Wrap(context.DeadlineExceeded, dErrors.CodeTimeout, "transaction aborted"))

		err := s.service.CastVote(context.Background(), s.voter.ID, s.candidate.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeTimeout))
	})
}

func (s *CastVoteFailureSuite) TestPartialWriteWithoutRollbackIsInconsistent() {
	s.expectPreconditions()
	s.passThrough(false)
	s.voters.EXPECT().MarkVoted(gomock.Any(), s.voter.ID).Return(nil)
	s.candidates.EXPECT().AppendVote(gomock.Any(), s.candidate.ID, gomock.Any()).Return(errors.New("connection reset"))

	var emitted []audit.Event
	s.publisher = mocks.NewMockAuditPublisher(s.ctrl)
	s.publisher.EXPECT().Emit(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, e audit.Event) error {
		emitted = append(emitted, e)
		return nil
	}).AnyTimes()
	svc, err := service.New(s.voters, s.candidates,
		service.WithVoteTx(s.tx),
		service.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		service.WithAuditPublisher(s.publisher),
		service.WithMetrics(s.metrics),
	)
	s.Require().NoError(err)

	err = svc.CastVote(context.Background(), s.voter.ID, s.candidate.ID)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeInconsistent))
	s.False(dErrors.IsTransient(err), "inconsistent state must not invite a retry")

	s.Equal(1.0, testutil.ToFloat64(s.metrics.Inconsistencies))
	s.Require().Len(emitted, 1)
	s.Equal(audit.ActionVoteInconsistent, emitted[0].Action)
}

func (s *CastVoteFailureSuite) TestPartialWriteWithRollback() {
	s.Run("candidate removed mid-cast is not found", func() {
		s.expectPreconditions()
		s.passThrough(true)
		s.voters.EXPECT().MarkVoted(gomock.Any(), s.voter.ID).Return(nil)
		s.candidates.EXPECT().AppendVote(gomock.Any(), s.candidate.ID, gomock.Any()).Return(sentinel.ErrNotFound)

		err := s.service.CastVote(context.Background(), s.voter.ID, s.candidate.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("duplicate log entry is a conflict", func() {
		s.expectPreconditions()
		s.passThrough(true)
		s.voters.EXPECT().MarkVoted(gomock.Any(), s.voter.ID).Return(nil)
		s.candidates.EXPECT().AppendVote(gomock.Any(), s.candidate.ID, gomock.Any()).Return(sentinel.ErrAlreadyUsed)

		err := s.service.CastVote(context.Background(), s.voter.ID, s.candidate.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("storage failure rolls back and is transient", func() {
		s.expectPreconditions()
		s.passThrough(true)
		s.voters.EXPECT().MarkVoted(gomock.Any(), s.voter.ID).Return(nil)
		s.candidates.EXPECT().AppendVote(gomock.Any(), s.candidate.ID, gomock.Any()).Return(errors.New("deadlock detected"))

		err := s.service.CastVote(context.Background(), s.voter.ID, s.candidate.ID)
		s.True(dErrors.IsTransient(err))
		s.Zero(testutil.ToFloat64(s.metrics.Inconsistencies))
	})
}

func (s *CastVoteFailureSuite) TestTallyStorageFailure() {
	s.candidates.EXPECT().List(gomock.Any()).Return(nil, errors.New("pool exhausted"))
	_, err := s.service.Tally(context.Background())
	s.True(dErrors.IsTransient(err))
}

func (s *CastVoteFailureSuite) TestAuditFailureDoesNotFailVote() {
	s.publisher = mocks.NewMockAuditPublisher(s.ctrl)
	s.publisher.EXPECT().Emit(gomock.Any(), gomock.Any()).Return(errors.New("sink down"))
	svc, err := service.New(s.voters, s.candidates,
		service.WithVoteTx(s.tx),
		service.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		service.WithAuditPublisher(s.publisher),
	)
	s.Require().NoError(err)

	s.expectPreconditions()
	s.passThrough(false)
	s.voters.EXPECT().MarkVoted(gomock.Any(), s.voter.ID).Return(nil)
	s.candidates.EXPECT().AppendVote(gomock.Any(), s.candidate.ID, gomock.Any()).Return(nil)

	s.NoError(svc.CastVote(context.Background(), s.voter.ID, s.candidate.ID))
}

func TestShardedVoteTx(t *testing.T) {
	t.Run("cancelled context aborts before running", func(t *testing.T) {
		tx := service.NewShardedVoteTx(nil, nil, time.Second)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		ran := false
		err := tx.RunInTx(ctx, id.NewVoterID(), func(context.Context, service.TxStores) error {
			ran = true
			return nil
		})
		assert.True(t, dErrors.HasCode(err, dErrors.CodeTimeout))
		assert.False(t, ran)
	})

	t.Run("applies a deadline when none is set", func(t *testing.T) {
		tx := service.NewShardedVoteTx(nil, nil, time.Second)
		err := tx.RunInTx(context.Background(), id.NewVoterID(), func(ctx context.Context, _ service.TxStores) error {
			_, ok := ctx.Deadline()
			assert.True(t, ok)
			return nil
		})
		assert.NoError(t, err)
		assert.False(t, tx.Atomic())
	})
}
