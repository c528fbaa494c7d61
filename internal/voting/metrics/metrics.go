package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Rejection reasons used as the "reason" label.
const (
	ReasonCandidateNotFound = "candidate_not_found"
	ReasonVoterNotFound     = "voter_not_found"
	ReasonAdmin             = "admin"
	ReasonAlreadyVoted      = "already_voted"
	ReasonUnavailable       = "unavailable"
	ReasonInconsistent      = "inconsistent"
)

// Metrics provides observability for the voting module.
type Metrics struct {
	VotesCast        prometheus.Counter
	VotesRejected    *prometheus.CounterVec
	Inconsistencies  prometheus.Counter
	RepairsApplied   *prometheus.CounterVec
	CastVoteDuration prometheus.Histogram
	TallyDuration    prometheus.Histogram
}

// New registers the voting metrics on reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		VotesCast: f.NewCounter(prometheus.CounterOpts{
			Name: "evote_votes_cast_total",
			Help: "Total number of votes recorded",
		}),
		VotesRejected: f.NewCounterVec(prometheus.CounterOpts{
			Name: "evote_votes_rejected_total",
			Help: "Cast attempts that did not record a vote, by reason",
		}, []string{"reason"}),
		Inconsistencies: f.NewCounter(prometheus.CounterOpts{
			Name: "evote_vote_inconsistencies_total",
			Help: "Votes where the voter was flagged but the candidate update failed",
		}),
		RepairsApplied: f.NewCounterVec(prometheus.CounterOpts{
			Name: "evote_reconcile_repairs_total",
			Help: "Repairs applied by the reconciliation pass, by kind",
		}, []string{"kind"}),
		CastVoteDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "evote_cast_vote_duration_seconds",
			Help:    "Duration of CastVote operations",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
		TallyDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "evote_tally_duration_seconds",
			Help:    "Duration of Tally operations",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
	}
}

func (m *Metrics) IncrementVotesCast() {
	m.VotesCast.Inc()
}

func (m *Metrics) IncrementRejected(reason string) {
	m.VotesRejected.WithLabelValues(reason).Inc()
}

func (m *Metrics) IncrementInconsistency() {
	m.Inconsistencies.Inc()
}

func (m *Metrics) AddRepairs(kind string, n int) {
	if n > 0 {
		m.RepairsApplied.WithLabelValues(kind).Add(float64(n))
	}
}

// ObserveCastVote records the duration of a CastVote call started at start.
func (m *Metrics) ObserveCastVote(start time.Time) {
	m.CastVoteDuration.Observe(time.Since(start).Seconds())
}

// ObserveTally records the duration of a Tally call started at start.
func (m *Metrics) ObserveTally(start time.Time) {
	m.TallyDuration.Observe(time.Since(start).Seconds())
}
