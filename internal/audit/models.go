package audit

import (
	"time"

	"github.com/google/uuid"

	id "evote/pkg/domain"
)

// EventCategory classifies audit events for routing and retention.
type EventCategory string

const (
	// CategoryCompliance covers the election record itself: accepted votes
	// and roster changes.
	CategoryCompliance EventCategory = "compliance"

	// CategorySecurity covers rejected or suspicious attempts and integrity
	// alerts. These feed alerting.
	CategorySecurity EventCategory = "security"

	// CategoryOperations covers routine maintenance activity.
	CategoryOperations EventCategory = "operations"
)

type Action string

const (
	ActionVoteCast         Action = "vote_cast"
	ActionVoteRejected     Action = "vote_rejected"
	ActionVoteInconsistent Action = "vote_inconsistent"

	ActionCandidateCreated Action = "candidate_created"
	ActionCandidateUpdated Action = "candidate_updated"
	ActionCandidateDeleted Action = "candidate_deleted"

	ActionReconcileRun     Action = "reconcile_run"
	ActionReconcileFinding Action = "reconcile_finding"
)

var actionCategories = map[Action]EventCategory{
	ActionVoteCast:         CategoryCompliance,
	ActionCandidateCreated: CategoryCompliance,
	ActionCandidateUpdated: CategoryCompliance,
	ActionCandidateDeleted: CategoryCompliance,

	ActionVoteRejected:     CategorySecurity,
	ActionVoteInconsistent: CategorySecurity,
	ActionReconcileFinding: CategorySecurity,

	ActionReconcileRun: CategoryOperations,
}

// CategoryFor returns the category of a known action, operations otherwise.
func CategoryFor(a Action) EventCategory {
	if c, ok := actionCategories[a]; ok {
		return c
	}
	return CategoryOperations
}

// Event is emitted from domain logic to capture key actions. It stays
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	ID          uuid.UUID     `json:"id"`
	Category    EventCategory `json:"category"`
	Timestamp   time.Time     `json:"timestamp"`
	Action      Action        `json:"action"`
	VoterID     id.VoterID    `json:"voter_id"`
	CandidateID string        `json:"candidate_id,omitempty"`
	Reason      string        `json:"reason,omitempty"`
	RequestID   string        `json:"request_id,omitempty"`
	ClientIP    string        `json:"client_ip,omitempty"`
	Device      string        `json:"device,omitempty"`
}
