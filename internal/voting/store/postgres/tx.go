package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"evote/internal/voting/service"
	id "evote/pkg/domain"
	dErrors "evote/pkg/domain-errors"
	txcontext "evote/pkg/platform/tx"
)

const defaultVoteTxTimeout = 5 * time.Second

// VoteTx runs the cast-vote mutations in one database transaction.
type VoteTx struct {
	db      *sql.DB
	stores  service.TxStores
	timeout time.Duration
}

// NewVoteTx constructs a PostgreSQL VoteTx. timeout bounds each transaction.
func NewVoteTx(db *sql.DB, timeout time.Duration) *VoteTx {
	return &VoteTx{
		db:      db,
		stores:  service.TxStores{Voters: NewVoterStore(db), Candidates: NewCandidateStore(db)},
		timeout: timeout,
	}
}

// Atomic is true: any failure inside fn rolls back the voter flag.
func (t *VoteTx) Atomic() bool { return true }

func (t *VoteTx) RunInTx(ctx context.Context, _ id.VoterID, fn func(ctx context.Context, stores service.TxStores) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	timeout := t.timeout
	if timeout == 0 {
		timeout = defaultVoteTxTimeout
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	tx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin vote transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := fn(txcontext.WithTx(ctx, tx), t.stores); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit vote transaction: %w", err)
	}
	return nil
}
