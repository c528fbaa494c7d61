package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	pgplatform "evote/internal/platform/postgres"
	"evote/internal/voting/models"
	id "evote/pkg/domain"
	"evote/pkg/platform/sentinel"
	txcontext "evote/pkg/platform/tx"
)

// CandidateStore keeps candidates and their vote logs in PostgreSQL.
type CandidateStore struct {
	db *sql.DB
}

// NewCandidateStore constructs a PostgreSQL-backed candidate store.
func NewCandidateStore(db *sql.DB) *CandidateStore {
	return &CandidateStore{db: db}
}

func (s *CandidateStore) Create(ctx context.Context, c *models.Candidate) error {
	const query = `
		INSERT INTO candidates (id, name, party, vote_count, created_at, updated_at)
		VALUES ($1, $2, $3, 0, $4, $5)
		RETURNING created_seq`
	err := txcontext.ExecutorFrom(ctx, s.db).QueryRowContext(ctx, query,
		c.ID.String(), c.Name, c.Party, c.CreatedAt, c.UpdatedAt).Scan(&c.Seq)
	if err != nil {
		if pgplatform.IsUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("create candidate: %w", err)
	}
	return nil
}

// FindByID returns the candidate and its vote log read in one statement,
// so count and log come from the same snapshot.
func (s *CandidateStore) FindByID(ctx context.Context, candidateID id.CandidateID) (*models.Candidate, error) {
	const query = `
		SELECT c.id, c.name, c.party, c.vote_count, c.created_seq, c.created_at, c.updated_at,
		       l.voter_id, l.voted_at
		FROM candidates c
		LEFT JOIN vote_log l ON l.candidate_id = c.id
		WHERE c.id = $1
		ORDER BY l.seq`
	rows, err := txcontext.ExecutorFrom(ctx, s.db).QueryContext(ctx, query, candidateID.String())
	if err != nil {
		return nil, fmt.Errorf("find candidate: %w", err)
	}
	defer rows.Close()

	var c *models.Candidate
	for rows.Next() {
		var (
			row     models.Candidate
			rawID   string
			voterID sql.NullString
			votedAt sql.NullTime
		)
		if err := rows.Scan(&rawID, &row.Name, &row.Party, &row.VoteCount, &row.Seq,
			&row.CreatedAt, &row.UpdatedAt, &voterID, &votedAt); err != nil {
			return nil, fmt.Errorf("scan candidate: %w", err)
		}
		if c == nil {
			parsed, err := id.ParseCandidateID(rawID)
			if err != nil {
				return nil, fmt.Errorf("stored candidate id: %w", err)
			}
			row.ID = parsed
			c = &row
		}
		if voterID.Valid {
			vid, err := id.ParseVoterID(voterID.String)
			if err != nil {
				return nil, fmt.Errorf("stored vote log voter: %w", err)
			}
			c.Votes = append(c.Votes, models.VoteLogEntry{VoterID: vid, VotedAt: votedAt.Time})
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate candidate: %w", err)
	}
	if c == nil {
		return nil, sentinel.ErrNotFound
	}
	return c, nil
}

func (s *CandidateStore) List(ctx context.Context) ([]*models.Candidate, error) {
	const query = `
		SELECT id, name, party, vote_count, created_seq, created_at, updated_at
		FROM candidates ORDER BY created_seq`
	rows, err := txcontext.ExecutorFrom(ctx, s.db).QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list candidates: %w", err)
	}
	defer rows.Close()

	var out []*models.Candidate
	for rows.Next() {
		c, err := scanCandidate(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate candidates: %w", err)
	}
	return out, nil
}

func (s *CandidateStore) UpdateProfile(ctx context.Context, candidateID id.CandidateID, name, party string, at time.Time) (*models.Candidate, error) {
	const query = `
		UPDATE candidates SET name = $2, party = $3, updated_at = $4
		WHERE id = $1
		RETURNING id, name, party, vote_count, created_seq, created_at, updated_at`
	row := txcontext.ExecutorFrom(ctx, s.db).QueryRowContext(ctx, query, candidateID.String(), name, party, at)
	c, err := scanCandidate(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, err
	}
	return c, nil
}

// Delete removes a candidate only while vote_count is zero.
func (s *CandidateStore) Delete(ctx context.Context, candidateID id.CandidateID) error {
	exec := txcontext.ExecutorFrom(ctx, s.db)
	res, err := exec.ExecContext(ctx,
		`DELETE FROM candidates WHERE id = $1 AND vote_count = 0
		 AND NOT EXISTS (SELECT 1 FROM vote_log WHERE candidate_id = $1)`, candidateID.String())
	if err != nil {
		return fmt.Errorf("delete candidate: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete candidate: %w", err)
	}
	if n == 1 {
		return nil
	}
	var exists bool
	if err := exec.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM candidates WHERE id = $1)`, candidateID.String()).Scan(&exists); err != nil {
		return fmt.Errorf("delete candidate: %w", err)
	}
	if !exists {
		return sentinel.ErrNotFound
	}
	return sentinel.ErrInvalidState
}

// AppendVote increments the count, taking the candidate row lock, then
// inserts the log row. Callers run it inside a VoteTx so both statements
// commit together.
func (s *CandidateStore) AppendVote(ctx context.Context, candidateID id.CandidateID, entry models.VoteLogEntry) error {
	exec := txcontext.ExecutorFrom(ctx, s.db)
	res, err := exec.ExecContext(ctx,
		`UPDATE candidates SET vote_count = vote_count + 1 WHERE id = $1`, candidateID.String())
	if err != nil {
		return fmt.Errorf("increment vote count: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("increment vote count: %w", err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}

	_, err = exec.ExecContext(ctx,
		`INSERT INTO vote_log (candidate_id, voter_id, voted_at) VALUES ($1, $2, $3)`,
		candidateID.String(), entry.VoterID.String(), entry.VotedAt)
	if err != nil {
		if pgplatform.IsUniqueViolation(err) {
			return sentinel.ErrAlreadyUsed
		}
		return fmt.Errorf("append vote log: %w", err)
	}
	return nil
}

// RepairVoteCount locks the candidate row, then counts the log in a later
// statement so the count sees every vote committed before the lock.
func (s *CandidateStore) RepairVoteCount(ctx context.Context, candidateID id.CandidateID) (stored, actual int, err error) {
	if _, ok := txcontext.From(ctx); ok {
		return repairVoteCount(ctx, txcontext.ExecutorFrom(ctx, s.db), candidateID)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, 0, fmt.Errorf("repair vote count: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()
	stored, actual, err = repairVoteCount(ctx, tx, candidateID)
	if err != nil {
		return 0, 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, 0, fmt.Errorf("repair vote count: %w", err)
	}
	return stored, actual, nil
}

func repairVoteCount(ctx context.Context, exec txcontext.Executor, candidateID id.CandidateID) (int, int, error) {
	var stored, actual int
	err := exec.QueryRowContext(ctx,
		`SELECT vote_count FROM candidates WHERE id = $1 FOR UPDATE`, candidateID.String()).Scan(&stored)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, 0, sentinel.ErrNotFound
		}
		return 0, 0, fmt.Errorf("repair vote count: %w", err)
	}
	if err := exec.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM vote_log WHERE candidate_id = $1`, candidateID.String()).Scan(&actual); err != nil {
		return 0, 0, fmt.Errorf("repair vote count: %w", err)
	}
	if stored != actual {
		if _, err := exec.ExecContext(ctx,
			`UPDATE candidates SET vote_count = $2 WHERE id = $1`, candidateID.String(), actual); err != nil {
			return 0, 0, fmt.Errorf("repair vote count: %w", err)
		}
	}
	return stored, actual, nil
}

func scanCandidate(row rowScanner) (*models.Candidate, error) {
	var (
		rawID string
		c     models.Candidate
	)
	if err := row.Scan(&rawID, &c.Name, &c.Party, &c.VoteCount, &c.Seq, &c.CreatedAt, &c.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan candidate: %w", err)
	}
	parsed, err := id.ParseCandidateID(rawID)
	if err != nil {
		return nil, fmt.Errorf("stored candidate id: %w", err)
	}
	c.ID = parsed
	return &c, nil
}
