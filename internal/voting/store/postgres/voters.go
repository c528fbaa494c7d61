// Package postgres implements the voting stores on database/sql with
// lib/pq. Both stores read the *sql.Tx from context when a VoteTx is open.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"evote/internal/voting/models"
	id "evote/pkg/domain"
	"evote/pkg/platform/sentinel"
	txcontext "evote/pkg/platform/tx"
)

// VoterStore keeps voter records in PostgreSQL.
type VoterStore struct {
	db *sql.DB
}

// NewVoterStore constructs a PostgreSQL-backed voter store.
func NewVoterStore(db *sql.DB) *VoterStore {
	return &VoterStore{db: db}
}

// Save upserts a voter. has_voted is OR-ed so a save never clears it.
func (s *VoterStore) Save(ctx context.Context, voter *models.Voter) error {
	const query = `
		INSERT INTO voters (id, name, role, has_voted, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			role = EXCLUDED.role,
			has_voted = voters.has_voted OR EXCLUDED.has_voted`
	_, err := txcontext.ExecutorFrom(ctx, s.db).ExecContext(ctx, query,
		voter.ID.String(), voter.Name, string(voter.Role), voter.HasVoted, voter.CreatedAt)
	if err != nil {
		return fmt.Errorf("save voter: %w", err)
	}
	return nil
}

func (s *VoterStore) FindByID(ctx context.Context, voterID id.VoterID) (*models.Voter, error) {
	const query = `SELECT id, name, role, has_voted, created_at FROM voters WHERE id = $1`
	row := txcontext.ExecutorFrom(ctx, s.db).QueryRowContext(ctx, query, voterID.String())
	v, err := scanVoter(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find voter: %w", err)
	}
	return v, nil
}

func (s *VoterStore) List(ctx context.Context) ([]*models.Voter, error) {
	const query = `SELECT id, name, role, has_voted, created_at FROM voters ORDER BY created_at, id`
	rows, err := txcontext.ExecutorFrom(ctx, s.db).QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list voters: %w", err)
	}
	defer rows.Close()

	var out []*models.Voter
	for rows.Next() {
		v, err := scanVoter(rows)
		if err != nil {
			return nil, fmt.Errorf("scan voter: %w", err)
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate voters: %w", err)
	}
	return out, nil
}

// MarkVoted is a conditional update; the row lock it takes serializes
// concurrent transactions for the same voter.
func (s *VoterStore) MarkVoted(ctx context.Context, voterID id.VoterID) error {
	exec := txcontext.ExecutorFrom(ctx, s.db)
	res, err := exec.ExecContext(ctx,
		`UPDATE voters SET has_voted = TRUE WHERE id = $1 AND has_voted = FALSE`, voterID.String())
	if err != nil {
		return fmt.Errorf("mark voted: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("mark voted: %w", err)
	}
	if n == 1 {
		return nil
	}

	var exists bool
	if err := exec.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM voters WHERE id = $1)`, voterID.String()).Scan(&exists); err != nil {
		return fmt.Errorf("mark voted: %w", err)
	}
	if !exists {
		return sentinel.ErrNotFound
	}
	return sentinel.ErrAlreadyUsed
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanVoter(row rowScanner) (*models.Voter, error) {
	var (
		rawID string
		role  string
		v     models.Voter
	)
	if err := row.Scan(&rawID, &v.Name, &role, &v.HasVoted, &v.CreatedAt); err != nil {
		return nil, err
	}
	voterID, err := id.ParseVoterID(rawID)
	if err != nil {
		return nil, fmt.Errorf("stored voter id: %w", err)
	}
	r, err := models.ParseRole(role)
	if err != nil {
		return nil, fmt.Errorf("stored voter role: %w", err)
	}
	v.ID = voterID
	v.Role = r
	return &v, nil
}
