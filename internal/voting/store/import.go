package store

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"evote/internal/voting/models"
	"evote/internal/voting/service"
	id "evote/pkg/domain"
)

// VoterRecord is one entry of a voter import file. A missing ID is
// generated; a missing role defaults to voter.
type VoterRecord struct {
	ID   id.VoterID `json:"id"`
	Name string     `json:"name"`
	Role string     `json:"role"`
}

// ImportVoters registers the voters listed in r, a JSON array of
// VoterRecord. Save never clears a flag, so re-importing the same file is
// safe on a running election. Nothing is written if any record is invalid.
func ImportVoters(ctx context.Context, voters service.VoterStore, r io.Reader, now time.Time) ([]*models.Voter, error) {
	var records []VoterRecord
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return nil, fmt.Errorf("decode voter import: %w", err)
	}

	out := make([]*models.Voter, 0, len(records))
	seen := make(map[id.VoterID]struct{}, len(records))
	for i, rec := range records {
		if rec.ID.IsNil() {
			rec.ID = id.NewVoterID()
		}
		if _, dup := seen[rec.ID]; dup {
			return nil, fmt.Errorf("voter import entry %d: duplicate id %s", i, rec.ID)
		}
		seen[rec.ID] = struct{}{}

		role := models.RoleVoter
		if rec.Role != "" {
			parsed, err := models.ParseRole(rec.Role)
			if err != nil {
				return nil, fmt.Errorf("voter import entry %d: %w", i, err)
			}
			role = parsed
		}
		v, err := models.NewVoter(rec.ID, rec.Name, role, now)
		if err != nil {
			return nil, fmt.Errorf("voter import entry %d: %w", i, err)
		}
		out = append(out, v)
	}

	for _, v := range out {
		if err := voters.Save(ctx, v); err != nil {
			return nil, fmt.Errorf("import voter %s: %w", v.ID, err)
		}
	}
	return out, nil
}
