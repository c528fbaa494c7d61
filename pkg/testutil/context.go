package testutil

import (
	"net/http"

	id "evote/pkg/domain"
	"evote/pkg/requestcontext"
)

// WithVoterID attaches a voter ID the way the auth middleware would.
// Malformed ids leave the request unauthenticated.
func WithVoterID(req *http.Request, voterID string) *http.Request {
	parsed, err := id.ParseVoterID(voterID)
	if err != nil {
		return req
	}
	return req.WithContext(requestcontext.WithVoterID(req.Context(), parsed))
}
