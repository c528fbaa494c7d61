package admin

import (
	"context"
	"log/slog"
	"net/http"

	id "evote/pkg/domain"
	request "evote/pkg/platform/middleware/request"
	"evote/pkg/requestcontext"
)

// RoleChecker reports whether a voter holds the admin role.
type RoleChecker interface {
	IsAdmin(ctx context.Context, voterID id.VoterID) (bool, error)
}

// RequireAdmin rejects callers whose voter record is not an admin.
// It must run after auth.RequireAuth.
func RequireAdmin(roles RoleChecker, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			requestID := request.GetRequestID(ctx)
			voterID := requestcontext.VoterID(ctx)

			if voterID.IsNil() {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"error":"unauthorized","error_description":"authentication required"}`))
				return
			}

			isAdmin, err := roles.IsAdmin(ctx, voterID)
			if err != nil {
				logger.ErrorContext(ctx, "failed to resolve caller role",
					"error", err,
					"voter_id", voterID,
					"request_id", requestID,
				)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusServiceUnavailable)
				_, _ = w.Write([]byte(`{"error":"service_unavailable","error_description":"temporarily unavailable, retry the request"}`))
				return
			}
			if !isAdmin {
				logger.WarnContext(ctx, "admin role required",
					"voter_id", voterID,
					"request_id", requestID,
				)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusForbidden)
				_, _ = w.Write([]byte(`{"error":"forbidden","error_description":"User does not have admin role"}`))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
