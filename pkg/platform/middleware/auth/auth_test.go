package auth

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	id "evote/pkg/domain"
	"evote/pkg/requestcontext"
	"evote/pkg/testutil"
)

type stubValidator struct {
	claims *JWTClaims
	err    error
}

func (v stubValidator) ValidateToken(string) (*JWTClaims, error) {
	return v.claims, v.err
}

func echoVoter() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(requestcontext.VoterID(r.Context()).String()))
	})
}

func TestRequireAuth(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	voterID := id.NewVoterID()

	testutil.Given(t, "a valid token", func(t *testing.T) {
		h := RequireAuth(stubValidator{claims: &JWTClaims{VoterID: voterID.String()}}, logger)(echoVoter())
		req := testutil.NewRequest(t, http.MethodGet, "/me")
		req.Header.Set("Authorization", "Bearer good")

		testutil.Then(t, "the voter id reaches the handler", func(t *testing.T) {
			rr := testutil.DoRequest(h, req)
			testutil.AssertStatusOK(t, rr)
			assert.Equal(t, voterID.String(), rr.Body.String())
		})
	})

	testutil.Given(t, "no authorization header", func(t *testing.T) {
		h := RequireAuth(stubValidator{}, logger)(echoVoter())
		testutil.Then(t, "the request is unauthorized", func(t *testing.T) {
			rr := testutil.DoRequest(h, testutil.NewRequest(t, http.MethodGet, "/me"))
			testutil.AssertStatusAndError(t, rr, http.StatusUnauthorized, "unauthorized")
		})
	})

	testutil.Given(t, "a token the validator rejects", func(t *testing.T) {
		h := RequireAuth(stubValidator{err: errors.New("expired")}, logger)(echoVoter())
		req := testutil.NewRequest(t, http.MethodGet, "/me")
		req.Header.Set("Authorization", "Bearer stale")
		testutil.Then(t, "the request is unauthorized", func(t *testing.T) {
			rr := testutil.DoRequest(h, req)
			testutil.AssertStatusAndError(t, rr, http.StatusUnauthorized, "unauthorized")
		})
	})

	testutil.Given(t, "a token whose voter id is malformed", func(t *testing.T) {
		h := RequireAuth(stubValidator{claims: &JWTClaims{VoterID: "nope"}}, logger)(echoVoter())
		req := testutil.NewRequest(t, http.MethodGet, "/me")
		req.Header.Set("Authorization", "Bearer odd")
		testutil.Then(t, "the request is unauthorized", func(t *testing.T) {
			rr := testutil.DoRequest(h, req)
			testutil.AssertStatus(t, rr, http.StatusUnauthorized)
		})
	})
}
