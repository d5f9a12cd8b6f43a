package http

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"expensetracker/internal/auth"
	"expensetracker/internal/graphql"
	"expensetracker/internal/log"
	"expensetracker/internal/memory"
	"expensetracker/internal/services"
)

func newTestServer(t *testing.T, ready func(context.Context) error, perMinute int) *Server {
	t.Helper()
	verifier, err := auth.NewVerifier("", true)
	require.NoError(t, err)

	profiles := services.NewProfileService(memory.NewUserTable(), nil)
	expenses := services.NewExpenseService(memory.NewExpenseTable(), profiles, nil)

	srv := NewServer(":0", Options{
		GraphQL:            graphql.NewHandler(graphql.NewResolver(expenses, profiles)),
		Authenticate:       verifier.Middleware,
		Ready:              ready,
		RateLimitPerMinute: perMinute,
	})
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })
	return srv
}

// unsigned token with sub=u1, exp far in the future.
const testToken = "eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9." +
	"eyJzdWIiOiJ1MSIsImVtYWlsIjoiYWRhQGV4YW1wbGUuY29tIiwiZXhwIjo0MTAyNDQ0ODAwfQ." +
	"c2lnbmF0dXJl"

func TestHealthAndReady(t *testing.T) {
	srv := newTestServer(t, nil, 0)

	for _, path := range []string{"/healthz", "/readyz"} {
		rr := httptest.NewRecorder()
		srv.Handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, rr.Code, path)
		assert.NotEmpty(t, rr.Header().Get("X-Request-ID"))
		assert.Equal(t, "nosniff", rr.Header().Get("X-Content-Type-Options"))
	}
}

func TestReadyReportsBackendFailure(t *testing.T) {
	srv := newTestServer(t, func(context.Context) error { return errors.New("table missing") }, 0)

	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}

func graphqlRequest(token string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/graphql",
		bytes.NewBufferString(`{"query":"{ getUserProfile(userId: \"u1\") { email } }"}`))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

func TestGraphQLRequiresToken(t *testing.T) {
	srv := newTestServer(t, nil, 0)

	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, graphqlRequest(""))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, graphqlRequest(testToken))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"data":{"getUserProfile":{"email":"ada@example.com"}}}`, rr.Body.String())
}

func TestGraphQLOnlyAcceptsPOST(t *testing.T) {
	srv := newTestServer(t, nil, 0)

	req := httptest.NewRequest(http.MethodGet, "/graphql?query={__typename}", nil)
	req.Header.Set("Authorization", "Bearer "+testToken)
	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
	assert.Equal(t, http.MethodPost, rr.Header().Get("Allow"))
}

func TestGraphQLRateLimited(t *testing.T) {
	srv := newTestServer(t, nil, 2)

	codes := []int{}
	for i := 0; i < 3; i++ {
		rr := httptest.NewRecorder()
		srv.Handler.ServeHTTP(rr, graphqlRequest(testToken))
		codes = append(codes, rr.Code)
		if rr.Code == http.StatusTooManyRequests {
			assert.True(t, strings.Contains(rr.Body.String(), "RATE_LIMITED"))
		}
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}

func TestGraphQLHandlersGetRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := log.New(log.Config{Component: "app", Handler: log.NewHandler(&buf, slog.LevelInfo, "text")})
	srv := NewServer(":0", Options{
		GraphQL: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			log.FromContext(r.Context()).InfoContext(r.Context(), "handled")
			w.WriteHeader(http.StatusNoContent)
		}),
		Logger: logger,
	})
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })

	req := graphqlRequest("")
	req.Header.Set("X-Request-ID", "req-7")
	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, req)
	require.Equal(t, http.StatusNoContent, rr.Code)

	var line string
	for _, l := range strings.Split(buf.String(), "\n") {
		if strings.Contains(l, "msg=handled") {
			line = l
		}
	}
	require.NotEmpty(t, line, buf.String())
	assert.Contains(t, line, "request_id=req-7")
	assert.Contains(t, line, "component=graphql")
	assert.Equal(t, 1, strings.Count(line, "component="), line)
}
