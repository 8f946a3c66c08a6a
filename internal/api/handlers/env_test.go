// Handler tests run against a real migrated SQLite DB, no mocking of the
// stores; only the completion call is stubbed.
package handlers

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/matiasleandrokruk/simonsays/internal/api/ctxkeys"
	domainauth "github.com/matiasleandrokruk/simonsays/internal/domain/auth"
	"github.com/matiasleandrokruk/simonsays/internal/domain/coach"
	"github.com/matiasleandrokruk/simonsays/internal/domain/conversation"
	"github.com/matiasleandrokruk/simonsays/internal/domain/marketplace"
	"github.com/matiasleandrokruk/simonsays/internal/domain/profile"
	"github.com/matiasleandrokruk/simonsays/internal/domain/usage"
	"github.com/matiasleandrokruk/simonsays/internal/infra/billing"
	"github.com/matiasleandrokruk/simonsays/internal/infra/llm"
	"github.com/matiasleandrokruk/simonsays/internal/infra/sqlite/sqlitetest"
	pkgauth "github.com/matiasleandrokruk/simonsays/pkg/auth"
)

const testSecret = "test-secret-key-32-chars-min!!!"

// stubCompleter answers every completion with text, or fails with err.
type stubCompleter struct {
	mu    sync.Mutex
	text  string
	err   error
	calls []llm.Request
}

func (s *stubCompleter) Complete(_ context.Context, req llm.Request) (*llm.Response, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, req)
	if s.err != nil {
		return nil, s.err
	}
	return &llm.Response{Text: s.text, Attempts: 1}, nil
}

type testEnv struct {
	db            *sql.DB
	tokens        *pkgauth.TokenIssuer
	auth          *domainauth.Service
	profiles      *profile.Service
	conversations *conversation.Service
	usage         *usage.Service
	marketplace   *marketplace.Service
	entitlements  billing.StaticChecker
	completer     *stubCompleter
	chat          *coach.ChatService
}

func newTestEnv(t *testing.T, dailyLimit int, proUsers ...string) *testEnv {
	t.Helper()
	db := sqlitetest.Open(t)
	tokens, err := pkgauth.NewTokenIssuer(testSecret, time.Hour)
	require.NoError(t, err)

	pro := map[string]bool{}
	for _, id := range proUsers {
		pro[id] = true
	}
	env := &testEnv{
		db:            db,
		tokens:        tokens,
		auth:          domainauth.NewService(db, tokens, nil),
		profiles:      profile.NewService(db),
		conversations: conversation.NewService(db),
		usage:         usage.NewService(db, dailyLimit),
		entitlements:  billing.StaticChecker{Users: pro},
		completer:     &stubCompleter{text: "Pick one task and start a 25 minute timer."},
	}
	env.marketplace = marketplace.NewService(db, env.entitlements)
	env.chat = coach.NewChatService(env.profiles, env.conversations, env.usage, env.entitlements, env.completer)
	return env
}

// seedUser creates a user with an empty profile.
func (e *testEnv) seedUser(t *testing.T, id string) {
	t.Helper()
	sqlitetest.SeedUser(t, e.db, id)
	_, err := e.profiles.Save(context.Background(), id, profile.Input{})
	require.NoError(t, err)
}

// serve routes one request through a chi router so URL params resolve.
func serve(t *testing.T, method, pattern, path, userID string, body any, h http.HandlerFunc) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		require.NoError(t, json.NewEncoder(&buf).Encode(b))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		req = req.WithContext(ctxkeys.WithValue(req.Context(), ctxkeys.UserID, userID))
	}

	r := chi.NewRouter()
	r.MethodFunc(method, pattern, h)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v), rr.Body.String())
	return v
}

func errorMessage(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	return decode[map[string]string](t, rr)["error"]
}
