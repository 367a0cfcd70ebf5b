package handlers

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/nkiryanov/evote/internal/logger"
	"github.com/nkiryanov/evote/internal/models"
	"github.com/nkiryanov/evote/internal/ratelimit"
	"github.com/nkiryanov/evote/internal/repository/postgres"
	"github.com/nkiryanov/evote/internal/service/candidate"
	"github.com/nkiryanov/evote/internal/service/results"
	"github.com/nkiryanov/evote/internal/service/session"
	"github.com/nkiryanov/evote/internal/service/token"
	"github.com/nkiryanov/evote/internal/service/vote"
)

const testAdminKey = "admin-key"

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error { return f(ctx) }

type services struct {
	Storage    *postgres.Storage
	Tokens     *token.TokenService
	Candidates *candidate.CandidateService
}

func (s services) createToken(t *testing.T, code string, expiresAt *time.Time) models.Token {
	created, err := s.Storage.Token().Create(t.Context(), models.Token{
		ID:        uuid.New(),
		Code:      code,
		CreatedAt: time.Now(),
		ExpiresAt: expiresAt,
	})
	require.NoError(t, err, "token has to be created")
	return created
}

func (s services) seedCandidates(t *testing.T, names ...string) []models.Candidate {
	list := make([]models.Candidate, 0, len(names))
	for i, name := range names {
		list = append(list, models.Candidate{
			Name:        name,
			Vision:      "Visi " + name,
			Mission:     []string{"Misi " + name},
			OrderNumber: i + 1,
			ClassName:   "XII IPA",
		})
	}

	seeded, err := s.Candidates.Seed(t.Context(), list)
	require.NoError(t, err, "candidates have to be seeded")
	return seeded
}

// Run server with real services over given connection (pool or transaction)
func serve(t *testing.T, db postgres.DBTX, opts ...func(*Deps)) (string, services) {
	t.Helper()

	storage := postgres.NewStorage(db)
	tokens := token.NewService(storage)
	candidates := candidate.NewService(storage)

	sessions, err := session.New(session.Config{SecretKey: "test-secret"})
	require.NoError(t, err)

	hash, err := bcrypt.GenerateFromPassword([]byte(testAdminKey), bcrypt.MinCost)
	require.NoError(t, err)

	deps := Deps{
		Tokens:       tokens,
		Votes:        vote.NewService(storage, tokens),
		Candidates:   candidates,
		Results:      results.NewService(storage.Vote()),
		Sessions:     sessions,
		Limiter:      ratelimit.NewMemory(1000, time.Minute),
		DB:           pingerFunc(func(context.Context) error { return nil }),
		AdminKeyHash: string(hash),
		Logger:       logger.NewNoOpLogger(),
	}
	for _, opt := range opts {
		opt(&deps)
	}

	srv := httptest.NewServer(NewRouter(deps))
	t.Cleanup(srv.Close)

	return srv.URL, services{Storage: storage, Tokens: tokens, Candidates: candidates}
}

// Client that keeps cookies like a browser
func newClient(t *testing.T) *http.Client {
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &http.Client{Jar: jar}
}

func hasSessionCookie(t *testing.T, c *http.Client, srvURL string) bool {
	u, err := url.Parse(srvURL)
	require.NoError(t, err)

	for _, cookie := range c.Jar.Cookies(u) {
		if cookie.Name == session.CookieName && cookie.Value != "" {
			return true
		}
	}
	return false
}

func doJSON(t *testing.T, c *http.Client, method string, target string, body string) (int, string) {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = bytes.NewBufferString(body)
	}
	req, err := http.NewRequest(method, target, reader)
	require.NoError(t, err, "failed to create request")
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	return do(t, c, req)
}

func postForm(t *testing.T, c *http.Client, target string, values url.Values) (int, string) {
	t.Helper()

	req, err := http.NewRequest(http.MethodPost, target, strings.NewReader(values.Encode()))
	require.NoError(t, err, "failed to create request")
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	return do(t, c, req)
}

func do(t *testing.T, c *http.Client, req *http.Request) (int, string) {
	t.Helper()

	resp, err := c.Do(req)
	require.NoError(t, err, "failed to send request")
	defer resp.Body.Close() // nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err, "failed to read response body")

	return resp.StatusCode, string(body)
}
