package handlers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/nkiryanov/evote/internal/handlers/clientip"
	"github.com/nkiryanov/evote/internal/handlers/middleware"
	"github.com/nkiryanov/evote/internal/logger"
	"github.com/nkiryanov/evote/internal/metrics"
	"github.com/nkiryanov/evote/internal/models"
	"github.com/nkiryanov/evote/internal/service/token"
	"github.com/nkiryanov/evote/internal/service/vote"
)

// chain applies middlewares in the given order: m1(m2(...(h)))
func chain(h http.Handler, mds ...func(next http.Handler) http.Handler) http.Handler {
	for i := len(mds) - 1; i >= 0; i-- {
		h = mds[i](h)
	}
	return h
}

type Deps struct {
	Tokens     tokenService
	Votes      voteService
	Candidates candidateService
	Results    resultsService
	Sessions   sessionManager

	// Throttles token validation attempts
	Limiter limiter

	// Address token validation attempts are counted by, connection peer if nil
	ClientKey func(*http.Request) string

	// Database health check
	DB pinger

	// bcrypt hash of admin key, admin API disabled if empty
	AdminKeyHash string

	Logger logger.Logger
}

func NewRouter(d Deps) http.Handler {
	withAdmin := middleware.AdminKeyMiddleware(d.AdminKeyHash)
	clientKey := d.ClientKey
	if clientKey == nil {
		clientKey = clientip.Peer
	}
	withLimit := func(rejected http.Handler) func(http.Handler) http.Handler {
		return middleware.RateLimit(d.Limiter, clientKey, d.Logger, rejected)
	}

	api := http.NewServeMux()

	api.Handle("GET /candidates", handleAPIListCandidates(d.Candidates, d.Logger))
	api.Handle("GET /candidates/{id}", handleAPIGetCandidate(d.Candidates, d.Logger))
	api.Handle("GET /results", handleAPIResults(d.Results, d.Logger))
	api.Handle("GET /votes/total", handleAPITotalVotes(d.Results, d.Logger))
	api.Handle("POST /token/validate", withLimit(handleAPIRateLimited())(handleAPIValidateToken(d.Tokens, d.Sessions, d.Logger)))
	api.Handle("POST /votes", handleAPISubmitVote(d.Votes, d.Sessions, d.Logger))
	api.Handle("GET /votes/me", handleAPIVotedMe(d.Votes, d.Logger))
	api.Handle("DELETE /session", handleAPIClearSession(d.Sessions))
	api.Handle("POST /admin/tokens", withAdmin(handleAPIIssueTokens(d.Tokens, d.Logger)))

	root := http.NewServeMux()
	root.Handle("/api/", http.StripPrefix("/api", api))
	root.Handle("GET /healthz", handleHealth(d.DB, d.Logger))
	root.Handle("GET /metrics", metrics.Handler())

	root.Handle("GET /{$}", handleHome(d.Candidates, d.Results, d.Logger))
	root.Handle("GET /candidates", handleCandidates(d.Candidates, d.Logger))
	root.Handle("GET /candidates/{id}", handleCandidate(d.Candidates, d.Logger))
	root.Handle("GET /results", handleResults(d.Results, d.Logger))

	root.Handle("GET /vote", handleVotePage(d.Tokens, d.Candidates, d.Sessions, d.Logger))
	root.Handle("POST /vote/token", withLimit(handleVoteRateLimited())(handleVoteToken(d.Tokens, d.Sessions, d.Logger)))
	root.Handle("POST /vote/submit", handleVoteSubmit(d.Votes, d.Candidates, d.Sessions, d.Logger))

	root.Handle("/", handleNotFound())

	handler := chain(root,
		middleware.LoggerMiddleware(d.Logger),
		middleware.MetricsMiddleware(),
		middleware.SessionMiddleware(d.Sessions),
	)

	return handler
}

type tokenService interface {
	// Validate user entered code
	// Has to return apperrors.ErrTokenCodeEmpty if code is blank
	// Unknown, used or expired token is not an error
	Validate(ctx context.Context, raw string) (models.Validation, error)

	// Returns nil if token still may be used to vote
	// Otherwise apperrors.ErrTokenNotFound, ErrTokenUsed or ErrTokenExpired
	Rejection(ctx context.Context, tokenID uuid.UUID) error

	Issue(ctx context.Context, p token.IssueParams) ([]models.Token, error)
}

type voteService interface {
	// Look at vote.VoteService.Submit for returned errors
	Submit(ctx context.Context, b vote.Ballot) (models.Vote, error)
	HasVoted(ctx context.Context, tokenID uuid.UUID) (bool, error)
}

type candidateService interface {
	List(ctx context.Context) ([]models.Candidate, error)

	// Has to return apperrors.ErrCandidateNotFound if id malformed or there is no such candidate
	Get(ctx context.Context, id string) (models.Candidate, error)

	Count(ctx context.Context) (int, error)
}

type resultsService interface {
	List(ctx context.Context) (models.Tally, error)
	TotalVotes(ctx context.Context) (int, error)
}

type sessionManager interface {
	Set(w http.ResponseWriter, tokenID uuid.UUID) error
	FromRequest(r *http.Request) (uuid.UUID, error)
	Clear(w http.ResponseWriter)
}

type limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

type pinger interface {
	Ping(ctx context.Context) error
}
