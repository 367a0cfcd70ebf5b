package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/nkiryanov/evote/internal/db"
	"github.com/nkiryanov/evote/internal/handlers"
	"github.com/nkiryanov/evote/internal/handlers/clientip"
	"github.com/nkiryanov/evote/internal/logger"
	"github.com/nkiryanov/evote/internal/metrics"
	"github.com/nkiryanov/evote/internal/ratelimit"
	"github.com/nkiryanov/evote/internal/repository/postgres"
	"github.com/nkiryanov/evote/internal/service/candidate"
	"github.com/nkiryanov/evote/internal/service/results"
	"github.com/nkiryanov/evote/internal/service/session"
	"github.com/nkiryanov/evote/internal/service/token"
	"github.com/nkiryanov/evote/internal/service/vote"
)

const (
	shutdownTimeout = 5 * time.Second
	rateLimitWindow = time.Minute
)

type limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

type ServerApp struct {
	ListenAddr string
	Handler    http.Handler

	logger logger.Logger

	// Work that lives as long as the server, like limiter sweeping
	background []func(ctx context.Context)

	// Released in reverse order when server stops
	closers []func()
}

func NewServerApp(ctx context.Context, c *Config) (_ *ServerApp, err error) {
	app := &ServerApp{ListenAddr: c.ListenAddr}
	defer func() {
		if err != nil {
			app.close()
		}
	}()

	// Initialize logger
	var out io.Writer
	if c.LogFile != "" {
		file := logger.FileOutput(c.LogFile)
		app.closers = append(app.closers, func() { _ = file.Close() })
		out = file
	}
	app.logger, err = logger.New(c.Environment, c.LogLevel, out)
	if err != nil {
		return nil, fmt.Errorf("error while initializing logger: %w", err)
	}

	// Connect to the database and run migrations
	pool, err := db.ConnectAndMigrate(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("error while connecting to db. Err: %w", err)
	}
	app.closers = append(app.closers, pool.Close)

	// Initialize repositories
	storage := postgres.NewStorage(pool)

	// Initialize services
	sessions, err := session.New(session.Config{
		SecretKey: c.SecretKey,
		Secure:    c.Environment == logger.EnvProduction,
	})
	if err != nil {
		return nil, fmt.Errorf("error while creating session manager. Err: %w", err)
	}
	tokenService := token.NewService(storage)
	voteService := vote.NewService(storage, tokenService)
	candidateService := candidate.NewService(storage)
	resultsService := results.NewService(storage.Vote())

	rl, err := app.newLimiter(ctx, c)
	if err != nil {
		return nil, err
	}
	proxies, err := clientip.NewResolver(c.TrustedProxies)
	if err != nil {
		return nil, err
	}

	metrics.MustRegister()

	app.Handler = handlers.NewRouter(handlers.Deps{
		Tokens:       tokenService,
		Votes:        voteService,
		Candidates:   candidateService,
		Results:      resultsService,
		Sessions:     sessions,
		Limiter:      rl,
		ClientKey:    proxies.Key,
		DB:           pool,
		AdminKeyHash: c.AdminKeyHash,
		Logger:       app.logger,
	})

	return app, nil
}

// Redis limiter when redis configured, otherwise per process one
func (s *ServerApp) newLimiter(ctx context.Context, c *Config) (limiter, error) {
	if c.RedisURL == "" {
		s.logger.Info("using in-memory rate limiter", "limit", c.ValidateRateLimit)
		m := ratelimit.NewMemory(c.ValidateRateLimit, rateLimitWindow)
		s.background = append(s.background, m.Run)
		return m, nil
	}

	client, err := ratelimit.Connect(ctx, c.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("error while connecting to redis. Err: %w", err)
	}
	s.closers = append(s.closers, func() { _ = client.Close() })

	s.logger.Info("using redis rate limiter", "limit", c.ValidateRateLimit)
	return ratelimit.NewRedis(client, c.ValidateRateLimit, rateLimitWindow), nil
}

func (s *ServerApp) close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
	s.closers = nil
}

// Run starts http server and closes gracefully on context cancellation
func (s *ServerApp) Run(ctx context.Context) error {
	defer s.close()

	httpServer := &http.Server{
		Addr:              s.ListenAddr,
		Handler:           s.Handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	idleConnsClosed := make(chan struct{})
	srvCtx, srvCtxCancel := context.WithCancel(ctx)
	defer srvCtxCancel()

	for _, fn := range s.background {
		go fn(srvCtx)
	}

	go func() {
		<-srvCtx.Done()

		timeoutCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := httpServer.Shutdown(timeoutCtx); errors.Is(err, context.DeadlineExceeded) {
			s.logger.Error("HTTP server shutdown timeout exceeded, forcing shutdown...")
		}
		s.logger.Info("HTTP server stopped")
		close(idleConnsClosed)
	}()

	// Listen and serve until context is cancelled; then close gracefully connections
	s.logger.Info("Starting server", "address", s.ListenAddr)
	err := httpServer.ListenAndServe()
	srvCtxCancel()
	<-idleConnsClosed

	return err
}
