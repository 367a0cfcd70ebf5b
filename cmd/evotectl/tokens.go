package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/pflag"

	"github.com/nkiryanov/evote/internal/db"
	"github.com/nkiryanov/evote/internal/repository/postgres"
	"github.com/nkiryanov/evote/internal/service/token"
)

func runIssueTokens(ctx context.Context, getenv func(string) string, args []string, out io.Writer) error {
	var (
		dsn    = getenv("DATABASE_URI")
		params token.IssueParams
	)

	fs := pflag.NewFlagSet("issue-tokens", pflag.ContinueOnError)
	fs.StringVarP(&dsn, "database", "d", dsn, "Database connection string")
	fs.IntVarP(&params.Count, "count", "n", 1, "How many tokens to issue")
	fs.StringVar(&params.Prefix, "prefix", "", "Code prefix, VOTE-<year> if empty")
	fs.DurationVar(&params.ExpiresIn, "expires-in", 0, "Token lifetime like 72h, never expires if zero")
	fs.StringVar(&params.Description, "description", "", "Note stored with every token")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %w", errUsage, err)
	}
	if dsn == "" {
		return fmt.Errorf("%w: database DSN is required", errUsage)
	}

	pool, err := db.ConnectAndMigrate(ctx, dsn)
	if err != nil {
		return fmt.Errorf("error while connecting to db. Err: %w", err)
	}
	defer pool.Close()

	tokens, err := token.NewService(postgres.NewStorage(pool)).Issue(ctx, params)
	if err != nil {
		return err
	}

	for _, t := range tokens {
		if _, err := fmt.Fprintln(out, t.Code); err != nil {
			return err
		}
	}
	return nil
}
