package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
)

const usage = `Usage: evotectl <command> [flags]

Commands:
  secret            print random secret key for SECRET_KEY
  hash-key <key>    print bcrypt hash of admin key for ADMIN_KEY_HASH
  issue-tokens      create voting tokens and print their codes
  seed-candidates   create or update candidates from YAML file
`

var errUsage = errors.New("invalid usage")

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	err := run(ctx, os.Getenv, os.Args[1:], os.Stdout)
	switch {
	case errors.Is(err, errUsage):
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	case err != nil:
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, getenv func(string) string, args []string, out io.Writer) error {
	if len(args) == 0 {
		return errUsage
	}

	cmd, args := args[0], args[1:]
	switch cmd {
	case "secret":
		return runSecret(out)
	case "hash-key":
		return runHashKey(args, out)
	case "issue-tokens":
		return runIssueTokens(ctx, getenv, args, out)
	case "seed-candidates":
		return runSeedCandidates(ctx, getenv, args, out)
	default:
		return fmt.Errorf("%w: unknown command %q", errUsage, cmd)
	}
}
