package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/nkiryanov/evote/internal/db"
	"github.com/nkiryanov/evote/internal/models"
	"github.com/nkiryanov/evote/internal/repository/postgres"
	"github.com/nkiryanov/evote/internal/service/candidate"
)

// Seed file layout
//
//	candidates:
//	  - order_number: 1
//	    name: Budi Santoso
//	    class_name: XI IPA 2
//	    photo_url: https://example.com/budi.jpg
//	    vision: ...
//	    mission:
//	      - ...
type seedFile struct {
	Candidates []seedCandidate `yaml:"candidates"`
}

type seedCandidate struct {
	OrderNumber int      `yaml:"order_number"`
	Name        string   `yaml:"name"`
	ClassName   string   `yaml:"class_name"`
	PhotoURL    string   `yaml:"photo_url"`
	Vision      string   `yaml:"vision"`
	Mission     []string `yaml:"mission"`
}

func parseSeedFile(r io.Reader) ([]models.Candidate, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var f seedFile
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("invalid seed file: %w", err)
	}
	if len(f.Candidates) == 0 {
		return nil, fmt.Errorf("seed file has no candidates")
	}

	list := make([]models.Candidate, 0, len(f.Candidates))
	for _, sc := range f.Candidates {
		c := models.Candidate{
			Name:        sc.Name,
			Vision:      sc.Vision,
			Mission:     sc.Mission,
			OrderNumber: sc.OrderNumber,
			ClassName:   sc.ClassName,
		}
		if sc.PhotoURL != "" {
			photo := sc.PhotoURL
			c.PhotoURL = &photo
		}
		list = append(list, c)
	}

	return list, nil
}

func runSeedCandidates(ctx context.Context, getenv func(string) string, args []string, out io.Writer) error {
	var (
		dsn  = getenv("DATABASE_URI")
		path string
	)

	fs := pflag.NewFlagSet("seed-candidates", pflag.ContinueOnError)
	fs.StringVarP(&dsn, "database", "d", dsn, "Database connection string")
	fs.StringVarP(&path, "file", "f", "candidates.yaml", "YAML file with candidates")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %w", errUsage, err)
	}
	if dsn == "" {
		return fmt.Errorf("%w: database DSN is required", errUsage)
	}

	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close() // nolint:errcheck

	list, err := parseSeedFile(file)
	if err != nil {
		return err
	}

	pool, err := db.ConnectAndMigrate(ctx, dsn)
	if err != nil {
		return fmt.Errorf("error while connecting to db. Err: %w", err)
	}
	defer pool.Close()

	saved, err := candidate.NewService(postgres.NewStorage(pool)).Seed(ctx, list)
	if err != nil {
		return err
	}

	for _, c := range saved {
		if _, err := fmt.Fprintf(out, "#%d %s %s\n", c.OrderNumber, c.ID, c.Name); err != nil {
			return err
		}
	}
	return nil
}
