package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"github.com/nkiryanov/evote/internal/handlers/clientip"
	"github.com/nkiryanov/evote/internal/logger"
)

const (
	defaultListenAddr        = "localhost:8000"
	defaultLoggingLevel      = logger.LevelInfo
	defaultEnvironment       = logger.EnvProduction
	defaultValidateRateLimit = 10
)

type Config struct {
	// Default logging level
	LogLevel string

	// Write logs to rotated file instead of stderr if set
	LogFile string

	// Address on which the evote service will be run
	ListenAddr string

	// Database to connect to
	DatabaseDSN string

	// Secret key
	// Session marker is signed with it
	SecretKey string

	// Environment
	Environment string

	// Redis to share rate limits between instances, in-memory limiter is used if empty
	RedisURL string

	// Token validation attempts per minute per client address
	ValidateRateLimit int

	// bcrypt hash of the admin key, admin API disabled if empty
	AdminKeyHash string

	// Reverse proxies (CIDR or address) whose X-Forwarded-For is believed when rate limiting
	// Empty means the service is reached directly and the connection peer is the client
	TrustedProxies []string
}

func NewConfig() *Config {
	return &Config{
		LogLevel:          defaultLoggingLevel,
		ListenAddr:        defaultListenAddr,
		Environment:       defaultEnvironment,
		ValidateRateLimit: defaultValidateRateLimit,
	}
}

// Load variable from '.env' file (should be located at working directory)
func (c *Config) LoadDotEnv(getwd func() (string, error)) error {
	wd, err := getwd()
	if err != nil {
		return err
	}

	envMap, err := godotenv.Read(filepath.Join(wd, ".env"))

	switch {
	case err == nil:
		return c.LoadEnv(func(key string) string {
			return envMap[key]
		})
	case errors.Is(err, os.ErrNotExist):
		return nil
	default:
		return err
	}
}

func (c *Config) LoadEnv(getenv func(string) string) error {
	// Set option to value if it not empty
	setString := func(o *string) func(value string) error {
		return func(value string) error {
			if value != "" {
				*o = value
			}
			return nil
		}
	}
	setInt := func(o *int) func(value string) error {
		return func(value string) error {
			if value == "" {
				return nil
			}
			n, err := strconv.Atoi(value)
			if err != nil {
				return err
			}
			*o = n
			return nil
		}
	}

	setList := func(o *[]string) func(value string) error {
		return func(value string) error {
			if value != "" {
				*o = strings.Split(value, ",")
			}
			return nil
		}
	}

	envMap := map[string]func(string) error{
		"RUN_ADDRESS":         setString(&c.ListenAddr),
		"DATABASE_URI":        setString(&c.DatabaseDSN),
		"SECRET_KEY":          setString(&c.SecretKey),
		"LOG_LEVEL":           setString(&c.LogLevel),
		"LOG_FILE":            setString(&c.LogFile),
		"ENVIRONMENT":         setString(&c.Environment),
		"REDIS_URL":           setString(&c.RedisURL),
		"VALIDATE_RATE_LIMIT": setInt(&c.ValidateRateLimit),
		"ADMIN_KEY_HASH":      setString(&c.AdminKeyHash),
		"TRUSTED_PROXIES":     setList(&c.TrustedProxies),
	}

	for key, parseFn := range envMap {
		if err := parseFn(getenv(key)); err != nil {
			return fmt.Errorf("invalid %s: %w", key, err)
		}
	}

	return nil
}

func (c *Config) ParseFlags(args []string) error {
	fs := pflag.NewFlagSet("evote", pflag.ContinueOnError)

	fs.StringVarP(&c.ListenAddr, "address", "a", c.ListenAddr, "Server listen address")
	fs.StringVarP(&c.DatabaseDSN, "database", "d", c.DatabaseDSN, "Database connection string")
	fs.StringVarP(&c.SecretKey, "secret-key", "s", c.SecretKey, "Secret key")
	fs.StringVarP(&c.LogLevel, "log-level", "l", c.LogLevel, "Logging level (debug, info, warn, error)")
	fs.StringVar(&c.LogFile, "log-file", c.LogFile, "Log file path, stderr if empty")
	fs.StringVarP(&c.Environment, "environment", "e", c.Environment, "Environment (development, production, testing)")
	fs.StringVar(&c.RedisURL, "redis", c.RedisURL, "Redis url for shared rate limits")
	fs.IntVar(&c.ValidateRateLimit, "rate-limit", c.ValidateRateLimit, "Token validation attempts per minute per client")
	fs.StringVar(&c.AdminKeyHash, "admin-key-hash", c.AdminKeyHash, "bcrypt hash of admin key")
	fs.StringSliceVar(&c.TrustedProxies, "trusted-proxies", c.TrustedProxies, "Reverse proxies allowed to set X-Forwarded-For (CIDR or address)")

	return fs.Parse(args)
}

// Check config is complete enough to start the server
func (c *Config) Validate() error {
	var errs []error

	if c.DatabaseDSN == "" {
		errs = append(errs, errors.New("database DSN is required"))
	}
	if c.SecretKey == "" {
		errs = append(errs, errors.New("secret key is required"))
	}
	if c.ValidateRateLimit < 1 {
		errs = append(errs, fmt.Errorf("rate limit must be positive, got %d", c.ValidateRateLimit))
	}
	if _, err := clientip.NewResolver(c.TrustedProxies); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}
