// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package cliparse

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port         int
	DatabaseURL  string
	DatabaseType string
	SeedData     bool

	// Gate policy
	VoteDeadline     string
	AllowedCountries []string
	GateOrder        []string
	RegionAction     string
	ForceCountry     string

	// Identity
	SessionSecret    string
	OIDCIssuer       string
	OIDCClientID     string
	OIDCClientSecret string
	BaseURL          string
	DevLogin         bool

	SelectionStorePath string
	RankingRefresh     time.Duration
	ResultsPoll        time.Duration

	DefaultLocale string
	LogLevel      string
	CSRFKey       string
	CORSOrigins   []string
}

// CookieSecure reports whether cookies should carry the Secure flag
func (c Config) CookieSecure() bool {
	return strings.HasPrefix(c.BaseURL, "https://")
}

// LoadEnvFile loads KEY=VALUE pairs from the given files into the process
// environment. Missing files are not an error; existing variables win.
func LoadEnvFile(paths ...string) error {
	for _, p := range paths {
		if _, err := os.Stat(p); errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("failed to load %s: %w", p, err)
		}
	}
	return nil
}

// ParseFlags validates flags and fills the rest from the environment
func ParseFlags(args []string) (Config, error) {
	var cfg Config
	var countries, gateOrder, corsOrigins string
	var refresh, poll string

	fs := flag.NewFlagSet("quickly-vote", flag.ContinueOnError)

	// Network config (can be CLI args or env)
	fs.IntVar(&cfg.Port, "p", 0, "Server port")
	fs.StringVar(&cfg.DatabaseURL, "d", "", "Database URL")
	fs.StringVar(&cfg.DatabaseType, "t", "", "Database type (sqlite or postgres)")
	fs.BoolVar(&cfg.SeedData, "seed", false, "Insert default countries and teams")

	// Voting policy
	fs.StringVar(&cfg.VoteDeadline, "deadline", "", "Voting deadline (RFC3339)")
	fs.StringVar(&countries, "countries", "", "Comma-separated allowed country codes")
	fs.StringVar(&gateOrder, "gate-order", "", "Comma-separated gate rule order")

	// Identity (prefer env variables, but allow CLI for dev)
	fs.StringVar(&cfg.SessionSecret, "session-secret", "", "Session signing secret (prefer env)")
	fs.StringVar(&cfg.OIDCIssuer, "oidc-issuer", "", "OIDC issuer URL")
	fs.StringVar(&cfg.BaseURL, "base-url", "", "Public base URL")
	fs.BoolVar(&cfg.DevLogin, "dev-login", false, "Sign in without an identity provider")

	fs.StringVar(&cfg.SelectionStorePath, "selection-store", "", "BoltDB file for wizard selections")
	fs.StringVar(&refresh, "ranking-refresh", "", "Ranking refresh interval")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	// Fall back to environment variables
	if cfg.Port == 0 {
		if portStr := os.Getenv("PORT"); portStr != "" {
			port, err := strconv.Atoi(portStr)
			if err != nil {
				return Config{}, errors.New("invalid PORT env variable")
			}
			cfg.Port = port
		} else {
			cfg.Port = 3318 // default
		}
	}
	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	}
	if cfg.DatabaseURL == "" {
		return Config{}, errors.New("database URL required (use -d or DATABASE_URL env)")
	}

	if cfg.DatabaseType == "" {
		cfg.DatabaseType = getEnv("DATABASE_TYPE", "sqlite")
	}
	if cfg.DatabaseType != "sqlite" && cfg.DatabaseType != "postgres" {
		return Config{}, fmt.Errorf("unsupported database type %q", cfg.DatabaseType)
	}
	if !cfg.SeedData {
		cfg.SeedData = envBool("SEED_DATA")
	}

	if cfg.VoteDeadline == "" {
		cfg.VoteDeadline = os.Getenv("VOTE_DEADLINE")
	}
	if countries == "" {
		countries = getEnv("ALLOWED_COUNTRIES", "KR")
	}
	cfg.AllowedCountries = splitList(strings.ToUpper(countries))

	if gateOrder == "" {
		gateOrder = getEnv("GATE_ORDER", "closed,region,webview,auth")
	}
	cfg.GateOrder = splitList(gateOrder)

	cfg.RegionAction = getEnv("GATE_REGION_ACTION", "redirect")
	if cfg.RegionAction != "redirect" && cfg.RegionAction != "reject" {
		return Config{}, errors.New("GATE_REGION_ACTION must be redirect or reject")
	}
	cfg.ForceCountry = strings.ToUpper(os.Getenv("FORCE_COUNTRY"))

	// Secrets - MUST be provided
	if cfg.SessionSecret == "" {
		cfg.SessionSecret = os.Getenv("SESSION_SECRET")
	}
	if cfg.SessionSecret == "" {
		return Config{}, errors.New("SESSION_SECRET required")
	}

	if !cfg.DevLogin {
		cfg.DevLogin = envBool("AUTH_DEV_MODE")
	}
	if cfg.OIDCIssuer == "" {
		cfg.OIDCIssuer = os.Getenv("OIDC_ISSUER")
	}
	cfg.OIDCClientID = os.Getenv("OIDC_CLIENT_ID")
	cfg.OIDCClientSecret = os.Getenv("OIDC_CLIENT_SECRET")
	if !cfg.DevLogin && (cfg.OIDCIssuer == "" || cfg.OIDCClientID == "" || cfg.OIDCClientSecret == "") {
		return Config{}, errors.New("OIDC_ISSUER, OIDC_CLIENT_ID and OIDC_CLIENT_SECRET required (or AUTH_DEV_MODE=true)")
	}

	if cfg.BaseURL == "" {
		cfg.BaseURL = getEnv("BASE_URL", "http://localhost:"+strconv.Itoa(cfg.Port))
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	if cfg.SelectionStorePath == "" {
		cfg.SelectionStorePath = os.Getenv("SELECTION_STORE")
	}

	var err error
	if refresh == "" {
		refresh = getEnv("RANKING_REFRESH", "30s")
	}
	if cfg.RankingRefresh, err = time.ParseDuration(refresh); err != nil || cfg.RankingRefresh < time.Second {
		return Config{}, errors.New("RANKING_REFRESH must be a duration of at least 1s")
	}
	if poll == "" {
		poll = getEnv("RESULTS_POLL", "100s")
	}
	if cfg.ResultsPoll, err = time.ParseDuration(poll); err != nil || cfg.ResultsPoll < time.Second {
		return Config{}, errors.New("RESULTS_POLL must be a duration of at least 1s")
	}

	cfg.DefaultLocale = getEnv("DEFAULT_LOCALE", "ko")
	cfg.LogLevel = getEnv("LOG_LEVEL", "info")
	cfg.CSRFKey = os.Getenv("CSRF_KEY")
	if cfg.CSRFKey != "" && len(cfg.CSRFKey) != 32 {
		return Config{}, errors.New("CSRF_KEY must be exactly 32 bytes")
	}

	if corsOrigins == "" {
		corsOrigins = os.Getenv("CORS_ORIGINS")
	}
	cfg.CORSOrigins = splitList(corsOrigins)

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envBool(key string) bool {
	v, err := strconv.ParseBool(os.Getenv(key))
	return err == nil && v
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
