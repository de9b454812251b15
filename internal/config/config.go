package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type APIConfig struct {
	Addr             string
	DatabaseURL      string
	AdvisorURL       string
	AdvisorAPIKey    string
	AutoAdvanceEvery time.Duration
	RandSeed         int64

	PlayerName       string
	StartingCash     *float64
	StartingIncome   *float64
	StartingExpenses *float64
	StartingDebt     *float64
}

type CLIConfig struct {
	APIBaseURL string
}

func LoadAPIFromEnv() APIConfig {
	addr := os.Getenv("PORT")
	if addr != "" {
		if !strings.HasPrefix(addr, ":") {
			addr = ":" + addr
		}
	} else {
		addr = envDefault("CENTSIBLE_API_ADDR", ":8080")
	}

	cfg := APIConfig{
		Addr:             addr,
		DatabaseURL:      strings.TrimSpace(os.Getenv("DATABASE_URL")),
		AdvisorURL:       strings.TrimRight(strings.TrimSpace(os.Getenv("CENTSIBLE_ADVISOR_URL")), "/"),
		AdvisorAPIKey:    strings.TrimSpace(os.Getenv("CENTSIBLE_ADVISOR_API_KEY")),
		AutoAdvanceEvery: envDurationDefault("CENTSIBLE_AUTO_ADVANCE_EVERY", 0),
		RandSeed:         envInt64Default("CENTSIBLE_RAND_SEED", 0),
		PlayerName:       strings.TrimSpace(os.Getenv("CENTSIBLE_PLAYER_NAME")),
		StartingCash:     envOptionalFloat("CENTSIBLE_STARTING_CASH"),
		StartingIncome:   envOptionalFloat("CENTSIBLE_STARTING_INCOME"),
		StartingExpenses: envOptionalFloat("CENTSIBLE_STARTING_EXPENSES"),
		StartingDebt:     envOptionalFloat("CENTSIBLE_STARTING_DEBT"),
	}
	return cfg
}

func LoadCLIFromEnv() CLIConfig {
	return CLIConfig{
		APIBaseURL: strings.TrimRight(envDefault("CENTS_API_BASE_URL", "http://localhost:8080"), "/"),
	}
}

func envDefault(key, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	return v
}

func envDurationDefault(key string, fallback time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

func envInt64Default(key string, fallback int64) int64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return fallback
	}
	return n
}

func envOptionalFloat(key string) *float64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return nil
	}
	return &f
}
