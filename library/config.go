package library

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config carries the runtime settings of the ledger CLI.
type Config struct {
	// DBPath selects the SQLite backend; empty means in-memory only.
	DBPath string
	Policy Policy
}

// LoadConfig reads a .env file when present, then the environment. Missing
// variables fall back to defaults; malformed limits are an error.
func LoadConfig() (*Config, error) {
	// A missing .env is fine: the environment may be set directly.
	_ = godotenv.Load()

	cfg := &Config{
		DBPath: os.Getenv("LEDGER_DB_PATH"),
		Policy: DefaultPolicy,
	}

	var err error
	if cfg.Policy.BorrowLimit, err = intFromEnv("LEDGER_BORROW_LIMIT", DefaultPolicy.BorrowLimit); err != nil {
		return nil, err
	}
	if cfg.Policy.ReturnCeiling, err = intFromEnv("LEDGER_RETURN_CEILING", DefaultPolicy.ReturnCeiling); err != nil {
		return nil, err
	}
	return cfg, nil
}

func intFromEnv(key string, fallback int) (int, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%s must be a positive integer, got %q", key, raw)
	}
	return n, nil
}
