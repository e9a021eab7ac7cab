package main

import (
	"flag"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/warp/leave-planner/narration"
)

// config is the server configuration. Flags carry deployment settings,
// the environment carries secrets.
type config struct {
	Port         int
	DBPath       string
	PoliciesPath string
	Origins      []string

	Narration        narration.ChatConfig
	NarrationEnabled bool

	PriceSearchKey    string
	PriceSearchEngine string
	PriceCheckEvery   time.Duration
}

// parseConfig reads flags from args and secrets from getenv.
func parseConfig(args []string, getenv func(string) string) (config, error) {
	var cfg config

	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	fs.IntVar(&cfg.Port, "port", 8080, "HTTP server port")
	fs.StringVar(&cfg.DBPath, "db", "leave.db", "SQLite database path")
	fs.StringVar(&cfg.PoliciesPath, "policies", "", "YAML policy table (default: built-in table)")
	origins := fs.String("origins", "", "Comma-separated CORS origins (default: local dev servers)")
	fs.DurationVar(&cfg.PriceCheckEvery, "price-check", 24*time.Hour, "How often to check for stale baby product prices")
	if err := fs.Parse(args); err != nil {
		return config{}, err
	}

	if *origins != "" {
		for _, o := range strings.Split(*origins, ",") {
			if o = strings.TrimSpace(o); o != "" {
				cfg.Origins = append(cfg.Origins, o)
			}
		}
	}
	if cfg.PriceCheckEvery <= 0 {
		return config{}, fmt.Errorf("-price-check must be positive, got %v", cfg.PriceCheckEvery)
	}

	cfg.Narration = narration.ChatConfig{
		BaseURL: getenv("NARRATION_BASE_URL"),
		APIKey:  getenv("NARRATION_API_KEY"),
		Model:   getenv("NARRATION_MODEL"),
	}

	// Narration is on whenever a key is present, unless switched off.
	cfg.NarrationEnabled = cfg.Narration.APIKey != ""
	if raw := getenv("NARRATION_ENABLED"); raw != "" {
		enabled, err := strconv.ParseBool(raw)
		if err != nil {
			return config{}, fmt.Errorf("NARRATION_ENABLED: %w", err)
		}
		cfg.NarrationEnabled = enabled && cfg.Narration.APIKey != ""
	}

	cfg.PriceSearchKey = getenv("PRICE_SEARCH_KEY")
	cfg.PriceSearchEngine = getenv("PRICE_SEARCH_ENGINE_ID")

	return cfg, nil
}

// priceRefreshEnabled reports whether search credentials are configured.
func (c config) priceRefreshEnabled() bool {
	return c.PriceSearchKey != "" && c.PriceSearchEngine != ""
}
