package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"go.yaml.in/yaml/v4"

	configtypes "github.com/daszybak/polymarket_cli/internal/config"
	"github.com/daszybak/polymarket_cli/internal/polymarket/clob"
	"github.com/daszybak/polymarket_cli/internal/polymarket/gamma"
)

const (
	cacheMemory = "memory"
	cacheRedis  = "redis"
)

type config struct {
	Log       configtypes.LogConfig `yaml:"log"`
	Platforms struct {
		PolyMarket struct {
			GammaURL     string               `yaml:"gamma_url" env:"POLYMARKET_GAMMA_URL"`
			ClobURL      string               `yaml:"clob_url" env:"POLYMARKET_CLOB_URL"`
			Timeout      configtypes.Duration `yaml:"timeout"`
			Retries      int                  `yaml:"retries"`
			RetryBackoff configtypes.Duration `yaml:"retry_backoff"`
			ExpandBinary bool                 `yaml:"expand_binary"`
		} `yaml:"polymarket"`
	} `yaml:"platforms"`
	Cache struct {
		Backend  string               `yaml:"backend" env:"POLYMARKET_CACHE_BACKEND"` // memory, redis
		TTL      configtypes.Duration `yaml:"ttl"`
		RedisURL string               `yaml:"redis_url" env:"REDIS_URL"`
	} `yaml:"cache"`
	Enrich struct {
		Concurrency      int    `yaml:"concurrency"`
		OutcomesPerEvent int    `yaml:"outcomes_per_event"`
		Interval         string `yaml:"interval"`
		Fidelity         int    `yaml:"fidelity"`
	} `yaml:"enrich"`
	Recommend struct {
		Pool           int                  `yaml:"pool"`
		MinTimeToClose configtypes.Duration `yaml:"min_time_to_close"`
	} `yaml:"recommend"`
}

func defaultConfig() *config {
	cfg := &config{}
	cfg.Log.Level = "warn"
	cfg.Log.Encoding = "console"

	pm := &cfg.Platforms.PolyMarket
	pm.GammaURL = gamma.DefaultBaseURL
	pm.ClobURL = clob.DefaultBaseURL
	pm.Timeout = configtypes.Duration(10 * time.Second)
	pm.Retries = 2
	pm.RetryBackoff = configtypes.Duration(250 * time.Millisecond)

	cfg.Cache.Backend = cacheMemory
	cfg.Cache.TTL = configtypes.Duration(60 * time.Second)

	cfg.Enrich.Concurrency = 20
	cfg.Enrich.OutcomesPerEvent = 5
	cfg.Enrich.Interval = "1d"
	cfg.Enrich.Fidelity = 60

	cfg.Recommend.Pool = 30
	cfg.Recommend.MinTimeToClose = configtypes.Duration(72 * time.Hour)
	return cfg
}

// readConfig layers the yaml file (optional when configPath is empty) and
// environment variables, read from .env as well, over the defaults.
func readConfig(configPath string) (*config, error) {
	cfg := defaultConfig()

	if configPath != "" {
		rawConfig, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("couldn't read file %s: %w", configPath, err)
		}
		if err = yaml.Unmarshal(rawConfig, cfg); err != nil {
			return nil, fmt.Errorf("couldn't parse config: %w", err)
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("couldn't load .env: %w", err)
	}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("couldn't parse environment: %w", err)
	}

	if err := validateConfig(cfg); err != nil {
		return nil, fmt.Errorf("couldn't validate config: %w", err)
	}

	return cfg, nil
}

func validateConfig(cfg *config) error {
	// Polymarket
	pm := cfg.Platforms.PolyMarket
	if pm.GammaURL == "" {
		return fmt.Errorf("platforms.polymarket.gamma_url is required")
	}
	if pm.ClobURL == "" {
		return fmt.Errorf("platforms.polymarket.clob_url is required")
	}
	if pm.Timeout.Duration() <= 0 {
		return fmt.Errorf("platforms.polymarket.timeout must be greater than 0")
	}
	if pm.Retries < 0 {
		return fmt.Errorf("platforms.polymarket.retries must not be negative")
	}

	// Cache
	switch cfg.Cache.Backend {
	case cacheMemory:
	case cacheRedis:
		if cfg.Cache.RedisURL == "" {
			return fmt.Errorf("cache.redis_url is required for the redis backend")
		}
	default:
		return fmt.Errorf("cache.backend must be %s or %s", cacheMemory, cacheRedis)
	}
	if cfg.Cache.TTL.Duration() <= 0 {
		return fmt.Errorf("cache.ttl must be greater than 0")
	}

	// Enrichment
	if cfg.Enrich.Concurrency <= 0 {
		return fmt.Errorf("enrich.concurrency must be greater than 0")
	}
	if cfg.Enrich.OutcomesPerEvent <= 0 {
		return fmt.Errorf("enrich.outcomes_per_event must be greater than 0")
	}
	if cfg.Enrich.Interval == "" {
		return fmt.Errorf("enrich.interval is required")
	}
	if cfg.Enrich.Fidelity <= 0 {
		return fmt.Errorf("enrich.fidelity must be greater than 0")
	}

	// Recommend
	if cfg.Recommend.Pool <= 0 {
		return fmt.Errorf("recommend.pool must be greater than 0")
	}

	return nil
}
