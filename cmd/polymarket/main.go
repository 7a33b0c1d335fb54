package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mattn/go-isatty"
	"go.uber.org/zap"

	"github.com/daszybak/polymarket_cli/internal/cache"
	"github.com/daszybak/polymarket_cli/internal/history"
	"github.com/daszybak/polymarket_cli/internal/logger"
	"github.com/daszybak/polymarket_cli/internal/polymarket"
	"github.com/daszybak/polymarket_cli/pkg/httpclient"
)

func main() {
	configPath := flag.String("config", "", "path to config file (optional)")
	flag.Usage = func() { usage(os.Stderr) }
	flag.Parse()

	os.Exit(run(*configPath, flag.Args()))
}

func run(configPath string, args []string) int {
	if len(args) == 0 {
		usage(os.Stderr)
		return 2
	}

	cfg, err := readConfig(configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "config error:", err)
		return 1
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		fmt.Fprintln(os.Stderr, "logger error:", err)
		return 1
	}
	defer log.Sync()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	historyCache, closeCache := newCache(ctx, cfg, log)
	defer closeCache()

	pm := cfg.Platforms.PolyMarket
	a := &app{
		platform: polymarket.New(polymarket.Config{
			GammaURL: pm.GammaURL,
			ClobURL:  pm.ClobURL,
			Timeout:  pm.Timeout.Duration(),
			Retry: httpclient.Retry{
				Attempts: pm.Retries,
				Backoff:  pm.RetryBackoff.Duration(),
			},
			History: history.Config{
				Interval: cfg.Enrich.Interval,
				Fidelity: cfg.Enrich.Fidelity,
			},
			Concurrency:      cfg.Enrich.Concurrency,
			OutcomesPerEvent: cfg.Enrich.OutcomesPerEvent,
			ExpandBinary:     pm.ExpandBinary,
			MinTimeToClose:   cfg.Recommend.MinTimeToClose.Duration(),
		}, historyCache, log),
		out:          os.Stdout,
		errOut:       os.Stderr,
		terminal:     isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd()),
		defaultPool:  cfg.Recommend.Pool,
		outcomeLimit: cfg.Enrich.OutcomesPerEvent,
	}

	if err := a.dispatch(ctx, args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

// newCache builds the configured history cache. An unreachable redis falls
// back to the in-process cache since caching only saves requests.
func newCache(ctx context.Context, cfg *config, log *zap.Logger) (cache.Cache, func()) {
	ttl := cfg.Cache.TTL.Duration()
	if cfg.Cache.Backend != cacheRedis {
		return cache.NewMemory(ttl), func() {}
	}

	client, err := cache.ConnectRedis(ctx, cfg.Cache.RedisURL)
	if err != nil {
		log.Warn("redis cache unavailable, using memory cache", zap.Error(err))
		return cache.NewMemory(ttl), func() {}
	}
	return cache.NewRedis(client, ttl, log), func() {
		if err := client.Close(); err != nil {
			log.Warn("close redis", zap.Error(err))
		}
	}
}
