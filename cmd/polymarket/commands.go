package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/daszybak/polymarket_cli/internal/aggregate"
	"github.com/daszybak/polymarket_cli/internal/platform"
	"github.com/daszybak/polymarket_cli/internal/render"
)

func usage(w io.Writer) {
	fmt.Fprint(w, `polymarket [-config path] <command> [flags]

Commands:
  dashboard            top events by 24h volume with price moves
  markets              top events by total volume
  market <slug>        detail of one event
  search <query>       events whose title contains every term
  recommend            single outcome with the strongest upward momentum

Output is a table on a terminal and JSON otherwise; -format json forces JSON.
Run "polymarket <command> -h" for command flags.
`)
}

type app struct {
	platform     platform.Platform
	out          io.Writer
	errOut       io.Writer
	terminal     bool
	defaultPool  int
	outcomeLimit int
}

func (a *app) dispatch(ctx context.Context, args []string) error {
	if len(args) == 0 {
		usage(a.errOut)
		return errors.New("missing command")
	}
	switch args[0] {
	case "dashboard":
		return a.dashboard(ctx, args[1:])
	case "markets":
		return a.markets(ctx, args[1:])
	case "market":
		return a.market(ctx, args[1:])
	case "search":
		return a.search(ctx, args[1:])
	case "recommend":
		return a.recommend(ctx, args[1:])
	case "help", "-h", "--help":
		usage(a.out)
		return nil
	default:
		usage(a.errOut)
		return fmt.Errorf("unknown command: %s", args[0])
	}
}

func (a *app) dashboard(ctx context.Context, args []string) error {
	fs := a.flagSet("dashboard")
	limit := fs.Int("n", 10, "number of events")
	sort := fs.String("sort", string(aggregate.SortVolume24h), "volume_24hr, volume, liquidity or end_date")
	noDeltas := fs.Bool("no-deltas", false, "skip the 24h price history fetch")
	format := fs.String("format", "", "table or json")
	if _, err := parseArgs(fs, args); err != nil {
		return err
	}

	r, err := a.renderer(*format)
	if err != nil {
		return err
	}
	q, err := query(*limit, *sort, !*noDeltas)
	if err != nil {
		return err
	}

	events, err := a.platform.TopEvents(ctx, q)
	if err != nil {
		return err
	}
	r.DashboardOutcomes = min(a.outcomeLimit, render.DefaultDashboardOutcomes)
	if q.Enrich {
		r.EnrichedOutcomes = a.outcomeLimit
	}
	return r.Dashboard(events)
}

func (a *app) markets(ctx context.Context, args []string) error {
	fs := a.flagSet("markets")
	limit := fs.Int("n", 20, "number of events")
	sort := fs.String("sort", string(aggregate.SortVolume), "volume_24hr, volume, liquidity or end_date")
	format := fs.String("format", "", "table or json")
	if _, err := parseArgs(fs, args); err != nil {
		return err
	}

	r, err := a.renderer(*format)
	if err != nil {
		return err
	}
	q, err := query(*limit, *sort, false)
	if err != nil {
		return err
	}

	events, err := a.platform.TopEvents(ctx, q)
	if err != nil {
		return err
	}
	return r.Markets(events)
}

func (a *app) market(ctx context.Context, args []string) error {
	fs := a.flagSet("market")
	noDeltas := fs.Bool("no-deltas", false, "skip the 24h price history fetch")
	format := fs.String("format", "", "table or json")
	positional, err := parseArgs(fs, args)
	if err != nil {
		return err
	}
	if len(positional) != 1 {
		return errors.New("usage: polymarket market <slug> [-no-deltas] [-format table|json]")
	}
	slug := strings.TrimSpace(positional[0])

	r, err := a.renderer(*format)
	if err != nil {
		return err
	}

	ev, err := a.platform.Event(ctx, slug, !*noDeltas)
	if err != nil {
		if errors.Is(err, platform.ErrNotFound) {
			return fmt.Errorf("no event found for slug: %s", slug)
		}
		return err
	}
	return r.Event(ev)
}

func (a *app) search(ctx context.Context, args []string) error {
	fs := a.flagSet("search")
	limit := fs.Int("n", 10, "max results")
	format := fs.String("format", "", "table or json")
	positional, err := parseArgs(fs, args)
	if err != nil {
		return err
	}
	q := strings.TrimSpace(strings.Join(positional, " "))
	if q == "" {
		return errors.New("usage: polymarket search <query> [-n 10] [-format table|json]")
	}
	if *limit <= 0 {
		return errors.New("-n must be greater than 0")
	}

	r, err := a.renderer(*format)
	if err != nil {
		return err
	}

	events, err := a.platform.Search(ctx, q, *limit)
	if err != nil {
		return err
	}
	return r.Search(q, events)
}

func (a *app) recommend(ctx context.Context, args []string) error {
	fs := a.flagSet("recommend")
	pool := fs.Int("pool", a.defaultPool, "number of top events by 24h volume to score")
	format := fs.String("format", "", "table or json")
	if _, err := parseArgs(fs, args); err != nil {
		return err
	}
	if *pool <= 0 {
		return errors.New("-pool must be greater than 0")
	}

	r, err := a.renderer(*format)
	if err != nil {
		return err
	}

	pick, ok, err := a.platform.Recommend(ctx, *pool)
	if err != nil {
		return err
	}
	return r.Recommendation(pick, ok)
}

func (a *app) flagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet("polymarket "+name, flag.ContinueOnError)
	fs.SetOutput(a.errOut)
	return fs
}

// renderer picks JSON when asked to or when stdout is not a terminal.
func (a *app) renderer(format string) (*render.Renderer, error) {
	f := render.FormatTable
	if format != "" {
		parsed, err := render.ParseFormat(format)
		if err != nil {
			return nil, err
		}
		f = parsed
	}
	if !a.terminal {
		f = render.FormatJSON
	}
	return render.New(a.out, f), nil
}

func query(limit int, sort string, enrich bool) (platform.Query, error) {
	if limit <= 0 {
		return platform.Query{}, errors.New("-n must be greater than 0")
	}
	key, err := aggregate.ParseSortKey(sort)
	if err != nil {
		return platform.Query{}, err
	}
	return platform.Query{Limit: limit, Sort: key, Enrich: enrich}, nil
}

// parseArgs lets flags follow positional arguments, as in
// "market some-slug -no-deltas", and returns the positionals.
func parseArgs(fs *flag.FlagSet, args []string) ([]string, error) {
	var positional []string
	for {
		if err := fs.Parse(args); err != nil {
			return nil, err
		}
		if fs.NArg() == 0 {
			return positional, nil
		}
		positional = append(positional, fs.Arg(0))
		args = fs.Args()[1:]
	}
}
