package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/danethurber/ponderous/internal/analysis"
	"github.com/danethurber/ponderous/internal/collection"
	"github.com/danethurber/ponderous/internal/config"
	"github.com/danethurber/ponderous/internal/corpus"
	"github.com/danethurber/ponderous/internal/edhrec"
	"github.com/danethurber/ponderous/internal/importer"
	"github.com/danethurber/ponderous/internal/logging"
	"github.com/danethurber/ponderous/internal/storage"
)

var errUserRequired = errors.New("--user is required")

func runMigrate(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet("migrate", &a.global, a.stderr)
	positional, err := parseInterspersed(fs, args)
	if err != nil {
		return err
	}
	if err := a.setup(); err != nil {
		return err
	}

	action := "up"
	if len(positional) > 0 {
		action = positional[0]
	}

	path := a.cfg.Database.Path
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create database directory: %w", err)
	}
	mgr, err := storage.NewMigrationManager(path)
	if err != nil {
		return err
	}
	defer func() {
		if err := mgr.Close(); err != nil {
			logging.Ctx(ctx).Warn().Err(err).Msg("Failed to close migration manager")
		}
	}()

	p := a.printer()
	switch action {
	case "up":
		if err := mgr.Up(); err != nil {
			return err
		}
	case "down":
		if err := mgr.Down(); err != nil {
			return err
		}
	case "steps", "force":
		if len(positional) < 2 {
			return fmt.Errorf("migrate %s requires a number", action)
		}
		n, err := strconv.Atoi(positional[1])
		if err != nil {
			return fmt.Errorf("migrate %s: invalid number %q", action, positional[1])
		}
		if action == "steps" {
			err = mgr.Steps(n)
		} else {
			err = mgr.Force(n)
		}
		if err != nil {
			return err
		}
	case "version", "status":
	default:
		return fmt.Errorf("unknown migrate action %q: expected up, down, steps, force or version", action)
	}

	version, dirty, err := mgr.Version()
	if err != nil {
		return err
	}
	if p.isJSON() {
		return p.printJSON(map[string]any{"version": version, "dirty": dirty})
	}
	if dirty {
		p.printf("Current version: %d (dirty)\n", version)
	} else {
		p.printf("Current version: %d\n", version)
	}
	return nil
}

func runImportCollection(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet("import-collection", &a.global, a.stderr)
	user := fs.String("user", "", "User identifier for this collection")
	file := fs.String("file", "", "Moxfield CSV export")
	replace := fs.Bool("replace", false, "Replace cards previously imported from this source")
	validateOnly := fs.Bool("validate-only", false, "Parse and report without storing")
	if _, err := parseInterspersed(fs, args); err != nil {
		return err
	}
	if err := a.setup(); err != nil {
		return err
	}
	if strings.TrimSpace(*user) == "" {
		return errUserRequired
	}
	if *file == "" {
		return errors.New("--file is required")
	}

	parsed, err := importer.NewMoxfieldImporter(logging.Ctx(ctx)).ParseFile(*file)
	if err != nil {
		return err
	}

	if *validateOnly {
		return a.printer().imported(&storage.ImportResult{UserID: *user, Source: importer.SourceMoxfield}, parsed)
	}

	svc, err := a.openService()
	if err != nil {
		return err
	}
	defer closeService(ctx, svc)

	res, err := svc.ImportCollection(ctx, *user, importer.SourceMoxfield, parsed.Cards(), *replace)
	if err != nil {
		return err
	}
	return a.printer().imported(res, parsed)
}

func runUpdateEDHREC(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet("update-edhrec", &a.global, a.stderr)
	var names stringList
	fs.Var(&names, "commander", "Commander name or EDHREC slug (repeatable)")
	file := fs.String("commanders-file", "", "File with one commander per line")
	top := fs.Int("top", 0, "Also fetch the N most popular commanders")
	workers := fs.Int("workers", 0, "Commanders fetched in parallel (default from config)")
	positional, err := parseInterspersed(fs, args)
	if err != nil {
		return err
	}
	if err := a.setup(); err != nil {
		return err
	}

	names = append(names, positional...)
	if *file != "" {
		fromFile, err := readCommanderFile(*file)
		if err != nil {
			return err
		}
		names = append(names, fromFile...)
	}
	if len(names) == 0 && *top <= 0 {
		return errors.New("specify --commander, --commanders-file or --top")
	}

	logger := logging.Ctx(ctx)
	timeout, err := a.cfg.GetEDHRECTimeout()
	if err != nil {
		return err
	}
	openDelay, err := a.cfg.GetBreakerOpenDelay()
	if err != nil {
		return err
	}
	client := edhrec.NewClient(edhrec.ClientOptions{
		BaseURL:          a.cfg.EDHREC.BaseURL,
		UserAgent:        a.cfg.EDHREC.UserAgent,
		Timeout:          timeout,
		BreakerFailures:  uint32(a.cfg.EDHREC.BreakerFailures),
		BreakerOpenDelay: openDelay,
		Logger:           logger,
	}, edhrec.NewLimiter(a.cfg.EDHREC.RateLimit))

	slugs := dedupeSlugs(names)
	if *top > 0 {
		popular, err := client.FetchTopCommanders(ctx, *top)
		if err != nil {
			return fmt.Errorf("failed to fetch popular commanders: %w", err)
		}
		slugs = dedupeSlugs(append(slugs, popular...))
	}

	svc, err := a.openService()
	if err != nil {
		return err
	}
	defer closeService(ctx, svc)

	n := a.cfg.EDHREC.Workers
	if *workers > 0 {
		n = *workers
	}
	res, err := edhrec.NewSyncer(client, svc, n, logger).Sync(ctx, slugs)
	if err != nil {
		return err
	}
	return a.printer().sync(res)
}

// readCommanderFile reads one commander per line, skipping blanks and # comments.
func readCommanderFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open commanders file: %w", err)
	}
	defer func() { _ = f.Close() }()

	var names []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		names = append(names, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read commanders file: %w", err)
	}
	return names, nil
}

func dedupeSlugs(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, name := range names {
		slug := edhrec.Slugify(name)
		if slug == "" {
			continue
		}
		if _, dup := seen[slug]; dup {
			continue
		}
		seen[slug] = struct{}{}
		out = append(out, slug)
	}
	return out
}

// workspace is the loaded state an analysis command runs against.
type workspace struct {
	coll   *collection.Collection
	corpus *corpus.Corpus
	engine *analysis.Engine
}

func (a *app) loadWorkspace(ctx context.Context, svc *storage.Service, user string) (*workspace, error) {
	coll, err := svc.LoadCollection(ctx, user)
	if err != nil {
		return nil, err
	}
	c, err := svc.LoadCorpus(ctx)
	if err != nil {
		return nil, err
	}
	prices, err := svc.LoadPrices(ctx, user)
	if err != nil {
		return nil, err
	}

	opts := a.cfg.EngineOptions()
	opts.Logger = logging.Ctx(ctx)
	engine, err := analysis.NewEngine(c, prices, opts)
	if err != nil {
		return nil, err
	}
	return &workspace{coll: coll, corpus: c, engine: engine}, nil
}

func runDiscover(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet("discover-commanders", &a.global, a.stderr)
	user := fs.String("user", "", "User whose collection is analyzed")
	var filters filterFlags
	filters.register(fs)
	sortBy := fs.String("sort-by", "", "Comma-separated sort keys: completion,buildability,popularity,power-level,synergy,budget")
	var limit optInt
	fs.Var(&limit, "limit", "Maximum number of results, 0 for all (default from config)")
	showMissing := fs.Int("show-missing", 0, "Show the top N missing cards per commander")
	if _, err := parseInterspersed(fs, args); err != nil {
		return err
	}
	if err := a.setup(); err != nil {
		return err
	}
	if strings.TrimSpace(*user) == "" {
		return errUserRequired
	}

	f, err := filters.build(a.cfg.Analysis.MinCompletion)
	if err != nil {
		return err
	}
	keys, err := parseSortKeys(*sortBy)
	if err != nil {
		return err
	}
	n := a.cfg.Analysis.DefaultLimit
	if limit.value != nil {
		n = *limit.value
	}

	svc, err := a.openService()
	if err != nil {
		return err
	}
	defer closeService(ctx, svc)

	ws, err := a.loadWorkspace(ctx, svc, *user)
	if err != nil {
		return err
	}
	res, err := ws.engine.Discover(ctx, ws.coll, f, keys, n)
	if err != nil {
		return err
	}
	return a.printer().discovery(res, *showMissing)
}

func runRecommendDecks(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet("recommend-decks", &a.global, a.stderr)
	user := fs.String("user", "", "User whose collection is analyzed")
	var filters filterFlags
	filters.register(fs)
	positional, err := parseInterspersed(fs, args)
	if err != nil {
		return err
	}
	if err := a.setup(); err != nil {
		return err
	}
	if strings.TrimSpace(*user) == "" {
		return errUserRequired
	}
	name := strings.TrimSpace(strings.Join(positional, " "))
	if name == "" {
		return errors.New("commander name is required")
	}

	f, err := filters.build(a.cfg.Analysis.MinCompletion)
	if err != nil {
		return err
	}

	svc, err := a.openService()
	if err != nil {
		return err
	}
	defer closeService(ctx, svc)

	ws, err := a.loadWorkspace(ctx, svc, *user)
	if err != nil {
		return err
	}
	cmd, ok := ws.corpus.Commander(name)
	if !ok {
		return &analysis.DataUnavailableError{Entity: "commander", Name: name, Reason: "not found in deck statistics"}
	}
	decks, err := ws.engine.RecommendDecks(ctx, ws.coll, cmd.Name, f)
	if err != nil {
		return err
	}
	return a.printer().decks(cmd, decks)
}

func runMissingCards(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet("missing-cards", &a.global, a.stderr)
	user := fs.String("user", "", "User whose collection is analyzed")
	archetype := fs.String("archetype", "", "Variant archetype (default: the best variant)")
	budget := fs.String("budget", "", "Variant budget bracket (default: the best variant)")
	highImpactOnly := fs.Bool("high-impact", false, "List only high-impact cards")
	limit := fs.Int("limit", 0, "Maximum cards listed, 0 for all")
	positional, err := parseInterspersed(fs, args)
	if err != nil {
		return err
	}
	if err := a.setup(); err != nil {
		return err
	}
	if strings.TrimSpace(*user) == "" {
		return errUserRequired
	}
	name := strings.TrimSpace(strings.Join(positional, " "))
	if name == "" {
		return errors.New("commander name is required")
	}
	if (*archetype == "") != (*budget == "") {
		return errors.New("--archetype and --budget must be given together")
	}

	svc, err := a.openService()
	if err != nil {
		return err
	}
	defer closeService(ctx, svc)

	ws, err := a.loadWorkspace(ctx, svc, *user)
	if err != nil {
		return err
	}

	var deck *analysis.DeckRecommendation
	if *archetype != "" {
		arch, err := corpus.ParseArchetype(*archetype)
		if err != nil {
			return &analysis.InvalidFilterError{Field: "archetype", Reason: err.Error()}
		}
		bracket, err := corpus.ParseBudgetBracket(*budget)
		if err != nil {
			return &analysis.InvalidFilterError{Field: "budget", Reason: err.Error()}
		}
		deck, err = ws.engine.MissingForVariant(ctx, ws.coll, corpus.VariantKey{Commander: name, Archetype: arch, Budget: bracket})
		if err != nil {
			return err
		}
	} else {
		decks, err := ws.engine.RecommendDecks(ctx, ws.coll, name, analysis.Filters{})
		if err != nil {
			return err
		}
		if len(decks) == 0 {
			return &analysis.DataUnavailableError{Entity: "commander", Name: name, Reason: "no scorable deck variants"}
		}
		deck = &decks[0]
	}

	report := analysis.MissingReport{Cards: deck.Missing, TotalValue: deck.MissingValue, UnknownPrices: deck.UnknownPrices}
	highImpact := report.HighImpact(a.cfg.ImpactThreshold())
	cards := deck.Missing
	if *highImpactOnly {
		cards = highImpact
	}
	return a.printer().missing(deck, cards, highImpact, *limit)
}

func runAnalyzeCollection(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet("analyze-collection", &a.global, a.stderr)
	user := fs.String("user", "", "User whose collection is analyzed")
	limit := fs.Int("limit", 10, "Maximum themes and staples listed, 0 for all")
	if _, err := parseInterspersed(fs, args); err != nil {
		return err
	}
	if err := a.setup(); err != nil {
		return err
	}
	if strings.TrimSpace(*user) == "" {
		return errUserRequired
	}

	svc, err := a.openService()
	if err != nil {
		return err
	}
	defer closeService(ctx, svc)

	coll, err := svc.LoadCollection(ctx, *user)
	if err != nil {
		return err
	}
	c, err := svc.LoadCorpus(ctx)
	if err != nil {
		return err
	}
	report, err := analysis.Analyze(ctx, coll, c, a.cfg.AnalyzeOptions())
	if err != nil {
		return err
	}
	return a.printer().collectionReport(report, *limit)
}

func runUsers(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet("users", &a.global, a.stderr)
	positional, err := parseInterspersed(fs, args)
	if err != nil {
		return err
	}
	if err := a.setup(); err != nil {
		return err
	}

	svc, err := a.openService()
	if err != nil {
		return err
	}
	defer closeService(ctx, svc)

	action := "list"
	if len(positional) > 0 {
		action = positional[0]
	}
	switch action {
	case "list":
		users, err := svc.ListUsers(ctx)
		if err != nil {
			return err
		}
		return a.printer().users(users)
	case "delete":
		if len(positional) < 2 {
			return errors.New("usage: ponderous users delete <user>")
		}
		removed, err := svc.DeleteUser(ctx, positional[1])
		if err != nil {
			return err
		}
		p := a.printer()
		if p.isJSON() {
			return p.printJSON(map[string]any{"userId": positional[1], "removed": removed})
		}
		p.printf("Deleted %d cards for %s\n", removed, positional[1])
		return nil
	}
	return fmt.Errorf("unknown users action %q: expected list or delete", action)
}

func runStatus(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet("status", &a.global, a.stderr)
	if _, err := parseInterspersed(fs, args); err != nil {
		return err
	}
	if err := a.setup(); err != nil {
		return err
	}

	svc, err := a.openService()
	if err != nil {
		return err
	}
	defer closeService(ctx, svc)

	stats, err := svc.Stats(ctx)
	if err != nil {
		return err
	}
	out := statusOutput{Database: a.cfg.Database.Path, Stats: stats}

	mgr, err := storage.NewMigrationManager(a.cfg.Database.Path)
	if err != nil {
		return err
	}
	defer func() { _ = mgr.Close() }()
	if out.Version, out.Dirty, err = mgr.Version(); err != nil {
		return err
	}

	return a.printer().status(out)
}

func runConfig(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet("config", &a.global, a.stderr)
	force := fs.Bool("force", false, "Overwrite an existing file on init")
	positional, err := parseInterspersed(fs, args)
	if err != nil {
		return err
	}

	action := "show"
	if len(positional) > 0 {
		action = positional[0]
	}

	switch action {
	case "init":
		if err := a.global.validate(); err != nil {
			return err
		}
		path := a.global.configPath
		if path == "" {
			if path, err = config.DefaultPath(); err != nil {
				return err
			}
		}
		if _, err := os.Stat(path); err == nil && !*force {
			return fmt.Errorf("config file %s already exists (use --force to overwrite)", path)
		}
		if err := config.DefaultConfig().Save(path); err != nil {
			return err
		}
		logging.Ctx(ctx).Info().Str("path", path).Msg("Wrote default configuration")
		a.printer().printf("Wrote %s\n", path)
		return nil

	case "show":
		if err := a.setup(); err != nil {
			return err
		}
		p := a.printer()
		if p.isJSON() {
			return p.printJSON(a.cfg)
		}
		data, err := toml.Marshal(a.cfg)
		if err != nil {
			return fmt.Errorf("failed to encode config: %w", err)
		}
		_, err = a.stdout.Write(data)
		return err
	}
	return fmt.Errorf("unknown config action %q: expected show or init", action)
}
