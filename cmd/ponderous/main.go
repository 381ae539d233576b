// Command ponderous recommends Commander decks buildable from an owned
// Magic: The Gathering collection.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/danethurber/ponderous/internal/analysis"
	"github.com/danethurber/ponderous/internal/config"
	"github.com/danethurber/ponderous/internal/logging"
	"github.com/danethurber/ponderous/internal/storage"
	"github.com/danethurber/ponderous/internal/version"
)

// Exit codes.
const (
	exitOK              = 0
	exitError           = 1
	exitInvalidFilter   = 2
	exitDataUnavailable = 3
)

// command runs one subcommand with its remaining arguments.
type command struct {
	name    string
	summary string
	run     func(ctx context.Context, a *app, args []string) error
}

var commands = []command{
	{"migrate", "Apply or roll back database migrations (up|down|steps N|force N|version)", runMigrate},
	{"import-collection", "Import a Moxfield CSV export for a user", runImportCollection},
	{"update-edhrec", "Fetch commander deck statistics from EDHREC", runUpdateEDHREC},
	{"discover-commanders", "Rank commanders buildable from a collection", runDiscover},
	{"recommend-decks", "Score every deck variant of one commander", runRecommendDecks},
	{"missing-cards", "List the cards missing for one deck variant", runMissingCards},
	{"analyze-collection", "Summarize a collection against the deck statistics", runAnalyzeCollection},
	{"users", "List or delete imported collections (list|delete <user>)", runUsers},
	{"status", "Show database contents", runStatus},
	{"config", "Show or initialize the configuration file (show|init)", runConfig},
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run parses global flags, dispatches the subcommand and maps its error to
// an exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	a := &app{
		global: globalOptions{format: formatTable},
		stdout: stdout,
		stderr: stderr,
	}

	fs := flag.NewFlagSet("ponderous", flag.ContinueOnError)
	fs.SetOutput(stderr)
	a.global.register(fs)
	fs.Usage = func() { printUsage(stderr) }
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		return exitError
	}

	rest := fs.Args()
	if len(rest) == 0 {
		printUsage(stderr)
		return exitError
	}

	name := rest[0]
	switch name {
	case "help":
		printUsage(stdout)
		return exitOK
	case "version":
		_, _ = fmt.Fprintf(stdout, "ponderous %s\n", version.GetVersion())
		return exitOK
	}
	for _, cmd := range commands {
		if cmd.name != name {
			continue
		}
		ctx = logging.ContextWithRunID(ctx)
		err := cmd.run(ctx, a, rest[1:])
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		if err != nil {
			_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
			logging.Ctx(ctx).Debug().Err(err).Str("command", name).Msg("Command failed")
		}
		return exitCode(err)
	}

	_, _ = fmt.Fprintf(stderr, "Unknown command: %s\n\n", name)
	printUsage(stderr)
	return exitError
}

// exitCode maps the error taxonomy to process exit codes.
func exitCode(err error) int {
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, analysis.ErrInvalidFilter):
		return exitInvalidFilter
	case errors.Is(err, analysis.ErrDataUnavailable):
		return exitDataUnavailable
	default:
		return exitError
	}
}

func printUsage(w io.Writer) {
	_, _ = fmt.Fprintln(w, "Ponderous - Commander deck recommendations from your collection")
	_, _ = fmt.Fprintln(w)
	_, _ = fmt.Fprintln(w, "Usage: ponderous [--config path] [--debug] [--format table|json] <command> [options]")
	_, _ = fmt.Fprintln(w)
	_, _ = fmt.Fprintln(w, "Commands:")
	for _, cmd := range commands {
		_, _ = fmt.Fprintf(w, "  %-20s %s\n", cmd.name, cmd.summary)
	}
	_, _ = fmt.Fprintf(w, "  %-20s %s\n", "version", "Print the build version")
	_, _ = fmt.Fprintln(w)
	_, _ = fmt.Fprintln(w, "Examples:")
	_, _ = fmt.Fprintln(w, "  ponderous import-collection --user alice --file moxfield.csv")
	_, _ = fmt.Fprintln(w, "  ponderous update-edhrec --top 50")
	_, _ = fmt.Fprintln(w, "  ponderous discover-commanders --user alice --colors BG --min-completion 0.6")
	_, _ = fmt.Fprintln(w, "  ponderous missing-cards \"Meren of Clan Nel Toth\" --user alice")
	_, _ = fmt.Fprintln(w)
	_, _ = fmt.Fprintln(w, "Exit codes: 1 error, 2 invalid filter, 3 data unavailable")
}

// app carries per-invocation state shared by the subcommands.
type app struct {
	global globalOptions
	stdout io.Writer
	stderr io.Writer
	cfg    *config.Config
}

// setup loads and validates the configuration and initializes logging. It
// runs after the subcommand flags so global flags may appear on either side.
func (a *app) setup() error {
	if err := a.global.validate(); err != nil {
		return err
	}

	cfg, err := config.Load(a.global.configPath)
	if err != nil {
		return err
	}
	if a.global.debug {
		cfg.Log.Debug = true
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	a.cfg = cfg

	logging.Init(logging.Config{
		Level:  cfg.LogLevel(),
		Format: cfg.Log.Format,
		Caller: cfg.Log.Debug,
		Output: a.stderr,
	})
	return nil
}

func (a *app) printer() *printer {
	return &printer{w: a.stdout, format: a.global.format}
}

// openService opens the configured database.
func (a *app) openService() (*storage.Service, error) {
	busy, err := a.cfg.GetBusyTimeout()
	if err != nil {
		return nil, err
	}
	db, err := storage.Open(&storage.Config{
		Path:         a.cfg.Database.Path,
		MaxOpenConns: a.cfg.Database.MaxOpenConns,
		BusyTimeout:  busy,
		JournalMode:  a.cfg.Database.JournalMode,
		AutoMigrate:  a.cfg.Database.AutoMigrate,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", a.cfg.Database.Path, err)
	}
	return storage.NewService(db), nil
}

func closeService(ctx context.Context, svc *storage.Service) {
	if err := svc.Close(); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Msg("Failed to close database")
	}
}
