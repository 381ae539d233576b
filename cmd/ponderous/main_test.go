package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danethurber/ponderous/internal/analysis"
	"github.com/danethurber/ponderous/internal/corpus"
	"github.com/danethurber/ponderous/internal/storage"
)

const collectionCSV = `Count,Name,Edition,Foil,Purchase Price
1,Meren of Clan Nel Toth,c15,,4.00
1,Sol Ring,c21,,1.50
2,Spore Frog,mh1,foil,
10,Forest,m21,,
0,Broken Row,m21,,
`

type testEnv struct {
	dir        string
	configPath string
	dbPath     string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	t.Setenv("PONDEROUS_DB_PATH", "")
	t.Setenv("PONDEROUS_LOG_LEVEL", "")

	dir := t.TempDir()
	env := &testEnv{
		dir:        dir,
		configPath: filepath.Join(dir, "config.toml"),
		dbPath:     filepath.Join(dir, "ponderous.db"),
	}
	cfg := fmt.Sprintf("[database]\npath = %q\nauto_migrate = true\n\n[log]\nlevel = \"error\"\n", env.dbPath)
	require.NoError(t, os.WriteFile(env.configPath, []byte(cfg), 0o600))
	return env
}

// run invokes the CLI with the test config and returns exit code, stdout and stderr.
func (e *testEnv) run(args ...string) (int, string, string) {
	var stdout, stderr bytes.Buffer
	args = append([]string{"--config", e.configPath}, args...)
	code := run(context.Background(), args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func (e *testEnv) importCollection(t *testing.T) {
	t.Helper()
	csvPath := filepath.Join(e.dir, "collection.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte(collectionCSV), 0o600))

	code, out, errOut := e.run("import-collection", "--user", "alice", "--file", csvPath)
	require.Equal(t, exitOK, code, errOut)
	assert.Contains(t, out, "Imported 4 rows for alice")
	assert.Contains(t, out, "line 6")
}

func (e *testEnv) seedCorpus(t *testing.T) {
	t.Helper()
	cfg := storage.DefaultConfig(e.dbPath)
	cfg.AutoMigrate = true
	db, err := storage.Open(cfg)
	require.NoError(t, err)
	svc := storage.NewService(db)
	defer func() { _ = svc.Close() }()

	ctx := context.Background()
	bg := corpus.NewColorIdentity(corpus.Black, corpus.Green)
	rank := 12
	require.NoError(t, svc.StoreCommander(ctx, &corpus.Commander{
		Name: "Meren of Clan Nel Toth", ColorIdentity: &bg, PopularityRank: &rank, TotalDeckCount: 500, AverageDeckPrice: 320,
	}, []corpus.DeckVariant{{
		Key:         corpus.VariantKey{Commander: "Meren of Clan Nel Toth", Archetype: corpus.Midrange, Budget: corpus.Mid},
		Themes:      []string{"Reanimator"},
		SampleCount: 500,
		Cards: []corpus.CardInclusion{
			{CardName: "Spore Frog", InclusionRate: 0.8, SynergyScore: 0.6, Category: corpus.Signature},
			{CardName: "Sol Ring", InclusionRate: 0.95, Category: corpus.Staple},
			{CardName: "Forest", InclusionRate: 0.9, Category: corpus.Basic},
			{CardName: "Sakura-Tribe Elder", InclusionRate: 0.7, SynergyScore: 0.1, Category: corpus.Staple},
		},
	}}))

	red := corpus.NewColorIdentity(corpus.Red)
	require.NoError(t, svc.StoreCommander(ctx, &corpus.Commander{
		Name: "Krenko, Mob Boss", ColorIdentity: &red, TotalDeckCount: 900,
	}, []corpus.DeckVariant{{
		Key:         corpus.VariantKey{Commander: "Krenko, Mob Boss", Archetype: corpus.Aggro, Budget: corpus.Budget},
		SampleCount: 900,
		Cards: []corpus.CardInclusion{
			{CardName: "Goblin Chieftain", InclusionRate: 0.9, SynergyScore: 0.5, Category: corpus.Signature},
			{CardName: "Krenko's Command", InclusionRate: 0.6, Category: corpus.HighSynergy},
		},
	}}))

	require.NoError(t, svc.StoreCards(ctx, []corpus.Card{
		{Name: "Sakura-Tribe Elder", SetCode: "c21", Price: ptr(0.3)},
		{Name: "Goblin Chieftain", SetCode: "m10", Price: ptr(1.2)},
	}))
}

func ptr[T any](v T) *T { return &v }

func TestRun_DiscoverCommanders(t *testing.T) {
	env := newTestEnv(t)
	env.importCollection(t)
	env.seedCorpus(t)

	code, out, errOut := env.run("discover-commanders", "--user", "alice", "--format", "json")
	require.Equal(t, exitOK, code, errOut)

	var res analysis.DiscoveryResult
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, 2, res.Evaluated)
	require.Len(t, res.Recommendations, 1, "Krenko is below the default completion")
	rec := res.Recommendations[0]
	assert.Equal(t, "Meren of Clan Nel Toth", rec.Name)
	assert.InDelta(t, 0.75, rec.Headline.Completion, 1e-9)
	require.Len(t, rec.Headline.Missing, 1)
	assert.Equal(t, "Sakura-Tribe Elder", rec.Headline.Missing[0].CardName)
	assert.InDelta(t, 0.3, rec.Headline.MissingValue, 1e-9)

	code, out, errOut = env.run("discover-commanders", "--user", "alice", "--min-completion", "0", "--sort-by", "budget")
	require.Equal(t, exitOK, code, errOut)
	assert.Contains(t, out, "Krenko, Mob Boss")
	assert.Contains(t, out, "Meren of Clan Nel Toth")
	assert.Contains(t, out, "2 of 2 commanders shown")
}

func TestRun_RecommendAndMissing(t *testing.T) {
	env := newTestEnv(t)
	env.importCollection(t)
	env.seedCorpus(t)

	code, out, errOut := env.run("recommend-decks", "meren of clan nel toth", "--user", "alice")
	require.Equal(t, exitOK, code, errOut)
	assert.Contains(t, out, "Deck recommendations for Meren of Clan Nel Toth")
	assert.Contains(t, out, "midrange")

	code, out, errOut = env.run("missing-cards", "Krenko, Mob Boss", "--user", "alice", "--format", "json")
	require.Equal(t, exitOK, code, errOut)
	var missing missingOutput
	require.NoError(t, json.Unmarshal([]byte(out), &missing))
	require.NotNil(t, missing.Deck)
	assert.Equal(t, 2, len(missing.Deck.Missing))
	assert.Len(t, missing.HighImpact, 2)
	assert.Equal(t, 1, missing.Deck.UnknownPrices)

	code, _, _ = env.run("missing-cards", "Krenko, Mob Boss", "--user", "alice", "--archetype", "aggro", "--budget", "high")
	assert.Equal(t, exitDataUnavailable, code)

	code, _, _ = env.run("recommend-decks", "Atraxa, Praetors' Voice", "--user", "alice")
	assert.Equal(t, exitDataUnavailable, code)
}

func TestRun_AnalyzeAndStatus(t *testing.T) {
	env := newTestEnv(t)
	env.importCollection(t)
	env.seedCorpus(t)

	code, out, errOut := env.run("analyze-collection", "--user", "alice", "--format", "json")
	require.Equal(t, exitOK, code, errOut)
	var report analysis.CollectionAnalysis
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, "alice", report.UserID)
	assert.Equal(t, 14, report.TotalCards)
	assert.Equal(t, 4, report.UniqueCards)

	code, out, errOut = env.run("status")
	require.Equal(t, exitOK, code, errOut)
	assert.Contains(t, out, "Commanders:  2")
	assert.Contains(t, out, "Schema:      v1")

	code, out, errOut = env.run("users")
	require.Equal(t, exitOK, code, errOut)
	assert.Contains(t, out, "alice")

	code, out, errOut = env.run("users", "delete", "alice")
	require.Equal(t, exitOK, code, errOut)
	assert.Contains(t, out, "Deleted 4 cards")
}

func TestRun_ExitCodes(t *testing.T) {
	env := newTestEnv(t)
	env.importCollection(t)

	code, _, errOut := env.run("discover-commanders", "--user", "alice", "--colors", "X")
	assert.Equal(t, exitInvalidFilter, code)
	assert.Contains(t, errOut, "invalid filter")

	code, _, _ = env.run("discover-commanders", "--user", "alice", "--sort-by", "salt")
	assert.Equal(t, exitInvalidFilter, code)

	code, _, _ = env.run("discover-commanders", "--user", "alice")
	assert.Equal(t, exitDataUnavailable, code, "no commanders stored")

	code, _, _ = env.run("discover-commanders", "--user", "bob")
	assert.Equal(t, exitDataUnavailable, code)

	code, _, errOut = env.run("discover-commanders")
	assert.Equal(t, exitError, code)
	assert.Contains(t, errOut, "--user is required")

	code, _, _ = env.run("nonsense")
	assert.Equal(t, exitError, code)

	code, _, _ = env.run("discover-commanders", "--user", "alice", "--format", "yaml")
	assert.Equal(t, exitError, code)
}

func TestRun_ConfigInitAndShow(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "config.toml")

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{"config", "init", "--config", path}, &stdout, &stderr)
	require.Equal(t, exitOK, code, stderr.String())
	assert.FileExists(t, path)

	code = run(context.Background(), []string{"--config", path, "config", "init"}, &stdout, &stderr)
	assert.Equal(t, exitError, code, "existing file is not overwritten")

	stdout.Reset()
	code = run(context.Background(), []string{"--config", path, "config", "show"}, &stdout, &stderr)
	require.Equal(t, exitOK, code, stderr.String())
	assert.Contains(t, stdout.String(), "[edhrec]")
	assert.Contains(t, stdout.String(), "rate_limit = 1.5")
}

func TestRun_MigrateVersion(t *testing.T) {
	env := newTestEnv(t)

	code, out, errOut := env.run("migrate", "up")
	require.Equal(t, exitOK, code, errOut)
	assert.Contains(t, out, "Current version: 1")

	code, out, errOut = env.run("migrate", "down", "--format", "json")
	require.Equal(t, exitOK, code, errOut)
	assert.True(t, strings.Contains(out, `"version": 0`), out)

	code, out, errOut = env.run("migrate", "steps", "1")
	require.Equal(t, exitOK, code, errOut)
	assert.Contains(t, out, "Current version: 1")

	code, out, errOut = env.run("migrate", "force", "1")
	require.Equal(t, exitOK, code, errOut)
	assert.Contains(t, out, "Current version: 1")

	code, _, _ = env.run("migrate", "steps", "many")
	assert.Equal(t, exitError, code)
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, exitOK, exitCode(nil))
	assert.Equal(t, exitInvalidFilter, exitCode(fmt.Errorf("wrapped: %w", &analysis.InvalidFilterError{Field: "colors"})))
	assert.Equal(t, exitDataUnavailable, exitCode(fmt.Errorf("wrapped: %w", &analysis.DataUnavailableError{Entity: "corpus"})))
	assert.Equal(t, exitError, exitCode(errors.New("boom")))
}

func TestRun_Usage(t *testing.T) {
	var stdout, stderr bytes.Buffer
	assert.Equal(t, exitError, run(context.Background(), nil, &stdout, &stderr))
	assert.Contains(t, stderr.String(), "discover-commanders")

	stdout.Reset()
	assert.Equal(t, exitOK, run(context.Background(), []string{"help"}, &stdout, &stderr))
	assert.Contains(t, stdout.String(), "Exit codes")

	stdout.Reset()
	assert.Equal(t, exitOK, run(context.Background(), []string{"version"}, &stdout, &stderr))
	assert.True(t, strings.HasPrefix(stdout.String(), "ponderous "))
}
