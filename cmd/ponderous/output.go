package main

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/goccy/go-json"

	"github.com/danethurber/ponderous/internal/analysis"
	"github.com/danethurber/ponderous/internal/corpus"
	"github.com/danethurber/ponderous/internal/edhrec"
	"github.com/danethurber/ponderous/internal/importer"
	"github.com/danethurber/ponderous/internal/storage"
	"github.com/danethurber/ponderous/internal/storage/repository"
)

const (
	formatTable = "table"
	formatJSON  = "json"
)

// printer renders command results as aligned tables or JSON.
type printer struct {
	w      io.Writer
	format string
}

func (p *printer) isJSON() bool { return p.format == formatJSON }

func (p *printer) printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	_, err = fmt.Fprintln(p.w, string(data))
	return err
}

func (p *printer) table() *tabwriter.Writer {
	return tabwriter.NewWriter(p.w, 0, 0, 2, ' ', 0)
}

func (p *printer) println(a ...any) {
	_, _ = fmt.Fprintln(p.w, a...)
}

func (p *printer) printf(format string, a ...any) {
	_, _ = fmt.Fprintf(p.w, format, a...)
}

func percent(f float64) string { return fmt.Sprintf("%.0f%%", f*100) }

func dollars(f float64) string { return fmt.Sprintf("$%.2f", f) }

func fmtOptFloat(v *float64, format string) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf(format, *v)
}

func fmtOptInt(v *int) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%d", *v)
}

func identity(ci *corpus.ColorIdentity) string {
	if ci == nil {
		return "?"
	}
	return ci.String()
}

func (p *printer) discovery(res *analysis.DiscoveryResult, showMissing int) error {
	if p.isJSON() {
		return p.printJSON(res)
	}

	if len(res.Recommendations) == 0 {
		p.printf("No commanders match (%d evaluated, %d skipped).\n", res.Evaluated, res.Skipped)
		p.caveatSummary(res.Caveats)
		return nil
	}

	tw := p.table()
	_, _ = fmt.Fprintln(tw, "#\tCOMMANDER\tCOLORS\tCOMPLETE\tBUILD\tOWNED\tMISSING $\tVARIANT\tDECKS\tSYNERGY")
	for i, rec := range res.Recommendations {
		h := rec.Headline
		_, _ = fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%.1f\t%d/%d\t%s\t%s/%s\t%d\t%.2f\n",
			i+1, rec.Name, identity(rec.ColorIdentity), percent(h.Completion), h.Buildability,
			h.OwnedCards, h.TotalCards, dollars(h.MissingValue), h.Archetype, h.Budget,
			rec.TotalDeckCount, rec.CollectionSynergy)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if showMissing > 0 {
		for _, rec := range res.Recommendations {
			missing := rec.Headline.Missing
			if len(missing) == 0 {
				continue
			}
			p.printf("\n%s (%s/%s) missing:\n", rec.Name, rec.Headline.Archetype, rec.Headline.Budget)
			for i, card := range missing {
				if i == showMissing {
					p.printf("  ... and %d more\n", len(missing)-showMissing)
					break
				}
				p.printf("  %-32s %-12s %s\n", card.CardName, card.Category, priceText(card))
			}
		}
	}

	p.printf("\n%d of %d commanders shown, %d skipped.\n", len(res.Recommendations), res.Evaluated, res.Skipped)
	p.caveatSummary(res.Caveats)
	return nil
}

func priceText(card analysis.MissingCard) string {
	if !card.PriceKnown {
		return "price unknown"
	}
	return dollars(card.Price)
}

// caveatSummary prints caveat counts by kind.
func (p *printer) caveatSummary(caveats []analysis.Caveat) {
	if len(caveats) == 0 {
		return
	}
	counts := make(map[analysis.CaveatKind]int)
	for _, c := range caveats {
		counts[c.Kind]++
	}
	kinds := make([]string, 0, len(counts))
	for k := range counts {
		kinds = append(kinds, string(k))
	}
	sort.Strings(kinds)

	parts := make([]string, 0, len(kinds))
	for _, k := range kinds {
		parts = append(parts, fmt.Sprintf("%s=%d", k, counts[analysis.CaveatKind(k)]))
	}
	p.printf("Caveats: %s (use --format json for details)\n", strings.Join(parts, ", "))
}

func (p *printer) decks(cmd *corpus.Commander, decks []analysis.DeckRecommendation) error {
	if p.isJSON() {
		return p.printJSON(decks)
	}
	if len(decks) == 0 {
		p.printf("No %s variants meet the filters.\n", cmd.Name)
		return nil
	}

	p.printf("Deck recommendations for %s\n\n", commanderSummary(cmd))
	tw := p.table()
	_, _ = fmt.Fprintln(tw, "ARCHETYPE\tBUDGET\tCOMPLETE\tBUILD\tOWNED\tMISSING $\tHIGH IMPACT\tAVG PRICE\tWIN RATE\tTHEMES")
	for _, d := range decks {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%.1f\t%d/%d\t%s\t%d\t%s\t%s\t%s\n",
			d.Archetype, d.Budget, percent(d.Completion), d.Buildability, d.OwnedCards, d.TotalCards,
			dollars(d.MissingValue), d.HighImpactMissing, dollars(d.AveragePrice),
			fmtOptFloat(d.WinRate, "%.2f"), strings.Join(d.Themes, ", "))
	}
	return tw.Flush()
}

// missingOutput is the JSON shape of missing-cards.
type missingOutput struct {
	Deck       *analysis.DeckRecommendation `json:"deck"`
	HighImpact []analysis.MissingCard       `json:"highImpact"`
}

func (p *printer) missing(deck *analysis.DeckRecommendation, cards, highImpact []analysis.MissingCard, limit int) error {
	if p.isJSON() {
		return p.printJSON(missingOutput{Deck: deck, HighImpact: highImpact})
	}

	p.printf("%s (%s/%s): %d/%d owned, %s complete\n", deck.Commander, deck.Archetype, deck.Budget,
		deck.OwnedCards, deck.TotalCards, percent(deck.Completion))
	p.printf("Missing value %s", dollars(deck.MissingValue))
	if deck.UnknownPrices > 0 {
		p.printf(" (%d cards without a price)", deck.UnknownPrices)
	}
	p.printf(", %d high impact\n\n", len(highImpact))

	if len(cards) == 0 {
		p.println("Nothing missing.")
		return nil
	}

	tw := p.table()
	_, _ = fmt.Fprintln(tw, "CARD\tCATEGORY\tINCLUSION\tSYNERGY\tPRICE")
	for i, c := range cards {
		if limit > 0 && i == limit {
			break
		}
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%+.2f\t%s\n", c.CardName, c.Category, percent(c.InclusionRate), c.SynergyScore, priceText(c))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	if limit > 0 && len(cards) > limit {
		p.printf("... and %d more\n", len(cards)-limit)
	}
	return nil
}

func (p *printer) collectionReport(a *analysis.CollectionAnalysis, limit int) error {
	if p.isJSON() {
		return p.printJSON(a)
	}

	p.printf("Collection %s\n", a.UserID)
	p.printf("  Cards:  %d total, %d unique\n", a.TotalCards, a.UniqueCards)
	p.printf("  Value:  %s (%d unpriced)\n", dollars(a.TotalValue), a.UnpricedCards)
	p.printf("  Power:  %.1f over %d commanders\n\n", a.PowerLevel, a.PowerLevelCommanders)

	p.println("Colors:")
	for _, c := range corpus.AllColors {
		p.printf("  %s  %d\n", c, a.ColorDistribution[c])
	}
	p.printf("  C  %d\n  ?  %d\n", a.ColorlessCards, a.UnknownColorCards)
	if len(a.StrongestColors) > 0 {
		strongest := make([]string, 0, len(a.StrongestColors))
		for _, c := range a.StrongestColors {
			strongest = append(strongest, string(c))
		}
		p.printf("  Strongest: %s\n", strings.Join(strongest, ""))
	}

	p.println("\nMana curve:")
	for i, n := range a.ManaCurve.Buckets {
		label := fmt.Sprintf("%d", i)
		if i == len(a.ManaCurve.Buckets)-1 {
			label += "+"
		}
		p.printf("  %-3s %d\n", label, n)
	}
	if a.ManaCurve.Unknown > 0 {
		p.printf("  ?   %d\n", a.ManaCurve.Unknown)
	}

	if len(a.ArchetypeAffinity) > 0 {
		p.println("\nArchetype affinity:")
		for _, arch := range corpus.AllArchetypes {
			if v, ok := a.ArchetypeAffinity[arch]; ok {
				p.printf("  %-9s %s\n", arch, percent(v))
			}
		}
	}

	if len(a.ThemeSupport) > 0 {
		themes := make([]string, 0, len(a.ThemeSupport))
		for t := range a.ThemeSupport {
			themes = append(themes, t)
		}
		sort.Slice(themes, func(i, j int) bool {
			if a.ThemeSupport[themes[i]] != a.ThemeSupport[themes[j]] {
				return a.ThemeSupport[themes[i]] > a.ThemeSupport[themes[j]]
			}
			return themes[i] < themes[j]
		})
		p.println("\nTheme support:")
		for i, t := range themes {
			if limit > 0 && i == limit {
				break
			}
			p.printf("  %-24s %s\n", t, percent(a.ThemeSupport[t]))
		}
	}

	if len(a.MissingStaples) > 0 {
		p.println("\nMissing staples:")
		for i, s := range a.MissingStaples {
			if limit > 0 && i == limit {
				break
			}
			p.printf("  %-32s in %d decks\n", s.Name, s.Frequency)
		}
	}
	return nil
}

// importOutput is the JSON shape of import-collection.
type importOutput struct {
	*storage.ImportResult
	Rows     int                 `json:"rows"`
	Rejected []importer.RowError `json:"rejected,omitempty"`
}

func (p *printer) imported(res *storage.ImportResult, parsed *importer.Result) error {
	if p.isJSON() {
		return p.printJSON(importOutput{ImportResult: res, Rows: len(parsed.Rows), Rejected: parsed.Errors})
	}
	p.printf("Imported %d rows for %s (%d cards stored", len(parsed.Rows), res.UserID, res.Written)
	if res.Removed > 0 {
		p.printf(", %d removed", res.Removed)
	}
	p.println(")")
	if len(parsed.Errors) > 0 {
		p.printf("%d rows rejected:\n", len(parsed.Errors))
		for _, e := range parsed.Errors {
			p.printf("  %s\n", e.Error())
		}
	}
	return nil
}

func (p *printer) sync(res *edhrec.SyncResult) error {
	if p.isJSON() {
		return p.printJSON(res)
	}
	p.printf("Synced %d of %d commanders: %d variants, %d cards in %s\n",
		res.Stored, res.Requested, res.Variants, res.Cards, res.Duration.Round(time.Millisecond))
	for _, e := range res.Errors {
		p.printf("  failed %s: %s\n", e.Slug, e.Err)
	}
	return nil
}

func (p *printer) users(users []repository.UserSummary) error {
	if p.isJSON() {
		return p.printJSON(users)
	}
	if len(users) == 0 {
		p.println("No collections imported.")
		return nil
	}
	tw := p.table()
	_, _ = fmt.Fprintln(tw, "USER\tUNIQUE\tTOTAL\tSOURCES\tUPDATED")
	for _, u := range users {
		updated := "-"
		if !u.UpdatedAt.IsZero() {
			updated = u.UpdatedAt.Format("2006-01-02 15:04")
		}
		_, _ = fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%s\n", u.UserID, u.UniqueCards, u.TotalCards, u.Sources, updated)
	}
	return tw.Flush()
}

// statusOutput is the JSON shape of status.
type statusOutput struct {
	Database string         `json:"database"`
	Version  uint           `json:"schemaVersion"`
	Dirty    bool           `json:"dirty"`
	Stats    *storage.Stats `json:"stats"`
}

func (p *printer) status(s statusOutput) error {
	if p.isJSON() {
		return p.printJSON(s)
	}
	dirty := ""
	if s.Dirty {
		dirty = " (dirty)"
	}
	p.printf("Database:    %s\n", s.Database)
	p.printf("Schema:      v%d%s\n", s.Version, dirty)
	p.printf("Users:       %d\n", s.Stats.Users)
	p.printf("Commanders:  %d\n", s.Stats.Commanders)
	p.printf("Variants:    %d\n", s.Stats.Variants)
	p.printf("Inclusions:  %d\n", s.Stats.Inclusions)
	return nil
}

func commanderSummary(cmd *corpus.Commander) string {
	return fmt.Sprintf("%s [%s] rank %s, %d decks, avg %s, salt %s",
		cmd.Name, identity(cmd.ColorIdentity), fmtOptInt(cmd.PopularityRank), cmd.TotalDeckCount,
		dollars(cmd.AverageDeckPrice), fmtOptFloat(cmd.SaltScore, "%.2f"))
}
