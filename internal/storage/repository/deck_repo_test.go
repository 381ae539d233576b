package repository

import (
	"context"
	"testing"

	"github.com/danethurber/ponderous/internal/corpus"
)

func seedCommander(t *testing.T, repo CommanderRepository, name string) {
	t.Helper()
	if err := repo.Upsert(context.Background(), &corpus.Commander{Name: name}); err != nil {
		t.Fatalf("failed to seed commander: %v", err)
	}
}

func TestDeckRepository_ReplaceAndList(t *testing.T) {
	db := setupTestDB(t)
	seedCommander(t, NewCommanderRepository(db), "Meren of Clan Nel Toth")
	seedCommander(t, NewCommanderRepository(db), "Krenko, Mob Boss")
	repo := NewDeckRepository(db)
	ctx := context.Background()

	meren := corpus.DeckVariant{
		Key: corpus.VariantKey{
			Commander: "Meren of Clan Nel Toth",
			Archetype: corpus.Midrange,
			Budget:    corpus.Mid,
		},
		Themes:       []string{"Reanimator", "Sacrifice"},
		SampleCount:  900,
		AveragePrice: 320,
		WinRate:      ptr(0.25),
		Cards: []corpus.CardInclusion{
			{CardName: "Spore Frog", InclusionRate: 0.9, SynergyScore: 0.6, Category: corpus.Signature},
			{CardName: "Sol Ring", InclusionRate: 0.95, SynergyScore: 0.01, Category: corpus.Staple},
			{CardName: "Swamp", InclusionRate: 1, Category: corpus.Basic},
		},
	}
	krenko := corpus.DeckVariant{
		Key: corpus.VariantKey{
			Commander: "Krenko, Mob Boss",
			Archetype: corpus.Aggro,
			Budget:    corpus.Budget,
		},
		Cards: []corpus.CardInclusion{
			{CardName: "Goblin Chieftain", InclusionRate: 0.8, SynergyScore: 0.4, Category: corpus.HighSynergy},
		},
	}

	for _, v := range []corpus.DeckVariant{meren, krenko} {
		if err := repo.ReplaceVariant(ctx, &v); err != nil {
			t.Fatalf("ReplaceVariant %s failed: %v", v.Key, err)
		}
	}

	got, err := repo.ListVariants(ctx, "Meren of Clan Nel Toth")
	if err != nil {
		t.Fatalf("ListVariants failed: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 variant, got %d", len(got))
	}
	v := got[0]
	if v.Key != meren.Key {
		t.Errorf("expected key %s, got %s", meren.Key, v.Key)
	}
	if len(v.Themes) != 2 || v.Themes[0] != "Reanimator" {
		t.Errorf("unexpected themes: %v", v.Themes)
	}
	if v.WinRate == nil || *v.WinRate != 0.25 {
		t.Errorf("expected win rate 0.25, got %v", v.WinRate)
	}
	if len(v.Cards) != 3 {
		t.Fatalf("expected 3 cards, got %d", len(v.Cards))
	}
	for i, card := range meren.Cards {
		if v.Cards[i] != card {
			t.Errorf("card %d: expected %+v, got %+v", i, card, v.Cards[i])
		}
	}

	all, err := repo.ListVariants(ctx, "")
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 2 || all[0].Key.Commander != "Krenko, Mob Boss" {
		t.Errorf("unexpected variants: %+v", all)
	}
	if all[0].Themes != nil || all[0].WinRate != nil {
		t.Errorf("expected absent themes and win rate, got %+v", all[0])
	}

	// Replacing drops cards no longer in the variant.
	meren.Cards = meren.Cards[:1]
	if err := repo.ReplaceVariant(ctx, &meren); err != nil {
		t.Fatal(err)
	}
	variants, inclusions, err := repo.Counts(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if variants != 2 || inclusions != 2 {
		t.Errorf("expected 2 variants and 2 inclusions, got %d and %d", variants, inclusions)
	}

	if err := repo.DeleteCommander(ctx, "Krenko, Mob Boss"); err != nil {
		t.Fatal(err)
	}
	variants, inclusions, _ = repo.Counts(ctx)
	if variants != 1 || inclusions != 1 {
		t.Errorf("expected 1 variant and 1 inclusion after delete, got %d and %d", variants, inclusions)
	}
}

func TestDeckRepository_UnknownCommanderRejected(t *testing.T) {
	db := setupTestDB(t)
	repo := NewDeckRepository(db)

	v := corpus.DeckVariant{Key: corpus.VariantKey{Commander: "Ghost", Archetype: corpus.Combo, Budget: corpus.High}}
	if err := repo.ReplaceVariant(context.Background(), &v); err == nil {
		t.Error("expected foreign key violation for unknown commander")
	}
}

func TestDeckRepository_ListEmpty(t *testing.T) {
	db := setupTestDB(t)
	got, err := NewDeckRepository(db).ListVariants(context.Background(), "Nobody")
	if err != nil {
		t.Fatal(err)
	}
	if got != nil {
		t.Errorf("expected nil, got %+v", got)
	}
}
