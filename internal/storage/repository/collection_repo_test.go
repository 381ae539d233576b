package repository

import (
	"context"
	"testing"

	"github.com/danethurber/ponderous/internal/collection"
)

func TestCollectionRepository_UpsertAndGet(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCollectionRepository(db)
	ctx := context.Background()

	cards := []collection.OwnedCard{
		{Name: "Sol Ring", Quantity: 2, FoilQuantity: 1, UnitPrice: ptr(1.5)},
		{Name: "Command Tower", Quantity: 1},
	}
	n, err := repo.UpsertCards(ctx, "alice", "moxfield", cards)
	if err != nil {
		t.Fatalf("UpsertCards failed: %v", err)
	}
	if n != 2 {
		t.Errorf("expected 2 cards written, got %d", n)
	}

	got, err := repo.GetCards(ctx, "alice")
	if err != nil {
		t.Fatalf("GetCards failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 cards, got %d", len(got))
	}
	if got[0].Name != "Command Tower" || got[0].UnitPrice != nil {
		t.Errorf("unexpected first card: %+v", got[0])
	}
	if got[1].Name != "Sol Ring" || got[1].Quantity != 2 || got[1].FoilQuantity != 1 {
		t.Errorf("unexpected second card: %+v", got[1])
	}
	if got[1].UnitPrice == nil || *got[1].UnitPrice != 1.5 {
		t.Errorf("expected price 1.5, got %v", got[1].UnitPrice)
	}

	// Re-importing overwrites rather than adds.
	if _, err := repo.UpsertCards(ctx, "alice", "moxfield", []collection.OwnedCard{{Name: "Sol Ring", Quantity: 4}}); err != nil {
		t.Fatalf("second UpsertCards failed: %v", err)
	}
	got, err = repo.GetCards(ctx, "alice")
	if err != nil {
		t.Fatalf("GetCards failed: %v", err)
	}
	if got[1].Quantity != 4 || got[1].FoilQuantity != 0 || got[1].UnitPrice != nil {
		t.Errorf("expected overwritten Sol Ring, got %+v", got[1])
	}
}

func TestCollectionRepository_GetCardsUnknownUser(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCollectionRepository(db)

	got, err := repo.GetCards(context.Background(), "nobody")
	if err != nil {
		t.Fatalf("GetCards failed: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected no cards, got %d", len(got))
	}
}

func TestCollectionRepository_SourcesAndUsers(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCollectionRepository(db)
	ctx := context.Background()

	if _, err := repo.UpsertCards(ctx, "alice", "moxfield", []collection.OwnedCard{{Name: "Sol Ring", Quantity: 1}}); err != nil {
		t.Fatal(err)
	}
	if _, err := repo.UpsertCards(ctx, "alice", "manual", []collection.OwnedCard{
		{Name: "Sol Ring", Quantity: 1},
		{Name: "Arcane Signet", Quantity: 3},
	}); err != nil {
		t.Fatal(err)
	}
	if _, err := repo.UpsertCards(ctx, "bob", "moxfield", []collection.OwnedCard{{Name: "Forest", Quantity: 10}}); err != nil {
		t.Fatal(err)
	}

	users, err := repo.ListUsers(ctx)
	if err != nil {
		t.Fatalf("ListUsers failed: %v", err)
	}
	if len(users) != 2 {
		t.Fatalf("expected 2 users, got %d", len(users))
	}
	alice := users[0]
	if alice.UserID != "alice" || alice.UniqueCards != 2 || alice.TotalCards != 5 || alice.Sources != 2 {
		t.Errorf("unexpected alice summary: %+v", alice)
	}
	if alice.UpdatedAt.IsZero() {
		t.Error("expected alice to have an update time")
	}

	deleted, err := repo.DeleteSource(ctx, "alice", "manual")
	if err != nil {
		t.Fatalf("DeleteSource failed: %v", err)
	}
	if deleted != 2 {
		t.Errorf("expected 2 rows deleted, got %d", deleted)
	}

	deleted, err = repo.DeleteUser(ctx, "bob")
	if err != nil {
		t.Fatalf("DeleteUser failed: %v", err)
	}
	if deleted != 1 {
		t.Errorf("expected 1 row deleted, got %d", deleted)
	}

	users, err = repo.ListUsers(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(users) != 1 || users[0].TotalCards != 1 {
		t.Errorf("unexpected users after delete: %+v", users)
	}
}

func TestCollectionRepository_RejectsNegativeQuantity(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCollectionRepository(db)

	_, err := repo.UpsertCards(context.Background(), "alice", "moxfield", []collection.OwnedCard{{Name: "Sol Ring", Quantity: -1}})
	if err == nil {
		t.Error("expected check constraint violation")
	}
}
