package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/danethurber/ponderous/internal/analysis"
	"github.com/danethurber/ponderous/internal/collection"
	"github.com/danethurber/ponderous/internal/corpus"
	"github.com/danethurber/ponderous/internal/storage/repository"
)

// Service provides high-level operations over the stored collections and
// deck statistics.
type Service struct {
	db         *DB
	collection repository.CollectionRepository
	commanders repository.CommanderRepository
	decks      repository.DeckRepository
	cards      repository.CardRepository
}

// NewService creates a new storage service.
func NewService(db *DB) *Service {
	return &Service{
		db:         db,
		collection: repository.NewCollectionRepository(db.Conn()),
		commanders: repository.NewCommanderRepository(db.Conn()),
		decks:      repository.NewDeckRepository(db.Conn()),
		cards:      repository.NewCardRepository(db.Conn()),
	}
}

// Close closes the underlying database.
func (s *Service) Close() error {
	return s.db.Close()
}

// ImportResult summarizes a collection import.
type ImportResult struct {
	UserID  string `json:"userId"`
	Source  string `json:"source"`
	Written int    `json:"written"`
	Removed int64  `json:"removed"`
}

// ImportCollection stores cards for a user. With replace set, cards the
// source previously contributed are removed first. The import is atomic.
func (s *Service) ImportCollection(ctx context.Context, userID, source string, cards []collection.OwnedCard, replace bool) (*ImportResult, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, fmt.Errorf("user id cannot be empty")
	}
	if source == "" {
		source = "moxfield"
	}

	// Rows sharing a name, such as several printings, are merged first.
	merged, err := collection.New(userID, cards)
	if err != nil {
		return nil, fmt.Errorf("invalid collection: %w", err)
	}

	result := &ImportResult{UserID: userID, Source: source}
	err = s.db.WithTransaction(ctx, func(tx *sql.Tx) error {
		repo := repository.NewCollectionRepository(tx)
		if replace {
			n, err := repo.DeleteSource(ctx, userID, source)
			if err != nil {
				return err
			}
			result.Removed = n
		}
		n, err := repo.UpsertCards(ctx, userID, source, merged.Cards())
		if err != nil {
			return err
		}
		result.Written = n
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to import collection: %w", err)
	}

	return result, nil
}

// LoadCollection materializes a user's collection. A user with no stored
// cards is reported as unavailable data.
func (s *Service) LoadCollection(ctx context.Context, userID string) (*collection.Collection, error) {
	cards, err := s.collection.GetCards(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(cards) == 0 {
		return nil, &analysis.DataUnavailableError{Entity: "collection", Name: userID, Reason: "no cards imported"}
	}

	coll, err := collection.New(userID, cards)
	if err != nil {
		return nil, fmt.Errorf("failed to build collection: %w", err)
	}
	return coll, nil
}

// ListUsers summarizes every stored collection.
func (s *Service) ListUsers(ctx context.Context) ([]repository.UserSummary, error) {
	return s.collection.ListUsers(ctx)
}

// DeleteUser removes a user's collection and returns the rows removed.
func (s *Service) DeleteUser(ctx context.Context, userID string) (int64, error) {
	return s.collection.DeleteUser(ctx, userID)
}

// StoreCommander replaces a commander's metadata and variants atomically.
// Variants absent from the new set are removed.
func (s *Service) StoreCommander(ctx context.Context, cmd *corpus.Commander, variants []corpus.DeckVariant) error {
	if cmd == nil || strings.TrimSpace(cmd.Name) == "" {
		return fmt.Errorf("commander name cannot be empty")
	}
	for i := range variants {
		if variants[i].Key.Commander != cmd.Name {
			return fmt.Errorf("variant %s does not belong to %q", variants[i].Key, cmd.Name)
		}
		if err := variants[i].Validate(); err != nil {
			return err
		}
	}

	err := s.db.WithTransaction(ctx, func(tx *sql.Tx) error {
		if err := repository.NewCommanderRepository(tx).Upsert(ctx, cmd); err != nil {
			return err
		}
		decks := repository.NewDeckRepository(tx)
		if err := decks.DeleteCommander(ctx, cmd.Name); err != nil {
			return err
		}
		for i := range variants {
			if err := decks.ReplaceVariant(ctx, &variants[i]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to store commander %q: %w", cmd.Name, err)
	}

	return nil
}

// StoreCards upserts card metadata.
func (s *Service) StoreCards(ctx context.Context, cards []corpus.Card) error {
	return s.db.WithTransaction(ctx, func(tx *sql.Tx) error {
		return repository.NewCardRepository(tx).UpsertCards(ctx, cards)
	})
}

// LoadCorpus materializes the deck statistics snapshot.
func (s *Service) LoadCorpus(ctx context.Context) (*corpus.Corpus, error) {
	commanders, err := s.commanders.List(ctx)
	if err != nil {
		return nil, err
	}
	variants, err := s.decks.ListVariants(ctx, "")
	if err != nil {
		return nil, err
	}
	cards, err := s.cards.ListPreferred(ctx)
	if err != nil {
		return nil, err
	}
	return corpus.New(commanders, variants, cards), nil
}

// LoadPrices builds the price book used for missing-card values. Card
// metadata prices come first; prices recorded in the user's collection
// override them.
func (s *Service) LoadPrices(ctx context.Context, userID string) (corpus.PriceBook, error) {
	book := corpus.PriceBook{}

	cards, err := s.cards.ListPreferred(ctx)
	if err != nil {
		return nil, err
	}
	for _, c := range cards {
		if c.Price != nil {
			book.Set(c.Name, *c.Price)
		}
	}

	if userID == "" {
		return book, nil
	}
	owned, err := s.collection.GetCards(ctx, userID)
	if err != nil {
		return nil, err
	}
	for _, c := range owned {
		if c.UnitPrice != nil {
			book.Set(c.Name, *c.UnitPrice)
		}
	}

	return book, nil
}

// Stats counts stored rows.
type Stats struct {
	Users      int `json:"users"`
	Commanders int `json:"commanders"`
	Variants   int `json:"variants"`
	Inclusions int `json:"inclusions"`
}

// Stats returns row counts for the status display.
func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	users, err := s.collection.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	commanders, err := s.commanders.Count(ctx)
	if err != nil {
		return nil, err
	}
	variants, inclusions, err := s.decks.Counts(ctx)
	if err != nil {
		return nil, err
	}
	return &Stats{
		Users:      len(users),
		Commanders: commanders,
		Variants:   variants,
		Inclusions: inclusions,
	}, nil
}
