package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/romcheg/offline-cards/internal/interchange"
	"github.com/romcheg/offline-cards/internal/walletsvc/models"
)

// MemoryCardStore keeps the collection in process memory.
type MemoryCardStore struct {
	mu    sync.RWMutex
	cards map[string]models.Card
}

func NewMemoryCardStore(seed ...models.Card) *MemoryCardStore {
	s := &MemoryCardStore{cards: make(map[string]models.Card, len(seed))}
	for _, c := range seed {
		s.cards[c.CardNumber] = c
	}
	return s
}

func (s *MemoryCardStore) List(ctx context.Context, search string) ([]models.Card, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cards := make([]models.Card, 0, len(s.cards))
	for _, c := range s.cards {
		if matchesStore(c, search) {
			cards = append(cards, c)
		}
	}
	sortByStore(cards)
	return cards, nil
}

func (s *MemoryCardStore) Get(ctx context.Context, number string) (*models.Card, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.cards[number]
	if !ok {
		return nil, ErrCardNotFound
	}
	return &c, nil
}

func (s *MemoryCardStore) Insert(ctx context.Context, card models.Card) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.cards[card.CardNumber]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateCard, card.CardNumber)
	}
	s.cards[card.CardNumber] = card
	return nil
}

func (s *MemoryCardStore) Update(ctx context.Context, card models.Card) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	old, ok := s.cards[card.CardNumber]
	if !ok {
		return ErrCardNotFound
	}
	card.CreatedAt = old.CreatedAt
	s.cards[card.CardNumber] = card
	return nil
}

func (s *MemoryCardStore) Delete(ctx context.Context, number string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.cards[number]; !ok {
		return ErrCardNotFound
	}
	delete(s.cards, number)
	return nil
}

// Apply stages the merge on a copy and swaps it in under the write lock, so
// a failed insert leaves the collection untouched.
func (s *MemoryCardStore) Apply(ctx context.Context, plan interchange.Plan) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := make(map[string]models.Card, len(s.cards)+len(plan.Insert))
	if !plan.EraseAll {
		for k, v := range s.cards {
			next[k] = v
		}
	}
	for _, n := range plan.Delete {
		delete(next, n)
	}
	for _, c := range plan.Insert {
		if _, ok := next[c.CardNumber]; ok {
			return fmt.Errorf("%w: %s", ErrDuplicateCard, c.CardNumber)
		}
		next[c.CardNumber] = c
	}
	s.cards = next
	return nil
}
