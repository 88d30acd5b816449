package store

import (
	"context"
	"errors"
	"sort"
	"strings"

	"github.com/romcheg/offline-cards/internal/interchange"
	"github.com/romcheg/offline-cards/internal/walletsvc/models"
)

var (
	ErrDuplicateCard = errors.New("card with the same number already exists")
	ErrCardNotFound  = errors.New("card not found")
)

// CardStore is the persistent card collection. Apply must be atomic with
// respect to List: readers see the collection before or after a merge,
// never in between.
type CardStore interface {
	List(ctx context.Context, search string) ([]models.Card, error)
	Get(ctx context.Context, number string) (*models.Card, error)
	Insert(ctx context.Context, card models.Card) error
	Update(ctx context.Context, card models.Card) error
	Delete(ctx context.Context, number string) error
	Apply(ctx context.Context, plan interchange.Plan) error
}

// matchesStore is the case-insensitive substring filter on store names.
func matchesStore(card models.Card, search string) bool {
	if search == "" {
		return true
	}
	return strings.Contains(strings.ToLower(card.StoreName), strings.ToLower(search))
}

// sortByStore orders by store name, then card number for equal names.
func sortByStore(cards []models.Card) {
	sort.Slice(cards, func(i, j int) bool {
		if cards[i].StoreName != cards[j].StoreName {
			return cards[i].StoreName < cards[j].StoreName
		}
		return cards[i].CardNumber < cards[j].CardNumber
	})
}
