package interchange

import "github.com/romcheg/offline-cards/internal/walletsvc/models"

// IsDuplicate reports whether existing holds a card with the same number.
// Other fields are not compared.
func IsDuplicate(card models.Card, existing []models.Card) bool {
	for _, e := range existing {
		if e.CardNumber == card.CardNumber {
			return true
		}
	}
	return false
}

// FindDuplicates returns the numbers of imported cards that already exist,
// in the order they appear in imported.
func FindDuplicates(imported, existing []models.Card) []string {
	numbers := make(map[string]struct{}, len(existing))
	for _, e := range existing {
		numbers[e.CardNumber] = struct{}{}
	}

	var dups []string
	for _, c := range imported {
		if _, ok := numbers[c.CardNumber]; ok {
			dups = append(dups, c.CardNumber)
		}
	}
	return dups
}
