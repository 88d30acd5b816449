package interchange

import (
	"errors"
	"fmt"

	"github.com/romcheg/offline-cards/internal/walletsvc/models"
)

var ErrInvalidTransition = errors.New("interchange: decision not valid in current state")

type MergeState int

const (
	StateIdle MergeState = iota
	StatePendingErase
	StatePendingDuplicates
	StateApplied
	StateCancelled
)

func (s MergeState) String() string {
	switch s {
	case StatePendingErase:
		return "pending-erase"
	case StatePendingDuplicates:
		return "pending-duplicates"
	case StateApplied:
		return "applied"
	case StateCancelled:
		return "cancelled"
	default:
		return "idle"
	}
}

type DuplicateChoice int

const (
	Overwrite DuplicateChoice = iota + 1
	Skip
	Cancel
)

func ParseDuplicateChoice(s string) (DuplicateChoice, error) {
	switch s {
	case "overwrite":
		return Overwrite, nil
	case "skip":
		return Skip, nil
	case "cancel":
		return Cancel, nil
	}
	return 0, fmt.Errorf("unknown duplicate choice %q", s)
}

// Plan is the set of store mutations a resolved merge asks for. Stores apply
// EraseAll first, then Delete, then Insert, as one atomic unit.
type Plan struct {
	EraseAll bool
	Delete   []string
	Insert   []models.Card
}

func (p Plan) Empty() bool {
	return !p.EraseAll && len(p.Delete) == 0 && len(p.Insert) == 0
}

// Merge walks an import through the erase and duplicate decisions:
//
//	Idle -> PendingErase -> PendingDuplicates -> Applied | Cancelled
//
// The erase decision is skipped when the existing collection is empty and the
// duplicate decision when nothing clashes. The zero value is Idle.
type Merge struct {
	state      MergeState
	imported   []models.Card
	existing   []models.Card
	erase      bool
	duplicates []string
	plan       Plan
}

func NewMerge() *Merge {
	return &Merge{}
}

// Begin takes the parsed import and a snapshot of the existing collection.
// Repeated numbers inside imported collapse to their last occurrence.
func (m *Merge) Begin(imported, existing []models.Card) error {
	if m.state != StateIdle {
		return ErrInvalidTransition
	}
	m.imported = collapseRepeats(imported)
	m.existing = existing
	if len(existing) == 0 {
		m.detectDuplicates()
		return nil
	}
	m.state = StatePendingErase
	return nil
}

func (m *Merge) DecideErase(erase bool) error {
	if m.state != StatePendingErase {
		return ErrInvalidTransition
	}
	if erase {
		m.erase = true
		m.existing = nil
	}
	m.detectDuplicates()
	return nil
}

func (m *Merge) DecideDuplicates(choice DuplicateChoice) error {
	if m.state != StatePendingDuplicates {
		return ErrInvalidTransition
	}

	switch choice {
	case Overwrite:
		m.resolve(m.duplicates, m.imported)
	case Skip:
		dup := make(map[string]struct{}, len(m.duplicates))
		for _, n := range m.duplicates {
			dup[n] = struct{}{}
		}
		var keep []models.Card
		for _, c := range m.imported {
			if _, ok := dup[c.CardNumber]; !ok {
				keep = append(keep, c)
			}
		}
		m.resolve(nil, keep)
	case Cancel:
		m.cancel()
	default:
		return fmt.Errorf("%w: unknown choice %d", ErrInvalidTransition, choice)
	}
	return nil
}

// Cancel discards the pending import from either decision point.
func (m *Merge) Cancel() error {
	if m.state != StatePendingErase && m.state != StatePendingDuplicates {
		return ErrInvalidTransition
	}
	m.cancel()
	return nil
}

func (m *Merge) State() MergeState { return m.state }

// Duplicates are the clashing card numbers found after the erase decision.
func (m *Merge) Duplicates() []string { return m.duplicates }

func (m *Merge) Imported() []models.Card { return m.imported }

// Plan returns the mutations to apply; ok is false until the merge is Applied.
func (m *Merge) Plan() (Plan, bool) {
	if m.state != StateApplied {
		return Plan{}, false
	}
	return m.plan, true
}

func (m *Merge) detectDuplicates() {
	m.duplicates = FindDuplicates(m.imported, m.existing)
	if len(m.duplicates) == 0 {
		m.resolve(nil, m.imported)
		return
	}
	m.state = StatePendingDuplicates
}

func (m *Merge) resolve(del []string, insert []models.Card) {
	m.plan = Plan{EraseAll: m.erase, Delete: del, Insert: insert}
	m.state = StateApplied
}

func (m *Merge) cancel() {
	m.plan = Plan{}
	m.imported = nil
	m.duplicates = nil
	m.state = StateCancelled
}

func collapseRepeats(cards []models.Card) []models.Card {
	last := make(map[string]int, len(cards))
	for i, c := range cards {
		last[c.CardNumber] = i
	}
	if len(last) == len(cards) {
		return cards
	}
	out := make([]models.Card, 0, len(last))
	for i, c := range cards {
		if last[c.CardNumber] == i {
			out = append(out, c)
		}
	}
	return out
}
