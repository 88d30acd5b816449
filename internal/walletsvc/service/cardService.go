package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru"
	log "github.com/sirupsen/logrus"

	"github.com/romcheg/offline-cards/internal/codegen"
	"github.com/romcheg/offline-cards/internal/comm"
	"github.com/romcheg/offline-cards/internal/interchange"
	"github.com/romcheg/offline-cards/internal/walletsvc/models"
	"github.com/romcheg/offline-cards/internal/walletsvc/store"
)

var ErrImportNotFound = errors.New("import not found or expired")

// Notifier receives a description of every committed change.
type Notifier interface {
	CardsChanged(ev comm.CardsChanged)
}

type nopNotifier struct{}

func (nopNotifier) CardsChanged(comm.CardsChanged) {}

// ImportStatus describes where a staged import stands.
type ImportStatus struct {
	ID         string   `json:"id,omitempty"`
	State      string   `json:"state"`
	Imported   int      `json:"imported"`
	Duplicates []string `json:"duplicates,omitempty"`
	Inserted   int      `json:"inserted"`
	Deleted    int      `json:"deleted"`
	Erased     bool     `json:"erased"`
}

type CardService struct {
	store    store.CardStore
	renderer *codegen.Renderer
	notifier Notifier

	importMu sync.Mutex
	pending  *lru.Cache // import id -> *interchange.Merge
}

// NewCardService wires the store and renderer. notifier may be nil.
// maxPending bounds the imports waiting for a decision; the oldest is
// dropped when the bound is hit.
func NewCardService(s store.CardStore, r *codegen.Renderer, n Notifier, maxPending int) (*CardService, error) {
	if n == nil {
		n = nopNotifier{}
	}
	if maxPending <= 0 {
		maxPending = 64
	}
	pending, err := lru.New(maxPending)
	if err != nil {
		return nil, fmt.Errorf("failed to create pending import cache: %w", err)
	}
	return &CardService{store: s, renderer: r, notifier: n, pending: pending}, nil
}

func (s *CardService) ListCards(ctx context.Context, search string) ([]models.Card, error) {
	return s.store.List(ctx, search)
}

func (s *CardService) GetCard(ctx context.Context, number string) (*models.Card, error) {
	return s.store.Get(ctx, number)
}

func (s *CardService) AddCard(ctx context.Context, card models.Card) (models.Card, error) {
	if err := card.Validate(); err != nil {
		return card, err
	}
	if card.CreatedAt.IsZero() {
		card.CreatedAt = time.Now().UTC()
	}
	if err := s.store.Insert(ctx, card); err != nil {
		return card, err
	}
	s.notifier.CardsChanged(comm.CardsChanged{Inserted: []string{card.CardNumber}, Timestamp: time.Now().UTC()})
	return card, nil
}

func (s *CardService) UpdateCard(ctx context.Context, card models.Card) error {
	if err := card.Validate(); err != nil {
		return err
	}
	if err := s.store.Update(ctx, card); err != nil {
		return err
	}
	s.notifier.CardsChanged(comm.CardsChanged{Updated: []string{card.CardNumber}, Timestamp: time.Now().UTC()})
	return nil
}

func (s *CardService) DeleteCard(ctx context.Context, number string) error {
	if err := s.store.Delete(ctx, number); err != nil {
		return err
	}
	s.notifier.CardsChanged(comm.CardsChanged{Deleted: []string{number}, Timestamp: time.Now().UTC()})
	return nil
}

// RenderCard renders the card's number in the card's own symbology.
func (s *CardService) RenderCard(ctx context.Context, number string, res codegen.Resolution) ([]byte, error) {
	card, err := s.store.Get(ctx, number)
	if err != nil {
		return nil, err
	}
	return s.renderer.RenderPNG(card.CardNumber, card.Mode(), res)
}

func (s *CardService) Render(text string, mode codegen.Mode, res codegen.Resolution) ([]byte, error) {
	return s.renderer.RenderPNG(text, mode, res)
}

// Export encodes the whole collection and suggests a file name for it.
func (s *CardService) Export(ctx context.Context) ([]byte, string, error) {
	cards, err := s.store.List(ctx, "")
	if err != nil {
		return nil, "", err
	}
	now := time.Now()
	data, err := interchange.ExportCardsAt(cards, now)
	if err != nil {
		return nil, "", err
	}
	log.Infof("exported %d cards", len(cards))
	return data, interchange.ExportFileName(now), nil
}

// BeginImport parses an interchange document and starts a merge against the
// current collection. When no decision is needed the import is applied
// straight away; otherwise it is parked under the returned ID.
func (s *CardService) BeginImport(ctx context.Context, data []byte) (*ImportStatus, error) {
	imported, err := interchange.ImportCards(data)
	if err != nil {
		return nil, err
	}
	return s.beginMerge(ctx, imported)
}

// BeginImportFrom is BeginImport reading the document from r.
func (s *CardService) BeginImportFrom(ctx context.Context, r io.Reader) (*ImportStatus, error) {
	imported, err := interchange.ImportFrom(r)
	if err != nil {
		return nil, err
	}
	return s.beginMerge(ctx, imported)
}

// BeginImportFile is BeginImport reading the document from a file.
func (s *CardService) BeginImportFile(ctx context.Context, path string) (*ImportStatus, error) {
	imported, err := interchange.ImportFile(path)
	if err != nil {
		return nil, err
	}
	return s.beginMerge(ctx, imported)
}

func (s *CardService) beginMerge(ctx context.Context, imported []models.Card) (*ImportStatus, error) {
	existing, err := s.store.List(ctx, "")
	if err != nil {
		return nil, err
	}

	m := interchange.NewMerge()
	if err := m.Begin(imported, existing); err != nil {
		return nil, err
	}

	s.importMu.Lock()
	defer s.importMu.Unlock()

	id := uuid.New().String()
	return s.advance(ctx, id, m)
}

func (s *CardService) DecideErase(ctx context.Context, id string, erase bool) (*ImportStatus, error) {
	return s.decide(ctx, id, func(m *interchange.Merge) error { return m.DecideErase(erase) })
}

func (s *CardService) DecideDuplicates(ctx context.Context, id string, choice interchange.DuplicateChoice) (*ImportStatus, error) {
	return s.decide(ctx, id, func(m *interchange.Merge) error { return m.DecideDuplicates(choice) })
}

func (s *CardService) CancelImport(ctx context.Context, id string) (*ImportStatus, error) {
	return s.decide(ctx, id, func(m *interchange.Merge) error { return m.Cancel() })
}

// PendingImport reports the state of a parked import without changing it.
func (s *CardService) PendingImport(id string) (*ImportStatus, error) {
	s.importMu.Lock()
	defer s.importMu.Unlock()

	v, ok := s.pending.Get(id)
	if !ok {
		return nil, ErrImportNotFound
	}
	return status(id, v.(*interchange.Merge), interchange.Plan{}), nil
}

func (s *CardService) decide(ctx context.Context, id string, step func(*interchange.Merge) error) (*ImportStatus, error) {
	s.importMu.Lock()
	defer s.importMu.Unlock()

	v, ok := s.pending.Get(id)
	if !ok {
		return nil, ErrImportNotFound
	}
	m := v.(*interchange.Merge)
	if err := step(m); err != nil {
		return status(id, m, interchange.Plan{}), err
	}
	return s.advance(ctx, id, m)
}

// advance applies or parks m depending on its state. Callers hold importMu.
func (s *CardService) advance(ctx context.Context, id string, m *interchange.Merge) (*ImportStatus, error) {
	switch m.State() {
	case interchange.StatePendingErase, interchange.StatePendingDuplicates:
		s.pending.Add(id, m)
		return status(id, m, interchange.Plan{}), nil
	case interchange.StateCancelled:
		s.pending.Remove(id)
		log.Infof("import %s cancelled", id)
		return status(id, m, interchange.Plan{}), nil
	}

	s.pending.Remove(id)
	plan, _ := m.Plan()
	if err := s.store.Apply(ctx, plan); err != nil {
		log.Errorf("import %s failed to apply: %s", id, err)
		return nil, err
	}
	log.Infof("import %s applied: erase=%t deleted=%d inserted=%d", id, plan.EraseAll, len(plan.Delete), len(plan.Insert))

	if !plan.Empty() {
		s.notifier.CardsChanged(comm.CardsChanged{
			Inserted:  cardNumbers(plan.Insert),
			Deleted:   plan.Delete,
			Erased:    plan.EraseAll,
			Timestamp: time.Now().UTC(),
		})
	}
	return status(id, m, plan), nil
}

func status(id string, m *interchange.Merge, plan interchange.Plan) *ImportStatus {
	return &ImportStatus{
		ID:         id,
		State:      m.State().String(),
		Imported:   len(m.Imported()),
		Duplicates: m.Duplicates(),
		Inserted:   len(plan.Insert),
		Deleted:    len(plan.Delete),
		Erased:     plan.EraseAll,
	}
}

func cardNumbers(cards []models.Card) []string {
	out := make([]string, 0, len(cards))
	for _, c := range cards {
		out = append(out, c.CardNumber)
	}
	return out
}
