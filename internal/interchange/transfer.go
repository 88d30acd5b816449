package interchange

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/romcheg/offline-cards/internal/walletsvc/models"
)

var (
	ErrNoCardsToExport = errors.New("interchange: no cards to export")
	ErrEncodingFailed  = errors.New("interchange: encoding failed")
	ErrDecodingFailed  = errors.New("interchange: decoding failed")
	ErrFileReadFailed  = errors.New("interchange: file read failed")
)

// ExportCards encodes cards as an interchange document stamped with the
// current time.
func ExportCards(cards []models.Card) ([]byte, error) {
	return ExportCardsAt(cards, time.Now())
}

// ExportCardsAt is ExportCards with an explicit export date. Output is
// indented and every object has its keys in sorted order.
func ExportCardsAt(cards []models.Card, now time.Time) ([]byte, error) {
	if len(cards) == 0 {
		return nil, ErrNoCardsToExport
	}

	container := ExportContainer{
		Cards:      make([]ExportRecord, 0, len(cards)),
		ExportDate: ISOTime(now),
		Version:    CurrentVersion,
	}
	for _, c := range cards {
		container.Cards = append(container.Cards, ToExportRecord(c))
	}

	data, err := json.MarshalIndent(container, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncodingFailed, err)
	}
	return data, nil
}

// ImportCards parses an interchange document. Structural problems (syntax,
// missing or misspelled keys, wrong types, bad dates, unsupported version)
// are reported as ErrDecodingFailed. Field values are taken as they are, so
// anything ExportCards writes reads back.
func ImportCards(data []byte) ([]models.Card, error) {
	if err := checkKeys(data); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecodingFailed, err)
	}
	var wire wireContainer
	if err := json.Unmarshal(data, &wire); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecodingFailed, err)
	}
	container, err := wire.container()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecodingFailed, err)
	}

	cards := make([]models.Card, 0, len(container.Cards))
	for _, rec := range container.Cards {
		cards = append(cards, FromExportRecord(rec))
	}
	return cards, nil
}

// ImportFrom reads the whole document from r before parsing it.
func ImportFrom(r io.Reader) ([]models.Card, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFileReadFailed, err)
	}
	return ImportCards(data)
}

func ImportFile(path string) ([]models.Card, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFileReadFailed, err)
	}
	defer f.Close()
	return ImportFrom(f)
}

// ExportFileName is the name an export is offered under.
func ExportFileName(now time.Time) string {
	return fmt.Sprintf("cards_export_%d.json", now.Unix())
}
