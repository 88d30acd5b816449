// Package interchange converts the card collection to and from the versioned
// JSON interchange document and reconciles imported cards against the
// existing collection.
package interchange

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/romcheg/offline-cards/internal/walletsvc/models"
)

// CurrentVersion is the schema version written by ExportCards.
const CurrentVersion = 1

// ISOTime is a timestamp carried as an ISO-8601 string with second
// precision, always in UTC.
type ISOTime time.Time

func (t ISOTime) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Time(t).UTC().Format(time.RFC3339))
}

func (t *ISOTime) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return err
	}
	*t = ISOTime(parsed.UTC())
	return nil
}

func (t ISOTime) Time() time.Time { return time.Time(t) }

// ExportRecord is the wire form of a card. Fields are declared in key order
// so the encoded object comes out sorted.
type ExportRecord struct {
	CardNumber      string   `json:"cardNumber"`
	ColorHex        string   `json:"colorHex"`
	CreatedAt       ISOTime  `json:"createdAt"`
	HolderName      *string  `json:"holderName"`
	PhotoDataBase64 []string `json:"photoDataBase64"`
	StoreName       string   `json:"storeName"`
	UseQRCode       bool     `json:"useQRCode"`
}

// ExportContainer is the top-level interchange document.
type ExportContainer struct {
	Cards      []ExportRecord `json:"cards"`
	ExportDate ISOTime        `json:"exportDate"`
	Version    int            `json:"version"`
}

func ToExportRecord(c models.Card) ExportRecord {
	rec := ExportRecord{
		CardNumber: c.CardNumber,
		ColorHex:   c.ColorHex,
		CreatedAt:  ISOTime(c.CreatedAt),
		HolderName: c.HolderName,
		StoreName:  c.StoreName,
		UseQRCode:  c.UseQRCode,
	}
	if c.PhotoData != nil {
		rec.PhotoDataBase64 = make([]string, 0, len(c.PhotoData))
		for _, p := range c.PhotoData {
			rec.PhotoDataBase64 = append(rec.PhotoDataBase64, base64.StdEncoding.EncodeToString(p))
		}
	}
	return rec
}

// FromExportRecord rebuilds a card. Photo entries that are not valid base64
// are dropped; the rest of the card is kept.
func FromExportRecord(rec ExportRecord) models.Card {
	c := models.Card{
		CardNumber: rec.CardNumber,
		StoreName:  rec.StoreName,
		HolderName: rec.HolderName,
		UseQRCode:  rec.UseQRCode,
		ColorHex:   rec.ColorHex,
		CreatedAt:  rec.CreatedAt.Time(),
	}
	if rec.PhotoDataBase64 != nil {
		c.PhotoData = make([][]byte, 0, len(rec.PhotoDataBase64))
		for _, s := range rec.PhotoDataBase64 {
			b, err := base64.StdEncoding.DecodeString(s)
			if err != nil {
				continue
			}
			c.PhotoData = append(c.PhotoData, b)
		}
	}
	return c
}

// wireRecord and wireContainer mirror the documents with pointers so that
// missing required keys can be told apart from zero values.
type wireRecord struct {
	CardNumber      *string  `json:"cardNumber"`
	ColorHex        *string  `json:"colorHex"`
	CreatedAt       *ISOTime `json:"createdAt"`
	HolderName      *string  `json:"holderName"`
	PhotoDataBase64 []string `json:"photoDataBase64"`
	StoreName       *string  `json:"storeName"`
	UseQRCode       *bool    `json:"useQRCode"`
}

type wireContainer struct {
	Cards      *[]wireRecord `json:"cards"`
	ExportDate *ISOTime      `json:"exportDate"`
	Version    *int          `json:"version"`
}

func (w wireContainer) container() (ExportContainer, error) {
	switch {
	case w.Version == nil:
		return ExportContainer{}, fmt.Errorf("missing key %q", "version")
	case w.ExportDate == nil:
		return ExportContainer{}, fmt.Errorf("missing key %q", "exportDate")
	case w.Cards == nil:
		return ExportContainer{}, fmt.Errorf("missing key %q", "cards")
	}
	if *w.Version < 1 || *w.Version > CurrentVersion {
		return ExportContainer{}, fmt.Errorf("unsupported version %d", *w.Version)
	}

	out := ExportContainer{
		Cards:      make([]ExportRecord, 0, len(*w.Cards)),
		ExportDate: *w.ExportDate,
		Version:    *w.Version,
	}
	for i, r := range *w.Cards {
		rec, err := r.record()
		if err != nil {
			return ExportContainer{}, fmt.Errorf("cards[%d]: %w", i, err)
		}
		out.Cards = append(out.Cards, rec)
	}
	return out, nil
}

func (w wireRecord) record() (ExportRecord, error) {
	required := []struct {
		key     string
		present bool
	}{
		{"cardNumber", w.CardNumber != nil},
		{"colorHex", w.ColorHex != nil},
		{"createdAt", w.CreatedAt != nil},
		{"storeName", w.StoreName != nil},
		{"useQRCode", w.UseQRCode != nil},
	}
	for _, r := range required {
		if !r.present {
			return ExportRecord{}, fmt.Errorf("missing key %q", r.key)
		}
	}
	return ExportRecord{
		CardNumber:      *w.CardNumber,
		ColorHex:        *w.ColorHex,
		CreatedAt:       *w.CreatedAt,
		HolderName:      w.HolderName,
		PhotoDataBase64: w.PhotoDataBase64,
		StoreName:       *w.StoreName,
		UseQRCode:       *w.UseQRCode,
	}, nil
}

var (
	containerKeys = []string{"cards", "exportDate", "version"}
	recordKeys    = []string{"cardNumber", "colorHex", "createdAt", "holderName", "photoDataBase64", "storeName", "useQRCode"}
)

// checkKeys rejects keys that differ from a known key only by case.
// encoding/json would otherwise match them to the field. Unknown keys are
// ignored, and shape errors are left to the typed decode.
func checkKeys(data []byte) error {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(data, &top); err != nil {
		return nil
	}
	if err := canonicalKeys(top, containerKeys); err != nil {
		return err
	}

	var cards []map[string]json.RawMessage
	if err := json.Unmarshal(top["cards"], &cards); err != nil {
		return nil
	}
	for i, rec := range cards {
		if err := canonicalKeys(rec, recordKeys); err != nil {
			return fmt.Errorf("cards[%d]: %w", i, err)
		}
	}
	return nil
}

func canonicalKeys(obj map[string]json.RawMessage, known []string) error {
	for key := range obj {
		for _, k := range known {
			if key != k && strings.EqualFold(key, k) {
				return fmt.Errorf("key %q must be spelled %q", key, k)
			}
		}
	}
	return nil
}
