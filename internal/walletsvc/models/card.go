package models

import (
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/romcheg/offline-cards/internal/codegen"
)

const DefaultColorHex = "#007AFF"

var (
	ErrEmptyCardNumber = errors.New("card number must not be empty")
	ErrEmptyStoreName  = errors.New("store name must not be empty")
	ErrInvalidColorHex = errors.New("color must be in #RRGGBB form")
)

var colorHexPattern = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

// Card is a loyalty card kept in the wallet. CardNumber is the unique key.
type Card struct {
	CardNumber string    `json:"cardNumber" bson:"card_number"`
	StoreName  string    `json:"storeName" bson:"store_name"`
	HolderName *string   `json:"holderName" bson:"holder_name,omitempty"`
	UseQRCode  bool      `json:"useQRCode" bson:"use_qr_code"`
	ColorHex   string    `json:"colorHex" bson:"color_hex"`
	PhotoData  [][]byte  `json:"photoData,omitempty" bson:"photo_data,omitempty"`
	CreatedAt  time.Time `json:"createdAt" bson:"created_at"`
}

type CardOption func(*Card)

func WithHolder(name string) CardOption {
	return func(c *Card) {
		if name = strings.TrimSpace(name); name != "" {
			c.HolderName = &name
		}
	}
}

func WithQRCode(use bool) CardOption {
	return func(c *Card) { c.UseQRCode = use }
}

func WithColor(hex string) CardOption {
	return func(c *Card) {
		if hex != "" {
			c.ColorHex = hex
		}
	}
}

func WithPhotos(photos ...[]byte) CardOption {
	return func(c *Card) { c.PhotoData = append(c.PhotoData, photos...) }
}

func WithCreatedAt(t time.Time) CardOption {
	return func(c *Card) { c.CreatedAt = t }
}

// NewCard trims the required fields, applies defaults and stamps CreatedAt.
func NewCard(number, store string, opts ...CardOption) Card {
	c := Card{
		CardNumber: strings.TrimSpace(number),
		StoreName:  strings.TrimSpace(store),
		ColorHex:   DefaultColorHex,
		CreatedAt:  time.Now().UTC(),
	}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

func (c Card) Validate() error {
	if strings.TrimSpace(c.CardNumber) == "" {
		return ErrEmptyCardNumber
	}
	if strings.TrimSpace(c.StoreName) == "" {
		return ErrEmptyStoreName
	}
	if !colorHexPattern.MatchString(c.ColorHex) {
		return ErrInvalidColorHex
	}
	return nil
}

// Holder returns the holder name or "" when unset.
func (c Card) Holder() string {
	if c.HolderName == nil {
		return ""
	}
	return *c.HolderName
}

// Mode is the symbology the card is rendered with.
func (c Card) Mode() codegen.Mode {
	if c.UseQRCode {
		return codegen.QR
	}
	return codegen.Barcode
}
