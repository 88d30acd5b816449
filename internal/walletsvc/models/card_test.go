package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/romcheg/offline-cards/internal/codegen"
)

func TestNewCardDefaults(t *testing.T) {
	before := time.Now().UTC()
	c := NewCard("  12345 ", " Bakery ")

	assert.Equal(t, "12345", c.CardNumber)
	assert.Equal(t, "Bakery", c.StoreName)
	assert.Equal(t, DefaultColorHex, c.ColorHex)
	assert.Nil(t, c.HolderName)
	assert.Nil(t, c.PhotoData)
	assert.False(t, c.CreatedAt.Before(before))
	assert.Equal(t, codegen.Barcode, c.Mode())
	assert.Empty(t, c.Holder())
	assert.NoError(t, c.Validate())
}

func TestCardOptions(t *testing.T) {
	at := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	c := NewCard("1", "S",
		WithHolder("Ann"),
		WithQRCode(true),
		WithColor("#ff0000"),
		WithPhotos([]byte{1}, []byte{2}),
		WithCreatedAt(at),
	)

	assert.Equal(t, "Ann", c.Holder())
	assert.Equal(t, codegen.QR, c.Mode())
	assert.Equal(t, "#ff0000", c.ColorHex)
	assert.Len(t, c.PhotoData, 2)
	assert.Equal(t, at, c.CreatedAt)
}

func TestCardValidate(t *testing.T) {
	tests := []struct {
		name string
		card Card
		err  error
	}{
		{"empty number", NewCard(" ", "S"), ErrEmptyCardNumber},
		{"empty store", NewCard("1", ""), ErrEmptyStoreName},
		{"named colour", NewCard("1", "S", WithColor("red")), ErrInvalidColorHex},
		{"short hex", NewCard("1", "S", WithColor("#fff")), ErrInvalidColorHex},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.card.Validate(), tt.err)
		})
	}
}
