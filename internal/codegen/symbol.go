// Package codegen renders card numbers as Code-128 barcodes or QR codes.
//
// Symbol generation sits behind SymbolEncoder so the resolution and scaling
// policy in Renderer does not depend on the library producing the modules.
package codegen

import (
	"errors"
	"image"
	"image/color"
)

var (
	ErrInvalidInput     = errors.New("codegen: invalid input")
	ErrGenerationFailed = errors.New("codegen: generation failed")
)

type Mode int

const (
	Barcode Mode = iota
	QR
)

func (m Mode) String() string {
	if m == QR {
		return "qr"
	}
	return "barcode"
}

type Resolution int

const (
	Standard Resolution = iota
	High
)

func (r Resolution) String() string {
	if r == High {
		return "high"
	}
	return "standard"
}

// ParseResolution maps "high" to High; anything else is Standard.
func ParseResolution(s string) Resolution {
	if s == "high" {
		return High
	}
	return Standard
}

// Symbol is the native module matrix of an encoded symbol, one cell per
// module, dark cells set.
type Symbol struct {
	Width   int
	Height  int
	modules []bool
}

func NewSymbol(width, height int) *Symbol {
	return &Symbol{Width: width, Height: height, modules: make([]bool, width*height)}
}

func (s *Symbol) Set(x, y int, dark bool) {
	s.modules[y*s.Width+x] = dark
}

func (s *Symbol) Dark(x, y int) bool {
	return s.modules[y*s.Width+x]
}

func (s *Symbol) Empty() bool {
	return s == nil || s.Width <= 0 || s.Height <= 0
}

// Image returns the symbol at one pixel per module, black on white.
func (s *Symbol) Image() *image.Gray {
	img := image.NewGray(image.Rect(0, 0, s.Width, s.Height))
	for y := 0; y < s.Height; y++ {
		for x := 0; x < s.Width; x++ {
			c := color.Gray{Y: 0xff}
			if s.Dark(x, y) {
				c = color.Gray{Y: 0}
			}
			img.SetGray(x, y, c)
		}
	}
	return img
}

// SymbolEncoder produces the module matrix for one symbology family.
type SymbolEncoder interface {
	Encode(text string) (*Symbol, error)
}
