package codegen

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"math"

	"golang.org/x/image/draw"
)

const (
	qrStandardSide = 300
	qrHighSide     = 1000

	barcodeStandardScale = 5
	barcodeHighScale     = 10
)

// Renderer turns text into a scannable image. It holds no state between
// calls; identical inputs always give pixel-identical output.
type Renderer struct {
	barcode SymbolEncoder
	qr      SymbolEncoder
}

func NewRenderer(barcode, qr SymbolEncoder) *Renderer {
	return &Renderer{barcode: barcode, qr: qr}
}

// NewDefaultRenderer uses Code-128 for barcodes and the named QR variant.
func NewDefaultRenderer(qrEncoder string) *Renderer {
	return NewRenderer(NewCode128Encoder(), NewQREncoder(qrEncoder))
}

func (r *Renderer) Render(text string, mode Mode, res Resolution) (*image.Gray, error) {
	if text == "" {
		return nil, ErrInvalidInput
	}

	enc := r.barcode
	if mode == QR {
		enc = r.qr
	}
	sym, err := enc.Encode(text)
	if err != nil {
		return nil, err
	}
	if sym.Empty() {
		return nil, ErrGenerationFailed
	}

	w, h := targetSize(sym, mode, res)
	if w <= 0 || h <= 0 {
		return nil, ErrGenerationFailed
	}
	dst := image.NewGray(image.Rect(0, 0, w, h))
	src := sym.Image()
	draw.NearestNeighbor.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	return dst, nil
}

// RenderPNG renders and encodes the result as PNG.
func (r *Renderer) RenderPNG(text string, mode Mode, res Resolution) ([]byte, error) {
	img, err := r.Render(text, mode, res)
	if err != nil {
		return nil, err
	}
	return EncodePNG(img)
}

func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}
	return buf.Bytes(), nil
}

// targetSize applies the resolution policy: QR codes are fitted so the larger
// side hits a fixed length, barcodes are multiplied by a whole factor.
func targetSize(sym *Symbol, mode Mode, res Resolution) (int, int) {
	if mode == QR {
		side := qrStandardSide
		if res == High {
			side = qrHighSide
		}
		scale := float64(side) / float64(max(sym.Width, sym.Height))
		return int(math.Round(float64(sym.Width) * scale)), int(math.Round(float64(sym.Height) * scale))
	}

	factor := barcodeStandardScale
	if res == High {
		factor = barcodeHighScale
	}
	return sym.Width * factor, sym.Height * factor
}
