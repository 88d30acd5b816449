package codegen

import (
	"bytes"
	"crypto/sha256"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/oned"
	"github.com/makiuchi-d/gozxing/qrcode"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func renderers() map[string]*Renderer {
	return map[string]*Renderer{
		"zxing": NewDefaultRenderer("zxing"),
		"skip2": NewDefaultRenderer("skip2"),
	}
}

func TestRenderPositiveSize(t *testing.T) {
	for name, r := range renderers() {
		for _, mode := range []Mode{Barcode, QR} {
			for _, res := range []Resolution{Standard, High} {
				img, err := r.Render("1234567890", mode, res)
				require.NoError(t, err, "%s %s %s", name, mode, res)
				assert.Greater(t, img.Bounds().Dx(), 0)
				assert.Greater(t, img.Bounds().Dy(), 0)
			}
		}
	}
}

func TestRenderEmptyText(t *testing.T) {
	r := NewDefaultRenderer("")
	for _, mode := range []Mode{Barcode, QR} {
		for _, res := range []Resolution{Standard, High} {
			_, err := r.Render("", mode, res)
			assert.ErrorIs(t, err, ErrInvalidInput)
		}
	}
}

func TestRenderBarcodeRejectsNonASCII(t *testing.T) {
	_, err := NewDefaultRenderer("").Render("carte-été", Barcode, Standard)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestRenderQRAcceptsUnicode(t *testing.T) {
	img, err := NewDefaultRenderer("").Render("carte-été", QR, Standard)
	require.NoError(t, err)
	assert.Equal(t, qrStandardSide, img.Bounds().Dx())
}

func TestRenderQRSides(t *testing.T) {
	for name, r := range renderers() {
		std, err := r.Render("ABC123XYZ", QR, Standard)
		require.NoError(t, err, name)
		high, err := r.Render("ABC123XYZ", QR, High)
		require.NoError(t, err, name)

		assert.Equal(t, image.Pt(qrStandardSide, qrStandardSide), std.Bounds().Size(), name)
		assert.Equal(t, image.Pt(qrHighSide, qrHighSide), high.Bounds().Size(), name)
	}
}

func TestRenderBarcodeScale(t *testing.T) {
	r := NewDefaultRenderer("")
	sym, err := NewCode128Encoder().Encode("1234567890")
	require.NoError(t, err)

	std, err := r.Render("1234567890", Barcode, Standard)
	require.NoError(t, err)
	high, err := r.Render("1234567890", Barcode, High)
	require.NoError(t, err)

	assert.Equal(t, sym.Width*barcodeStandardScale, std.Bounds().Dx())
	assert.Equal(t, barHeight*barcodeStandardScale, std.Bounds().Dy())
	assert.Equal(t, sym.Width*barcodeHighScale, high.Bounds().Dx())
}

func TestRenderBarcodeHasNoQuietSpace(t *testing.T) {
	img, err := NewDefaultRenderer("").Render("1234567890", Barcode, Standard)
	require.NoError(t, err)

	// Code-128 starts and ends on a bar, so the outer columns are dark.
	assert.Equal(t, uint8(0), img.GrayAt(0, 0).Y)
	assert.Equal(t, uint8(0), img.GrayAt(img.Bounds().Dx()-1, 0).Y)
}

func TestRenderHighIsWider(t *testing.T) {
	r := NewDefaultRenderer("")
	for _, mode := range []Mode{Barcode, QR} {
		std, err := r.Render("1234567890", mode, Standard)
		require.NoError(t, err)
		high, err := r.Render("1234567890", mode, High)
		require.NoError(t, err)
		assert.Greater(t, high.Bounds().Dx(), std.Bounds().Dx(), mode.String())
	}
}

func TestRenderIsDeterministic(t *testing.T) {
	for name, r := range renderers() {
		for _, mode := range []Mode{Barcode, QR} {
			a, err := r.RenderPNG("9876543210", mode, Standard)
			require.NoError(t, err)
			b, err := r.RenderPNG("9876543210", mode, Standard)
			require.NoError(t, err)
			assert.Equal(t, sha256.Sum256(a), sha256.Sum256(b), "%s %s", name, mode)
		}
	}
}

func TestRenderDistinctInputsDiffer(t *testing.T) {
	r := NewDefaultRenderer("")
	for _, mode := range []Mode{Barcode, QR} {
		a, err := r.RenderPNG("1111111111", mode, Standard)
		require.NoError(t, err)
		b, err := r.RenderPNG("9999999999", mode, Standard)
		require.NoError(t, err)
		assert.NotEqual(t, sha256.Sum256(a), sha256.Sum256(b), mode.String())
	}
}

func TestRenderNearestNeighbourKeepsTwoTones(t *testing.T) {
	img, err := NewDefaultRenderer("").Render("ABC123XYZ", QR, Standard)
	require.NoError(t, err)
	for _, p := range img.Pix {
		if p != 0 && p != 0xff {
			t.Fatalf("interpolated pixel value %d", p)
		}
	}
}

func TestRenderedQRDecodes(t *testing.T) {
	for name, r := range renderers() {
		for _, res := range []Resolution{Standard, High} {
			data, err := r.RenderPNG("ABC123XYZ", QR, res)
			require.NoError(t, err)
			img, err := png.Decode(bytes.NewReader(data))
			require.NoError(t, err)

			bmp, err := gozxing.NewBinaryBitmapFromImage(img)
			require.NoError(t, err)
			result, err := qrcode.NewQRCodeReader().Decode(bmp, nil)
			require.NoError(t, err, "%s %s", name, res)
			assert.Equal(t, "ABC123XYZ", result.GetText())
		}
	}
}

func TestRenderedBarcodeDecodes(t *testing.T) {
	img, err := NewDefaultRenderer("").Render("1234567890", Barcode, Standard)
	require.NoError(t, err)

	// Readers need the quiet zone the renderer leaves out.
	padded := withMargin(img, 50)
	bmp, err := gozxing.NewBinaryBitmapFromImage(padded)
	require.NoError(t, err)
	result, err := oned.NewCode128Reader().Decode(bmp, nil)
	require.NoError(t, err)
	assert.Equal(t, "1234567890", result.GetText())
}

func TestSymbolEncodersRejectEmpty(t *testing.T) {
	for _, enc := range []SymbolEncoder{NewCode128Encoder(), NewZXingQREncoder(), NewSkipQREncoder()} {
		_, err := enc.Encode("")
		assert.ErrorIs(t, err, ErrInvalidInput)
	}
}

type failingEncoder struct{}

func (failingEncoder) Encode(string) (*Symbol, error) { return NewSymbol(0, 0), nil }

func TestRenderEmptySymbolFails(t *testing.T) {
	r := NewRenderer(failingEncoder{}, failingEncoder{})
	_, err := r.Render("123", Barcode, Standard)
	assert.ErrorIs(t, err, ErrGenerationFailed)
}

func TestParseResolution(t *testing.T) {
	assert.Equal(t, High, ParseResolution("high"))
	assert.Equal(t, Standard, ParseResolution("standard"))
	assert.Equal(t, Standard, ParseResolution(""))
}

func withMargin(src *image.Gray, margin int) *image.Gray {
	b := src.Bounds()
	dst := image.NewGray(image.Rect(0, 0, b.Dx()+2*margin, b.Dy()+2*margin))
	for i := range dst.Pix {
		dst.Pix[i] = 0xff
	}
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			dst.SetGray(x+margin, y+margin, color.Gray{Y: src.GrayAt(x, y).Y})
		}
	}
	return dst
}
