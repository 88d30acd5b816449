package codegen

import (
	"fmt"
	"unicode/utf8"

	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/oned"
	"github.com/makiuchi-d/gozxing/qrcode"
	"github.com/makiuchi-d/gozxing/qrcode/decoder"
	qrgen "github.com/skip2/go-qrcode"
)

// barHeight is the native height of a Code-128 symbol in modules.
const barHeight = 32

// Code128Encoder encodes ASCII text as a Code-128 barcode without a quiet zone.
type Code128Encoder struct {
	writer gozxing.Writer
}

func NewCode128Encoder() *Code128Encoder {
	return &Code128Encoder{writer: oned.NewCode128Writer()}
}

func (e *Code128Encoder) Encode(text string) (*Symbol, error) {
	if text == "" {
		return nil, ErrInvalidInput
	}
	for i := 0; i < len(text); i++ {
		if text[i] >= utf8.RuneSelf {
			return nil, fmt.Errorf("%w: code 128 accepts ASCII only", ErrInvalidInput)
		}
	}

	hints := map[gozxing.EncodeHintType]interface{}{
		gozxing.EncodeHintType_MARGIN: 0,
	}
	matrix, err := e.writer.Encode(text, gozxing.BarcodeFormat_CODE_128, 0, barHeight, hints)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}
	return fromBitMatrix(matrix)
}

// ZXingQREncoder encodes UTF-8 text as a QR code with medium error correction.
type ZXingQREncoder struct {
	writer gozxing.Writer
}

func NewZXingQREncoder() *ZXingQREncoder {
	return &ZXingQREncoder{writer: qrcode.NewQRCodeWriter()}
}

func (e *ZXingQREncoder) Encode(text string) (*Symbol, error) {
	if text == "" || !utf8.ValidString(text) {
		return nil, ErrInvalidInput
	}

	hints := map[gozxing.EncodeHintType]interface{}{
		gozxing.EncodeHintType_ERROR_CORRECTION: decoder.ErrorCorrectionLevel_M,
		gozxing.EncodeHintType_CHARACTER_SET:    "UTF-8",
	}
	matrix, err := e.writer.Encode(text, gozxing.BarcodeFormat_QR_CODE, 0, 0, hints)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}
	return fromBitMatrix(matrix)
}

// SkipQREncoder is the skip2/go-qrcode variant of the QR encoder.
type SkipQREncoder struct {
	level qrgen.RecoveryLevel
}

func NewSkipQREncoder() *SkipQREncoder {
	return &SkipQREncoder{level: qrgen.Medium}
}

func (e *SkipQREncoder) Encode(text string) (*Symbol, error) {
	if text == "" || !utf8.ValidString(text) {
		return nil, ErrInvalidInput
	}

	qr, err := qrgen.New(text, e.level)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}

	bitmap := qr.Bitmap()
	if len(bitmap) == 0 || len(bitmap[0]) == 0 {
		return nil, ErrGenerationFailed
	}
	sym := NewSymbol(len(bitmap[0]), len(bitmap))
	for y, row := range bitmap {
		for x, dark := range row {
			sym.Set(x, y, dark)
		}
	}
	return sym, nil
}

// NewQREncoder picks the QR variant by name; "skip2" selects go-qrcode,
// anything else gozxing.
func NewQREncoder(name string) SymbolEncoder {
	if name == "skip2" {
		return NewSkipQREncoder()
	}
	return NewZXingQREncoder()
}

func fromBitMatrix(m *gozxing.BitMatrix) (*Symbol, error) {
	if m == nil || m.GetWidth() == 0 || m.GetHeight() == 0 {
		return nil, ErrGenerationFailed
	}
	sym := NewSymbol(m.GetWidth(), m.GetHeight())
	for y := 0; y < sym.Height; y++ {
		for x := 0; x < sym.Width; x++ {
			sym.Set(x, y, m.Get(x, y))
		}
	}
	return sym, nil
}
