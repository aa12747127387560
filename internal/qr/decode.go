package qr

// decode.go turns an encoded image blob back into QR payload text.
//
// The pipeline is fixed:
//
//  1. strip an optional data-URL prefix (everything up to the first comma)
//  2. base64-decode (standard alphabet)
//  3. sniff the container format and decode the raster
//  4. convert to 8-bit luminance
//  5. locate a QR symbol
//  6. decode the first located symbol
//
// Each failing step maps to its own Outcome variant so callers can branch
// on the kind of failure without parsing messages.

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/draw"
	"strings"

	// Registered raster formats for image.Decode sniffing.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/qrcode"
)

// DefaultMaxPixels caps the raster size accepted by Decode (64 megapixels).
// Image blobs are caller supplied, so the header is checked before the full
// raster is allocated.
const DefaultMaxPixels = 64 << 20

// Outcome is the result of decoding one image blob. It is one of
// Decoded, NoSymbolFound, MalformedImage, MalformedEncoding or Undecodable.
type Outcome interface {
	outcome()
}

// Decoded carries the payload exactly as recovered from the symbol.
type Decoded struct {
	Text string
}

// NoSymbolFound means the raster decoded but no QR symbol was located.
type NoSymbolFound struct{}

// MalformedImage means the bytes are not a decodable raster image.
type MalformedImage struct {
	Reason string
}

// MalformedEncoding means the blob is not valid standard base64.
type MalformedEncoding struct {
	Reason string
}

// Undecodable means a symbol was located but its data could not be read.
type Undecodable struct {
	Reason string
}

func (Decoded) outcome()           {}
func (NoSymbolFound) outcome()     {}
func (MalformedImage) outcome()    {}
func (MalformedEncoding) outcome() {}
func (Undecodable) outcome()       {}

// Decoder decodes QR symbols from image blobs. The zero value is usable and
// applies DefaultMaxPixels. A Decoder holds no mutable state and is safe for
// concurrent use.
type Decoder struct {
	// MaxPixels rejects rasters whose width*height exceeds it (<=0: default).
	MaxPixels int
}

// Decode runs the full pipeline with a zero-value Decoder.
func Decode(blob string) Outcome {
	return Decoder{}.Decode(blob)
}

// Decode strips an optional data-URL prefix, base64-decodes the payload and
// decodes the QR symbol in the resulting image.
func (d Decoder) Decode(blob string) Outcome {
	raw, err := DecodePayload(blob)
	if err != nil {
		return MalformedEncoding{Reason: err.Error()}
	}
	return d.DecodeImage(raw)
}

// DecodeImage decodes the QR symbol in already-decoded image bytes.
func (d Decoder) DecodeImage(raw []byte) (out Outcome) {
	defer func() {
		if r := recover(); r != nil {
			out = MalformedImage{Reason: fmt.Sprintf("decoder panic: %v", r)}
		}
	}()

	img, err := d.readImage(raw)
	if err != nil {
		return MalformedImage{Reason: err.Error()}
	}

	bmp, err := gozxing.NewBinaryBitmapFromImage(luminance(img))
	if err != nil {
		return MalformedImage{Reason: err.Error()}
	}

	result, err := qrcode.NewQRCodeReader().Decode(bmp, decodeHints)
	if err != nil {
		var notFound gozxing.NotFoundException
		if errors.As(err, &notFound) {
			return NoSymbolFound{}
		}
		return Undecodable{Reason: err.Error()}
	}
	return Decoded{Text: result.GetText()}
}

// decodeHints are shared read-only by every Decode call.
var decodeHints = map[gozxing.DecodeHintType]interface{}{
	gozxing.DecodeHintType_TRY_HARDER:    true,
	gozxing.DecodeHintType_CHARACTER_SET: "UTF-8",
}

// readImage sniffs the container format and decodes the raster, refusing
// images larger than the pixel budget before allocating them.
func (d Decoder) readImage(raw []byte) (image.Image, error) {
	if len(raw) == 0 {
		return nil, errors.New("empty image data")
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("read image format: %w", err)
	}

	limit := d.MaxPixels
	if limit <= 0 {
		limit = DefaultMaxPixels
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("%s image has no pixels", format)
	}
	if cfg.Width > limit/cfg.Height {
		return nil, fmt.Errorf("%s image %dx%d exceeds %d pixel limit", format, cfg.Width, cfg.Height, limit)
	}

	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}
	return img, nil
}

// luminance converts img to a single-channel 8-bit raster. Transparent
// pixels are composited over white so transparent-background codes keep
// their light modules light.
func luminance(img image.Image) *image.Gray {
	if g, ok := img.(*image.Gray); ok {
		return g
	}
	b := img.Bounds()
	gray := image.NewGray(b)
	draw.Draw(gray, b, image.White, image.Point{}, draw.Src)
	draw.Draw(gray, b, img, b.Min, draw.Over)
	return gray
}

// StripDataURL returns the payload after the first comma, or blob unchanged
// when it has no comma.
func StripDataURL(blob string) string {
	if i := strings.IndexByte(blob, ','); i >= 0 {
		return blob[i+1:]
	}
	return blob
}

// DecodePayload strips an optional data-URL prefix and decodes the standard
// base64 payload into raw image bytes. The batch packager uses it directly
// so archive entries hold exactly the bytes that were validated.
func DecodePayload(blob string) ([]byte, error) {
	raw, err := base64.StdEncoding.DecodeString(StripDataURL(blob))
	if err != nil {
		return nil, err
	}
	return raw, nil
}
