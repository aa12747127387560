// Package qrtest builds QR image fixtures for tests.
package qrtest

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"testing"

	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/qrcode"
	"github.com/stretchr/testify/require"
)

// Size is the edge length, in pixels, of generated fixtures.
const Size = 240

// PNG renders content as a black-on-white QR code and returns the PNG bytes.
func PNG(tb testing.TB, content string) []byte {
	tb.Helper()

	hints := map[gozxing.EncodeHintType]interface{}{
		gozxing.EncodeHintType_ERROR_CORRECTION: "M",
	}
	matrix, err := qrcode.NewQRCodeWriter().Encode(content, gozxing.BarcodeFormat_QR_CODE, Size, Size, hints)
	require.NoError(tb, err, "encode %q", content)

	var buf bytes.Buffer
	require.NoError(tb, png.Encode(&buf, matrix))
	return buf.Bytes()
}

// Base64 returns PNG(content) as standard base64 without a prefix.
func Base64(tb testing.TB, content string) string {
	tb.Helper()
	return base64.StdEncoding.EncodeToString(PNG(tb, content))
}

// DataURL returns PNG(content) as a data:image/png;base64 URL.
func DataURL(tb testing.TB, content string) string {
	tb.Helper()
	return "data:image/png;base64," + Base64(tb, content)
}

// ScrambledPNG renders content and inverts a band across the middle of the
// symbol. The finder patterns are left intact, so a reader locates the
// symbol but cannot recover its data.
func ScrambledPNG(tb testing.TB, content string) []byte {
	tb.Helper()

	src, err := png.Decode(bytes.NewReader(PNG(tb, content)))
	require.NoError(tb, err)

	img := image.NewGray(src.Bounds())
	draw.Draw(img, img.Bounds(), src, image.Point{}, draw.Src)
	for y := Size * 40 / 100; y < Size*52/100; y++ {
		for x := Size * 30 / 100; x < Size*70/100; x++ {
			img.SetGray(x, y, color.Gray{Y: 0xff - img.GrayAt(x, y).Y})
		}
	}

	var buf bytes.Buffer
	require.NoError(tb, png.Encode(&buf, img))
	return buf.Bytes()
}

// ScrambledBase64 returns ScrambledPNG(content) as standard base64.
func ScrambledBase64(tb testing.TB, content string) string {
	tb.Helper()
	return base64.StdEncoding.EncodeToString(ScrambledPNG(tb, content))
}

// BlankPNG returns a plain white PNG with no symbol in it.
func BlankPNG(tb testing.TB) []byte {
	tb.Helper()

	img := image.NewGray(image.Rect(0, 0, Size, Size))
	draw.Draw(img, img.Bounds(), image.White, image.Point{}, draw.Src)
	var buf bytes.Buffer
	require.NoError(tb, png.Encode(&buf, img))
	return buf.Bytes()
}

// BlankDataURL returns BlankPNG as a data URL.
func BlankDataURL(tb testing.TB) string {
	tb.Helper()
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(BlankPNG(tb))
}
