package batch

import (
	"fmt"
	"runtime"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/JonMunkholm/qrforge/internal/qr"
)

// Validation error messages shared with the single-item validator.
const (
	MsgNoQRCode        = "No QR code detected"
	MsgContentMismatch = "Content mismatch"
)

// Validator checks rendered items by decoding their images.
// The zero value decodes with qr.Decoder defaults on GOMAXPROCS workers.
type Validator struct {
	Decoder qr.Decoder
	// Workers bounds parallel decodes in ValidateBatch (<=0: GOMAXPROCS).
	Workers int
}

// ValidateBatch validates items with a zero-value Validator.
func ValidateBatch(items []Item) []ValidationRecord {
	return Validator{}.ValidateBatch(items)
}

// ValidateBatch returns exactly one record per item, in input order.
// A failing item never affects the records of its siblings.
func (v Validator) ValidateBatch(items []Item) []ValidationRecord {
	out := make([]ValidationRecord, len(items))

	workers := v.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers == 1 || len(items) <= 1 {
		for i := range items {
			out[i] = v.Validate(items[i])
		}
		return out
	}

	var g errgroup.Group
	g.SetLimit(workers)
	for i := range items {
		g.Go(func() error {
			out[i] = v.Validate(items[i])
			return nil
		})
	}
	_ = g.Wait()

	return out
}

// Validate decodes one item's image and compares it with the item content.
func (v Validator) Validate(item Item) ValidationRecord {
	rec := ValidationRecord{Row: item.Row}

	switch out := v.Decoder.Decode(item.ImageData).(type) {
	case qr.Decoded:
		text := out.Text
		rec.DecodedContent = &text
		rec.ContentMatch = ContentMatches(text, item.Content)
		rec.Success = rec.ContentMatch
		if !rec.ContentMatch {
			rec.Error = MsgContentMismatch
		}
	case qr.MalformedEncoding:
		rec.Error = "Failed to decode base64: " + out.Reason
	case qr.MalformedImage:
		rec.Error = "Failed to decode image: " + out.Reason
	case qr.NoSymbolFound:
		rec.Error = MsgNoQRCode
	case qr.Undecodable:
		rec.Error = "Decode error: " + out.Reason
	default:
		rec.Error = fmt.Sprintf("unexpected decode outcome %T", out)
	}

	return rec
}

// ContentMatches compares decoded and expected content ignoring surrounding
// whitespace.
func ContentMatches(decoded, expected string) bool {
	return strings.TrimSpace(decoded) == strings.TrimSpace(expected)
}
