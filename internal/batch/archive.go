package batch

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/klauspost/compress/flate"

	"github.com/JonMunkholm/qrforge/internal/qr"
)

// DefaultCompressionLevel is the deflate level used for archive entries.
const DefaultCompressionLevel = 6

// Packager writes rendered items into a zip archive.
type Packager struct {
	// Validator runs when Package is asked to validate.
	Validator Validator
	// Level is the deflate level, 1-9 (0: DefaultCompressionLevel).
	Level int
	// Now stamps entry modification times (nil: time.Now). Entry names
	// depend only on the items, but archive bytes repeat across runs only
	// when Now returns a fixed time.
	Now func() time.Time
	// OnEntry, if set, is called after each entry is written.
	OnEntry func(name string, size int)
}

// Package writes items with a zero-value Packager.
func Package(items []Item, validate bool, dest Destination) (*ArchiveResult, error) {
	return Packager{}.Package(items, validate, dest)
}

// Package writes one PNG entry per item into an archive at dest.
//
// Items are handled one at a time in order: the optional validation record
// is collected, the image payload is decoded and the entry is written.
// Validation failures are reported per item, but an image payload that is
// not valid base64 aborts the whole archive with an *ItemError and nothing
// is left at the destination. If dest reports ErrCancelled, Package returns
// a cancelled result and a nil error.
func (p Packager) Package(items []Item, validate bool, dest Destination) (*ArchiveResult, error) {
	target, err := dest.Create()
	if errors.Is(err, ErrCancelled) {
		return &ArchiveResult{Cancelled: true, ValidationResults: []ValidationRecord{}}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("create archive: %w", err)
	}

	fail := func(err error) (*ArchiveResult, error) {
		_ = target.Abort()
		return nil, err
	}

	zw := zip.NewWriter(target)
	zw.RegisterCompressor(zip.Deflate, p.compressor())

	modified := p.now()
	records := make([]ValidationRecord, 0, len(items))
	entries := make([]string, 0, len(items))
	seen := make(map[string]int, len(items))

	for _, item := range items {
		if validate {
			records = append(records, p.Validator.Validate(item))
		}

		raw, err := qr.DecodePayload(item.ImageData)
		if err != nil {
			return fail(&ItemError{Row: item.Row, Op: "failed to decode image", Err: err})
		}

		name := EntryName(item.Row, item.Label)
		if prev, dup := seen[name]; dup {
			return fail(&ItemError{Row: item.Row, Op: "failed to add file to archive",
				Err: fmt.Errorf("entry %s already written for row %d", name, prev)})
		}
		seen[name] = item.Row

		if err := writeEntry(zw, name, modified, raw); err != nil {
			return fail(&ItemError{Row: item.Row, Op: "failed to add file to archive", Err: err})
		}
		entries = append(entries, name)
		if p.OnEntry != nil {
			p.OnEntry(name, len(raw))
		}
	}

	if err := zw.Close(); err != nil {
		return fail(fmt.Errorf("failed to finalize archive: %w", err))
	}
	if err := target.Commit(); err != nil {
		return nil, fmt.Errorf("failed to finalize archive: %w", err)
	}

	return &ArchiveResult{
		Success:           true,
		ZipPath:           target.Location(),
		Entries:           entries,
		ValidationResults: records,
	}, nil
}

func writeEntry(zw *zip.Writer, name string, modified time.Time, data []byte) error {
	w, err := zw.CreateHeader(&zip.FileHeader{
		Name:     name,
		Method:   zip.Deflate,
		Modified: modified,
	})
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

func (p Packager) compressor() zip.Compressor {
	level := p.Level
	if level == 0 {
		level = DefaultCompressionLevel
	}
	return func(w io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(w, level)
	}
}

func (p Packager) now() time.Time {
	if p.Now != nil {
		return p.Now()
	}
	return time.Now()
}
