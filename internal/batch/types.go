// Package batch implements the bulk QR pipeline: CSV ingestion, per-item
// validation of rendered images, and zip packaging of the results.
//
// The stages hand immutable slices to each other. Ingest produces Records,
// an external renderer turns them into Items, ValidateBatch produces one
// ValidationRecord per Item and Package writes the Items into an archive.
package batch

import (
	"errors"
	"fmt"
)

// Record is one normalized CSV row ready for rendering.
type Record struct {
	// Row is the 1-based position of the row in the data section. Dropped
	// rows keep their positions, so indices may have gaps.
	Row     int    `json:"row" yaml:"row"`
	Content string `json:"content" yaml:"content"`
	QRType  string `json:"qrType" yaml:"qrType"`
	Label   string `json:"label,omitempty" yaml:"label,omitempty"`
}

// ParseResult is the outcome of ingesting a CSV document.
type ParseResult struct {
	Success bool     `json:"success" yaml:"success"`
	Items   []Record `json:"items" yaml:"items"`
	Error   string   `json:"error,omitempty" yaml:"error,omitempty"`
	// TotalRows is len(Items).
	TotalRows int `json:"totalRows" yaml:"totalRows"`
	// SkippedRows counts data rows dropped for empty content.
	SkippedRows int `json:"skippedRows" yaml:"skippedRows"`
}

// Item is a rendered record: the content it encodes and the image produced
// for it. ImageData is raw base64 or a data URL.
type Item struct {
	Row       int    `json:"row" yaml:"row"`
	Content   string `json:"content" yaml:"content"`
	Label     string `json:"label,omitempty" yaml:"label,omitempty"`
	ImageData string `json:"imageData" yaml:"imageData"`
}

// ValidationRecord reports whether one item's image decodes back to its content.
type ValidationRecord struct {
	Row            int     `json:"row" yaml:"row"`
	Success        bool    `json:"success" yaml:"success"`
	DecodedContent *string `json:"decodedContent,omitempty" yaml:"decodedContent,omitempty"`
	ContentMatch   bool    `json:"contentMatch" yaml:"contentMatch"`
	Error          string  `json:"error,omitempty" yaml:"error,omitempty"`
}

// ArchiveResult is the outcome of Package.
type ArchiveResult struct {
	Success bool `json:"success" yaml:"success"`
	// Cancelled is set when the destination was declined before writing.
	// It is not an error and Error stays empty.
	Cancelled         bool               `json:"cancelled" yaml:"cancelled"`
	ZipPath           string             `json:"zipPath,omitempty" yaml:"zipPath,omitempty"`
	Entries           []string           `json:"entries,omitempty" yaml:"entries,omitempty"`
	ValidationResults []ValidationRecord `json:"validationResults" yaml:"validationResults"`
	Error             string             `json:"error,omitempty" yaml:"error,omitempty"`
}

var (
	// ErrMissingContentColumn is returned when the header has no content column.
	ErrMissingContentColumn = errors.New("CSV must have a 'content' column")

	// ErrNoHeader is returned for input without a header row.
	ErrNoHeader = errors.New("CSV is empty: missing header row")

	// ErrCancelled is returned by a Destination when the user declines to
	// pick a location. Package reports it as a cancelled result, not an error.
	ErrCancelled = errors.New("save cancelled by user")
)

// ParseError is a structural CSV failure that aborts ingestion.
type ParseError struct {
	Line int // 1-based source line, header is line 1
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid csv: error at row %d: %v", e.Line, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ItemError is a fatal failure tied to one batch item.
type ItemError struct {
	Row int
	Op  string
	Err error
}

func (e *ItemError) Error() string {
	return fmt.Sprintf("%s for row %d: %v", e.Op, e.Row, e.Err)
}

func (e *ItemError) Unwrap() error { return e.Err }
