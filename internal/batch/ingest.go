package batch

import (
	"encoding/csv"
	"errors"
	"io"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/JonMunkholm/qrforge/internal/qr"
)

// Recognized header names (matched case-insensitively).
const (
	ColumnContent = "content"
	ColumnType    = "type"
	ColumnLabel   = "label"
)

// columns holds header positions; -1 marks an absent optional column.
type columns struct {
	content int
	qrType  int
	label   int
}

// Ingest reads a CSV document and returns its non-empty rows as Records.
//
// The header row must contain a content column; type and label are optional
// and other columns are ignored. Ragged rows are read with missing cells
// treated as empty. Rows with blank content are dropped without error. A
// stray quote inside an unquoted cell is kept as a literal character. A
// read failure partway through aborts the whole ingest with a *ParseError.
//
// A leading UTF-8 BOM is removed and invalid UTF-8 is replaced with U+FFFD
// before parsing.
func Ingest(r io.Reader) (*ParseResult, error) {
	cr := csv.NewReader(transform.NewReader(r, unicode.UTF8BOM.NewDecoder()))
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.ReuseRecord = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrNoHeader
	}
	if err != nil {
		return nil, &ParseError{Line: 1, Err: err}
	}

	cols, err := locateColumns(header)
	if err != nil {
		return nil, err
	}

	result := &ParseResult{Success: true, Items: []Record{}}
	for i := 0; ; i++ {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, &ParseError{Line: i + 2, Err: err}
		}

		rec, ok := buildRecord(i+1, row, cols)
		if !ok {
			result.SkippedRows++
			continue
		}
		result.Items = append(result.Items, rec)
	}

	result.TotalRows = len(result.Items)
	return result, nil
}

// IngestString is Ingest over an in-memory document.
func IngestString(text string) (*ParseResult, error) {
	return Ingest(strings.NewReader(text))
}

// locateColumns finds the first content, type and label headers.
func locateColumns(header []string) (columns, error) {
	cols := columns{content: -1, qrType: -1, label: -1}
	for i, h := range header {
		switch strings.ToLower(strings.TrimSpace(h)) {
		case ColumnContent:
			if cols.content < 0 {
				cols.content = i
			}
		case ColumnType:
			if cols.qrType < 0 {
				cols.qrType = i
			}
		case ColumnLabel:
			if cols.label < 0 {
				cols.label = i
			}
		}
	}
	if cols.content < 0 {
		return cols, ErrMissingContentColumn
	}
	return cols, nil
}

// buildRecord normalizes one data row. It reports false for rows whose
// content is blank.
func buildRecord(row int, fields []string, cols columns) (Record, bool) {
	content := strings.TrimSpace(cell(fields, cols.content))
	if content == "" {
		return Record{}, false
	}

	qrType := strings.ToLower(strings.TrimSpace(cell(fields, cols.qrType)))
	if qrType == "" {
		qrType = string(qr.Classify(content))
	}

	return Record{
		Row:     row,
		Content: content,
		QRType:  qrType,
		Label:   strings.TrimSpace(cell(fields, cols.label)),
	}, true
}

// cell returns fields[idx], or "" for absent columns and short rows.
func cell(fields []string, idx int) string {
	if idx < 0 || idx >= len(fields) {
		return ""
	}
	return fields[idx]
}
