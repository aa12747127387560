package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/qrforge/internal/batch"
	"github.com/JonMunkholm/qrforge/internal/logging"
	"github.com/JonMunkholm/qrforge/internal/metrics"
	"github.com/JonMunkholm/qrforge/internal/qr"
	"github.com/JonMunkholm/qrforge/internal/store"
)

// ErrExportNotFound is returned for unknown or malformed export names.
var ErrExportNotFound = errors.New("export not found")

// exportName matches archives written by ExportArchive.
var exportName = regexp.MustCompile(`^qr-codes-[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}\.zip$`)

// Options configures a Service. Zero fields take package defaults.
type Options struct {
	ExportDir        string
	Workers          int
	CompressionLevel int
	MaxImagePixels   int
	MaxCSVSize       int64
	MaxConcurrent    int
	MaxWaitTime      time.Duration
	Metrics          *metrics.Metrics
}

// Service is the entry point for batch and persistence operations. It is
// safe for concurrent use.
type Service struct {
	store     store.Store
	limiter   *BatchLimiter
	metrics   *metrics.Metrics
	validator batch.Validator
	level     int
	exportDir string
	maxCSV    int64
}

// NewService creates a Service backed by st and ensures the export
// directory exists.
func NewService(st store.Store, opts Options) (*Service, error) {
	if st == nil {
		return nil, errors.New("core: nil store")
	}
	exportDir := opts.ExportDir
	if exportDir == "" {
		exportDir = filepath.Join("data", "exports")
	}
	if err := os.MkdirAll(exportDir, 0o755); err != nil {
		return nil, fmt.Errorf("create export directory: %w", err)
	}
	level := opts.CompressionLevel
	if level == 0 {
		level = batch.DefaultCompressionLevel
	}

	return &Service{
		store:   st,
		limiter: NewBatchLimiter(opts.MaxConcurrent, opts.MaxWaitTime),
		metrics: opts.Metrics,
		validator: batch.Validator{
			Decoder: qr.Decoder{MaxPixels: opts.MaxImagePixels},
			Workers: opts.Workers,
		},
		level:     level,
		exportDir: exportDir,
		maxCSV:    opts.MaxCSVSize,
	}, nil
}

// Decoder returns the decoder used for validation and scans.
func (s *Service) Decoder() qr.Decoder { return s.validator.Decoder }

// ParseCSV ingests a CSV document. Documents larger than the configured
// size fail with ErrCSVTooLarge.
func (s *Service) ParseCSV(ctx context.Context, r io.Reader) (*batch.ParseResult, error) {
	start := time.Now()
	defer s.metrics.ObserveDuration("parse", start)

	cr := newCappedReader(r, s.maxCSV)
	res, err := batch.Ingest(cr)
	if err != nil {
		if errors.Is(err, ErrCSVTooLarge) {
			err = fmt.Errorf("%w (limit %d bytes)", ErrCSVTooLarge, s.maxCSV)
		}
		logging.FromContext(ctx).Info("csv rejected", "bytes", cr.BytesRead(), "error", err)
		return nil, err
	}

	s.metrics.CSVRows(res.TotalRows, res.SkippedRows)
	logging.FromContext(ctx).Info("csv parsed",
		"rows", res.TotalRows,
		"skipped", res.SkippedRows,
		"bytes", cr.BytesRead(),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return res, nil
}

// ValidateBatch validates items in parallel and returns one record per item
// in input order.
func (s *Service) ValidateBatch(ctx context.Context, items []batch.Item) ([]batch.ValidationRecord, error) {
	release, err := s.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	start := time.Now()
	defer s.metrics.ObserveDuration("validate", start)

	log := logging.WithFields(ctx, "batch_id", uuid.NewString(), "items", len(items))
	records := s.validator.ValidateBatch(items)
	failed := s.recordOutcomes(records)

	log.Info("batch validated", "failed", failed, "duration_ms", time.Since(start).Milliseconds())
	return records, nil
}

// ExportArchive packages items into a new archive under the export
// directory. The result's ZipPath is the export name accepted by
// ExportPath, not a filesystem path.
func (s *Service) ExportArchive(ctx context.Context, items []batch.Item, validate bool) (*batch.ArchiveResult, error) {
	release, err := s.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	start := time.Now()
	defer s.metrics.ObserveDuration("export", start)

	name := "qr-codes-" + uuid.NewString() + ".zip"
	log := logging.WithFields(ctx, "batch_id", name, "items", len(items), "validate", validate)

	p := batch.Packager{
		Validator: s.validator,
		Level:     s.level,
		OnEntry: func(string, int) {
			s.metrics.ArchiveEntry()
		},
	}
	res, err := p.Package(items, validate, batch.DirDestination{Dir: s.exportDir, Name: name})
	if err != nil {
		s.metrics.Archive("failed")
		log.Error("export failed", "error", err)
		return nil, err
	}
	if res.Cancelled {
		s.metrics.Archive("cancelled")
		log.Info("export cancelled")
		return res, nil
	}

	s.recordOutcomes(res.ValidationResults)
	s.metrics.Archive("success")
	res.ZipPath = name
	log.Info("export written", "entries", len(res.Entries), "duration_ms", time.Since(start).Milliseconds())
	return res, nil
}

// ExportPath resolves an export name to its file. Names that were not
// produced by ExportArchive, or whose file is gone, give ErrExportNotFound.
func (s *Service) ExportPath(name string) (string, error) {
	if !exportName.MatchString(name) {
		return "", ErrExportNotFound
	}
	path := filepath.Join(s.exportDir, name)
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return "", ErrExportNotFound
	}
	return path, nil
}

// LimiterStatus reports batch slot usage.
func (s *Service) LimiterStatus() LimiterStatus {
	return s.limiter.Status()
}

// WaitForBatches blocks until running batches finish or ctx ends.
func (s *Service) WaitForBatches(ctx context.Context) error {
	return s.limiter.WaitForDrain(ctx)
}

// Ping checks the store.
func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// acquire takes a batch slot and returns its release func.
func (s *Service) acquire(ctx context.Context) (func(), error) {
	if err := s.limiter.Acquire(ctx); err != nil {
		logging.FromContext(ctx).Warn("batch rejected", "error", err, "status", s.limiter.Status())
		return nil, err
	}
	return s.limiter.Release, nil
}

// recordOutcomes counts validation records by outcome and returns how many
// did not succeed.
func (s *Service) recordOutcomes(records []batch.ValidationRecord) int {
	failed := 0
	for _, rec := range records {
		switch {
		case rec.Success:
			s.metrics.ValidationResult("match")
		case rec.DecodedContent != nil:
			failed++
			s.metrics.ValidationResult("mismatch")
		default:
			failed++
			s.metrics.ValidationResult("error")
		}
	}
	return failed
}
