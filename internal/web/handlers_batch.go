package web

import (
	"errors"
	"io"
	"io/fs"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/qrforge/internal/batch"
	"github.com/JonMunkholm/qrforge/internal/core"
	"github.com/JonMunkholm/qrforge/internal/logging"
)

type validateBatchRequest struct {
	Items []batch.Item `json:"items"`
}

type exportRequest struct {
	Items    []batch.Item `json:"items"`
	Validate bool         `json:"validate"`
}

// handleParseCSV ingests a CSV sent either as the "file" field of a
// multipart form or as the raw request body. Malformed documents return a
// ParseResult with success=false and the reason.
func (s *Server) handleParseCSV(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Batch.MaxCSVSize+multipartSlack)

	var body io.Reader = r.Body
	if isMultipart(r) {
		part, err := filePart(r)
		if err != nil {
			respondServiceError(w, r, err)
			return
		}
		defer part.Close()
		body = part
	}

	res, err := s.service.ParseCSV(r.Context(), body)
	if err != nil {
		if statusFor(err) == http.StatusUnprocessableEntity {
			logRequestError(r, err, http.StatusUnprocessableEntity, core.MapError(err).Code)
			writeJSONStatus(w, http.StatusUnprocessableEntity, batch.ParseResult{
				Items: []batch.Record{},
				Error: err.Error(),
			})
			return
		}
		respondServiceError(w, r, err)
		return
	}
	writeJSON(w, res)
}

// handleValidateBatch decodes every item image and compares it with the
// item's content. Per-item failures are records, not errors.
func (s *Server) handleValidateBatch(w http.ResponseWriter, r *http.Request) {
	var req validateBatchRequest
	if err := decodeJSON(w, r, s.cfg.Batch.MaxRequestSize, &req); err != nil {
		respondServiceError(w, r, err)
		return
	}

	records, err := s.service.ValidateBatch(r.Context(), req.Items)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	writeJSON(w, records)
}

// handleExportArchive packages items into a downloadable archive. The
// response zipPath is the name to pass to GET /api/exports/{name}.
func (s *Server) handleExportArchive(w http.ResponseWriter, r *http.Request) {
	var req exportRequest
	if err := decodeJSON(w, r, s.cfg.Batch.MaxRequestSize, &req); err != nil {
		respondServiceError(w, r, err)
		return
	}

	res, err := s.service.ExportArchive(r.Context(), req.Items, req.Validate)
	if err != nil {
		var itemErr *batch.ItemError
		if errors.As(err, &itemErr) {
			logRequestError(r, err, http.StatusUnprocessableEntity, core.MapError(err).Code)
			writeJSONStatus(w, http.StatusUnprocessableEntity, batch.ArchiveResult{
				ValidationResults: []batch.ValidationRecord{},
				Error:             err.Error(),
			})
			return
		}
		respondServiceError(w, r, err)
		return
	}
	writeJSON(w, res)
}

// handleDownloadExport streams a previously exported archive.
func (s *Server) handleDownloadExport(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	path, err := s.service.ExportPath(name)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		// Swept between lookup and open.
		err = core.ErrExportNotFound
	}
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	logging.FromContext(r.Context()).Info("export downloaded", "name", name, "bytes", info.Size())
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	http.ServeContent(w, r, name, info.ModTime(), f)
}
