package web

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

type validateSingleRequest struct {
	ImageData       string `json:"imageData"`
	ExpectedContent string `json:"expectedContent"`
}

type scanRequest struct {
	ImageData string `json:"imageData"`
}

// handleValidateSingle grades one rendered code against the content it
// should encode.
func (s *Server) handleValidateSingle(w http.ResponseWriter, r *http.Request) {
	var req validateSingleRequest
	if err := decodeJSON(w, r, s.cfg.Batch.MaxRequestSize, &req); err != nil {
		respondServiceError(w, r, err)
		return
	}
	if strings.TrimSpace(req.ImageData) == "" {
		respondServiceError(w, r, errNoImage)
		return
	}
	writeJSON(w, s.service.ValidateSingle(req.ImageData, req.ExpectedContent))
}

// handleScan reads a code from an uploaded image file (multipart "file")
// or from base64 / data-URL imageData. A missing code is a successful
// request with success=false.
func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	if isMultipart(r) {
		r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Batch.MaxRequestSize)
		part, err := filePart(r)
		if errors.Is(err, errNoFile) {
			err = errNoImage
		}
		if err != nil {
			respondServiceError(w, r, err)
			return
		}
		defer part.Close()

		raw, err := io.ReadAll(part)
		if err != nil {
			var maxBytes *http.MaxBytesError
			if errors.As(err, &maxBytes) {
				err = fmt.Errorf("%w (limit %d bytes)", errBodyTooLarge, maxBytes.Limit)
			}
			respondServiceError(w, r, err)
			return
		}
		if len(raw) == 0 {
			respondServiceError(w, r, errNoImage)
			return
		}
		writeJSON(w, s.service.ScanBytes(raw))
		return
	}

	var req scanRequest
	if err := decodeJSON(w, r, s.cfg.Batch.MaxRequestSize, &req); err != nil {
		respondServiceError(w, r, err)
		return
	}
	if strings.TrimSpace(req.ImageData) == "" {
		respondServiceError(w, r, errNoImage)
		return
	}
	writeJSON(w, s.service.Scan(req.ImageData))
}
