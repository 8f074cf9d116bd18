package web

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/JonMunkholm/sheetnorm/internal/source"
)

// maxMemory is how much of a multipart form is buffered in memory; the
// rest spills to temporary files.
const maxMemory = 32 << 20

// handleUpload validates an uploaded CSV or XLSX sheet and replies with the
// JSON report. Form fields: file, and optionally sheet and variant.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	rep, err := s.processUpload(w, r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, rep)
}

// handleUploadPage is handleUpload for browsers: the report is an HTML page.
func (s *Server) handleUploadPage(w http.ResponseWriter, r *http.Request) {
	rep, err := s.processUpload(w, r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := reportPage(rep).Render(r.Context(), w); err != nil {
		s.respondError(w, r, err)
	}
}

func (s *Server) processUpload(w http.ResponseWriter, r *http.Request) (*Report, error) {
	if err := s.limiter.Acquire(r.Context()); err != nil {
		return nil, err
	}
	defer s.limiter.Release()

	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Upload.MaxFileSize)
	if err := r.ParseMultipartForm(maxMemory); err != nil {
		if errors.Is(err, http.ErrNotMultipart) || errors.Is(err, http.ErrMissingBoundary) {
			return nil, fmt.Errorf("invalid request: %w", err)
		}
		return nil, bodyError(err)
	}
	defer r.MultipartForm.RemoveAll()

	// Resolve the profile before reading so a bad URL fails fast.
	p, err := s.profileFor(r, r.FormValue("variant"))
	if err != nil {
		return nil, err
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		return nil, fmt.Errorf("no file provided: %w", err)
	}
	defer file.Close()

	tbl, err := source.Read(header.Filename, file, source.Options{Sheet: r.FormValue("sheet")})
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", header.Filename, err)
	}
	if limit := s.cfg.Validation.MaxRecords; limit > 0 && tbl.Len() > limit {
		return nil, fmt.Errorf("invalid request: %d rows exceeds the limit of %d", tbl.Len(), limit)
	}

	ctx := r.Context()
	if s.cfg.Upload.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.Upload.Timeout)
		defer cancel()
	}
	return s.validate(ctx, p, header.Filename, tbl.Records, tbl.Line)
}
