package web

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/JonMunkholm/sheetnorm/internal/core"
	"github.com/JonMunkholm/sheetnorm/internal/logging"
	"github.com/JonMunkholm/sheetnorm/internal/source"
	"github.com/JonMunkholm/sheetnorm/internal/store"
)

// =============================================================================
// Health
// =============================================================================

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := map[string]string{"status": "ok", "store": "disabled"}
	if s.store != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.store.Ping(ctx); err != nil {
			logging.FromContext(r.Context()).Warn("health: store ping failed", "error", err)
			status["status"] = "degraded"
			status["store"] = "unreachable"
			writeJSON(w, r, http.StatusServiceUnavailable, status)
			return
		}
		status["store"] = "ok"
	}
	writeJSON(w, r, http.StatusOK, status)
}

// =============================================================================
// Profiles
// =============================================================================

// ProfileInfo describes a registered profile.
type ProfileInfo struct {
	Domain  string      `json:"domain"`
	Tier    string      `json:"tier"`
	Variant string      `json:"variant,omitempty"`
	Fields  []FieldInfo `json:"fields"`
}

// FieldInfo describes one canonical field of a profile.
type FieldInfo struct {
	Name     string   `json:"name"`
	Aliases  []string `json:"aliases,omitempty"`
	Types    string   `json:"types"`
	Required bool     `json:"required"`
}

func describeProfile(p core.Profile) ProfileInfo {
	info := ProfileInfo{
		Domain:  string(p.Key.Domain),
		Tier:    string(p.Key.Tier),
		Variant: string(p.Key.Variant),
		Fields:  make([]FieldInfo, len(p.Fields)),
	}
	for i, f := range p.Fields {
		info.Fields[i] = FieldInfo{
			Name:     f.Name,
			Aliases:  f.Aliases,
			Types:    f.Accept.String(),
			Required: f.Required,
		}
	}
	return info
}

func (s *Server) handleListProfiles(w http.ResponseWriter, r *http.Request) {
	all := core.All()
	out := make([]ProfileInfo, len(all))
	for i, p := range all {
		out[i] = describeProfile(p)
	}
	writeJSON(w, r, http.StatusOK, out)
}

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	p, err := s.profileFor(r, r.URL.Query().Get("variant"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, describeProfile(p))
}

// profileFor resolves the {domain} and optional {tier} URL parameters.
// A missing tier falls back to the configured default.
func (s *Server) profileFor(r *http.Request, variant string) (core.Profile, error) {
	name := chi.URLParam(r, "tier")
	if name == "" {
		name = s.cfg.Validation.DefaultTier
	}
	tier, ok := core.ParseTier(name)
	if !ok {
		return core.Profile{}, fmt.Errorf("unknown tier %q", name)
	}
	domain := core.Domain(chi.URLParam(r, "domain"))
	return core.LookupVariant(domain, tier, core.Variant(variant))
}

// =============================================================================
// Validate
// =============================================================================

// handleValidate validates a JSON body of records:
//
//	{"variant": "github", "records": [{"source_mat_id": "...", ...}, ...]}
//
// A bare array is accepted too. Lines in the report are 1-based indexes.
func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Upload.MaxFileSize)

	req, err := source.DecodeRequest(r.Body)
	if err != nil {
		s.respondError(w, r, bodyError(err))
		return
	}
	p, err := s.profileFor(r, req.Variant)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if limit := s.cfg.Validation.MaxRecords; limit > 0 && len(req.Records) > limit {
		s.respondError(w, r, fmt.Errorf("invalid request: %d records exceeds the limit of %d", len(req.Records), limit))
		return
	}

	rep, err := s.validate(r.Context(), p, "request", req.Records, lineOf(nil))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, rep)
}

// validate runs one batch, records metrics, logs the summary and persists
// the run when a store is configured.
func (s *Server) validate(ctx context.Context, p core.Profile, src string, recs []core.RawRecord, line func(int) int) (*Report, error) {
	start := time.Now()
	res := core.ValidateBatch(ctx, p, recs, s.cfg.Validation.Workers)
	elapsed := time.Since(start)

	if s.metrics != nil {
		s.metrics.ObserveBatch(res, elapsed)
	}
	logger := logging.WithFields(ctx, "source", src)
	logging.BatchSummary(logger, p.Key.String(), len(res.Rows), res.Valid, res.Invalid+res.Cancelled, elapsed)

	rep := buildReport(p, res, line, elapsed)
	rep.Source = src

	if s.store != nil {
		run, records, failures, err := store.BuildRun(src, p, res, line)
		if err != nil {
			return nil, err
		}
		if err := s.store.SaveRun(ctx, run, records, failures); err != nil {
			return nil, fmt.Errorf("save run: %w", err)
		}
		rep.RunID = run.ID.String()
	}
	return rep, nil
}

// bodyError gives an oversized body the message that maps to FILE001.
func bodyError(err error) error {
	var mbe *http.MaxBytesError
	if errors.As(err, &mbe) {
		return fmt.Errorf("file too large: limit is %s: %w", humanize.IBytes(uint64(mbe.Limit)), err)
	}
	if strings.Contains(err.Error(), "request body too large") {
		return fmt.Errorf("file too large: %w", err)
	}
	return err
}

// =============================================================================
// Runs
// =============================================================================

func (s *Server) runID(r *http.Request) (uuid.UUID, error) {
	if s.store == nil {
		return uuid.Nil, store.ErrNoStore
	}
	id, err := uuid.Parse(chi.URLParam(r, "runID"))
	if err != nil {
		// Malformed ids cannot name a run.
		return uuid.Nil, store.ErrRunNotFound
	}
	return id, nil
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	id, err := s.runID(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	run, err := s.store.GetRun(r.Context(), id)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, run)
}

func (s *Server) handleRunRecords(w http.ResponseWriter, r *http.Request) {
	id, err := s.runID(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if _, err := s.store.GetRun(r.Context(), id); err != nil {
		s.respondError(w, r, err)
		return
	}
	records, err := s.store.ListRecords(r.Context(), id, queryLimit(r))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if records == nil {
		records = []store.Record{}
	}
	writeJSON(w, r, http.StatusOK, records)
}

func (s *Server) handleRunFailures(w http.ResponseWriter, r *http.Request) {
	id, err := s.runID(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if _, err := s.store.GetRun(r.Context(), id); err != nil {
		s.respondError(w, r, err)
		return
	}
	failures, err := s.store.ListFailures(r.Context(), id, queryLimit(r))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if failures == nil {
		failures = []store.Failure{}
	}
	writeJSON(w, r, http.StatusOK, failures)
}

// queryLimit reads ?limit=; the store clamps it.
func queryLimit(r *http.Request) int {
	n, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	return n
}
