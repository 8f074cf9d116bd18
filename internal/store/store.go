// Package store persists validation runs: one row per run, the serialized
// valid records and the field problems of rejected rows.
//
// Two backends share the Store interface: Postgres for the service and
// SQLite for local use and tests.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/sheetnorm/internal/core"
)

var (
	// ErrRunNotFound is returned by GetRun for unknown ids.
	ErrRunNotFound = errors.New("run not found")

	// ErrNoStore is returned by callers that need persistence when none is
	// configured.
	ErrNoStore = errors.New("no store configured")
)

// Run summarizes one validation of one sheet.
type Run struct {
	ID        uuid.UUID       `json:"id"`
	Profile   core.ProfileKey `json:"-"`
	Source    string          `json:"source"`
	Total     int             `json:"total"`
	Valid     int             `json:"valid"`
	Invalid   int             `json:"invalid"`
	CreatedAt time.Time       `json:"created_at"`
}

// MarshalJSON adds the profile parts as plain strings.
func (r Run) MarshalJSON() ([]byte, error) {
	type plain Run
	return json.Marshal(struct {
		plain
		Domain  string `json:"domain"`
		Tier    string `json:"tier"`
		Variant string `json:"variant,omitempty"`
	}{plain(r), string(r.Profile.Domain), string(r.Profile.Tier), string(r.Profile.Variant)})
}

// Record is one valid row in canonical form.
type Record struct {
	Line int             `json:"line"`
	Data json.RawMessage `json:"data"`
}

// Failure is one problem of one rejected row.
type Failure struct {
	Line   int    `json:"line"`
	Field  string `json:"field,omitempty"`
	Reason string `json:"reason"`
	Code   string `json:"code"`
}

// Store persists runs.
type Store interface {
	// SaveRun writes a run with its records and failures atomically.
	SaveRun(ctx context.Context, run *Run, records []Record, failures []Failure) error
	GetRun(ctx context.Context, id uuid.UUID) (*Run, error)
	ListRecords(ctx context.Context, id uuid.UUID, limit int) ([]Record, error)
	ListFailures(ctx context.Context, id uuid.UUID, limit int) ([]Failure, error)
	Ping(ctx context.Context) error
	Close() error
}

// BuildRun turns a batch result into a run ready to save. line maps a row
// index to the sheet line reported to users; nil means index+1.
func BuildRun(source string, p core.Profile, res core.BatchResult, line func(int) int) (*Run, []Record, []Failure, error) {
	if line == nil {
		line = func(i int) int { return i + 1 }
	}

	run := &Run{
		ID:        uuid.New(),
		Profile:   p.Key,
		Source:    source,
		Total:     len(res.Rows),
		Valid:     res.Valid,
		Invalid:   res.Invalid + res.Cancelled,
		CreatedAt: time.Now().UTC(),
	}

	records := make([]Record, 0, res.Valid)
	var failures []Failure
	for _, row := range res.Rows {
		if row.Valid() {
			data, err := json.Marshal(core.Serialize(p, row.Record))
			if err != nil {
				return nil, nil, nil, fmt.Errorf("encode row %d: %w", row.Index, err)
			}
			records = append(records, Record{Line: line(row.Index), Data: data})
			continue
		}
		for _, fe := range core.FieldErrors(row.Err) {
			failures = append(failures, Failure{
				Line:   line(row.Index),
				Field:  fe.Field,
				Reason: fe.Reason,
				Code:   fe.Code,
			})
		}
	}
	return run, records, failures, nil
}

const defaultListLimit = 1000

func listLimit(n int) int {
	if n <= 0 || n > defaultListLimit {
		return defaultListLimit
	}
	return n
}
