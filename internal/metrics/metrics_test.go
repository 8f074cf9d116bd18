package metrics

import (
	"context"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/JonMunkholm/sheetnorm/internal/core"
)

func TestObserveBatch(t *testing.T) {
	m := New()
	p := core.Profile{
		Key: core.ProfileKey{Domain: "test", Tier: core.TierStrict},
		Fields: []core.FieldSpec{
			{Name: "id", Accept: core.TypeText, Required: true},
			{Name: "when", Accept: core.TypeDate, Coerce: core.ToDate},
		},
	}
	res := core.ValidateBatch(context.Background(), p, []core.RawRecord{
		{"id": "a"},
		{"id": "b", "when": "yesterday"},
		{"when": "2023-10-23"},
	}, 1)

	m.ObserveBatch(res, 20*time.Millisecond)

	if got := testutil.ToFloat64(m.records.WithLabelValues("test/strict", "valid")); got != 1 {
		t.Errorf("valid = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.records.WithLabelValues("test/strict", "invalid")); got != 2 {
		t.Errorf("invalid = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.problems.WithLabelValues("test/strict", "VAL001")); got != 1 {
		t.Errorf("VAL001 problems = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.problems.WithLabelValues("test/strict", "VAL003")); got != 1 {
		t.Errorf("VAL003 problems = %v, want 1", got)
	}
	if got := testutil.CollectAndCount(m.batchDuration); got != 1 {
		t.Errorf("batch duration series = %d, want 1", got)
	}
}

func TestHandler(t *testing.T) {
	m := New()
	m.ObserveRequest("/api/profiles", "GET", 200, time.Millisecond)
	m.ObserveRequest("", "GET", 404, time.Millisecond)
	m.UploadStarted()
	m.UploadStarted()
	m.UploadFinished()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, _ := io.ReadAll(rec.Body)
	for _, want := range []string{
		`sheetnorm_http_requests_total{method="GET",route="/api/profiles",status="200"} 1`,
		`sheetnorm_http_requests_total{method="GET",route="unmatched",status="404"} 1`,
		`sheetnorm_uploads_active 1`,
		`go_goroutines`,
	} {
		if !strings.Contains(string(body), want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}
