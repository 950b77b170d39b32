package observability

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	repotest "github.com/yungbote/eigo-backend/internal/data/repos/testutil"
)

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("scrape status %d: %s", rec.Code, rec.Body.String())
	}
	return rec.Body.String()
}

func TestHandlerExposesRegistry(t *testing.T) {
	m := newMetrics()
	m.ObserveAPI("GET", "/api/learn/materials", "200", 20*time.Millisecond)
	m.ObserveAPI("POST", "/api/admin/reorder", "500", time.Second)
	m.IncAnswerSubmitted(true)
	m.ObserveMutation("hierarchy.Reorder", "INVALID_HIERARCHY")
	m.AddImportedRows(3)

	out := scrape(t, m)
	for _, want := range []string{
		`eigo_api_requests_total{method="GET",route="/api/learn/materials",status="200"} 1`,
		`eigo_api_request_duration_seconds_bucket{method="GET",route="/api/learn/materials",status="200",le="0.05"} 1`,
		`eigo_api_request_duration_seconds_bucket{method="POST",route="/api/admin/reorder",status="500",le="0.5"} 0`,
		`eigo_api_requests_5xx_total 1`,
		`eigo_answers_submitted_total{correct="true"} 1`,
		`eigo_hierarchy_mutations_total{code="INVALID_HIERARCHY",op="hierarchy.Reorder"} 1`,
		`eigo_import_rows_total 3`,
		`go_goroutines`,
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in:\n%s", want, out)
		}
	}
}

func TestCountersAccumulate(t *testing.T) {
	m := newMetrics()
	m.ObserveMutation("hierarchy.CreateUnit", "OK")
	m.ObserveMutation("hierarchy.CreateUnit", "OK")
	m.ObserveMutation("hierarchy.CreateUnit", "NOT_FOUND")
	if got := m.MutationCount("hierarchy.CreateUnit", "OK"); got != 2 {
		t.Fatalf("ok count = %v, want 2", got)
	}
	if got := m.MutationCount("hierarchy.CreateUnit", "NOT_FOUND"); got != 1 {
		t.Fatalf("not found count = %v, want 1", got)
	}
	m.AddImportedRows(0)
	m.AddImportedRows(-2)
	if got := testutil.ToFloat64(m.importedRows); got != 0 {
		t.Fatalf("imported rows = %v, want 0", got)
	}
	m.ApiInflightInc()
	m.ApiInflightInc()
	m.ApiInflightDec()
	if got := testutil.ToFloat64(m.apiInflight); got != 1 {
		t.Fatalf("inflight = %v, want 1", got)
	}
}

func TestRegistriesAreIndependent(t *testing.T) {
	a, b := newMetrics(), newMetrics()
	a.ObserveMutation("hierarchy.DeleteUnit", "OK")
	if got := b.MutationCount("hierarchy.DeleteUnit", "OK"); got != 0 {
		t.Fatalf("second registry saw %v mutations", got)
	}
	if n := testutil.CollectAndCount(a.mutations); n != 1 {
		t.Fatalf("series = %d, want 1", n)
	}
}

func TestNilMetricsAreNoops(t *testing.T) {
	var m *Metrics
	m.ObserveAPI("GET", "/", "200", time.Millisecond)
	m.ApiInflightInc()
	m.IncAnswerSubmitted(false)
	m.AddImportedRows(1)
	m.ObserveMutation("x", "OK")
	m.RegisterDB(nil, nil)
	if m.MutationCount("x", "OK") != 0 || m.Registry() != nil {
		t.Fatalf("nil metrics should read as empty")
	}
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("nil handler status %d", rec.Code)
	}
}

func TestRegisterDBExportsPoolStats(t *testing.T) {
	m := newMetrics()
	db := repotest.DB(t)
	m.RegisterDB(nil, db)
	m.RegisterDB(nil, db)
	n, err := testutil.GatherAndCount(m.Registry(), "go_sql_open_connections")
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	if n != 1 {
		t.Fatalf("open connection series = %d, want 1", n)
	}
}
