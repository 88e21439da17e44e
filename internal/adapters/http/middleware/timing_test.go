package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func routed(pattern string, status int) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		NoteRoute(r.Context(), pattern)
		w.WriteHeader(status)
	})
}

// TestTiming_RecordsRouteAndStatus verifies the histogram is labelled by route pattern.
func TestTiming_RecordsRouteAndStatus(t *testing.T) {
	m := NewRequestMetrics()
	handler := Timing(m, time.Second)(routed("GET /api/members/{id}", http.StatusNotFound))

	for _, path := range []string{"/api/members/1", "/api/members/2"} {
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
		if rr.Code != http.StatusNotFound {
			t.Errorf("status = %d, want 404", rr.Code)
		}
	}
	if n := testutil.CollectAndCount(m.duration); n != 1 {
		t.Errorf("series = %d, want 1 (ids must not become labels)", n)
	}
}

// TestTiming_SkipsStatic verifies static assets are excluded from timing.
func TestTiming_SkipsStatic(t *testing.T) {
	m := NewRequestMetrics()
	handler := Timing(m, 0)(routed("GET /static/", http.StatusOK))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/static/style.css", nil))

	if n := testutil.CollectAndCount(m.duration); n != 0 {
		t.Errorf("series = %d, want 0 (static excluded)", n)
	}
	if rr.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rr.Code)
	}
}

// TestTiming_UnmatchedRoute verifies requests no handler claimed share one label.
func TestTiming_UnmatchedRoute(t *testing.T) {
	m := NewRequestMetrics()
	handler := Timing(m, 0)(http.NotFoundHandler())
	for _, path := range []string{"/a", "/b", "/c"} {
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}
	if n := testutil.CollectAndCount(m.duration); n != 1 {
		t.Errorf("series = %d, want 1", n)
	}
}

// TestTiming_NilMetrics verifies middleware works without metrics.
func TestTiming_NilMetrics(t *testing.T) {
	handler := Timing(nil, 0)(routed("GET /health", http.StatusOK))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rr.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rr.Code)
	}
}

// TestStatusWriter_DefaultStatus verifies 200 is reported when WriteHeader is never called.
func TestStatusWriter_DefaultStatus(t *testing.T) {
	m := NewRequestMetrics()
	reg := prometheus.NewRegistry()
	reg.MustRegister(m.Collectors()...)
	handler := Timing(m, 0)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		NoteRoute(r.Context(), "GET /health")
		w.Write([]byte("ok"))
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	if len(families) != 1 || len(families[0].GetMetric()) != 1 {
		t.Fatalf("families = %v", families)
	}
	for _, lp := range families[0].GetMetric()[0].GetLabel() {
		if lp.GetName() == "status" && lp.GetValue() != "200" {
			t.Errorf("status label = %q, want 200", lp.GetValue())
		}
	}
}
