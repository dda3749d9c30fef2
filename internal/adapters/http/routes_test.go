package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"slate/internal/adapters/http/middleware"
	"slate/internal/adapters/http/perf"
)

func TestRoutes_HomeworkBlocksAnonymous(t *testing.T) {
	s, _ := newTestStores()
	stores = s

	mux := http.NewServeMux()
	registerRoutes(mux)

	req := httptest.NewRequest("GET", "/homework", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status=%d, want %d", rec.Code, http.StatusSeeOther)
	}
	if loc := rec.Header().Get("Location"); loc != "/login" {
		t.Errorf("redirect location = %q, want /login", loc)
	}
}

func TestInternalError_HidesDetails(t *testing.T) {
	rec := httptest.NewRecorder()
	internalError(rec, errors.New("dsn=user:secret@tcp"))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status=%d, want %d", rec.Code, http.StatusInternalServerError)
	}
	if strings.Contains(rec.Body.String(), "secret") {
		t.Errorf("response must not leak the underlying error: %s", rec.Body.String())
	}
}

func TestHandlePerf_Unauthenticated(t *testing.T) {
	perfCollector = perf.NewCollector(16)

	req := httptest.NewRequest("GET", "/api/perf", nil)
	rec := httptest.NewRecorder()
	handlePerf(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status=%d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestHandlePerf_ViewerForbidden(t *testing.T) {
	perfCollector = perf.NewCollector(16)

	req := httptest.NewRequest("GET", "/api/perf", nil)
	req = req.WithContext(middleware.ContextWithSession(req.Context(), viewerSession))
	rec := httptest.NewRecorder()
	handlePerf(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("status=%d, want %d", rec.Code, http.StatusForbidden)
	}
}

func TestHandlePerf_AdminGetsSnapshot(t *testing.T) {
	perfCollector = perf.NewCollector(16)
	perfCollector.Record(perf.Entry{
		Kind:       perf.KindRequest,
		Path:       "/homework",
		StatusCode: 200,
		DurationMs: 12,
		Timestamp:  time.Now(),
	})

	req := httptest.NewRequest("GET", "/api/perf", nil)
	req = req.WithContext(middleware.ContextWithSession(req.Context(), adminSession))
	rec := httptest.NewRecorder()
	handlePerf(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d, want %d body=%s", rec.Code, http.StatusOK, rec.Body.String())
	}
	var snap perf.Snapshot
	if err := json.NewDecoder(rec.Body).Decode(&snap); err != nil {
		t.Fatalf("failed to decode snapshot: %v", err)
	}
	if snap.TotalRecorded != 1 {
		t.Errorf("TotalRecorded = %d, want 1", snap.TotalRecorded)
	}
}
