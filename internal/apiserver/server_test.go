package apiserver

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"openentropy/internal/entropy/pool"
)

func newTestServer(allowRaw bool) (*Server, *pool.Pool) {
	p := pool.New([]byte("apiserver-test-seed"))
	s := New(p, Config{Addr: "127.0.0.1:0", AllowRaw: allowRaw})
	return s, p
}

func TestHandleRandomDefaultsToHex16(t *testing.T) {
	s, _ := newTestServer(false)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/random?length=16", nil)

	s.handleRandom(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var body randomResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body.Type != "hex16" || body.Length != 16 || !body.Success {
		t.Fatalf("unexpected response: %+v", body)
	}
	hexStr, ok := body.Data.(string)
	if !ok || len(hexStr) != 32 {
		t.Fatalf("expected 32-char hex string, got %v", body.Data)
	}
}

func TestHandleRandomClampsLength(t *testing.T) {
	s, _ := newTestServer(false)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/random?length=999999999", nil)
	s.handleRandom(rec, req)

	var body randomResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body.Length != maxRandomLength {
		t.Fatalf("length = %d, want clamp to %d", body.Length, maxRandomLength)
	}
}

func TestHandleRandomFallsBackFromRawWhenDisallowed(t *testing.T) {
	s, _ := newTestServer(false)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/random?length=8&conditioning=raw", nil)
	s.handleRandom(rec, req)

	var body randomResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body.Conditioned == "raw" {
		t.Fatal("expected raw conditioning to fall back when allow_raw is false")
	}
}

func TestHandleRandomAllowsRawWhenEnabled(t *testing.T) {
	s, _ := newTestServer(true)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/random?length=8&conditioning=raw", nil)
	s.handleRandom(rec, req)

	var body randomResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body.Conditioned != "raw" {
		t.Fatalf("conditioned = %q, want raw", body.Conditioned)
	}
}

func TestHandleRandomRejectsUnknownType(t *testing.T) {
	s, _ := newTestServer(false)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/random?type=nonsense", nil)
	s.handleRandom(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestHandleHealthReflectsEmptyPool(t *testing.T) {
	s, _ := newTestServer(false)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	s.handleHealth(rec, req)

	var body healthResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body.SourcesTotal != 0 {
		t.Fatalf("sources_total = %d, want 0 for a source-less pool", body.SourcesTotal)
	}
}

func TestHandleSourcesEmptyPool(t *testing.T) {
	s, _ := newTestServer(false)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/sources", nil)
	s.handleSources(rec, req)

	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if total, ok := body["total"].(float64); !ok || total != 0 {
		t.Fatalf("total = %v, want 0", body["total"])
	}
}

func TestLiveAndReadyzEndpointsAreRegistered(t *testing.T) {
	s, _ := newTestServer(false)

	live := httptest.NewRecorder()
	s.httpServer.Handler.ServeHTTP(live, httptest.NewRequest(http.MethodGet, "/live", nil))
	if live.Code != http.StatusOK {
		t.Fatalf("/live status = %d, want 200", live.Code)
	}

	ready := httptest.NewRecorder()
	s.httpServer.Handler.ServeHTTP(ready, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if ready.Code != http.StatusOK {
		t.Fatalf("/readyz status = %d, want 200 once the server marks itself ready", ready.Code)
	}
}

func TestHandlePoolStatusIncludesIDAndUptime(t *testing.T) {
	s, p := newTestServer(false)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/pool/status", nil)
	s.handlePoolStatus(rec, req)

	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body["pool_id"] != p.ID() {
		t.Fatalf("pool_id = %v, want %v", body["pool_id"], p.ID())
	}
	if _, ok := body["uptime_secs"]; !ok {
		t.Fatal("expected uptime_secs field")
	}
}
