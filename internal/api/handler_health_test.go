package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

// --- Mock Pinger ---

type mockPinger struct {
	err error
}

func (m *mockPinger) Ping(_ context.Context) error {
	return m.err
}

// --- Livez ---

func TestLivez_ReturnsOK(t *testing.T) {
	server := setupTestServer(&mockCanvas{}, newMockAccounts(), nil)

	req := httptest.NewRequest(http.MethodGet, "/livez", nil)
	w := httptest.NewRecorder()
	server.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status: got %d, want %d", w.Code, http.StatusOK)
	}

	var resp map[string]string
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp["status"] != "ok" {
		t.Errorf("status: got %q, want %q", resp["status"], "ok")
	}
}

// --- Readyz ---

func TestReadyz_NoDependencies_ReturnsOK(t *testing.T) {
	server := setupTestServer(&mockCanvas{}, newMockAccounts(), nil)

	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)
	w := httptest.NewRecorder()
	server.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status: got %d, want %d", w.Code, http.StatusOK)
	}
}

func TestReadyz_AllHealthy(t *testing.T) {
	deps := map[string]Pinger{
		"postgres": &mockPinger{},
		"mailer":   &mockPinger{},
	}
	server := setupTestServer(&mockCanvas{}, newMockAccounts(), deps)

	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)
	w := httptest.NewRecorder()
	server.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status: got %d, want %d\nbody: %s", w.Code, http.StatusOK, w.Body.String())
	}

	var resp readyzResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Status != "ok" {
		t.Errorf("status: got %q, want %q", resp.Status, "ok")
	}
	if len(resp.Dependencies) != 2 {
		t.Fatalf("dependencies: got %d, want 2", len(resp.Dependencies))
	}
	for name, st := range resp.Dependencies {
		if st.Status != "ok" {
			t.Errorf("dependency %s: got %q, want %q", name, st.Status, "ok")
		}
	}
}

func TestReadyz_OneDependencyDown(t *testing.T) {
	deps := map[string]Pinger{
		"postgres": &mockPinger{},
		"mailer":   &mockPinger{err: errors.New("connection refused")},
	}
	server := setupTestServer(&mockCanvas{}, newMockAccounts(), deps)

	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)
	w := httptest.NewRecorder()
	server.ServeHTTP(w, req)

	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("status: got %d, want %d\nbody: %s", w.Code, http.StatusServiceUnavailable, w.Body.String())
	}

	var resp readyzResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Status != "unavailable" {
		t.Errorf("status: got %q, want %q", resp.Status, "unavailable")
	}
	if resp.Dependencies["postgres"].Status != "ok" {
		t.Errorf("postgres: got %q, want %q", resp.Dependencies["postgres"].Status, "ok")
	}
	if resp.Dependencies["mailer"].Status != "error" {
		t.Errorf("mailer: got %q, want %q", resp.Dependencies["mailer"].Status, "error")
	}
	if resp.Dependencies["mailer"].Error != "connection refused" {
		t.Errorf("mailer error: got %q", resp.Dependencies["mailer"].Error)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	server := setupTestServer(&mockCanvas{}, newMockAccounts(), nil)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	server.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status: got %d, want %d", w.Code, http.StatusOK)
	}
}
