package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	connectionrepo "nexty-pairing-service/internal/connection/repository"
	paircoderepo "nexty-pairing-service/internal/paircode/repository"
	pairingservice "nexty-pairing-service/internal/pairing/service"
	sessionrepo "nexty-pairing-service/internal/session/repository"
)

func newDeps() Deps {
	svc := pairingservice.New(
		sessionrepo.NewMemoryRepository(),
		paircoderepo.NewMemoryRepository(),
		connectionrepo.NewMemoryRepository(),
		5*time.Minute,
		6,
		10,
		zap.NewNop(),
	)
	return Deps{Logger: zap.NewNop(), Pairing: svc}
}

func TestNewRouter_RoutesMounted(t *testing.T) {
	r := NewRouter(newDeps())

	cases := []struct {
		method, path, body string
		wantStatus         int
	}{
		{http.MethodGet, "/healthz", "", http.StatusOK},
		{http.MethodPost, "/api/generate-code", `{"session_id":"Nexty~A"}`, http.StatusOK},
		{http.MethodPost, "/api/check-status", `{"session_id":"Nexty~A"}`, http.StatusOK},
		{http.MethodPost, "/api/new-session", `{}`, http.StatusOK},
		{http.MethodPost, "/api/pair-device", `{"pairing_code":"ZZZZZZ","session_id":"Nexty~B"}`, http.StatusNotFound},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(tc.method, tc.path, strings.NewReader(tc.body))
		if tc.body != "" {
			req.Header.Set("Content-Type", "application/json")
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		if w.Code != tc.wantStatus {
			t.Errorf("%s %s = %d, want %d (body %s)", tc.method, tc.path, w.Code, tc.wantStatus, w.Body.String())
		}
	}
}

func TestNewRouter_UnknownRoute(t *testing.T) {
	r := NewRouter(newDeps())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/nope", nil))
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}
