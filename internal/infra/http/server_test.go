//go:build !integration

package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"

	"telegram-user-bot/internal/config"
)

type fakeCheck struct {
	name string
	err  error
}

func (c fakeCheck) Name() string { return c.name }
func (c fakeCheck) Ready(ctx context.Context) error { return c.err }

func newTestServer(checks ...ReadinessCheck) *Server {
	l := zerolog.New(io.Discard)
	return NewServer(&config.Config{Admin: config.AdminConfig{Port: 0}}, &l, checks...)
}

func TestServer_Health(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestServer().Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK || rec.Body.String() != "OK" {
		t.Fatalf("code=%d body=%q", rec.Code, rec.Body.String())
	}
}

func TestServer_Ready(t *testing.T) {
	t.Run("all dependencies up", func(t *testing.T) {
		rec := httptest.NewRecorder()
		newTestServer(fakeCheck{name: "postgres"}).Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("code=%d", rec.Code)
		}
	})

	t.Run("one dependency down", func(t *testing.T) {
		rec := httptest.NewRecorder()
		srv := newTestServer(fakeCheck{name: "postgres"}, fakeCheck{name: "redis", err: errors.New("dial tcp: refused")})
		srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
		if rec.Code != http.StatusServiceUnavailable {
			t.Fatalf("code=%d", rec.Code)
		}
		var report map[string]string
		if err := json.Unmarshal(rec.Body.Bytes(), &report); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if report["postgres"] != "ok" || report["redis"] == "ok" {
			t.Errorf("unexpected report %v", report)
		}
	})
}

func TestServer_MetricsAndWebhook(t *testing.T) {
	srv := newTestServer()
	hits := 0
	srv.Mount("/telegram/webhook", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { hits++ }))

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("/metrics code=%d", rec.Code)
	}

	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/telegram/webhook", nil))
	if rec.Code != http.StatusOK || hits != 1 {
		t.Errorf("webhook code=%d hits=%d", rec.Code, hits)
	}

	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/telegram/webhook", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("GET webhook code=%d", rec.Code)
	}
}
