package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	appconfig "github.com/wolfman30/frontdesk/internal/config"
	"github.com/wolfman30/frontdesk/pkg/logging"
)

func TestSetupMetricsExposesBridgeMetrics(t *testing.T) {
	handler, bridgeMetrics := setupMetrics()
	if handler == nil || bridgeMetrics == nil {
		t.Fatalf("expected non-nil handler and metrics")
	}

	bridgeMetrics.ObserveContract("ok")

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "frontdesk_bridge_contract_total") {
		t.Fatalf("expected contract counter to be exported")
	}
	if !strings.Contains(rr.Body.String(), "go_goroutines") {
		t.Fatalf("expected runtime collectors to be exported")
	}
}

func TestBuildHandlerWithoutCredentials(t *testing.T) {
	cfg := &appconfig.Config{
		LeadStore:        "memory",
		LLMProvider:      "openai",
		EmailProvider:    "auto",
		BusinessName:     "Test Detailing",
		BusinessTimezone: "America/Chicago",
	}

	handler, cleanup, err := buildHandler(context.Background(), cfg, nil, logging.New("error"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer cleanup()

	req := httptest.NewRequest(http.MethodGet, "/api/leads/_env", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	var env map[string]bool
	if err := json.NewDecoder(rr.Body).Decode(&env); err != nil {
		t.Fatalf("decode env: %v", err)
	}
	if env["hasLLMKey"] {
		t.Fatalf("expected hasLLMKey=false without an OpenAI key")
	}

	// Lead CRUD keeps working without a model provider.
	req = httptest.NewRequest(http.MethodPost, "/api/leads", strings.NewReader(`{"name":"Sarah Jones"}`))
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected lead creation to succeed, got %d", rr.Code)
	}
}

func TestBuildHandlerRejectsUnknownStore(t *testing.T) {
	cfg := &appconfig.Config{LeadStore: "cassandra", BusinessTimezone: "UTC"}
	if _, _, err := buildHandler(context.Background(), cfg, nil, logging.New("error")); err == nil {
		t.Fatalf("expected error for unknown lead store")
	}
}
