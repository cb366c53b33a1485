package cmd

import (
	"context"
	"testing"
	"time"

	"github.com/handlescan/handlescan/internal/config"
	"github.com/handlescan/handlescan/internal/core"
	"github.com/handlescan/handlescan/internal/core/engine"
)

func TestBuildDispatcherWiresEveryPlatform(t *testing.T) {
	cfg := &config.Config{
		Engine: config.EngineConfig{
			Timeout: 5 * time.Second,
			Order:   "query",
		},
	}

	dispatcher, sessions, st, err := buildDispatcher(context.Background(), cfg, nil, engine.OrderByQuery)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if st != nil {
		t.Fatal("expected no store without session persistence")
	}
	if sessions == nil {
		t.Fatal("expected a session cache")
	}
	if dispatcher.Verifier != nil {
		t.Fatal("expected no verifier without domains.verify")
	}

	names := core.PlatformNames()
	if len(dispatcher.Checkers) != len(names) {
		t.Fatalf("expected %d checkers, got %d", len(names), len(dispatcher.Checkers))
	}
	for _, name := range names {
		if _, ok := dispatcher.Checkers[name]; !ok {
			t.Fatalf("missing checker for %s", name)
		}
	}
}

func TestBuildDispatcherEnablesDomainVerifier(t *testing.T) {
	cfg := &config.Config{
		Engine: config.EngineConfig{Timeout: 5 * time.Second},
		Domains: config.DomainsConfig{
			Verify:  true,
			Timeout: 2 * time.Second,
			Servers: []string{"https://rdap.example.net"},
		},
	}

	dispatcher, _, _, err := buildDispatcher(context.Background(), cfg, nil, engine.OrderByPlatform)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dispatcher.Verifier == nil {
		t.Fatal("expected a domain verifier")
	}
	if dispatcher.Order != engine.OrderByPlatform {
		t.Fatalf("expected platform order, got %v", dispatcher.Order)
	}
}

func TestBuildDispatcherRejectsBadProxy(t *testing.T) {
	cfg := &config.Config{Engine: config.EngineConfig{Timeout: 5 * time.Second}}

	if _, _, _, err := buildDispatcher(context.Background(), cfg, []string{"://not-a-url"}, engine.OrderByQuery); err == nil {
		t.Fatal("expected error for malformed proxy URL")
	}
}
