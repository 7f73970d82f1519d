package edgecache

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/otogaleri/edge-cache/policy"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "edge-cache.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	path := writeConfig(t, "origin: https://example.com\n")

	config, err := LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if config.Port != 8080 {
		t.Fatalf("port is %d", config.Port)
	}
	if config.Provider != "sqlite" {
		t.Fatalf("provider is %q", config.Provider)
	}
}

func TestLoadConfigParsesTimeout(t *testing.T) {
	path := writeConfig(t, "origin: https://example.com\noriginTimeout: 5s\n")

	config, err := LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if config.OriginTimeoutDuration() != 5*time.Second {
		t.Fatalf("timeout is %s", config.OriginTimeoutDuration())
	}
}

func TestLoadConfigRejectsMissingOrigin(t *testing.T) {
	path := writeConfig(t, "port: 9000\n")

	if _, err := LoadConfig(path); err == nil {
		t.Fatal("expected error")
	}
}

func TestLoadConfigCompilesRules(t *testing.T) {
	path := writeConfig(t, `origin: https://example.com
rules:
  - prefix: /api/internal/
    preset: private
  - path: /embed.js
    override: no-store
`)

	config, err := LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(config.Rules) != 2 {
		t.Fatalf("parsed %d rules", len(config.Rules))
	}
	if cc, ok := config.Rules.CacheControl("/api/internal/stats"); !ok || cc != policy.Private.Build() {
		t.Fatalf("rule lookup returned %q, %v", cc, ok)
	}
}

func TestLoadConfigRejectsBadRule(t *testing.T) {
	path := writeConfig(t, `origin: https://example.com
rules:
  - path: /x
    preset: aggressive
`)

	if _, err := LoadConfig(path); err == nil {
		t.Fatal("expected error")
	}
}

func TestLoadConfigRejectsUnknownProvider(t *testing.T) {
	path := writeConfig(t, "origin: https://example.com\nprovider: redis\n")

	if _, err := LoadConfig(path); err == nil {
		t.Fatal("expected error")
	}
}
