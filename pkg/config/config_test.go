package config_test

import (
	"strings"
	"testing"

	"github.com/fancl20/rpki-core/pkg/config"
)

func TestLoadAppliesDefaults(t *testing.T) {
	c, err := config.Load([]byte(`
tals:
  - name: example
    path: /etc/rpki/example.tal
`))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want info", c.LogLevel)
	}
	if c.ListenAddr != ":8443" {
		t.Errorf("ListenAddr = %q, want :8443", c.ListenAddr)
	}
	if c.ParseCacheTTLSeconds != 3600 {
		t.Errorf("ParseCacheTTLSeconds = %d, want 3600", c.ParseCacheTTLSeconds)
	}
}

func TestLoadRejectsMissingTALs(t *testing.T) {
	_, err := config.Load([]byte(`store-path: /var/lib/rpki/store.db`))
	if err == nil {
		t.Fatal("Load() should reject a config with no TALs")
	}
}

func TestLoadRejectsIncompleteTAL(t *testing.T) {
	_, err := config.Load([]byte(`
tals:
  - name: example
`))
	if err == nil {
		t.Fatal("Load() should reject a TAL entry missing its path")
	}
}

func TestLoadRejectsBadLogLevel(t *testing.T) {
	_, err := config.Load([]byte(`
tals:
  - name: example
    path: /etc/rpki/example.tal
log-level: verbose
`))
	if err == nil {
		t.Fatal("Load() should reject an unrecognized log level")
	}
}

func TestLoadRejectsUnknownField(t *testing.T) {
	_, err := config.Load([]byte(`
tals:
  - name: example
    path: /etc/rpki/example.tal
bogus-field: 1
`))
	if err == nil || !strings.Contains(err.Error(), "yaml") {
		t.Fatalf("Load() should reject an unknown field via UnmarshalStrict, got %v", err)
	}
}
