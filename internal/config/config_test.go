package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestParseJSON(t *testing.T) {
	path := writeConfig(t, "config.json", `{
		"telegram": {"token": "123:abc", "poll_timeout": "15s"},
		"logging": {"level": "debug", "console": true, "file": {"enabled": false, "path": ""}},
		"storage": {"driver": "file", "path": "./state.json"},
		"fetch": {"timeout": "5s", "retry_max": 4, "retry_base": "500ms"},
		"stalker": {"enabled": true, "schedule": "60s", "handle_delay": "500ms", "codeforces": true, "atcoder": false},
		"judges": {}
	}`)

	cfg, err := NewManager(path).Parse()
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.Telegram.Token != "123:abc" {
		t.Errorf("token = %q", cfg.Telegram.Token)
	}
	if cfg.Fetch.RetryMax != 4 {
		t.Errorf("retry_max = %d", cfg.Fetch.RetryMax)
	}
	if cfg.Stalker.Codeforces == nil || !*cfg.Stalker.Codeforces {
		t.Error("stalker.codeforces should parse as true")
	}
	if cfg.Stalker.AtCoder == nil || *cfg.Stalker.AtCoder {
		t.Error("stalker.atcoder should parse as false")
	}
}

func TestStalkerLoopEnabledDefaultsToTrue(t *testing.T) {
	path := writeConfig(t, "config.json", `{"telegram": {"token": "x"}}`)
	cfg, err := NewManager(path).Parse()
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if !cfg.Stalker.LoopEnabled() {
		t.Error("omitted stalker.enabled should leave the loop on")
	}

	path = writeConfig(t, "off.json", `{"telegram": {"token": "x"}, "stalker": {"enabled": false}}`)
	cfg, err = NewManager(path).Parse()
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.Stalker.LoopEnabled() {
		t.Error("explicit stalker.enabled=false should turn the loop off")
	}
}

func TestParseYAML(t *testing.T) {
	path := writeConfig(t, "config.yaml", `
telegram:
  token: "123:abc"
logging:
  level: info
  console: true
  file:
    enabled: false
    path: ""
fetch: {}
stalker:
  enabled: true
  schedule: "00:01"
`)

	cfg, err := NewManager(path).Parse()
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.Stalker.Schedule != "00:01" {
		t.Errorf("schedule = %q", cfg.Stalker.Schedule)
	}
	if cfg.Stalker.Codeforces != nil {
		t.Error("omitted toggle should stay nil (meaning enabled)")
	}
}

func TestParseRejectsUnknownFields(t *testing.T) {
	path := writeConfig(t, "config.json", `{"telegram": {"token": "x"}, "surprise": 1}`)
	if _, err := NewManager(path).Parse(); err == nil {
		t.Fatal("expected error for unknown top-level key")
	}
}

func TestParseRejectsTrailingData(t *testing.T) {
	path := writeConfig(t, "config.json", `{"telegram": {"token": "x"}}{"again": true}`)
	if _, err := NewManager(path).Parse(); err == nil {
		t.Fatal("expected error for trailing data")
	}
}

func TestParseDurationOrDefault(t *testing.T) {
	if d, err := ParseDurationOrDefault("x", "", 10*time.Second); err != nil || d != 10*time.Second {
		t.Fatalf("empty = %v, %v", d, err)
	}
	if d, err := ParseDurationOrDefault("x", "2m", time.Second); err != nil || d != 2*time.Minute {
		t.Fatalf("2m = %v, %v", d, err)
	}
	if _, err := ParseDurationOrDefault("x", "soon", time.Second); err == nil {
		t.Fatal("expected error for a malformed duration")
	}
	if _, err := ParseDurationField("x", "-5s"); err == nil {
		t.Fatal("expected error for a negative duration")
	}
}
