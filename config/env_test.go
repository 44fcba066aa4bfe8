package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestEnvHelpers(t *testing.T) {
	t.Setenv("DEMO_INT", " 12 ")
	t.Setenv("DEMO_BAD_INT", "twelve")
	t.Setenv("DEMO_DURATION", "90s")
	t.Setenv("DEMO_EMPTY", "   ")

	if got := GetEnvInt("DEMO_INT", 1); got != 12 {
		t.Errorf("GetEnvInt = %d, want 12", got)
	}
	if got := GetEnvInt("DEMO_BAD_INT", 1); got != 1 {
		t.Errorf("GetEnvInt with bad value = %d, want fallback", got)
	}
	if got := GetEnvDuration("DEMO_DURATION", time.Second); got != 90*time.Second {
		t.Errorf("GetEnvDuration = %s", got)
	}
	if got := GetEnvDefault("DEMO_EMPTY", "fallback"); got != "fallback" {
		t.Errorf("blank value should fall back, got %q", got)
	}
}

func TestLoadEnv(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "test.env")
	if err := os.WriteFile(file, []byte("DEMO_FROM_FILE=loaded\nDEMO_PRESET=file\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("DEMO_PRESET", "process")
	t.Setenv("DEMO_FROM_FILE", "")
	os.Unsetenv("DEMO_FROM_FILE")

	if err := LoadEnv(filepath.Join(dir, "missing.env"), file); err != nil {
		t.Fatalf("LoadEnv: %v", err)
	}
	if got := GetEnv("DEMO_FROM_FILE"); got != "loaded" {
		t.Errorf("DEMO_FROM_FILE = %q", got)
	}
	if got := GetEnv("DEMO_PRESET"); got != "process" {
		t.Errorf("process environment should win, got %q", got)
	}

	if err := LoadEnv(filepath.Join(dir, "missing.env")); err != nil {
		t.Errorf("LoadEnv without files = %v, want nil", err)
	}
}

func TestElasticsearchSettings(t *testing.T) {
	t.Setenv("ELASTICSEARCH_ADDRESS", "http://a:9200, ,http://b:9200")
	if got := ElasticsearchAddresses(); len(got) != 2 || got[1] != "http://b:9200" {
		t.Errorf("addresses = %v", got)
	}

	t.Setenv("ELASTICSEARCH_REFRESH", "sometimes")
	if got := ElasticsearchRefresh(); got != "wait_for" {
		t.Errorf("refresh = %q, want wait_for", got)
	}
	t.Setenv("ELASTICSEARCH_REFRESH", "false")
	if got := ElasticsearchRefresh(); got != "false" {
		t.Errorf("refresh = %q, want false", got)
	}
}
