package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// env builds a LookupFunc over a fixed map.
func env(vars map[string]string) LookupFunc {
	return func(key string) (string, bool) {
		v, ok := vars[key]
		return v, ok
	}
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := LoadFrom(env(nil))
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}

	if cfg.Server.Addr() != "0.0.0.0:8080" {
		t.Errorf("Server.Addr() = %q, want %q", cfg.Server.Addr(), "0.0.0.0:8080")
	}
	if cfg.Upload.MaxFileSize != 10*1024*1024 {
		t.Errorf("Upload.MaxFileSize = %d, want %d", cfg.Upload.MaxFileSize, 10*1024*1024)
	}
	if cfg.Upload.MaxConcurrent != 5 {
		t.Errorf("Upload.MaxConcurrent = %d, want 5", cfg.Upload.MaxConcurrent)
	}
	if cfg.Redis.SessionTTL != 24*time.Hour {
		t.Errorf("Redis.SessionTTL = %v, want 24h", cfg.Redis.SessionTTL)
	}
	if !cfg.Processing.RemoveDuplicates || !cfg.Processing.RemoveInvalid || !cfg.Processing.SortAlphabetically {
		t.Errorf("Processing defaults = %+v, want all enabled", cfg.Processing)
	}
	if cfg.Database.Enabled() || cfg.Redis.Enabled() {
		t.Error("database and redis should be disabled by default")
	}
	if cfg.Metrics.Namespace != "maillist" {
		t.Errorf("Metrics.Namespace = %q, want maillist", cfg.Metrics.Namespace)
	}
	if cfg.Database.AuditRetention != 90*24*time.Hour {
		t.Errorf("Database.AuditRetention = %v, want 2160h", cfg.Database.AuditRetention)
	}
}

func TestLoad_OverrideDefaults(t *testing.T) {
	cfg, err := LoadFrom(env(map[string]string{
		"SERVER_PORT":               "9090",
		"UPLOAD_MAX_CONCURRENT":     "10",
		"LOG_LEVEL":                 "debug",
		"PROCESSING_REMOVE_INVALID": "false",
		"TRUSTED_PROXIES":           "10.0.0.0/8, 192.168.1.1",
		"SESSION_TTL":               "90m",
	}))
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Upload.MaxConcurrent != 10 {
		t.Errorf("Upload.MaxConcurrent = %d, want 10", cfg.Upload.MaxConcurrent)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want debug", cfg.Logging.Level)
	}
	if cfg.Processing.RemoveInvalid {
		t.Error("Processing.RemoveInvalid should be false")
	}
	if len(cfg.Security.TrustedProxies) != 2 || cfg.Security.TrustedProxies[1] != "192.168.1.1" {
		t.Errorf("TrustedProxies = %v", cfg.Security.TrustedProxies)
	}
	if cfg.Redis.SessionTTL != 90*time.Minute {
		t.Errorf("SessionTTL = %v, want 90m", cfg.Redis.SessionTTL)
	}
}

func TestLoad_AltEnvVar(t *testing.T) {
	cfg, err := LoadFrom(env(map[string]string{"DB_URL": "postgres://localhost/alttest"}))
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}
	if cfg.Database.URL != "postgres://localhost/alttest" {
		t.Errorf("Database.URL = %q", cfg.Database.URL)
	}
}

func TestLoad_InvalidValue(t *testing.T) {
	tests := []struct {
		name string
		vars map[string]string
	}{
		{"bad int", map[string]string{"SERVER_PORT": "eighty"}},
		{"bad duration", map[string]string{"UPLOAD_TIMEOUT": "soon"}},
		{"bad bool", map[string]string{"REQUIRE_API_KEY": "maybe"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := LoadFrom(env(tt.vars)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		vars    map[string]string
		wantErr string
	}{
		{"port out of range", map[string]string{"SERVER_PORT": "70000"}, "SERVER_PORT"},
		{"api key required", map[string]string{"REQUIRE_API_KEY": "true"}, "API_KEYS is empty"},
		{"bad log level", map[string]string{"LOG_LEVEL": "loud"}, "LOG_LEVEL"},
		{"bad log format", map[string]string{"LOG_FORMAT": "xml"}, "LOG_FORMAT"},
		{"bad redis url", map[string]string{"REDIS_URL": "http://cache:6379"}, "REDIS_URL"},
		{"bad proxy", map[string]string{"TRUSTED_PROXIES": "not-an-ip"}, "TRUSTED_PROXIES"},
		{"db pool", map[string]string{"DATABASE_URL": "postgres://x", "DB_MAX_CONNS": "1", "DB_MIN_CONNS": "4"}, "DB_MAX_CONNS"},
		{"upload size", map[string]string{"UPLOAD_MAX_FILE_SIZE": "-1"}, "UPLOAD_MAX_FILE_SIZE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFrom(env(tt.vars))
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	_, err := LoadFrom(env(map[string]string{"SERVER_PORT": "0", "LOG_FORMAT": "xml"}))
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "SERVER_PORT") || !strings.Contains(err.Error(), "LOG_FORMAT") {
		t.Errorf("error should list both problems: %v", err)
	}
}

func TestLoadProcessingDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "defaults.yaml")
	if err := os.WriteFile(path, []byte("remove_invalid: false\nsort_alphabetically: false\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFrom(env(map[string]string{
		"PROCESSING_DEFAULTS_FILE":     path,
		"PROCESSING_REMOVE_DUPLICATES": "false",
	}))
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}

	if cfg.Processing.RemoveDuplicates {
		t.Error("RemoveDuplicates: absent YAML key should keep the env value (false)")
	}
	if cfg.Processing.RemoveInvalid || cfg.Processing.SortAlphabetically {
		t.Errorf("YAML values not applied: %+v", cfg.Processing)
	}
}

func TestLoadProcessingDefaults_Errors(t *testing.T) {
	dir := t.TempDir()
	unknown := filepath.Join(dir, "unknown.yaml")
	if err := os.WriteFile(unknown, []byte("dedupe: true\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	var p ProcessingConfig
	if err := LoadProcessingDefaults(unknown, &p); err == nil {
		t.Error("expected error for unknown key")
	}
	if err := LoadProcessingDefaults(filepath.Join(dir, "missing.yaml"), &p); err == nil {
		t.Error("expected error for missing file")
	}

	empty := filepath.Join(dir, "empty.yaml")
	if err := os.WriteFile(empty, nil, 0o600); err != nil {
		t.Fatal(err)
	}
	p = ProcessingConfig{RemoveInvalid: true}
	if err := LoadProcessingDefaults(empty, &p); err != nil {
		t.Errorf("empty file: %v", err)
	}
	if !p.RemoveInvalid {
		t.Error("empty file should leave values unchanged")
	}
}

func TestString_MasksSecrets(t *testing.T) {
	cfg, err := LoadFrom(env(map[string]string{
		"DATABASE_URL":    "postgres://user:hunter2@db/app",
		"REDIS_URL":       "redis://:s3cret@cache:6379/0",
		"REQUIRE_API_KEY": "true",
		"API_KEYS":        "key-one,key-two",
	}))
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}

	s := cfg.String()
	for _, secret := range []string{"hunter2", "s3cret", "key-one"} {
		if strings.Contains(s, secret) {
			t.Errorf("String() leaks %q: %s", secret, s)
		}
	}
	if !strings.Contains(s, "APIKeys: 2 configured") {
		t.Errorf("String() = %s", s)
	}
}
