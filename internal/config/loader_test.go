package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Addr != ":8080" {
		t.Errorf("addr = %s, want :8080", cfg.Addr)
	}
	if cfg.LayerTimeoutMS != 80 {
		t.Errorf("layer timeout = %d, want 80", cfg.LayerTimeoutMS)
	}
	if cfg.AllowBelow != 0.30 || cfg.DenyAt != 0.60 {
		t.Errorf("thresholds = %f/%f, want 0.30/0.60", cfg.AllowBelow, cfg.DenyAt)
	}
	if cfg.GeoCeilingKMH != 900 {
		t.Errorf("geo ceiling = %f, want 900", cfg.GeoCeilingKMH)
	}
}

func TestLoad_EnvOverridesDefaults(t *testing.T) {
	t.Setenv("VIGIL_ADDR", ":9999")
	t.Setenv("VIGIL_DENY_AT", "0.7")
	t.Setenv("VIGIL_LOG_LEVEL", "debug")

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Addr != ":9999" {
		t.Errorf("addr = %s, want :9999", cfg.Addr)
	}
	if cfg.DenyAt != 0.7 {
		t.Errorf("deny_at = %f, want 0.7", cfg.DenyAt)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("log_level = %s, want debug", cfg.LogLevel)
	}
	// Untouched keys keep their defaults.
	if cfg.AllowBelow != 0.30 {
		t.Errorf("allow_below = %f, want default 0.30", cfg.AllowBelow)
	}
}

func TestLoad_FileThenEnvPrecedence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vigil.yaml")
	body := "addr: \":7070\"\nlayer_timeout_ms: 120\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("VIGIL_CONFIG", path)
	t.Setenv("VIGIL_ADDR", ":6060")

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.LayerTimeoutMS != 120 {
		t.Errorf("layer timeout = %d, want the file's 120", cfg.LayerTimeoutMS)
	}
	if cfg.Addr != ":6060" {
		t.Errorf("addr = %s, env must win over the file", cfg.Addr)
	}
}

func TestLoad_MissingFileFails(t *testing.T) {
	t.Setenv("VIGIL_CONFIG", "/nonexistent/vigil.yaml")
	if _, err := Load(); err == nil {
		t.Error("missing config file must fail loudly, not fall back silently")
	}
}

func TestLoad_ValidationFailures(t *testing.T) {
	cases := []struct {
		name  string
		key   string
		value string
	}{
		{"empty addr", "VIGIL_ADDR", ""},
		{"zero layer timeout", "VIGIL_LAYER_TIMEOUT_MS", "0"},
		{"threshold above one", "VIGIL_DENY_AT", "1.5"},
		{"inverted thresholds", "VIGIL_ALLOW_BELOW", "0.9"},
		{"zero geo ceiling", "VIGIL_GEO_CEILING_KMH", "0"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv(tc.key, tc.value)
			if _, err := Load(); err == nil {
				t.Errorf("%s=%q must fail validation", tc.key, tc.value)
			}
		})
	}
}
