package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "podctl.toml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadPodctlConfigOverlaysDefaults(t *testing.T) {
	path := writeConfig(t, "max_buffer_bytes = 0\ndump_hex = true\nlog_level = \"debug\"\n")
	cfg, err := LoadPodctlConfig(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	def := DefaultPodctlConfig()
	if cfg.MaxPayloadBytes != def.MaxPayloadBytes {
		t.Fatalf("expected default max_payload_bytes, got %d", cfg.MaxPayloadBytes)
	}
	if cfg.MaxBufferBytes != 0 {
		t.Fatalf("expected explicit zero max_buffer_bytes, got %d", cfg.MaxBufferBytes)
	}
	if !cfg.DumpHex || cfg.LogLevel != "debug" || cfg.Framed {
		t.Fatalf("unexpected config: %+v", cfg)
	}
}

func TestLoadPodctlConfigRejectsBadValues(t *testing.T) {
	cases := map[string]string{
		"zero payload":      "max_payload_bytes = 0\n",
		"unaligned payload": "max_payload_bytes = 12\n",
		"negative buffer":   "max_buffer_bytes = -1\n",
		"bad level":         "log_level = \"loud\"\n",
		"unknown key":       "max_payload = 64\n",
		"bad toml":          "framed = \n",
	}
	for name, body := range cases {
		if _, err := LoadPodctlConfig(writeConfig(t, body)); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
	if _, err := LoadPodctlConfig(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestTemplateLoadsAsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "podctl.toml")
	if err := WriteTemplate(path, false); err != nil {
		t.Fatalf("write template: %v", err)
	}
	cfg, err := LoadPodctlConfig(path)
	if err != nil {
		t.Fatalf("load template: %v", err)
	}
	if cfg != DefaultPodctlConfig() {
		t.Fatalf("template differs from defaults: %+v", cfg)
	}

	err = WriteTemplate(path, false)
	if err == nil || !strings.Contains(err.Error(), "already exists") {
		t.Fatalf("expected already exists error, got %v", err)
	}
	if err := WriteTemplate(path, true); err != nil {
		t.Fatalf("overwrite template: %v", err)
	}
}
