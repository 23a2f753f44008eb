package config

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/danmuck/podwire/internal/logging"
)

// PodctlConfig holds podctl runtime settings.
type PodctlConfig struct {
	MaxPayloadBytes uint32 `toml:"max_payload_bytes"`
	MaxBufferBytes  int    `toml:"max_buffer_bytes"`
	LogLevel        string `toml:"log_level"`
	DumpHex         bool   `toml:"dump_hex"`
	Framed          bool   `toml:"framed"`
}

func DefaultPodctlConfig() PodctlConfig {
	return PodctlConfig{
		MaxPayloadBytes: 8 * 1024 * 1024,
		MaxBufferBytes:  1024 * 1024,
		LogLevel:        "info",
		DumpHex:         false,
		Framed:          false,
	}
}

// podctl config.toml key mapping; meta.IsDefined tells unset from zero.
type fileConfig struct {
	MaxPayloadBytes uint32 `toml:"max_payload_bytes"`
	MaxBufferBytes  int    `toml:"max_buffer_bytes"`
	LogLevel        string `toml:"log_level"`
	DumpHex         bool   `toml:"dump_hex"`
	Framed          bool   `toml:"framed"`
}

// LoadPodctlConfig overlays the keys present in path onto the defaults.
func LoadPodctlConfig(path string) (PodctlConfig, error) {
	cfg := DefaultPodctlConfig()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return PodctlConfig{}, fmt.Errorf("config load failed (%s): %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return PodctlConfig{}, fmt.Errorf("config parse failed (%s): unknown key %q", path, undecoded[0].String())
	}

	if meta.IsDefined("max_payload_bytes") {
		cfg.MaxPayloadBytes = raw.MaxPayloadBytes
	}
	if meta.IsDefined("max_buffer_bytes") {
		cfg.MaxBufferBytes = raw.MaxBufferBytes
	}
	if meta.IsDefined("log_level") {
		cfg.LogLevel = strings.TrimSpace(raw.LogLevel)
	}
	if meta.IsDefined("dump_hex") {
		cfg.DumpHex = raw.DumpHex
	}
	if meta.IsDefined("framed") {
		cfg.Framed = raw.Framed
	}

	if err := ValidatePodctlConfig(cfg); err != nil {
		return PodctlConfig{}, err
	}
	return cfg, nil
}

func ValidatePodctlConfig(cfg PodctlConfig) error {
	if cfg.MaxPayloadBytes == 0 {
		return fmt.Errorf("podctl config max_payload_bytes must be positive")
	}
	if cfg.MaxPayloadBytes%8 != 0 {
		return fmt.Errorf("podctl config max_payload_bytes must be a multiple of 8")
	}
	if cfg.MaxBufferBytes < 0 {
		return fmt.Errorf("podctl config max_buffer_bytes must not be negative")
	}
	if _, ok := logging.ParseLevel(cfg.LogLevel); !ok {
		return fmt.Errorf("podctl config unknown log_level %q", cfg.LogLevel)
	}
	return nil
}
