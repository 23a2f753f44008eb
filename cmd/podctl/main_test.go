package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/danmuck/podwire/internal/testutil/testlog"
)

func runCmd(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestDemoThenDump(t *testing.T) {
	testlog.Start(t)
	path := filepath.Join(t.TempDir(), "buffer.dump")
	if code, _, stderr := runCmd(t, "demo", "-out", path); code != 0 {
		t.Fatalf("demo exit %d: %s", code, stderr)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read dump: %v", err)
	}
	if len(data) != 104 {
		t.Fatalf("expected 104 byte demo buffer, got %d", len(data))
	}

	code, out, stderr := runCmd(t, "dump", "-in", path)
	if code != 0 {
		t.Fatalf("dump exit %d: %s", code, stderr)
	}
	for _, want := range []string{"Struct: size 32", "Int 5", "Float 3.141500", `String "hw:0"`, "Float 440.000000"} {
		if !strings.Contains(out, want) {
			t.Fatalf("dump output missing %q:\n%s", want, out)
		}
	}
}

func TestFramedDemoFindByName(t *testing.T) {
	testlog.Start(t)
	path := filepath.Join(t.TempDir(), "demo.podw")
	if code, _, stderr := runCmd(t, "demo", "-out", path, "-framed"); code != 0 {
		t.Fatalf("demo exit %d: %s", code, stderr)
	}
	code, out, stderr := runCmd(t, "find", "-in", path, "-framed", "-key", "device")
	if code != 0 {
		t.Fatalf("find exit %d: %s", code, stderr)
	}
	if !strings.Contains(out, "device (0x101)") || !strings.Contains(out, `String "hw:0"`) {
		t.Fatalf("unexpected find output:\n%s", out)
	}

	code, _, stderr = runCmd(t, "find", "-in", path, "-framed", "-key", "0x10003")
	if code != 1 || !strings.Contains(stderr, "volume not found") {
		t.Fatalf("expected missing volume, exit %d: %s", code, stderr)
	}
}

func TestDumpReportsTruncatedFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "buffer.dump")
	if code, _, stderr := runCmd(t, "demo", "-out", path); code != 0 {
		t.Fatalf("demo exit %d: %s", code, stderr)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read dump: %v", err)
	}
	cut := filepath.Join(dir, "cut.dump")
	if err := os.WriteFile(cut, data[:60], 0o600); err != nil {
		t.Fatalf("write cut dump: %v", err)
	}
	code, out, stderr := runCmd(t, "dump", "-in", cut)
	if code != 1 {
		t.Fatalf("expected exit 1, got %d", code)
	}
	if !strings.Contains(out, "Int 5") || !strings.Contains(stderr, "truncated") {
		t.Fatalf("unexpected output:\nstdout=%s\nstderr=%s", out, stderr)
	}
}

func TestConfigDrivesDefaults(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "podctl.toml")
	if code, _, stderr := runCmd(t, "init-config", "-out", cfgPath); code != 0 {
		t.Fatalf("init-config exit %d: %s", code, stderr)
	}
	if code, _, _ := runCmd(t, "init-config", "-out", cfgPath); code != 1 {
		t.Fatalf("expected existing config to be refused")
	}
	if err := os.WriteFile(cfgPath, []byte("framed = true\ndump_hex = true\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	path := filepath.Join(dir, "demo.podw")
	if code, _, stderr := runCmd(t, "-config", cfgPath, "demo", "-out", path); code != 0 {
		t.Fatalf("demo exit %d: %s", code, stderr)
	}
	code, out, stderr := runCmd(t, "-config", cfgPath, "dump", "-in", path)
	if code != 0 {
		t.Fatalf("dump exit %d: %s", code, stderr)
	}
	// hex dump of the first struct header: size 0x20, type 0x0e
	if !strings.Contains(out, "20 00 00 00 0e 00 00 00") || !strings.Contains(out, "Int 5") {
		t.Fatalf("unexpected dump output:\n%s", out)
	}
}

func TestUsageErrors(t *testing.T) {
	if code, _, _ := runCmd(t); code != 2 {
		t.Fatalf("expected usage exit for no command, got %d", code)
	}
	if code, _, _ := runCmd(t, "frobnicate"); code != 2 {
		t.Fatalf("expected usage exit for unknown command, got %d", code)
	}
	if code, _, _ := runCmd(t, "find", "-in", "x"); code != 2 {
		t.Fatalf("expected usage exit for missing key, got %d", code)
	}
}

func TestParseKey(t *testing.T) {
	cases := map[string]uint32{"257": 0x101, "0x10002": 0x10002, "frequency": 0x10002}
	for raw, want := range cases {
		got, err := parseKey(raw)
		if err != nil || got != want {
			t.Fatalf("parseKey(%q) = %#x, %v", raw, got, err)
		}
	}
	if _, err := parseKey("nope"); err == nil {
		t.Fatalf("expected error for unknown name")
	}
}
