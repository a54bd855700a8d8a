package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func chdir(t *testing.T, dir string) {
	t.Helper()

	originalWD, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd: %v", err)
	}
	t.Cleanup(func() {
		if chdirErr := os.Chdir(originalWD); chdirErr != nil {
			t.Fatalf("restore wd: %v", chdirErr)
		}
	})

	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Chdir(%s): %v", dir, err)
	}
}

func TestLoadFromPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultFileName)
	content := `cluster1:
  bootstrap_server: kafka-a:9092
  command_config: /etc/kafka/a.properties
  cli_dir: /opt/confluent/bin
cluster2:
  bootstrap_server: kafka-b:9092,kafka-c:9092
  command_config: /etc/kafka/b.properties
  cli_dir: /opt/kafka/bin
tool: kafka-consumer-groups.sh
summary: true
interval: 30s
output: JSON
log_format: json
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath() error = %v", err)
	}

	if cfg.Cluster1.BootstrapServer != "kafka-a:9092" {
		t.Fatalf("cluster1.bootstrap_server = %q", cfg.Cluster1.BootstrapServer)
	}
	if cfg.Cluster1.CommandConfig != "/etc/kafka/a.properties" || cfg.Cluster1.CLIDir != "/opt/confluent/bin" {
		t.Fatalf("cluster1 = %+v", cfg.Cluster1)
	}
	if cfg.Cluster2.BootstrapServer != "kafka-b:9092,kafka-c:9092" {
		t.Fatalf("cluster2.bootstrap_server = %q", cfg.Cluster2.BootstrapServer)
	}
	if cfg.Tool != "kafka-consumer-groups.sh" {
		t.Fatalf("tool = %q", cfg.Tool)
	}
	if cfg.Summary == nil || !*cfg.Summary {
		t.Fatalf("summary = %v", cfg.Summary)
	}
	if !cfg.HasInterval || cfg.Interval != 30*time.Second {
		t.Fatalf("interval = %v (has=%t)", cfg.Interval, cfg.HasInterval)
	}
	if cfg.Output != "json" {
		t.Fatalf("output = %q", cfg.Output)
	}
	if cfg.LogFormat != "json" {
		t.Fatalf("log_format = %q", cfg.LogFormat)
	}
}

func TestLoadFromPath_Partial(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultFileName)
	if err := os.WriteFile(path, []byte("cluster2:\n  cli_dir: /opt/kafka/bin\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath() error = %v", err)
	}
	if cfg.Summary != nil {
		t.Fatalf("summary = %v, want nil when unset", *cfg.Summary)
	}
	if cfg.HasInterval {
		t.Fatalf("interval should be unset")
	}
	if cfg.Cluster2.CLIDir != "/opt/kafka/bin" {
		t.Fatalf("cluster2.cli_dir = %q", cfg.Cluster2.CLIDir)
	}
}

func TestLoadFromPath_EnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultFileName)
	if err := os.WriteFile(path, []byte("cluster1:\n  bootstrap_server: file:9092\ninterval: 30s\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv("LAGDIFF_CLUSTER1_BOOTSTRAP_SERVER", "env:9092")
	t.Setenv("LAGDIFF_CLUSTER2_COMMAND_CONFIG", "/etc/kafka/env.properties")
	t.Setenv("LAGDIFF_INTERVAL", "1m")
	t.Setenv("LAGDIFF_SUMMARY", "false")
	t.Setenv("LAGDIFF_UNRELATED_SETTING", "ignored")

	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath() error = %v", err)
	}

	if cfg.Cluster1.BootstrapServer != "env:9092" {
		t.Fatalf("cluster1.bootstrap_server = %q, want env:9092", cfg.Cluster1.BootstrapServer)
	}
	if cfg.Cluster2.CommandConfig != "/etc/kafka/env.properties" {
		t.Fatalf("cluster2.command_config = %q", cfg.Cluster2.CommandConfig)
	}
	if cfg.Interval != time.Minute {
		t.Fatalf("interval = %v, want 1m", cfg.Interval)
	}
	if cfg.Summary == nil || *cfg.Summary {
		t.Fatalf("summary = %v, want false", cfg.Summary)
	}
}

func TestLoad_AutoDiscovery(t *testing.T) {
	cwdDir := filepath.Join(t.TempDir(), "cwd")
	if err := os.MkdirAll(cwdDir, 0o755); err != nil {
		t.Fatalf("mkdir cwd: %v", err)
	}
	homeDir := filepath.Join(t.TempDir(), "home")
	if err := os.MkdirAll(homeDir, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}

	cwdConfig := filepath.Join(cwdDir, DefaultFileName)
	homeConfig := filepath.Join(homeDir, DefaultFileName)

	if err := os.WriteFile(cwdConfig, []byte("cluster1:\n  bootstrap_server: cwd:9092\n"), 0o644); err != nil {
		t.Fatalf("write cwd config: %v", err)
	}
	if err := os.WriteFile(homeConfig, []byte("cluster1:\n  bootstrap_server: home:9092\n"), 0o644); err != nil {
		t.Fatalf("write home config: %v", err)
	}

	chdir(t, cwdDir)
	t.Setenv("HOME", homeDir)

	cfg, path, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg == nil {
		t.Fatalf("Load() cfg is nil")
	}
	if !samePath(path, cwdConfig) {
		t.Fatalf("loaded path = %q, want %q", path, cwdConfig)
	}
	if cfg.Cluster1.BootstrapServer != "cwd:9092" {
		t.Fatalf("cluster1.bootstrap_server = %q, want %q", cfg.Cluster1.BootstrapServer, "cwd:9092")
	}
}

func TestLoad_AutoDiscoveryHomeFallback(t *testing.T) {
	cwdDir := t.TempDir()
	homeDir := t.TempDir()
	homeConfig := filepath.Join(homeDir, alternateName)
	if err := os.WriteFile(homeConfig, []byte("cluster2:\n  bootstrap_server: home:9092\n"), 0o644); err != nil {
		t.Fatalf("write home config: %v", err)
	}

	chdir(t, cwdDir)
	t.Setenv("HOME", homeDir)

	cfg, path, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !samePath(path, homeConfig) {
		t.Fatalf("loaded path = %q, want %q", path, homeConfig)
	}
	if cfg.Cluster2.BootstrapServer != "home:9092" {
		t.Fatalf("cluster2.bootstrap_server = %q", cfg.Cluster2.BootstrapServer)
	}
}

func TestLoad_NoFile(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("HOME", t.TempDir())

	cfg, path, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if path != "" {
		t.Fatalf("Load() path = %q, want empty", path)
	}
	if cfg == nil || cfg.Cluster1.BootstrapServer != "" || cfg.HasInterval {
		t.Fatalf("Load() cfg = %+v, want empty config", cfg)
	}
}

func TestLoad_DotEnv(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, DotEnvFile), []byte("LAGDIFF_CLUSTER2_CLI_DIR=/opt/dotenv/bin\n"), 0o644); err != nil {
		t.Fatalf("write .env: %v", err)
	}

	chdir(t, dir)
	t.Setenv("HOME", t.TempDir())
	// registered so the variable godotenv sets is removed after the test
	t.Setenv("LAGDIFF_CLUSTER2_CLI_DIR", "")
	if err := os.Unsetenv("LAGDIFF_CLUSTER2_CLI_DIR"); err != nil {
		t.Fatalf("unsetenv: %v", err)
	}

	cfg, _, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Cluster2.CLIDir != "/opt/dotenv/bin" {
		t.Fatalf("cluster2.cli_dir = %q, want /opt/dotenv/bin", cfg.Cluster2.CLIDir)
	}
}

func TestLoadFromPath_Errors(t *testing.T) {
	tempDir := t.TempDir()

	unknownKey := filepath.Join(tempDir, "unknown.yaml")
	if err := os.WriteFile(unknownKey, []byte("unknown: value\n"), 0o644); err != nil {
		t.Fatalf("write unknown config: %v", err)
	}
	if _, err := LoadFromPath(unknownKey); err == nil {
		t.Fatalf("expected error for unknown key")
	}

	unknownNested := filepath.Join(tempDir, "unknown-nested.yaml")
	if err := os.WriteFile(unknownNested, []byte("cluster1:\n  bootstrap: a:9092\n"), 0o644); err != nil {
		t.Fatalf("write nested config: %v", err)
	}
	if _, err := LoadFromPath(unknownNested); err == nil {
		t.Fatalf("expected error for unknown nested key")
	}

	badInterval := filepath.Join(tempDir, "bad-interval.yaml")
	if err := os.WriteFile(badInterval, []byte("interval: soon\n"), 0o644); err != nil {
		t.Fatalf("write interval config: %v", err)
	}
	if _, err := LoadFromPath(badInterval); err == nil {
		t.Fatalf("expected error for invalid interval")
	}

	zeroInterval := filepath.Join(tempDir, "zero-interval.yaml")
	if err := os.WriteFile(zeroInterval, []byte("interval: 0s\n"), 0o644); err != nil {
		t.Fatalf("write interval config: %v", err)
	}
	if _, err := LoadFromPath(zeroInterval); err == nil {
		t.Fatalf("expected error for zero interval")
	}

	if _, err := LoadFromPath(filepath.Join(tempDir, "missing.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestEnvKey(t *testing.T) {
	cases := map[string]string{
		"LAGDIFF_CLUSTER1_BOOTSTRAP_SERVER": "cluster1.bootstrap_server",
		"LAGDIFF_CLUSTER2_CLI_DIR":          "cluster2.cli_dir",
		"LAGDIFF_LOG_FORMAT":                "log_format",
		"LAGDIFF_SUMMARY":                   "summary",
	}

	for in, want := range cases {
		if got := envKey(in); got != want {
			t.Errorf("envKey(%q) = %q, want %q", in, got, want)
		}
	}
}

func samePath(left, right string) bool {
	leftResolved, leftErr := filepath.EvalSymlinks(left)
	rightResolved, rightErr := filepath.EvalSymlinks(right)
	if leftErr == nil && rightErr == nil {
		return leftResolved == rightResolved
	}

	return filepath.Clean(left) == filepath.Clean(right)
}
