// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/emanate/emanate/internal/issue"
)

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, ConfigFileName+"."+ConfigFileExt)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

// isolated returns options that never touch the user's real config.
func isolated(t *testing.T) LoadOptions {
	t.Helper()
	return LoadOptions{ConfigDirPath: t.TempDir(), BaseDir: t.TempDir()}
}

func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	if cfg.Registry.URL != "https://crates.io" {
		t.Errorf("Registry.URL = %q", cfg.Registry.URL)
	}
	if cfg.Registry.RateLimit != time.Second {
		t.Errorf("Registry.RateLimit = %s, want 1s", cfg.Registry.RateLimit)
	}
	if cfg.Publish.Delay != 10*time.Second {
		t.Errorf("Publish.Delay = %s, want 10s", cfg.Publish.Delay)
	}
	if cfg.Toolchain.Cargo != "cargo" {
		t.Errorf("Toolchain.Cargo = %q", cfg.Toolchain.Cargo)
	}
	if cfg.UI.Verbose {
		t.Error("expected default verbose to be false")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should be valid: %v", err)
	}
}

func TestLoad_DefaultsWithoutFile(t *testing.T) {
	t.Parallel()

	cfg, path, err := loadWithOptions(context.Background(), isolated(t))
	if err != nil {
		t.Fatalf("loadWithOptions() error: %v", err)
	}
	if path != "" {
		t.Errorf("resolved path = %q, want empty", path)
	}
	if *cfg != *DefaultConfig() {
		t.Errorf("cfg = %+v, want defaults", cfg)
	}
}

func TestLoad_ConfigDirFile(t *testing.T) {
	t.Parallel()

	opts := isolated(t)
	want := writeConfig(t, opts.ConfigDirPath, `
registry: {
	url:        "http://localhost:8080"
	rate_limit: "250ms"
}
publish: delay: "0"
ui: verbose: true
`)

	cfg, path, err := loadWithOptions(context.Background(), opts)
	if err != nil {
		t.Fatalf("loadWithOptions() error: %v", err)
	}
	if path != want {
		t.Errorf("resolved path = %q, want %q", path, want)
	}
	if cfg.Registry.URL != "http://localhost:8080" {
		t.Errorf("Registry.URL = %q", cfg.Registry.URL)
	}
	if cfg.Registry.RateLimit != 250*time.Millisecond {
		t.Errorf("Registry.RateLimit = %s", cfg.Registry.RateLimit)
	}
	if cfg.Publish.Delay != 0 {
		t.Errorf("Publish.Delay = %s, want 0", cfg.Publish.Delay)
	}
	if !cfg.UI.Verbose {
		t.Error("UI.Verbose = false, want true")
	}
	// Untouched keys keep their defaults.
	if cfg.Registry.Timeout != 30*time.Second || cfg.Toolchain.Cargo != "cargo" {
		t.Errorf("defaults lost: %+v", cfg)
	}
}

func TestLoad_BaseDirFallback(t *testing.T) {
	t.Parallel()

	opts := isolated(t)
	want := writeConfig(t, opts.BaseDir, `toolchain: cargo: "/opt/cargo/bin/cargo"`)

	cfg, path, err := loadWithOptions(context.Background(), opts)
	if err != nil {
		t.Fatalf("loadWithOptions() error: %v", err)
	}
	if path != want || cfg.Toolchain.Cargo != "/opt/cargo/bin/cargo" {
		t.Errorf("path = %q, cargo = %q", path, cfg.Toolchain.Cargo)
	}
}

func TestLoad_ExplicitFileMissing(t *testing.T) {
	t.Parallel()

	opts := isolated(t)
	opts.ConfigFilePath = filepath.Join(opts.BaseDir, "nope.cue")

	_, _, err := loadWithOptions(context.Background(), opts)
	var ae *issue.ActionableError
	if !errors.As(err, &ae) {
		t.Fatalf("error = %v, want *issue.ActionableError", err)
	}
	if ae.Resource != opts.ConfigFilePath || !ae.HasSuggestions() {
		t.Errorf("unexpected actionable error: %+v", ae)
	}
}

func TestLoad_SchemaViolations(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"unknown field", `registry: bogus: 1`, "bogus"},
		{"bad url", `registry: url: "ftp://example.com"`, "url"},
		{"bad duration", `publish: delay: "ten seconds"`, "delay"},
		{"wrong type", `ui: verbose: "yes"`, "verbose"},
		{"syntax", `registry: {`, "config.cue"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			opts := isolated(t)
			opts.ConfigFilePath = writeConfig(t, opts.BaseDir, tt.content)

			_, _, err := loadWithOptions(context.Background(), opts)
			if err == nil {
				t.Fatal("expected an error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestLoad_EnvironmentOverride(t *testing.T) {
	t.Setenv("EMANATE_REGISTRY_URL", "http://127.0.0.1:9")
	t.Setenv("EMANATE_PUBLISH_DELAY", "3s")
	t.Setenv("EMANATE_UI_VERBOSE", "true")

	opts := isolated(t)
	writeConfig(t, opts.ConfigDirPath, `registry: url: "https://mirror.example.com"`)

	cfg, err := NewProvider().Load(context.Background(), opts)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Registry.URL != "http://127.0.0.1:9" {
		t.Errorf("environment should win over the file, got %q", cfg.Registry.URL)
	}
	if cfg.Publish.Delay != 3*time.Second {
		t.Errorf("Publish.Delay = %s, want 3s", cfg.Publish.Delay)
	}
	if !cfg.UI.Verbose {
		t.Error("UI.Verbose = false, want true")
	}
}

func TestLoad_EnvironmentInvalid(t *testing.T) {
	t.Setenv("EMANATE_REGISTRY_TIMEOUT", "0s")

	_, err := NewProvider().Load(context.Background(), isolated(t))
	if !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("error = %v, want ErrInvalidConfig", err)
	}
}

func TestLoad_Canceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewProvider().Load(ctx, isolated(t)); !errors.Is(err, context.Canceled) {
		t.Fatalf("error = %v, want context.Canceled", err)
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.Registry.URL = "crates.io"
	cfg.Registry.Timeout = 0
	cfg.Publish.Delay = -time.Second
	cfg.Toolchain.Cargo = "  "

	err := cfg.Validate()
	var invalid *InvalidConfigError
	if !errors.As(err, &invalid) {
		t.Fatalf("error = %v, want *InvalidConfigError", err)
	}
	if len(invalid.FieldErrors) != 4 {
		t.Errorf("FieldErrors = %v, want 4 entries", invalid.FieldErrors)
	}
	if !errors.Is(err, ErrInvalidConfig) {
		t.Error("error should wrap ErrInvalidConfig")
	}
}

func TestGenerateCUE_Loads(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.Registry.URL = "http://localhost:1234"
	cfg.Publish.Delay = 1500 * time.Millisecond
	cfg.UI.Verbose = true

	opts := isolated(t)
	opts.ConfigFilePath = writeConfig(t, opts.BaseDir, GenerateCUE(cfg))

	got, _, err := loadWithOptions(context.Background(), opts)
	if err != nil {
		t.Fatalf("generated config does not load: %v", err)
	}
	if *got != *cfg {
		t.Errorf("loaded = %+v, want %+v", got, cfg)
	}
}

func TestConfigDir_XDG(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("XDG_CONFIG_HOME only applies on Linux")
	}
	xdg := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", xdg)

	dir, err := ConfigDir()
	if err != nil {
		t.Fatalf("ConfigDir() error: %v", err)
	}
	if want := filepath.Join(xdg, AppName); dir != want {
		t.Errorf("ConfigDir() = %q, want %q", dir, want)
	}
}
