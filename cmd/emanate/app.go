// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"

	"github.com/emanate/emanate/internal/cargo"
	"github.com/emanate/emanate/internal/config"
	"github.com/emanate/emanate/internal/registry"
	"github.com/emanate/emanate/pkg/manifest"
	"github.com/emanate/emanate/pkg/version"
)

type (
	// App wires CLI services and shared dependencies. It is the composition root
	// for the CLI layer: every command handler receives an App and reaches the
	// outside world only through it.
	App struct {
		Config    ConfigProvider
		Registry  RegistryFactory
		Toolchain ToolchainFactory
		stdout    io.Writer
		stderr    io.Writer
	}

	// Dependencies defines the injection points for building an App. Nil fields
	// are replaced with production defaults by NewApp.
	Dependencies struct {
		Config    ConfigProvider
		Registry  RegistryFactory
		Toolchain ToolchainFactory
		Stdout    io.Writer
		Stderr    io.Writer
	}

	// ConfigProvider loads configuration using explicit options.
	ConfigProvider interface {
		Load(ctx context.Context, opts config.LoadOptions) (*config.Config, error)
	}

	// RegistryClient answers version queries for published packages.
	RegistryClient interface {
		Versions(ctx context.Context, name string) ([]version.Version, error)
		LatestStableVersion(ctx context.Context, name string) (version.Version, error)
	}

	// Toolchain runs cargo subcommands for one package.
	Toolchain interface {
		Publish(ctx context.Context, pkg *manifest.Package) error
		Build(ctx context.Context, pkg *manifest.Package) error
		AddOwner(ctx context.Context, pkg *manifest.Package, user string) error
		RemoveOwner(ctx context.Context, pkg *manifest.Package, user string) error
	}

	// RegistryFactory builds a registry client for one invocation.
	RegistryFactory func(cfg *config.Config, logger *log.Logger) RegistryClient

	// ToolchainFactory builds a toolchain for one invocation. Child output
	// goes to stdout and stderr.
	ToolchainFactory func(cfg *config.Config, logger *log.Logger, stdout, stderr io.Writer) Toolchain
)

// NewApp creates an App, filling unset dependencies with production defaults.
func NewApp(deps Dependencies) *App {
	if deps.Stdout == nil {
		deps.Stdout = os.Stdout
	}
	if deps.Stderr == nil {
		deps.Stderr = os.Stderr
	}
	if deps.Config == nil {
		deps.Config = config.NewProvider()
	}
	if deps.Registry == nil {
		deps.Registry = newRegistryClient
	}
	if deps.Toolchain == nil {
		deps.Toolchain = newToolchain
	}

	return &App{
		Config:    deps.Config,
		Registry:  deps.Registry,
		Toolchain: deps.Toolchain,
		stdout:    deps.Stdout,
		stderr:    deps.Stderr,
	}
}

func newRegistryClient(cfg *config.Config, logger *log.Logger) RegistryClient {
	return registry.NewClient(
		registry.WithBaseURL(cfg.Registry.URL),
		registry.WithUserAgent(cfg.Registry.UserAgent),
		registry.WithInterval(cfg.Registry.RateLimit),
		registry.WithHTTPClient(&http.Client{Timeout: cfg.Registry.Timeout}),
		registry.WithLogger(logger),
	)
}

func newToolchain(cfg *config.Config, logger *log.Logger, stdout, stderr io.Writer) Toolchain {
	tc := cargo.New(cfg.Toolchain.Cargo, logger)
	tc.Stdout = stdout
	tc.Stderr = stderr
	return tc
}
