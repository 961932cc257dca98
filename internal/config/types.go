// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
)

// ErrInvalidConfig is the sentinel error wrapped by InvalidConfigError.
var ErrInvalidConfig = errors.New("invalid config")

type (
	// InvalidConfigError is returned when a Config has invalid fields.
	// It wraps ErrInvalidConfig for errors.Is() compatibility and collects
	// field-level validation errors.
	InvalidConfigError struct {
		FieldErrors []error
	}

	// Config holds the application configuration.
	Config struct {
		// Registry configures the package registry client
		Registry RegistryConfig `json:"registry" mapstructure:"registry"`
		// Publish configures the publish orchestrator
		Publish PublishConfig `json:"publish" mapstructure:"publish"`
		// Toolchain selects the cargo executable
		Toolchain ToolchainConfig `json:"toolchain" mapstructure:"toolchain"`
		// UI configures the user interface
		UI UIConfig `json:"ui" mapstructure:"ui"`
	}

	// RegistryConfig configures access to the crates.io API.
	RegistryConfig struct {
		URL       string `json:"url" mapstructure:"url"`
		UserAgent string `json:"user_agent" mapstructure:"user_agent"`
		// RateLimit is the minimum interval between two requests; zero disables limiting.
		RateLimit time.Duration `json:"rate_limit" mapstructure:"rate_limit"`
		// Timeout bounds a single HTTP request.
		Timeout time.Duration `json:"timeout" mapstructure:"timeout"`
	}

	// PublishConfig configures live publishing.
	PublishConfig struct {
		Delay time.Duration `json:"delay" mapstructure:"delay"`
	}

	// ToolchainConfig configures external tools.
	ToolchainConfig struct {
		Cargo string `json:"cargo" mapstructure:"cargo"`
	}

	// UIConfig configures the user interface.
	UIConfig struct {
		// Verbose enables debug logging and error chains
		Verbose bool `json:"verbose" mapstructure:"verbose"`
	}
)

// Error implements the error interface.
func (e *InvalidConfigError) Error() string {
	msgs := make([]string, 0, len(e.FieldErrors))
	for _, err := range e.FieldErrors {
		msgs = append(msgs, err.Error())
	}
	return fmt.Sprintf("%s: %s", ErrInvalidConfig, strings.Join(msgs, "; "))
}

// Unwrap returns ErrInvalidConfig for errors.Is() compatibility.
func (e *InvalidConfigError) Unwrap() error { return ErrInvalidConfig }

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Registry: RegistryConfig{
			URL:       "https://crates.io",
			UserAgent: "emanate (https://github.com/emanate/emanate)",
			RateLimit: time.Second,
			Timeout:   30 * time.Second,
		},
		Publish: PublishConfig{
			Delay: 10 * time.Second,
		},
		Toolchain: ToolchainConfig{
			Cargo: "cargo",
		},
		UI: UIConfig{
			Verbose: false,
		},
	}
}

// Validate checks the constraints that survive environment overrides, which
// bypass the CUE schema. It returns nil or an *InvalidConfigError.
func (c *Config) Validate() error {
	var errs []error

	u, err := url.Parse(c.Registry.URL)
	switch {
	case err != nil:
		errs = append(errs, fmt.Errorf("registry.url: %w", err))
	case u.Scheme != "http" && u.Scheme != "https":
		errs = append(errs, fmt.Errorf("registry.url: unsupported scheme %q", u.Scheme))
	}
	if c.Registry.RateLimit < 0 {
		errs = append(errs, fmt.Errorf("registry.rate_limit: must not be negative, got %s", c.Registry.RateLimit))
	}
	if c.Registry.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("registry.timeout: must be positive, got %s", c.Registry.Timeout))
	}
	if c.Publish.Delay < 0 {
		errs = append(errs, fmt.Errorf("publish.delay: must not be negative, got %s", c.Publish.Delay))
	}
	if strings.TrimSpace(c.Toolchain.Cargo) == "" {
		errs = append(errs, errors.New("toolchain.cargo: must not be empty"))
	}

	if len(errs) > 0 {
		return &InvalidConfigError{FieldErrors: errs}
	}
	return nil
}
