// SPDX-License-Identifier: MPL-2.0

// Package check compares the external dependency requirements of a
// workspace with the latest stable versions on the registry. The report is
// advisory: lookups that fail are logged and skipped.
package check

import (
	"context"
	"io"

	"github.com/charmbracelet/log"

	"github.com/emanate/emanate/pkg/manifest"
	"github.com/emanate/emanate/pkg/version"
)

// Status classifies one external dependency.
type Status string

const (
	// StatusOK means the requirement names exactly the latest version.
	StatusOK Status = "ok"
	// StatusCompatible means the requirement admits the latest version.
	StatusCompatible Status = "compatible"
	// StatusUpdate means the latest version is outside the requirement.
	StatusUpdate Status = "update"
)

type (
	// LatestSource returns the latest stable registry version of a package.
	LatestSource interface {
		LatestStableVersion(ctx context.Context, name string) (version.Version, error)
	}

	// Result is the outcome for one external dependency.
	Result struct {
		Name        string
		Requirement string
		Latest      version.Version
		Status      Status
	}
)

// Run checks every dependency of external, which must be sorted by name as
// returned by depgraph.Build. Only context cancellation aborts the run.
func Run(ctx context.Context, ws *manifest.Workspace, external []manifest.Dependency, source LatestSource, logger *log.Logger) ([]Result, error) {
	if logger == nil {
		logger = log.New(io.Discard)
	}

	results := make([]Result, 0, len(external))
	for _, dep := range external {
		name := dep.EffectiveName()

		raw, err := ws.ResolveRequirement("", dep)
		if err != nil {
			logger.Warn("skipping dependency without version requirement", "dependency", name, "err", err)
			continue
		}
		req, err := version.ParseRequirement(raw)
		if err != nil {
			logger.Warn("skipping unparseable requirement", "dependency", name, "requirement", raw, "err", err)
			continue
		}

		latest, err := source.LatestStableVersion(ctx, name)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return results, ctxErr
			}
			logger.Warn("registry lookup failed", "dependency", name, "err", err)
			continue
		}

		results = append(results, Result{
			Name:        name,
			Requirement: raw,
			Latest:      latest,
			Status:      classify(req, latest),
		})
	}

	return results, nil
}

func classify(req version.Requirement, latest version.Version) Status {
	if base, ok := req.Base(); ok && base.Equal(latest) {
		return StatusOK
	}
	if req.Allows(latest) {
		return StatusCompatible
	}
	return StatusUpdate
}

// Outdated reports whether any result needs an update.
func Outdated(results []Result) bool {
	for _, r := range results {
		if r.Status == StatusUpdate {
			return true
		}
	}
	return false
}
