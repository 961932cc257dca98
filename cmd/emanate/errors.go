// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"

	"github.com/emanate/emanate/internal/cargo"
	"github.com/emanate/emanate/internal/config"
	"github.com/emanate/emanate/internal/dag"
	"github.com/emanate/emanate/internal/issue"
	"github.com/emanate/emanate/internal/publish"
	"github.com/emanate/emanate/internal/registry"
	"github.com/emanate/emanate/internal/versionsync"
	"github.com/emanate/emanate/internal/workspace"
	"github.com/emanate/emanate/pkg/manifest"
)

// failure wraps err into an ActionableError linked to the catalog entry
// that explains it.
func failure(operation, resource string, err error, suggestions ...string) error {
	ctx := issue.NewErrorContext().
		WithOperation(operation).
		WithResource(resource).
		WithIssue(classify(err))
	for _, s := range suggestions {
		ctx.WithSuggestion(s)
	}
	return ctx.Wrap(err).BuildError()
}

// classify maps a domain error to its catalog entry. The order matters:
// a failed publish wraps the toolchain error, and joined validation errors
// may contain several kinds.
func classify(err error) issue.Id {
	var cmdErr *cargo.CommandError
	switch {
	case errors.Is(err, workspace.ErrNotFound):
		return issue.ManifestNotFoundId
	case errors.Is(err, manifest.ErrVersionOverride):
		return issue.VersionOverrideId
	case errors.Is(err, manifest.ErrManifestParse):
		return issue.ManifestParseId
	case errors.Is(err, dag.ErrCycle):
		return issue.DependencyCycleId
	case errors.Is(err, publish.ErrPublish):
		return issue.PublishFailedId
	case errors.Is(err, publish.ErrInconsistentDependency):
		return issue.InconsistentDependencyId
	case errors.Is(err, manifest.ErrMissingVersion):
		return issue.MissingVersionId
	case errors.Is(err, versionsync.ErrRewriteIO):
		return issue.RewriteFailedId
	case errors.Is(err, registry.ErrRegistry):
		return issue.RegistryUnavailableId
	case errors.Is(err, config.ErrInvalidConfig):
		return issue.ConfigLoadFailedId
	case errors.As(err, &cmdErr):
		return issue.ToolchainFailedId
	default:
		return 0
	}
}
