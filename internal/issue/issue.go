// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"maps"
	"slices"

	"github.com/charmbracelet/glamour"
)

// Id identifies a catalog entry.
type Id int

const (
	ManifestParseId Id = iota + 1
	ManifestNotFoundId
	VersionOverrideId
	MissingVersionId
	DependencyCycleId
	RegistryUnavailableId
	InconsistentDependencyId
	PublishFailedId
	RewriteFailedId
	ConfigLoadFailedId
	ToolchainFailedId
)

type MarkdownMsg string

type HttpLink string

type Issue struct {
	id       Id          // ID used to lookup the issue
	mdMsg    MarkdownMsg // Markdown text that will be rendered
	docLinks []HttpLink  // cargo reference pages explaining the concept
}

func (i *Issue) Id() Id {
	return i.id
}

func (i *Issue) MarkdownMsg() MarkdownMsg {
	return i.mdMsg
}

func (i *Issue) DocLinks() []HttpLink {
	return slices.Clone(i.docLinks)
}

// Render renders the issue as terminal Markdown using the glamour style at stylePath
// (a built-in name such as "dark", "light" or "notty", or a JSON style file).
func (i *Issue) Render(stylePath string) (string, error) {
	md := string(i.mdMsg)
	if len(i.docLinks) > 0 {
		md += "\n\n## See also\n"
		for _, link := range i.docLinks {
			md += "- <" + string(link) + ">\n"
		}
	}
	return render(md, stylePath)
}

const (
	workspacesDoc  HttpLink = "https://doc.rust-lang.org/cargo/reference/workspaces.html"
	specifyingDoc  HttpLink = "https://doc.rust-lang.org/cargo/reference/specifying-dependencies.html"
	publishingDoc  HttpLink = "https://doc.rust-lang.org/cargo/reference/publishing.html"
	manifestDoc    HttpLink = "https://doc.rust-lang.org/cargo/reference/manifest.html"
	cratesIOPolicy HttpLink = "https://crates.io/data-access"
	cargoOwnerDoc  HttpLink = "https://doc.rust-lang.org/cargo/commands/cargo-owner.html"
)

var (
	render = glamour.Render

	manifestParseIssue = &Issue{
		id: ManifestParseId,
		mdMsg: `
# Could not read a Cargo manifest

One of the workspace manifests is not valid TOML, or it does not have the
shape emanate expects.

## Things you can try
- Check the file and line printed above
- Make sure the workspace root declares a version:
~~~toml
[workspace.package]
version = "0.1.0"
~~~
- Each dependency needs one of ` + "`version`, `workspace = true`, `path` or `git`" + `
- Package names must be unique across the workspace`,
		docLinks: []HttpLink{workspacesDoc, manifestDoc},
	}

	manifestNotFoundIssue = &Issue{
		id: ManifestNotFoundId,
		mdMsg: `
# No workspace manifest found

emanate needs the root ` + "`Cargo.toml`" + ` of a Cargo workspace.

## Things you can try
- Run emanate from the workspace root
- Or point at it explicitly:
~~~
$ emanate --manifest path/to/workspace order
~~~`,
		docLinks: []HttpLink{workspacesDoc},
	}

	versionOverrideIssue = &Issue{
		id: VersionOverrideId,
		mdMsg: `
# A published member overrides the workspace version

Every publishable member must share the workspace version so that one bump
moves all of them together.

## Things you can try
- Inherit the version in the member manifest:
~~~toml
[package]
version.workspace = true
~~~
- Or mark the member as unpublished with ` + "`publish = false`",
		docLinks: []HttpLink{workspacesDoc},
	}

	missingVersionIssue = &Issue{
		id: MissingVersionId,
		mdMsg: `
# A dependency has no version requirement

Packages uploaded to a registry cannot depend on ` + "`path`" + ` or ` + "`git`" + `
only. Internal dependencies need a version next to the path.

## Things you can try
- Declare the dependency in ` + "`[workspace.dependencies]`" + ` with both:
~~~toml
[workspace.dependencies]
my-core = { path = "crates/my-core", version = "0.3.0" }
~~~`,
		docLinks: []HttpLink{specifyingDoc, publishingDoc},
	}

	dependencyCycleIssue = &Issue{
		id: DependencyCycleId,
		mdMsg: `
# Dependency cycle detected

The publishable packages depend on each other in a loop, so there is no
order in which they can be published.

## Things you can try
- Follow the cycle printed above and remove one of its edges
- Move a test-only dependency to ` + "`[dev-dependencies]`" + `; those are ignored for ordering
- Mark an internal helper crate with ` + "`publish = false`",
		docLinks: []HttpLink{specifyingDoc},
	}

	registryUnavailableIssue = &Issue{
		id: RegistryUnavailableId,
		mdMsg: `
# The registry could not be queried

emanate asks the registry for already published versions before it
publishes anything.

## Things you can try
- Check your network connection and retry
- Use ` + "`--allow-new`" + ` when publishing a package for the first time
- Point ` + "`registry.url`" + ` (or ` + "`EMANATE_REGISTRY_URL`" + `) at a reachable mirror`,
		docLinks: []HttpLink{cratesIOPolicy},
	}

	inconsistentDependencyIssue = &Issue{
		id: InconsistentDependencyId,
		mdMsg: `
# Dependency requirements cannot be satisfied

Some internal requirement admits neither a version already on the registry
nor a version this run is about to publish.

## Things you can try
- Run ` + "`emanate version <major|minor|patch>`" + ` so every internal requirement is pinned
- Check the requirement strings listed above`,
		docLinks: []HttpLink{specifyingDoc},
	}

	publishFailedIssue = &Issue{
		id: PublishFailedId,
		mdMsg: `
# Publishing stopped

` + "`cargo publish`" + ` failed. Packages earlier in the order are already on the
registry and will be skipped when you run the command again.

## Things you can try
- Fix the error reported by cargo above
- Re-run ` + "`emanate publish`" + `; already published versions are skipped`,
		docLinks: []HttpLink{publishingDoc},
	}

	rewriteFailedIssue = &Issue{
		id: RewriteFailedId,
		mdMsg: `
# Manifests were not updated

The version bump could not be written. emanate stages every manifest before
replacing any of them, so a failure while staging leaves the workspace untouched.

## Things you can try
- Check file permissions in the workspace
- Check free disk space`,
	}

	configLoadFailedIssue = &Issue{
		id: ConfigLoadFailedId,
		mdMsg: `
# Configuration could not be loaded

## Things you can try
- Validate the config file against the keys below:
~~~cue
registry: {
	url:        "https://crates.io"
	rate_limit: "1s"
}
publish: delay: "10s"
~~~
- Unset ` + "`EMANATE_*`" + ` environment variables you did not mean to set`,
	}

	toolchainFailedIssue = &Issue{
		id: ToolchainFailedId,
		mdMsg: `
# cargo failed

## Things you can try
- Make sure ` + "`cargo`" + ` is on your PATH, or set ` + "`toolchain.cargo`" + `
- Run the printed cargo command yourself to see the full output`,
		docLinks: []HttpLink{cargoOwnerDoc},
	}

	issues = map[Id]*Issue{
		manifestParseIssue.Id():          manifestParseIssue,
		manifestNotFoundIssue.Id():       manifestNotFoundIssue,
		versionOverrideIssue.Id():        versionOverrideIssue,
		missingVersionIssue.Id():         missingVersionIssue,
		dependencyCycleIssue.Id():        dependencyCycleIssue,
		registryUnavailableIssue.Id():    registryUnavailableIssue,
		inconsistentDependencyIssue.Id(): inconsistentDependencyIssue,
		publishFailedIssue.Id():          publishFailedIssue,
		rewriteFailedIssue.Id():          rewriteFailedIssue,
		configLoadFailedIssue.Id():       configLoadFailedIssue,
		toolchainFailedIssue.Id():        toolchainFailedIssue,
	}
)

// Values returns every catalog entry ordered by id.
func Values() []*Issue {
	ids := slices.Sorted(maps.Keys(issues))
	out := make([]*Issue, 0, len(ids))
	for _, id := range ids {
		out = append(out, issues[id])
	}
	return out
}

func Get(id Id) *Issue {
	return issues[id]
}
