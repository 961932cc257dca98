// SPDX-License-Identifier: MPL-2.0

package depgraph

import (
	"slices"
	"testing"

	"github.com/emanate/emanate/pkg/manifest"
	"github.com/emanate/emanate/pkg/version"
)

func dep(name string, kind manifest.DependencyKind, req string) manifest.Dependency {
	return manifest.Dependency{Name: name, Kind: kind, Version: req, Section: manifest.SectionNormal}
}

func testWorkspace() *manifest.Workspace {
	return &manifest.Workspace{
		ManifestPath: "/repo/Cargo.toml",
		Dir:          "/repo",
		Version:      version.MustParse("0.9.0"),
		Dependencies: []manifest.Dependency{
			dep("core", manifest.KindPinned, "0.9.0"),
			dep("serde", manifest.KindPinned, "1.0.200"),
			dep("unused", manifest.KindPinned, "2"),
		},
		Packages: []*manifest.Package{
			{
				Name:    "app",
				Publish: true,
				Dependencies: []manifest.Dependency{
					dep("core", manifest.KindWorkspace, ""),
					{Name: "utils", Package: "util", Kind: manifest.KindPinned, Version: "=0.9.0"},
					dep("xtask", manifest.KindPath, ""),
					dep("serde", manifest.KindPinned, "1.0.1"),
					dep("anyhow", manifest.KindPinned, "1"),
				},
				DevDependencies: []manifest.Dependency{
					dep("testkit", manifest.KindPath, ""),
					dep("criterion", manifest.KindPinned, "0.5"),
				},
			},
			{
				Name:    "util",
				Publish: true,
				Dependencies: []manifest.Dependency{
					dep("core", manifest.KindWorkspace, ""),
					dep("anyhow", manifest.KindPinned, "1.0.80"),
					dep("serde", manifest.KindWorkspace, ""),
				},
			},
			{Name: "core", Publish: true},
			{Name: "xtask", Publish: false},
			{Name: "testkit", Publish: true},
		},
	}
}

func TestBuild_Edges(t *testing.T) {
	t.Parallel()
	res := Build(testWorkspace())

	if !slices.Equal(res.Graph.Nodes(), []string{"app", "util", "core", "testkit"}) {
		t.Errorf("nodes = %v", res.Graph.Nodes())
	}
	if got := res.Graph.Dependencies("app"); !slices.Equal(got, []string{"core", "util"}) {
		t.Errorf("app deps = %v, want [core util]", got)
	}
	if got := res.Graph.Dependencies("util"); !slices.Equal(got, []string{"core"}) {
		t.Errorf("util deps = %v, want [core]", got)
	}
	if got := res.Graph.Dependencies("testkit"); len(got) != 0 {
		t.Errorf("dev-dependency created an edge: %v", got)
	}

	order, err := res.Graph.Order()
	if err != nil {
		t.Fatalf("Order() error: %v", err)
	}
	if !slices.Equal(order, []string{"core", "testkit", "util", "app"}) {
		t.Errorf("order = %v", order)
	}

	if len(res.Internal["app"]) != 2 {
		t.Errorf("internal deps of app = %+v", res.Internal["app"])
	}
}

func TestBuild_External(t *testing.T) {
	t.Parallel()
	res := Build(testWorkspace())

	var names []string
	for _, d := range res.External {
		names = append(names, d.EffectiveName())
	}
	// xtask is a member that is not eligible, so it is neither an edge nor
	// external; dev-only criterion is not external either.
	want := []string{"anyhow", "serde", "unused"}
	if !slices.Equal(names, want) {
		t.Fatalf("external = %v, want %v", names, want)
	}

	byName := make(map[string]manifest.Dependency)
	for _, d := range res.External {
		byName[d.Name] = d
	}
	if got := byName["serde"].Version; got != "1.0.200" {
		t.Errorf("serde = %q, want workspace entry 1.0.200", got)
	}
	if got := byName["anyhow"].Version; got != "1" {
		t.Errorf("anyhow = %q, want first declaration in member order", got)
	}
}

func TestBuild_Empty(t *testing.T) {
	t.Parallel()
	res := Build(&manifest.Workspace{})
	if res.Graph.Len() != 0 || len(res.External) != 0 {
		t.Errorf("unexpected result for empty workspace: %+v", res)
	}
	order, err := res.Graph.Order()
	if err != nil || len(order) != 0 {
		t.Errorf("Order() = %v, %v", order, err)
	}
}

func TestBuild_InheritedRenameUsesWorkspaceEntry(t *testing.T) {
	t.Parallel()
	ws := &manifest.Workspace{
		Dependencies: []manifest.Dependency{
			{Name: "base", Package: "core", Kind: manifest.KindPath, Path: "crates/core"},
		},
		Packages: []*manifest.Package{
			{Name: "app", Publish: true, Dependencies: []manifest.Dependency{dep("base", manifest.KindWorkspace, "")}},
			{Name: "core", Publish: true},
		},
	}

	res := Build(ws)
	if got := res.Graph.Dependencies("app"); !slices.Equal(got, []string{"core"}) {
		t.Errorf("app deps = %v, want [core]", got)
	}
	if len(res.External) != 0 {
		t.Errorf("external = %+v, want none", res.External)
	}
}
