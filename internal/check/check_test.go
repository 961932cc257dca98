// SPDX-License-Identifier: MPL-2.0

package check

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/emanate/emanate/internal/registry"
	"github.com/emanate/emanate/pkg/manifest"
	"github.com/emanate/emanate/pkg/version"
)

type latestMap map[string]string

func (m latestMap) LatestStableVersion(_ context.Context, name string) (version.Version, error) {
	s, ok := m[name]
	if !ok {
		return version.Version{}, &registry.Error{Package: name, Err: registry.ErrNotFound}
	}
	return version.MustParse(s), nil
}

func TestRun(t *testing.T) {
	t.Parallel()

	ws := &manifest.Workspace{ManifestPath: "/repo/Cargo.toml", Version: version.MustParse("1.0.0")}
	external := []manifest.Dependency{
		{Name: "anyhow", Kind: manifest.KindPinned, Version: "1.0.86"},
		{Name: "clap", Kind: manifest.KindPinned, Version: "4.4"},
		{Name: "ghost", Kind: manifest.KindPinned, Version: "1"},
		{Name: "local", Kind: manifest.KindPath, Path: "../local"},
		{Name: "rand", Kind: manifest.KindPinned, Version: "0.8"},
		{Name: "yaml", Package: "serde_yaml", Kind: manifest.KindPinned, Version: "=0.9.0"},
	}
	source := latestMap{
		"anyhow":     "1.0.86",
		"clap":       "4.5.4",
		"rand":       "0.9.0",
		"serde_yaml": "0.9.34",
	}

	var logs bytes.Buffer
	results, err := Run(context.Background(), ws, external, source, log.New(&logs))
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	want := []struct {
		name   string
		status Status
	}{
		{"anyhow", StatusOK},
		{"clap", StatusCompatible},
		{"rand", StatusUpdate},
		{"serde_yaml", StatusUpdate},
	}
	if len(results) != len(want) {
		t.Fatalf("results = %+v", results)
	}
	for i, w := range want {
		if results[i].Name != w.name || results[i].Status != w.status {
			t.Errorf("results[%d] = %s %s, want %s %s", i, results[i].Name, results[i].Status, w.name, w.status)
		}
	}

	out := logs.String()
	if !strings.Contains(out, "registry lookup failed") || !strings.Contains(out, "ghost") {
		t.Errorf("expected lookup failure log for ghost, got %q", out)
	}
	if !strings.Contains(out, "without version requirement") {
		t.Errorf("expected missing version log for local, got %q", out)
	}
	if !Outdated(results) {
		t.Error("Outdated() = false, want true")
	}
}

type cancelingSource struct{ cancel context.CancelFunc }

func (c cancelingSource) LatestStableVersion(ctx context.Context, _ string) (version.Version, error) {
	c.cancel()
	return version.Version{}, ctx.Err()
}

func TestRun_Canceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ws := &manifest.Workspace{}
	external := []manifest.Dependency{{Name: "a", Kind: manifest.KindPinned, Version: "1"}}

	if _, err := Run(ctx, ws, external, cancelingSource{cancel}, nil); !errors.Is(err, context.Canceled) {
		t.Fatalf("Run() error = %v, want context.Canceled", err)
	}
}
