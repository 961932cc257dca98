// SPDX-License-Identifier: MPL-2.0

// Package publish drives the publication of workspace packages in
// dependency order. A run is split in three steps: Plan queries the registry
// and decides an action per package, Validate checks (for dry runs) that
// every internal requirement will be satisfiable, and Execute performs the
// actions strictly sequentially.
package publish

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"time"

	"github.com/charmbracelet/log"

	"github.com/emanate/emanate/internal/depgraph"
	"github.com/emanate/emanate/internal/registry"
	"github.com/emanate/emanate/pkg/manifest"
	"github.com/emanate/emanate/pkg/version"
)

// Action is the decision taken for one package.
type Action string

const (
	// ActionSkip means the target version is already the registry version.
	ActionSkip Action = "skip"
	// ActionPublish publishes the package.
	ActionPublish Action = "publish"
	// ActionSimulate is the dry-run counterpart of ActionPublish.
	ActionSimulate Action = "simulate"
)

type (
	// VersionSource returns the versions of a package known to the registry.
	VersionSource interface {
		Versions(ctx context.Context, name string) ([]version.Version, error)
	}

	// Publisher publishes a single package.
	Publisher interface {
		Publish(ctx context.Context, pkg *manifest.Package) error
	}

	// Step is one entry of a Plan.
	Step struct {
		Package string
		// Current is the latest registry version; meaningful only when
		// Published is true.
		Current   version.Version
		Published bool
		Target    version.Version
		Action    Action
	}

	// Plan is the ordered, immutable result of planning a run.
	Plan struct {
		steps     []Step
		dryRun    bool
		available map[string][]version.Version
	}

	// Report summarizes an executed plan.
	Report struct {
		Published []string
		Simulated []string
		Skipped   []string
	}

	// Options tune an Orchestrator.
	Options struct {
		// AllowNew treats packages unknown to the registry as never published
		// instead of failing the run.
		AllowNew bool
		// Delay is waited between two successive publications.
		Delay  time.Duration
		Logger *log.Logger
	}

	// Orchestrator plans and executes publish runs for one workspace.
	Orchestrator struct {
		ws        *manifest.Workspace
		internal  map[string][]manifest.Dependency
		source    VersionSource
		publisher Publisher
		opts      Options
		sleep     func(ctx context.Context, d time.Duration) error
	}
)

// New creates an Orchestrator. graph supplies the internal dependencies of
// each eligible package.
func New(ws *manifest.Workspace, graph *depgraph.Result, source VersionSource, publisher Publisher, opts Options) *Orchestrator {
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}
	return &Orchestrator{
		ws:        ws,
		internal:  graph.Internal,
		source:    source,
		publisher: publisher,
		opts:      opts,
		sleep:     sleepContext,
	}
}

// Steps returns a copy of the planned steps in publish order.
func (p *Plan) Steps() []Step {
	return slices.Clone(p.steps)
}

// DryRun reports whether the plan simulates instead of publishing.
func (p *Plan) DryRun() bool {
	return p.dryRun
}

// Plan queries the registry for each package of order, sequentially, and
// decides its action. The target of every package is the canonical
// workspace version. The decisions are identical for live and dry runs
// except that publish becomes simulate.
func (o *Orchestrator) Plan(ctx context.Context, order []string, dryRun bool) (*Plan, error) {
	plan := &Plan{dryRun: dryRun, available: make(map[string][]version.Version, len(order))}
	target := o.ws.Version

	for _, name := range order {
		if o.ws.Package(name) == nil {
			return nil, fmt.Errorf("package %q is not a workspace member", name)
		}

		versions, err := o.source.Versions(ctx, name)
		switch {
		case err == nil:
		case o.opts.AllowNew && (errors.Is(err, registry.ErrNotFound) || errors.Is(err, registry.ErrNoVersions)):
			o.opts.Logger.Info("package has no registry version yet", "package", name)
		default:
			return nil, err
		}
		plan.available[name] = versions

		step := Step{Package: name, Target: target}
		step.Current, step.Published = version.Max(versions)
		switch {
		case step.Published && step.Current.Equal(target):
			step.Action = ActionSkip
		case dryRun:
			step.Action = ActionSimulate
		default:
			step.Action = ActionPublish
		}
		plan.steps = append(plan.steps, step)
	}

	return plan, nil
}

// Validate checks that every internal dependency of every package to be
// published resolves to a requirement satisfied either by a version already
// on the registry or by a version published earlier in the plan. All
// problems are collected and returned together.
func (o *Orchestrator) Validate(plan *Plan) error {
	planned := make(map[string]version.Version)
	var errs []error

	for _, step := range plan.steps {
		if step.Action == ActionSkip {
			continue
		}
		for _, dep := range o.internal[step.Package] {
			if err := o.checkDependency(plan, planned, step.Package, dep); err != nil {
				errs = append(errs, err)
			}
		}
		planned[step.Package] = step.Target
	}

	return errors.Join(errs...)
}

func (o *Orchestrator) checkDependency(plan *Plan, planned map[string]version.Version, pkg string, dep manifest.Dependency) error {
	raw, err := o.ws.ResolveRequirement(pkg, dep)
	if err != nil {
		return err
	}
	req, err := version.ParseRequirement(raw)
	if err != nil {
		return fmt.Errorf("package %q dependency %q: %w", pkg, dep.Name, err)
	}

	name := o.ws.EffectiveName(dep)
	candidates := slices.Clone(plan.available[name])
	if v, ok := planned[name]; ok {
		candidates = append(candidates, v)
	}
	for _, v := range candidates {
		if req.Allows(v) {
			return nil
		}
	}

	available := make([]string, 0, len(candidates))
	for _, v := range candidates {
		available = append(available, v.String())
	}
	return &InconsistentDependencyError{Package: pkg, Dependency: name, Requirement: raw, Available: available}
}

// Execute performs the plan strictly in order. The first failed publication
// halts the run with a *PublishError; packages after it are not attempted.
func (o *Orchestrator) Execute(ctx context.Context, plan *Plan) (*Report, error) {
	report := &Report{}
	logger := o.opts.Logger

	for _, step := range plan.steps {
		switch step.Action {
		case ActionSkip:
			logger.Info("already published", "package", step.Package, "version", step.Target)
			report.Skipped = append(report.Skipped, step.Package)
		case ActionSimulate:
			logger.Info("would publish", "package", step.Package, "version", step.Target)
			report.Simulated = append(report.Simulated, step.Package)
		case ActionPublish:
			if len(report.Published) > 0 && o.opts.Delay > 0 {
				logger.Debug("waiting for the registry index", "delay", o.opts.Delay)
				if err := o.sleep(ctx, o.opts.Delay); err != nil {
					return report, &PublishError{Package: step.Package, Err: err}
				}
			}
			logger.Info("publishing", "package", step.Package, "version", step.Target)
			if err := o.publisher.Publish(ctx, o.ws.Package(step.Package)); err != nil {
				return report, &PublishError{Package: step.Package, Err: err}
			}
			report.Published = append(report.Published, step.Package)
		}
	}

	return report, nil
}

// Run plans, validates (dry runs only) and executes in one call.
func (o *Orchestrator) Run(ctx context.Context, order []string, dryRun bool) (*Report, error) {
	plan, err := o.Plan(ctx, order, dryRun)
	if err != nil {
		return nil, err
	}
	if dryRun {
		if err := o.Validate(plan); err != nil {
			return nil, err
		}
	}
	return o.Execute(ctx, plan)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
