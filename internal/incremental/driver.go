package incremental

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"

	"github.com/vk/tyckorder/internal/config"
	"github.com/vk/tyckorder/internal/ctxlog"
	"github.com/vk/tyckorder/internal/depgraph"
	"github.com/vk/tyckorder/internal/diag"
	"github.com/vk/tyckorder/internal/graph"
	"github.com/vk/tyckorder/internal/inmemorytopology"
	"github.com/vk/tyckorder/internal/program"
	"github.com/vk/tyckorder/internal/scheduler"
	"github.com/vk/tyckorder/internal/session"
	"github.com/vk/tyckorder/internal/topologystore"
	"github.com/vk/tyckorder/internal/unit"
)

// Driver runs checking passes inside one session.
type Driver struct {
	sess   *session.Session
	loader config.Loader
	// NewTopology creates the topology store of a pass. Every pass gets a
	// fresh one because reloaded files replace their units.
	NewTopology func() topologystore.Store

	prog    *program.Program
	imports *graph.Graph[string]
}

// New creates a driver that loads program files with loader.
func New(sess *session.Session, loader config.Loader) *Driver {
	return &Driver{
		sess:        sess,
		loader:      loader,
		NewTopology: func() topologystore.Store { return inmemorytopology.New() },
	}
}

// Program returns the program checked by the latest pass.
func (d *Driver) Program() *program.Program {
	return d.prog
}

// Run loads every program file under paths and checks all of it.
func (d *Driver) Run(ctx context.Context, paths ...string) (*scheduler.Result, error) {
	model, err := d.loader.Load(ctx, paths...)
	if err != nil {
		return nil, err
	}
	if len(model.Files) == 0 {
		return nil, fmt.Errorf("no program files found in %v", paths)
	}

	topo := d.sess.Topology
	if topo == nil {
		topo = d.NewTopology()
	}
	prog, err := program.Build(ctx, model, topo)
	if err != nil {
		return nil, err
	}
	d.sess.BeginPass()
	return d.pass(ctx, prog, topo, nil)
}

// Rerun re-checks the files in changed together with every file that
// transitively imports one of them.
func (d *Driver) Rerun(ctx context.Context, changed ...string) (*scheduler.Result, error) {
	if d.prog == nil {
		return nil, fmt.Errorf("rerun before the first run")
	}
	affected, err := d.Affected(changed...)
	if err != nil {
		return nil, err
	}
	logger := ctxlog.FromContext(ctx)
	logger.Info("Re-checking affected files.", "changed", len(changed), "affected", len(affected))

	reloaded, err := d.loader.Load(ctx, affected...)
	if err != nil {
		return nil, err
	}
	model := &config.Model{}
	for _, f := range d.prog.Model().Files {
		if slices.Contains(affected, f.Path) {
			f = replacement(reloaded, f)
			if f == nil {
				continue
			}
		}
		model.Files = append(model.Files, f)
	}

	topo := d.NewTopology()
	prog, err := program.Build(ctx, model, topo, program.ReuseUnits(d.prog, affected...))
	if err != nil {
		return nil, err
	}

	var modules []string
	for _, f := range model.Files {
		if slices.Contains(affected, f.Path) {
			modules = append(modules, f.Module)
		}
	}
	d.sess.BeginPass(modules...)
	return d.pass(ctx, prog, topo, modules)
}

// replacement finds the reloaded version of f, or nil when reloading did
// not produce it.
func replacement(reloaded *config.Model, f *config.File) *config.File {
	if nf, ok := reloaded.File(f.Path); ok {
		return nf
	}
	return nil
}

// Affected returns changed plus every file that transitively imports one of
// them, in program order.
func (d *Driver) Affected(changed ...string) ([]string, error) {
	if d.imports == nil {
		return nil, fmt.Errorf("no program loaded")
	}
	roots := make([]string, 0, len(changed))
	for _, c := range changed {
		c = filepath.Clean(c)
		if _, err := d.imports.Index(c); err != nil {
			return nil, fmt.Errorf("changed file %s: %w", c, err)
		}
		roots = append(roots, c)
	}

	importers := d.imports.Transpose().Reachable(roots...)
	var out []string
	for _, f := range d.imports.Nodes() {
		if slices.Contains(roots, f) || slices.Contains(importers, f) {
			out = append(out, f)
		}
	}
	return out, nil
}

func (d *Driver) pass(ctx context.Context, prog *program.Program, topo topologystore.Store, modules []string) (*scheduler.Result, error) {
	d.sess.Topology = topo
	d.prog = prog
	d.imports = importGraph(prog.Model())

	collector := depgraph.CollectorFunc(func(u *unit.Unit) (head, body []*unit.Unit) {
		head, body, err := topo.References(ctx, u)
		if err != nil {
			panic(fmt.Sprintf("incremental: %v", err))
		}
		return head, body
	})
	graphs := depgraph.Build(ctx, prog.Units(), collector)
	res, err := scheduler.New(d.sess, graphs, prog, prog).RunAll(ctx, prog.Units())
	// A cancelled pass still reports what it skipped.
	d.reportDisliked(ctx, prog, modules)
	return res, err
}

// reportDisliked emits one diagnostic per checked module that has skipped
// units, naming those units.
func (d *Driver) reportDisliked(ctx context.Context, prog *program.Program, modules []string) {
	var order []string
	skipped := map[string][]string{}
	for _, u := range prog.Units() {
		if modules != nil && !slices.Contains(modules, u.Module) {
			continue
		}
		if d.sess.State.Status(ctx, u) != unit.StatusSkipped {
			continue
		}
		if _, seen := skipped[u.Module]; !seen {
			order = append(order, u.Module)
		}
		skipped[u.Module] = append(skipped[u.Module], u.ID())
	}
	for _, m := range order {
		d.sess.Report(ctx, diag.ModuleDisliked(m, skipped[m]...))
	}
}

// importGraph links each file to the files of the modules it imports.
func importGraph(model *config.Model) *graph.Graph[string] {
	g := graph.New[string]()
	byModule := make(map[string]string, len(model.Files))
	for _, f := range model.Files {
		g.AddNode(f.Path)
		byModule[f.Module] = f.Path
	}
	for _, f := range model.Files {
		for _, imp := range f.Imports {
			if p, ok := byModule[imp]; ok {
				g.AddEdge(f.Path, p)
			}
		}
	}
	return g
}
