package program

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/vk/tyckorder/internal/config"
	"github.com/vk/tyckorder/internal/ctxlog"
	"github.com/vk/tyckorder/internal/termination"
	"github.com/vk/tyckorder/internal/topologystore"
	"github.com/vk/tyckorder/internal/unit"
	"github.com/vk/tyckorder/internal/unitid"
)

var (
	// ErrDuplicateModule is returned when two files have the same stem.
	ErrDuplicateModule = errors.New("duplicate module")
	// ErrInvalidModule is returned for a file stem that is not a valid name segment.
	ErrInvalidModule = errors.New("invalid module name")
)

// Program is a loaded program resolved into units.
type Program struct {
	model  *config.Model
	units  []*unit.Unit
	byFile map[string][]*unit.Unit
	decls  map[*unit.Unit]*config.Decl
	blame  map[*unit.Unit][]*unit.Unit
	calls  map[*unit.Unit][]termination.CallSite
}

// Option configures Build.
type Option func(*builder)

// ReuseUnits keeps the unit values of prev for every file not listed in
// reload, so state recorded against them survives into the new program.
func ReuseUnits(prev *Program, reload ...string) Option {
	return func(b *builder) {
		b.prev = prev
		b.reload = make(map[string]struct{}, len(reload))
		for _, p := range reload {
			b.reload[p] = struct{}{}
		}
	}
}

type builder struct {
	topo    topologystore.Store
	prev    *Program
	reload  map[string]struct{}
	p       *Program
	modules map[string]*config.File
}

// Build registers every declaration of model as a unit in topo and records
// the references between them. Names are resolved in the declaring module
// first, then in its imports in order. A qualified name `mod.x` must name
// the declaring module or one of its imports.
func Build(ctx context.Context, model *config.Model, topo topologystore.Store, opts ...Option) (*Program, error) {
	b := &builder{
		topo: topo,
		p: &Program{
			model:  model,
			byFile: make(map[string][]*unit.Unit),
			decls:  make(map[*unit.Unit]*config.Decl),
			blame:  make(map[*unit.Unit][]*unit.Unit),
			calls:  make(map[*unit.Unit][]termination.CallSite),
		},
		modules: make(map[string]*config.File),
	}
	for _, opt := range opts {
		opt(b)
	}

	if err := b.registerModules(); err != nil {
		return nil, err
	}
	for _, f := range model.Files {
		if err := b.addUnits(ctx, f); err != nil {
			return nil, err
		}
	}
	for _, f := range model.Files {
		if err := b.link(ctx, f); err != nil {
			return nil, err
		}
	}

	ctxlog.FromContext(ctx).Debug("Program built.", "files", len(model.Files), "units", len(b.p.units))
	return b.p, nil
}

func (b *builder) registerModules() error {
	for _, f := range b.p.model.Files {
		name, err := unitid.Parse(f.Module)
		if err != nil || len(name.Path) != 1 || name.Path[0].HasIndex() {
			return fmt.Errorf("file %s: %w: %q", f.Path, ErrInvalidModule, f.Module)
		}
		if other, ok := b.modules[f.Module]; ok {
			return fmt.Errorf("module '%s' in %s and %s: %w", f.Module, other.Path, f.Path, ErrDuplicateModule)
		}
		b.modules[f.Module] = f
	}
	for _, f := range b.p.model.Files {
		for _, imp := range f.Imports {
			if _, ok := b.modules[imp]; !ok {
				return fmt.Errorf("file %s imports '%s': %w", f.Path, imp, config.ErrUnknownReference)
			}
		}
	}
	return nil
}

func (b *builder) addUnits(ctx context.Context, f *config.File) error {
	for _, d := range f.Decls {
		kind, ok := unit.ParseKind(d.Kind)
		if !ok {
			return fmt.Errorf("%s: %w: unknown kind %q", f.Path, config.ErrInvalidDecl, d.Kind)
		}
		name := unitid.New([]string{f.Module}, d.Name)

		u := b.reuse(f.Path, name)
		if u == nil {
			u = unit.New(name, kind, f.Module)
			u.Arity = len(d.Params)
			u.Partial = d.Partial
			u.Source = d
		}
		if err := b.topo.AddUnit(ctx, u); err != nil {
			if errors.Is(err, topologystore.ErrDuplicateUnit) {
				return fmt.Errorf("%s: %w: %v", f.Path, config.ErrDuplicateDecl, err)
			}
			return err
		}
		b.p.units = append(b.p.units, u)
		b.p.byFile[f.Path] = append(b.p.byFile[f.Path], u)
		b.p.decls[u] = d
	}
	return nil
}

func (b *builder) reuse(path string, name *unitid.Name) *unit.Unit {
	if b.prev == nil {
		return nil
	}
	if _, ok := b.reload[path]; ok {
		return nil
	}
	for _, u := range b.prev.byFile[path] {
		if u.Name().Equal(name) {
			return u
		}
	}
	return nil
}

func (b *builder) link(ctx context.Context, f *config.File) error {
	for _, u := range b.p.byFile[f.Path] {
		d := b.p.decls[u]
		if err := b.linkDecl(ctx, f, u, d); err != nil {
			return fmt.Errorf("%s: %s '%s': %w", f.Path, d.Kind, d.Name, err)
		}
	}
	return nil
}

func (b *builder) linkDecl(ctx context.Context, f *config.File, u *unit.Unit, d *config.Decl) error {
	if d.Of != "" {
		of, err := b.resolve(ctx, f, d.Of)
		if err != nil {
			return err
		}
		if of.Kind.IsSample() {
			return fmt.Errorf("%w: 'of' names the sample '%s'", config.ErrInvalidDecl, of)
		}
		u.Of = of
		if err := b.topo.AddReference(ctx, u.Name(), of.Name(), unit.Body); err != nil {
			return err
		}
	}

	refs := []struct {
		names []string
		phase unit.Phase
	}{{d.Head, unit.Head}, {d.Body, unit.Body}}
	for _, r := range refs {
		for _, ref := range r.names {
			to, err := b.resolve(ctx, f, ref)
			if err != nil {
				return err
			}
			if err := b.topo.AddReference(ctx, u.Name(), to.Name(), r.phase); err != nil {
				return err
			}
		}
	}

	for _, ref := range d.Blame {
		to, err := b.resolve(ctx, f, ref)
		if err != nil {
			return err
		}
		b.p.blame[u] = append(b.p.blame[u], to)
	}

	for i, c := range d.Calls {
		callee, err := b.resolve(ctx, f, c.Callee)
		if err != nil {
			return err
		}
		site := termination.CallSite{
			Callee: callee,
			Label:  fmt.Sprintf("%s -> %s #%d", u, callee, i+1),
		}
		for _, a := range c.Args {
			arg := termination.UnknownArg
			if a.Param != "" {
				arg = termination.Arg{Param: slices.Index(d.Params, a.Param), Peel: a.Peel}
			}
			site.Args = append(site.Args, arg)
		}
		b.p.calls[u] = append(b.p.calls[u], site)
	}
	return nil
}

func (b *builder) resolve(ctx context.Context, f *config.File, ref string) (*unit.Unit, error) {
	name, err := unitid.Parse(ref)
	if err != nil {
		return nil, fmt.Errorf("%w: '%s': %v", config.ErrUnknownReference, ref, err)
	}

	if mod := name.Module(); mod != "" {
		if mod != f.Module && !slices.Contains(f.Imports, mod) {
			return nil, fmt.Errorf("%w: '%s': module '%s' is not imported", config.ErrUnknownReference, ref, mod)
		}
		if u, ok := b.topo.Unit(ctx, name); ok {
			return u, nil
		}
		return nil, fmt.Errorf("%w: '%s'", config.ErrUnknownReference, ref)
	}

	for _, mod := range append([]string{f.Module}, f.Imports...) {
		if u, ok := b.topo.Unit(ctx, unitid.New([]string{mod}, ref)); ok {
			return u, nil
		}
	}
	return nil, fmt.Errorf("%w: '%s' in module '%s'", config.ErrUnknownReference, ref, f.Module)
}

// Model returns the model the program was built from.
func (p *Program) Model() *config.Model {
	return p.model
}

// Units returns every unit in file and declaration order.
func (p *Program) Units() []*unit.Unit {
	return slices.Clone(p.units)
}

// UnitsOf returns the units declared in the file at path.
func (p *Program) UnitsOf(path string) []*unit.Unit {
	return slices.Clone(p.byFile[path])
}

// Decl returns the declaration u was built from.
func (p *Program) Decl(u *unit.Unit) (*config.Decl, bool) {
	d, ok := p.decls[u]
	return d, ok
}
