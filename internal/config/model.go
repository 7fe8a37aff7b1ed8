package config

import (
	"fmt"
	"slices"
)

// Fail modes a declaration can script for its checker.
const (
	FailNone      = ""
	FailHead      = "head"
	FailBody      = "body"
	FailInterrupt = "interrupt"
)

// Kinds lists the declaration keywords a program file may use.
var Kinds = []string{"fn", "data", "struct", "class", "prim", "example", "counterexample"}

// Model is the unified, format-agnostic representation of a whole program.
type Model struct {
	Files []*File
}

// File is one program file. Its module name is the file stem.
type File struct {
	Path    string
	Module  string
	Imports []string
	Decls   []*Decl
}

// Decl is the format-agnostic representation of one declaration block.
type Decl struct {
	// Kind is the declaration keyword: fn, data, struct, class, prim,
	// example or counterexample.
	Kind   string
	Name   string
	Params []string
	// Head lists the names mentioned by the signature.
	Head []string
	// Body lists the names mentioned only by the definition.
	Body []string
	// Partial marks a function its author declared non-terminating.
	Partial bool
	// Fail scripts the checker outcome for this declaration.
	Fail string
	// Blame lists units failed in place of this one when Fail is set.
	Blame []string
	// Of names the declaration a sample belongs to.
	Of    string
	Calls []*Call
}

// Call is one call site inside a function body.
type Call struct {
	Callee string
	Args   []Arg
}

// Arg describes a call argument. Param is the caller parameter it is built
// from ("" when it is unrelated to any parameter) and Peel the number of
// constructors stripped from it.
type Arg struct {
	Param string
	Peel  int
}

// Merge appends the files of other to m.
func (m *Model) Merge(other *Model) {
	if other == nil {
		return
	}
	m.Files = append(m.Files, other.Files...)
}

// File returns the file loaded from path.
func (m *Model) File(path string) (*File, bool) {
	for _, f := range m.Files {
		if f.Path == path {
			return f, true
		}
	}
	return nil, false
}

// Validate checks the fields of a single declaration. Cross-file name
// resolution happens when the program is built.
func (d *Decl) Validate() error {
	if !slices.Contains(Kinds, d.Kind) {
		return fmt.Errorf("%w: unknown declaration kind %q", ErrInvalidDecl, d.Kind)
	}
	switch d.Fail {
	case FailNone, FailHead, FailBody, FailInterrupt:
	default:
		return fmt.Errorf("%w: %s '%s': unknown fail mode %q", ErrInvalidDecl, d.Kind, d.Name, d.Fail)
	}
	if len(d.Blame) > 0 && d.Fail == FailNone {
		return fmt.Errorf("%w: %s '%s': blame without a fail mode", ErrInvalidDecl, d.Kind, d.Name)
	}
	if d.Of != "" && d.Kind != "example" && d.Kind != "counterexample" {
		return fmt.Errorf("%w: %s '%s': only samples can name a declaration with 'of'", ErrInvalidDecl, d.Kind, d.Name)
	}
	if d.Kind != "fn" && len(d.Calls) > 0 {
		return fmt.Errorf("%w: %s '%s': only functions have call sites", ErrInvalidDecl, d.Kind, d.Name)
	}
	for _, c := range d.Calls {
		for i, a := range c.Args {
			if a.Param == "" {
				continue
			}
			if !slices.Contains(d.Params, a.Param) {
				return fmt.Errorf("%w: fn '%s': call to '%s' argument %d uses unknown parameter '%s'", ErrInvalidDecl, d.Name, c.Callee, i, a.Param)
			}
			if a.Peel < 0 {
				return fmt.Errorf("%w: fn '%s': negative peel", ErrInvalidDecl, d.Name)
			}
		}
	}
	return nil
}
