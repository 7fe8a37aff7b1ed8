package yamlconf

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/vk/tyckorder/internal/config"
	"github.com/vk/tyckorder/internal/ctxlog"
	"github.com/vk/tyckorder/internal/fsutil"
	"gopkg.in/yaml.v3"
)

// Extensions lists the file extensions read as YAML programs.
var Extensions = []string{".yaml", ".yml"}

// unknownArg marks an argument unrelated to the caller's parameters.
const unknownArg = "_"

type fileDoc struct {
	Imports []string   `yaml:"imports"`
	Decls   []*declDoc `yaml:"decls"`
}

type declDoc struct {
	Kind    string     `yaml:"kind"`
	Name    string     `yaml:"name"`
	Params  []string   `yaml:"params"`
	Head    []string   `yaml:"head"`
	Body    []string   `yaml:"body"`
	Partial bool       `yaml:"partial"`
	Fail    string     `yaml:"fail"`
	Blame   []string   `yaml:"blame"`
	Of      string     `yaml:"of"`
	Calls   []*callDoc `yaml:"calls"`
}

type callDoc struct {
	Callee string   `yaml:"callee"`
	Args   []string `yaml:"args"`
}

// Loader is the YAML-specific implementation of the config.Loader interface.
type Loader struct{}

// NewLoader creates a new YAML program loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load parses every YAML file found under paths. Each file becomes one
// module named after the file stem.
func (l *Loader) Load(ctx context.Context, paths ...string) (*config.Model, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("YAML loader started.", "path_count", len(paths))

	files, err := fsutil.CollectFiles(paths, Extensions...)
	if err != nil {
		return nil, err
	}

	model := &config.Model{}
	for _, path := range files {
		f, err := loadFile(path)
		if err != nil {
			return nil, err
		}
		model.Files = append(model.Files, f)
	}

	logger.Debug("YAML loading complete.", "files", len(model.Files))
	return model, nil
}

func loadFile(path string) (*config.File, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open YAML file %s: %w", path, err)
	}
	defer file.Close()

	decoder := yaml.NewDecoder(file)
	decoder.KnownFields(true)

	var doc fileDoc
	if err := decoder.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse YAML file %s: %w", path, err)
	}

	f := &config.File{
		Path:    path,
		Module:  strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
		Imports: doc.Imports,
	}
	for i, d := range doc.Decls {
		decl, err := translateDecl(d)
		if err != nil {
			return nil, fmt.Errorf("in YAML file %s, decl %d: %w", path, i, err)
		}
		f.Decls = append(f.Decls, decl)
	}
	return f, nil
}

func translateDecl(d *declDoc) (*config.Decl, error) {
	if d == nil || d.Kind == "" || d.Name == "" {
		return nil, fmt.Errorf("%w: 'kind' and 'name' are required", config.ErrInvalidDecl)
	}
	decl := &config.Decl{
		Kind:    d.Kind,
		Name:    d.Name,
		Params:  d.Params,
		Head:    d.Head,
		Body:    d.Body,
		Partial: d.Partial,
		Fail:    d.Fail,
		Blame:   d.Blame,
		Of:      d.Of,
	}
	for _, c := range d.Calls {
		call := &config.Call{Callee: c.Callee}
		for _, raw := range c.Args {
			arg, err := parseArg(raw)
			if err != nil {
				return nil, fmt.Errorf("%s '%s': call '%s': %w", d.Kind, d.Name, c.Callee, err)
			}
			call.Args = append(call.Args, arg)
		}
		decl.Calls = append(decl.Calls, call)
	}
	if err := decl.Validate(); err != nil {
		return nil, err
	}
	return decl, nil
}

func parseArg(raw string) (config.Arg, error) {
	if raw == unknownArg {
		return config.Arg{}, nil
	}
	trav, diags := hclsyntax.ParseTraversalAbs([]byte(raw), "arg", hcl.InitialPos)
	if diags.HasErrors() {
		return config.Arg{}, fmt.Errorf("invalid argument %q: %w", raw, diags)
	}
	return config.ArgFromTraversal(trav)
}
