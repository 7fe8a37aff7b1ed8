package hcl

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/vk/tyckorder/internal/config"
	"github.com/vk/tyckorder/internal/ctxlog"
	"github.com/vk/tyckorder/internal/fsutil"
)

// Extension is the file extension of HCL program files.
const Extension = ".hcl"

// Loader is the HCL-specific implementation of the config.Loader interface.
type Loader struct{}

// NewLoader creates a new HCL program loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load parses every .hcl file found under paths. Each file becomes one
// module named after the file stem.
func (l *Loader) Load(ctx context.Context, paths ...string) (*config.Model, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("HCL loader started.", "path_count", len(paths))

	files, err := fsutil.CollectFiles(paths, Extension)
	if err != nil {
		return nil, err
	}
	logger.Debug("Discovered HCL files.", "count", len(files))

	parser := hclparse.NewParser()
	model := &config.Model{}
	for _, path := range files {
		f, err := l.loadFile(parser, path)
		if err != nil {
			return nil, err
		}
		model.Files = append(model.Files, f)
	}

	logger.Debug("HCL loading complete.", "files", len(model.Files))
	return model, nil
}

func (l *Loader) loadFile(parser *hclparse.Parser, path string) (*config.File, error) {
	hclFile, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file %s: %w", path, diags)
	}

	var root fileRoot
	diags = gohcl.DecodeBody(hclFile.Body, nil, &root)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL file %s: %w", path, diags)
	}
	content, diags := root.Remain.Content(declSchema())
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL file %s: %w", path, diags)
	}

	f := &config.File{
		Path:    path,
		Module:  strings.TrimSuffix(filepath.Base(path), Extension),
		Imports: root.Imports,
	}
	for _, block := range content.Blocks {
		decl, err := translateDecl(block)
		if err != nil {
			return nil, fmt.Errorf("in HCL file %s: %w", path, err)
		}
		f.Decls = append(f.Decls, decl)
	}
	return f, nil
}
