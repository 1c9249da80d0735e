// Package hcl is the HCL implementation of the config.Loader interface.
// A sweep definition is one or more .hcl files holding an optional
// `defaults` block and ordered `experiment "name"` blocks; defaults supply
// attribute values that individual experiments may override.
package hcl

import (
	"context"
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/juelinl/pebble/internal/ctxlog"
	"github.com/juelinl/pebble/internal/fsutil"
	"github.com/juelinl/pebble/internal/model"
)

// Loader is the HCL-specific implementation of the config.Loader interface.
type Loader struct{}

// NewLoader creates a new HCL sweep loader.
func NewLoader() *Loader {
	return &Loader{}
}

// fileRoot is the top-level structure of a sweep file for decoding.
type fileRoot struct {
	Defaults    []*defaultsBlock   `hcl:"defaults,block"`
	Experiments []*experimentBlock `hcl:"experiment,block"`
}

// defaultsBlock carries sweep-wide attribute defaults plus the per-run
// launch environment settings.
type defaultsBlock struct {
	Env  *envBlock `hcl:"env,block"`
	Body hcl.Body  `hcl:",remain"`
}

type envBlock struct {
	CudaAllocConf string `hcl:"cuda_alloc_conf,optional"`
	DistDebug     string `hcl:"dist_debug,optional"`
}

type experimentBlock struct {
	Name string   `hcl:"name,label"`
	Body hcl.Body `hcl:",remain"`
}

// Load parses every sweep file under path and returns the ordered sweep
// model. Entry order follows file order (lexical) and block order within
// each file.
func (l *Loader) Load(ctx context.Context, path string) (*model.Sweep, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("HCL loader started.", "path", path)

	files, err := fsutil.FindFilesByExtension(path, ".hcl")
	if err != nil {
		return nil, fmt.Errorf("failed to find sweep files in %s: %w", path, err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no .hcl sweep files found in %s", path)
	}
	logger.Debug("Discovered sweep files.", "count", len(files))

	sweep := model.NewSweep()
	parser := hclparse.NewParser()

	var defaults *defaultsBlock
	type pendingEntry struct {
		block *experimentBlock
		file  string
	}
	var pending []pendingEntry

	for _, file := range files {
		hclFile, diags := parser.ParseHCLFile(file)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to parse HCL file %s: %w", file, diags)
		}

		var root fileRoot
		diags = gohcl.DecodeBody(hclFile.Body, nil, &root)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to decode HCL file %s: %w", file, diags)
		}

		for _, d := range root.Defaults {
			if defaults != nil {
				return nil, fmt.Errorf("duplicate defaults block in %s: a sweep may declare at most one", file)
			}
			defaults = d
		}
		for _, e := range root.Experiments {
			pending = append(pending, pendingEntry{block: e, file: file})
		}
	}

	defaultAttrs, err := bodyAttributes(defaults)
	if err != nil {
		return nil, err
	}
	if defaults != nil && defaults.Env != nil {
		sweep.Env = model.LaunchEnv{
			CudaAllocConf: defaults.Env.CudaAllocConf,
			DistDebug:     defaults.Env.DistDebug,
		}
	}

	for _, p := range pending {
		cfg, err := decodeExperiment(p.block, defaultAttrs)
		if err != nil {
			return nil, fmt.Errorf("error in experiment %q (%s): %w", p.block.Name, p.file, err)
		}
		sweep.Entries = append(sweep.Entries, cfg)
	}

	logger.Info("Sweep loaded.", "entries", sweep.Len(), "files", len(files))
	return sweep, nil
}

// bodyAttributes extracts the attribute expressions of the defaults block,
// if any.
func bodyAttributes(defaults *defaultsBlock) (map[string]hcl.Expression, error) {
	if defaults == nil {
		return nil, nil
	}
	attrs, diags := defaults.Body.JustAttributes()
	if diags.HasErrors() {
		return nil, fmt.Errorf("invalid defaults block: %w", diags)
	}
	exprs := make(map[string]hcl.Expression, len(attrs))
	for name, attr := range attrs {
		exprs[name] = attr.Expr
	}
	return exprs, nil
}
