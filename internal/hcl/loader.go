package hcl

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/specialistvlad/bundlesched/internal/config"
	"github.com/specialistvlad/bundlesched/internal/ctxlog"
)

// Loader is the HCL-specific implementation of the config.Loader interface.
type Loader struct{}

// NewLoader creates a new HCL bundle description loader.
func NewLoader() *Loader {
	return &Loader{}
}

var _ config.Loader = (*Loader)(nil)

// Load parses every .hcl file found under paths and translates the result
// into a single model. Bundles keep file and declaration order.
func (l *Loader) Load(ctx context.Context, vars map[string]string, paths ...string) (*config.Model, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("HCL loader started.", "path_count", len(paths))

	hclFiles, err := l.findAllHCLFiles(paths)
	if err != nil {
		return nil, err
	}
	if len(hclFiles) == 0 {
		return nil, fmt.Errorf("no .hcl files found in %v", paths)
	}
	logger.Debug("Discovered HCL files.", "count", len(hclFiles))

	parser := hclparse.NewParser()

	// First pass: variables only.
	roots := make([]fileRoot, len(hclFiles))
	var declared []*variableBlock
	for i, file := range hclFiles {
		hclFile, diags := parser.ParseHCLFile(file)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to parse HCL file %s: %w", file, diags)
		}
		if diags = gohcl.DecodeBody(hclFile.Body, nil, &roots[i]); diags.HasErrors() {
			return nil, fmt.Errorf("failed to decode HCL file %s: %w", file, diags)
		}
		declared = append(declared, roots[i].Variables...)
	}

	evalCtx, err := buildEvalContext(declared, vars)
	if err != nil {
		return nil, err
	}

	model := &config.Model{}
	for i, file := range hclFiles {
		var body fileBody
		if diags := gohcl.DecodeBody(roots[i].Remain, evalCtx, &body); diags.HasErrors() {
			return nil, fmt.Errorf("failed to decode HCL file %s: %w", file, diags)
		}

		if body.Scheduler != nil {
			if model.Scheduler != nil {
				return nil, fmt.Errorf("%s: duplicate scheduler block", file)
			}
			model.Scheduler = translateScheduler(body.Scheduler)
		}
		for _, b := range body.Bundles {
			bundle, err := translateBundle(b, len(model.Bundles)+1, evalCtx)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", file, err)
			}
			model.Bundles = append(model.Bundles, bundle)
		}
	}

	logger.Debug("HCL loading complete.", "bundles", len(model.Bundles), "variables", len(declared))
	return model, nil
}

// findAllHCLFiles walks all given paths and returns a sorted list of all .hcl
// files found.
func (l *Loader) findAllHCLFiles(paths []string) ([]string, error) {
	var allFiles []string
	seen := make(map[string]struct{})
	add := func(p string) {
		if _, wasSeen := seen[p]; !wasSeen {
			allFiles = append(allFiles, p)
			seen[p] = struct{}{}
		}
	}

	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue // It's not an error if a configured path doesn't exist.
			}
			return nil, fmt.Errorf("error accessing path %s: %w", path, err)
		}

		if info.IsDir() {
			err := filepath.Walk(path, func(p string, info os.FileInfo, err error) error {
				if err != nil {
					return err
				}
				if !info.IsDir() && filepath.Ext(p) == ".hcl" {
					add(p)
				}
				return nil
			})
			if err != nil {
				return nil, err
			}
		} else if filepath.Ext(path) == ".hcl" {
			add(path)
		}
	}
	sort.Strings(allFiles)
	return allFiles, nil
}
