package app

import (
	"fmt"
	"path/filepath"

	"github.com/madbrain/recette-lsp/src/rlsp/internal/core"
	"github.com/madbrain/recette-lsp/src/rlsp/internal/fs"
	"go.uber.org/config"
	"go.uber.org/fx"
)

// Outputs zap resolves to the process streams rather than files.
var _streamOutputs = map[string]struct{}{
	"stdout": {},
	"stderr": {},
}

// DecorateConfigParams is the set of dependencies required to decorate the config.Provider.
type DecorateConfigParams struct {
	fx.In

	Cfg config.Provider
	FS  fs.RlspFS
}

// decorateConfigProvider includes any steps that modify the config.Provider before it is used, or use its data for any startup related activities.
func decorateConfigProvider(p DecorateConfigParams) (config.Provider, error) {
	combined, err := ensureLogFolder(p.Cfg, p.FS)
	if err != nil {
		return nil, fmt.Errorf("ensuring log folder: %w", err)
	}

	return combined, nil
}

// Ensure that all configured logging output directories exist or create if necessary.
func ensureLogFolder(cfg config.Provider, fs fs.RlspFS) (config.Provider, error) {
	var c core.LoggingConfig
	if err := cfg.Get("logging").Populate(&c); err != nil {
		return nil, fmt.Errorf("loading logging config: %w", err)
	}

	for _, outputPath := range c.OutputPaths {
		if _, ok := _streamOutputs[outputPath]; ok {
			continue
		}
		dir := filepath.Dir(outputPath)
		if err := fs.MkdirAll(dir); err != nil {
			return nil, fmt.Errorf("creating logging directory: %w", err)
		}
	}

	return cfg, nil
}
