package core

import (
	"fmt"
	"os"
	"path/filepath"

	uber_config "go.uber.org/config"
	"go.uber.org/fx"
)

const (
	_envConfigDir     = "RLSP_CONFIG_DIR"
	_defaultConfigDir = "src/rlsp/config"
	_metaFile         = "meta.yaml"

	_transportStdio = "stdio"
	_transportTCP   = "tcp"
)

// Version is the server version reported to editors, set at build time.
var Version = "dev"

var ConfigModule = fx.Options(
	fx.Provide(NewConfig),
)

// Flags are the command line options that take precedence over the YAML configuration.
type Flags struct {
	// ConfigDir overrides the configuration directory.
	ConfigDir string
	// Stdio forces the stdio transport.
	Stdio bool
	// Listen forces the tcp transport on the given address.
	Listen string
}

type Config struct {
	provider uber_config.Provider
}

func (c Config) Get(path string) uber_config.Value {
	return c.provider.Get(path)
}

func (c Config) Name() string {
	return "config"
}

// NewConfig loads the files listed in meta.yaml, then applies the command line overrides.
func NewConfig(flags Flags) (uber_config.Provider, error) {
	if flags.Stdio && flags.Listen != "" {
		return nil, fmt.Errorf("stdio and listen are mutually exclusive")
	}

	// Get the config directory path
	configDir := getConfigDir(flags)

	// First, load meta.yaml to get the list of configuration files
	metaPath := filepath.Join(configDir, _metaFile)
	metaProvider, err := uber_config.NewYAML(
		uber_config.File(metaPath),
		uber_config.Expand(os.LookupEnv),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load meta configuration: %w", err)
	}

	// Get the files list from meta.yaml
	var configFiles []string
	if err := metaProvider.Get("files").Populate(&configFiles); err != nil {
		return nil, fmt.Errorf("failed to read files list from meta.yaml: %w", err)
	}

	// Missing files are skipped, so an environment may have no dedicated file.
	var options []uber_config.YAMLOption
	for _, file := range configFiles {
		fullPath := filepath.Join(configDir, file)
		if _, err := os.Stat(fullPath); err == nil {
			options = append(options, uber_config.File(fullPath))
		}
	}

	if len(options) == 0 {
		return nil, fmt.Errorf("no configuration files found in %s", configDir)
	}

	if overrides := flagOverrides(flags); overrides != nil {
		options = append(options, uber_config.Static(overrides))
	}
	options = append(options, uber_config.Expand(os.LookupEnv))

	// Create the provider with all files and environment variable substitution
	provider, err := uber_config.NewYAML(options...)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	return Config{provider: provider}, nil
}

func flagOverrides(flags Flags) map[string]interface{} {
	switch {
	case flags.Stdio:
		return map[string]interface{}{
			"jsonrpc": map[string]interface{}{"transport": _transportStdio},
		}
	case flags.Listen != "":
		return map[string]interface{}{
			"jsonrpc": map[string]interface{}{"transport": _transportTCP, "address": flags.Listen},
		}
	default:
		return nil
	}
}

// getConfigDir returns the path to the configuration directory
func getConfigDir(flags Flags) string {
	if flags.ConfigDir != "" {
		return flags.ConfigDir
	}

	if configDir := os.Getenv(_envConfigDir); configDir != "" {
		return configDir
	}

	// Default to the config directory relative to the current working directory
	// This assumes the binary is run from the repository root
	return _defaultConfigDir
}
