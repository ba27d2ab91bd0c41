// Package config resolves run settings for the summarize CLI: mode flags, timeouts,
// retries, output token ceilings and the optional YAML config file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"
)

var (
	// ErrInvalidSetting indicates a flag or config value that cannot be parsed.
	ErrInvalidSetting = errors.New("invalid setting")

	// ErrConfigFile indicates the config file exists but cannot be used.
	ErrConfigFile = errors.New("invalid config file")
)

// FileConfig is the content of ~/.summarize/config.yaml.
//
// Example:
//
//	model: openai/gpt-4o-mini
//	length: long
//	firecrawl: auto
//	timeout: 90s
//	retries: 2
type FileConfig struct {
	Path  string
	Model string
	// Length is kept raw so that an invalid value surfaces when it is used.
	Length    string
	Overrides RunOverrides
}

// DefaultConfigPath returns ~/.summarize/config.yaml, or "" if the home
// directory cannot be determined.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".summarize", "config.yaml")
}

// LoadFileConfig reads and parses the config file at path.
//
// When required is false a missing file yields an empty FileConfig. Malformed YAML
// and non-mapping documents are always errors.
func LoadFileConfig(path string, required bool) (*FileConfig, error) {
	if path == "" {
		return &FileConfig{}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !required {
			return &FileConfig{}, nil
		}
		return nil, fmt.Errorf("%w: read %s: %v", ErrConfigFile, path, err)
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: invalid YAML in config file %s: %v", ErrConfigFile, path, err)
	}

	// An empty document decodes to a zero node.
	if doc.Kind == 0 || len(doc.Content) == 0 {
		return &FileConfig{Path: path}, nil
	}

	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("%w: config file %s: expected a mapping at the top level", ErrConfigFile, path)
	}

	raw := map[string]any{}
	if err := root.Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: invalid YAML in config file %s: %v", ErrConfigFile, path, err)
	}

	cfg := &FileConfig{
		Path:      path,
		Overrides: ResolveRunOverrides(raw),
	}
	if s, ok := raw["model"].(string); ok {
		cfg.Model = s
	}
	switch v := raw["length"].(type) {
	case string:
		cfg.Length = v
	case int:
		cfg.Length = strconv.Itoa(v)
	}
	return cfg, nil
}
