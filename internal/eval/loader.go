package eval

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// requiredKeys must all be present at the top level of a config document,
// checked in this order before the document is decoded.
var requiredKeys = []string{"eval_name", "test_cases", "model_configs", "scoring"}

// ParseJSON decodes and validates a JSON evaluation config.
func ParseJSON(data []byte) (*Config, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("eval: parse json: %w", err)
	}
	for _, key := range requiredKeys {
		if _, ok := raw[key]; !ok {
			return nil, &ConfigError{Key: key}
		}
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("eval: parse json: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ParseYAML decodes and validates a YAML evaluation config.
func ParseYAML(data []byte) (*Config, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("eval: parse yaml: %w", err)
	}
	for _, key := range requiredKeys {
		if _, ok := raw[key]; !ok {
			return nil, &ConfigError{Key: key}
		}
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("eval: parse yaml: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Load reads an evaluation config from a JSON or YAML file, picking the
// decoder by file extension.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("eval: read %q: %w", path, err)
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		return ParseJSON(b)
	case ".yaml", ".yml":
		return ParseYAML(b)
	default:
		return nil, fmt.Errorf("eval: unsupported config format %q", ext)
	}
}

// ListFiles returns the eval definition files directly under dir, sorted by
// name.
func ListFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("eval: read dir %q: %w", dir, err)
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(entry.Name())) {
		case ".json", ".yaml", ".yml":
			paths = append(paths, filepath.Join(dir, entry.Name()))
		}
	}
	sort.Strings(paths)
	return paths, nil
}

// LoadDir loads and validates every eval definition under dir.
func LoadDir(dir string) ([]*Config, error) {
	paths, err := ListFiles(dir)
	if err != nil {
		return nil, err
	}

	out := make([]*Config, 0, len(paths))
	for _, path := range paths {
		cfg, err := Load(path)
		if err != nil {
			return nil, err
		}
		out = append(out, cfg)
	}
	return out, nil
}
