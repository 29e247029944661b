package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

const DefaultPath = "configs/config.yaml"

type Config struct {
	EvalsDir   string                    `yaml:"evals_dir,omitempty"`
	ResultsDir string                    `yaml:"results_dir,omitempty"`
	Providers  map[string]ProviderConfig `yaml:"providers,omitempty"`
	Storage    StorageConfig             `yaml:"storage"`
	Server     ServerConfig              `yaml:"server"`
}

type ProviderConfig struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url,omitempty"`
	Model   string `yaml:"model,omitempty"`
}

type StorageConfig struct {
	Path string `yaml:"path,omitempty"` // SQLite file path
}

type ServerConfig struct {
	Addr string `yaml:"addr,omitempty"`
}

// Default returns the harness config used when no config file exists.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// Load reads the harness config. An empty path means DefaultPath, and a
// missing file at the default path falls back to Default() so mock-only
// runs need no config at all. Env vars override credentials after decode.
func Load(path string) (*Config, error) {
	path = strings.TrimSpace(path)
	explicit := path != ""
	if !explicit {
		path = DefaultPath
	}

	b, err := os.ReadFile(path)
	if err != nil {
		if !explicit && os.IsNotExist(err) {
			cfg := Default()
			applyEnv(cfg)
			return cfg, nil
		}
		return nil, fmt.Errorf("config: read %q: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}

	applyDefaults(&cfg)
	applyEnv(&cfg)
	return &cfg, nil
}

// Provider returns the config block for a provider name, lowercased.
func (c *Config) Provider(name string) ProviderConfig {
	if c == nil || c.Providers == nil {
		return ProviderConfig{}
	}
	return c.Providers[strings.ToLower(strings.TrimSpace(name))]
}

func applyDefaults(cfg *Config) {
	if cfg.Providers == nil {
		cfg.Providers = make(map[string]ProviderConfig)
	}
	if strings.TrimSpace(cfg.EvalsDir) == "" {
		cfg.EvalsDir = "evals"
	}
	if strings.TrimSpace(cfg.ResultsDir) == "" {
		cfg.ResultsDir = "data/results"
	}
	if strings.TrimSpace(cfg.Storage.Path) == "" {
		cfg.Storage.Path = "data/identity-eval.db"
	}
	if strings.TrimSpace(cfg.Server.Addr) == "" {
		cfg.Server.Addr = ":8080"
	}
}

func applyEnv(cfg *Config) {
	if v := strings.TrimSpace(os.Getenv("ANTHROPIC_API_KEY")); v != "" {
		p := cfg.Providers["anthropic"]
		p.APIKey = v
		cfg.Providers["anthropic"] = p
	} else if v := strings.TrimSpace(os.Getenv("ANTHROPIC_AUTH_TOKEN")); v != "" {
		p := cfg.Providers["anthropic"]
		p.APIKey = v
		cfg.Providers["anthropic"] = p
	}

	if v := strings.TrimSpace(os.Getenv("OPENAI_API_KEY")); v != "" {
		p := cfg.Providers["openai"]
		p.APIKey = v
		cfg.Providers["openai"] = p
	}

	if v := strings.TrimSpace(os.Getenv("IDENTITY_EVAL_DB")); v != "" {
		cfg.Storage.Path = v
	}
}
