package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// AgentConfig holds gpg-agent settings written to gpg-agent.conf.
type AgentConfig struct {
	Pinentry    string `yaml:"pinentry"`      // Path to the pinentry program
	CacheTTL    int    `yaml:"cache_ttl"`     // default-cache-ttl, seconds
	MaxCacheTTL int    `yaml:"max_cache_ttl"` // max-cache-ttl, seconds
}

// BackupConfig holds keyring backup retention settings.
type BackupConfig struct {
	// KeepLast bounds the number of backup directories retained after a
	// successful run. 0 keeps all backups, matching the historical
	// behavior of never pruning.
	KeepLast int `yaml:"keep_last"`
}

// SyncConfig toggles the optional external key synchronization steps.
type SyncConfig struct {
	Keybase bool `yaml:"keybase"` // Import/upload keys via Keybase
	GitHub  bool `yaml:"github"`  // Register the public key with GitHub
}

// Config represents the commitsign configuration.
type Config struct {
	GPGProgram     string       `yaml:"gpg_program"`     // Path to GPG executable (empty = use PATH)
	GitProgram     string       `yaml:"git_program"`     // Path to git executable (empty = use PATH)
	KeybaseProgram string       `yaml:"keybase_program"` // Path to keybase executable (empty = use PATH)
	GHProgram      string       `yaml:"gh_program"`      // Path to gh executable (empty = use PATH)
	Agent          AgentConfig  `yaml:"agent"`
	Backup         BackupConfig `yaml:"backup"`
	Sync           SyncConfig   `yaml:"sync"`
}

// DefaultConfig returns the configuration used when no config file exists.
// The agent TTLs mirror the gpg-agent defaults (10 minutes / 2 hours).
func DefaultConfig() Config {
	return Config{
		GPGProgram:     "",
		GitProgram:     "",
		KeybaseProgram: "",
		GHProgram:      "",
		Agent: AgentConfig{
			Pinentry:    "/opt/homebrew/bin/pinentry-mac",
			CacheTTL:    600,
			MaxCacheTTL: 7200,
		},
		Backup: BackupConfig{KeepLast: 0},
		Sync: SyncConfig{
			Keybase: true,
			GitHub:  false,
		},
	}
}

// Load reads the config from the specified path. A missing file is not an
// error: the tool must work on a pristine machine, so defaults apply.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return Config{}, fmt.Errorf("failed to read config: %w", err)
	}

	cfg := DefaultConfig()
	if len(data) == 0 {
		return cfg, nil
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Save writes the config to the specified path with proper formatting
func Save(path string, cfg Config) error {
	// Create parent directory if needed
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

func (c Config) validate() error {
	if c.Backup.KeepLast < 0 {
		return fmt.Errorf("backup.keep_last must not be negative (got %d)", c.Backup.KeepLast)
	}
	if c.Agent.CacheTTL < 0 || c.Agent.MaxCacheTTL < 0 {
		return fmt.Errorf("agent cache TTLs must not be negative")
	}
	if c.Agent.MaxCacheTTL > 0 && c.Agent.CacheTTL > c.Agent.MaxCacheTTL {
		return fmt.Errorf("agent.cache_ttl (%d) exceeds agent.max_cache_ttl (%d)", c.Agent.CacheTTL, c.Agent.MaxCacheTTL)
	}
	return nil
}
