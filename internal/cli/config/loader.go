package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"go.yaml.in/yaml/v3"

	"github.com/yndnr/qipc-go/internal/infra/confloader"
)

// EnvPrefix is the environment prefix of CLI settings.
const EnvPrefix = "QIPC_CLI_"

// ErrUnknownProfile is returned by Resolve for a missing profile.
var ErrUnknownProfile = errors.New("unknown profile")

func configDir() string {
	homeDir, _ := os.UserHomeDir()
	return filepath.Join(homeDir, ".qipc")
}

// DefaultConfigPath returns the default CLI config file path.
func DefaultConfigPath() string {
	return filepath.Join(configDir(), "cli.yaml")
}

// DefaultHistoryPath returns the default REPL history path.
func DefaultHistoryPath() string {
	return filepath.Join(configDir(), "history")
}

// Load loads CLI configuration from path over the defaults, then applies
// QIPC_CLI_* variables. A missing file is not an error.
func Load(path string) (*CLIConfig, error) {
	if path == "" {
		path = DefaultConfigPath()
	}

	opts := []confloader.Option{
		confloader.WithEnvPrefix(EnvPrefix),
		confloader.WithAliases(nil),
	}
	if _, err := os.Stat(path); err == nil {
		opts = append(opts, confloader.WithConfigFile(path))
	} else if !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	cfg := Default()
	if err := confloader.NewLoader(opts...).Load(cfg); err != nil {
		return nil, err
	}
	if cfg.Profiles == nil {
		cfg.Profiles = make(map[string]Profile)
	}
	return cfg, nil
}

// Save writes cfg as YAML, creating the directory if needed.
func Save(cfg *CLIConfig, path string) error {
	if path == "" {
		path = DefaultConfigPath()
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	return os.WriteFile(path, data, 0600)
}

// Resolve returns the named profile, or the configured default when name is
// empty. Unset fields fall back to DefaultProfile.
func (c *CLIConfig) Resolve(name string) (Profile, error) {
	if name == "" {
		name = c.Profile
	}
	if name == "" {
		name = DefaultProfileName
	}
	p, ok := c.Profiles[name]
	if !ok {
		if name == DefaultProfileName {
			return DefaultProfile(), nil
		}
		return Profile{}, fmt.Errorf("%w: %s", ErrUnknownProfile, name)
	}

	d := DefaultProfile()
	if p.Transport == "" {
		p.Transport = d.Transport
	}
	if p.Host == "" {
		p.Host = d.Host
	}
	if p.Port == 0 {
		p.Port = d.Port
	}
	return p, nil
}

// SetProfile adds or replaces a profile.
func (c *CLIConfig) SetProfile(name string, p Profile) {
	if c.Profiles == nil {
		c.Profiles = make(map[string]Profile)
	}
	c.Profiles[name] = p
}

// ProfileNames returns the profile names in order.
func (c *CLIConfig) ProfileNames() []string {
	names := make([]string, 0, len(c.Profiles))
	for name := range c.Profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
