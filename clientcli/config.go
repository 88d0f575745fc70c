package clientcli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/mitchellh/go-homedir"
	"gopkg.in/yaml.v3"

	"github.com/sagarc03/manta"
)

// DefaultKeyPath is the private key used when none is configured.
const DefaultKeyPath = "~/.ssh/id_rsa"

// Profile holds configuration for a single account profile.
type Profile struct {
	Name    string `yaml:"name"`
	URL     string `yaml:"url"`
	Account string `yaml:"account"`
	KeyID   string `yaml:"key_id,omitempty"`
	KeyPath string `yaml:"key_path,omitempty"`
	Default bool   `yaml:"default,omitempty"`
}

// ConfigFile holds the full config file structure with multiple profiles.
type ConfigFile struct {
	Profiles []Profile `yaml:"profiles"`
}

// GetProfile returns the profile by name.
// If name is empty, returns the default profile.
func (c *ConfigFile) GetProfile(name string) (*Profile, error) {
	if len(c.Profiles) == 0 {
		return nil, ErrNoProfiles
	}

	if name == "" {
		return c.GetDefaultProfile()
	}

	for i := range c.Profiles {
		if c.Profiles[i].Name == name {
			return &c.Profiles[i], nil
		}
	}

	return nil, fmt.Errorf("%w: %s", ErrProfileNotFound, name)
}

// GetDefaultProfile returns the default profile.
// If no profile is marked as default, returns the first profile.
func (c *ConfigFile) GetDefaultProfile() (*Profile, error) {
	if len(c.Profiles) == 0 {
		return nil, ErrNoProfiles
	}

	for i := range c.Profiles {
		if c.Profiles[i].Default {
			return &c.Profiles[i], nil
		}
	}

	return &c.Profiles[0], nil
}

// AddProfile adds a new profile. Returns ErrProfileExists if a profile
// with the same name already exists. Use UpdateProfile to modify an existing profile.
func (c *ConfigFile) AddProfile(p Profile) error {
	for i := range c.Profiles {
		if c.Profiles[i].Name == p.Name {
			return fmt.Errorf("%w: %s", ErrProfileExists, p.Name)
		}
	}
	c.Profiles = append(c.Profiles, p)
	return nil
}

// UpdateProfile updates an existing profile. Returns ErrProfileNotFound
// if the profile doesn't exist. Use AddProfile to create a new profile.
func (c *ConfigFile) UpdateProfile(p Profile) error {
	for i := range c.Profiles {
		if c.Profiles[i].Name == p.Name {
			c.Profiles[i] = p
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrProfileNotFound, p.Name)
}

// RemoveProfile removes a profile by name.
func (c *ConfigFile) RemoveProfile(name string) error {
	for i := range c.Profiles {
		if c.Profiles[i].Name == name {
			c.Profiles = append(c.Profiles[:i], c.Profiles[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrProfileNotFound, name)
}

// SetDefault sets the default profile by name.
// Clears the default flag from all other profiles.
func (c *ConfigFile) SetDefault(name string) error {
	found := false
	for i := range c.Profiles {
		if c.Profiles[i].Name == name {
			c.Profiles[i].Default = true
			found = true
		} else {
			c.Profiles[i].Default = false
		}
	}

	if !found {
		return fmt.Errorf("%w: %s", ErrProfileNotFound, name)
	}
	return nil
}

// ProfileNames returns a list of all profile names.
func (c *ConfigFile) ProfileNames() []string {
	names := make([]string, len(c.Profiles))
	for i := range c.Profiles {
		names[i] = c.Profiles[i].Name
	}
	return names
}

// Save writes the config to the specified path.
// Creates the parent directory if it doesn't exist.
func (c *ConfigFile) Save(path string) error {
	cleanPath, err := expandPath(path)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(cleanPath), 0o700); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(cleanPath, data, 0o600); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}

	return nil
}

// LoadConfigFile loads the config file from the specified path.
func LoadConfigFile(path string) (*ConfigFile, error) {
	cleanPath, err := expandPath(path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(cleanPath) //#nosec G304 -- path is user-provided config file
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var cfg ConfigFile
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	return &cfg, nil
}

// DefaultConfigPath returns the default config file path (~/.manta/config.yaml).
func DefaultConfigPath() string {
	home, err := homedir.Dir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".manta", "config.yaml")
}

func expandPath(path string) (string, error) {
	expanded, err := homedir.Expand(path)
	if err != nil {
		return "", fmt.Errorf("expand path: %w", err)
	}
	return filepath.Clean(expanded), nil
}

// Config holds resolved client configuration for a single account.
// This is what the Client uses after profile resolution.
type Config struct {
	URL     string
	Account string
	KeyID   string
	KeyPath string
}

// WithDefaults returns a copy of the config with default values applied.
// An empty URL becomes manta.DefaultURL and an empty KeyPath becomes DefaultKeyPath.
func (c *Config) WithDefaults() *Config {
	cfg := *c
	if cfg.URL == "" {
		cfg.URL = manta.DefaultURL
	}
	if cfg.KeyPath == "" {
		cfg.KeyPath = DefaultKeyPath
	}
	return &cfg
}

// ValidateWithAuth checks that the fields needed to sign requests are set.
// KeyID may be empty; it is then derived from the key.
func (c *Config) ValidateWithAuth() error {
	if c.Account == "" {
		return ErrAccountRequired
	}
	if c.KeyPath == "" {
		return ErrKeyPathRequired
	}
	return nil
}

// ConfigFromProfile creates a Config from a Profile.
func ConfigFromProfile(p *Profile) *Config {
	if p == nil {
		return &Config{}
	}
	return &Config{
		URL:     p.URL,
		Account: p.Account,
		KeyID:   p.KeyID,
		KeyPath: p.KeyPath,
	}
}

// ConfigFromEnv loads config from the MANTA_* environment variables.
func ConfigFromEnv() *Config {
	return &Config{
		URL:     os.Getenv("MANTA_URL"),
		Account: os.Getenv("MANTA_USER"),
		KeyID:   os.Getenv("MANTA_KEY_ID"),
		KeyPath: os.Getenv("MANTA_KEY_PATH"),
	}
}

// ProfileFromEnv returns the profile name from the MANTA_PROFILE environment variable.
func ProfileFromEnv() string {
	return os.Getenv("MANTA_PROFILE")
}

// ConfigPathFromEnv returns the config file path from the MANTA_CONFIG environment variable.
func ConfigPathFromEnv() string {
	return os.Getenv("MANTA_CONFIG")
}

// MergeConfig merges multiple configs, with later configs taking precedence.
// Empty strings in later configs do not override non-empty values in earlier configs.
func MergeConfig(configs ...*Config) *Config {
	result := &Config{}
	for _, cfg := range configs {
		if cfg == nil {
			continue
		}
		if cfg.URL != "" {
			result.URL = cfg.URL
		}
		if cfg.Account != "" {
			result.Account = cfg.Account
		}
		if cfg.KeyID != "" {
			result.KeyID = cfg.KeyID
		}
		if cfg.KeyPath != "" {
			result.KeyPath = cfg.KeyPath
		}
	}
	return result
}
