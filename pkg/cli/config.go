package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// UserConfig represents ~/.sentinel/config.yaml.
type UserConfig struct {
	CurrentProfile string             `yaml:"current-profile" json:"current-profile"`
	Profiles       map[string]Profile `yaml:"profiles" json:"profiles"`
}

// Profile represents a single named gateway connection.
type Profile struct {
	Host     string `yaml:"host,omitempty" json:"host,omitempty"`
	Username string `yaml:"username,omitempty" json:"username,omitempty"`
	Token    string `yaml:"token,omitempty" json:"token,omitempty"`
	Output   string `yaml:"output,omitempty" json:"output,omitempty"`
}

func newUserConfig() *UserConfig {
	return &UserConfig{
		CurrentProfile: "default",
		Profiles:       map[string]Profile{},
	}
}

// profileName resolves the override against current-profile.
func (c *UserConfig) profileName(override string) string {
	if override != "" {
		return override
	}
	if c.CurrentProfile != "" {
		return c.CurrentProfile
	}
	return "default"
}

// ActiveProfile returns the profile to use based on the override or
// current-profile. An explicit override must name an existing profile.
func (c *UserConfig) ActiveProfile(override string) (Profile, error) {
	name := c.profileName(override)
	if p, ok := c.Profiles[name]; ok {
		return p, nil
	}
	if override != "" {
		return Profile{}, fmt.Errorf("profile %q not found", override)
	}
	return Profile{}, nil
}

// ConfigDir returns the path to ~/.sentinel/.
func ConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".sentinel")
}

// ConfigPath returns the path to ~/.sentinel/config.yaml.
func ConfigPath() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}

// LoadUserConfig reads ~/.sentinel/config.yaml.
func LoadUserConfig() (*UserConfig, error) {
	data, err := os.ReadFile(ConfigPath())
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg UserConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if cfg.Profiles == nil {
		cfg.Profiles = map[string]Profile{}
	}
	return &cfg, nil
}

// loadOrNewUserConfig returns the stored config, or an empty one when no
// file exists yet.
func loadOrNewUserConfig() *UserConfig {
	cfg, err := LoadUserConfig()
	if err != nil {
		return newUserConfig()
	}
	return cfg
}

// SaveUserConfig writes ~/.sentinel/config.yaml with owner-only permissions;
// the file holds bearer tokens.
func SaveUserConfig(cfg *UserConfig) error {
	dir := ConfigDir()
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return os.WriteFile(ConfigPath(), data, 0o600)
}

// updateProfile loads the config, applies fn to the named profile (or the
// current one when name is empty) and saves the result.
func updateProfile(name string, fn func(p *Profile)) (string, error) {
	cfg := loadOrNewUserConfig()
	name = cfg.profileName(name)
	if cfg.CurrentProfile == "" {
		cfg.CurrentProfile = name
	}
	p := cfg.Profiles[name]
	fn(&p)
	cfg.Profiles[name] = p
	if err := SaveUserConfig(cfg); err != nil {
		return "", err
	}
	return name, nil
}
