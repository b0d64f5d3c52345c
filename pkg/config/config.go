package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

const configFileName = "config.json"

var (
	// ErrNoCurrentProfile is returned when no profile is selected, or the
	// selected name does not resolve to a configured profile.
	ErrNoCurrentProfile = errors.New("no current profile set")

	// ErrProfileLocked is returned by the lock check before any mutating
	// operation against a locked profile.
	ErrProfileLocked = errors.New("current profile is locked")
)

// Endpoint is one etcd endpoint address.
type Endpoint struct {
	Host string `json:"host"`
	Port int    `json:"port"`
}

// Addr renders the endpoint as host:port.
func (e Endpoint) Addr() string {
	return net.JoinHostPort(e.Host, strconv.Itoa(e.Port))
}

// Credential is an optional username/password pair for authenticated
// clusters.
type Credential struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Profile defines the connection information for one etcd cluster.
type Profile struct {
	Name             string      `json:"name"`
	Endpoints        []Endpoint  `json:"endpoints"`
	User             *Credential `json:"user,omitempty"`
	TimeoutMS        *int64      `json:"timeout_ms,omitempty"`
	ConnectTimeoutMS *int64      `json:"connect_timeout_ms,omitempty"`

	// Locked forbids mutating operations client-side, regardless of the
	// permissions the cluster would grant.
	Locked bool `json:"locked,omitempty"`
}

// Timeout returns the per-request timeout, if configured.
func (p *Profile) Timeout() (time.Duration, bool) {
	if p.TimeoutMS == nil {
		return 0, false
	}
	return time.Duration(*p.TimeoutMS) * time.Millisecond, true
}

// ConnectTimeout returns the dial timeout, if configured.
func (p *Profile) ConnectTimeout() (time.Duration, bool) {
	if p.ConnectTimeoutMS == nil {
		return 0, false
	}
	return time.Duration(*p.ConnectTimeoutMS) * time.Millisecond, true
}

// AppConfig is the on-disk application configuration.
type AppConfig struct {
	Profiles       []Profile `json:"profiles"`
	CurrentProfile string    `json:"current_profile,omitempty"`
	ColorTheme     string    `json:"color_theme,omitempty"`
}

// Default returns an empty configuration.
func Default() *AppConfig {
	return &AppConfig{ColorTheme: "system"}
}

// DefaultPath returns the config file location under the user config dir.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve user config directory: %w", err)
	}
	return filepath.Join(dir, "etcdmate", configFileName), nil
}

// Load reads the configuration from path. A missing file is not an
// error; the default configuration is returned instead.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg AppConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return &cfg, nil
}

// Save writes the configuration to path, creating parent directories as
// needed.
func (c *AppConfig) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// ProfileByName returns the named profile, or nil.
func (c *AppConfig) ProfileByName(name string) *Profile {
	for i := range c.Profiles {
		if c.Profiles[i].Name == name {
			return &c.Profiles[i]
		}
	}
	return nil
}

// Current resolves the active profile. A dangling current_profile name
// is treated the same as no selection.
func (c *AppConfig) Current() *Profile {
	if c.CurrentProfile == "" {
		return nil
	}
	return c.ProfileByName(c.CurrentProfile)
}

// EnsureCurrentUnlocked is the client-side lock check run before any
// command that may change server data. It never touches the network.
func (c *AppConfig) EnsureCurrentUnlocked() error {
	p := c.Current()
	if p == nil {
		return ErrNoCurrentProfile
	}
	if p.Locked {
		return fmt.Errorf("%w: %q", ErrProfileLocked, p.Name)
	}
	return nil
}
