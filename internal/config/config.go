package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"tasnim.dev/vpc-topology/internal/topology"
)

const (
	defaultRefreshInterval = 15 * time.Second
	minRefreshInterval     = 5 * time.Second
	defaultListenAddr      = ":8080"
)

// Config holds optional defaults loaded from ~/.config/vpc-topology/config.yaml.
type Config struct {
	DefaultProfile      string `yaml:"default_profile"`
	DefaultRegion       string `yaml:"default_region"`
	DefaultVPC          string `yaml:"default_vpc"`
	LogLevel            string `yaml:"log_level"`
	ListenAddr          string `yaml:"listen_addr"`
	AutoRefreshInterval int    `yaml:"auto_refresh_interval"` // seconds

	// Layout overrides individual map geometry values; zero fields keep the default.
	Layout topology.LayoutConfig `yaml:"layout"`
}

// Dir returns the directory holding the config file and the viewer log.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "vpc-topology"), nil
}

// Load reads the config file. Returns zero-value Config if the file doesn't exist.
func Load() (*Config, error) {
	dir, err := Dir()
	if err != nil {
		return &Config{}, nil
	}
	return LoadFrom(filepath.Join(dir, "config.yaml"))
}

// LoadFrom reads the config at path. A missing file is not an error.
func LoadFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return &cfg, nil
}

// Merge applies CLI flag overrides. Flags take precedence over config defaults.
func (c *Config) Merge(profile, region string) (string, string) {
	p := c.DefaultProfile
	if profile != "" {
		p = profile
	}
	r := c.DefaultRegion
	if region != "" {
		r = region
	}
	return p, r
}

// VPC returns the flag value, or the configured default VPC when it is empty.
func (c *Config) VPC(flag string) string {
	if flag != "" {
		return flag
	}
	return c.DefaultVPC
}

// RefreshInterval is how often the viewer re-discovers the VPC.
func (c *Config) RefreshInterval() time.Duration {
	if c.AutoRefreshInterval <= 0 {
		return defaultRefreshInterval
	}
	d := time.Duration(c.AutoRefreshInterval) * time.Second
	if d < minRefreshInterval {
		return minRefreshInterval
	}
	return d
}

// Addr returns the HTTP listen address for the serve command.
func (c *Config) Addr(flag string) string {
	switch {
	case flag != "":
		return flag
	case c.ListenAddr != "":
		return c.ListenAddr
	}
	return defaultListenAddr
}

// LayoutConfig overlays the configured layout values onto the defaults.
func (c *Config) LayoutConfig() topology.LayoutConfig {
	out := topology.DefaultLayoutConfig()
	o := c.Layout
	for _, f := range []struct {
		dst *float64
		src float64
	}{
		{&out.ColumnWidth, o.ColumnWidth},
		{&out.ColumnGap, o.ColumnGap},
		{&out.LeftPanelWidth, o.LeftPanelWidth},
		{&out.Margin, o.Margin},
		{&out.HeaderOffset, o.HeaderOffset},
		{&out.PublicHeight, o.PublicHeight},
		{&out.PublicHeightWithNAT, o.PublicHeightWithNAT},
		{&out.PrivateHeight, o.PrivateHeight},
		{&out.DatabaseHeight, o.DatabaseHeight},
		{&out.IGWOffsetY, o.IGWOffsetY},
		{&out.NATOffsetY, o.NATOffsetY},
	} {
		if f.src != 0 {
			*f.dst = f.src
		}
	}
	return out
}
