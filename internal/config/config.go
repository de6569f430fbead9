package config

import (
	"fmt"
	"os"
	"sync"

	"github.com/a1s/lazyrows/internal/aws"
	"github.com/a1s/lazyrows/internal/config/data"
	"github.com/a1s/lazyrows/internal/dao"
)

// Config is the root configuration for the application.
type Config struct {
	LazyRows *LazyRows `yaml:"lazyrows"`
	aliases  *Aliases
	mx       sync.RWMutex
}

// NewConfig creates a Config with default settings.
func NewConfig() *Config {
	return &Config{
		LazyRows: NewLazyRows(),
		aliases:  NewAliases(),
	}
}

// Load loads the configuration from the given path.
// If the file doesn't exist, the current config is kept.
func (c *Config) Load(path string, force bool) error {
	c.mx.Lock()
	defer c.mx.Unlock()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		if !force {
			return nil
		}
		return fmt.Errorf("config file does not exist: %s", path)
	}

	if err := data.LoadYAML(path, c); err != nil {
		return fmt.Errorf("failed to load config from %s: %w", path, err)
	}
	if c.LazyRows == nil {
		c.LazyRows = NewLazyRows()
	}
	c.LazyRows.Validate()

	return nil
}

// Save saves the configuration to path.
// If force is false, only saves if the file already exists.
func (c *Config) Save(path string, force bool) error {
	c.mx.RLock()
	defer c.mx.RUnlock()

	if path == "" {
		return fmt.Errorf("no config file path configured")
	}
	if _, err := os.Stat(path); err != nil && !force {
		return nil
	}

	if err := data.SaveYAML(path, c); err != nil {
		return fmt.Errorf("failed to save config to %s: %w", path, err)
	}

	return nil
}

// Aliases returns the source aliases.
func (c *Config) Aliases() *Aliases {
	c.mx.RLock()
	defer c.mx.RUnlock()

	return c.aliases
}

// ResourceID resolves the configured source kind through the aliases.
func (c *Config) ResourceID() (dao.ResourceID, error) {
	c.LazyRows.mx.RLock()
	kind := c.LazyRows.Source.Kind
	c.LazyRows.mx.RUnlock()

	return dao.ParseResourceID(c.Aliases().Get(kind))
}

// IsCloud reports whether rid is served through an AWS connection.
func IsCloud(rid dao.ResourceID) bool {
	switch rid {
	case dao.SQLTableRID, dao.BoltBucketRID, dao.MemoryRID:
		return false
	default:
		return true
	}
}

// Refine applies CLI flags and resolves the AWS profile and region of cloud
// sources. The precedence is flags, then the config file, then the AWS
// environment and profile defaults.
func (c *Config) Refine(flags *data.Flags, profiles *aws.ProfileManager) (string, string, error) {
	if c.LazyRows == nil {
		return "", "", fmt.Errorf("config.LazyRows is nil")
	}
	c.LazyRows.Override(flags)
	c.LazyRows.Validate()

	rid, err := c.ResourceID()
	if err != nil {
		return "", "", err
	}
	if !IsCloud(rid) || profiles == nil {
		return "", "", nil
	}

	c.LazyRows.mx.Lock()
	defer c.LazyRows.mx.Unlock()

	profile, region, err := profiles.Resolve(c.LazyRows.Source.Profile, c.LazyRows.Source.Region)
	if err != nil {
		return "", "", fmt.Errorf("failed to resolve AWS profile: %w", err)
	}
	c.LazyRows.Source.Profile, c.LazyRows.Source.Region = profile, region

	return profile, region, nil
}
