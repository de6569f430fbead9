package config

import (
	"fmt"
	"os"
	"path/filepath"
)

const AppName = "lazyrows"

var (
	// AppConfigDir is ~/.config/lazyrows
	AppConfigDir string

	// AppStateDir is ~/.local/state/lazyrows
	AppStateDir string

	// AppConfigFile is ~/.config/lazyrows/lazyrows.yaml
	AppConfigFile string

	// AppAliasesFile is ~/.config/lazyrows/aliases.yaml
	AppAliasesFile string

	// AppSourcesDir is ~/.local/state/lazyrows/sources
	AppSourcesDir string

	// AppLogFile is ~/.local/state/lazyrows/lazyrows.log
	AppLogFile string
)

// InitLocs initializes all application directory paths.
// It respects XDG environment variables if set.
func InitLocs() error {
	home, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to locate home directory: %w", err)
	}

	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		configHome = filepath.Join(home, ".config")
	}

	stateHome := os.Getenv("XDG_STATE_HOME")
	if stateHome == "" {
		stateHome = filepath.Join(home, ".local", "state")
	}

	AppConfigDir = filepath.Join(configHome, AppName)
	AppStateDir = filepath.Join(stateHome, AppName)

	AppConfigFile = filepath.Join(AppConfigDir, AppName+".yaml")
	AppAliasesFile = filepath.Join(AppConfigDir, "aliases.yaml")
	AppSourcesDir = filepath.Join(AppStateDir, "sources")
	AppLogFile = filepath.Join(AppStateDir, AppName+".log")

	for _, dir := range []string{AppConfigDir, AppStateDir, AppSourcesDir} {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return err
		}
	}

	return nil
}

// InitLogLoc ensures the log directory exists
func InitLogLoc(path string) error {
	return os.MkdirAll(filepath.Dir(path), 0700)
}
