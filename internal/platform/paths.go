// Package platform resolves the per-user config file and log directory.
package platform

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// defaultAppName names the per-user directories when Options leaves it blank.
const defaultAppName = "kanflow"

// Paths holds the locations kanflow reads config from and writes logs to.
type Paths struct {
	ConfigPath string
	LogDir     string
}

// Options selects the app directory name.
type Options struct {
	AppName string
	// DevMode suffixes the app directory with -dev.
	DevMode bool
}

// Base is the pair of OS base directories paths are resolved under.
type Base struct {
	Config string
	State  string
}

// DefaultPaths resolves paths for the running OS and environment.
func DefaultPaths(opts Options) (Paths, error) {
	base, err := osBase()
	if err != nil {
		return Paths{}, err
	}
	return Resolve(runtime.GOOS, os.Getenv, base, dirName(opts))
}

// Resolve builds paths for goos. Environment overrides win over base:
// XDG_CONFIG_HOME and XDG_STATE_HOME on linux, APPDATA and LOCALAPPDATA on windows.
func Resolve(goos string, getenv func(string) string, base Base, appDir string) (Paths, error) {
	appDir = strings.TrimSpace(appDir)
	if appDir == "" {
		return Paths{}, errors.New("empty app name")
	}
	if getenv == nil {
		getenv = func(string) string { return "" }
	}

	configKey, stateKey := "", ""
	switch goos {
	case "linux":
		configKey, stateKey = "XDG_CONFIG_HOME", "XDG_STATE_HOME"
	case "windows":
		configKey, stateKey = "APPDATA", "LOCALAPPDATA"
	}
	if configKey != "" {
		if v := strings.TrimSpace(getenv(configKey)); v != "" {
			base.Config = v
		}
		if v := strings.TrimSpace(getenv(stateKey)); v != "" {
			base.State = v
		}
	}
	if base.Config == "" || base.State == "" {
		return Paths{}, fmt.Errorf("empty base dirs for %s", goos)
	}

	return Paths{
		ConfigPath: filepath.Join(base.Config, appDir, "config.toml"),
		LogDir:     filepath.Join(base.State, appDir, "log"),
	}, nil
}

func dirName(opts Options) string {
	name := strings.TrimSpace(opts.AppName)
	if name == "" {
		name = defaultAppName
	}
	if opts.DevMode {
		name += "-dev"
	}
	return name
}

// osBase reads the OS config dir. Logs live under ~/.local/state on linux
// and next to the config elsewhere.
func osBase() (Base, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return Base{}, fmt.Errorf("user config dir: %w", err)
	}
	base := Base{Config: configDir, State: configDir}
	if runtime.GOOS == "linux" {
		home, err := os.UserHomeDir()
		if err != nil {
			return Base{}, fmt.Errorf("user home dir: %w", err)
		}
		base.State = filepath.Join(home, ".local", "state")
	}
	return base, nil
}
