package config

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
)

// AppName is the directory name used under the platform config and data
// directories.
const AppName = "tuxmux"

// Environment variables that override the config and data locations.
const (
	EnvConfigPath = "TUXMUX_CONFIG_PATH"
	EnvDataPath   = "TUXMUX_DATA_PATH"
)

// Location selects the global (config dir) or local (data dir) file.
type Location int

const (
	Global Location = iota
	Local
)

func (l Location) String() string {
	if l == Local {
		return "local"
	}
	return "global"
}

// homeDir is resolved once per process.
var homeDir = sync.OnceValues(os.UserHomeDir)

// HomeDir returns the current user's home directory.
func HomeDir() (string, error) {
	return homeDir()
}

// ExpandTilde resolves a leading ~ against the home directory.
func ExpandTilde(p string) string {
	home, err := HomeDir()
	if err != nil {
		return p
	}
	return expandTilde(home, p)
}

func expandTilde(home, p string) string {
	if p == "~" {
		return home
	}
	if strings.HasPrefix(p, "~/") || strings.HasPrefix(p, `~\`) {
		return filepath.Join(home, p[2:])
	}
	return p
}

// ConfigDir returns the directory holding the global config file.
func ConfigDir() (string, error) {
	if p := os.Getenv(EnvConfigPath); p != "" {
		return p, nil
	}
	if p := os.Getenv("XDG_CONFIG_HOME"); p != "" {
		return filepath.Join(p, AppName), nil
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, AppName), nil
}

// DataDir returns the directory holding the local config file and the
// jumplist.
func DataDir() (string, error) {
	if p := os.Getenv(EnvDataPath); p != "" {
		return p, nil
	}
	if p := os.Getenv("XDG_DATA_HOME"); p != "" {
		return filepath.Join(p, AppName), nil
	}
	dir, err := platformDataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, AppName), nil
}

func platformDataDir() (string, error) {
	if runtime.GOOS == "windows" {
		if dir := os.Getenv("LocalAppData"); dir != "" {
			return dir, nil
		}
		return "", errors.New("%LocalAppData% is not defined")
	}

	home, err := HomeDir()
	if err != nil {
		return "", err
	}
	if runtime.GOOS == "darwin" {
		return filepath.Join(home, "Library", "Application Support"), nil
	}
	return filepath.Join(home, ".local", "share"), nil
}

// Dir returns the directory for the given location.
func Dir(loc Location) (string, error) {
	if loc == Local {
		return DataDir()
	}
	return ConfigDir()
}

// FilePath returns the config file for a location: the first existing
// config.{kdl,toml,yaml,yml}, or config.kdl when none exists yet.
func FilePath(loc Location) (string, error) {
	dir, err := Dir(loc)
	if err != nil {
		return "", err
	}
	if path, ok := findFile(dir); ok {
		return path, nil
	}
	return filepath.Join(dir, "config.kdl"), nil
}

func findFile(dir string) (string, bool) {
	for _, name := range []string{"config.kdl", "config.toml", "config.yaml", "config.yml"} {
		path := filepath.Join(dir, name)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path, true
		}
	}
	return "", false
}
