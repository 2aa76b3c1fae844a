// Package paths resolves where tally keeps its configuration and archive.
package paths

import (
	"os"
	"path/filepath"
	"runtime"
)

// AppDirName is the directory created under the platform config and data roots.
const AppDirName = "tally"

// ConfigFileName is the name of the configuration file inside the config dir.
const ConfigFileName = "config.yaml"

// EnvConfigDir overrides the configuration directory. The data directory is
// overridden through configuration (TALLY_DATA_DIR or data_dir).
const EnvConfigDir = "TALLY_CONFIG_DIR"

// platformDir holds platform-detection functions that can be overridden in tests.
var platformDir = struct {
	goos          string
	homeDir       func() (string, error)
	userConfigDir func() (string, error)
}{
	goos:          runtime.GOOS,
	homeDir:       os.UserHomeDir,
	userConfigDir: os.UserConfigDir,
}

// xdgDir returns $xdgEnv/tally on Linux, falling back to ~/fallback/tally.
// Other platforms use os.UserConfigDir for both config and data.
func xdgDir(xdgEnv string, fallback ...string) (string, error) {
	if platformDir.goos != "linux" {
		dir, err := platformDir.userConfigDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(dir, AppDirName), nil
	}
	if xdg := os.Getenv(xdgEnv); xdg != "" {
		return filepath.Join(xdg, AppDirName), nil
	}
	home, err := platformDir.homeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(append(append([]string{home}, fallback...), AppDirName)...), nil
}

// DefaultConfigDir returns the platform default configuration directory.
//
// Linux:   $XDG_CONFIG_HOME/tally (fallback ~/.config/tally)
// macOS:   ~/Library/Application Support/tally
// Windows: %APPDATA%/tally
func DefaultConfigDir() (string, error) {
	return xdgDir("XDG_CONFIG_HOME", ".config")
}

// DefaultDataDir returns the platform default archive directory.
//
// Linux:   $XDG_DATA_HOME/tally (fallback ~/.local/share/tally)
// Others:  same as DefaultConfigDir
func DefaultDataDir() (string, error) {
	return xdgDir("XDG_DATA_HOME", ".local", "share")
}

// ResolveConfigDir picks the configuration directory: flag, then
// TALLY_CONFIG_DIR, then the platform default.
func ResolveConfigDir(flag string) (string, error) {
	if flag != "" {
		return filepath.Abs(flag)
	}
	if env := os.Getenv(EnvConfigDir); env != "" {
		return filepath.Abs(env)
	}
	return DefaultConfigDir()
}

// ResolveDataDir picks the archive directory: flag, then the configured
// value, then the platform default.
func ResolveDataDir(flag, configured string) (string, error) {
	for _, dir := range []string{flag, configured} {
		if dir != "" {
			return filepath.Abs(dir)
		}
	}
	return DefaultDataDir()
}

// ConfigFile returns the path of the configuration file inside dir.
func ConfigFile(dir string) string {
	return filepath.Join(dir, ConfigFileName)
}
