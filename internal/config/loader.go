package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultMonitorFile is the default monitor file name.
const DefaultMonitorFile = ".darkmonitor"

// LoadMonitorFile loads seeds and label configuration from a YAML file.
// If the file does not exist, it returns ErrMonitorFileNotFound; callers
// decide whether that is fatal based on whether the path was explicit.
// Label sets omitted from the file keep their defaults.
func LoadMonitorFile(path string) (*File, error) {
	data, err := os.ReadFile(path) //nolint:gosec // User-provided config path is intentional
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrMonitorFileNotFound
		}
		return nil, err
	}

	mf := NewFile()
	if err := yaml.Unmarshal(data, mf); err != nil {
		return nil, err
	}

	// yaml.Unmarshal replaces slice fields that appear in the file and
	// leaves absent ones untouched, so defaults survive partial files.
	return mf, nil
}

// FindMonitorFile searches for the monitor file in order:
// the explicit path if given, then .darkmonitor in the current directory,
// then in the user's home directory, then the XDG config directory.
// Returns an empty string when nothing is found.
func FindMonitorFile(explicitPath string) string {
	if explicitPath != "" {
		if _, err := os.Stat(explicitPath); err == nil {
			return explicitPath
		}
		return ""
	}

	if cwd, err := os.Getwd(); err == nil {
		p := filepath.Join(cwd, DefaultMonitorFile)
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	if home, err := os.UserHomeDir(); err == nil {
		p := filepath.Join(home, DefaultMonitorFile)
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	p := filepath.Join(XDGConfigDir(), DefaultMonitorFile)
	if _, err := os.Stat(p); err == nil {
		return p
	}

	return ""
}
