package appdirs

import (
	"os"
	"path/filepath"
)

const (
	appDirName = "distill"
)

func DataDir() (string, error) {
	if override := os.Getenv("DISTILL_DATA_DIR"); override != "" {
		return override, nil
	}
	base, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, appDirName), nil
}

// WorkspacesDir holds the transient per-job workspace directories.
func WorkspacesDir(dataDir string) string {
	return filepath.Join(dataDir, "workspaces")
}

func SettingsPath(dataDir string) string {
	return filepath.Join(dataDir, "config.yaml")
}
