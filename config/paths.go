package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// GetConfigDir returns the platform-specific configuration directory
// Linux/Mac: ~/.config/chat-cli
// Windows: C:\Users\username\.config\chat-cli
func GetConfigDir() string {
	return filepath.Join(GetHomeDir(), ".config", "chat-cli")
}

// GetSettingsFilePath returns the path to config.toml
func GetSettingsFilePath() string {
	return filepath.Join(GetConfigDir(), "config.toml")
}

// GetGlobalPromptDocPath returns ~/.chat-cli.md, the user-wide prompt document.
func GetGlobalPromptDocPath() string {
	return filepath.Join(GetHomeDir(), ".chat-cli.md")
}

// GetProjectPromptDocPath returns ./chat-cli.md relative to workDir.
func GetProjectPromptDocPath(workDir string) string {
	return filepath.Join(workDir, "chat-cli.md")
}

// GetCommandsDir returns ~/.chat-cli/commands where custom slash commands live.
func GetCommandsDir() string {
	return filepath.Join(GetHomeDir(), ".chat-cli", "commands")
}

// GetHomeDir returns the user's home directory across platforms
// Windows: %USERPROFILE% (C:\Users\username)
// Linux/Mac: $HOME (/home/username)
func GetHomeDir() string {
	if runtime.GOOS == "windows" {
		home := os.Getenv("USERPROFILE")
		if home == "" {
			home = os.Getenv("HOMEDRIVE") + os.Getenv("HOMEPATH")
		}
		if home == "" {
			home = "C:\\"
		}
		return home
	}
	home := os.Getenv("HOME")
	if home == "" {
		home = "/"
	}
	return home
}

// ExpandPath expands ~ and environment variables in a path
func ExpandPath(path string) string {
	if path == "" {
		return path
	}

	if strings.HasPrefix(path, "~/") {
		home := GetHomeDir()
		path = filepath.Join(home, path[2:])
	}

	path = os.ExpandEnv(path)

	return filepath.Clean(path)
}

// EnsureDir creates a directory if it doesn't exist (0700 - user-only access)
func EnsureDir(path string) error {
	return os.MkdirAll(path, 0700)
}

// FileExists checks if a file exists
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// EnsureDataDirPermissions ensures data directory has 0700 permissions
func EnsureDataDirPermissions(dataDir string) error {
	info, err := os.Stat(dataDir)
	if err != nil {
		if os.IsNotExist(err) {
			return os.MkdirAll(dataDir, 0700)
		}
		return err
	}

	currentPerms := info.Mode().Perm()
	if currentPerms != 0700 {
		return os.Chmod(dataDir, 0700)
	}
	return nil
}
