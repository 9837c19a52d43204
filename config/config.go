package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// MCPServerConfig describes one external tool server started over stdio.
type MCPServerConfig struct {
	Command  string            `toml:"command"`
	Args     []string          `toml:"args"`
	Env      map[string]string `toml:"env,omitempty"`
	Gated    bool              `toml:"gated"`
	Disabled bool              `toml:"disabled"`
}

type CredentialsConfig struct {
	Method     string `toml:"method"`
	SSHKeyPath string `toml:"ssh_key_path,omitempty"`
}

// FileConfig mirrors config.toml on disk.
type FileConfig struct {
	Provider      string                     `toml:"provider"`
	Model         string                     `toml:"model"`
	Temperature   float64                    `toml:"temperature"`
	MaxTokens     int                        `toml:"max_tokens"`
	MaxSteps      int                        `toml:"max_steps"`
	APIKey        string                     `toml:"api_key,omitempty"`
	BaseURL       string                     `toml:"base_url,omitempty"`
	OllamaHost    string                     `toml:"ollama_host,omitempty"`
	DataDirectory string                     `toml:"data_directory"`
	GatedTools    []string                   `toml:"gated_tools,omitempty"`
	CommandsDirs  []string                   `toml:"commands_dirs,omitempty"`
	Credentials   CredentialsConfig          `toml:"credentials"`
	MCPServers    map[string]MCPServerConfig `toml:"mcp_servers,omitempty"`
}

// Config is the resolved runtime configuration handed to the engine and tools.
type Config struct {
	Provider      string
	Model         string
	Temperature   float64
	MaxTokens     int
	MaxSteps      int
	APIKey        string
	BaseURL       string
	OllamaHost    string
	DataDirectory string
	GatedTools    []string
	CommandsDirs  []string
	MCPServers    map[string]MCPServerConfig

	CredentialStore *CredentialStore
	// CredentialErr is why CredentialStore is nil, if it is.
	CredentialErr error
}

var Debug = false
var DebugLog *log.Logger

func (c *Config) DataDir() string {
	return ExpandPath(c.DataDirectory)
}

// ResolveAPIKey returns the key used for the configured provider.
// Order: explicit api_key, credential store, provider environment variable.
func (c *Config) ResolveAPIKey() string {
	switch {
	case c.APIKey != "":
		return c.APIKey
	case c.CredentialStore != nil && c.CredentialStore.Get(c.Provider) != "":
		return c.CredentialStore.Get(c.Provider)
	}
	if env := ProviderAPIKeyEnv(c.Provider); env != "" {
		return os.Getenv(env)
	}
	return ""
}

func (c *Config) applyFile(fc *FileConfig) {
	c.Provider = fc.Provider
	c.Model = fc.Model
	c.Temperature = fc.Temperature
	c.MaxTokens = fc.MaxTokens
	c.MaxSteps = fc.MaxSteps
	c.APIKey = fc.APIKey
	c.BaseURL = fc.BaseURL
	c.OllamaHost = fc.OllamaHost
	c.DataDirectory = fc.DataDirectory
	c.GatedTools = fc.GatedTools
	c.CommandsDirs = fc.CommandsDirs
	c.MCPServers = fc.MCPServers
}

func (c *Config) applyEnvOverrides() {
	if provider := os.Getenv("CHATCLI_PROVIDER"); provider != "" {
		c.Provider = provider
	}
	if model := os.Getenv("CHATCLI_MODEL"); model != "" {
		c.Model = model
	}
	if dataDir := os.Getenv("CHATCLI_DATA_DIR"); dataDir != "" {
		c.DataDirectory = dataDir
	}
	if steps := os.Getenv("CHATCLI_MAX_STEPS"); steps != "" {
		if n, err := strconv.Atoi(steps); err == nil && n > 0 {
			c.MaxSteps = n
		}
	}
	if host := os.Getenv("OLLAMA_HOST"); host != "" {
		c.OllamaHost = host
	}
}

func (c *Config) applyDefaults() {
	d := DefaultFileConfig()
	switch {
	case c.Provider == "":
		c.Provider = d.Provider
	}
	switch {
	case c.Model == "":
		c.Model = d.Model
	}
	switch {
	case c.MaxSteps <= 0:
		c.MaxSteps = d.MaxSteps
	}
	switch {
	case c.MaxTokens <= 0:
		c.MaxTokens = d.MaxTokens
	}
	switch {
	case c.DataDirectory == "":
		c.DataDirectory = d.DataDirectory
	}
	switch {
	case c.OllamaHost == "":
		c.OllamaHost = d.OllamaHost
	}
}

// IsGatedExtra reports whether the user flagged name as requiring approval.
func (c *Config) IsGatedExtra(name string) bool {
	for _, g := range c.GatedTools {
		if strings.EqualFold(g, name) {
			return true
		}
	}
	return false
}

func CheckDebug() bool {
	debug := os.Getenv("CHATCLI_DEBUG")
	return debug == "true" || debug == "1"
}

func InitDebugLog(dataDir string) {
	if !CheckDebug() {
		return
	}

	logPath := filepath.Join(dataDir, "debug.log")

	f, err := os.OpenFile(logPath, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0600)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Could not open debug log at %s: %v\n", logPath, err)
		return
	}

	Debug = true
	DebugLog = log.New(f, "", log.Ldate|log.Ltime|log.Lmicroseconds|log.Lshortfile)
	DebugLog.Printf("=== Debug logging started (CHATCLI_DEBUG=%s) ===", os.Getenv("CHATCLI_DEBUG"))
	DebugLog.Printf("Log path: %s", logPath)
}

// Load reads config.toml (creating it from the template when missing),
// applies environment overrides and prepares the data directory.
func Load() (*Config, error) {
	return LoadFrom(GetSettingsFilePath())
}

func LoadFrom(settingsPath string) (*Config, error) {
	fc, err := LoadFileConfig(settingsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	cfg := &Config{}
	cfg.applyFile(fc)
	cfg.applyEnvOverrides()
	cfg.applyDefaults()

	dataDir := cfg.DataDir()
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	if err := EnsureDataDirPermissions(dataDir); err != nil {
		return nil, fmt.Errorf("failed to set data directory permissions: %w", err)
	}

	store, err := OpenCredentialStore(dataDir, fc.Credentials)
	if err != nil {
		// An unreadable store must not block the session; keys can still come from env.
		if DebugLog != nil {
			DebugLog.Printf("[Config] credential store unavailable: %v", err)
		}
		cfg.CredentialErr = err
	} else {
		cfg.CredentialStore = store
	}

	return cfg, nil
}
