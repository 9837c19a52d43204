package config

const (
	DefaultProvider    = "openrouter"
	DefaultModel       = "deepseek/deepseek-chat-v3-0324"
	DefaultTemperature = 0.7
	DefaultMaxTokens   = 1000
	DefaultMaxSteps    = 100
)

func DefaultFileConfig() *FileConfig {
	return &FileConfig{
		Provider:      DefaultProvider,
		Model:         DefaultModel,
		Temperature:   DefaultTemperature,
		MaxTokens:     DefaultMaxTokens,
		MaxSteps:      DefaultMaxSteps,
		OllamaHost:    "http://localhost:11434",
		DataDirectory: "~/.local/share/chat-cli",
		Credentials: CredentialsConfig{
			Method: string(SecurityPlainText),
		},
	}
}

func GenerateConfigTemplate() string {
	return `# chat-cli configuration
# Location: ~/.config/chat-cli/config.toml
# This file uses TOML format: https://toml.io

# Model provider: openrouter, openai, anthropic or ollama
provider = "openrouter"

# Model identifier understood by the provider
model = "deepseek/deepseek-chat-v3-0324"

temperature = 0.7
max_tokens = 1000

# Model calls allowed per turn before asking the user to continue
max_steps = 100

# API key (optional). Prefer "chat-cli auth set <provider>" or $OPENROUTER_API_KEY.
# api_key = ""

# Override the provider endpoint (optional)
# base_url = "https://openrouter.ai/api/v1"

# Directory where sessions, history and credentials are stored
data_directory = "~/.local/share/chat-cli"

# Extra tools that require confirmation before running.
# Bash, WriteFile and UpdateFile always do.
# gated_tools = ["Weather"]

# Extra directories holding custom /commands (*.md)
# commands_dirs = ["~/work/prompts"]

[credentials]
# plaintext or ssh_key
method = "plaintext"
# ssh_key_path = "~/.ssh/id_ed25519"

# External tool servers (MCP over stdio)
# [mcp_servers.filesystem]
# command = "npx"
# args = ["-y", "@modelcontextprotocol/server-filesystem", "."]
# gated = true
`
}
