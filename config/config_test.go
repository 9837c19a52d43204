package config

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/elliptic"
	"crypto/rand"
	"encoding/pem"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"golang.org/x/crypto/ssh"
)

func TestLoadFrom(t *testing.T) {
	tests := []struct {
		name     string
		file     string
		env      map[string]string
		validate func(t *testing.T, cfg *Config)
	}{
		{
			name: "missing file writes template and uses defaults",
			validate: func(t *testing.T, cfg *Config) {
				if cfg.Provider != DefaultProvider {
					t.Errorf("Provider = %q, want %q", cfg.Provider, DefaultProvider)
				}
				if cfg.Model != DefaultModel {
					t.Errorf("Model = %q, want %q", cfg.Model, DefaultModel)
				}
				if cfg.MaxSteps != DefaultMaxSteps {
					t.Errorf("MaxSteps = %d, want %d", cfg.MaxSteps, DefaultMaxSteps)
				}
				if cfg.Temperature != DefaultTemperature {
					t.Errorf("Temperature = %v, want %v", cfg.Temperature, DefaultTemperature)
				}
			},
		},
		{
			name: "file values",
			file: `provider = "anthropic"
model = "claude-sonnet-4-5"
max_steps = 7
gated_tools = ["Weather"]

[mcp_servers.fs]
command = "npx"
args = ["-y", "server"]
gated = true
`,
			validate: func(t *testing.T, cfg *Config) {
				if cfg.Provider != "anthropic" || cfg.Model != "claude-sonnet-4-5" {
					t.Errorf("got provider=%q model=%q", cfg.Provider, cfg.Model)
				}
				if cfg.MaxSteps != 7 {
					t.Errorf("MaxSteps = %d, want 7", cfg.MaxSteps)
				}
				if !cfg.IsGatedExtra("weather") {
					t.Error("expected Weather to be gated (case-insensitive)")
				}
				srv, ok := cfg.MCPServers["fs"]
				if !ok || srv.Command != "npx" || !srv.Gated || len(srv.Args) != 2 {
					t.Errorf("unexpected mcp server config: %+v", srv)
				}
			},
		},
		{
			name: "environment overrides file",
			file: `model = "from-file"`,
			env:  map[string]string{"CHATCLI_MODEL": "from-env", "CHATCLI_MAX_STEPS": "3"},
			validate: func(t *testing.T, cfg *Config) {
				if cfg.Model != "from-env" {
					t.Errorf("Model = %q, want from-env", cfg.Model)
				}
				if cfg.MaxSteps != 3 {
					t.Errorf("MaxSteps = %d, want 3", cfg.MaxSteps)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			t.Setenv("HOME", dir)
			t.Setenv("CHATCLI_DATA_DIR", filepath.Join(dir, "data"))
			t.Setenv("CHATCLI_MODEL", "")
			t.Setenv("CHATCLI_PROVIDER", "")
			t.Setenv("CHATCLI_MAX_STEPS", "")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			path := filepath.Join(dir, "config.toml")
			if tt.file != "" {
				if err := os.WriteFile(path, []byte(tt.file), 0600); err != nil {
					t.Fatal(err)
				}
			}

			cfg, err := LoadFrom(path)
			if err != nil {
				t.Fatalf("LoadFrom() error = %v", err)
			}
			if !FileExists(path) {
				t.Error("config file should exist after load")
			}
			if info, err := os.Stat(cfg.DataDir()); err != nil || info.Mode().Perm() != 0700 {
				t.Errorf("data dir not created with 0700: %v", err)
			}
			tt.validate(t, cfg)
		})
	}
}

func TestResolveAPIKey(t *testing.T) {
	t.Setenv("OPENROUTER_API_KEY", "env-key")

	store, err := OpenCredentialStore(t.TempDir(), CredentialsConfig{})
	if err != nil {
		t.Fatal(err)
	}
	cfg := &Config{Provider: ProviderOpenRouter}
	if got := cfg.ResolveAPIKey(); got != "env-key" {
		t.Errorf("env fallback = %q", got)
	}

	if err := store.Set(ProviderOpenRouter, "stored-key"); err != nil {
		t.Fatal(err)
	}
	cfg.CredentialStore = store
	if got := cfg.ResolveAPIKey(); got != "stored-key" {
		t.Errorf("credential store = %q", got)
	}

	cfg.APIKey = "explicit"
	if got := cfg.ResolveAPIKey(); got != "explicit" {
		t.Errorf("explicit = %q", got)
	}
}

func TestCredentialStorePlainText(t *testing.T) {
	dir := t.TempDir()

	store, err := OpenCredentialStore(dir, CredentialsConfig{Method: "plaintext"})
	if err != nil {
		t.Fatalf("OpenCredentialStore() on empty dir error = %v", err)
	}
	if err := store.Set("openai", "sk-1"); err != nil {
		t.Fatal(err)
	}
	if err := store.Set("", "x"); err == nil {
		t.Error("expected error for empty provider id")
	}
	if err := store.Save(); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	info, err := os.Stat(filepath.Join(dir, "credentials.toml"))
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("credentials perms = %v, want 0600", info.Mode().Perm())
	}

	reloaded, err := OpenCredentialStore(dir, CredentialsConfig{})
	if err != nil {
		t.Fatal(err)
	}
	if got := reloaded.Get("openai"); got != "sk-1" {
		t.Errorf("Get(openai) = %q", got)
	}
	if ids := reloaded.Providers(); len(ids) != 1 || ids[0] != "openai" {
		t.Errorf("Providers() = %v", ids)
	}

	reloaded.Delete("openai")
	if err := reloaded.Save(); err != nil {
		t.Fatal(err)
	}
	if again, _ := OpenCredentialStore(dir, CredentialsConfig{}); len(again.Providers()) != 0 {
		t.Errorf("Providers() after delete = %v", again.Providers())
	}

	if _, err := OpenCredentialStore(dir, CredentialsConfig{Method: "keychain"}); err == nil {
		t.Error("expected error for unknown method")
	}
}

func writeSSHKey(t *testing.T, dir, name string, key crypto.PrivateKey, passphrase string) string {
	t.Helper()
	var block *pem.Block
	var err error
	if passphrase == "" {
		block, err = ssh.MarshalPrivateKey(key, "test")
	} else {
		block, err = ssh.MarshalPrivateKeyWithPassphrase(key, "test", []byte(passphrase))
	}
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, pem.EncodeToMemory(block), 0600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestCredentialStoreSSHKey(t *testing.T) {
	_, edKey, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatal(err)
	}
	ecKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name       string
		key        crypto.PrivateKey
		keyPass    string
		envPass    string
		wantSaveIn string // substring of the Save error, empty for success
	}{
		{name: "ed25519", key: edKey},
		{name: "encrypted key with passphrase", key: edKey, keyPass: "hunter2", envPass: "hunter2"},
		{name: "encrypted key without passphrase", key: edKey, keyPass: "hunter2", wantSaveIn: PassphraseEnv},
		{name: "ecdsa key", key: ecKey, wantSaveIn: "ecdsa"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(PassphraseEnv, tt.envPass)
			dir := t.TempDir()
			keyPath := writeSSHKey(t, dir, "id_test", tt.key, tt.keyPass)
			cc := CredentialsConfig{Method: "ssh_key", SSHKeyPath: keyPath}

			store, err := OpenCredentialStore(dir, cc)
			if err != nil {
				t.Fatalf("a missing file needs no key: %v", err)
			}
			if err := store.Set("anthropic", "sk-secret"); err != nil {
				t.Fatal(err)
			}
			err = store.Save()
			if tt.wantSaveIn != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantSaveIn) {
					t.Fatalf("Save() error = %v, want it to mention %q", err, tt.wantSaveIn)
				}
				return
			}
			if err != nil {
				t.Fatalf("Save() error = %v", err)
			}

			raw, err := os.ReadFile(filepath.Join(dir, "credentials.enc"))
			if err != nil {
				t.Fatal(err)
			}
			if strings.Contains(string(raw), "sk-secret") {
				t.Error("key stored in the clear")
			}

			reloaded, err := OpenCredentialStore(dir, cc)
			if err != nil {
				t.Fatal(err)
			}
			if got := reloaded.Get("anthropic"); got != "sk-secret" {
				t.Errorf("Get(anthropic) = %q", got)
			}
			if reloaded.Method() != SecuritySSHKey {
				t.Errorf("Method() = %q", reloaded.Method())
			}

			_, otherKey, _ := ed25519.GenerateKey(rand.Reader)
			other := writeSSHKey(t, dir, "id_other", otherKey, "")
			if _, err := OpenCredentialStore(dir, CredentialsConfig{Method: "ssh_key", SSHKeyPath: other}); err == nil {
				t.Error("expected a different key to fail decryption")
			}
		})
	}
}

func TestCredentialStoreFindsDefaultKey(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv(PassphraseEnv, "")
	sshDir := filepath.Join(home, ".ssh")
	if err := os.MkdirAll(sshDir, 0700); err != nil {
		t.Fatal(err)
	}

	_, key, _ := ed25519.GenerateKey(rand.Reader)
	writeSSHKey(t, sshDir, "id_rsa", key, "")
	writeSSHKey(t, sshDir, "id_ed25519", key, "")
	writeSSHKey(t, sshDir, "id_ecdsa", key, "")
	if err := os.WriteFile(filepath.Join(sshDir, "id_ed25519.pub"), []byte("ssh-ed25519 AAAA"), 0644); err != nil {
		t.Fatal(err)
	}

	found := FindSSHKeys(sshDir)
	want := []string{filepath.Join(sshDir, "id_ed25519"), filepath.Join(sshDir, "id_rsa")}
	if len(found) != 2 || found[0] != want[0] || found[1] != want[1] {
		t.Errorf("FindSSHKeys() = %v, want %v", found, want)
	}

	dir := t.TempDir()
	store, err := OpenCredentialStore(dir, CredentialsConfig{Method: "ssh_key"})
	if err != nil {
		t.Fatal(err)
	}
	if err := store.Set("openai", "sk-1"); err != nil {
		t.Fatal(err)
	}
	if err := store.Save(); err != nil {
		t.Fatalf("Save() with the default key: %v", err)
	}
}
