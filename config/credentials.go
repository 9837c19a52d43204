package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/BurntSushi/toml"
)

// SecurityMethod selects how the credential file is stored.
type SecurityMethod string

const (
	SecurityPlainText SecurityMethod = "plaintext"
	SecuritySSHKey    SecurityMethod = "ssh_key"
)

const (
	plainCredentialsFile  = "credentials.toml"
	sealedCredentialsFile = "credentials.enc"
)

// credentialBackend reads and writes the provider → key map.
type credentialBackend interface {
	read() (map[string]string, error)
	write(keys map[string]string) error
}

// CredentialStore holds API keys per provider, backed by a file in the data
// directory. Changes are kept in memory until Save.
type CredentialStore struct {
	method  SecurityMethod
	keys    map[string]string
	backend credentialBackend
}

// OpenCredentialStore reads the store described by c from dataDir. A missing
// file is an empty store. For ssh_key without ssh_key_path the first key
// found in ~/.ssh is used, and CHATCLI_SSH_PASSPHRASE unlocks an encrypted
// key.
func OpenCredentialStore(dataDir string, c CredentialsConfig) (*CredentialStore, error) {
	method := SecurityMethod(c.Method)

	var backend credentialBackend
	switch method {
	case "", SecurityPlainText:
		method = SecurityPlainText
		backend = plainFile{path: filepath.Join(dataDir, plainCredentialsFile)}
	case SecuritySSHKey:
		keyPath := ExpandPath(c.SSHKeyPath)
		if keyPath == "" {
			if found := FindSSHKeys(sshDir()); len(found) > 0 {
				keyPath = found[0]
			}
		}
		backend = &sealedFile{
			path:       filepath.Join(dataDir, sealedCredentialsFile),
			keyPath:    keyPath,
			passphrase: os.Getenv(PassphraseEnv),
		}
	default:
		return nil, fmt.Errorf("unknown credential method %q", c.Method)
	}

	keys, err := backend.read()
	if err != nil {
		return nil, err
	}
	if keys == nil {
		keys = make(map[string]string)
	}
	return &CredentialStore{method: method, keys: keys, backend: backend}, nil
}

func (c *CredentialStore) Get(providerID string) string {
	return c.keys[providerID]
}

func (c *CredentialStore) Set(providerID, apiKey string) error {
	if providerID == "" {
		return errors.New("provider id is required")
	}
	c.keys[providerID] = apiKey
	return nil
}

func (c *CredentialStore) Delete(providerID string) {
	delete(c.keys, providerID)
}

// Providers returns the provider IDs that have a stored key, sorted.
func (c *CredentialStore) Providers() []string {
	ids := make([]string, 0, len(c.keys))
	for id := range c.keys {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (c *CredentialStore) Method() SecurityMethod {
	return c.method
}

// Save writes every key back to disk.
func (c *CredentialStore) Save() error {
	return c.backend.write(c.keys)
}

type credentialsFile struct {
	Credentials map[string]string `toml:"credentials"`
}

// plainFile is credentials.toml, readable by the owner only.
type plainFile struct {
	path string
}

func (f plainFile) read() (map[string]string, error) {
	var cf credentialsFile
	if _, err := toml.DecodeFile(f.path, &cf); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to parse %s: %w", f.path, err)
	}
	return cf.Credentials, nil
}

func (f plainFile) write(keys map[string]string) error {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(credentialsFile{Credentials: keys}); err != nil {
		return fmt.Errorf("failed to encode credentials: %w", err)
	}
	return writePrivate(f.path, buf.Bytes())
}

// sealedFile is credentials.enc: the JSON key map sealed with a key derived
// from an SSH private key. The SSH key is only read when the file exists or
// is written.
type sealedFile struct {
	path       string
	keyPath    string
	passphrase string
	box        *sealer
}

func (f *sealedFile) sealer() (*sealer, error) {
	if f.box != nil {
		return f.box, nil
	}
	if f.keyPath == "" {
		return nil, errors.New("no SSH key found in ~/.ssh: set credentials.ssh_key_path")
	}
	signer, err := loadSigner(f.keyPath, f.passphrase)
	if err != nil {
		return nil, err
	}
	box, err := newSealer(signer)
	if err != nil {
		return nil, err
	}
	f.box = box
	return box, nil
}

func (f *sealedFile) read() (map[string]string, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	box, err := f.sealer()
	if err != nil {
		return nil, err
	}
	plain, err := box.open(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt %s (was it written with another key?): %w", f.path, err)
	}

	var keys map[string]string
	if err := json.Unmarshal(plain, &keys); err != nil {
		return nil, fmt.Errorf("failed to parse decrypted credentials: %w", err)
	}
	return keys, nil
}

func (f *sealedFile) write(keys map[string]string) error {
	box, err := f.sealer()
	if err != nil {
		return err
	}
	plain, err := json.Marshal(keys)
	if err != nil {
		return err
	}
	data, err := box.seal(plain)
	if err != nil {
		return fmt.Errorf("failed to encrypt credentials: %w", err)
	}
	return writePrivate(f.path, data)
}

// writePrivate replaces path with data through a 0600 temp file in the same
// directory, so a failed write leaves the old file intact.
func writePrivate(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".credentials-*")
	if err != nil {
		return fmt.Errorf("failed to create credentials file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := tmp.Chmod(0600); err != nil {
		tmp.Close()
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write credentials: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
