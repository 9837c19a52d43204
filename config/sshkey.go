package config

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/crypto/ssh"
)

// PassphraseEnv holds the passphrase of an encrypted SSH key used by the
// ssh_key credential method.
const PassphraseEnv = "CHATCLI_SSH_PASSPHRASE"

// credentialKeyLabel is signed to derive the file key. Changing it makes
// existing credentials.enc files unreadable.
const credentialKeyLabel = "chat-cli-credentials-v1"

// ECDSA is left out: its signatures are randomized, so it cannot derive a
// stable file key.
var sshKeyNames = []string{"id_ed25519", "id_rsa"}

func sshDir() string {
	return filepath.Join(GetHomeDir(), ".ssh")
}

// FindSSHKeys returns the private keys in dir usable by the ssh_key
// credential method, most preferred first.
func FindSSHKeys(dir string) []string {
	var found []string
	for _, name := range sshKeyNames {
		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		if bytes.Contains(data, []byte("PRIVATE KEY")) {
			found = append(found, path)
		}
	}
	return found
}

// loadSigner parses the private key at path, using passphrase only when the
// key turns out to be encrypted.
func loadSigner(path, passphrase string) (ssh.Signer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read SSH key: %w", err)
	}

	signer, err := ssh.ParsePrivateKey(data)
	var missing *ssh.PassphraseMissingError
	if errors.As(err, &missing) {
		if passphrase == "" {
			return nil, fmt.Errorf("SSH key %s is encrypted: set %s", path, PassphraseEnv)
		}
		signer, err = ssh.ParsePrivateKeyWithPassphrase(data, []byte(passphrase))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse SSH key %s: %w", path, err)
	}

	if t := signer.PublicKey().Type(); strings.HasPrefix(t, "ecdsa-") {
		return nil, fmt.Errorf("SSH key %s is %s: use an ed25519 or RSA key", path, t)
	}
	if Debug && DebugLog != nil {
		DebugLog.Printf("[Config] credential key %s (%s)", path, signer.PublicKey().Type())
	}
	return signer, nil
}

// sealer is AES-256-GCM keyed by the SHA-256 of the SSH key's signature over
// credentialKeyLabel. Sealed data is the nonce followed by the ciphertext.
type sealer struct {
	aead cipher.AEAD
}

func newSealer(signer ssh.Signer) (*sealer, error) {
	sig, err := signer.Sign(rand.Reader, []byte(credentialKeyLabel))
	if err != nil {
		return nil, fmt.Errorf("failed to derive credential key: %w", err)
	}
	key := sha256.Sum256(sig.Blob)

	block, err := aes.NewCipher(key[:])
	if err != nil {
		return nil, err
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	return &sealer{aead: aead}, nil
}

func (s *sealer) seal(plain []byte) ([]byte, error) {
	nonce := make([]byte, s.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}
	return s.aead.Seal(nonce, nonce, plain, nil), nil
}

func (s *sealer) open(data []byte) ([]byte, error) {
	n := s.aead.NonceSize()
	if len(data) < n {
		return nil, errors.New("ciphertext too short")
	}
	return s.aead.Open(nil, data[:n], data[n:], nil)
}
