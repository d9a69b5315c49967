package wallet

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/99designs/keyring"
)

const keychainService = "btrd"

// PasswordEnv unlocks the file keyring without a terminal prompt.
const PasswordEnv = "BTRD_KEYRING_PASSWORD"

// ErrKeyNotFound is returned when no key is stored under a name.
var ErrKeyNotFound = errors.New("key not found")

// KeySource stores and retrieves hex private keys by name.
type KeySource interface {
	Store(name, hexKey string) (string, error)
	Retrieve(name string) (string, error)
	Delete(name string) error
}

// KeyRef is the keychain item key for a key name.
func KeyRef(name string) string {
	return keychainService + "." + name
}

// Keystore wraps OS keychain access.
type Keystore struct {
	ring keyring.Keyring
}

// DefaultKeystore returns a keystore backed by the OS keychain, falling back to
// an encrypted file store under ~/.btrd/keys on headless machines.
func DefaultKeystore() (*Keystore, error) {
	cfg := keyring.Config{
		ServiceName:              keychainService,
		KeychainTrustApplication: true,
		FileDir:                  keyFileDir(),
		FilePasswordFunc:         filePassword,
	}

	if runtime.GOOS == "linux" {
		cfg.AllowedBackends = []keyring.BackendType{
			keyring.SecretServiceBackend,
			keyring.KWalletBackend,
			keyring.FileBackend,
		}
	}

	ring, err := keyring.Open(cfg)
	if err != nil {
		cfg.AllowedBackends = []keyring.BackendType{keyring.FileBackend}
		ring, err = keyring.Open(cfg)
		if err != nil {
			return nil, fmt.Errorf("opening keyring: %w", err)
		}
	}
	return &Keystore{ring: ring}, nil
}

// NewKeystore wraps an already opened keyring.
func NewKeystore(ring keyring.Keyring) *Keystore {
	return &Keystore{ring: ring}
}

func keyFileDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".btrd", "keys")
	}
	return filepath.Join(home, ".btrd", "keys")
}

func filePassword(prompt string) (string, error) {
	if pw := os.Getenv(PasswordEnv); pw != "" {
		return pw, nil
	}
	return keyring.TerminalPrompt(prompt)
}

// Store saves a private key under name and returns its keychain reference.
func (k *Keystore) Store(name, hexKey string) (string, error) {
	ref := KeyRef(name)
	err := k.ring.Set(keyring.Item{
		Key:         ref,
		Data:        []byte(normaliseHexKey(hexKey)),
		Label:       "btrd deployer key " + name,
		Description: "private key used by btrd to sign deployments",
	})
	if err != nil {
		return "", fmt.Errorf("keychain store: %w", err)
	}
	return ref, nil
}

// Retrieve fetches the private key stored under name.
func (k *Keystore) Retrieve(name string) (string, error) {
	item, err := k.ring.Get(KeyRef(name))
	if errors.Is(err, keyring.ErrKeyNotFound) {
		return "", fmt.Errorf("%w: %s", ErrKeyNotFound, name)
	}
	if err != nil {
		return "", fmt.Errorf("keychain retrieve: %w", err)
	}
	return string(item.Data), nil
}

// Delete removes the key stored under name.
func (k *Keystore) Delete(name string) error {
	if _, err := k.Retrieve(name); err != nil {
		return err
	}
	if err := k.ring.Remove(KeyRef(name)); err != nil {
		return fmt.Errorf("keychain remove: %w", err)
	}
	return nil
}

// InMemoryKeystore keeps keys in memory (for tests).
type InMemoryKeystore struct {
	mu   sync.Mutex
	data map[string]string
}

// NewInMemoryKeystore creates an in-memory keystore.
func NewInMemoryKeystore() *InMemoryKeystore {
	return &InMemoryKeystore{data: make(map[string]string)}
}

func (k *InMemoryKeystore) Store(name, hexKey string) (string, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	ref := KeyRef(name)
	k.data[ref] = normaliseHexKey(hexKey)
	return ref, nil
}

func (k *InMemoryKeystore) Retrieve(name string) (string, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	v, ok := k.data[KeyRef(name)]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrKeyNotFound, name)
	}
	return v, nil
}

func (k *InMemoryKeystore) Delete(name string) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	ref := KeyRef(name)
	if _, ok := k.data[ref]; !ok {
		return fmt.Errorf("%w: %s", ErrKeyNotFound, name)
	}
	delete(k.data, ref)
	return nil
}

// normaliseHexKey trims whitespace and a 0x prefix.
func normaliseHexKey(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		s = s[2:]
	}
	return s
}
