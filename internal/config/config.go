// Package config persists the bridge's local settings. The file is plain
// JSON unless a passphrase is supplied, in which case it is sealed with
// AES-GCM under an scrypt-derived key.
package config

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/crypto/scrypt"
)

const (
	configDirName    = "pwabridge"
	plainFileName    = "settings.json"
	sealedFileName   = "settings.enc"
	saltSize         = 16
	nonceSize        = 12
	sealedMagic      = "PWAB1"
	passphraseEnvVar = "PWABRIDGE_SETTINGS_KEY"
)

// NativeVersionCheckDisabled disables the connector version comparison when
// set to true. The runtime presence check is never skipped.
const NativeVersionCheckDisabled = "updates.native-version-check-disabled"

// Settings is a flat namespaced key-value document.
type Settings struct {
	Values map[string]json.RawMessage `json:"values"`
}

// Bool reports whether key holds the JSON value true. Any other value,
// including "true" as a string, reads as false.
func (s *Settings) Bool(key string) bool {
	if s == nil {
		return false
	}
	raw, ok := s.Values[key]
	if !ok {
		return false
	}
	var value bool
	if err := json.Unmarshal(raw, &value); err != nil {
		return false
	}
	return value
}

// Get returns the raw JSON stored under key.
func (s *Settings) Get(key string) (json.RawMessage, bool) {
	if s == nil {
		return nil, false
	}
	raw, ok := s.Values[key]
	return raw, ok
}

// Set stores value under key.
func (s *Settings) Set(key string, value any) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return errors.New("missing setting key")
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if s.Values == nil {
		s.Values = make(map[string]json.RawMessage)
	}
	s.Values[key] = raw
	return nil
}

// Delete removes key.
func (s *Settings) Delete(key string) {
	delete(s.Values, key)
}

// Keys returns the stored keys in sorted order.
func (s *Settings) Keys() []string {
	keys := make([]string, 0, len(s.Values))
	for key := range s.Values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Passphrase returns the sealing passphrase from the environment.
func Passphrase() string {
	return strings.TrimSpace(os.Getenv(passphraseEnvVar))
}

// Path returns the resolved settings file path. PWABRIDGE_SETTINGS_PATH
// overrides the per-user default.
func Path(sealed bool) (string, error) {
	if custom := os.Getenv("PWABRIDGE_SETTINGS_PATH"); custom != "" {
		if err := os.MkdirAll(filepath.Dir(custom), 0o700); err != nil {
			return "", fmt.Errorf("ensure custom settings directory: %w", err)
		}
		return custom, nil
	}

	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("determine user config dir: %w", err)
	}

	dir := filepath.Join(base, configDirName)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("ensure settings directory: %w", err)
	}

	name := plainFileName
	if sealed {
		name = sealedFileName
	}
	return filepath.Join(dir, name), nil
}

// Load reads the settings. A missing file yields empty settings. Sealed
// files need the passphrase they were written with.
func Load(passphrase string) (*Settings, error) {
	path, err := Path(passphrase != "")
	if err != nil {
		return nil, err
	}

	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return &Settings{Values: map[string]json.RawMessage{}}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}

	data := raw
	if bytes.HasPrefix(raw, []byte(sealedMagic)) {
		if passphrase == "" {
			return nil, fmt.Errorf("settings at %s are sealed; set %s", path, passphraseEnvVar)
		}
		data, err = decrypt(raw[len(sealedMagic):], passphrase)
		if err != nil {
			return nil, fmt.Errorf("decrypt settings: %w", err)
		}
	}

	var settings Settings
	if err := json.Unmarshal(data, &settings); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}
	if settings.Values == nil {
		settings.Values = map[string]json.RawMessage{}
	}
	return &settings, nil
}

// Save writes the settings atomically, sealing them when passphrase is set.
func Save(settings *Settings, passphrase string) error {
	raw, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	data := raw
	if passphrase != "" {
		sealed, err := encrypt(raw, passphrase)
		if err != nil {
			return fmt.Errorf("encrypt settings: %w", err)
		}
		data = append([]byte(sealedMagic), sealed...)
	}

	path, err := Path(passphrase != "")
	if err != nil {
		return err
	}

	tempFile := path + ".tmp"
	if err := os.WriteFile(tempFile, data, 0o600); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	return os.Rename(tempFile, path)
}

func encrypt(plaintext []byte, passphrase string) ([]byte, error) {
	salt := make([]byte, saltSize)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, fmt.Errorf("generate salt: %w", err)
	}

	gcm, err := newGCM(passphrase, salt)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, nonceSize)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("generate nonce: %w", err)
	}

	sealed := gcm.Seal(nil, nonce, plaintext, nil)

	out := make([]byte, 0, saltSize+nonceSize+len(sealed))
	out = append(out, salt...)
	out = append(out, nonce...)
	out = append(out, sealed...)
	return out, nil
}

func decrypt(ciphertext []byte, passphrase string) ([]byte, error) {
	if len(ciphertext) < saltSize+nonceSize {
		return nil, errors.New("ciphertext too short")
	}

	salt := ciphertext[:saltSize]
	nonce := ciphertext[saltSize : saltSize+nonceSize]
	payload := ciphertext[saltSize+nonceSize:]

	gcm, err := newGCM(passphrase, salt)
	if err != nil {
		return nil, err
	}
	return gcm.Open(nil, nonce, payload, nil)
}

func newGCM(passphrase string, salt []byte) (cipher.AEAD, error) {
	const (
		keyLength = 32
		n         = 1 << 15
		r         = 8
		p         = 1
	)

	key, err := scrypt.Key([]byte(passphrase), salt, n, r, p, keyLength)
	if err != nil {
		return nil, fmt.Errorf("derive key: %w", err)
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("create gcm: %w", err)
	}
	return gcm, nil
}
