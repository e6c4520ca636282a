package cryptox

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"sort"
	"strings"

	"golang.org/x/crypto/argon2"
)

// KeySize is the length of every codec key (AES-256).
const KeySize = 32

// DeriveMasterKey stretches a password into a KeySize key with argon2id.
func DeriveMasterKey(password []byte, salt []byte) []byte {
	return argon2.IDKey(password, salt, 1, 64*1024, 4, KeySize)
}

// KeySalt returns the derivation salt for a key id. Salts differ per id so
// the same passphrase reused under two ids yields two unrelated keys.
func KeySalt(keyID string) []byte {
	sum := sha256.Sum256([]byte("credvault:key:" + keyID))
	return sum[:]
}

// Keyring is a set of versioned codec keys. Active names the key used for
// new ciphertexts; every other key is retired and only decrypts.
type Keyring struct {
	Active string
	Keys   map[string][]byte
}

// BuildKeyring merges passphrase-derived keys and raw keys (for example
// unwrapped from KMS) into a Keyring. A raw key wins over a passphrase
// registered under the same id.
func BuildKeyring(active string, passphrases map[string]string, raw map[string][]byte) (Keyring, error) {
	kr := Keyring{Active: active, Keys: make(map[string][]byte, len(passphrases)+len(raw))}

	for id, pass := range passphrases {
		if pass == "" {
			return Keyring{}, fmt.Errorf("empty passphrase for key %q", id)
		}
		kr.Keys[id] = DeriveMasterKey([]byte(pass), KeySalt(id))
	}
	for id, key := range raw {
		kr.Keys[id] = key
	}

	if err := kr.validate(); err != nil {
		return Keyring{}, err
	}
	return kr, nil
}

// IDs returns the key ids in sorted order.
func (k Keyring) IDs() []string {
	ids := make([]string, 0, len(k.Keys))
	for id := range k.Keys {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (k Keyring) validate() error {
	if k.Active == "" {
		return errors.New("no active key id")
	}
	if _, ok := k.Keys[k.Active]; !ok {
		return fmt.Errorf("active key %q is not in the keyring", k.Active)
	}
	for id, key := range k.Keys {
		if id == "" || strings.Contains(id, keyIDSeparator) {
			return fmt.Errorf("invalid key id %q", id)
		}
		if len(key) != KeySize {
			return fmt.Errorf("key %q must be %d bytes, got %d", id, KeySize, len(key))
		}
	}
	return nil
}
