// Package cryptox implements the reversible secret codec and the key
// material helpers behind it.
package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/credvault/internal/common"
)

const keyIDSeparator = "$"

var encoding = base64.RawURLEncoding.Strict()

// Codec turns plaintext secrets into self-describing ciphertext strings and
// back. Ciphertexts look like
//
//	<keyID>$<base64url(nonce || AES-256-GCM sealed data)>
//
// The key id is authenticated as additional data, so moving a payload under
// another id fails. A fresh random nonce is drawn for every call, so two
// encryptions of the same plaintext differ.
//
// A Codec is immutable after construction and safe for concurrent use.
type Codec struct {
	active string
	aeads  map[string]cipher.AEAD
}

// NewCodec validates kr and prepares one AEAD per key.
func NewCodec(kr Keyring) (*Codec, error) {
	if err := kr.validate(); err != nil {
		return nil, err
	}

	aeads := make(map[string]cipher.AEAD, len(kr.Keys))
	for id, key := range kr.Keys {
		block, err := aes.NewCipher(key)
		if err != nil {
			return nil, fmt.Errorf("aes cipher for key %q: %w", id, err)
		}
		aead, err := cipher.NewGCM(block)
		if err != nil {
			return nil, fmt.Errorf("gcm for key %q: %w", id, err)
		}
		aeads[id] = aead
	}

	return &Codec{active: kr.Active, aeads: aeads}, nil
}

// ActiveKeyID is the id stamped on new ciphertexts.
func (c *Codec) ActiveKeyID() string {
	return c.active
}

// Encrypt seals plaintext under the active key.
func (c *Codec) Encrypt(plaintext string) (string, error) {
	aead := c.aeads[c.active]

	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}

	sealed := aead.Seal(nonce, nonce, []byte(plaintext), []byte(c.active))

	return c.active + keyIDSeparator + encoding.EncodeToString(sealed), nil
}

// Decrypt reverses Encrypt. Every failure, whatever its cause, matches
// common.ErrDecryption.
func (c *Codec) Decrypt(ciphertext string) (string, error) {
	id, payload, ok := strings.Cut(ciphertext, keyIDSeparator)
	if !ok {
		return "", fmt.Errorf("%w: missing key id", common.ErrDecryption)
	}

	aead, ok := c.aeads[id]
	if !ok {
		return "", fmt.Errorf("%w: unknown key %q", common.ErrDecryption, id)
	}

	raw, err := encoding.DecodeString(payload)
	if err != nil {
		return "", fmt.Errorf("%w: malformed payload", common.ErrDecryption)
	}

	ns := aead.NonceSize()
	if len(raw) < ns+aead.Overhead() {
		return "", fmt.Errorf("%w: payload too short", common.ErrDecryption)
	}

	plaintext, err := aead.Open(nil, raw[:ns], raw[ns:], []byte(id))
	if err != nil {
		return "", fmt.Errorf("%w: authentication failed", common.ErrDecryption)
	}

	return string(plaintext), nil
}

// KeyID reports which key sealed ciphertext, without decrypting it.
func KeyID(ciphertext string) (string, bool) {
	id, _, ok := strings.Cut(ciphertext, keyIDSeparator)
	if !ok || id == "" {
		return "", false
	}
	return id, true
}
