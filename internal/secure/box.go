// Package secure encrypts individual setting values at rest. Keys are scoped
// to the current OS user: a master key held in the user's credential store is
// bound to the user's identity before use, so ciphertext written by one user
// does not open for another.
package secure

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"unicode/utf8"

	"golang.org/x/crypto/hkdf"
	"golang.org/x/crypto/nacl/secretbox"
)

// ErrCrypto is returned for any encryption or decryption failure: malformed
// encoding, tampered or truncated ciphertext, or a foreign user identity.
var ErrCrypto = errors.New("crypto failure")

const (
	keySize   = 32
	nonceSize = 24
)

// Box transforms text to and from a transport-safe ciphertext.
type Box interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(ciphertext string) (string, error)
}

// SecretBox is a Box built on NaCl secretbox. It is stateless and safe for
// concurrent use.
type SecretBox struct {
	key [keySize]byte
}

// NewSecretBox derives the box key from master and identity with
// HKDF-SHA256. Two boxes built from the same master but different
// identities cannot read each other's output.
func NewSecretBox(master []byte, identity string) (*SecretBox, error) {
	if len(master) < keySize {
		return nil, fmt.Errorf("%w: master key is %d bytes, need at least %d", ErrCrypto, len(master), keySize)
	}
	if identity == "" {
		return nil, fmt.Errorf("%w: empty user identity", ErrCrypto)
	}
	b := &SecretBox{}
	r := hkdf.New(sha256.New, master, nil, []byte("appsettings/value-key/v1/"+identity))
	if _, err := io.ReadFull(r, b.key[:]); err != nil {
		return nil, fmt.Errorf("%w: deriving key: %v", ErrCrypto, err)
	}
	return b, nil
}

// Encrypt seals plaintext under a fresh random nonce and returns
// base64(nonce || sealed). Repeated calls yield different output.
func (b *SecretBox) Encrypt(plaintext string) (string, error) {
	var nonce [nonceSize]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return "", fmt.Errorf("%w: generating nonce: %v", ErrCrypto, err)
	}
	sealed := secretbox.Seal(nonce[:], []byte(plaintext), &nonce, &b.key)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

func (b *SecretBox) Decrypt(ciphertext string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", fmt.Errorf("%w: malformed base64: %v", ErrCrypto, err)
	}
	if len(raw) < nonceSize+secretbox.Overhead {
		return "", fmt.Errorf("%w: ciphertext truncated (%d bytes)", ErrCrypto, len(raw))
	}

	var nonce [nonceSize]byte
	copy(nonce[:], raw[:nonceSize])
	plain, ok := secretbox.Open(nil, raw[nonceSize:], &nonce, &b.key)
	if !ok {
		return "", fmt.Errorf("%w: authentication failed (corrupt data or different user)", ErrCrypto)
	}
	if !utf8.Valid(plain) {
		return "", fmt.Errorf("%w: plaintext is not valid UTF-8", ErrCrypto)
	}
	return string(plain), nil
}
