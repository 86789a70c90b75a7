package secure

import (
	"bytes"
	"encoding/base64"
	"errors"
	"testing"
)

var testMaster = bytes.Repeat([]byte{0x42}, keySize)

func newTestBox(t *testing.T, identity string) *SecretBox {
	t.Helper()
	b, err := NewSecretBox(testMaster, identity)
	if err != nil {
		t.Fatalf("NewSecretBox: %v", err)
	}
	return b
}

func TestSecretBox_RoundTrip(t *testing.T) {
	b := newTestBox(t, "1000:alice")
	for _, plain := range []string{"", "a@b.com", "ünïcödé ✓ 日本語", string(bytes.Repeat([]byte("x"), 4096))} {
		ct, err := b.Encrypt(plain)
		if err != nil {
			t.Fatalf("Encrypt(%q): %v", plain, err)
		}
		if _, err := base64.StdEncoding.DecodeString(ct); err != nil {
			t.Errorf("ciphertext is not base64: %v", err)
		}
		got, err := b.Decrypt(ct)
		if err != nil {
			t.Fatalf("Decrypt: %v", err)
		}
		if got != plain {
			t.Errorf("round trip = %q, want %q", got, plain)
		}
	}
}

func TestSecretBox_NonDeterministic(t *testing.T) {
	b := newTestBox(t, "1000:alice")
	c1, err := b.Encrypt("same")
	if err != nil {
		t.Fatal(err)
	}
	c2, err := b.Encrypt("same")
	if err != nil {
		t.Fatal(err)
	}
	if c1 == c2 {
		t.Error("expected different ciphertexts for repeated encryption")
	}
}

func TestSecretBox_OtherIdentityFails(t *testing.T) {
	alice := newTestBox(t, "1000:alice")
	bob := newTestBox(t, "1001:bob")

	ct, err := alice.Encrypt("a@b.com")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := bob.Decrypt(ct); !errors.Is(err, ErrCrypto) {
		t.Errorf("Decrypt under another identity: err = %v, want ErrCrypto", err)
	}
}

func TestSecretBox_DecryptRejects(t *testing.T) {
	b := newTestBox(t, "1000:alice")
	ct, err := b.Encrypt("payload")
	if err != nil {
		t.Fatal(err)
	}
	raw, _ := base64.StdEncoding.DecodeString(ct)
	raw[len(raw)-1] ^= 0xff
	tampered := base64.StdEncoding.EncodeToString(raw)

	cases := map[string]string{
		"not base64": "this is not base64!",
		"truncated":  base64.StdEncoding.EncodeToString([]byte("short")),
		"tampered":   tampered,
		"empty":      "",
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := b.Decrypt(in); !errors.Is(err, ErrCrypto) {
				t.Errorf("Decrypt(%q) err = %v, want ErrCrypto", in, err)
			}
		})
	}
}

func TestNewSecretBox_Validation(t *testing.T) {
	if _, err := NewSecretBox([]byte("short"), "1000:alice"); !errors.Is(err, ErrCrypto) {
		t.Errorf("short master: err = %v, want ErrCrypto", err)
	}
	if _, err := NewSecretBox(testMaster, ""); !errors.Is(err, ErrCrypto) {
		t.Errorf("empty identity: err = %v, want ErrCrypto", err)
	}
}

func TestCurrentIdentity(t *testing.T) {
	id, err := CurrentIdentity()
	if err != nil {
		t.Skipf("no current user in this environment: %v", err)
	}
	if id == "" || id == ":" {
		t.Errorf("CurrentIdentity() = %q", id)
	}
}
