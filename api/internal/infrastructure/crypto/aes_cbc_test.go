package crypto_test

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"strings"
	"testing"

	"github.com/irgordon/helix/api/internal/core/domain"
	"github.com/irgordon/helix/api/internal/infrastructure/crypto"
)

// generateTestKey creates a random 256-bit AES key.
func generateTestKey(t *testing.T) []byte {
	t.Helper()
	key := make([]byte, crypto.KeySize)
	if _, err := rand.Read(key); err != nil {
		t.Fatalf("Failed to generate test key: %v", err)
	}
	return key
}

func newService(t *testing.T) *crypto.AESCryptoService {
	t.Helper()
	svc, err := crypto.NewAESCryptoService(generateTestKey(t))
	if err != nil {
		t.Fatalf("Failed to create crypto service: %v", err)
	}
	return svc
}

// ==============================================================================
// 1. Fundamental Correctness
// ==============================================================================

func TestAESCBC_EncryptDecrypt_RoundTrip(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()
	plaintext := []byte("Patient ID: 67890, Diagnosis: Top Secret Medical Data")

	blob, err := svc.Encrypt(ctx, plaintext)
	if err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}

	decrypted, err := svc.Decrypt(ctx, blob)
	if err != nil {
		t.Fatalf("Decrypt failed: %v", err)
	}

	if string(decrypted) != string(plaintext) {
		t.Errorf("Round-trip failed: got %q, want %q", decrypted, plaintext)
	}
}

func TestAESCBC_Blob_Layout(t *testing.T) {
	svc := newService(t)

	// 16 bytes of plaintext pad to 32, plus the 16-byte IV
	blob, err := svc.Encrypt(context.Background(), []byte("exactly16bytes!!"))
	if err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}

	raw, err := base64.StdEncoding.DecodeString(blob)
	if err != nil {
		t.Fatalf("Blob is not standard Base64: %v", err)
	}
	if len(raw) != 48 {
		t.Errorf("Expected 48 raw bytes (IV + 2 blocks), got %d", len(raw))
	}
}

func TestAESCBC_Empty_Plaintext(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	blob, err := svc.Encrypt(ctx, []byte{})
	if err != nil {
		t.Fatalf("Encrypt empty plaintext failed: %v", err)
	}

	decrypted, err := svc.Decrypt(ctx, blob)
	if err != nil {
		t.Fatalf("Decrypt empty plaintext failed: %v", err)
	}
	if len(decrypted) != 0 {
		t.Errorf("Expected empty plaintext, got %d bytes", len(decrypted))
	}
}

// ==============================================================================
// 2. IV Freshness
// ==============================================================================

func TestAESCBC_IV_Uniqueness(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		blob, err := svc.Encrypt(ctx, []byte("identical-plaintext"))
		if err != nil {
			t.Fatalf("Encrypt #%d failed: %v", i, err)
		}
		if seen[blob] {
			t.Fatalf("IV reuse detected at iteration %d: identical ciphertext produced", i)
		}
		seen[blob] = true
	}
}

// ==============================================================================
// 3. Key Handling
// ==============================================================================

func TestAESCBC_Key_Validation(t *testing.T) {
	cases := []struct {
		name string
		key  string
	}{
		{"Empty", ""},
		{"NotBase64", "not base64 at all!!"},
		{"URLSafeAlphabet", strings.Repeat("-_", 22)},
		{"Short", base64.StdEncoding.EncodeToString(make([]byte, 16))},
		{"Long", base64.StdEncoding.EncodeToString(make([]byte, 33))},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := crypto.NewAESCryptoServiceFromBase64(tc.key)
			if !errors.Is(err, domain.ErrKeyFormat) {
				t.Fatalf("Expected ErrKeyFormat, got %v", err)
			}
		})
	}
}

func TestAESCBC_Base64_Key_Exchange(t *testing.T) {
	enc, err := crypto.NewRandomAESCryptoService()
	if err != nil {
		t.Fatalf("Random key generation failed: %v", err)
	}

	raw, err := base64.StdEncoding.DecodeString(enc.KeyBase64())
	if err != nil || len(raw) != crypto.KeySize {
		t.Fatalf("Exported key is not 32 bytes of Base64: len=%d err=%v", len(raw), err)
	}

	dec, err := crypto.NewAESCryptoServiceFromBase64(enc.KeyBase64())
	if err != nil {
		t.Fatalf("Importing exported key failed: %v", err)
	}

	ctx := context.Background()
	blob, err := enc.Encrypt(ctx, []byte("Critical Confidential Data"))
	if err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}
	out, err := dec.Decrypt(ctx, blob)
	if err != nil {
		t.Fatalf("Decrypt with imported key failed: %v", err)
	}
	if string(out) != "Critical Confidential Data" {
		t.Errorf("Got %q after key exchange", out)
	}
}

func TestDeriveKey_Padding_And_Truncation(t *testing.T) {
	short := crypto.DeriveKey("MySecureKey123456789012345678")
	if string(short) != "MySecureKey123456789012345678000" {
		t.Errorf("Short key not '0'-padded: %q", short)
	}

	long := crypto.DeriveKey("WrongKey123456789012345678901234EXTRA")
	if string(long) != "WrongKey123456789012345678901234" {
		t.Errorf("Long key not truncated: %q", long)
	}

	// Truncation is byte-wise on the UTF-8 form
	multi := crypto.DeriveKey(strings.Repeat("é", 20))
	if len(multi) != crypto.KeySize {
		t.Errorf("Derived key has %d bytes", len(multi))
	}
}

// ==============================================================================
// 4. Integrity Signal (padding check only, no tag)
// ==============================================================================

func TestAESCBC_Wrong_Key_Rejection(t *testing.T) {
	ctx := context.Background()
	const trials = 64
	rejected := 0

	for i := 0; i < trials; i++ {
		enc, err := crypto.NewRandomAESCryptoService()
		if err != nil {
			t.Fatalf("Key generation failed: %v", err)
		}
		dec, err := crypto.NewRandomAESCryptoService()
		if err != nil {
			t.Fatalf("Key generation failed: %v", err)
		}

		blob, err := enc.Encrypt(ctx, []byte("Sensitive Data"))
		if err != nil {
			t.Fatalf("Encrypt failed: %v", err)
		}

		if _, err := dec.Decrypt(ctx, blob); err != nil {
			if !errors.Is(err, domain.ErrCipherIntegrity) {
				t.Fatalf("Expected ErrCipherIntegrity, got %v", err)
			}
			rejected++
		}
	}

	// A random pad is accepted roughly 1 time in 256; allow a few.
	if rejected < trials-4 {
		t.Errorf("Wrong key accepted too often: %d/%d rejected", rejected, trials)
	}
}

func TestAESCBC_Passphrase_Mismatch(t *testing.T) {
	ctx := context.Background()
	enc, _ := crypto.NewAESCryptoServiceFromPassphrase("CorrectKey12345678901234567890")
	dec, _ := crypto.NewAESCryptoServiceFromPassphrase("WrongKey123456789012345678901234")

	blob, err := enc.Encrypt(ctx, []byte("Sensitive Data"))
	if err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}

	out, err := dec.Decrypt(ctx, blob)
	if err == nil && string(out) == "Sensitive Data" {
		t.Fatal("Decrypt with the wrong passphrase recovered the plaintext")
	}
}

func TestAESCBC_Malformed_Blob(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	cases := map[string]string{
		"NotBase64":    "%%%",
		"TooShort":     base64.StdEncoding.EncodeToString(make([]byte, 16)),
		"NotBlockSize": base64.StdEncoding.EncodeToString(make([]byte, 40)),
	}

	for name, blob := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Decrypt(ctx, blob)
			if !errors.Is(err, domain.ErrCipherIntegrity) {
				t.Fatalf("Expected ErrCipherIntegrity, got %v", err)
			}
		})
	}
}
