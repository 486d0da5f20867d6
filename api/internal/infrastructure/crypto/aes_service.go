package crypto

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"

	"github.com/irgordon/helix/api/internal/core/domain"
)

const (
	// KeySize is the AES-256 key length in bytes.
	KeySize = 32

	// padByte fills short passphrase-derived keys.
	padByte = '0'
)

// Compile-time check against the domain contract.
var _ domain.CipherService = (*AESCryptoService)(nil)

// AESCryptoService is AES-256-CBC with PKCS#7 padding and a fresh IV per call.
// Output is Base64(IV || ciphertext) using the standard alphabet.
type AESCryptoService struct {
	// 🛡️ Pre-built block; the raw key is kept only for Base64 export.
	block cipher.Block
	key   []byte
}

// NewAESCryptoService takes the raw 32-byte key.
func NewAESCryptoService(key []byte) (*AESCryptoService, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("crypto: %w (got %d bytes)", domain.ErrKeyFormat, len(key))
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("crypto: block cipher failure: %w", err)
	}

	k := make([]byte, KeySize)
	copy(k, key)
	return &AESCryptoService{block: block, key: k}, nil
}

// NewAESCryptoServiceFromBase64 accepts a key exchanged as standard Base64.
func NewAESCryptoServiceFromBase64(encoded string) (*AESCryptoService, error) {
	key, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("crypto: %w: %v", domain.ErrKeyFormat, err)
	}

	// 🛡️ Zeroize the temporary decode buffer once the service holds its own copy
	defer func() {
		for i := range key {
			key[i] = 0
		}
	}()

	return NewAESCryptoService(key)
}

// NewAESCryptoServiceFromPassphrase derives the key the legacy way: UTF-8
// bytes truncated to 32 or right-padded with ASCII '0'. This is weaker than a
// real KDF and kept for interoperability with existing stego images.
func NewAESCryptoServiceFromPassphrase(passphrase string) (*AESCryptoService, error) {
	return NewAESCryptoService(DeriveKey(passphrase))
}

// NewRandomAESCryptoService generates a fresh 32-byte key from crypto/rand.
func NewRandomAESCryptoService() (*AESCryptoService, error) {
	key := make([]byte, KeySize)
	if _, err := io.ReadFull(rand.Reader, key); err != nil {
		return nil, fmt.Errorf("crypto: key generation failure: %w", err)
	}
	return NewAESCryptoService(key)
}

// DeriveKey truncates or '0'-pads the UTF-8 bytes of s to exactly KeySize.
func DeriveKey(s string) []byte {
	key := make([]byte, KeySize)
	n := copy(key, s)
	for i := n; i < KeySize; i++ {
		key[i] = padByte
	}
	return key
}

func (s *AESCryptoService) KeyBase64() string {
	return base64.StdEncoding.EncodeToString(s.key)
}

func (s *AESCryptoService) Encrypt(ctx context.Context, plaintext []byte) (string, error) {
	padded := pkcs7Pad(plaintext, aes.BlockSize)

	// 🛡️ Capacity = IV + padded plaintext, written in place
	out := make([]byte, aes.BlockSize+len(padded))
	iv := out[:aes.BlockSize]
	if _, err := io.ReadFull(rand.Reader, iv); err != nil {
		return "", fmt.Errorf("crypto: iv generation failure: %w", err)
	}

	cipher.NewCBCEncrypter(s.block, iv).CryptBlocks(out[aes.BlockSize:], padded)

	return base64.StdEncoding.EncodeToString(out), nil
}

func (s *AESCryptoService) Decrypt(ctx context.Context, blob string) ([]byte, error) {
	data, err := base64.StdEncoding.DecodeString(blob)
	if err != nil {
		return nil, fmt.Errorf("crypto: %w: base64 decode failure: %v", domain.ErrCipherIntegrity, err)
	}

	if len(data) < 2*aes.BlockSize || len(data)%aes.BlockSize != 0 {
		return nil, fmt.Errorf("crypto: %w: ciphertext length %d", domain.ErrCipherIntegrity, len(data))
	}

	iv, body := data[:aes.BlockSize], data[aes.BlockSize:]
	plain := make([]byte, len(body))
	cipher.NewCBCDecrypter(s.block, iv).CryptBlocks(plain, body)

	// The padding check is the only integrity signal CBC gives us.
	out, err := pkcs7Unpad(plain, aes.BlockSize)
	if err != nil {
		return nil, fmt.Errorf("crypto: %w", domain.ErrCipherIntegrity)
	}
	return out, nil
}
