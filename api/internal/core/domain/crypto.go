package domain

import "context"

// CipherService is the optional pre-encryption stage of the DNA pipeline.
// A pipeline without one simply skips the stage.
type CipherService interface {
	// Encrypt turns plaintext bytes into a Base64 blob (IV || ciphertext).
	Encrypt(ctx context.Context, plaintext []byte) (string, error)

	// Decrypt reverses Encrypt. A wrong key almost always surfaces as
	// ErrCipherIntegrity; there is no authentication tag.
	Decrypt(ctx context.Context, blob string) ([]byte, error)

	// KeyBase64 exports the effective 32-byte key for out-of-band exchange.
	KeyBase64() string
}

// CipherOptions selects the cipher stage for a single call.
// KeyBase64 wins over Passphrase; with neither, a random key is generated.
type CipherOptions struct {
	UseAES     bool   `json:"use_aes"`
	KeyBase64  string `json:"key,omitempty" validate:"omitempty,max=64"`
	Passphrase string `json:"passphrase,omitempty" validate:"omitempty,max=1024"`
}
