package crypto

import (
	"fmt"

	"github.com/irgordon/helix/api/internal/core/domain"
)

// NewCipher resolves per-call options into a cipher stage. It returns nil
// when AES is off. Without a key or passphrase a random key is generated,
// which is only useful on the encrypting side.
func NewCipher(opts domain.CipherOptions) (domain.CipherService, error) {
	if !opts.UseAES {
		return nil, nil
	}

	switch {
	case opts.KeyBase64 != "":
		return NewAESCryptoServiceFromBase64(opts.KeyBase64)
	case opts.Passphrase != "":
		return NewAESCryptoServiceFromPassphrase(opts.Passphrase)
	default:
		return NewRandomAESCryptoService()
	}
}

// NewDecryptCipher is NewCipher for the decrypting side, where a missing key
// can never succeed.
func NewDecryptCipher(opts domain.CipherOptions) (domain.CipherService, error) {
	if opts.UseAES && opts.KeyBase64 == "" && opts.Passphrase == "" {
		return nil, fmt.Errorf("crypto: %w: key required for AES decryption", domain.ErrKeyFormat)
	}
	return NewCipher(opts)
}
