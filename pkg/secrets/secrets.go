package secrets

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"errors"
	"io"
)

// Seal encrypts plaintext under the key derived from master and namespace.
// The result is nonce || ciphertext || tag.
func Seal(master []byte, namespace string, plaintext []byte) ([]byte, error) {
	gcm, err := newGCM(master, namespace)
	if err != nil {
		return nil, errors.Join(ErrEncryptionFailed, err)
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, errors.Join(ErrEncryptionFailed, err)
	}
	return gcm.Seal(nonce, nonce, plaintext, nil), nil
}

// Open reverses Seal. A wrong key, namespace or tampered data fails with ErrDecryptionFailed.
func Open(master []byte, namespace string, sealed []byte) ([]byte, error) {
	gcm, err := newGCM(master, namespace)
	if err != nil {
		return nil, errors.Join(ErrDecryptionFailed, err)
	}

	n := gcm.NonceSize()
	if len(sealed) < n+gcm.Overhead() {
		return nil, ErrInvalidCiphertext
	}
	plaintext, err := gcm.Open(nil, sealed[:n], sealed[n:], nil)
	if err != nil {
		return nil, errors.Join(ErrDecryptionFailed, err)
	}
	return plaintext, nil
}

func newGCM(master []byte, namespace string) (cipher.AEAD, error) {
	key, err := deriveKey(master, namespace)
	if err != nil {
		return nil, err
	}
	defer clearBytes(key)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}
