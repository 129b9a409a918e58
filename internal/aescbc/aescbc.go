// Package aescbc implements the investigation cipher: AES-256-CBC with PKCS#7
// padding, where keys, IVs and ciphertexts travel as lowercase hex strings.
package aescbc

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/mr-tron/base58"
)

const (
	// KeySize is the AES-256 key length in bytes.
	KeySize = 32
	// IVSize is the CBC initialization vector length in bytes.
	IVSize = aes.BlockSize
)

var (
	ErrInvalidKey        = errors.New("key must be 64 hex characters")
	ErrInvalidIV         = errors.New("iv must be 32 hex characters")
	ErrInvalidCiphertext = errors.New("invalid ciphertext")
)

// Cipher encrypts and decrypts with a fixed key and iv.
type Cipher struct {
	block cipher.Block
	iv    []byte
}

// New parses a hex key and iv.
func New(keyHex, ivHex string) (*Cipher, error) {
	key, err := hex.DecodeString(keyHex)
	if err != nil || len(key) != KeySize {
		return nil, ErrInvalidKey
	}

	iv, err := hex.DecodeString(ivHex)
	if err != nil || len(iv) != IVSize {
		return nil, ErrInvalidIV
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	return &Cipher{block: block, iv: iv}, nil
}

// Encrypt returns the hex ciphertext of plaintext.
func (c *Cipher) Encrypt(plaintext string) string {
	padded := pad([]byte(plaintext))
	out := make([]byte, len(padded))
	cipher.NewCBCEncrypter(c.block, c.iv).CryptBlocks(out, padded)
	return hex.EncodeToString(out)
}

// Decrypt reverses Encrypt.
func (c *Cipher) Decrypt(ciphertextHex string) (string, error) {
	ct, err := hex.DecodeString(ciphertextHex)
	if err != nil || len(ct) == 0 || len(ct)%aes.BlockSize != 0 {
		return "", ErrInvalidCiphertext
	}

	out := make([]byte, len(ct))
	cipher.NewCBCDecrypter(c.block, c.iv).CryptBlocks(out, ct)

	plain, err := unpad(out)
	if err != nil {
		return "", err
	}
	return string(plain), nil
}

// EncryptAll encrypts every value in order.
func (c *Cipher) EncryptAll(values []string) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = c.Encrypt(v)
	}
	return out
}

// DecryptAll decrypts every value in order, stopping at the first failure.
func (c *Cipher) DecryptAll(values []string) ([]string, error) {
	out := make([]string, len(values))
	for i, v := range values {
		p, err := c.Decrypt(v)
		if err != nil {
			return nil, fmt.Errorf("value %d: %w", i, err)
		}
		out[i] = p
	}
	return out, nil
}

// Encrypt is a convenience wrapper around New and Cipher.Encrypt.
func Encrypt(plaintext, keyHex, ivHex string) (string, error) {
	c, err := New(keyHex, ivHex)
	if err != nil {
		return "", err
	}
	return c.Encrypt(plaintext), nil
}

// Decrypt is a convenience wrapper around New and Cipher.Decrypt.
func Decrypt(ciphertextHex, keyHex, ivHex string) (string, error) {
	c, err := New(keyHex, ivHex)
	if err != nil {
		return "", err
	}
	return c.Decrypt(ciphertextHex)
}

// GenerateKey returns a random hex encoded AES-256 key.
func GenerateKey() (string, error) {
	return randomHex(KeySize)
}

// GenerateIV returns a random hex encoded iv.
func GenerateIV() (string, error) {
	return randomHex(IVSize)
}

// Fingerprint identifies a hex secret without revealing it: the base58
// encoded SHA-256 of the secret's bytes.
func Fingerprint(secretHex string) string {
	if secretHex == "" {
		return ""
	}
	hash := sha256.Sum256([]byte(secretHex))
	return base58.Encode(hash[:])
}

func randomHex(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	return hex.EncodeToString(b), nil
}

func pad(b []byte) []byte {
	n := aes.BlockSize - len(b)%aes.BlockSize
	return append(b, bytes.Repeat([]byte{byte(n)}, n)...)
}

func unpad(b []byte) ([]byte, error) {
	n := int(b[len(b)-1])
	if n == 0 || n > aes.BlockSize || n > len(b) {
		return nil, ErrInvalidCiphertext
	}
	for _, v := range b[len(b)-n:] {
		if int(v) != n {
			return nil, ErrInvalidCiphertext
		}
	}
	return b[:len(b)-n], nil
}
