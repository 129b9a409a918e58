package aescbc

import (
	"testing"

	"github.com/stretchr/testify/require"
)

const (
	testKey = "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f"
	testIV  = "0f0e0d0c0b0a09080706050403020100"
)

func TestEncryptKnownValues(t *testing.T) {
	tests := []struct {
		plaintext  string
		ciphertext string
	}{
		{plaintext: "Lion", ciphertext: "a5e4a359b33eb01c5be5df5fa755f2e4"},
		{plaintext: "SN-100", ciphertext: "dcecbb218c3ce51bd6359ee22a5ad6b8"},
		{plaintext: "", ciphertext: "daf015b15d25544a9510b84fb6d94efd"},
	}

	c, err := New(testKey, testIV)
	require.NoError(t, err)

	for _, tt := range tests {
		t.Run(tt.plaintext, func(t *testing.T) {
			require.Equal(t, tt.ciphertext, c.Encrypt(tt.plaintext))

			plain, err := c.Decrypt(tt.ciphertext)
			require.NoError(t, err)
			require.Equal(t, tt.plaintext, plain)
		})
	}
}

func TestRoundTrip(t *testing.T) {
	key, err := GenerateKey()
	require.NoError(t, err)
	iv, err := GenerateIV()
	require.NoError(t, err)

	messages := []string{
		"OEM1",
		"exactly sixteen!",
		"ünïcödé ✓ 部品",
		"a much longer message that spans several cipher blocks to exercise chaining",
	}

	for _, m := range messages {
		ct, err := Encrypt(m, key, iv)
		require.NoError(t, err)

		pt, err := Decrypt(ct, key, iv)
		require.NoError(t, err)
		require.Equal(t, m, pt)
	}
}

func TestEncryptAll(t *testing.T) {
	c, err := New(testKey, testIV)
	require.NoError(t, err)

	enc := c.EncryptAll([]string{"Lion", "SN-100"})
	require.Equal(t, []string{"a5e4a359b33eb01c5be5df5fa755f2e4", "dcecbb218c3ce51bd6359ee22a5ad6b8"}, enc)

	dec, err := c.DecryptAll(enc)
	require.NoError(t, err)
	require.Equal(t, []string{"Lion", "SN-100"}, dec)

	_, err = c.DecryptAll([]string{enc[0], "zz"})
	require.ErrorIs(t, err, ErrInvalidCiphertext)
}

func TestInvalidInput(t *testing.T) {
	t.Run("short key", func(t *testing.T) {
		_, err := New("0011", testIV)
		require.ErrorIs(t, err, ErrInvalidKey)
	})

	t.Run("non hex key", func(t *testing.T) {
		_, err := New(testKey[:62]+"zz", testIV)
		require.ErrorIs(t, err, ErrInvalidKey)
	})

	t.Run("bad iv", func(t *testing.T) {
		_, err := New(testKey, "00")
		require.ErrorIs(t, err, ErrInvalidIV)
	})

	t.Run("truncated ciphertext", func(t *testing.T) {
		_, err := Decrypt("a5e4a359", testKey, testIV)
		require.ErrorIs(t, err, ErrInvalidCiphertext)
	})

	t.Run("wrong key fails padding or yields different text", func(t *testing.T) {
		other, err := GenerateKey()
		require.NoError(t, err)

		pt, err := Decrypt("a5e4a359b33eb01c5be5df5fa755f2e4", other, testIV)
		if err == nil {
			require.NotEqual(t, "Lion", pt)
		}
	})
}

func TestFingerprint(t *testing.T) {
	require.Empty(t, Fingerprint(""))
	require.Equal(t, Fingerprint(testKey), Fingerprint(testKey))
	require.NotEqual(t, Fingerprint(testKey), Fingerprint(testIV))
	require.NotContains(t, Fingerprint(testKey), testKey[:8])
}
