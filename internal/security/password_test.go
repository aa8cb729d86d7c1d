package security

import (
	"errors"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

var lowerHex64 = regexp.MustCompile(`^[0-9a-f]{64}$`)

func TestSHA256Hasher_DeterministicLowerHex(t *testing.T) {
	h := SHA256Hasher{}

	a, err := h.Hash("password123")
	require.NoError(t, err)
	b, err := h.Hash("password123")
	require.NoError(t, err)

	require.Equal(t, a, b)
	require.Regexp(t, lowerHex64, a)

	other, _ := h.Hash("password124")
	require.NotEqual(t, a, other)
}

func TestSHA256Hasher_KnownDigest(t *testing.T) {
	// sha256("password123demo-intern-salt")
	got, err := SHA256Hasher{}.Hash("password123")
	require.NoError(t, err)
	require.Equal(t, "075e8ad9136f43c34f53ce27abe55e48c1d190d4d9a2c9237fb5a19d2da4104c", got)
	require.True(t, SHA256Hasher{}.Verify("password123", got))
}

func TestHashers_VerifyRoundTrip(t *testing.T) {
	hashers := map[string]Hasher{
		"sha256": SHA256Hasher{},
		"bcrypt": BcryptHasher{Cost: bcrypt.MinCost},
		"argon2id": Argon2Hasher{
			Time: 1, Memory: 8 * 1024, Threads: 1, KeyLen: 32, SaltLen: 16,
		},
	}

	for name, h := range hashers {
		h := h
		t.Run(name, func(t *testing.T) {
			digest, err := h.Hash("secret1")
			require.NoError(t, err)

			require.True(t, h.Verify("secret1", digest))
			require.False(t, h.Verify("secret2", digest))
			require.False(t, h.Verify("secret1", "not-a-digest"))
		})
	}
}

func TestArgon2Hasher_SaltIsPerHash(t *testing.T) {
	h := Argon2Hasher{Time: 1, Memory: 8 * 1024, Threads: 1, KeyLen: 32, SaltLen: 16}

	a, err := h.Hash("same")
	require.NoError(t, err)
	b, err := h.Hash("same")
	require.NoError(t, err)

	require.NotEqual(t, a, b)
	require.True(t, h.Verify("same", a))
	require.True(t, h.Verify("same", b))
}

func TestNewHasher(t *testing.T) {
	for _, name := range []string{"", "sha256", "bcrypt", "argon2id", "ARGON2"} {
		h, err := NewHasher(name)
		require.NoError(t, err, name)
		require.NotNil(t, h)
	}

	_, err := NewHasher("md5")
	require.True(t, errors.Is(err, ErrUnknownHasher))
}

func TestArgon2Hasher_DamagedParamsDoNotMatch(t *testing.T) {
	h := Argon2Hasher{Time: 1, Memory: 8 * 1024, Threads: 1, KeyLen: 32, SaltLen: 16}

	digest, err := h.Hash("secret1")
	require.NoError(t, err)

	parts := strings.Split(digest, "$")
	require.Len(t, parts, 6)

	for _, params := range []string{
		"m=8192,t=1,p=0",
		"m=8192,t=0,p=1",
		"m=0,t=1,p=1",
		"m=4294967295,t=1,p=1",
	} {
		damaged := append([]string{}, parts...)
		damaged[3] = params

		require.NotPanics(t, func() {
			require.False(t, h.Verify("secret1", strings.Join(damaged, "$")), params)
		})
	}
}
