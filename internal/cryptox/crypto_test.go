package cryptox

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeriveKey_Deterministic(t *testing.T) {
	salt := []byte("0123456789abcdef")
	k1 := DeriveKey([]byte("passphrase"), salt)
	k2 := DeriveKey([]byte("passphrase"), salt)
	k3 := DeriveKey([]byte("other"), salt)

	require.Len(t, k1, KeySize)
	assert.Equal(t, k1, k2)
	assert.NotEqual(t, k1, k3)
}

func TestSealOpen_RoundTrip(t *testing.T) {
	key := DeriveKey([]byte("pw"), []byte("salt-salt-salt-s"))

	sealed, err := Seal(key, []byte("eyJhbGciOi..."), []byte("accessToken"))
	require.NoError(t, err)
	assert.NotContains(t, string(sealed), "eyJhbGciOi")

	plain, err := Open(key, sealed, []byte("accessToken"))
	require.NoError(t, err)
	assert.Equal(t, "eyJhbGciOi...", string(plain))
}

func TestOpen_WrongAdditionalData(t *testing.T) {
	key := DeriveKey([]byte("pw"), []byte("salt-salt-salt-s"))
	sealed, err := Seal(key, []byte("token"), []byte("accessToken"))
	require.NoError(t, err)

	_, err = Open(key, sealed, []byte("refreshToken"))
	require.Error(t, err)
}

func TestOpen_WrongKeyAndShortInput(t *testing.T) {
	key := DeriveKey([]byte("pw"), []byte("salt-salt-salt-s"))
	other := DeriveKey([]byte("pw2"), []byte("salt-salt-salt-s"))

	sealed, err := Seal(key, []byte("token"), nil)
	require.NoError(t, err)

	_, err = Open(other, sealed, nil)
	require.Error(t, err)

	_, err = Open(key, []byte{1, 2}, nil)
	require.ErrorIs(t, err, ErrCiphertextTooShort)
}

func TestSeal_BadKey(t *testing.T) {
	_, err := Seal([]byte("short"), []byte("x"), nil)
	require.Error(t, err)
}
