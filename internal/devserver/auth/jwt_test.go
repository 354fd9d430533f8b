package auth

import (
	"testing"
	"time"

	"github.com/dmitrijs2005/cinemaclub/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndParse_Success(t *testing.T) {
	t.Parallel()

	secret := []byte("super-secret")

	tok, err := GenerateToken(42, 3, secret, time.Hour)
	require.NoError(t, err)

	claims, err := ParseToken(tok, secret)
	require.NoError(t, err)
	assert.Equal(t, int64(42), claims.UserID)
	assert.Equal(t, int64(3), claims.Generation)
	assert.NotEmpty(t, claims.ID)
}

func TestGenerateToken_Unique(t *testing.T) {
	t.Parallel()

	a, err := GenerateToken(1, 0, []byte("s"), time.Hour)
	require.NoError(t, err)
	b, err := GenerateToken(1, 0, []byte("s"), time.Hour)
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestParseToken_Expired(t *testing.T) {
	t.Parallel()

	tok, err := GenerateToken(1, 0, []byte("secret"), -time.Minute)
	require.NoError(t, err)

	_, err = ParseToken(tok, []byte("secret"))
	require.ErrorIs(t, err, common.ErrTokenExpired)
}

func TestParseToken_WrongSecret(t *testing.T) {
	t.Parallel()

	tok, err := GenerateToken(1, 0, []byte("right-secret"), time.Hour)
	require.NoError(t, err)

	_, err = ParseToken(tok, []byte("wrong-secret"))
	require.ErrorIs(t, err, common.ErrInvalidToken)
}

func TestParseToken_Garbage(t *testing.T) {
	t.Parallel()

	_, err := ParseToken("not-a-jwt", []byte("secret"))
	require.ErrorIs(t, err, common.ErrInvalidToken)
}
