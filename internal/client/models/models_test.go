package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthResponse_Validate(t *testing.T) {
	ok := &AuthResponse{AccessToken: "a", RefreshToken: "r", User: &User{Email: "a@b.com"}}
	require.NoError(t, ok.Validate())

	noRefresh := &AuthResponse{AccessToken: "a", User: &User{Email: "a@b.com"}}
	require.ErrorIs(t, noRefresh.Validate(), ErrMalformedPayload)

	noUser := &AuthResponse{AccessToken: "a", RefreshToken: "r"}
	require.ErrorIs(t, noUser.Validate(), ErrMalformedPayload)
	require.NoError(t, noUser.ValidateTokens())

	var nilResp *AuthResponse
	require.ErrorIs(t, nilResp.ValidateTokens(), ErrMalformedPayload)
}

func TestTokenPair(t *testing.T) {
	assert.True(t, TokenPair{}.IsZero())
	assert.False(t, TokenPair{AccessToken: "a"}.Valid())
	assert.True(t, TokenPair{AccessToken: "a", RefreshToken: "r"}.Valid())
}

func TestMediaFilters_Query(t *testing.T) {
	f := MediaFilters{Type: MediaMovie, Limit: 20, Search: "matrix", Year: 1999, Animation: Ptr(false)}
	q := f.Query()

	assert.Equal(t, "movie", q.Get("type"))
	assert.Equal(t, "20", q.Get("limit"))
	assert.Equal(t, "matrix", q.Get("search"))
	assert.Equal(t, "1999", q.Get("year"))
	assert.Equal(t, "0", q.Get("is_animation"))
	assert.False(t, q.Has("offset"))
	assert.False(t, q.Has("genre"))

	assert.Empty(t, MediaFilters{}.Query())
}
