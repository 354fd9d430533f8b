// Package common contains shared constants, sentinel errors and small helpers
// used by both the cinemaclub client and the development backend.
package common

// HTTP header names and values shared by the request pipeline and the
// development backend.
const (
	AuthorizationHeader = "Authorization"
	BearerPrefix        = "Bearer "
	RequestIDHeader     = "X-Request-ID"
	ContentTypeJSON     = "application/json"
)

// Persisted credential keys.
const (
	AccessTokenKey  = "accessToken"
	RefreshTokenKey = "refreshToken"
	UserDataKey     = "userData"
)
