// Package models defines the wire and domain types of the cinemaclub client.
package models

import (
	"errors"
	"time"
)

// ErrMalformedPayload marks a backend response that decoded but is missing
// fields the client depends on.
var ErrMalformedPayload = errors.New("malformed payload")

// User is the backend's account representation and the cached profile
// snapshot kept in the credential store.
type User struct {
	UserID      int64      `json:"user_id"`
	Email       string     `json:"email"`
	Username    string     `json:"username"`
	AvatarURL   *string    `json:"avatar_url,omitempty"`
	DateOfBirth *string    `json:"date_of_birth,omitempty"`
	Country     *string    `json:"country,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	LastLogin   *time.Time `json:"last_login,omitempty"`
}

// Validate rejects profiles without identity fields.
func (u *User) Validate() error {
	if u == nil {
		return errors.Join(ErrMalformedPayload, errors.New("user is missing"))
	}
	if u.Email == "" {
		return errors.Join(ErrMalformedPayload, errors.New("user email is missing"))
	}
	return nil
}

// ProfileResponse is returned by GET and PUT /users/profile.
type ProfileResponse struct {
	User *User `json:"user"`
}

// UpdateProfileRequest carries the mutable profile fields. Nil fields are
// left untouched by the backend.
type UpdateProfileRequest struct {
	Username    *string `json:"username,omitempty" validate:"omitempty,min=1,max=64"`
	AvatarURL   *string `json:"avatar_url,omitempty" validate:"omitempty,url"`
	DateOfBirth *string `json:"date_of_birth,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Country     *string `json:"country,omitempty" validate:"omitempty,max=64"`
}

// Ptr is a small helper for building optional fields.
func Ptr[T any](v T) *T { return &v }
