package models

import "errors"

// TokenPair is the access/refresh credential pair. The two halves are always
// written and cleared together.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// IsZero reports whether neither token is set.
func (p TokenPair) IsZero() bool {
	return p.AccessToken == "" && p.RefreshToken == ""
}

// Valid reports whether both tokens are set.
func (p TokenPair) Valid() bool {
	return p.AccessToken != "" && p.RefreshToken != ""
}

// LoginRequest is the body of POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RegisterRequest is the body of POST /auth/register. PasswordConfirmation is
// checked locally and never sent.
type RegisterRequest struct {
	Email                string  `json:"email" validate:"required,email"`
	Password             string  `json:"password" validate:"required,min=8"`
	PasswordConfirmation string  `json:"-" validate:"required,eqfield=Password"`
	Username             string  `json:"username" validate:"required,max=64"`
	DateOfBirth          *string `json:"date_of_birth,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Country              *string `json:"country,omitempty" validate:"omitempty,max=64"`
}

// RefreshRequest is the body of POST /auth/refresh and POST /auth/logout.
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// AuthResponse is returned by register, login and refresh. Refresh responses
// may omit User.
type AuthResponse struct {
	Message      string `json:"message,omitempty"`
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	User         *User  `json:"user,omitempty"`
}

// Tokens returns the pair carried by the response.
func (r *AuthResponse) Tokens() TokenPair {
	return TokenPair{AccessToken: r.AccessToken, RefreshToken: r.RefreshToken}
}

// ValidateTokens checks that both tokens are present.
func (r *AuthResponse) ValidateTokens() error {
	if r == nil || !r.Tokens().Valid() {
		return errors.Join(ErrMalformedPayload, errors.New("token pair is incomplete"))
	}
	return nil
}

// Validate checks a full login/register response: both tokens and a user.
func (r *AuthResponse) Validate() error {
	if err := r.ValidateTokens(); err != nil {
		return err
	}
	return r.User.Validate()
}
