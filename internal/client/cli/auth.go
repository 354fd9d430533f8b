package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/cinemaclub/internal/client/models"
	"github.com/dmitrijs2005/cinemaclub/internal/client/storage"
	"github.com/dmitrijs2005/cinemaclub/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// getSimpleText, getOptional and getPassword are test seams.
var (
	getSimpleText = GetSimpleText
	getOptional   = GetOptional
	getPassword   = GetPassword
)

var errNotLoggedIn = errors.New("not logged in, use 'login' first")

// Register prompts for the account fields and creates the account.
// Validation happens in the session controller before any request is sent.
func (a *App) Register(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}
	username, err := getSimpleText(a.reader, "Enter username", a.out)
	if err != nil {
		return err
	}

	password, err := getPassword("Enter password", a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	confirm, err := getPassword("Repeat password", a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(confirm)

	dob, err := getOptional(a.reader, "Date of birth (YYYY-MM-DD)", a.out)
	if err != nil {
		return err
	}
	country, err := getOptional(a.reader, "Country", a.out)
	if err != nil {
		return err
	}

	err = a.session.Register(ctx, models.RegisterRequest{
		Email:                email,
		Password:             string(password),
		PasswordConfirmation: string(confirm),
		Username:             username,
		DateOfBirth:          dob,
		Country:              country,
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "Welcome, %s!\n", a.session.Session().User.Username)
	return nil
}

// Login prompts for credentials and signs in.
func (a *App) Login(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}

	password, err := getPassword("Enter password", a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	if err := a.session.Login(ctx, email, string(password)); err != nil {
		return err
	}

	fmt.Fprintln(a.out, "Login successful")
	return nil
}

// Logout always succeeds locally, even when the backend is unreachable.
func (a *App) Logout(ctx context.Context) error {
	if !a.isLoggedIn() {
		fmt.Fprintln(a.out, "Not logged in")
		return nil
	}
	a.session.Logout(ctx)
	fmt.Fprintln(a.out, "Logged out")
	return nil
}

// Whoami re-fetches the profile and prints it.
func (a *App) Whoami(ctx context.Context) error {
	if !a.isLoggedIn() {
		return errNotLoggedIn
	}
	if err := a.session.RefreshUser(ctx); err != nil {
		return err
	}
	printUser(a.out, a.session.Session().User)
	return nil
}

// Update prompts for each editable profile field. Empty answers keep the
// current value.
func (a *App) Update(ctx context.Context) error {
	if !a.isLoggedIn() {
		return errNotLoggedIn
	}

	var (
		in  models.UpdateProfileRequest
		err error
	)
	if in.Username, err = getOptional(a.reader, "Username", a.out); err != nil {
		return err
	}
	if in.AvatarURL, err = getOptional(a.reader, "Avatar URL", a.out); err != nil {
		return err
	}
	if in.DateOfBirth, err = getOptional(a.reader, "Date of birth (YYYY-MM-DD)", a.out); err != nil {
		return err
	}
	if in.Country, err = getOptional(a.reader, "Country", a.out); err != nil {
		return err
	}

	if in == (models.UpdateProfileRequest{}) {
		fmt.Fprintln(a.out, "Nothing to update")
		return nil
	}
	if err := a.session.UpdateUser(ctx, in); err != nil {
		return err
	}

	fmt.Fprintln(a.out, "Profile updated")
	printUser(a.out, a.session.Session().User)
	return nil
}

// Status prints the session state, access token expiry and connection health.
func (a *App) Status(ctx context.Context) error {
	s := a.session.Session()
	fmt.Fprintf(a.out, "Session:  %s\n", s.Status)
	if s.User != nil {
		fmt.Fprintf(a.out, "User:     %s (%s)\n", s.User.Username, s.User.Email)
	}

	access, err := a.store.GetToken(ctx, storage.AccessToken)
	if err != nil {
		return err
	}
	if access != "" {
		if exp, err := tokenExpiry(access); err == nil {
			fmt.Fprintf(a.out, "Token:    expires %s (%s)\n", exp.Local().Format(time.RFC3339), describeExpiry(exp, time.Now()))
		} else {
			fmt.Fprintln(a.out, "Token:    unreadable")
		}
	}

	fmt.Fprintf(a.out, "API:      %s (circuit %s)\n", a.config.BaseURL, a.transport.State())
	fmt.Fprintf(a.out, "Storage:  %s\n", a.config.StorageBackend)
	return nil
}

// tokenExpiry reads the exp claim without verifying the signature. The
// client has no key; the value is informational only.
func tokenExpiry(token string) (time.Time, error) {
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return time.Time{}, err
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, errors.New("token has no expiry")
	}
	return claims.ExpiresAt.Time, nil
}

func describeExpiry(exp, now time.Time) string {
	d := exp.Sub(now).Round(time.Second)
	if d <= 0 {
		return fmt.Sprintf("expired %s ago, refreshed on next request", -d)
	}
	return "in " + d.String()
}
