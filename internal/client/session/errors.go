package session

import (
	"errors"

	"github.com/dmitrijs2005/cinemaclub/internal/client/client"
	"github.com/dmitrijs2005/cinemaclub/internal/client/storage"
	"github.com/dmitrijs2005/cinemaclub/internal/validation"
)

var (
	ErrDisposed       = errors.New("session controller disposed")
	ErrNotInitialized = errors.New("session controller not initialized")
	ErrNotLoggedIn    = errors.New("not logged in")
)

// Kind classifies controller errors.
type Kind int

const (
	KindValidation Kind = iota + 1
	KindAuthentication
	KindNetwork
	KindServer
	KindMalformed
	KindStorage
	KindState
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindAuthentication:
		return "authentication"
	case KindNetwork:
		return "network"
	case KindServer:
		return "server"
	case KindMalformed:
		return "malformed"
	case KindStorage:
		return "storage"
	case KindState:
		return "state"
	default:
		return "unknown"
	}
}

// Fixed user-facing messages.
const (
	MsgSessionExpired = "Session expired, please log in again"
	MsgNetwork        = "Unable to reach the server, check your connection"
	MsgMalformed      = "Unexpected response from the server"
	MsgStorage        = "Could not access saved credentials"
	MsgNotLoggedIn    = "You are not logged in"
)

// Error is returned by every Controller operation. Message is safe to show
// to the user.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the Kind of err, or 0 when err is not an *Error.
func KindOf(err error) Kind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return 0
}

// translate maps a lower-level failure to an *Error. fallback is used when
// the backend supplied no message.
func translate(err error, fallback string) *Error {
	var (
		se  *Error
		ve  *validation.ValidationError
		ste *storage.Error
	)

	switch {
	case errors.As(err, &se):
		return se
	case errors.As(err, &ve):
		return &Error{Kind: KindValidation, Message: ve.Error(), Err: err}
	case errors.Is(err, client.ErrSessionExpired):
		return &Error{Kind: KindAuthentication, Message: MsgSessionExpired, Err: err}
	case errors.Is(err, client.ErrUnauthorized):
		return &Error{Kind: KindAuthentication, Message: messageOr(err, fallback), Err: err}
	case errors.Is(err, client.ErrNetwork):
		return &Error{Kind: KindNetwork, Message: MsgNetwork, Err: err}
	case errors.Is(err, client.ErrMalformedResponse):
		return &Error{Kind: KindMalformed, Message: MsgMalformed, Err: err}
	case errors.As(err, &ste):
		return &Error{Kind: KindStorage, Message: MsgStorage, Err: err}
	case errors.Is(err, ErrDisposed), errors.Is(err, ErrNotInitialized):
		return &Error{Kind: KindState, Message: err.Error(), Err: err}
	default:
		return &Error{Kind: KindServer, Message: messageOr(err, fallback), Err: err}
	}
}

func messageOr(err error, fallback string) string {
	if m := client.MessageOf(err); m != "" {
		return m
	}
	return fallback
}
