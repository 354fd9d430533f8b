package storage

import (
	"context"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/cinemaclub/internal/client/models"
	"github.com/dmitrijs2005/cinemaclub/internal/common"
)

// TokenKind selects one half of the token pair.
type TokenKind int

const (
	AccessToken TokenKind = iota
	RefreshToken
)

func (k TokenKind) key() (string, error) {
	switch k {
	case AccessToken:
		return common.AccessTokenKey, nil
	case RefreshToken:
		return common.RefreshTokenKey, nil
	default:
		return "", fmt.Errorf("unknown token kind %d", int(k))
	}
}

func (k TokenKind) String() string {
	key, err := k.key()
	if err != nil {
		return "unknown"
	}
	return key
}

// Store is the credential store. Every multi-key write is a single Apply
// batch and all operations are serialized, which makes the compare-and-swap
// methods atomic within the process.
type Store struct {
	mu      sync.Mutex
	backend Backend
}

func NewStore(backend Backend) *Store {
	return &Store{backend: backend}
}

// SetToken writes a single token. An empty value removes it.
func (s *Store) SetToken(ctx context.Context, kind TokenKind, value string) error {
	key, err := kind.key()
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if value == "" {
		return s.backend.Apply(ctx, Del(Secure, key))
	}
	return s.backend.Apply(ctx, Put(Secure, key, []byte(value)))
}

// GetToken returns the stored token, or "" when absent.
func (s *Store) GetToken(ctx context.Context, kind TokenKind) (string, error) {
	key, err := kind.key()
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.getString(ctx, Secure, key)
}

func (s *Store) ClearToken(ctx context.Context, kind TokenKind) error {
	return s.SetToken(ctx, kind, "")
}

// SetProfile stores the serialized user profile.
func (s *Store) SetProfile(ctx context.Context, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(data) == 0 {
		return s.backend.Apply(ctx, Del(Plain, common.UserDataKey))
	}
	return s.backend.Apply(ctx, Put(Plain, common.UserDataKey, data))
}

// GetProfile returns the serialized profile, or nil when absent.
func (s *Store) GetProfile(ctx context.Context) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.backend.Get(ctx, Plain, common.UserDataKey)
}

func (s *Store) ClearProfile(ctx context.Context) error {
	return s.SetProfile(ctx, nil)
}

// Tokens returns the stored pair. A half-present pair is reported as zero.
func (s *Store) Tokens(ctx context.Context) (models.TokenPair, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.tokens(ctx)
}

func (s *Store) tokens(ctx context.Context) (models.TokenPair, error) {
	access, err := s.getString(ctx, Secure, common.AccessTokenKey)
	if err != nil {
		return models.TokenPair{}, err
	}
	refresh, err := s.getString(ctx, Secure, common.RefreshTokenKey)
	if err != nil {
		return models.TokenPair{}, err
	}

	pair := models.TokenPair{AccessToken: access, RefreshToken: refresh}
	if !pair.Valid() {
		return models.TokenPair{}, nil
	}
	return pair, nil
}

// SaveSession writes both tokens and the profile in one batch. A nil profile
// leaves the cached profile untouched.
func (s *Store) SaveSession(ctx context.Context, pair models.TokenPair, profile []byte) error {
	if !pair.Valid() {
		return &Error{Op: "apply", Err: ErrIncompletePair}
	}

	ops := pairOps(pair)
	if profile != nil {
		ops = append(ops, Put(Plain, common.UserDataKey, profile))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.backend.Apply(ctx, ops...)
}

// ReplaceTokens stores pair only if the current refresh token equals
// expectedRefresh. It reports whether the swap happened.
func (s *Store) ReplaceTokens(ctx context.Context, expectedRefresh string, pair models.TokenPair) (bool, error) {
	if !pair.Valid() {
		return false, &Error{Op: "apply", Err: ErrIncompletePair}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.getString(ctx, Secure, common.RefreshTokenKey)
	if err != nil {
		return false, err
	}
	if current == "" || current != expectedRefresh {
		return false, nil
	}

	if err := s.backend.Apply(ctx, pairOps(pair)...); err != nil {
		return false, err
	}
	return true, nil
}

// ClearIf removes the tokens and profile only if the current refresh token
// equals expectedRefresh.
func (s *Store) ClearIf(ctx context.Context, expectedRefresh string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.getString(ctx, Secure, common.RefreshTokenKey)
	if err != nil {
		return false, err
	}
	if current != expectedRefresh {
		return false, nil
	}

	if err := s.backend.Apply(ctx, clearOps()...); err != nil {
		return false, err
	}
	return true, nil
}

// Clear removes both tokens and the profile.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.backend.Apply(ctx, clearOps()...)
}

func (s *Store) Close() error {
	return s.backend.Close()
}

func (s *Store) getString(ctx context.Context, ns Namespace, key string) (string, error) {
	v, err := s.backend.Get(ctx, ns, key)
	if err != nil {
		return "", err
	}
	return string(v), nil
}

func pairOps(pair models.TokenPair) []Op {
	return []Op{
		Put(Secure, common.AccessTokenKey, []byte(pair.AccessToken)),
		Put(Secure, common.RefreshTokenKey, []byte(pair.RefreshToken)),
	}
}

func clearOps() []Op {
	return []Op{
		Del(Secure, common.AccessTokenKey),
		Del(Secure, common.RefreshTokenKey),
		Del(Plain, common.UserDataKey),
	}
}
