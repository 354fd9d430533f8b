package storage

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/cinemaclub/internal/common"
	"github.com/dmitrijs2005/cinemaclub/internal/cryptox"
)

// saltKey holds the argon2 salt of passphrase-derived keys in the plain
// namespace.
const saltKey = "secureSalt"

// EncryptedBackend seals values of the secure namespace before they reach
// the wrapped backend. Plain values pass through untouched. The namespace
// and key are bound as additional data, so a sealed value copied under a
// different key fails to open.
type EncryptedBackend struct {
	inner Backend
	key   []byte
}

// NewEncrypted wraps inner with a raw AES-256 key.
func NewEncrypted(inner Backend, key []byte) (*EncryptedBackend, error) {
	if len(key) != cryptox.KeySize {
		return nil, fmt.Errorf("encryption key must be %d bytes, got %d", cryptox.KeySize, len(key))
	}
	return &EncryptedBackend{inner: inner, key: key}, nil
}

// NewPassphraseEncrypted derives the key from passphrase. The salt is read
// from inner, or generated and stored on first use.
func NewPassphraseEncrypted(ctx context.Context, inner Backend, passphrase string) (*EncryptedBackend, error) {
	salt, err := inner.Get(ctx, Plain, saltKey)
	if err != nil {
		return nil, err
	}
	if salt == nil {
		salt = common.GenerateRandByteArray(16)
		if err := inner.Apply(ctx, Put(Plain, saltKey, salt)); err != nil {
			return nil, err
		}
	}
	return NewEncrypted(inner, cryptox.DeriveKey([]byte(passphrase), salt))
}

func aad(ns Namespace, key string) []byte {
	return []byte(string(ns) + ":" + key)
}

func (e *EncryptedBackend) Get(ctx context.Context, ns Namespace, key string) ([]byte, error) {
	v, err := e.inner.Get(ctx, ns, key)
	if err != nil || v == nil || ns != Secure {
		return v, err
	}

	plain, err := cryptox.Open(e.key, v, aad(ns, key))
	if err != nil {
		return nil, &Error{Op: "get", Key: key, Err: err}
	}
	return plain, nil
}

func (e *EncryptedBackend) Apply(ctx context.Context, ops ...Op) error {
	sealed := make([]Op, len(ops))
	for i, op := range ops {
		sealed[i] = op
		if op.Delete || op.Namespace != Secure {
			continue
		}
		v, err := cryptox.Seal(e.key, op.Value, aad(op.Namespace, op.Key))
		if err != nil {
			return &Error{Op: "apply", Key: op.Key, Err: err}
		}
		sealed[i].Value = v
	}
	return e.inner.Apply(ctx, sealed...)
}

func (e *EncryptedBackend) Close() error {
	common.WipeByteArray(e.key)
	return e.inner.Close()
}
