package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSQLite(t *testing.T) *SQLiteBackend {
	t.Helper()
	b, err := OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "client.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = b.Close() })
	return b
}

func newRedis(t *testing.T) (*RedisBackend, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	b := NewRedisBackend(redis.NewClient(&redis.Options{Addr: mr.Addr()}), "test:")
	t.Cleanup(func() { _ = b.Close() })
	return b, mr
}

func newEncryptedMemory(t *testing.T) *EncryptedBackend {
	t.Helper()
	b, err := NewEncrypted(NewMemoryBackend(), make([]byte, 32))
	require.NoError(t, err)
	return b
}

func backends(t *testing.T) map[string]Backend {
	rb, _ := newRedis(t)
	return map[string]Backend{
		"memory":    NewMemoryBackend(),
		"sqlite":    newSQLite(t),
		"redis":     rb,
		"encrypted": newEncryptedMemory(t),
	}
}

func TestBackends_GetMissingReturnsNil(t *testing.T) {
	for name, b := range backends(t) {
		t.Run(name, func(t *testing.T) {
			v, err := b.Get(context.Background(), Secure, "nope")
			require.NoError(t, err)
			assert.Nil(t, v)
		})
	}
}

func TestBackends_ApplyPutOverwriteDelete(t *testing.T) {
	ctx := context.Background()
	for name, b := range backends(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, b.Apply(ctx,
				Put(Secure, "accessToken", []byte("a1")),
				Put(Plain, "userData", []byte(`{"user_id":1}`)),
			))

			v, err := b.Get(ctx, Secure, "accessToken")
			require.NoError(t, err)
			assert.Equal(t, []byte("a1"), v)

			require.NoError(t, b.Apply(ctx, Put(Secure, "accessToken", []byte("a2"))))
			v, err = b.Get(ctx, Secure, "accessToken")
			require.NoError(t, err)
			assert.Equal(t, []byte("a2"), v)

			require.NoError(t, b.Apply(ctx, Del(Secure, "accessToken"), Del(Secure, "missing")))
			v, err = b.Get(ctx, Secure, "accessToken")
			require.NoError(t, err)
			assert.Nil(t, v)

			v, err = b.Get(ctx, Plain, "userData")
			require.NoError(t, err)
			assert.JSONEq(t, `{"user_id":1}`, string(v))
		})
	}
}

func TestBackends_NamespacesAreSeparate(t *testing.T) {
	ctx := context.Background()
	for name, b := range backends(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, b.Apply(ctx, Put(Plain, "k", []byte("plain"))))

			v, err := b.Get(ctx, Secure, "k")
			require.NoError(t, err)
			assert.Nil(t, v)
		})
	}
}

func TestBackends_RejectUnknownNamespace(t *testing.T) {
	ctx := context.Background()
	for name, b := range backends(t) {
		t.Run(name, func(t *testing.T) {
			err := b.Apply(ctx, Put(Secure, "ok", []byte("1")), Put("other", "k", []byte("x")))
			require.ErrorIs(t, err, ErrUnknownNamespace)

			v, err := b.Get(ctx, Secure, "ok")
			require.NoError(t, err)
			assert.Nil(t, v, "a rejected batch writes nothing")

			_, err = b.Get(ctx, "other", "k")
			require.ErrorIs(t, err, ErrUnknownNamespace)
		})
	}
}

func TestMemoryBackend_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	b := NewMemoryBackend()

	val := []byte("abc")
	require.NoError(t, b.Apply(ctx, Put(Plain, "k", val)))
	val[0] = 'x'

	got, err := b.Get(ctx, Plain, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("abc"), got)

	got[1] = 'y'
	again, err := b.Get(ctx, Plain, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("abc"), again)
}

func TestSQLiteBackend_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "client.db")

	b, err := OpenSQLite(ctx, path)
	require.NoError(t, err)
	require.NoError(t, b.Apply(ctx, Put(Secure, "refreshToken", []byte("r1"))))
	require.NoError(t, b.Close())

	b, err = OpenSQLite(ctx, path)
	require.NoError(t, err)
	defer b.Close()

	v, err := b.Get(ctx, Secure, "refreshToken")
	require.NoError(t, err)
	assert.Equal(t, []byte("r1"), v)
}

func TestRedisBackend_KeyLayout(t *testing.T) {
	ctx := context.Background()
	b, mr := newRedis(t)

	require.NoError(t, b.Apply(ctx, Put(Plain, "userData", []byte("{}"))))

	got, err := mr.Get("test:plain:userData")
	require.NoError(t, err)
	assert.Equal(t, "{}", got)
}

func TestRedisBackend_GetFailsWhenServerDown(t *testing.T) {
	b, mr := newRedis(t)
	mr.Close()

	_, err := b.Get(context.Background(), Secure, "accessToken")
	var se *Error
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "get", se.Op)
}

func TestEncryptedBackend_SealsOnlySecureNamespace(t *testing.T) {
	ctx := context.Background()
	inner := NewMemoryBackend()
	b, err := NewEncrypted(inner, make([]byte, 32))
	require.NoError(t, err)

	require.NoError(t, b.Apply(ctx,
		Put(Secure, "accessToken", []byte("secret")),
		Put(Plain, "userData", []byte("visible")),
	))

	raw, err := inner.Get(ctx, Secure, "accessToken")
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "secret")

	raw, err = inner.Get(ctx, Plain, "userData")
	require.NoError(t, err)
	assert.Equal(t, []byte("visible"), raw)
}

func TestEncryptedBackend_ValueBoundToKey(t *testing.T) {
	ctx := context.Background()
	inner := NewMemoryBackend()
	b, err := NewEncrypted(inner, make([]byte, 32))
	require.NoError(t, err)

	require.NoError(t, b.Apply(ctx, Put(Secure, "accessToken", []byte("a"))))
	raw, err := inner.Get(ctx, Secure, "accessToken")
	require.NoError(t, err)
	require.NoError(t, inner.Apply(ctx, Put(Secure, "refreshToken", raw)))

	_, err = b.Get(ctx, Secure, "refreshToken")
	require.Error(t, err)
}

func TestNewEncrypted_RejectsBadKeySize(t *testing.T) {
	_, err := NewEncrypted(NewMemoryBackend(), []byte("short"))
	require.Error(t, err)
}

func TestNewPassphraseEncrypted_ReusesSalt(t *testing.T) {
	ctx := context.Background()
	inner := NewMemoryBackend()

	first, err := NewPassphraseEncrypted(ctx, inner, "correct horse")
	require.NoError(t, err)
	require.NoError(t, first.Apply(ctx, Put(Secure, "refreshToken", []byte("r1"))))

	second, err := NewPassphraseEncrypted(ctx, inner, "correct horse")
	require.NoError(t, err)
	v, err := second.Get(ctx, Secure, "refreshToken")
	require.NoError(t, err)
	assert.Equal(t, []byte("r1"), v)

	wrong, err := NewPassphraseEncrypted(ctx, inner, "battery staple")
	require.NoError(t, err)
	_, err = wrong.Get(ctx, Secure, "refreshToken")
	require.Error(t, err)
}
