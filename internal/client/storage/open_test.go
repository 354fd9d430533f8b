package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/dmitrijs2005/cinemaclub/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen_Memory(t *testing.T) {
	b, err := Open(context.Background(), Options{Backend: BackendMemory}, logging.Nop{})
	require.NoError(t, err)
	assert.IsType(t, &MemoryBackend{}, b)
}

func TestOpen_SQLiteWithKeyFile(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	opts := Options{
		Backend:    BackendSQLite,
		SQLitePath: filepath.Join(dir, "state", "client.db"),
		KeyFile:    filepath.Join(dir, "state", "secret.key"),
	}

	b, err := Open(ctx, opts, logging.Nop{})
	require.NoError(t, err)
	s := NewStore(b)
	require.NoError(t, s.SaveSession(ctx, pair("1"), nil))
	require.NoError(t, s.Close())

	b, err = Open(ctx, opts, logging.Nop{})
	require.NoError(t, err)
	defer b.Close()

	got, err := NewStore(b).Tokens(ctx)
	require.NoError(t, err)
	assert.Equal(t, pair("1"), got)
}

func TestOpen_RedisWithPassphrase(t *testing.T) {
	mr := miniredis.RunT(t)

	b, err := Open(context.Background(), Options{
		Backend:    BackendRedis,
		Redis:      RedisOptions{Addr: mr.Addr()},
		Passphrase: "pass",
	}, logging.Nop{})
	require.NoError(t, err)
	defer b.Close()

	assert.IsType(t, &EncryptedBackend{}, b)
	assert.True(t, mr.Exists("cinemaclub:plain:"+saltKey))
}

func TestOpen_RedisUnreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := Open(context.Background(), Options{
		Backend:    BackendRedis,
		Redis:      RedisOptions{Addr: addr},
		Passphrase: "pass",
	}, logging.Nop{})
	require.Error(t, err)
}

func TestOpen_PersistentBackendNeedsSecret(t *testing.T) {
	_, err := Open(context.Background(), Options{
		Backend:    BackendSQLite,
		SQLitePath: filepath.Join(t.TempDir(), "client.db"),
	}, logging.Nop{})
	require.ErrorIs(t, err, ErrNoSecret)
}

func TestOpen_UnknownBackend(t *testing.T) {
	_, err := Open(context.Background(), Options{Backend: "etcd"}, logging.Nop{})
	require.ErrorIs(t, err, ErrUnknownBackend)
}
