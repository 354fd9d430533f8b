package storage

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/cinemaclub/internal/common"
	"github.com/dmitrijs2005/cinemaclub/internal/cryptox"
	"github.com/dmitrijs2005/cinemaclub/internal/filex"
	"github.com/dmitrijs2005/cinemaclub/internal/logging"
)

// Backend kinds accepted by Open.
const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
)

// Options selects and configures the backend.
type Options struct {
	Backend    string
	SQLitePath string
	Redis      RedisOptions
	// Passphrase derives the secure-namespace key. When empty, a random key
	// is kept in KeyFile.
	Passphrase string
	KeyFile    string
}

// Open builds the backend described by opts. Persistent backends are
// wrapped with EncryptedBackend.
func Open(ctx context.Context, opts Options, logger logging.Logger) (Backend, error) {
	var (
		inner Backend
		err   error
	)

	switch opts.Backend {
	case BackendMemory, "":
		logger.Info(ctx, "credential storage opened", "backend", BackendMemory)
		return NewMemoryBackend(), nil
	case BackendSQLite:
		if _, err = filex.EnsureParentDir(opts.SQLitePath); err != nil {
			return nil, &Error{Op: "open", Err: err}
		}
		inner, err = OpenSQLite(ctx, opts.SQLitePath)
	case BackendRedis:
		inner, err = OpenRedis(ctx, opts.Redis)
	default:
		return nil, &Error{Op: "open", Err: fmt.Errorf("%w: %q", ErrUnknownBackend, opts.Backend)}
	}
	if err != nil {
		return nil, err
	}

	enc, err := encrypt(ctx, inner, opts)
	if err != nil {
		_ = inner.Close()
		return nil, err
	}

	logger.Info(ctx, "credential storage opened", "backend", opts.Backend, "passphrase", opts.Passphrase != "")
	return enc, nil
}

func encrypt(ctx context.Context, inner Backend, opts Options) (Backend, error) {
	switch {
	case opts.Passphrase != "":
		return NewPassphraseEncrypted(ctx, inner, opts.Passphrase)
	case opts.KeyFile != "":
		key, err := filex.LoadOrCreateKey(opts.KeyFile, cryptox.KeySize, common.GenerateRandByteArray)
		if err != nil {
			return nil, &Error{Op: "open", Err: err}
		}
		return NewEncrypted(inner, key)
	default:
		return nil, &Error{Op: "open", Err: ErrNoSecret}
	}
}
