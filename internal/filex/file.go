// Package filex contains file helpers for the client's local state: the
// SQLite database directory and the secret key file of the secure namespace.
package filex

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// EnsureParentDir creates the directory that will hold path.
func EnsureParentDir(path string) (string, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("mkdir %s: %w", dir, err)
	}
	return dir, nil
}

// ErrKeySize is returned when an existing key file has the wrong length.
var ErrKeySize = errors.New("key file has unexpected size")

// LoadOrCreateKey reads a size-byte key from path. When the file does not
// exist, gen produces a new key which is written with 0600 permissions.
func LoadOrCreateKey(path string, size int, gen func(int) []byte) ([]byte, error) {
	key, err := os.ReadFile(path)
	if err == nil {
		if len(key) != size {
			return nil, fmt.Errorf("%s: %w", path, ErrKeySize)
		}
		return key, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("read key %s: %w", path, err)
	}

	if _, err := EnsureParentDir(path); err != nil {
		return nil, err
	}

	key = gen(size)
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return nil, fmt.Errorf("create key %s: %w", path, err)
	}
	defer f.Close()

	if _, err := f.Write(key); err != nil {
		return nil, fmt.Errorf("write key %s: %w", path, err)
	}
	return key, nil
}
