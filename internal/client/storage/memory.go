package storage

import (
	"context"
	"slices"
	"sync"
)

// MemoryBackend keeps values in process memory only. Nothing is encrypted
// and nothing survives a restart.
type MemoryBackend struct {
	mu   sync.RWMutex
	data map[Namespace]map[string][]byte
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{
		data: map[Namespace]map[string][]byte{
			Plain:  {},
			Secure: {},
		},
	}
}

func (m *MemoryBackend) Get(_ context.Context, ns Namespace, key string) ([]byte, error) {
	if !ns.Valid() {
		return nil, &Error{Op: "get", Key: key, Err: ErrUnknownNamespace}
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	v, ok := m.data[ns][key]
	if !ok {
		return nil, nil
	}
	return slices.Clone(v), nil
}

func (m *MemoryBackend) Apply(_ context.Context, ops ...Op) error {
	if err := validateOps(ops); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, op := range ops {
		if op.Delete {
			delete(m.data[op.Namespace], op.Key)
			continue
		}
		m.data[op.Namespace][op.Key] = slices.Clone(op.Value)
	}
	return nil
}

func (m *MemoryBackend) Close() error { return nil }
