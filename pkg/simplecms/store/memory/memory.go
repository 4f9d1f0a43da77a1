package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/tendant/simple-cms/pkg/simplecms"
)

// Backend is an in-memory implementation of the simplecms.SnapshotStore interface
type Backend struct {
	mu      sync.RWMutex
	values  map[string][]byte
	failPut error
}

// New creates a new in-memory snapshot store
func New() *Backend {
	return &Backend{
		values: make(map[string][]byte),
	}
}

// Get returns a copy of the stored value
func (b *Backend) Get(ctx context.Context, name string) ([]byte, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	data, exists := b.values[name]
	if !exists {
		return nil, simplecms.ErrSnapshotNotFound
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

// Put stores a copy of data under name
func (b *Backend) Put(ctx context.Context, name string, data []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.failPut != nil {
		return b.failPut
	}
	stored := make([]byte, len(data))
	copy(stored, data)
	b.values[name] = stored
	return nil
}

// Delete removes name
func (b *Backend) Delete(ctx context.Context, name string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	delete(b.values, name)
	return nil
}

// List returns the stored names with prefix
func (b *Backend) List(ctx context.Context, prefix string) ([]string, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	names := []string{}
	for name := range b.values {
		if strings.HasPrefix(name, prefix) {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}

// FailPuts makes every following Put return err, simulating a full quota.
// Pass nil to restore normal behavior.
func (b *Backend) FailPuts(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failPut = err
}
