package storefake

import (
	"sync"

	"github.com/itchub/edu-dashboard/tokenstore"
)

var _ tokenstore.Store = (*FakeStore)(nil)

// FakeStore is an in-memory Store for tests
type FakeStore struct {
	mu     sync.RWMutex
	values map[string]string
}

func NewFakeStore() *FakeStore {
	return &FakeStore{values: make(map[string]string)}
}

func (fs *FakeStore) Set(key, value string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.values[key] = value
	return nil
}

func (fs *FakeStore) Get(key string) (string, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	value, ok := fs.values[key]
	if !ok {
		return "", tokenstore.ErrKeyNotFound
	}
	return value, nil
}

func (fs *FakeStore) Remove(key string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	delete(fs.values, key)
	return nil
}

func (fs *FakeStore) Clear() error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	for _, key := range tokenstore.SessionKeys {
		delete(fs.values, key)
	}
	return nil
}

// Has reports whether a key is currently present, for test assertions
func (fs *FakeStore) Has(key string) bool {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	_, ok := fs.values[key]
	return ok
}
