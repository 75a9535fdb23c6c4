package conversation

import (
	"context"
	"encoding/json"
	"errors"
	"slices"
	"sync"
)

// Accessor loads and saves the state of one conversation. Load returns
// nil, nil when nothing has been saved yet.
type Accessor interface {
	Load(ctx context.Context) (*State, error)
	Save(ctx context.Context, state *State) error
}

// AccessorFuncs adapts a pair of functions into an Accessor.
type AccessorFuncs struct {
	LoadFunc func(ctx context.Context) (*State, error)
	SaveFunc func(ctx context.Context, state *State) error
}

// Load calls LoadFunc.
func (a AccessorFuncs) Load(ctx context.Context) (*State, error) { return a.LoadFunc(ctx) }

// Save calls SaveFunc.
func (a AccessorFuncs) Save(ctx context.Context, state *State) error { return a.SaveFunc(ctx, state) }

// MemoryStore keeps conversation states in memory, serialized as JSON so
// callers never share state with the store. It is safe for concurrent use.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]json.RawMessage
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]json.RawMessage)}
}

// Get returns the state saved under key, or ErrNotFound.
func (m *MemoryStore) Get(_ context.Context, key string) (*State, error) {
	m.mu.RLock()
	raw, ok := m.data[key]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	var st State
	if err := json.Unmarshal(raw, &st); err != nil {
		return nil, err
	}
	return &st, nil
}

// Put saves state under key.
func (m *MemoryStore) Put(_ context.Context, key string, state *State) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = raw
	return nil
}

// Delete removes the state under key. It is a no-op if none exists.
func (m *MemoryStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

// Keys returns the sorted keys of every saved conversation.
func (m *MemoryStore) Keys(_ context.Context) []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	keys := make([]string, 0, len(m.data))
	for k := range m.data {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// Accessor returns an Accessor bound to key.
func (m *MemoryStore) Accessor(key string) Accessor {
	return AccessorFuncs{
		LoadFunc: func(ctx context.Context) (*State, error) {
			st, err := m.Get(ctx, key)
			if errors.Is(err, ErrNotFound) {
				return nil, nil
			}
			return st, err
		},
		SaveFunc: func(ctx context.Context, state *State) error {
			return m.Put(ctx, key, state)
		},
	}
}
