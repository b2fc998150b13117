package storage

import (
	"context"
	"sync"
)

// Memory is an in-process store. It is the default for tests.
type Memory struct {
	mu       sync.RWMutex
	data     map[string][]byte
	watchers map[string][]chan struct{}
}

// NewMemory returns an empty Memory store.
func NewMemory() *Memory {
	return &Memory{
		data:     make(map[string][]byte),
		watchers: make(map[string][]chan struct{}),
	}
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	v, ok := m.data[key]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

func (m *Memory) Set(_ context.Context, key string, value []byte) error {
	if err := validKey(key); err != nil {
		return err
	}
	m.mu.Lock()
	m.data[key] = append([]byte(nil), value...)
	m.notify(key)
	m.mu.Unlock()
	return nil
}

func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	if _, ok := m.data[key]; ok {
		delete(m.data, key)
		m.notify(key)
	}
	m.mu.Unlock()
	return nil
}

func (m *Memory) Close() error { return nil }

// Watch implements Watcher.
func (m *Memory) Watch(ctx context.Context, key string) (<-chan struct{}, error) {
	ch := make(chan struct{}, 1)

	m.mu.Lock()
	m.watchers[key] = append(m.watchers[key], ch)
	m.mu.Unlock()

	go func() {
		<-ctx.Done()
		m.mu.Lock()
		defer m.mu.Unlock()
		list := m.watchers[key]
		for i, c := range list {
			if c == ch {
				m.watchers[key] = append(list[:i], list[i+1:]...)
				break
			}
		}
		close(ch)
	}()
	return ch, nil
}

// notify must be called with mu held. Sends coalesce.
func (m *Memory) notify(key string) {
	for _, ch := range m.watchers[key] {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}
