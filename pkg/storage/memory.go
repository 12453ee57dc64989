package storage

import (
	"bytes"
	"context"
	"strings"
	"sync"
)

// Memory is a process-local Bucket used for local development and tests.
type Memory struct {
	name    string
	mu      sync.RWMutex
	objects map[string][]byte
}

// NewMemory creates an empty in-memory bucket.
func NewMemory(name string) *Memory {
	return &Memory{
		name:    name,
		objects: make(map[string][]byte),
	}
}

func (m *Memory) Location() string {
	return "memory:" + m.name
}

func (m *Memory) List(_ context.Context, prefix string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	keys := make([]string, 0)
	for k := range m.objects {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	return keys, nil
}

func (m *Memory) Read(_ context.Context, key string) ([]byte, error) {
	if err := validateKey(key); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	data, ok := m.objects[key]
	if !ok {
		return nil, ErrNotFound
	}
	return bytes.Clone(data), nil
}

func (m *Memory) Create(_ context.Context, key string, data []byte, _ string) error {
	if err := validateKey(key); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.objects[key]; ok {
		return ErrExists
	}
	m.objects[key] = bytes.Clone(data)
	return nil
}

func (m *Memory) Put(_ context.Context, key string, data []byte, _ string) error {
	if err := validateKey(key); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.objects[key] = bytes.Clone(data)
	return nil
}
