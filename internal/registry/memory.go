package registry

import (
	"context"
	"sync"
)

// MemoryBackend guarda as reservas em memória. Seguro para uso concorrente.
type MemoryBackend struct {
	mu   sync.Mutex
	keys map[Namespace]map[string]struct{}
}

// NewMemoryBackend cria um backend vazio.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{keys: make(map[Namespace]map[string]struct{})}
}

func (b *MemoryBackend) Insert(_ context.Context, ns Namespace, key string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	set, ok := b.keys[ns]
	if !ok {
		set = make(map[string]struct{})
		b.keys[ns] = set
	}
	if _, taken := set[key]; taken {
		return false, nil
	}
	set[key] = struct{}{}
	return true, nil
}

func (b *MemoryBackend) Delete(_ context.Context, ns Namespace, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	delete(b.keys[ns], key)
	return nil
}

// Contains reporta se a chave está reservada.
func (b *MemoryBackend) Contains(ns Namespace, key string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	_, ok := b.keys[ns][key]
	return ok
}
