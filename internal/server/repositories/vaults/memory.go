package vaults

import (
	"context"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/credvault/internal/common"
	"github.com/dmitrijs2005/credvault/internal/vault"
)

type memoryEntry struct {
	version int64
	doc     []byte
}

// MemoryRepository keeps encoded vault documents in process memory.
type MemoryRepository struct {
	mu    sync.Mutex
	items map[string]memoryEntry
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{items: make(map[string]memoryEntry)}
}

func (r *MemoryRepository) Load(_ context.Context, ownerID string) (*vault.Vault, error) {
	r.mu.Lock()
	e, ok := r.items[ownerID]
	r.mu.Unlock()

	if !ok {
		return nil, common.ErrorNotFound
	}
	return decode(e.doc)
}

func (r *MemoryRepository) Save(_ context.Context, v *vault.Vault) error {
	next := v.Version + 1
	doc, err := encodeAt(v, next)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if cur := r.items[v.OwnerID]; cur.version != v.Version {
		return fmt.Errorf("%w: vault of %s is at version %d, not %d", common.ErrVersionConflict, v.OwnerID, cur.version, v.Version)
	}
	r.items[v.OwnerID] = memoryEntry{version: next, doc: doc}
	v.Version = next
	return nil
}
