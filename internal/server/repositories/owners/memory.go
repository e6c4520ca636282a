package owners

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/credvault/internal/common"
	"github.com/dmitrijs2005/credvault/internal/server/models"
)

// MemoryRepository keeps owners in process memory. It backs the "memory"
// storage mode used for local runs and tests.
type MemoryRepository struct {
	mu     sync.RWMutex
	byID   map[string]models.Owner
	byName map[string]string
	byMail map[string]string
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		byID:   make(map[string]models.Owner),
		byName: make(map[string]string),
		byMail: make(map[string]string),
	}
}

func (r *MemoryRepository) Create(_ context.Context, owner *models.Owner) (*models.Owner, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[owner.ID]; ok {
		return nil, fmt.Errorf("%w: id", common.ErrorAlreadyExists)
	}
	if _, ok := r.byName[owner.Username]; ok {
		return nil, fmt.Errorf("%w: username", common.ErrorAlreadyExists)
	}
	if _, ok := r.byMail[owner.Email]; ok {
		return nil, fmt.Errorf("%w: email", common.ErrorAlreadyExists)
	}

	owner.CreatedAt = time.Now().UTC()
	r.byID[owner.ID] = *owner
	r.byName[owner.Username] = owner.ID
	r.byMail[owner.Email] = owner.ID
	return owner, nil
}

func (r *MemoryRepository) get(id string, ok bool) (*models.Owner, error) {
	if !ok {
		return nil, common.ErrorNotFound
	}
	o, ok := r.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &o, nil
}

func (r *MemoryRepository) GetByID(_ context.Context, id string) (*models.Owner, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.get(id, true)
}

func (r *MemoryRepository) GetByUsername(_ context.Context, username string) (*models.Owner, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byName[username]
	return r.get(id, ok)
}

func (r *MemoryRepository) GetByEmail(_ context.Context, email string) (*models.Owner, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byMail[email]
	return r.get(id, ok)
}

func (r *MemoryRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	o, ok := r.byID[id]
	if !ok {
		return common.ErrorNotFound
	}
	delete(r.byID, id)
	delete(r.byName, o.Username)
	delete(r.byMail, o.Email)
	return nil
}
