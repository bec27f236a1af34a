package repository

import (
	"sync"
	"time"

	appErrors "github.com/kenxsak/omniflow-buisness-sub000/internal/errors"
	"github.com/kenxsak/omniflow-buisness-sub000/internal/model"
)

// MemoryTenantRepository is the in-memory counterpart of
// TenantRepository, for tests and single-process development.
type MemoryTenantRepository struct {
	mu      sync.Mutex
	tenants map[string]*model.Tenant
}

func NewMemoryTenantRepository() *MemoryTenantRepository {
	return &MemoryTenantRepository{tenants: make(map[string]*model.Tenant)}
}

func (m *MemoryTenantRepository) GetByID(id string) (*model.Tenant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tenants[id]
	if !ok {
		return nil, appErrors.NewTenantNotFound(id)
	}
	out := *t
	return &out, nil
}

func (m *MemoryTenantRepository) Create(t *model.Tenant) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now()
	}
	if t.Status == "" {
		t.Status = model.TenantActive
	}
	stored := *t
	m.tenants[t.ID] = &stored
	return nil
}

var _ TenantRepositoryInterface = (*MemoryTenantRepository)(nil)
