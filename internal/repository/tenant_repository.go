package repository

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	appErrors "github.com/kenxsak/omniflow-buisness-sub000/internal/errors"
	"github.com/kenxsak/omniflow-buisness-sub000/internal/model"
)

// TenantRepositoryInterface defines the tenant lookups the processor needs
type TenantRepositoryInterface interface {
	GetByID(id string) (*model.Tenant, error)
	Create(t *model.Tenant) error
}

type TenantRepository struct {
	DB *sql.DB
}

// GetByID fetches a tenant with its provider credentials. Credentials
// are stored pre-decrypted as an opaque JSON blob and passed through to
// the provider clients unchanged.
func (r *TenantRepository) GetByID(id string) (*model.Tenant, error) {
	query := `
        SELECT id, name, status, credentials, created_at, updated_at
        FROM tenants
        WHERE id = $1
    `
	var t model.Tenant
	var status string
	var credentials []byte
	err := r.DB.QueryRow(query, id).Scan(&t.ID, &t.Name, &status, &credentials, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.NewTenantNotFound(id)
		}
		return nil, err
	}
	t.Status = model.TenantStatus(status)
	if err := json.Unmarshal(credentials, &t.Credentials); err != nil {
		return nil, fmt.Errorf("unmarshal tenant credentials: %w", err)
	}
	return &t, nil
}

func (r *TenantRepository) Create(t *model.Tenant) error {
	t.CreatedAt = time.Now()
	if t.Status == "" {
		t.Status = model.TenantActive
	}
	credentials, err := json.Marshal(t.Credentials)
	if err != nil {
		return fmt.Errorf("marshal tenant credentials: %w", err)
	}
	query := `
        INSERT INTO tenants (id, name, status, credentials, created_at)
        VALUES ($1, $2, $3, $4, $5)
        ON CONFLICT (id) DO UPDATE SET name=$2, status=$3, credentials=$4, updated_at=NOW()
    `
	_, err = r.DB.Exec(query, t.ID, t.Name, string(t.Status), credentials, t.CreatedAt)
	return err
}

var _ TenantRepositoryInterface = (*TenantRepository)(nil)
