package models

import (
	"time"

	"github.com/google/uuid"
)

// Counter is a point-of-sale/stock location within a tenant.
type Counter struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	TenantID  uuid.UUID `gorm:"column:tenant_id;type:uuid;not null;uniqueIndex:idx_counters_tenant_name"`
	Name      string    `gorm:"column:name;not null;uniqueIndex:idx_counters_tenant_name"`
	IsActive  bool      `gorm:"column:is_active;not null;default:true"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
