package models

import (
	"time"

	"github.com/google/uuid"
)

// Tenant is the billing/retail organization that owns every other row.
// Provisioning lives outside this service; rows here mirror the registry.
type Tenant struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name      string    `gorm:"column:name;not null"`
	IsActive  bool      `gorm:"column:is_active;not null;default:true"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
