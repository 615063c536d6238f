package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Item is a tenant-scoped product. Items are never physically deleted
// while movements reference them; IsActive soft-retires them instead.
type Item struct {
	ID           uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	TenantID     uuid.UUID       `gorm:"column:tenant_id;type:uuid;not null;uniqueIndex:idx_items_tenant_code"`
	Code         string          `gorm:"column:code;not null;uniqueIndex:idx_items_tenant_code"`
	Name         string          `gorm:"column:name;not null"`
	Unit         string          `gorm:"column:unit;not null;default:'pcs'"`
	CostPrice    decimal.Decimal `gorm:"column:cost_price;type:numeric(12,2);not null"`
	SellingPrice decimal.Decimal `gorm:"column:selling_price;type:numeric(12,2);not null"`
	ReorderLevel int             `gorm:"column:reorder_level;not null;default:0"`
	Category     *string         `gorm:"column:category"`
	IsActive     bool            `gorm:"column:is_active;not null;default:true"`
	CreatedAt    time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
