package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/dukapoint/stockledger-backend/pkg/enums"
)

// StockMovement is one immutable ledger fact. Rows are never updated or
// deleted after creation; corrections are new movements.
type StockMovement struct {
	ID           uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	TenantID     uuid.UUID          `gorm:"column:tenant_id;type:uuid;not null;index:idx_movements_tenant_item"`
	SessionID    *uuid.UUID         `gorm:"column:session_id;type:uuid"`
	CounterID    *uuid.UUID         `gorm:"column:counter_id;type:uuid"`
	ItemID       uuid.UUID          `gorm:"column:item_id;type:uuid;not null;index:idx_movements_tenant_item"`
	MovementType enums.MovementType `gorm:"column:movement_type;type:movement_type_enum;not null"`
	Quantity     int                `gorm:"column:quantity;not null"`
	MovementDate time.Time          `gorm:"column:movement_date;type:date;not null"`
	Notes        *string            `gorm:"column:notes"`
	CreatedBy    uuid.UUID          `gorm:"column:created_by;type:uuid;not null"`
	CreatedAt    time.Time          `gorm:"column:created_at;autoCreateTime"`
}
