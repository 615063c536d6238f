package models

import (
	"time"

	"github.com/google/uuid"
)

// DailySession is the open/close accounting-day boundary for a tenant.
// The unique (tenant_id, session_date) index is the authoritative guard
// against two concurrent opens for the same day.
type DailySession struct {
	ID          uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	TenantID    uuid.UUID  `gorm:"column:tenant_id;type:uuid;not null;uniqueIndex:idx_sessions_tenant_date"`
	SessionDate time.Time  `gorm:"column:session_date;type:date;not null;uniqueIndex:idx_sessions_tenant_date"`
	OpenedBy    uuid.UUID  `gorm:"column:opened_by;type:uuid;not null"`
	OpeningTime time.Time  `gorm:"column:opening_time;not null"`
	ClosedBy    *uuid.UUID `gorm:"column:closed_by;type:uuid"`
	ClosingTime *time.Time `gorm:"column:closing_time"`
	IsOpen      bool       `gorm:"column:is_open;not null;default:true"`
	CreatedAt   time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}
