package movements

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dukapoint/stockledger-backend/pkg/db/models"
	"github.com/dukapoint/stockledger-backend/pkg/enums"
)

// signedQuantityExpr folds movement types into their stock contribution.
// Closing counts are observations, not deltas, so they contribute zero.
const signedQuantityExpr = `SUM(CASE movement_type
  WHEN 'opening_stock' THEN quantity
  WHEN 'restock' THEN quantity
  WHEN 'sale' THEN -quantity
  ELSE 0 END)`

// StockTotal is one item's derived stock across all counters.
type StockTotal struct {
	ItemID uuid.UUID `gorm:"column:item_id"`
	Total  int       `gorm:"column:total"`
}

// CounterTotal is one item's derived stock at a single counter. A nil
// CounterID bucket collects movements recorded without a counter.
type CounterTotal struct {
	ItemID    uuid.UUID  `gorm:"column:item_id"`
	CounterID *uuid.UUID `gorm:"column:counter_id"`
	Total     int        `gorm:"column:total"`
}

// TypeSum is the per-type quantity sum for one item on one date.
type TypeSum struct {
	ItemID       uuid.UUID          `gorm:"column:item_id"`
	MovementType enums.MovementType `gorm:"column:movement_type"`
	Total        int                `gorm:"column:total"`
}

// Repository manages the append-only stock movement ledger. There is no
// update or delete: corrections are recorded as new movements.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, movement *models.StockMovement) error
	CreateBatch(ctx context.Context, movements []*models.StockMovement) error
	ListByItem(ctx context.Context, tenantID, itemID uuid.UUID, from, to *time.Time) ([]models.StockMovement, error)
	CurrentStock(ctx context.Context, tenantID, itemID uuid.UUID, counterID *uuid.UUID) (int, error)
	StockTotals(ctx context.Context, tenantID uuid.UUID) ([]StockTotal, error)
	CounterTotals(ctx context.Context, tenantID uuid.UUID) ([]CounterTotal, error)
	TypeSumsForDate(ctx context.Context, tenantID uuid.UUID, date time.Time, counterID *uuid.UUID) ([]TypeSum, error)
	CountUncounted(ctx context.Context, tenantID uuid.UUID, date time.Time) (int, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a movement repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, movement *models.StockMovement) error {
	if movement.ID == uuid.Nil {
		movement.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(movement).Error
}

func (r *repository) CreateBatch(ctx context.Context, movements []*models.StockMovement) error {
	if len(movements) == 0 {
		return nil
	}
	for _, movement := range movements {
		if movement.ID == uuid.Nil {
			movement.ID = uuid.New()
		}
	}
	return r.db.WithContext(ctx).Create(movements).Error
}

func (r *repository) ListByItem(ctx context.Context, tenantID, itemID uuid.UUID, from, to *time.Time) ([]models.StockMovement, error) {
	query := r.db.WithContext(ctx).
		Where("tenant_id = ? AND item_id = ?", tenantID, itemID)
	if from != nil {
		query = query.Where("movement_date >= ?", *from)
	}
	if to != nil {
		query = query.Where("movement_date <= ?", *to)
	}
	var movements []models.StockMovement
	if err := query.Order("movement_date ASC, created_at ASC").Find(&movements).Error; err != nil {
		return nil, err
	}
	return movements, nil
}

// CurrentStock derives one item's stock as a grouped signed sum over the
// full ledger. Nothing is cached; the ledger is the only source of truth.
func (r *repository) CurrentStock(ctx context.Context, tenantID, itemID uuid.UUID, counterID *uuid.UUID) (int, error) {
	query := r.db.WithContext(ctx).
		Model(&models.StockMovement{}).
		Select("COALESCE("+signedQuantityExpr+", 0) AS total").
		Where("tenant_id = ? AND item_id = ?", tenantID, itemID)
	if counterID != nil {
		query = query.Where("counter_id = ?", *counterID)
	}
	var total int
	if err := query.Scan(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}

func (r *repository) StockTotals(ctx context.Context, tenantID uuid.UUID) ([]StockTotal, error) {
	var totals []StockTotal
	err := r.db.WithContext(ctx).
		Model(&models.StockMovement{}).
		Select("item_id, COALESCE("+signedQuantityExpr+", 0) AS total").
		Where("tenant_id = ?", tenantID).
		Group("item_id").
		Scan(&totals).Error
	if err != nil {
		return nil, err
	}
	return totals, nil
}

func (r *repository) CounterTotals(ctx context.Context, tenantID uuid.UUID) ([]CounterTotal, error) {
	var totals []CounterTotal
	err := r.db.WithContext(ctx).
		Model(&models.StockMovement{}).
		Select("item_id, counter_id, COALESCE("+signedQuantityExpr+", 0) AS total").
		Where("tenant_id = ?", tenantID).
		Group("item_id, counter_id").
		Scan(&totals).Error
	if err != nil {
		return nil, err
	}
	return totals, nil
}

// TypeSumsForDate returns, per item, the summed quantity of each movement
// type recorded on the given date. The variance report is built on this.
func (r *repository) TypeSumsForDate(ctx context.Context, tenantID uuid.UUID, date time.Time, counterID *uuid.UUID) ([]TypeSum, error) {
	query := r.db.WithContext(ctx).
		Model(&models.StockMovement{}).
		Select("item_id, movement_type, COALESCE(SUM(quantity), 0) AS total").
		Where("tenant_id = ? AND movement_date = ?", tenantID, date)
	if counterID != nil {
		query = query.Where("counter_id = ?", *counterID)
	}
	var sums []TypeSum
	if err := query.Group("item_id, movement_type").Scan(&sums).Error; err != nil {
		return nil, err
	}
	return sums, nil
}

// CountUncounted counts active items with no closing count on the date.
func (r *repository) CountUncounted(ctx context.Context, tenantID uuid.UUID, date time.Time) (int, error) {
	var count int
	err := r.db.WithContext(ctx).Raw(`
SELECT COUNT(*) FROM items i
WHERE i.tenant_id = ? AND i.is_active = ?
  AND NOT EXISTS (
    SELECT 1 FROM stock_movements m
    WHERE m.tenant_id = i.tenant_id
      AND m.item_id = i.id
      AND m.movement_type = 'closing_stock'
      AND m.movement_date = ?
  )`, tenantID, true, date).Scan(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}
