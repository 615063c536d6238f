package items

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dukapoint/stockledger-backend/pkg/db/models"
)

// Repository manages persistence for tenant item catalogs.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, item *models.Item) error
	Update(ctx context.Context, item *models.Item) error
	FindByID(ctx context.Context, tenantID, itemID uuid.UUID) (*models.Item, error)
	FindByCode(ctx context.Context, tenantID uuid.UUID, code string) (*models.Item, error)
	FindByName(ctx context.Context, tenantID uuid.UUID, name string) (*models.Item, error)
	List(ctx context.Context, tenantID uuid.UUID, activeOnly bool) ([]models.Item, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns an item repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, item *models.Item) error {
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(item).Error
}

func (r *repository) Update(ctx context.Context, item *models.Item) error {
	return r.db.WithContext(ctx).Save(item).Error
}

func (r *repository) FindByID(ctx context.Context, tenantID, itemID uuid.UUID) (*models.Item, error) {
	var item models.Item
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, itemID).
		First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *repository) FindByCode(ctx context.Context, tenantID uuid.UUID, code string) (*models.Item, error) {
	var item models.Item
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND LOWER(code) = ?", tenantID, strings.ToLower(strings.TrimSpace(code))).
		First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *repository) FindByName(ctx context.Context, tenantID uuid.UUID, name string) (*models.Item, error) {
	var item models.Item
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND LOWER(name) = ?", tenantID, strings.ToLower(strings.TrimSpace(name))).
		First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *repository) List(ctx context.Context, tenantID uuid.UUID, activeOnly bool) ([]models.Item, error) {
	query := r.db.WithContext(ctx).Where("tenant_id = ?", tenantID)
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}
	var items []models.Item
	if err := query.Order("name ASC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}
