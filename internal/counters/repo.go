package counters

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dukapoint/stockledger-backend/pkg/db/models"
)

// Repository manages persistence for tenant counters.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, counter *models.Counter) error
	Update(ctx context.Context, counter *models.Counter) error
	FindByID(ctx context.Context, tenantID, counterID uuid.UUID) (*models.Counter, error)
	FindByName(ctx context.Context, tenantID uuid.UUID, name string) (*models.Counter, error)
	List(ctx context.Context, tenantID uuid.UUID, activeOnly bool) ([]models.Counter, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a counter repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, counter *models.Counter) error {
	if counter.ID == uuid.Nil {
		counter.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(counter).Error
}

func (r *repository) Update(ctx context.Context, counter *models.Counter) error {
	return r.db.WithContext(ctx).Save(counter).Error
}

func (r *repository) FindByID(ctx context.Context, tenantID, counterID uuid.UUID) (*models.Counter, error) {
	var counter models.Counter
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, counterID).
		First(&counter).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &counter, nil
}

// FindByName matches on the trimmed, case folded counter name so upload
// columns like " MAIN counter " still resolve.
func (r *repository) FindByName(ctx context.Context, tenantID uuid.UUID, name string) (*models.Counter, error) {
	var counter models.Counter
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND LOWER(TRIM(name)) = ?", tenantID, strings.ToLower(strings.TrimSpace(name))).
		First(&counter).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &counter, nil
}

func (r *repository) List(ctx context.Context, tenantID uuid.UUID, activeOnly bool) ([]models.Counter, error) {
	query := r.db.WithContext(ctx).Where("tenant_id = ?", tenantID)
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}
	var counters []models.Counter
	if err := query.Order("name ASC").Find(&counters).Error; err != nil {
		return nil, err
	}
	return counters, nil
}
