package sessions

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dukapoint/stockledger-backend/pkg/db/models"
)

// Repository manages persistence for accounting-day sessions.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, session *models.DailySession) error
	FindByDate(ctx context.Context, tenantID uuid.UUID, date time.Time) (*models.DailySession, error)
	FindOpen(ctx context.Context, tenantID uuid.UUID) (*models.DailySession, error)
	ListOpenBefore(ctx context.Context, cutoff time.Time) ([]models.DailySession, error)
	Close(ctx context.Context, sessionID, closedBy uuid.UUID, at time.Time) (bool, error)
	List(ctx context.Context, tenantID uuid.UUID, limit int) ([]models.DailySession, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a session repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, session *models.DailySession) error {
	if session.ID == uuid.Nil {
		session.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(session).Error
}

func (r *repository) FindByDate(ctx context.Context, tenantID uuid.UUID, date time.Time) (*models.DailySession, error) {
	var session models.DailySession
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND session_date = ?", tenantID, date).
		First(&session).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// FindOpen returns the single open session for the tenant, if any. The
// gate never allows more than one, so First is safe.
func (r *repository) FindOpen(ctx context.Context, tenantID uuid.UUID) (*models.DailySession, error) {
	var session models.DailySession
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND is_open = ?", tenantID, true).
		Order("session_date DESC").
		First(&session).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// ListOpenBefore returns open sessions across all tenants whose date is
// strictly before the cutoff. The stale-session sweep uses this.
func (r *repository) ListOpenBefore(ctx context.Context, cutoff time.Time) ([]models.DailySession, error) {
	var sessions []models.DailySession
	err := r.db.WithContext(ctx).
		Where("is_open = ? AND session_date < ?", true, cutoff).
		Order("session_date ASC").
		Find(&sessions).Error
	if err != nil {
		return nil, err
	}
	return sessions, nil
}

// Close flips an open session shut. Returns false when the session was
// already closed, which lets concurrent closers detect they lost.
func (r *repository) Close(ctx context.Context, sessionID, closedBy uuid.UUID, at time.Time) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.DailySession{}).
		Where("id = ? AND is_open = ?", sessionID, true).
		Updates(map[string]any{
			"is_open":      false,
			"closed_by":    closedBy,
			"closing_time": at,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repository) List(ctx context.Context, tenantID uuid.UUID, limit int) ([]models.DailySession, error) {
	if limit <= 0 {
		limit = 30
	}
	var sessions []models.DailySession
	err := r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("session_date DESC").
		Limit(limit).
		Find(&sessions).Error
	if err != nil {
		return nil, err
	}
	return sessions, nil
}
