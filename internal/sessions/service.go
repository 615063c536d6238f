package sessions

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dukapoint/stockledger-backend/pkg/db"
	"github.com/dukapoint/stockledger-backend/pkg/db/models"
	pkgerrors "github.com/dukapoint/stockledger-backend/pkg/errors"
	"github.com/dukapoint/stockledger-backend/pkg/logger"
)

// UncountedChecker reports how many active items are missing a closing
// count for the given date. Close uses it for the advisory warning only.
type UncountedChecker interface {
	CountUncounted(ctx context.Context, tenantID uuid.UUID, date time.Time) (int, error)
}

// Service defines the open/close gate for accounting days.
type Service interface {
	OpenDay(ctx context.Context, tenantID, actorID uuid.UUID) (*models.DailySession, error)
	CloseDay(ctx context.Context, tenantID, actorID uuid.UUID) (*CloseDayResult, error)
	Current(ctx context.Context, tenantID uuid.UUID) (*models.DailySession, error)
	ListSessions(ctx context.Context, tenantID uuid.UUID, limit int) ([]models.DailySession, error)
}

// CloseDayResult reports the closed session plus the advisory count of
// items that never received a closing count. Closing is never blocked on
// uncounted items.
type CloseDayResult struct {
	Session        *models.DailySession `json:"session"`
	UncountedItems int                  `json:"uncounted_items"`
}

type service struct {
	repo      Repository
	uncounted UncountedChecker
	log       *logger.Logger
	now       func() time.Time
}

// NewService wires the session gate. The uncounted checker and logger are
// optional; without a checker CloseDay skips the advisory count.
func NewService(repo Repository, uncounted UncountedChecker, log *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("sessions repository required")
	}
	return &service{repo: repo, uncounted: uncounted, log: log, now: time.Now}, nil
}

// OpenDay opens today's accounting day. At most one session exists per
// tenant per date, and at most one session is open per tenant at a time.
func (s *service) OpenDay(ctx context.Context, tenantID, actorID uuid.UUID) (*models.DailySession, error) {
	if tenantID == uuid.Nil || actorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "tenant id and actor id are required")
	}

	now := s.now().UTC()
	today := dateOnly(now)

	existing, err := s.repo.FindByDate(ctx, tenantID, today)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		if existing.IsOpen {
			return nil, alreadyOpenError(today)
		}
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "accounting day was already opened and closed").
			WithDetails(map[string]any{"session_date": today.Format("2006-01-02")})
	}

	open, err := s.repo.FindOpen(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if open != nil {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "previous accounting day is still open").
			WithDetails(map[string]any{"open_session_date": open.SessionDate.Format("2006-01-02")})
	}

	session := &models.DailySession{
		TenantID:    tenantID,
		SessionDate: today,
		OpenedBy:    actorID,
		OpeningTime: now,
		IsOpen:      true,
	}
	if err := s.repo.Create(ctx, session); err != nil {
		// Concurrent open lost the insert race on (tenant_id, session_date).
		if db.IsUniqueViolation(err, "idx_sessions_tenant_date") || db.IsUniqueViolation(err, "") {
			return nil, alreadyOpenError(today)
		}
		return nil, err
	}

	if s.log != nil {
		s.log.Info(s.log.WithFields(ctx, map[string]any{
			"tenant_id":    tenantID.String(),
			"session_date": today.Format("2006-01-02"),
		}), "accounting day opened")
	}
	return session, nil
}

// CloseDay closes the tenant's open session. No open session is a silent
// no-op: the result is nil and so is the error.
func (s *service) CloseDay(ctx context.Context, tenantID, actorID uuid.UUID) (*CloseDayResult, error) {
	if tenantID == uuid.Nil || actorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "tenant id and actor id are required")
	}

	open, err := s.repo.FindOpen(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if open == nil {
		return nil, nil
	}

	uncounted := 0
	if s.uncounted != nil {
		uncounted, err = s.uncounted.CountUncounted(ctx, tenantID, open.SessionDate)
		if err != nil {
			return nil, err
		}
	}

	now := s.now().UTC()
	closed, err := s.repo.Close(ctx, open.ID, actorID, now)
	if err != nil {
		return nil, err
	}
	if !closed {
		// Lost a concurrent close; treat like the no-op path.
		return nil, nil
	}

	open.IsOpen = false
	open.ClosedBy = &actorID
	open.ClosingTime = &now

	if s.log != nil {
		fields := map[string]any{
			"tenant_id":    tenantID.String(),
			"session_date": open.SessionDate.Format("2006-01-02"),
		}
		if uncounted > 0 {
			fields["uncounted_items"] = uncounted
		}
		ctx := s.log.WithFields(ctx, fields)
		if uncounted > 0 {
			s.log.Warn(ctx, "accounting day closed with uncounted items")
		} else {
			s.log.Info(ctx, "accounting day closed")
		}
	}

	return &CloseDayResult{Session: open, UncountedItems: uncounted}, nil
}

func (s *service) Current(ctx context.Context, tenantID uuid.UUID) (*models.DailySession, error) {
	if tenantID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "tenant id is required")
	}
	return s.repo.FindOpen(ctx, tenantID)
}

func (s *service) ListSessions(ctx context.Context, tenantID uuid.UUID, limit int) ([]models.DailySession, error) {
	if tenantID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "tenant id is required")
	}
	return s.repo.List(ctx, tenantID, limit)
}

func alreadyOpenError(date time.Time) *pkgerrors.Error {
	return pkgerrors.New(pkgerrors.CodeStateConflict, "accounting day is already open").
		WithDetails(map[string]any{"session_date": date.Format("2006-01-02")})
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
