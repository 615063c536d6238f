package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/dukapoint/stockledger-backend/internal/sessions"
	"github.com/dukapoint/stockledger-backend/pkg/logger"
)

// systemActorID marks session closures performed by the worker rather
// than an operator.
var systemActorID = uuid.MustParse("00000000-0000-0000-0000-000000000001")

// StaleSessionsJob force-closes accounting days that were left open past
// their date. Operators forget to close; the next open would otherwise
// stay blocked forever.
type StaleSessionsJob struct {
	sessions sessions.Repository
	logg     *logger.Logger
	now      func() time.Time
}

// NewStaleSessionsJob builds the stale session sweeper.
func NewStaleSessionsJob(sessionsRepo sessions.Repository, logg *logger.Logger) (*StaleSessionsJob, error) {
	if sessionsRepo == nil {
		return nil, fmt.Errorf("sessions repository required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &StaleSessionsJob{sessions: sessionsRepo, logg: logg, now: time.Now}, nil
}

// Name identifies the job in logs and metrics.
func (j *StaleSessionsJob) Name() string {
	return "stale-sessions"
}

// Run closes every open session dated before today.
func (j *StaleSessionsJob) Run(ctx context.Context) error {
	now := j.now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	stale, err := j.sessions.ListOpenBefore(ctx, today)
	if err != nil {
		return fmt.Errorf("listing stale sessions: %w", err)
	}
	if len(stale) == 0 {
		return nil
	}

	var errs error
	closed := 0
	for _, session := range stale {
		ok, err := j.sessions.Close(ctx, session.ID, systemActorID, now)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("closing session %s: %w", session.ID, err))
			continue
		}
		if ok {
			closed++
			j.logg.Warn(j.logg.WithFields(ctx, map[string]any{
				"tenant_id":    session.TenantID.String(),
				"session_date": session.SessionDate.Format("2006-01-02"),
			}), "force-closed stale accounting day")
		}
	}

	j.logg.Info(j.logg.WithField(ctx, "closed", closed), "stale session sweep finished")
	return errs
}
