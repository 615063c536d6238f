package sessions

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/dukapoint/stockledger-backend/pkg/db/models"
	pkgerrors "github.com/dukapoint/stockledger-backend/pkg/errors"
)

func setupSessionsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	ddl := `
CREATE TABLE IF NOT EXISTS daily_sessions (
  id TEXT PRIMARY KEY,
  tenant_id TEXT NOT NULL,
  session_date DATETIME NOT NULL,
  opened_by TEXT NOT NULL,
  opening_time DATETIME NOT NULL,
  closed_by TEXT,
  closing_time DATETIME,
  is_open INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME,
  UNIQUE (tenant_id, session_date)
);`
	require.NoError(t, conn.Exec(ddl).Error)
	return conn
}

type fixedUncounted struct {
	count int
}

func (f fixedUncounted) CountUncounted(context.Context, uuid.UUID, time.Time) (int, error) {
	return f.count, nil
}

func newTestService(t *testing.T, conn *gorm.DB, uncounted UncountedChecker) Service {
	t.Helper()
	svc, err := NewService(NewRepository(conn), uncounted, nil)
	require.NoError(t, err)
	return svc
}

func TestOpenDayCreatesOpenSession(t *testing.T) {
	conn := setupSessionsTestDB(t)
	svc := newTestService(t, conn, nil)
	tenantID, actorID := uuid.New(), uuid.New()

	session, err := svc.OpenDay(context.Background(), tenantID, actorID)
	require.NoError(t, err)
	assert.True(t, session.IsOpen)
	assert.Equal(t, actorID, session.OpenedBy)

	today := time.Now().UTC()
	assert.Equal(t, today.Format("2006-01-02"), session.SessionDate.Format("2006-01-02"))
}

func TestOpenDayTwiceFails(t *testing.T) {
	conn := setupSessionsTestDB(t)
	svc := newTestService(t, conn, nil)
	tenantID, actorID := uuid.New(), uuid.New()

	_, err := svc.OpenDay(context.Background(), tenantID, actorID)
	require.NoError(t, err)

	_, err = svc.OpenDay(context.Background(), tenantID, actorID)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeStateConflict, typed.Code())
}

func TestOpenDayBlockedByPriorOpenSession(t *testing.T) {
	conn := setupSessionsTestDB(t)
	repo := NewRepository(conn)
	svc := newTestService(t, conn, nil)
	tenantID, actorID := uuid.New(), uuid.New()

	yesterday := time.Now().UTC().AddDate(0, 0, -1)
	stale := &models.DailySession{
		ID:          uuid.New(),
		TenantID:    tenantID,
		SessionDate: time.Date(yesterday.Year(), yesterday.Month(), yesterday.Day(), 0, 0, 0, 0, time.UTC),
		OpenedBy:    actorID,
		OpeningTime: yesterday,
		IsOpen:      true,
	}
	require.NoError(t, repo.Create(context.Background(), stale))

	_, err := svc.OpenDay(context.Background(), tenantID, actorID)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeStateConflict, typed.Code())
	assert.Contains(t, typed.Message(), "previous accounting day")
}

func TestOpenDayReopenAfterCloseFails(t *testing.T) {
	conn := setupSessionsTestDB(t)
	svc := newTestService(t, conn, nil)
	tenantID, actorID := uuid.New(), uuid.New()

	_, err := svc.OpenDay(context.Background(), tenantID, actorID)
	require.NoError(t, err)

	result, err := svc.CloseDay(context.Background(), tenantID, actorID)
	require.NoError(t, err)
	require.NotNil(t, result)

	_, err = svc.OpenDay(context.Background(), tenantID, actorID)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeStateConflict, typed.Code())
	assert.Contains(t, typed.Message(), "opened and closed")
}

func TestCloseDayWithoutOpenSessionIsNoop(t *testing.T) {
	conn := setupSessionsTestDB(t)
	svc := newTestService(t, conn, nil)

	result, err := svc.CloseDay(context.Background(), uuid.New(), uuid.New())
	require.NoError(t, err)
	assert.Nil(t, result)
}

func TestCloseDayReportsUncountedItems(t *testing.T) {
	conn := setupSessionsTestDB(t)
	svc := newTestService(t, conn, fixedUncounted{count: 3})
	tenantID, actorID := uuid.New(), uuid.New()

	_, err := svc.OpenDay(context.Background(), tenantID, actorID)
	require.NoError(t, err)

	result, err := svc.CloseDay(context.Background(), tenantID, actorID)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, 3, result.UncountedItems, "uncounted items warn but never block closing")
	assert.False(t, result.Session.IsOpen)
	require.NotNil(t, result.Session.ClosedBy)
	assert.Equal(t, actorID, *result.Session.ClosedBy)
}

func TestCurrentReturnsOpenSession(t *testing.T) {
	conn := setupSessionsTestDB(t)
	svc := newTestService(t, conn, nil)
	tenantID, actorID := uuid.New(), uuid.New()

	current, err := svc.Current(context.Background(), tenantID)
	require.NoError(t, err)
	assert.Nil(t, current)

	opened, err := svc.OpenDay(context.Background(), tenantID, actorID)
	require.NoError(t, err)

	current, err = svc.Current(context.Background(), tenantID)
	require.NoError(t, err)
	require.NotNil(t, current)
	assert.Equal(t, opened.ID, current.ID)
}
