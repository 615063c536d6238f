package movements

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/dukapoint/stockledger-backend/internal/counters"
	"github.com/dukapoint/stockledger-backend/internal/items"
	"github.com/dukapoint/stockledger-backend/internal/sessions"
	"github.com/dukapoint/stockledger-backend/pkg/db/models"
	"github.com/dukapoint/stockledger-backend/pkg/enums"
	pkgerrors "github.com/dukapoint/stockledger-backend/pkg/errors"
)

func setupMovementsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	ddl := []string{`
CREATE TABLE IF NOT EXISTS items (
  id TEXT PRIMARY KEY,
  tenant_id TEXT NOT NULL,
  code TEXT NOT NULL,
  name TEXT NOT NULL,
  unit TEXT NOT NULL DEFAULT 'pcs',
  cost_price TEXT NOT NULL DEFAULT '0',
  selling_price TEXT NOT NULL DEFAULT '0',
  reorder_level INTEGER NOT NULL DEFAULT 0,
  category TEXT,
  is_active INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME,
  UNIQUE (tenant_id, code)
);`, `
CREATE TABLE IF NOT EXISTS counters (
  id TEXT PRIMARY KEY,
  tenant_id TEXT NOT NULL,
  name TEXT NOT NULL,
  is_active INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME,
  UNIQUE (tenant_id, name)
);`, `
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
);`, `
CREATE TABLE IF NOT EXISTS stock_movements (
  id TEXT PRIMARY KEY,
  tenant_id TEXT NOT NULL,
  session_id TEXT,
  counter_id TEXT,
  item_id TEXT NOT NULL,
  movement_type TEXT NOT NULL,
  quantity INTEGER NOT NULL,
  movement_date DATETIME NOT NULL,
  notes TEXT,
  created_by TEXT NOT NULL,
  created_at DATETIME
);`}
	for _, stmt := range ddl {
		require.NoError(t, conn.Exec(stmt).Error)
	}
	return conn
}

type movementsFixture struct {
	conn     *gorm.DB
	svc      Service
	repo     Repository
	sessions sessions.Repository
	tenantID uuid.UUID
	actorID  uuid.UUID
	item     *models.Item
	counter  *models.Counter
}

func newMovementsFixture(t *testing.T) *movementsFixture {
	t.Helper()
	conn := setupMovementsTestDB(t)

	repo := NewRepository(conn)
	itemsRepo := items.NewRepository(conn)
	countersRepo := counters.NewRepository(conn)
	sessionsRepo := sessions.NewRepository(conn)

	svc, err := NewService(repo, itemsRepo, countersRepo, sessionsRepo)
	require.NoError(t, err)

	tenantID := uuid.New()
	item := &models.Item{
		ID:           uuid.New(),
		TenantID:     tenantID,
		Code:         "SUG-001",
		Name:         "Sugar 1kg",
		Unit:         "pcs",
		CostPrice:    decimal.NewFromInt(80),
		SellingPrice: decimal.NewFromInt(100),
		ReorderLevel: 10,
		IsActive:     true,
	}
	require.NoError(t, itemsRepo.Create(context.Background(), item))

	counter := &models.Counter{ID: uuid.New(), TenantID: tenantID, Name: "Main Counter", IsActive: true}
	require.NoError(t, countersRepo.Create(context.Background(), counter))

	return &movementsFixture{
		conn:     conn,
		svc:      svc,
		repo:     repo,
		sessions: sessionsRepo,
		tenantID: tenantID,
		actorID:  uuid.New(),
		item:     item,
		counter:  counter,
	}
}

func (f *movementsFixture) openSession(t *testing.T) *models.DailySession {
	t.Helper()
	now := time.Now().UTC()
	session := &models.DailySession{
		ID:          uuid.New(),
		TenantID:    f.tenantID,
		SessionDate: time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC),
		OpenedBy:    f.actorID,
		OpeningTime: now,
		IsOpen:      true,
	}
	require.NoError(t, f.sessions.Create(context.Background(), session))
	return session
}

func (f *movementsFixture) record(t *testing.T, movementType enums.MovementType, qty int) *models.StockMovement {
	t.Helper()
	movement, err := f.svc.Record(context.Background(), f.tenantID, RecordMovementInput{
		ItemID:    f.item.ID,
		CounterID: &f.counter.ID,
		Type:      movementType,
		Quantity:  qty,
		ActorID:   f.actorID,
	})
	require.NoError(t, err)
	return movement
}

func TestRecordRejectsUnknownItem(t *testing.T) {
	f := newMovementsFixture(t)

	_, err := f.svc.Record(context.Background(), f.tenantID, RecordMovementInput{
		ItemID:   uuid.New(),
		Type:     enums.MovementTypeSale,
		Quantity: 1,
		ActorID:  f.actorID,
	})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}

func TestRecordRejectsNonPositiveQuantity(t *testing.T) {
	f := newMovementsFixture(t)

	for _, movementType := range []enums.MovementType{enums.MovementTypeSale, enums.MovementTypeRestock, enums.MovementTypeOpeningStock} {
		_, err := f.svc.Record(context.Background(), f.tenantID, RecordMovementInput{
			ItemID:   f.item.ID,
			Type:     movementType,
			Quantity: 0,
			ActorID:  f.actorID,
		})
		typed := pkgerrors.As(err)
		require.NotNil(t, typed, "type %s", movementType)
		assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
	}
}

func TestRecordClosingRequiresOpenSession(t *testing.T) {
	f := newMovementsFixture(t)

	_, err := f.svc.Record(context.Background(), f.tenantID, RecordMovementInput{
		ItemID:   f.item.ID,
		Type:     enums.MovementTypeClosingStock,
		Quantity: 10,
		ActorID:  f.actorID,
	})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeStateConflict, typed.Code())

	session := f.openSession(t)
	movement, err := f.svc.Record(context.Background(), f.tenantID, RecordMovementInput{
		ItemID:   f.item.ID,
		Type:     enums.MovementTypeClosingStock,
		Quantity: 0,
		ActorID:  f.actorID,
	})
	require.NoError(t, err, "zero closing counts are legitimate")
	require.NotNil(t, movement.SessionID)
	assert.Equal(t, session.ID, *movement.SessionID)
}

func TestCurrentStockIsSignedSum(t *testing.T) {
	f := newMovementsFixture(t)
	f.openSession(t)

	f.record(t, enums.MovementTypeOpeningStock, 100)
	f.record(t, enums.MovementTypeRestock, 50)
	f.record(t, enums.MovementTypeSale, 30)
	f.record(t, enums.MovementTypeClosingStock, 110)

	total, err := f.svc.CurrentStock(context.Background(), f.tenantID, f.item.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, 120, total, "closing counts must not shift live stock")
}

func TestCurrentStockIsOrderIndependent(t *testing.T) {
	f := newMovementsFixture(t)
	f.openSession(t)

	entries := []struct {
		movementType enums.MovementType
		qty          int
	}{
		{enums.MovementTypeOpeningStock, 40},
		{enums.MovementTypeSale, 5},
		{enums.MovementTypeRestock, 25},
		{enums.MovementTypeSale, 10},
		{enums.MovementTypeRestock, 8},
	}
	rand.Shuffle(len(entries), func(i, j int) { entries[i], entries[j] = entries[j], entries[i] })
	for _, entry := range entries {
		f.record(t, entry.movementType, entry.qty)
	}

	total, err := f.svc.CurrentStock(context.Background(), f.tenantID, f.item.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, 58, total)
}

func TestStockLevelsReportZeroForUnmovedItems(t *testing.T) {
	f := newMovementsFixture(t)

	levels, err := f.svc.StockLevels(context.Background(), f.tenantID)
	require.NoError(t, err)
	require.Len(t, levels, 1)
	assert.Equal(t, 0, levels[0].Total)
	assert.Equal(t, f.item.ID, levels[0].Item.ID)
}

func TestCountUncounted(t *testing.T) {
	f := newMovementsFixture(t)
	session := f.openSession(t)

	count, err := f.repo.CountUncounted(context.Background(), f.tenantID, session.SessionDate)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	f.record(t, enums.MovementTypeClosingStock, 5)

	count, err = f.repo.CountUncounted(context.Background(), f.tenantID, session.SessionDate)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestHistoryOrdersByDate(t *testing.T) {
	f := newMovementsFixture(t)
	f.openSession(t)

	f.record(t, enums.MovementTypeOpeningStock, 10)
	f.record(t, enums.MovementTypeSale, 4)

	history, err := f.svc.History(context.Background(), f.tenantID, f.item.ID, nil, nil)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, enums.MovementTypeOpeningStock, history[0].MovementType)
	assert.Equal(t, enums.MovementTypeSale, history[1].MovementType)
}
