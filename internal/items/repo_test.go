package items

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/dukapoint/stockledger-backend/pkg/db"
	"github.com/dukapoint/stockledger-backend/pkg/db/models"
)

func setupItemsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	ddl := `
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
);`
	require.NoError(t, conn.Exec(ddl).Error)
	return conn
}

func mustCreateTestItem(t *testing.T, conn *gorm.DB, tenantID uuid.UUID, code, name string) *models.Item {
	t.Helper()
	item := &models.Item{
		ID:           uuid.New(),
		TenantID:     tenantID,
		Code:         code,
		Name:         name,
		Unit:         "pcs",
		CostPrice:    decimal.NewFromInt(80),
		SellingPrice: decimal.NewFromInt(100),
		ReorderLevel: 5,
		IsActive:     true,
	}
	require.NoError(t, conn.Create(item).Error)
	return item
}

func TestRepositoryFindByCodeIsCaseInsensitive(t *testing.T) {
	conn := setupItemsTestDB(t)
	repo := NewRepository(conn)
	tenantID := uuid.New()

	created := mustCreateTestItem(t, conn, tenantID, "SUG-001", "Sugar 1kg")

	found, err := repo.FindByCode(context.Background(), tenantID, "  sug-001 ")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, created.ID, found.ID)

	missing, err := repo.FindByCode(context.Background(), tenantID, "NOPE")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestRepositoryFindByCodeIsTenantScoped(t *testing.T) {
	conn := setupItemsTestDB(t)
	repo := NewRepository(conn)

	mustCreateTestItem(t, conn, uuid.New(), "MZF-002", "Maize Flour")

	found, err := repo.FindByCode(context.Background(), uuid.New(), "MZF-002")
	require.NoError(t, err)
	assert.Nil(t, found, "other tenants must not see the row")
}

func TestRepositoryDuplicateCodeIsUniqueViolation(t *testing.T) {
	conn := setupItemsTestDB(t)
	repo := NewRepository(conn)
	tenantID := uuid.New()

	mustCreateTestItem(t, conn, tenantID, "SUG-001", "Sugar 1kg")

	dup := &models.Item{
		ID:       uuid.New(),
		TenantID: tenantID,
		Code:     "SUG-001",
		Name:     "Sugar 1kg duplicate",
		Unit:     "pcs",
	}
	err := repo.Create(context.Background(), dup)
	require.Error(t, err)
	assert.True(t, db.IsUniqueViolation(err, ""))
}

func TestRepositoryListActiveOnly(t *testing.T) {
	conn := setupItemsTestDB(t)
	repo := NewRepository(conn)
	tenantID := uuid.New()

	mustCreateTestItem(t, conn, tenantID, "SUG-001", "Sugar 1kg")
	retired := mustCreateTestItem(t, conn, tenantID, "OLD-001", "Retired Item")
	retired.IsActive = false
	require.NoError(t, repo.Update(context.Background(), retired))

	active, err := repo.List(context.Background(), tenantID, true)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "SUG-001", active[0].Code)

	all, err := repo.List(context.Background(), tenantID, false)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}
