package counters

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/dukapoint/stockledger-backend/pkg/db"
	"github.com/dukapoint/stockledger-backend/pkg/db/models"
)

func setupCountersTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	ddl := `
CREATE TABLE IF NOT EXISTS counters (
  id TEXT PRIMARY KEY,
  tenant_id TEXT NOT NULL,
  name TEXT NOT NULL,
  is_active INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME,
  UNIQUE (tenant_id, name)
);`
	require.NoError(t, conn.Exec(ddl).Error)
	return conn
}

func mustCreateTestCounter(t *testing.T, conn *gorm.DB, tenantID uuid.UUID, name string) *models.Counter {
	t.Helper()
	counter := &models.Counter{
		ID:       uuid.New(),
		TenantID: tenantID,
		Name:     name,
		IsActive: true,
	}
	require.NoError(t, conn.Create(counter).Error)
	return counter
}

func TestRepositoryFindByNameFoldsCaseAndSpace(t *testing.T) {
	conn := setupCountersTestDB(t)
	repo := NewRepository(conn)
	tenantID := uuid.New()

	created := mustCreateTestCounter(t, conn, tenantID, "Main Counter")

	found, err := repo.FindByName(context.Background(), tenantID, "  MAIN counter ")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, created.ID, found.ID)

	missing, err := repo.FindByName(context.Background(), tenantID, "Back Room")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestRepositoryDuplicateNameIsUniqueViolation(t *testing.T) {
	conn := setupCountersTestDB(t)
	repo := NewRepository(conn)
	tenantID := uuid.New()

	mustCreateTestCounter(t, conn, tenantID, "Main Counter")

	err := repo.Create(context.Background(), &models.Counter{
		ID:       uuid.New(),
		TenantID: tenantID,
		Name:     "Main Counter",
	})
	require.Error(t, err)
	assert.True(t, db.IsUniqueViolation(err, ""))
}

func TestServiceCreateAndResolve(t *testing.T) {
	conn := setupCountersTestDB(t)
	svc, err := NewService(NewRepository(conn))
	require.NoError(t, err)
	tenantID := uuid.New()

	counter, err := svc.CreateCounter(context.Background(), tenantID, CreateCounterInput{Name: "  Front Till "})
	require.NoError(t, err)
	assert.Equal(t, "Front Till", counter.Name)

	resolved, err := svc.Resolve(context.Background(), tenantID, "front till")
	require.NoError(t, err)
	require.NotNil(t, resolved)
	assert.Equal(t, counter.ID, resolved.ID)

	_, err = svc.CreateCounter(context.Background(), tenantID, CreateCounterInput{Name: "Front Till"})
	require.Error(t, err)
}
