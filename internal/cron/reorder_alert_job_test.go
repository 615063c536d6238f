package cron

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/dukapoint/stockledger-backend/internal/items"
	"github.com/dukapoint/stockledger-backend/internal/movements"
	"github.com/dukapoint/stockledger-backend/internal/tenants"
	"github.com/dukapoint/stockledger-backend/pkg/db/models"
	"github.com/dukapoint/stockledger-backend/pkg/logger"
)

type stubTenantsRepo struct {
	tenants.Repository
	list []models.Tenant
}

func (s *stubTenantsRepo) ListActive(context.Context) ([]models.Tenant, error) {
	return s.list, nil
}

type stubItemsRepo struct {
	items.Repository
	catalog []models.Item
}

func (s *stubItemsRepo) List(context.Context, uuid.UUID, bool) ([]models.Item, error) {
	return s.catalog, nil
}

type stubMovementsRepo struct {
	movements.Repository
	totals []movements.StockTotal
}

func (s *stubMovementsRepo) StockTotals(context.Context, uuid.UUID) ([]movements.StockTotal, error) {
	return s.totals, nil
}

func TestReorderAlertJobCountsBelowReorder(t *testing.T) {
	low := models.Item{ID: uuid.New(), Code: "SUG-001", Name: "Sugar 1kg", ReorderLevel: 10, IsActive: true}
	fine := models.Item{ID: uuid.New(), Code: "MZF-002", Name: "Maize Flour", ReorderLevel: 5, IsActive: true}

	job, err := NewReorderAlertJob(
		&stubTenantsRepo{list: []models.Tenant{{ID: uuid.New(), Name: "Duka One", IsActive: true}}},
		&stubItemsRepo{catalog: []models.Item{low, fine}},
		&stubMovementsRepo{totals: []movements.StockTotal{
			{ItemID: low.ID, Total: 3},
			{ItemID: fine.ID, Total: 40},
		}},
		logger.New(logger.Options{ServiceName: "cron-test"}),
	)
	require.NoError(t, err)
	require.Equal(t, "reorder-alerts", job.Name())
	require.NoError(t, job.Run(context.Background()))

	tenantID := uuid.New()
	below, err := job.countBelowReorder(context.Background(), tenantID)
	require.NoError(t, err)
	require.Equal(t, 1, below, "only the item under its reorder level counts")
}

func TestReorderAlertJobNoTenants(t *testing.T) {
	job, err := NewReorderAlertJob(
		&stubTenantsRepo{},
		&stubItemsRepo{},
		&stubMovementsRepo{},
		logger.New(logger.Options{ServiceName: "cron-test"}),
	)
	require.NoError(t, err)
	require.NoError(t, job.Run(context.Background()))
}
