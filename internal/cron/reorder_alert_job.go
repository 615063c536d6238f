package cron

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/dukapoint/stockledger-backend/internal/items"
	"github.com/dukapoint/stockledger-backend/internal/movements"
	"github.com/dukapoint/stockledger-backend/internal/tenants"
	"github.com/dukapoint/stockledger-backend/pkg/logger"
)

// ReorderAlertJob scans each tenant's derived stock and flags items that
// fell below their reorder level, so low stock is surfaced even when
// nobody pulls the reorder export.
type ReorderAlertJob struct {
	tenants   tenants.Repository
	items     items.Repository
	movements movements.Repository
	logg      *logger.Logger
}

// NewReorderAlertJob builds the reorder alert scanner.
func NewReorderAlertJob(tenantsRepo tenants.Repository, itemsRepo items.Repository, movementsRepo movements.Repository, logg *logger.Logger) (*ReorderAlertJob, error) {
	if tenantsRepo == nil {
		return nil, fmt.Errorf("tenants repository required")
	}
	if itemsRepo == nil {
		return nil, fmt.Errorf("items repository required")
	}
	if movementsRepo == nil {
		return nil, fmt.Errorf("movements repository required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &ReorderAlertJob{tenants: tenantsRepo, items: itemsRepo, movements: movementsRepo, logg: logg}, nil
}

// Name identifies the job in logs and metrics.
func (j *ReorderAlertJob) Name() string {
	return "reorder-alerts"
}

// Run logs a warning per tenant holding below-reorder items.
func (j *ReorderAlertJob) Run(ctx context.Context) error {
	tenantList, err := j.tenants.ListActive(ctx)
	if err != nil {
		return fmt.Errorf("listing tenants: %w", err)
	}

	var errs error
	for _, tenant := range tenantList {
		below, err := j.countBelowReorder(ctx, tenant.ID)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("tenant %s: %w", tenant.ID, err))
			continue
		}
		if below == 0 {
			continue
		}
		j.logg.Warn(j.logg.WithFields(ctx, map[string]any{
			"tenant_id":   tenant.ID.String(),
			"tenant_name": tenant.Name,
			"below_count": below,
		}), "items below reorder level")
	}
	return errs
}

func (j *ReorderAlertJob) countBelowReorder(ctx context.Context, tenantID uuid.UUID) (int, error) {
	catalog, err := j.items.List(ctx, tenantID, true)
	if err != nil {
		return 0, err
	}
	totals, err := j.movements.StockTotals(ctx, tenantID)
	if err != nil {
		return 0, err
	}

	byItem := make(map[uuid.UUID]int, len(totals))
	for _, total := range totals {
		byItem[total.ItemID] = total.Total
	}

	below := 0
	for _, item := range catalog {
		if byItem[item.ID] < item.ReorderLevel {
			below++
		}
	}
	return below, nil
}
