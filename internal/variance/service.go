package variance

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dukapoint/stockledger-backend/internal/items"
	"github.com/dukapoint/stockledger-backend/internal/movements"
	"github.com/dukapoint/stockledger-backend/pkg/db/models"
	"github.com/dukapoint/stockledger-backend/pkg/enums"
	pkgerrors "github.com/dukapoint/stockledger-backend/pkg/errors"
)

// Row is one item's variance for the reported date.
//
// Expected stock is opening plus restocks minus sales for the date. The
// variance is expected minus the physical closing count, so a positive
// variance is a shortage and a negative one is a surplus. Items without
// a closing count keep a zero variance and are flagged via Counted.
type Row struct {
	ItemID        uuid.UUID       `json:"item_id"`
	Code          string          `json:"code"`
	Name          string          `json:"name"`
	Unit          string          `json:"unit"`
	Opening       int             `json:"opening"`
	Restocked     int             `json:"restocked"`
	Sold          int             `json:"sold"`
	Expected      int             `json:"expected"`
	Closing       int             `json:"closing"`
	Counted       bool            `json:"counted"`
	Variance      int             `json:"variance"`
	VarianceValue decimal.Decimal `json:"variance_value"`
}

// Report is the tenant-wide variance for one date.
type Report struct {
	Date          string          `json:"date"`
	CounterID     *uuid.UUID      `json:"counter_id,omitempty"`
	Rows          []Row           `json:"rows"`
	TotalValue    decimal.Decimal `json:"total_value"`
	UncountedRows int             `json:"uncounted_rows"`
}

// Service computes stock variance reports from the movement ledger.
type Service interface {
	Report(ctx context.Context, tenantID uuid.UUID, date time.Time, counterID *uuid.UUID) (*Report, error)
}

type service struct {
	movements movements.Repository
	items     items.Repository
}

// NewService wires the variance calculator.
func NewService(movementsRepo movements.Repository, itemsRepo items.Repository) (Service, error) {
	if movementsRepo == nil {
		return nil, fmt.Errorf("movements repository required")
	}
	if itemsRepo == nil {
		return nil, fmt.Errorf("items repository required")
	}
	return &service{movements: movementsRepo, items: itemsRepo}, nil
}

func (s *service) Report(ctx context.Context, tenantID uuid.UUID, date time.Time, counterID *uuid.UUID) (*Report, error) {
	if tenantID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "tenant id is required")
	}
	day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)

	catalog, err := s.items.List(ctx, tenantID, true)
	if err != nil {
		return nil, err
	}
	sums, err := s.movements.TypeSumsForDate(ctx, tenantID, day, counterID)
	if err != nil {
		return nil, err
	}

	byItem := make(map[uuid.UUID]*daySums, len(catalog))
	for _, sum := range sums {
		entry := byItem[sum.ItemID]
		if entry == nil {
			entry = &daySums{}
			byItem[sum.ItemID] = entry
		}
		switch sum.MovementType {
		case enums.MovementTypeOpeningStock:
			entry.opening += sum.Total
		case enums.MovementTypeRestock:
			entry.restock += sum.Total
		case enums.MovementTypeSale:
			entry.sale += sum.Total
		case enums.MovementTypeClosingStock:
			entry.closing += sum.Total
			entry.counted = true
		}
	}

	report := &Report{
		Date:       day.Format("2006-01-02"),
		CounterID:  counterID,
		Rows:       make([]Row, 0, len(catalog)),
		TotalValue: decimal.Zero,
	}
	for _, item := range catalog {
		row := buildRow(item, byItem[item.ID])
		if !row.Counted {
			report.UncountedRows++
		}
		report.TotalValue = report.TotalValue.Add(row.VarianceValue)
		report.Rows = append(report.Rows, row)
	}
	return report, nil
}

type daySums struct {
	opening int
	restock int
	sale    int
	closing int
	counted bool
}

func buildRow(item models.Item, sums *daySums) Row {
	row := Row{
		ItemID:        item.ID,
		Code:          item.Code,
		Name:          item.Name,
		Unit:          item.Unit,
		VarianceValue: decimal.Zero,
	}
	if sums == nil {
		return row
	}

	row.Opening = sums.opening
	row.Restocked = sums.restock
	row.Sold = sums.sale
	row.Expected = sums.opening + sums.restock - sums.sale
	row.Closing = sums.closing
	row.Counted = sums.counted

	// Uncounted items never contribute variance; an absent count is not
	// a zero count.
	if sums.counted {
		row.Variance = row.Expected - row.Closing
		row.VarianceValue = item.CostPrice.Mul(decimal.NewFromInt(int64(row.Variance)))
	}
	return row
}
