package exports

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/google/uuid"

	"github.com/dukapoint/stockledger-backend/internal/counters"
	"github.com/dukapoint/stockledger-backend/internal/items"
	"github.com/dukapoint/stockledger-backend/internal/movements"
	pkgerrors "github.com/dukapoint/stockledger-backend/pkg/errors"
	"github.com/dukapoint/stockledger-backend/pkg/tabular"
)

// Service writes CSV worksheets derived from the ledger. The reorder
// sheet doubles as the restock import template: its ADD_<Counter>
// columns round-trip through the import side untouched.
type Service interface {
	WriteReorderCSV(ctx context.Context, tenantID uuid.UUID, w io.Writer) error
	WriteSalesTemplateCSV(ctx context.Context, tenantID uuid.UUID, w io.Writer) error
}

type service struct {
	items     items.Repository
	counters  counters.Repository
	movements movements.Repository
}

// NewService wires the export writer.
func NewService(itemsRepo items.Repository, countersRepo counters.Repository, movementsRepo movements.Repository) (Service, error) {
	if itemsRepo == nil {
		return nil, fmt.Errorf("items repository required")
	}
	if countersRepo == nil {
		return nil, fmt.Errorf("counters repository required")
	}
	if movementsRepo == nil {
		return nil, fmt.Errorf("movements repository required")
	}
	return &service{items: itemsRepo, counters: countersRepo, movements: movementsRepo}, nil
}

// WriteReorderCSV lists every active item whose derived total stock sits
// below its reorder level. Exporting changes nothing in the ledger, so
// repeated exports of an unchanged ledger produce identical files.
func (s *service) WriteReorderCSV(ctx context.Context, tenantID uuid.UUID, w io.Writer) error {
	if tenantID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "tenant id is required")
	}

	catalog, err := s.items.List(ctx, tenantID, true)
	if err != nil {
		return err
	}
	counterList, err := s.counters.List(ctx, tenantID, true)
	if err != nil {
		return err
	}
	totals, err := s.movements.CounterTotals(ctx, tenantID)
	if err != nil {
		return err
	}

	totalByItem := map[uuid.UUID]int{}
	byItemCounter := map[uuid.UUID]map[uuid.UUID]int{}
	for _, total := range totals {
		totalByItem[total.ItemID] += total.Total
		if total.CounterID == nil {
			continue
		}
		perCounter := byItemCounter[total.ItemID]
		if perCounter == nil {
			perCounter = map[uuid.UUID]int{}
			byItemCounter[total.ItemID] = perCounter
		}
		perCounter[*total.CounterID] += total.Total
	}

	header := []string{"product", "sku", "reorder_level", "current_total"}
	for _, counter := range counterList {
		header = append(header, "current_"+counter.Name)
	}
	for _, counter := range counterList {
		header = append(header, "ADD_"+counter.Name)
	}

	var rows [][]string
	for _, item := range catalog {
		total := totalByItem[item.ID]
		if total >= item.ReorderLevel {
			continue
		}
		row := []string{item.Name, item.Code, strconv.Itoa(item.ReorderLevel), strconv.Itoa(total)}
		for _, counter := range counterList {
			row = append(row, strconv.Itoa(byItemCounter[item.ID][counter.ID]))
		}
		for range counterList {
			row = append(row, "0")
		}
		rows = append(rows, row)
	}

	return tabular.WriteCSV(w, header, rows)
}

// WriteSalesTemplateCSV emits a blank per-counter sales sheet covering
// the active catalog.
func (s *service) WriteSalesTemplateCSV(ctx context.Context, tenantID uuid.UUID, w io.Writer) error {
	if tenantID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "tenant id is required")
	}

	catalog, err := s.items.List(ctx, tenantID, true)
	if err != nil {
		return err
	}
	counterList, err := s.counters.List(ctx, tenantID, true)
	if err != nil {
		return err
	}

	header := []string{"product", "sku"}
	for _, counter := range counterList {
		header = append(header, counter.Name)
	}

	rows := make([][]string, 0, len(catalog))
	for _, item := range catalog {
		row := []string{item.Name, item.Code}
		for range counterList {
			row = append(row, "0")
		}
		rows = append(rows, row)
	}

	return tabular.WriteCSV(w, header, rows)
}
