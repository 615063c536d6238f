package exports

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dukapoint/stockledger-backend/internal/counters"
	"github.com/dukapoint/stockledger-backend/internal/items"
	"github.com/dukapoint/stockledger-backend/internal/movements"
	"github.com/dukapoint/stockledger-backend/pkg/db/models"
)

type stubItemsRepo struct {
	items.Repository
	catalog []models.Item
}

func (s *stubItemsRepo) List(context.Context, uuid.UUID, bool) ([]models.Item, error) {
	return s.catalog, nil
}

type stubCountersRepo struct {
	counters.Repository
	list []models.Counter
}

func (s *stubCountersRepo) List(context.Context, uuid.UUID, bool) ([]models.Counter, error) {
	return s.list, nil
}

type stubMovementsRepo struct {
	movements.Repository
	totals []movements.CounterTotal
}

func (s *stubMovementsRepo) CounterTotals(context.Context, uuid.UUID) ([]movements.CounterTotal, error) {
	return s.totals, nil
}

func TestWriteReorderCSVListsOnlyBelowReorderLevel(t *testing.T) {
	low := models.Item{ID: uuid.New(), Code: "SUG-001", Name: "Sugar 1kg", ReorderLevel: 10, IsActive: true}
	fine := models.Item{ID: uuid.New(), Code: "MZF-002", Name: "Maize Flour", ReorderLevel: 5, IsActive: true}
	main := models.Counter{ID: uuid.New(), Name: "Main Counter", IsActive: true}
	back := models.Counter{ID: uuid.New(), Name: "Back Room", IsActive: true}

	svc, err := NewService(
		&stubItemsRepo{catalog: []models.Item{low, fine}},
		&stubCountersRepo{list: []models.Counter{main, back}},
		&stubMovementsRepo{totals: []movements.CounterTotal{
			{ItemID: low.ID, CounterID: &main.ID, Total: 3},
			{ItemID: low.ID, CounterID: &back.ID, Total: 1},
			{ItemID: fine.ID, CounterID: &main.ID, Total: 50},
		}},
	)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, svc.WriteReorderCSV(context.Background(), uuid.New(), &buf))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2, "only the below-level item appears")
	assert.Equal(t, "product,sku,reorder_level,current_total,current_Main Counter,current_Back Room,ADD_Main Counter,ADD_Back Room", lines[0])
	assert.Equal(t, "Sugar 1kg,SUG-001,10,4,3,1,0,0", lines[1])
}

func TestWriteReorderCSVIsIdempotent(t *testing.T) {
	item := models.Item{ID: uuid.New(), Code: "SUG-001", Name: "Sugar 1kg", ReorderLevel: 10, IsActive: true}
	main := models.Counter{ID: uuid.New(), Name: "Main Counter", IsActive: true}

	svc, err := NewService(
		&stubItemsRepo{catalog: []models.Item{item}},
		&stubCountersRepo{list: []models.Counter{main}},
		&stubMovementsRepo{totals: []movements.CounterTotal{{ItemID: item.ID, CounterID: &main.ID, Total: 2}}},
	)
	require.NoError(t, err)

	var first, second bytes.Buffer
	require.NoError(t, svc.WriteReorderCSV(context.Background(), uuid.New(), &first))
	require.NoError(t, svc.WriteReorderCSV(context.Background(), uuid.New(), &second))
	assert.Equal(t, first.String(), second.String(), "exporting must not mutate the ledger")
}

func TestWriteReorderCSVCountsMovementsWithoutCounterInTotal(t *testing.T) {
	item := models.Item{ID: uuid.New(), Code: "SUG-001", Name: "Sugar 1kg", ReorderLevel: 10, IsActive: true}
	main := models.Counter{ID: uuid.New(), Name: "Main Counter", IsActive: true}

	svc, err := NewService(
		&stubItemsRepo{catalog: []models.Item{item}},
		&stubCountersRepo{list: []models.Counter{main}},
		&stubMovementsRepo{totals: []movements.CounterTotal{
			{ItemID: item.ID, CounterID: &main.ID, Total: 2},
			{ItemID: item.ID, CounterID: nil, Total: 4},
		}},
	)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, svc.WriteReorderCSV(context.Background(), uuid.New(), &buf))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "Sugar 1kg,SUG-001,10,6,2,0", lines[1])
}

func TestWriteSalesTemplateCSV(t *testing.T) {
	item := models.Item{ID: uuid.New(), Code: "SUG-001", Name: "Sugar 1kg", IsActive: true}
	main := models.Counter{ID: uuid.New(), Name: "Main Counter", IsActive: true}
	back := models.Counter{ID: uuid.New(), Name: "Back Room", IsActive: true}

	svc, err := NewService(
		&stubItemsRepo{catalog: []models.Item{item}},
		&stubCountersRepo{list: []models.Counter{main, back}},
		&stubMovementsRepo{},
	)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, svc.WriteSalesTemplateCSV(context.Background(), uuid.New(), &buf))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "product,sku,Main Counter,Back Room", lines[0])
	assert.Equal(t, "Sugar 1kg,SUG-001,0,0", lines[1])
}
