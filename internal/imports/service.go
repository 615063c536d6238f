package imports

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dukapoint/stockledger-backend/internal/counters"
	"github.com/dukapoint/stockledger-backend/internal/items"
	"github.com/dukapoint/stockledger-backend/internal/movements"
	"github.com/dukapoint/stockledger-backend/internal/sessions"
	"github.com/dukapoint/stockledger-backend/pkg/db/models"
	"github.com/dukapoint/stockledger-backend/pkg/enums"
	pkgerrors "github.com/dukapoint/stockledger-backend/pkg/errors"
	"github.com/dukapoint/stockledger-backend/pkg/logger"
	"github.com/dukapoint/stockledger-backend/pkg/metrics"
	"github.com/dukapoint/stockledger-backend/pkg/tabular"
)

// Transactor runs fn inside one database transaction. Every import batch
// commits through this so a failing row aborts the whole upload.
type Transactor interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Result summarizes one committed batch.
type Result struct {
	Kind        string       `json:"kind"`
	Accepted    int          `json:"accepted"`
	Skipped     int          `json:"skipped"`
	SkippedRows []SkippedRow `json:"skipped_rows,omitempty"`
}

// SkippedRow records why a recoverable row was left out of the batch.
// Row numbering is 1-based over the parsed data rows.
type SkippedRow struct {
	Row    int    `json:"row"`
	Reason string `json:"reason"`
}

// Service commits uploaded movement batches against the ledger.
type Service interface {
	ImportSales(ctx context.Context, tenantID, actorID uuid.UUID, table *tabular.Table) (*Result, error)
	ImportPhysicalCounts(ctx context.Context, tenantID, actorID uuid.UUID, table *tabular.Table) (*Result, error)
	ImportRestock(ctx context.Context, tenantID, actorID uuid.UUID, table *tabular.Table) (*Result, error)
}

type service struct {
	transactor Transactor
	movements  movements.Repository
	items      items.Repository
	counters   counters.Repository
	sessions   sessions.Repository
	metrics    *metrics.ImportMetrics
	log        *logger.Logger
	maxRows    int
	now        func() time.Time
}

// NewService wires the import reconciler. Metrics and logger are optional.
func NewService(
	transactor Transactor,
	movementsRepo movements.Repository,
	itemsRepo items.Repository,
	countersRepo counters.Repository,
	sessionsRepo sessions.Repository,
	importMetrics *metrics.ImportMetrics,
	log *logger.Logger,
	maxRows int,
) (Service, error) {
	if transactor == nil {
		return nil, fmt.Errorf("transactor required")
	}
	if movementsRepo == nil {
		return nil, fmt.Errorf("movements repository required")
	}
	if itemsRepo == nil {
		return nil, fmt.Errorf("items repository required")
	}
	if countersRepo == nil {
		return nil, fmt.Errorf("counters repository required")
	}
	if sessionsRepo == nil {
		return nil, fmt.Errorf("sessions repository required")
	}
	if maxRows <= 0 {
		maxRows = 5000
	}
	return &service{
		transactor: transactor,
		movements:  movementsRepo,
		items:      itemsRepo,
		counters:   countersRepo,
		sessions:   sessionsRepo,
		metrics:    importMetrics,
		log:        log,
		maxRows:    maxRows,
		now:        time.Now,
	}, nil
}

// ImportSales handles both upload shapes: a flat file with a quantity
// column, and the filled-in sales template with one column per counter.
func (s *service) ImportSales(ctx context.Context, tenantID, actorID uuid.UUID, table *tabular.Table) (*Result, error) {
	templated := table != nil && !hasHeader(table, "quantity")
	return s.commit(ctx, "sales", tenantID, actorID, table, func(tx *gorm.DB, batch *batchContext) error {
		if templated {
			return s.collectTemplatedRows(ctx, tx, batch, table, enums.MovementTypeSale)
		}
		return s.collectQuantityRows(ctx, tx, batch, table, enums.MovementTypeSale, "quantity")
	})
}

// ImportPhysicalCounts records closing counts. The batch requires an open
// accounting day because closing counts belong to a session.
func (s *service) ImportPhysicalCounts(ctx context.Context, tenantID, actorID uuid.UUID, table *tabular.Table) (*Result, error) {
	open, err := s.sessions.FindOpen(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if open == nil {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "physical counts require an open accounting day")
	}
	return s.commit(ctx, "counts", tenantID, actorID, table, func(tx *gorm.DB, batch *batchContext) error {
		return s.collectCountRows(ctx, tx, batch, table)
	})
}

// ImportRestock handles both upload shapes: a flat file with a quantity
// column, and the reorder template with one ADD_<Counter> column per
// counter plus an optional total_quantity cross-check.
func (s *service) ImportRestock(ctx context.Context, tenantID, actorID uuid.UUID, table *tabular.Table) (*Result, error) {
	templated := table != nil && !hasHeader(table, "quantity")
	return s.commit(ctx, "restock", tenantID, actorID, table, func(tx *gorm.DB, batch *batchContext) error {
		if templated {
			return s.collectTemplatedRows(ctx, tx, batch, table, enums.MovementTypeRestock)
		}
		return s.collectQuantityRows(ctx, tx, batch, table, enums.MovementTypeRestock, "quantity")
	})
}

// batchContext accumulates state for one transactional batch.
type batchContext struct {
	tenantID uuid.UUID
	actorID  uuid.UUID
	date     time.Time
	session  *models.DailySession
	pending  []*models.StockMovement
	result   *Result
}

func (b *batchContext) skip(row int, reason string) {
	b.result.Skipped++
	b.result.SkippedRows = append(b.result.SkippedRows, SkippedRow{Row: row, Reason: reason})
}

func (b *batchContext) accept(movement *models.StockMovement) {
	if b.session != nil {
		movement.SessionID = &b.session.ID
	}
	b.pending = append(b.pending, movement)
}

type collectFunc func(tx *gorm.DB, batch *batchContext) error

func (s *service) commit(ctx context.Context, kind string, tenantID, actorID uuid.UUID, table *tabular.Table, collect collectFunc) (*Result, error) {
	if tenantID == uuid.Nil || actorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "tenant id and actor id are required")
	}
	if table == nil || len(table.Rows) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "upload has no data rows")
	}
	if len(table.Rows) > s.maxRows {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("upload exceeds the %d row limit", s.maxRows))
	}

	batch := &batchContext{
		tenantID: tenantID,
		actorID:  actorID,
		date:     dateOnly(s.now().UTC()),
		result:   &Result{Kind: kind},
	}
	started := s.now()

	err := s.transactor.WithTx(ctx, func(tx *gorm.DB) error {
		if open, err := s.sessions.WithTx(tx).FindOpen(ctx, tenantID); err != nil {
			return err
		} else if open != nil {
			batch.session = open
		}
		if err := collect(tx, batch); err != nil {
			return err
		}
		batch.result.Accepted = len(batch.pending)
		return s.movements.WithTx(tx).CreateBatch(ctx, batch.pending)
	})

	duration := s.now().Sub(started)
	if err != nil {
		s.metrics.ObserveBatch(kind, false, 0, 0, duration)
		if s.log != nil {
			s.log.Error(s.log.WithField(ctx, "import_kind", kind), "import batch aborted", err)
		}
		return nil, err
	}

	s.metrics.ObserveBatch(kind, true, batch.result.Accepted, batch.result.Skipped, duration)
	if s.log != nil {
		s.log.Info(s.log.WithFields(ctx, map[string]any{
			"import_kind": kind,
			"accepted":    batch.result.Accepted,
			"skipped":     batch.result.Skipped,
		}), "import batch committed")
	}
	return batch.result, nil
}

// collectQuantityRows handles the flat product/sku/quantity shape shared
// by sales uploads and plain restock uploads.
func (s *service) collectQuantityRows(ctx context.Context, tx *gorm.DB, batch *batchContext, table *tabular.Table, movementType enums.MovementType, quantityKey string) error {
	resolver := newRowResolver(s.items.WithTx(tx), s.counters.WithTx(tx), batch.tenantID)

	for i, row := range table.Rows {
		rowNum := i + 1

		item, reason, err := resolver.item(ctx, row, rowNum)
		if err != nil {
			return err
		}
		if item == nil {
			batch.skip(rowNum, reason)
			continue
		}

		qty, present, err := row.Int(quantityKey)
		if !present {
			batch.skip(rowNum, "missing quantity")
			continue
		}
		if err != nil {
			batch.skip(rowNum, "quantity is not an integer")
			continue
		}
		if qty <= 0 {
			batch.skip(rowNum, "quantity must be positive")
			continue
		}

		counterID, err := resolver.optionalCounter(ctx, row)
		if err != nil {
			return err
		}

		movement := &models.StockMovement{
			TenantID:     batch.tenantID,
			CounterID:    counterID,
			ItemID:       item.ID,
			MovementType: movementType,
			Quantity:     qty,
			MovementDate: batch.date,
			Notes:        rowNotes(row),
			CreatedBy:    batch.actorID,
		}
		batch.accept(movement)
	}
	return nil
}

// collectCountRows handles closing-count uploads. Counts need a counter
// so the variance report can be scoped; rows without one are skipped.
func (s *service) collectCountRows(ctx context.Context, tx *gorm.DB, batch *batchContext, table *tabular.Table) error {
	resolver := newRowResolver(s.items.WithTx(tx), s.counters.WithTx(tx), batch.tenantID)
	quantityKey := "counted_quantity"
	if !hasHeader(table, quantityKey) {
		quantityKey = "quantity"
	}

	for i, row := range table.Rows {
		rowNum := i + 1

		item, reason, err := resolver.item(ctx, row, rowNum)
		if err != nil {
			return err
		}
		if item == nil {
			batch.skip(rowNum, reason)
			continue
		}

		qty, present, err := row.Int(quantityKey)
		if !present {
			batch.skip(rowNum, "missing counted quantity")
			continue
		}
		if err != nil {
			batch.skip(rowNum, "counted quantity is not an integer")
			continue
		}
		if qty < 0 {
			batch.skip(rowNum, "counted quantity must not be negative")
			continue
		}

		counter, err := resolver.counter(ctx, row.Get("counter"))
		if err != nil {
			return err
		}
		if counter == nil {
			batch.skip(rowNum, "unknown or missing counter")
			continue
		}

		movement := &models.StockMovement{
			TenantID:     batch.tenantID,
			CounterID:    &counter.ID,
			ItemID:       item.ID,
			MovementType: enums.MovementTypeClosingStock,
			Quantity:     qty,
			MovementDate: batch.date,
			Notes:        rowNotes(row),
			CreatedBy:    batch.actorID,
		}
		batch.accept(movement)
	}
	return nil
}

// collectTemplatedRows parses the per-counter template shape shared by
// the reorder export (ADD_<Counter> columns, optionally cross-checked
// against a declared total_quantity) and the sales template (one plain
// <Counter> column each). Every nonzero cell becomes one movement.
func (s *service) collectTemplatedRows(ctx context.Context, tx *gorm.DB, batch *batchContext, table *tabular.Table, movementType enums.MovementType) error {
	resolver := newRowResolver(s.items.WithTx(tx), s.counters.WithTx(tx), batch.tenantID)

	counterColumns, err := resolveCounterColumns(ctx, resolver, table)
	if err != nil {
		return err
	}
	if len(counterColumns) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "upload has no counter quantity columns")
	}
	crossCheck := hasHeader(table, "total_quantity")

	for i, row := range table.Rows {
		rowNum := i + 1

		item, reason, err := resolver.item(ctx, row, rowNum)
		if err != nil {
			return err
		}
		if item == nil {
			batch.skip(rowNum, reason)
			continue
		}

		quantities := make(map[uuid.UUID]int, len(counterColumns))
		rowSum := 0
		badCell := ""
		for _, column := range counterColumns {
			qty, present, err := row.Int(column.header)
			if err != nil {
				badCell = fmt.Sprintf("column %q is not an integer", column.header)
				break
			}
			if !present || qty == 0 {
				continue
			}
			if qty < 0 {
				badCell = fmt.Sprintf("column %q must not be negative", column.header)
				break
			}
			quantities[column.counterID] = qty
			rowSum += qty
		}
		if badCell != "" {
			batch.skip(rowNum, badCell)
			continue
		}

		if crossCheck {
			declared, present, err := row.Int("total_quantity")
			if err != nil {
				batch.skip(rowNum, "total_quantity is not an integer")
				continue
			}
			if present && declared != rowSum {
				return pkgerrors.New(pkgerrors.CodeQuantityMismatch,
					fmt.Sprintf("row %d: declared total %d does not match counter quantities summing to %d", rowNum, declared, rowSum)).
					WithDetails(map[string]any{
						"row":      rowNum,
						"product":  rowIdentifier(row),
						"expected": declared,
						"actual":   rowSum,
					})
			}
		}

		if rowSum == 0 {
			batch.skip(rowNum, "no quantities in counter columns")
			continue
		}

		for counterID, qty := range quantities {
			counterID := counterID
			movement := &models.StockMovement{
				TenantID:     batch.tenantID,
				CounterID:    &counterID,
				ItemID:       item.ID,
				MovementType: movementType,
				Quantity:     qty,
				MovementDate: batch.date,
				Notes:        rowNotes(row),
				CreatedBy:    batch.actorID,
			}
			batch.accept(movement)
		}
	}
	return nil
}

type counterColumn struct {
	header    string
	counterID uuid.UUID
}

// reservedHeaders are template columns that never name a counter.
var reservedHeaders = map[string]bool{
	"product":        true,
	"sku":            true,
	"unit":           true,
	"quantity":       true,
	"total_quantity": true,
	"reorder_level":  true,
	"current_total":  true,
	"counter":        true,
	"notes":          true,
}

// resolveCounterColumns maps template headers to counters. ADD_ prefixes
// from the reorder export are stripped; current_ columns are read-only
// echo columns and ignored. A column naming no known counter aborts the
// batch since silently dropping its quantities would corrupt the intake.
func resolveCounterColumns(ctx context.Context, resolver *rowResolver, table *tabular.Table) ([]counterColumn, error) {
	var columns []counterColumn
	for _, header := range table.Headers {
		if header == "" || reservedHeaders[header] || strings.HasPrefix(header, "current_") {
			continue
		}
		name := strings.TrimPrefix(header, "add_")
		counter, err := resolver.counter(ctx, name)
		if err != nil {
			return nil, err
		}
		if counter == nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("column %q does not match any counter", header))
		}
		columns = append(columns, counterColumn{header: header, counterID: counter.ID})
	}
	return columns, nil
}

// rowResolver resolves product and counter references with per-batch
// caching so big uploads stay at a handful of lookups.
type rowResolver struct {
	items    items.Repository
	counters counters.Repository
	tenantID uuid.UUID
	itemHits map[string]*models.Item
	ctrHits  map[string]*models.Counter
}

func newRowResolver(itemsRepo items.Repository, countersRepo counters.Repository, tenantID uuid.UUID) *rowResolver {
	return &rowResolver{
		items:    itemsRepo,
		counters: countersRepo,
		tenantID: tenantID,
		itemHits: map[string]*models.Item{},
		ctrHits:  map[string]*models.Counter{},
	}
}

// item resolves a row's product reference. A row naming no product at
// all is recoverable (reason is returned); a row naming a product that
// does not exist aborts the batch with an unknown-product error.
func (r *rowResolver) item(ctx context.Context, row tabular.Row, rowNum int) (*models.Item, string, error) {
	code := row.Get("sku")
	name := row.Get("product")
	if code == "" && name == "" {
		return nil, "missing product", nil
	}

	cacheKey := strings.ToLower(code + "|" + name)
	if item, ok := r.itemHits[cacheKey]; ok {
		return item, "", nil
	}

	if code != "" {
		item, err := r.items.FindByCode(ctx, r.tenantID, code)
		if err != nil {
			return nil, "", err
		}
		if item != nil {
			r.itemHits[cacheKey] = item
			return item, "", nil
		}
	}
	if name != "" {
		item, err := r.items.FindByName(ctx, r.tenantID, name)
		if err != nil {
			return nil, "", err
		}
		if item != nil {
			r.itemHits[cacheKey] = item
			return item, "", nil
		}
	}

	err := pkgerrors.New(pkgerrors.CodeUnknownProduct,
		fmt.Sprintf("row %d: product %q is not in the catalog", rowNum, rowIdentifier(row))).
		WithDetails(map[string]any{"row": rowNum, "product": rowIdentifier(row)})
	return nil, "", err
}

func (r *rowResolver) counter(ctx context.Context, name string) (*models.Counter, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		return nil, nil
	}
	if counter, ok := r.ctrHits[key]; ok {
		return counter, nil
	}
	counter, err := r.counters.FindByName(ctx, r.tenantID, name)
	if err != nil {
		return nil, err
	}
	if counter != nil {
		r.ctrHits[key] = counter
	}
	return counter, nil
}

// optionalCounter resolves a sales/restock row's counter cell leniently:
// blank or unmatched counters leave the movement counter-less rather
// than failing a row that is otherwise sound.
func (r *rowResolver) optionalCounter(ctx context.Context, row tabular.Row) (*uuid.UUID, error) {
	counter, err := r.counter(ctx, row.Get("counter"))
	if err != nil {
		return nil, err
	}
	if counter == nil {
		return nil, nil
	}
	return &counter.ID, nil
}

func rowNotes(row tabular.Row) *string {
	if note := row.Get("notes"); note != "" {
		return &note
	}
	return nil
}

func rowIdentifier(row tabular.Row) string {
	if code := row.Get("sku"); code != "" {
		return code
	}
	return row.Get("product")
}

func hasHeader(table *tabular.Table, name string) bool {
	for _, header := range table.Headers {
		if header == name {
			return true
		}
	}
	return false
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
