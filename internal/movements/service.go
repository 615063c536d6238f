package movements

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dukapoint/stockledger-backend/internal/counters"
	"github.com/dukapoint/stockledger-backend/internal/items"
	"github.com/dukapoint/stockledger-backend/internal/sessions"
	"github.com/dukapoint/stockledger-backend/pkg/db/models"
	"github.com/dukapoint/stockledger-backend/pkg/enums"
	pkgerrors "github.com/dukapoint/stockledger-backend/pkg/errors"
)

// Service records ledger movements and derives stock from them.
type Service interface {
	Record(ctx context.Context, tenantID uuid.UUID, input RecordMovementInput) (*models.StockMovement, error)
	CurrentStock(ctx context.Context, tenantID, itemID uuid.UUID, counterID *uuid.UUID) (int, error)
	StockLevels(ctx context.Context, tenantID uuid.UUID) ([]StockLevel, error)
	History(ctx context.Context, tenantID, itemID uuid.UUID, from, to *time.Time) ([]models.StockMovement, error)
}

// RecordMovementInput captures one ledger fact to append.
type RecordMovementInput struct {
	ItemID    uuid.UUID          `json:"item_id" validate:"required"`
	CounterID *uuid.UUID         `json:"counter_id"`
	Type      enums.MovementType `json:"movement_type" validate:"required"`
	Quantity  int                `json:"quantity"`
	Date      *time.Time         `json:"movement_date"`
	Notes     *string            `json:"notes"`
	ActorID   uuid.UUID          `json:"-"`
}

// StockLevel pairs a catalog item with its derived total stock.
type StockLevel struct {
	Item  models.Item `json:"item"`
	Total int         `json:"total"`
}

type service struct {
	repo     Repository
	items    items.Repository
	counters counters.Repository
	sessions sessions.Repository
	now      func() time.Time
}

// NewService wires the movement ledger with its reference repositories.
func NewService(repo Repository, itemsRepo items.Repository, countersRepo counters.Repository, sessionsRepo sessions.Repository) (Service, error) {
	if repo == nil {
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
	return &service{
		repo:     repo,
		items:    itemsRepo,
		counters: countersRepo,
		sessions: sessionsRepo,
		now:      time.Now,
	}, nil
}

// Record appends one movement. Closing counts require an open accounting
// day; other movement types attach to the open session when one exists.
func (s *service) Record(ctx context.Context, tenantID uuid.UUID, input RecordMovementInput) (*models.StockMovement, error) {
	if tenantID == uuid.Nil || input.ActorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "tenant id and actor id are required")
	}
	if !input.Type.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid movement type %q", input.Type))
	}
	if err := validateQuantity(input.Type, input.Quantity); err != nil {
		return nil, err
	}

	item, err := s.items.FindByID(ctx, tenantID, input.ItemID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "item not found")
	}

	if input.CounterID != nil {
		counter, err := s.counters.FindByID(ctx, tenantID, *input.CounterID)
		if err != nil {
			return nil, err
		}
		if counter == nil {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "counter not found")
		}
	}

	open, err := s.sessions.FindOpen(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if input.Type == enums.MovementTypeClosingStock && open == nil {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "closing counts require an open accounting day")
	}

	date := dateOnly(s.now().UTC())
	if input.Date != nil {
		date = dateOnly(input.Date.UTC())
	}

	movement := &models.StockMovement{
		TenantID:     tenantID,
		CounterID:    input.CounterID,
		ItemID:       input.ItemID,
		MovementType: input.Type,
		Quantity:     input.Quantity,
		MovementDate: date,
		Notes:        input.Notes,
		CreatedBy:    input.ActorID,
	}
	if open != nil {
		movement.SessionID = &open.ID
	}

	if err := s.repo.Create(ctx, movement); err != nil {
		return nil, err
	}
	return movement, nil
}

func (s *service) CurrentStock(ctx context.Context, tenantID, itemID uuid.UUID, counterID *uuid.UUID) (int, error) {
	if tenantID == uuid.Nil || itemID == uuid.Nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "tenant id and item id are required")
	}
	return s.repo.CurrentStock(ctx, tenantID, itemID, counterID)
}

// StockLevels returns every active item with its ledger-derived total.
// Items with no movements report zero.
func (s *service) StockLevels(ctx context.Context, tenantID uuid.UUID) ([]StockLevel, error) {
	if tenantID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "tenant id is required")
	}

	catalog, err := s.items.List(ctx, tenantID, true)
	if err != nil {
		return nil, err
	}
	totals, err := s.repo.StockTotals(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	byItem := make(map[uuid.UUID]int, len(totals))
	for _, total := range totals {
		byItem[total.ItemID] = total.Total
	}

	levels := make([]StockLevel, 0, len(catalog))
	for _, item := range catalog {
		levels = append(levels, StockLevel{Item: item, Total: byItem[item.ID]})
	}
	return levels, nil
}

func (s *service) History(ctx context.Context, tenantID, itemID uuid.UUID, from, to *time.Time) ([]models.StockMovement, error) {
	if tenantID == uuid.Nil || itemID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "tenant id and item id are required")
	}
	return s.repo.ListByItem(ctx, tenantID, itemID, from, to)
}

func validateQuantity(movementType enums.MovementType, quantity int) error {
	if movementType == enums.MovementTypeClosingStock {
		if quantity < 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "closing count must not be negative")
		}
		return nil
	}
	if quantity <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be a positive integer")
	}
	return nil
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
