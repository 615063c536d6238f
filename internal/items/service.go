package items

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dukapoint/stockledger-backend/pkg/db"
	"github.com/dukapoint/stockledger-backend/pkg/db/models"
	pkgerrors "github.com/dukapoint/stockledger-backend/pkg/errors"
)

// Service defines catalog operations for tenant items.
type Service interface {
	CreateItem(ctx context.Context, tenantID uuid.UUID, input CreateItemInput) (*models.Item, error)
	UpdateItem(ctx context.Context, tenantID, itemID uuid.UUID, input UpdateItemInput) (*models.Item, error)
	GetItem(ctx context.Context, tenantID, itemID uuid.UUID) (*models.Item, error)
	ListItems(ctx context.Context, tenantID uuid.UUID, activeOnly bool) ([]models.Item, error)
	Resolve(ctx context.Context, tenantID uuid.UUID, name, code string) (*models.Item, error)
}

type service struct {
	repo Repository
}

// CreateItemInput captures the fields a new catalog item requires.
type CreateItemInput struct {
	Code         string          `json:"code" validate:"required"`
	Name         string          `json:"name" validate:"required"`
	Unit         string          `json:"unit"`
	CostPrice    decimal.Decimal `json:"cost_price"`
	SellingPrice decimal.Decimal `json:"selling_price"`
	ReorderLevel int             `json:"reorder_level" validate:"gte=0"`
	Category     *string         `json:"category"`
}

// UpdateItemInput carries optional catalog updates. Nil fields are untouched.
type UpdateItemInput struct {
	Name         *string          `json:"name"`
	Unit         *string          `json:"unit"`
	CostPrice    *decimal.Decimal `json:"cost_price"`
	SellingPrice *decimal.Decimal `json:"selling_price"`
	ReorderLevel *int             `json:"reorder_level" validate:"omitempty,gte=0"`
	Category     *string          `json:"category"`
	IsActive     *bool            `json:"is_active"`
}

// NewService wires an item service with the provided repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("items repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) CreateItem(ctx context.Context, tenantID uuid.UUID, input CreateItemInput) (*models.Item, error) {
	if tenantID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "tenant id is required")
	}
	code := strings.TrimSpace(input.Code)
	name := strings.TrimSpace(input.Name)
	if code == "" || name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "item code and name are required")
	}
	if input.CostPrice.IsNegative() || input.SellingPrice.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "prices must not be negative")
	}
	if input.ReorderLevel < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "reorder level must not be negative")
	}

	unit := strings.TrimSpace(input.Unit)
	if unit == "" {
		unit = "pcs"
	}

	item := &models.Item{
		TenantID:     tenantID,
		Code:         code,
		Name:         name,
		Unit:         unit,
		CostPrice:    input.CostPrice,
		SellingPrice: input.SellingPrice,
		ReorderLevel: input.ReorderLevel,
		Category:     input.Category,
		IsActive:     true,
	}
	if err := s.repo.Create(ctx, item); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, fmt.Sprintf("item code %q already exists", code))
		}
		return nil, err
	}
	return item, nil
}

func (s *service) UpdateItem(ctx context.Context, tenantID, itemID uuid.UUID, input UpdateItemInput) (*models.Item, error) {
	item, err := s.GetItem(ctx, tenantID, itemID)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "item name must not be blank")
		}
		item.Name = name
	}
	if input.Unit != nil && strings.TrimSpace(*input.Unit) != "" {
		item.Unit = strings.TrimSpace(*input.Unit)
	}
	if input.CostPrice != nil {
		if input.CostPrice.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "cost price must not be negative")
		}
		item.CostPrice = *input.CostPrice
	}
	if input.SellingPrice != nil {
		if input.SellingPrice.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "selling price must not be negative")
		}
		item.SellingPrice = *input.SellingPrice
	}
	if input.ReorderLevel != nil {
		if *input.ReorderLevel < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "reorder level must not be negative")
		}
		item.ReorderLevel = *input.ReorderLevel
	}
	if input.Category != nil {
		item.Category = input.Category
	}
	if input.IsActive != nil {
		item.IsActive = *input.IsActive
	}

	if err := s.repo.Update(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

func (s *service) GetItem(ctx context.Context, tenantID, itemID uuid.UUID) (*models.Item, error) {
	if tenantID == uuid.Nil || itemID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "tenant id and item id are required")
	}
	item, err := s.repo.FindByID(ctx, tenantID, itemID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "item not found")
	}
	return item, nil
}

func (s *service) ListItems(ctx context.Context, tenantID uuid.UUID, activeOnly bool) ([]models.Item, error) {
	if tenantID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "tenant id is required")
	}
	return s.repo.List(ctx, tenantID, activeOnly)
}

// Resolve looks an item up by code first, then by name. Both lookups are
// tenant scoped and case insensitive. A nil item with a nil error means
// the row simply does not exist.
func (s *service) Resolve(ctx context.Context, tenantID uuid.UUID, name, code string) (*models.Item, error) {
	if tenantID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "tenant id is required")
	}
	if strings.TrimSpace(code) != "" {
		item, err := s.repo.FindByCode(ctx, tenantID, code)
		if err != nil || item != nil {
			return item, err
		}
	}
	if strings.TrimSpace(name) != "" {
		return s.repo.FindByName(ctx, tenantID, name)
	}
	return nil, nil
}
