package counters

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/dukapoint/stockledger-backend/pkg/db"
	"github.com/dukapoint/stockledger-backend/pkg/db/models"
	pkgerrors "github.com/dukapoint/stockledger-backend/pkg/errors"
)

// Service defines registry operations for tenant counters.
type Service interface {
	CreateCounter(ctx context.Context, tenantID uuid.UUID, input CreateCounterInput) (*models.Counter, error)
	ListCounters(ctx context.Context, tenantID uuid.UUID, activeOnly bool) ([]models.Counter, error)
	GetCounter(ctx context.Context, tenantID, counterID uuid.UUID) (*models.Counter, error)
	Resolve(ctx context.Context, tenantID uuid.UUID, name string) (*models.Counter, error)
	SetActive(ctx context.Context, tenantID, counterID uuid.UUID, active bool) (*models.Counter, error)
}

type service struct {
	repo Repository
}

// CreateCounterInput captures the fields a new counter requires.
type CreateCounterInput struct {
	Name string `json:"name" validate:"required"`
}

// NewService wires a counter service with the provided repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("counters repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) CreateCounter(ctx context.Context, tenantID uuid.UUID, input CreateCounterInput) (*models.Counter, error) {
	if tenantID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "tenant id is required")
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "counter name is required")
	}

	counter := &models.Counter{
		TenantID: tenantID,
		Name:     name,
		IsActive: true,
	}
	if err := s.repo.Create(ctx, counter); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, fmt.Sprintf("counter %q already exists", name))
		}
		return nil, err
	}
	return counter, nil
}

func (s *service) ListCounters(ctx context.Context, tenantID uuid.UUID, activeOnly bool) ([]models.Counter, error) {
	if tenantID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "tenant id is required")
	}
	return s.repo.List(ctx, tenantID, activeOnly)
}

func (s *service) GetCounter(ctx context.Context, tenantID, counterID uuid.UUID) (*models.Counter, error) {
	if tenantID == uuid.Nil || counterID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "tenant id and counter id are required")
	}
	counter, err := s.repo.FindByID(ctx, tenantID, counterID)
	if err != nil {
		return nil, err
	}
	if counter == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "counter not found")
	}
	return counter, nil
}

// Resolve finds a counter by its display name, tolerating whitespace and
// case differences. A nil counter with a nil error means no match.
func (s *service) Resolve(ctx context.Context, tenantID uuid.UUID, name string) (*models.Counter, error) {
	if tenantID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "tenant id is required")
	}
	if strings.TrimSpace(name) == "" {
		return nil, nil
	}
	return s.repo.FindByName(ctx, tenantID, name)
}

func (s *service) SetActive(ctx context.Context, tenantID, counterID uuid.UUID, active bool) (*models.Counter, error) {
	counter, err := s.GetCounter(ctx, tenantID, counterID)
	if err != nil {
		return nil, err
	}
	counter.IsActive = active
	if err := s.repo.Update(ctx, counter); err != nil {
		return nil, err
	}
	return counter, nil
}
