package controllers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/dukapoint/stockledger-backend/api/responses"
	"github.com/dukapoint/stockledger-backend/api/validators"
	"github.com/dukapoint/stockledger-backend/internal/movements"
	pkgerrors "github.com/dukapoint/stockledger-backend/pkg/errors"
	"github.com/dukapoint/stockledger-backend/pkg/logger"
)

func MovementsRecord(svc movements.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		tenantID, userID, err := identity(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var input movements.RecordMovementInput
		if err := validators.DecodeJSONBody(r, &input); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		input.ActorID = userID

		movement, err := svc.Record(ctx, tenantID, input)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, movement)
	}
}

func MovementsHistory(svc movements.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		tenantID, _, err := identity(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		itemID, err := uuid.Parse(chi.URLParam(r, "itemID"))
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid item id"))
			return
		}

		from, err := optionalDate(r, "from")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		to, err := optionalDate(r, "to")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		history, err := svc.History(ctx, tenantID, itemID, from, to)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, history)
	}
}

func StockLevels(svc movements.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		tenantID, _, err := identity(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		levels, err := svc.StockLevels(ctx, tenantID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, levels)
	}
}

func StockCurrent(svc movements.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		tenantID, _, err := identity(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		itemID, err := uuid.Parse(chi.URLParam(r, "itemID"))
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid item id"))
			return
		}

		counterID, err := optionalUUID(r, "counter_id")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		total, err := svc.CurrentStock(ctx, tenantID, itemID, counterID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{
			"item_id":    itemID,
			"counter_id": counterID,
			"total":      total,
		})
	}
}

func optionalDate(r *http.Request, param string) (*time.Time, error) {
	raw := r.URL.Query().Get(param)
	if raw == "" {
		return nil, nil
	}
	parsed, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, param+" must be a YYYY-MM-DD date")
	}
	return &parsed, nil
}

func optionalUUID(r *http.Request, param string) (*uuid.UUID, error) {
	raw := r.URL.Query().Get(param)
	if raw == "" {
		return nil, nil
	}
	parsed, err := uuid.Parse(raw)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, param+" must be a valid uuid")
	}
	return &parsed, nil
}
