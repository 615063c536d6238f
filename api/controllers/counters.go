package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/dukapoint/stockledger-backend/api/responses"
	"github.com/dukapoint/stockledger-backend/api/validators"
	"github.com/dukapoint/stockledger-backend/internal/counters"
	pkgerrors "github.com/dukapoint/stockledger-backend/pkg/errors"
	"github.com/dukapoint/stockledger-backend/pkg/logger"
)

func CountersCreate(svc counters.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		tenantID, _, err := identity(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var input counters.CreateCounterInput
		if err := validators.DecodeJSONBody(r, &input); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		counter, err := svc.CreateCounter(ctx, tenantID, input)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, counter)
	}
}

func CountersList(svc counters.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		tenantID, _, err := identity(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		activeOnly := r.URL.Query().Get("active") == "true"
		list, err := svc.ListCounters(ctx, tenantID, activeOnly)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

func CountersSetActive(svc counters.Service, logg *logger.Logger) http.HandlerFunc {
	type payload struct {
		IsActive *bool `json:"is_active" validate:"required"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		tenantID, _, err := identity(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		counterID, err := uuid.Parse(chi.URLParam(r, "counterID"))
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid counter id"))
			return
		}

		var input payload
		if err := validators.DecodeJSONBody(r, &input); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		counter, err := svc.SetActive(ctx, tenantID, counterID, *input.IsActive)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, counter)
	}
}
